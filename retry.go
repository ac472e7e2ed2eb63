package hibp

import (
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// RetryPolicyFactory configures the retry behavior applied to a named
// client's outgoing requests. The *retryablehttp.Client it receives is
// already scoped to transient failures only (network faults, 429 and
// 5xx responses); the factory sets attempt counts and backoff. When no
// factory is supplied, requests are issued once with no retry wrapping.
type RetryPolicyFactory func(*retryablehttp.Client)

// ExponentialBackoff returns a factory retrying up to maxRetries times
// with exponentially growing waits between waitMin and waitMax.
func ExponentialBackoff(maxRetries int, waitMin, waitMax time.Duration) RetryPolicyFactory {
	return func(rc *retryablehttp.Client) {
		rc.RetryMax = maxRetries
		rc.RetryWaitMin = waitMin
		rc.RetryWaitMax = waitMax
		rc.Backoff = retryablehttp.DefaultBackoff
	}
}

// retryTransport wraps the default transport with a transient-error
// retry pipeline built from the supplied factory.
func retryTransport(factory RetryPolicyFactory) http.RoundTripper {
	rc := retryablehttp.NewClient()
	rc.Logger = nil
	rc.CheckRetry = retryablehttp.DefaultRetryPolicy
	factory(rc)

	return &retryablehttp.RoundTripper{Client: rc}
}
