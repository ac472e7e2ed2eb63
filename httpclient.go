package hibp

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pwnalert/hibp/internal/metrics"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

// Named client identifiers. These are an external contract: other code
// resolves the clients from the registry by these exact names.
const (
	HibpClientName      = "HibpClient"
	PasswordsClientName = "PasswordsClient"
)

const (
	apiKeyHeader = "hibp-api-key"

	instrumentationScope = "github.com/pwnalert/hibp"
)

// HTTPConfig carries the per-process client settings. Base URLs default
// to the public API endpoints and exist mostly so tests and proxies can
// point the clients elsewhere.
type HTTPConfig struct {
	Timeout           time.Duration `envconfig:"HIBP_HTTP_TIMEOUT" default:"10s"`
	BreachAPIURL      string        `envconfig:"HIBP_BREACH_API_URL" default:"https://haveibeenpwned.com/api/v3/"`
	PwnedPasswordsURL string        `envconfig:"HIBP_PWNED_PASSWORDS_URL" default:"https://api.pwnedpasswords.com/"`
}

func NewHTTPConfig() HTTPConfig {
	var cfg HTTPConfig
	envconfig.MustProcess("", &cfg)

	return cfg
}

// HTTPClient is a named, pre-configured client: base URL and default
// headers are fixed at construction time, every request goes through the
// per-client circuit breaker and is recorded by the metrics collector.
type HTTPClient struct {
	name       string
	baseURL    *url.URL
	header     http.Header
	httpclient *http.Client

	breakers  *BreakerRegistry
	collector *metrics.Collector
	logger    *zap.Logger
}

// ClientParams collects the collaborators for a named client. Options
// and Config are required; the rest default when left zero.
type ClientParams struct {
	Options  Options
	Config   HTTPConfig
	Retry    RetryPolicyFactory
	Breakers *BreakerRegistry
	Logger   *zap.Logger
}

// NewBreachClient constructs the "HibpClient" named client used for
// breach and paste lookups.
func NewBreachClient(params ClientParams) (*HTTPClient, error) {
	return newNamedClient(HibpClientName, params.Config.BreachAPIURL, nil, params)
}

// NewPasswordsClient constructs the "PasswordsClient" named client used
// for pwned-password range lookups. It always sends Accept: text/plain.
func NewPasswordsClient(params ClientParams) (*HTTPClient, error) {
	extra := http.Header{}
	extra.Set("Accept", "text/plain")

	return newNamedClient(PasswordsClientName, params.Config.PwnedPasswordsURL, extra, params)
}

func newNamedClient(name, rawBaseURL string, extra http.Header, params ClientParams) (*HTTPClient, error) {
	if params.Options.APIKey == "" {
		return nil, &ConfigurationMissingError{Client: name, Field: "APIKey"}
	}
	if params.Options.UserAgent == "" {
		return nil, &ConfigurationMissingError{Client: name, Field: "UserAgent"}
	}

	// Relative reference resolution needs a trailing slash on the base.
	if !strings.HasSuffix(rawBaseURL, "/") {
		rawBaseURL += "/"
	}
	baseURL, err := url.Parse(rawBaseURL)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set(apiKeyHeader, params.Options.APIKey)
	header.Set("User-Agent", params.Options.UserAgent)
	for k, vs := range extra {
		for _, v := range vs {
			header.Add(k, v)
		}
	}

	transport := http.DefaultTransport
	if params.Retry != nil {
		transport = retryTransport(params.Retry)
	}

	breakers := params.Breakers
	if breakers == nil {
		breakers = NewBreakerRegistry(NewBreakerConfig(), params.Logger)
	}

	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	collector, err := metrics.NewCollector(otel.Meter(instrumentationScope))
	if err != nil {
		return nil, err
	}

	return &HTTPClient{
		name:    name,
		baseURL: baseURL,
		header:  header,
		httpclient: &http.Client{
			Timeout:   params.Config.Timeout,
			Transport: transport,
		},
		breakers:  breakers,
		collector: collector,
		logger:    logger.With(zap.String("client", name)),
	}, nil
}

// Name returns the registry name of the client.
func (c *HTTPClient) Name() string {
	return c.name
}

// NewRequest resolves ref against the client base URL and applies the
// default header set.
func (c *HTTPClient) NewRequest(ctx context.Context, method, ref string) (*http.Request, error) {
	rel, err := url.Parse(ref)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.ResolveReference(rel).String(), nil)
	if err != nil {
		return nil, err
	}

	for k, vs := range c.header {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}

	return req, nil
}

// Do executes the request through the client circuit breaker. Transport
// failures and 5xx responses count as breaker failures; any other
// status is returned to the caller for interpretation.
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	start := time.Now()

	breaker := c.breakers.GetOrCreate(c.name)
	c.collector.RecordBreakerState(req.Context(), c.name, breaker.State().String())

	resp, err := breaker.Execute(func() (*http.Response, error) {
		resp, err := c.httpclient.Do(req)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode >= http.StatusInternalServerError {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil, &StatusError{Client: c.name, StatusCode: resp.StatusCode}
		}

		return resp, nil
	})

	duration := time.Since(start)
	statusCode := 0
	if resp != nil {
		statusCode = resp.StatusCode
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		statusCode = statusErr.StatusCode
	}

	c.collector.RecordRequest(req.Context(), c.name, req.Method, statusCode, duration, err)

	if err != nil {
		c.logger.Debug("request failed",
			zap.String("method", req.Method),
			zap.String("url", req.URL.Redacted()),
			zap.Error(err),
		)
		return nil, err
	}

	return resp, nil
}
