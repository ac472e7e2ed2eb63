package hibp

import "fmt"

// InvalidArgumentError reports a missing required argument to Register.
// It is always returned before the injector is mutated.
type InvalidArgumentError struct {
	Param string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("hibp: invalid argument: %s is required", e.Param)
}

// ConfigurationMissingError reports that the bound Options value was
// empty when a named client was constructed. It surfaces at first
// resolution of the client, not at registration time.
type ConfigurationMissingError struct {
	Client string
	Field  string
}

func (e *ConfigurationMissingError) Error() string {
	return fmt.Sprintf("hibp: cannot construct client %q: options field %s is empty", e.Client, e.Field)
}

// StatusError reports an unexpected HTTP status from the API.
type StatusError struct {
	Client     string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("hibp: client %q: unexpected status code %d", e.Client, e.StatusCode)
}
