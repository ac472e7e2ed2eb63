package hibp

import "github.com/kelseyhightower/envconfig"

// Options is the shared configuration value used to build every outgoing
// request header for both named clients. Both fields are required; an
// empty value surfaces as a ConfigurationMissingError when the first
// client is constructed, never at registration time. For that reason the
// envconfig tags deliberately omit required:"true".
type Options struct {
	APIKey    string `envconfig:"API_KEY"`
	UserAgent string `envconfig:"USER_AGENT"`
}

// OptionsSource produces the Options value bound during Register. Use
// Configure for an inline configurator or FromEnv to bind from an
// environment prefix.
type OptionsSource interface {
	bind() (Options, error)
	validate() error
}

// BindOptions resolves an OptionsSource into a concrete Options value.
// Register performs this lazily at first client construction; the fx
// wiring uses it directly.
func BindOptions(source OptionsSource) (Options, error) {
	if source == nil {
		return Options{}, &InvalidArgumentError{Param: "source"}
	}
	if err := source.validate(); err != nil {
		return Options{}, err
	}
	return source.bind()
}

type inlineSource struct {
	configure func(*Options)
}

// Configure binds Options by running fn against a zero value.
func Configure(fn func(*Options)) OptionsSource {
	return &inlineSource{configure: fn}
}

func (s *inlineSource) bind() (Options, error) {
	var opts Options
	s.configure(&opts)
	return opts, nil
}

func (s *inlineSource) validate() error {
	if s.configure == nil {
		return &InvalidArgumentError{Param: "configure"}
	}
	return nil
}

type envSource struct {
	prefix string
}

// FromEnv binds Options from environment variables under the given
// prefix, e.g. FromEnv("HIBP") reads HIBP_API_KEY and HIBP_USER_AGENT.
func FromEnv(prefix string) OptionsSource {
	return &envSource{prefix: prefix}
}

func (s *envSource) bind() (Options, error) {
	var opts Options
	if err := envconfig.Process(s.prefix, &opts); err != nil {
		return Options{}, err
	}
	return opts, nil
}

func (s *envSource) validate() error {
	if s.prefix == "" {
		return &InvalidArgumentError{Param: "prefix"}
	}
	return nil
}
