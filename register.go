package hibp

import (
	"github.com/samber/do/v2"
	"go.uber.org/zap"
)

// Internal service names. The named clients use the exported
// HibpClientName / PasswordsClientName contract instead.
const (
	loggerService  = "hibp.logger"
	optionsService = "hibp.options"
)

type registerConfig struct {
	retry      RetryPolicyFactory
	httpConfig *HTTPConfig
}

// RegisterOption customizes Register.
type RegisterOption func(*registerConfig) error

// WithRetryPolicy applies a transient-error retry policy to both named
// clients. Passing nil is a caller error and fails registration.
func WithRetryPolicy(factory RetryPolicyFactory) RegisterOption {
	return func(cfg *registerConfig) error {
		if factory == nil {
			return &InvalidArgumentError{Param: "retry policy factory"}
		}
		cfg.retry = factory
		return nil
	}
}

// WithHTTPConfig overrides the environment-derived HTTPConfig.
func WithHTTPConfig(httpConfig HTTPConfig) RegisterOption {
	return func(cfg *registerConfig) error {
		cfg.httpConfig = &httpConfig
		return nil
	}
}

// Register wires the HIBP clients and lookup services into the
// injector:
//
//   - a named logger and the Options binding (lazy, from source)
//   - the named clients "HibpClient" and "PasswordsClient"
//   - one *Service singleton, bound as BreachProvider, PasteProvider,
//     PwnedPasswordProvider and the combined Provider
//
// All arguments are validated before the injector is touched; a nil
// injector, nil source or nil retry factory returns an
// *InvalidArgumentError and leaves the injector unmodified. Bindings
// are installed with Override semantics, so calling Register again on
// the same injector replaces them and never raises.
//
// Register returns the injector it was given so calls can be chained.
func Register(injector do.Injector, source OptionsSource, opts ...RegisterOption) (do.Injector, error) {
	if injector == nil {
		return nil, &InvalidArgumentError{Param: "injector"}
	}
	if source == nil {
		return nil, &InvalidArgumentError{Param: "source"}
	}
	if err := source.validate(); err != nil {
		return nil, err
	}

	var cfg registerConfig
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	do.OverrideNamed(injector, loggerService, func(i do.Injector) (*zap.Logger, error) {
		// Prefer a logger the application registered itself.
		if logger, err := do.Invoke[*zap.Logger](i); err == nil {
			return logger, nil
		}
		return zap.NewProduction()
	})

	do.OverrideNamed(injector, optionsService, func(do.Injector) (Options, error) {
		return source.bind()
	})

	do.Override(injector, func(do.Injector) (HTTPConfig, error) {
		if cfg.httpConfig != nil {
			return *cfg.httpConfig, nil
		}
		return NewHTTPConfig(), nil
	})

	do.Override(injector, func(i do.Injector) (*BreakerRegistry, error) {
		logger, err := do.InvokeNamed[*zap.Logger](i, loggerService)
		if err != nil {
			return nil, err
		}
		return NewBreakerRegistry(NewBreakerConfig(), logger), nil
	})

	do.OverrideNamed(injector, HibpClientName, func(i do.Injector) (*HTTPClient, error) {
		params, err := clientParams(i, cfg)
		if err != nil {
			return nil, err
		}
		return NewBreachClient(params)
	})

	do.OverrideNamed(injector, PasswordsClientName, func(i do.Injector) (*HTTPClient, error) {
		params, err := clientParams(i, cfg)
		if err != nil {
			return nil, err
		}
		return NewPasswordsClient(params)
	})

	do.Override(injector, func(i do.Injector) (*Service, error) {
		breach, err := do.InvokeNamed[*HTTPClient](i, HibpClientName)
		if err != nil {
			return nil, err
		}
		passwords, err := do.InvokeNamed[*HTTPClient](i, PasswordsClientName)
		if err != nil {
			return nil, err
		}

		logger, err := do.InvokeNamed[*zap.Logger](i, loggerService)
		if err != nil {
			return nil, err
		}

		return NewService(ServiceParams{
			BreachClient:    breach,
			PasswordsClient: passwords,
			Logger:          logger,
		})
	})

	// All four capability bindings resolve the same *Service singleton.
	do.Override(injector, func(i do.Injector) (BreachProvider, error) {
		return do.Invoke[*Service](i)
	})
	do.Override(injector, func(i do.Injector) (PasteProvider, error) {
		return do.Invoke[*Service](i)
	})
	do.Override(injector, func(i do.Injector) (PwnedPasswordProvider, error) {
		return do.Invoke[*Service](i)
	})
	do.Override(injector, func(i do.Injector) (Provider, error) {
		return do.Invoke[*Service](i)
	})

	return injector, nil
}

func clientParams(i do.Injector, cfg registerConfig) (ClientParams, error) {
	options, err := do.InvokeNamed[Options](i, optionsService)
	if err != nil {
		return ClientParams{}, err
	}
	httpConfig, err := do.Invoke[HTTPConfig](i)
	if err != nil {
		return ClientParams{}, err
	}
	breakers, err := do.Invoke[*BreakerRegistry](i)
	if err != nil {
		return ClientParams{}, err
	}
	logger, err := do.InvokeNamed[*zap.Logger](i, loggerService)
	if err != nil {
		return ClientParams{}, err
	}

	return ClientParams{
		Options:  options,
		Config:   httpConfig,
		Retry:    cfg.retry,
		Breakers: breakers,
		Logger:   logger,
	}, nil
}
