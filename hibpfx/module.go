// Package hibpfx exposes the hibp client graph as an fx module. The
// named clients carry the same "HibpClient" and "PasswordsClient" names
// as the samber/do registration, via fx name tags.
//
// Options bind from the HIBP environment prefix by default; tests and
// applications can swap them with fx.Replace. A retry policy is opted
// into by providing a hibp.RetryPolicyFactory:
//
//	fx.Provide(func() hibp.RetryPolicyFactory {
//		return hibp.ExponentialBackoff(3, 500*time.Millisecond, 5*time.Second)
//	})
package hibpfx

import (
	"context"

	"github.com/pwnalert/hibp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const envPrefix = "HIBP"

var Module = fx.Module("hibp",
	fx.Provide(
		NewOptions,
		hibp.NewHTTPConfig,
		newBreakerRegistry,
		fx.Annotate(
			newBreachClient,
			fx.ParamTags("", "", "", `optional:"true"`, `optional:"true"`),
			fx.ResultTags(`name:"HibpClient"`),
		),
		fx.Annotate(
			newPasswordsClient,
			fx.ParamTags("", "", "", `optional:"true"`, `optional:"true"`),
			fx.ResultTags(`name:"PasswordsClient"`),
		),
		fx.Annotate(
			newService,
			fx.ParamTags("", `name:"HibpClient"`, `name:"PasswordsClient"`, `optional:"true"`),
			fx.As(fx.Self()),
			fx.As(new(hibp.BreachProvider)),
			fx.As(new(hibp.PasteProvider)),
			fx.As(new(hibp.PwnedPasswordProvider)),
			fx.As(new(hibp.Provider)),
		),
	),
)

// NewOptions binds hibp.Options from the HIBP environment prefix.
func NewOptions() (hibp.Options, error) {
	return hibp.BindOptions(hibp.FromEnv(envPrefix))
}

type breakerParams struct {
	fx.In

	Logger *zap.Logger `optional:"true"`
}

func newBreakerRegistry(params breakerParams) *hibp.BreakerRegistry {
	return hibp.NewBreakerRegistry(hibp.NewBreakerConfig(), params.Logger)
}

func clientParams(
	options hibp.Options,
	config hibp.HTTPConfig,
	breakers *hibp.BreakerRegistry,
	retry hibp.RetryPolicyFactory,
	logger *zap.Logger,
) hibp.ClientParams {
	return hibp.ClientParams{
		Options:  options,
		Config:   config,
		Retry:    retry,
		Breakers: breakers,
		Logger:   logger,
	}
}

func newBreachClient(
	options hibp.Options,
	config hibp.HTTPConfig,
	breakers *hibp.BreakerRegistry,
	retry hibp.RetryPolicyFactory,
	logger *zap.Logger,
) (*hibp.HTTPClient, error) {
	return hibp.NewBreachClient(clientParams(options, config, breakers, retry, logger))
}

func newPasswordsClient(
	options hibp.Options,
	config hibp.HTTPConfig,
	breakers *hibp.BreakerRegistry,
	retry hibp.RetryPolicyFactory,
	logger *zap.Logger,
) (*hibp.HTTPClient, error) {
	return hibp.NewPasswordsClient(clientParams(options, config, breakers, retry, logger))
}

func newService(
	lc fx.Lifecycle,
	breach *hibp.HTTPClient,
	passwords *hibp.HTTPClient,
	logger *zap.Logger,
) (*hibp.Service, error) {
	svc, err := hibp.NewService(hibp.ServiceParams{
		BreachClient:    breach,
		PasswordsClient: passwords,
		Logger:          logger,
	})
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return svc.Shutdown()
		},
	})

	return svc, nil
}
