// Package hibp registers pre-configured, named HTTP clients for the
// Have I Been Pwned API into a service registry and exposes breach,
// paste and pwned-password lookups as singleton services.
//
// The typical entry point is Register, which wires everything into a
// samber/do injector:
//
//	injector := do.New()
//	_, err := hibp.Register(injector, hibp.FromEnv("HIBP"),
//		hibp.WithRetryPolicy(hibp.ExponentialBackoff(3, 500*time.Millisecond, 5*time.Second)))
//	svc := do.MustInvoke[hibp.Provider](injector)
//
// Applications built on go.uber.org/fx can use the hibpfx package
// instead, which provides the same graph as an fx module.
package hibp
