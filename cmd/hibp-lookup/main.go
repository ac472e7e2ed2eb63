// Command hibp-lookup checks an account against the Have I Been Pwned
// breach and paste APIs. Configuration comes from the environment (or a
// .env file): HIBP_API_KEY and HIBP_USER_AGENT are required.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pwnalert/hibp"
	"github.com/samber/do/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	_ "github.com/joho/godotenv/autoload"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <account>\n", os.Args[0])
		os.Exit(2)
	}
	account := os.Args[1]

	injector := do.New()
	do.ProvideValue(injector, logger)

	if _, err := hibp.Register(injector, hibp.FromEnv("HIBP"),
		hibp.WithRetryPolicy(hibp.ExponentialBackoff(3, 500*time.Millisecond, 5*time.Second)),
	); err != nil {
		logger.Fatal("registration failed", zap.Error(err))
	}

	svc, err := do.Invoke[hibp.Provider](injector)
	if err != nil {
		logger.Fatal("resolving lookup service failed", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var (
		breaches []hibp.Breach
		pastes   []hibp.Paste
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		breaches, err = svc.BreachedAccount(ctx, account)
		return err
	})
	g.Go(func() error {
		var err error
		pastes, err = svc.PasteAccount(ctx, account)
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("lookup failed", zap.Error(err))
	}

	fmt.Printf("%s: %d breaches, %d pastes\n", account, len(breaches), len(pastes))
	for _, b := range breaches {
		fmt.Printf("  breach %s (%s) on %s, %d accounts\n", b.Title, b.Domain, b.BreachDate, b.PwnCount)
	}
	for _, p := range pastes {
		fmt.Printf("  paste %s (%s) on %s, %d emails\n", p.Title, p.Source, p.Date, p.EmailCount)
	}

	injector.Shutdown()
}
