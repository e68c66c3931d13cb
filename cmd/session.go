package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/chiro2001/financial-frontend/internal/app"
	"github.com/chiro2001/financial-frontend/internal/auth"
	"github.com/chiro2001/financial-frontend/internal/config"
	"github.com/chiro2001/financial-frontend/internal/keyring"
	"github.com/chiro2001/financial-frontend/internal/logging"
	"github.com/chiro2001/financial-frontend/internal/market"
	"github.com/chiro2001/financial-frontend/internal/stockview"
)

// settleInterval is how often headless commands run a frame.
const settleInterval = 10 * time.Millisecond

// ErrNotLoggedIn is returned when no cached session or remembered
// credentials are available.
var ErrNotLoggedIn = errors.New("not logged in. Run: stockview login")

// sessionOptions holds what a headless command needs to reach the service.
// Tests replace the runtime options to dial an in-process server.
type sessionOptions struct {
	cfg         *config.Config
	store       keyring.Store
	cachePath   string
	runtimeOpts []app.RuntimeOption
	timeout     time.Duration
	jsonMode    bool
}

// defaultSessionOptions loads the config and the production dependencies.
func defaultSessionOptions() (sessionOptions, error) {
	cfg, err := loadConfig()
	if err != nil {
		return sessionOptions{}, err
	}
	return sessionOptions{
		cfg:       cfg,
		store:     keyring.NewEnvStore(keyring.NewSystemStore()),
		cachePath: auth.TokenCachePath(),
		runtimeOpts: []app.RuntimeOption{
			app.WithRuntimeLogger(logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)),
		},
		timeout:  30 * time.Second,
		jsonMode: GetJSONMode(),
	}, nil
}

// startRuntime connects without requiring a session.
func startRuntime(ctx context.Context, opts sessionOptions) (*app.Runtime, error) {
	runtimeOpts := append([]app.RuntimeOption{app.WithSessionCache(opts.cachePath)}, opts.runtimeOpts...)
	rt, err := app.Start(ctx, opts.cfg, runtimeOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", opts.cfg.Address(), err)
	}
	return rt, nil
}

// startSession connects and makes sure a session exists, logging in with
// remembered credentials when nothing is cached.
func startSession(ctx context.Context, opts sessionOptions) (*app.Runtime, error) {
	rt, err := startRuntime(ctx, opts)
	if err != nil {
		return nil, err
	}
	if rt.Restored {
		return rt, nil
	}

	creds, err := keyring.LoadCredentials(opts.store)
	if err != nil || creds.Validate() != nil {
		rt.Stop()
		return nil, ErrNotLoggedIn
	}
	if err := authenticate(ctx, rt.App, creds, false, opts.timeout); err != nil {
		rt.Stop()
		return nil, err
	}
	return rt, nil
}

// authenticate logs in or registers and waits for the outcome.
func authenticate(ctx context.Context, a *app.App, creds auth.Credentials, register bool, timeout time.Duration) error {
	var err error
	if register {
		err = a.Register(creds)
	} else {
		err = a.Login(creds)
	}
	if err != nil {
		return err
	}
	if err := settle(ctx, a, timeout, func(a *app.App) bool { return !a.LoggingIn() }); err != nil {
		return err
	}
	if msg := a.AuthErr(); msg != "" {
		return fmt.Errorf("authentication failed: %s", msg)
	}
	return nil
}

// settle runs the frame loop until done holds or timeout passes.
func settle(ctx context.Context, a *app.App, timeout time.Duration, done func(*app.App) bool) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := a.RunUntil(ctx, settleInterval, done); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("timed out after %s", timeout)
		}
		return err
	}
	return nil
}

// loadEntities waits for the stock list.
func loadEntities(ctx context.Context, a *app.App, timeout time.Duration) ([]market.Entity, error) {
	err := settle(ctx, a, timeout, func(a *app.App) bool {
		return a.AllEntities() != nil || a.EntitiesErr() != ""
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stock list: %w", err)
	}
	if msg := a.EntitiesErr(); msg != "" {
		return nil, fmt.Errorf("failed to fetch stock list: %s", msg)
	}
	return a.AllEntities(), nil
}

// openSeries opens the view of symbol at g and waits for its series.
func openSeries(ctx context.Context, a *app.App, symbol string, g market.Granularity, timeout time.Duration) (*stockview.Controller, error) {
	entities, err := loadEntities(ctx, a, timeout)
	if err != nil {
		return nil, err
	}
	var entity *market.Entity
	for i := range entities {
		if entities[i].Symbol == symbol || entities[i].Code == symbol {
			entity = &entities[i]
			break
		}
	}
	if entity == nil {
		return nil, fmt.Errorf("unknown symbol %q", symbol)
	}

	v := a.OpenView(*entity)
	v.SetGranularity(g)
	err = settle(ctx, a, timeout, func(*app.App) bool {
		s := v.State()
		return s == stockview.StateLoaded || s == stockview.StateFailed
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s series: %w", g, err)
	}
	if v.State() == stockview.StateFailed {
		return nil, fmt.Errorf("failed to fetch %s series: %s", g, v.Err())
	}
	return v, nil
}
