package app

import (
	"context"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"google.golang.org/grpc"

	"github.com/chiro2001/financial-frontend/internal/bus"
	"github.com/chiro2001/financial-frontend/internal/config"
	"github.com/chiro2001/financial-frontend/internal/dispatch"
	"github.com/chiro2001/financial-frontend/internal/executor"
	"github.com/chiro2001/financial-frontend/internal/logging"
	"github.com/chiro2001/financial-frontend/internal/remote"
)

// Runtime wires an App to its executor and dispatch service.
type Runtime struct {
	App  *App
	Exec executor.Executor
	// Restored reports whether a cached session was found at start.
	Restored bool

	cancel context.CancelFunc
	done   <-chan error
	rx     *bus.Receiver
	logger log.Logger
}

type runtimeOptions struct {
	logger      log.Logger
	metrics     *remote.Metrics
	dialOptions []grpc.DialOption
	dial        dispatch.DialFunc
	cachePath   string
	target      func(host string) string
}

// RuntimeOption configures Start.
type RuntimeOption func(*runtimeOptions)

// WithRuntimeLogger sets the logger shared by every component.
func WithRuntimeLogger(logger log.Logger) RuntimeOption {
	return func(o *runtimeOptions) { o.logger = logger }
}

// WithMetrics instruments every client handle.
func WithMetrics(m *remote.Metrics) RuntimeOption {
	return func(o *runtimeOptions) { o.metrics = m }
}

// WithDialOptions are appended to the gRPC dial options of every handle.
func WithDialOptions(opts ...grpc.DialOption) RuntimeOption {
	return func(o *runtimeOptions) { o.dialOptions = append(o.dialOptions, opts...) }
}

// WithTarget maps a host to the dial target; the default joins the host
// with the configured port.
func WithTarget(target func(host string) string) RuntimeOption {
	return func(o *runtimeOptions) { o.target = target }
}

// WithDialFunc replaces gRPC dialing altogether.
func WithDialFunc(dial dispatch.DialFunc) RuntimeOption {
	return func(o *runtimeOptions) { o.dial = dial }
}

// WithSessionCache enables the session cache at path.
func WithSessionCache(path string) RuntimeOption {
	return func(o *runtimeOptions) { o.cachePath = path }
}

// Start builds the executor, the buses, the dispatch service and the App,
// connects to the configured host and restores a cached session. Stop
// releases everything.
func Start(ctx context.Context, cfg *config.Config, opts ...RuntimeOption) (*Runtime, error) {
	o := runtimeOptions{logger: log.NewNopLogger(), target: cfg.Endpoint}
	for _, opt := range opts {
		opt(&o)
	}

	mode, err := executor.ParseMode(cfg.Executor.Mode)
	if err != nil {
		return nil, err
	}
	exec, err := executor.New(mode, executor.Options{
		Workers: cfg.Executor.Workers,
		Timeout: cfg.Fetch.Timeout,
		Logger:  logging.Component(o.logger, "executor"),
	})
	if err != nil {
		return nil, err
	}

	dial := o.dial
	if dial == nil {
		dial = grpcDialer(cfg, o)
	}
	client, err := dial(ctx, cfg.Remote.Host)
	if err != nil {
		exec.Close()
		return nil, err
	}

	inTx, inRx := bus.New()
	uiTx, uiRx := bus.New()
	svc := dispatch.New(inRx, uiTx, exec, dial,
		dispatch.WithPollInterval(cfg.Dispatch.PollInterval),
		dispatch.WithLogger(logging.Component(o.logger, "dispatch")),
		dispatch.WithClient(client),
	)
	a := New(uiRx, inTx, exec, cfg,
		WithClient(client),
		WithCachePath(o.cachePath),
		WithLogger(logging.Component(o.logger, "app")),
	)

	ctx, cancel := context.WithCancel(ctx)
	r := &Runtime{
		App:    a,
		Exec:   exec,
		cancel: cancel,
		done:   svc.Start(ctx),
		rx:     uiRx,
		logger: o.logger,
	}
	r.Restored = a.RestoreSession()
	return r, nil
}

func grpcDialer(cfg *config.Config, o runtimeOptions) dispatch.DialFunc {
	return func(_ context.Context, host string) (remote.Client, error) {
		var dialOpts []grpc.DialOption
		if !cfg.Remote.Insecure {
			dialOpts = append(dialOpts, remote.WithTLS())
		}
		dialOpts = append(dialOpts, o.dialOptions...)

		c, err := remote.Dial(o.target(host), dialOpts...)
		if err != nil {
			return nil, err
		}
		mws := []remote.Middleware{remote.LoggingMiddleware(logging.Component(o.logger, "remote"))}
		if o.metrics != nil {
			mws = append(mws, remote.InstrumentingMiddleware(o.metrics))
		}
		return remote.Wrap(c, mws...), nil
	}
}

// Stop ends the dispatch service, waits for background work and closes the
// current connection.
func (r *Runtime) Stop() {
	r.cancel()
	if err := <-r.done; err != nil {
		_ = level.Warn(r.logger).Log("msg", "dispatch service failed", "err", err)
	}
	r.rx.Close()
	r.Exec.Close()

	waited := make(chan struct{})
	go func() {
		r.Exec.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-time.After(time.Second):
		_ = level.Warn(r.logger).Log("msg", "background tasks still running at exit")
	}

	if c := r.App.Client(); c != nil {
		_ = c.Close()
	}
}
