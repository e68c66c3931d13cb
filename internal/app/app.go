// Package app holds the state owned by the frame loop: the session, the
// stock list with its search filter, and the open stock views. Every frame
// drains the event bus, applies what arrived and lets each view schedule
// the work it is missing.
//
// App is not safe for concurrent use; only the frame loop touches it.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/chiro2001/financial-frontend/internal/auth"
	"github.com/chiro2001/financial-frontend/internal/bus"
	"github.com/chiro2001/financial-frontend/internal/config"
	"github.com/chiro2001/financial-frontend/internal/event"
	"github.com/chiro2001/financial-frontend/internal/executor"
	"github.com/chiro2001/financial-frontend/internal/market"
	"github.com/chiro2001/financial-frontend/internal/remote"
	"github.com/chiro2001/financial-frontend/internal/stockview"
)

var (
	ErrNotConnected = errors.New("not connected")
	ErrLoginRunning = errors.New("a login is already running")
	ErrUnknownHost  = errors.New("unknown host")
)

// App is the frame loop's application state.
type App struct {
	rx     *bus.Receiver
	tx     bus.Sender
	exec   executor.Executor
	cfg    *config.Config
	logger log.Logger

	cachePath string
	host      string

	client    remote.Client
	session   *auth.Token
	authed    bool
	loggingIn bool
	authErr   string

	entities          []market.Entity
	entitiesRequested bool
	entitiesErr       string

	search *Search
	views  []*stockview.Controller

	runMode RunMode
	frames  *FrameHistory
	counts  map[string]int
}

// Option configures an App.
type Option func(*App)

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(a *App) { a.logger = logger }
}

// WithClient sets the client the app starts with.
func WithClient(c remote.Client) Option {
	return func(a *App) { a.client = c }
}

// WithCachePath enables the session cache at path.
func WithCachePath(path string) Option {
	return func(a *App) { a.cachePath = path }
}

// New creates an app that applies events from rx and hands tx to the work
// it schedules on exec.
func New(rx *bus.Receiver, tx bus.Sender, exec executor.Executor, cfg *config.Config, opts ...Option) *App {
	a := &App{
		rx:      rx,
		tx:      tx,
		exec:    exec,
		cfg:     cfg,
		logger:  log.NewNopLogger(),
		host:    cfg.Remote.Host,
		search:  NewSearch(""),
		runMode: ParseRunMode(cfg.UI.RunMode),
		frames:  NewFrameHistory(DefaultFrameHistory),
		counts:  make(map[string]int),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Frame runs one iteration of the frame loop and reports how many events
// it applied.
func (a *App) Frame(now time.Time) int {
	evs := a.rx.TryReceiveAll()
	for _, ev := range evs {
		a.apply(ev)
	}

	a.tickEntities()

	open := a.views[:0]
	for _, v := range a.views {
		if v.Open() {
			open = append(open, v)
		}
	}
	clear(a.views[len(open):])
	a.views = open

	for _, v := range a.views {
		v.Tick()
	}

	a.frames.Record(now)
	return len(evs)
}

func (a *App) apply(ev event.Event) {
	a.counts[event.Name(ev)]++
	_ = level.Debug(a.logger).Log("msg", "applying event", "event", event.Name(ev))

	switch e := ev.(type) {
	case event.ClientReady:
		a.client = e.Client
		a.authed = a.session != nil
		for _, v := range a.views {
			v.SetClient(e.Client)
		}
		if a.session == nil {
			a.RestoreSession()
		}

	case event.AuthSucceeded:
		tok := e.Token
		a.session = &tok
		a.authed = false
		a.loggingIn = false
		a.authErr = ""
		a.entitiesRequested = false
		a.entitiesErr = ""
		_ = level.Info(a.logger).Log("msg", "logged in", "user", tok.Username, "endpoint", tok.Endpoint)

	case event.AuthFailed:
		a.loggingIn = false
		a.authErr = e.Reason
		_ = level.Warn(a.logger).Log("msg", "authentication failed", "reason", e.Reason)

	case event.EntityListReady:
		a.entities = e.Entities
		a.entitiesErr = e.Err

	case event.Keyed:
		v := a.View(e.Key())
		if v == nil {
			_ = level.Debug(a.logger).Log("msg", "no open view for result", "event", event.Name(ev), "symbol", e.Key())
			return
		}
		v.Handle(ev)
	}
}

// tickEntities fetches the stock list once a session and a client holding
// its token exist.
func (a *App) tickEntities() {
	if !a.authed || a.client == nil || a.entitiesRequested {
		return
	}
	a.entitiesRequested = true

	client, tx, logger := a.client, a.tx, a.logger
	a.exec.Spawn(func(ctx context.Context) {
		entities, err := client.ListEntities(ctx)
		if err := tx.Send(event.NewEntityListReady(entities, err)); err != nil {
			_ = level.Debug(logger).Log("msg", "dropping stock list", "err", err)
		}
	})
}

// RefreshEntities asks for the stock list again after a failure.
func (a *App) RefreshEntities() bool {
	if a.entitiesErr == "" {
		return false
	}
	a.entitiesErr = ""
	a.entitiesRequested = false
	return true
}

// Login starts a login with creds on the current endpoint.
func (a *App) Login(creds auth.Credentials) error {
	return a.authenticate(creds, auth.Login)
}

// Register creates an account and logs in with it.
func (a *App) Register(creds auth.Credentials) error {
	return a.authenticate(creds, auth.Register)
}

func (a *App) authenticate(creds auth.Credentials, do func(context.Context, auth.Authenticator, auth.Credentials) (*auth.Token, error)) error {
	if err := creds.Validate(); err != nil {
		return err
	}
	if a.client == nil {
		return ErrNotConnected
	}
	if a.loggingIn {
		return ErrLoginRunning
	}
	a.loggingIn = true
	a.authErr = ""

	client, tx, cachePath, logger := a.client, a.tx, a.cachePath, a.logger
	a.exec.Spawn(func(ctx context.Context) {
		var ev event.Event
		token, err := do(ctx, client, creds)
		if err != nil {
			ev = event.AuthFailed{Reason: err.Error()}
		} else {
			token.Endpoint = client.Endpoint()
			if cachePath != "" {
				if err := auth.SaveToken(cachePath, token); err != nil {
					_ = level.Warn(logger).Log("msg", "failed to cache session", "err", err)
				}
			}
			ev = event.AuthSucceeded{Token: *token}
		}
		if err := tx.Send(ev); err != nil {
			_ = level.Debug(logger).Log("msg", "dropping login result", "err", err)
		}
	})
	return nil
}

// RestoreSession announces a cached session for the current endpoint and
// reports whether one was found.
func (a *App) RestoreSession() bool {
	if a.client == nil || a.cachePath == "" {
		return false
	}
	token := auth.CachedSession(a.cachePath, a.client.Endpoint())
	if token == nil {
		return false
	}
	_ = level.Info(a.logger).Log("msg", "restoring cached session", "user", token.Username)
	return a.tx.Send(event.AuthSucceeded{Token: *token}) == nil
}

// Logout forgets the session and removes it from the cache.
func (a *App) Logout() error {
	a.session = nil
	a.authed = false
	a.entities = nil
	a.entitiesRequested = false
	if a.cachePath == "" {
		return nil
	}
	return auth.DeleteToken(a.cachePath)
}

// SelectEndpoint switches to one of the known hosts. The session is
// dropped because tokens are issued per endpoint.
func (a *App) SelectEndpoint(host string) error {
	if !a.cfg.IsKnownHost(host) {
		return fmt.Errorf("%w %q", ErrUnknownHost, host)
	}
	if host == a.host {
		return nil
	}
	if err := a.tx.Send(event.EndpointSelected{Host: host}); err != nil {
		return err
	}
	a.host = host
	a.session = nil
	a.authed = false
	a.authErr = ""
	a.entities = nil
	a.entitiesErr = ""
	a.entitiesRequested = false
	return nil
}

// OpenView shows entity, reusing the view already open for its symbol.
func (a *App) OpenView(entity market.Entity) *stockview.Controller {
	if v := a.View(entity.Symbol); v != nil {
		return v
	}
	g, err := market.ParseGranularity(a.cfg.UI.Granularity)
	if err != nil {
		g = market.Weekly
	}
	v := stockview.New(entity, a.client, a.tx, a.exec,
		stockview.WithGranularity(g),
		stockview.WithPredictLength(a.cfg.UI.PredictLength),
		stockview.WithLogger(a.logger),
	)
	a.views = append(a.views, v)
	return v
}

// View returns the open view of symbol, or nil.
func (a *App) View(symbol string) *stockview.Controller {
	for _, v := range a.views {
		if v.Open() && v.Symbol() == symbol {
			return v
		}
	}
	return nil
}

// CloseView closes the view of symbol; it is dropped on the next frame.
func (a *App) CloseView(symbol string) {
	if v := a.View(symbol); v != nil {
		v.Close()
	}
}

// Views returns the views in the order they were opened.
func (a *App) Views() []*stockview.Controller { return a.views }

// SetSearch replaces the stock list filter.
func (a *App) SetSearch(pattern string) { a.search = NewSearch(pattern) }

func (a *App) Search() *Search { return a.search }

// Entities returns the stock list filtered by the current search.
func (a *App) Entities() []market.Entity {
	return a.search.Filter(a.entities)
}

func (a *App) AllEntities() []market.Entity { return a.entities }
func (a *App) EntitiesErr() string { return a.entitiesErr }
func (a *App) EntitiesLoading() bool { return a.entitiesRequested && a.entities == nil && a.entitiesErr == "" }
func (a *App) Session() *auth.Token { return a.session }
func (a *App) LoggedIn() bool { return a.session != nil }
func (a *App) LoggingIn() bool { return a.loggingIn }
func (a *App) AuthErr() string { return a.authErr }
func (a *App) Host() string { return a.host }
func (a *App) Client() remote.Client { return a.client }
func (a *App) Frames() *FrameHistory { return a.frames }
func (a *App) RunMode() RunMode { return a.runMode }
func (a *App) Pending() int { return a.rx.Len() }

// ToggleRunMode switches between reactive and continuous redraw.
func (a *App) ToggleRunMode() RunMode {
	if a.runMode == Reactive {
		a.runMode = Continuous
	} else {
		a.runMode = Reactive
	}
	return a.runMode
}

// EventCounts returns how many events of each kind were applied.
func (a *App) EventCounts() map[string]int {
	out := make(map[string]int, len(a.counts))
	for k, v := range a.counts {
		out[k] = v
	}
	return out
}

// Wake fires when an event is waiting to be applied.
func (a *App) Wake() <-chan struct{} { return a.rx.Notify() }

// RunUntil drives frames until done reports true, sleeping up to interval
// between frames unless an event arrives sooner.
func (a *App) RunUntil(ctx context.Context, interval time.Duration, done func(*App) bool) error {
	timer := time.NewTimer(interval)
	defer timer.Stop()
	for {
		a.Frame(time.Now())
		if done(a) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-a.rx.Notify():
		case <-timer.C:
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(interval)
	}
}
