// Package dispatch runs the service loop that sits between background
// producers and the frame loop. It owns the current client handle: it
// re-derives the handle when a session token arrives and dials a new one
// when another endpoint is selected.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/chiro2001/financial-frontend/internal/bus"
	"github.com/chiro2001/financial-frontend/internal/event"
	"github.com/chiro2001/financial-frontend/internal/executor"
	"github.com/chiro2001/financial-frontend/internal/remote"
)

// DefaultPollInterval is the sleep between loop iterations.
const DefaultPollInterval = 10 * time.Millisecond

// DialFunc builds a client handle for host.
type DialFunc func(ctx context.Context, host string) (remote.Client, error)

// Service forwards events to the frame loop and reacts to the few that
// concern the client handle.
type Service struct {
	in     *bus.Receiver
	self   *bus.Receiver
	selfTx bus.Sender
	out    bus.Sender
	exec   executor.Executor
	dial   DialFunc

	interval time.Duration
	logger   log.Logger

	client remote.Client
	token  string
}

// Option configures a Service.
type Option func(*Service)

// WithPollInterval overrides DefaultPollInterval.
func WithPollInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithClient sets the handle the service starts with.
func WithClient(c remote.Client) Option {
	return func(s *Service) { s.client = c }
}

// New creates a service reading from in and forwarding to out. Dial tasks
// run on exec.
func New(in *bus.Receiver, out bus.Sender, exec executor.Executor, dial DialFunc, opts ...Option) *Service {
	selfTx, self := bus.New()
	s := &Service{
		in:       in,
		self:     self,
		selfTx:   selfTx,
		out:      out,
		exec:     exec,
		dial:     dial,
		interval: DefaultPollInterval,
		logger:   log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Inbox returns a sender feeding the service.
func (s *Service) Inbox() bus.Sender {
	return s.in.Sender()
}

// Start runs the loop on its own goroutine. The returned channel yields
// Run's result once the loop ends.
func (s *Service) Start(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
		close(done)
	}()
	return done
}

// Run polls both queues, handling at most one event from each per
// iteration, until ctx ends, a handler asks to stop, or forwarding fails
// because the frame loop's receiver is gone.
func (s *Service) Run(ctx context.Context) error {
	_ = level.Info(s.logger).Log("msg", "dispatch service started", "poll_interval", s.interval)
	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		for _, q := range []*bus.Receiver{s.in, s.self} {
			ev, ok := q.TryReceive()
			if !ok {
				continue
			}
			stop, err := s.handle(ev)
			if err != nil {
				_ = level.Error(s.logger).Log("msg", "dispatch service stopped", "err", err)
				return err
			}
			if stop {
				_ = level.Info(s.logger).Log("msg", "dispatch service stopped by handler", "event", event.Name(ev))
				return nil
			}
		}

		select {
		case <-ctx.Done():
			_ = level.Info(s.logger).Log("msg", "dispatch service stopped", "reason", ctx.Err())
			return nil
		case <-timer.C:
			timer.Reset(s.interval)
		}
	}
}

func (s *Service) handle(ev event.Event) (stop bool, err error) {
	_ = level.Debug(s.logger).Log("msg", "handling event", "event", event.Name(ev))

	switch e := ev.(type) {
	case event.AuthSucceeded:
		s.token = e.Token.AccessToken
		if err := s.forward(e); err != nil {
			return false, err
		}
		if s.client != nil {
			s.post(event.ClientReady{Client: s.client.WithToken(s.token)})
		}
		return false, nil

	case event.ClientReady:
		// a handle dialed after the session arrived still needs the token
		if e.Client != nil && s.token != "" {
			e.Client = e.Client.WithToken(s.token)
		}
		s.replace(e.Client)
		return false, s.forward(e)

	case event.EndpointSelected:
		// tokens are issued per endpoint
		s.token = ""
		s.spawnDial(e.Host)
		return false, nil

	default:
		return false, s.forward(ev)
	}
}

// replace records c as the current handle, closing the previous one when it
// belonged to a different connection.
func (s *Service) replace(c remote.Client) {
	old := s.client
	s.client = c
	if old == nil || c == nil || old.Endpoint() == c.Endpoint() {
		return
	}
	if err := old.Close(); err != nil {
		_ = level.Warn(s.logger).Log("msg", "failed to close previous client", "endpoint", old.Endpoint(), "err", err)
	}
}

func (s *Service) spawnDial(host string) {
	dial, post, logger := s.dial, s.post, s.logger
	s.exec.Spawn(func(ctx context.Context) {
		c, err := dial(ctx, host)
		if err != nil {
			_ = level.Warn(logger).Log("msg", "dial failed", "host", host, "err", err)
			post(event.AuthFailed{Reason: err.Error()})
			return
		}
		post(event.ClientReady{Client: c})
	})
}

// post schedules ev on the self-loop queue. The service owns that queue, so
// the send cannot fail while the service exists.
func (s *Service) post(ev event.Event) {
	_ = s.selfTx.Send(ev)
}

func (s *Service) forward(ev event.Event) error {
	if err := s.out.Send(ev); err != nil {
		return fmt.Errorf("failed to forward %s: %w", event.Name(ev), err)
	}
	return nil
}
