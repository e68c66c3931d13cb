// Package stockview holds the per-entity fetch controller: the state one
// stock view needs to fetch its series, issue metadata and predictions
// without blocking the frame loop.
//
// A Controller is owned by the frame loop and is not safe for concurrent
// use. Background work never touches it; results come back as events and
// are applied through Handle.
package stockview

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/chiro2001/financial-frontend/internal/bus"
	"github.com/chiro2001/financial-frontend/internal/event"
	"github.com/chiro2001/financial-frontend/internal/executor"
	"github.com/chiro2001/financial-frontend/internal/market"
	"github.com/chiro2001/financial-frontend/internal/remote"
)

// SeriesState is the fetch lifecycle of a series.
type SeriesState int

const (
	// StateEmpty has no series, no error and no request in flight.
	StateEmpty SeriesState = iota
	StateRequesting
	StateLoaded
	StateFailed
)

func (s SeriesState) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateRequesting:
		return "requesting"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// PredictionState is the lifecycle of a prediction request.
type PredictionState int

const (
	PredictionIdle PredictionState = iota
	PredictionRunning
)

func (s PredictionState) String() string {
	if s == PredictionRunning {
		return "predicting"
	}
	return "idle"
}

var (
	ErrPredictionInFlight = errors.New("a prediction is already running")
	ErrPredictLengthZero  = errors.New("prediction length must be positive")
	ErrPredictTooLong     = errors.New("prediction length exceeds a quarter of the series")
	ErrNoClient           = errors.New("not connected")
)

// generations numbers request parameters across all controllers, so a
// result of a closed view never matches the view that replaced it.
var generations atomic.Uint64

func nextGeneration() uint64 { return generations.Add(1) }

// Controller drives one entity view.
type Controller struct {
	entity market.Entity
	client remote.Client
	tx     bus.Sender
	exec   executor.Executor
	logger log.Logger

	open        bool
	granularity market.Granularity
	generation  uint64

	bars       []market.Bar
	fetched    bool
	requesting bool
	err        string

	predictLen int
	predicting bool
	predicted  []market.Bar
	predictErr string

	metadata       *market.Metadata
	requestingMeta bool
	metaErr        string
}

// Option configures a Controller.
type Option func(*Controller)

// WithGranularity sets the initial granularity (weekly by default).
func WithGranularity(g market.Granularity) Option {
	return func(c *Controller) { c.granularity = g }
}

// WithPredictLength sets the requested prediction length. It is clamped
// once the series arrives.
func WithPredictLength(n int) Option {
	return func(c *Controller) { c.predictLen = max(0, n) }
}

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(c *Controller) { c.logger = log.With(logger, "symbol", c.entity.Symbol) }
}

// New creates an open controller for entity. Results of its background
// work are sent on tx.
func New(entity market.Entity, client remote.Client, tx bus.Sender, exec executor.Executor, opts ...Option) *Controller {
	c := &Controller{
		entity:      entity,
		client:      client,
		tx:          tx,
		exec:        exec,
		logger:      log.NewNopLogger(),
		open:        true,
		granularity: market.Weekly,
		generation:  nextGeneration(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) Entity() market.Entity { return c.entity }
func (c *Controller) Symbol() string { return c.entity.Symbol }

// Open reports whether the view is still shown.
func (c *Controller) Open() bool { return c.open }

// Close marks the view closed; its owner drops it on the next frame.
func (c *Controller) Close() { c.open = false }

// SetClient replaces the handle used for future requests.
func (c *Controller) SetClient(client remote.Client) { c.client = client }

// State derives the series state.
func (c *Controller) State() SeriesState {
	switch {
	case c.requesting:
		return StateRequesting
	case c.err != "":
		return StateFailed
	case c.fetched:
		return StateLoaded
	default:
		return StateEmpty
	}
}

func (c *Controller) Bars() []market.Bar { return c.bars }
func (c *Controller) Err() string { return c.err }
func (c *Controller) Granularity() market.Granularity { return c.granularity }
func (c *Controller) Generation() uint64 { return c.generation }
func (c *Controller) Predicted() []market.Bar { return c.predicted }
func (c *Controller) PredictErr() string { return c.predictErr }
func (c *Controller) PredictLength() int { return c.predictLen }
func (c *Controller) Metadata() *market.Metadata { return c.metadata }
func (c *Controller) MetadataErr() string { return c.metaErr }
func (c *Controller) MetadataRequesting() bool { return c.requestingMeta }
func (c *Controller) PredictionState() PredictionState {
	if c.predicting {
		return PredictionRunning
	}
	return PredictionIdle
}

// MaxPredictLength is a quarter of the loaded series.
func (c *Controller) MaxPredictLength() int {
	return len(c.bars) / 4
}

// Tick schedules whatever the view is missing. It is called every frame
// and reports whether a series fetch was spawned.
func (c *Controller) Tick() bool {
	if !c.open || c.client == nil {
		return false
	}
	c.tickMetadata()

	if c.State() != StateEmpty {
		return false
	}
	c.requesting = true

	client, tx, logger := c.client, c.tx, c.logger
	id, gen, g := c.entity.Symbol, c.generation, c.granularity
	c.exec.Spawn(func(ctx context.Context) {
		bars, err := client.FetchSeries(ctx, id, g)
		send(tx, logger, event.NewSeriesReady(id, gen, g, bars, err))
	})
	return true
}

func (c *Controller) tickMetadata() {
	if c.metadata != nil || c.requestingMeta || c.metaErr != "" {
		return
	}
	c.requestingMeta = true

	client, tx, logger, id := c.client, c.tx, c.logger, c.entity.Symbol
	c.exec.Spawn(func(ctx context.Context) {
		md, err := client.FetchMetadata(ctx, id)
		send(tx, logger, event.NewMetadataReady(id, md, err))
	})
}

// SetGranularity switches the series period. A different value discards
// the series, its error and any prediction, and invalidates results still
// in flight. It reports whether anything changed.
func (c *Controller) SetGranularity(g market.Granularity) bool {
	if g == c.granularity {
		return false
	}
	c.granularity = g
	c.generation = nextGeneration()

	c.bars = nil
	c.fetched = false
	c.requesting = false
	c.err = ""

	c.predicted = nil
	c.predictErr = ""
	c.predicting = false
	c.predictLen = min(c.predictLen, c.MaxPredictLength())
	return true
}

// Retry clears a failed series or metadata fetch so the next Tick
// requests it again. It reports whether there was anything to retry.
func (c *Controller) Retry() bool {
	retried := false
	if c.metaErr != "" {
		c.metaErr = ""
		retried = true
	}
	if c.State() == StateFailed {
		c.err = ""
		c.fetched = false
		retried = true
	}
	return retried
}

// SetPredictLength clamps n to [0, len(series)/4] and returns the result.
func (c *Controller) SetPredictLength(n int) int {
	c.predictLen = max(0, min(n, c.MaxPredictLength()))
	return c.predictLen
}

// Predict starts a prediction of PredictLength bars.
func (c *Controller) Predict() error {
	switch {
	case c.predicting:
		return ErrPredictionInFlight
	case c.predictLen == 0:
		return ErrPredictLengthZero
	case c.predictLen > c.MaxPredictLength():
		return ErrPredictTooLong
	case c.client == nil:
		return ErrNoClient
	}
	c.predicting = true
	c.predictErr = ""

	client, tx, logger := c.client, c.tx, c.logger
	id, gen, length := c.entity.Symbol, c.generation, c.predictLen
	bars := append([]market.Bar(nil), c.bars...)
	c.exec.Spawn(func(ctx context.Context) {
		predicted, err := Predict(ctx, client, bars, length)
		send(tx, logger, event.NewPredictionReady(id, gen, predicted, err))
	})
	return nil
}

// Handle applies an event addressed to this view. Events for other
// entities and results of an earlier generation are ignored; Handle
// reports whether the event was applied.
func (c *Controller) Handle(ev event.Event) bool {
	switch e := ev.(type) {
	case event.SeriesReady:
		if e.EntityID != c.entity.Symbol {
			return false
		}
		if e.Generation != c.generation || e.Granularity != c.granularity {
			_ = level.Debug(c.logger).Log("msg", "ignoring stale series", "generation", e.Generation, "current", c.generation, "granularity", e.Granularity)
			return false
		}
		c.requesting = false
		c.fetched = true
		c.bars = e.Bars
		c.err = e.Err
		c.predictLen = min(c.predictLen, c.MaxPredictLength())
		return true

	case event.PredictionReady:
		if e.EntityID != c.entity.Symbol || e.Generation != c.generation {
			return false
		}
		c.predicting = false
		c.predicted = e.Bars
		c.predictErr = e.Err
		return true

	case event.MetadataReady:
		if e.EntityID != c.entity.Symbol {
			return false
		}
		c.requestingMeta = false
		c.metadata = e.Metadata
		c.metaErr = e.Err
		return true
	}
	return false
}

// Candle is one drawable bar of a view.
type Candle struct {
	market.Bar
	// Valid is the validity of the bar as received.
	Valid     bool
	Predicted bool
}

// Candles returns the series followed by the predicted extension, each bar
// normalized for drawing.
func (c *Controller) Candles() []Candle {
	out := make([]Candle, 0, len(c.bars)+len(c.predicted))
	for _, b := range c.bars {
		out = append(out, Candle{Bar: b.Normalized(), Valid: b.Valid()})
	}
	for _, b := range c.predicted {
		out = append(out, Candle{Bar: b.Normalized(), Valid: b.Valid(), Predicted: true})
	}
	return out
}

func send(tx bus.Sender, logger log.Logger, ev event.Event) {
	if err := tx.Send(ev); err != nil {
		_ = level.Debug(logger).Log("msg", "dropping result", "event", event.Name(ev), "err", err)
	}
}
