package stockview

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chiro2001/financial-frontend/internal/bus"
	"github.com/chiro2001/financial-frontend/internal/event"
	"github.com/chiro2001/financial-frontend/internal/executor"
	"github.com/chiro2001/financial-frontend/internal/market"
	"github.com/chiro2001/financial-frontend/internal/remote"
)

var entity = market.Entity{Symbol: "SH600000", Code: "600000", Name: "浦发银行"}

// manualExecutor queues tasks until the test runs them.
type manualExecutor struct {
	tasks []executor.Task
}

func (m *manualExecutor) Spawn(task executor.Task) { m.tasks = append(m.tasks, task) }
func (m *manualExecutor) Close()                   {}
func (m *manualExecutor) Wait()                    {}

func (m *manualExecutor) runAll() {
	tasks := m.tasks
	m.tasks = nil
	for _, task := range tasks {
		task(context.Background())
	}
}

func series(n int) []market.Bar {
	bars := make([]market.Bar, n)
	for i := range bars {
		p := 10 + float64(i)
		bars[i] = market.Bar{Date: "d", Open: p, High: p + 1, Low: p - 1, Close: p + 0.5, Volume: 100}
	}
	return bars
}

func newMock(n int) *remote.MockClient {
	c := remote.NewMockClient("mock:1")
	c.Series = map[string][]market.Bar{entity.Symbol: series(n)}
	return c
}

// pump delivers queued events to c until cond holds.
func pump(t *testing.T, rx *bus.Receiver, c *Controller, cond func() bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		for _, ev := range rx.TryReceiveAll() {
			c.Handle(ev)
		}
		return cond()
	}, 2*time.Second, time.Millisecond)
}

func TestTick_SingleInFlight(t *testing.T) {
	client := newMock(40)
	client.Gate = make(chan struct{})
	tx, rx := bus.New()
	ex := executor.NewPool(executor.Options{})
	defer ex.Close()

	c := New(entity, client, tx, ex)
	assert.Equal(t, StateEmpty, c.State())

	assert.True(t, c.Tick())
	for i := 0; i < 10; i++ {
		assert.False(t, c.Tick())
	}
	assert.Equal(t, StateRequesting, c.State())
	require.Eventually(t, func() bool { return client.Calls("FetchSeries") == 1 }, time.Second, time.Millisecond)

	close(client.Gate)
	pump(t, rx, c, func() bool { return c.State() == StateLoaded })

	assert.Len(t, c.Bars(), 40)
	assert.False(t, c.Tick())
	ex.Wait()
	assert.Equal(t, 1, client.Calls("FetchSeries"))
	assert.Equal(t, 1, client.Calls("FetchMetadata"))
}

func TestTick_NoClientOrClosed(t *testing.T) {
	tx, _ := bus.New()
	ex := &manualExecutor{}

	c := New(entity, nil, tx, ex)
	assert.False(t, c.Tick())
	assert.Empty(t, ex.tasks)

	c.SetClient(newMock(4))
	c.Close()
	assert.False(t, c.Open())
	assert.False(t, c.Tick())
	assert.Empty(t, ex.tasks)
}

func TestFetchFailure_AndRetry(t *testing.T) {
	client := newMock(8)
	client.SeriesErr = errors.New("connection refused")
	tx, rx := bus.New()
	ex := &manualExecutor{}
	c := New(entity, client, tx, ex)

	c.Tick()
	ex.runAll()
	for _, ev := range rx.TryReceiveAll() {
		c.Handle(ev)
	}

	assert.Equal(t, StateFailed, c.State())
	assert.Equal(t, "connection refused", c.Err())
	assert.Empty(t, c.Bars())

	// errors are never retried automatically
	assert.False(t, c.Tick())
	ex.runAll()
	assert.Equal(t, 1, client.Calls("FetchSeries"))

	client.SeriesErr = nil
	assert.True(t, c.Retry())
	assert.Equal(t, StateEmpty, c.State())
	assert.True(t, c.Tick())
	ex.runAll()
	for _, ev := range rx.TryReceiveAll() {
		c.Handle(ev)
	}
	assert.Equal(t, StateLoaded, c.State())
	assert.False(t, c.Retry())
}

func TestEmptySeriesIsLoaded(t *testing.T) {
	client := newMock(0)
	tx, rx := bus.New()
	ex := &manualExecutor{}
	c := New(entity, client, tx, ex)

	c.Tick()
	ex.runAll()
	for _, ev := range rx.TryReceiveAll() {
		c.Handle(ev)
	}

	assert.Equal(t, StateLoaded, c.State())
	assert.False(t, c.Tick(), "an empty result must not be refetched every frame")
}

func TestSetGranularity_ResetsAndIgnoresStale(t *testing.T) {
	client := newMock(40)
	tx, rx := bus.New()
	ex := &manualExecutor{}
	c := New(entity, client, tx, ex)

	c.Tick()
	ex.runAll()
	for _, ev := range rx.TryReceiveAll() {
		c.Handle(ev)
	}
	require.Equal(t, StateLoaded, c.State())
	c.SetPredictLength(5)
	require.NoError(t, c.Predict())
	ex.runAll()
	for _, ev := range rx.TryReceiveAll() {
		c.Handle(ev)
	}
	require.NotEmpty(t, c.Predicted())

	// a fetch goes out, then the user switches granularity before it lands
	weekly := c.Generation()
	assert.False(t, c.SetGranularity(market.Weekly), "same granularity is a no-op")
	assert.True(t, c.SetGranularity(market.Monthly))
	assert.Equal(t, StateEmpty, c.State())
	assert.Empty(t, c.Bars())
	assert.Empty(t, c.Predicted())
	assert.Empty(t, c.PredictErr())
	assert.Zero(t, c.PredictLength())

	c.Tick()
	stale := event.NewSeriesReady(entity.Symbol, weekly, market.Weekly, series(12), nil)
	assert.False(t, c.Handle(stale))
	assert.Equal(t, StateRequesting, c.State())

	ex.runAll()
	for _, ev := range rx.TryReceiveAll() {
		c.Handle(ev)
	}
	assert.Equal(t, StateLoaded, c.State())
	assert.Equal(t, market.Monthly, c.Granularity())
	assert.Greater(t, c.Generation(), weekly)
}

func TestHandle_OtherEntity(t *testing.T) {
	tx, _ := bus.New()
	c := New(entity, newMock(4), tx, &manualExecutor{})

	assert.False(t, c.Handle(event.NewSeriesReady("SZ000001", 0, market.Weekly, series(4), nil)))
	assert.False(t, c.Handle(event.NewPredictionReady("SZ000001", 0, series(1), nil)))
	assert.False(t, c.Handle(event.NewMetadataReady("SZ000001", &market.Metadata{}, nil)))
	assert.False(t, c.Handle(event.AuthFailed{Reason: "x"}))
	assert.Equal(t, StateEmpty, c.State())
}

func TestSetPredictLength_Clamps(t *testing.T) {
	tx, _ := bus.New()
	c := New(entity, newMock(0), tx, &manualExecutor{})
	c.Handle(event.NewSeriesReady(entity.Symbol, c.Generation(), market.Weekly, series(21), nil))

	assert.Equal(t, 5, c.MaxPredictLength())
	assert.Equal(t, 5, c.SetPredictLength(100))
	assert.Equal(t, 0, c.SetPredictLength(-3))
	assert.Equal(t, 3, c.SetPredictLength(3))
}

func TestWithPredictLength_ClampedOnLoad(t *testing.T) {
	tx, _ := bus.New()
	c := New(entity, nil, tx, &manualExecutor{}, WithPredictLength(30))
	assert.Equal(t, 30, c.PredictLength())

	c.Handle(event.NewSeriesReady(entity.Symbol, c.Generation(), market.Weekly, series(40), nil))
	assert.Equal(t, 10, c.PredictLength())
}

func TestPredict_Preconditions(t *testing.T) {
	tx, _ := bus.New()
	ex := &manualExecutor{}

	c := New(entity, newMock(0), tx, ex)
	assert.ErrorIs(t, c.Predict(), ErrPredictLengthZero)

	c.Handle(event.NewSeriesReady(entity.Symbol, c.Generation(), market.Weekly, series(20), nil))
	c.SetPredictLength(5)
	require.NoError(t, c.Predict())
	assert.Equal(t, PredictionRunning, c.PredictionState())
	assert.ErrorIs(t, c.Predict(), ErrPredictionInFlight)
	assert.Len(t, ex.tasks, 1, "a rejected call schedules nothing")

	noClient := New(entity, nil, tx, ex)
	noClient.Handle(event.NewSeriesReady(entity.Symbol, noClient.Generation(), market.Weekly, series(20), nil))
	noClient.SetPredictLength(2)
	assert.ErrorIs(t, noClient.Predict(), ErrNoClient)
}

func TestPredict_FailedChannelLeavesNoBars(t *testing.T) {
	client := newMock(20)
	var calls atomic.Int32
	client.Predict = func(channel []float64, length int) ([]float64, error) {
		if calls.Add(1) == 2 {
			return nil, errors.New("model unavailable")
		}
		return make([]float64, length), nil
	}
	tx, rx := bus.New()
	ex := &manualExecutor{}
	c := New(entity, client, tx, ex)
	c.Handle(event.NewSeriesReady(entity.Symbol, c.Generation(), market.Weekly, series(20), nil))
	c.SetPredictLength(5)

	require.NoError(t, c.Predict())
	ex.runAll()
	for _, ev := range rx.TryReceiveAll() {
		c.Handle(ev)
	}

	assert.Equal(t, PredictionIdle, c.PredictionState())
	assert.Empty(t, c.Predicted())
	assert.Contains(t, c.PredictErr(), "model unavailable")
}

func TestMetadata_FetchedOnce(t *testing.T) {
	client := newMock(4)
	client.Metadata = map[string]*market.Metadata{entity.Symbol: {Market: "SSE"}}
	tx, rx := bus.New()
	ex := &manualExecutor{}
	c := New(entity, client, tx, ex)

	c.Tick()
	c.Tick()
	assert.True(t, c.MetadataRequesting())
	ex.runAll()
	for _, ev := range rx.TryReceiveAll() {
		c.Handle(ev)
	}
	c.Tick()
	ex.runAll()

	require.NotNil(t, c.Metadata())
	assert.Equal(t, "SSE", c.Metadata().Market)
	assert.Equal(t, 1, client.Calls("FetchMetadata"))
}

func TestCandles(t *testing.T) {
	tx, _ := bus.New()
	c := New(entity, nil, tx, &manualExecutor{})
	bad := market.Bar{Open: 2, High: 1, Low: 3, Close: 2, Volume: 0}
	c.Handle(event.NewSeriesReady(entity.Symbol, c.Generation(), market.Weekly, []market.Bar{bad}, nil))
	c.Handle(event.NewPredictionReady(entity.Symbol, c.Generation(), []market.Bar{{Open: 1, High: 2, Low: 1, Close: 2, Volume: 1}}, nil))

	candles := c.Candles()
	require.Len(t, candles, 2)
	assert.False(t, candles[0].Valid)
	assert.True(t, candles[0].Bar.Valid(), "drawn bars are normalized")
	assert.True(t, candles[1].Predicted)
}

// Twenty daily bars and a length of five end with an idle controller
// holding five predicted bars and no error.
func TestEndToEnd_TwentyDailyBars(t *testing.T) {
	for _, mode := range []executor.Mode{executor.ModePool, executor.ModeCooperative} {
		t.Run(string(mode), func(t *testing.T) {
			client := newMock(20)
			tx, rx := bus.New()
			ex, err := executor.New(mode, executor.Options{Timeout: time.Second})
			require.NoError(t, err)
			defer ex.Close()

			c := New(entity, client, tx, ex, WithGranularity(market.Daily))
			c.Tick()
			pump(t, rx, c, func() bool { return c.State() == StateLoaded })
			require.Len(t, c.Bars(), 20)

			require.Equal(t, 5, c.SetPredictLength(5))
			require.NoError(t, c.Predict())
			pump(t, rx, c, func() bool { return c.PredictionState() == PredictionIdle })

			assert.Len(t, c.Predicted(), 5)
			assert.Empty(t, c.PredictErr())
			for _, b := range c.Predicted() {
				assert.GreaterOrEqual(t, b.Volume, int64(1))
			}
			assert.Len(t, c.Candles(), 25)
		})
	}
}

func TestHandle_ResultOfReplacedController(t *testing.T) {
	tx, _ := bus.New()
	closed := New(entity, newMock(8), tx, &manualExecutor{})
	closed.SetGranularity(market.Daily)
	late := event.NewSeriesReady(entity.Symbol, closed.Generation(), market.Daily, series(8), nil)
	latePrediction := event.NewPredictionReady(entity.Symbol, closed.Generation(), series(2), nil)
	closed.Close()

	reopened := New(entity, newMock(8), tx, &manualExecutor{})
	reopened.SetGranularity(market.Monthly)
	assert.NotEqual(t, closed.Generation(), reopened.Generation())

	assert.False(t, reopened.Handle(late))
	assert.False(t, reopened.Handle(latePrediction))
	assert.Equal(t, StateEmpty, reopened.State())
	assert.Empty(t, reopened.Predicted())
}

func TestHandle_SeriesOfOtherGranularity(t *testing.T) {
	tx, _ := bus.New()
	c := New(entity, newMock(8), tx, &manualExecutor{}, WithGranularity(market.Monthly))

	assert.False(t, c.Handle(event.NewSeriesReady(entity.Symbol, c.Generation(), market.Daily, series(8), nil)))
	assert.Equal(t, StateEmpty, c.State())
	assert.True(t, c.Handle(event.NewSeriesReady(entity.Symbol, c.Generation(), market.Monthly, series(8), nil)))
	assert.Equal(t, StateLoaded, c.State())
}

// emptyMetadataClient answers metadata requests with neither a value nor
// an error.
type emptyMetadataClient struct {
	*remote.MockClient
	calls atomic.Int32
}

func (c *emptyMetadataClient) FetchMetadata(context.Context, string) (*market.Metadata, error) {
	c.calls.Add(1)
	return nil, nil
}

func TestMetadata_EmptyAnswerNotRequestedAgain(t *testing.T) {
	client := &emptyMetadataClient{MockClient: newMock(4)}
	tx, rx := bus.New()
	ex := &manualExecutor{}
	c := New(entity, client, tx, ex)

	for range 3 {
		c.Tick()
		ex.runAll()
		for _, ev := range rx.TryReceiveAll() {
			c.Handle(ev)
		}
	}

	assert.Nil(t, c.Metadata())
	assert.NotEmpty(t, c.MetadataErr())
	assert.Equal(t, int32(1), client.calls.Load())
}
