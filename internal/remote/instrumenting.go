package remote

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kit/kit/metrics"
	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"

	"github.com/chiro2001/financial-frontend/internal/auth"
	"github.com/chiro2001/financial-frontend/internal/market"
)

// Metrics are the instruments recorded by InstrumentingMiddleware.
type Metrics struct {
	RequestCount   metrics.Counter
	RequestLatency metrics.Histogram
}

// NewMetrics registers the client instruments with reg.
func NewMetrics(reg stdprometheus.Registerer) *Metrics {
	fieldKeys := []string{"method", "error"}
	requests := stdprometheus.NewCounterVec(stdprometheus.CounterOpts{
		Namespace: "stockview",
		Subsystem: "remote",
		Name:      "requests_total",
		Help:      "Number of requests sent to the market data service.",
	}, fieldKeys)
	latency := stdprometheus.NewHistogramVec(stdprometheus.HistogramOpts{
		Namespace: "stockview",
		Subsystem: "remote",
		Name:      "request_duration_seconds",
		Help:      "Duration of requests to the market data service.",
		Buckets:   stdprometheus.DefBuckets,
	}, fieldKeys)
	reg.MustRegister(requests, latency)

	return &Metrics{
		RequestCount:   kitprometheus.NewCounter(requests),
		RequestLatency: kitprometheus.NewHistogram(latency),
	}
}

// InstrumentingMiddleware counts calls and observes their latency.
func InstrumentingMiddleware(m *Metrics) Middleware {
	return func(next Client) Client {
		return &instrumentingMiddleware{metrics: m, next: next}
	}
}

type instrumentingMiddleware struct {
	metrics *Metrics
	next    Client
}

func (mw *instrumentingMiddleware) observe(method string, begin time.Time, err error) {
	lvs := []string{"method", method, "error", fmt.Sprint(err != nil)}
	mw.metrics.RequestCount.With(lvs...).Add(1)
	mw.metrics.RequestLatency.With(lvs...).Observe(time.Since(begin).Seconds())
}

func (mw *instrumentingMiddleware) ListEntities(ctx context.Context) (_ []market.Entity, err error) {
	defer func(begin time.Time) { mw.observe("ListEntities", begin, err) }(time.Now())
	return mw.next.ListEntities(ctx)
}

func (mw *instrumentingMiddleware) FetchSeries(ctx context.Context, id string, g market.Granularity) (_ []market.Bar, err error) {
	defer func(begin time.Time) { mw.observe("FetchSeries", begin, err) }(time.Now())
	return mw.next.FetchSeries(ctx, id, g)
}

func (mw *instrumentingMiddleware) FetchPrediction(ctx context.Context, channel []float64, length int) (_ []float64, err error) {
	defer func(begin time.Time) { mw.observe("FetchPrediction", begin, err) }(time.Now())
	return mw.next.FetchPrediction(ctx, channel, length)
}

func (mw *instrumentingMiddleware) FetchMetadata(ctx context.Context, id string) (_ *market.Metadata, err error) {
	defer func(begin time.Time) { mw.observe("FetchMetadata", begin, err) }(time.Now())
	return mw.next.FetchMetadata(ctx, id)
}

func (mw *instrumentingMiddleware) Login(ctx context.Context, username, password string) (_ *auth.Token, err error) {
	defer func(begin time.Time) { mw.observe("Login", begin, err) }(time.Now())
	return mw.next.Login(ctx, username, password)
}

func (mw *instrumentingMiddleware) Register(ctx context.Context, username, password string) (err error) {
	defer func(begin time.Time) { mw.observe("Register", begin, err) }(time.Now())
	return mw.next.Register(ctx, username, password)
}

func (mw *instrumentingMiddleware) WithToken(token string) Client {
	return &instrumentingMiddleware{metrics: mw.metrics, next: mw.next.WithToken(token)}
}

func (mw *instrumentingMiddleware) Endpoint() string {
	return mw.next.Endpoint()
}

func (mw *instrumentingMiddleware) Close() error {
	return mw.next.Close()
}
