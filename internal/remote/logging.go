package remote

import (
	"context"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/chiro2001/financial-frontend/internal/auth"
	"github.com/chiro2001/financial-frontend/internal/market"
)

// LoggingMiddleware logs every call with its duration. Failed calls are
// logged at warn level, the rest at debug.
func LoggingMiddleware(logger log.Logger) Middleware {
	return func(next Client) Client {
		return &loggingMiddleware{logger: logger, next: next}
	}
}

type loggingMiddleware struct {
	logger log.Logger
	next   Client
}

func (mw *loggingMiddleware) log(begin time.Time, err error, keyvals ...interface{}) {
	keyvals = append(keyvals, "endpoint", mw.next.Endpoint(), "took", time.Since(begin))
	if err != nil {
		_ = level.Warn(mw.logger).Log(append(keyvals, "err", err)...)
		return
	}
	_ = level.Debug(mw.logger).Log(keyvals...)
}

func (mw *loggingMiddleware) ListEntities(ctx context.Context) (entities []market.Entity, err error) {
	defer func(begin time.Time) {
		mw.log(begin, err, "method", "ListEntities", "count", len(entities))
	}(time.Now())
	return mw.next.ListEntities(ctx)
}

func (mw *loggingMiddleware) FetchSeries(ctx context.Context, id string, g market.Granularity) (bars []market.Bar, err error) {
	defer func(begin time.Time) {
		mw.log(begin, err, "method", "FetchSeries", "symbol", id, "granularity", g, "bars", len(bars))
	}(time.Now())
	return mw.next.FetchSeries(ctx, id, g)
}

func (mw *loggingMiddleware) FetchPrediction(ctx context.Context, channel []float64, length int) (values []float64, err error) {
	defer func(begin time.Time) {
		mw.log(begin, err, "method", "FetchPrediction", "input", len(channel), "length", length, "got", len(values))
	}(time.Now())
	return mw.next.FetchPrediction(ctx, channel, length)
}

func (mw *loggingMiddleware) FetchMetadata(ctx context.Context, id string) (md *market.Metadata, err error) {
	defer func(begin time.Time) {
		mw.log(begin, err, "method", "FetchMetadata", "symbol", id)
	}(time.Now())
	return mw.next.FetchMetadata(ctx, id)
}

func (mw *loggingMiddleware) Login(ctx context.Context, username, password string) (token *auth.Token, err error) {
	defer func(begin time.Time) {
		mw.log(begin, err, "method", "Login", "username", username)
	}(time.Now())
	return mw.next.Login(ctx, username, password)
}

func (mw *loggingMiddleware) Register(ctx context.Context, username, password string) (err error) {
	defer func(begin time.Time) {
		mw.log(begin, err, "method", "Register", "username", username)
	}(time.Now())
	return mw.next.Register(ctx, username, password)
}

func (mw *loggingMiddleware) WithToken(token string) Client {
	return &loggingMiddleware{logger: mw.logger, next: mw.next.WithToken(token)}
}

func (mw *loggingMiddleware) Endpoint() string {
	return mw.next.Endpoint()
}

func (mw *loggingMiddleware) Close() error {
	return mw.next.Close()
}
