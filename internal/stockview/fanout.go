package stockview

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/chiro2001/financial-frontend/internal/market"
	"github.com/chiro2001/financial-frontend/internal/remote"
)

// ErrEmptyPrediction is returned when every channel succeeded but at least
// one came back empty.
var ErrEmptyPrediction = errors.New("prediction returned no data")

// JoinError aggregates the failed channels of a prediction.
type JoinError struct {
	Errs []error
}

func (e *JoinError) Error() string {
	msgs := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		msgs[i] = err.Error()
	}
	return "prediction failed: " + strings.Join(msgs, "; ")
}

func (e *JoinError) Unwrap() []error {
	return e.Errs
}

// ChannelError is the failure of a single channel.
type ChannelError struct {
	Channel market.Channel
	Err     error
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("%s: %v", e.Channel, e.Err)
}

func (e *ChannelError) Unwrap() error {
	return e.Err
}

// Predict splits bars into the four price channels, asks for length values
// of each concurrently through its own copy of client, and composes the
// results. All four calls run to completion; a failure does not cancel the
// others.
func Predict(ctx context.Context, client remote.Client, bars []market.Bar, length int) ([]market.Bar, error) {
	inputs := market.Split(bars)

	var (
		g       errgroup.Group
		results [4][]float64
		errs    [4]error
	)
	for i, ch := range market.Channels {
		c := client
		g.Go(func() error {
			values, err := c.FetchPrediction(ctx, inputs[i], length)
			if err != nil {
				errs[i] = &ChannelError{Channel: ch, Err: err}
				return nil
			}
			if len(values) > length {
				values = values[:length]
			}
			results[i] = values
			return nil
		})
	}
	_ = g.Wait()

	return Join(results, errs)
}

// Join combines per-channel results. Any failed channel fails the whole
// prediction; otherwise channels are truncated to their shared minimum
// length and composed into bars.
func Join(results [4][]float64, errs [4]error) ([]market.Bar, error) {
	var failed []error
	for _, err := range errs {
		if err != nil {
			failed = append(failed, err)
		}
	}
	if len(failed) > 0 {
		return nil, &JoinError{Errs: failed}
	}

	bars := market.Compose(results)
	if len(bars) == 0 {
		return nil, ErrEmptyPrediction
	}
	return bars, nil
}
