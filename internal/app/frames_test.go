package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFrameHistory(t *testing.T) {
	h := NewFrameHistory(4)
	assert.Zero(t, h.FPS())

	start := time.Unix(0, 0)
	for i := 0; i < 10; i++ {
		h.Record(start.Add(time.Duration(i) * 10 * time.Millisecond))
	}

	assert.Equal(t, uint64(10), h.Total())
	assert.Equal(t, 10*time.Millisecond, h.MeanFrameTime())
	assert.InDelta(t, 100, h.FPS(), 0.001)
}

func TestFrameHistory_PartiallyFilled(t *testing.T) {
	h := NewFrameHistory(100)
	start := time.Unix(0, 0)
	h.Record(start)
	assert.Zero(t, h.MeanFrameTime())
	h.Record(start.Add(50 * time.Millisecond))
	h.Record(start.Add(100 * time.Millisecond))
	assert.InDelta(t, 20, h.FPS(), 0.001)
}

func TestParseRunMode(t *testing.T) {
	assert.Equal(t, Continuous, ParseRunMode("Continuous"))
	assert.Equal(t, Reactive, ParseRunMode("reactive"))
	assert.Equal(t, Reactive, ParseRunMode(""))
	assert.Equal(t, "continuous", Continuous.String())
}
