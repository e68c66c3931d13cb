package app

import (
	"strings"
	"time"
)

// RunMode decides how often the terminal redraws.
type RunMode int

const (
	// Reactive redraws on input, on events and every refresh interval.
	Reactive RunMode = iota
	// Continuous redraws as fast as frames complete.
	Continuous
)

// ParseRunMode maps a configured name to a RunMode; anything but
// "continuous" is reactive.
func ParseRunMode(s string) RunMode {
	if strings.EqualFold(strings.TrimSpace(s), "continuous") {
		return Continuous
	}
	return Reactive
}

func (m RunMode) String() string {
	if m == Continuous {
		return "continuous"
	}
	return "reactive"
}

// DefaultFrameHistory is the number of frames kept for the debug panel.
const DefaultFrameHistory = 120

// FrameHistory keeps the timestamps of the most recent frames.
type FrameHistory struct {
	times []time.Time
	next  int
	full  bool
	total uint64
}

// NewFrameHistory keeps up to n frames.
func NewFrameHistory(n int) *FrameHistory {
	if n < 2 {
		n = 2
	}
	return &FrameHistory{times: make([]time.Time, n)}
}

// Record appends a frame at t.
func (h *FrameHistory) Record(t time.Time) {
	h.times[h.next] = t
	h.next = (h.next + 1) % len(h.times)
	if h.next == 0 {
		h.full = true
	}
	h.total++
}

// Total is the number of frames recorded since creation.
func (h *FrameHistory) Total() uint64 { return h.total }

func (h *FrameHistory) len() int {
	if h.full {
		return len(h.times)
	}
	return h.next
}

func (h *FrameHistory) oldest() time.Time {
	if h.full {
		return h.times[h.next]
	}
	return h.times[0]
}

func (h *FrameHistory) newest() time.Time {
	return h.times[(h.next-1+len(h.times))%len(h.times)]
}

// MeanFrameTime is the average interval between the kept frames.
func (h *FrameHistory) MeanFrameTime() time.Duration {
	n := h.len()
	if n < 2 {
		return 0
	}
	return h.newest().Sub(h.oldest()) / time.Duration(n-1)
}

// FPS is the frame rate over the kept frames.
func (h *FrameHistory) FPS() float64 {
	mean := h.MeanFrameTime()
	if mean <= 0 {
		return 0
	}
	return float64(time.Second) / float64(mean)
}
