package market

import "fmt"

// Channel is one price component of a bar.
type Channel int

const (
	ChannelHigh Channel = iota
	ChannelLow
	ChannelOpen
	ChannelClose
)

// Channels is the fixed order in which a series is split for prediction.
var Channels = [4]Channel{ChannelHigh, ChannelLow, ChannelOpen, ChannelClose}

func (c Channel) String() string {
	switch c {
	case ChannelHigh:
		return "high"
	case ChannelLow:
		return "low"
	case ChannelOpen:
		return "open"
	case ChannelClose:
		return "close"
	default:
		return fmt.Sprintf("channel(%d)", int(c))
	}
}

// Of extracts the channel's value from b.
func (c Channel) Of(b Bar) float64 {
	switch c {
	case ChannelHigh:
		return b.High
	case ChannelLow:
		return b.Low
	case ChannelOpen:
		return b.Open
	default:
		return b.Close
	}
}

// Split projects a series onto the four prediction channels, indexed in
// Channels order.
func Split(bars []Bar) [4][]float64 {
	var out [4][]float64
	for i, c := range Channels {
		values := make([]float64, len(bars))
		for j, b := range bars {
			values[j] = c.Of(b)
		}
		out[i] = values
	}
	return out
}

// Compose re-assembles per-channel values into bars. Every channel is
// truncated to the shortest one; composed bars carry volume 1 and no date.
// Compose returns nil when any channel is empty.
func Compose(values [4][]float64) []Bar {
	n := len(values[0])
	for _, v := range values[1:] {
		n = min(n, len(v))
	}
	if n == 0 {
		return nil
	}
	bars := make([]Bar, n)
	for i := range bars {
		bars[i] = Bar{
			High:   values[ChannelHigh][i],
			Low:    values[ChannelLow][i],
			Open:   values[ChannelOpen][i],
			Close:  values[ChannelClose][i],
			Volume: 1,
		}
	}
	return bars
}
