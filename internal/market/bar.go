package market

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// InvalidPrice marks a price that could not be parsed from the wire.
const InvalidPrice = -1.0

// Bar is one OHLCV record of a series. Bars are plain values; copying a
// Bar copies everything it owns.
type Bar struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// ParseBar builds a bar from the decimal strings the service sends.
// Unparseable prices become InvalidPrice and an unparseable volume becomes
// zero, so the bar reports itself as invalid instead of failing the series.
func ParseBar(date, open, high, low, closing, volume string) Bar {
	return Bar{
		Date:   date,
		Open:   parsePrice(open),
		High:   parsePrice(high),
		Low:    parsePrice(low),
		Close:  parsePrice(closing),
		Volume: parseVolume(volume),
	}
}

func parsePrice(s string) float64 {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return InvalidPrice
	}
	f, _ := d.Float64()
	return f
}

func parseVolume(s string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// Valid reports whether the bar can be drawn as is: non-zero volume, all
// prices positive and high not below low.
func (b Bar) Valid() bool {
	return b.Volume > 0 &&
		b.Open > 0 && b.High > 0 && b.Low > 0 && b.Close > 0 &&
		b.High >= b.Low
}

// Normalize forces the bar into a drawable shape: volume at least one, low
// no greater than open and close, high no smaller than both.
func (b *Bar) Normalize() {
	if b.Volume < 1 {
		b.Volume = 1
	}
	b.Low = math.Min(math.Min(b.High, b.Open), b.Close)
	b.High = math.Max(math.Max(b.Low, b.Open), b.Close)
}

// Normalized returns a normalized copy of the bar.
func (b Bar) Normalized() Bar {
	b.Normalize()
	return b
}

// Rising reports whether the bar closed at or above its open.
func (b Bar) Rising() bool {
	return b.Close >= b.Open
}
