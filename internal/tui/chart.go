package tui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/chiro2001/financial-frontend/internal/stockview"
)

const (
	glyphBody = "┃"
	glyphWick = "│"
	glyphFlat = "━"
)

// renderChart draws the last width candles as a text candlestick chart of
// the given height, with the price range labelled on the left.
func renderChart(candles []stockview.Candle, width, height int) string {
	const axis = 10
	if width <= axis || height < 2 {
		return ""
	}
	cols := width - axis
	if len(candles) > cols {
		candles = candles[len(candles)-cols:]
	}
	if len(candles) == 0 {
		return LabelStyle.Render("no data")
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, c := range candles {
		lo = math.Min(lo, c.Low)
		hi = math.Max(hi, c.High)
	}
	span := hi - lo
	if span <= 0 {
		span = 1
	}
	row := func(p float64) int {
		return int(math.Round((hi - p) / span * float64(height-1)))
	}

	grid := make([][]string, height)
	for y := range grid {
		grid[y] = make([]string, len(candles))
		for x := range grid[y] {
			grid[y][x] = " "
		}
	}

	for x, c := range candles {
		style := candleStyle(c)
		top, bottom := row(c.High), row(c.Low)
		bodyTop, bodyBottom := row(math.Max(c.Open, c.Close)), row(math.Min(c.Open, c.Close))
		for y := top; y <= bottom; y++ {
			glyph := glyphWick
			if y >= bodyTop && y <= bodyBottom {
				glyph = glyphBody
			}
			if bodyTop == bodyBottom && y == bodyTop {
				glyph = glyphFlat
			}
			grid[y][x] = style.Render(glyph)
		}
	}

	var b strings.Builder
	for y, cells := range grid {
		label := ""
		switch y {
		case 0:
			label = formatPrice(hi)
		case height - 1:
			label = formatPrice(lo)
		}
		b.WriteString(LabelStyle.Render(lipgloss.NewStyle().Width(axis - 1).Align(lipgloss.Right).Render(label)))
		b.WriteString(" ")
		b.WriteString(strings.Join(cells, ""))
		if y < height-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func candleStyle(c stockview.Candle) lipgloss.Style {
	switch {
	case c.Predicted:
		return PredictedStyle
	case !c.Valid:
		return InvalidStyle
	case c.Rising():
		return RisingStyle
	default:
		return FallingStyle
	}
}
