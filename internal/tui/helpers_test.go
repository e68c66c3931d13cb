package tui

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chiro2001/financial-frontend/internal/market"
	"github.com/chiro2001/financial-frontend/internal/stockview"
)

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{10.5, "10.50"},
		{1234.567, "1234.57"},
		{0, "-"},
		{-1, "-"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatPrice(tt.in))
	}
}

func TestFormatVolume(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "-"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{12345678, "12,345,678"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatVolume(tt.in))
	}
}

func TestPadLines(t *testing.T) {
	assert.Equal(t, "a\nb\n", padLines("a\nb", 3))
	assert.Equal(t, "a", padLines("a\nb\nc", 1))
}

func TestRenderChart(t *testing.T) {
	candles := []stockview.Candle{
		{Bar: market.Bar{Open: 10, High: 12, Low: 9, Close: 11}, Valid: true},
		{Bar: market.Bar{Open: 11, High: 11.5, Low: 8, Close: 9}, Valid: true},
		{Bar: market.Bar{Open: 9, High: 10, Low: 9, Close: 10}, Predicted: true},
	}

	out := renderChart(candles, 40, 6)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 6)
	assert.Contains(t, lines[0], "12.00")
	assert.Contains(t, lines[5], "8.00")
	assert.Contains(t, out, glyphBody)
	assert.Contains(t, out, glyphWick)
	for _, line := range lines {
		assert.Equal(t, 10+len(candles), lipgloss.Width(line))
	}
}

func TestRenderChart_Degenerate(t *testing.T) {
	assert.Empty(t, renderChart(nil, 5, 10))
	assert.Empty(t, renderChart(nil, 40, 1))
	assert.Contains(t, renderChart(nil, 40, 5), "no data")
}

func TestRenderChart_KeepsLatestCandles(t *testing.T) {
	var candles []stockview.Candle
	for i := 0; i < 50; i++ {
		p := float64(i + 1)
		candles = append(candles, stockview.Candle{Bar: market.Bar{Open: p, High: p + 1, Low: p, Close: p + 1}, Valid: true})
	}
	out := renderChart(candles, 30, 4)
	lines := strings.Split(out, "\n")
	assert.Contains(t, lines[0], "51.00")
	assert.Contains(t, lines[3], "31.00")
}

func TestUIConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ui.yaml")

	missing, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Empty(t, missing.Views)

	cfg := &UIConfig{
		Views:  []market.Entity{{Symbol: "SH600519", Code: "600519", Name: "贵州茅台"}},
		Search: "^SH",
		Debug:  true,
	}
	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
