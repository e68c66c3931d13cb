package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// formatPrice renders a price with two decimals, or "-" for prices that
// failed to parse.
func formatPrice(p float64) string {
	if p <= 0 {
		return "-"
	}
	return decimal.NewFromFloat(p).StringFixed(2)
}

// formatVolume formats a volume with thousand separators.
func formatVolume(v int64) string {
	if v <= 0 {
		return "-"
	}

	str := strconv.FormatInt(v, 10)
	n := len(str)
	if n <= 3 {
		return str
	}

	var result strings.Builder
	remainder := n % 3
	if remainder > 0 {
		result.WriteString(str[:remainder])
		result.WriteString(",")
	}

	for i := remainder; i < n; i += 3 {
		result.WriteString(str[i : i+3])
		if i+3 < n {
			result.WriteString(",")
		}
	}

	return result.String()
}

// padLines pads or truncates s to exactly height lines.
func padLines(s string, height int) string {
	lines := strings.Split(s, "\n")
	for len(lines) < height {
		lines = append(lines, "")
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}

// fillWidth pads s with spaces to width.
func fillWidth(s string, width int) string {
	if padding := width - lipgloss.Width(s); padding > 0 {
		return s + strings.Repeat(" ", padding)
	}
	return s
}

type keyHint struct {
	key  string
	desc string
}

func renderHints(hints []keyHint) string {
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, KeyStyle.Render(h.key)+" "+DescStyle.Render(h.desc))
	}
	return strings.Join(parts, "  •  ")
}
