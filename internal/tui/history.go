package tui

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/chiro2001/financial-frontend/internal/market"
	"github.com/chiro2001/financial-frontend/internal/stockview"
)

// HistoryModel renders the trading history of one open stock view and
// turns keys into controller calls.
type HistoryModel struct {
	View *stockview.Controller

	ShowInfo bool
	// Notice is the outcome of the last rejected action.
	Notice string
}

// NewHistoryModel wraps an open controller.
func NewHistoryModel(v *stockview.Controller) *HistoryModel {
	return &HistoryModel{View: v}
}

// Update handles keys for the view. It reports whether the key was used.
func (m *HistoryModel) Update(msg tea.Msg) (*HistoryModel, tea.Cmd, bool) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil, false
	}
	v := m.View

	switch key.String() {
	case "d":
		m.setGranularity(market.Daily)
	case "w":
		m.setGranularity(market.Weekly)
	case "m":
		m.setGranularity(market.Monthly)
	case "+", "=":
		v.SetPredictLength(v.PredictLength() + 1)
	case "-", "_":
		v.SetPredictLength(v.PredictLength() - 1)
	case "p":
		m.Notice = ""
		if err := v.Predict(); err != nil {
			m.Notice = predictNotice(err)
		}
	case "r":
		if v.Retry() {
			m.Notice = ""
		}
	case "i":
		m.ShowInfo = !m.ShowInfo
	case "x":
		v.Close()
	default:
		return m, nil, false
	}
	return m, nil, true
}

func (m *HistoryModel) setGranularity(g market.Granularity) {
	if m.View.SetGranularity(g) {
		m.Notice = ""
	}
}

func predictNotice(err error) string {
	switch {
	case errors.Is(err, stockview.ErrPredictLengthZero):
		return "set a prediction length with + first"
	case errors.Is(err, stockview.ErrPredictionInFlight):
		return "a prediction is already running"
	default:
		return err.Error()
	}
}

// Render draws the view into width x height.
func (m *HistoryModel) Render(width, height int, spinner string) string {
	v := m.View
	var b strings.Builder

	b.WriteString(SummaryStyle.Render(v.Entity().Title()))
	b.WriteString("  ")
	for _, g := range market.Granularities {
		label := fmt.Sprintf("[%c]%s", g.String()[0], g.String()[1:])
		if g == v.Granularity() {
			b.WriteString(KeyStyle.Render(label))
		} else {
			b.WriteString(LabelStyle.Render(label))
		}
		b.WriteString(" ")
	}
	b.WriteString("\n")

	switch v.State() {
	case stockview.StateEmpty, stockview.StateRequesting:
		b.WriteString(spinner + " Loading " + v.Granularity().String() + " series...")
		return b.String()
	case stockview.StateFailed:
		b.WriteString(ErrorStyle.Render("Error: " + v.Err()))
		b.WriteString("\n\nPress 'r' to retry")
		return b.String()
	}

	b.WriteString(m.renderSummary())
	b.WriteString("\n")
	b.WriteString(m.renderPrediction(spinner))
	b.WriteString("\n")

	if m.ShowInfo {
		b.WriteString(m.renderInfo(spinner))
		return b.String()
	}

	used := strings.Count(b.String(), "\n")
	b.WriteString(renderChart(v.Candles(), width, max(height-used-1, 2)))
	return b.String()
}

func (m *HistoryModel) renderSummary() string {
	bars := m.View.Bars()
	if len(bars) == 0 {
		return LabelStyle.Render("No trading history")
	}
	last := bars[len(bars)-1]
	style := FallingStyle
	if last.Rising() {
		style = RisingStyle
	}
	parts := []string{
		LabelStyle.Render(last.Date),
		LabelStyle.Render("O ") + ValueStyle.Render(formatPrice(last.Open)),
		LabelStyle.Render("H ") + ValueStyle.Render(formatPrice(last.High)),
		LabelStyle.Render("L ") + ValueStyle.Render(formatPrice(last.Low)),
		LabelStyle.Render("C ") + style.Render(formatPrice(last.Close)),
		LabelStyle.Render("Vol ") + ValueStyle.Render(formatVolume(last.Volume)),
		LabelStyle.Render(fmt.Sprintf("(%d bars)", len(bars))),
	}
	if !last.Valid() {
		parts = append(parts, WarningStyle.Render("invalid"))
	}
	return strings.Join(parts, "  ")
}

func (m *HistoryModel) renderPrediction(spinner string) string {
	v := m.View
	line := LabelStyle.Render("Predict ") +
		ValueStyle.Render(fmt.Sprintf("%d", v.PredictLength())) +
		LabelStyle.Render(fmt.Sprintf("/%d bars", v.MaxPredictLength()))

	switch {
	case v.PredictionState() == stockview.PredictionRunning:
		line += "  " + spinner + " predicting..."
	case v.PredictErr() != "":
		line += "  " + ErrorStyle.Render(v.PredictErr())
	case len(v.Predicted()) > 0:
		line += "  " + PredictedStyle.Render(fmt.Sprintf("%d predicted", len(v.Predicted())))
	}
	if m.Notice != "" {
		line += "  " + WarningStyle.Render(m.Notice)
	}
	return line
}

func (m *HistoryModel) renderInfo(spinner string) string {
	v := m.View
	switch {
	case v.MetadataErr() != "":
		return ErrorStyle.Render("Error: "+v.MetadataErr()) + "\n\nPress 'r' to retry"
	case v.Metadata() == nil:
		return spinner + " Loading issue information..."
	}

	var b strings.Builder
	for _, kv := range v.Metadata().Fields() {
		b.WriteString(LabelStyle.Render(fmt.Sprintf("%-26s", kv[0])))
		b.WriteString(ValueStyle.Render(kv[1]))
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (m *HistoryModel) hints() []keyHint {
	return []keyHint{
		{"d/w/m", "period"},
		{"+/-", "length"},
		{"p", "predict"},
		{"i", "info"},
		{"r", "retry"},
		{"x", "close"},
	}
}
