package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/chiro2001/financial-frontend/internal/app"
	"github.com/chiro2001/financial-frontend/internal/market"
)

// StocksMode represents the input mode of the stock list.
type StocksMode int

const (
	StocksModeNormal StocksMode = iota
	StocksModeSearching
)

// StocksModel is the searchable stock list.
type StocksModel struct {
	Mode   StocksMode
	Table  table.Model
	Search textinput.Model

	shown []market.Entity
}

// NewStocksModel creates the list with an initial search pattern.
func NewStocksModel(pattern string) *StocksModel {
	cols := []table.Column{
		{Title: "Code", Width: 8},
		{Title: "Symbol", Width: 10},
		{Title: "Name", Width: 20},
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	t.SetStyles(TableStyles())

	ti := textinput.New()
	ti.Placeholder = "regex over code, symbol or name"
	ti.Prompt = "/ "
	ti.CharLimit = 64
	ti.Width = 40
	ti.SetValue(pattern)

	return &StocksModel{
		Mode:   StocksModeNormal,
		Table:  t,
		Search: ti,
	}
}

// SetHeight sets the table height.
func (m *StocksModel) SetHeight(height int) {
	m.Table.SetHeight(height)
}

// Sync refreshes the rows from the app's filtered list.
func (m *StocksModel) Sync(a *app.App) {
	entities := a.Entities()
	if sameEntities(entities, m.shown) {
		return
	}
	m.shown = entities
	rows := make([]table.Row, 0, len(entities))
	for _, e := range entities {
		rows = append(rows, table.Row{e.Code, e.Symbol, e.Name})
	}
	m.Table.SetRows(rows)
	if m.Table.Cursor() >= len(rows) {
		m.Table.SetCursor(max(len(rows)-1, 0))
	}
}

func sameEntities(a, b []market.Entity) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Selected returns the entity under the cursor.
func (m *StocksModel) Selected() (market.Entity, bool) {
	i := m.Table.Cursor()
	if i < 0 || i >= len(m.shown) {
		return market.Entity{}, false
	}
	return m.shown[i], true
}

// Update handles messages for the list. It reports whether the message was
// consumed.
func (m *StocksModel) Update(msg tea.Msg) (*StocksModel, tea.Cmd, bool) {
	var cmd tea.Cmd

	if key, ok := msg.(tea.KeyMsg); ok {
		switch m.Mode {
		case StocksModeSearching:
			switch key.String() {
			case "enter", "esc":
				m.Mode = StocksModeNormal
				m.Search.Blur()
				return m, nil, true
			default:
				m.Search, cmd = m.Search.Update(msg)
				pattern := m.Search.Value()
				return m, tea.Batch(cmd, func() tea.Msg { return SearchChangedMsg{Pattern: pattern} }), true
			}

		case StocksModeNormal:
			switch key.String() {
			case "/":
				m.Mode = StocksModeSearching
				m.Search.Focus()
				return m, textinput.Blink, true
			case "enter":
				if e, ok := m.Selected(); ok {
					return m, func() tea.Msg { return OpenViewMsg{Symbol: e.Symbol} }, true
				}
				return m, nil, true
			}
		}
	}

	m.Table, cmd = m.Table.Update(msg)
	return m, cmd, false
}

// Render draws the list.
func (m *StocksModel) Render(a *app.App, spinner string) string {
	var b strings.Builder

	search := a.Search()
	b.WriteString(m.Search.View())
	if !search.Valid() {
		b.WriteString("  " + WarningStyle.Render("invalid pattern, matching as text"))
	}
	b.WriteString("\n\n")

	switch {
	case !a.LoggedIn():
		b.WriteString(LabelStyle.Render("Log in to load the stock list"))
	case a.EntitiesErr() != "":
		b.WriteString(ErrorStyle.Render("Error: " + a.EntitiesErr()))
		b.WriteString("\n\nPress 'r' to retry")
	case a.AllEntities() == nil:
		b.WriteString(spinner + " Loading stocks...")
	case len(m.shown) == 0:
		b.WriteString(LabelStyle.Render("No stocks match"))
	default:
		b.WriteString(m.Table.View())
	}
	return b.String()
}

func (m *StocksModel) hints() []keyHint {
	if m.Mode == StocksModeSearching {
		return []keyHint{{"enter/esc", "done"}}
	}
	return []keyHint{
		{"↑/↓", "navigate"},
		{"/", "search"},
		{"enter", "open"},
		{"r", "retry"},
	}
}
