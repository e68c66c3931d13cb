// Package tui is the terminal front end. The bubbletea update loop is the
// frame loop: every frame message and every bus wake-up runs one
// app.Frame, and rendering reads the resulting state.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/chiro2001/financial-frontend/internal/app"
	"github.com/chiro2001/financial-frontend/internal/auth"
	"github.com/chiro2001/financial-frontend/internal/keyring"
	"github.com/chiro2001/financial-frontend/internal/stockview"
)

// Screen is the active top-level screen.
type Screen int

const (
	ScreenStocks Screen = iota
	ScreenViews
	ScreenDebug
)

// Options configure the model.
type Options struct {
	// Store remembers credentials; nil disables remembering.
	Store    keyring.Store
	UIConfig *UIConfig
	// UIConfigPath is where UI state is saved on quit; empty disables it.
	UIConfigPath    string
	RefreshInterval time.Duration
	KnownHosts      []string
	Logger          log.Logger
}

// Model is the main bubbletea model for the TUI.
type Model struct {
	app    *app.App
	screen Screen
	width  int
	height int
	ready  bool

	login   *LoginModel
	stocks  *StocksModel
	views   []*HistoryModel
	active  int
	spinner spinner.Model

	store      keyring.Store
	uiCfg      *UIConfig
	uiCfgPath  string
	refresh    time.Duration
	knownHosts []string
	logger     log.Logger
	notice     string
}

// New creates the model over a started app. Views saved in the UI config
// are reopened.
func New(a *app.App, opts Options) *Model {
	if opts.UIConfig == nil {
		opts.UIConfig = &UIConfig{}
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = 100 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNopLogger()
	}

	var creds auth.Credentials
	if opts.Store != nil {
		creds, _ = keyring.LoadCredentials(opts.Store)
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = KeyStyle

	m := &Model{
		app:        a,
		login:      NewLoginModel(creds),
		stocks:     NewStocksModel(opts.UIConfig.Search),
		spinner:    sp,
		store:      opts.Store,
		uiCfg:      opts.UIConfig,
		uiCfgPath:  opts.UIConfigPath,
		refresh:    opts.RefreshInterval,
		knownHosts: opts.KnownHosts,
		logger:     opts.Logger,
	}
	if opts.UIConfig.Debug {
		m.screen = ScreenDebug
	}

	a.SetSearch(opts.UIConfig.Search)
	for _, e := range opts.UIConfig.Views {
		a.OpenView(e)
	}
	m.syncViews()
	if len(m.views) > 0 && !opts.UIConfig.Debug {
		m.screen = ScreenViews
	}
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.frameCmd(),
		waitWake(m.app.Wake()),
		m.spinner.Tick,
	)
}

// frameCmd schedules the next frame according to the run mode.
func (m *Model) frameCmd() tea.Cmd {
	if m.app.RunMode() == app.Continuous {
		return func() tea.Msg { return FrameMsg(time.Now()) }
	}
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg {
		return FrameMsg(t)
	})
}

func waitWake(wake <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-wake
		return WakeMsg{}
	}
}

func (m *Model) frame(now time.Time) {
	m.app.Frame(now)
	m.stocks.Sync(m.app)
	m.syncViews()
}

// syncViews mirrors the app's open views, keeping per-view UI state.
func (m *Model) syncViews() {
	existing := make(map[*stockview.Controller]*HistoryModel, len(m.views))
	for _, h := range m.views {
		existing[h.View] = h
	}
	views := make([]*HistoryModel, 0, len(m.app.Views()))
	for _, v := range m.app.Views() {
		if !v.Open() {
			continue
		}
		h, ok := existing[v]
		if !ok {
			h = NewHistoryModel(v)
		}
		views = append(views, h)
	}
	m.views = views
	if m.active >= len(m.views) {
		m.active = max(len(m.views)-1, 0)
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.stocks.SetHeight(max(m.height-8, 3))
		return m, nil

	case FrameMsg:
		m.frame(time.Time(msg))
		return m, m.frameCmd()

	case WakeMsg:
		m.frame(time.Now())
		return m, waitWake(m.app.Wake())

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case LoginSubmitMsg:
		m.submitLogin(msg)
		return m, nil

	case OpenViewMsg:
		m.openView(msg.Symbol)
		return m, nil

	case SearchChangedMsg:
		m.app.SetSearch(msg.Pattern)
		m.uiCfg.Search = msg.Pattern
		m.stocks.Sync(m.app)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, m.quit()
		}
		if !m.app.LoggedIn() {
			if msg.String() == "ctrl+e" {
				m.switchHost()
				return m, nil
			}
			m.login, cmd = m.login.Update(msg)
			return m, cmd
		}
		if m.screen == ScreenStocks && m.stocks.Mode == StocksModeSearching {
			m.stocks, cmd, _ = m.stocks.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "q":
			return m, m.quit()
		case "1":
			m.screen = ScreenStocks
			return m, nil
		case "2":
			m.screen = ScreenViews
			return m, nil
		case "3":
			m.screen = ScreenDebug
			return m, nil
		}

		switch m.screen {
		case ScreenStocks:
			if msg.String() == "r" {
				m.app.RefreshEntities()
				return m, nil
			}
			m.stocks, cmd, _ = m.stocks.Update(msg)
			cmds = append(cmds, cmd)

		case ScreenViews:
			switch msg.String() {
			case "tab", "right", "l":
				if len(m.views) > 0 {
					m.active = (m.active + 1) % len(m.views)
				}
			case "shift+tab", "left", "h":
				if len(m.views) > 0 {
					m.active = (m.active - 1 + len(m.views)) % len(m.views)
				}
			default:
				if h := m.activeView(); h != nil {
					_, cmd, _ = h.Update(msg)
					cmds = append(cmds, cmd)
				}
			}

		case ScreenDebug:
			switch msg.String() {
			case " ", "space":
				mode := m.app.ToggleRunMode()
				_ = level.Info(m.logger).Log("msg", "run mode changed", "mode", mode)
			case "e":
				m.switchHost()
			case "L":
				if err := m.app.Logout(); err != nil {
					m.notice = err.Error()
				}
			}
		}
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) activeView() *HistoryModel {
	if m.active < 0 || m.active >= len(m.views) {
		return nil
	}
	return m.views[m.active]
}

func (m *Model) submitLogin(msg LoginSubmitMsg) {
	creds := auth.Credentials{Username: msg.Username, Password: msg.Password}
	if m.store != nil {
		var err error
		if msg.Remember {
			err = keyring.SaveCredentials(m.store, creds)
		} else {
			err = keyring.ForgetCredentials(m.store)
		}
		if err != nil {
			_ = level.Warn(m.logger).Log("msg", "failed to update remembered credentials", "err", err)
		}
	}

	var err error
	if msg.Register {
		err = m.app.Register(creds)
	} else {
		err = m.app.Login(creds)
	}
	if err != nil {
		m.login.Err = err.Error()
	}
}

func (m *Model) openView(symbol string) {
	for _, e := range m.app.AllEntities() {
		if e.Symbol != symbol {
			continue
		}
		v := m.app.OpenView(e)
		m.syncViews()
		for i, h := range m.views {
			if h.View == v {
				m.active = i
			}
		}
		m.screen = ScreenViews
		return
	}
}

func (m *Model) switchHost() {
	host := nextHost(m.knownHosts, m.app.Host())
	if err := m.app.SelectEndpoint(host); err != nil {
		m.notice = err.Error()
		return
	}
	m.notice = "switched to " + host
}

// quit saves the UI state and stops the program.
func (m *Model) quit() tea.Cmd {
	m.uiCfg.Views = m.uiCfg.Views[:0]
	for _, h := range m.views {
		m.uiCfg.Views = append(m.uiCfg.Views, h.View.Entity())
	}
	m.uiCfg.Debug = m.screen == ScreenDebug
	if m.uiCfgPath != "" {
		if err := SaveConfig(m.uiCfgPath, m.uiCfg); err != nil {
			_ = level.Warn(m.logger).Log("msg", "failed to save ui state", "err", err)
		}
	}
	return tea.Quit
}

// View implements tea.Model.
func (m *Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.renderHeader()
	footer := m.renderFooter()

	contentHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	content := padLines(m.renderContent(contentHeight), contentHeight)

	return header + "\n" + content + "\n" + footer
}

// renderHeader renders the header bar.
func (m *Model) renderHeader() string {
	title := HeaderStyle.Render("stockview")

	tabs := []struct {
		name   string
		key    string
		active bool
	}{
		{"Stocks", "1", m.screen == ScreenStocks},
		{fmt.Sprintf("Views (%d)", len(m.views)), "2", m.screen == ScreenViews},
		{"Debug", "3", m.screen == ScreenDebug},
	}

	var tabStrs []string
	for _, tab := range tabs {
		style := lipgloss.NewStyle().Padding(0, 1)
		if tab.active {
			style = style.Bold(true).Foreground(ColorPrimary)
		} else {
			style = style.Foreground(ColorMuted)
		}
		tabStrs = append(tabStrs, style.Render(fmt.Sprintf("[%s] %s", tab.key, tab.name)))
	}

	status := m.app.Host()
	if s := m.app.Session(); s != nil {
		status = s.Username + "@" + status
	}
	headerContent := title + "  " + strings.Join(tabStrs, " ") + "  " + LabelStyle.Render(status)

	return lipgloss.NewStyle().
		Background(ColorBackground).
		Width(m.width).
		Render(fillWidth(headerContent, m.width))
}

// renderContent renders the main content area.
func (m *Model) renderContent(height int) string {
	// ContentStyle pads one line above and below
	inner := max(height-2, 1)
	width := max(m.width-4, 1)
	spin := m.spinner.View()

	var content string
	switch {
	case !m.app.LoggedIn():
		content = m.login.Render(m.app, spin)
	case m.screen == ScreenStocks:
		content = m.stocks.Render(m.app, spin)
	case m.screen == ScreenViews:
		content = m.renderViews(width, inner, spin)
	case m.screen == ScreenDebug:
		content = renderDebug(m.app)
	}
	if m.notice != "" {
		content += "\n\n" + WarningStyle.Render(m.notice)
	}
	return ContentStyle.Render(content)
}

func (m *Model) renderViews(width, height int, spin string) string {
	if len(m.views) == 0 {
		return LabelStyle.Render("No open views. Select a stock in [1] and press enter.")
	}

	var tabs []string
	for i, h := range m.views {
		label := h.View.Entity().Title()
		if i == m.active {
			tabs = append(tabs, KeyStyle.Render(label))
		} else {
			tabs = append(tabs, LabelStyle.Render(label))
		}
	}
	strip := strings.Join(tabs, LabelStyle.Render(" | "))
	return strip + "\n\n" + m.activeView().Render(width, height-2, spin)
}

// renderFooter renders the footer bar with key hints.
func (m *Model) renderFooter() string {
	var hints []keyHint
	switch {
	case !m.app.LoggedIn():
		hints = append(m.login.hints(), keyHint{"ctrl+e", "switch host"})
	case m.screen == ScreenStocks:
		hints = append([]keyHint{{"1-3", "switch screen"}}, m.stocks.hints()...)
	case m.screen == ScreenViews:
		hints = []keyHint{{"1-3", "switch screen"}, {"tab", "next view"}}
		if h := m.activeView(); h != nil {
			hints = append(hints, h.hints()...)
		}
	case m.screen == ScreenDebug:
		hints = append([]keyHint{{"1-3", "switch screen"}}, debugHints()...)
	}
	hints = append(hints, keyHint{"ctrl+c", "quit"})

	return lipgloss.NewStyle().
		Background(ColorBackground).
		Width(m.width).
		Render(fillWidth(renderHints(hints), m.width))
}
