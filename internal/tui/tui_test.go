package tui

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chiro2001/financial-frontend/internal/app"
	"github.com/chiro2001/financial-frontend/internal/auth"
	"github.com/chiro2001/financial-frontend/internal/bus"
	"github.com/chiro2001/financial-frontend/internal/config"
	"github.com/chiro2001/financial-frontend/internal/event"
	"github.com/chiro2001/financial-frontend/internal/executor"
	"github.com/chiro2001/financial-frontend/internal/keyring"
	"github.com/chiro2001/financial-frontend/internal/market"
	"github.com/chiro2001/financial-frontend/internal/remote"
)

var testListing = []market.Entity{
	{Symbol: "SH600000", Code: "600000", Name: "浦发银行"},
	{Symbol: "SH600519", Code: "600519", Name: "贵州茅台"},
	{Symbol: "SZ000001", Code: "000001", Name: "平安银行"},
}

type manualExecutor struct {
	tasks []executor.Task
}

func (m *manualExecutor) Spawn(task executor.Task) { m.tasks = append(m.tasks, task) }
func (m *manualExecutor) Close()                   {}
func (m *manualExecutor) Wait()                    {}

type harness struct {
	model  *Model
	app    *app.App
	tx     bus.Sender
	exec   *manualExecutor
	client *remote.MockClient
	store  *keyring.MockStore
}

func newHarness(t *testing.T, ui *UIConfig) *harness {
	t.Helper()
	client := remote.NewMockClient("localhost:51411")
	client.Entities = testListing
	client.Users = map[string]string{"alice": "secret"}
	client.Series = map[string][]market.Bar{}
	for _, e := range testListing {
		client.Series[e.Symbol] = []market.Bar{
			{Date: "2024-01-02", Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 100},
			{Date: "2024-01-03", Open: 10.5, High: 12, Low: 10, Close: 11.5, Volume: 200},
		}
	}

	tx, rx := bus.New()
	exec := &manualExecutor{}
	cfg := config.Default()
	a := app.New(rx, tx, exec, cfg,
		app.WithClient(client),
		app.WithCachePath(filepath.Join(t.TempDir(), ".session")))

	store := keyring.NewMockStore()
	m := New(a, Options{
		Store:        store,
		UIConfig:     ui,
		UIConfigPath: filepath.Join(t.TempDir(), "ui.yaml"),
		KnownHosts:   cfg.Remote.KnownHosts,
	})
	m.width = 100
	m.height = 30
	m.ready = true
	return &harness{model: m, app: a, tx: tx, exec: exec, client: client, store: store}
}

// settle runs queued tasks and frames until nothing is left.
func (h *harness) settle() {
	for i := 0; i < 10; i++ {
		h.model.frame(time.Now())
		if len(h.exec.tasks) == 0 && h.app.Pending() == 0 {
			return
		}
		tasks := h.exec.tasks
		h.exec.tasks = nil
		for _, task := range tasks {
			task(context.Background())
		}
	}
}

// authenticate simulates a completed login followed by the dispatcher
// handing out a client that carries the token.
func (h *harness) authenticate(t *testing.T) {
	t.Helper()
	require.NoError(t, h.tx.Send(event.AuthSucceeded{Token: auth.Token{AccessToken: "tok", Username: "alice"}}))
	h.settle()
	require.NoError(t, h.tx.Send(event.ClientReady{Client: h.client.WithToken("tok")}))
	h.settle()
	h.settle()
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "ctrl+e":
		return tea.KeyMsg{Type: tea.KeyCtrlE}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// run feeds the command's message back into the model.
func (h *harness) run(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case nil:
	case tea.BatchMsg:
		for _, c := range msg {
			h.run(c)
		}
	default:
		h.model.Update(msg)
	}
}

func TestNew(t *testing.T) {
	h := newHarness(t, nil)
	assert.Equal(t, ScreenStocks, h.model.screen)
	assert.Empty(t, h.model.views)
	assert.NotNil(t, h.model.Init())
}

func TestNew_ReopensSavedViews(t *testing.T) {
	h := newHarness(t, &UIConfig{Views: testListing[:2], Search: "^SH"})
	assert.Equal(t, ScreenViews, h.model.screen)
	require.Len(t, h.model.views, 2)
	assert.Equal(t, "SH600000", h.model.views[0].View.Symbol())
	assert.Equal(t, "^SH", h.app.Search().Pattern())
}

func TestView_LoginFormWhenLoggedOut(t *testing.T) {
	h := newHarness(t, nil)
	view := h.model.View()
	assert.Contains(t, view, "stockview")
	assert.Contains(t, view, "Log in")
	assert.Contains(t, view, "localhost")
	assert.Contains(t, view, "ctrl+c")
}

func TestView_NotReady(t *testing.T) {
	h := newHarness(t, nil)
	h.model.ready = false
	assert.Equal(t, "Loading...", h.model.View())
}

func TestLoginSubmit_RemembersCredentials(t *testing.T) {
	h := newHarness(t, nil)

	h.model.Update(LoginSubmitMsg{Username: "alice", Password: "secret", Remember: true})
	assert.True(t, h.app.LoggingIn())
	h.settle()
	assert.True(t, h.app.LoggedIn())

	creds, err := keyring.LoadCredentials(h.store)
	require.NoError(t, err)
	assert.Equal(t, "alice", creds.Username)
}

func TestLoginSubmit_WrongPassword(t *testing.T) {
	h := newHarness(t, nil)

	h.model.Update(LoginSubmitMsg{Username: "alice", Password: "nope"})
	h.settle()
	assert.False(t, h.app.LoggedIn())
	assert.Contains(t, h.model.View(), "wrong username or password")
	assert.Zero(t, h.store.Len())
}

func TestLoginForm_SubmitsThroughModel(t *testing.T) {
	h := newHarness(t, nil)

	for _, r := range "alice" {
		h.model.Update(keyMsg(string(r)))
	}
	h.model.Update(keyMsg("enter"))
	for _, r := range "secret" {
		h.model.Update(keyMsg(string(r)))
	}
	_, cmd := h.model.Update(keyMsg("enter"))
	h.run(cmd)
	h.settle()

	require.True(t, h.app.LoggedIn())
	assert.Equal(t, "alice", h.app.Session().Username)
}

func TestLoginForm_SwitchHost(t *testing.T) {
	h := newHarness(t, nil)
	before := h.app.Host()

	h.model.Update(keyMsg("ctrl+e"))
	assert.NotEqual(t, before, h.app.Host())
	assert.Contains(t, h.model.notice, h.app.Host())
}

func TestStocks_ListAndOpenView(t *testing.T) {
	h := newHarness(t, nil)
	h.authenticate(t)

	view := h.model.View()
	assert.Contains(t, view, "600519")
	assert.Contains(t, view, "贵州茅台")

	_, cmd := h.model.Update(keyMsg("enter"))
	h.run(cmd)
	assert.Equal(t, ScreenViews, h.model.screen)
	require.Len(t, h.model.views, 1)
	assert.Equal(t, "SH600000", h.model.activeView().View.Symbol())

	h.settle()
	view = h.model.View()
	assert.Contains(t, view, "[600000]浦发银行")
	assert.Contains(t, view, "2 bars")
}

func TestStocks_Search(t *testing.T) {
	h := newHarness(t, nil)
	h.authenticate(t)

	h.model.Update(keyMsg("/"))
	assert.Equal(t, StocksModeSearching, h.model.stocks.Mode)
	h.model.stocks.Search.Cursor.SetMode(cursor.CursorStatic)

	for _, r := range "^SZ" {
		_, cmd := h.model.Update(keyMsg(string(r)))
		h.run(cmd)
	}
	h.model.Update(keyMsg("enter"))
	assert.Equal(t, StocksModeNormal, h.model.stocks.Mode)
	assert.Equal(t, "^SZ", h.app.Search().Pattern())

	e, ok := h.model.stocks.Selected()
	require.True(t, ok)
	assert.Equal(t, "SZ000001", e.Symbol)
	assert.NotContains(t, h.model.View(), "贵州茅台")
}

func TestStocks_RetryAfterFailure(t *testing.T) {
	h := newHarness(t, nil)
	h.client.ListErr = assert.AnError
	h.authenticate(t)
	assert.Contains(t, h.model.View(), "Press 'r' to retry")

	h.client.ListErr = nil
	h.model.Update(keyMsg("r"))
	h.settle()
	assert.Len(t, h.app.AllEntities(), len(testListing))
}

func TestViews_CycleAndClose(t *testing.T) {
	h := newHarness(t, &UIConfig{Views: testListing})
	h.authenticate(t)
	require.Len(t, h.model.views, 3)

	h.model.Update(keyMsg("2"))
	h.model.Update(keyMsg("tab"))
	assert.Equal(t, 1, h.model.active)
	h.model.Update(keyMsg("h"))
	h.model.Update(keyMsg("h"))
	assert.Equal(t, 2, h.model.active)

	h.model.Update(keyMsg("x"))
	h.settle()
	assert.Len(t, h.model.views, 2)
	assert.Equal(t, 1, h.model.active)
}

func TestViews_Empty(t *testing.T) {
	h := newHarness(t, nil)
	h.authenticate(t)
	h.model.Update(keyMsg("2"))
	assert.Contains(t, h.model.View(), "No open views")
}

func TestDebug_ToggleRunMode(t *testing.T) {
	h := newHarness(t, nil)
	h.authenticate(t)

	h.model.Update(keyMsg("3"))
	assert.Equal(t, ScreenDebug, h.model.screen)
	assert.Equal(t, app.Reactive, h.app.RunMode())

	h.model.Update(keyMsg(" "))
	assert.Equal(t, app.Continuous, h.app.RunMode())

	view := h.model.View()
	assert.Contains(t, view, "continuous")
	assert.Contains(t, view, "entity_list_ready")
}

func TestFrameMsg_Reschedules(t *testing.T) {
	h := newHarness(t, nil)
	before := h.app.Frames().Total()

	_, cmd := h.model.Update(FrameMsg(time.Now()))
	assert.NotNil(t, cmd)
	assert.Equal(t, before+1, h.app.Frames().Total())
}

func TestQuit_SavesUIState(t *testing.T) {
	h := newHarness(t, &UIConfig{Views: testListing[1:2]})
	h.authenticate(t)

	_, cmd := h.model.Update(keyMsg("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	saved, err := LoadConfig(h.model.uiCfgPath)
	require.NoError(t, err)
	require.Len(t, saved.Views, 1)
	assert.Equal(t, "SH600519", saved.Views[0].Symbol)
}

func TestNextHost(t *testing.T) {
	hosts := []string{"a", "b", "c"}
	tests := []struct {
		current string
		want    string
	}{
		{"a", "b"},
		{"c", "a"},
		{"unknown", "a"},
	}
	for _, tt := range tests {
		t.Run(tt.current, func(t *testing.T) {
			assert.Equal(t, tt.want, nextHost(hosts, tt.current))
		})
	}
	assert.Equal(t, "x", nextHost(nil, "x"))
}
