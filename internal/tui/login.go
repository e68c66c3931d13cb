package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/chiro2001/financial-frontend/internal/app"
	"github.com/chiro2001/financial-frontend/internal/auth"
)

const (
	fieldUsername = iota
	fieldPassword
)

// LoginModel is the login and registration form.
type LoginModel struct {
	Inputs   [2]textinput.Model
	Focus    int
	Register bool
	Remember bool
	Err      string
}

// NewLoginModel creates the form, prefilled with remembered credentials.
func NewLoginModel(creds auth.Credentials) *LoginModel {
	user := textinput.New()
	user.Placeholder = "username"
	user.CharLimit = 64
	user.Width = 30
	user.SetValue(creds.Username)
	user.Focus()

	pass := textinput.New()
	pass.Placeholder = "password"
	pass.CharLimit = 128
	pass.Width = 30
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '•'
	pass.SetValue(creds.Password)

	return &LoginModel{
		Inputs:   [2]textinput.Model{user, pass},
		Remember: creds.Username != "",
	}
}

// Credentials returns what was typed.
func (m *LoginModel) Credentials() auth.Credentials {
	return auth.Credentials{
		Username: strings.TrimSpace(m.Inputs[fieldUsername].Value()),
		Password: m.Inputs[fieldPassword].Value(),
	}
}

func (m *LoginModel) setFocus(i int) {
	m.Focus = (i + len(m.Inputs)) % len(m.Inputs)
	for j := range m.Inputs {
		if j == m.Focus {
			m.Inputs[j].Focus()
		} else {
			m.Inputs[j].Blur()
		}
	}
}

// Update handles keys for the form.
func (m *LoginModel) Update(msg tea.Msg) (*LoginModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "tab", "down":
		m.setFocus(m.Focus + 1)
		return m, nil
	case "shift+tab", "up":
		m.setFocus(m.Focus - 1)
		return m, nil
	case "ctrl+r":
		m.Register = !m.Register
		return m, nil
	case "ctrl+s":
		m.Remember = !m.Remember
		return m, nil
	case "enter":
		if m.Focus == fieldUsername {
			m.setFocus(fieldPassword)
			return m, nil
		}
		creds := m.Credentials()
		if err := creds.Validate(); err != nil {
			m.Err = err.Error()
			return m, nil
		}
		m.Err = ""
		submit := LoginSubmitMsg{
			Username: creds.Username,
			Password: creds.Password,
			Register: m.Register,
			Remember: m.Remember,
		}
		return m, func() tea.Msg { return submit }
	}

	var cmd tea.Cmd
	m.Inputs[m.Focus], cmd = m.Inputs[m.Focus].Update(msg)
	return m, cmd
}

// Render draws the form.
func (m *LoginModel) Render(a *app.App, spinner string) string {
	var b strings.Builder

	title := "Log in"
	if m.Register {
		title = "Register"
	}
	b.WriteString(SummaryStyle.Render(title))
	b.WriteString(LabelStyle.Render("  to " + a.Host()))
	b.WriteString("\n\n")

	for i := range m.Inputs {
		b.WriteString(InputStyle.Render(m.Inputs[i].View()))
		b.WriteString("\n")
	}

	check := "[ ]"
	if m.Remember {
		check = "[x]"
	}
	b.WriteString(LabelStyle.Render(check + " remember credentials"))
	b.WriteString("\n\n")

	switch {
	case a.LoggingIn():
		b.WriteString(spinner + " Signing in...")
	case m.Err != "":
		b.WriteString(ErrorStyle.Render(m.Err))
	case a.AuthErr() != "":
		b.WriteString(ErrorStyle.Render(a.AuthErr()))
	}
	return b.String()
}

func (m *LoginModel) hints() []keyHint {
	return []keyHint{
		{"tab", "next field"},
		{"enter", "submit"},
		{"ctrl+r", "login/register"},
		{"ctrl+s", "remember"},
	}
}
