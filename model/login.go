package model

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/electr1fy0/bluenote/auth"
	"github.com/electr1fy0/bluenote/validation"
)

// resetLogin rebuilds an empty login form and clears a stale store error.
func (m *Model) resetLogin() {
	ui := textinput.New()
	ui.Placeholder = "username"
	ui.CharLimit = 64
	ui.Width = 30
	ui.Focus()

	pi := textinput.New()
	pi.Placeholder = "password"
	pi.CharLimit = 64
	pi.Width = 30
	pi.EchoMode = textinput.EchoPassword
	pi.EchoCharacter = '•'

	m.userInput = ui
	m.pwInput = pi
	m.loginFocus = focusFirst
	m.loginErrs = nil
	m.auth.ClearError()
}

func (m Model) updateLogin(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "tab", "shift+tab", "up", "down":
			cmd := m.toggleLoginFocus()
			return m, cmd
		case "enter":
			if m.loginFocus == focusFirst && m.pwInput.Value() == "" {
				cmd := m.toggleLoginFocus()
				return m, cmd
			}
			return m.submitLogin()
		}
	}

	var cmd tea.Cmd
	if m.loginFocus == focusFirst {
		before := m.userInput.Value()
		m.userInput, cmd = m.userInput.Update(msg)
		if m.userInput.Value() != before {
			m.loginErrs = withoutField(m.loginErrs, "username")
		}
	} else {
		before := m.pwInput.Value()
		m.pwInput, cmd = m.pwInput.Update(msg)
		if m.pwInput.Value() != before {
			m.loginErrs = withoutField(m.loginErrs, "password")
		}
	}
	return m, cmd
}

func (m *Model) toggleLoginFocus() tea.Cmd {
	if m.loginFocus == focusFirst {
		m.loginFocus = focusSecond
		m.userInput.Blur()
		return m.pwInput.Focus()
	}
	m.loginFocus = focusFirst
	m.pwInput.Blur()
	return m.userInput.Focus()
}

// submitLogin validates locally, then runs the login off the UI loop.
// A second submit while one is in flight is ignored.
func (m Model) submitLogin() (tea.Model, tea.Cmd) {
	if m.auth.State().IsLoading {
		return m, nil
	}

	creds := auth.Credentials{Username: m.userInput.Value(), Password: m.pwInput.Value()}
	if errs := validation.LoginFieldErrors(creds.Username, creds.Password); len(errs) > 0 {
		m.loginErrs = errs
		return m, nil
	}
	m.loginErrs = nil

	m.auth.LoginStart()
	return m, tea.Batch(m.spinner.Tick, loginCmd(m.ctx, m.authenticator, creds))
}

func loginCmd(ctx context.Context, a Authenticator, creds auth.Credentials) tea.Cmd {
	return func() tea.Msg {
		user, err := a.Login(ctx, creds)
		return loginResultMsg{user: user, err: err}
	}
}

// handleLoginResult applies the outcome to the store even if the login
// screen has been left in the meantime.
func (m Model) handleLoginResult(msg loginResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		message := msg.err.Error()
		switch {
		case errors.Is(msg.err, auth.ErrInvalidCredentials):
			message = auth.MsgInvalidCredentials
		case errors.Is(msg.err, context.Canceled):
			message = "Login cancelled"
		}
		m.auth.LoginFailure(message)
		m.log.Warn("login failed", "err", msg.err)
		m.pwInput.SetValue("")
		return m, nil
	}

	m.auth.LoginSuccess(msg.user)
	m.log.Info("login succeeded", "user", msg.user.Username)

	if m.state == stateLogin {
		m.pwInput.SetValue("")
		m.refreshList()
		m.state = stateList
		m.status = "Hello, " + msg.user.Username + "!"
		m.lastError = ""
	}
	return m, nil
}
