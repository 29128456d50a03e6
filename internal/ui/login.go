package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/spoolwatch/internal/auth"
)

// loginForm holds the login view inputs. The attempt itself is tracked by an
// auth.LoginFlow.
type loginForm struct {
	username textinput.Model
	password textinput.Model
	focus    int
}

func newLoginForm() loginForm {
	user := textinput.New()
	user.Prompt = ""
	user.Placeholder = "username"
	user.CharLimit = 128

	pass := textinput.New()
	pass.Prompt = ""
	pass.Placeholder = "password"
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '•'
	pass.CharLimit = 256

	f := loginForm{username: user, password: pass}
	f.setFocus(0)
	return f
}

func (f *loginForm) setFocus(i int) {
	f.focus = i
	if i == 0 {
		f.username.Focus()
		f.password.Blur()
		return
	}
	f.username.Blur()
	f.password.Focus()
}

func (f *loginForm) toggle() {
	f.setFocus(1 - f.focus)
}

// clear empties the inputs, keeping the last username for convenience.
func (f *loginForm) clear(keepUser string) {
	f.username.SetValue(keepUser)
	f.password.SetValue("")
	if keepUser != "" {
		f.setFocus(1)
	} else {
		f.setFocus(0)
	}
}

func (f *loginForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if f.focus == 0 {
		f.username, cmd = f.username.Update(msg)
	} else {
		f.password, cmd = f.password.Update(msg)
	}
	return cmd
}

// loginResultMsg carries a finished login attempt back to the model.
type loginResultMsg struct {
	result auth.LoginResult
}

// renderLogin draws the centered login card.
func (m Model) renderLogin() string {
	styles := m.theme.Styles()
	width := max(44, lipgloss.Width(m.logo)+6)

	var b strings.Builder
	b.WriteString(styles.Logo.Render(m.logo))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render(m.serverLabel))
	b.WriteString("\n\n")

	user := m.login.username
	user.Width = width - 16
	pass := m.login.password
	pass.Width = width - 16
	labelStyle := func(i int) lipgloss.Style {
		if m.login.focus == i {
			return styles.AccentText
		}
		return styles.MutedText
	}
	b.WriteString(labelStyle(0).Render(padRight("Username", 10)) + " " + user.View())
	b.WriteString("\n")
	b.WriteString(labelStyle(1).Render(padRight("Password", 10)) + " " + pass.View())
	b.WriteString("\n\n")

	button := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Background)).
		Background(lipgloss.Color(m.theme.Accent)).
		Bold(true).
		Padding(0, 1)
	if m.loginFlow.Busy() {
		button = styles.FaintText.Padding(0, 1)
	}
	b.WriteString(button.Render(m.loginFlow.Label()))
	if msg := m.loginFlow.Error(); msg != "" {
		b.WriteString("\n\n")
		b.WriteString(styles.DangerText.Render(truncate(msg, width-6)))
	}

	card := styles.FocusPanel.Padding(1, 2).Width(width).Render(b.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, card)
}
