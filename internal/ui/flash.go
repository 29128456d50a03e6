package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type flashKind int

const (
	flashInfo flashKind = iota
	flashSuccess
	flashError
)

// flash is a transient message under the submission form.
type flash struct {
	id   int
	text string
	kind flashKind
}

// flashExpiredMsg clears the flash with the matching id. A newer flash has a
// different id and survives an older timer.
type flashExpiredMsg struct {
	id int
}

// show replaces the current message and returns the timer that clears it.
// A zero ttl keeps the message until the next call to show or clear.
func (f *flash) show(text string, kind flashKind, ttl time.Duration) tea.Cmd {
	f.id++
	f.text = text
	f.kind = kind
	if ttl <= 0 {
		return nil
	}
	id := f.id
	return tea.Tick(ttl, func(time.Time) tea.Msg {
		return flashExpiredMsg{id: id}
	})
}

// expire clears the message if msg belongs to it.
func (f *flash) expire(msg flashExpiredMsg) bool {
	if msg.id != f.id || f.text == "" {
		return false
	}
	f.text = ""
	return true
}

func (f *flash) clear() {
	f.id++
	f.text = ""
}

func (f flash) visible() bool {
	return f.text != ""
}

// render styles the message for the current theme.
func (m Model) renderFlash(f flash) string {
	if !f.visible() {
		return ""
	}
	styles := m.theme.Styles()
	switch f.kind {
	case flashSuccess:
		return styles.SuccessText.Render(f.text)
	case flashError:
		return styles.DangerText.Render(f.text)
	default:
		return styles.MutedText.Render(f.text)
	}
}
