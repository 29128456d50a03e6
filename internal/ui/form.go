package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/spoolwatch/internal/submit"
)

const (
	fieldUser = iota
	fieldPriority
	fieldFile
	fieldCount
)

const defaultPriority = "1"

var fieldLabels = [fieldCount]string{"Username", "Priority", "File"}

// taskForm is the submission form. The username field is read-only while it
// is pinned to an authenticated session.
type taskForm struct {
	inputs   [fieldCount]textinput.Model
	focus    int
	pinned   string
	lastDir  string
	inFlight bool
}

func newTaskForm() taskForm {
	var f taskForm
	for i := range f.inputs {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 512
		f.inputs[i] = in
	}
	f.inputs[fieldUser].Placeholder = "your name"
	f.inputs[fieldPriority].Placeholder = defaultPriority
	f.inputs[fieldPriority].CharLimit = 6
	f.inputs[fieldFile].Placeholder = "~/Documents/report.pdf"
	f.inputs[fieldPriority].SetValue(defaultPriority)
	f.setFocus(fieldUser)
	return f
}

// pin locks the username to the session identity.
func (f *taskForm) pin(username string) {
	f.pinned = username
	f.inputs[fieldUser].SetValue(username)
	if f.focus == fieldUser && username != "" {
		f.setFocus(fieldPriority)
	}
}

// unpin releases the username field after logout.
func (f *taskForm) unpin() {
	f.pinned = ""
	f.inputs[fieldUser].SetValue("")
}

func (f *taskForm) readOnly(field int) bool {
	return field == fieldUser && f.pinned != ""
}

// reset clears the form after a successful upload, keeping the pinned
// username.
func (f *taskForm) reset() {
	f.inputs[fieldUser].SetValue(f.pinned)
	f.inputs[fieldPriority].SetValue(defaultPriority)
	f.inputs[fieldFile].SetValue("")
	if f.lastDir != "" {
		f.inputs[fieldFile].SetValue(withSeparator(f.lastDir))
	}
	if f.pinned != "" {
		f.setFocus(fieldPriority)
	} else {
		f.setFocus(fieldUser)
	}
}

func (f *taskForm) setFocus(field int) {
	f.focus = field
	for i := range f.inputs {
		if i == field {
			f.inputs[i].Focus()
		} else {
			f.inputs[i].Blur()
		}
	}
}

// move shifts focus by delta, skipping read-only fields.
func (f *taskForm) move(delta int) {
	next := f.focus
	for range fieldCount {
		next = (next + delta + fieldCount) % fieldCount
		if !f.readOnly(next) {
			break
		}
	}
	f.setFocus(next)
}

// setFile fills the file field, for a path passed on the command line.
func (f *taskForm) setFile(path string) {
	f.inputs[fieldFile].SetValue(path)
}

func (f taskForm) values() submit.Form {
	return submit.Form{
		Username: strings.TrimSpace(f.inputs[fieldUser].Value()),
		Priority: strings.TrimSpace(f.inputs[fieldPriority].Value()),
		FilePath: strings.TrimSpace(f.inputs[fieldFile].Value()),
	}
}

// update forwards input to the focused field.
func (f *taskForm) update(msg tea.Msg) tea.Cmd {
	if f.readOnly(f.focus) {
		return nil
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

// renderForm draws the submission panel.
func (m Model) renderForm(width int) string {
	styles := m.theme.Styles()
	inner := max(width-4, 16)
	labelWidth := 10

	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render("New task"))
	b.WriteString("\n")
	for i := range m.form.inputs {
		in := m.form.inputs[i]
		in.Width = max(inner-labelWidth-1, 4)
		label := padRight(fieldLabels[i], labelWidth)
		labelStyle := styles.MutedText
		if i == m.form.focus {
			labelStyle = styles.AccentText
		}
		var field string
		if m.form.readOnly(i) {
			field = styles.FaintText.Render(in.Value() + " (session)")
		} else {
			field = in.View()
		}
		b.WriteString(labelStyle.Render(label) + " " + field)
		b.WriteString("\n")
	}

	button := "[ Submit ]"
	buttonStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Background)).
		Background(lipgloss.Color(m.theme.Accent)).
		Bold(true)
	if m.form.inFlight {
		buttonStyle = styles.FaintText
	}
	b.WriteString(buttonStyle.Render(button))
	if msg := m.renderFlash(m.flash); msg != "" {
		b.WriteString("  " + msg)
	}

	panel := styles.Panel
	if m.view == viewDashboard && !m.showHelp {
		panel = styles.FocusPanel
	}
	return panel.Width(max(width-2, 10)).Render(b.String())
}
