package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"

	"github.com/five82/spoolwatch/internal/logtail"
)

const logTimeFormat = "15:04:05"

// eventLog is the scrollable push message pane. It follows the newest line
// until the user scrolls up.
type eventLog struct {
	viewport viewport.Model
	follow   bool
	total    uint64
}

func newEventLog() eventLog {
	return eventLog{viewport: viewport.New(0, 0), follow: true}
}

func (l *eventLog) resize(width, height int) {
	l.viewport.Width = max(width, 1)
	l.viewport.Height = max(height, 1)
	if l.follow {
		l.viewport.GotoBottom()
	}
}

// setContent replaces the pane text. total is the number of lines ever
// appended; an unchanged total skips the redraw.
func (l *eventLog) setContent(content string, total uint64) {
	if total == l.total && total != 0 {
		return
	}
	l.total = total
	l.viewport.SetContent(content)
	if l.follow {
		l.viewport.GotoBottom()
	}
}

func (l *eventLog) pageUp() {
	l.viewport.PageUp()
	l.follow = l.viewport.AtBottom()
}

func (l *eventLog) pageDown() {
	l.viewport.PageDown()
	l.follow = l.viewport.AtBottom()
}

func (l *eventLog) followNewest() {
	l.follow = true
	l.viewport.GotoBottom()
}

// formatLogLine is the plain text of one log entry.
func formatLogLine(line logtail.Line) string {
	if line.At.IsZero() {
		return line.Text
	}
	return line.At.Format(logTimeFormat) + " " + line.Text
}

// renderLogContent styles every line by its class.
func (m Model) renderLogContent(lines []logtail.Line) string {
	styles := m.theme.Styles()
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		stamp := ""
		if !line.At.IsZero() {
			stamp = styles.FaintText.Render(line.At.Format(logTimeFormat)) + " "
		}
		out = append(out, stamp+styles.LogStyle(line.Class).Render(line.Text))
	}
	return strings.Join(out, "\n")
}

// renderLogPanel draws the event log with its border.
func (m Model) renderLogPanel(width int) string {
	styles := m.theme.Styles()
	title := styles.AccentText.Bold(true).Render("Events")
	if !m.logs.follow {
		title += styles.FaintText.Render("  (paused, ctrl+g to follow)")
	}
	return styles.Panel.Width(max(width-2, 10)).Render(title + "\n" + m.logs.viewport.View())
}
