package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/spoolwatch/internal/spooler"
	"github.com/five82/spoolwatch/internal/state"
)

// Printer panel and queue texts.
const (
	textDisconnected = "Printer disconnected"
	textPrinting     = "Printing"
	textReady        = "Ready"
	textNothing      = "Nothing in progress"
	textQueueEmpty   = "Queue is empty"
	textWaiting      = "Waiting for server..."
)

// statusView is the printer panel content for one snapshot.
type statusView struct {
	Indicator state.ConnectionStatus
	Text      string
	Current   string
}

// renderStatusLine derives the printer panel from a snapshot. An unavailable
// printer is offline whatever printer_status and current_task say.
func renderStatusLine(sys spooler.SystemState) statusView {
	switch {
	case !sys.PrinterAvailable:
		return statusView{Indicator: state.StatusOffline, Text: textDisconnected}
	case sys.IsPrinting():
		task := sys.CurrentTask
		return statusView{
			Indicator: state.StatusPrinting,
			Text:      textPrinting,
			Current:   fmt.Sprintf("%s (%d pages) - %s", task.Name, task.Pages, task.User),
		}
	default:
		return statusView{Indicator: state.StatusOnline, Text: textReady, Current: textNothing}
	}
}

// queueRow is one task as displayed, in received order.
type queueRow struct {
	Name     string
	Priority string
	User     string
	Pages    string
}

// queueView is the queue region content for one snapshot.
type queueView struct {
	Count string
	Empty string // set when there are no rows
	Rows  []queueRow
}

func renderQueue(sys spooler.SystemState) queueView {
	view := queueView{Count: strconv.Itoa(sys.QueueLength)}
	if len(sys.QueueTasks) == 0 {
		view.Empty = textQueueEmpty
		return view
	}
	view.Rows = make([]queueRow, 0, len(sys.QueueTasks))
	for _, task := range sys.QueueTasks {
		view.Rows = append(view.Rows, queueRow{
			Name:     task.Name,
			Priority: strconv.Itoa(task.Priority),
			User:     task.User,
			Pages:    strconv.Itoa(task.Pages),
		})
	}
	return view
}

// renderPrinterPanel draws the status region.
func (m Model) renderPrinterPanel(width int) string {
	styles := m.theme.Styles()
	panel := styles.Panel.Width(max(width-2, 10))

	if !m.snapshot.HasState {
		return panel.Render(styles.MutedText.Render(textWaiting))
	}
	view := renderStatusLine(m.snapshot.System)

	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render("Printer"))
	b.WriteString("\n")
	badge := styles.StatusStyle(view.Indicator.String()).Render(strings.ToUpper(view.Indicator.String()))
	b.WriteString(badge + " " + styles.Text.Render(view.Text))
	if view.Current != "" {
		b.WriteString("\n")
		b.WriteString(styles.MutedText.Render(truncate(view.Current, width-6)))
	}
	return panel.Render(b.String())
}

// renderQueuePanel draws the queue count and listing.
func (m Model) renderQueuePanel(width, height int) string {
	styles := m.theme.Styles()
	inner := max(width-4, 10)
	panel := styles.Panel.Width(max(width-2, 10))

	view := renderQueue(m.snapshot.System)

	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render("Queue"))
	b.WriteString(styles.MutedText.Render(" (" + view.Count + ")"))
	b.WriteString("\n")

	if view.Empty != "" {
		b.WriteString(styles.FaintText.Italic(true).Render(view.Empty))
		return panel.Render(b.String())
	}

	compact := m.width < LayoutCompactWidth
	rows := view.Rows
	perRow := 2
	if compact {
		perRow = 1
	}
	limit := (height - 3) / perRow
	hidden := 0
	if limit > 0 && len(rows) > limit {
		hidden = len(rows) - limit + 1
		rows = rows[:limit-1]
	}
	for i, row := range rows {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderQueueRow(row, inner, compact))
	}
	if hidden > 0 {
		b.WriteString("\n")
		b.WriteString(styles.FaintText.Render(fmt.Sprintf("… %d more", hidden)))
	}
	return panel.Render(b.String())
}

func (m Model) renderQueueRow(row queueRow, width int, compact bool) string {
	styles := m.theme.Styles()
	if compact {
		detail := fmt.Sprintf(" P%s %s/%sp", row.Priority, row.User, row.Pages)
		nameWidth := max(width-lipgloss.Width(detail), 4)
		return styles.Text.Render(padRight(truncate(row.Name, nameWidth), nameWidth)) +
			styles.MutedText.Render(detail)
	}
	priority := "Priority: " + row.Priority
	nameWidth := max(width-lipgloss.Width(priority)-1, 4)
	header := styles.Text.Bold(true).Render(padRight(truncate(row.Name, nameWidth), nameWidth)) +
		" " + styles.WarningText.Render(priority)
	details := styles.MutedText.Render(fmt.Sprintf("User: %s | Pages: %s", row.User, row.Pages))
	return header + "\n" + details
}

// RenderPlain renders a snapshot as uncolored text for one-shot output.
func RenderPlain(sys spooler.SystemState) string {
	status := renderStatusLine(sys)
	queue := renderQueue(sys)

	var b strings.Builder
	fmt.Fprintf(&b, "Status:  %s (%s)\n", status.Text, status.Indicator)
	if status.Current != "" {
		fmt.Fprintf(&b, "Current: %s\n", status.Current)
	}
	fmt.Fprintf(&b, "Queue:   %s\n", queue.Count)
	if queue.Empty != "" {
		fmt.Fprintf(&b, "  %s\n", queue.Empty)
		return b.String()
	}
	for _, row := range queue.Rows {
		fmt.Fprintf(&b, "  %s  Priority: %s  User: %s | Pages: %s\n", row.Name, row.Priority, row.User, row.Pages)
	}
	return b.String()
}
