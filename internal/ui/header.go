package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/spoolwatch/internal/push"
)

// renderHeader renders the top status bar.
func (m Model) renderHeader() string {
	// Header uses Surface background
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	if !m.snapshot.HasState {
		return m.renderConnectingHeader(styles, bg)
	}

	status := m.snapshot.ConnectionStatus().String()
	parts := []string{
		bg.Render("spoolwatch", styles.Logo),
		styles.StatusStyle(status).Render(strings.ToUpper(status)),
		bg.Render("push", styles.FaintText) + bg.Space() +
			bg.Render(m.snapshot.Channel.String(), channelStyle(styles, m.snapshot.Channel)),
	}
	if warn := m.formatPollWarning(styles, bg); warn != "" {
		parts = append(parts, warn)
	}
	if user := m.snapshot.Session.Username; user != "" {
		parts = append(parts, bg.Render("user", styles.FaintText)+bg.Space()+bg.Render(user, styles.AccentText))
	}
	if ts := m.formatTimestamp(); ts != "" && m.width >= LayoutCompactWidth {
		parts = append(parts, bg.Render(ts, styles.MutedText))
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
}

func (m Model) renderConnectingHeader(styles Styles, bg BgStyle) string {
	if m.snapshot.LastError != nil {
		last := "soon"
		if !m.snapshot.LastUpdated.IsZero() {
			last = m.snapshot.LastUpdated.Format(logTimeFormat)
		}
		parts := []string{
			bg.Render("spoolwatch", styles.Logo),
			bg.Render("SERVER "+classifyConnectionError(m.snapshot.LastError), styles.DangerText.Bold(true)),
			bg.Render("Retrying...", styles.WarningText.Bold(true)),
			bg.Render(last, styles.MutedText),
		}
		if m.logPath != "" {
			parts = append(parts,
				bg.Render("logs", styles.FaintText)+bg.Space()+
					bg.Render(truncatePath(m.logPath, 50), styles.MutedText))
		}
		return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
	}

	return styles.Header.Width(m.width).Render(
		bg.Render("spoolwatch", styles.Logo) + bg.Spaces(2) +
			bg.Render("Connecting to "+m.serverLabel+"...", styles.WarningText.Bold(true)),
	)
}

func channelStyle(styles Styles, ch push.State) lipgloss.Style {
	switch ch {
	case push.Open:
		return styles.SuccessText
	case push.Connecting:
		return styles.WarningText
	case push.Errored:
		return styles.DangerText
	default:
		return styles.MutedText
	}
}

// formatTimestamp formats the time of the last applied snapshot.
func (m Model) formatTimestamp() string {
	updated := m.snapshot.LastUpdated
	if updated.IsZero() {
		return ""
	}

	timeSince := time.Since(updated)
	timeStr := updated.Format(logTimeFormat)

	if timeSince < time.Minute {
		timeStr += " (now)"
	} else if timeSince < time.Hour {
		timeStr += fmt.Sprintf(" (%dm ago)", int(timeSince.Minutes()))
	} else if timeSince < 24*time.Hour {
		timeStr += fmt.Sprintf(" (%dh ago)", int(timeSince.Hours()))
	}

	return timeStr
}

// formatPollWarning reports repeated poll failures while old data is shown.
func (m Model) formatPollWarning(styles Styles, bg BgStyle) string {
	if m.snapshot.LastError == nil || m.snapshot.ConsecutiveFailures == 0 {
		return ""
	}
	label := classifyConnectionError(m.snapshot.LastError)
	if m.snapshot.ConsecutiveFailures > 1 {
		label = fmt.Sprintf("%s x%d", label, m.snapshot.ConsecutiveFailures)
	}
	return bg.Render("POLL", styles.DangerText.Bold(true)) + bg.Space() +
		bg.Render(label, styles.DangerText)
}

// classifyConnectionError returns a short description of the connection error.
func classifyConnectionError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "OFFLINE"
	case strings.Contains(msg, "no such host"):
		return "HOST NOT FOUND"
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return "TIMEOUT"
	default:
		return "ERROR"
	}
}

// renderCommandBar renders the key hints and the log line count.
func (m Model) renderCommandBar() string {
	// Command bar uses Surface background
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	hints := m.renderShortHelp()
	var right string
	if total := m.snapshot.LogTotal; total > 0 {
		right = bg.Render(fmt.Sprintf("%d events", total), styles.FaintText)
	}
	gap := m.width - lipgloss.Width(hints) - lipgloss.Width(right) - 2
	if gap < 1 {
		return styles.Footer.Width(m.width).Render(hints)
	}
	return styles.Footer.Width(m.width).Render(hints + bg.Spaces(gap) + right)
}
