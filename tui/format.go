package tui

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/Isabellarossi/edgedb/normalize"
	"github.com/Isabellarossi/edgedb/query"
	"github.com/Isabellarossi/edgedb/service"
)

func formatTimeFull(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(time.Local).Format("15:04:05") //nolint:gosmopolitan // TUI displays local time
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(time.Local).Format("15:04:05.000") //nolint:gosmopolitan // TUI displays local time
}

func padRight(s string, width int) string {
	w := lipgloss.Width(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

func padLeft(s string, width int) string {
	w := lipgloss.Width(s)
	if w >= width {
		return s
	}
	return strings.Repeat(" ", width-w) + s
}

var reSpaces = regexp.MustCompile(`\s+`)

// truncate collapses whitespace and cuts s to maxLen terminal cells.
func truncate(s string, maxLen int) string {
	s = strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
	if maxLen <= 0 {
		return ""
	}
	return ansi.Truncate(s, maxLen, "…")
}

func formatDurationValue(dur time.Duration) string {
	switch {
	case dur < time.Millisecond:
		return fmt.Sprintf("%.0fµs", float64(dur.Nanoseconds())/1000)
	case dur < time.Second:
		ms := float64(dur.Microseconds()) / 1000
		return fmt.Sprintf("%.1fms", ms)
	}
	return fmt.Sprintf("%.2fs", dur.Seconds())
}

// renderInputWithCursor renders a text input with a block cursor at the given rune position.
func renderInputWithCursor(text string, cursorPos int) string {
	runes := []rune(text)
	if cursorPos >= len(runes) {
		return text + "█"
	}
	return string(runes[:cursorPos]) + "█" + string(runes[cursorPos:])
}

// paramNames returns the synthesized parameter name of every variable.
func paramNames(ev *service.Event) []string {
	if ev.FirstArg < 0 {
		return nil
	}
	first := ev.FirstArg
	e := normalize.Entry{NamedArgs: ev.NamedArgs, FirstArg: &first}
	names := make([]string, len(ev.Variables))
	for i := range names {
		names[i] = e.ParamName(i)
	}
	return names
}

// boundQuery renders the event's key with every parameter replaced by its
// literal value.
func boundQuery(ev *service.Event) (string, error) {
	e, err := normalize.Normalize(ev.Query)
	if err != nil {
		return "", err //nolint:wrapcheck
	}
	return query.Bind(e), nil
}

func friendlyError(err error, width int) string {
	msg := err.Error()

	var text string
	switch {
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "Unavailable"):
		text = "Could not connect to edgeql-normd.\n" +
			"Is edgeql-normd running?\n\n" +
			"Error: " + msg
	}
	if text == "" {
		text = "Error: " + msg
	}

	return lipgloss.NewStyle().Width(width).Render(text)
}
