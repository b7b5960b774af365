package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Isabellarossi/edgedb/highlight"
	"github.com/Isabellarossi/edgedb/service"
)

var (
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hotStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true)
	skippedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	extractedTint = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
)

func eventStatus(ev *service.Event) string {
	switch {
	case ev.Error != "":
		return errorStyle.Render("E")
	case ev.Hot:
		return hotStyle.Render("HOT")
	case ev.Skipped != "":
		return skippedStyle.Render("SKIP")
	}
	return ""
}

func outcomeLabel(ev *service.Event) string {
	switch ev.Outcome {
	case service.OutcomeExtracted:
		return extractedTint.Render(ev.Outcome.String())
	case service.OutcomeError:
		return errorStyle.Render(ev.Outcome.String())
	case service.OutcomeFallback:
	}
	return ev.Outcome.String()
}

// Column widths.
const (
	colMarker   = 2 // "▶ "
	colOutcome  = 9
	colVars     = 4
	colDuration = 8
	colTime     = 12
	colStatus   = 4
)

func (m Model) renderList(maxRows int) string {
	innerWidth := max(m.width-4, 20)
	colKey := max(innerWidth-colMarker-colOutcome-colVars-colDuration-colTime-colStatus-5, 10)

	var title string
	if m.filterQuery != "" {
		title = fmt.Sprintf(" edgeql-norm (%d/%d queries) ", len(m.displayRows), len(m.events))
	} else {
		title = fmt.Sprintf(" edgeql-norm (%d queries) ", len(m.events))
	}

	dataRows := max(maxRows-1, 1) // -1 for header row

	start := 0
	if len(m.displayRows) > dataRows {
		start = max(m.cursor-dataRows/2, 0)
		if start+dataRows > len(m.displayRows) {
			start = len(m.displayRows) - dataRows
		}
	}
	end := min(start+dataRows, len(m.displayRows))

	header := fmt.Sprintf("  %-*s %-*s %*s %*s %*s %-*s",
		colOutcome, "Outcome",
		colKey, "Key",
		colVars, "Vars",
		colDuration, "Took",
		colTime, "Time",
		colStatus, "",
	)

	var rows []string
	rows = append(rows, lipgloss.NewStyle().Bold(true).Render(header))
	for i := start; i < end; i++ {
		rows = append(rows, m.renderEventRow(m.displayRows[i], i == m.cursor, colKey))
	}

	return framed(strings.Join(rows, "\n"), innerWidth, title, "")
}

func (m Model) renderEventRow(idx int, isCursor bool, colKey int) string {
	ev := &m.events[idx]
	marker := "  "
	if isCursor {
		marker = "▶ "
	}

	text := ev.Key
	if text == "" {
		text = ev.Query
	}
	k := truncate(text, colKey)
	if k == "" {
		k = "-"
	}

	vars := "-"
	if len(ev.Variables) > 0 {
		vars = fmt.Sprintf("%d", len(ev.Variables))
	}

	row := marker +
		padRight(outcomeLabel(ev), colOutcome) + " " +
		padRight(k, colKey) + " " +
		padLeft(vars, colVars) + " " +
		padLeft(formatDurationValue(ev.Duration), colDuration) + " " +
		padLeft(formatTime(ev.StartTime), colTime) + " " +
		eventStatus(ev)
	if isCursor {
		row = lipgloss.NewStyle().Bold(true).Render(row)
	}
	return row
}

func (m Model) renderPreview() string {
	innerWidth := max(m.width-4, 20)

	ev := m.cursorEvent()
	if ev == nil {
		return ""
	}

	maxLen := max(innerWidth-10, 20) // 10 = len("Query:    ")

	var lines []string
	lines = append(lines, "Query:    "+highlight.Query(truncate(ev.Query, maxLen)))
	if ev.Key != "" {
		lines = append(lines, "Key:      "+highlight.Key(truncate(ev.Key, maxLen)))
	}
	if len(ev.Variables) > 0 {
		lines = append(lines, "Vars:     "+truncate(strings.Join(ev.Variables, ", "), maxLen))
	}
	if ev.Skipped != "" {
		lines = append(lines, "Skipped:  "+ev.Skipped)
	}
	if ev.Error != "" {
		lines = append(lines, "Error:    "+errorStyle.Render(truncate(ev.Error, maxLen)))
	}

	return framed(strings.Join(lines, "\n"), innerWidth, "", "")
}
