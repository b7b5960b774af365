package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Isabellarossi/edgedb/clipboard"
	"github.com/Isabellarossi/edgedb/highlight"
)

func (m Model) updateInspect(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m.quit()
	case "q", "esc":
		m.view = viewList
		m = m.rebuild()
		return m, nil
	case "c":
		return m.copyKey()
	case "C":
		return m.copyBound()
	case "e":
		return m.startEdit()
	case "j", "down":
		maxScroll := max(len(m.inspectLines())-m.inspectVisibleRows(), 0)
		if m.inspectScroll < maxScroll {
			m.inspectScroll++
		}
		return m, nil
	case "k", "up":
		if m.inspectScroll > 0 {
			m.inspectScroll--
		}
		return m, nil
	}
	return m, nil
}

func (m Model) inspectVisibleRows() int {
	return max(m.height-2, 3) // -2 for top/bottom border
}

func (m Model) renderInspector() string {
	innerWidth := max(m.width-4, 20)
	visibleRows := m.inspectVisibleRows()

	lines := m.inspectLines()
	if lines == nil {
		return ""
	}

	// clamp scroll
	maxScroll := max(len(lines)-visibleRows, 0)
	scroll := min(m.inspectScroll, maxScroll)

	end := min(scroll+visibleRows, len(lines))
	content := strings.Join(lines[scroll:end], "\n")

	return framed(content, innerWidth, " Inspector ",
		" q: back  j/k: scroll  c: copy key  C: copy bound query  e: edit+normalize ")
}

func (m Model) inspectLines() []string {
	ev := m.cursorEvent()
	if ev == nil {
		return nil
	}

	var lines []string
	lines = append(lines, "Outcome:     "+outcomeLabel(ev))
	if ev.Skipped != "" {
		lines = append(lines, "Skipped:     "+ev.Skipped)
	}
	if ev.Hot {
		lines = append(lines, "Hot:         "+hotStyle.Render("yes"))
	}

	lines = append(lines, "Query:")
	for l := range strings.SplitSeq(ev.Query, "\n") {
		lines = append(lines, "  "+highlight.Query(l))
	}

	if ev.Key != "" {
		lines = append(lines, "Key:")
		lines = append(lines, "  "+highlight.Key(ev.Key))
		lines = append(lines, fmt.Sprintf("Fingerprint: %016x", ev.Fingerprint))
	}

	scheme := "positional"
	if ev.NamedArgs {
		scheme = "named"
	}
	lines = append(lines, "Params:      "+scheme)

	if names := paramNames(ev); len(names) > 0 {
		lines = append(lines, "Variables:")
		for i, name := range names {
			typ := ""
			if i < len(ev.Types) {
				typ = ev.Types[i]
			}
			lines = append(lines, fmt.Sprintf("  %-14s %-18s %s", name, typ, ev.Variables[i]))
		}
		if bound, err := boundQuery(ev); err == nil {
			lines = append(lines, "Bound:")
			lines = append(lines, "  "+highlight.Query(bound))
		}
	}

	lines = append(lines, "Took:        "+formatDurationValue(ev.Duration))
	lines = append(lines, "Time:        "+formatTimeFull(ev.StartTime))
	lines = append(lines, "ID:          "+ev.ID)

	if ev.Error != "" {
		lines = append(lines, "Error:       "+errorStyle.Render(ev.Error))
		if ev.ErrorKind != "" {
			lines = append(lines, "Error kind:  "+ev.ErrorKind)
		}
	}

	return lines
}

func (m Model) copyKey() (tea.Model, tea.Cmd) {
	ev := m.cursorEvent()
	if ev == nil || ev.Key == "" {
		return m, nil
	}
	if err := clipboard.Copy(context.Background(), ev.Key); err != nil {
		return m.showAlert("copy failed: " + err.Error())
	}
	return m.showAlert("copied key")
}

func (m Model) copyBound() (tea.Model, tea.Cmd) {
	ev := m.cursorEvent()
	if ev == nil || ev.Query == "" {
		return m, nil
	}
	bound, err := boundQuery(ev)
	if err != nil {
		return m.showAlert("bind failed: " + err.Error())
	}
	if err := clipboard.Copy(context.Background(), bound); err != nil {
		return m.showAlert("copy failed: " + err.Error())
	}
	return m.showAlert("copied bound query")
}
