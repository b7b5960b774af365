package tui

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Isabellarossi/edgedb/clipboard"
	"github.com/Isabellarossi/edgedb/highlight"
	"github.com/Isabellarossi/edgedb/service"
)

type analyticsSortMode int

const (
	analyticsSortCount analyticsSortMode = iota
	analyticsSortVariants
	analyticsSortTotalDuration
	analyticsSortP95Duration
)

func (s analyticsSortMode) String() string {
	switch s {
	case analyticsSortCount:
		return "count"
	case analyticsSortVariants:
		return "variants"
	case analyticsSortTotalDuration:
		return "total"
	case analyticsSortP95Duration:
		return "p95"
	}
	return "count"
}

func (s analyticsSortMode) next() analyticsSortMode {
	switch s {
	case analyticsSortCount:
		return analyticsSortVariants
	case analyticsSortVariants:
		return analyticsSortTotalDuration
	case analyticsSortTotalDuration:
		return analyticsSortP95Duration
	case analyticsSortP95Duration:
		return analyticsSortCount
	}
	return analyticsSortCount
}

// analyticsRow aggregates the events that share one cache key.
type analyticsRow struct {
	key           string
	count         int
	variants      int // distinct variable tuples seen for the key
	hot           bool
	totalDuration time.Duration
	avgDuration   time.Duration
	p95Duration   time.Duration
	maxDuration   time.Duration
}

// buildAnalyticsRows groups events by key in first-seen order. Failed
// normalizations have no key and are skipped.
func buildAnalyticsRows(events []service.Event) []analyticsRow {
	type agg struct {
		count     int
		hot       bool
		totalDur  time.Duration
		durations []time.Duration
		variants  map[string]struct{}
	}
	groups := make(map[string]*agg)
	var order []string

	for i := range events {
		ev := &events[i]
		if ev.Outcome == service.OutcomeError || ev.Key == "" {
			continue
		}
		g, ok := groups[ev.Key]
		if !ok {
			g = &agg{variants: make(map[string]struct{})}
			groups[ev.Key] = g
			order = append(order, ev.Key)
		}
		g.count++
		g.hot = g.hot || ev.Hot
		g.totalDur += ev.Duration
		g.durations = append(g.durations, ev.Duration)
		g.variants[strings.Join(ev.Variables, "\x00")] = struct{}{}
	}

	rows := make([]analyticsRow, 0, len(groups))
	for _, key := range order {
		g := groups[key]
		slices.SortFunc(g.durations, cmp.Compare)
		rows = append(rows, analyticsRow{
			key:           key,
			count:         g.count,
			variants:      len(g.variants),
			hot:           g.hot,
			totalDuration: g.totalDur,
			avgDuration:   g.totalDur / time.Duration(g.count),
			p95Duration:   percentile(g.durations, 0.95),
			maxDuration:   g.durations[len(g.durations)-1],
		})
	}
	return rows
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted)-1) * p)
	return sorted[idx]
}

func sortAnalyticsRows(rows []analyticsRow, mode analyticsSortMode) {
	sort.SliceStable(rows, func(i, j int) bool {
		switch mode {
		case analyticsSortCount:
			return rows[i].count > rows[j].count
		case analyticsSortVariants:
			return rows[i].variants > rows[j].variants
		case analyticsSortTotalDuration:
			return rows[i].totalDuration > rows[j].totalDuration
		case analyticsSortP95Duration:
			return rows[i].p95Duration > rows[j].p95Duration
		}
		return rows[i].count > rows[j].count
	})
}

func (m Model) openAnalytics() Model {
	m.view = viewAnalytics
	m.analyticsRows = buildAnalyticsRows(m.events)
	sortAnalyticsRows(m.analyticsRows, m.analyticsSortMode)
	m.analyticsCursor = 0
	return m
}

func (m Model) updateAnalytics(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m.quit()
	case "q", "esc":
		m.view = viewList
		m = m.rebuild()
		return m, nil
	case "j", "down":
		if len(m.analyticsRows) > 0 && m.analyticsCursor < len(m.analyticsRows)-1 {
			m.analyticsCursor++
		}
		return m, nil
	case "k", "up":
		if m.analyticsCursor > 0 {
			m.analyticsCursor--
		}
		return m, nil
	case "ctrl+d":
		half := m.analyticsVisibleRows() / 2
		m.analyticsCursor = min(m.analyticsCursor+half, max(len(m.analyticsRows)-1, 0))
		return m, nil
	case "ctrl+u":
		half := m.analyticsVisibleRows() / 2
		m.analyticsCursor = max(m.analyticsCursor-half, 0)
		return m, nil
	case "r":
		return m.openAnalytics(), nil
	case "s":
		m.analyticsSortMode = m.analyticsSortMode.next()
		sortAnalyticsRows(m.analyticsRows, m.analyticsSortMode)
		m.analyticsCursor = 0
		return m, nil
	case "c":
		if m.analyticsCursor >= 0 && m.analyticsCursor < len(m.analyticsRows) {
			if err := clipboard.Copy(context.Background(), m.analyticsRows[m.analyticsCursor].key); err != nil {
				return m.showAlert("copy failed: " + err.Error())
			}
			return m.showAlert("copied key")
		}
		return m, nil
	}
	return m, nil
}

const (
	analyticsColCount    = 7
	analyticsColVariants = 8
	analyticsColAvg      = 9
	analyticsColP95      = 9
	analyticsColTotal    = 9
)

func (m Model) analyticsVisibleRows() int {
	return max(m.height-4, 3) // -2 for top/bottom border, -1 for header, -1 for padding
}

func (m Model) renderAnalytics() string {
	innerWidth := max(m.width-4, 20)
	visibleRows := m.analyticsVisibleRows()

	title := fmt.Sprintf(" Keys (%d) [sort: %s] ", len(m.analyticsRows), m.analyticsSortMode)

	// 2 marker + 5 separators + 2 before key
	fixedWidth := 2 + analyticsColCount + analyticsColVariants + analyticsColAvg +
		analyticsColP95 + analyticsColTotal + 7
	colKey := max(innerWidth-fixedWidth, 10)

	header := fmt.Sprintf("  %*s %*s %*s %*s %*s  %s",
		analyticsColCount, "Count",
		analyticsColVariants, "Variants",
		analyticsColAvg, "Avg",
		analyticsColP95, "P95",
		analyticsColTotal, "Total",
		"Key",
	)

	dataRows := max(visibleRows-1, 1)

	start := 0
	if len(m.analyticsRows) > dataRows {
		start = max(m.analyticsCursor-dataRows/2, 0)
		if start+dataRows > len(m.analyticsRows) {
			start = len(m.analyticsRows) - dataRows
		}
	}
	end := min(start+dataRows, len(m.analyticsRows))

	var rows []string
	rows = append(rows, lipgloss.NewStyle().Bold(true).Render(header))
	for i := start; i < end; i++ {
		r := m.analyticsRows[i]
		marker := "  "
		if i == m.analyticsCursor {
			marker = "▶ "
		}

		count := padLeft(fmt.Sprintf("%d", r.count), analyticsColCount)
		if r.hot {
			count = padLeft(hotStyle.Render(fmt.Sprintf("%d", r.count)), analyticsColCount)
		}

		row := fmt.Sprintf("%s%s %*d %*s %*s %*s  %s",
			marker,
			count,
			analyticsColVariants, r.variants,
			analyticsColAvg, formatDurationValue(r.avgDuration),
			analyticsColP95, formatDurationValue(r.p95Duration),
			analyticsColTotal, formatDurationValue(r.totalDuration),
			highlight.Key(truncate(r.key, colKey)),
		)
		rows = append(rows, row)
	}

	content := strings.Join(rows, "\n")

	return framed(content, innerWidth, title, " q: back  j/k: scroll  s: sort  r: refresh  c: copy key ")
}

// framed draws a rounded border with title in the top edge and help in the
// bottom edge.
func framed(content string, innerWidth int, title, help string) string {
	borderColor := lipgloss.Color("240")
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Width(innerWidth).
		BorderForeground(borderColor).
		Render(content)

	borderFg := lipgloss.NewStyle().Foreground(borderColor)
	boxLines := strings.Split(box, "\n")
	if len(boxLines) > 0 && title != "" {
		dashes := max(innerWidth-len([]rune(title)), 0)
		boxLines[0] = borderFg.Render("╭") +
			lipgloss.NewStyle().Bold(true).Render(title) +
			borderFg.Render(strings.Repeat("─", dashes)+"╮")
	}
	if n := len(boxLines); n > 1 && help != "" {
		dashes := max(innerWidth-len([]rune(help)), 0)
		boxLines[n-1] = borderFg.Render("╰") +
			lipgloss.NewStyle().Faint(true).Render(help) +
			borderFg.Render(strings.Repeat("─", dashes)+"╯")
	}
	return strings.Join(boxLines, "\n")
}
