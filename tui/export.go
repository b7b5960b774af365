package tui

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Isabellarossi/edgedb/service"
)

type exportFormat int

const (
	exportJSON exportFormat = iota
	exportMarkdown
)

func (f exportFormat) ext() string {
	if f == exportMarkdown {
		return "md"
	}
	return "json"
}

type exportKeyRow struct {
	Key      string  `json:"key"`
	Count    int     `json:"count"`
	Variants int     `json:"variants"`
	Hot      bool    `json:"hot"`
	TotalMs  float64 `json:"total_ms"`
	AvgMs    float64 `json:"avg_ms"`
	P95Ms    float64 `json:"p95_ms"`
	MaxMs    float64 `json:"max_ms"`
}

type exportQuery struct {
	Time       string   `json:"time"`
	Outcome    string   `json:"outcome"`
	Query      string   `json:"query"`
	Key        string   `json:"key"`
	Variables  []string `json:"variables"`
	Types      []string `json:"types"`
	Skipped    string   `json:"skipped,omitempty"`
	DurationMs float64  `json:"duration_ms"`
	Error      string   `json:"error"`
}

type exportData struct {
	Captured int    `json:"captured"`
	Exported int    `json:"exported"`
	Filter   string `json:"filter"`
	Period   struct {
		Start string `json:"start"`
		End   string `json:"end"`
	} `json:"period"`
	Queries []exportQuery  `json:"queries"`
	Keys    []exportKeyRow `json:"keys"`
}

func durationMs(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func buildExportData(allEvents []service.Event, filterQuery string) exportData {
	idx := matchingEvents(allEvents, filterQuery)
	exported := make([]service.Event, 0, len(idx))
	for _, i := range idx {
		exported = append(exported, allEvents[i])
	}

	var d exportData
	d.Captured = len(allEvents)
	d.Exported = len(exported)
	d.Filter = filterQuery

	if len(exported) > 0 {
		d.Period.Start = formatTimeFull(exported[0].StartTime)
		d.Period.End = formatTimeFull(exported[len(exported)-1].StartTime)
	}

	d.Queries = make([]exportQuery, 0, len(exported))
	for i := range exported {
		ev := &exported[i]
		d.Queries = append(d.Queries, exportQuery{
			Time:       formatTime(ev.StartTime),
			Outcome:    ev.Outcome.String(),
			Query:      ev.Query,
			Key:        ev.Key,
			Variables:  nonNil(ev.Variables),
			Types:      nonNil(ev.Types),
			Skipped:    ev.Skipped,
			DurationMs: durationMs(ev.Duration),
			Error:      ev.Error,
		})
	}

	rows := buildAnalyticsRows(exported)
	d.Keys = make([]exportKeyRow, 0, len(rows))
	for _, r := range rows {
		d.Keys = append(d.Keys, exportKeyRow{
			Key:      r.key,
			Count:    r.count,
			Variants: r.variants,
			Hot:      r.hot,
			TotalMs:  durationMs(r.totalDuration),
			AvgMs:    durationMs(r.avgDuration),
			P95Ms:    durationMs(r.p95Duration),
			MaxMs:    durationMs(r.maxDuration),
		})
	}
	return d
}

func renderJSON(allEvents []service.Event, filterQuery string) (string, error) {
	d := buildExportData(allEvents, filterQuery)
	b, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal export: %w", err)
	}
	return string(b) + "\n", nil
}

func renderMarkdown(allEvents []service.Event, filterQuery string) string {
	d := buildExportData(allEvents, filterQuery)

	var sb strings.Builder
	sb.WriteString("# edgeql-norm export\n\n")

	fmt.Fprintf(&sb, "- Captured: %d queries\n", d.Captured)
	exportLine := fmt.Sprintf("- Exported: %d queries", d.Exported)
	if d.Filter != "" {
		exportLine += " (filter: " + d.Filter + ")"
	}
	sb.WriteString(exportLine + "\n")
	if d.Period.Start != "" {
		fmt.Fprintf(&sb, "- Period: %s to %s\n", d.Period.Start, d.Period.End)
	}

	sb.WriteString("\n## Queries\n\n")
	sb.WriteString("| # | Time | Outcome | Duration | Key | Variables | Error |\n")
	sb.WriteString("|---|------|---------|----------|-----|-----------|-------|\n")
	for i, q := range d.Queries {
		key := q.Key
		if key == "" {
			key = q.Query
		}
		fmt.Fprintf(&sb, "| %d | %s | %s | %s | `%s` | %s | %s |\n",
			i+1, q.Time, q.Outcome,
			formatDurationMs(q.DurationMs),
			escapeMarkdownPipe(key),
			escapeMarkdownPipe(strings.Join(q.Variables, ", ")),
			escapeMarkdownPipe(q.Error),
		)
	}

	if len(d.Keys) > 0 {
		sb.WriteString("\n## Keys\n\n")
		sb.WriteString("| Key | Count | Variants | Avg | P95 | Max | Total |\n")
		sb.WriteString("|-----|-------|----------|-----|-----|-----|-------|\n")
		for _, k := range d.Keys {
			fmt.Fprintf(&sb, "| `%s` | %d | %d | %s | %s | %s | %s |\n",
				escapeMarkdownPipe(k.Key),
				k.Count,
				k.Variants,
				formatDurationMs(k.AvgMs),
				formatDurationMs(k.P95Ms),
				formatDurationMs(k.MaxMs),
				formatDurationMs(k.TotalMs),
			)
		}
	}

	return sb.String()
}

func formatDurationMs(ms float64) string {
	switch {
	case ms < 1:
		return fmt.Sprintf("%.0fµs", ms*1000)
	case ms < 1000:
		return fmt.Sprintf("%.1fms", ms)
	default:
		return fmt.Sprintf("%.2fs", ms/1000)
	}
}

func escapeMarkdownPipe(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", "\\|")
}

// writeExport writes filtered events to a file and returns the path.
// dir specifies the output directory; if empty, the current directory is used.
func writeExport(
	allEvents []service.Event,
	filterQuery string,
	format exportFormat,
	dir string,
) (string, error) {
	var content string
	var err error

	switch format {
	case exportJSON:
		content, err = renderJSON(allEvents, filterQuery)
		if err != nil {
			return "", err
		}
	case exportMarkdown:
		content = renderMarkdown(allEvents, filterQuery)
	}

	filename := fmt.Sprintf("edgeql-norm-%s.%s",
		time.Now().Format("20060102-150405"), format.ext())
	if dir != "" {
		filename = filepath.Join(dir, filename)
	}

	if err := os.WriteFile(filename, []byte(content), 0o600); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return filename, nil
}
