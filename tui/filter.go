package tui

import (
	"regexp"
	"strings"
	"time"

	"github.com/Isabellarossi/edgedb/service"
)

type filterKind int

const (
	filterText     filterKind = iota // plain text substring match on query or key
	filterDuration                   // d>100us, d<10us
	filterError                      // "error" keyword
	filterHot                        // "hot" keyword
	filterOutcome                    // is:extracted, is:fallback, is:skipped
	filterType                       // type:str, type:int64
)

type durationOp int

const (
	durGT durationOp = iota // >
	durLT                   // <
)

type filterCondition struct {
	kind filterKind

	// filterText
	text string

	// filterDuration
	durOp    durationOp
	durValue time.Duration

	// filterOutcome and filterType
	pattern string
}

var reDuration = regexp.MustCompile(`^d([><])(\d+(?:\.\d+)?)(ns|us|µs|ms|s)$`)

func parseFilter(input string) []filterCondition {
	tokens := strings.Fields(input)
	conds := make([]filterCondition, 0, len(tokens))

	for _, tok := range tokens {
		if c, ok := parseDuration(tok); ok {
			conds = append(conds, c)
			continue
		}
		switch strings.ToLower(tok) {
		case "error":
			conds = append(conds, filterCondition{kind: filterError})
			continue
		case "hot":
			conds = append(conds, filterCondition{kind: filterHot})
			continue
		}
		if c, ok := parsePrefixed(tok, "is:", filterOutcome); ok {
			conds = append(conds, c)
			continue
		}
		if c, ok := parsePrefixed(tok, "type:", filterType); ok {
			conds = append(conds, c)
			continue
		}
		// Fallback: plain text match.
		conds = append(conds, filterCondition{
			kind: filterText,
			text: strings.ToLower(tok),
		})
	}
	return conds
}

func parseDuration(tok string) (filterCondition, bool) {
	m := reDuration.FindStringSubmatch(tok)
	if m == nil {
		return filterCondition{}, false
	}
	op := durGT
	if m[1] == "<" {
		op = durLT
	}
	unit := m[3]
	if unit == "µs" {
		unit = "us"
	}
	d, err := time.ParseDuration(m[2] + unit)
	if err != nil {
		return filterCondition{}, false
	}
	return filterCondition{
		kind:     filterDuration,
		durOp:    op,
		durValue: d,
	}, true
}

func parsePrefixed(tok, prefix string, kind filterKind) (filterCondition, bool) {
	lower := strings.ToLower(tok)
	pattern, ok := strings.CutPrefix(lower, prefix)
	if !ok || pattern == "" {
		return filterCondition{}, false
	}
	return filterCondition{kind: kind, pattern: pattern}, true
}

func (c filterCondition) matchesEvent(ev *service.Event) bool {
	switch c.kind {
	case filterText:
		return strings.Contains(strings.ToLower(ev.Query), c.text) ||
			strings.Contains(strings.ToLower(ev.Key), c.text)
	case filterDuration:
		switch c.durOp {
		case durGT:
			return ev.Duration > c.durValue
		case durLT:
			return ev.Duration < c.durValue
		}
	case filterError:
		return ev.Error != ""
	case filterHot:
		return ev.Hot
	case filterOutcome:
		if c.pattern == "skipped" {
			return ev.Skipped != ""
		}
		return ev.Outcome.String() == c.pattern
	case filterType:
		for _, t := range ev.Types {
			if strings.HasSuffix(t, "::"+c.pattern) {
				return true
			}
		}
		return false
	}
	return false
}

func matchAllConditions(ev *service.Event, conds []filterCondition) bool {
	for _, c := range conds {
		if !c.matchesEvent(ev) {
			return false
		}
	}
	return true
}

// matchingEvents returns the indices of events that satisfy the filter.
func matchingEvents(events []service.Event, filter string) []int {
	conds := parseFilter(filter)
	rows := make([]int, 0, len(events))
	for i := range events {
		if matchAllConditions(&events[i], conds) {
			rows = append(rows, i)
		}
	}
	return rows
}

func describeFilter(input string) string {
	conds := parseFilter(input)
	if len(conds) == 0 {
		return input
	}
	var parts []string
	for _, c := range conds {
		switch c.kind {
		case filterText:
			parts = append(parts, "text:"+c.text)
		case filterDuration:
			op := ">"
			if c.durOp == durLT {
				op = "<"
			}
			parts = append(parts, "d"+op+c.durValue.String())
		case filterError:
			parts = append(parts, "error")
		case filterHot:
			parts = append(parts, "hot")
		case filterOutcome:
			parts = append(parts, "is:"+c.pattern)
		case filterType:
			parts = append(parts, "type:"+c.pattern)
		}
	}
	return strings.Join(parts, " ")
}

// wrapFooterItems arranges items into lines that fit within the given width.
// Each line starts with "  " and items are separated by "  ".
func wrapFooterItems(items []string, width int) string {
	if width <= 0 {
		return "  " + strings.Join(items, "  ")
	}

	const prefix = "  "
	const sep = "  "

	var lines []string
	line := prefix

	for _, item := range items {
		switch {
		case line == prefix:
			line += item
		case len(line)+len(sep)+len(item) <= width:
			line += sep + item
		default:
			lines = append(lines, line)
			line = prefix + item
		}
	}
	if line != prefix {
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
