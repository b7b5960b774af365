package tui //nolint:testpackage // testing internal filter parsing logic

import (
	"testing"
	"time"

	"github.com/Isabellarossi/edgedb/normalize"
	"github.com/Isabellarossi/edgedb/query"
	"github.com/Isabellarossi/edgedb/service"
)

func TestParseFilter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  []filterCondition
	}{
		{
			name:  "empty",
			input: "",
			want:  nil,
		},
		{
			name:  "plain text",
			input: "User",
			want: []filterCondition{
				{kind: filterText, text: "user"},
			},
		},
		{
			name:  "duration greater than us",
			input: "d>100us",
			want: []filterCondition{
				{kind: filterDuration, durOp: durGT, durValue: 100 * time.Microsecond},
			},
		},
		{
			name:  "duration less than micro sign",
			input: "d<500µs",
			want: []filterCondition{
				{kind: filterDuration, durOp: durLT, durValue: 500 * time.Microsecond},
			},
		},
		{
			name:  "duration greater than ms",
			input: "d>1.5ms",
			want: []filterCondition{
				{kind: filterDuration, durOp: durGT, durValue: 1500 * time.Microsecond},
			},
		},
		{
			name:  "error keyword case insensitive",
			input: "Error",
			want: []filterCondition{
				{kind: filterError},
			},
		},
		{
			name:  "hot keyword",
			input: "hot",
			want: []filterCondition{
				{kind: filterHot},
			},
		},
		{
			name:  "outcome",
			input: "is:fallback",
			want: []filterCondition{
				{kind: filterOutcome, pattern: "fallback"},
			},
		},
		{
			name:  "type",
			input: "type:STR",
			want: []filterCondition{
				{kind: filterType, pattern: "str"},
			},
		},
		{
			name:  "empty prefix falls back to text",
			input: "is:",
			want: []filterCondition{
				{kind: filterText, text: "is:"},
			},
		},
		{
			name:  "combined filter",
			input: "is:extracted d>100us FILTER",
			want: []filterCondition{
				{kind: filterOutcome, pattern: "extracted"},
				{kind: filterDuration, durOp: durGT, durValue: 100 * time.Microsecond},
				{kind: filterText, text: "filter"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := parseFilter(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("parseFilter(%q) returned %d conditions, want %d", tt.input, len(got), len(tt.want))
			}
			for i, g := range got {
				w := tt.want[i]
				if g.kind != w.kind {
					t.Errorf("cond[%d].kind = %d, want %d", i, g.kind, w.kind)
				}
				if g.text != w.text {
					t.Errorf("cond[%d].text = %q, want %q", i, g.text, w.text)
				}
				if g.durOp != w.durOp {
					t.Errorf("cond[%d].durOp = %d, want %d", i, g.durOp, w.durOp)
				}
				if g.durValue != w.durValue {
					t.Errorf("cond[%d].durValue = %v, want %v", i, g.durValue, w.durValue)
				}
				if g.pattern != w.pattern {
					t.Errorf("cond[%d].pattern = %q, want %q", i, g.pattern, w.pattern)
				}
			}
		})
	}
}

func makeEvent(q string, dur time.Duration) service.Event {
	ev := service.Event{Query: q, Duration: dur, FirstArg: -1}
	e, err := normalize.Normalize(q)
	if err != nil {
		ev.Outcome = service.OutcomeError
		ev.Error = err.Error()
		return ev
	}
	ev.Key = e.Key
	if e.Skipped != normalize.SkipNone {
		ev.Skipped = e.Skipped.String()
	}
	if !e.Extracted() {
		ev.Outcome = service.OutcomeFallback
		return ev
	}
	ev.Outcome = service.OutcomeExtracted
	ev.FirstArg = *e.FirstArg
	for _, v := range e.Variables {
		ev.Variables = append(ev.Variables, query.Literal(v.Value))
		ev.Types = append(ev.Types, v.Value.TypeName())
	}
	return ev
}

func TestMatchesEvent(t *testing.T) {
	t.Parallel()

	hot := makeEvent("SELECT 1", time.Microsecond)
	hot.Hot = true

	tests := []struct {
		name string
		cond filterCondition
		ev   service.Event
		want bool
	}{
		{
			name: "text match on query",
			cond: filterCondition{kind: filterText, text: "alice"},
			ev:   makeEvent("SELECT User FILTER .name = 'alice'", time.Microsecond),
			want: true,
		},
		{
			name: "text match on key",
			cond: filterCondition{kind: filterText, text: "__std__::str"},
			ev:   makeEvent("SELECT 'x'", time.Microsecond),
			want: true,
		},
		{
			name: "text no match",
			cond: filterCondition{kind: filterText, text: "post"},
			ev:   makeEvent("SELECT User", time.Microsecond),
			want: false,
		},
		{
			name: "duration GT match",
			cond: filterCondition{kind: filterDuration, durOp: durGT, durValue: 50 * time.Microsecond},
			ev:   makeEvent("SELECT 1", 100*time.Microsecond),
			want: true,
		},
		{
			name: "duration LT no match",
			cond: filterCondition{kind: filterDuration, durOp: durLT, durValue: 50 * time.Microsecond},
			ev:   makeEvent("SELECT 1", 100*time.Microsecond),
			want: false,
		},
		{
			name: "error match",
			cond: filterCondition{kind: filterError},
			ev:   makeEvent("SELECT 'open", time.Microsecond),
			want: true,
		},
		{
			name: "error no match",
			cond: filterCondition{kind: filterError},
			ev:   makeEvent("SELECT 1", time.Microsecond),
			want: false,
		},
		{
			name: "hot match",
			cond: filterCondition{kind: filterHot},
			ev:   hot,
			want: true,
		},
		{
			name: "outcome fallback",
			cond: filterCondition{kind: filterOutcome, pattern: "fallback"},
			ev:   makeEvent("SELECT User", time.Microsecond),
			want: true,
		},
		{
			name: "outcome skipped",
			cond: filterCondition{kind: filterOutcome, pattern: "skipped"},
			ev:   makeEvent("CREATE TYPE Foo", time.Microsecond),
			want: true,
		},
		{
			name: "outcome skipped no match",
			cond: filterCondition{kind: filterOutcome, pattern: "skipped"},
			ev:   makeEvent("SELECT User", time.Microsecond),
			want: false,
		},
		{
			name: "type match",
			cond: filterCondition{kind: filterType, pattern: "float64"},
			ev:   makeEvent("SELECT 1 + 2.5", time.Microsecond),
			want: true,
		},
		{
			name: "type no match",
			cond: filterCondition{kind: filterType, pattern: "decimal"},
			ev:   makeEvent("SELECT 1 + 2.5", time.Microsecond),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := tt.cond.matchesEvent(&tt.ev)
			if got != tt.want {
				t.Errorf("matchesEvent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMatchingEvents(t *testing.T) {
	t.Parallel()

	events := []service.Event{
		makeEvent("SELECT User FILTER .id = 1", 10*time.Microsecond),
		makeEvent("SELECT Post", 10*time.Microsecond),
		makeEvent("SELECT User FILTER .id = 2", 300*time.Microsecond),
	}

	tests := []struct {
		filter string
		want   []int
	}{
		{"", []int{0, 1, 2}},
		{"user", []int{0, 2}},
		{"user d>100us", []int{2}},
		{"is:fallback", []int{1}},
		{"type:int64", []int{0, 2}},
		{"error", []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			t.Parallel()
			got := matchingEvents(events, tt.filter)
			if len(got) != len(tt.want) {
				t.Fatalf("matchingEvents(%q) = %v, want %v", tt.filter, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("matchingEvents(%q) = %v, want %v", tt.filter, got, tt.want)
				}
			}
		})
	}
}

func TestWrapFooterItems(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		items []string
		width int
		want  string
	}{
		{
			name:  "all fit in one line",
			items: []string{"a: foo", "b: bar"},
			width: 80,
			want:  "  a: foo  b: bar",
		},
		{
			name:  "wrap to two lines",
			items: []string{"a: foo", "b: bar", "c: baz"},
			width: 20,
			want:  "  a: foo  b: bar\n  c: baz",
		},
		{
			name:  "zero width falls back to single line",
			items: []string{"a", "b"},
			width: 0,
			want:  "  a  b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := wrapFooterItems(tt.items, tt.width)
			if got != tt.want {
				t.Errorf("wrapFooterItems(%v, %d) =\n%q\nwant:\n%q", tt.items, tt.width, got, tt.want)
			}
		})
	}
}

func TestDescribeFilter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"is:extracted d>100us", "is:extracted d>100µs"},
		{"hot error", "hot error"},
		{"type:str User", "type:str text:user"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			if got := describeFilter(tt.input); got != tt.want {
				t.Errorf("describeFilter(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
