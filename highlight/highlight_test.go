package highlight_test

import (
	"testing"

	"github.com/charmbracelet/x/ansi"

	"github.com/Isabellarossi/edgedb/highlight"
)

func TestQuery_PreservesText(t *testing.T) {
	t.Parallel()

	tests := []string{
		"",
		"SELECT 1",
		"SELECT User { name } FILTER .id = <uuid>$id  # trailing comment",
		"# leading\nSELECT 'a' ++ \"b\"\n",
		"SELECT 'unterminated",
		"SELECT $$dollar$$ ++ r'raw'",
	}
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			t.Parallel()
			got := highlight.Query(in)
			if stripped := ansi.Strip(got); stripped != trimNL(in) {
				t.Fatalf("Query(%q) stripped = %q", in, stripped)
			}
		})
	}
}

func TestKey_PreservesText(t *testing.T) {
	t.Parallel()

	tests := []string{
		"SELECT(<__std__::int64>$0)+(<__std__::int64>$0)",
		"SELECT User FILTER.name=(<__std__::str>$__edb_arg_1)LIMIT 1",
		"SELECT User",
	}
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			t.Parallel()
			if got := ansi.Strip(highlight.Key(in)); got != in {
				t.Fatalf("Key(%q) stripped = %q", in, got)
			}
		})
	}
}

func trimNL(s string) string {
	for len(s) > 0 && s[len(s)-1] == '\n' {
		s = s[:len(s)-1]
	}
	return s
}
