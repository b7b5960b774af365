package tokenizer_test

import (
	"testing"

	"github.com/Isabellarossi/edgedb/tokenizer"
)

func TestUnquote(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"single", "'abc'", "abc"},
		{"double", `"abc"`, "abc"},
		{"empty", "''", ""},
		{"escaped quote", `'it\'s'`, "it's"},
		{"simple escapes", `'a\nb\tc\\d\"e'`, "a\nb\tc\\d\"e"},
		{"control escapes", `'\b\f\r'`, "\b\f\r"},
		{"hex", `'\x41'`, "A"},
		{"unicode", `'\u00e9'`, "é"},
		{"long unicode", `'\U0001F600'`, "\U0001F600"},
		{"continuation", "'a\\\n    b'", "ab"},
		{"raw", `r'a\nb'`, `a\nb`},
		{"dollar", "$$a'b$$", "a'b"},
		{"dollar tag", "$x$a$$b$x$", "a$$b"},
		{"non-ascii kept", "'héllo'", "héllo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := tokenizer.Unquote(tt.in)
			if err != nil {
				t.Fatalf("Unquote(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("Unquote(%q)\n got  %q\n want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestUnquote_Errors(t *testing.T) {
	t.Parallel()

	for _, in := range []string{
		`'\q'`,
		`'\x80'`,
		`'\xZZ'`,
		`'\u12'`,
		`'\UFFFFFFFF'`,
		`'abc"`,
		"'",
		"$$abc",
	} {
		t.Run(in, func(t *testing.T) {
			t.Parallel()
			if got, err := tokenizer.Unquote(in); err == nil {
				t.Fatalf("Unquote(%q) = %q, want error", in, got)
			}
		})
	}
}
