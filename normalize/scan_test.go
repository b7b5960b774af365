package normalize_test

import (
	"testing"

	"github.com/Isabellarossi/edgedb/normalize"
	"github.com/Isabellarossi/edgedb/token"
	"github.com/Isabellarossi/edgedb/tokenizer"
)

func tokenize(t *testing.T, s string) []token.Token {
	t.Helper()
	toks, _, err := tokenizer.Tokenize(s)
	if err != nil {
		t.Fatalf("Tokenize(%q): %v", s, err)
	}
	return toks
}

func TestScanArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in        string
		wantNamed bool
		wantNext  int
		wantOK    bool
	}{
		{"SELECT 1+1", false, 0, true},

		{"$0 $1 $2", false, 3, true},
		{"$2 $3 $2", false, 4, true},
		{"$0 $0 $0", false, 1, true},
		{"$10 $100", false, 101, true},

		{"$a", true, 1, true},
		{"$b $c $d", true, 3, true},
		{"$b $c $b", true, 2, true},
		{"$a $b $b $a $c $xx", true, 4, true},

		{"$a $0", false, 0, false},
		{"$0 $a", false, 0, false},
		{"$b $c $100", false, 0, false},
		{"$10 $xx $yy", false, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			named, next, ok := normalize.ScanArgs(tokenize(t, tt.in))
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if named != tt.wantNamed || next != tt.wantNext {
				t.Fatalf("got (%v, %d), want (%v, %d)", named, next, tt.wantNamed, tt.wantNext)
			}
		})
	}
}

func TestScanArgs_Overflow(t *testing.T) {
	t.Parallel()

	// An index too large for int is treated as a name.
	named, next, ok := normalize.ScanArgs([]token.Token{
		{Kind: token.Argument, Text: "$99999999999999999999999"},
	})
	if !ok || !named || next != 1 {
		t.Fatalf("got (%v, %d, %v), want (true, 1, true)", named, next, ok)
	}

	// The next index after MaxInt does not exist.
	_, _, ok = normalize.ScanArgs([]token.Token{
		{Kind: token.Argument, Text: "$9223372036854775807"},
	})
	if ok {
		t.Fatal("expected no result when the next index overflows")
	}
}
