package normalize

import (
	"math"
	"strconv"
	"strings"

	"github.com/Isabellarossi/edgedb/token"
)

// ScanArgs inspects the parameters already present in tokens.
//
// For positional queries ($0, $1, ...) it returns named=false and the
// index after the largest one seen, 0 when there are none. For named
// queries it returns named=true and the number of distinct names. ok is
// false when the query mixes both schemes, in which case no literal may be
// extracted.
func ScanArgs(tokens []token.Token) (named bool, next int, ok bool) {
	maxIdx := -1
	names := make(map[string]struct{})
	for _, t := range tokens {
		if t.Kind != token.Argument {
			continue
		}
		name := strings.TrimPrefix(t.Text, "$")
		if idx, isIdx := parseIndex(name); isIdx {
			maxIdx = max(maxIdx, idx)
		} else {
			names[name] = struct{}{}
		}
	}

	switch {
	case len(names) == 0:
		if maxIdx == math.MaxInt {
			return false, 0, false
		}
		return false, maxIdx + 1, true
	case maxIdx >= 0:
		return false, 0, false
	}
	return true, len(names), true
}

// parseIndex parses a non-negative decimal index. Indexes that overflow
// int are not indexes.
func parseIndex(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for i := range len(s) {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
