package normalize

import (
	"strings"

	"github.com/Isabellarossi/edgedb/token"
)

// Serialize renders tokens as canonical text. A single space separates two
// consecutive non-operator tokens, except that a parameter is always glued
// to what precedes it. Operators and punctuation are never padded.
func Serialize(tokens []token.Token) string {
	var b strings.Builder
	needsSpace := false
	for _, t := range tokens {
		op := t.Kind.IsOperator()
		if needsSpace && !op && t.Kind != token.Argument {
			b.WriteByte(' ')
		}
		b.WriteString(t.Text)
		needsSpace = !op
	}
	return b.String()
}
