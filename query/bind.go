package query

import (
	"strings"

	"github.com/Isabellarossi/edgedb/normalize"
	"github.com/Isabellarossi/edgedb/token"
)

// Bind renders e with its synthesized parameters replaced by the literal
// values they stand for. The typed casts are kept, so the result is valid
// EdgeQL that evaluates like the original query.
// Entries without variables are returned as their key.
func Bind(e *normalize.Entry) string {
	if len(e.Variables) == 0 {
		return e.Key
	}

	lits := make(map[string]token.Token, len(e.Variables))
	for i, v := range e.Variables {
		lits[e.ParamName(i)] = token.Token{Kind: literalKind(v.Value), Text: Literal(v.Value)}
	}

	out := make([]token.Token, len(e.Tokens))
	for i, tok := range e.Tokens {
		if lit, ok := lits[tok.Text]; ok && tok.Kind == token.Argument {
			lit.Start, lit.End = tok.Start, tok.End
			tok = lit
		}
		out[i] = tok
	}
	return normalize.Serialize(out)
}

// Literal renders v as EdgeQL source text.
func Literal(v normalize.Value) string {
	switch v := v.(type) {
	case normalize.Str:
		return quote(string(v))
	case normalize.Int:
		return v.String()
	case normalize.Float:
		s := v.String()
		if !strings.ContainsAny(s, ".eEIN") {
			s += ".0"
		}
		return s
	case normalize.BigInt:
		return v.String() + "n"
	case normalize.Decimal:
		s := v.String()
		if !strings.ContainsAny(s, ".e") {
			s += ".0"
		}
		return s + "n"
	}
	return v.String()
}

func literalKind(v normalize.Value) token.Kind {
	switch v.(type) {
	case normalize.Str:
		return token.Str
	case normalize.Int:
		return token.IntConst
	case normalize.Float:
		return token.FloatConst
	case normalize.BigInt:
		return token.BigIntConst
	case normalize.Decimal:
		return token.DecimalConst
	}
	return token.Ident
}

var quoteReplacer = strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\r", `\r`, "\t", `\t`, "\n", `\n`)

// quote wraps s in single quotes, escaping backslashes, quotes and
// whitespace control characters.
func quote(s string) string {
	return "'" + quoteReplacer.Replace(s) + "'"
}
