// Package normalize turns EdgeQL text into a cache key by replacing its
// literal constants with typed parameters.
//
// Two queries that differ only in their constants, such as
// "SELECT 2 + 3" and "SELECT 4 + 5", produce the same Entry.Key and
// different Entry.Variables, so a plan compiled for one can be reused for
// the other by binding the variables.
package normalize

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Isabellarossi/edgedb/token"
	"github.com/Isabellarossi/edgedb/tokenizer"
)

// minInt64Magnitude only parses as an int64 together with a preceding
// unary minus, so it is left in place.
const minInt64Magnitude = "9223372036854775808"

// administrative keywords disable extraction for the whole query.
var administrative = map[string]struct{}{
	"CONFIGURE": {},
	"CREATE":    {},
	"ALTER":     {},
	"DROP":      {},
	"START":     {},
}

// Normalize tokenizes text and extracts its literals.
func Normalize(text string) (*Entry, error) {
	tokens, end, err := tokenizer.Tokenize(text)
	if err != nil {
		var lexErr *tokenizer.Error
		if errors.As(err, &lexErr) {
			return nil, &Error{Kind: KindTokenizer, Message: lexErr.Message, Pos: lexErr.Pos}
		}
		return nil, &Error{Kind: KindTokenizer, Message: err.Error()}
	}
	return NormalizeTokens(tokens, end)
}

// NormalizeTokens extracts literals from an already tokenized query. end
// is the position just past the input and is copied to Entry.EndPos.
//
// Queries that mix positional and named parameters, and administrative
// statements, are returned unchanged with no variables and Entry.Skipped
// set. Only malformed literals produce an error.
func NormalizeTokens(tokens []token.Token, end token.Pos) (*Entry, error) {
	named, first, ok := ScanArgs(tokens)
	if !ok {
		return unchanged(tokens, end, SkipMixedArgs), nil
	}

	x := &extractor{
		named: named,
		first: first,
		names: make(map[valueKey]string),
		out:   make([]token.Token, 0, len(tokens)),
	}
	for _, tok := range tokens {
		var (
			v   Value
			err error
		)
		switch tok.Kind {
		case token.IntConst:
			if x.keepInt(tok) {
				x.out = append(x.out, tok)
				continue
			}
			v, err = parseInt(tok)
		case token.FloatConst:
			v, err = parseFloat(tok)
		case token.BigIntConst:
			v, err = parseBigInt(tok)
		case token.DecimalConst:
			v, err = parseDecimal(tok)
		case token.Str:
			v, err = parseStr(tok)
		case token.Keyword:
			if _, ok := administrative[strings.ToUpper(tok.Text)]; ok {
				return unchanged(tokens, end, SkipAdministrative), nil
			}
			x.out = append(x.out, tok)
			continue
		default:
			x.out = append(x.out, tok)
			continue
		}
		if err != nil {
			return nil, err
		}
		x.replace(tok, v)
	}

	entry := &Entry{
		Key:       Serialize(x.out),
		Tokens:    x.out,
		Variables: x.vars,
		EndPos:    end,
		NamedArgs: named,
	}
	if len(x.vars) > 0 {
		entry.FirstArg = &first
	}
	return entry, nil
}

func unchanged(tokens []token.Token, end token.Pos, reason Skip) *Entry {
	return &Entry{
		Key:     Serialize(tokens),
		Tokens:  tokens,
		EndPos:  end,
		Skipped: reason,
	}
}

type extractor struct {
	named bool
	first int
	names map[valueKey]string
	vars  []Variable
	out   []token.Token
}

// keepInt reports whether an integer literal must stay in the query text:
// tuple indexes (t.1), the count in LIMIT 1 and the magnitude of MinInt64.
func (x *extractor) keepInt(tok token.Token) bool {
	if n := len(x.out); n > 0 {
		last := x.out[n-1]
		if last.Kind == token.Dot {
			return true
		}
		if tok.Text == "1" && last.Kind == token.Keyword && strings.EqualFold(last.Text, "LIMIT") {
			return true
		}
	}
	return tok.Text == minInt64Magnitude
}

// replace emits (<type>$name) in place of tok, reusing the parameter of an
// equal value seen earlier.
func (x *extractor) replace(tok token.Token, v Value) {
	k := v.key()
	name, ok := x.names[k]
	if !ok {
		name = paramName(x.named, x.first+len(x.vars))
		x.vars = append(x.vars, Variable{Value: v})
		x.names[k] = name
	}

	emit := func(kind token.Kind, text string) {
		x.out = append(x.out, token.Token{Kind: kind, Text: text, Start: tok.Start, End: tok.End})
	}
	emit(token.OpenParen, "(")
	emit(token.Less, "<")
	emit(token.Ident, v.TypeName())
	emit(token.Greater, ">")
	emit(token.Argument, name)
	emit(token.CloseParen, ")")
}

func parseInt(tok token.Token) (Value, error) {
	n, err := strconv.ParseInt(stripSeparators(tok.Text), 10, 64)
	if err != nil {
		return nil, tokenizerError(tok.Start, "can't parse integer: %s", numErrReason(err))
	}
	return Int(n), nil
}

func parseFloat(tok token.Token) (Value, error) {
	f, err := strconv.ParseFloat(stripSeparators(tok.Text), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return nil, tokenizerError(tok.Start, "can't parse std::float64: %s", numErrReason(err))
	}
	if math.IsInf(f, 0) {
		return nil, tokenizerError(tok.Start, "number is out of range for std::float64")
	}
	return NewFloat(f), nil
}

func parseBigInt(tok token.Token) (Value, error) {
	d, err := decimal.NewFromString(stripSeparators(trimSuffix(tok.Text)))
	if err != nil {
		return nil, tokenizerError(tok.Start, "can't parse bigint: %v", err)
	}
	if !d.IsInteger() {
		return nil, &Error{Kind: KindAssertion, Message: "number is not integer", Pos: tok.Start}
	}
	return BigInt{v: d.BigInt()}, nil
}

func parseDecimal(tok token.Token) (Value, error) {
	d, err := decimal.NewFromString(stripSeparators(trimSuffix(tok.Text)))
	if err != nil {
		return nil, tokenizerError(tok.Start, "can't parse decimal: %v", err)
	}
	return NewDecimal(d), nil
}

func parseStr(tok token.Token) (Value, error) {
	s, err := tokenizer.Unquote(tok.Text)
	if err != nil {
		return nil, tokenizerError(tok.Start, "can't unquote string: %v", err)
	}
	return Str(s), nil
}

func stripSeparators(s string) string {
	return strings.ReplaceAll(s, "_", "")
}

// trimSuffix drops the n type suffix of 42n and 1.5n.
func trimSuffix(s string) string {
	if s == "" {
		return s
	}
	return s[:len(s)-1]
}

func numErrReason(err error) string {
	var ne *strconv.NumError
	if errors.As(err, &ne) {
		return ne.Err.Error()
	}
	return err.Error()
}
