package highlight

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"

	"github.com/Isabellarossi/edgedb/token"
	"github.com/Isabellarossi/edgedb/tokenizer"
)

var (
	fallback  chroma.Lexer
	formatter chroma.Formatter
	style     *chroma.Style
)

func init() {
	fallback = lexers.Get("sql")
	if fallback == nil {
		fallback = lexers.Fallback
	}
	formatter = formatters.Get("terminal256")
	style = styles.Get("monokai")
}

// Query returns the input with ANSI terminal syntax highlighting applied.
// Text the EdgeQL tokenizer rejects is highlighted as SQL. On error or
// empty input, the original string is returned unchanged.
func Query(s string) string {
	if s == "" {
		return s
	}

	iterator, err := iterate(s)
	if err != nil {
		return s
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return s
	}

	return strings.TrimRight(buf.String(), "\n")
}

func iterate(s string) (chroma.Iterator, error) {
	tokens, _, err := tokenizer.Tokenize(s)
	if err != nil {
		return fallback.Tokenise(nil, s) //nolint:wrapcheck
	}

	out := make([]chroma.Token, 0, 2*len(tokens)+1)
	prev := 0
	for _, tok := range tokens {
		if gap := s[prev:tok.Start.Offset]; gap != "" {
			out = append(out, gapTokens(gap)...)
		}
		out = append(out, chroma.Token{Type: chromaType(tok), Value: s[tok.Start.Offset:tok.End.Offset]})
		prev = tok.End.Offset
	}
	if rest := s[prev:]; rest != "" {
		out = append(out, gapTokens(rest)...)
	}
	return chroma.Literator(out...), nil
}

// gapTokens splits the text between two tokens into whitespace and
// comments.
func gapTokens(gap string) []chroma.Token {
	var out []chroma.Token
	for gap != "" {
		i := strings.IndexByte(gap, '#')
		if i < 0 {
			return append(out, chroma.Token{Type: chroma.TextWhitespace, Value: gap})
		}
		if i > 0 {
			out = append(out, chroma.Token{Type: chroma.TextWhitespace, Value: gap[:i]})
		}
		end := strings.IndexByte(gap[i:], '\n')
		if end < 0 {
			return append(out, chroma.Token{Type: chroma.CommentSingle, Value: gap[i:]})
		}
		out = append(out, chroma.Token{Type: chroma.CommentSingle, Value: gap[i : i+end]})
		gap = gap[i+end:]
	}
	return out
}

func chromaType(tok token.Token) chroma.TokenType {
	switch tok.Kind {
	case token.Keyword:
		return chroma.Keyword
	case token.Ident:
		return chroma.Name
	case token.BacktickName:
		return chroma.NameVariable
	case token.Argument:
		return chroma.NameVariableGlobal
	case token.Str, token.BinStr:
		return chroma.LiteralString
	case token.IntConst, token.BigIntConst:
		return chroma.LiteralNumberInteger
	case token.FloatConst, token.DecimalConst:
		return chroma.LiteralNumberFloat
	case token.OpenParen, token.CloseParen, token.OpenBracket, token.CloseBracket,
		token.OpenBrace, token.CloseBrace, token.Comma, token.Semicolon:
		return chroma.Punctuation
	}
	return chroma.Operator
}

var (
	castRe = regexp.MustCompile(`\(<(__std__::[a-z0-9]+)>(\$[A-Za-z0-9_]+)\)`)

	castStyle  = lipgloss.NewStyle().Faint(true)
	paramStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
)

// Key returns a normalized cache key with syntax highlighting applied.
// Synthesized parameter casts such as (<__std__::int64>$0) are rendered
// with the type dimmed and the parameter name emphasized.
func Key(s string) string {
	if s == "" {
		return s
	}

	var b strings.Builder
	prev := 0
	for _, m := range castRe.FindAllStringSubmatchIndex(s, -1) {
		b.WriteString(Query(s[prev:m[0]]))
		b.WriteString(castStyle.Render("(<" + s[m[2]:m[3]] + ">"))
		b.WriteString(paramStyle.Render(s[m[4]:m[5]]))
		b.WriteString(castStyle.Render(")"))
		prev = m[1]
	}
	b.WriteString(Query(s[prev:]))
	return b.String()
}
