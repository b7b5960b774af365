// Package tokenizer splits EdgeQL text into classified tokens.
package tokenizer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Isabellarossi/edgedb/token"
)

// Error is a lexical error at a source position.
type Error struct {
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

// operators lists multi-character operators longest first.
var operators = []struct {
	text string
	kind token.Kind
}{
	{"?!=", token.DistinctFrom},
	{"?=", token.NotDistinctFrom},
	{"??", token.Coalesce},
	{":=", token.Assign},
	{"::", token.Namespace},
	{"->", token.Arrow},
	{"-=", token.SubAssign},
	{"+=", token.AddAssign},
	{"++", token.Concat},
	{"//", token.FloorDiv},
	{".>", token.ForwardLink},
	{".<", token.BackwardLink},
	{">=", token.GreaterEq},
	{"<=", token.LessEq},
	{"!=", token.NotEq},
}

var singleOps = map[byte]token.Kind{
	',': token.Comma,
	'(': token.OpenParen,
	')': token.CloseParen,
	'[': token.OpenBracket,
	']': token.CloseBracket,
	'{': token.OpenBrace,
	'}': token.CloseBrace,
	'.': token.Dot,
	';': token.Semicolon,
	':': token.Colon,
	'+': token.Add,
	'-': token.Sub,
	'*': token.Mul,
	'/': token.Div,
	'%': token.Modulo,
	'^': token.Pow,
	'<': token.Less,
	'>': token.Greater,
	'=': token.Eq,
	'&': token.Ampersand,
	'|': token.Pipe,
	'@': token.At,
}

// Lexer tokenizes EdgeQL input.
type Lexer struct {
	input string
	pos   int
	line  int
	col   int
	prev  token.Kind
	seen  bool
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input, line: 1, col: 1}
}

// Tokenize returns all tokens of text together with the position just past
// the end of the input.
func Tokenize(text string) ([]token.Token, token.Pos, error) {
	l := NewLexer(text)
	var toks []token.Token
	for {
		tok, ok, err := l.Next()
		if err != nil {
			return nil, token.Pos{}, err
		}
		if !ok {
			break
		}
		toks = append(toks, tok)
	}
	return toks, l.Pos(), nil
}

// Pos returns the current position of the lexer.
func (l *Lexer) Pos() token.Pos {
	return token.Pos{Line: l.line, Column: l.col, Offset: l.pos}
}

// Next returns the next token. ok is false at end of input.
func (l *Lexer) Next() (tok token.Token, ok bool, err error) {
	if err := l.skipSpace(); err != nil {
		return token.Token{}, false, err
	}
	if l.pos >= len(l.input) {
		return token.Token{}, false, nil
	}

	start := l.Pos()
	kind, err := l.scan(start)
	if err != nil {
		return token.Token{}, false, err
	}
	l.prev = kind
	l.seen = true
	return token.Token{
		Kind:  kind,
		Text:  l.input[start.Offset:l.pos],
		Start: start,
		End:   l.Pos(),
	}, true, nil
}

func (l *Lexer) scan(start token.Pos) (token.Kind, error) {
	ch := l.input[l.pos]
	switch {
	case ch == '\'' || ch == '"':
		return token.Str, l.quoted(start, false)
	case (ch == 'r' || ch == 'b') && l.pos+1 < len(l.input) && isQuote(l.input[l.pos+1]):
		l.advance()
		if ch == 'b' {
			return token.BinStr, l.quoted(start, false)
		}
		return token.Str, l.quoted(start, true)
	case isDigit(ch):
		return l.number(start)
	case ch == '`':
		return token.BacktickName, l.backtick(start)
	case ch == '$':
		return l.dollar(start)
	case isIdentStart(l.peekRune()):
		for l.pos < len(l.input) && isIdentPart(l.peekRune()) {
			l.advance()
		}
		if IsKeyword(l.input[start.Offset:l.pos]) {
			return token.Keyword, nil
		}
		return token.Ident, nil
	}

	for _, op := range operators {
		if strings.HasPrefix(l.input[l.pos:], op.text) {
			l.advanceN(len(op.text))
			return op.kind, nil
		}
	}
	if kind, ok := singleOps[ch]; ok {
		l.advance()
		return kind, nil
	}
	return 0, &Error{Message: fmt.Sprintf("unexpected character %q", l.peekRune()), Pos: start}
}

func (l *Lexer) skipSpace() error {
	for l.pos < len(l.input) {
		r := l.peekRune()
		switch {
		case r == '#':
			for l.pos < len(l.input) && l.input[l.pos] != '\n' {
				l.advance()
			}
		case unicode.IsSpace(r):
			l.advance()
		default:
			return nil
		}
	}
	return nil
}

func (l *Lexer) number(start token.Pos) (token.Kind, error) {
	l.digits()

	// After a dot only a plain integer is a valid tuple index.
	if l.seen && l.prev == token.Dot {
		return token.IntConst, nil
	}

	kind := token.IntConst
	if l.peekByte(0) == '.' && isDigit(l.peekByte(1)) {
		l.advance()
		l.digits()
		kind = token.FloatConst
	}
	if c := l.peekByte(0); c == 'e' || c == 'E' {
		n := 1
		if s := l.peekByte(1); s == '+' || s == '-' {
			n = 2
		}
		if !isDigit(l.peekByte(n)) {
			return 0, &Error{Message: "expected digits after exponent", Pos: l.Pos()}
		}
		l.advanceN(n)
		l.digits()
		kind = token.FloatConst
	}
	if l.peekByte(0) == 'n' {
		l.advance()
		if kind == token.IntConst {
			kind = token.BigIntConst
		} else {
			kind = token.DecimalConst
		}
	}
	if l.pos < len(l.input) && isIdentPart(l.peekRune()) {
		return 0, &Error{
			Message: fmt.Sprintf("unexpected character %q after number %s", l.peekRune(), l.input[start.Offset:l.pos]),
			Pos:     l.Pos(),
		}
	}
	return kind, nil
}

func (l *Lexer) digits() {
	for l.pos < len(l.input) && (isDigit(l.input[l.pos]) || l.input[l.pos] == '_') {
		l.advance()
	}
}

func (l *Lexer) quoted(start token.Pos, raw bool) error {
	quote := l.input[l.pos]
	l.advance()
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		switch {
		case c == quote:
			l.advance()
			return nil
		case c == '\\' && !raw:
			l.advance()
			if l.pos < len(l.input) {
				l.advance()
			}
		default:
			l.advance()
		}
	}
	return &Error{Message: fmt.Sprintf("unterminated string, quoted by `%c`", quote), Pos: start}
}

func (l *Lexer) backtick(start token.Pos) error {
	l.advance()
	begin := l.pos
	for l.pos < len(l.input) && l.input[l.pos] != '`' {
		l.advance()
	}
	if l.pos >= len(l.input) {
		return &Error{Message: "unterminated backtick name", Pos: start}
	}
	if l.pos == begin {
		return &Error{Message: "backtick quotes cannot be empty", Pos: start}
	}
	l.advance()
	return nil
}

func (l *Lexer) dollar(start token.Pos) (token.Kind, error) {
	l.advance()
	switch {
	case l.peekByte(0) == '$':
		l.advance()
		return token.Str, l.dollarBody(start, "$$")
	case isDigit(l.peekByte(0)):
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			l.advance()
		}
		if l.pos < len(l.input) && isIdentPart(l.peekRune()) {
			return 0, &Error{Message: "bad argument name", Pos: start}
		}
		return token.Argument, nil
	case l.pos < len(l.input) && isIdentStart(l.peekRune()):
		for l.pos < len(l.input) && isIdentPart(l.peekRune()) {
			l.advance()
		}
		if l.peekByte(0) == '$' {
			l.advance()
			return token.Str, l.dollarBody(start, l.input[start.Offset:l.pos])
		}
		return token.Argument, nil
	}
	return 0, &Error{Message: "bare $ is not allowed", Pos: start}
}

func (l *Lexer) dollarBody(start token.Pos, tag string) error {
	idx := strings.Index(l.input[l.pos:], tag)
	if idx < 0 {
		return &Error{Message: fmt.Sprintf("unterminated string started with %s", tag), Pos: start}
	}
	l.advanceN(idx + len(tag))
	return nil
}

func (l *Lexer) peekByte(n int) byte {
	if l.pos+n < len(l.input) {
		return l.input[l.pos+n]
	}
	return 0
}

func (l *Lexer) peekRune() rune {
	r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
	return r
}

func (l *Lexer) advance() {
	if l.pos >= len(l.input) {
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += size
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
}

func (l *Lexer) advanceN(n int) {
	end := l.pos + n
	for l.pos < end {
		l.advance()
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isQuote(c byte) bool { return c == '\'' || c == '"' }

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
