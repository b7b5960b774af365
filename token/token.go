package token

import "fmt"

// Kind is the lexical category of a token.
type Kind int

const (
	Assign          Kind = iota // :=
	SubAssign                   // -=
	AddAssign                   // +=
	Arrow                       // ->
	Coalesce                    // ??
	Namespace                   // ::
	ForwardLink                 // .>
	BackwardLink                // .<
	FloorDiv                    // //
	Concat                      // ++
	GreaterEq                   // >=
	LessEq                      // <=
	NotEq                       // !=
	NotDistinctFrom             // ?=
	DistinctFrom                // ?!=
	Comma                       // ,
	OpenParen                   // (
	CloseParen                  // )
	OpenBracket                 // [
	CloseBracket                // ]
	OpenBrace                   // {
	CloseBrace                  // }
	Dot                         // .
	Semicolon                   // ;
	Colon                       // :
	Add                         // +
	Sub                         // -
	Mul                         // *
	Div                         // /
	Modulo                      // %
	Pow                         // ^
	Less                        // <
	Greater                     // >
	Eq                          // =
	Ampersand                   // &
	Pipe                        // |
	At                          // @

	DecimalConst // 1.5n
	FloatConst   // 1.5, 1e3
	IntConst     // 42
	BigIntConst  // 42n
	BinStr       // b'...'
	Argument     // $0, $name
	Str          // '...', "...", r'...', $$...$$
	BacktickName // `name`
	Keyword      // SELECT
	Ident        // name

	numKinds
)

type kindInfo struct {
	name     string
	operator bool
}

// kinds must have one entry per Kind; TestKindTable enforces it.
var kinds = [numKinds]kindInfo{
	Assign:          {"Assign", true},
	SubAssign:       {"SubAssign", true},
	AddAssign:       {"AddAssign", true},
	Arrow:           {"Arrow", true},
	Coalesce:        {"Coalesce", true},
	Namespace:       {"Namespace", true},
	ForwardLink:     {"ForwardLink", true},
	BackwardLink:    {"BackwardLink", true},
	FloorDiv:        {"FloorDiv", true},
	Concat:          {"Concat", true},
	GreaterEq:       {"GreaterEq", true},
	LessEq:          {"LessEq", true},
	NotEq:           {"NotEq", true},
	NotDistinctFrom: {"NotDistinctFrom", true},
	DistinctFrom:    {"DistinctFrom", true},
	Comma:           {"Comma", true},
	OpenParen:       {"OpenParen", true},
	CloseParen:      {"CloseParen", true},
	OpenBracket:     {"OpenBracket", true},
	CloseBracket:    {"CloseBracket", true},
	OpenBrace:       {"OpenBrace", true},
	CloseBrace:      {"CloseBrace", true},
	Dot:             {"Dot", true},
	Semicolon:       {"Semicolon", true},
	Colon:           {"Colon", true},
	Add:             {"Add", true},
	Sub:             {"Sub", true},
	Mul:             {"Mul", true},
	Div:             {"Div", true},
	Modulo:          {"Modulo", true},
	Pow:             {"Pow", true},
	Less:            {"Less", true},
	Greater:         {"Greater", true},
	Eq:              {"Eq", true},
	Ampersand:       {"Ampersand", true},
	Pipe:            {"Pipe", true},
	At:              {"At", true},

	DecimalConst: {"DecimalConst", false},
	FloatConst:   {"FloatConst", false},
	IntConst:     {"IntConst", false},
	BigIntConst:  {"BigIntConst", false},
	BinStr:       {"BinStr", false},
	Argument:     {"Argument", false},
	Str:          {"Str", false},
	BacktickName: {"BacktickName", false},
	Keyword:      {"Keyword", false},
	Ident:        {"Ident", false},
}

// Kinds returns every defined Kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, numKinds)
	for i := range out {
		out[i] = Kind(i)
	}
	return out
}

func (k Kind) String() string {
	if k >= 0 && k < numKinds && kinds[k].name != "" {
		return kinds[k].name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsOperator reports whether tokens of kind k are operators or structural
// punctuation. The canonical serializer never puts a space around them.
func (k Kind) IsOperator() bool {
	if k < 0 || k >= numKinds {
		return false
	}
	return kinds[k].operator
}

// IsLiteral reports whether k denotes a constant value.
func (k Kind) IsLiteral() bool {
	switch k {
	case DecimalConst, FloatConst, IntConst, BigIntConst, BinStr, Str:
		return true
	}
	return false
}

// Pos is a position in the source text. Line and Column are 1-based,
// Column counts runes, Offset counts bytes.
type Pos struct {
	Line   int
	Column int
	Offset int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token is a classified lexical unit.
type Token struct {
	Kind  Kind
	Text  string
	Start Pos
	End   Pos
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%s", t.Kind, t.Text, t.Start)
}
