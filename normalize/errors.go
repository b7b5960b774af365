package normalize

import (
	"errors"
	"fmt"

	"github.com/Isabellarossi/edgedb/token"
)

// ErrorKind classifies a normalization failure.
type ErrorKind int

const (
	// KindTokenizer is a failure rooted in malformed input text.
	KindTokenizer ErrorKind = iota
	// KindAssertion is a contract violation between the lexer and the
	// extractor. It indicates a defect, not bad input.
	KindAssertion
)

func (k ErrorKind) String() string {
	switch k {
	case KindTokenizer:
		return "tokenizer"
	case KindAssertion:
		return "assertion"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Sentinels matched by errors.Is against an *Error of the same kind.
var (
	ErrTokenizer = errors.New("normalize: tokenizer error")
	ErrAssertion = errors.New("normalize: assertion error")
)

// Error is returned by Normalize and NormalizeTokens.
type Error struct {
	Kind    ErrorKind
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	return fmt.Sprintf("normalize: %s error at %s: %s", e.Kind, e.Pos, e.Message)
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrTokenizer:
		return e.Kind == KindTokenizer
	case ErrAssertion:
		return e.Kind == KindAssertion
	}
	return false
}

func tokenizerError(pos token.Pos, format string, args ...any) *Error {
	return &Error{Kind: KindTokenizer, Message: fmt.Sprintf(format, args...), Pos: pos}
}
