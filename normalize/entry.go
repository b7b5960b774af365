package normalize

import (
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/Isabellarossi/edgedb/token"
)

// Variable is one distinct extracted literal. Its index in
// Entry.Variables, offset by Entry.FirstArg, is the parameter it binds.
type Variable struct {
	Value Value
}

// Skip tells why extraction was not attempted for a query.
type Skip int

const (
	SkipNone           Skip = iota // extraction ran
	SkipMixedArgs                  // query mixes $0 and $name parameters
	SkipAdministrative             // CONFIGURE, CREATE, ALTER, DROP or START
)

func (s Skip) String() string {
	switch s {
	case SkipNone:
		return "none"
	case SkipMixedArgs:
		return "mixed-args"
	case SkipAdministrative:
		return "administrative"
	}
	return fmt.Sprintf("Skip(%d)", int(s))
}

// Entry is the result of normalizing one query.
type Entry struct {
	// Key is the canonical text used as a cache key.
	Key string
	// Tokens is the token sequence Key was serialized from.
	Tokens []token.Token
	// Variables holds distinct literals in order of first occurrence.
	Variables []Variable
	// EndPos is the position just past the end of the input.
	EndPos token.Pos
	// NamedArgs is true when parameters use $name rather than $N.
	NamedArgs bool
	// FirstArg is the index of the first synthesized parameter, nil when
	// no variables were extracted.
	FirstArg *int
	// Skipped is set when extraction was abandoned and Key is the
	// original query re-serialized. The caller should compile such queries
	// without parameter caching.
	Skipped Skip
}

// Fingerprint is a 64-bit hash of Key.
func (e *Entry) Fingerprint() uint64 {
	return xxhash.Sum64String(e.Key)
}

// Extracted reports whether at least one literal was replaced by a
// parameter.
func (e *Entry) Extracted() bool {
	return len(e.Variables) > 0
}

// ParamName returns the synthesized parameter name of the i-th variable,
// including the leading $.
func (e *Entry) ParamName(i int) string {
	first := 0
	if e.FirstArg != nil {
		first = *e.FirstArg
	}
	return paramName(e.NamedArgs, first+i)
}

// Namespace prefixes synthesized names in queries that use named parameters.
const Namespace = "edb"

func paramName(named bool, n int) string {
	if named {
		return fmt.Sprintf("$__%s_arg_%d", Namespace, n)
	}
	return fmt.Sprintf("$%d", n)
}
