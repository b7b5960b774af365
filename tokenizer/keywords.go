package tokenizer

import "strings"

// reserved holds the reserved EdgeQL keywords, upper-cased.
var reserved = map[string]struct{}{}

func init() {
	for _, kw := range []string{
		"__SOURCE__", "__SUBJECT__", "__TYPE__", "__STD__", "__EDGEDBSYS__",
		"__EDGEDBTPL__", "__NEW__", "__OLD__", "__SPECIFIED__",
		"ADMINISTER", "ALTER", "ANALYZE", "AND", "ANYARRAY", "ANYTUPLE", "ANYTYPE",
		"BEGIN", "BY", "CASE", "CHECK", "COMMIT", "CONFIGURE", "CREATE",
		"DEALLOCATE", "DELETE", "DESCRIBE", "DETACHED", "DISCARD", "DISTINCT",
		"DO", "DROP", "ELSE", "EMPTY", "END", "EXECUTE", "EXISTS", "EXPLAIN",
		"EXTENDING", "FALSE", "FETCH", "FILTER", "FOR", "GET", "GLOBAL", "GRANT",
		"GROUP", "IF", "ILIKE", "IMPORT", "IN", "INSERT", "INTROSPECT", "IS",
		"LIKE", "LIMIT", "LISTEN", "LOAD", "LOCK", "MATCH", "MODULE", "MOVE",
		"NEVER", "NOT", "NOTIFY", "OFFSET", "ON", "OPTIONAL", "OR", "OVER",
		"PARTITION", "PREPARE", "RAISE", "REFRESH", "REINDEX", "REVOKE",
		"ROLLBACK", "SELECT", "SET", "SINGLE", "START", "TRUE", "TYPEOF",
		"UNION", "UPDATE", "VARIADIC", "WHEN", "WINDOW", "WITH",
	} {
		reserved[kw] = struct{}{}
	}
}

// IsKeyword reports whether word is a reserved keyword, case-insensitively.
func IsKeyword(word string) bool {
	_, ok := reserved[strings.ToUpper(word)]
	return ok
}
