package tokenizer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Unquote returns the value of a string literal as written in EdgeQL
// source: '...' or "..." with backslash escapes, r'...' raw strings and
// $tag$...$tag$ dollar-quoted strings.
func Unquote(s string) (string, error) {
	switch {
	case strings.HasPrefix(s, "r"):
		body, err := stripQuotes(s[1:])
		if err != nil {
			return "", err
		}
		return body, nil
	case strings.HasPrefix(s, "$"):
		end := strings.IndexByte(s[1:], '$')
		if end < 0 {
			return "", errors.New("invalid dollar-quoted string")
		}
		tag := s[:end+2]
		if len(s) < 2*len(tag) || !strings.HasSuffix(s, tag) {
			return "", errors.New("invalid dollar-quoted string")
		}
		return s[len(tag) : len(s)-len(tag)], nil
	}

	body, err := stripQuotes(s)
	if err != nil {
		return "", err
	}
	if !strings.ContainsRune(body, '\\') {
		return body, nil
	}
	return unescape(body)
}

func stripQuotes(s string) (string, error) {
	if len(s) < 2 || !isQuote(s[0]) || s[len(s)-1] != s[0] {
		return "", fmt.Errorf("invalid string literal %q", s)
	}
	return s[1 : len(s)-1], nil
}

func unescape(s string) (string, error) {
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			i++
			continue
		}
		if i+1 >= len(s) {
			return "", errors.New("backslash at the end of string")
		}
		esc := s[i+1]
		i += 2
		switch esc {
		case '\\', '\'', '"':
			b.WriteByte(esc)
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case '\r', '\n':
			for i < len(s) {
				r, size := utf8.DecodeRuneInString(s[i:])
				if !unicode.IsSpace(r) {
					break
				}
				i += size
			}
		case 'x':
			v, err := hexEscape(s, i, 2)
			if err != nil {
				return "", err
			}
			if v > 0x7f {
				return "", fmt.Errorf("invalid escape sequence '\\x%s' (only ascii allowed)", s[i:i+2])
			}
			b.WriteByte(byte(v))
			i += 2
		case 'u', 'U':
			n := 4
			if esc == 'U' {
				n = 8
			}
			v, err := hexEscape(s, i, n)
			if err != nil {
				return "", err
			}
			r := rune(v)
			if !utf8.ValidRune(r) {
				return "", fmt.Errorf("invalid escape sequence '\\%c%s'", esc, s[i:i+n])
			}
			b.WriteRune(r)
			i += n
		default:
			r, _ := utf8.DecodeRuneInString(s[i-1:])
			return "", fmt.Errorf("invalid escape sequence '\\%c'", r)
		}
	}
	return b.String(), nil
}

func hexEscape(s string, at, n int) (uint64, error) {
	if at+n > len(s) {
		return 0, fmt.Errorf("invalid escape sequence '\\%s'", s[at-1:])
	}
	v, err := strconv.ParseUint(s[at:at+n], 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid escape sequence '\\%s'", s[at-1:at+n])
	}
	return v, nil
}
