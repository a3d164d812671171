package annotations

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Escape escapes text for embedding in a regular C# string literal
func Escape(text string) string {
	var b strings.Builder
	b.Grow(len(text) + 2)
	for _, r := range text {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Quote returns text as a quoted, escaped C# string literal
func Quote(text string) string {
	return `"` + Escape(text) + `"`
}

// Unquote decodes a regular ("...") or verbatim (@"...") C# string
// literal. It reports false for any other expression, including
// interpolated strings.
func Unquote(literal string) (string, bool) {
	literal = strings.TrimSpace(literal)
	switch {
	case strings.HasPrefix(literal, `@"`):
		return unquoteVerbatim(literal[1:])
	case strings.HasPrefix(literal, `"""`):
		return "", false
	case strings.HasPrefix(literal, `"`):
		return unquoteRegular(literal)
	}
	return "", false
}

func unquoteVerbatim(s string) (string, bool) {
	if len(s) < 2 || s[len(s)-1] != '"' {
		return "", false
	}
	body := s[1 : len(s)-1]
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		if body[i] == '"' {
			if i+1 < len(body) && body[i+1] == '"' {
				b.WriteByte('"')
				i++
				continue
			}
			return "", false
		}
		b.WriteByte(body[i])
	}
	return b.String(), true
}

func unquoteRegular(s string) (string, bool) {
	if len(s) < 2 || s[len(s)-1] != '"' {
		return "", false
	}
	body := s[1 : len(s)-1]
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c == '"' || c == '\n' {
			return "", false
		}
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(body) {
			return "", false
		}
		switch body[i] {
		case '\'', '"', '\\':
			b.WriteByte(body[i])
		case '0':
			b.WriteByte(0)
		case 'a':
			b.WriteByte('\a')
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
		case 'v':
			b.WriteByte('\v')
		case 'e':
			b.WriteByte(0x1b)
		case 'u':
			r, n, ok := hexRune(body[i+1:], 4, 4)
			if !ok {
				return "", false
			}
			b.WriteRune(r)
			i += n
		case 'U':
			r, n, ok := hexRune(body[i+1:], 8, 8)
			if !ok {
				return "", false
			}
			b.WriteRune(r)
			i += n
		case 'x':
			r, n, ok := hexRune(body[i+1:], 1, 4)
			if !ok {
				return "", false
			}
			b.WriteRune(r)
			i += n
		default:
			return "", false
		}
	}
	return b.String(), true
}

// hexRune reads between min and max hex digits from s
func hexRune(s string, min, max int) (rune, int, bool) {
	n := 0
	for n < max && n < len(s) && isHex(s[n]) {
		n++
	}
	if n < min {
		return 0, 0, false
	}
	v, err := strconv.ParseUint(s[:n], 16, 32)
	if err != nil || !utf8.ValidRune(rune(v)) {
		return 0, 0, false
	}
	return rune(v), n, true
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// SplitArguments splits an attribute argument list on top-level commas.
// Nested brackets, string literals and character literals are respected.
func SplitArguments(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var args []string
	depth := 0
	start := 0
	for i := 0; i < len(text); i++ {
		switch c := text[i]; c {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case '"':
			i = skipString(text, i)
		case '\'':
			i = skipChar(text, i)
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(text[start:i]))
				start = i + 1
			}
		}
	}
	return append(args, strings.TrimSpace(text[start:]))
}

// skipString returns the index of the closing quote of the literal that
// opens at i, handling verbatim and regular forms.
func skipString(text string, i int) int {
	verbatim := i > 0 && text[i-1] == '@' || i > 1 && text[i-1] == '$' && text[i-2] == '@' || i > 1 && text[i-1] == '@' && text[i-2] == '$'
	for j := i + 1; j < len(text); j++ {
		switch text[j] {
		case '\\':
			if !verbatim {
				j++
			}
		case '"':
			if verbatim && j+1 < len(text) && text[j+1] == '"' {
				j++
				continue
			}
			return j
		}
	}
	return len(text) - 1
}

func skipChar(text string, i int) int {
	for j := i + 1; j < len(text); j++ {
		switch text[j] {
		case '\\':
			j++
		case '\'':
			return j
		}
	}
	return len(text) - 1
}

// FirstArgument returns the expression of the first argument in an
// attribute argument list. A leading "Name =" or "name:" is removed.
func FirstArgument(argumentText string) (string, bool) {
	args := SplitArguments(argumentText)
	if len(args) == 0 || args[0] == "" {
		return "", false
	}
	return stripArgumentName(args[0]), true
}

func stripArgumentName(arg string) string {
	i := 0
	if i < len(arg) && arg[i] == '@' {
		i++
	}
	start := i
	for i < len(arg) && isIdentByte(arg[i]) {
		i++
	}
	if i == start {
		return arg
	}
	j := i
	for j < len(arg) && (arg[j] == ' ' || arg[j] == '\t') {
		j++
	}
	if j >= len(arg) {
		return arg
	}
	switch arg[j] {
	case '=':
		if j+1 < len(arg) && arg[j+1] == '=' {
			return arg
		}
	case ':':
		if j+1 < len(arg) && arg[j+1] == ':' {
			return arg
		}
	default:
		return arg
	}
	return strings.TrimSpace(arg[j+1:])
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c >= 0x80
}

// KeyValue resolves the first argument of an attribute to a key: the
// decoded value of a string literal, or the expression text verbatim.
func KeyValue(argumentText string) (string, bool) {
	arg, ok := FirstArgument(argumentText)
	if !ok {
		return "", false
	}
	if value, ok := Unquote(arg); ok {
		return value, true
	}
	return arg, true
}
