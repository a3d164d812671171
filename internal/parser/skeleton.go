package parser

// skeleton returns a copy of src in which comments, string literals,
// character literals and preprocessor lines are replaced by spaces. Line
// breaks and byte offsets are preserved, so positions found in the
// skeleton index src directly.
func skeleton(src []byte) []byte {
	out := make([]byte, len(src))
	copy(out, src)

	blank := func(from, to int) {
		if to > len(out) {
			to = len(out)
		}
		for k := from; k < to; k++ {
			if out[k] != '\n' && out[k] != '\r' {
				out[k] = ' '
			}
		}
	}

	lineStart := true
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '\n':
			lineStart = true
			i++
			continue
		case c == ' ' || c == '\t' || c == '\r':
			i++
			continue
		case lineStart && c == '#':
			end := lineEnd(src, i)
			blank(i, end)
			i = end
			continue
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			end := lineEnd(src, i)
			blank(i, end)
			i = end
			continue
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			end := blockCommentEnd(src, i)
			blank(i, end)
			i = end
			lineStart = false
			continue
		case c == '"' || c == '$' || c == '@':
			if end, ok := literalEnd(src, i); ok {
				blank(i, end)
				i = end
				lineStart = false
				continue
			}
		case c == '\'':
			end := charEnd(src, i)
			blank(i, end)
			i = end
			lineStart = false
			continue
		}
		lineStart = false
		i++
	}
	return out
}

func lineEnd(src []byte, i int) int {
	for i < len(src) && src[i] != '\n' {
		i++
	}
	return i
}

func blockCommentEnd(src []byte, i int) int {
	for j := i + 2; j+1 < len(src); j++ {
		if src[j] == '*' && src[j+1] == '/' {
			return j + 2
		}
	}
	return len(src)
}

func charEnd(src []byte, i int) int {
	j := i + 1
	if j < len(src) && src[j] == '\\' {
		j += 2
	} else {
		j++
	}
	for j < len(src) && src[j] != '\'' && src[j] != '\n' {
		j++
	}
	if j < len(src) && src[j] == '\'' {
		return j + 1
	}
	return j
}

// literalEnd returns the end offset of the string literal starting at i.
// It reports false when i does not start a string literal (for example
// the '@' of a verbatim identifier).
func literalEnd(src []byte, i int) (int, bool) {
	k := i
	dollars := 0
	verbatim := false
	for k < len(src) && src[k] == '$' {
		dollars++
		k++
	}
	if k < len(src) && src[k] == '@' {
		verbatim = true
		k++
		for k < len(src) && src[k] == '$' {
			dollars++
			k++
		}
	}
	if k >= len(src) || src[k] != '"' {
		return 0, false
	}

	quotes := 0
	for k+quotes < len(src) && src[k+quotes] == '"' {
		quotes++
	}
	if quotes >= 3 {
		return rawLiteralEnd(src, k+quotes, quotes), true
	}

	j := k + 1
	for j < len(src) {
		c := src[j]
		switch {
		case c == '"':
			if verbatim && j+1 < len(src) && src[j+1] == '"' {
				j += 2
				continue
			}
			return j + 1, true
		case c == '\\' && !verbatim:
			j += 2
			continue
		case c == '\n' && !verbatim:
			return j, true
		case c == '{' && dollars > 0:
			if j+1 < len(src) && src[j+1] == '{' {
				j += 2
				continue
			}
			j = holeEnd(src, j+1)
			continue
		}
		j++
	}
	return len(src), true
}

// holeEnd skips an interpolation hole and returns the offset after its '}'
func holeEnd(src []byte, j int) int {
	depth := 0
	for j < len(src) {
		c := src[j]
		switch {
		case c == '{':
			depth++
		case c == '}':
			if depth == 0 {
				return j + 1
			}
			depth--
		case c == '"' || c == '$' || c == '@':
			if end, ok := literalEnd(src, j); ok {
				j = end
				continue
			}
		case c == '\'':
			j = charEnd(src, j)
			continue
		}
		j++
	}
	return len(src)
}

func rawLiteralEnd(src []byte, j, quotes int) int {
	for j < len(src) {
		if src[j] != '"' {
			j++
			continue
		}
		run := 0
		for j+run < len(src) && src[j+run] == '"' {
			run++
		}
		if run >= quotes {
			return j + run
		}
		j += run
	}
	return len(src)
}

// matchClose returns the index of the bracket closing the one at open, or
// -1. The scan runs over a skeleton, so literals cannot confuse it.
func matchClose(skel []byte, open int) int {
	var closeCh byte
	openCh := skel[open]
	switch openCh {
	case '{':
		closeCh = '}'
	case '[':
		closeCh = ']'
	case '(':
		closeCh = ')'
	case '<':
		closeCh = '>'
	default:
		return -1
	}
	depth := 0
	for i := open; i < len(skel); i++ {
		switch skel[i] {
		case openCh:
			depth++
		case closeCh:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '@' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= 0x80
}

func isIdentPart(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c >= 0x80
}
