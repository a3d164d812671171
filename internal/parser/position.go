package parser

import (
	"unicode/utf8"

	"github.com/toyz/serupd/internal/errors"
)

// Location converts a byte offset into a 1-based line and column
func Location(file string, src []byte, offset int) errors.SourceLocation {
	if offset > len(src) {
		offset = len(src)
	}
	line, col := 1, 1
	for i := 0; i < offset; {
		r, size := utf8.DecodeRune(src[i:])
		if r == '\n' {
			line++
			col = 1
		} else {
			col++
		}
		i += size
	}
	return errors.SourceLocation{File: file, Line: line, Column: col}
}

// bomLength returns the length of a leading UTF-8 byte order mark, if any
func bomLength(src []byte) int {
	if len(src) >= 3 && src[0] == 0xEF && src[1] == 0xBB && src[2] == 0xBF {
		return 3
	}
	return 0
}
