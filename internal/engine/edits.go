package engine

import (
	"bytes"
	"fmt"
	"sort"
)

// Edit replaces src[Start:End] with Text. Start == End inserts.
type Edit struct {
	Start int
	End   int
	Text  string
}

// Apply splices edits into src. Edits are applied in offset order;
// insertions at the same offset keep the order they were given in.
// Overlapping replacements are rejected.
func Apply(src []byte, edits []Edit) ([]byte, error) {
	if len(edits) == 0 {
		return src, nil
	}

	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	var out bytes.Buffer
	out.Grow(len(src) + 256)
	prev := 0
	for _, e := range sorted {
		if e.Start < prev || e.End < e.Start || e.End > len(src) {
			return nil, fmt.Errorf("invalid or overlapping edit [%d,%d)", e.Start, e.End)
		}
		out.Write(src[prev:e.Start])
		out.WriteString(e.Text)
		prev = e.End
	}
	out.Write(src[prev:])
	return out.Bytes(), nil
}

// newline returns the line terminator used by src
func newline(src []byte) string {
	if i := bytes.IndexByte(src, '\n'); i > 0 && src[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}

// lineStart returns the offset of the first byte of the line holding off
func lineStart(src []byte, off int) int {
	for off > 0 && src[off-1] != '\n' {
		off--
	}
	return off
}

// indentAt returns the leading whitespace of the line holding off
func indentAt(src []byte, off int) string {
	start := lineStart(src, off)
	end := start
	for end < len(src) && (src[end] == ' ' || src[end] == '\t') {
		end++
	}
	return string(src[start:end])
}

// firstOnLine reports whether only whitespace precedes off on its line
func firstOnLine(src []byte, off int) bool {
	for i := lineStart(src, off); i < off; i++ {
		if i < bomLength(src) {
			continue
		}
		if src[i] != ' ' && src[i] != '\t' {
			return false
		}
	}
	return true
}

// insertBefore returns an edit placing text on its own line above the
// line holding anchor, or inline before anchor when other code precedes
// it on that line.
func insertBefore(src []byte, anchor int, text string) Edit {
	if !firstOnLine(src, anchor) {
		return Edit{Start: anchor, End: anchor, Text: text + " "}
	}
	start := lineStart(src, anchor)
	if start == 0 {
		start = bomLength(src)
	}
	indent := string(src[start:anchor])
	return Edit{Start: start, End: start, Text: indent + text + newline(src)}
}

func bomLength(src []byte) int {
	if bytes.HasPrefix(src, []byte{0xEF, 0xBB, 0xBF}) {
		return 3
	}
	return 0
}

// gapComments returns the comments and other non-blank text found between
// from and to, one entry per comment or line.
func gapComments(src []byte, from, to int) []string {
	var out []string
	i := from
	for i < to {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			i++
		case c == '/' && i+1 < to && src[i+1] == '*':
			end := bytes.Index(src[i+2:to], []byte("*/"))
			if end < 0 {
				out = append(out, string(src[i:to]))
				return out
			}
			out = append(out, string(src[i:i+2+end+2]))
			i += 2 + end + 2
		default:
			end := i
			for end < to && src[end] != '\n' {
				end++
			}
			out = append(out, string(bytes.TrimRight(src[i:end], " \t\r")))
			i = end
		}
	}
	return out
}
