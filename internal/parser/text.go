package parser

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/toyz/serupd/internal/annotations"
	"github.com/toyz/serupd/internal/errors"
	"github.com/toyz/serupd/internal/models"
)

var (
	classHeaderRe = regexp.MustCompile(`^((?:(?:public|private|protected|internal|static|sealed|abstract|partial|new|unsafe|file|readonly)\s+)*)class\s+(@?[\p{L}_][\p{L}\p{N}_]*)`)
	otherTypeRe   = regexp.MustCompile(`^(?:(?:public|private|protected|internal|static|sealed|abstract|partial|new|unsafe|file|readonly|ref)\s+)*(?:struct|interface|enum|record|delegate)\b`)
	namespaceRe   = regexp.MustCompile(`^namespace\s+[\p{L}_][\p{L}\p{N}_.]*$`)
	modifiersRe   = regexp.MustCompile(`^(?:(?:public|private|protected|internal|static|virtual|override|sealed|abstract|new|required|readonly|unsafe|extern|partial)\s+)*`)
	trailingIdent = regexp.MustCompile(`(@?[\p{L}_][\p{L}\p{N}_]*)\s*$`)
	whereRe       = regexp.MustCompile(`\bwhere\s`)
)

var nonPropertyTypes = map[string]bool{
	"event": true, "class": true, "struct": true, "interface": true, "enum": true,
	"record": true, "delegate": true, "operator": true, "namespace": true,
	"using": true, "return": true, "implicit": true, "explicit": true,
}

var accessorModifiers = map[string]bool{
	"public": true, "private": true, "protected": true, "internal": true, "readonly": true,
}

// TextBackend scans C# source line by line without a full grammar.
// Attribute sections are parsed with the participle section grammar;
// classes and properties are recognised from their headers.
type TextBackend struct {
	sections *annotations.SectionParser
}

// NewTextBackend creates a new text backend
func NewTextBackend() *TextBackend {
	return &TextBackend{sections: annotations.NewSectionParser()}
}

// Name returns the backend name
func (b *TextBackend) Name() string {
	return BackendText
}

// Parse scans src into a SourceUnit
func (b *TextBackend) Parse(ctx context.Context, src []byte) (*models.SourceUnit, error) {
	s := &textScanner{
		src:      src,
		skel:     skeleton(src),
		sections: b.sections,
		unit:     &models.SourceUnit{Text: src, Backend: BackendText},
	}
	if err := s.run(ctx); err != nil {
		return nil, err
	}
	return s.unit, nil
}

type frameKind int

const (
	frameTop frameKind = iota
	frameNamespace
	frameClass
)

type frame struct {
	kind frameKind
	decl *models.Declaration
}

type terminator int

const (
	termEOF terminator = iota
	termBrace
	termSemi
	termArrow
	termAssign
	termClose
)

type textScanner struct {
	src      []byte
	skel     []byte
	sections *annotations.SectionParser
	unit     *models.SourceUnit
	stack    []frame
}

func (s *textScanner) run(ctx context.Context) error {
	s.stack = []frame{{kind: frameTop}}
	pos := bomLength(s.src)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		pos = s.skipSpace(pos)
		if pos >= len(s.skel) {
			break
		}

		switch s.skel[pos] {
		case '}':
			s.pop(pos)
			pos++
			continue
		case ';', ',':
			pos++
			continue
		}

		groups, next, err := s.attributeGroups(pos)
		if err != nil {
			return err
		}
		pos = s.skipSpace(next)
		if pos >= len(s.skel) {
			break
		}
		if s.skel[pos] == '}' {
			continue
		}

		end, term := s.header(pos)
		header := strings.TrimSpace(string(s.skel[pos:end]))
		pos = s.declaration(pos, end, term, header, groups)
	}

	for len(s.stack) > 1 {
		s.pop(len(s.skel) - 1)
	}
	return nil
}

// declaration handles one declaration-level construct and returns the
// offset to continue scanning from.
func (s *textScanner) declaration(start, end int, term terminator, header string, groups []models.AttributeGroup) int {
	current := s.stack[len(s.stack)-1]

	switch term {
	case termEOF:
		return len(s.skel)
	case termClose:
		return end
	case termSemi:
		if current.kind != frameClass {
			if imp, ok := parseUsing(header); ok {
				imp.Span = models.Span{Start: start, End: end + 1}
				s.unit.Imports = append(s.unit.Imports, imp)
			}
		}
		return end + 1
	case termAssign:
		return s.statementEnd(end)
	case termArrow:
		stop := s.statementEnd(end)
		if current.kind == frameClass {
			if typ, name, ok := parsePropertyHeader(header); ok {
				current.decl.Members = append(current.decl.Members, &models.Member{
					Name:            name,
					DeclaredType:    typ,
					HasReadAccessor: true,
					Groups:          groups,
					Span:            models.Span{Start: anchor(groups, start), End: stop},
					DeclStart:       start,
				})
			}
		}
		return stop
	}

	// termBrace
	if namespaceRe.MatchString(header) && current.kind != frameClass {
		s.stack = append(s.stack, frame{kind: frameNamespace})
		return end + 1
	}

	if m := classHeaderRe.FindStringSubmatchIndex(header); m != nil {
		decl := s.classDeclaration(start, end, m)
		decl.Groups = groups
		decl.DeclStart = start
		decl.Span = models.Span{Start: anchor(groups, start), End: len(s.skel)}
		decl.Nested = s.inClass()
		s.unit.Declarations = append(s.unit.Declarations, decl)
		s.stack = append(s.stack, frame{kind: frameClass, decl: decl})
		return end + 1
	}

	closeAt := matchClose(s.skel, end)
	if closeAt < 0 {
		return len(s.skel)
	}

	if current.kind == frameClass && !otherTypeRe.MatchString(header) {
		if typ, name, ok := parsePropertyHeader(header); ok {
			read, write := scanAccessors(s.skel[end+1 : closeAt])
			stop := closeAt + 1
			if next := s.skipSpace(stop); next < len(s.skel) && s.skel[next] == '=' && !(next+1 < len(s.skel) && s.skel[next+1] == '>') {
				stop = s.statementEnd(next)
			}
			current.decl.Members = append(current.decl.Members, &models.Member{
				Name:             name,
				DeclaredType:     typ,
				HasReadAccessor:  read,
				HasWriteAccessor: write,
				Groups:           groups,
				Span:             models.Span{Start: anchor(groups, start), End: stop},
				DeclStart:        start,
			})
			return stop
		}
	}

	return closeAt + 1
}

// classDeclaration builds a Declaration from a class header. m holds the
// classHeaderRe submatch indices relative to headerStart.
func (s *textScanner) classDeclaration(headerStart, end int, m []int) *models.Declaration {
	decl := &models.Declaration{
		Name: strings.TrimPrefix(string(s.skel[headerStart+m[4]:headerStart+m[5]]), "@"),
	}

	p := headerStart + m[5]
	decl.BaseInsertAt = p
	if q := s.skipSpace(p); q < end && s.skel[q] == '<' {
		if c := matchClose(s.skel, q); c >= 0 && c < end {
			p = c + 1
			decl.BaseInsertAt = p
		}
	}
	if q := s.skipSpace(p); q < end && s.skel[q] == '(' {
		if c := matchClose(s.skel, q); c >= 0 && c < end {
			p = c + 1
			decl.BaseInsertAt = p
		}
	}

	q := s.skipSpace(p)
	if q >= end || s.skel[q] != ':' {
		return decl
	}
	limit := end
	if w := whereRe.FindIndex(s.skel[q:end]); w != nil {
		limit = q + w[0]
	}
	decl.BaseTypes = s.splitBases(q+1, limit)
	return decl
}

// splitBases splits the base list between from and to on top-level commas
func (s *textScanner) splitBases(from, to int) []models.BaseType {
	var bases []models.BaseType
	depth := 0
	segStart := from
	emit := func(a, b int) {
		for a < b && isSpace(s.skel[a]) {
			a++
		}
		for b > a && isSpace(s.skel[b-1]) {
			b--
		}
		if a < b {
			bases = append(bases, models.BaseType{
				Name: compact(string(s.skel[a:b])),
				Span: models.Span{Start: a, End: b},
			})
		}
	}
	for i := from; i < to; i++ {
		switch s.skel[i] {
		case '<', '(', '[':
			depth++
		case '>', ')', ']':
			depth--
		case ',':
			if depth == 0 {
				emit(segStart, i)
				segStart = i + 1
			}
		}
	}
	emit(segStart, to)
	return bases
}

// attributeGroups parses consecutive attribute sections starting at pos.
// Assembly and module sections are consumed but not returned.
func (s *textScanner) attributeGroups(pos int) ([]models.AttributeGroup, int, error) {
	var groups []models.AttributeGroup
	for {
		pos = s.skipSpace(pos)
		if pos >= len(s.skel) || s.skel[pos] != '[' {
			return groups, pos, nil
		}
		closeAt := matchClose(s.skel, pos)
		if closeAt < 0 {
			raw := string(s.src[pos:lineEnd(s.src, pos)])
			return nil, pos, errors.NewMalformedAnnotationError(raw, pos, fmt.Errorf("attribute section is not closed"))
		}
		group, err := s.sections.Parse(string(s.src[pos:closeAt+1]), pos)
		if err != nil {
			return nil, pos, err
		}
		if group.Target != "assembly" && group.Target != "module" {
			groups = append(groups, group)
		}
		pos = closeAt + 1
	}
}

// header finds the end of a declaration header: the first '{', ';', '=>'
// or '=' outside parentheses and brackets.
func (s *textScanner) header(pos int) (int, terminator) {
	depth := 0
	for i := pos; i < len(s.skel); i++ {
		c := s.skel[i]
		switch c {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case '{':
			if depth <= 0 {
				return i, termBrace
			}
		case '}':
			if depth <= 0 {
				return i, termClose
			}
		case ';':
			if depth <= 0 {
				return i, termSemi
			}
		case '=':
			if depth > 0 {
				continue
			}
			next := byte(0)
			if i+1 < len(s.skel) {
				next = s.skel[i+1]
			}
			prev := byte(0)
			if i > pos {
				prev = s.skel[i-1]
			}
			if next == '>' {
				return i, termArrow
			}
			if next != '=' && prev != '=' && prev != '!' && prev != '<' && prev != '>' {
				return i, termAssign
			}
		}
	}
	return len(s.skel), termEOF
}

// statementEnd returns the offset after the ';' ending the statement that
// contains pos, skipping nested braces and parentheses.
func (s *textScanner) statementEnd(pos int) int {
	depth := 0
	for i := pos; i < len(s.skel); i++ {
		switch s.skel[i] {
		case '(', '[', '{':
			depth++
		case ')', ']':
			depth--
		case '}':
			if depth == 0 {
				return i
			}
			depth--
		case ';':
			if depth <= 0 {
				return i + 1
			}
		}
	}
	return len(s.skel)
}

func (s *textScanner) pop(closeAt int) {
	if len(s.stack) <= 1 {
		return
	}
	top := s.stack[len(s.stack)-1]
	if top.kind == frameClass {
		top.decl.Span.End = closeAt + 1
	}
	s.stack = s.stack[:len(s.stack)-1]
}

func (s *textScanner) inClass() bool {
	for _, f := range s.stack {
		if f.kind == frameClass {
			return true
		}
	}
	return false
}

func (s *textScanner) skipSpace(pos int) int {
	for pos < len(s.skel) && isSpace(s.skel[pos]) {
		pos++
	}
	return pos
}

func anchor(groups []models.AttributeGroup, declStart int) int {
	if len(groups) > 0 {
		return groups[0].Span.Start
	}
	return declStart
}

// parsePropertyHeader splits "modifiers Type Name" into type and name
func parsePropertyHeader(header string) (string, string, bool) {
	rest := strings.TrimSpace(header[len(modifiersRe.FindString(header)):])
	m := trailingIdent.FindStringSubmatchIndex(rest)
	if m == nil {
		return "", "", false
	}
	name := strings.TrimPrefix(rest[m[2]:m[3]], "@")
	typ := strings.TrimSpace(rest[:m[0]])
	if typ == "" || strings.HasSuffix(typ, ".") || strings.ContainsAny(typ, "=;{}") {
		return "", "", false
	}
	if strings.Contains(strings.ReplaceAll(typ, "::", ""), ":") {
		return "", "", false
	}
	if strings.Contains(typ, "(") && !strings.HasPrefix(typ, "(") {
		return "", "", false
	}
	if first := strings.Fields(typ)[0]; nonPropertyTypes[first] {
		return "", "", false
	}
	return typ, name, true
}

// scanAccessors reports which accessors an accessor list body declares
func scanAccessors(body []byte) (read, write bool) {
	i := 0
	for i < len(body) {
		for i < len(body) && isSpace(body[i]) {
			i++
		}
		if i >= len(body) {
			break
		}
		if body[i] == '[' {
			if c := matchClose(body, i); c >= 0 {
				i = c + 1
				continue
			}
			break
		}
		if !isIdentStart(body[i]) {
			i++
			continue
		}
		j := i + 1
		for j < len(body) && isIdentPart(body[j]) {
			j++
		}
		word := string(body[i:j])
		i = j
		if accessorModifiers[word] {
			continue
		}
		switch word {
		case "get":
			read = true
		case "set":
			write = true
		}

		k := i
		for k < len(body) && isSpace(body[k]) {
			k++
		}
		switch {
		case k >= len(body):
			i = k
		case body[k] == ';':
			i = k + 1
		case body[k] == '{':
			if c := matchClose(body, k); c >= 0 {
				i = c + 1
			} else {
				i = len(body)
			}
		case body[k] == '=' && k+1 < len(body) && body[k+1] == '>':
			i = k + 2
			for i < len(body) && body[i] != ';' {
				i++
			}
			i++
		default:
			i = k
		}
	}
	return read, write
}
