package models

// Span is a half-open byte range [Start, End) into a SourceUnit's text.
type Span struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by the span
func (s Span) Len() int {
	return s.End - s.Start
}

// Text returns the bytes of src covered by the span as a string
func (s Span) Text(src []byte) string {
	if s.Start < 0 || s.End > len(src) || s.Start > s.End {
		return ""
	}
	return string(src[s.Start:s.End])
}

// Contains reports whether offset lies within the span
func (s Span) Contains(offset int) bool {
	return offset >= s.Start && offset < s.End
}

// Annotation represents a single attribute inside an attribute group
type Annotation struct {
	Name         string // name as written, possibly qualified (System.ComponentModel.DisplayName)
	ArgumentText string // raw text between the parentheses, "" for the no-argument form
	HasArguments bool   // whether a parameter list was written, even an empty one
	Span         Span   // span of the whole annotation within its group
	Raw          string // exact source text of the annotation
}

// AttributeGroup is one bracketed attribute section such as [A, B(x)]
type AttributeGroup struct {
	Target      string       // optional target specifier (return, assembly, ...)
	Annotations []Annotation // annotations in source order
	Span        Span         // from '[' through ']'
}

// CloseBracket returns the offset of the group's closing bracket
func (g AttributeGroup) CloseBracket() int {
	return g.Span.End - 1
}

// Member represents a property declared directly inside a Declaration
type Member struct {
	Name             string
	DeclaredType     string
	HasReadAccessor  bool
	HasWriteAccessor bool
	Groups           []AttributeGroup
	Span             Span // whole declaration including attribute groups
	DeclStart        int  // first byte after the attribute groups
	Key              string
}

// Annotations returns the member's annotations flattened across groups
func (m *Member) Annotations() []Annotation {
	return flatten(m.Groups)
}

// Eligible reports whether the member carries both accessors
func (m *Member) Eligible() bool {
	return m.HasReadAccessor && m.HasWriteAccessor
}

// AnchorOffset returns where new leading attributes are attached: the first
// attribute group, or the declaration itself when it has none.
func (m *Member) AnchorOffset() int {
	if len(m.Groups) > 0 {
		return m.Groups[0].Span.Start
	}
	return m.DeclStart
}

// BaseType is one entry of a declaration's base list
type BaseType struct {
	Name string // type reference as written, whitespace removed
	Span Span
}

// Declaration represents a class definition found in a SourceUnit
type Declaration struct {
	Name         string
	BaseTypes    []BaseType
	Groups       []AttributeGroup
	Members      []*Member
	Span         Span // whole declaration including attribute groups
	DeclStart    int  // first byte after the attribute groups (modifiers or keyword)
	BaseInsertAt int  // where " : X" goes when the base list is empty
	Nested       bool // declared inside another class
}

// Annotations returns the class annotations flattened across groups
func (d *Declaration) Annotations() []Annotation {
	return flatten(d.Groups)
}

// BaseNames returns the base type references in declaration order
func (d *Declaration) BaseNames() []string {
	names := make([]string, len(d.BaseTypes))
	for i, b := range d.BaseTypes {
		names[i] = b.Name
	}
	return names
}

// AnchorOffset returns where new class attributes are attached
func (d *Declaration) AnchorOffset() int {
	if len(d.Groups) > 0 {
		return d.Groups[0].Span.Start
	}
	return d.DeclStart
}

// Import is a using directive
type Import struct {
	Name   string // namespace or type name, fully qualified as written
	Alias  string // alias for "using X = Y;" forms
	Static bool
	Global bool
	Span   Span
}

// SourceUnit is the parsed form of one C# file
type SourceUnit struct {
	Text         []byte
	Imports      []Import
	Declarations []*Declaration // classes in document order, nested ones included
	Backend      string         // name of the backend that produced the unit
}

// HasImport reports whether a plain using directive for name exists.
// The comparison is exact and case-sensitive.
func (u *SourceUnit) HasImport(name string) bool {
	for _, imp := range u.Imports {
		if imp.Alias == "" && !imp.Static && imp.Name == name {
			return true
		}
	}
	return false
}

func flatten(groups []AttributeGroup) []Annotation {
	var out []Annotation
	for _, g := range groups {
		out = append(out, g.Annotations...)
	}
	return out
}
