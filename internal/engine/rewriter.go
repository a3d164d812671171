package engine

import (
	"strings"

	"github.com/toyz/serupd/internal/annotations"
	"github.com/toyz/serupd/internal/models"
)

// propertyEdits returns the display attribute edits for every eligible
// member whose key has a comment, and the names of those members.
func (e *Engine) propertyEdits(src []byte, members []*models.Member, comments *models.ColumnCommentMap) ([]Edit, []string) {
	var edits []Edit
	var updated []string
	for _, m := range members {
		comment, ok := comments.Lookup(m.Key)
		if !ok {
			continue
		}
		edit, changed := e.displayEdit(src, m, comment)
		if !changed {
			continue
		}
		edits = append(edits, edit)
		updated = append(updated, m.Name)
	}
	return edits, updated
}

func (e *Engine) displayEdit(src []byte, m *models.Member, display string) (Edit, bool) {
	list := m.Annotations()
	if i := annotations.Find(list, e.opts.DisplayAnnotation); i >= 0 {
		existing := list[i]
		if value, ok := annotations.KeyValue(existing.ArgumentText); ok && value == display {
			return Edit{}, false
		}
		return Edit{
			Start: existing.Span.Start,
			End:   existing.Span.End,
			Text:  annotations.Render(existing.Name, annotations.Quote(display)),
		}, true
	}

	attr := annotations.Render(e.opts.DisplayAnnotation, annotations.Quote(display))
	if e.opts.Placement == FirstGroup && len(m.Groups) > 0 {
		return appendToGroup(src, m.Groups[0], attr), true
	}
	return insertBefore(src, m.AnchorOffset(), "["+attr+"]"), true
}

// appendToGroup adds attr as the last entry of group, reusing a trailing
// comma when the section already ends with one.
func appendToGroup(src []byte, group models.AttributeGroup, attr string) Edit {
	closing := group.CloseBracket()
	prev := closing
	for prev > group.Span.Start+1 && isBlank(src[prev-1]) {
		prev--
	}
	switch {
	case len(group.Annotations) == 0:
		return Edit{Start: prev, End: prev, Text: attr}
	case src[prev-1] == ',':
		return Edit{Start: prev, End: closing, Text: " " + attr}
	}
	return Edit{Start: prev, End: prev, Text: ", " + attr}
}

// classTemplate returns the class attribute updates for display
func (e *Engine) classTemplate(display string) map[string]string {
	return map[string]string{
		AttrDisplayName:             annotations.Quote(display),
		AttrInstanceName:            annotations.Quote(display),
		AttrReadPermission:          annotations.Quote(display + e.opts.ReadSuffix),
		AttrModifyPermission:        annotations.Quote(display + e.opts.ModifySuffix),
		AttrServiceLookupPermission: annotations.Quote(display + e.opts.LookupSuffix),
		AttrLookupScript:            "",
		AttrDataAuditLog:            "",
	}
}

// classAttributeEdits re-renders the class attribute region when the
// merged list differs from the existing one. Each attribute gets its own
// section; comments found between the old sections are kept above them.
func (e *Engine) classAttributeEdits(src []byte, decl *models.Declaration, display string) ([]Edit, []string) {
	existing := decl.Annotations()
	merged := annotations.Merge(existing, e.classTemplate(display), ClassAttributeOrder, e.opts.Order)
	if annotations.Equal(existing, merged) {
		return nil, nil
	}

	var changed []string
	for _, name := range ClassAttributeOrder {
		i, j := annotations.Find(existing, name), annotations.Find(merged, name)
		if i < 0 || annotations.Text(existing[i]) != annotations.Text(merged[j]) {
			changed = append(changed, name)
		}
	}

	var lines []string
	for i := 1; i < len(decl.Groups); i++ {
		lines = append(lines, gapComments(src, decl.Groups[i-1].Span.End, decl.Groups[i].Span.Start)...)
	}
	for _, a := range merged {
		lines = append(lines, "["+annotations.Text(a)+"]")
	}

	if len(decl.Groups) == 0 {
		anchor := decl.DeclStart
		sep := " "
		if firstOnLine(src, anchor) {
			sep = newline(src) + indentAt(src, anchor)
		}
		return []Edit{insertBefore(src, anchor, strings.Join(lines, sep))}, changed
	}

	first, last := decl.Groups[0], decl.Groups[len(decl.Groups)-1]
	sep := " "
	if firstOnLine(src, first.Span.Start) {
		sep = newline(src) + indentAt(src, first.Span.Start)
	}
	return []Edit{{
		Start: first.Span.Start,
		End:   last.Span.End,
		Text:  strings.Join(lines, sep),
	}}, changed
}

// auditEdit adds the audit marker interface to a row class that has the
// audit properties but does not implement it yet.
func (e *Engine) auditEdit(decl *models.Declaration) (Edit, bool) {
	iface := e.opts.AuditInterface
	if !strings.HasSuffix(decl.Name, e.opts.RowSuffix) ||
		!HasAuditShape(decl.Members) ||
		implementsInterface(decl, iface) {
		return Edit{}, false
	}
	if n := len(decl.BaseTypes); n > 0 {
		end := decl.BaseTypes[n-1].Span.End
		return Edit{Start: end, End: end, Text: ", " + iface}, true
	}
	return Edit{Start: decl.BaseInsertAt, End: decl.BaseInsertAt, Text: " : " + iface}, true
}

// usingEdit adds the support namespace import unless the unit already
// imports it by that exact name.
func (e *Engine) usingEdit(src []byte, unit *models.SourceUnit) (Edit, bool) {
	ns := e.opts.SupportNamespace
	if unit.HasImport(ns) {
		return Edit{}, false
	}
	directive := "using " + ns + ";"
	nl := newline(src)
	if n := len(unit.Imports); n > 0 {
		last := unit.Imports[n-1]
		return Edit{
			Start: last.Span.End,
			End:   last.Span.End,
			Text:  nl + indentAt(src, last.Span.Start) + directive,
		}, true
	}
	at := bomLength(src)
	return Edit{Start: at, End: at, Text: directive + nl + nl}, true
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}
