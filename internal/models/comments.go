package models

import "strings"

// ColumnCommentMap maps column identifiers to comment text. Lookups ignore
// case and blank comments are never stored.
type ColumnCommentMap struct {
	entries map[string]columnComment
	order   []string
}

type columnComment struct {
	column  string
	comment string
}

// NewColumnCommentMap creates a map from the given column→comment pairs
func NewColumnCommentMap(pairs map[string]string) *ColumnCommentMap {
	m := &ColumnCommentMap{entries: make(map[string]columnComment)}
	for column, comment := range pairs {
		m.Set(column, comment)
	}
	return m
}

// Set stores comment for column, replacing any entry that differs only by
// case. Blank comments are ignored.
func (m *ColumnCommentMap) Set(column, comment string) {
	comment = strings.TrimSpace(comment)
	if comment == "" || column == "" {
		return
	}
	if m.entries == nil {
		m.entries = make(map[string]columnComment)
	}
	key := strings.ToLower(column)
	if _, exists := m.entries[key]; !exists {
		m.order = append(m.order, key)
	}
	m.entries[key] = columnComment{column: column, comment: comment}
}

// Lookup returns the comment stored for column, ignoring case
func (m *ColumnCommentMap) Lookup(column string) (string, bool) {
	if m == nil {
		return "", false
	}
	entry, ok := m.entries[strings.ToLower(column)]
	return entry.comment, ok
}

// Len returns the number of stored comments
func (m *ColumnCommentMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// IsEmpty reports whether there is nothing to synchronize
func (m *ColumnCommentMap) IsEmpty() bool {
	return m.Len() == 0
}

// Columns returns the stored column names, as first written, in insertion order
func (m *ColumnCommentMap) Columns() []string {
	if m == nil {
		return nil
	}
	out := make([]string, 0, len(m.order))
	for _, key := range m.order {
		out = append(out, m.entries[key].column)
	}
	return out
}
