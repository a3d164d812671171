package annotations

import (
	"fmt"
	"sort"
	"strings"

	"github.com/toyz/serupd/internal/models"
)

// OrderPolicy decides where attributes missing from the preferred order go
type OrderPolicy int

const (
	// KnownFirst places preferred names first, then the rest sorted by name
	KnownFirst OrderPolicy = iota
	// UnknownFirst places names outside the preferred order first, sorted,
	// followed by the preferred names in order
	UnknownFirst
)

// String returns the flag spelling of the policy
func (p OrderPolicy) String() string {
	switch p {
	case UnknownFirst:
		return "unknown-first"
	default:
		return "known-first"
	}
}

// ParseOrderPolicy parses the flag spelling of an ordering policy
func ParseOrderPolicy(s string) (OrderPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "known-first", "knownfirst":
		return KnownFirst, nil
	case "unknown-first", "unknownfirst":
		return UnknownFirst, nil
	default:
		return KnownFirst, fmt.Errorf("unknown order policy %q (expected known-first or unknown-first)", s)
	}
}

// Render returns the source form of an attribute. Attributes without
// argument text render without a parameter list.
func Render(name, argumentText string) string {
	if argumentText == "" {
		return name
	}
	return name + "(" + argumentText + ")"
}

// WithArguments returns a copy of a whose argument text is replaced. The raw
// text is kept when the arguments are unchanged.
func WithArguments(a models.Annotation, argumentText string) models.Annotation {
	if a.ArgumentText == argumentText && a.Raw != "" {
		return a
	}
	a.ArgumentText = argumentText
	a.HasArguments = argumentText != ""
	a.Raw = Render(a.Name, argumentText)
	return a
}

// Dedupe drops every annotation whose normalized name already occurred.
// The first occurrence wins.
func Dedupe(existing []models.Annotation) []models.Annotation {
	seen := make(map[string]bool, len(existing))
	out := make([]models.Annotation, 0, len(existing))
	for _, a := range existing {
		key := Normalize(a.Name)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, a)
	}
	return out
}

// Merge applies updates (attribute name → argument text) to existing and
// returns the merged list in canonical order. Existing attributes absent
// from updates are preserved unchanged. Matching is by normalized name and
// the result is independent of the order of existing.
func Merge(existing []models.Annotation, updates map[string]string, preferredOrder []string, policy OrderPolicy) []models.Annotation {
	working := Dedupe(existing)
	index := make(map[string]int, len(working))
	for i, a := range working {
		index[Normalize(a.Name)] = i
	}

	names := make([]string, 0, len(updates))
	for name := range updates {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		args := updates[name]
		key := Normalize(name)
		if i, ok := index[key]; ok {
			working[i] = WithArguments(working[i], args)
			continue
		}
		index[key] = len(working)
		working = append(working, models.Annotation{
			Name:         name,
			ArgumentText: args,
			HasArguments: args != "",
			Raw:          Render(name, args),
		})
	}

	return Order(working, preferredOrder, policy)
}

// Order sorts annotations by the preferred order and policy. Names absent
// from preferredOrder are sorted by ordinal comparison of their normalized
// form.
func Order(list []models.Annotation, preferredOrder []string, policy OrderPolicy) []models.Annotation {
	rank := make(map[string]int, len(preferredOrder))
	for i, name := range preferredOrder {
		key := Normalize(name)
		if _, dup := rank[key]; !dup {
			rank[key] = i
		}
	}

	var known, unknown []models.Annotation
	for _, a := range list {
		if _, ok := rank[Normalize(a.Name)]; ok {
			known = append(known, a)
		} else {
			unknown = append(unknown, a)
		}
	}

	sort.SliceStable(known, func(i, j int) bool {
		return rank[Normalize(known[i].Name)] < rank[Normalize(known[j].Name)]
	})
	sort.SliceStable(unknown, func(i, j int) bool {
		return Normalize(unknown[i].Name) < Normalize(unknown[j].Name)
	})

	out := make([]models.Annotation, 0, len(list))
	if policy == UnknownFirst {
		out = append(out, unknown...)
		return append(out, known...)
	}
	out = append(out, known...)
	return append(out, unknown...)
}

// Equal reports whether two attribute lists render to the same text in
// the same order.
func Equal(a, b []models.Annotation) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if Text(a[i]) != Text(b[i]) {
			return false
		}
	}
	return true
}

// Text returns the source text of an annotation
func Text(a models.Annotation) string {
	if a.Raw != "" {
		return a.Raw
	}
	return Render(a.Name, a.ArgumentText)
}

// Find returns the index of the first annotation named like name, or -1
func Find(list []models.Annotation, name string) int {
	key := Normalize(name)
	for i, a := range list {
		if Normalize(a.Name) == key {
			return i
		}
	}
	return -1
}
