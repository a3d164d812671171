package annotations

import "strings"

// AttributeSuffix is the conventional suffix that may be omitted when an
// attribute is applied.
const AttributeSuffix = "Attribute"

// Normalize returns the comparison form of an attribute name: the last
// segment of a qualified name with the Attribute suffix removed.
//
//	global::System.ComponentModel.DisplayNameAttribute -> DisplayName
//	DisplayName                                        -> DisplayName
func Normalize(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndex(name, "::"); i >= 0 {
		name = name[i+2:]
	}
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimPrefix(name, "@")
	if len(name) > len(AttributeSuffix) && strings.HasSuffix(name, AttributeSuffix) {
		name = name[:len(name)-len(AttributeSuffix)]
	}
	return name
}

// Same reports whether two attribute names refer to the same attribute.
// Comparison is case-sensitive.
func Same(a, b string) bool {
	return Normalize(a) == Normalize(b)
}
