package engine

import (
	"strings"

	"github.com/toyz/serupd/internal/models"
)

// HasAuditShape reports whether members contain CreatedAt, CreatedBy,
// UpdatedAt and UpdatedBy with timestamp and text types, each readable and
// writable.
func HasAuditShape(members []*models.Member) bool {
	return hasMember(members, "CreatedAt", isNullableTimestamp) &&
		hasMember(members, "CreatedBy", isText) &&
		hasMember(members, "UpdatedAt", isNullableTimestamp) &&
		hasMember(members, "UpdatedBy", isText)
}

func hasMember(members []*models.Member, name string, typeOK func(string) bool) bool {
	for _, m := range members {
		if m.Name == name && m.Eligible() {
			return typeOK(compactType(m.DeclaredType))
		}
	}
	return false
}

func isNullableTimestamp(t string) bool {
	switch t {
	case "DateTime?", "System.DateTime?",
		"Nullable<DateTime>", "Nullable<System.DateTime>",
		"System.Nullable<DateTime>", "System.Nullable<System.DateTime>":
		return true
	}
	return false
}

func isText(t string) bool {
	switch t {
	case "string", "String", "System.String", "string?":
		return true
	}
	return false
}

// implementsInterface reports whether the base list names iface, either
// plainly or qualified.
func implementsInterface(decl *models.Declaration, iface string) bool {
	for _, base := range decl.BaseTypes {
		if base.Name == iface || strings.HasSuffix(base.Name, "."+iface) {
			return true
		}
	}
	return false
}

func compactType(t string) string {
	t = strings.Join(strings.Fields(t), "")
	return strings.TrimPrefix(t, "global::")
}
