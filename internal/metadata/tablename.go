package metadata

import "strings"

// TableRef is a schema-qualified table name
type TableRef struct {
	Schema string
	Name   string
}

// String returns schema.name
func (t TableRef) String() string {
	return t.Schema + "." + t.Name
}

// ParseTableName strips identifier quoting from name and splits off the
// schema. PostgreSQL names default to the public schema and are folded to
// lower case; SQL Server names default to dbo and keep their case.
func ParseTableName(name string, provider Provider) TableRef {
	clean := strings.NewReplacer(`"`, "", "'", "", "`", "", "[", "", "]", "").Replace(strings.TrimSpace(name))

	ref := TableRef{Name: clean}
	if parts := strings.Split(clean, "."); len(parts) == 2 {
		ref = TableRef{Schema: parts[0], Name: parts[1]}
	}

	switch provider {
	case PostgreSQL:
		if ref.Schema == "" {
			ref.Schema = "public"
		}
		ref.Schema = strings.ToLower(ref.Schema)
		ref.Name = strings.ToLower(ref.Name)
	case SQLServer:
		if ref.Schema == "" {
			ref.Schema = "dbo"
		}
	}
	return ref
}
