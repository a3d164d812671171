package engine

import (
	"fmt"
	"strings"

	"github.com/toyz/serupd/internal/annotations"
)

// Placement decides where a new display attribute goes on a property
type Placement int

const (
	// NewGroup inserts a separate [DisplayName(...)] section in front of
	// the property's first attribute section
	NewGroup Placement = iota
	// FirstGroup appends the attribute to the property's first section
	FirstGroup
)

// String returns the flag spelling of the placement
func (p Placement) String() string {
	if p == FirstGroup {
		return "first-group"
	}
	return "new-group"
}

// ParsePlacement parses the flag spelling of a placement
func ParsePlacement(s string) (Placement, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "new-group", "newgroup":
		return NewGroup, nil
	case "first-group", "firstgroup":
		return FirstGroup, nil
	default:
		return NewGroup, fmt.Errorf("unknown placement %q (expected new-group or first-group)", s)
	}
}

// Class attribute names written by SyncClass, in their canonical order
const (
	AttrDisplayName             = "DisplayName"
	AttrInstanceName            = "InstanceName"
	AttrReadPermission          = "ReadPermission"
	AttrModifyPermission        = "ModifyPermission"
	AttrServiceLookupPermission = "ServiceLookupPermission"
	AttrLookupScript            = "LookupScript"
	AttrDataAuditLog            = "DataAuditLog"
)

// ClassAttributeOrder is the preferred order of the class attribute template
var ClassAttributeOrder = []string{
	AttrDisplayName,
	AttrInstanceName,
	AttrReadPermission,
	AttrModifyPermission,
	AttrServiceLookupPermission,
	AttrLookupScript,
	AttrDataAuditLog,
}

// Options holds the naming conventions the engine matches against
type Options struct {
	RowSuffix        string // class name suffix of row classes
	FieldsBaseSuffix string // base type suffix marking field companion classes
	FallbackExclude  string // substring excluded by the fallback locator tier

	KeyAnnotation           string // property attribute holding the column name
	DisplayAnnotation       string // property attribute holding the display text
	ConnectionKeyAnnotation string
	TableNameAnnotation     string

	AuditInterface   string // marker interface added to audited rows
	SupportNamespace string // using directive required by the class attributes

	ReadSuffix   string
	ModifySuffix string
	LookupSuffix string

	Placement Placement
	Order     annotations.OrderPolicy
}

// DefaultOptions returns the conventions of Serenity-style row classes
func DefaultOptions() Options {
	return Options{
		RowSuffix:               "Row",
		FieldsBaseSuffix:        "RowFieldsBase",
		FallbackExclude:         "RowFields",
		KeyAnnotation:           "Column",
		DisplayAnnotation:       "DisplayName",
		ConnectionKeyAnnotation: "ConnectionKey",
		TableNameAnnotation:     "TableName",
		AuditInterface:          "IAuditableRow",
		SupportNamespace:        "EnterpriseOne.Behaviors",
		ReadSuffix:              ":讀取",
		ModifySuffix:            ":修改",
		LookupSuffix:            ":查表",
		Placement:               NewGroup,
		Order:                   annotations.KnownFirst,
	}
}

// withDefaults fills empty naming fields from DefaultOptions
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&o.RowSuffix, d.RowSuffix)
	fill(&o.FieldsBaseSuffix, d.FieldsBaseSuffix)
	fill(&o.FallbackExclude, d.FallbackExclude)
	fill(&o.KeyAnnotation, d.KeyAnnotation)
	fill(&o.DisplayAnnotation, d.DisplayAnnotation)
	fill(&o.ConnectionKeyAnnotation, d.ConnectionKeyAnnotation)
	fill(&o.TableNameAnnotation, d.TableNameAnnotation)
	fill(&o.AuditInterface, d.AuditInterface)
	fill(&o.SupportNamespace, d.SupportNamespace)
	return o
}
