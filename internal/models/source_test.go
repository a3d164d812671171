package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpan_Text(t *testing.T) {
	src := []byte("[Column(\"id\")]")

	assert.Equal(t, "Column(\"id\")", Span{Start: 1, End: 13}.Text(src))
	assert.Equal(t, "", Span{Start: 5, End: 100}.Text(src))
	assert.Equal(t, "", Span{Start: 6, End: 2}.Text(src))
	assert.Equal(t, 12, Span{Start: 1, End: 13}.Len())
	assert.True(t, Span{Start: 1, End: 3}.Contains(2))
	assert.False(t, Span{Start: 1, End: 3}.Contains(3))
}

func TestDeclaration_AnnotationsFlattensGroups(t *testing.T) {
	decl := &Declaration{
		Name: "OrderRow",
		Groups: []AttributeGroup{
			{Annotations: []Annotation{{Name: "ConnectionKey"}, {Name: "TableName"}}},
			{Annotations: []Annotation{{Name: "DisplayName"}}},
		},
		BaseTypes: []BaseType{{Name: "Row<OrderRow.RowFields>"}, {Name: "IIdRow"}},
		DeclStart: 40,
	}

	var names []string
	for _, a := range decl.Annotations() {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{"ConnectionKey", "TableName", "DisplayName"}, names)
	assert.Equal(t, []string{"Row<OrderRow.RowFields>", "IIdRow"}, decl.BaseNames())
}

func TestAnchorOffset(t *testing.T) {
	m := &Member{DeclStart: 30}
	assert.Equal(t, 30, m.AnchorOffset())

	m.Groups = []AttributeGroup{{Span: Span{Start: 10, End: 20}}}
	assert.Equal(t, 10, m.AnchorOffset())

	d := &Declaration{DeclStart: 8}
	assert.Equal(t, 8, d.AnchorOffset())
}

func TestMember_Eligible(t *testing.T) {
	tests := []struct {
		name  string
		read  bool
		write bool
		want  bool
	}{
		{"read and write", true, true, true},
		{"read only", true, false, false},
		{"write only", false, true, false},
		{"neither", false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Member{HasReadAccessor: tt.read, HasWriteAccessor: tt.write}
			assert.Equal(t, tt.want, m.Eligible())
		})
	}
}

func TestSourceUnit_HasImport(t *testing.T) {
	unit := &SourceUnit{
		Imports: []Import{
			{Name: "System"},
			{Name: "EnterpriseOne.Behaviors", Static: true},
			{Name: "Serenity.Data", Alias: "SD"},
		},
	}

	assert.True(t, unit.HasImport("System"))
	assert.False(t, unit.HasImport("system"))
	assert.False(t, unit.HasImport("EnterpriseOne.Behaviors"))
	assert.False(t, unit.HasImport("Serenity.Data"))
}

func TestColumnCommentMap(t *testing.T) {
	m := NewColumnCommentMap(map[string]string{
		"cust_id": "Customer ID",
		"blank":   "   ",
	})

	comment, ok := m.Lookup("CUST_ID")
	assert.True(t, ok)
	assert.Equal(t, "Customer ID", comment)

	_, ok = m.Lookup("blank")
	assert.False(t, ok, "blank comments must not be stored")
	assert.Equal(t, 1, m.Len())

	m.Set("Cust_Id", "  Customer  ")
	comment, _ = m.Lookup("cust_id")
	assert.Equal(t, "Customer", comment)
	assert.Equal(t, []string{"Cust_Id"}, m.Columns())

	var empty *ColumnCommentMap
	assert.True(t, empty.IsEmpty())
	_, ok = empty.Lookup("x")
	assert.False(t, ok)
}
