package engine

import (
	"github.com/toyz/serupd/internal/annotations"
	"github.com/toyz/serupd/internal/models"
)

// Extract returns the class annotations of decl and its eligible members.
// Each returned member has Key resolved from keyAnnotation: the decoded
// value of a string literal, any other expression verbatim, or the
// member name when the attribute or its argument is absent.
func Extract(decl *models.Declaration, keyAnnotation string) ([]models.Annotation, []*models.Member) {
	var members []*models.Member
	for _, m := range decl.Members {
		if !m.Eligible() {
			continue
		}
		m.Key = m.Name
		if key, ok := AnnotationValue(m.Annotations(), keyAnnotation); ok {
			m.Key = key
		}
		members = append(members, m)
	}
	return decl.Annotations(), members
}

// AnnotationValue resolves the first argument of the first attribute named
// like name.
func AnnotationValue(list []models.Annotation, name string) (string, bool) {
	i := annotations.Find(list, name)
	if i < 0 {
		return "", false
	}
	return annotations.KeyValue(list[i].ArgumentText)
}

// MemberInfo describes an eligible property
type MemberInfo struct {
	Name         string `yaml:"name"`
	Key          string `yaml:"key"`
	DeclaredType string `yaml:"type"`
	Display      string `yaml:"display,omitempty"`
}

// ClassInfo is the analysis of a unit's row class
type ClassInfo struct {
	Name            string       `yaml:"name"`
	ConnectionKey   string       `yaml:"connection_key,omitempty"`
	TableName       string       `yaml:"table_name,omitempty"`
	Members         []MemberInfo `yaml:"members"`
	HasAuditShape   bool         `yaml:"audit_shape"`
	ImplementsAudit bool         `yaml:"implements_audit"`
}

func (e *Engine) classInfo(decl *models.Declaration) *ClassInfo {
	classAnnotations, members := Extract(decl, e.opts.KeyAnnotation)

	info := &ClassInfo{
		Name:            decl.Name,
		HasAuditShape:   HasAuditShape(decl.Members),
		ImplementsAudit: implementsInterface(decl, e.opts.AuditInterface),
	}
	info.ConnectionKey, _ = AnnotationValue(classAnnotations, e.opts.ConnectionKeyAnnotation)
	info.TableName, _ = AnnotationValue(classAnnotations, e.opts.TableNameAnnotation)

	for _, m := range members {
		mi := MemberInfo{Name: m.Name, Key: m.Key, DeclaredType: m.DeclaredType}
		if display, ok := AnnotationValue(m.Annotations(), e.opts.DisplayAnnotation); ok {
			mi.Display = display
		}
		info.Members = append(info.Members, mi)
	}
	return info
}
