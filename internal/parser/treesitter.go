package parser

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"

	"github.com/toyz/serupd/internal/errors"
	"github.com/toyz/serupd/internal/models"
)

// TreeSitterBackend parses C# with the tree-sitter grammar. It is the
// canonical backend.
type TreeSitterBackend struct{}

// NewTreeSitterBackend creates a new tree-sitter backend
func NewTreeSitterBackend() *TreeSitterBackend {
	return &TreeSitterBackend{}
}

// Name returns the backend name
func (b *TreeSitterBackend) Name() string {
	return BackendTree
}

// Parse builds a SourceUnit from the syntax tree of src. A parser is
// created per call because tree-sitter parsers are not safe for concurrent
// use.
func (b *TreeSitterBackend) Parse(ctx context.Context, src []byte) (*models.SourceUnit, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(csharp.GetLanguage())

	input := src
	if n := bomLength(src); n > 0 {
		input = append([]byte("   "), src[n:]...)
	}

	tree, err := parser.ParseCtx(ctx, nil, input)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	defer tree.Close()

	w := &treeWalker{
		src:  src,
		unit: &models.SourceUnit{Text: src, Backend: BackendTree},
	}
	if err := w.walk(tree.RootNode()); err != nil {
		return nil, err
	}
	return w.unit, nil
}

type treeWalker struct {
	src  []byte
	unit *models.SourceUnit
}

func (w *treeWalker) text(n *sitter.Node) string {
	return string(w.src[n.StartByte():n.EndByte()])
}

func (w *treeWalker) span(n *sitter.Node) models.Span {
	return models.Span{Start: int(n.StartByte()), End: int(n.EndByte())}
}

// walk visits the compilation unit and namespace bodies
func (w *treeWalker) walk(node *sitter.Node) error {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "using_directive":
			if imp, ok := parseUsing(w.text(child)); ok {
				imp.Span = w.span(child)
				w.unit.Imports = append(w.unit.Imports, imp)
			}
		case "class_declaration":
			if err := w.class(child, false); err != nil {
				return err
			}
		case "namespace_declaration", "file_scoped_namespace_declaration", "declaration_list":
			if err := w.walk(child); err != nil {
				return err
			}
		case "ERROR":
			if strings.Contains(w.text(child), "[") {
				return w.malformed(child, fmt.Errorf("unparsable declaration"))
			}
		}
	}
	return nil
}

func (w *treeWalker) class(node *sitter.Node, nested bool) error {
	decl := &models.Declaration{
		Span:      w.span(node),
		DeclStart: -1,
		Nested:    nested,
	}

	var body *sitter.Node
	sawKeyword := false
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "attribute_list":
			group, err := w.group(child)
			if err != nil {
				return err
			}
			decl.Groups = append(decl.Groups, group)
			continue
		case "comment":
			continue
		case "class":
			sawKeyword = true
		case "identifier":
			if sawKeyword && decl.Name == "" {
				decl.Name = strings.TrimPrefix(w.text(child), "@")
				decl.BaseInsertAt = int(child.EndByte())
			}
		case "type_parameter_list", "parameter_list":
			decl.BaseInsertAt = int(child.EndByte())
		case "base_list":
			decl.BaseTypes = w.bases(child)
		case "declaration_list":
			body = child
		case "ERROR":
			return w.malformed(child, fmt.Errorf("unparsable class header"))
		}
		if decl.DeclStart < 0 {
			decl.DeclStart = int(child.StartByte())
		}
	}

	if name := node.ChildByFieldName("name"); name != nil && decl.Name == "" {
		decl.Name = strings.TrimPrefix(w.text(name), "@")
		decl.BaseInsertAt = int(name.EndByte())
	}
	if decl.DeclStart < 0 {
		decl.DeclStart = decl.Span.Start
	}

	w.unit.Declarations = append(w.unit.Declarations, decl)
	if body == nil {
		return nil
	}

	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		switch child.Type() {
		case "property_declaration":
			member, err := w.property(child)
			if err != nil {
				return err
			}
			if member != nil {
				decl.Members = append(decl.Members, member)
			}
		case "class_declaration":
			if err := w.class(child, true); err != nil {
				return err
			}
		case "ERROR":
			if strings.Contains(w.text(child), "[") {
				return w.malformed(child, fmt.Errorf("unparsable member"))
			}
		}
	}
	return nil
}

func (w *treeWalker) bases(list *sitter.Node) []models.BaseType {
	var bases []models.BaseType
	for i := 0; i < int(list.NamedChildCount()); i++ {
		child := list.NamedChild(i)
		switch child.Type() {
		case "comment", "argument_list":
			continue
		case "primary_constructor_base_type":
			if t := child.ChildByFieldName("type"); t != nil {
				child = t
			} else if child.NamedChildCount() > 0 {
				child = child.NamedChild(0)
			}
		}
		bases = append(bases, models.BaseType{
			Name: compact(w.text(child)),
			Span: w.span(child),
		})
	}
	return bases
}

// property builds a Member. Explicit interface implementations are
// skipped.
func (w *treeWalker) property(node *sitter.Node) (*models.Member, error) {
	member := &models.Member{
		Span:      w.span(node),
		DeclStart: -1,
	}

	var accessors *sitter.Node
	var lastIdent *sitter.Node
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "attribute_list":
			group, err := w.group(child)
			if err != nil {
				return nil, err
			}
			member.Groups = append(member.Groups, group)
			continue
		case "comment":
			continue
		case "explicit_interface_specifier":
			return nil, nil
		case "accessor_list":
			accessors = child
		case "arrow_expression_clause":
			member.HasReadAccessor = true
		case "identifier":
			if accessors == nil {
				lastIdent = child
			}
		}
		if member.DeclStart < 0 {
			member.DeclStart = int(child.StartByte())
		}
	}

	if name := node.ChildByFieldName("name"); name != nil {
		member.Name = strings.TrimPrefix(w.text(name), "@")
	} else if lastIdent != nil {
		member.Name = strings.TrimPrefix(w.text(lastIdent), "@")
	}
	if typ := node.ChildByFieldName("type"); typ != nil {
		member.DeclaredType = strings.TrimSpace(w.text(typ))
	}
	if member.Name == "" || member.DeclaredType == "" {
		return nil, nil
	}
	if member.DeclStart < 0 {
		member.DeclStart = member.Span.Start
	}

	if accessors != nil {
		for i := 0; i < int(accessors.NamedChildCount()); i++ {
			acc := accessors.NamedChild(i)
			if acc.Type() != "accessor_declaration" {
				continue
			}
			switch accessorKind(acc, w.src) {
			case "get":
				member.HasReadAccessor = true
			case "set":
				member.HasWriteAccessor = true
			}
		}
	}
	return member, nil
}

// accessorKind returns get, set, init, add or remove for an accessor
func accessorKind(acc *sitter.Node, src []byte) string {
	for i := 0; i < int(acc.ChildCount()); i++ {
		switch t := acc.Child(i).Type(); t {
		case "get", "set", "init", "add", "remove":
			return t
		}
	}
	if name := acc.ChildByFieldName("name"); name != nil {
		return name.Content(src)
	}
	return ""
}

func (w *treeWalker) group(list *sitter.Node) (models.AttributeGroup, error) {
	if list.HasError() {
		return models.AttributeGroup{}, w.malformed(list, fmt.Errorf("syntax error in attribute section"))
	}

	group := models.AttributeGroup{Span: w.span(list)}
	for i := 0; i < int(list.NamedChildCount()); i++ {
		child := list.NamedChild(i)
		switch child.Type() {
		case "attribute_target_specifier":
			group.Target = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(w.text(child)), ":"))
		case "attribute":
			group.Annotations = append(group.Annotations, w.attribute(child))
		}
	}
	return group, nil
}

func (w *treeWalker) attribute(node *sitter.Node) models.Annotation {
	annotation := models.Annotation{
		Span: w.span(node),
		Raw:  w.text(node),
	}

	nameNode := node.ChildByFieldName("name")
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == "attribute_argument_list" {
			args := strings.TrimSpace(w.text(child))
			args = strings.TrimSuffix(strings.TrimPrefix(args, "("), ")")
			annotation.ArgumentText = strings.TrimSpace(args)
			annotation.HasArguments = true
			continue
		}
		if nameNode == nil && child.Type() != "comment" {
			nameNode = child
		}
	}
	if nameNode != nil {
		name := compact(w.text(nameNode))
		if lt := strings.IndexByte(name, '<'); lt > 0 {
			name = name[:lt]
		}
		annotation.Name = name
	}
	return annotation
}

func (w *treeWalker) malformed(node *sitter.Node, cause error) error {
	raw := w.text(node)
	if nl := strings.IndexByte(raw, '\n'); nl >= 0 {
		raw = raw[:nl]
	}
	return errors.NewMalformedAnnotationError(raw, int(node.StartByte()), cause)
}
