package annotations

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/toyz/serupd/internal/errors"
	"github.com/toyz/serupd/internal/models"
)

// SectionParser parses C# attribute sections ("[A, B(x)]") with participle
type SectionParser struct {
	parser *participle.Parser[Section]
}

// Section is the grammar root: one bracketed attribute section
type Section struct {
	Target     string           `parser:"'[' ( @Ident ':' )?"`
	Attributes []*AttributeNode `parser:"@@ ( ',' @@ )* ','? ']'"`
}

// AttributeNode is a single attribute inside a section
type AttributeNode struct {
	Name     string        `parser:"@Ident ( @( '.' | Scope ) @Ident )*"`
	TypeArgs *TypeArgList  `parser:"@@?"`
	Args     *ArgumentList `parser:"@@?"`

	Tokens []lexer.Token
}

// TypeArgList matches the type argument list of a generic attribute
type TypeArgList struct {
	Items []*TypeArgItem `parser:"'<' @@* '>'"`
}

// TypeArgItem is a token or a nested type argument list
type TypeArgItem struct {
	Nested *TypeArgList `parser:"  @@"`
	Token  string       `parser:"| @( Ident | Scope | '.' | ',' | '?' | '[' | ']' )"`
}

// ArgumentList matches a parenthesised argument list with balanced nesting
type ArgumentList struct {
	Items []*ArgumentItem `parser:"'(' @@* ')'"`

	Tokens []lexer.Token
}

// ArgumentItem is a token or a nested parenthesised group
type ArgumentItem struct {
	Nested *ArgumentList `parser:"  @@"`
	Token  string        `parser:"| @( String | Char | Number | Ident | Scope | Punct )"`
}

// NewSectionParser creates a new attribute section parser
func NewSectionParser() *SectionParser {
	lex := lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Comment", Pattern: `//[^\n]*|/\*([^*]|\*+[^*/])*\*+/`},
		{Name: "String", Pattern: `\$?@"(""|[^"])*"|@\$"(""|[^"])*"|\$?"(\\.|[^"\\\n])*"`},
		{Name: "Char", Pattern: `'(\\.|[^'\\\n])+'`},
		{Name: "Number", Pattern: `[0-9][0-9A-Za-z_.]*`},
		{Name: "Ident", Pattern: `@?[\p{L}_][\p{L}\p{N}_]*`},
		{Name: "Scope", Pattern: `::`},
		{Name: "Paren", Pattern: `[()]`},
		{Name: "Punct", Pattern: `[^\s\p{L}\p{N}_()"']`},
		{Name: "Whitespace", Pattern: `\s+`},
	})

	parser := participle.MustBuild[Section](
		participle.Lexer(lex),
		participle.Elide("Whitespace", "Comment"),
		participle.UseLookahead(2),
	)

	return &SectionParser{parser: parser}
}

// Parse parses one attribute section. text must start at '[' and end at the
// matching ']'; offset is the position of text within the source, so the
// returned spans index the source directly.
func (p *SectionParser) Parse(text string, offset int) (models.AttributeGroup, error) {
	section, err := p.parser.ParseString("", text)
	if err != nil {
		return models.AttributeGroup{}, errors.NewMalformedAnnotationError(text, offset, err)
	}

	group := models.AttributeGroup{
		Target: section.Target,
		Span:   models.Span{Start: offset, End: offset + len(text)},
	}

	for _, node := range section.Attributes {
		start, end, ok := tokenRange(node.Tokens)
		if !ok {
			return models.AttributeGroup{}, errors.NewMalformedAnnotationError(text, offset, fmt.Errorf("empty attribute"))
		}

		annotation := models.Annotation{
			Name: node.Name,
			Span: models.Span{Start: offset + start, End: offset + end},
			Raw:  text[start:end],
		}
		if node.Args != nil {
			argStart, argEnd, ok := tokenRange(node.Args.Tokens)
			if !ok || argEnd-argStart < 2 {
				return models.AttributeGroup{}, errors.NewMalformedAnnotationError(text, offset, fmt.Errorf("unbalanced argument list"))
			}
			annotation.HasArguments = true
			annotation.ArgumentText = strings.TrimSpace(text[argStart+1 : argEnd-1])
		}
		group.Annotations = append(group.Annotations, annotation)
	}

	return group, nil
}

// tokenRange returns the byte range covered by the non-blank tokens
func tokenRange(tokens []lexer.Token) (int, int, bool) {
	first, last := -1, -1
	for i, tok := range tokens {
		if strings.TrimSpace(tok.Value) == "" || strings.HasPrefix(tok.Value, "//") || strings.HasPrefix(tok.Value, "/*") {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}
	if first < 0 {
		return 0, 0, false
	}
	return tokens[first].Pos.Offset, tokens[last].Pos.Offset + len(tokens[last].Value), true
}
