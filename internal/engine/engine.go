// Package engine synchronizes display attributes on C# row classes. It is
// pure: every operation maps source text (plus metadata) to new source
// text, and nothing outside the edited spans changes.
package engine

import (
	"bytes"
	"context"
	"strings"

	"github.com/toyz/serupd/internal/errors"
	"github.com/toyz/serupd/internal/models"
	"github.com/toyz/serupd/internal/parser"
)

// Result is the outcome of a sync operation
type Result struct {
	Text    []byte   // full replacement text, equal to the input when unchanged
	Changed bool     // false when Text equals the input
	Updated []string // members or attributes that were rewritten
	Skipped error    // set to ErrNoEligibleMembers when there was nothing to do
}

// Engine applies the synchronization rules through a parser backend
type Engine struct {
	backend parser.Backend
	opts    Options
}

// New creates an engine. Empty naming options fall back to DefaultOptions.
func New(backend parser.Backend, opts Options) *Engine {
	return &Engine{
		backend: backend,
		opts:    opts.withDefaults(),
	}
}

// Options returns the effective options
func (e *Engine) Options() Options {
	return e.opts
}

// BackendName returns the name of the parser backend in use
func (e *Engine) BackendName() string {
	return e.backend.Name()
}

func (e *Engine) locate(ctx context.Context, src []byte) (*models.SourceUnit, *models.Declaration, error) {
	unit, err := e.backend.Parse(ctx, src)
	if err != nil {
		return nil, nil, err
	}
	decl, err := Locate(unit, e.opts.RowSuffix, e.opts.FieldsBaseSuffix, e.opts.FallbackExclude)
	if err != nil {
		return nil, nil, err
	}
	return unit, decl, nil
}

// Analyze parses src and describes its row class
func (e *Engine) Analyze(ctx context.Context, src []byte) (*ClassInfo, error) {
	_, decl, err := e.locate(ctx, src)
	if err != nil {
		return nil, err
	}
	return e.classInfo(decl), nil
}

// SyncProperties sets the display attribute of every eligible property
// whose key has a non-blank comment in comments.
func (e *Engine) SyncProperties(ctx context.Context, src []byte, comments *models.ColumnCommentMap) (*Result, error) {
	_, decl, err := e.locate(ctx, src)
	if err != nil {
		return nil, err
	}

	_, members := Extract(decl, e.opts.KeyAnnotation)
	if len(members) == 0 {
		return &Result{Text: src, Skipped: errors.ErrNoEligibleMembers}, nil
	}
	if comments.IsEmpty() {
		return &Result{Text: src}, nil
	}

	edits, updated := e.propertyEdits(src, members, comments)
	return e.apply(src, edits, updated)
}

// SyncClass writes the class attribute template for display, adds the
// audit marker interface when the class has the audit properties, and
// ensures the support namespace is imported. A blank display leaves the
// text unchanged.
func (e *Engine) SyncClass(ctx context.Context, src []byte, display string) (*Result, error) {
	unit, decl, err := e.locate(ctx, src)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(display) == "" {
		return &Result{Text: src}, nil
	}

	// The using edit goes first: at the top of a unit without imports it
	// shares its offset with the class attribute insertion.
	var edits []Edit
	var updated []string
	if edit, ok := e.usingEdit(src, unit); ok {
		edits = append(edits, edit)
		updated = append(updated, "using "+e.opts.SupportNamespace)
	}
	attrEdits, attrs := e.classAttributeEdits(src, decl, display)
	edits = append(edits, attrEdits...)
	updated = append(updated, attrs...)
	if edit, ok := e.auditEdit(decl); ok {
		edits = append(edits, edit)
		updated = append(updated, e.opts.AuditInterface)
	}
	return e.apply(src, edits, updated)
}

func (e *Engine) apply(src []byte, edits []Edit, updated []string) (*Result, error) {
	out, err := Apply(src, edits)
	if err != nil {
		return nil, errors.WrapRewriteError("", err)
	}
	if bytes.Equal(out, src) {
		return &Result{Text: src}, nil
	}
	return &Result{Text: out, Changed: true, Updated: updated}, nil
}
