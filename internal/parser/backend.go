package parser

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/toyz/serupd/internal/models"
)

// Backend names accepted by NewBackend
const (
	BackendTree = "tree"
	BackendText = "text"
)

// Backend turns C# source text into a SourceUnit. Implementations must be
// safe for concurrent use; every call owns its own parse state.
type Backend interface {
	Name() string
	Parse(ctx context.Context, src []byte) (*models.SourceUnit, error)
}

var backends = map[string]func() Backend{
	BackendTree: func() Backend { return NewTreeSitterBackend() },
	BackendText: func() Backend { return NewTextBackend() },
}

// NewBackend returns the backend registered under name. An empty name
// selects the syntax-tree backend.
func NewBackend(name string) (Backend, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = BackendTree
	}
	factory, ok := backends[name]
	if !ok {
		return nil, fmt.Errorf("unknown backend %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return factory(), nil
}

// Names returns the registered backend names in sorted order
func Names() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
