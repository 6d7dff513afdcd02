package ops

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Op is a slash command with a canned or computed reply. Ops bypass routing
// and inference entirely.
type Op interface {
	Name() string
	Description() string
	Execute(ctx context.Context, args string) (string, error)
}

// Registry holds registered commands keyed by lower-case name.
type Registry struct {
	mu  sync.RWMutex
	ops map[string]Op
}

// NewRegistry creates an empty command registry.
func NewRegistry() *Registry {
	return &Registry{ops: make(map[string]Op)}
}

// Register adds a command. Names must be non-empty, contain no whitespace
// and be unique.
func (r *Registry) Register(op Op) error {
	name := strings.ToLower(op.Name())
	if name == "" || strings.ContainsAny(name, " \t\n@/") {
		return fmt.Errorf("invalid op name %q", op.Name())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.ops[name]; exists {
		return fmt.Errorf("op already registered: %s", name)
	}
	r.ops[name] = op
	return nil
}

// List returns all registered commands sorted by name.
func (r *Registry) List() []Op {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.ops))
	for name := range r.ops {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make([]Op, len(names))
	for i, name := range names {
		result[i] = r.ops[name]
	}
	return result
}
