package store

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/aretw0/facet/pkg/core"
)

// Catalog is a thread-safe type definition registry.
type Catalog struct {
	mu    sync.RWMutex
	types map[string]*core.TypeDefinition
}

// NewCatalog returns a catalog holding types.
func NewCatalog(types ...*core.TypeDefinition) *Catalog {
	c := &Catalog{types: make(map[string]*core.TypeDefinition)}
	for _, t := range types {
		c.types[t.ID] = t
	}
	return c
}

// Put registers or replaces a definition.
func (c *Catalog) Put(t *core.TypeDefinition) error {
	if t == nil || t.ID == "" {
		return core.Invalid("type definition without id")
	}
	if t.BaseTypeID == "" {
		return core.Invalid("type %q has no base type", t.ID)
	}
	c.mu.Lock()
	c.types[t.ID] = t
	c.mu.Unlock()
	return nil
}

// Replace swaps the whole content of the catalog.
func (c *Catalog) Replace(types []*core.TypeDefinition) {
	next := make(map[string]*core.TypeDefinition, len(types))
	for _, t := range types {
		next[t.ID] = t
	}
	c.mu.Lock()
	c.types = next
	c.mu.Unlock()
}

// Len returns the number of definitions.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.types)
}

// List returns every definition ordered by id.
func (c *Catalog) List() []*core.TypeDefinition {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*core.TypeDefinition, 0, len(c.types))
	for _, id := range slices.Sorted(maps.Keys(c.types)) {
		out = append(out, c.types[id])
	}
	return out
}

// GetTypeDefinition implements core.TypeLookup.
func (c *Catalog) GetTypeDefinition(_ context.Context, id string) (*core.TypeDefinition, error) {
	c.mu.RLock()
	t, ok := c.types[id]
	c.mu.RUnlock()
	if !ok {
		return nil, &core.UnknownTypeError{TypeID: id}
	}
	return t, nil
}

// GetTypeChildren implements core.TypeHierarchy.
func (c *Catalog) GetTypeChildren(ctx context.Context, id string) ([]*core.TypeDefinition, error) {
	return c.GetTypeDescendants(ctx, id, 1)
}

// GetTypeDescendants implements core.TypeHierarchy. The result is ordered
// breadth first, then by id.
func (c *Catalog) GetTypeDescendants(ctx context.Context, id string, depth int) ([]*core.TypeDefinition, error) {
	if _, err := c.GetTypeDefinition(ctx, id); err != nil {
		return nil, err
	}
	if depth == 0 || depth < -1 {
		return nil, core.Invalid("invalid depth %d", depth)
	}

	all := c.List()
	var out []*core.TypeDefinition
	level := []string{id}
	for d := 1; len(level) > 0 && (depth == -1 || d <= depth); d++ {
		var next []string
		for _, t := range all {
			if slices.Contains(level, t.ParentTypeID) {
				out = append(out, t)
				next = append(next, t.ID)
			}
		}
		level = next
		if d > len(all) {
			return nil, fmt.Errorf("type hierarchy below %q has a cycle", id)
		}
	}
	return out, nil
}

var (
	_ core.TypeLookup    = (*Catalog)(nil)
	_ core.TypeHierarchy = (*Catalog)(nil)
)
