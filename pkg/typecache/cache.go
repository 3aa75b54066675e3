// Package typecache provides a caching core.TypeLookup decorator.
//
// Definitions are immutable, so a cached definition is shared between all
// callers. Concurrent misses for the same id result in a single call to the
// underlying lookup.
package typecache

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/aretw0/introspection"
	"golang.org/x/sync/singleflight"

	"github.com/aretw0/facet/pkg/core"
)

// Cache memoizes type definitions by id.
type Cache struct {
	next   core.TypeLookup
	logger *slog.Logger

	group singleflight.Group

	mu     sync.RWMutex
	types  map[string]*core.TypeDefinition
	gen    uint64 // bumped by Invalidate
	hits   int
	misses int
}

// New wraps next. A nil logger is allowed.
func New(next core.TypeLookup, logger *slog.Logger) *Cache {
	return &Cache{
		next:   next,
		logger: logger,
		types:  make(map[string]*core.TypeDefinition),
	}
}

// GetTypeDefinition returns the cached definition or loads it.
// Failures are not cached.
func (c *Cache) GetTypeDefinition(ctx context.Context, id string) (*core.TypeDefinition, error) {
	c.mu.RLock()
	def, ok := c.types[id]
	c.mu.RUnlock()
	if ok {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		return def, nil
	}

	v, err, _ := c.group.Do(id, func() (any, error) {
		c.mu.RLock()
		def, ok := c.types[id]
		gen := c.gen
		c.mu.RUnlock()
		if ok {
			return def, nil
		}

		def, err := c.next.GetTypeDefinition(ctx, id)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.misses++
		// A load that raced with Invalidate may be stale; serve it but
		// do not keep it.
		stored := c.gen == gen
		if stored {
			c.types[id] = def
		}
		c.mu.Unlock()
		if c.logger != nil && stored {
			c.logger.Debug("type definition cached", "type", id)
		}
		return def, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*core.TypeDefinition), nil
}

// GetTypeChildren passes through to the wrapped lookup when it supports
// hierarchy navigation.
func (c *Cache) GetTypeChildren(ctx context.Context, id string) ([]*core.TypeDefinition, error) {
	h, ok := c.next.(core.TypeHierarchy)
	if !ok {
		return nil, errors.ErrUnsupported
	}
	return h.GetTypeChildren(ctx, id)
}

// GetTypeDescendants passes through like GetTypeChildren.
func (c *Cache) GetTypeDescendants(ctx context.Context, id string, depth int) ([]*core.TypeDefinition, error) {
	h, ok := c.next.(core.TypeHierarchy)
	if !ok {
		return nil, errors.ErrUnsupported
	}
	return h.GetTypeDescendants(ctx, id, depth)
}

// Invalidate drops the given ids, or everything when none are given.
func (c *Cache) Invalidate(ids ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	if len(ids) == 0 {
		clear(c.types)
		return
	}
	for _, id := range ids {
		delete(c.types, id)
	}
}

// Len returns the number of cached definitions.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.types)
}

// CacheState exposes internal state for observability.
type CacheState struct {
	Entries int `json:"entries"`
	Hits    int `json:"hits"`
	Misses  int `json:"misses"`
}

// State implements introspection.Introspectable.
func (c *Cache) State() any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return CacheState{Entries: len(c.types), Hits: c.hits, Misses: c.misses}
}

// ComponentType implements introspection.Component.
func (c *Cache) ComponentType() string {
	return "type-cache"
}

var (
	_ core.TypeLookup              = (*Cache)(nil)
	_ core.TypeHierarchy           = (*Cache)(nil)
	_ introspection.Introspectable = (*Cache)(nil)
	_ introspection.Component      = (*Cache)(nil)
)
