// Package memory provides an in-memory repository that speaks either aspect
// protocol. It is meant for tests and for embedding; nothing is persisted.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/aretw0/introspection"

	"github.com/aretw0/facet/pkg/adapters/internal/store"
	"github.com/aretw0/facet/pkg/core"
	"github.com/aretw0/facet/pkg/extension"
)

// Config holds the configuration for the in-memory repository.
type Config struct {
	Info            core.RepositoryInfo
	Types           []*core.TypeDefinition
	VersionOnUpdate bool
	Logger          *slog.Logger
}

// Calls counts the transport calls the repository has served.
type Calls struct {
	RepositoryInfo int `json:"repository_info"`
	GetObject      int `json:"get_object"`
	Update         int `json:"update"`
	Create         int `json:"create"`
	TypeLookups    int `json:"type_lookups"`
}

// Repository implements core.Repository in memory.
type Repository struct {
	catalog *store.Catalog
	engine  *store.Engine

	mu      sync.RWMutex
	records map[string]store.Record
	calls   Calls
}

// New creates an in-memory repository. The protocol version defaults to v2.
func New(cfg Config) (*Repository, error) {
	if cfg.Info.ID == "" {
		cfg.Info.ID = "memory"
	}
	if cfg.Info.ProtocolVersion == "" {
		cfg.Info.ProtocolVersion = core.ProtocolV2
	}
	r := &Repository{
		catalog: store.NewCatalog(),
		records: make(map[string]store.Record),
	}
	for _, t := range cfg.Types {
		if err := r.catalog.Put(t); err != nil {
			return nil, err
		}
	}
	engine, err := store.New(store.Config{
		Info:            cfg.Info,
		Lookup:          r.catalog,
		Backend:         (*backend)(r),
		Logger:          cfg.Logger,
		VersionOnUpdate: cfg.VersionOnUpdate,
	})
	if err != nil {
		return nil, err
	}
	r.engine = engine
	return r, nil
}

// Initialize implements core.Repository. There is nothing to prepare.
func (r *Repository) Initialize(ctx context.Context) error { return nil }

// RepositoryInfo implements core.Transport.
func (r *Repository) RepositoryInfo(ctx context.Context) (core.RepositoryInfo, error) {
	r.count(func(c *Calls) { c.RepositoryInfo++ })
	return r.engine.Info(), nil
}

// GetObject implements core.Transport.
func (r *Repository) GetObject(ctx context.Context, repositoryID, objectID string) (core.Object, error) {
	r.count(func(c *Calls) { c.GetObject++ })
	if err := r.engine.CheckRepository(repositoryID); err != nil {
		return core.Object{}, err
	}
	return r.engine.GetObject(ctx, objectID)
}

// UpdateProperties implements core.Transport.
func (r *Repository) UpdateProperties(ctx context.Context, repositoryID, objectID string, properties core.Properties, extensions []*extension.Element) (string, error) {
	r.count(func(c *Calls) { c.Update++ })
	if err := r.engine.CheckRepository(repositoryID); err != nil {
		return "", err
	}
	return r.engine.Update(ctx, objectID, properties, extensions)
}

// CreateObject implements core.Creator.
func (r *Repository) CreateObject(ctx context.Context, repositoryID string, properties core.Properties, extensions []*extension.Element) (string, error) {
	r.count(func(c *Calls) { c.Create++ })
	if err := r.engine.CheckRepository(repositoryID); err != nil {
		return "", err
	}
	return r.engine.Create(ctx, properties, extensions)
}

// ListObjects implements core.ObjectLister.
func (r *Repository) ListObjects(ctx context.Context, repositoryID string) ([]core.Object, error) {
	if err := r.engine.CheckRepository(repositoryID); err != nil {
		return nil, err
	}
	return r.engine.List(ctx)
}

// GetTypeDefinition implements core.TypeLookup.
func (r *Repository) GetTypeDefinition(ctx context.Context, id string) (*core.TypeDefinition, error) {
	r.count(func(c *Calls) { c.TypeLookups++ })
	return r.catalog.GetTypeDefinition(ctx, id)
}

// GetTypeChildren implements core.TypeHierarchy.
func (r *Repository) GetTypeChildren(ctx context.Context, id string) ([]*core.TypeDefinition, error) {
	return r.catalog.GetTypeChildren(ctx, id)
}

// GetTypeDescendants implements core.TypeHierarchy.
func (r *Repository) GetTypeDescendants(ctx context.Context, id string, depth int) ([]*core.TypeDefinition, error) {
	return r.catalog.GetTypeDescendants(ctx, id, depth)
}

// PutType registers or replaces a type definition.
func (r *Repository) PutType(t *core.TypeDefinition) error {
	return r.catalog.Put(t)
}

// Types returns every registered definition ordered by id.
func (r *Repository) Types() []*core.TypeDefinition {
	return r.catalog.List()
}

// Calls returns the call counters.
func (r *Repository) Calls() Calls {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.calls
}

// ResetCalls zeroes the call counters.
func (r *Repository) ResetCalls() {
	r.mu.Lock()
	r.calls = Calls{}
	r.mu.Unlock()
}

func (r *Repository) count(fn func(*Calls)) {
	r.mu.Lock()
	fn(&r.calls)
	r.mu.Unlock()
}

// RepositoryState exposes internal state for observability.
type RepositoryState struct {
	Objects int   `json:"objects"`
	Types   int   `json:"types"`
	Calls   Calls `json:"calls"`
}

// State implements introspection.Introspectable.
func (r *Repository) State() any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return RepositoryState{Objects: len(r.records), Types: r.catalog.Len(), Calls: r.calls}
}

// ComponentType implements introspection.Component.
func (r *Repository) ComponentType() string {
	return "memory-repository"
}

// backend stores records in the repository's map.
type backend Repository

func (b *backend) Load(_ context.Context, id string) (store.Record, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	rec, ok := b.records[id]
	if !ok {
		return store.Record{}, fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	return rec.Clone(), nil
}

func (b *backend) Save(_ context.Context, rec store.Record) error {
	b.mu.Lock()
	b.records[rec.ID] = rec.Clone()
	b.mu.Unlock()
	return nil
}

func (b *backend) List(_ context.Context) ([]store.Record, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]store.Record, 0, len(b.records))
	for _, id := range slices.Sorted(maps.Keys(b.records)) {
		out = append(out, b.records[id].Clone())
	}
	return out, nil
}

var (
	_ core.Repository              = (*Repository)(nil)
	_ core.TypeHierarchy           = (*Repository)(nil)
	_ core.Creator                 = (*Repository)(nil)
	_ core.ObjectLister            = (*Repository)(nil)
	_ introspection.Introspectable = (*Repository)(nil)
	_ introspection.Component      = (*Repository)(nil)
)
