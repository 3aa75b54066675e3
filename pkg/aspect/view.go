package aspect

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"github.com/aretw0/facet/pkg/core"
)

// TypeWithAspects is the effective schema of an object: its primary type
// with the property definitions of its applied aspects merged in.
//
// Identity, flags and hierarchy come from the primary type. Aspect
// definitions never replace a primary definition; among aspects, later ones
// overlay earlier ones.
type TypeWithAspects struct {
	primary *core.TypeDefinition
	aspects Set
	lookup  core.TypeLookup
	defs    map[string]*core.PropertyDefinition
}

// NewTypeWithAspects builds the view. lookup is used for hierarchy
// navigation and may be nil when that is not needed.
func NewTypeWithAspects(primary *core.TypeDefinition, aspects Set, lookup core.TypeLookup) *TypeWithAspects {
	defs := make(map[string]*core.PropertyDefinition, len(primary.PropertyDefinitions))
	maps.Copy(defs, primary.PropertyDefinitions)
	for _, a := range aspects.types {
		for id, def := range a.PropertyDefinitions {
			if primary.Owns(id) {
				continue
			}
			defs[id] = def
		}
	}
	return &TypeWithAspects{
		primary: primary,
		aspects: aspects,
		lookup:  lookup,
		defs:    defs,
	}
}

func (t *TypeWithAspects) Primary() *core.TypeDefinition { return t.primary }
func (t *TypeWithAspects) ID() string                    { return t.primary.ID }
func (t *TypeWithAspects) LocalName() string             { return t.primary.LocalName }
func (t *TypeWithAspects) LocalNamespace() string        { return t.primary.LocalNamespace }
func (t *TypeWithAspects) DisplayName() string           { return t.primary.DisplayName }
func (t *TypeWithAspects) QueryName() string             { return t.primary.QueryName }
func (t *TypeWithAspects) Description() string           { return t.primary.Description }
func (t *TypeWithAspects) BaseTypeID() core.BaseTypeID   { return t.primary.BaseTypeID }
func (t *TypeWithAspects) ParentTypeID() string          { return t.primary.ParentTypeID }
func (t *TypeWithAspects) IsBaseType() bool              { return t.primary.IsBaseType() }
func (t *TypeWithAspects) Creatable() bool               { return t.primary.Creatable }
func (t *TypeWithAspects) Fileable() bool                { return t.primary.Fileable }
func (t *TypeWithAspects) Queryable() bool               { return t.primary.Queryable }
func (t *TypeWithAspects) FulltextIndexed() bool         { return t.primary.FulltextIndexed }
func (t *TypeWithAspects) ControllablePolicy() bool      { return t.primary.ControllablePolicy }
func (t *TypeWithAspects) ControllableACL() bool         { return t.primary.ControllableACL }

func (t *TypeWithAspects) IncludedInSupertypeQuery() bool {
	return t.primary.IncludedInSupertypeQuery
}

// Versionable is meaningful for document types only.
func (t *TypeWithAspects) Versionable() bool { return t.primary.Versionable }

// ContentStreamAllowed is meaningful for document types only.
func (t *TypeWithAspects) ContentStreamAllowed() core.ContentStreamAllowed {
	return t.primary.ContentStreamAllowed
}

// Mutability is always all-false: a composed view cannot be changed.
func (t *TypeWithAspects) Mutability() core.TypeMutability { return core.TypeMutability{} }

// MandatoryAspects returns the aspects the primary type requires, read the
// same way as the package function MandatoryAspects.
func (t *TypeWithAspects) MandatoryAspects() []string {
	return MandatoryAspects(t.primary)
}

// Aspects returns the applied aspects in discovery order.
func (t *TypeWithAspects) Aspects() Set { return t.aspects }

// PropertyDefinitions returns a copy of the merged definitions.
func (t *TypeWithAspects) PropertyDefinitions() map[string]*core.PropertyDefinition {
	return maps.Clone(t.defs)
}

// PropertyDefinition returns the merged definition for id, or nil.
func (t *TypeWithAspects) PropertyDefinition(id string) *core.PropertyDefinition {
	return t.defs[id]
}

// BaseType resolves the root type of the primary hierarchy.
func (t *TypeWithAspects) BaseType(ctx context.Context) (*core.TypeDefinition, error) {
	if t.primary.IsBaseType() {
		return t.primary, nil
	}
	if t.lookup == nil {
		return nil, fmt.Errorf("base type of %q: %w", t.primary.ID, errors.ErrUnsupported)
	}
	return t.lookup.GetTypeDefinition(ctx, string(t.primary.BaseTypeID))
}

// ParentType resolves the parent of the primary type. It returns nil for a
// base type.
func (t *TypeWithAspects) ParentType(ctx context.Context) (*core.TypeDefinition, error) {
	if t.primary.IsBaseType() {
		return nil, nil
	}
	if t.lookup == nil {
		return nil, fmt.Errorf("parent type of %q: %w", t.primary.ID, errors.ErrUnsupported)
	}
	return t.lookup.GetTypeDefinition(ctx, t.primary.ParentTypeID)
}

// Children returns the direct subtypes of the primary type.
func (t *TypeWithAspects) Children(ctx context.Context) ([]*core.TypeDefinition, error) {
	h, err := t.hierarchy()
	if err != nil {
		return nil, err
	}
	return h.GetTypeChildren(ctx, t.primary.ID)
}

// Descendants returns the subtypes of the primary type down to depth
// levels; -1 means unlimited.
func (t *TypeWithAspects) Descendants(ctx context.Context, depth int) ([]*core.TypeDefinition, error) {
	h, err := t.hierarchy()
	if err != nil {
		return nil, err
	}
	return h.GetTypeDescendants(ctx, t.primary.ID, depth)
}

func (t *TypeWithAspects) hierarchy() (core.TypeHierarchy, error) {
	h, ok := t.lookup.(core.TypeHierarchy)
	if !ok {
		return nil, fmt.Errorf("type hierarchy of %q: %w", t.primary.ID, errors.ErrUnsupported)
	}
	return h, nil
}
