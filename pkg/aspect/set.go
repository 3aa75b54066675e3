package aspect

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/aretw0/facet/pkg/core"
)

// Set is an ordered, de-duplicated list of aspect definitions.
// The order is the order in which the aspects were discovered on the wire.
// A Set is derived from an object and never stored.
type Set struct {
	types []*core.TypeDefinition
}

// NewSet builds a set from types, dropping nil entries and later duplicates.
func NewSet(types ...*core.TypeDefinition) Set {
	var s Set
	for _, t := range types {
		s = s.with(t)
	}
	return s
}

// Len returns the number of aspects.
func (s Set) Len() int { return len(s.types) }

// Types returns the aspect definitions in order.
func (s Set) Types() []*core.TypeDefinition { return slices.Clone(s.types) }

// IDs returns the aspect ids in order.
func (s Set) IDs() []string {
	out := make([]string, 0, len(s.types))
	for _, t := range s.types {
		out = append(out, t.ID)
	}
	return out
}

// Has reports whether the aspect id is in the set.
func (s Set) Has(id string) bool {
	return s.Get(id) != nil
}

// Get returns the aspect with the given id, or nil.
func (s Set) Get(id string) *core.TypeDefinition {
	for _, t := range s.types {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// FindOwning returns the first aspect, in set order, that declares the
// property id. It returns nil when no aspect does.
//
// Two applied aspects may declare the same property id. The first one wins,
// so the owner depends on the order the repository reports aspects in.
func (s Set) FindOwning(propertyID string) *core.TypeDefinition {
	for _, t := range s.types {
		if t.Owns(propertyID) {
			return t
		}
	}
	return nil
}

func (s Set) String() string {
	return "[" + strings.Join(s.IDs(), ", ") + "]"
}

func (s Set) with(t *core.TypeDefinition) Set {
	if t == nil || s.Has(t.ID) {
		return s
	}
	return Set{types: append(slices.Clone(s.types), t)}
}

// resolveIDs looks up every id in order. Ids the lookup does not know are
// dropped; any other lookup failure aborts.
func resolveIDs(ctx context.Context, ids []string, lookup core.TypeLookup, logger *slog.Logger) (Set, error) {
	var s Set
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || s.Has(id) {
			continue
		}
		def, err := lookup.GetTypeDefinition(ctx, id)
		if err != nil {
			if core.IsUnknownType(err) {
				logger.Debug("dropping unknown aspect", "aspect", id)
				continue
			}
			return Set{}, fmt.Errorf("resolve aspect %q: %w", id, err)
		}
		s = s.with(def)
	}
	return s, nil
}
