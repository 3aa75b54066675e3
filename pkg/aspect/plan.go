package aspect

import (
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/aretw0/facet/pkg/core"
	"github.com/aretw0/facet/pkg/extension"
	"github.com/aretw0/facet/pkg/property"
)

// Mutation asks for aspects to be added to and removed from an object.
// Properties set values on the aspects being added and are rejected when no
// aspect in Add declares them.
type Mutation struct {
	Add        []*core.TypeDefinition
	Remove     []*core.TypeDefinition
	Properties core.Properties
}

// Plan is the wire form of a mutation, ready to be submitted through
// core.Transport.UpdateProperties.
type Plan struct {
	// NoOp is set when the mutation would not change the object.
	// Nothing must be submitted and the object keeps its id.
	NoOp bool

	Properties core.Properties
	Extensions []*extension.Element
}

// checkedValue is a validated aspect property value.
type checkedValue struct {
	def   *core.PropertyDefinition
	raw   any
	items []any
}

// wire returns the value shaped for a property map: nil clears the
// property, a scalar for single-valued and a list for multi-valued.
func (v checkedValue) wire() any {
	if v.raw == nil {
		return nil
	}
	return property.Value(v.def, v.items)
}

// validate checks the shape of m and every property value against the
// definition of its owner in m.Add. Values are keyed by property id.
func validate(m Mutation) (map[string]checkedValue, error) {
	if len(m.Add) == 0 && len(m.Remove) == 0 {
		return nil, core.Invalid("no aspects to add or remove")
	}
	for _, t := range m.Add {
		if t == nil {
			return nil, core.Invalid("nil aspect in add list")
		}
	}
	for _, t := range m.Remove {
		if t == nil {
			return nil, core.Invalid("nil aspect in remove list")
		}
	}

	owners := NewSet(m.Add...)
	values := make(map[string]checkedValue, len(m.Properties))

	var errs *multierror.Error
	for _, id := range m.Properties.Keys() {
		raw := m.Properties[id]
		owner := owners.FindOwning(id)
		if owner == nil {
			errs = multierror.Append(errs, core.InvalidProperty(id, "not declared by any aspect being added"))
			continue
		}
		def := owner.PropertyDefinition(id)
		items, err := property.Check(def, raw)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		values[id] = checkedValue{def: def, raw: raw, items: items}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return values, nil
}

// isNoOp reports whether applying m to current would change nothing.
func isNoOp(current Set, m Mutation) bool {
	if len(m.Properties) > 0 {
		return false
	}
	for _, t := range m.Add {
		if !current.Has(t.ID) {
			return false
		}
	}
	for _, t := range m.Remove {
		if current.Has(t.ID) {
			return false
		}
	}
	return true
}

// ObjectTypeIDValue renders the composite object type id used by the legacy
// protocol: the primary id followed by each aspect id, comma separated.
func ObjectTypeIDValue(primary *core.TypeDefinition, aspects []*core.TypeDefinition) string {
	var sb strings.Builder
	sb.WriteString(primary.ID)
	for _, a := range aspects {
		sb.WriteByte(',')
		sb.WriteString(a.ID)
	}
	return sb.String()
}

// SplitObjectTypeID splits a composite object type id into the primary id
// and the aspect ids. Blank segments are skipped.
func SplitObjectTypeID(value string) (string, []string) {
	parts := strings.Split(value, ",")
	primary := strings.TrimSpace(parts[0])
	var aspects []string
	for _, p := range parts[1:] {
		if p = strings.TrimSpace(p); p != "" {
			aspects = append(aspects, p)
		}
	}
	return primary, aspects
}

func uniqueIDs(types []*core.TypeDefinition) []string {
	return NewSet(types...).IDs()
}
