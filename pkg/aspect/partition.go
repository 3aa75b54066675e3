package aspect

import (
	"github.com/hashicorp/go-multierror"

	"github.com/aretw0/facet/pkg/core"
)

// Partitioned is a property map split by owner.
type Partitioned struct {
	// Primary holds the properties the primary type declares, plus the
	// object type id recomputed to the primary id.
	Primary core.Properties

	// Aspect holds the properties owned by one of the aspects being added.
	Aspect core.Properties

	// AspectDefs maps every key of Aspect to its owning definition.
	AspectDefs map[string]*core.PropertyDefinition
}

// Partition classifies every requested property as belonging to primary or
// to the first aspect in adding that declares it.
//
// Aspects already applied to the object but not listed in adding do not
// qualify as owners. Every property that has no owner is reported; when any
// is, nothing is returned.
func Partition(requested core.Properties, primary *core.TypeDefinition, adding []*core.TypeDefinition) (Partitioned, error) {
	if primary == nil {
		return Partitioned{}, core.Invalid("primary type is required")
	}

	p := Partitioned{
		Primary:    make(core.Properties),
		Aspect:     make(core.Properties),
		AspectDefs: make(map[string]*core.PropertyDefinition),
	}
	owners := NewSet(adding...)

	var errs *multierror.Error
	for _, id := range requested.Keys() {
		value := requested[id]
		switch {
		case id == core.PropObjectTypeID:
			p.Primary[id] = primary.ID
		case primary.Owns(id):
			p.Primary[id] = value
		default:
			owner := owners.FindOwning(id)
			if owner == nil {
				errs = multierror.Append(errs, core.InvalidProperty(id, "neither an object type property nor an aspect property"))
				continue
			}
			p.Aspect[id] = value
			p.AspectDefs[id] = owner.PropertyDefinition(id)
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return Partitioned{}, err
	}
	return p, nil
}
