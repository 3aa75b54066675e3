package aspect

import (
	"context"
	"log/slog"
	"maps"
	"slices"

	"github.com/aretw0/facet/pkg/core"
	"github.com/aretw0/facet/pkg/extension"
	"github.com/aretw0/facet/pkg/property"
)

// extensionStrategy speaks protocol v1: aspects and their values travel in
// the Alfresco extension envelope.
type extensionStrategy struct {
	logger *slog.Logger
}

func (s *extensionStrategy) Version() core.ProtocolVersion { return core.ProtocolV1 }

func (s *extensionStrategy) Resolve(ctx context.Context, obj core.Object, lookup core.TypeLookup) (Set, error) {
	envelope := extension.FindAlfresco(obj.Extensions)
	if envelope == nil {
		return Set{}, nil
	}
	return resolveIDs(ctx, extension.Values(envelope, extension.AppliedAspects), lookup, s.logger)
}

func (s *extensionStrategy) Render(set Set, values core.Properties) (core.Properties, []*extension.Element, error) {
	props := make(core.Properties)
	var elements []*extension.Element
	for _, id := range values.Keys() {
		owner := set.FindOwning(id)
		if owner == nil {
			props[id] = values[id]
			continue
		}
		el, err := property.EncodeElement(owner.PropertyDefinition(id), values[id])
		if err != nil {
			return nil, nil, err
		}
		elements = append(elements, el)
	}

	if set.Len() == 0 && len(elements) == 0 {
		return props, nil, nil
	}
	children := make([]*extension.Element, 0, set.Len()+1)
	for _, id := range set.IDs() {
		children = append(children, extension.New(extension.AlfrescoNamespace, extension.AppliedAspects, nil, id))
	}
	if len(elements) > 0 {
		children = append(children, extension.NewContainer(extension.AlfrescoNamespace, extension.Properties, nil, elements...))
	}
	envelope := extension.NewContainer(extension.AlfrescoNamespace, extension.AspectsEnvelope, nil, children...)
	return props, []*extension.Element{envelope}, nil
}

func (s *extensionStrategy) Plan(obj core.Object, current Set, m Mutation) (Plan, error) {
	values, err := validate(m)
	if err != nil {
		return Plan{}, err
	}
	if isNoOp(current, m) {
		s.logger.Debug("aspect mutation is a no-op", "object", obj.ID)
		return Plan{NoOp: true}, nil
	}

	var children []*extension.Element
	for _, id := range uniqueIDs(m.Add) {
		children = append(children, extension.New(extension.AlfrescoNamespace, extension.AspectsToAdd, nil, id))
	}
	for _, id := range uniqueIDs(m.Remove) {
		children = append(children, extension.New(extension.AlfrescoNamespace, extension.AspectsToRemove, nil, id))
	}
	if len(values) > 0 {
		container, err := propertiesElement(values)
		if err != nil {
			return Plan{}, err
		}
		children = append(children, container)
	}

	return Plan{
		Extensions: []*extension.Element{setAspects(children)},
	}, nil
}

func (s *extensionStrategy) ConvertProperties(props core.Properties, primary *core.TypeDefinition, aspects []*core.TypeDefinition) (core.Properties, []*extension.Element, error) {
	parts, err := Partition(props, primary, aspects)
	if err != nil {
		return nil, nil, err
	}

	var children []*extension.Element
	for _, id := range uniqueIDs(aspects) {
		children = append(children, extension.New(extension.AlfrescoNamespace, extension.AspectsToAdd, nil, id))
	}
	if len(parts.Aspect) > 0 {
		values := make(map[string]checkedValue, len(parts.Aspect))
		for id, raw := range parts.Aspect {
			values[id] = checkedValue{def: parts.AspectDefs[id], raw: raw}
		}
		container, err := propertiesElement(values)
		if err != nil {
			return nil, nil, err
		}
		children = append(children, container)
	}

	if len(children) == 0 {
		return parts.Primary, nil, nil
	}
	return parts.Primary, []*extension.Element{setAspects(children)}, nil
}

func (s *extensionStrategy) DecodeProperties(obj core.Object, set Set) (core.Properties, error) {
	out := obj.Properties.Clone()
	if out == nil {
		out = make(core.Properties)
	}
	envelope := extension.FindAlfresco(obj.Extensions)
	if envelope == nil {
		return out, nil
	}

	lookup := func(id string) *core.PropertyDefinition {
		return set.FindOwning(id).PropertyDefinition(id)
	}
	for _, container := range extension.Named(envelope, extension.Properties) {
		for _, el := range container.Children {
			id, value, err := property.DecodeElement(el, lookup)
			if err != nil {
				return nil, err
			}
			out[id] = value
		}
	}
	return out, nil
}

// propertiesElement encodes aspect values into the properties container,
// one propertyX element per value, ordered by property id.
func propertiesElement(values map[string]checkedValue) (*extension.Element, error) {
	elements := make([]*extension.Element, 0, len(values))
	for _, id := range slices.Sorted(maps.Keys(values)) {
		v := values[id]
		el, err := property.EncodeElement(v.def, v.raw)
		if err != nil {
			return nil, err
		}
		elements = append(elements, el)
	}
	return extension.NewContainer(extension.AlfrescoNamespace, extension.Properties, nil, elements...), nil
}

func setAspects(children []*extension.Element) *extension.Element {
	return extension.NewContainer(extension.AlfrescoNamespace, extension.SetAspects, nil, children...)
}
