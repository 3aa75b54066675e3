package aspect

import (
	"context"
	"log/slog"

	"github.com/aretw0/facet/pkg/core"
	"github.com/aretw0/facet/pkg/extension"
	"github.com/aretw0/facet/pkg/property"
)

// secondaryTypeStrategy speaks protocol v2: aspects are the secondary type
// ids of the object and their values are regular properties.
type secondaryTypeStrategy struct {
	logger *slog.Logger

	// legacy reads objects that carry no secondary type ids.
	legacy *extensionStrategy
}

func (s *secondaryTypeStrategy) Version() core.ProtocolVersion { return core.ProtocolV2 }

func (s *secondaryTypeStrategy) Resolve(ctx context.Context, obj core.Object, lookup core.TypeLookup) (Set, error) {
	ids, ok := obj.Properties.Strings(core.PropSecondaryObjectTypeIDs)
	if !ok {
		return s.legacy.Resolve(ctx, obj, lookup)
	}
	return resolveIDs(ctx, ids, lookup, s.logger)
}

func (s *secondaryTypeStrategy) Render(set Set, values core.Properties) (core.Properties, []*extension.Element, error) {
	props := values.Clone()
	if props == nil {
		props = make(core.Properties)
	}
	props[core.PropSecondaryObjectTypeIDs] = stringList(set.IDs())
	return props, nil, nil
}

func (s *secondaryTypeStrategy) Plan(obj core.Object, current Set, m Mutation) (Plan, error) {
	values, err := validate(m)
	if err != nil {
		return Plan{}, err
	}
	if isNoOp(current, m) {
		s.logger.Debug("aspect mutation is a no-op", "object", obj.ID)
		return Plan{NoOp: true}, nil
	}

	next := current
	for _, t := range m.Add {
		next = next.with(t)
	}
	remove := NewSet(m.Remove...)
	ids := make([]string, 0, next.Len())
	for _, id := range next.IDs() {
		if !remove.Has(id) {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		s.logger.Debug("aspect mutation leaves no secondary types, skipping", "object", obj.ID)
		return Plan{NoOp: true}, nil
	}

	props := core.Properties{core.PropSecondaryObjectTypeIDs: stringList(ids)}
	for id, v := range values {
		props[id] = v.wire()
	}
	return Plan{Properties: props}, nil
}

func (s *secondaryTypeStrategy) ConvertProperties(props core.Properties, primary *core.TypeDefinition, aspects []*core.TypeDefinition) (core.Properties, []*extension.Element, error) {
	parts, err := Partition(props, primary, aspects)
	if err != nil {
		return nil, nil, err
	}
	out := parts.Primary
	for id, raw := range parts.Aspect {
		def := parts.AspectDefs[id]
		items, err := property.Check(def, raw)
		if err != nil {
			return nil, nil, err
		}
		out[id] = checkedValue{def: def, raw: raw, items: items}.wire()
	}
	out[core.PropSecondaryObjectTypeIDs] = stringList(uniqueIDs(aspects))
	return out, nil, nil
}

func (s *secondaryTypeStrategy) DecodeProperties(obj core.Object, set Set) (core.Properties, error) {
	if _, ok := obj.Properties[core.PropSecondaryObjectTypeIDs]; !ok {
		return s.legacy.DecodeProperties(obj, set)
	}
	out := obj.Properties.Clone()
	if out == nil {
		out = make(core.Properties)
	}
	return out, nil
}

func stringList(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
