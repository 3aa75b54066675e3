package property

import (
	"github.com/aretw0/facet/pkg/core"
	"github.com/aretw0/facet/pkg/extension"
)

// ElementName returns the name of the element that carries values of kind.
func ElementName(kind core.PropertyKind) string {
	switch kind {
	case core.KindBoolean:
		return "propertyBoolean"
	case core.KindDateTime:
		return "propertyDateTime"
	case core.KindDecimal:
		return "propertyDecimal"
	case core.KindInteger:
		return "propertyInteger"
	case core.KindID:
		return "propertyId"
	case core.KindHTML:
		return "propertyHtml"
	case core.KindURI:
		return "propertyUri"
	default:
		return "propertyString"
	}
}

// EncodeElement builds the propertyX element for value. A nil value yields
// an element without value children.
func EncodeElement(def *core.PropertyDefinition, value any) (*extension.Element, error) {
	texts, err := Encode(def, value)
	if err != nil {
		return nil, err
	}
	children := make([]*extension.Element, 0, len(texts))
	for _, text := range texts {
		children = append(children, extension.New(extension.CMISNamespace, extension.Value, nil, text))
	}
	attrs := map[string]string{extension.PropertyDefinitionID: def.ID}
	return extension.NewContainer(extension.CMISNamespace, ElementName(def.Kind), attrs, children...), nil
}

// DecodeElement reads a propertyX element back. lookup resolves the
// definition of the property the element names; a nil result is a
// validation failure.
//
// The returned value is shaped to the definition's cardinality.
func DecodeElement(el *extension.Element, lookup func(id string) *core.PropertyDefinition) (string, any, error) {
	if el == nil {
		return "", nil, core.Invalid("missing property element")
	}
	id, ok := el.Attribute(extension.PropertyDefinitionID)
	if !ok || id == "" {
		return "", nil, core.Invalid("element %q has no %s attribute", el.Name, extension.PropertyDefinitionID)
	}
	def := lookup(id)
	if def == nil {
		return id, nil, core.InvalidProperty(id, "property is not defined by any applied aspect")
	}
	items, err := Decode(def, extension.Values(el.Children, extension.Value))
	if err != nil {
		return id, nil, err
	}
	return id, Value(def, items), nil
}
