// Package extension models the namespaced, nested element trees that
// repositories attach to objects, properties and type definitions.
//
// The package knows nothing about aspects. It only builds trees and finds
// elements in them; higher layers decide what the elements mean.
package extension

import "slices"

// Well-known namespaces.
const (
	AlfrescoNamespace = "http://www.alfresco.org"
	CMISNamespace     = "http://docs.oasis-open.org/ns/cmis/core/200908/"
)

// Element names used by the legacy aspect envelope.
const (
	AspectsEnvelope  = "aspects"
	AppliedAspects   = "appliedAspects"
	SetAspects       = "setAspects"
	AspectsToAdd     = "aspectsToAdd"
	AspectsToRemove  = "aspectsToRemove"
	Properties       = "properties"
	MandatoryAspects = "mandatoryAspects"
	MandatoryAspect  = "mandatoryAspect"
	Value            = "value"

	// PropertyDefinitionID is the attribute naming the property a
	// propertyX element carries values for.
	PropertyDefinitionID = "propertyDefinitionId"
)

// Element is a single node of an extension tree.
// A leaf carries Value; a container carries Children.
type Element struct {
	Namespace  string            `yaml:"namespace,omitempty" json:"namespace,omitempty"`
	Name       string            `yaml:"name" json:"name"`
	Attributes map[string]string `yaml:"attributes,omitempty" json:"attributes,omitempty"`
	Value      string            `yaml:"value,omitempty" json:"value,omitempty"`
	Children   []*Element        `yaml:"children,omitempty" json:"children,omitempty"`
}

// New builds a leaf element carrying a scalar value.
func New(namespace, name string, attributes map[string]string, value string) *Element {
	return &Element{
		Namespace:  namespace,
		Name:       name,
		Attributes: copyAttributes(attributes),
		Value:      value,
	}
}

// NewContainer builds an element holding child elements.
func NewContainer(namespace, name string, attributes map[string]string, children ...*Element) *Element {
	return &Element{
		Namespace:  namespace,
		Name:       name,
		Attributes: copyAttributes(attributes),
		Children:   slices.Clone(children),
	}
}

// Attribute returns the named attribute and whether it was present.
func (e *Element) Attribute(name string) (string, bool) {
	if e == nil || e.Attributes == nil {
		return "", false
	}
	v, ok := e.Attributes[name]
	return v, ok
}

// Clone returns a deep copy of the element.
func (e *Element) Clone() *Element {
	if e == nil {
		return nil
	}
	out := &Element{
		Namespace:  e.Namespace,
		Name:       e.Name,
		Attributes: copyAttributes(e.Attributes),
		Value:      e.Value,
	}
	if len(e.Children) > 0 {
		out.Children = make([]*Element, len(e.Children))
		for i, c := range e.Children {
			out.Children[i] = c.Clone()
		}
	}
	return out
}

// Equal reports whether two elements are structurally identical,
// including child order.
func (e *Element) Equal(other *Element) bool {
	if e == nil || other == nil {
		return e == other
	}
	if e.Namespace != other.Namespace || e.Name != other.Name || e.Value != other.Value {
		return false
	}
	if len(e.Attributes) != len(other.Attributes) {
		return false
	}
	for k, v := range e.Attributes {
		if ov, ok := other.Attributes[k]; !ok || ov != v {
			return false
		}
	}
	return slices.EqualFunc(e.Children, other.Children, func(a, b *Element) bool {
		return a.Equal(b)
	})
}

// CloneTree deep-copies a list of elements.
func CloneTree(tree []*Element) []*Element {
	if tree == nil {
		return nil
	}
	out := make([]*Element, len(tree))
	for i, e := range tree {
		out[i] = e.Clone()
	}
	return out
}

func copyAttributes(attributes map[string]string) map[string]string {
	if len(attributes) == 0 {
		return nil
	}
	out := make(map[string]string, len(attributes))
	for k, v := range attributes {
		out[k] = v
	}
	return out
}
