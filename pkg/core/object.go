package core

import (
	"fmt"
	"maps"
	"slices"

	"github.com/aretw0/facet/pkg/extension"
)

// ObjectKind is the variant tag of an Object.
type ObjectKind string

const (
	KindDocument     ObjectKind = "document"
	KindFolder       ObjectKind = "folder"
	KindItem         ObjectKind = "item"
	KindPolicy       ObjectKind = "policy"
	KindRelationship ObjectKind = "relationship"
)

// KindOf maps a base type id to the object variant it materializes as.
func KindOf(base BaseTypeID) (ObjectKind, error) {
	switch base {
	case BaseDocument:
		return KindDocument, nil
	case BaseFolder:
		return KindFolder, nil
	case BaseItem:
		return KindItem, nil
	case BasePolicy:
		return KindPolicy, nil
	case BaseRelationship:
		return KindRelationship, nil
	default:
		return "", fmt.Errorf("unsupported base type: %q", base)
	}
}

// Properties maps property ids to values. Single-valued properties hold a
// scalar, multi-valued properties hold a []any.
type Properties map[string]any

// Clone returns a shallow copy; multi-value slices are copied too.
func (p Properties) Clone() Properties {
	if p == nil {
		return nil
	}
	out := make(Properties, len(p))
	for k, v := range p {
		if list, ok := v.([]any); ok {
			v = slices.Clone(list)
		}
		out[k] = v
	}
	return out
}

// Keys returns the property ids in sorted order.
func (p Properties) Keys() []string {
	return slices.Sorted(maps.Keys(p))
}

// Strings returns the value of id as a list of strings. Scalars become a
// one-element list; non-string elements are skipped. ok is false when the
// property is absent.
func (p Properties) Strings(id string) (values []string, ok bool) {
	raw, ok := p[id]
	if !ok {
		return nil, false
	}
	switch v := raw.(type) {
	case nil:
		return []string{}, true
	case string:
		return []string{v}, true
	case []string:
		return slices.Clone(v), true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, isString := item.(string); isString {
				out = append(out, s)
			}
		}
		return out, true
	default:
		return []string{}, true
	}
}

// String returns the first string value of id.
func (p Properties) String(id string) string {
	values, _ := p.Strings(id)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// DocumentFields carries document-only state.
type DocumentFields struct {
	VersionLabel    string `yaml:"versionLabel,omitempty" json:"versionLabel,omitempty"`
	IsLatestVersion bool   `yaml:"isLatestVersion,omitempty" json:"isLatestVersion,omitempty"`
	ContentLength   int64  `yaml:"contentLength,omitempty" json:"contentLength,omitempty"`
	MimeType        string `yaml:"mimeType,omitempty" json:"mimeType,omitempty"`
}

// FolderFields carries folder-only state.
type FolderFields struct {
	Path     string `yaml:"path,omitempty" json:"path,omitempty"`
	ParentID string `yaml:"parentId,omitempty" json:"parentId,omitempty"`
}

// RelationshipFields carries relationship-only state.
type RelationshipFields struct {
	SourceID string `yaml:"sourceId,omitempty" json:"sourceId,omitempty"`
	TargetID string `yaml:"targetId,omitempty" json:"targetId,omitempty"`
}

// Object is an immutable snapshot of a repository object as read from the
// wire. Mutations never change a snapshot; they yield a new object id that
// must be read again.
//
// Exactly one of Document, Folder or Relationship is set when Kind is the
// matching variant; items and policies carry no extra payload.
type Object struct {
	ID         string
	Kind       ObjectKind
	TypeID     string
	Properties Properties
	Extensions []*extension.Element

	Document     *DocumentFields
	Folder       *FolderFields
	Relationship *RelationshipFields
}

// Property returns the raw value of id and whether it is present.
func (o Object) Property(id string) (any, bool) {
	v, ok := o.Properties[id]
	return v, ok
}

// Clone returns a deep copy of the snapshot.
func (o Object) Clone() Object {
	out := o
	out.Properties = o.Properties.Clone()
	out.Extensions = extension.CloneTree(o.Extensions)
	if o.Document != nil {
		d := *o.Document
		out.Document = &d
	}
	if o.Folder != nil {
		f := *o.Folder
		out.Folder = &f
	}
	if o.Relationship != nil {
		r := *o.Relationship
		out.Relationship = &r
	}
	return out
}
