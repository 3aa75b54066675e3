// Package core holds the repository object model shared by every facet
// package: type and property definitions, object snapshots, the ports the
// aspect layer talks to and the error taxonomy.
package core

import (
	"maps"
	"slices"

	"github.com/aretw0/facet/pkg/extension"
)

// PropertyKind is the scalar kind of a property.
type PropertyKind string

const (
	KindString   PropertyKind = "string"
	KindID       PropertyKind = "id"
	KindURI      PropertyKind = "uri"
	KindHTML     PropertyKind = "html"
	KindBoolean  PropertyKind = "boolean"
	KindInteger  PropertyKind = "integer"
	KindDecimal  PropertyKind = "decimal"
	KindDateTime PropertyKind = "datetime"
)

// Valid reports whether k is a known kind.
func (k PropertyKind) Valid() bool {
	switch k {
	case KindString, KindID, KindURI, KindHTML, KindBoolean, KindInteger, KindDecimal, KindDateTime:
		return true
	}
	return false
}

// Cardinality tells whether a property holds one value or a list.
type Cardinality string

const (
	Single Cardinality = "single"
	Multi  Cardinality = "multi"
)

// Updatability describes when a property may be written.
type Updatability string

const (
	ReadOnly       Updatability = "readonly"
	ReadWrite      Updatability = "readwrite"
	WhenCheckedOut Updatability = "whencheckedout"
	OnCreate       Updatability = "oncreate"
)

// BaseTypeID identifies the root of a type hierarchy.
type BaseTypeID string

const (
	BaseDocument     BaseTypeID = "cmis:document"
	BaseFolder       BaseTypeID = "cmis:folder"
	BaseRelationship BaseTypeID = "cmis:relationship"
	BasePolicy       BaseTypeID = "cmis:policy"
	BaseItem         BaseTypeID = "cmis:item"
	BaseSecondary    BaseTypeID = "cmis:secondary"
)

// Well-known property ids.
const (
	PropObjectID               = "cmis:objectId"
	PropObjectTypeID           = "cmis:objectTypeId"
	PropBaseTypeID             = "cmis:baseTypeId"
	PropName                   = "cmis:name"
	PropSecondaryObjectTypeIDs = "cmis:secondaryObjectTypeIds"
	PropVersionLabel           = "cmis:versionLabel"
	PropIsLatestVersion        = "cmis:isLatestVersion"
	PropContentStreamLength    = "cmis:contentStreamLength"
	PropContentStreamMimeType  = "cmis:contentStreamMimeType"
	PropPath                   = "cmis:path"
	PropParentID               = "cmis:parentId"
	PropSourceID               = "cmis:sourceId"
	PropTargetID               = "cmis:targetId"
)

// ContentStreamAllowed tells whether documents of a type carry content.
type ContentStreamAllowed string

const (
	ContentNotAllowed ContentStreamAllowed = "notallowed"
	ContentAllowed    ContentStreamAllowed = "allowed"
	ContentRequired   ContentStreamAllowed = "required"
)

// PropertyDefinition describes a single property of a type.
type PropertyDefinition struct {
	ID           string       `yaml:"id" json:"id"`
	LocalName    string       `yaml:"localName,omitempty" json:"localName,omitempty"`
	DisplayName  string       `yaml:"displayName,omitempty" json:"displayName,omitempty"`
	QueryName    string       `yaml:"queryName,omitempty" json:"queryName,omitempty"`
	Kind         PropertyKind `yaml:"kind" json:"kind"`
	Cardinality  Cardinality  `yaml:"cardinality" json:"cardinality"`
	Updatability Updatability `yaml:"updatability,omitempty" json:"updatability,omitempty"`
	Required     bool         `yaml:"required,omitempty" json:"required,omitempty"`
}

// IsMulti reports whether the property holds a list of values.
func (d *PropertyDefinition) IsMulti() bool {
	return d.Cardinality == Multi
}

// TypeMutability lists the type-level operations a caller may perform.
type TypeMutability struct {
	Create bool `yaml:"create" json:"create"`
	Update bool `yaml:"update" json:"update"`
	Delete bool `yaml:"delete" json:"delete"`
}

// TypeDefinition describes an object type or an aspect (secondary type).
// Definitions are immutable once loaded; share them freely.
type TypeDefinition struct {
	ID             string     `yaml:"id" json:"id"`
	LocalName      string     `yaml:"localName,omitempty" json:"localName,omitempty"`
	LocalNamespace string     `yaml:"localNamespace,omitempty" json:"localNamespace,omitempty"`
	DisplayName    string     `yaml:"displayName,omitempty" json:"displayName,omitempty"`
	QueryName      string     `yaml:"queryName,omitempty" json:"queryName,omitempty"`
	Description    string     `yaml:"description,omitempty" json:"description,omitempty"`
	BaseTypeID     BaseTypeID `yaml:"baseTypeId" json:"baseTypeId"`
	ParentTypeID   string     `yaml:"parentTypeId,omitempty" json:"parentTypeId,omitempty"`

	Creatable                bool `yaml:"creatable,omitempty" json:"creatable,omitempty"`
	Fileable                 bool `yaml:"fileable,omitempty" json:"fileable,omitempty"`
	Queryable                bool `yaml:"queryable,omitempty" json:"queryable,omitempty"`
	FulltextIndexed          bool `yaml:"fulltextIndexed,omitempty" json:"fulltextIndexed,omitempty"`
	IncludedInSupertypeQuery bool `yaml:"includedInSupertypeQuery,omitempty" json:"includedInSupertypeQuery,omitempty"`
	ControllablePolicy       bool `yaml:"controllablePolicy,omitempty" json:"controllablePolicy,omitempty"`
	ControllableACL          bool `yaml:"controllableAcl,omitempty" json:"controllableAcl,omitempty"`

	// Document types only.
	Versionable          bool                 `yaml:"versionable,omitempty" json:"versionable,omitempty"`
	ContentStreamAllowed ContentStreamAllowed `yaml:"contentStreamAllowed,omitempty" json:"contentStreamAllowed,omitempty"`

	Mutability          TypeMutability                 `yaml:"mutability,omitempty" json:"mutability,omitempty"`
	PropertyDefinitions map[string]*PropertyDefinition `yaml:"propertyDefinitions,omitempty" json:"propertyDefinitions,omitempty"`

	// MandatoryAspects lists aspects every instance of the type must carry.
	// Only surfaced, never enforced here.
	MandatoryAspects []string             `yaml:"mandatoryAspects,omitempty" json:"mandatoryAspects,omitempty"`
	Extensions       []*extension.Element `yaml:"extensions,omitempty" json:"extensions,omitempty"`
}

// PropertyDefinition returns the definition for id, or nil.
func (t *TypeDefinition) PropertyDefinition(id string) *PropertyDefinition {
	if t == nil || t.PropertyDefinitions == nil {
		return nil
	}
	return t.PropertyDefinitions[id]
}

// Owns reports whether the type declares the property id.
func (t *TypeDefinition) Owns(id string) bool {
	return t.PropertyDefinition(id) != nil
}

// IsBaseType reports whether the type is the root of its hierarchy.
func (t *TypeDefinition) IsBaseType() bool {
	return t.ParentTypeID == ""
}

// IsSecondary reports whether the type is an aspect.
func (t *TypeDefinition) IsSecondary() bool {
	return t.BaseTypeID == BaseSecondary
}

// PropertyIDs returns the declared property ids in sorted order.
func (t *TypeDefinition) PropertyIDs() []string {
	if t == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(t.PropertyDefinitions))
}

// ProtocolVersion selects which aspect representation the repository speaks.
type ProtocolVersion string

const (
	// ProtocolV1 carries aspects in extension elements.
	ProtocolV1 ProtocolVersion = "1.0"
	// ProtocolV2 carries aspects as secondary type ids.
	ProtocolV2 ProtocolVersion = "1.1"
)

// RepositoryInfo describes the connected repository.
type RepositoryInfo struct {
	ID              string          `yaml:"id" json:"id"`
	Name            string          `yaml:"name,omitempty" json:"name,omitempty"`
	ProtocolVersion ProtocolVersion `yaml:"protocolVersion" json:"protocolVersion"`
	ProductName     string          `yaml:"productName,omitempty" json:"productName,omitempty"`
	ProductVersion  string          `yaml:"productVersion,omitempty" json:"productVersion,omitempty"`
}
