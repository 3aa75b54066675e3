package core

// PropDescription is the optional free text description of an object.
const PropDescription = "cmis:description"

// BaseTypes returns fresh definitions of the base types a new repository
// starts with. Callers may modify the result.
func BaseTypes() []*TypeDefinition {
	name := func() *PropertyDefinition {
		return &PropertyDefinition{
			ID: PropName, LocalName: "name", DisplayName: "Name", QueryName: PropName,
			Kind: KindString, Cardinality: Single, Updatability: ReadWrite, Required: true,
		}
	}
	description := func() *PropertyDefinition {
		return &PropertyDefinition{
			ID: PropDescription, LocalName: "description", DisplayName: "Description", QueryName: PropDescription,
			Kind: KindString, Cardinality: Single, Updatability: ReadWrite,
		}
	}
	defs := func(props ...*PropertyDefinition) map[string]*PropertyDefinition {
		out := make(map[string]*PropertyDefinition, len(props))
		for _, p := range props {
			out[p.ID] = p
		}
		return out
	}

	return []*TypeDefinition{
		{
			ID: string(BaseDocument), LocalName: "document", DisplayName: "Document", QueryName: string(BaseDocument),
			BaseTypeID: BaseDocument, Creatable: true, Fileable: true, Queryable: true, IncludedInSupertypeQuery: true,
			Versionable: true, ContentStreamAllowed: ContentAllowed,
			PropertyDefinitions: defs(name(), description()),
		},
		{
			ID: string(BaseFolder), LocalName: "folder", DisplayName: "Folder", QueryName: string(BaseFolder),
			BaseTypeID: BaseFolder, Creatable: true, Fileable: true, Queryable: true, IncludedInSupertypeQuery: true,
			PropertyDefinitions: defs(name(), description()),
		},
		{
			ID: string(BaseRelationship), LocalName: "relationship", DisplayName: "Relationship", QueryName: string(BaseRelationship),
			BaseTypeID: BaseRelationship, Creatable: true, Queryable: true,
			PropertyDefinitions: defs(name()),
		},
		{
			ID: string(BaseItem), LocalName: "item", DisplayName: "Item", QueryName: string(BaseItem),
			BaseTypeID: BaseItem, Creatable: true, Fileable: true, Queryable: true,
			PropertyDefinitions: defs(name()),
		},
		{
			ID: string(BaseSecondary), LocalName: "secondary", DisplayName: "Secondary Type", QueryName: string(BaseSecondary),
			BaseTypeID: BaseSecondary, Queryable: true,
		},
	}
}
