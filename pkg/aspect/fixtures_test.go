package aspect_test

import (
	"context"

	"github.com/aretw0/facet/pkg/core"
	"github.com/aretw0/facet/pkg/extension"
)

func prop(id string, kind core.PropertyKind, card core.Cardinality) *core.PropertyDefinition {
	return &core.PropertyDefinition{ID: id, Kind: kind, Cardinality: card, Updatability: core.ReadWrite}
}

func typeDef(id string, base core.BaseTypeID, parent string, props ...*core.PropertyDefinition) *core.TypeDefinition {
	defs := make(map[string]*core.PropertyDefinition, len(props))
	for _, p := range props {
		defs[p.ID] = p
	}
	return &core.TypeDefinition{ID: id, BaseTypeID: base, ParentTypeID: parent, PropertyDefinitions: defs}
}

var (
	documentType = typeDef("cmis:document", core.BaseDocument, "",
		prop(core.PropName, core.KindString, core.Single),
		prop(core.PropObjectTypeID, core.KindID, core.Single),
	)
	titled = typeDef("P:titled", core.BaseSecondary, "cmis:secondary",
		prop("P:title", core.KindString, core.Single),
		prop("P:description", core.KindString, core.Single),
	)
	effectivity = typeDef("P:effectivity", core.BaseSecondary, "cmis:secondary",
		prop("P:effectivity:startDate", core.KindDateTime, core.Single),
		prop("P:effectivity:endDate", core.KindDateTime, core.Single),
	)
	versionable = typeDef("P:versionable", core.BaseSecondary, "cmis:secondary",
		prop("P:versionLabel", core.KindString, core.Single),
	)
	tagged = typeDef("P:tagged", core.BaseSecondary, "cmis:secondary",
		prop("P:tags", core.KindString, core.Multi),
		// Also declared by P:titled.
		prop("P:title", core.KindString, core.Single),
	)
)

// catalog is a map-backed lookup counting calls.
type catalog struct {
	types map[string]*core.TypeDefinition
	calls int
	fail  error
}

func newCatalog(types ...*core.TypeDefinition) *catalog {
	c := &catalog{types: make(map[string]*core.TypeDefinition)}
	for _, t := range types {
		c.types[t.ID] = t
	}
	return c
}

func fullCatalog() *catalog {
	return newCatalog(documentType, titled, effectivity, versionable, tagged)
}

func (c *catalog) GetTypeDefinition(_ context.Context, id string) (*core.TypeDefinition, error) {
	c.calls++
	if c.fail != nil {
		return nil, c.fail
	}
	t, ok := c.types[id]
	if !ok {
		return nil, &core.UnknownTypeError{TypeID: id}
	}
	return t, nil
}

func (c *catalog) GetTypeChildren(_ context.Context, id string) ([]*core.TypeDefinition, error) {
	var out []*core.TypeDefinition
	for _, t := range c.types {
		if t.ParentTypeID == id {
			out = append(out, t)
		}
	}
	return out, nil
}

func (c *catalog) GetTypeDescendants(ctx context.Context, id string, depth int) ([]*core.TypeDefinition, error) {
	return c.GetTypeChildren(ctx, id)
}

// recordingTransport serves one object and records updates.
type recordingTransport struct {
	info    core.RepositoryInfo
	objects map[string]core.Object

	updates    int
	gets       int
	lastProps  core.Properties
	lastExts   []*extension.Element
	nextID     string
	updateFail error
}

func (t *recordingTransport) RepositoryInfo(context.Context) (core.RepositoryInfo, error) {
	return t.info, nil
}

func (t *recordingTransport) GetObject(_ context.Context, _ string, id string) (core.Object, error) {
	t.gets++
	obj, ok := t.objects[id]
	if !ok {
		return core.Object{}, core.ErrNotFound
	}
	return obj, nil
}

func (t *recordingTransport) UpdateProperties(_ context.Context, _ string, id string, props core.Properties, exts []*extension.Element) (string, error) {
	t.updates++
	if t.updateFail != nil {
		return "", t.updateFail
	}
	t.lastProps = props
	t.lastExts = exts
	if t.nextID != "" {
		return t.nextID, nil
	}
	return id, nil
}
