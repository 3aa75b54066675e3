package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/facet/pkg/adapters/memory"
	"github.com/aretw0/facet/pkg/aspect"
	"github.com/aretw0/facet/pkg/core"
	"github.com/aretw0/facet/pkg/extension"
)

func prop(id string, kind core.PropertyKind, card core.Cardinality) *core.PropertyDefinition {
	return &core.PropertyDefinition{ID: id, Kind: kind, Cardinality: card, Updatability: core.ReadWrite}
}

func catalogTypes() []*core.TypeDefinition {
	defs := func(props ...*core.PropertyDefinition) map[string]*core.PropertyDefinition {
		out := make(map[string]*core.PropertyDefinition)
		for _, p := range props {
			out[p.ID] = p
		}
		return out
	}
	return []*core.TypeDefinition{
		{
			ID: "cmis:document", BaseTypeID: core.BaseDocument, Versionable: true,
			PropertyDefinitions: defs(prop(core.PropName, core.KindString, core.Single)),
		},
		{
			ID: "cmis:folder", BaseTypeID: core.BaseFolder,
			PropertyDefinitions: defs(prop(core.PropName, core.KindString, core.Single)),
		},
		{ID: "cmis:secondary", BaseTypeID: core.BaseSecondary},
		{
			ID: "P:cm:titled", BaseTypeID: core.BaseSecondary, ParentTypeID: "cmis:secondary",
			PropertyDefinitions: defs(
				prop("cm:title", core.KindString, core.Single),
				prop("cm:description", core.KindString, core.Single),
			),
		},
		{
			ID: "P:cm:effectivity", BaseTypeID: core.BaseSecondary, ParentTypeID: "cmis:secondary",
			PropertyDefinitions: defs(
				prop("cm:from", core.KindDateTime, core.Single),
				prop("cm:to", core.KindDateTime, core.Single),
			),
		},
		{
			ID: "P:cm:taggable", BaseTypeID: core.BaseSecondary, ParentTypeID: "cmis:secondary",
			PropertyDefinitions: defs(prop("cm:taggable", core.KindID, core.Multi)),
		},
	}
}

func setup(t *testing.T, version core.ProtocolVersion, versioning bool) (*memory.Repository, *aspect.Service) {
	t.Helper()
	repo, err := memory.New(memory.Config{
		Info:            core.RepositoryInfo{ID: "test", ProtocolVersion: version},
		Types:           catalogTypes(),
		VersionOnUpdate: versioning,
	})
	require.NoError(t, err)
	require.NoError(t, repo.Initialize(context.Background()))

	svc, err := aspect.Connect(context.Background(), repo, repo)
	require.NoError(t, err)
	return repo, svc
}

func bothProtocols(t *testing.T, fn func(t *testing.T, version core.ProtocolVersion)) {
	for _, v := range []core.ProtocolVersion{core.ProtocolV1, core.ProtocolV2} {
		t.Run("protocol "+string(v), func(t *testing.T) { fn(t, v) })
	}
}

func TestCreateWithCompositeType(t *testing.T) {
	bothProtocols(t, func(t *testing.T, version core.ProtocolVersion) {
		_, svc := setup(t, version, false)
		ctx := context.Background()

		obj, err := svc.Create(ctx, core.Properties{
			core.PropObjectTypeID: "cmis:document,P:cm:titled",
			core.PropName:         "report.pdf",
			"cm:title":            "Quarterly report",
		})
		require.NoError(t, err)
		assert.Equal(t, core.KindDocument, obj.Kind)
		require.NotNil(t, obj.Document)
		assert.Equal(t, "1.0", obj.Document.VersionLabel)

		m, err := svc.Materialize(ctx, obj)
		require.NoError(t, err)
		assert.Equal(t, []string{"P:cm:titled"}, m.Aspects.IDs())
		assert.Equal(t, "Quarterly report", m.Properties["cm:title"])
		assert.Equal(t, "report.pdf", m.Properties[core.PropName])
	})
}

func TestWireFormMatchesProtocol(t *testing.T) {
	ctx := context.Background()

	_, legacy := setup(t, core.ProtocolV1, false)
	obj, err := legacy.Create(ctx, core.Properties{
		core.PropObjectTypeID: "cmis:document,P:cm:titled",
		"cm:title":            "x",
	})
	require.NoError(t, err)
	assert.NotContains(t, obj.Properties, core.PropSecondaryObjectTypeIDs)
	assert.NotContains(t, obj.Properties, "cm:title")
	envelope := extension.FindAlfresco(obj.Extensions)
	assert.Equal(t, []string{"P:cm:titled"}, extension.Values(envelope, extension.AppliedAspects))

	_, native := setup(t, core.ProtocolV2, false)
	obj, err = native.Create(ctx, core.Properties{
		core.PropObjectTypeID: "cmis:document,P:cm:titled",
		"cm:title":            "x",
	})
	require.NoError(t, err)
	assert.Empty(t, obj.Extensions)
	assert.Equal(t, []any{"P:cm:titled"}, obj.Properties[core.PropSecondaryObjectTypeIDs])
	assert.Equal(t, "x", obj.Properties["cm:title"])
}

func TestAddAndRemoveAspects(t *testing.T) {
	bothProtocols(t, func(t *testing.T, version core.ProtocolVersion) {
		repo, svc := setup(t, version, false)
		ctx := context.Background()
		from := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

		obj, err := svc.Create(ctx, core.Properties{
			core.PropObjectTypeID: "cmis:document,P:cm:titled",
			core.PropName:         "a.txt",
		})
		require.NoError(t, err)

		obj, err = svc.AddAspectsWithProperties(ctx, obj, []string{"P:cm:effectivity"}, core.Properties{"cm:from": from})
		require.NoError(t, err)

		m, err := svc.Materialize(ctx, obj)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"P:cm:titled", "P:cm:effectivity"}, m.Aspects.IDs())
		assert.True(t, from.Equal(m.Properties["cm:from"].(time.Time)))

		obj, err = svc.RemoveAspects(ctx, obj, "P:cm:effectivity")
		require.NoError(t, err)
		m, err = svc.Materialize(ctx, obj)
		require.NoError(t, err)
		assert.Equal(t, []string{"P:cm:titled"}, m.Aspects.IDs())
		assert.NotContains(t, m.Properties, "cm:from")

		// No-ops never reach the repository.
		repo.ResetCalls()
		same, err := svc.AddAspects(ctx, obj, "P:cm:titled")
		require.NoError(t, err)
		assert.Equal(t, obj.ID, same.ID)
		assert.Zero(t, repo.Calls().Update)
		assert.Zero(t, repo.Calls().GetObject)
	})
}

func TestUpdateAspectProperties(t *testing.T) {
	bothProtocols(t, func(t *testing.T, version core.ProtocolVersion) {
		_, svc := setup(t, version, false)
		ctx := context.Background()

		obj, err := svc.Create(ctx, core.Properties{
			core.PropObjectTypeID: "cmis:document,P:cm:titled,P:cm:taggable",
			core.PropName:         "a.txt",
		})
		require.NoError(t, err)

		obj, err = svc.UpdateProperties(ctx, obj, core.Properties{
			core.PropName: "b.txt",
			"cm:title":    "Title",
			"cm:taggable": []string{"t1", "t2"},
		})
		require.NoError(t, err)

		m, err := svc.Materialize(ctx, obj)
		require.NoError(t, err)
		assert.Equal(t, "b.txt", m.Properties[core.PropName])
		assert.Equal(t, "Title", m.Properties["cm:title"])
		assert.Equal(t, []any{"t1", "t2"}, m.Properties["cm:taggable"])

		_, err = svc.UpdateProperties(ctx, obj, core.Properties{"cm:from": time.Now()})
		assert.ErrorIs(t, err, core.ErrValidation)
	})
}

func TestUpdateKeepsAppliedAspects(t *testing.T) {
	bothProtocols(t, func(t *testing.T, version core.ProtocolVersion) {
		_, svc := setup(t, version, false)
		ctx := context.Background()

		obj, err := svc.Create(ctx, core.Properties{
			core.PropObjectTypeID: "cmis:document,P:cm:titled",
			core.PropName:         "a.txt",
			"cm:title":            "T",
		})
		require.NoError(t, err)

		// A plain type id does not detach anything.
		obj, err = svc.UpdateProperties(ctx, obj, core.Properties{
			core.PropObjectTypeID: "cmis:document",
			core.PropName:         "b.txt",
		})
		require.NoError(t, err)
		m, err := svc.Materialize(ctx, obj)
		require.NoError(t, err)
		assert.Equal(t, []string{"P:cm:titled"}, m.Aspects.IDs())
		assert.Equal(t, "T", m.Properties["cm:title"])
		assert.Equal(t, "b.txt", m.Properties[core.PropName])

		// A composite type id may add aspects.
		obj, err = svc.UpdateProperties(ctx, obj, core.Properties{
			core.PropObjectTypeID: "cmis:document,P:cm:taggable",
			"cm:taggable":         []string{"t1"},
		})
		require.NoError(t, err)
		m, err = svc.Materialize(ctx, obj)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"P:cm:titled", "P:cm:taggable"}, m.Aspects.IDs())
		assert.Equal(t, "T", m.Properties["cm:title"])
		assert.Equal(t, []any{"t1"}, m.Properties["cm:taggable"])

		_, err = svc.UpdateProperties(ctx, obj, core.Properties{core.PropObjectTypeID: "cmis:folder"})
		assert.ErrorIs(t, err, core.ErrValidation)
	})
}

func TestVersionOnUpdate(t *testing.T) {
	repo, svc := setup(t, core.ProtocolV2, true)
	ctx := context.Background()

	obj, err := svc.Create(ctx, core.Properties{core.PropObjectTypeID: "cmis:document", core.PropName: "v.txt"})
	require.NoError(t, err)

	next, err := svc.AddAspects(ctx, obj, "P:cm:titled")
	require.NoError(t, err)
	assert.NotEqual(t, obj.ID, next.ID)
	assert.Equal(t, "1.1", next.Document.VersionLabel)
	assert.True(t, next.Document.IsLatestVersion)

	old, err := repo.GetObject(ctx, "test", obj.ID)
	require.NoError(t, err)
	assert.False(t, old.Document.IsLatestVersion)

	has, err := svc.HasAspect(ctx, old, "P:cm:titled")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestRepositoryRejectsForeignProtocolForm(t *testing.T) {
	ctx := context.Background()

	repo, svc := setup(t, core.ProtocolV1, false)
	obj, err := svc.Create(ctx, core.Properties{core.PropObjectTypeID: "cmis:document"})
	require.NoError(t, err)
	_, err = repo.UpdateProperties(ctx, "test", obj.ID,
		core.Properties{core.PropSecondaryObjectTypeIDs: []any{"P:cm:titled"}}, nil)
	assert.ErrorIs(t, err, core.ErrValidation)

	repo, svc = setup(t, core.ProtocolV2, false)
	obj, err = svc.Create(ctx, core.Properties{core.PropObjectTypeID: "cmis:document"})
	require.NoError(t, err)
	_, err = repo.UpdateProperties(ctx, "test", obj.ID, nil, []*extension.Element{
		extension.NewContainer(extension.AlfrescoNamespace, extension.SetAspects, nil),
	})
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestRepositoryErrors(t *testing.T) {
	repo, _ := setup(t, core.ProtocolV2, false)
	ctx := context.Background()

	_, err := repo.GetObject(ctx, "test", "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = repo.GetObject(ctx, "other", "missing")
	assert.ErrorIs(t, err, core.ErrTransport)

	_, err = repo.GetTypeDefinition(ctx, "P:none")
	assert.True(t, core.IsUnknownType(err))

	_, err = repo.CreateObject(ctx, "test", core.Properties{core.PropObjectTypeID: "P:cm:titled"}, nil)
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestTypeHierarchy(t *testing.T) {
	repo, _ := setup(t, core.ProtocolV2, false)
	ctx := context.Background()

	children, err := repo.GetTypeChildren(ctx, "cmis:secondary")
	require.NoError(t, err)
	ids := make([]string, 0, len(children))
	for _, c := range children {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"P:cm:effectivity", "P:cm:taggable", "P:cm:titled"}, ids)

	_, err = repo.GetTypeDescendants(ctx, "cmis:secondary", 0)
	assert.ErrorIs(t, err, core.ErrValidation)

	state := repo.State().(memory.RepositoryState)
	assert.Equal(t, len(catalogTypes()), state.Types)
}

func TestListObjects(t *testing.T) {
	repo, svc := setup(t, core.ProtocolV1, false)
	ctx := context.Background()

	for _, name := range []string{"a", "b"} {
		_, err := svc.Create(ctx, core.Properties{core.PropObjectTypeID: "cmis:folder", core.PropName: name})
		require.NoError(t, err)
	}
	objects, err := repo.ListObjects(ctx, "")
	require.NoError(t, err)
	require.Len(t, objects, 2)
	for _, obj := range objects {
		assert.Equal(t, core.KindFolder, obj.Kind)
		assert.NotEmpty(t, obj.Folder.Path)
	}
}
