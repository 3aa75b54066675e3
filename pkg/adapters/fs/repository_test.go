package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/facet/pkg/adapters/fs"
	"github.com/aretw0/facet/pkg/aspect"
	"github.com/aretw0/facet/pkg/core"
	"github.com/aretw0/facet/pkg/extension"
)

const aspectTypes = `id: P:cm:titled
baseTypeId: cmis:secondary
parentTypeId: cmis:secondary
displayName: Titled
propertyDefinitions:
  cm:title:
    kind: string
  cm:description:
    kind: string
---
id: P:cm:taggable
baseTypeId: cmis:secondary
parentTypeId: cmis:secondary
propertyDefinitions:
  cm:taggable:
    kind: id
    cardinality: multi
`

// setupRepo creates a repository under a fresh temp dir. It is not
// initialized.
func setupRepo(t *testing.T, opts ...func(*fs.Config)) (*fs.Repository, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "repo")
	cfg := fs.Config{Path: path}
	for _, opt := range opts {
		opt(&cfg)
	}
	return fs.NewRepository(cfg), path
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func protocol(v core.ProtocolVersion) func(*fs.Config) {
	return func(c *fs.Config) { c.Info = core.RepositoryInfo{ID: "test", ProtocolVersion: v} }
}

func TestInitialize(t *testing.T) {
	t.Run("Creates Layout", func(t *testing.T) {
		repo, path := setupRepo(t)
		require.NoError(t, repo.Initialize(context.Background()))

		assert.FileExists(t, filepath.Join(path, fs.InfoFile))
		assert.FileExists(t, filepath.Join(path, fs.TypesDir, "base", "cmis_document.yaml"))
		assert.DirExists(t, filepath.Join(path, fs.ObjectsDir))
		assert.Len(t, repo.Types(), len(core.BaseTypes()))

		info, err := repo.RepositoryInfo(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "repo", info.ID)
		assert.Equal(t, core.ProtocolV2, info.ProtocolVersion)
	})

	t.Run("Keeps Existing Info", func(t *testing.T) {
		repo, path := setupRepo(t, protocol(core.ProtocolV1))
		require.NoError(t, repo.Initialize(context.Background()))

		reopened := fs.NewRepository(fs.Config{Path: path, MustExist: true})
		require.NoError(t, reopened.Initialize(context.Background()))
		info, err := reopened.RepositoryInfo(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "test", info.ID)
		assert.Equal(t, core.ProtocolV1, info.ProtocolVersion)
	})

	t.Run("Fails if MustExist and Missing", func(t *testing.T) {
		repo, _ := setupRepo(t, func(c *fs.Config) { c.MustExist = true })
		assert.Error(t, repo.Initialize(context.Background()))
	})

	t.Run("Read Only Needs Info File", func(t *testing.T) {
		repo := fs.NewRepository(fs.Config{Path: t.TempDir(), ReadOnly: true})
		assert.ErrorIs(t, repo.Initialize(context.Background()), core.ErrNotFound)
	})

	t.Run("Rejects Unknown Protocol", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, fs.InfoFile), "id: x\nprotocolVersion: \"9.9\"\n")
		repo := fs.NewRepository(fs.Config{Path: dir})
		assert.ErrorIs(t, repo.Initialize(context.Background()), core.ErrValidation)
	})

	t.Run("Transport Before Initialize", func(t *testing.T) {
		repo, _ := setupRepo(t)
		_, err := repo.RepositoryInfo(context.Background())
		assert.ErrorIs(t, err, core.ErrTransport)
	})
}

func TestAspectsPersistAcrossReopen(t *testing.T) {
	for _, v := range []core.ProtocolVersion{core.ProtocolV1, core.ProtocolV2} {
		t.Run("protocol "+string(v), func(t *testing.T) {
			ctx := context.Background()
			repo, path := setupRepo(t, protocol(v))
			writeFile(t, filepath.Join(path, fs.TypesDir, "aspects", "cm.yaml"), aspectTypes)
			require.NoError(t, repo.Initialize(ctx))

			svc, err := aspect.Connect(ctx, repo, repo)
			require.NoError(t, err)
			obj, err := svc.Create(ctx, core.Properties{
				core.PropObjectTypeID: "cmis:document,P:cm:titled",
				core.PropName:         "a.txt",
				"cm:title":            "A",
			})
			require.NoError(t, err)
			obj, err = svc.AddAspectsWithProperties(ctx, obj, []string{"P:cm:taggable"},
				core.Properties{"cm:taggable": []string{"t1"}})
			require.NoError(t, err)
			assert.FileExists(t, filepath.Join(path, fs.ObjectsDir, obj.ID+".yaml"))

			reopened := fs.NewRepository(fs.Config{Path: path, ReadOnly: true})
			require.NoError(t, reopened.Initialize(ctx))
			svc2, err := aspect.Connect(ctx, reopened, reopened)
			require.NoError(t, err)

			snapshot, err := reopened.GetObject(ctx, "test", obj.ID)
			require.NoError(t, err)
			m, err := svc2.Materialize(ctx, snapshot)
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"P:cm:titled", "P:cm:taggable"}, m.Aspects.IDs())
			assert.Equal(t, "A", m.Properties["cm:title"])
			assert.Equal(t, []any{"t1"}, m.Properties["cm:taggable"])

			if v == core.ProtocolV1 {
				assert.NotNil(t, extension.FindAlfresco(snapshot.Extensions))
			} else {
				assert.Empty(t, snapshot.Extensions)
			}
		})
	}
}

func TestReadOnlyRejectsWrites(t *testing.T) {
	ctx := context.Background()
	repo, path := setupRepo(t, protocol(core.ProtocolV2))
	require.NoError(t, repo.Initialize(ctx))

	ro := fs.NewRepository(fs.Config{Path: path, ReadOnly: true})
	require.NoError(t, ro.Initialize(ctx))

	_, err := ro.CreateObject(ctx, "test", core.Properties{core.PropObjectTypeID: "cmis:folder"}, nil)
	assert.ErrorIs(t, err, core.ErrReadOnly)
	assert.ErrorIs(t, ro.PutType(ctx, &core.TypeDefinition{ID: "P:x", BaseTypeID: core.BaseSecondary}), core.ErrReadOnly)

	state := ro.State().(fs.RepositoryState)
	assert.True(t, state.ReadOnly)
	assert.Equal(t, "test", state.RepositoryID)
}

func TestReloadCatalog(t *testing.T) {
	ctx := context.Background()
	repo, path := setupRepo(t)
	require.NoError(t, repo.Initialize(ctx))
	file := filepath.Join(path, fs.TypesDir, "custom.yaml")

	t.Run("Picks Up New Files", func(t *testing.T) {
		writeFile(t, file, "id: P:a\nbaseTypeId: cmis:secondary\n")
		require.NoError(t, repo.Reload(ctx))
		_, err := repo.GetTypeDefinition(ctx, "P:a")
		require.NoError(t, err)
	})

	t.Run("Reparses Changed Files", func(t *testing.T) {
		writeFile(t, file, "id: P:b\nbaseTypeId: cmis:secondary\n")
		later := time.Now().Add(time.Minute)
		require.NoError(t, os.Chtimes(file, later, later))
		require.NoError(t, repo.Reload(ctx))

		_, err := repo.GetTypeDefinition(ctx, "P:b")
		require.NoError(t, err)
		_, err = repo.GetTypeDefinition(ctx, "P:a")
		assert.True(t, core.IsUnknownType(err))
	})

	t.Run("Broken File Keeps Previous Catalog", func(t *testing.T) {
		writeFile(t, file, "id: [unterminated\n")
		later := time.Now().Add(2 * time.Minute)
		require.NoError(t, os.Chtimes(file, later, later))
		assert.Error(t, repo.Reload(ctx))

		_, err := repo.GetTypeDefinition(ctx, "P:b")
		assert.NoError(t, err)
	})

	t.Run("Removed Files Drop Their Types", func(t *testing.T) {
		require.NoError(t, os.Remove(file))
		require.NoError(t, repo.Reload(ctx))
		assert.Len(t, repo.Types(), len(core.BaseTypes()))
	})
}

func TestDuplicateTypeFirstFileWins(t *testing.T) {
	ctx := context.Background()
	repo, path := setupRepo(t)
	writeFile(t, filepath.Join(path, fs.TypesDir, "a.yaml"), "id: P:dup\nbaseTypeId: cmis:secondary\ndisplayName: first\n")
	writeFile(t, filepath.Join(path, fs.TypesDir, "b.yaml"), "id: P:dup\nbaseTypeId: cmis:secondary\ndisplayName: second\n")
	require.NoError(t, repo.Initialize(ctx))

	def, err := repo.GetTypeDefinition(ctx, "P:dup")
	require.NoError(t, err)
	assert.Equal(t, "first", def.DisplayName)
}

func TestPutType(t *testing.T) {
	ctx := context.Background()
	repo, path := setupRepo(t)
	require.NoError(t, repo.Initialize(ctx))

	err := repo.PutType(ctx, &core.TypeDefinition{
		ID:         "P:cm:versionable",
		BaseTypeID: core.BaseSecondary,
		PropertyDefinitions: map[string]*core.PropertyDefinition{
			"cm:label": {Kind: core.KindString},
		},
	})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(path, fs.TypesDir, "P_cm_versionable.yaml"))

	def, err := repo.GetTypeDefinition(ctx, "P:cm:versionable")
	require.NoError(t, err)
	label := def.PropertyDefinition("cm:label")
	require.NotNil(t, label)
	assert.Equal(t, core.Single, label.Cardinality)
	assert.Equal(t, core.ReadWrite, label.Updatability)

	err = repo.PutType(ctx, &core.TypeDefinition{
		ID:         "P:bad",
		BaseTypeID: core.BaseSecondary,
		PropertyDefinitions: map[string]*core.PropertyDefinition{
			"x": {Kind: "float"},
		},
	})
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestObjectIDsCannotEscape(t *testing.T) {
	ctx := context.Background()
	repo, _ := setupRepo(t, protocol(core.ProtocolV2))
	require.NoError(t, repo.Initialize(ctx))

	for _, id := range []string{"../repository", "a/b", ".hidden", ""} {
		_, err := repo.GetObject(ctx, "test", id)
		assert.ErrorIs(t, err, core.ErrNotFound, id)
	}
}

func TestListObjects(t *testing.T) {
	ctx := context.Background()
	repo, _ := setupRepo(t, protocol(core.ProtocolV1))
	require.NoError(t, repo.Initialize(ctx))

	for _, name := range []string{"x", "y", "z"} {
		_, err := repo.CreateObject(ctx, "test", core.Properties{
			core.PropObjectTypeID: "cmis:folder",
			core.PropName:         name,
		}, nil)
		require.NoError(t, err)
	}
	objects, err := repo.ListObjects(ctx, "test")
	require.NoError(t, err)
	assert.Len(t, objects, 3)
}
