package platform

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/facet/pkg/adapters/fs"
	"github.com/aretw0/facet/pkg/adapters/memory"
	"github.com/aretw0/facet/pkg/core"
)

var titled = &core.TypeDefinition{
	ID:           "P:cm:titled",
	BaseTypeID:   core.BaseSecondary,
	ParentTypeID: string(core.BaseSecondary),
	PropertyDefinitions: map[string]*core.PropertyDefinition{
		"cm:title": {ID: "cm:title", Kind: core.KindString, Cardinality: core.Single, Updatability: core.ReadWrite},
	},
}

func TestInitAdapters(t *testing.T) {
	ctx := context.Background()

	t.Run("FS Default", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "repo")
		repo, err := Init(ctx, dir, WithProtocolVersion(core.ProtocolV1), WithTypes(titled))
		require.NoError(t, err)
		require.IsType(t, &fs.Repository{}, repo)

		info, err := repo.RepositoryInfo(ctx)
		require.NoError(t, err)
		assert.Equal(t, core.ProtocolV1, info.ProtocolVersion)

		_, err = repo.GetTypeDefinition(ctx, "P:cm:titled")
		assert.NoError(t, err)
	})

	t.Run("Memory", func(t *testing.T) {
		repo, err := Init(ctx, "mem", WithAdapter("memory"), WithTypes(titled))
		require.NoError(t, err)
		require.IsType(t, &memory.Repository{}, repo)

		info, err := repo.RepositoryInfo(ctx)
		require.NoError(t, err)
		assert.Equal(t, "mem", info.ID)
		assert.Equal(t, core.ProtocolV2, info.ProtocolVersion)

		_, err = repo.GetTypeDefinition(ctx, string(core.BaseDocument))
		assert.NoError(t, err)
	})

	t.Run("Injected", func(t *testing.T) {
		injected, err := memory.New(memory.Config{Types: core.BaseTypes()})
		require.NoError(t, err)
		repo, err := Init(ctx, "ignored", WithRepository(injected), WithAdapter("nope"))
		require.NoError(t, err)
		assert.Same(t, injected, repo)
	})

	t.Run("Unknown Adapter", func(t *testing.T) {
		_, err := Init(ctx, "x", WithAdapter("s3"))
		assert.EqualError(t, err, "unknown adapter: s3")
	})

	t.Run("Read Only Missing Repository", func(t *testing.T) {
		_, err := Init(ctx, t.TempDir(), WithReadOnly(true))
		assert.ErrorIs(t, err, core.ErrNotFound)
	})
}
