package platform_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/facet/internal/platform"
	"github.com/aretw0/facet/pkg/core"
)

func TestOpenWiresTypeCache(t *testing.T) {
	ctx := context.Background()
	h, err := platform.Open(ctx, "cache", platform.WithAdapter("memory"))
	require.NoError(t, err)
	require.NotNil(t, h.Cache)
	assert.Same(t, h.Cache, h.Types)

	obj, err := h.Service.Create(ctx, core.Properties{core.PropObjectTypeID: "cmis:folder", core.PropName: "f"})
	require.NoError(t, err)
	_, err = h.Service.Materialize(ctx, obj)
	require.NoError(t, err)
	assert.Positive(t, h.Cache.Len())
}

func TestOpenWithoutTypeCache(t *testing.T) {
	h, err := platform.Open(context.Background(), "plain",
		platform.WithAdapter("memory"), platform.WithTypeCache(false))
	require.NoError(t, err)
	assert.Nil(t, h.Cache)
	assert.Same(t, h.Repository, h.Types)
}

func TestOpenWatchInvalidatesCache(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dir := filepath.Join(t.TempDir(), "repo")
	h, err := platform.Open(ctx, dir, platform.WithWatch(ctx))
	require.NoError(t, err)

	_, err = h.Types.GetTypeDefinition(ctx, string(core.BaseDocument))
	require.NoError(t, err)
	require.Equal(t, 1, h.Cache.Len())

	file := filepath.Join(dir, "types", "P_new.yaml")
	require.NoError(t, os.WriteFile(file, []byte("id: P:new\nbaseTypeId: cmis:secondary\n"), 0644))

	require.Eventually(t, func() bool { return h.Cache.Len() == 0 }, 5*time.Second, 20*time.Millisecond)
	_, err = h.Types.GetTypeDefinition(ctx, "P:new")
	assert.NoError(t, err)
}

func TestWatchUnsupported(t *testing.T) {
	_, err := platform.Open(context.Background(), "m",
		platform.WithAdapter("memory"), platform.WithWatch(context.Background()))
	assert.Error(t, err)
}
