package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/facet/pkg/core"
)

func TestNextVersionLabel(t *testing.T) {
	assert.Equal(t, "1.1", nextVersionLabel("1.0"))
	assert.Equal(t, "2.10", nextVersionLabel("2.9"))
	assert.Equal(t, "1.0", nextVersionLabel(""))
	assert.Equal(t, "1.0", nextVersionLabel("1.x"))
}

func TestCatalogDescendants(t *testing.T) {
	c := NewCatalog(
		&core.TypeDefinition{ID: "cmis:document", BaseTypeID: core.BaseDocument},
		&core.TypeDefinition{ID: "D:a", BaseTypeID: core.BaseDocument, ParentTypeID: "cmis:document"},
		&core.TypeDefinition{ID: "D:b", BaseTypeID: core.BaseDocument, ParentTypeID: "D:a"},
		&core.TypeDefinition{ID: "D:c", BaseTypeID: core.BaseDocument, ParentTypeID: "D:b"},
	)
	ctx := context.Background()

	all, err := c.GetTypeDescendants(ctx, "cmis:document", -1)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	two, err := c.GetTypeDescendants(ctx, "cmis:document", 2)
	require.NoError(t, err)
	assert.Len(t, two, 2)

	_, err = c.GetTypeDescendants(ctx, "D:none", 1)
	assert.True(t, core.IsUnknownType(err))
}

func TestCatalogPutValidates(t *testing.T) {
	c := NewCatalog()
	assert.ErrorIs(t, c.Put(&core.TypeDefinition{}), core.ErrValidation)
	assert.ErrorIs(t, c.Put(&core.TypeDefinition{ID: "x"}), core.ErrValidation)
	require.NoError(t, c.Put(&core.TypeDefinition{ID: "x", BaseTypeID: core.BaseItem}))
	assert.Equal(t, 1, c.Len())

	c.Replace(nil)
	assert.Equal(t, 0, c.Len())
}

func TestRecordCloneIsDeep(t *testing.T) {
	rec := Record{
		ID:       "a",
		Aspects:  []string{"P:x"},
		Values:   map[string][]string{"k": {"v"}},
		Document: &core.DocumentFields{VersionLabel: "1.0"},
	}
	clone := rec.Clone()
	clone.Aspects[0] = "P:y"
	clone.Values["k"][0] = "w"
	clone.Document.VersionLabel = "2.0"

	assert.Equal(t, "P:x", rec.Aspects[0])
	assert.Equal(t, "v", rec.Values["k"][0])
	assert.Equal(t, "1.0", rec.Document.VersionLabel)
}
