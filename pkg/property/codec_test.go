package property_test

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/facet/pkg/core"
	"github.com/aretw0/facet/pkg/extension"
	"github.com/aretw0/facet/pkg/property"
)

func def(id string, kind core.PropertyKind, card core.Cardinality) *core.PropertyDefinition {
	return &core.PropertyDefinition{ID: id, Kind: kind, Cardinality: card}
}

func TestCheck(t *testing.T) {
	title := def("cm:title", core.KindString, core.Single)
	tags := def("cm:tags", core.KindString, core.Multi)
	count := def("cm:count", core.KindInteger, core.Single)

	t.Run("nil is allowed", func(t *testing.T) {
		items, err := property.Check(title, nil)
		require.NoError(t, err)
		assert.Nil(t, items)
	})

	t.Run("scalar for single", func(t *testing.T) {
		items, err := property.Check(title, "Hello")
		require.NoError(t, err)
		assert.Equal(t, []any{"Hello"}, items)
	})

	t.Run("list for single is rejected", func(t *testing.T) {
		_, err := property.Check(title, []string{"a", "b"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, core.ErrValidation))

		var verr *core.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "cm:title", verr.PropertyID)
	})

	t.Run("scalar for multi is rejected", func(t *testing.T) {
		_, err := property.Check(tags, "a")
		assert.ErrorIs(t, err, core.ErrValidation)
	})

	t.Run("typed list for multi", func(t *testing.T) {
		items, err := property.Check(tags, []string{"a", "b"})
		require.NoError(t, err)
		assert.Equal(t, []any{"a", "b"}, items)
	})

	t.Run("nil element is rejected", func(t *testing.T) {
		_, err := property.Check(tags, []any{"a", nil})
		assert.ErrorIs(t, err, core.ErrValidation)
	})

	t.Run("kind mismatch is rejected", func(t *testing.T) {
		_, err := property.Check(title, 42)
		assert.ErrorIs(t, err, core.ErrValidation)
	})

	t.Run("integers normalize to big.Int", func(t *testing.T) {
		items, err := property.Check(count, int32(7))
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, 0, items[0].(*big.Int).Cmp(big.NewInt(7)))
	})
}

func TestFormat(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 30, 0, 123_000_000, time.UTC)

	cases := []struct {
		name  string
		value any
		want  string
	}{
		{"string", "x", "x"},
		{"bool", true, "true"},
		{"int", 42, "42"},
		{"big int", big.NewInt(-9), "-9"},
		{"decimal", decimal.RequireFromString("3.14"), "3.14"},
		{"float", 2.5, "2.5"},
		{"datetime", ts, "2024-03-01T10:30:00.123Z"},
		{"datetime nanos", time.Date(2024, 1, 2, 3, 4, 5, 123456789, time.UTC), "2024-01-02T03:04:05.123456789Z"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := property.Format(tc.value)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := property.Format(struct{}{})
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestParse(t *testing.T) {
	t.Run("boolean is case-insensitive", func(t *testing.T) {
		v, err := property.Parse(def("p", core.KindBoolean, core.Single), "TRUE")
		require.NoError(t, err)
		assert.Equal(t, true, v)
	})

	t.Run("malformed text carries id and text", func(t *testing.T) {
		_, err := property.Parse(def("cm:flag", core.KindBoolean, core.Single), "yes")
		var verr *core.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "cm:flag", verr.PropertyID)
		assert.Equal(t, "yes", verr.Value)
	})

	t.Run("datetime variants", func(t *testing.T) {
		dt := def("p", core.KindDateTime, core.Single)
		want := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
		for _, text := range []string{
			"2024-03-01T10:30:00Z",
			"2024-03-01T10:30:00.000Z",
			"2024-03-01T11:30:00+01:00",
			"2024-03-01T10:30:00",
		} {
			v, err := property.Parse(dt, text)
			require.NoError(t, err, text)
			assert.True(t, want.Equal(v.(time.Time)), text)
		}
	})

	t.Run("integer", func(t *testing.T) {
		v, err := property.Parse(def("p", core.KindInteger, core.Single), "123456789012345678901234567890")
		require.NoError(t, err)
		assert.Equal(t, "123456789012345678901234567890", v.(*big.Int).String())

		_, err = property.Parse(def("p", core.KindInteger, core.Single), "1.5")
		assert.ErrorIs(t, err, core.ErrValidation)
	})

	t.Run("decimal", func(t *testing.T) {
		v, err := property.Parse(def("p", core.KindDecimal, core.Single), "0.1")
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("0.1").Equal(v.(decimal.Decimal)))
	})

	t.Run("string kinds pass through", func(t *testing.T) {
		v, err := property.Parse(def("p", core.KindURI, core.Single), " http://x ")
		require.NoError(t, err)
		assert.Equal(t, " http://x ", v)
	})
}

func TestRoundTripPerKind(t *testing.T) {
	ts := time.Date(2023, 12, 31, 23, 59, 59, 500_000_000, time.UTC)
	cases := []struct {
		def   *core.PropertyDefinition
		value any
	}{
		{def("s", core.KindString, core.Single), "text"},
		{def("i", core.KindID, core.Single), "workspace://SpacesStore/1"},
		{def("h", core.KindHTML, core.Single), "<b>x</b>"},
		{def("u", core.KindURI, core.Single), "http://example.org"},
		{def("b", core.KindBoolean, core.Multi), []any{true, false}},
		{def("n", core.KindInteger, core.Multi), []any{1, int64(-2)}},
		{def("d", core.KindDecimal, core.Single), decimal.RequireFromString("-12.0005")},
		{def("t", core.KindDateTime, core.Single), ts},
		{def("tn", core.KindDateTime, core.Single), time.Date(2024, 1, 2, 3, 4, 5, 123456789, time.UTC)},
		{def("tz", core.KindDateTime, core.Multi), []any{time.Now(), time.Now().In(time.FixedZone("X", 3600))}},
	}
	for _, tc := range cases {
		t.Run(tc.def.ID, func(t *testing.T) {
			el, err := property.EncodeElement(tc.def, tc.value)
			require.NoError(t, err)
			assert.Equal(t, extension.CMISNamespace, el.Namespace)
			assert.Equal(t, property.ElementName(tc.def.Kind), el.Name)

			id, got, err := property.DecodeElement(el, func(string) *core.PropertyDefinition { return tc.def })
			require.NoError(t, err)
			assert.Equal(t, tc.def.ID, id)
			assert.True(t, property.Equal(tc.value, got), "got %v", got)
		})
	}
}

func TestEncodeElement(t *testing.T) {
	title := def("cm:title", core.KindString, core.Single)

	el, err := property.EncodeElement(title, "Hello")
	require.NoError(t, err)
	want := extension.NewContainer(extension.CMISNamespace, "propertyString",
		map[string]string{"propertyDefinitionId": "cm:title"},
		extension.New(extension.CMISNamespace, "value", nil, "Hello"))
	assert.True(t, want.Equal(el))

	empty, err := property.EncodeElement(title, nil)
	require.NoError(t, err)
	assert.Empty(t, empty.Children)
}

func TestDecodeElementUnknownProperty(t *testing.T) {
	el := extension.NewContainer(extension.CMISNamespace, "propertyString",
		map[string]string{"propertyDefinitionId": "cm:ghost"})
	_, _, err := property.DecodeElement(el, func(string) *core.PropertyDefinition { return nil })
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestElementName(t *testing.T) {
	assert.Equal(t, "propertyBoolean", property.ElementName(core.KindBoolean))
	assert.Equal(t, "propertyDateTime", property.ElementName(core.KindDateTime))
	assert.Equal(t, "propertyDecimal", property.ElementName(core.KindDecimal))
	assert.Equal(t, "propertyInteger", property.ElementName(core.KindInteger))
	assert.Equal(t, "propertyId", property.ElementName(core.KindID))
	assert.Equal(t, "propertyHtml", property.ElementName(core.KindHTML))
	assert.Equal(t, "propertyUri", property.ElementName(core.KindURI))
	assert.Equal(t, "propertyString", property.ElementName(core.KindString))
}

func TestEqual(t *testing.T) {
	assert.True(t, property.Equal(3, big.NewInt(3)))
	assert.True(t, property.Equal(decimal.RequireFromString("1.50"), decimal.RequireFromString("1.5")))
	assert.False(t, property.Equal([]any{"a"}, "a"))
	assert.True(t, property.Equal(nil, nil))
	assert.False(t, property.Equal(nil, "a"))
}
