package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalSnapshot_EmptyAndNull(t *testing.T) {
	for _, in := range []string{"", "null", "[]"} {
		items, err := UnmarshalSnapshot([]byte(in))
		require.NoError(t, err, "input %q", in)
		assert.Empty(t, items, "input %q", in)
	}
}

func TestUnmarshalSnapshot_BrowserFormat(t *testing.T) {
	// Snapshot as written by the storefront page, with an extra field.
	data := []byte(`[{"name":"Cold Brew","price":1250.5,"image":"cold.png","quantity":3,"extra":{"x":1}}]`)

	items, err := UnmarshalSnapshot(data)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Cold Brew", items[0].Name)
	assert.True(t, dec("1250.5").Equal(items[0].UnitPrice))
	assert.Equal(t, "cold.png", items[0].Image)
	assert.Equal(t, 3, items[0].Quantity)
}

func TestUnmarshalSnapshot_Invalid(t *testing.T) {
	for _, in := range []string{`{`, `{"name":"x"}`, `[{"quantity":"two"}]`, `[1]`} {
		_, err := UnmarshalSnapshot([]byte(in))
		assert.Error(t, err, "input %q", in)
	}
}

func TestMarshalSnapshot_Format(t *testing.T) {
	data := MarshalSnapshot([]LineItem{
		{Name: "Latte", UnitPrice: dec("4.00"), Image: "latte.png", Quantity: 1},
	})
	assert.JSONEq(t, `[{"name":"Latte","price":4,"image":"latte.png","quantity":1}]`, string(data))

	assert.Equal(t, "[]", string(MarshalSnapshot(nil)))
}
