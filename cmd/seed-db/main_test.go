package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/kart-storefront/internal/domain/catalog"
)

func TestLoadCards_Embedded(t *testing.T) {
	cards, err := loadCards("")
	require.NoError(t, err)
	assert.NotEmpty(t, cards)
}

func TestLoadCards_File(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.json")
	require.NoError(t, os.WriteFile(good, []byte(`[{"id":"mocha","name":"Mocha","price":"$4.50","image":"mocha.png"}]`), 0o600))
	cards, err := loadCards(good)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "mocha", cards[0].ID)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`[{"id":"x","name":"X","price":"ask"}]`), 0o600))
	_, err = loadCards(bad)
	require.ErrorIs(t, err, catalog.ErrInvalidPrice)

	_, err = loadCards(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
}
