package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xenking/kart-storefront/internal/domain/promo"
)

func writeGz(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := pgzip.NewWriter(f)
	_, err = gz.Write([]byte(strings.Join(lines, "\n") + "\n"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())
	return path
}

func testConfig() ingestConfig {
	return ingestConfig{Capacity: 1000, FPR: 0.0001, MinFiles: 2, MinLen: 8, MaxLen: 10}
}

func TestIngester_Codes(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeGz(t, dir, "a.gz", "HAPPYHRS", "onlyhere1", "SHORT", "LATTELOVE"),
		writeGz(t, dir, "b.gz", "happyhrs", "BEANS2026", "WAYTOOLONGCODE"),
		writeGz(t, dir, "c.gz", "LATTELOVE", "BEANS2026", "", "  "),
	}

	codes, err := newIngester(testConfig(), zaptest.NewLogger(t)).Codes(context.Background(), files)
	require.NoError(t, err)
	assert.Equal(t, []string{"BEANS2026", "HAPPYHRS", "LATTELOVE"}, codes)
}

func TestIngester_MinFiles(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeGz(t, dir, "a.gz", "ESPRESSO1", "MOCHA1234"),
		writeGz(t, dir, "b.gz", "ESPRESSO1", "MOCHA1234"),
		writeGz(t, dir, "c.gz", "ESPRESSO1"),
	}

	cfg := testConfig()
	cfg.MinFiles = 3
	codes, err := newIngester(cfg, nil).Codes(context.Background(), files)
	require.NoError(t, err)
	assert.Equal(t, []string{"ESPRESSO1"}, codes)

	cfg.MinFiles = 1
	codes, err = newIngester(cfg, nil).Codes(context.Background(), files[2:])
	require.NoError(t, err)
	assert.Equal(t, []string{"ESPRESSO1"}, codes)
}

func TestIngester_Errors(t *testing.T) {
	in := newIngester(testConfig(), nil)
	ctx := context.Background()

	_, err := in.Codes(ctx, nil)
	require.Error(t, err)

	dir := t.TempDir()
	only := writeGz(t, dir, "a.gz", "ESPRESSO1")
	_, err = in.Codes(ctx, []string{only})
	require.ErrorContains(t, err, "min files")

	_, err = in.Codes(ctx, []string{only, filepath.Join(dir, "missing.gz")})
	require.Error(t, err)

	plain := filepath.Join(dir, "plain.gz")
	require.NoError(t, os.WriteFile(plain, []byte("ESPRESSO1\n"), 0o600))
	_, err = in.Codes(ctx, []string{only, plain})
	require.ErrorContains(t, err, "gzip reader")
}

func TestIngester_Canceled(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeGz(t, dir, "a.gz", "ESPRESSO1"),
		writeGz(t, dir, "b.gz", "ESPRESSO1"),
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newIngester(testConfig(), nil).Codes(ctx, files)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRulesFor(t *testing.T) {
	template := promo.Rule{DiscountType: promo.DiscountFixed, Description: "2 off"}
	rules := rulesFor([]string{"A", "B"}, template)
	require.Len(t, rules, 2)
	assert.Equal(t, "A", rules[0].Code)
	assert.Equal(t, "B", rules[1].Code)
	assert.Equal(t, promo.DiscountFixed, rules[1].DiscountType)
	assert.Empty(t, template.Code)
}
