package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/GBOHOUILI/even-travel-backend/internal/models"
)

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_GATEWAY_SECRET", "sk_from_env")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  name: "even-travel-backend"
gateway:
  secret_key: "${TEST_GATEWAY_SECRET}"
  timeout_seconds: 5
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "even-travel-backend", cfg.App.Name)
	require.Equal(t, "sk_from_env", cfg.Gateway.SecretKey)
	require.Equal(t, int64(5), int64(cfg.Gateway.Timeout().Seconds()))
}

func TestLoadItems(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "items.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
items:
  - id: "evt-1"
    name: "Festival"
    kind: "event"
    price: 5000
    capacity: 40
  - id: "dst-1"
    name: "Pendjari"
    kind: "destination"
    price: 120000
    capacity: 12
    remaining: 8
  - id: "evt-full"
    name: "Sold out"
    kind: "event"
    price: 5000
    capacity: 30
    remaining: 0
`), 0644))

	items, err := LoadItems(path)
	require.NoError(t, err)
	require.Len(t, items, 3)

	// remaining defaults to the full capacity when absent
	require.Equal(t, 40, items[0].RemainingCapacity)
	require.Equal(t, 8, items[1].RemainingCapacity)
	require.Equal(t, models.KindEvent, items[0].Kind)

	// an explicit zero stays zero
	require.Equal(t, 0, items[2].RemainingCapacity)
}

func TestLoadItemsRejectsRemainingOutOfRange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "items.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
items:
  - id: "evt-1"
    name: "Festival"
    kind: "event"
    price: 5000
    capacity: 10
    remaining: 11
`), 0644))

	_, err := LoadItems(path)
	require.Error(t, err)
}

func TestLoadItemsRejectsUnknownKind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "items.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
items:
  - id: "x"
    name: "X"
    kind: "hotel"
`), 0644))

	_, err := LoadItems(path)
	require.Error(t, err)
}
