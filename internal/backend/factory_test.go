package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetbuddy/internal/config"
	"budgetbuddy/internal/log"
)

func TestFromAppConfig(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		_, err := FromAppConfig(nil)
		assert.Error(t, err)
	})

	t.Run("invalid backend", func(t *testing.T) {
		_, err := FromAppConfig(&config.Config{DataBackend: "sheets"})
		assert.ErrorContains(t, err, "invalid backend type in config: sheets")
	})

	t.Run("sqlite", func(t *testing.T) {
		cfg, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db", MemorySeedFile: "seed.json"})
		require.NoError(t, err)
		assert.Equal(t, Config{Type: SQLiteBackend, SQLiteDBPath: "x.db", MemorySeedFile: "seed.json"}, cfg)
	})
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, Config{Type: MemoryBackend}.Validate())
	assert.NoError(t, Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}.Validate())
	assert.Error(t, Config{Type: SQLiteBackend}.Validate())
	assert.Error(t, Config{Type: "sheets"}.Validate())
}

func TestFactory_CreateMemoryBackend(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(log.Discard())

	res, err := f.CreateBackend(ctx, Config{Type: MemoryBackend})
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Cleanup() })

	require.NoError(t, res.Store.Set(ctx, "k", []byte("v")))
	got, found, err := res.Store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("v"), got)
}

func TestFactory_CreateSeededMemoryBackend(t *testing.T) {
	ctx := context.Background()
	seed := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(seed, []byte(`{"transactions":[]}`), 0o644))

	res, err := NewFactory(log.Discard()).CreateBackend(ctx, Config{Type: MemoryBackend, MemorySeedFile: seed})
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Cleanup() })

	got, found, err := res.Store.Get(ctx, "transactions")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "[]", string(got))
}

func TestFactory_CreateMemoryBackendBadSeed(t *testing.T) {
	seed := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(seed, []byte(`[1,2`), 0o644))

	_, err := NewFactory(log.Discard()).CreateBackend(context.Background(), Config{Type: MemoryBackend, MemorySeedFile: seed})
	assert.ErrorContains(t, err, "failed to load memory seed file")
}

func TestFactory_CreateSQLiteBackend(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "data", "ledger.db")

	res, err := NewFactory(nil).CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: dbPath})
	require.NoError(t, err)

	require.NoError(t, res.Store.Set(ctx, "transactions", []byte("[]")))
	require.NoError(t, res.Cleanup())

	res, err = NewFactory(log.Discard()).CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: dbPath})
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Cleanup() })

	got, found, err := res.Store.Get(ctx, "transactions")
	require.NoError(t, err)
	assert.True(t, found, "values survive reopening the database")
	assert.Equal(t, "[]", string(got))
}

func TestFactory_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFactory(log.Discard()).CreateBackend(ctx, Config{Type: MemoryBackend})
	assert.ErrorIs(t, err, context.Canceled)
}
