package checkpoint_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirtanmodi/stategraph/pkg/stategraph/checkpoint"
	"github.com/kirtanmodi/stategraph/pkg/stategraph/config"
)

// TestFromConfig_DefaultsToMemory tests that an empty section yields the
// in-memory backend.
func TestFromConfig_DefaultsToMemory(t *testing.T) {
	store, err := checkpoint.FromConfig(config.New(nil))
	require.NoError(t, err)
	defer store.Close()

	assert.IsType(t, &checkpoint.MemoryStore{}, store)
}

// TestFromConfig_Memory tests the explicit memory backend.
func TestFromConfig_Memory(t *testing.T) {
	store, err := checkpoint.FromConfig(config.New(map[string]any{
		"backend": "memory",
	}))
	require.NoError(t, err)
	defer store.Close()

	assert.IsType(t, &checkpoint.MemoryStore{}, store)
}

// TestFromConfig_SQLite tests the sqlite backend with a custom path.
func TestFromConfig_SQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "threads.db")

	store, err := checkpoint.FromConfig(config.New(map[string]any{
		"backend": "sqlite",
		"sqlite": map[string]any{
			"path": path,
		},
	}))
	require.NoError(t, err)
	defer store.Close()

	require.IsType(t, &checkpoint.SQLiteStore{}, store)

	require.NoError(t, store.Save(ctx, "thread-1", []byte("persisted")))
	data, err := store.Load(ctx, "thread-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("persisted"), data)
}

// TestFromConfig_Redis tests the redis backend wired through config
// keys.
func TestFromConfig_Redis(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	store, err := checkpoint.FromConfig(config.New(map[string]any{
		"backend": "redis",
		"redis": map[string]any{
			"addr":   mr.Addr(),
			"prefix": "custom",
			"ttl":    "1h",
		},
	}))
	require.NoError(t, err)
	defer store.Close()

	require.IsType(t, &checkpoint.RedisStore{}, store)

	require.NoError(t, store.Save(ctx, "thread-1", []byte("via config")))
	data, err := store.Load(ctx, "thread-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("via config"), data)

	// The configured prefix shapes the key space
	assert.True(t, mr.Exists("custom:thread:thread-1"))
}

// TestFromConfig_UnknownBackend tests the error for typos.
func TestFromConfig_UnknownBackend(t *testing.T) {
	_, err := checkpoint.FromConfig(config.New(map[string]any{
		"backend": "postgres",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown checkpoint backend "postgres"`)
}

// TestFromConfig_FromYAML tests the factory fed by a parsed YAML
// document, the way applications wire it.
func TestFromConfig_FromYAML(t *testing.T) {
	cfg, err := config.FromYAML([]byte(`
checkpoint:
  backend: memory
`))
	require.NoError(t, err)

	store, err := checkpoint.FromConfig(cfg.Sub("checkpoint"))
	require.NoError(t, err)
	defer store.Close()

	assert.IsType(t, &checkpoint.MemoryStore{}, store)
}
