package cli

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/continuum/internal/adapters/file"
	"github.com/aretw0/continuum/internal/adapters/memory"
	redisAdapter "github.com/aretw0/continuum/internal/adapters/redis"
	"github.com/aretw0/continuum/internal/config"
	"github.com/aretw0/continuum/internal/logging"
	"github.com/aretw0/continuum/pkg/domain"
	"github.com/aretw0/continuum/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewNop()

	t.Run("File", func(t *testing.T) {
		dir := t.TempDir()
		b, err := OpenStore(ctx, config.StoreConfig{Driver: config.StoreFile, Dir: dir}, logger)
		require.NoError(t, err)
		defer b.Close()

		fs, ok := b.Store.(*file.Store)
		require.True(t, ok)
		assert.Equal(t, dir, fs.BasePath)
		assert.Empty(t, b.ManagerOptions)
	})

	t.Run("Memory", func(t *testing.T) {
		b, err := OpenStore(ctx, config.StoreConfig{Driver: "MEMORY"}, logger)
		require.NoError(t, err)
		assert.IsType(t, &memory.Store{}, b.Store)
		assert.NoError(t, b.Close())
	})

	t.Run("Redis With Lock", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := config.Default().Store
		cfg.Driver = config.StoreRedis
		cfg.Redis.Addr = mr.Addr()
		cfg.Redis.Lock = true

		b, err := OpenStore(ctx, cfg, logger)
		require.NoError(t, err)
		assert.IsType(t, &redisAdapter.Store{}, b.Store)
		assert.Len(t, b.ManagerOptions, 1)
		assert.NoError(t, b.Close())
	})

	t.Run("Redis Unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		cfg := config.Default().Store
		cfg.Driver = config.StoreRedis
		cfg.Redis.Addr = addr

		_, err := OpenStore(ctx, cfg, logger)
		assert.ErrorContains(t, err, "failed to reach redis")
	})

	t.Run("Unknown Driver", func(t *testing.T) {
		_, err := OpenStore(ctx, config.StoreConfig{Driver: "etcd"}, logger)
		assert.ErrorContains(t, err, "etcd")
	})

	t.Run("Redacted And Encrypted", func(t *testing.T) {
		dir := t.TempDir()
		cfg := config.StoreConfig{
			Driver:     config.StoreFile,
			Dir:        dir,
			RedactKeys: []string{"token"},
			Encryption: config.EncryptionConfig{
				Key: base64.StdEncoding.EncodeToString([]byte("01234567890123456789012345678901")),
			},
		}
		b, err := OpenStore(ctx, cfg, logger)
		require.NoError(t, err)

		s := domain.NewSession("secure")
		s.Append(domain.Event{Kind: domain.EventIDE, Name: "auth", Payload: map[string]any{"token": "abc", "user": "jdoe"}})
		require.NoError(t, b.Store.Save(ctx, s.ID, s))

		raw, err := os.ReadFile(filepath.Join(dir, "secure.json"))
		require.NoError(t, err)
		assert.NotContains(t, string(raw), "jdoe")

		loaded, err := b.Store.Load(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, "jdoe", loaded.Events[0].Payload["user"])
		assert.Equal(t, middleware.Mask, loaded.Events[0].Payload["token"])
	})

	t.Run("Bad Redact Pattern", func(t *testing.T) {
		_, err := OpenStore(ctx, config.StoreConfig{Driver: config.StoreMemory, RedactKeys: []string{"("}}, logger)
		assert.Error(t, err)
	})
}
