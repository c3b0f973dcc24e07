package config_test

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/continuum/internal/config"
	"github.com/aretw0/continuum/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = base64.StdEncoding.EncodeToString([]byte("01234567890123456789012345678901"))

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "continuum.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, 65432, cfg.Port)
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, config.StoreFile, cfg.Store.Driver)
	assert.Equal(t, filepath.Join(".continuum", "sessions"), cfg.Store.Dir)
	assert.Equal(t, 4, cfg.FlushConcurrency)
	assert.Equal(t, 5*time.Second, cfg.ShutdownGrace)
	assert.False(t, cfg.CPUReport.Enabled)
	assert.Equal(t, 2*time.Second, cfg.CPUReport.Interval)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoad_OverlaysFile(t *testing.T) {
	path := writeConfig(t, `
port: "7000"
log_level: debug
shutdown_grace: 750ms
store:
  driver: redis
  redis:
    addr: localhost:6380
    ttl: 24h
    lock: true
cpu_report:
  enabled: true
  interval: 10s
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Port, "weak typing accepts quoted numbers")
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 750*time.Millisecond, cfg.ShutdownGrace)
	assert.Equal(t, config.StoreRedis, cfg.Store.Driver)
	assert.Equal(t, "localhost:6380", cfg.Store.Redis.Addr)
	assert.Equal(t, 24*time.Hour, cfg.Store.Redis.TTL)
	assert.True(t, cfg.Store.Redis.Lock)
	assert.Equal(t, "continuum:session:", cfg.Store.Redis.Prefix, "unset keys keep their defaults")
	assert.True(t, cfg.CPUReport.Enabled)
	assert.Equal(t, 10*time.Second, cfg.CPUReport.Interval)
	assert.Equal(t, "127.0.0.1", cfg.Host)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("Missing File", func(t *testing.T) {
		_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("Malformed YAML", func(t *testing.T) {
		_, err := config.Load(writeConfig(t, "port: [1, 2"))
		assert.Error(t, err)
	})

	t.Run("Unknown Key", func(t *testing.T) {
		_, err := config.Load(writeConfig(t, "prot: 8080\n"))
		assert.ErrorContains(t, err, "prot")
	})

	t.Run("Bad Duration", func(t *testing.T) {
		_, err := config.Load(writeConfig(t, "shutdown_grace: soon\n"))
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		field  string
	}{
		{"port zero", func(c *config.Config) { c.Port = 0 }, "port"},
		{"port too large", func(c *config.Config) { c.Port = 70000 }, "port"},
		{"negative grace", func(c *config.Config) { c.ShutdownGrace = -time.Second }, "shutdown_grace"},
		{"empty host", func(c *config.Config) { c.Host = "" }, "host"},
		{"bad log level", func(c *config.Config) { c.LogLevel = "chatty" }, "log_level"},
		{"unknown driver", func(c *config.Config) { c.Store.Driver = "sqlite" }, "store.driver"},
		{"file without dir", func(c *config.Config) { c.Store.Dir = "" }, "store.dir"},
		{"redis without addr", func(c *config.Config) {
			c.Store.Driver = config.StoreRedis
			c.Store.Redis.Addr = ""
		}, "store.redis.addr"},
		{"short encryption key", func(c *config.Config) {
			c.Store.Encryption.Key = base64.StdEncoding.EncodeToString([]byte("short"))
		}, "store.encryption.key"},
		{"fallback without active key", func(c *config.Config) {
			c.Store.Encryption.FallbackKeys = []string{testKey}
		}, "store.encryption.key"},
		{"bad fallback key", func(c *config.Config) {
			c.Store.Encryption.Key = testKey
			c.Store.Encryption.FallbackKeys = []string{"%%%"}
		}, "store.encryption.fallback_keys[0]"},
		{"bad redact pattern", func(c *config.Config) { c.Store.RedactKeys = []string{"("} }, "store.redact_keys"},
		{"cpu report without interval", func(c *config.Config) {
			c.CPUReport.Enabled = true
			c.CPUReport.Interval = 0
		}, "cpu_report.interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)

			err := cfg.Validate()
			var cfgErr *domain.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestValidate_EncryptionKeyIsNotEchoed(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Encryption.Key = "c2hvcnQ="

	err := cfg.Validate()
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "c2hvcnQ=")
}

func TestLoad_EncryptionFromEnvironment(t *testing.T) {
	t.Setenv(config.EnvEncryptionKey, testKey)

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, testKey, cfg.Store.Encryption.Key)
	assert.True(t, cfg.Store.Encryption.Enabled())
	assert.NoError(t, cfg.Validate())

	other := base64.StdEncoding.EncodeToString(make([]byte, 32))
	cfg, err = config.Load(writeConfig(t, "store:\n  encryption:\n    key: "+other+"\n  redact_keys: [password, token]\n"))
	require.NoError(t, err)
	assert.Equal(t, other, cfg.Store.Encryption.Key, "the file wins over the environment")
	assert.Equal(t, []string{"password", "token"}, cfg.Store.RedactKeys)
}

func TestValidate_MemoryStoreNeedsNothing(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Driver = config.StoreMemory
	cfg.Store.Dir = ""
	assert.NoError(t, cfg.Validate())
}

func TestLifecycleProjection(t *testing.T) {
	cfg := config.Default()
	cfg.Host = "127.0.0.2"
	cfg.Port = 9001

	lc := cfg.Lifecycle()
	assert.Equal(t, "127.0.0.2:9001", lc.Address())
	assert.Equal(t, cfg.FlushConcurrency, lc.FlushConcurrency)
	assert.Equal(t, cfg.ShutdownGrace, lc.ShutdownGrace)
}

func TestDiscover(t *testing.T) {
	assert.Equal(t, "explicit.yaml", config.Discover("explicit.yaml"))

	original := config.DefaultPath
	t.Cleanup(func() { config.DefaultPath = original })

	config.DefaultPath = filepath.Join(t.TempDir(), "missing.yaml")
	assert.Empty(t, config.Discover(""))

	config.DefaultPath = writeConfig(t, "port: 1234\n")
	assert.Equal(t, config.DefaultPath, config.Discover(""))
}
