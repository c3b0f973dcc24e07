package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/aretw0/continuum/internal/logging"
	"github.com/aretw0/continuum/pkg/domain"
	"github.com/aretw0/continuum/pkg/lifecycle"
	"github.com/aretw0/continuum/pkg/persistence/middleware"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultPort is the port the editor extension expects when none is configured.
const DefaultPort = 65432

// Store drivers.
const (
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// RedisConfig configures the redis session store.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
	Lock     bool          `mapstructure:"lock"`
}

// EncryptionConfig holds base64 encoded AES-256 keys for at-rest encryption.
// An empty Key leaves sessions in plaintext.
type EncryptionConfig struct {
	Key          string   `mapstructure:"key"`
	FallbackKeys []string `mapstructure:"fallback_keys"`
}

// Enabled reports whether a key is configured.
func (e EncryptionConfig) Enabled() bool {
	return e.Key != ""
}

// StoreConfig selects and configures the durable session store.
type StoreConfig struct {
	Driver     string           `mapstructure:"driver"`
	Dir        string           `mapstructure:"dir"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Encryption EncryptionConfig `mapstructure:"encryption"`
	// RedactKeys are regular expressions matched against event payload keys.
	RedactKeys []string `mapstructure:"redact_keys"`
}

// CPUReportConfig controls the optional CPU usage reporter.
type CPUReportConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

// Config is the full server configuration.
type Config struct {
	Host             string          `mapstructure:"host"`
	Port             int             `mapstructure:"port"`
	LogLevel         string          `mapstructure:"log_level"`
	LogFile          string          `mapstructure:"log_file"`
	FlushConcurrency int             `mapstructure:"flush_concurrency"`
	ShutdownGrace    time.Duration   `mapstructure:"shutdown_grace"`
	Banner           bool            `mapstructure:"banner"`
	Store            StoreConfig     `mapstructure:"store"`
	CPUReport        CPUReportConfig `mapstructure:"cpu_report"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Host:             lifecycle.DefaultHost,
		Port:             DefaultPort,
		LogLevel:         "info",
		FlushConcurrency: lifecycle.DefaultFlushConcurrency,
		ShutdownGrace:    lifecycle.DefaultShutdownGrace,
		Banner:           true,
		Store: StoreConfig{
			Driver: StoreFile,
			Dir:    filepath.Join(".continuum", "sessions"),
			Redis: RedisConfig{
				Addr:   "127.0.0.1:6379",
				Prefix: "continuum:session:",
			},
		},
		CPUReport: CPUReportConfig{
			Enabled:  false,
			Interval: 2 * time.Second,
		},
	}
}

// EnvEncryptionKey supplies store.encryption.key when the file leaves it empty.
const EnvEncryptionKey = "CONTINUUM_ENCRYPTION_KEY"

// DefaultPath is read when no --config is given and the file exists.
var DefaultPath = filepath.Join(".continuum", "config.yaml")

// Discover returns explicit when set, DefaultPath when that file exists, or "".
func Discover(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if info, err := os.Stat(DefaultPath); err == nil && !info.IsDir() {
		return DefaultPath
	}
	return ""
}

// Load returns the defaults overlaid with the YAML file at path, then with
// the environment. An empty path yields the defaults. A missing explicit file
// is an error.
func Load(path string) (Config, error) {
	cfg, err := loadFile(path)
	if err != nil {
		return cfg, err
	}
	cfg.applyEnv()
	return cfg, nil
}

func loadFile(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}

	if err := decode(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if c.Store.Encryption.Key == "" {
		c.Store.Encryption.Key = os.Getenv(EnvEncryptionKey)
	}
}

// decode overlays raw onto cfg. Unknown keys are rejected so typos don't pass silently.
func decode(raw map[string]any, cfg *Config) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return err
	}
	return decoder.Decode(raw)
}

// Validate checks every setting and reports the first invalid one.
func (c Config) Validate() error {
	if err := c.Lifecycle().Validate(); err != nil {
		return err
	}
	if c.Host == "" {
		return &domain.ConfigurationError{Field: "host", Value: c.Host, Reason: "must not be empty"}
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return &domain.ConfigurationError{Field: "log_level", Value: c.LogLevel, Reason: "must be debug, info, warn or error"}
	}
	switch strings.ToLower(c.Store.Driver) {
	case StoreFile:
		if c.Store.Dir == "" {
			return &domain.ConfigurationError{Field: "store.dir", Value: c.Store.Dir, Reason: "required by the file store"}
		}
	case StoreRedis:
		if c.Store.Redis.Addr == "" {
			return &domain.ConfigurationError{Field: "store.redis.addr", Value: c.Store.Redis.Addr, Reason: "required by the redis store"}
		}
		if c.Store.Redis.TTL < 0 {
			return &domain.ConfigurationError{Field: "store.redis.ttl", Value: c.Store.Redis.TTL, Reason: "must not be negative"}
		}
	case StoreMemory:
	default:
		return &domain.ConfigurationError{Field: "store.driver", Value: c.Store.Driver, Reason: "must be file, redis or memory"}
	}
	if err := c.Store.validateMiddleware(); err != nil {
		return err
	}
	if c.CPUReport.Enabled && c.CPUReport.Interval <= 0 {
		return &domain.ConfigurationError{Field: "cpu_report.interval", Value: c.CPUReport.Interval, Reason: "must be positive"}
	}
	return nil
}

// Lifecycle projects the listener settings.
func (c Config) Lifecycle() lifecycle.Config {
	return lifecycle.Config{
		Host:             c.Host,
		Port:             c.Port,
		ShutdownGrace:    c.ShutdownGrace,
		FlushConcurrency: c.FlushConcurrency,
	}
}

// validateMiddleware checks encryption keys and redact patterns.
// Key material is never echoed back in the error.
func (s StoreConfig) validateMiddleware() error {
	if s.Encryption.Enabled() {
		if _, err := middleware.DecodeKey(s.Encryption.Key); err != nil {
			return &domain.ConfigurationError{Field: "store.encryption.key", Value: "<redacted>", Reason: err.Error()}
		}
	} else if len(s.Encryption.FallbackKeys) > 0 {
		return &domain.ConfigurationError{Field: "store.encryption.key", Value: "", Reason: "required when fallback keys are set"}
	}
	for i, k := range s.Encryption.FallbackKeys {
		if _, err := middleware.DecodeKey(k); err != nil {
			return &domain.ConfigurationError{Field: fmt.Sprintf("store.encryption.fallback_keys[%d]", i), Value: "<redacted>", Reason: err.Error()}
		}
	}
	for _, p := range s.RedactKeys {
		if _, err := regexp.Compile(p); err != nil {
			return &domain.ConfigurationError{Field: "store.redact_keys", Value: p, Reason: err.Error()}
		}
	}
	return nil
}
