package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/continuum/internal/adapters/file"
	"github.com/aretw0/continuum/internal/adapters/memory"
	redisAdapter "github.com/aretw0/continuum/internal/adapters/redis"
	"github.com/aretw0/continuum/internal/config"
	"github.com/aretw0/continuum/pkg/persistence/middleware"
	"github.com/aretw0/continuum/pkg/ports"
	"github.com/aretw0/continuum/pkg/session"
)

// redisPingTimeout bounds the connectivity check done when the redis store opens.
const redisPingTimeout = 3 * time.Second

// Backend is an opened session store plus what the Manager needs to use it.
type Backend struct {
	Store ports.SessionStore
	// ManagerOptions carries the distributed locker when one is configured.
	ManagerOptions []session.Option
	close          func() error
}

// Close releases connections held by the store.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// OpenStore builds the store selected by cfg.Driver and wraps it with the
// configured redaction and encryption middleware.
// The redis store is pinged so an unreachable server fails at startup, not at exit.
func OpenStore(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (*Backend, error) {
	backend, err := openDriver(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	mws, err := storeMiddleware(cfg, logger)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	backend.Store = middleware.Chain(backend.Store, mws...)
	return backend, nil
}

// storeMiddleware masks payloads before they are encrypted.
func storeMiddleware(cfg config.StoreConfig, logger *slog.Logger) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware

	if len(cfg.RedactKeys) > 0 {
		pii, err := middleware.NewPIIMiddleware(cfg.RedactKeys)
		if err != nil {
			return nil, err
		}
		mws = append(mws, pii)
		logger.Debug("Redacting session payload keys", "patterns", cfg.RedactKeys)
	}

	if cfg.Encryption.Enabled() {
		active, err := middleware.DecodeKey(cfg.Encryption.Key)
		if err != nil {
			return nil, fmt.Errorf("store.encryption.key: %w", err)
		}
		fallbacks := make([][]byte, 0, len(cfg.Encryption.FallbackKeys))
		for i, k := range cfg.Encryption.FallbackKeys {
			key, err := middleware.DecodeKey(k)
			if err != nil {
				return nil, fmt.Errorf("store.encryption.fallback_keys[%d]: %w", i, err)
			}
			fallbacks = append(fallbacks, key)
		}
		enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallbacks,
		})
		if err != nil {
			return nil, err
		}
		mws = append(mws, enc)
		logger.Debug("Encrypting sessions at rest", "fallback_keys", len(fallbacks))
	}
	return mws, nil
}

func openDriver(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (*Backend, error) {
	switch strings.ToLower(cfg.Driver) {
	case config.StoreFile, "":
		logger.Debug("Using file session store", "dir", cfg.Dir)
		return &Backend{Store: file.New(cfg.Dir)}, nil

	case config.StoreMemory:
		logger.Warn("Using in-memory session store: sessions will not survive a restart")
		return &Backend{Store: memory.NewStore()}, nil

	case config.StoreRedis:
		opts := []redisAdapter.Option{redisAdapter.WithTTL(cfg.Redis.TTL)}
		if cfg.Redis.Prefix != "" {
			opts = append(opts, redisAdapter.WithPrefix(cfg.Redis.Prefix))
		}
		store := redisAdapter.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...)

		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Redis.Addr, err)
		}

		backend := &Backend{Store: store, close: store.Close}
		if cfg.Redis.Lock {
			prefix := cfg.Redis.Prefix
			if prefix == "" {
				prefix = redisAdapter.DefaultPrefix
			}
			locker := redisAdapter.NewLocker(store.Client(), prefix)
			backend.ManagerOptions = append(backend.ManagerOptions, session.WithLocker(locker))
		}
		logger.Debug("Using redis session store", "addr", cfg.Redis.Addr, "lock", cfg.Redis.Lock)
		return backend, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
