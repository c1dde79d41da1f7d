package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/config"
	"github.com/aretw0/parley/pkg/adapters/file"
	"github.com/aretw0/parley/pkg/adapters/redis"
	"github.com/aretw0/parley/pkg/observability"
	"github.com/aretw0/parley/pkg/persistence/middleware"
	"github.com/aretw0/parley/pkg/secrets"
)

// redisPingTimeout bounds the startup connectivity check.
const redisPingTimeout = 5 * time.Second

// NewEngine builds a parley engine from the merged configuration.
// Extra options are applied last, so callers can override the provider in tests.
func NewEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger, extra ...parley.Option) (*parley.Engine, error) {
	// 1. Key sources
	secretStore, err := secrets.Load(cfg.SecretsFile)
	if err != nil {
		return nil, fmt.Errorf("error loading secrets: %w", err)
	}
	if secretStore.Has(cfg.EnvKeyName) {
		logger.Debug("Secrets file holds an API key", "path", secretStore.Path())
	}

	opts := []parley.Option{
		parley.WithLogger(logger),
		parley.WithSecretStore(secretStore, cfg.EnvKeyName),
		parley.WithEnvKey(cfg.EnvKeyName),
		parley.WithEnvFallback(cfg.EnvFallback),
		parley.WithSystemPrompt(cfg.SystemPrompt),
		parley.WithSettings(cfg.Settings()),
		parley.WithBaseURL(cfg.BaseURL),
	}

	// 2. Metrics
	if cfg.Metrics {
		opts = append(opts, parley.WithMetrics(observability.NewMetrics()))
	}

	// 3. Session store
	switch cfg.Store.Kind {
	case config.StoreFile:
		opts = append(opts, parley.WithSessionStore(file.NewStore(cfg.Store.Dir)))
		logger.Debug("Using file session store", "dir", cfg.Store.Dir)
	case config.StoreRedis:
		storeOpts := []redis.Option{redis.WithTTL(cfg.SessionTTL)}
		if cfg.Store.Prefix != "" {
			storeOpts = append(storeOpts, redis.WithPrefix(cfg.Store.Prefix))
		}
		store, err := redis.New(cfg.Store.RedisURL, storeOpts...)
		if err != nil {
			return nil, err
		}
		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("redis unreachable: %w", err)
		}
		prefix := cfg.Store.Prefix
		if prefix == "" {
			prefix = redis.DefaultPrefix
		}
		opts = append(opts,
			parley.WithSessionStore(store),
			parley.WithLocker(redis.NewLocker(store.Client(), prefix)),
			parley.WithCloser(store.Close),
		)
		logger.Info("Using redis session store", "ttl", cfg.SessionTTL)
	}

	// 4. Store middleware: redaction runs before encryption.
	// The memory store holds the live transcript, which must never be rewritten.
	if cfg.RedactKeys && cfg.Store.Kind != config.StoreMemory {
		opts = append(opts, parley.WithStoreMiddleware(middleware.NewRedactionMiddleware(middleware.DefaultRedactionPatterns)))
	}
	key, err := cfg.EncryptionKeyBytes()
	if err != nil {
		return nil, err
	}
	if key != nil {
		opts = append(opts, parley.WithStoreMiddleware(middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})))
	}

	engine, err := parley.New(append(opts, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return engine, nil
}
