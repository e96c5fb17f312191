// Package cache stores rendered calculation results keyed by the rate table
// snapshot and the canonical request.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/iwvelando/mortgage-calculator/internal/config"
	"go.uber.org/zap"
)

// Cache is a byte cache. A miss is reported with ok false and a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// New builds the cache selected by cfg. The none backend returns Nop.
func New(cfg config.CacheConfig, logger *zap.Logger) (Cache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Backend {
	case "", config.CacheNone:
		return Nop{}, nil
	case config.CacheMemory:
		logger.Info("using in-memory result cache",
			zap.String("op", "cache.New"),
			zap.Duration("ttl", cfg.TTL),
		)
		return NewMemory(cfg.TTL), nil
	case config.CacheRedis:
		logger.Info("using redis result cache",
			zap.String("op", "cache.New"),
			zap.String("address", cfg.RedisAddress),
			zap.Duration("ttl", cfg.TTL),
		)
		return NewRedis(cfg.RedisAddress, cfg.RedisPassword, cfg.RedisDB, cfg.TTL), nil
	}
	return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
}

// Key derives a cache key for a request priced against a snapshot. The
// request is hashed after JSON encoding, which orders map keys.
func Key(kind, snapshotID string, request interface{}) (string, error) {
	b, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("encoding cache key: %w", err)
	}
	sum := sha256.Sum256(b)
	return fmt.Sprintf("mortgage:%s:%s:%s", kind, snapshotID, hex.EncodeToString(sum[:])), nil
}

// Nop caches nothing.
type Nop struct{}

// Get always misses.
func (Nop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

// Set discards the value.
func (Nop) Set(context.Context, string, []byte) error { return nil }

// Close does nothing.
func (Nop) Close() error { return nil }

func cleanupInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 30 * time.Minute
	}
	return 2 * ttl
}
