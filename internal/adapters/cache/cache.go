// Package cache holds the announcement cache backends.
package cache

import (
	"context"
	"io"
	"log/slog"

	"conferencecentral/config"
	"conferencecentral/internal/domain"
)

// New builds the cache selected by cfg.Provider. When redis is selected but
// unreachable it logs and falls back to the in-process cache. The returned
// closer releases the backend.
func New(ctx context.Context, cfg config.CacheConfig, logger *slog.Logger) (domain.Cache, io.Closer) {
	if cfg.Provider == "redis" {
		client, err := NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err == nil {
			logger.Info("using redis cache", "addr", cfg.RedisAddr)
			return NewRedis(client), client
		}
		logger.With("err", err).Warn("redis unavailable, using in-memory cache")
	}
	return NewMemory(), io.NopCloser(nil)
}
