package cache

import (
	"context"

	gocache "github.com/patrickmn/go-cache"

	"conferencecentral/internal/domain"
)

type memoryCache struct {
	c *gocache.Cache
}

// NewMemory returns a process-local cache. Entries never expire.
func NewMemory() domain.Cache {
	return &memoryCache{c: gocache.New(gocache.NoExpiration, 0)}
}

func (m *memoryCache) Set(_ context.Context, key, value string) error {
	m.c.Set(key, value, gocache.NoExpiration)
	return nil
}

func (m *memoryCache) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return "", false, nil
	}
	s, _ := v.(string)
	return s, true, nil
}

func (m *memoryCache) Delete(_ context.Context, key string) error {
	m.c.Delete(key)
	return nil
}
