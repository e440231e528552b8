package cache

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory implementa Client sobre patrickmn/go-cache.
// Incr se serializa con un mutex propio: go-cache no expone un
// incremento-con-TTL atómico para keys inexistentes.
type Memory struct {
	c  *gocache.Cache
	mu sync.Mutex
}

var _ Client = (*Memory)(nil)

func NewMemory(defaultTTL time.Duration) *Memory {
	return &Memory{c: gocache.New(defaultTTL, 2*defaultTTL)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, false, nil
	}
	return b, true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.c.Set(key, value, ttl)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.c.Delete(key)
	return nil
}

func (m *Memory) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.c.Get(key); !ok {
		m.c.Set(key, int64(1), ttl)
		return 1, nil
	}
	n, err := m.c.IncrementInt64(key, 1)
	if err != nil {
		// la key expiró entre el Get y el Increment
		m.c.Set(key, int64(1), ttl)
		return 1, nil
	}
	return n, nil
}

func (m *Memory) Close() error {
	m.c.Flush()
	return nil
}
