package medium

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"agenda/pkg/platform/sentinel"
)

// Memory is an in-process medium. Item expiry is only a backstop; the cache
// store still evaluates each entry's own ttl.
type Memory struct {
	items *ttlcache.Cache[string, []byte]
}

// NewMemory creates an empty in-process medium.
func NewMemory() *Memory {
	return &Memory{
		items: ttlcache.New[string, []byte](
			ttlcache.WithDisableTouchOnHit[string, []byte](),
		),
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	item := m.items.Get(key)
	if item == nil {
		return nil, sentinel.ErrNotFound
	}
	return append([]byte(nil), item.Value()...), nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = ttlcache.NoTTL
	}
	m.items.Set(key, append([]byte(nil), value...), ttl)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.items.Delete(key)
	return nil
}

// Len reports the number of stored keys, expired ones included until they
// are read or swept.
func (m *Memory) Len() int {
	return m.items.Len()
}
