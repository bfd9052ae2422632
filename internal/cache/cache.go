// Package cache is a key/value store of reference lists with time-to-live
// expiry on top of a pluggable storage medium.
//
// The store never reports failures upward: a corrupt or expired entry is
// purged and behaves as a miss, and a failing medium degrades the store to a
// no-op cache.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"agenda/internal/platform/logger"
	"agenda/internal/platform/metrics"
	"agenda/pkg/platform/sentinel"
)

// DefaultTTL applies to Set calls without a ttl and to persisted entries
// written without one.
const DefaultTTL = 24 * time.Hour

// Medium is the durable key/value storage behind the store.
// Get returns sentinel.ErrNotFound (optionally wrapped) for missing keys.
type Medium interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Store implements cache-aside storage for reference lists.
type Store struct {
	medium     Medium
	logger     *slog.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
	defaultTTL time.Duration
}

type Option func(*Store)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func WithDefaultTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.defaultTTL = ttl
		}
	}
}

// New creates a store on medium. A nil medium yields a no-op store.
func New(medium Medium, opts ...Option) *Store {
	s := &Store{
		medium:     medium,
		logger:     logger.Discard(),
		now:        time.Now,
		defaultTTL: DefaultTTL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Get returns the payload stored under key if it is present, well formed and
// unexpired. The returned slice is a copy.
func (s *Store) Get(ctx context.Context, key string) ([]string, bool) {
	entry, ok := s.Lookup(ctx, key)
	if !ok {
		return nil, false
	}
	return entry.Payload, true
}

// Lookup is Get returning the whole entry.
func (s *Store) Lookup(ctx context.Context, key string) (Entry, bool) {
	if s.medium == nil {
		return Entry{}, false
	}

	raw, err := s.medium.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "cache medium read failed", "key", key, "error", err)
			s.metrics.IncMediumError("get")
		}
		s.metrics.IncCacheLookup(metrics.CacheMiss)
		return Entry{}, false
	}

	entry, err := decodeEntry(key, raw, s.defaultTTL)
	if err != nil {
		s.logger.DebugContext(ctx, "discarding corrupt cache entry", "key", key, "error", err)
		s.purge(ctx, key)
		s.metrics.IncCacheLookup(metrics.CacheCorrupt)
		return Entry{}, false
	}

	if entry.Expired(s.now()) {
		s.purge(ctx, key)
		s.metrics.IncCacheLookup(metrics.CacheExpired)
		return Entry{}, false
	}

	s.metrics.IncCacheLookup(metrics.CacheHit)
	return entry, true
}

// Set replaces the entry under key. A non-positive ttl uses the default.
func (s *Store) Set(ctx context.Context, key string, payload []string, ttl time.Duration) {
	if s.medium == nil {
		return
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	data, err := encodeEntry(Entry{
		Key:      key,
		Payload:  append([]string(nil), payload...),
		StoredAt: s.now(),
		TTL:      ttl,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "cache entry encode failed", "key", key, "error", err)
		return
	}

	if err := s.medium.Set(ctx, key, data, ttl); err != nil {
		s.logger.WarnContext(ctx, "cache medium write failed", "key", key, "error", err)
		s.metrics.IncMediumError("set")
	}
}

// Invalidate removes the entry under key.
func (s *Store) Invalidate(ctx context.Context, key string) {
	if s.medium == nil {
		return
	}
	s.purge(ctx, key)
}

func (s *Store) purge(ctx context.Context, key string) {
	if err := s.medium.Delete(ctx, key); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		s.logger.WarnContext(ctx, "cache medium delete failed", "key", key, "error", err)
		s.metrics.IncMediumError("delete")
	}
}
