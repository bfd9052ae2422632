// Package refdata loads reference lists (cities, medical specialties) with a
// cache-aside strategy: cache, then the remote source under a hard timeout,
// then the embedded fallback.
package refdata

import (
	"errors"
	"fmt"
	"time"
)

// Source reports which tier served a load.
type Source string

const (
	SourceCache    Source = "cache"
	SourceRemote   Source = "remote"
	SourceFallback Source = "fallback"
)

// Dataset describes one reference list.
type Dataset struct {
	// Name identifies the dataset in logs, metrics and the catalog.
	Name string
	// SourceURL is fetched with GET when the cache misses.
	SourceURL string
	// Collection is the key holding the records when the payload is an
	// object, e.g. "especialidades". Empty accepts any of the known shapes.
	Collection string
	// Fallback is returned as-is when the remote source fails. Never empty.
	Fallback []string
	// CacheKey defaults to "refdata:" + Name.
	CacheKey string
	// TTL bounds how long a remote list stays in the cache.
	TTL time.Duration
}

var (
	ErrDatasetName     = errors.New("dataset name is required")
	ErrDatasetFallback = errors.New("dataset fallback must not be empty")
)

// New builds a validated Dataset with the cache key filled in.
func New(name, sourceURL string, fallback []string, opts ...DatasetOption) (Dataset, error) {
	ds := Dataset{
		Name:      name,
		SourceURL: sourceURL,
		Fallback:  append([]string(nil), fallback...),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&ds)
		}
	}
	if ds.CacheKey == "" {
		ds.CacheKey = "refdata:" + name
	}
	if err := ds.Validate(); err != nil {
		return Dataset{}, err
	}
	return ds, nil
}

type DatasetOption func(*Dataset)

func WithCollection(key string) DatasetOption {
	return func(ds *Dataset) {
		ds.Collection = key
	}
}

func WithCacheKey(key string) DatasetOption {
	return func(ds *Dataset) {
		ds.CacheKey = key
	}
}

func WithTTL(ttl time.Duration) DatasetOption {
	return func(ds *Dataset) {
		ds.TTL = ttl
	}
}

// Validate checks the invariants every Dataset must hold.
func (ds Dataset) Validate() error {
	if ds.Name == "" {
		return ErrDatasetName
	}
	if len(ds.Fallback) == 0 {
		return fmt.Errorf("dataset %s: %w", ds.Name, ErrDatasetFallback)
	}
	return nil
}

func (ds Dataset) cacheKey() string {
	if ds.CacheKey != "" {
		return ds.CacheKey
	}
	return "refdata:" + ds.Name
}
