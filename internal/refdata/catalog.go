package refdata

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Catalog maps dataset names to their definitions.
type Catalog struct {
	mu       sync.RWMutex
	datasets map[string]Dataset
}

func NewCatalog(datasets ...Dataset) (*Catalog, error) {
	c := &Catalog{datasets: make(map[string]Dataset, len(datasets))}
	for _, ds := range datasets {
		if err := c.Register(ds); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Register adds ds. Names must be unique.
func (c *Catalog) Register(ds Dataset) error {
	if err := ds.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.datasets[ds.Name]; exists {
		return fmt.Errorf("dataset %s already registered", ds.Name)
	}
	c.datasets[ds.Name] = ds
	return nil
}

func (c *Catalog) Get(name string) (Dataset, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ds, ok := c.datasets[name]
	return ds, ok
}

// Names returns the registered names in lexical order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.datasets))
	for name := range c.datasets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns the registered datasets ordered by name.
func (c *Catalog) All() []Dataset {
	names := c.Names()
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]Dataset, 0, len(names))
	for _, name := range names {
		result = append(result, c.datasets[name])
	}
	return result
}

// Lists loads datasets by name.
type Lists struct {
	catalog *Catalog
	loader  *Loader
}

func NewLists(catalog *Catalog, loader *Loader) (*Lists, error) {
	if catalog == nil {
		return nil, errors.New("catalog is required")
	}
	if loader == nil {
		return nil, errors.New("loader is required")
	}
	return &Lists{catalog: catalog, loader: loader}, nil
}

// List loads the dataset registered under name.
func (l *Lists) List(ctx context.Context, name string) ([]string, error) {
	ds, ok := l.catalog.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDataset, name)
	}
	return l.loader.Load(ctx, ds), nil
}

// Refresh reloads the dataset registered under name, bypassing the cache.
func (l *Lists) Refresh(ctx context.Context, name string) ([]string, Source, error) {
	ds, ok := l.catalog.Get(name)
	if !ok {
		return nil, "", fmt.Errorf("%w: %s", ErrUnknownDataset, name)
	}
	values, source := l.loader.Refresh(ctx, ds)
	return values, source, nil
}

// Warm loads every registered dataset.
func (l *Lists) Warm(ctx context.Context) map[string]Source {
	return l.loader.Warm(ctx, l.catalog.All()...)
}

// Invalidate drops the cached copy of the dataset registered under name.
func (l *Lists) Invalidate(ctx context.Context, name string) error {
	ds, ok := l.catalog.Get(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDataset, name)
	}
	l.loader.cache.Invalidate(ctx, ds.cacheKey())
	return nil
}
