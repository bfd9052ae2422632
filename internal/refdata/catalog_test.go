package refdata

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"agenda/internal/cache"
	"agenda/internal/cache/medium"
	"agenda/internal/refdata/mocks"
)

func mustDataset(t *testing.T, name string, fallback ...string) Dataset {
	t.Helper()
	ds, err := New(name, "https://example.test/"+name, fallback)
	require.NoError(t, err)
	return ds
}

func TestNewDataset(t *testing.T) {
	t.Run("requires a fallback", func(t *testing.T) {
		_, err := New("cities", "https://example.test", nil)
		assert.ErrorIs(t, err, ErrDatasetFallback)
	})

	t.Run("requires a name", func(t *testing.T) {
		_, err := New("", "https://example.test", []string{"a"})
		assert.ErrorIs(t, err, ErrDatasetName)
	})

	t.Run("defaults the cache key and copies the fallback", func(t *testing.T) {
		fallback := []string{"Campinas"}
		ds, err := New("cities", "https://example.test", fallback, WithTTL(time.Hour))
		require.NoError(t, err)
		fallback[0] = "changed"

		assert.Equal(t, "refdata:cities", ds.CacheKey)
		assert.Equal(t, []string{"Campinas"}, ds.Fallback)
		assert.Equal(t, time.Hour, ds.TTL)
	})
}

func TestCatalog(t *testing.T) {
	cities := mustDataset(t, "cities", "Campinas")
	specialties := mustDataset(t, "specialties", "Cardiologia")

	catalog, err := NewCatalog(specialties, cities)
	require.NoError(t, err)

	assert.Equal(t, []string{"cities", "specialties"}, catalog.Names())
	assert.Len(t, catalog.All(), 2)

	got, ok := catalog.Get("cities")
	require.True(t, ok)
	assert.Equal(t, cities.SourceURL, got.SourceURL)

	_, ok = catalog.Get("unknown")
	assert.False(t, ok)

	err = catalog.Register(cities)
	assert.ErrorContains(t, err, "already registered")

	err = catalog.Register(Dataset{Name: "empty"})
	assert.ErrorIs(t, err, ErrDatasetFallback)
}

func TestLists(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockFetcher(ctrl)

	store := cache.New(medium.NewMemory())
	loader, err := NewLoader(store, fetcher)
	require.NoError(t, err)
	catalog, err := NewCatalog(mustDataset(t, "specialties", "Cardiologia"))
	require.NoError(t, err)

	_, err = NewLists(nil, loader)
	require.Error(t, err)

	lists, err := NewLists(catalog, loader)
	require.NoError(t, err)

	t.Run("unknown dataset", func(t *testing.T) {
		_, err := lists.List(ctx, "vehicles")
		assert.ErrorIs(t, err, ErrUnknownDataset)
		assert.ErrorIs(t, lists.Invalidate(ctx, "vehicles"), ErrUnknownDataset)
		_, _, err = lists.Refresh(ctx, "vehicles")
		assert.ErrorIs(t, err, ErrUnknownDataset)
	})

	t.Run("loads by name then invalidates", func(t *testing.T) {
		fetcher.EXPECT().Fetch(gomock.Any(), "https://example.test/specialties").
			Return([]byte(`["Pediatria"]`), nil).Times(2)

		values, err := lists.List(ctx, "specialties")
		require.NoError(t, err)
		assert.Equal(t, []string{"Pediatria"}, values)

		require.NoError(t, lists.Invalidate(ctx, "specialties"))
		assert.Equal(t, map[string]Source{"specialties": SourceRemote}, lists.Warm(ctx))
	})
}
