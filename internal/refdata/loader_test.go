package refdata

//go:generate mockgen -source=source.go -destination=mocks/mocks.go -package=mocks Fetcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"agenda/internal/cache"
	"agenda/internal/cache/medium"
	"agenda/internal/platform/metrics"
	"agenda/internal/refdata/mocks"
	"agenda/pkg/requestcontext"
)

// =============================================================================
// Loader Test Suite
// =============================================================================
// Justification for unit tests: the loader decides between cache, remote and
// fallback. The fetcher is mocked so every failure category and the request
// coalescing can be driven deterministically; the cache store is real and
// runs on the in-memory medium with a controllable clock.

type LoaderSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	fetcher *mocks.MockFetcher
	medium  *medium.Memory
	store   *cache.Store
	metrics *metrics.Metrics
	clock   *fakeClock
	loader  *Loader
	cities  Dataset
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestLoaderSuite(t *testing.T) {
	suite.Run(t, new(LoaderSuite))
}

func (s *LoaderSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.fetcher = mocks.NewMockFetcher(s.ctrl)
	s.medium = medium.NewMemory()
	s.clock = &fakeClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.store = cache.New(s.medium, cache.WithClock(s.clock.Now))

	var err error
	s.loader, err = NewLoader(s.store, s.fetcher,
		WithMetrics(s.metrics),
		WithFetchTimeout(50*time.Millisecond),
	)
	s.Require().NoError(err)

	s.cities, err = New("cities", "https://example.test/municipios",
		[]string{"Cosmópolis", "Campinas"},
		WithTTL(24*time.Hour),
	)
	s.Require().NoError(err)
}

func (s *LoaderSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *LoaderSuite) loads(source Source) float64 {
	return testutil.ToFloat64(s.metrics.DatasetLoads.WithLabelValues("cities", string(source)))
}

// =============================================================================
// Constructor
// =============================================================================

func (s *LoaderSuite) TestNewLoader() {
	s.Run("nil cache store returns error", func() {
		_, err := NewLoader(nil, s.fetcher)
		s.ErrorContains(err, "cache store is required")
	})

	s.Run("nil fetcher returns error", func() {
		_, err := NewLoader(s.store, nil)
		s.ErrorContains(err, "fetcher is required")
	})
}

// =============================================================================
// Cache tier
// =============================================================================

func (s *LoaderSuite) TestWarmCacheMakesNoNetworkCall() {
	ctx := context.Background()
	s.store.Set(ctx, s.cities.CacheKey, []string{"Americana", "Limeira"}, time.Hour)

	// No Fetch expectation: any call fails the test.
	values, source := s.loader.LoadWithSource(ctx, s.cities)

	s.Equal(SourceCache, source)
	s.Equal([]string{"Americana", "Limeira"}, values)
	s.Equal(1.0, s.loads(SourceCache))
}

func (s *LoaderSuite) TestExpiredEntryIsPurgedAndRefetched() {
	ctx := context.Background()
	s.store.Set(ctx, s.cities.CacheKey, []string{"Stale"}, time.Hour)
	s.clock.Advance(time.Hour)

	s.fetcher.EXPECT().Fetch(gomock.Any(), s.cities.SourceURL).
		Return([]byte(`[{"id":1,"nome":"Paulínia"}]`), nil)

	values, source := s.loader.LoadWithSource(ctx, s.cities)

	s.Equal(SourceRemote, source)
	s.Equal([]string{"Paulínia"}, values)
}

// =============================================================================
// Remote tier
// =============================================================================

func (s *LoaderSuite) TestRemoteListIsNormalizedAndCached() {
	ctx := context.Background()
	s.fetcher.EXPECT().Fetch(gomock.Any(), s.cities.SourceURL).
		Return([]byte(`["São Paulo", "sao paulo", "Campinas", "Águas de Lindóia", "  "]`), nil).
		Times(1)

	values, source := s.loader.LoadWithSource(ctx, s.cities)
	s.Equal(SourceRemote, source)
	s.Equal([]string{"Águas de Lindóia", "Campinas", "São Paulo"}, values)

	again, source := s.loader.LoadWithSource(ctx, s.cities)
	s.Equal(SourceCache, source)
	s.Equal(values, again)
}

func (s *LoaderSuite) TestRequestCarriesRequestID() {
	ctx := requestcontext.WithRequestID(context.Background(), "req-42")
	s.fetcher.EXPECT().Fetch(gomock.Any(), s.cities.SourceURL).
		DoAndReturn(func(ctx context.Context, _ string) ([]byte, error) {
			s.Equal("req-42", requestcontext.RequestID(ctx))
			_, hasDeadline := ctx.Deadline()
			s.True(hasDeadline, "fetch must be bounded")
			return []byte(`["Campinas"]`), nil
		})

	s.loader.Load(ctx, s.cities)
}

func (s *LoaderSuite) TestCallersReceiveTheirOwnCopy() {
	ctx := context.Background()
	s.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return([]byte(`["Campinas","Limeira"]`), nil)

	first := s.loader.Load(ctx, s.cities)
	first[0] = "mutated"

	second := s.loader.Load(ctx, s.cities)
	s.Equal([]string{"Campinas", "Limeira"}, second)
}

// =============================================================================
// Fallback tier
// =============================================================================

func (s *LoaderSuite) TestFailuresFallBackWithoutCaching() {
	cases := []struct {
		name     string
		fetch    func(ctx context.Context, url string) ([]byte, error)
		category ErrorCategory
	}{
		{
			name: "timeout",
			fetch: func(ctx context.Context, _ string) ([]byte, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			},
			category: ErrorTimeout,
		},
		{
			name: "transport error",
			fetch: func(context.Context, string) ([]byte, error) {
				return nil, errors.New("connection refused")
			},
			category: ErrorTransport,
		},
		{
			name: "non-2xx status",
			fetch: func(_ context.Context, url string) ([]byte, error) {
				return nil, &StatusError{URL: url, StatusCode: 503, Status: "503 Service Unavailable"}
			},
			category: ErrorStatus,
		},
		{
			name: "unparseable payload",
			fetch: func(context.Context, string) ([]byte, error) {
				return []byte("<html>"), nil
			},
			category: ErrorBadData,
		},
		{
			name: "empty list",
			fetch: func(context.Context, string) ([]byte, error) {
				return []byte(`[]`), nil
			},
			category: ErrorBadData,
		},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			ctx := context.Background()
			failures := s.metrics.FetchFailures.WithLabelValues("cities", string(tc.category))
			before := testutil.ToFloat64(failures)
			s.fetcher.EXPECT().Fetch(gomock.Any(), s.cities.SourceURL).DoAndReturn(tc.fetch)

			values, source := s.loader.LoadWithSource(ctx, s.cities)

			s.Equal(SourceFallback, source)
			s.Equal([]string{"Cosmópolis", "Campinas"}, values, "fallback is returned as-is")
			_, cached := s.store.Get(ctx, s.cities.CacheKey)
			s.False(cached, "fallback must not be cached")
			s.Equal(before+1, testutil.ToFloat64(failures))
		})
	}
}

func (s *LoaderSuite) TestTimeoutThenRetrySucceeds() {
	ctx := context.Background()
	gomock.InOrder(
		s.fetcher.EXPECT().Fetch(gomock.Any(), s.cities.SourceURL).
			DoAndReturn(func(ctx context.Context, _ string) ([]byte, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			}),
		s.fetcher.EXPECT().Fetch(gomock.Any(), s.cities.SourceURL).
			Return([]byte(`["Limeira"]`), nil),
	)

	_, source := s.loader.LoadWithSource(ctx, s.cities)
	s.Equal(SourceFallback, source)

	values, source := s.loader.LoadWithSource(ctx, s.cities)
	s.Equal(SourceRemote, source)
	s.Equal([]string{"Limeira"}, values)
}

func (s *LoaderSuite) TestFallbackIsACopy() {
	ctx := context.Background()
	s.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(nil, errors.New("down")).Times(2)

	first := s.loader.Load(ctx, s.cities)
	first[0] = "mutated"

	second := s.loader.Load(ctx, s.cities)
	s.Equal("Cosmópolis", second[0])
	s.Equal("Cosmópolis", s.cities.Fallback[0])
}

func (s *LoaderSuite) TestInvalidDatasetYieldsEmptyList() {
	values, source := s.loader.LoadWithSource(context.Background(), Dataset{Name: "broken"})
	s.Equal(SourceFallback, source)
	s.Empty(values)
	s.NotNil(values)
}

// =============================================================================
// Coalescing
// =============================================================================

func (s *LoaderSuite) TestConcurrentLoadsShareOneFetch() {
	ctx := context.Background()
	release := make(chan struct{})
	s.fetcher.EXPECT().Fetch(gomock.Any(), s.cities.SourceURL).
		DoAndReturn(func(context.Context, string) ([]byte, error) {
			<-release
			return []byte(`["Americana","Campinas"]`), nil
		}).
		Times(1)

	loader, err := NewLoader(s.store, s.fetcher, WithFetchTimeout(time.Second))
	s.Require().NoError(err)

	const callers = 8
	var wg sync.WaitGroup
	results := make([][]string, callers)
	for i := 0; i < callers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = loader.Load(ctx, s.cities)
		}()
	}

	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, values := range results {
		s.Equal([]string{"Americana", "Campinas"}, values)
	}
}

func (s *LoaderSuite) TestAbandonedCallerGetsFallbackWhileFetchCompletes() {
	release := make(chan struct{})
	done := make(chan struct{})
	s.fetcher.EXPECT().Fetch(gomock.Any(), s.cities.SourceURL).
		DoAndReturn(func(context.Context, string) ([]byte, error) {
			defer close(done)
			<-release
			return []byte(`["Limeira"]`), nil
		})

	loader, err := NewLoader(s.store, s.fetcher, WithFetchTimeout(time.Second))
	s.Require().NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	values, source := loader.LoadWithSource(ctx, s.cities)
	s.Equal(SourceFallback, source)
	s.Equal([]string{"Cosmópolis", "Campinas"}, values)

	close(release)
	<-done
	s.Eventually(func() bool {
		_, ok := s.store.Get(context.Background(), s.cities.CacheKey)
		return ok
	}, time.Second, 5*time.Millisecond, "the detached fetch still fills the cache")
}

// =============================================================================
// Refresh / Warm
// =============================================================================

func (s *LoaderSuite) TestRefreshBypassesCache() {
	ctx := context.Background()
	s.store.Set(ctx, s.cities.CacheKey, []string{"Old"}, time.Hour)
	s.fetcher.EXPECT().Fetch(gomock.Any(), s.cities.SourceURL).Return([]byte(`["New"]`), nil)

	values, source := s.loader.Refresh(ctx, s.cities)
	s.Equal(SourceRemote, source)
	s.Equal([]string{"New"}, values)
}

func (s *LoaderSuite) TestWarmLoadsEveryDataset() {
	ctx := context.Background()
	specialties, err := New("specialties", "https://example.test/especialidades",
		[]string{"Cardiologia"}, WithCollection("especialidades"))
	s.Require().NoError(err)

	s.fetcher.EXPECT().Fetch(gomock.Any(), s.cities.SourceURL).Return([]byte(`["Campinas"]`), nil)
	s.fetcher.EXPECT().Fetch(gomock.Any(), specialties.SourceURL).Return(nil, errors.New("down"))

	sources := s.loader.Warm(ctx, s.cities, specialties)
	s.Equal(map[string]Source{
		"cities":      SourceRemote,
		"specialties": SourceFallback,
	}, sources)
}
