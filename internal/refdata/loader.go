package refdata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"agenda/internal/platform/logger"
	"agenda/internal/platform/metrics"
	"agenda/pkg/requestcontext"
)

// DefaultFetchTimeout bounds a remote fetch when no WithFetchTimeout is given.
const DefaultFetchTimeout = 10 * time.Second

// CacheStore is the cache-aside storage the loader reads and fills.
// Implementations never fail; problems surface as misses.
type CacheStore interface {
	Get(ctx context.Context, key string) ([]string, bool)
	Set(ctx context.Context, key string, payload []string, ttl time.Duration)
	Invalidate(ctx context.Context, key string)
}

// Loader resolves datasets through cache, remote source and fallback.
// Load never fails: it always yields a list.
type Loader struct {
	cache      CacheStore
	fetcher    Fetcher
	timeout    time.Duration
	defaultTTL time.Duration
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
	flights    singleflight.Group
}

type Option func(*Loader)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Loader) {
		l.metrics = m
	}
}

func WithFetchTimeout(timeout time.Duration) Option {
	return func(l *Loader) {
		if timeout > 0 {
			l.timeout = timeout
		}
	}
}

// WithDefaultTTL applies to datasets that do not set their own TTL.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(l *Loader) {
		l.defaultTTL = ttl
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(l *Loader) {
		l.tracer = tracer
	}
}

func NewLoader(cache CacheStore, fetcher Fetcher, opts ...Option) (*Loader, error) {
	if cache == nil {
		return nil, errors.New("cache store is required")
	}
	if fetcher == nil {
		return nil, errors.New("fetcher is required")
	}

	l := &Loader{
		cache:   cache,
		fetcher: fetcher,
		timeout: DefaultFetchTimeout,
		logger:  logger.Discard(),
		tracer:  otel.Tracer("agenda/internal/refdata"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l, nil
}

// Load returns the reference list for ds.
func (l *Loader) Load(ctx context.Context, ds Dataset) []string {
	values, _ := l.LoadWithSource(ctx, ds)
	return values
}

// LoadWithSource is Load that also reports which tier served the list.
//
// Concurrent calls for the same dataset share one remote fetch. A caller whose
// context ends before the fetch completes gets the fallback while the fetch
// keeps going for the others and for the cache.
func (l *Loader) LoadWithSource(ctx context.Context, ds Dataset) ([]string, Source) {
	if err := ds.Validate(); err != nil {
		l.logger.ErrorContext(ctx, "invalid dataset", "dataset", ds.Name, "error", err)
		return []string{}, SourceFallback
	}

	if cached, ok := l.cache.Get(ctx, ds.cacheKey()); ok {
		l.metrics.IncDatasetLoad(ds.Name, string(SourceCache))
		return cached, SourceCache
	}

	flight := l.flights.DoChan(ds.Name, func() (any, error) {
		return l.fetchAndStore(context.WithoutCancel(ctx), ds)
	})

	select {
	case res := <-flight:
		if res.Err != nil {
			return l.fallback(ctx, ds, res.Err), SourceFallback
		}
		values := res.Val.([]string)
		l.metrics.IncDatasetLoad(ds.Name, string(SourceRemote))
		return append([]string(nil), values...), SourceRemote
	case <-ctx.Done():
		l.logger.DebugContext(ctx, "dataset load abandoned by caller", "dataset", ds.Name, "error", ctx.Err())
		l.metrics.IncDatasetLoad(ds.Name, string(SourceFallback))
		return append([]string(nil), ds.Fallback...), SourceFallback
	}
}

// Refresh drops the cached list and loads it again.
func (l *Loader) Refresh(ctx context.Context, ds Dataset) ([]string, Source) {
	l.cache.Invalidate(ctx, ds.cacheKey())
	return l.LoadWithSource(ctx, ds)
}

// Warm loads every dataset concurrently and reports the source of each.
func (l *Loader) Warm(ctx context.Context, datasets ...Dataset) map[string]Source {
	var mu sync.Mutex
	sources := make(map[string]Source, len(datasets))

	g, gctx := errgroup.WithContext(ctx)
	for _, ds := range datasets {
		ds := ds
		g.Go(func() error {
			_, source := l.LoadWithSource(gctx, ds)
			mu.Lock()
			sources[ds.Name] = source
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return sources
}

func (l *Loader) fetchAndStore(ctx context.Context, ds Dataset) ([]string, error) {
	ctx = requestcontext.EnsureRequestID(ctx)
	ctx, span := l.tracer.Start(ctx, "refdata.fetch", trace.WithAttributes(
		attribute.String("dataset", ds.Name),
		attribute.String("url", ds.SourceURL),
		attribute.String("request_id", requestcontext.RequestID(ctx)),
	))
	defer span.End()

	if ds.SourceURL == "" {
		err := NewSourceError(ErrorInternal, ds.Name, "no source url", nil)
		span.SetStatus(codes.Error, err.Message)
		return nil, err
	}

	fetchCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	start := time.Now()
	raw, err := l.fetcher.Fetch(fetchCtx, ds.SourceURL)
	l.metrics.ObserveFetchLatency(ds.Name, time.Since(start))
	if err != nil {
		serr := classify(ds.Name, err)
		span.RecordError(serr)
		span.SetStatus(codes.Error, string(serr.Category))
		return nil, serr
	}

	values, err := Normalize(raw, ds.Collection)
	if err != nil {
		serr := NewSourceError(ErrorBadData, ds.Name, "normalize payload", err)
		span.RecordError(serr)
		span.SetStatus(codes.Error, string(serr.Category))
		return nil, serr
	}
	span.SetAttributes(attribute.Int("records", len(values)))

	ttl := ds.TTL
	if ttl <= 0 {
		ttl = l.defaultTTL
	}
	l.cache.Set(ctx, ds.cacheKey(), values, ttl)

	l.logger.InfoContext(ctx, "dataset fetched",
		"dataset", ds.Name,
		"records", len(values),
		"request_id", requestcontext.RequestID(ctx),
	)
	return values, nil
}

func (l *Loader) fallback(ctx context.Context, ds Dataset, err error) []string {
	category := GetCategory(err)
	l.logger.WarnContext(ctx, "dataset fetch failed, using fallback",
		"dataset", ds.Name,
		"category", string(category),
		"error", err,
	)
	l.metrics.IncFetchFailure(ds.Name, string(category))
	l.metrics.IncDatasetLoad(ds.Name, string(SourceFallback))
	return append([]string(nil), ds.Fallback...)
}

func classify(dataset string, err error) *SourceError {
	var serr *SourceError
	if errors.As(err, &serr) {
		return serr
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return &SourceError{
			Category:   ErrorStatus,
			Dataset:    dataset,
			Message:    fmt.Sprintf("status %d", statusErr.StatusCode),
			StatusCode: statusErr.StatusCode,
			Underlying: err,
		}
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return NewSourceError(ErrorTimeout, dataset, "fetch timed out", err)
	}
	return NewSourceError(ErrorTransport, dataset, "fetch failed", err)
}
