package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"

	"github.com/prometheus/client_golang/prometheus"

	"agenda/internal/binding"
	"agenda/internal/cache"
	"agenda/internal/cache/medium"
	"agenda/internal/form/memory"
	"agenda/internal/platform/config"
	"agenda/internal/platform/metrics"
	"agenda/internal/postal"
	"agenda/internal/postal/viacep"
	"agenda/internal/refdata"
	"agenda/internal/refdata/datasets"
	"agenda/internal/validation"
)

type app struct {
	cfg     config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	catalog *refdata.Catalog
	lists   *refdata.Lists
	postal  postal.Client
}

// newApp wires the cache medium, loader and catalog. The returned func
// releases the medium.
func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger, reg prometheus.Registerer) (*app, func(), error) {
	m := metrics.New(reg)

	med, closeMedium, err := medium.Open(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open cache medium: %w", err)
	}
	release := func() {
		if err := closeMedium(); err != nil {
			logger.Warn("failed to close cache medium", "error", err)
		}
	}

	store := cache.New(med,
		cache.WithLogger(logger),
		cache.WithMetrics(m),
		cache.WithDefaultTTL(cfg.Cache.TTL),
	)
	loader, err := refdata.NewLoader(store, refdata.NewHTTPFetcher(&http.Client{}),
		refdata.WithLogger(logger),
		refdata.WithMetrics(m),
		refdata.WithFetchTimeout(cfg.Sources.FetchTimeout),
		refdata.WithDefaultTTL(cfg.Cache.TTL),
	)
	if err != nil {
		release()
		return nil, nil, err
	}
	catalog, err := datasets.Default(cfg)
	if err != nil {
		release()
		return nil, nil, err
	}
	lists, err := refdata.NewLists(catalog, loader)
	if err != nil {
		release()
		return nil, nil, err
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		metrics: m,
		catalog: catalog,
		lists:   lists,
		postal:  viacep.New(cfg.Sources.PostalURL, viacep.WithTimeout(cfg.Sources.LookupTimeout)),
	}, release, nil
}

func (a *app) warm(ctx context.Context, out io.Writer) error {
	sources := a.lists.Warm(ctx)
	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := fmt.Fprintf(out, "%s\t%s\n", name, sources[name]); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) refresh(ctx context.Context, name string, out io.Writer) error {
	list, source, err := a.lists.Refresh(ctx, name)
	if err != nil {
		return err
	}
	a.logger.InfoContext(ctx, "dataset refreshed", "dataset", name, "source", string(source), "entries", len(list))
	return writeLines(out, list)
}

func (a *app) load(ctx context.Context, name string, out io.Writer) error {
	list, err := a.lists.List(ctx, name)
	if err != nil {
		return err
	}
	return writeLines(out, list)
}

// options renders the field binding for name into a headless form and prints
// the resulting choices as value<TAB>label.
func (a *app) options(ctx context.Context, name string, out io.Writer) error {
	doc := memory.New()
	container := doc.AddContainer(name, name, "")

	controller, err := binding.NewController(doc, a.lists, binding.WithLogger(a.logger))
	if err != nil {
		return err
	}
	defer controller.Close()

	if err := controller.Bind(ctx, name, name, "Selecione..."); err != nil {
		return err
	}
	for _, opt := range container.CurrentSelect().Options() {
		if _, err := fmt.Fprintf(out, "%s\t%s\n", opt.Value, opt.Label); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) resolvePostalCode(ctx context.Context, code string, out io.Writer) error {
	fields := postal.DefaultFields
	doc := memory.New()
	for _, name := range []string{fields.PostalCode, fields.Street, fields.District, fields.City, fields.State, fields.Number} {
		doc.AddField(name, "")
	}

	resolver, err := postal.NewResolver(doc, a.postal,
		postal.WithFields(fields),
		postal.WithLookupTimeout(a.cfg.Sources.LookupTimeout),
		postal.WithLogger(a.logger),
		postal.WithMetrics(a.metrics),
	)
	if err != nil {
		return err
	}

	cep := doc.Lookup(fields.PostalCode)
	cep.SetValue(postal.Mask(code))
	outcome := resolver.Resolve(ctx)

	if _, err := fmt.Fprintf(out, "outcome\t%s\n", outcome); err != nil {
		return err
	}
	if msg := cep.Feedback().Message; msg != "" {
		if _, err := fmt.Fprintf(out, "message\t%s\n", msg); err != nil {
			return err
		}
	}
	values := doc.Values()
	for _, name := range []string{fields.PostalCode, fields.Street, fields.District, fields.City, fields.State} {
		if _, err := fmt.Fprintf(out, "%s\t%s\n", name, values[name]); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) check(ruleName, value string, out io.Writer) error {
	var rule validation.Rule
	switch ruleName {
	case validation.AddressRule.Name:
		rule = validation.AddressRule
	case validation.SpecialtyRule.Name:
		rule = validation.SpecialtyRule
	default:
		return fmt.Errorf("unknown rule %q (want %s or %s)", ruleName, validation.AddressRule.Name, validation.SpecialtyRule.Name)
	}

	field := memory.New().AddField(rule.Name, "")
	field.SetValue(value)

	pipeline := validation.New(validation.WithLogger(a.logger))
	defer pipeline.Close()

	state := pipeline.Validate(field, rule)
	_, err := fmt.Fprintf(out, "%s\t%s\n", state, field.Feedback().Message)
	return err
}

func writeLines(out io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}
