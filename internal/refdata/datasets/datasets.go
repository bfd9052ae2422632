// Package datasets defines the built-in reference lists and their embedded
// fallbacks.
package datasets

import (
	"bufio"
	"embed"
	"fmt"
	"io"
	"strings"
	"sync"

	"agenda/internal/platform/config"
	"agenda/internal/refdata"
)

const (
	CitiesName      = "cities"
	SpecialtiesName = "specialties"
)

//go:embed data/cities.txt data/specialties.txt
var dataFS embed.FS

var (
	loadOnce    sync.Once
	fallbacks   map[string][]string
	fallbackErr error
)

// Fallback returns the embedded list for name.
func Fallback(name string) ([]string, error) {
	loadOnce.Do(func() {
		fallbacks = make(map[string][]string, 2)
		for name, path := range map[string]string{
			CitiesName:      "data/cities.txt",
			SpecialtiesName: "data/specialties.txt",
		} {
			values, err := loadFile(path)
			if err != nil {
				fallbackErr = err
				return
			}
			fallbacks[name] = values
		}
	})
	if fallbackErr != nil {
		return nil, fallbackErr
	}
	values, ok := fallbacks[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", refdata.ErrUnknownDataset, name)
	}
	return append([]string(nil), values...), nil
}

func loadFile(path string) ([]string, error) {
	f, err := dataFS.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return LoadList(f)
}

// LoadList reads one entry per line. Blank lines and lines starting with "#"
// are skipped; order is kept.
func LoadList(r io.Reader) ([]string, error) {
	if r == nil {
		return nil, fmt.Errorf("datasets: missing reader")
	}

	scanner := bufio.NewScanner(r)
	values := make([]string, 0, 64)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		values = append(values, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return values, nil
}

// Cities is the list of municipalities of São Paulo state. The IBGE
// localities API answers with [{"id": ..., "nome": ...}].
func Cities(sourceURL string, opts ...refdata.DatasetOption) (refdata.Dataset, error) {
	fallback, err := Fallback(CitiesName)
	if err != nil {
		return refdata.Dataset{}, err
	}
	return refdata.New(CitiesName, sourceURL, fallback, opts...)
}

// Specialties is the list of medical specialties served by the scheduling
// backend as {"especialidades": [...]}.
func Specialties(sourceURL string, opts ...refdata.DatasetOption) (refdata.Dataset, error) {
	fallback, err := Fallback(SpecialtiesName)
	if err != nil {
		return refdata.Dataset{}, err
	}
	opts = append([]refdata.DatasetOption{refdata.WithCollection("especialidades")}, opts...)
	return refdata.New(SpecialtiesName, sourceURL, fallback, opts...)
}

// Default builds the catalog of built-in datasets from configuration.
func Default(cfg config.Config) (*refdata.Catalog, error) {
	ttl := refdata.WithTTL(cfg.Cache.TTL)

	cities, err := Cities(cfg.Sources.CitiesURL, ttl)
	if err != nil {
		return nil, err
	}
	specialties, err := Specialties(cfg.Sources.SpecialtiesURL, ttl)
	if err != nil {
		return nil, err
	}
	return refdata.NewCatalog(cities, specialties)
}
