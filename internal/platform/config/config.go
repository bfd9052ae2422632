package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Cache medium names accepted by AGENDA_CACHE_MEDIUM.
const (
	MediumMemory   = "memory"
	MediumRedis    = "redis"
	MediumPostgres = "postgres"
	MediumFile     = "file"
)

// Config captures everything the reference-data subsystem needs at startup.
type Config struct {
	Cache      CacheConfig
	Redis      RedisConfig
	Postgres   PostgresConfig
	Sources    SourcesConfig
	Validation ValidationConfig

	MetricsAddr string
	MockAddr    string
	LogLevel    string
}

// CacheConfig selects the storage medium behind the cache store.
type CacheConfig struct {
	Medium string
	Dir    string
	TTL    time.Duration
}

// RedisConfig configures the optional Redis medium.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PostgresConfig configures the optional Postgres medium.
type PostgresConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

// SourcesConfig points at the remote endpoints.
type SourcesConfig struct {
	CitiesURL      string
	SpecialtiesURL string
	PostalURL      string
	FetchTimeout   time.Duration
	LookupTimeout  time.Duration
}

// ValidationConfig tunes the advisory field validation.
type ValidationConfig struct {
	Debounce    time.Duration
	RevertAfter time.Duration
}

// DefaultCacheTTL is how long a remote reference list stays fresh.
var DefaultCacheTTL = 24 * time.Hour

// DefaultFetchTimeout bounds every remote dataset fetch.
var DefaultFetchTimeout = 10 * time.Second

// DefaultCacheDir is the per-user cache directory for the file medium, or a
// directory under the working directory when the platform has none.
func DefaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil && dir != "" {
		return filepath.Join(dir, "agenda")
	}
	return ".agenda-cache"
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	return Config{
		Cache: CacheConfig{
			Medium: strings.ToLower(envOr("AGENDA_CACHE_MEDIUM", MediumFile)),
			Dir:    envOr("AGENDA_CACHE_DIR", DefaultCacheDir()),
			TTL:    envDuration("AGENDA_CACHE_TTL", DefaultCacheTTL),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: PostgresConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns: envInt("DB_MAX_IDLE_CONNS", 2),
		},
		Sources: SourcesConfig{
			CitiesURL:      envOr("AGENDA_CITIES_URL", "https://servicodados.ibge.gov.br/api/v1/localidades/estados/SP/municipios"),
			SpecialtiesURL: envOr("AGENDA_SPECIALTIES_URL", "http://localhost:5000/api/especialidades"),
			PostalURL:      envOr("AGENDA_CEP_URL", "https://viacep.com.br"),
			FetchTimeout:   envDuration("AGENDA_FETCH_TIMEOUT", DefaultFetchTimeout),
			LookupTimeout:  envDuration("AGENDA_LOOKUP_TIMEOUT", DefaultFetchTimeout),
		},
		Validation: ValidationConfig{
			Debounce:    envDuration("AGENDA_VALIDATION_DEBOUNCE", time.Second),
			RevertAfter: envDuration("AGENDA_VALIDATION_REVERT", 2*time.Second),
		},
		MetricsAddr: os.Getenv("AGENDA_METRICS_ADDR"),
		MockAddr:    envOr("AGENDA_MOCK_ADDR", ":8089"),
		LogLevel:    envOr("AGENDA_LOG_LEVEL", "info"),
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
