package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig is the top-level configuration of the fulltext server binary.
type ServerConfig struct {
	Server  HTTPConfig    `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Search  SearchConfig  `yaml:"search"`
	Cache   CacheConfig   `yaml:"cache"`
	Jobs    JobsConfig    `yaml:"jobs"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// HTTPConfig holds HTTP listener settings.
type HTTPConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	MaxBodyBytes    int64         `yaml:"maxBodyBytes"`
}

// StorageConfig controls snapshot persistence. An empty DataDir keeps every index in memory only.
type StorageConfig struct {
	DataDir string `yaml:"dataDir"`
}

// SearchConfig controls query execution.
type SearchConfig struct {
	DefaultLimit int `yaml:"defaultLimit"`
	MaxLimit     int `yaml:"maxLimit"`
	Parallelism  int `yaml:"parallelism"` // Boolean clauses evaluated concurrently; 1 disables it
}

// CacheConfig selects the search result cache backend.
type CacheConfig struct {
	Backend  string        `yaml:"backend"` // "none", "memory" or "redis"
	Size     int           `yaml:"size"`    // Entries kept by the memory backend
	TTL      time.Duration `yaml:"ttl"`
	Addr     string        `yaml:"addr"` // Redis address
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
}

// JobsConfig controls the background job manager.
type JobsConfig struct {
	Workers int `yaml:"workers"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Cache backends.
const (
	CacheBackendNone   = "none"
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// LoadServerConfig reads a YAML config file (if provided) and applies FT_*
// environment-variable overrides on top of the defaults.
func LoadServerConfig(path string) (*ServerConfig, error) {
	cfg := DefaultServerConfig()
	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- path comes from the operator's command line
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultServerConfig returns a configuration suitable for local development.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Server: HTTPConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			MaxBodyBytes:    32 << 20,
		},
		Storage: StorageConfig{
			DataDir: "./search_data",
		},
		Search: SearchConfig{
			DefaultLimit: 10,
			MaxLimit:     1000,
			Parallelism:  4,
		},
		Cache: CacheConfig{
			Backend: CacheBackendMemory,
			Size:    1024,
			TTL:     time.Minute,
			Addr:    "localhost:6379",
		},
		Jobs: JobsConfig{
			Workers: 2,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Validate rejects configurations the server cannot start with.
func (cfg *ServerConfig) Validate() error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be within 1..65535, got %d", cfg.Server.Port)
	}
	if cfg.Search.DefaultLimit <= 0 {
		return fmt.Errorf("search.defaultLimit must be positive, got %d", cfg.Search.DefaultLimit)
	}
	if cfg.Search.MaxLimit < cfg.Search.DefaultLimit {
		return fmt.Errorf("search.maxLimit (%d) must not be below search.defaultLimit (%d)", cfg.Search.MaxLimit, cfg.Search.DefaultLimit)
	}
	if cfg.Search.Parallelism <= 0 {
		cfg.Search.Parallelism = 1
	}
	if cfg.Jobs.Workers <= 0 {
		cfg.Jobs.Workers = 1
	}
	switch cfg.Cache.Backend {
	case "", CacheBackendNone, CacheBackendMemory, CacheBackendRedis:
	default:
		return fmt.Errorf("cache.backend must be one of none, memory, redis; got %q", cfg.Cache.Backend)
	}
	return nil
}

// applyEnvOverrides reads FT_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *ServerConfig) {
	if v := os.Getenv("FT_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("FT_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("FT_SEARCH_PARALLELISM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.Parallelism = n
		}
	}
	if v := os.Getenv("FT_CACHE_BACKEND"); v != "" {
		cfg.Cache.Backend = v
	}
	if v := os.Getenv("FT_REDIS_ADDR"); v != "" {
		cfg.Cache.Addr = v
	}
	if v := os.Getenv("FT_REDIS_PASSWORD"); v != "" {
		cfg.Cache.Password = v
	}
	if v := os.Getenv("FT_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("FT_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
