package config

import (
	"fmt"
	"log/slog"

	"github.com/dot5enko/coltoolbox/compression"
	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

const (
	SlabBackend  = "slab"
	ArrowBackend = "arrow"
)

// Config can come from a YAML file, environment variables override it.
type Config struct {
	Store  StoreConfig  `yaml:"store"`
	Fetch  FetchConfig  `yaml:"fetch"`
	Log    LogConfig    `yaml:"log"`
	Import ImportConfig `yaml:"import"`
}

type StoreConfig struct {
	// Backend is slab or arrow.
	Backend string `yaml:"backend" env:"COLTOOLBOX_STORE_BACKEND" env-default:"slab"`

	// Codec compresses slab payloads written by import: none, lz4 or zstd.
	Codec string `yaml:"codec" env:"COLTOOLBOX_STORE_CODEC" env-default:"lz4"`

	// CacheBytes bounds decoded slab columns kept in memory per dataset, 0
	// keeps everything.
	CacheBytes int64 `yaml:"cache_bytes" env:"COLTOOLBOX_STORE_CACHE_BYTES" env-default:"0"`
}

type FetchConfig struct {
	StopOnError bool     `yaml:"stop_on_error" env:"COLTOOLBOX_STOP_ON_ERROR" env-default:"false"`
	Tables      []string `yaml:"tables" env:"COLTOOLBOX_TABLES" env-separator:","`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"COLTOOLBOX_LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"COLTOOLBOX_LOG_FORMAT" env-default:"text"`
}

type ImportConfig struct {
	Table     string `yaml:"table" env:"COLTOOLBOX_IMPORT_TABLE" env-default:"events"`
	ChunkRows int    `yaml:"chunk_rows" env:"COLTOOLBOX_IMPORT_CHUNK_ROWS" env-default:"100"`
}

// Load reads path with environment overrides, or the environment alone when
// path is empty.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path == "" {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {

	switch c.Store.Backend {
	case SlabBackend, ArrowBackend:
	default:
		return fmt.Errorf("unknown store backend `%s`", c.Store.Backend)
	}

	if _, err := compression.ParseCodec(c.Store.Codec); err != nil {
		return err
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format `%s`", c.Log.Format)
	}

	if c.Store.CacheBytes < 0 {
		return fmt.Errorf("store cache_bytes must not be negative, got %d", c.Store.CacheBytes)
	}

	if c.Import.ChunkRows <= 0 {
		return fmt.Errorf("import chunk_rows must be positive, got %d", c.Import.ChunkRows)
	}

	return nil
}

func (c *Config) Codec() compression.Codec {
	codec, _ := compression.ParseCodec(c.Store.Codec)
	return codec
}

func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return level, fmt.Errorf("unknown log level `%s`", l.Level)
	}
	return level, nil
}

// YAML renders the effective configuration.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
