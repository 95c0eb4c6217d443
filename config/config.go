package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"
)

const (
	BackendElastic  = "elastic"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

var (
	errConfigFileRead = errors.New("cannot read config file")
	errConfigInvalid  = errors.New("invalid config")
)

type Config struct {
	HTTP  HTTP  `json:"http" yaml:"http"`
	Store Store `json:"store" yaml:"store"`
	Redis Redis `json:"redis" yaml:"redis"`
	Log   Log   `json:"log" yaml:"log"`
}

type HTTP struct {
	Addr string `json:"addr" yaml:"addr"`
}

type Store struct {
	Backend      string `json:"backend" yaml:"backend"`
	ElasticURL   string `json:"elastic_url" yaml:"elastic_url"`
	Index        string `json:"index" yaml:"index"`
	SQLDSN       string `json:"sql_dsn" yaml:"sql_dsn"`
	SnapshotPath string `json:"snapshot_path" yaml:"snapshot_path"`
}

// Redis configures the activity journal. With Enabled false the journal
// lives in process memory.
type Redis struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	Addr       string `json:"addr" yaml:"addr"`
	MaxEntries int    `json:"max_entries" yaml:"max_entries"`
}

type Log struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

func Default() Config {
	return Config{
		HTTP: HTTP{Addr: ":3000"},
		Store: Store{
			Backend:    BackendElastic,
			ElasticURL: "http://localhost:9200",
			Index:      "books",
			SQLDSN:     "books.db",
		},
		Redis: Redis{
			Addr:       "localhost:6379",
			MaxEntries: 3,
		},
		Log: Log{Level: "info", Format: "json"},
	}
}

// Load returns the defaults overlaid with the config file at path (when
// path is not empty) and then with the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		fileCfg, err := loadConfigFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg = mergeConfig(cfg, fileCfg)
	}

	cfg = mergeConfig(cfg, fromEnv(os.LookupEnv))

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%w: %w", errConfigInvalid, err)
	}

	return cfg, nil
}

func (cfg Config) Validate() error {
	switch cfg.Store.Backend {
	case BackendElastic:
		if cfg.Store.ElasticURL == "" {
			return errors.New("store.elastic_url is required for the elastic backend")
		}
	case BackendSQLite, BackendPostgres:
		if cfg.Store.SQLDSN == "" {
			return fmt.Errorf("store.sql_dsn is required for the %s backend", cfg.Store.Backend)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	if cfg.Redis.MaxEntries < 1 {
		return errors.New("redis.max_entries must be at least 1")
	}

	if cfg.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}

	return nil
}

func loadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the operator
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s: %w", errConfigFileRead, path, err)
	}

	cfg, err := parseConfig(data, filepath.Ext(path))
	if err != nil {
		return Config{}, fmt.Errorf("%w %s: %w", errConfigInvalid, path, err)
	}

	return cfg, nil
}

func parseConfig(data []byte, ext string) (Config, error) {
	var cfg Config

	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("invalid YAML: %w", err)
		}
	default:
		// Standardize JSONC to JSON
		standardized, err := hujson.Standardize(data)
		if err != nil {
			return Config{}, fmt.Errorf("invalid JSONC: %w", err)
		}
		if err := json.Unmarshal(standardized, &cfg); err != nil {
			return Config{}, fmt.Errorf("invalid JSON: %w", err)
		}
	}

	return cfg, nil
}

func fromEnv(lookup func(string) (string, bool)) Config {
	var cfg Config

	if v, ok := lookup("BOOKS_ADDR"); ok {
		cfg.HTTP.Addr = v
	}
	if v, ok := lookup("BOOKS_STORE"); ok {
		cfg.Store.Backend = v
	}
	if v, ok := lookup("ELASTIC_URL"); ok {
		cfg.Store.ElasticURL = v
	}
	if v, ok := lookup("BOOKS_SQL_DSN"); ok {
		cfg.Store.SQLDSN = v
	}
	if v, ok := lookup("REDIS_URL"); ok && v != "" {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = true
	}
	if v, ok := lookup("BOOKS_ACTIVITY_MAX"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Redis.MaxEntries = n
		}
	}
	if v, ok := lookup("BOOKS_LOG_LEVEL"); ok {
		cfg.Log.Level = v
	}

	return cfg
}

// mergeConfig copies every non-zero field of overlay onto base.
func mergeConfig(base, overlay Config) Config {
	if overlay.HTTP.Addr != "" {
		base.HTTP.Addr = overlay.HTTP.Addr
	}

	if overlay.Store.Backend != "" {
		base.Store.Backend = overlay.Store.Backend
	}
	if overlay.Store.ElasticURL != "" {
		base.Store.ElasticURL = overlay.Store.ElasticURL
	}
	if overlay.Store.Index != "" {
		base.Store.Index = overlay.Store.Index
	}
	if overlay.Store.SQLDSN != "" {
		base.Store.SQLDSN = overlay.Store.SQLDSN
	}
	if overlay.Store.SnapshotPath != "" {
		base.Store.SnapshotPath = overlay.Store.SnapshotPath
	}

	if overlay.Redis.Enabled {
		base.Redis.Enabled = true
	}
	if overlay.Redis.Addr != "" {
		base.Redis.Addr = overlay.Redis.Addr
	}
	if overlay.Redis.MaxEntries != 0 {
		base.Redis.MaxEntries = overlay.Redis.MaxEntries
	}

	if overlay.Log.Level != "" {
		base.Log.Level = overlay.Log.Level
	}
	if overlay.Log.Format != "" {
		base.Log.Format = overlay.Log.Format
	}

	return base
}
