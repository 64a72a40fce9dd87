// Package config loads graphlens settings from defaults, an optional TOML
// file, a .env file and the process environment, in that order.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"graphlens/internal/graph"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
)

// Source names accepted by Config.Source.
const (
	SourceNeo4j  = "neo4j"
	SourceDuckDB = "duckdb"
)

// DefaultFile is read when no explicit config path is given and it exists.
const DefaultFile = "graphlens.toml"

// Config contains configurable parameters for graphlens.
// Use DefaultConfig() to get sensible defaults, then override as needed.
type Config struct {
	// Record source
	Source         string // "neo4j" or "duckdb" (default: neo4j)
	Neo4jURI       string // Bolt URI (default: neo4j://localhost:7687)
	Neo4jUser      string
	Neo4jPassword  string
	Neo4jDatabase  string
	DuckDBPath     string // Database file; empty means in-memory
	DuckDBThreads  int    // 0 keeps the DuckDB default
	DuckDBMemoryGB int    // 0 keeps the DuckDB default

	// Timing
	FetchTimeout   time.Duration // Upper bound on one fetch (default: 30s)
	SearchDebounce time.Duration // Quiet period before a query is applied (default: 300ms)

	// Normalization tables
	NodeSize     float64
	Palette      []string
	CaptionRules []graph.CaptionRule
	SizeRules    []graph.SizeRule

	// Search
	SearchProperty string // Identifying property matched by text search (default: id)

	// Logging
	Debug   bool
	LogFile string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Source:        SourceNeo4j,
		Neo4jURI:      "neo4j://localhost:7687",
		Neo4jUser:     "neo4j",
		Neo4jDatabase: "neo4j",

		FetchTimeout:   30 * time.Second,
		SearchDebounce: 300 * time.Millisecond,

		NodeSize:     graph.DefaultNodeSize,
		Palette:      append([]string(nil), graph.DefaultPalette...),
		CaptionRules: append([]graph.CaptionRule(nil), graph.DefaultCaptionRules...),
		SizeRules:    append([]graph.SizeRule(nil), graph.DefaultSizeRules...),

		SearchProperty: "id",
	}
}

// WithSource returns a copy of the config reading from source.
func (c Config) WithSource(source string) Config {
	c.Source = source
	return c
}

// WithDuckDBPath returns a copy of the config with a modified database path.
func (c Config) WithDuckDBPath(path string) Config {
	c.DuckDBPath = path
	return c
}

// WithFetchTimeout returns a copy of the config with a modified fetch timeout.
func (c Config) WithFetchTimeout(d time.Duration) Config {
	c.FetchTimeout = d
	return c
}

// WithSearchDebounce returns a copy of the config with a modified debounce.
func (c Config) WithSearchDebounce(d time.Duration) Config {
	c.SearchDebounce = d
	return c
}

// WithDebug returns a copy of the config with debug logging enabled/disabled.
func (c Config) WithDebug(enabled bool) Config {
	c.Debug = enabled
	return c
}

// NormalizerOptions translates the normalization tables.
func (c Config) NormalizerOptions() []graph.Option {
	return []graph.Option{
		graph.WithPalette(c.Palette),
		graph.WithCaptionRules(c.CaptionRules),
		graph.WithSizeRules(c.SizeRules),
		graph.WithNodeSize(c.NodeSize),
	}
}

// Validate checks if the configuration is valid and returns an error if not.
func (c Config) Validate() error {
	switch c.Source {
	case SourceNeo4j:
		if c.Neo4jURI == "" {
			return &ConfigError{Field: "Neo4jURI", Message: "must not be empty"}
		}
	case SourceDuckDB:
		if c.DuckDBThreads < 0 || c.DuckDBMemoryGB < 0 {
			return &ConfigError{Field: "DuckDB", Message: "threads and memory limit must not be negative"}
		}
	default:
		return &ConfigError{Field: "Source", Message: "must be neo4j or duckdb"}
	}
	if c.FetchTimeout <= 0 {
		return &ConfigError{Field: "FetchTimeout", Message: "must be positive"}
	}
	if c.SearchDebounce < 0 {
		return &ConfigError{Field: "SearchDebounce", Message: "must not be negative"}
	}
	if c.NodeSize <= 0 {
		return &ConfigError{Field: "NodeSize", Message: "must be positive"}
	}
	if len(c.Palette) == 0 {
		return &ConfigError{Field: "Palette", Message: "must not be empty"}
	}
	for _, color := range c.Palette {
		if !strings.HasPrefix(color, "#") {
			return &ConfigError{Field: "Palette", Message: "colors must be #RRGGBB, got " + color}
		}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error: " + e.Field + " " + e.Message
}

type fileConfig struct {
	Source   string `toml:"source"`
	Neo4j    struct {
		URI      string `toml:"uri"`
		User     string `toml:"user"`
		Password string `toml:"password"`
		Database string `toml:"database"`
	} `toml:"neo4j"`
	DuckDB struct {
		Path          string `toml:"path"`
		Threads       int    `toml:"threads"`
		MemoryLimitGB int    `toml:"memory_limit_gb"`
	} `toml:"duckdb"`
	FetchTimeoutSec  int                 `toml:"fetch_timeout_sec"`
	SearchDebounceMs *int                `toml:"search_debounce_ms"`
	NodeSize         float64             `toml:"node_size"`
	Palette          []string            `toml:"palette"`
	SearchProperty   string              `toml:"search_property"`
	Captions         []graph.CaptionRule `toml:"caption"`
	Sizes            []graph.SizeRule    `toml:"size"`
	Debug            bool                `toml:"debug"`
	LogFile          string              `toml:"log_file"`
}

// Load builds the configuration. path names a TOML file; when empty,
// DefaultFile is used if present. A .env file in the working directory is
// loaded into the environment without overriding existing variables.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, errors.Wrap(err, "load .env")
	}
	return load(path, os.Getenv)
}

func load(path string, getenv func(string) string) (Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := cfg.applyFile(data); err != nil {
			return Config{}, errors.Wrapf(err, "parse %s", path)
		}
	case explicit || !errors.Is(err, os.ErrNotExist):
		return Config{}, errors.Wrapf(err, "read %s", path)
	}

	if err := cfg.applyEnv(getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyFile(data []byte) error {
	var f fileConfig
	if err := toml.Unmarshal(data, &f); err != nil {
		return err
	}
	setString(&c.Source, f.Source)
	setString(&c.Neo4jURI, f.Neo4j.URI)
	setString(&c.Neo4jUser, f.Neo4j.User)
	setString(&c.Neo4jPassword, f.Neo4j.Password)
	setString(&c.Neo4jDatabase, f.Neo4j.Database)
	setString(&c.DuckDBPath, f.DuckDB.Path)
	if f.DuckDB.Threads > 0 {
		c.DuckDBThreads = f.DuckDB.Threads
	}
	if f.DuckDB.MemoryLimitGB > 0 {
		c.DuckDBMemoryGB = f.DuckDB.MemoryLimitGB
	}
	setString(&c.SearchProperty, f.SearchProperty)
	setString(&c.LogFile, f.LogFile)
	if f.FetchTimeoutSec > 0 {
		c.FetchTimeout = time.Duration(f.FetchTimeoutSec) * time.Second
	}
	if f.SearchDebounceMs != nil {
		c.SearchDebounce = time.Duration(*f.SearchDebounceMs) * time.Millisecond
	}
	if f.NodeSize > 0 {
		c.NodeSize = f.NodeSize
	}
	if len(f.Palette) > 0 {
		c.Palette = f.Palette
	}
	if len(f.Captions) > 0 {
		c.CaptionRules = f.Captions
	}
	if len(f.Sizes) > 0 {
		c.SizeRules = f.Sizes
	}
	c.Debug = c.Debug || f.Debug
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	setString(&c.Neo4jURI, getenv("NEO4J_URI"))
	setString(&c.Neo4jUser, getenv("NEO4J_USER"))
	setString(&c.Neo4jPassword, getenv("NEO4J_PASSWORD"))
	setString(&c.Neo4jDatabase, getenv("NEO4J_DATABASE"))
	setString(&c.Source, strings.ToLower(getenv("GRAPHLENS_SOURCE")))
	setString(&c.DuckDBPath, getenv("DUCKDB_PATH"))
	setString(&c.LogFile, getenv("GRAPHLENS_LOG_FILE"))

	if v := getenv("GRAPHLENS_DEBUG"); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return &ConfigError{Field: "GRAPHLENS_DEBUG", Message: "must be a boolean"}
		}
		c.Debug = debug
	}
	if v := getenv("GRAPHLENS_SEARCH_DEBOUNCE_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return &ConfigError{Field: "GRAPHLENS_SEARCH_DEBOUNCE_MS", Message: "must be an integer"}
		}
		c.SearchDebounce = time.Duration(ms) * time.Millisecond
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
