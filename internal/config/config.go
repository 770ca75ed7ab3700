package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/databill86/dp-conceptual-search/internal/domain"
)

// Config holds the conceptual search service configuration.
type Config struct {
	HTTP          HTTPConfig          `yaml:"http"`
	Auth          AuthConfig          `yaml:"auth"`
	Elasticsearch ElasticsearchConfig `yaml:"elasticsearch"`
	Cache         CacheConfig         `yaml:"cache"`
	ML            MLConfig            `yaml:"ml"`
	Search        SearchConfig        `yaml:"search"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings. No keys disables auth.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// ElasticsearchConfig holds document store settings.
type ElasticsearchConfig struct {
	Addresses  []string `yaml:"addresses"`
	Username   string   `yaml:"username"`
	Password   string   `yaml:"password"`
	Index      string   `yaml:"index"`
	TimeoutSec int      `yaml:"timeout_sec"`
}

// Timeout returns the per-request store timeout.
func (c ElasticsearchConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// CacheConfig holds ML cache settings.
type CacheConfig struct {
	Enabled          bool     `yaml:"enabled"`
	Driver           string   `yaml:"driver"` // valkey (default)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	TTLSec           int      `yaml:"ttl_sec"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// TTL returns the cache entry lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSec) * time.Second
}

// MLConfig holds the ML provider settings.
type MLConfig struct {
	APIKey         string  `yaml:"api_key"`
	BaseURL        string  `yaml:"base_url"`
	EmbeddingModel string  `yaml:"embedding_model"`
	Dimensions     int     `yaml:"dimensions"`
	KeywordModel   string  `yaml:"keyword_model"`
	NumLabels      int     `yaml:"num_labels"`
	Threshold      float64 `yaml:"threshold"`
	TimeoutSec     int     `yaml:"timeout_sec"`
}

// Timeout returns the budget for the concurrent ML lookups of one request.
func (c MLConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// SearchConfig holds query construction and pagination settings.
type SearchConfig struct {
	MaxVisibleLinks int     `yaml:"max_visible_links"`
	ResultsPerPage  int     `yaml:"results_per_page"`
	MaxRequestSize  int     `yaml:"max_request_size"`
	HighlightTag    string  `yaml:"highlight_tag"`
	MinTokenSize    int     `yaml:"min_token_size"`
	BoostMode       string  `yaml:"boost_mode"`
	MinScore        float64 `yaml:"min_score"`
	LexicalFallback *bool   `yaml:"lexical_fallback"`
	RequireVector   bool    `yaml:"require_vector"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// An optional .env file in the working directory is loaded first; variables
// already set in the environment win.
func Load(env string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	configPath := findConfigPath(env)
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration, expanding ${VAR} and ${VAR:-default}
// references, then applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	if c.Elasticsearch.Index == "" {
		c.Elasticsearch.Index = "ons"
	}
	if c.Elasticsearch.TimeoutSec <= 0 {
		c.Elasticsearch.TimeoutSec = 10
	}

	if c.Cache.Driver == "" {
		c.Cache.Driver = "valkey"
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 86400
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}

	ml := domain.DefaultModelConfig()
	if c.ML.EmbeddingModel == "" {
		c.ML.EmbeddingModel = ml.EmbeddingModel
	}
	if c.ML.Dimensions <= 0 {
		c.ML.Dimensions = ml.Dimensions
	}
	if c.ML.KeywordModel == "" {
		c.ML.KeywordModel = ml.KeywordModel
	}
	if c.ML.NumLabels <= 0 {
		c.ML.NumLabels = ml.NumLabels
	}
	if c.ML.Threshold <= 0 {
		c.ML.Threshold = ml.Threshold
	}
	if c.ML.TimeoutSec <= 0 {
		c.ML.TimeoutSec = 5
	}

	if c.Search.MaxVisibleLinks <= 0 {
		c.Search.MaxVisibleLinks = 5
	}
	if c.Search.ResultsPerPage <= 0 {
		c.Search.ResultsPerPage = 10
	}
	if c.Search.MaxRequestSize <= 0 {
		c.Search.MaxRequestSize = 250
	}
	if c.Search.HighlightTag == "" {
		c.Search.HighlightTag = "strong"
	}
	if c.Search.MinTokenSize <= 0 {
		c.Search.MinTokenSize = 2
	}
	if c.Search.BoostMode == "" {
		c.Search.BoostMode = "avg"
	}
	if c.Search.LexicalFallback == nil {
		on := true
		c.Search.LexicalFallback = &on
	}
}

var boostModes = map[string]bool{
	"replace": true, "multiply": true, "sum": true, "avg": true, "max": true, "min": true,
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Elasticsearch.Addresses) == 0 {
		return fmt.Errorf("elasticsearch.addresses is required")
	}
	if c.Cache.Enabled {
		if c.Cache.Driver != "valkey" {
			return fmt.Errorf("cache.driver must be \"valkey\", got %q", c.Cache.Driver)
		}
		if len(c.Cache.Addrs) == 0 {
			return fmt.Errorf("cache.addrs is required when cache is enabled")
		}
	}
	if c.ML.Threshold < 0 || c.ML.Threshold > 1 {
		return fmt.Errorf("ml.threshold must be between 0 and 1, got %v", c.ML.Threshold)
	}
	if !boostModes[c.Search.BoostMode] {
		return fmt.Errorf("search.boost_mode %q is not a function_score boost mode", c.Search.BoostMode)
	}
	if c.Search.ResultsPerPage > c.Search.MaxRequestSize {
		return fmt.Errorf("search.results_per_page (%d) exceeds search.max_request_size (%d)",
			c.Search.ResultsPerPage, c.Search.MaxRequestSize)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// Relative to the source file, for tests and go run from subdirectories.
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b)))
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
