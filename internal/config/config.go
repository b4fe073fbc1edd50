// Package config loads the searchcore YAML configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config holds the searchcore configuration.
type Config struct {
	EntityStore EntityStoreConfig `yaml:"entity_store"`
	Index       IndexConfig       `yaml:"index"`
	Crawlers    []string          `yaml:"crawlers"`
	JSONFile    JSONFileConfig    `yaml:"json_file"`
	Properties  map[string]string `yaml:"properties"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// EntityStoreConfig holds entity store settings.
type EntityStoreConfig struct {
	Path      string `yaml:"path"`
	CacheSize int    `yaml:"cache_size"`
}

// IndexConfig holds term index settings.
type IndexConfig struct {
	Path        string `yaml:"path"`
	Parallelism int    `yaml:"parallelism"` // concurrent crawlers while indexing
}

// JSONFileConfig holds the json_file crawler's default source.
type JSONFileConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
}

// Default returns a configuration with every default applied.
func Default() Config {
	var cfg Config
	cfg.ApplyDefaults()
	return cfg
}

// Load reads configuration from path. A missing file yields the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	// Substitute env variables of the form ${VAR}
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

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.EntityStore.Path == "" {
		c.EntityStore.Path = filepath.Join("data", "entities.db")
	}
	if c.EntityStore.CacheSize <= 0 {
		c.EntityStore.CacheSize = 1024
	}
	if c.Index.Path == "" {
		c.Index.Path = filepath.Join("data", "index.sct")
	}
	if c.Index.Parallelism <= 0 {
		c.Index.Parallelism = 4
	}
	if len(c.Crawlers) == 0 {
		c.Crawlers = []string{"entity_store"}
	}
	if c.Properties == nil {
		c.Properties = map[string]string{}
	}
	if _, ok := c.Properties["query_evaluator_type"]; !ok {
		c.Properties["query_evaluator_type"] = "postings"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	for i, tag := range c.Crawlers {
		if strings.TrimSpace(tag) == "" {
			return fmt.Errorf("crawlers[%d] must not be empty", i)
		}
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return fmt.Errorf("logging.level %q is invalid: %w", c.Logging.Level, err)
	}
	switch c.Logging.Format {
	case "console", "json":
		// ok
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
	return nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

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
