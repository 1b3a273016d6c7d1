package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/kmlfilter/internal/domain/placemark"
)

// Export store drivers.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// Config holds the kmlfilter service configuration.
type Config struct {
	HTTP       HTTPConfig     `yaml:"http"`
	Source     SourceConfig   `yaml:"source"`
	Attributes placemark.Keys `yaml:"attributes"`
	Export     ExportConfig   `yaml:"export"`
	Database   DatabaseConfig `yaml:"database"`
	Logging    LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// SourceConfig points at the KML document served by the instance.
type SourceConfig struct {
	Path string `yaml:"path"`
	// ExportName is the <name> of exported documents.
	ExportName string `yaml:"export_name"`
}

// ExportConfig controls stored exports.
type ExportConfig struct {
	Driver     string `yaml:"driver"` // memory, redis (default: memory)
	TTLSec     int    `yaml:"ttl_sec"`
	MaxStored  int    `yaml:"max_stored"` // memory driver only; 0 = unbounded
	MaxBodyKiB int    `yaml:"max_body_kib"`
}

// TTL returns the stored export lifetime.
func (e ExportConfig) TTL() time.Duration { return time.Duration(e.TTLSec) * time.Second }

// DatabaseConfig holds Redis/Valkey connection settings for the redis driver.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	Standalone       bool     `yaml:"standalone"`
	DialTimeoutSec   int      `yaml:"dial_timeout_sec"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// CONFIG_PATH overrides the lookup.
func Load(env string) (Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = findConfigPath(env)
	}
	return LoadFile(path)
}

// LoadFile reads, expands, defaults and validates the configuration at path.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
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
	c.Attributes = c.Attributes.WithDefaults()
	if c.Export.Driver == "" {
		c.Export.Driver = DriverMemory
	}
	if c.Export.TTLSec <= 0 {
		c.Export.TTLSec = 900
	}
	if c.Export.MaxBodyKiB <= 0 {
		c.Export.MaxBodyKiB = 64
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Source.Path == "" {
		return errors.New("source.path is required")
	}
	if err := c.Attributes.Validate(); err != nil {
		return fmt.Errorf("attributes: %w", err)
	}
	switch c.Export.Driver {
	case DriverMemory:
	case DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return errors.New("database.addrs is required for the redis export driver")
		}
	default:
		return fmt.Errorf("export.driver must be %q or %q, got %q", DriverMemory, DriverRedis, c.Export.Driver)
	}
	if c.Export.MaxStored < 0 {
		return fmt.Errorf("export.max_stored must not be negative, got %d", c.Export.MaxStored)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
