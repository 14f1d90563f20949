// Package config provides configuration management for colframe operations
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Config represents the global configuration for colframe operations
type Config struct {
	// Array Semantics Configuration
	NullPlacement     string `json:"null_placement" yaml:"null_placement"`           // "last" (default) or "first"
	CastOverflow      string `json:"cast_overflow" yaml:"cast_overflow"`             // "error" (default), "truncate" or "saturate"
	AllowTimeTruncate bool   `json:"allow_time_truncate" yaml:"allow_time_truncate"` // Allow lossy timestamp coarsening

	// Builder and Parallel Processing Configuration
	BuilderInitialCapacity int `json:"builder_initial_capacity" yaml:"builder_initial_capacity"` // Entries reserved by new builders
	MaxParallelism         int `json:"max_parallelism" yaml:"max_parallelism"`                   // Maximum concurrent column operations (0 = CPU count)

	// Memory Management Configuration
	Allocator string `json:"allocator" yaml:"allocator"` // "go" (default) or "checked"

	// Serializer Configuration
	IPCCompression     string `json:"ipc_compression" yaml:"ipc_compression"`         // "none", "lz4" or "zstd"
	ParquetCompression string `json:"parquet_compression" yaml:"parquet_compression"` // "none", "snappy", "gzip", "lz4" or "zstd"
	CSVNullToken       string `json:"csv_null_token" yaml:"csv_null_token"`           // Text written and read as null

	// Logging Configuration
	LogLevel  string `json:"log_level" yaml:"log_level"`   // "debug", "info", "warn" or "error"
	LogFormat string `json:"log_format" yaml:"log_format"` // "logfmt" or "json"
}

// Global configuration instance
var (
	globalConfig Config
	configMutex  sync.RWMutex
)

// Default configuration values
const (
	DefaultNullPlacement          = "last"
	DefaultCastOverflow           = "error"
	DefaultBuilderInitialCapacity = 0
	DefaultAllocator              = "go"
	DefaultIPCCompression         = "none"
	DefaultParquetCompression     = "snappy"
	DefaultLogLevel               = "info"
	DefaultLogFormat              = "logfmt"

	envPrefix = "COLFRAME_"
)

var (
	nullPlacements      = []string{"first", "last"}
	overflowPolicies    = []string{"error", "truncate", "saturate"}
	allocators          = []string{"go", "checked"}
	ipcCompressions     = []string{"none", "lz4", "zstd"}
	parquetCompressions = []string{"none", "snappy", "gzip", "lz4", "zstd"}
	logLevels           = []string{"debug", "info", "warn", "error"}
	logFormats          = []string{"logfmt", "json"}
)

// Initialize global configuration with defaults
func init() {
	globalConfig = NewConfig()
}

// NewConfig creates a new configuration with default values
func NewConfig() Config {
	return Config{
		NullPlacement:          DefaultNullPlacement,
		CastOverflow:           DefaultCastOverflow,
		AllowTimeTruncate:      false,
		BuilderInitialCapacity: DefaultBuilderInitialCapacity,
		MaxParallelism:         runtime.NumCPU(),
		Allocator:              DefaultAllocator,
		IPCCompression:         DefaultIPCCompression,
		ParquetCompression:     DefaultParquetCompression,
		CSVNullToken:           "",
		LogLevel:               DefaultLogLevel,
		LogFormat:              DefaultLogFormat,
	}
}

func oneOf(field, value string, allowed []string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of %s, got %q", field, strings.Join(allowed, "|"), value)
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	if err := oneOf("NullPlacement", c.NullPlacement, nullPlacements); err != nil {
		return err
	}
	if err := oneOf("CastOverflow", c.CastOverflow, overflowPolicies); err != nil {
		return err
	}
	if c.BuilderInitialCapacity < 0 {
		return fmt.Errorf("BuilderInitialCapacity must be non-negative, got %d", c.BuilderInitialCapacity)
	}
	if c.MaxParallelism <= 0 {
		return fmt.Errorf("MaxParallelism must be positive, got %d", c.MaxParallelism)
	}
	if err := oneOf("Allocator", c.Allocator, allocators); err != nil {
		return err
	}
	if err := oneOf("IPCCompression", c.IPCCompression, ipcCompressions); err != nil {
		return err
	}
	if err := oneOf("ParquetCompression", c.ParquetCompression, parquetCompressions); err != nil {
		return err
	}
	if err := oneOf("LogLevel", c.LogLevel, logLevels); err != nil {
		return err
	}
	return oneOf("LogFormat", c.LogFormat, logFormats)
}

// WithDefaults returns a new configuration with default values filled in for zero values
func (c Config) WithDefaults() Config {
	defaults := NewConfig()

	if c.NullPlacement == "" {
		c.NullPlacement = defaults.NullPlacement
	}
	if c.CastOverflow == "" {
		c.CastOverflow = defaults.CastOverflow
	}
	if c.MaxParallelism == 0 {
		c.MaxParallelism = defaults.MaxParallelism
	}
	if c.Allocator == "" {
		c.Allocator = defaults.Allocator
	}
	if c.IPCCompression == "" {
		c.IPCCompression = defaults.IPCCompression
	}
	if c.ParquetCompression == "" {
		c.ParquetCompression = defaults.ParquetCompression
	}
	if c.LogLevel == "" {
		c.LogLevel = defaults.LogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = defaults.LogFormat
	}

	// Note: AllowTimeTruncate and CSVNullToken keep their zero values, which are
	// also their defaults.

	return c
}

// SetGlobalConfig sets the global configuration
func SetGlobalConfig(config Config) {
	configMutex.Lock()
	defer configMutex.Unlock()
	globalConfig = config
}

// GetGlobalConfig returns the current global configuration
func GetGlobalConfig() Config {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return globalConfig
}

// LoadFromJSON loads configuration from JSON data
func LoadFromJSON(data []byte) (Config, error) {
	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parsing JSON configuration: %w", err)
	}
	return config.WithDefaults(), nil
}

// LoadFromFile loads configuration from a JSON or YAML file
func LoadFromFile(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file %s: %w", filename, err)
	}

	var config Config
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".json":
		err = json.Unmarshal(data, &config)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &config)
	default:
		return Config{}, fmt.Errorf("unsupported config file format: %s", ext)
	}

	if err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", filename, err)
	}

	return config.WithDefaults(), nil
}

// LoadFromEnv loads configuration from COLFRAME_* environment variables
func LoadFromEnv() Config {
	config := NewConfig()

	strVars := map[string]*string{
		"NULL_PLACEMENT":      &config.NullPlacement,
		"CAST_OVERFLOW":       &config.CastOverflow,
		"ALLOCATOR":           &config.Allocator,
		"IPC_COMPRESSION":     &config.IPCCompression,
		"PARQUET_COMPRESSION": &config.ParquetCompression,
		"LOG_LEVEL":           &config.LogLevel,
		"LOG_FORMAT":          &config.LogFormat,
	}
	for name, dst := range strVars {
		if val, ok := os.LookupEnv(envPrefix + name); ok {
			*dst = strings.ToLower(val)
		}
	}
	if val, ok := os.LookupEnv(envPrefix + "CSV_NULL_TOKEN"); ok {
		config.CSVNullToken = val
	}

	if val := os.Getenv(envPrefix + "BUILDER_INITIAL_CAPACITY"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.BuilderInitialCapacity = parsed
		}
	}

	if val := os.Getenv(envPrefix + "MAX_PARALLELISM"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.MaxParallelism = parsed
		}
	}

	if val := os.Getenv(envPrefix + "ALLOW_TIME_TRUNCATE"); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			config.AllowTimeTruncate = parsed
		}
	}

	return config
}

// Warnings returns advisory messages for settings that are valid but
// probably unintended.
func (c Config) Warnings() []string {
	var warnings []string
	if cpus := runtime.NumCPU(); c.MaxParallelism > cpus*2 {
		warnings = append(warnings,
			fmt.Sprintf("MaxParallelism (%d) exceeds 2x CPU count (%d), may cause contention",
				c.MaxParallelism, cpus))
	}
	if c.Allocator == "checked" {
		warnings = append(warnings, "checked allocator tracks every allocation and is meant for debugging")
	}
	if c.CastOverflow != DefaultCastOverflow {
		warnings = append(warnings,
			fmt.Sprintf("cast overflow policy %q silently changes out-of-range values", c.CastOverflow))
	}
	return warnings
}
