package config_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paveg/colframe/internal/config"
)

func TestConfig_DefaultValues(t *testing.T) {
	config := config.NewConfig()

	assert.Equal(t, "last", config.NullPlacement)
	assert.Equal(t, "error", config.CastOverflow)
	assert.False(t, config.AllowTimeTruncate)
	assert.Equal(t, 0, config.BuilderInitialCapacity)
	assert.Equal(t, runtime.NumCPU(), config.MaxParallelism)
	assert.Equal(t, "go", config.Allocator)
	assert.Equal(t, "none", config.IPCCompression)
	assert.Equal(t, "snappy", config.ParquetCompression)
	assert.Equal(t, "", config.CSVNullToken)
	assert.Equal(t, "info", config.LogLevel)
	assert.Equal(t, "logfmt", config.LogFormat)
	assert.NoError(t, config.Validate())
}

func TestConfig_Validation(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(*config.Config)
		expectedError string
	}{
		{
			name:   "valid config",
			mutate: func(c *config.Config) { c.NullPlacement = "first" },
		},
		{
			name:          "unknown null placement",
			mutate:        func(c *config.Config) { c.NullPlacement = "middle" },
			expectedError: `NullPlacement must be one of first|last, got "middle"`,
		},
		{
			name:          "unknown overflow policy",
			mutate:        func(c *config.Config) { c.CastOverflow = "wrap" },
			expectedError: `CastOverflow must be one of error|truncate|saturate, got "wrap"`,
		},
		{
			name:          "negative builder capacity",
			mutate:        func(c *config.Config) { c.BuilderInitialCapacity = -1 },
			expectedError: "BuilderInitialCapacity must be non-negative, got -1",
		},
		{
			name:          "zero parallelism",
			mutate:        func(c *config.Config) { c.MaxParallelism = 0 },
			expectedError: "MaxParallelism must be positive, got 0",
		},
		{
			name:          "unknown parquet codec",
			mutate:        func(c *config.Config) { c.ParquetCompression = "brotli" },
			expectedError: `ParquetCompression must be one of none|snappy|gzip|lz4|zstd, got "brotli"`,
		},
		{
			name:          "unknown log format",
			mutate:        func(c *config.Config) { c.LogFormat = "xml" },
			expectedError: `LogFormat must be one of logfmt|json, got "xml"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.NewConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.expectedError == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tt.expectedError)
			}
		})
	}
}

func TestConfig_LoadFromJSON(t *testing.T) {
	jsonData := `{
		"null_placement": "first",
		"cast_overflow": "saturate",
		"builder_initial_capacity": 1024,
		"ipc_compression": "zstd"
	}`

	cfg, err := config.LoadFromJSON([]byte(jsonData))
	require.NoError(t, err)

	assert.Equal(t, "first", cfg.NullPlacement)
	assert.Equal(t, "saturate", cfg.CastOverflow)
	assert.Equal(t, 1024, cfg.BuilderInitialCapacity)
	assert.Equal(t, "zstd", cfg.IPCCompression)
	// Unset fields get defaults
	assert.Equal(t, "snappy", cfg.ParquetCompression)
	assert.Equal(t, "info", cfg.LogLevel)

	_, err = config.LoadFromJSON([]byte("{"))
	assert.Error(t, err)
}

func TestConfig_LoadFromFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "colframe.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("cast_overflow: truncate\nallow_time_truncate: true\nlog_format: json\n"), 0o600))
	cfg, err := config.LoadFromFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "truncate", cfg.CastOverflow)
	assert.True(t, cfg.AllowTimeTruncate)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "last", cfg.NullPlacement)

	want := config.NewConfig()
	want.CSVNullToken = "NA"
	data, err := json.Marshal(want)
	require.NoError(t, err)
	jsonPath := filepath.Join(dir, "colframe.json")
	require.NoError(t, os.WriteFile(jsonPath, data, 0o600))
	cfg, err = config.LoadFromFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, want, cfg)

	_, err = config.LoadFromFile(filepath.Join(dir, "colframe.toml"))
	assert.Error(t, err)

	tomlPath := filepath.Join(dir, "present.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte("x = 1"), 0o600))
	_, err = config.LoadFromFile(tomlPath)
	assert.EqualError(t, err, "unsupported config file format: .toml")
}

func TestConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("COLFRAME_NULL_PLACEMENT", "FIRST")
	t.Setenv("COLFRAME_MAX_PARALLELISM", "3")
	t.Setenv("COLFRAME_ALLOW_TIME_TRUNCATE", "true")
	t.Setenv("COLFRAME_CSV_NULL_TOKEN", "NULL")
	t.Setenv("COLFRAME_BUILDER_INITIAL_CAPACITY", "not-a-number")

	cfg := config.LoadFromEnv()
	assert.Equal(t, "first", cfg.NullPlacement)
	assert.Equal(t, 3, cfg.MaxParallelism)
	assert.True(t, cfg.AllowTimeTruncate)
	assert.Equal(t, "NULL", cfg.CSVNullToken)
	assert.Equal(t, 0, cfg.BuilderInitialCapacity)
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := config.Config{CastOverflow: "truncate"}.WithDefaults()
	assert.Equal(t, "truncate", cfg.CastOverflow)
	assert.Equal(t, "last", cfg.NullPlacement)
	assert.Equal(t, "go", cfg.Allocator)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_GlobalConfig(t *testing.T) {
	original := config.GetGlobalConfig()
	defer config.SetGlobalConfig(original)

	cfg := config.NewConfig()
	cfg.LogLevel = "debug"
	config.SetGlobalConfig(cfg)
	assert.Equal(t, "debug", config.GetGlobalConfig().LogLevel)
}

func TestConfig_Warnings(t *testing.T) {
	assert.Empty(t, config.NewConfig().Warnings())

	cfg := config.NewConfig()
	cfg.CastOverflow = "saturate"
	cfg.MaxParallelism = runtime.NumCPU()*2 + 1
	assert.Len(t, cfg.Warnings(), 2)
}
