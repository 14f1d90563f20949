package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfo(t *testing.T) {
	info := Info()

	assert.NotEmpty(t, info.Version)
	assert.NotEmpty(t, info.GoVersion)
	assert.Contains(t, info.String(), "colframe ")
	assert.Contains(t, info.String(), "go:")
	assert.False(t, info.Release, "test binaries are built as dev")
}

func TestBuildInfoString(t *testing.T) {
	info := BuildInfo{
		Version:   "v1.0.0",
		BuildDate: "2024-01-01T00:00:00Z",
		GitCommit: "abc123def456",
		GoVersion: "go1.24.4",
		Arrow:     "v18.3.1",
	}

	assert.Equal(t,
		"colframe v1.0.0\ncommit:  abc123d\nbuilt:   2024-01-01T00:00:00Z\ngo:      go1.24.4\narrow:   v18.3.1\n",
		info.String())
}

func TestBuildInfoStringSparse(t *testing.T) {
	info := BuildInfo{
		Version:   "dev",
		BuildDate: unknownValue,
		GitCommit: unknownValue,
		GoVersion: "go1.24.4",
		Dirty:     true,
	}

	assert.Equal(t, "colframe dev (dirty)\ngo:      go1.24.4\n", info.String())
}

func TestUserAgent(t *testing.T) {
	originalVersion := Version
	defer func() { Version = originalVersion }()

	Version = "v1.0.0"
	assert.Equal(t, "colframe/v1.0.0", UserAgent())
}

func TestIsRelease(t *testing.T) {
	originalVersion := Version
	defer func() { Version = originalVersion }()

	tests := []struct {
		version  string
		expected bool
	}{
		{"v1.0.0", true},
		{"1.0.0", true},
		{"dev", false},
		{"v1.0.0-rc.1", false},
		{"v1.0.0-dirty", false},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			Version = tt.version
			assert.Equal(t, tt.expected, IsRelease())
			assert.Equal(t, tt.expected, Info().Release)
		})
	}
}
