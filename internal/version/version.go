// Package version reports the colframe build.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

const (
	unknownValue     = "unknown"
	commitHashLength = 7
)

// Set by ldflags:
//
//	-X github.com/paveg/colframe/internal/version.Version=v0.3.0
var (
	Version   = "dev"
	BuildDate = unknownValue
	GitCommit = unknownValue
	GoVersion = runtime.Version()
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version   string   `json:"version"`
	BuildDate string   `json:"build_date"`
	GitCommit string   `json:"git_commit"`
	GoVersion string   `json:"go_version"`
	Dirty     bool     `json:"dirty"`
	Release   bool     `json:"release"`
	Module    string   `json:"module,omitempty"`
	Arrow     string   `json:"arrow,omitempty"`
	Deps      []Module `json:"deps,omitempty"`
}

// Module is one dependency of the build.
type Module struct {
	Path    string `json:"path"`
	Version string `json:"version"`
}

const arrowModule = "github.com/apache/arrow-go/v18"

// Info collects the ldflags values and, when available, the module data
// embedded by the Go toolchain. A commit recorded by VCS stamping is used
// when GitCommit was not set.
func Info() BuildInfo {
	info := BuildInfo{
		Version:   Version,
		BuildDate: BuildDate,
		GitCommit: GitCommit,
		GoVersion: GoVersion,
		Dirty:     strings.HasSuffix(GitCommit, "-dirty"),
		Release:   IsRelease(),
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.Module = bi.Main.Path
	for _, dep := range bi.Deps {
		info.Deps = append(info.Deps, Module{Path: dep.Path, Version: dep.Version})
		if dep.Path == arrowModule {
			info.Arrow = dep.Version
		}
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == unknownValue {
				info.GitCommit = s.Value
			}
		case "vcs.modified":
			info.Dirty = info.Dirty || s.Value == "true"
		case "vcs.time":
			if info.BuildDate == unknownValue {
				info.BuildDate = s.Value
			}
		}
	}
	return info
}

func (b BuildInfo) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "colframe %s", b.Version)
	if b.Dirty {
		sb.WriteString(" (dirty)")
	}
	sb.WriteString("\n")

	if b.GitCommit != unknownValue {
		commit := b.GitCommit
		if len(commit) > commitHashLength {
			commit = commit[:commitHashLength]
		}
		fmt.Fprintf(&sb, "commit:  %s\n", commit)
	}
	if b.BuildDate != unknownValue {
		fmt.Fprintf(&sb, "built:   %s\n", b.BuildDate)
	}
	fmt.Fprintf(&sb, "go:      %s\n", b.GoVersion)
	if b.Arrow != "" {
		fmt.Fprintf(&sb, "arrow:   %s\n", b.Arrow)
	}
	return sb.String()
}

// UserAgent identifies this build in file metadata, e.g. "colframe/v0.3.0".
func UserAgent() string {
	return "colframe/" + Version
}

// IsRelease reports whether Version is a tagged release rather than a
// development or pre-release build.
func IsRelease() bool {
	return Version != "dev" && !strings.Contains(Version, "-")
}
