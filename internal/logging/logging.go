// Package logging builds the go-kit loggers used by colframe's serializers
// and command line tool.
package logging

import (
	"fmt"
	"io"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/paveg/colframe/internal/config"
)

// New returns a logger writing to w in cfg.LogFormat ("logfmt" or "json"),
// filtered to cfg.LogLevel and stamped with a UTC timestamp.
func New(w io.Writer, cfg config.Config) (log.Logger, error) {
	cfg = cfg.WithDefaults()

	var logger log.Logger
	switch cfg.LogFormat {
	case "logfmt":
		logger = log.NewLogfmtLogger(log.NewSyncWriter(w))
	case "json":
		logger = log.NewJSONLogger(log.NewSyncWriter(w))
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.LogFormat)
	}

	opt, err := levelOption(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger = level.NewFilter(logger, opt)
	return log.With(logger, "ts", log.DefaultTimestampUTC), nil
}

func levelOption(name string) (level.Option, error) {
	switch name {
	case "debug":
		return level.AllowDebug(), nil
	case "info":
		return level.AllowInfo(), nil
	case "warn":
		return level.AllowWarn(), nil
	case "error":
		return level.AllowError(), nil
	}
	return nil, fmt.Errorf("unknown log level %q", name)
}

// Nop returns a logger that discards everything.
func Nop() log.Logger { return log.NewNopLogger() }

// OrNop returns logger, or a no-op logger when it is nil.
func OrNop(logger log.Logger) log.Logger {
	if logger == nil {
		return Nop()
	}
	return logger
}
