// Package logging builds the go-kit loggers used across stockview.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/chiro2001/financial-frontend/internal/config"
)

// New returns a logger writing format ("logfmt" or "json") to w, stamped
// with time and caller and filtered at lvl.
func New(w io.Writer, lvl, format string) log.Logger {
	var logger log.Logger
	if format == "json" {
		logger = log.NewJSONLogger(log.NewSyncWriter(w))
	} else {
		logger = log.NewLogfmtLogger(log.NewSyncWriter(w))
	}
	logger = log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)
	return level.NewFilter(logger, allow(lvl))
}

func allow(lvl string) level.Option {
	switch strings.ToLower(lvl) {
	case "debug":
		return level.AllowDebug()
	case "warn", "warning":
		return level.AllowWarn()
	case "error":
		return level.AllowError()
	case "none", "off":
		return level.AllowNone()
	default:
		return level.AllowInfo()
	}
}

// Open returns a logger for cfg writing to the configured log file. The
// caller closes the returned closer on exit.
func Open(cfg *config.Config) (log.Logger, io.Closer, error) {
	path := cfg.LogFile()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return New(f, cfg.Logging.Level, cfg.Logging.Format), f, nil
}

// Component tags logger with the component name.
func Component(logger log.Logger, name string) log.Logger {
	return log.With(logger, "component", name)
}
