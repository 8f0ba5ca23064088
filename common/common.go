// Package common holds process-wide constants and the logger setup shared by
// all binaries in this repository.
package common

import (
	"log/slog"
	"os"
)

// PackageName is used as the metrics namespace and the default service tag.
const PackageName = "document_registry"

// Version is set at build time via -ldflags.
var Version = "dev"

// LoggingOpts configures the process logger.
type LoggingOpts struct {
	// Debug enables debug-level messages.
	Debug bool

	// JSON switches the handler to JSON output.
	JSON bool

	// Service is added as a 'service' attribute to all messages.
	Service string

	// Version is added as a 'version' attribute to all messages.
	Version string
}

// SetupLogger creates the process slog.Logger according to opts and installs
// it as the slog default.
func SetupLogger(opts *LoggingOpts) *slog.Logger {
	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	logger := slog.New(handler)
	if opts.Service != "" {
		logger = logger.With(slog.String("service", opts.Service))
	}
	if opts.Version != "" {
		logger = logger.With(slog.String("version", opts.Version))
	}

	slog.SetDefault(logger)
	return logger
}
