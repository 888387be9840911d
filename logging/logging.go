// Package logging provides structured logging for femadapt components.
//
// It is a thin layer over log/slog: a Config selects level, format and
// destinations, New builds a ready-to-use *slog.Logger tagged with the
// owning service name. Library packages receive a logger through their
// constructors; nothing logs through a package-level global.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Config configures logger construction. The zero value produces an
// Info-level text logger on stderr.
type Config struct {
	// Level is the minimum level emitted.
	Level slog.Level

	// JSON switches stderr output to JSON. File output is always JSON.
	JSON bool

	// Service is attached to every record as the "service" attribute.
	Service string

	// LogDir, when set, additionally appends JSON records to
	// {Service}_{date}.log inside the directory. The directory is
	// created if missing.
	LogDir string

	// Output overrides the default stderr destination. Used by tests.
	Output io.Writer
}

// New builds a logger from cfg. File-open failures degrade to
// stderr-only logging rather than failing construction.
func New(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	if cfg.LogDir != "" {
		if f, err := openLogFile(cfg.LogDir, cfg.Service); err == nil {
			out = io.MultiWriter(out, f)
		}
	}

	opts := &slog.HandlerOptions{Level: cfg.Level}
	var h slog.Handler
	if cfg.JSON || cfg.LogDir != "" {
		h = slog.NewJSONHandler(out, opts)
	} else {
		h = slog.NewTextHandler(out, opts)
	}

	l := slog.New(h)
	if cfg.Service != "" {
		l = l.With("service", cfg.Service)
	}
	return l
}

// Default returns an Info-level stderr logger for the femadapt service.
func Default() *slog.Logger {
	return New(Config{Service: "femadapt"})
}

func openLogFile(dir, service string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, err
	}
	if service == "" {
		service = "femadapt"
	}
	name := fmt.Sprintf("%s_%s.log", service, time.Now().Format("2006-01-02"))
	return os.OpenFile(filepath.Join(dir, name),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
}
