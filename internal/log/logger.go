// Package log owns the process-wide zerolog logger.
package log

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Field names shared across components.
const (
	FieldComponent  = "component"
	FieldGeneration = "generation"
	FieldSessionID  = "session_id"
	FieldEvent      = "event"
	FieldOldPhase   = "old_phase"
	FieldNewPhase   = "new_phase"
)

// Config captures options for configuring the global logger.
type Config struct {
	Level  string    // "debug", "info", ... (defaults to info)
	Format string    // "console" or "json" (defaults to console)
	Output io.Writer // defaults to os.Stderr
}

var (
	mu   sync.Mutex
	base = zerolog.New(os.Stderr).With().Timestamp().Logger()
)

// Configure replaces the base logger.
func Configure(cfg Config) {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		if parsed, err := zerolog.ParseLevel(cfg.Level); err == nil {
			level = parsed
		}
	}

	writer := cfg.Output
	if writer == nil {
		writer = os.Stderr
	}
	if cfg.Format != "json" {
		writer = zerolog.ConsoleWriter{Out: writer, TimeFormat: time.TimeOnly, NoColor: writer != os.Stderr}
	}

	mu.Lock()
	base = zerolog.New(writer).Level(level).With().Timestamp().Logger()
	mu.Unlock()
}

// Base returns the configured base logger.
func Base() zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return base
}

// WithComponent returns a child logger annotated with the given component name.
func WithComponent(component string) zerolog.Logger {
	return Base().With().Str(FieldComponent, component).Logger()
}
