package log

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// base is the process logger every helper derives from. Until Init runs it
// discards everything, so library code (and tests) can log unconditionally
// without configuring output first.
var base = zerolog.New(io.Discard)

// Config selects the process log level and output format.
type Config struct {
	// Level is a zerolog level name ("debug", "info", "warn", "error").
	// Unrecognized or empty values fall back to info.
	Level string
	// JSONOutput emits one JSON object per line; otherwise output is
	// human-readable console format.
	JSONOutput bool
	// Output defaults to os.Stdout.
	Output io.Writer
}

// Init configures the process logger. The level is applied to the logger
// itself rather than zerolog's global level, so tests and embedded use
// don't affect other loggers in the process.
func Init(cfg Config) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	if !cfg.JSONOutput {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	base = zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// WithComponent returns a logger scoped to one subsystem (rpc, cache,
// metrics), the coarse routing key for daemon logs.
func WithComponent(component string) zerolog.Logger {
	return base.With().Str("component", component).Logger()
}

// WithStoreID returns a logger carrying the store every engine operation
// runs against.
func WithStoreID(storeID int) zerolog.Logger {
	return base.With().Int("store_id", storeID).Logger()
}

// WithObjectID returns a logger carrying a cached or stored object's
// identity, the key the coherence protocol revolves around.
func WithObjectID(objectID string) zerolog.Logger {
	return base.With().Str("object_id", objectID).Logger()
}

// WithPeer returns a logger carrying the eviction address of the client a
// coherence decision concerns.
func WithPeer(addr string) zerolog.Logger {
	return base.With().Str("peer", addr).Logger()
}

// Info logs a bare informational message on the process logger.
func Info(msg string) {
	base.Info().Msg(msg)
}
