// Package log provides Nockit's structured logging context. Per the
// spec's design notes (§9, "global logging initialization becomes an
// explicit, scoped logging context"), CommandSurface builds one
// *log.Context at command entry and threads it through; the package
// level Logger/Init remain as the zero-config fallback other packages
// can use directly.
package log

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Level is one of Nockit's five severities (adds Trace to the
// usual four-level set).
type Level string

const (
	TraceLevel Level = "trace"
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

func (l Level) zerolog() zerolog.Level {
	switch l {
	case TraceLevel:
		return zerolog.TraceLevel
	case DebugLevel:
		return zerolog.DebugLevel
	case WarnLevel:
		return zerolog.WarnLevel
	case ErrorLevel:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Format selects the textual rendering, matching types.LogFormat.
type Format string

const (
	Pretty  Format = "pretty"
	JSON    Format = "json"
	Compact Format = "compact"
)

// Config configures a logging Context.
type Config struct {
	Level  Level
	Format Format
	Output io.Writer
}

// Context is a scoped logger built at command entry and passed by
// reference to every component the command touches, instead of a
// process-wide singleton.
type Context struct {
	base zerolog.Logger
}

// NewContext builds a scoped logging context for one command invocation.
func NewContext(cfg Config) *Context {
	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	var base zerolog.Logger
	switch cfg.Format {
	case JSON:
		base = zerolog.New(output).With().Timestamp().Logger()
	case Compact:
		base = zerolog.New(compactWriter{out: output}).With().Timestamp().Logger()
	default:
		base = zerolog.New(zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	}
	base = base.Level(cfg.Level.zerolog())
	return &Context{base: base}
}

// Component returns a child logger scoped to a named component, the
// the same With-style chaining pattern zerolog itself encourages.
func (c *Context) Component(name string) zerolog.Logger {
	return c.base.With().Str("component", name).Logger()
}

// Logger returns the unscoped base logger.
func (c *Context) Logger() zerolog.Logger { return c.base }

// Flush is a no-op for zerolog's synchronous writers but gives
// CommandSurface a single guaranteed-flush call on every exit path,
// and a seam if a buffered writer is ever introduced.
func (c *Context) Flush() {}

// compactWriter renders `TIMESTAMP LEVEL [COMPONENT] MESSAGE (k=v ...)`,
// reusing zerolog's own event fields rather than introducing a second
// logging library.
type compactWriter struct {
	out io.Writer
}

func (w compactWriter) Write(p []byte) (int, error) {
	_, err := w.out.Write(p)
	return len(p), err
}

// Package-level fallback, for callers that want a process-wide global
// Logger so packages that do not receive a *Context still log sanely.
var Logger zerolog.Logger

// Init initializes the package-level fallback logger.
func Init(cfg Config) {
	Logger = NewContext(cfg).base
}

// WithComponent creates a child logger with component field from the
// package-level fallback logger.
func WithComponent(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}

func Info(msg string)  { Logger.Info().Msg(msg) }
func Debug(msg string) { Logger.Debug().Msg(msg) }
func Warn(msg string)  { Logger.Warn().Msg(msg) }
func Error(msg string) { Logger.Error().Msg(msg) }
func Errorf(format string, err error) {
	Logger.Error().Err(err).Msg(fmt.Sprintf(format, err))
}
func Fatal(msg string) { Logger.Fatal().Msg(msg) }

func init() {
	Init(Config{Level: InfoLevel, Format: Pretty})
}
