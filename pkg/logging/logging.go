// pkg/logging/logging.go
package logging

import (
	"fmt"
	"io"
	stdLog "log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Supported output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

var (
	mu        sync.Mutex
	logWriter io.Writer = os.Stderr
)

// stdLogWriter forwards output of the standard library logger (net/http
// server errors mostly) into zerolog at debug level.
type stdLogWriter struct {
	logger zerolog.Logger
}

func (w *stdLogWriter) Write(p []byte) (n int, err error) {
	message := strings.TrimSpace(string(p))
	if message == "" {
		return len(p), nil
	}

	// "http: TLS handshake error from ..." style prefixes become the source field
	if source, rest, ok := strings.Cut(message, ": "); ok && !strings.Contains(source, " ") {
		w.logger.Debug().Str("source", source).Msg(rest)
		return len(p), nil
	}

	w.logger.Debug().Msg(message)
	return len(p), nil
}

func init() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	zerolog.DurationFieldUnit = time.Millisecond
}

// ConfigureGlobalLogging configures the global logger from the log section
// of the configuration. Unknown levels fall back to info; unknown formats
// fall back to text.
func ConfigureGlobalLogging(levelStr, format string) error {
	level, err := ParseLevel(levelStr)
	if err != nil {
		log.Warn().Err(err).Str("level", levelStr).Msg("Invalid log level provided, defaulting to info")
	}
	zerolog.SetGlobalLevel(level)

	w := formatWriter(getLogWriter(), format)

	logContext := zerolog.New(w).With().Timestamp()
	if level <= zerolog.DebugLevel {
		logContext = logContext.Caller()
	}

	log.Logger = logContext.Logger().Level(level)
	zerolog.DefaultContextLogger = &log.Logger

	stdLog.SetFlags(0)
	stdLog.SetOutput(&stdLogWriter{logger: log.Logger.With().Str("component", "stdlog").Logger()})

	return nil
}

// ParseLevel converts a level name to a zerolog.Level. An empty name is info.
func ParseLevel(levelString string) (zerolog.Level, error) {
	if levelString == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(levelString))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel, fmt.Errorf("unknown log level %q", levelString)
	}
	return level, nil
}

// Component derives a child of the global logger tagged with the component.
func Component(name string) zerolog.Logger {
	return log.Logger.With().Str("component", name).Logger()
}

func formatWriter(w io.Writer, format string) io.Writer {
	if strings.EqualFold(format, FormatJSON) {
		return w
	}
	return zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
	}
}

func getLogWriter() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return logWriter
}

// SetLogWriter sets the writer used by subsequent ConfigureGlobalLogging
// and NewLogger calls.
func SetLogWriter(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logWriter = w
}
