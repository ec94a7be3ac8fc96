package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"ipo-wizard/src/models"

	"github.com/rs/zerolog"
)

// -----------------------------------------------------------------------------

// Logger provides structured logging functionality
type Logger struct {
	name   string
	logger zerolog.Logger
	exit   func(int)
}

// -----------------------------------------------------------------------------

// NewLogger creates a new Logger instance. A nil config logs at INFO to stdout.
func NewLogger(config *models.MConfig, name string) *Logger {
	level := "INFO"
	format := "console"
	if config != nil {
		if config.LogLevel != "" {
			level = config.LogLevel
		}
		if config.LogFormat != "" {
			format = config.LogFormat
		}
	}

	var out io.Writer = os.Stdout
	if format == "console" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	return newLogger(out, level, name)
}

// -----------------------------------------------------------------------------

// NewNopLogger discards everything; used by tests.
func NewNopLogger(name string) *Logger {
	return &Logger{name: name, logger: zerolog.Nop(), exit: os.Exit}
}

// -----------------------------------------------------------------------------

func newLogger(out io.Writer, level, name string) *Logger {
	zl := zerolog.New(out).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Str("component", name).
		Logger()

	return &Logger{name: name, logger: zl, exit: os.Exit}
}

// -----------------------------------------------------------------------------

// Named returns a logger sharing the output and level of l under another component name.
func (l *Logger) Named(name string) *Logger {
	return &Logger{
		name:   name,
		logger: l.logger.With().Str("component", name).Logger(),
		exit:   l.exit,
	}
}

// -----------------------------------------------------------------------------

// Debug logs debugging messages
func (l *Logger) Debug(format string, args ...interface{}) {
	l.logger.Debug().Msg(fmt.Sprintf(format, args...))
}

// -----------------------------------------------------------------------------

// Warning logs recoverable problems
func (l *Logger) Warning(format string, args ...interface{}) {
	l.logger.Warn().Msg(fmt.Sprintf(format, args...))
}

// -----------------------------------------------------------------------------

// Info logs informational messages
func (l *Logger) Info(format string, args ...interface{}) {
	l.logger.Info().Msg(fmt.Sprintf(format, args...))
}

// -----------------------------------------------------------------------------

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	l.logger.Error().Msg(fmt.Sprintf(format, args...))
}

// -----------------------------------------------------------------------------

// Critical logs critical errors and exits the application
func (l *Logger) Critical(format string, args ...interface{}) {
	l.logger.WithLevel(zerolog.FatalLevel).Msg(fmt.Sprintf(format, args...))
	l.exit(1)
}

// -----------------------------------------------------------------------------

func parseLevel(level string) zerolog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARNING", "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	case "CRITICAL":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}
