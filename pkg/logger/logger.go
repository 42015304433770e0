package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"pdf-reader/internal/domain"
)

// AppLogger implements the domain.Logger interface on top of zerolog.
type AppLogger struct {
	zl zerolog.Logger
}

// NewLogger creates a console logger on stdout.
func NewLogger(levelStr string) domain.Logger {
	return New(levelStr, "console", os.Stdout)
}

// New creates a logger writing to out. format is "json" or "console".
func New(levelStr, format string, out io.Writer) *AppLogger {
	if out == nil {
		out = os.Stdout
	}

	var zl zerolog.Logger
	if strings.EqualFold(format, "json") {
		zl = zerolog.New(out)
	} else {
		zl = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	}

	zl = zl.Level(parseLogLevel(levelStr)).With().Timestamp().Logger()
	return &AppLogger{zl: zl}
}

// Info logs an info message
func (l *AppLogger) Info(msg string, fields ...interface{}) {
	withFields(l.zl.Info(), fields).Msg(msg)
}

// Error logs an error message
func (l *AppLogger) Error(msg string, err error, fields ...interface{}) {
	withFields(l.zl.Error().Err(err), fields).Msg(msg)
}

// Debug logs a debug message
func (l *AppLogger) Debug(msg string, fields ...interface{}) {
	withFields(l.zl.Debug(), fields).Msg(msg)
}

// Warn logs a warning message
func (l *AppLogger) Warn(msg string, fields ...interface{}) {
	withFields(l.zl.Warn(), fields).Msg(msg)
}

// withFields attaches alternating key/value pairs. A trailing key without a value is dropped.
func withFields(evt *zerolog.Event, fields []interface{}) *zerolog.Event {
	if evt == nil {
		return evt
	}
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			key = fmt.Sprint(fields[i])
		}
		evt = evt.Interface(key, fields[i+1])
	}
	return evt
}

// parseLogLevel converts string log level to a zerolog level
func parseLogLevel(levelStr string) zerolog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
