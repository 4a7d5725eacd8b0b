package logger

import (
	"io"
	"os"
	"syscall"
	"time"

	"codeberg.org/mutker/sleepctl/internal/errors"
	"github.com/rs/zerolog"
)

var log = &zeroLogger{zl: zerolog.New(io.Discard)}

type LogLevel int8

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

type LogEvent struct {
	*zerolog.Event
}

func (e *LogEvent) Msg(msg string) {
	e.Event.Msg(msg)
}

func (e *LogEvent) Send() {
	e.Event.Send()
}

type zeroLogger struct {
	zl zerolog.Logger
}

// Init initializes the package logger writing to stderr. Stdout is left
// to the console lines.
func Init(level LogLevel, isService bool) {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}

	if isService {
		output.TimeFormat = ""
		output.FormatTimestamp = func(_ interface{}) string {
			return ""
		}
	}

	log = &zeroLogger{zl: zerolog.New(output).With().Timestamp().Logger()}

	SetLogLevel(level)
}

// New returns a standalone logger writing JSON lines to w.
func New(w io.Writer) Logger {
	return &zeroLogger{zl: zerolog.New(w).With().Timestamp().Logger()}
}

// Default returns the package logger configured by Init.
func Default() Logger {
	return log
}

// SetLogLevel sets the global log level
func SetLogLevel(level LogLevel) {
	zerolog.SetGlobalLevel(zerolog.Level(level))
}

// ParseLevel maps a configured level name to a LogLevel.
func ParseLevel(level string) (LogLevel, bool) {
	switch level {
	case "debug":
		return DebugLevel, true
	case "info":
		return InfoLevel, true
	case "warning", "warn":
		return WarnLevel, true
	case "error":
		return ErrorLevel, true
	default:
		return InfoLevel, false
	}
}

// IsService checks if the application is running as a service
func IsService() bool {
	if _, err := os.Stdin.Stat(); err != nil {
		return true
	}
	if os.Getenv("SERVICE_NAME") != "" || os.Getenv("INVOCATION_ID") != "" {
		return true
	}
	if os.Getppid() == 1 {
		return true
	}

	return syscall.Getpgrp() == syscall.Getpid()
}

func (l *zeroLogger) Debug() *LogEvent {
	return &LogEvent{l.zl.Debug()}
}

func (l *zeroLogger) Info() *LogEvent {
	return &LogEvent{l.zl.Info()}
}

func (l *zeroLogger) Warn() *LogEvent {
	return &LogEvent{l.zl.Warn()}
}

func (l *zeroLogger) Error() *LogEvent {
	return &LogEvent{l.zl.Error()}
}

func (l *zeroLogger) ErrorWithCode(err errors.Error) *LogEvent {
	return &LogEvent{l.zl.Error().
		Str("error_code", string(err.Code())).
		Err(err)}
}

// Debug logs a debug message
func Debug() *LogEvent {
	return log.Debug()
}

// Info logs an info message
func Info() *LogEvent {
	return log.Info()
}

// Warn logs a warning message
func Warn() *LogEvent {
	return log.Warn()
}

// Error logs an error message
func Error() *LogEvent {
	return log.Error()
}

// ErrorWithCode logs an error message with a specific error code
func ErrorWithCode(err errors.Error) *LogEvent {
	return log.ErrorWithCode(err)
}

// Fatal logs a fatal message and exits the program
func Fatal() *LogEvent {
	return &LogEvent{log.zl.Fatal()}
}

// FatalWithCode logs a fatal message with a specific error code and exits the program
func FatalWithCode(err errors.Error) *LogEvent {
	return &LogEvent{log.zl.Fatal().
		Str("error_code", string(err.Code())).
		Err(err)}
}
