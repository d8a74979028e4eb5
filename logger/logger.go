package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Logger represents a structured logger
type Logger struct {
	logger zerolog.Logger
}

// Fields represents log fields
type Fields map[string]interface{}

// Options controls where and how verbosely the logger writes
type Options struct {
	// Level is a zerolog level name; LOG_LEVEL overrides it when set
	Level string
	// Override wins over both Level and LOG_LEVEL, for -v and -q
	Override string
	// File is an optional log file appended to alongside the console
	File string
}

var (
	// Default is the default logger instance
	Default *Logger

	logFile *os.File
)

// Init initializes the logger from the environment only
func Init() {
	_ = Setup(Options{})
}

// Setup initializes the default logger. The console writer is always used; a
// failure to open the log file is returned but leaves a console-only logger.
func Setup(opts Options) error {
	level := getLogLevel(opts.Level)
	if opts.Override != "" {
		if l, err := zerolog.ParseLevel(opts.Override); err == nil {
			level = l
		}
	}

	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(level)

	var writers []io.Writer
	writers = append(writers, zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	})

	var fileErr error
	if opts.File != "" {
		f, err := openLogFile(opts.File)
		if err != nil {
			fileErr = fmt.Errorf("open log file %s: %w", opts.File, err)
		} else {
			closeLogFile()
			logFile = f
			writers = append(writers, f)
		}
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()
	Default = &Logger{logger: logger}

	Default.Debug().
		Str("level", level.String()).
		Msg("Logger initialized")

	return fileErr
}

// New wraps an existing zerolog logger, mainly for tests that capture output
func New(w io.Writer) *Logger {
	return &Logger{logger: zerolog.New(w).With().Timestamp().Logger()}
}

func openLogFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}

func closeLogFile() {
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

// Close releases the log file, if any
func Close() {
	closeLogFile()
}

// getLogLevel returns the log level from the environment or the fallback name
func getLogLevel(fallback string) zerolog.Level {
	levelStr := os.Getenv("LOG_LEVEL")
	if levelStr == "" {
		levelStr = fallback
	}
	if levelStr == "" {
		return zerolog.InfoLevel
	}

	level, err := zerolog.ParseLevel(levelStr)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// WithFields creates a new logger with fields
func (l *Logger) WithFields(fields Fields) *Logger {
	newLogger := l.logger.With()
	for k, v := range fields {
		newLogger = newLogger.Interface(k, v)
	}
	return &Logger{logger: newLogger.Logger()}
}

// WithField creates a new logger with a single field
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{logger: l.logger.With().Interface(key, value).Logger()}
}

// Debug returns a debug event
func (l *Logger) Debug() *zerolog.Event {
	return l.logger.Debug()
}

// Info returns an info event
func (l *Logger) Info() *zerolog.Event {
	return l.logger.Info()
}

// Warn returns a warn event
func (l *Logger) Warn() *zerolog.Event {
	return l.logger.Warn()
}

// Error returns an error event
func (l *Logger) Error() *zerolog.Event {
	return l.logger.Error()
}

// WithError adds an error to the logger
func (l *Logger) WithError(err error) *Logger {
	return &Logger{logger: l.logger.With().Err(err).Logger()}
}

// Info logs an info message
func Info(format string, v ...interface{}) {
	ensure()
	Default.Info().Msgf(format, v...)
}

// Error logs an error message
func Error(format string, v ...interface{}) {
	ensure()
	Default.Error().Msgf(format, v...)
}

func ensure() {
	if Default == nil {
		Init()
	}
}

// ForComponent creates a logger tagged with a component name
func ForComponent(name string) *Logger {
	ensure()
	return Default.WithField("component", name)
}

// ForFetcher creates a logger for the fetcher
func ForFetcher() *Logger {
	return ForComponent("fetcher")
}

// ForExtractor creates a logger for the extractor
func ForExtractor() *Logger {
	return ForComponent("extractor")
}

// ForStore creates a logger for the record store
func ForStore() *Logger {
	return ForComponent("store")
}

// ForExporter creates a logger for the exporter
func ForExporter() *Logger {
	return ForComponent("exporter")
}

// ForSource creates a logger for a data source of the given category
func ForSource(category string) *Logger {
	ensure()
	return Default.WithFields(Fields{"component": "source", "category": category})
}

// ForWorker creates a logger for the worker
func ForWorker() *Logger {
	return ForComponent("worker")
}

// ForPublisher creates a logger for the publisher
func ForPublisher() *Logger {
	return ForComponent("publisher")
}

// ForCache creates a logger for the cache
func ForCache() *Logger {
	return ForComponent("cache")
}

// ForAPI creates a logger for the HTTP read API
func ForAPI() *Logger {
	return ForComponent("api")
}

// LogError is a convenience method for logging errors with context
func LogError(component string, err error, format string, v ...interface{}) {
	ensure()
	msg := fmt.Sprintf(format, v...)
	Default.Error().
		Str("component", component).
		Err(err).
		Msg(msg)
}

// LogInfo is a convenience method for logging info with context
func LogInfo(component string, format string, v ...interface{}) {
	ensure()
	msg := fmt.Sprintf(format, v...)
	Default.Info().
		Str("component", component).
		Msg(msg)
}
