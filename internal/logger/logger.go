package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Fields represents key-value pairs for structured logging
type Fields map[string]interface{}

// Logger defines the interface for logging operations
type Logger interface {
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})
	WithFields(fields Fields) Logger
}

// LogrusLogger wraps a logrus logger or entry to implement our Logger interface
type LogrusLogger struct {
	logrus.FieldLogger
}

// WithFields returns a new logger carrying the given fields
func (l *LogrusLogger) WithFields(fields Fields) Logger {
	return &LogrusLogger{FieldLogger: l.FieldLogger.WithFields(logrus.Fields(fields))}
}

// ensure LogrusLogger implements Logger interface
var _ Logger = (*LogrusLogger)(nil)

// New creates a new logger instance
func New(level string) Logger {
	logrusLogger := logrus.New()
	logrusLogger.SetOutput(os.Stdout)
	logrusLogger.SetFormatter(&logrus.JSONFormatter{})

	// Set log level
	switch level {
	case "debug":
		logrusLogger.SetLevel(logrus.DebugLevel)
	case "info":
		logrusLogger.SetLevel(logrus.InfoLevel)
	case "warn":
		logrusLogger.SetLevel(logrus.WarnLevel)
	case "error":
		logrusLogger.SetLevel(logrus.ErrorLevel)
	default:
		logrusLogger.SetLevel(logrus.InfoLevel)
	}

	return &LogrusLogger{FieldLogger: logrusLogger}
}
