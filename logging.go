package async

import (
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// LogLevel is the severity of a background-error log record, matching
// the teacher's LevelDebug..LevelError vocabulary (eventloop/logging.go).
type LogLevel int32

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l LogLevel) zerolog() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

// Logger is the side-channel sink for scheduler background errors: the
// Scheduler reports panics it recovers from timer callbacks and
// microtasks. Canceller errors and rejected promises nobody observed are
// not reported to it. It is the package-level pluggable interface
// named in spec.md §4.F/§7, styled on the teacher's own Logger.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// noOpLogger discards everything; SetLogger(nil) installs it. The
// zero-configuration default is the zerolog-backed logger at LevelWarn.
type noOpLogger struct{}

func (noOpLogger) Debugf(string, ...any) {}
func (noOpLogger) Infof(string, ...any)  {}
func (noOpLogger) Warnf(string, ...any)  {}
func (noOpLogger) Errorf(string, ...any) {}

// NewNoOpLogger returns a Logger that discards all records.
func NewNoOpLogger() Logger { return noOpLogger{} }

// zerologLogger backs the default, non-no-op Logger with
// github.com/rs/zerolog, the structured logging library the corpus
// standardizes on.
type zerologLogger struct {
	log   zerolog.Logger
	level LogLevel
}

// NewDefaultLogger returns a Logger backed by zerolog, writing
// component=async structured records to stderr at or above level.
func NewDefaultLogger(level LogLevel) Logger {
	zl := zerolog.New(os.Stderr).With().Timestamp().Str("component", "async").Logger().Level(level.zerolog())
	return &zerologLogger{log: zl, level: level}
}

func (l *zerologLogger) Debugf(format string, args ...any) { l.log.Debug().Msgf(format, args...) }
func (l *zerologLogger) Infof(format string, args ...any)  { l.log.Info().Msgf(format, args...) }
func (l *zerologLogger) Warnf(format string, args ...any)  { l.log.Warn().Msgf(format, args...) }
func (l *zerologLogger) Errorf(format string, args ...any) { l.log.Error().Msgf(format, args...) }

var (
	globalLoggerMu sync.RWMutex
	globalLogger   Logger = NewDefaultLogger(LevelWarn)
)

// SetLogger sets the package-level default Logger used by any Scheduler
// created without an explicit WithLogger option, mirroring the teacher's
// SetStructuredLogger.
func SetLogger(l Logger) {
	if l == nil {
		l = NewNoOpLogger()
	}
	globalLoggerMu.Lock()
	globalLogger = l
	globalLoggerMu.Unlock()
}

func defaultLogger() Logger {
	globalLoggerMu.RLock()
	defer globalLoggerMu.RUnlock()
	return globalLogger
}
