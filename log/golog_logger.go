package log

import (
	"io"
	"os"

	"github.com/kataras/golog"
)

const defaultPrefix = "[graphflow] "

// gologLevels maps our levels onto golog's. golog orders its levels the
// other way round, with DisableLevel lowest and DebugLevel highest.
var gologLevels = map[LogLevel]golog.Level{
	LogLevelDebug: golog.DebugLevel,
	LogLevelInfo:  golog.InfoLevel,
	LogLevelWarn:  golog.WarnLevel,
	LogLevelError: golog.ErrorLevel,
	LogLevelNone:  golog.DisableLevel,
}

// GologLogger is the Logger used throughout graphflow, backed by a
// kataras/golog logger.
type GologLogger struct {
	logger *golog.Logger
	level  LogLevel
}

var _ Logger = (*GologLogger)(nil)

// NewDefaultLogger creates a logger writing to stderr.
func NewDefaultLogger(level LogLevel) *GologLogger {
	return NewCustomLogger(os.Stderr, level)
}

// NewCustomLogger creates a logger writing to out with the graphflow prefix.
func NewCustomLogger(out io.Writer, level LogLevel) *GologLogger {
	g := golog.New()
	g.SetOutput(out)
	g.SetPrefix(defaultPrefix)
	l := &GologLogger{logger: g}
	l.SetLevel(level)
	return l
}

// NewGologLogger wraps an existing golog.Logger at info level.
func NewGologLogger(logger *golog.Logger) *GologLogger {
	l := &GologLogger{logger: logger}
	l.SetLevel(LogLevelInfo)
	return l
}

// Named returns a logger for one component. Its lines carry name after the
// parent's prefix and it starts at the parent's level. Children are cached
// by name on the golog logger.
func (l *GologLogger) Named(name string) *GologLogger {
	child := &GologLogger{logger: l.logger.Child(name)}
	child.SetLevel(l.level)
	return child
}

func (l *GologLogger) Debug(format string, v ...any) { l.log(LogLevelDebug, format, v) }
func (l *GologLogger) Info(format string, v ...any)  { l.log(LogLevelInfo, format, v) }
func (l *GologLogger) Warn(format string, v ...any)  { l.log(LogLevelWarn, format, v) }
func (l *GologLogger) Error(format string, v ...any) { l.log(LogLevelError, format, v) }

func (l *GologLogger) log(level LogLevel, format string, v []any) {
	if level < l.level {
		return
	}
	l.logger.Logf(gologLevels[level], format, v...)
}

// SetLevel sets the level on the wrapper and the underlying golog logger.
func (l *GologLogger) SetLevel(level LogLevel) {
	gl, ok := gologLevels[level]
	if !ok {
		level, gl = LogLevelInfo, golog.InfoLevel
	}
	l.level = level
	l.logger.Level = gl
}

// GetLevel returns the current log level
func (l *GologLogger) GetLevel() LogLevel {
	return l.level
}

// Golog exposes the wrapped logger, e.g. to attach extra outputs.
func (l *GologLogger) Golog() *golog.Logger {
	return l.logger
}
