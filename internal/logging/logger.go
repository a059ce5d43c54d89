package logging

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents different logging levels
type LogLevel int

const (
	// LevelError only logs errors
	LevelError LogLevel = iota
	// LevelWarn logs warnings and errors
	LevelWarn
	// LevelInfo logs general information, warnings and errors
	LevelInfo
	// LevelDebug logs detailed debug information and all above
	LevelDebug
	// LevelTrace logs very detailed trace information and all above
	LevelTrace
)

var levelNames = map[LogLevel]string{
	LevelError: "ERROR",
	LevelWarn:  "WARN",
	LevelInfo:  "INFO",
	LevelDebug: "DEBUG",
	LevelTrace: "TRACE",
}

func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseLevel converts a level name (case-insensitive) to a LogLevel.
func ParseLevel(s string) (LogLevel, bool) {
	for level, name := range levelNames {
		if strings.EqualFold(s, name) {
			return level, true
		}
	}
	return LevelInfo, false
}

// Config controls how the shared zap core is built.
type Config struct {
	Level  string // error, warn, info, debug, trace
	Format string // console, json
	Output string // stdout, stderr or a file path
}

// Logger is a component logger. All loggers share one zap core, so a level
// change is visible everywhere at once.
type Logger struct {
	prefix string
	sugar  *zap.SugaredLogger
}

type shared struct {
	mu    sync.RWMutex
	base  *zap.Logger
	level zap.AtomicLevel
	trace atomic.Bool
}

var (
	defaultLogger *Logger
	core          = &shared{level: zap.NewAtomicLevelAt(zapcore.InfoLevel)}
	once          sync.Once
)

// GetLogger returns the default logger instance
func GetLogger() *Logger {
	once.Do(func() {
		core.base = buildDefault()

		if level := os.Getenv("LOG_LEVEL"); level != "" {
			if l, ok := ParseLevel(level); ok {
				SetLevel(l)
			}
		}

		defaultLogger = &Logger{prefix: "UNIFIEDFS"}
	})
	return defaultLogger
}

func buildDefault() *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = core.level
	cfg.OutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true
	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// Init rebuilds the shared core from configuration. Loggers obtained before
// Init pick up the new core on their next call.
func Init(cfg Config) error {
	GetLogger()

	var zcfg zap.Config
	if cfg.Format == "json" {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.DisableStacktrace = true
	}
	zcfg.Level = core.level
	if cfg.Output != "" {
		zcfg.OutputPaths = []string{cfg.Output}
	}

	l, err := zcfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	core.mu.Lock()
	old := core.base
	core.base = l
	core.mu.Unlock()
	if old != nil {
		_ = old.Sync()
	}

	if cfg.Level != "" {
		level, ok := ParseLevel(cfg.Level)
		if !ok {
			return fmt.Errorf("unknown log level %q", cfg.Level)
		}
		SetLevel(level)
	}
	return nil
}

// Sync flushes buffered log entries.
func Sync() error {
	core.mu.RLock()
	defer core.mu.RUnlock()
	if core.base == nil {
		return nil
	}
	return core.base.Sync()
}

// SetLevel sets the logging level
func SetLevel(level LogLevel) {
	core.trace.Store(level >= LevelTrace)
	switch level {
	case LevelError:
		core.level.SetLevel(zapcore.ErrorLevel)
	case LevelWarn:
		core.level.SetLevel(zapcore.WarnLevel)
	case LevelInfo:
		core.level.SetLevel(zapcore.InfoLevel)
	default:
		core.level.SetLevel(zapcore.DebugLevel)
	}
}

// SetLevel on a component logger changes the shared level.
func (l *Logger) SetLevel(level LogLevel) {
	SetLevel(level)
}

// Enabled reports whether messages at the given level are written.
func (l *Logger) Enabled(level LogLevel) bool {
	switch level {
	case LevelError:
		return core.level.Enabled(zapcore.ErrorLevel)
	case LevelWarn:
		return core.level.Enabled(zapcore.WarnLevel)
	case LevelInfo:
		return core.level.Enabled(zapcore.InfoLevel)
	case LevelDebug:
		return core.level.Enabled(zapcore.DebugLevel)
	default:
		return core.trace.Load()
	}
}

func (l *Logger) zap() *zap.SugaredLogger {
	if l.sugar != nil {
		return l.sugar
	}
	core.mu.RLock()
	defer core.mu.RUnlock()
	return core.base.Named(l.prefix).Sugar()
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.zap().Errorf(format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.zap().Warnf(format, args...)
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	l.zap().Infof(format, args...)
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.zap().Debugf(format, args...)
}

// Trace logs a trace message. Trace entries are written at debug severity
// and only when the trace level is selected.
func (l *Logger) Trace(format string, args ...interface{}) {
	if !core.trace.Load() {
		return
	}
	l.zap().With("trace", true).Debugf(format, args...)
}

// WithPrefix creates a new logger with an additional prefix
func (l *Logger) WithPrefix(prefix string) *Logger {
	return &Logger{prefix: prefix}
}

// With returns a logger that attaches the given key/value pairs to every
// entry. The returned logger is bound to the core current at call time.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{
		prefix: l.prefix,
		sugar:  l.zap().With(keysAndValues...),
	}
}
