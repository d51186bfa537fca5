package log

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"moul.io/zapfilter"
)

// field helpers so callers don't need to import zap themselves
var (
	Skip       = zap.Skip
	Bool       = zap.Bool
	Int        = zap.Int
	Int32      = zap.Int32
	Int64      = zap.Int64
	Uint32     = zap.Uint32
	Float32    = zap.Float32
	Float64    = zap.Float64
	String     = zap.String
	Stringer   = zap.Stringer
	Time       = zap.Time
	Duration   = zap.Duration
	Any        = zap.Any
	ErrorField = zap.Error
)

type (
	Field  = zap.Field
	Level  = zapcore.Level
	Logger struct {
		l     *zap.Logger
		level Level
	}
	ctxKey struct{}
)

const (
	DebugLevel = zapcore.DebugLevel
	InfoLevel  = zapcore.InfoLevel
	WarnLevel  = zapcore.WarnLevel
	ErrorLevel = zapcore.ErrorLevel
	FatalLevel = zapcore.FatalLevel
)

var (
	defaultLogger *Logger
	initOnce      sync.Once
)

func ParseLevel(arg string) (Level, error) {
	return zapcore.ParseLevel(arg)
}

// New creates a logger writing to stderr. format is "json" or "text".
func New(format string, level Level) *Logger {
	var encCfg zapcore.EncoderConfig
	var enc zapcore.Encoder
	if format == "json" {
		encCfg = zap.NewProductionEncoderConfig()
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg = zap.NewDevelopmentEncoderConfig()
		enc = zapcore.NewConsoleEncoder(encCfg)
	}
	core := zapcore.NewCore(enc, zapcore.Lock(os.Stderr), level)
	return &Logger{l: zap.New(core), level: level}
}

// DevLogger creates a development logger honoring zapfilter rules
// (e.g. "debug:segment,classify info:*") to raise verbosity per component.
func DevLogger(filterRules string, level Level) *Logger {
	base := New("text", DebugLevel)
	if filterRules == "" {
		return &Logger{l: base.l, level: level}
	}
	core := zapfilter.NewFilteringCore(base.l.Core(),
		zapfilter.MustParseRules(filterRules))
	return &Logger{l: zap.New(core), level: level}
}

// InitDefault installs the process-wide default logger.
func InitDefault(arg *Logger) {
	defaultLogger = arg
}

func Default() *Logger {
	initOnce.Do(func() {
		if defaultLogger == nil {
			defaultLogger = New("text", InfoLevel)
		}
	})
	return defaultLogger
}

// AddToContext returns a context carrying the given logger.
func AddToContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// GetFromContext returns the logger stored in ctx or the default logger.
func GetFromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return l
	}
	return Default()
}

func (l *Logger) Named(name string) *Logger {
	return &Logger{l: l.l.Named(name), level: l.level}
}

func (l *Logger) With(fields ...Field) *Logger {
	return &Logger{l: l.l.With(fields...), level: l.level}
}

func (l *Logger) Level() Level { return l.level }

func (l *Logger) Debug(msg string, fields ...Field) { l.l.Debug(msg, fields...) }
func (l *Logger) Info(msg string, fields ...Field)  { l.l.Info(msg, fields...) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.l.Warn(msg, fields...) }
func (l *Logger) Error(msg string, fields ...Field) { l.l.Error(msg, fields...) }
func (l *Logger) Fatal(msg string, fields ...Field) { l.l.Fatal(msg, fields...) }

func (l *Logger) Sync() {
	//nolint:errcheck // stderr sync errors are not actionable
	l.l.Sync()
}

// DebugEnabled avoids building expensive fields when debug is off.
func (l *Logger) DebugEnabled() bool {
	return l.level <= DebugLevel
}

func (l *Logger) Sugar() *zap.SugaredLogger { return l.l.Sugar() }

func (l *Logger) String() string {
	return fmt.Sprintf("Logger(level=%s)", l.level)
}
