package logger

import (
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the small structured logging surface used throughout the
// codebase.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// Field is a single structured key/value pair.
type Field = zap.Field

var (
	String   = zap.String
	Strings  = zap.Strings
	Float64  = zap.Float64
	Int      = zap.Int
	Bool     = zap.Bool
	Duration = zap.Duration
	Time     = zap.Time
)

// Err attaches an error under the "error" key.
func Err(err error) Field { return zap.Error(err) }

// Options controls where and how verbosely NewZapLogger writes.
type Options struct {
	Level string // debug, info, warn, error
	// File is the rotated log file; empty disables the file sink.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// zapLogger implements Logger on top of a plain zap.Logger.
type zapLogger struct {
	z *zap.Logger
}

func (l *zapLogger) Debug(msg string, fields ...Field) { l.z.Debug(msg, fields...) }
func (l *zapLogger) Info(msg string, fields ...Field)  { l.z.Info(msg, fields...) }
func (l *zapLogger) Warn(msg string, fields ...Field)  { l.z.Warn(msg, fields...) }
func (l *zapLogger) Error(msg string, fields ...Field) { l.z.Error(msg, fields...) }

// Sync flushes buffered entries.
func (l *zapLogger) Sync() error { return l.z.Sync() }

// NewZapLogger creates a production logger (JSON encoding) that writes to
// stderr and, when opts.File is set, to a size-rotated file.
func NewZapLogger(opts Options) (Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level)))
	if err != nil || opts.Level == "" {
		level = zapcore.InfoLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	enc := zapcore.NewJSONEncoder(encCfg)

	cores := []zapcore.Core{
		zapcore.NewCore(enc, zapcore.Lock(os.Stderr), level),
	}
	if opts.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    orDefault(opts.MaxSizeMB, 50),
			MaxBackups: orDefault(opts.MaxBackups, 5),
			MaxAge:     orDefault(opts.MaxAgeDays, 14),
		}
		cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(rotator), level))
	}

	z := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
	return &zapLogger{z: z}, nil
}

// NewNop returns a Logger that discards everything.
func NewNop() Logger { return &zapLogger{z: zap.NewNop()} }

// Since is a convenience field for elapsed time.
func Since(start time.Time) Field { return zap.Duration("elapsed", time.Since(start)) }

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// Sync flushes l when it buffers output. Other loggers are a no-op.
func Sync(l Logger) error {
	if s, ok := l.(interface{ Sync() error }); ok {
		return s.Sync()
	}
	return nil
}
