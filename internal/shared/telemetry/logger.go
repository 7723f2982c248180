package telemetry

import (
	"sort"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var current atomic.Pointer[zap.Logger]

func init() {
	logger, err := New(true, false)
	if err != nil {
		logger = zap.NewNop()
	}
	current.Store(logger)
}

// New builds a zap logger writing to stdout. The message key is "msg" so log
// lines stay greppable by event name.
func New(json bool, debug bool) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}
	encoding := "console"
	if json {
		encoding = "json"
	}

	cfg := zap.Config{
		Encoding:         encoding,
		Level:            zap.NewAtomicLevelAt(level),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey:  "msg",
			LevelKey:    "level",
			EncodeLevel: zapcore.LowercaseLevelEncoder,
			TimeKey:     "ts",
			EncodeTime:  zapcore.RFC3339TimeEncoder,
		},
	}
	return cfg.Build()
}

// SetLogger replaces the process-wide logger and returns the previous one.
func SetLogger(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return current.Swap(logger)
}

// Logger returns the process-wide logger.
func Logger() *zap.Logger {
	return current.Load()
}

// Sync flushes buffered log entries.
func Sync() {
	_ = Logger().Sync()
}

// Debug writes a debug-level log line with the given fields.
func Debug(msg string, fields map[string]any) {
	Logger().Debug(msg, toZap(fields)...)
}

// Info writes an info-level log line with the given fields.
func Info(msg string, fields map[string]any) {
	Logger().Info(msg, toZap(fields)...)
}

// Warn writes a warn-level log line with the given fields.
func Warn(msg string, fields map[string]any) {
	Logger().Warn(msg, toZap(fields)...)
}

// Error writes an error-level log line with the given fields.
func Error(msg string, fields map[string]any) {
	Logger().Error(msg, toZap(fields)...)
}

func toZap(fields map[string]any) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		switch v := fields[k].(type) {
		case error:
			if v == nil {
				continue
			}
			out = append(out, zap.String(k, v.Error()))
		default:
			out = append(out, zap.Any(k, v))
		}
	}
	return out
}
