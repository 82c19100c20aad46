// Package logging wraps a single process-wide zap.SugaredLogger behind
// the same Debugf/Infof/Warnf/Errorf/SetLevel call-site API the engine
// used when it logged through the standard library, so call sites never
// had to change when the backend did.
package logging

import (
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	current atomic.Int32
	atomLvl = zap.NewAtomicLevelAt(zapcore.InfoLevel)

	mu     sync.RWMutex
	sugar  *zap.SugaredLogger
)

func init() {
	SetLevel(LevelInfo)
	rebuild()
}

func rebuild() {
	cfg := zap.NewProductionConfig()
	cfg.Level = atomLvl
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		logger = zap.NewNop()
	}
	mu.Lock()
	sugar = logger.Sugar()
	mu.Unlock()
}

func SetLevel(l Level) {
	current.Store(int32(l))
	atomLvl.SetLevel(toZapLevel(l))
}

func toZapLevel(l Level) zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func SetLevelFromString(value string) Level {
	level := LevelInfo
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		level = LevelDebug
	case "info":
		level = LevelInfo
	case "warn", "warning":
		level = LevelWarn
	case "error":
		level = LevelError
	default:
		if value != "" {
			Warnf("unknown log level '%s', defaulting to info", value)
		}
	}
	SetLevel(level)
	return level
}

func CurrentLevel() Level {
	return Level(current.Load())
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

func logger() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

func Debugf(format string, args ...any) { logger().Debugf(format, args...) }
func Infof(format string, args ...any)  { logger().Infof(format, args...) }
func Warnf(format string, args ...any)  { logger().Warnf(format, args...) }
func Errorf(format string, args ...any) { logger().Errorf(format, args...) }

// Sync flushes any buffered log entries. Call before process exit.
func Sync() error {
	return logger().Sync()
}
