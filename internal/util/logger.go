package util

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger   *zap.Logger
	initOnce sync.Once
)

// Init builds the process logger once. Production gets sampled JSON with
// ISO-8601 timestamps; development gets a colored console encoder. The
// encoding can be forced either way with format ("json" or "console").
func Init(environment, level, format string) *zap.Logger {
	initOnce.Do(func() {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		if environment == "production" {
			cfg = zap.NewProductionConfig()
			cfg.EncoderConfig.TimeKey = "timestamp"
			cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
			cfg.DisableStacktrace = true
			cfg.Sampling = &zap.SamplingConfig{Initial: 100, Thereafter: 100}
		}

		cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))
		cfg.Encoding = "console"
		if format == "json" {
			cfg.Encoding = "json"
		}

		// Containers collect stdout; never write files.
		cfg.OutputPaths = []string{"stdout"}
		cfg.ErrorOutputPaths = []string{"stderr"}

		built, err := cfg.Build(zap.AddCaller(), zap.AddCallerSkip(1))
		if err != nil {
			panic("logger init: " + err.Error())
		}
		logger = built
		zap.ReplaceGlobals(logger)
	})

	return logger
}

// Get returns the process logger, initializing a safe production default
// when Init has not run (tests, early startup failures).
func Get() *zap.Logger {
	if logger == nil {
		return Init("production", "info", "json")
	}
	return logger
}

// Sync flushes buffered entries. Called on shutdown.
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func Debug(msg string, fields ...zap.Field) { Get().Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { Get().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { Get().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { Get().Error(msg, fields...) }
func Fatal(msg string, fields ...zap.Field) { Get().Fatal(msg, fields...) }

// Field helpers so call sites don't import zap directly.

func String(key, value string) zap.Field { return zap.String(key, value) }

func Bool(key string, value bool) zap.Field { return zap.Bool(key, value) }

func Int(key string, value int) zap.Field { return zap.Int(key, value) }

func Int64(key string, value int64) zap.Field { return zap.Int64(key, value) }

func Any(key string, value interface{}) zap.Field { return zap.Any(key, value) }

func Duration(key string, value time.Duration) zap.Field { return zap.Duration(key, value) }

// ErrorField wraps an error; named to avoid clashing with Error above.
func ErrorField(err error) zap.Field { return zap.Error(err) }
