// Package logger provides the shared zap sugared logger.
// Init configures it from the loaded config; GetLogger falls back to a
// development logger at info level when Init was never called (tests, tools).
package logger

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger *zap.SugaredLogger
	once   sync.Once
)

func build(levelStr, env string) *zap.SugaredLogger {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(levelStr)); err != nil {
		level = zapcore.InfoLevel
	}

	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
		cfg.OutputPaths = []string{"stdout"}
		cfg.ErrorOutputPaths = []string{"stderr"}
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	zapLogger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	return zapLogger.Sugar()
}

// Init initializes the global logger once. Later calls are no-ops.
func Init(level, env string) {
	once.Do(func() {
		logger = build(level, env)
	})
}

// GetLogger returns the shared logger, initializing a default one if needed.
func GetLogger() *zap.SugaredLogger {
	once.Do(func() {
		logger = build(os.Getenv("LOG_LEVEL"), os.Getenv("APP_ENV"))
	})
	return logger
}

// Close flushes buffered log entries. Call before the process exits.
func Close() error {
	if logger == nil {
		return nil
	}
	if err := logger.Sync(); err != nil {
		fmt.Fprintf(os.Stderr, "Error syncing logger: %v\n", err)
		return err
	}
	return nil
}
