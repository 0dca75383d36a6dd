// Package logging builds the zap loggers used across fragnav.
// Every subsystem gets a logger named after its category; categories can be
// switched off in the logging section of the config.
package logging

import (
	"fmt"
	"strings"

	"fragnav/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot      Category = "boot"      // Boot sequence, last-resort error sink
	CategoryNavigator Category = "navigator" // Fragment navigation state machine
	CategoryFetch     Category = "fetch"     // Fragment and external data transport
	CategoryNotify    Category = "notify"    // Notification lifecycle
	CategoryBrowser   Category = "browser"   // Rod browser backend
	CategoryScript    Category = "script"    // Executable block runtime
	CategorySite      Category = "site"      // Static site server
	CategoryWatch     Category = "watch"     // Fragment file watcher
	CategoryTUI       Category = "tui"       // Terminal shell
)

// Build returns the root logger for the given config. verbose forces debug level.
func Build(cfg config.LoggingConfig, verbose bool) (*zap.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if verbose {
		level = zapcore.DebugLevel
	}

	var zc zap.Config
	switch strings.ToLower(cfg.Format) {
	case "text", "console":
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// ParseLevel maps a config level string to a zap level. Empty means info.
func ParseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

// For returns the named logger of a category, or a no-op logger when the
// category is disabled. A nil base yields a no-op logger.
func For(base *zap.Logger, cat Category, cfg config.LoggingConfig) *zap.Logger {
	if base == nil || !cfg.IsCategoryEnabled(string(cat)) {
		return zap.NewNop()
	}
	return base.Named(string(cat))
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
