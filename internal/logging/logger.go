// Package logging provides config-driven categorized file-based logging for shelf.
// Logs are written under the configured directory with one file per category.
// Logging is controlled by logging.debug_mode - when false, no logs are written.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"shelf/internal/config"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot    Category = "boot"    // Boot/initialization
	CategorySession Category = "session" // Interactive menu loop
	CategoryStore   Category = "store"   // Library document load/save
	CategoryCatalog Category = "catalog" // In-memory mutations and queries
	CategoryCLI     Category = "cli"     // One-shot subcommands
)

// Logger wraps a sugared zap logger bound to one category file.
type Logger struct {
	category Category
	sugar    *zap.SugaredLogger
	file     *os.File
}

var (
	loggers   = make(map[Category]*Logger)
	loggersMu sync.RWMutex

	cfg       config.LoggingConfig
	level     zapcore.Level
	sessionID string
	configMu  sync.RWMutex
)

// Initialize applies the logging config and starts a new session id.
// Nothing touches the disk unless debug mode is enabled.
func Initialize(lc config.LoggingConfig) error {
	CloseAll()

	configMu.Lock()
	cfg = lc
	sessionID = uuid.NewString()
	lvl, err := zapcore.ParseLevel(lc.Level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	level = lvl
	configMu.Unlock()

	if !lc.DebugMode {
		return nil
	}

	if lc.Dir == "" {
		return fmt.Errorf("log directory required when debug_mode is on")
	}
	if err := os.MkdirAll(lc.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	boot := Get(CategoryBoot)
	boot.Info("=== shelf logging initialized ===")
	boot.Info("Logs directory: %s", lc.Dir)
	boot.Info("Log level: %s", level)
	if len(lc.Categories) > 0 {
		enabled := 0
		for cat, on := range lc.Categories {
			if on {
				enabled++
			}
			boot.Debug("Category '%s': %v", cat, on)
		}
		boot.Info("Enabled categories: %d/%d", enabled, len(lc.Categories))
	} else {
		boot.Info("All categories enabled (no category filter)")
	}

	return nil
}

// SessionID returns the id stamped on every entry of this run.
func SessionID() string {
	configMu.RLock()
	defer configMu.RUnlock()
	return sessionID
}

// IsDebugMode returns whether debug logging is enabled
func IsDebugMode() bool {
	configMu.RLock()
	defer configMu.RUnlock()
	return cfg.DebugMode
}

// IsCategoryEnabled returns whether a specific category is enabled
func IsCategoryEnabled(category Category) bool {
	configMu.RLock()
	defer configMu.RUnlock()
	return cfg.IsCategoryEnabled(string(category))
}

func nopLogger(category Category) *Logger {
	return &Logger{category: category, sugar: zap.NewNop().Sugar()}
}

// Get returns (or creates) a logger for the given category.
// Returns a no-op logger if debug mode is disabled or category is disabled.
func Get(category Category) *Logger {
	if !IsCategoryEnabled(category) {
		return nopLogger(category)
	}

	loggersMu.RLock()
	if l, ok := loggers[category]; ok {
		loggersMu.RUnlock()
		return l
	}
	loggersMu.RUnlock()

	loggersMu.Lock()
	defer loggersMu.Unlock()

	if l, ok := loggers[category]; ok {
		return l
	}

	configMu.RLock()
	dir, format, lvl, sid := cfg.Dir, cfg.Format, level, sessionID
	configMu.RUnlock()

	date := time.Now().Format("2006-01-02")
	logPath := filepath.Join(dir, fmt.Sprintf("%s_%s.log", date, category))

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[logging] Warning: could not open log file %s: %v\n", logPath, err)
		return nopLogger(category)
	}

	core := zapcore.NewCore(newEncoder(format), zapcore.AddSync(file), lvl)
	l := &Logger{
		category: category,
		file:     file,
		sugar: zap.New(core).Sugar().With(
			zap.String("cat", string(category)),
			zap.String("session", sid),
		),
	}
	loggers[category] = l

	return l
}

func newEncoder(format string) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	if format == "json" {
		return zapcore.NewJSONEncoder(ec)
	}
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewConsoleEncoder(ec)
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

// CloseAll flushes and closes all open log files (call at shutdown)
func CloseAll() {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if boot, ok := loggers[CategoryBoot]; ok {
		boot.Info("=== shelf logging closed ===")
	}
	for _, l := range loggers {
		_ = l.sugar.Sync()
		if l.file != nil {
			l.file.Close()
		}
	}
	loggers = make(map[Category]*Logger)

	closeAudit()
}

// =============================================================================
// CONVENIENCE FUNCTIONS - no-ops if the category is disabled
// =============================================================================

// Boot logs to the boot category
func Boot(format string, args ...interface{}) {
	Get(CategoryBoot).Info(format, args...)
}

// BootError logs an error to the boot category
func BootError(format string, args ...interface{}) {
	Get(CategoryBoot).Error(format, args...)
}

// Session logs to the session category
func Session(format string, args ...interface{}) {
	Get(CategorySession).Info(format, args...)
}

// SessionDebug logs debug to the session category
func SessionDebug(format string, args ...interface{}) {
	Get(CategorySession).Debug(format, args...)
}

// SessionWarn logs a warning to the session category
func SessionWarn(format string, args ...interface{}) {
	Get(CategorySession).Warn(format, args...)
}

// Store logs to the store category
func Store(format string, args ...interface{}) {
	Get(CategoryStore).Info(format, args...)
}

// StoreDebug logs debug to the store category
func StoreDebug(format string, args ...interface{}) {
	Get(CategoryStore).Debug(format, args...)
}

// StoreWarn logs a warning to the store category
func StoreWarn(format string, args ...interface{}) {
	Get(CategoryStore).Warn(format, args...)
}

// CatalogDebug logs debug to the catalog category
func CatalogDebug(format string, args ...interface{}) {
	Get(CategoryCatalog).Debug(format, args...)
}

// CLI logs to the cli category
func CLI(format string, args ...interface{}) {
	Get(CategoryCLI).Info(format, args...)
}

// CLIError logs an error to the cli category
func CLIError(format string, args ...interface{}) {
	Get(CategoryCLI).Error(format, args...)
}

// =============================================================================
// TIMERS
// =============================================================================

// Timer measures one operation and logs its duration on Stop.
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation
func StartTimer(category Category, operation string) *Timer {
	return &Timer{
		category: category,
		op:       operation,
		start:    time.Now(),
	}
}

// Stop ends the timer and logs the duration
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithThreshold logs warning if duration exceeds threshold
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(t.category).Warn("%s took %v (threshold: %v)", t.op, elapsed, threshold)
	} else {
		Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	}
	return elapsed
}
