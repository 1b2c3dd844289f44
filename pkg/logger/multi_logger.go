package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogCategory represents different log categories
type LogCategory string

const (
	CategoryJob    LogCategory = "job"    // Download job lifecycle (JSON)
	CategoryUpdate LogCategory = "update" // yt-dlp updates and ffmpeg installs (JSON)
	CategoryError  LogCategory = "error"  // Application errors (JSON)
	CategoryOutput LogCategory = "output" // Raw yt-dlp output, written by the job log sink
)

// structuredCategories are the categories MultiLogger owns a zap logger for
var structuredCategories = []LogCategory{CategoryJob, CategoryUpdate, CategoryError}

// Categories lists every category that can be read back through LogReader
func Categories() []LogCategory {
	return []LogCategory{CategoryJob, CategoryUpdate, CategoryError, CategoryOutput}
}

// MultiLogger provides categorized logging with one dated file per category.
// Files roll over to a new name when the date changes.
type MultiLogger struct {
	loggers     map[LogCategory]*zap.Logger
	files       map[LogCategory]*os.File
	config      MultiLoggerConfig
	level       zapcore.Level
	mu          sync.RWMutex
	currentDate string
}

// MultiLoggerConfig contains configuration for multi-output logging
type MultiLoggerConfig struct {
	Level   string // debug, info, warn, error
	LogsDir string // Directory for log files
}

// NewMultiLogger creates a new multi-output logger
func NewMultiLogger(config MultiLoggerConfig) (*MultiLogger, error) {
	if config.LogsDir == "" {
		return nil, fmt.Errorf("logs_dir must be specified")
	}

	if err := os.MkdirAll(config.LogsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	level, err := zapcore.ParseLevel(config.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	ml := &MultiLogger{
		config: config,
		level:  level,
	}
	if err := ml.open(time.Now().Format("20060102")); err != nil {
		return nil, err
	}
	return ml, nil
}

// open creates the category loggers for a date. Caller holds mu or is the constructor.
func (ml *MultiLogger) open(date string) error {
	loggers := make(map[LogCategory]*zap.Logger, len(structuredCategories))
	files := make(map[LogCategory]*os.File, len(structuredCategories))

	for _, category := range structuredCategories {
		level := ml.level
		if category == CategoryError {
			level = zapcore.ErrorLevel
		}
		logger, file, err := ml.createStructuredLogger(category, date, level)
		if err != nil {
			for _, f := range files {
				f.Close()
			}
			return fmt.Errorf("failed to create %s logger: %w", category, err)
		}
		loggers[category] = logger
		files[category] = file
	}

	for _, f := range ml.files {
		f.Close()
	}
	ml.loggers = loggers
	ml.files = files
	ml.currentDate = date
	return nil
}

// createStructuredLogger creates a JSON-formatted logger for a category
func (ml *MultiLogger) createStructuredLogger(category LogCategory, date string, level zapcore.Level) (*zap.Logger, *os.File, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.MessageKey = "message"
	encoderConfig.LevelKey = "level"
	encoderConfig.CallerKey = ""

	logPath := filepath.Join(ml.config.LogsDir, fmt.Sprintf("%s-%s.log", category, date))
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, err
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(file), level)
	return zap.New(core).With(zap.String("category", string(category))), file, nil
}

// rotateIfNeeded switches to new files after midnight
func (ml *MultiLogger) rotateIfNeeded() {
	today := time.Now().Format("20060102")

	ml.mu.RLock()
	current := ml.currentDate
	ml.mu.RUnlock()
	if current == today {
		return
	}

	ml.mu.Lock()
	defer ml.mu.Unlock()
	if ml.currentDate == today {
		return
	}
	// keep yesterday's loggers if the new files cannot be opened
	_ = ml.open(today)
}

// GetLogsDir returns the logs directory path
func (ml *MultiLogger) GetLogsDir() string {
	return ml.config.LogsDir
}

// GetLogger returns the structured logger for a specific category
func (ml *MultiLogger) GetLogger(category LogCategory) *zap.Logger {
	ml.rotateIfNeeded()

	ml.mu.RLock()
	defer ml.mu.RUnlock()

	if logger, ok := ml.loggers[category]; ok {
		return logger
	}

	// Return error logger as fallback
	return ml.loggers[CategoryError]
}

// Job returns the job lifecycle logger
func (ml *MultiLogger) Job() *zap.Logger {
	return ml.GetLogger(CategoryJob)
}

// Update returns the updater logger
func (ml *MultiLogger) Update() *zap.Logger {
	return ml.GetLogger(CategoryUpdate)
}

// Error returns the error logger
func (ml *MultiLogger) Error() *zap.Logger {
	return ml.GetLogger(CategoryError)
}

// LogAppError logs an application-level error (Go errors, panics)
func (ml *MultiLogger) LogAppError(msg string, fields ...zap.Field) {
	ml.Error().Error(msg, fields...)
}

// LogJobEvent logs a job lifecycle event with structured data
func (ml *MultiLogger) LogJobEvent(event string, fields ...zap.Field) {
	ml.Job().Info(event, fields...)
}

// LogUpdateEvent logs an update or install step
func (ml *MultiLogger) LogUpdateEvent(event string, fields ...zap.Field) {
	ml.Update().Info(event, fields...)
}

// Sync flushes all loggers
func (ml *MultiLogger) Sync() error {
	ml.mu.RLock()
	defer ml.mu.RUnlock()

	var lastErr error
	for _, logger := range ml.loggers {
		if err := logger.Sync(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Close flushes all loggers and closes their files
func (ml *MultiLogger) Close() error {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	var lastErr error
	for _, logger := range ml.loggers {
		if err := logger.Sync(); err != nil {
			lastErr = err
		}
	}
	for _, file := range ml.files {
		if err := file.Close(); err != nil {
			lastErr = err
		}
	}
	ml.files = nil
	return lastErr
}
