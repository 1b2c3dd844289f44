package logger

import (
	"go.uber.org/zap"
)

// LoggerAdapter provides a unified interface for both single and multi-logger.
// Application services log through it so tests can run with a single
// in-memory or no-op logger.
type LoggerAdapter struct {
	multiLogger  *MultiLogger
	singleLogger *zap.Logger
	general      *zap.Logger
}

// NewLoggerAdapter combines category files with a general console logger
func NewLoggerAdapter(multiLogger *MultiLogger, general *zap.Logger) *LoggerAdapter {
	if general == nil {
		general = zap.NewNop()
	}
	return &LoggerAdapter{
		multiLogger: multiLogger,
		general:     general,
	}
}

// NewSingleLoggerAdapter sends every category to one logger
func NewSingleLoggerAdapter(logger *zap.Logger) *LoggerAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggerAdapter{
		singleLogger: logger,
		general:      logger,
	}
}

// General returns the console/service logger
func (la *LoggerAdapter) General() *zap.Logger {
	return la.general
}

// Job returns the job lifecycle logger
func (la *LoggerAdapter) Job() *zap.Logger {
	if la.multiLogger != nil {
		return la.multiLogger.Job()
	}
	return la.singleLogger
}

// Update returns the updater logger
func (la *LoggerAdapter) Update() *zap.Logger {
	if la.multiLogger != nil {
		return la.multiLogger.Update()
	}
	return la.singleLogger
}

// Error returns the error logger
func (la *LoggerAdapter) Error() *zap.Logger {
	if la.multiLogger != nil {
		return la.multiLogger.Error()
	}
	return la.singleLogger
}

// LogError logs an error to the error category and the general logger
func (la *LoggerAdapter) LogError(msg string, fields ...zap.Field) {
	la.general.Error(msg, fields...)
	if la.multiLogger != nil {
		la.multiLogger.LogAppError(msg, fields...)
	}
}

// Sync flushes all loggers
func (la *LoggerAdapter) Sync() error {
	var lastErr error
	if la.multiLogger != nil {
		lastErr = la.multiLogger.Sync()
	}
	if err := la.general.Sync(); err != nil {
		lastErr = err
	}
	return lastErr
}

// LogsDir returns the category log directory, or "" without a multi-logger
func (la *LoggerAdapter) LogsDir() string {
	if la.multiLogger != nil {
		return la.multiLogger.GetLogsDir()
	}
	return ""
}
