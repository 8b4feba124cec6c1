package internal

import (
	"io"
	"os"
	"strings"
	"sync"
)

var (
	// Global logger instance
	globalLogger *SecureLogger
	loggerMutex  sync.RWMutex
)

// InitLogger initializes the global logger with the given configuration
func InitLogger(config *Config) error {
	loggerMutex.Lock()
	defer loggerMutex.Unlock()

	level := parseLogLevel(config.LogLevel)
	if config.EnableDebug {
		level = LogLevelDebug
	}

	var output io.Writer = os.Stderr
	if config.LogFile != "" {
		file, err := os.OpenFile(config.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return NewNexusError("failed to open log file", ErrInvalidInput).WithCause(err)
		}
		output = file
	}

	globalLogger = NewSecureLogger(output, level, config.QuietMode)
	return nil
}

// GetLogger returns the global logger instance
func GetLogger() *SecureLogger {
	loggerMutex.RLock()
	logger := globalLogger
	loggerMutex.RUnlock()
	if logger != nil {
		return logger
	}

	loggerMutex.Lock()
	defer loggerMutex.Unlock()
	if globalLogger == nil {
		globalLogger = NewDefaultLogger(false, false)
	}
	return globalLogger
}

// parseLogLevel converts string log level to LogLevel enum
func parseLogLevel(level string) LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return LogLevelDebug
	case "info":
		return LogLevelInfo
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// LogError logs an error message using the global logger
func LogError(format string, args ...interface{}) {
	GetLogger().Error(format, args...)
}

// LogWarn logs a warning message using the global logger
func LogWarn(format string, args ...interface{}) {
	GetLogger().Warn(format, args...)
}

// LogInfo logs an info message using the global logger
func LogInfo(format string, args ...interface{}) {
	GetLogger().Info(format, args...)
}

// LogDebug logs a debug message using the global logger
func LogDebug(format string, args ...interface{}) {
	GetLogger().Debug(format, args...)
}
