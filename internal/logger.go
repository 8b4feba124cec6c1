package internal

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

// LogLevel represents different logging levels
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case LogLevelError:
		return "ERROR"
	case LogLevelWarn:
		return "WARN"
	case LogLevelInfo:
		return "INFO"
	case LogLevelDebug:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

// SecureLogger provides leveled logging with credential redaction. The api
// key travels in a header and occasionally in URLs; it must never reach logs.
type SecureLogger struct {
	logger    *log.Logger
	level     LogLevel
	quiet     bool
	redactors []Redactor
}

// Redactor defines an interface for redacting sensitive information
type Redactor interface {
	Redact(input string) string
}

// HeaderRedactor redacts credential-bearing header values from strings
type HeaderRedactor struct{}

func (r *HeaderRedactor) Redact(input string) string {
	patterns := []string{
		"apikey:",
		"apikey=",
		"Authorization:",
		"Bearer ",
		"Cookie:",
		"Set-Cookie:",
	}

	result := input
	for _, pattern := range patterns {
		lower := strings.ToLower(result)
		index := strings.Index(lower, strings.ToLower(pattern))
		if index == -1 {
			continue
		}
		start := index + len(pattern)
		for start < len(result) && result[start] == ' ' {
			start++
		}
		end := start
		for end < len(result) && result[end] != ' ' && result[end] != ';' && result[end] != '&' && result[end] != '\n' && result[end] != '\r' {
			end++
		}
		if end > start {
			result = result[:start] + "[REDACTED]" + result[end:]
		}
	}
	return result
}

// URLRedactor redacts sensitive URL query parameters
type URLRedactor struct{}

func (r *URLRedactor) Redact(input string) string {
	sensitiveParams := []string{
		"key=",
		"token=",
		"secret=",
		"expires=",
	}

	result := input
	for _, param := range sensitiveParams {
		lower := strings.ToLower(result)
		index := strings.Index(lower, param)
		if index == -1 {
			continue
		}
		start := index + len(param)
		end := start
		for end < len(result) && result[end] != '&' && result[end] != ' ' && result[end] != '\n' {
			end++
		}
		if end > start {
			result = result[:start] + "[REDACTED]" + result[end:]
		}
	}
	return result
}

// NewSecureLogger creates a new secure logger
func NewSecureLogger(output io.Writer, level LogLevel, quiet bool) *SecureLogger {
	return &SecureLogger{
		logger: log.New(output, "", 0),
		level:  level,
		quiet:  quiet,
		redactors: []Redactor{
			&HeaderRedactor{},
			&URLRedactor{},
		},
	}
}

// NewDefaultLogger creates a logger with default settings
func NewDefaultLogger(debug, quiet bool) *SecureLogger {
	level := LogLevelInfo
	if debug {
		level = LogLevelDebug
	}
	if quiet {
		level = LogLevelError
	}
	return NewSecureLogger(os.Stderr, level, quiet)
}

func (sl *SecureLogger) redactSensitiveData(input string) string {
	result := input
	for _, redactor := range sl.redactors {
		result = redactor.Redact(result)
	}
	return result
}

func (sl *SecureLogger) formatMessage(level LogLevel, message string) string {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	return fmt.Sprintf("[%s] %s %s", timestamp, level.String(), message)
}

func (sl *SecureLogger) shouldLog(level LogLevel) bool {
	if sl.quiet && level > LogLevelError {
		return false
	}
	return level <= sl.level
}

func (sl *SecureLogger) logf(level LogLevel, format string, args ...interface{}) {
	if !sl.shouldLog(level) {
		return
	}
	message := sl.redactSensitiveData(fmt.Sprintf(format, args...))
	sl.logger.Print(sl.formatMessage(level, message))
}

// Error logs an error message
func (sl *SecureLogger) Error(format string, args ...interface{}) {
	sl.logf(LogLevelError, format, args...)
}

// Warn logs a warning message
func (sl *SecureLogger) Warn(format string, args ...interface{}) {
	sl.logf(LogLevelWarn, format, args...)
}

// Info logs an info message
func (sl *SecureLogger) Info(format string, args ...interface{}) {
	sl.logf(LogLevelInfo, format, args...)
}

// Debug logs a debug message
func (sl *SecureLogger) Debug(format string, args ...interface{}) {
	sl.logf(LogLevelDebug, format, args...)
}

// LogHTTPResponse logs response status and rate-limit headers at debug level
func (sl *SecureLogger) LogHTTPResponse(resp *http.Response) {
	if !sl.shouldLog(LogLevelDebug) {
		return
	}
	sl.Debug("HTTP Response: %d %s daily=%s hourly=%s",
		resp.StatusCode, resp.Status,
		resp.Header.Get("x-rl-daily-remaining"),
		resp.Header.Get("x-rl-hourly-remaining"))
}

// SetLevel sets the logging level
func (sl *SecureLogger) SetLevel(level LogLevel) {
	sl.level = level
}

// SetQuiet enables or disables quiet mode
func (sl *SecureLogger) SetQuiet(quiet bool) {
	sl.quiet = quiet
	if quiet {
		sl.level = LogLevelError
	}
}
