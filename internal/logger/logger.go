package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

type Level int32

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

var (
	currentLevel atomic.Int32
	logger       = log.New(os.Stderr, "", log.LstdFlags)
)

func init() {
	currentLevel.Store(int32(LevelInfo))
}

// SetLevel sets the logging level
func SetLevel(level Level) {
	currentLevel.Store(int32(level))
}

// GetLevel returns the current logging level
func GetLevel() Level {
	return Level(currentLevel.Load())
}

// SetOutput redirects all log lines to w
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

// ParseLevel converts a config value (error, warn, info, debug) into a Level
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return LevelError, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "info", "":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level: %q", s)
	}
}

// String returns the config spelling of the level
func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarn:
		return "warn"
	case LevelInfo:
		return "info"
	case LevelDebug:
		return "debug"
	default:
		return fmt.Sprintf("level(%d)", int32(l))
	}
}

func logf(level Level, tag, component, format string, v ...interface{}) {
	if GetLevel() >= level {
		logger.Printf("["+tag+"] [%s] "+format, append([]interface{}{component}, v...)...)
	}
}

// Debug logs a debug message with component prefix
func Debug(component, format string, v ...interface{}) {
	logf(LevelDebug, "DEBUG", component, format, v...)
}

// Info logs an info message with component prefix
func Info(component, format string, v ...interface{}) {
	logf(LevelInfo, "INFO", component, format, v...)
}

// Warn logs a warning with component prefix
func Warn(component, format string, v ...interface{}) {
	logf(LevelWarn, "WARN", component, format, v...)
}

// Error logs an error message with component prefix
func Error(component, format string, v ...interface{}) {
	logf(LevelError, "ERROR", component, format, v...)
}
