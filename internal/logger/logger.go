// Package logger prints leveled, colored messages to the terminal and, when a
// log file is configured, mirrors every message there as a structured record.
package logger

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Colors follow the level: green for info, magenta for warnings, red for
// errors and cyan for debug output.
var (
	infoColor  = color.New(color.FgGreen)
	warnColor  = color.New(color.FgHiMagenta)
	errorColor = color.New(color.FgRed)
	debugColor = color.New(color.FgCyan)
)

var (
	mu           sync.Mutex
	out          io.Writer = color.Output
	debugEnabled bool
	fileLog      *zap.Logger
)

// Init enables or disables debug output and, if logFile is not empty, opens a
// JSON log file that receives every message regardless of the terminal level.
func Init(enableDebug bool, logFile string) error {
	mu.Lock()
	defer mu.Unlock()

	debugEnabled = enableDebug
	if logFile == "" {
		fileLog = nil
		return nil
	}

	cfg := zap.NewProductionConfig()
	cfg.Sampling = nil
	cfg.OutputPaths = []string{logFile}
	cfg.ErrorOutputPaths = []string{logFile}
	cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", logFile, err)
	}
	fileLog = l
	return nil
}

// SetOutput redirects terminal output, returning the previous writer.
func SetOutput(w io.Writer) io.Writer {
	mu.Lock()
	defer mu.Unlock()
	prev := out
	out = w
	return prev
}

// Sync flushes the log file, if any.
func Sync() {
	mu.Lock()
	l := fileLog
	mu.Unlock()
	if l != nil {
		_ = l.Sync()
	}
}

// Info logs informational messages in green.
func Info(format string, a ...any) { emit(infoColor, zapcore.InfoLevel, format, a...) }

// Warn logs warnings in bright magenta.
func Warn(format string, a ...any) { emit(warnColor, zapcore.WarnLevel, format, a...) }

// Error logs errors in red.
func Error(format string, a ...any) { emit(errorColor, zapcore.ErrorLevel, format, a...) }

// Debug logs debug messages in cyan when debug output is enabled. The log
// file receives them either way.
func Debug(format string, a ...any) { emit(debugColor, zapcore.DebugLevel, format, a...) }

func emit(c *color.Color, level zapcore.Level, format string, a ...any) {
	mu.Lock()
	defer mu.Unlock()

	if level != zapcore.DebugLevel || debugEnabled {
		c.Fprintf(out, format, a...)
	}
	if fileLog == nil {
		return
	}
	msg := plain(fmt.Sprintf(format, a...))
	switch level {
	case zapcore.DebugLevel:
		fileLog.Debug(msg)
	case zapcore.WarnLevel:
		fileLog.Warn(msg)
	case zapcore.ErrorLevel:
		fileLog.Error(msg)
	default:
		fileLog.Info(msg)
	}
}

// plain strips the "[LEVEL] " tag and trailing newline from a console message.
func plain(msg string) string {
	msg = strings.TrimSpace(msg)
	if strings.HasPrefix(msg, "[") {
		if i := strings.Index(msg, "] "); i > 0 && i < 8 {
			msg = msg[i+2:]
		}
	}
	return msg
}
