// Package logger provides logging for the recall CLI.
// When verbose mode is enabled via the --verbose flag, messages are
// printed to stderr to help users follow ingestion and retrieval.
// Independently, EnableFile tees structured records to a rotating
// log file so long-running servers keep a trace.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu      sync.Mutex
	verbose bool
	output  io.Writer = os.Stderr
	file    *zap.Logger
	rotator *lumberjack.Logger
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.Lock()
	defer mu.Unlock()
	return verbose
}

// SetOutput sets the output writer for verbose logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// EnableFile starts writing JSON log records to path, rotated by size.
// Info and warnings are always recorded; debug records only in verbose mode.
func EnableFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}
	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	core := zapcore.NewCore(encoder, zapcore.AddSync(w), zapcore.DebugLevel)

	mu.Lock()
	defer mu.Unlock()
	closeFileLocked()
	rotator = w
	file = zap.New(core)
	return nil
}

// Close flushes and closes the log file, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	return closeFileLocked()
}

func closeFileLocked() error {
	if file == nil {
		return nil
	}
	_ = file.Sync()
	err := rotator.Close()
	file, rotator = nil, nil
	return err
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if !verbose {
		return
	}
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(output, "[DEBUG] %s\n", msg)
	if file != nil {
		file.Debug(msg)
	}
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.Lock()
	defer mu.Unlock()
	if !verbose {
		return
	}
	fmt.Fprintf(output, "\n=== %s ===\n", name)
	if file != nil {
		file.Debug("section", zap.String("name", name))
	}
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	msg := fmt.Sprintf(format, args...)
	if verbose {
		fmt.Fprintf(output, "[INFO] %s\n", msg)
	}
	if file != nil {
		file.Info(msg)
	}
}

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	msg := fmt.Sprintf(format, args...)
	if verbose {
		fmt.Fprintf(output, "[WARN] %s\n", msg)
	}
	if file != nil {
		file.Warn(msg)
	}
}
