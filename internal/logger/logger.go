// Package logger configures the process-wide zap logger for ragbank and
// offers printf-style helpers for pipeline tracing.
//
// Structured call sites use zap.L() directly; the helpers here are for
// human-oriented progress lines shown with --verbose.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Supported output formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	format            = FormatConsole
	base              = zapcore.WarnLevel
	level             = zap.NewAtomicLevelAt(zapcore.WarnLevel)
)

func init() {
	rebuild()
}

// Init sets the base level and encoding and installs the global logger.
// An empty levelName keeps the current level.
func Init(levelName, outputFormat string) error {
	mu.Lock()
	defer mu.Unlock()

	if levelName != "" {
		l, err := zapcore.ParseLevel(levelName)
		if err != nil {
			return eris.Wrap(err, "logger: parse log level")
		}
		base = l
	}
	switch outputFormat {
	case "", FormatConsole:
		format = FormatConsole
	case FormatJSON:
		format = FormatJSON
	default:
		return eris.Errorf("logger: unknown format %q", outputFormat)
	}
	applyLevel()
	rebuild()
	return nil
}

// SetVerbose enables or disables debug output.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	applyLevel()
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the destination of all log output.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	rebuild()
}

// Debug logs a formatted message at debug level.
func Debug(template string, args ...any) {
	zap.L().Debug(fmt.Sprintf(template, args...))
}

// Section logs a section header at debug level.
func Section(name string) {
	zap.L().Debug("=== " + name + " ===")
}

// Info logs a formatted message at info level.
func Info(template string, args ...any) {
	zap.L().Info(fmt.Sprintf(template, args...))
}

// Warn logs a formatted message at warn level.
func Warn(template string, args ...any) {
	zap.L().Warn(fmt.Sprintf(template, args...))
}

// Error logs a formatted message at error level.
func Error(template string, args ...any) {
	zap.L().Error(fmt.Sprintf(template, args...))
}

// Sync flushes buffered output. Errors from syncing terminals are ignored.
func Sync() {
	_ = zap.L().Sync()
}

// applyLevel must be called with mu held.
func applyLevel() {
	if verbose {
		level.SetLevel(zapcore.DebugLevel)
		return
	}
	level.SetLevel(base)
}

// rebuild must be called with mu held.
func rebuild() {
	var encoder zapcore.Encoder
	if format == FormatJSON {
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		encoder = zapcore.NewConsoleEncoder(cfg)
	}
	core := zapcore.NewCore(encoder, zapcore.AddSync(output), level)
	zap.ReplaceGlobals(zap.New(core))
}
