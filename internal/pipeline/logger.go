package pipeline

import (
	"io"
	"log"
	"os"
)

var (
	// Logger receives all pipeline diagnostics.
	Logger *log.Logger

	// Verbose controls whether debug messages are printed.
	Verbose bool
)

func init() {
	Logger = log.New(os.Stderr, "", log.Ltime|log.Lmicroseconds)

	// Environment opt-in, overridable by SetVerbose when a --verbose flag
	// is parsed later.
	Verbose = os.Getenv("CGOGEN_VERBOSE") == "1"
}

// SetVerbose enables or disables verbose logging at runtime.
func SetVerbose(enabled bool) {
	Verbose = enabled
}

// SetOutput redirects logger output (useful for testing).
func SetOutput(w io.Writer) {
	Logger.SetOutput(w)
}

// Debugf prints a debug message if verbose mode is enabled.
func Debugf(format string, args ...any) {
	if Verbose {
		Logger.Printf("[DEBUG] "+format, args...)
	}
}

// Infof prints an info message if verbose mode is enabled.
func Infof(format string, args ...any) {
	if Verbose {
		Logger.Printf("[INFO] "+format, args...)
	}
}

// Warnf prints a warning message if verbose mode is enabled.
func Warnf(format string, args ...any) {
	if Verbose {
		Logger.Printf("[WARN] "+format, args...)
	}
}

// Errorf always prints an error message regardless of verbose mode.
func Errorf(format string, args ...any) {
	Logger.Printf("[ERROR] "+format, args...)
}
