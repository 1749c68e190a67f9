// Package logger is the logging seam of go-mbrtu.
//
// Every component takes a [Logger] and logs key/value pairs such as
// "slaveID", "fc" and "error". [NewSlog] is the default implementation;
// set ENV=development for colored console output. Wire frames are logged
// at debug level as [Frame] values.
package logger

import (
	"fmt"
	"strings"
)

// Level indicates the logging severity level.
type Level = int8

// Levels in increasing severity. InfoLevel is the zero value.
const (
	DebugLevel Level = iota - 1 // frame dumps, retries, dropped responses
	InfoLevel                   // link open/close, poll results
	WarnLevel                   // request timeouts, framing errors
	ErrorLevel                  // link failures
	FatalLevel                  // logs, then os.Exit(1)
)

// ParseLevel converts a level name ("debug", "info", "warn", "error", "fatal") to a Level.
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return DebugLevel, nil
	case "", "info":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	case "fatal":
		return FatalLevel, nil
	default:
		return InfoLevel, fmt.Errorf("logger: unknown level %q", name)
	}
}

// Logger is implemented by SlogLogger and MockLogger. Adapters for other
// logging libraries only need these methods.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
	// Fatal logs at FatalLevel. SlogLogger then exits with status 1.
	Fatal(msg string, keysAndValues ...any)
	// With returns a child logger that prefixes keyValues to every entry.
	With(keyValues ...any) Logger
	Level() Level
	SetLevel(level Level)
}
