// Package logging is the levelled logger shared by the code generator,
// the VM and the command line tool.
package logging

import (
	"io"
	"os"
	"sync"
)

// Enumeration of the different log levels
const (
	LogLevelSilent  = iota // no output at all
	LogLevelError          // only errors
	LogLevelWarning        // errors and warnings (DEFAULT)
	LogLevelVerbose        // errors, warnings, bailout traces and progress
)

// Logger stores the output settings and counts the errors it has shown.
type Logger struct {
	LogLevel   int
	errorCount int

	out io.Writer

	// m synchronizes printing; several functions may be generated at once
	m sync.Mutex
}

func newLogger(out io.Writer, loglevel int) *Logger {
	return &Logger{LogLevel: loglevel, out: out}
}

// logger is the global Logger used by the package level functions.
var logger = newLogger(os.Stderr, LogLevelWarning)

// ParseLevel converts a level name to a log level. Unknown names select
// the verbose level.
func ParseLevel(name string) int {
	switch name {
	case "silent":
		return LogLevelSilent
	case "error":
		return LogLevelError
	case "warning":
		return LogLevelWarning
	default:
		return LogLevelVerbose
	}
}

// Initialize sets the global log level from its name.
func Initialize(loglevelname string) {
	logger.m.Lock()
	logger.LogLevel = ParseLevel(loglevelname)
	logger.errorCount = 0
	logger.m.Unlock()
}

// SetOutput redirects all log output to w.
func SetOutput(w io.Writer) {
	logger.m.Lock()
	logger.out = w
	logger.m.Unlock()
}

// Level returns the current global log level.
func Level() int {
	logger.m.Lock()
	defer logger.m.Unlock()
	return logger.LogLevel
}

// ShouldProceed reports whether no errors have been logged.
func ShouldProceed() bool {
	logger.m.Lock()
	defer logger.m.Unlock()
	return logger.errorCount == 0
}

// handle prints text if level is enabled.
func (l *Logger) handle(level int, text string) {
	l.m.Lock()
	defer l.m.Unlock()

	if level == LogLevelError {
		l.errorCount++
	}
	if l.LogLevel >= level {
		io.WriteString(l.out, text)
	}
}
