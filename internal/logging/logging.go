// Package logging provides the proxy's ambient logging facade: a thin
// wrapper around the standard library's log.Logger, in keeping with the
// teacher codebase's direct use of log.Printf/log.Println rather than a
// structured logging library.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
)

// Logger gates debug/trace output behind a verbosity flag, the way the
// proxy's CLI exposes -verbose/PROXY_VERBOSE. Loggers returned by WithConn
// also prefix every line with a connection id; New and Default add no prefix.
type Logger struct {
	info    *log.Logger
	debug   *log.Logger
	verbose bool
}

// New creates a Logger writing to w. When verbose is false, Debugf and
// Tracef calls are silently dropped.
func New(w io.Writer, verbose bool) *Logger {
	return &Logger{
		info:    log.New(w, "", log.LstdFlags),
		debug:   log.New(w, "DEBUG ", log.LstdFlags),
		verbose: verbose,
	}
}

// Default returns a Logger writing to stderr at the given verbosity.
func Default(verbose bool) *Logger {
	return New(os.Stderr, verbose)
}

// Infof logs an informational line.
func (l *Logger) Infof(format string, args ...any) {
	l.info.Printf(format, args...)
}

// Errorf logs an error line, including the full wrapped-error context
// chain — %v on a wrapped error already renders that chain in one line.
func (l *Logger) Errorf(format string, args ...any) {
	l.info.Printf("ERROR "+format, args...)
}

// Debugf logs a debug line when verbose logging is enabled.
func (l *Logger) Debugf(format string, args ...any) {
	if !l.verbose {
		return
	}
	l.debug.Printf(format, args...)
}

// Tracef logs a trace line when verbose logging is enabled. Trace is kept
// distinct from Debugf only at the call-site label, to avoid a third
// underlying Logger for what both gate on the same verbosity flag.
func (l *Logger) Tracef(format string, args ...any) {
	if !l.verbose {
		return
	}
	l.debug.Printf("TRACE "+format, args...)
}

// WithConn returns a Logger whose lines are prefixed with a connection id,
// built from the current Logger's configuration.
func (l *Logger) WithConn(id string) *Logger {
	prefix := fmt.Sprintf("[%s] ", id)
	return &Logger{
		info:    log.New(l.info.Writer(), prefix, log.LstdFlags),
		debug:   log.New(l.debug.Writer(), prefix+"DEBUG ", log.LstdFlags),
		verbose: l.verbose,
	}
}
