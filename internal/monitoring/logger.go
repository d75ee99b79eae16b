// Package monitoring holds the shared diagnostic logger for the simulator
// and its tools.
package monitoring

import (
	"log"
	"sync/atomic"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but
// may be replaced by SetLogger. Tests or production code can redirect or
// mute it.
var Logf func(format string, v ...any) = log.Printf

// verbose gates Debugf output.
var verbose atomic.Bool

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...any)) {
	if f == nil {
		Logf = func(string, ...any) {}
		return
	}
	Logf = f
}

// SetVerbose enables or disables Debugf output.
func SetVerbose(on bool) {
	verbose.Store(on)
}

// Debugf logs through Logf only when verbose output is enabled. Per-step
// simulator diagnostics go through here so quiet runs stay quiet.
func Debugf(format string, v ...any) {
	if verbose.Load() {
		Logf(format, v...)
	}
}
