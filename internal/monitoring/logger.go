// Package monitoring carries the pipeline's diagnostic logging: a single
// redirectable Logf plus component-scoped wrappers, so scan and reconcile
// diagnostics stay attributable when interleaved.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf;
// tests or callers that want quiet scans can redirect or mute it with
// SetLogger.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op
// logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Scoped returns a logging function that prefixes every message with the
// component name. The returned function reads Logf at call time, so later
// SetLogger redirects apply to already-created scopes.
func Scoped(component string) func(format string, v ...interface{}) {
	return func(format string, v ...interface{}) {
		Logf(component+": "+format, v...)
	}
}
