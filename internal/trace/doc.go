// Package trace configures logging for surgelsp.
//
// Logs are written with charmbracelet/log and always go to stderr: in
// language server mode stdout carries the editor protocol, so nothing else
// may write there.
//
// # Levels
//
//   - off: nothing is logged
//   - error: failures only
//   - warn: protocol problems and recoverable errors
//   - info: compiles and their outcome
//   - debug: everything, including per-package timings
//
// # Context propagation
//
// The server passes its logger to request handlers through context:
//
//	ctx = trace.WithLogger(ctx, logger)
//	l := trace.FromContext(ctx)
package trace
