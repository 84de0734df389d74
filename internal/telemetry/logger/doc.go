// Package logger configures the process-wide structured logger.
//
// All KevaDB components log through log/slog; this package owns
// handler construction, the shared level var for runtime level
// changes, and attribute truncation for large stored values.
package logger
