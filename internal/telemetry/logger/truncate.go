// Package logger provides structured logging for KevaDB.
package logger

import (
	"log/slog"
	"strconv"
)

// maxLoggedValue caps how many bytes of a string attribute make it
// into a log line. Stored payloads can be hundreds of kilobytes and
// must never be dumped into logs whole.
const maxLoggedValue = 128

// truncateLarge shortens oversized string attributes, keeping a size
// hint so the line stays diagnosable.
func truncateLarge(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindString {
		if s := a.Value.String(); len(s) > maxLoggedValue {
			return slog.String(a.Key, Truncate(s))
		}
	}

	// Handle nested groups recursively.
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = truncateLarge(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}

	return a
}

// Truncate shortens a string for logging, appending the original
// length. Use this when building log values by hand.
func Truncate(s string) string {
	if len(s) <= maxLoggedValue {
		return s
	}
	return s[:maxLoggedValue] + "... (" + strconv.Itoa(len(s)) + " bytes)"
}
