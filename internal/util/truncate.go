package util

import "fmt"

// DefaultLogMaxLen is the default maximum length for truncated log output (1KB).
// Upstream error bodies can be arbitrarily large; log lines should not be.
const DefaultLogMaxLen = 1024

// TruncateLog truncates long strings for logging while keeping enough of the
// payload to diagnose failures.
func TruncateLog(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + fmt.Sprintf("... [truncated, %d bytes total]", len(s))
}

// TruncateBytes is a convenience wrapper for TruncateLog that accepts []byte
// and uses DefaultLogMaxLen.
func TruncateBytes(b []byte) string {
	return TruncateLog(string(b), DefaultLogMaxLen)
}
