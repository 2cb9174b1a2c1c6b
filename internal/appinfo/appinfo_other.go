//go:build !darwin

package appinfo

// No portable frontmost-window query exists off macOS; provenance stays
// absent and Capture degrades gracefully.
func newProvider() Provider { return nil }
