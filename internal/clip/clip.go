// Package clip provides the system clipboard adapter used by the monitor and
// the copy/recopy operations. Build constraints select the implementation:
//
//	clip_darwin.go   — macOS via golang.design/x/clipboard + cgo changeCount
//	clip_portable.go — everywhere else via golang.design/x/clipboard with an
//	                   emulated change counter
//	memory.go        — in-process backend for tests and headless hosts
//
// The clipboard is an externally-owned shared resource: its contents can
// change, lag, or vanish between calls, and every adapter read may fail.
package clip

// Backend is the clipboard adapter contract.
type Backend interface {
	// Name returns a human-readable name for the backend.
	Name() string

	// ChangeCount returns a counter that differs every time the clipboard
	// content changes, whoever caused the change. Internal clears bump it
	// just like external writes.
	ChangeCount() (uint64, error)

	// ReadString returns the current textual clipboard content, empty when
	// the clipboard holds no text.
	ReadString() (string, error)

	// WriteString replaces the clipboard content with s.
	WriteString(s string) error

	// Clear empties the clipboard. The change counter still advances.
	Clear() error

	// Close releases any resources held by the backend.
	Close()
}
