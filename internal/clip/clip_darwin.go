//go:build darwin

package clip

// #cgo CFLAGS: -x objective-c
// #cgo LDFLAGS: -framework Cocoa
// #import <Cocoa/Cocoa.h>
//
// NSInteger clipstash_changeCount() {
//     return [[NSPasteboard generalPasteboard] changeCount];
// }
//
// void clipstash_clearContents() {
//     [[NSPasteboard generalPasteboard] clearContents];
// }
import "C"

import (
	"log/slog"

	"golang.design/x/clipboard"
)

type darwinBackend struct{}

// New returns the macOS clipboard backend, falling back to an in-process
// memory backend when the pasteboard is unavailable.
// clipboard.Init is called here rather than in init() so that CLI
// sub-commands that never construct a Backend don't log spurious warnings.
func New() Backend {
	if err := clipboard.Init(); err != nil {
		slog.Warn("clipboard unavailable, using memory backend", "err", err)
		return NewMemory()
	}
	return darwinBackend{}
}

func (darwinBackend) Name() string { return "macOS NSPasteboard" }

// ChangeCount reads NSPasteboard's native change count. clearContents and
// external writes both advance it, which is exactly what the monitor's
// counter-compare rule needs.
func (darwinBackend) ChangeCount() (uint64, error) {
	return uint64(C.clipstash_changeCount()), nil
}

func (darwinBackend) ReadString() (string, error) {
	return string(clipboard.Read(clipboard.FmtText)), nil
}

func (darwinBackend) WriteString(s string) error {
	clipboard.Write(clipboard.FmtText, []byte(s))
	return nil
}

func (darwinBackend) Clear() error {
	C.clipstash_clearContents()
	return nil
}

func (darwinBackend) Close() {}
