//go:build !darwin

package clip

import (
	"log/slog"
	"sync"

	"golang.design/x/clipboard"

	"go.klb.dev/clipstash/internal/entry"
)

// portableBackend emulates a change counter on platforms whose clipboard API
// has none: every observed content transition bumps the counter, including
// the transition to empty that an internal Clear produces. A clear followed
// by an external copy therefore yields two distinct counter values and the
// monitor's tie-break rule holds unchanged.
type portableBackend struct {
	mu     sync.Mutex
	count  uint64
	lastFP uint64
	primed bool
}

// New returns the portable clipboard backend, or an in-process memory
// backend if the display environment is unavailable (e.g. a headless server
// without X11 or Wayland).
func New() Backend {
	if err := clipboard.Init(); err != nil {
		slog.Warn("clipboard unavailable, using memory backend", "err", err)
		return NewMemory()
	}
	return &portableBackend{}
}

func (b *portableBackend) Name() string { return "portable clipboard (emulated counter)" }

func (b *portableBackend) ChangeCount() (uint64, error) {
	text := clipboard.Read(clipboard.FmtText)
	fp := entry.Fingerprint(string(text))

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.primed {
		b.primed = true
		b.lastFP = fp
		return b.count, nil
	}
	if fp != b.lastFP {
		b.lastFP = fp
		b.count++
	}
	return b.count, nil
}

func (b *portableBackend) ReadString() (string, error) {
	return string(clipboard.Read(clipboard.FmtText)), nil
}

func (b *portableBackend) WriteString(s string) error {
	clipboard.Write(clipboard.FmtText, []byte(s))
	return nil
}

func (b *portableBackend) Clear() error {
	clipboard.Write(clipboard.FmtText, nil)
	return nil
}

func (b *portableBackend) Close() {}
