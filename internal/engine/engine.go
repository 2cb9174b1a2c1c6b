// Package engine is the serialization point of the history pipeline. Every
// mutation (monitor submissions, collaborator operations, the initial load,
// the auto-clear timer) is applied under one lock, in submission order;
// snapshot reads observe consistent state under the same lock.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.klb.dev/clipstash/internal/appinfo"
	"go.klb.dev/clipstash/internal/clip"
	"go.klb.dev/clipstash/internal/clock"
	"go.klb.dev/clipstash/internal/entry"
	"go.klb.dev/clipstash/internal/history"
	"go.klb.dev/clipstash/internal/persist"
)

// ErrNotFound is returned for operations addressing an unknown entry id.
var ErrNotFound = errors.New("engine: entry not found")

// Config is the externally-owned configuration surface, read-only here.
type Config struct {
	MaxItems          int
	MaxPinned         int
	AutoClearEnabled  bool
	AutoClearInterval time.Duration
}

// Absorber lets the engine tell the monitor that a clipboard change was
// self-inflicted (recopy, manual copy) and must not be re-detected.
type Absorber interface {
	Absorb()
}

// Engine owns the history store, the dedup index, the persistence
// coordinator, and the auto-clear timer.
type Engine struct {
	cfg      Config
	backend  clip.Backend
	provider appinfo.Provider
	coord    *persist.Coordinator
	clk      clock.Clock

	mu    sync.RWMutex
	store *history.Store

	absorb Absorber

	autoMu    sync.Mutex
	autoClear clock.Timer

	subMu sync.RWMutex
	subs  []chan struct{}
}

// New wires an Engine. The monitor is attached afterwards via SetAbsorber.
func New(cfg Config, backend clip.Backend, provider appinfo.Provider, coord *persist.Coordinator, clk clock.Clock) *Engine {
	dedup := history.NewDedupIndex()
	return &Engine{
		cfg:      cfg,
		backend:  backend,
		provider: provider,
		coord:    coord,
		clk:      clk,
		store:    history.NewStore(cfg.MaxItems, cfg.MaxPinned, dedup),
	}
}

// SetAbsorber attaches the monitor so self-inflicted clipboard writes can be
// absorbed instead of re-detected.
func (g *Engine) SetAbsorber(a Absorber) { g.absorb = a }

// Submit is the pipeline entry used by the monitor: content detected on the
// clipboard, with provenance sampled now. Empty content is silently ignored.
func (g *Engine) Submit(content string, fromEditor bool) {
	info := appinfo.Capture(g.provider, fromEditor)
	g.record(content, info, fromEditor, false)
}

// Copy is the explicit collaborator operation: write content to the system
// clipboard and record it, in one step. Empty content is silently ignored,
// same as on the monitor path.
func (g *Engine) Copy(content string, fromEditor bool) error {
	if content == "" {
		return nil
	}
	if err := g.backend.WriteString(content); err != nil {
		return fmt.Errorf("engine: clipboard write: %w", err)
	}
	g.absorbSelfWrite()
	info := appinfo.Capture(g.provider, fromEditor)
	g.record(content, info, fromEditor, false)
	return nil
}

// Recopy puts an existing entry's content back on the system clipboard and
// promotes it. Provenance is preserved; only the timestamp advances.
func (g *Engine) Recopy(id string) error {
	g.mu.RLock()
	e, ok := g.store.Get(id)
	g.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	if err := g.backend.WriteString(e.Content); err != nil {
		return fmt.Errorf("engine: clipboard write: %w", err)
	}
	g.absorbSelfWrite()
	g.record(e.Content, entry.AppInfo{}, e.FromEditor, true)
	return nil
}

// record runs the store mutation and its bookkeeping under the write lock.
func (g *Engine) record(content string, info entry.AppInfo, fromEditor, preserveMeta bool) {
	now := g.clk.Now()

	g.mu.Lock()
	m, err := g.store.InsertOrPromote(content, info, fromEditor, preserveMeta, now)
	if err != nil {
		g.mu.Unlock()
		return // empty content: ignored, not an error
	}
	if m.Inserted {
		g.coord.RecordInsert(*m.Entry)
	} else {
		g.coord.RecordUpdate(*m.Entry)
	}
	for _, id := range m.EvictedIDs {
		g.coord.RecordRemove(id)
	}
	g.mu.Unlock()

	g.restartAutoClear()
	g.notify()
}

// TogglePin flips the pin state of id. Pinning reports ok=false when the
// pinned partition is full; nothing is mutated in that case.
func (g *Engine) TogglePin(id string) (pinned, ok bool) {
	g.mu.Lock()
	pinned, ok = g.store.TogglePin(id)
	if ok {
		if e, found := g.store.Get(id); found {
			g.coord.RecordUpdate(e)
		}
	}
	g.mu.Unlock()

	if ok {
		g.notify()
	}
	return pinned, ok
}

// Delete removes the entry with id.
func (g *Engine) Delete(id string) error {
	g.mu.Lock()
	removed := g.store.Delete(id)
	if removed {
		g.coord.RecordRemove(id)
	}
	g.mu.Unlock()

	if !removed {
		return ErrNotFound
	}
	g.notify()
	return nil
}

// Clear removes history entries, optionally keeping the pinned partition,
// and clears the system clipboard when wipeClipboard is set. The clipboard
// clear bumps the adapter's change counter; the monitor distinguishes the
// next external copy by counter value, so it is deliberately not absorbed.
func (g *Engine) Clear(keepPinned, wipeClipboard bool) {
	g.mu.Lock()
	removed := g.store.Clear(keepPinned)
	g.coord.RecordClear(keepPinned, removed)
	g.mu.Unlock()

	if wipeClipboard {
		if err := g.backend.Clear(); err != nil {
			slog.Warn("clipboard clear failed", "err", err)
		}
	}
	g.notify()
}

// Load performs the two-phase initial load. Pinned entries are published
// before the full load issues its repository read, so readers see pinned
// content immediately even behind a slow repository.
func (g *Engine) Load(ctx context.Context) error {
	pinned, err := g.coord.LoadPinned(ctx)
	if err != nil {
		slog.Error("pinned load failed, starting empty", "err", err)
	} else {
		g.mu.Lock()
		g.store.Seed(pinned)
		pinnedNow := g.store.PinnedCount()
		g.mu.Unlock()
		g.notify()
		slog.Info("pinned history loaded", "entries", pinnedNow)
	}

	g.mu.RLock()
	pinnedNow := g.store.PinnedCount()
	g.mu.RUnlock()

	full, err := g.coord.LoadFull(ctx, pinnedNow)
	if err != nil {
		return fmt.Errorf("engine: full load: %w", err)
	}

	g.mu.Lock()
	g.store.Seed(full)
	evicted := g.store.Trim()
	for _, id := range evicted {
		g.coord.RecordRemove(id)
	}
	total := g.store.Len()
	g.mu.Unlock()

	g.notify()
	slog.Info("history loaded", "entries", total, "trimmed", len(evicted))
	return nil
}

// Snapshot returns a consistent copy of the history, pinned partition first.
func (g *Engine) Snapshot() []entry.Entry {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.store.Snapshot()
}

// Search returns entries matching q, case-insensitively, in Snapshot order.
func (g *Engine) Search(q string) []entry.Entry {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.store.Search(q)
}

// Counts reports (total, pinned) entry counts under one consistent read.
func (g *Engine) Counts() (total, pinned int) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.store.Len(), g.store.PinnedCount()
}

// Subscribe returns a coalesced change-notification channel. Sends never
// block; a slow subscriber sees at least one pending signal.
func (g *Engine) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	g.subMu.Lock()
	g.subs = append(g.subs, ch)
	g.subMu.Unlock()
	return ch
}

// Stop disarms the auto-clear timer. Pending persistence is the caller's to
// flush.
func (g *Engine) Stop() {
	g.autoMu.Lock()
	if g.autoClear != nil {
		g.autoClear.Stop()
	}
	g.autoMu.Unlock()
}

func (g *Engine) notify() {
	g.subMu.RLock()
	defer g.subMu.RUnlock()
	for _, ch := range g.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (g *Engine) absorbSelfWrite() {
	if g.absorb != nil {
		g.absorb.Absorb()
	}
}

// restartAutoClear gives the newest copy the full grace period: the timer is
// reset, never stacked.
func (g *Engine) restartAutoClear() {
	if !g.cfg.AutoClearEnabled || g.cfg.AutoClearInterval <= 0 {
		return
	}
	g.autoMu.Lock()
	defer g.autoMu.Unlock()
	if g.autoClear == nil {
		g.autoClear = g.clk.AfterFunc(g.cfg.AutoClearInterval, g.fireAutoClear)
		return
	}
	g.autoClear.Reset(g.cfg.AutoClearInterval)
}

func (g *Engine) fireAutoClear() {
	slog.Info("auto-clear interval elapsed, wiping unpinned history and clipboard")
	g.Clear(true, true)
}
