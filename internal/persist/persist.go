// Package persist keeps the durable repository eventually consistent with
// the in-memory history at bounded latency. Mutations are recorded as
// pending deltas and coalesced by a debounce timer into one batched write;
// Flush forces an immediate drain.
package persist

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.klb.dev/clipstash/internal/clock"
	"go.klb.dev/clipstash/internal/entry"
	"go.klb.dev/clipstash/internal/repo"
)

// loadHeadroom pads the full-load limit so entries written by a previous run
// under different caps still surface before in-memory trimming applies.
const loadHeadroom = 32

type delta struct {
	e        entry.Entry
	inserted bool
	removed  bool
}

// Coordinator batches and debounces repository writes. Record* methods are
// non-blocking; only Flush and the load helpers touch the repository.
type Coordinator struct {
	repo      repo.Repository
	clk       clock.Clock
	debounce  time.Duration
	maxItems  int
	maxPinned int

	mu        sync.Mutex
	pending   map[string]delta
	clearAll  bool
	clearKept bool // keepPinned flag of a pending clear
	timer     clock.Timer

	flushMu sync.Mutex // serializes flushes, not recording
}

// New returns a Coordinator writing to r. The caps size the two-phase load.
func New(r repo.Repository, clk clock.Clock, debounce time.Duration, maxItems, maxPinned int) *Coordinator {
	return &Coordinator{
		repo:      r,
		clk:       clk,
		debounce:  debounce,
		maxItems:  maxItems,
		maxPinned: maxPinned,
		pending:   make(map[string]delta),
	}
}

// RecordInsert queues a newly created entry for upsert.
func (c *Coordinator) RecordInsert(e entry.Entry) {
	c.mu.Lock()
	c.pending[e.ID] = delta{e: e, inserted: true}
	c.scheduleLocked()
	c.mu.Unlock()
}

// RecordUpdate queues a mutated entry for upsert. An entry inserted earlier
// in the same window stays an insert.
func (c *Coordinator) RecordUpdate(e entry.Entry) {
	c.mu.Lock()
	d := c.pending[e.ID]
	c.pending[e.ID] = delta{e: e, inserted: d.inserted}
	c.scheduleLocked()
	c.mu.Unlock()
}

// RecordRemove queues a deletion. Removal supersedes any pending upsert for
// the same id; deleting an id the repository never saw is harmless.
func (c *Coordinator) RecordRemove(id string) {
	c.mu.Lock()
	c.pending[id] = delta{removed: true}
	c.scheduleLocked()
	c.mu.Unlock()
}

// RecordClear queues a repository clear. removedIDs are the entries the
// in-memory clear dropped; their pending upserts are discarded so the clear
// cannot be undone by a stale delta. Clears recorded in the same window
// merge to the widest scope: once a full clear is pending, a later
// keepPinned clear cannot narrow it back to sparing pinned rows.
func (c *Coordinator) RecordClear(keepPinned bool, removedIDs []string) {
	c.mu.Lock()
	if c.clearAll {
		c.clearKept = c.clearKept && keepPinned
	} else {
		c.clearAll = true
		c.clearKept = keepPinned
	}
	for _, id := range removedIDs {
		delete(c.pending, id)
	}
	c.scheduleLocked()
	c.mu.Unlock()
}

// scheduleLocked (re)arms the debounce timer. Called with c.mu held.
func (c *Coordinator) scheduleLocked() {
	if c.timer == nil {
		c.timer = c.clk.AfterFunc(c.debounce, func() {
			if err := c.Flush(context.Background()); err != nil {
				slog.Warn("debounced save failed, deltas kept pending", "err", err)
			}
		})
		return
	}
	c.timer.Reset(c.debounce)
}

// Flush drains all pending deltas through one batched repository write and
// waits for it to complete. On failure the deltas are merged back so the
// next trigger retries them; in-memory state remains the source of truth.
func (c *Coordinator) Flush(ctx context.Context) error {
	c.flushMu.Lock()
	defer c.flushMu.Unlock()

	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
	}
	batch := c.pending
	clearAll, clearKept := c.clearAll, c.clearKept
	c.pending = make(map[string]delta)
	c.clearAll = false
	c.mu.Unlock()

	if !clearAll && len(batch) == 0 {
		return nil
	}

	if clearAll {
		if err := c.repo.Clear(ctx, clearKept); err != nil {
			c.restore(batch, clearAll, clearKept)
			return fmt.Errorf("persist: clear: %w", err)
		}
	}

	var inserted, updated []entry.Entry
	var removed []string
	for id, d := range batch {
		switch {
		case d.removed:
			removed = append(removed, id)
		case d.inserted:
			inserted = append(inserted, d.e)
		default:
			updated = append(updated, d.e)
		}
	}
	if len(inserted)+len(updated)+len(removed) == 0 {
		return nil
	}

	if err := c.repo.ApplyChanges(ctx, inserted, updated, removed); err != nil {
		c.restore(batch, false, false)
		return fmt.Errorf("persist: apply changes: %w", err)
	}

	slog.Debug("flushed history deltas",
		"inserted", len(inserted),
		"updated", len(updated),
		"removed", len(removed),
	)
	return nil
}

// restore merges a failed batch back into pending without clobbering deltas
// recorded since the batch was taken.
func (c *Coordinator) restore(batch map[string]delta, clearAll, clearKept bool) {
	c.mu.Lock()
	for id, d := range batch {
		if _, exists := c.pending[id]; !exists {
			c.pending[id] = d
		}
	}
	if clearAll {
		if c.clearAll {
			c.clearKept = c.clearKept && clearKept
		} else {
			c.clearAll = true
			c.clearKept = clearKept
		}
	}
	c.scheduleLocked()
	c.mu.Unlock()
}

// LoadPinned is phase one of the initial load: only pinned entries, bounded
// by the pin cap, so the caller can publish them before the full load runs.
func (c *Coordinator) LoadPinned(ctx context.Context) ([]*entry.Entry, error) {
	return c.repo.LoadPinned(ctx, c.maxPinned)
}

// LoadFull is phase two. The limit accounts for repositories holding more
// pinned entries than the configured cap (e.g. after the cap was lowered):
// maxItems + max(maxPinned, pinnedNow) + headroom.
func (c *Coordinator) LoadFull(ctx context.Context, pinnedNow int) ([]*entry.Entry, error) {
	bound := c.maxPinned
	if pinnedNow > bound {
		bound = pinnedNow
	}
	return c.repo.Load(ctx, c.maxItems+bound+loadHeadroom)
}

// Stop disarms the debounce timer. Pending deltas survive; call Flush to
// drain them before shutdown.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.mu.Unlock()
}
