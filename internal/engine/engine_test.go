package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.klb.dev/clipstash/internal/appinfo"
	"go.klb.dev/clipstash/internal/clip"
	"go.klb.dev/clipstash/internal/clock"
	"go.klb.dev/clipstash/internal/entry"
	"go.klb.dev/clipstash/internal/persist"
)

var t0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// fakeRepo is an in-memory repository whose loads can be gated to simulate
// a slow backing store.
type fakeRepo struct {
	mu       sync.Mutex
	rows     map[string]entry.Entry
	fullGate chan struct{} // when set, the full load blocks until closed
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: make(map[string]entry.Entry)}
}

func (f *fakeRepo) put(e entry.Entry) {
	f.mu.Lock()
	f.rows[e.ID] = e
	f.mu.Unlock()
}

func (f *fakeRepo) sorted(pinnedOnly bool, limit int) []*entry.Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entry.Entry
	for _, e := range f.rows {
		if pinnedOnly && !e.Pinned {
			continue
		}
		c := e
		out = append(out, &c)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Timestamp.After(out[j-1].Timestamp); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (f *fakeRepo) Save(_ context.Context, entries []entry.Entry) error {
	for _, e := range entries {
		f.put(e)
	}
	return nil
}

func (f *fakeRepo) Load(_ context.Context, limit int) ([]*entry.Entry, error) {
	if f.fullGate != nil {
		<-f.fullGate
	}
	return f.sorted(false, limit), nil
}

func (f *fakeRepo) LoadAll(ctx context.Context) ([]*entry.Entry, error) { return f.Load(ctx, 0) }

func (f *fakeRepo) LoadPinned(_ context.Context, limit int) ([]*entry.Entry, error) {
	return f.sorted(true, limit), nil
}

func (f *fakeRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	delete(f.rows, id)
	f.mu.Unlock()
	return nil
}

func (f *fakeRepo) Clear(_ context.Context, keepPinned bool) error {
	f.mu.Lock()
	for id, e := range f.rows {
		if keepPinned && e.Pinned {
			continue
		}
		delete(f.rows, id)
	}
	f.mu.Unlock()
	return nil
}

func (f *fakeRepo) ApplyChanges(_ context.Context, inserted, updated []entry.Entry, removedIDs []string) error {
	f.mu.Lock()
	for _, e := range inserted {
		f.rows[e.ID] = e
	}
	for _, e := range updated {
		f.rows[e.ID] = e
	}
	for _, id := range removedIDs {
		delete(f.rows, id)
	}
	f.mu.Unlock()
	return nil
}

func (f *fakeRepo) Close() error { return nil }

type fixture struct {
	eng  *Engine
	cb   *clip.Memory
	repo *fakeRepo
	clk  *clock.Mock
}

type staticProvider struct{ info entry.AppInfo }

func (p staticProvider) Frontmost() (entry.AppInfo, error) { return p.info, nil }

func newFixture(cfg Config) *fixture {
	if cfg.MaxItems == 0 {
		cfg.MaxItems = 100
	}
	if cfg.MaxPinned == 0 {
		cfg.MaxPinned = 10
	}
	r := newFakeRepo()
	clk := clock.NewMock()
	coord := persist.New(r, clk, 50*time.Millisecond, cfg.MaxItems, cfg.MaxPinned)
	cb := clip.NewMemory()
	eng := New(cfg, cb, staticProvider{info: entry.AppInfo{Name: "Terminal", PID: 7}}, coord, clk)
	return &fixture{eng: eng, cb: cb, repo: r, clk: clk}
}

func snapshotContents(eng *Engine) []string {
	var out []string
	for _, e := range eng.Snapshot() {
		out = append(out, e.Content)
	}
	return out
}

func TestSubmitPipeline(t *testing.T) {
	f := newFixture(Config{})
	f.eng.Submit("A", false)
	f.eng.Submit("B", false)
	f.eng.Submit("A", false)

	got := snapshotContents(f.eng)
	if len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Errorf("history = %v, want [A B]", got)
	}

	snap := f.eng.Snapshot()
	if snap[0].SourceApp != "Terminal" || snap[0].PID != 7 {
		t.Errorf("provenance not captured: %+v", snap[0])
	}
}

func TestSubmitIgnoresEmptyContent(t *testing.T) {
	f := newFixture(Config{})
	f.eng.Submit("", false)
	if total, _ := f.eng.Counts(); total != 0 {
		t.Error("empty content created an entry")
	}
}

func TestEditorOriginMetadata(t *testing.T) {
	f := newFixture(Config{})
	f.eng.Submit("typed in the editor", true)

	snap := f.eng.Snapshot()
	if snap[0].SourceApp != appinfo.EditorAppName || snap[0].WindowTitle != appinfo.EditorWindowTitle {
		t.Errorf("editor copy metadata = %+v, want fixed editor identity", snap[0])
	}
	if !snap[0].FromEditor {
		t.Error("FromEditor not set")
	}
}

func TestRecopyPreservesProvenance(t *testing.T) {
	f := newFixture(Config{})
	f.eng.Submit("keep my origin", false)
	id := f.eng.Snapshot()[0].ID
	orig := f.eng.Snapshot()[0]

	f.clk.Advance(time.Minute)
	if err := f.eng.Recopy(id); err != nil {
		t.Fatal(err)
	}

	got := f.eng.Snapshot()[0]
	if got.SourceApp != orig.SourceApp || got.WindowTitle != orig.WindowTitle ||
		got.BundleID != orig.BundleID || got.PID != orig.PID || got.FromEditor != orig.FromEditor {
		t.Errorf("recopy changed provenance: %+v -> %+v", orig, got)
	}
	if !got.Timestamp.After(orig.Timestamp) {
		t.Error("recopy did not advance the timestamp")
	}

	if s, _ := f.cb.ReadString(); s != "keep my origin" {
		t.Errorf("clipboard = %q, want the recopied content", s)
	}
}

func TestRecopyUnknownID(t *testing.T) {
	f := newFixture(Config{})
	if err := f.eng.Recopy("nope"); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCopyWritesClipboardAndRecords(t *testing.T) {
	f := newFixture(Config{})
	if err := f.eng.Copy("pasted by hand", false); err != nil {
		t.Fatal(err)
	}
	if s, _ := f.cb.ReadString(); s != "pasted by hand" {
		t.Errorf("clipboard = %q", s)
	}
	if total, _ := f.eng.Counts(); total != 1 {
		t.Errorf("total = %d, want 1", total)
	}
}

func TestCopyIgnoresEmptyContent(t *testing.T) {
	f := newFixture(Config{})
	if err := f.eng.Copy("", false); err != nil {
		t.Fatalf("empty copy = %v, want silent no-op", err)
	}
	if s, _ := f.cb.ReadString(); s != "" {
		t.Errorf("clipboard = %q, want untouched", s)
	}
	if total, _ := f.eng.Counts(); total != 0 {
		t.Error("empty content created an entry")
	}
}

func TestPinCapThroughEngine(t *testing.T) {
	f := newFixture(Config{MaxPinned: 2})
	for i := 0; i < 3; i++ {
		f.eng.Submit(fmt.Sprintf("item-%d", i), false)
	}
	snap := f.eng.Snapshot()

	if _, ok := f.eng.TogglePin(snap[0].ID); !ok {
		t.Fatal("pin 1 failed")
	}
	if _, ok := f.eng.TogglePin(snap[1].ID); !ok {
		t.Fatal("pin 2 failed")
	}
	if _, ok := f.eng.TogglePin(snap[2].ID); ok {
		t.Error("pin over cap succeeded")
	}
	if _, pinned := f.eng.Counts(); pinned != 2 {
		t.Errorf("pinned = %d, want 2", pinned)
	}
}

func TestClearFlushesThroughToRepository(t *testing.T) {
	f := newFixture(Config{})
	f.eng.Submit("a", false)
	f.eng.Submit("b", false)
	f.clk.Advance(time.Second) // debounce fires, rows land in the repo

	f.eng.Clear(false, true)
	f.clk.Advance(time.Second)

	if total, _ := f.eng.Counts(); total != 0 {
		t.Errorf("in-memory total = %d after clear", total)
	}
	if rows, _ := f.repo.LoadAll(context.Background()); len(rows) != 0 {
		t.Errorf("repository holds %d rows after clear", len(rows))
	}
	if s, _ := f.cb.ReadString(); s != "" {
		t.Error("system clipboard not wiped")
	}
}

func TestAutoClearRestartsOnNewContent(t *testing.T) {
	f := newFixture(Config{AutoClearEnabled: true, AutoClearInterval: 10 * time.Minute})

	f.eng.Submit("old secret", false)
	f.clk.Advance(9 * time.Minute)
	f.eng.Submit("fresh copy", false) // restarts the grace period
	f.clk.Advance(9 * time.Minute)

	if total, _ := f.eng.Counts(); total != 2 {
		t.Fatalf("auto-clear fired early, total = %d", total)
	}

	f.clk.Advance(2 * time.Minute)
	if total, _ := f.eng.Counts(); total != 0 {
		t.Errorf("auto-clear did not fire, total = %d", total)
	}
	if s, _ := f.cb.ReadString(); s != "" {
		t.Error("auto-clear left the system clipboard intact")
	}
}

func TestAutoClearKeepsPinned(t *testing.T) {
	f := newFixture(Config{AutoClearEnabled: true, AutoClearInterval: time.Minute})
	f.eng.Submit("pin me", false)
	f.eng.TogglePin(f.eng.Snapshot()[0].ID)
	f.eng.Submit("ephemeral", false)

	f.clk.Advance(2 * time.Minute)

	got := snapshotContents(f.eng)
	if len(got) != 1 || got[0] != "pin me" {
		t.Errorf("post-auto-clear history = %v, want [pin me]", got)
	}
}

func TestSubscribeCoalesces(t *testing.T) {
	f := newFixture(Config{})
	ch := f.eng.Subscribe()

	f.eng.Submit("one", false)
	f.eng.Submit("two", false)

	select {
	case <-ch:
	default:
		t.Fatal("no change notification delivered")
	}
	// Coalesced: at most one pending signal.
	select {
	case <-ch:
		t.Error("notifications were not coalesced")
	default:
	}
}

func TestTwoPhaseLoadPublishesPinnedFirst(t *testing.T) {
	f := newFixture(Config{MaxItems: 100, MaxPinned: 10})

	// Seed the repository: 6 pinned + 80 unpinned.
	for i := 0; i < 86; i++ {
		e := entry.New(fmt.Sprintf("row-%d", i), entry.AppInfo{}, false, t0.Add(time.Duration(i)*time.Second))
		e.Pinned = i < 6
		f.repo.put(*e)
	}

	// The full load blocks until we release the gate: a slow repository.
	f.repo.fullGate = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- f.eng.Load(context.Background()) }()

	// Phase one must become visible without waiting for phase two.
	deadline := time.After(2 * time.Second)
	for {
		snap := f.eng.Snapshot()
		if len(snap) == 6 {
			for _, e := range snap {
				if !e.Pinned {
					t.Fatalf("unpinned entry %q visible during pinned phase", e.Content)
				}
			}
			break
		}
		select {
		case <-deadline:
			t.Fatalf("pinned phase never became visible, snapshot len = %d", len(snap))
		default:
			time.Sleep(time.Millisecond)
		}
	}

	close(f.repo.fullGate)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	total, pinned := f.eng.Counts()
	if total != 86 || pinned != 6 {
		t.Errorf("post-load counts = %d/%d, want 86 total, 6 pinned", total, pinned)
	}
}

func TestLoadTrimsToConfiguredLimits(t *testing.T) {
	f := newFixture(Config{MaxItems: 10, MaxPinned: 5})
	for i := 0; i < 30; i++ {
		e := entry.New(fmt.Sprintf("row-%d", i), entry.AppInfo{}, false, t0.Add(time.Duration(i)*time.Second))
		e.Pinned = i < 7 // more pinned rows than the cap allows
		f.repo.put(*e)
	}

	if err := f.eng.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	total, pinned := f.eng.Counts()
	if pinned != 7 {
		t.Errorf("pinned = %d, want all 7 preserved", pinned)
	}
	if total != 17 {
		t.Errorf("total = %d, want 7 pinned + 10 unpinned", total)
	}
}
