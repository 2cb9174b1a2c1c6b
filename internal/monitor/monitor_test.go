package monitor

import (
	"errors"
	"sync"
	"testing"
	"time"

	"go.klb.dev/clipstash/internal/clip"
	"go.klb.dev/clipstash/internal/clock"
)

type recordingPipeline struct {
	mu       sync.Mutex
	received []string
}

func (p *recordingPipeline) Submit(content string, fromEditor bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.received = append(p.received, content)
}

func (p *recordingPipeline) all() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.received...)
}

func newTestMonitor() (*Monitor, *clip.Memory, *recordingPipeline) {
	cb := clip.NewMemory()
	p := &recordingPipeline{}
	m := New(cb, p, clock.NewMock(), 100*time.Millisecond)
	return m, cb, p
}

func TestPollDetectsChanges(t *testing.T) {
	m, cb, p := newTestMonitor()
	m.poll() // primes the counter

	cb.WriteString("first")
	m.poll()
	m.poll() // unchanged counter: no double-count

	cb.WriteString("second")
	m.poll()

	if got := p.all(); len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Errorf("received = %v, want [first second]", got)
	}
}

func TestPollIgnoresPreexistingContent(t *testing.T) {
	m, cb, p := newTestMonitor()
	cb.WriteString("already there")

	m.Start()
	defer m.Stop()
	m.poll()

	if got := p.all(); len(got) != 0 {
		t.Errorf("pre-existing content was replayed: %v", got)
	}
}

func TestInternalClearThenExternalCopyIsOneEvent(t *testing.T) {
	m, cb, p := newTestMonitor()
	m.poll()

	// The app clears the clipboard (counter bump, empty content)...
	cb.Clear()
	m.poll()
	// ...then an external copy lands before the next tick observes it.
	cb.WriteString("external")
	m.poll()

	if got := p.all(); len(got) != 1 || got[0] != "external" {
		t.Errorf("received = %v, want exactly [external]", got)
	}
}

func TestReadFailureSkipsTickWithoutCoalescing(t *testing.T) {
	m, cb, p := newTestMonitor()
	m.poll()

	cb.WriteString("missed")
	cb.FailReads = true
	cb.ReadErr = errors.New("pasteboard busy")
	m.poll() // counter read fails: tick skipped, loop survives

	cb.FailReads = false
	m.poll() // recovers and sees the change

	cb.WriteString("next")
	m.poll()

	if got := p.all(); len(got) != 2 || got[0] != "missed" || got[1] != "next" {
		t.Errorf("received = %v, want [missed next]", got)
	}
}

func TestEmptyContentNeverSubmitted(t *testing.T) {
	m, cb, p := newTestMonitor()
	m.poll()

	cb.Clear()
	m.poll()

	if got := p.all(); len(got) != 0 {
		t.Errorf("empty content submitted: %v", got)
	}
}

func TestAbsorbSwallowsSelfWriteOnly(t *testing.T) {
	m, cb, p := newTestMonitor()
	m.poll()

	// The engine writes the clipboard itself and absorbs the bump.
	cb.WriteString("recopied")
	m.Absorb()
	m.poll()
	if got := p.all(); len(got) != 0 {
		t.Fatalf("self-write was re-detected: %v", got)
	}

	// A later external copy is still detected.
	cb.WriteString("external")
	m.poll()
	if got := p.all(); len(got) != 1 || got[0] != "external" {
		t.Errorf("received = %v, want [external]", got)
	}
}

func TestStartStopIdempotent(t *testing.T) {
	m, _, _ := newTestMonitor()
	m.Start()
	m.Start()
	m.Stop()
	m.Stop()
	m.Start()
	m.Stop()
}
