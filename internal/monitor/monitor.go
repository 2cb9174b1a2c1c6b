// Package monitor detects externally-initiated clipboard changes by polling
// the adapter's change counter. Counters, not content, decide what counts as
// a new event: an internal clear bumps the counter like any other write, so
// the external copy that follows it is never mistaken for our own action.
package monitor

import (
	"log/slog"
	"sync"
	"time"

	"go.klb.dev/clipstash/internal/clip"
	"go.klb.dev/clipstash/internal/clock"
)

// Pipeline receives detected clipboard content. The engine implements it.
type Pipeline interface {
	Submit(content string, fromEditor bool)
}

// Monitor polls the clipboard at a fixed interval while running.
// Start and Stop are idempotent.
type Monitor struct {
	backend  clip.Backend
	pipeline Pipeline
	clk      clock.Clock
	interval time.Duration

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}

	lastCount uint64
	primed    bool
}

// New returns a stopped Monitor.
func New(backend clip.Backend, pipeline Pipeline, clk clock.Clock, interval time.Duration) *Monitor {
	return &Monitor{
		backend:  backend,
		pipeline: pipeline,
		clk:      clk,
		interval: interval,
	}
}

// Start begins polling. Content already on the clipboard when Start is
// called is not replayed; only subsequent changes are.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return
	}
	if cc, err := m.backend.ChangeCount(); err == nil {
		m.lastCount = cc
		m.primed = true
	}
	m.running = true
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	go m.run(m.stop, m.done)
	slog.Info("clipboard monitor started", "backend", m.backend.Name(), "interval", m.interval)
}

// Stop cancels the poll loop and waits for it to exit. No clipboard reads
// happen after Stop returns, modulo one in-flight tick.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	stop, done := m.stop, m.done
	m.mu.Unlock()

	close(stop)
	<-done
	slog.Info("clipboard monitor stopped")
}

func (m *Monitor) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	t := m.clk.NewTicker(m.interval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C():
			m.poll()
		}
	}
}

// Absorb advances the last-observed counter to the current value, so that a
// clipboard write the engine just performed itself (recopy, manual copy) is
// not re-detected as an external event. Any later external copy still bumps
// the counter past the absorbed value and is detected normally.
//
// An external copy landing between the engine's write and this call is
// swallowed along with it; the window is one scheduling gap and inherent to
// counter polling, so we accept it.
func (m *Monitor) Absorb() {
	cc, err := m.backend.ChangeCount()
	if err != nil {
		slog.Warn("absorb failed, self-write may be re-detected", "err", err)
		return
	}
	m.mu.Lock()
	m.lastCount = cc
	m.primed = true
	m.mu.Unlock()
}

// poll is one tick: compare the change counter with the last observed value
// and feed any new content into the pipeline. The last-observed counter is
// updated before the content read, so a failed read cannot coalesce two
// distinct events into one on the next tick.
func (m *Monitor) poll() {
	cc, err := m.backend.ChangeCount()
	if err != nil {
		slog.Warn("clipboard change count read failed, skipping tick", "err", err)
		return
	}

	m.mu.Lock()
	if !m.primed {
		m.primed = true
		m.lastCount = cc
		m.mu.Unlock()
		return
	}
	if cc == m.lastCount {
		m.mu.Unlock()
		return
	}
	m.lastCount = cc
	m.mu.Unlock()

	content, err := m.backend.ReadString()
	if err != nil {
		slog.Warn("clipboard read failed, skipping tick", "err", err)
		return
	}
	if content == "" {
		return
	}
	m.pipeline.Submit(content, false)
}
