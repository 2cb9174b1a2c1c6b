package clock

import (
	"sync"
	"time"
)

// Mock is a deterministic Clock for tests. Time only moves when Advance is
// called; tickers and timers fire synchronously inside Advance, in deadline
// order.
type Mock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*mockTimer
}

// NewMock returns a Mock pinned at an arbitrary fixed instant.
func NewMock() *Mock {
	return &Mock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (m *Mock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the clock forward by d, firing every timer and ticker whose
// deadline falls within the window, in order.
func (m *Mock) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		var next *mockTimer
		for _, t := range m.timers {
			if !t.armed || t.when.After(target) {
				continue
			}
			if next == nil || t.when.Before(next.when) {
				next = t
			}
		}
		if next == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		m.now = next.when
		if next.interval > 0 {
			next.when = next.when.Add(next.interval)
		} else {
			next.armed = false
		}
		fire := next.fire
		now := m.now
		m.mu.Unlock()
		fire(now)
	}
}

func (m *Mock) NewTicker(d time.Duration) Ticker {
	ch := make(chan time.Time, 1)
	t := &mockTimer{
		mock:     m,
		when:     m.Now().Add(d),
		interval: d,
		armed:    true,
		fire: func(now time.Time) {
			select {
			case ch <- now:
			default:
			}
		},
	}
	m.mu.Lock()
	m.timers = append(m.timers, t)
	m.mu.Unlock()
	return &mockTicker{timer: t, ch: ch}
}

func (m *Mock) AfterFunc(d time.Duration, f func()) Timer {
	t := &mockTimer{
		mock:  m,
		when:  m.Now().Add(d),
		armed: true,
		fire:  func(time.Time) { f() },
	}
	m.mu.Lock()
	m.timers = append(m.timers, t)
	m.mu.Unlock()
	return t
}

type mockTimer struct {
	mock     *Mock
	when     time.Time
	interval time.Duration
	armed    bool
	fire     func(time.Time)
}

func (t *mockTimer) Reset(d time.Duration) {
	t.mock.mu.Lock()
	t.when = t.mock.now.Add(d)
	t.armed = true
	t.mock.mu.Unlock()
}

func (t *mockTimer) Stop() {
	t.mock.mu.Lock()
	t.armed = false
	t.mock.mu.Unlock()
}

type mockTicker struct {
	timer *mockTimer
	ch    chan time.Time
}

func (t *mockTicker) C() <-chan time.Time { return t.ch }
func (t *mockTicker) Stop()               { t.timer.Stop() }
