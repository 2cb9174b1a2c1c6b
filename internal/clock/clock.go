// Package clock abstracts time for components that poll, debounce, or expire.
// Production code uses System; tests drive a Mock deterministically.
package clock

import "time"

// Timer is a resettable one-shot timer.
type Timer interface {
	// Reset re-arms the timer to fire after d, whether or not it already fired.
	Reset(d time.Duration)
	// Stop disarms the timer. It does not wait for a running callback.
	Stop()
}

// Ticker delivers ticks on C at a fixed interval until stopped.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Clock is the time source injected into the monitor, the persistence
// debounce, and the auto-clear timer.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
	// AfterFunc arms a timer that calls f after d. f runs on its own goroutine.
	AfterFunc(d time.Duration, f func()) Timer
}

// System is the real clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

func (System) NewTicker(d time.Duration) Ticker {
	return &systemTicker{t: time.NewTicker(d)}
}

func (System) AfterFunc(d time.Duration, f func()) Timer {
	return &systemTimer{t: time.AfterFunc(d, f)}
}

type systemTicker struct{ t *time.Ticker }

func (s *systemTicker) C() <-chan time.Time { return s.t.C }
func (s *systemTicker) Stop()               { s.t.Stop() }

type systemTimer struct{ t *time.Timer }

func (s *systemTimer) Reset(d time.Duration) { s.t.Reset(d) }
func (s *systemTimer) Stop()                 { s.t.Stop() }
