package clock

import (
	"sync"
	"time"
)

// System reads the wall clock
type System struct{}

// NewSystem creates a wall clock
func NewSystem() System {
	return System{}
}

func (System) Now() time.Time {
	return time.Now()
}

// Fixed always reports the same instant. It backs the --at flag.
type Fixed struct {
	at time.Time
}

// NewFixed creates a clock stopped at t
func NewFixed(t time.Time) Fixed {
	return Fixed{at: t}
}

func (f Fixed) Now() time.Time {
	return f.at
}

// Manual is a clock that only moves when told to
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

// NewManual creates a manual clock starting at t
func NewManual(t time.Time) *Manual {
	return &Manual{now: t}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the clock forward by d
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

// Set moves the clock to t
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}
