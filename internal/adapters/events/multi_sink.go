package events

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/trebuchet-org/dvote/internal/domain"
	"github.com/trebuchet-org/dvote/internal/usecase"
)

// MultiSink fans events out to several sinks concurrently
type MultiSink struct {
	sinks []usecase.EventSink
}

// NewMultiSink creates a fan-out over sinks
func NewMultiSink(sinks ...usecase.EventSink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Add registers another sink
func (m *MultiSink) Add(sink usecase.EventSink) {
	m.sinks = append(m.sinks, sink)
}

// Publish delivers to every sink and returns the first failure. A failing sink
// does not stop delivery to the others.
func (m *MultiSink) Publish(ctx context.Context, events ...domain.Event) error {
	var g errgroup.Group
	for _, s := range m.sinks {
		g.Go(func() error {
			return s.Publish(ctx, events...)
		})
	}
	return g.Wait()
}

// Recorder keeps published events in memory
type Recorder struct {
	mu     sync.Mutex
	events []domain.Event
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Publish(_ context.Context, events ...domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	return nil
}

// Events returns everything recorded so far
func (r *Recorder) Events() []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Event, len(r.events))
	copy(out, r.events)
	return out
}

// Drain returns and forgets everything recorded so far
func (r *Recorder) Drain() []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.events
	r.events = nil
	return out
}

// Names returns the names of the recorded events in order
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.events))
	for i, e := range r.events {
		names[i] = e.EventName()
	}
	return names
}
