package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/trebuchet-org/dvote/internal/domain"
	"github.com/trebuchet-org/dvote/internal/domain/models"
	"github.com/trebuchet-org/dvote/internal/usecase"
)

const tracerName = "github.com/trebuchet-org/dvote/ledger"

// Store persists committed ledger states
type Store interface {
	// Load returns the last committed state, or nil when nothing was stored yet.
	Load() (*models.State, error)
	Save(state *models.State) error
}

// Ledger is the shared, versioned governance state. Transactions are
// serialized; each one works on a copy that replaces the committed state only
// when the transaction function succeeds.
type Ledger struct {
	mu       sync.RWMutex
	state    *models.State
	store    Store
	clock    usecase.Clock
	sink     usecase.EventSink
	observer usecase.TxObserver
	tracer   trace.Tracer
	log      *slog.Logger
}

// New loads the committed state from store, starting from genesis when the
// store is empty.
func New(store Store, genesis models.Genesis, clock usecase.Clock, sink usecase.EventSink, observer usecase.TxObserver, log *slog.Logger) (*Ledger, error) {
	state, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}
	if state == nil {
		state = models.NewState(genesis)
	}
	state.Normalize()

	return &Ledger{
		state:    state,
		store:    store,
		clock:    clock,
		sink:     sink,
		observer: observer,
		tracer:   otel.Tracer(tracerName),
		log:      log.With("component", "ledger"),
	}, nil
}

type ctxKey struct{}

var txKey = ctxKey{}

// tx is the working copy of one transaction
type tx struct {
	owner  *Ledger
	state  *models.State
	base   uint64
	now    time.Time
	events []domain.Event
}

func (t *tx) State() *models.State    { return t.state }
func (t *tx) Now() time.Time          { return t.now }
func (t *tx) Version() uint64         { return t.base }
func (t *tx) WriteVersion() uint64    { return t.base + 1 }
func (t *tx) Emit(es ...domain.Event) { t.events = append(t.events, es...) }

// view is a read handle on the committed state
type view struct {
	state *models.State
	now   time.Time
}

func (v *view) State() *models.State { return v.state }
func (v *view) Now() time.Time       { return v.now }
func (v *view) Version() uint64      { return v.state.Version }

// withTx stores an open transaction in context for nested component calls.
func withTx(ctx context.Context, t *tx) context.Context {
	return context.WithValue(ctx, txKey, t)
}

// from extracts this ledger's open transaction from context if present.
func (l *Ledger) from(ctx context.Context) (*tx, bool) {
	t, ok := ctx.Value(txKey).(*tx)
	if !ok || t.owner != l {
		return nil, false
	}
	return t, true
}

// RunInTx runs fn atomically. A context already carrying a transaction of
// this ledger joins it, so cross-component calls commit or revert together.
// Events emitted inside the transaction are published after the commit.
func (l *Ledger) RunInTx(ctx context.Context, fn func(ctx context.Context, tx usecase.Tx) error) error {
	if t, ok := l.from(ctx); ok {
		return fn(ctx, t)
	}

	ctx, span := l.tracer.Start(ctx, "ledger.RunInTx")
	defer span.End()
	started := time.Now()

	l.mu.Lock()
	t := &tx{
		owner: l,
		state: l.state.Clone(),
		base:  l.state.Version,
		now:   l.now(),
	}
	if err := fn(withTx(ctx, t), t); err != nil {
		l.mu.Unlock()
		span.RecordError(err)
		span.SetStatus(codes.Error, domain.ErrorKind(err))
		l.observer.TxReverted(err, time.Since(started))
		l.log.Debug("transaction reverted", "version", t.base, "error", err)
		return err
	}

	t.state.Version = t.base + 1
	t.state.Time = t.now
	if err := l.store.Save(t.state); err != nil {
		l.mu.Unlock()
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist")
		l.observer.TxReverted(err, time.Since(started))
		return fmt.Errorf("failed to persist ledger version %d: %w", t.state.Version, err)
	}
	l.state = t.state
	l.mu.Unlock()

	span.SetAttributes(
		attribute.Int64("ledger.version", int64(t.state.Version)),
		attribute.Int("ledger.events", len(t.events)),
	)
	l.observer.TxCommitted(t.state.Version, len(t.events), time.Since(started))
	l.log.Debug("transaction committed", "version", t.state.Version, "events", len(t.events))

	if len(t.events) > 0 {
		if err := l.sink.Publish(ctx, t.events...); err != nil {
			// the state is committed; a failed delivery must not report the call as reverted
			l.log.Warn("failed to publish events", "version", t.state.Version, "error", err)
		}
	}
	return nil
}

// View runs fn against the committed state, or against the open transaction
// carried by ctx.
func (l *Ledger) View(ctx context.Context, fn func(v usecase.View) error) error {
	if t, ok := l.from(ctx); ok {
		return fn(t)
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return fn(&view{state: l.state, now: l.now()})
}

// Version returns the last committed version.
func (l *Ledger) Version() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state.Version
}

// Snapshot returns a copy of the committed state.
func (l *Ledger) Snapshot() *models.State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state.Clone()
}

// now is the ledger time: the clock, but never earlier than the last commit.
// Callers hold l.mu.
func (l *Ledger) now() time.Time {
	now := l.clock.Now().UTC().Round(0)
	if now.Before(l.state.Time) {
		return l.state.Time
	}
	return now
}
