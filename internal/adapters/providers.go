package adapters

import (
	"context"
	"log/slog"

	"github.com/google/wire"

	"github.com/trebuchet-org/dvote/internal/adapters/calls"
	"github.com/trebuchet-org/dvote/internal/adapters/clock"
	"github.com/trebuchet-org/dvote/internal/adapters/content"
	"github.com/trebuchet-org/dvote/internal/adapters/events"
	"github.com/trebuchet-org/dvote/internal/adapters/interactive"
	"github.com/trebuchet-org/dvote/internal/adapters/metrics"
	"github.com/trebuchet-org/dvote/internal/adapters/repository/ledger"
	"github.com/trebuchet-org/dvote/internal/domain/config"
	"github.com/trebuchet-org/dvote/internal/usecase"
)

// ProvideClock pins the clock when --at is set
func ProvideClock(cfg *config.RuntimeConfig) usecase.Clock {
	if cfg.At != nil {
		return clock.NewFixed(*cfg.At)
	}
	return clock.NewSystem()
}

// ProvideMetrics creates the metrics recorder; the cleanup writes the textfile.
func ProvideMetrics(cfg *config.RuntimeConfig, log *slog.Logger) (*metrics.Recorder, func()) {
	m := metrics.NewRecorder(cfg.MetricsFile)
	return m, func() {
		if err := m.Flush(); err != nil {
			log.Warn("failed to flush metrics", "error", err)
		}
	}
}

// ProvideJournal creates the event journal in the data directory
func ProvideJournal(cfg *config.RuntimeConfig) *events.JournalSink {
	return events.NewJournalSink(cfg.DataDir)
}

// ProvideEventSink assembles the configured sinks. The recorder and metrics
// always receive events; the cleanup closes the redis connection if one was
// opened.
func ProvideEventSink(
	cfg *config.RuntimeConfig,
	log *slog.Logger,
	recorder *events.Recorder,
	m *metrics.Recorder,
	journal *events.JournalSink,
) (*events.MultiSink, func(), error) {
	sink := events.NewMultiSink(recorder, m)
	if cfg.Events.Log {
		sink.Add(events.NewLogSink(log))
	}
	if cfg.Events.Journal {
		sink.Add(journal)
	}
	if cfg.Events.RedisURL == "" {
		return sink, func() {}, nil
	}

	client, err := events.NewRedisClient(context.Background(), cfg.Events.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	sink.Add(events.NewRedisSink(client, cfg.Events.RedisStream))
	return sink, func() {
		if err := client.Close(); err != nil {
			log.Warn("failed to close redis client", "error", err)
		}
	}, nil
}

// ProvideLedger opens the file-backed ledger in the data directory
func ProvideLedger(
	cfg *config.RuntimeConfig,
	clk usecase.Clock,
	sink usecase.EventSink,
	observer usecase.TxObserver,
	log *slog.Logger,
) (*ledger.Ledger, error) {
	store, err := ledger.NewFileStore(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	return ledger.New(store, cfg.Genesis(), clk, sink, observer, log)
}

// ProvideContentStore keeps proposal bodies next to the ledger
func ProvideContentStore(cfg *config.RuntimeConfig) *content.FileStore {
	return content.NewFileStore(cfg.DataDir)
}

// LedgerSet provides the shared state and its observers
var LedgerSet = wire.NewSet(
	ProvideClock,
	ProvideMetrics,
	wire.Bind(new(usecase.TxObserver), new(*metrics.Recorder)),

	ProvideLedger,
	wire.Bind(new(usecase.Ledger), new(*ledger.Ledger)),
)

// EventSet provides event delivery
var EventSet = wire.NewSet(
	events.NewRecorder,
	ProvideJournal,
	wire.Bind(new(usecase.EventJournal), new(*events.JournalSink)),

	ProvideEventSink,
	wire.Bind(new(usecase.EventSink), new(*events.MultiSink)),
)

// ExternalSet provides collaborators outside the ledger
var ExternalSet = wire.NewSet(
	ProvideContentStore,
	wire.Bind(new(usecase.ContentStore), new(*content.FileStore)),

	calls.NewLogHandler,
	wire.Bind(new(usecase.CallHandler), new(*calls.LogHandler)),
)

// InteractiveSet provides interactive implementations
var InteractiveSet = wire.NewSet(
	interactive.NewSelectorAdapter,
	wire.Bind(new(usecase.ProposalSelector), new(*interactive.SelectorAdapter)),
	wire.Bind(new(usecase.IdentitySelector), new(*interactive.SelectorAdapter)),
)

// AllAdapters includes all adapter sets
var AllAdapters = wire.NewSet(
	LedgerSet,
	EventSet,
	ExternalSet,
	InteractiveSet,
)
