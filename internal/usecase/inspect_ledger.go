package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/trebuchet-org/dvote/internal/domain/config"
	"github.com/trebuchet-org/dvote/internal/domain/models"
)

// JournalEntry is one delivered event as kept by the event journal
type JournalEntry struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Summary    string          `json:"summary"`
	RecordedAt time.Time       `json:"recordedAt"`
	Data       json.RawMessage `json:"data"`
}

// EventJournal reads back delivered events
type EventJournal interface {
	Recent(ctx context.Context, limit int) ([]JournalEntry, error)
}

// LedgerStatus summarizes the shared state
type LedgerStatus struct {
	DataDir     string
	Version     uint64
	Time        time.Time
	Now         time.Time
	Proposals   int
	Votes       int
	Identities  int
	Verified    int
	Holders     int
	Withdrawals int
	Receipts    int
}

// InspectLedger answers questions about the ledger as a whole
type InspectLedger struct {
	config  *config.RuntimeConfig
	ledger  Ledger
	journal EventJournal
}

// NewInspectLedger creates a new InspectLedger use case
func NewInspectLedger(cfg *config.RuntimeConfig, ledger Ledger, journal EventJournal) *InspectLedger {
	return &InspectLedger{
		config:  cfg,
		ledger:  ledger,
		journal: journal,
	}
}

// Status counts the records of every table.
func (uc *InspectLedger) Status(ctx context.Context) (*LedgerStatus, error) {
	var st *LedgerStatus
	err := uc.ledger.View(ctx, func(v View) error {
		s := v.State()
		st = &LedgerStatus{
			DataDir:     uc.config.DataDir,
			Version:     v.Version(),
			Time:        s.Time,
			Now:         v.Now(),
			Proposals:   len(s.Governance.Proposals),
			Identities:  len(s.Identity.Identities),
			Holders:     len(s.Token.Accounts),
			Withdrawals: len(s.Treasury.Withdrawals),
			Receipts:    len(s.Treasury.Receipts),
		}
		for _, byVoter := range s.Governance.Votes {
			st.Votes += len(byVoter)
		}
		for _, id := range s.Identity.Identities {
			if id.Verified {
				st.Verified++
			}
		}
		return nil
	})
	return st, err
}

// Export returns a copy of the complete committed state.
func (uc *InspectLedger) Export(ctx context.Context) (*models.State, error) {
	var out *models.State
	err := uc.ledger.View(ctx, func(v View) error {
		out = v.State().Clone()
		return nil
	})
	return out, err
}

// Events returns the last limit journal entries, oldest first.
func (uc *InspectLedger) Events(ctx context.Context, limit int) ([]JournalEntry, error) {
	return uc.journal.Recent(ctx, limit)
}
