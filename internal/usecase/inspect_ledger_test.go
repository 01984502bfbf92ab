package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/trebuchet-org/dvote/internal/domain/models"
	"github.com/trebuchet-org/dvote/internal/usecase"
)

// MockEventJournal is a mock implementation of EventJournal
type MockEventJournal struct {
	mock.Mock
}

func (m *MockEventJournal) Recent(ctx context.Context, limit int) ([]usecase.JournalEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]usecase.JournalEntry), args.Error(1)
}

func TestInspectLedger(t *testing.T) {
	e := newEnv(t)
	e.verify(alice)
	e.mint(alice, 10)
	e.mint(bob, 10)
	id := e.propose(alice, 0)
	e.vote(alice, id, models.VoteFor)

	journal := &MockEventJournal{}
	journal.On("Recent", mock.Anything, 2).Return([]usecase.JournalEntry{{Name: "VoteCast"}, {Name: "DelegateVotesChanged"}}, nil)
	uc := usecase.NewInspectLedger(e.cfg, e.ledger, journal)

	st, err := uc.Status(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, e.ledger.Version(), st.Version)
	assert.Equal(t, 1, st.Proposals)
	assert.Equal(t, 1, st.Votes)
	assert.Equal(t, 1, st.Identities)
	assert.Equal(t, 1, st.Verified)
	assert.Equal(t, 2, st.Holders)

	state, err := uc.Export(e.ctx)
	require.NoError(t, err)
	state.Governance.Proposals[id].Title = "changed"
	pv, err := e.governor.Proposal(e.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Fund grantee", pv.Proposal.Title)

	entries, err := uc.Events(e.ctx, 2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	journal.AssertExpectations(t)
}
