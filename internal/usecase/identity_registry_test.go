package usecase_test

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/trebuchet-org/dvote/internal/domain"
	"github.com/trebuchet-org/dvote/internal/domain/models"
	"github.com/trebuchet-org/dvote/internal/usecase"
)

// MockProgressSink is a mock implementation of ProgressSink
type MockProgressSink struct {
	mock.Mock
}

func (m *MockProgressSink) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	m.Called(ctx, event)
}

func (m *MockProgressSink) Info(message string) {
	m.Called(message)
}

func (m *MockProgressSink) Error(message string) {
	m.Called(message)
}

var (
	commitment = common.HexToHash("0x01")
	proofHash  = common.HexToHash("0x02")
)

func stage(t *testing.T, e *env, account common.Address) models.IdentityStage {
	t.Helper()
	st, err := e.identity.Status(e.ctx, account)
	require.NoError(t, err)
	return st.Stage
}

func TestIdentityFlow(t *testing.T) {
	e := newEnv(t)
	assert.Equal(t, models.IdentityStageUnregistered, stage(t, e, alice))

	require.NoError(t, e.identity.SubmitCommitment(e.ctx, alice, commitment))
	st, err := e.identity.Status(e.ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, models.IdentityStageCommitmentSubmitted, st.Stage)
	assert.False(t, st.NeedsCommitment)
	assert.True(t, st.NeedsProof)

	require.NoError(t, e.identity.SubmitProofHash(e.ctx, alice, proofHash))
	st, err = e.identity.Status(e.ctx, alice)
	require.NoError(t, err)
	assert.True(t, st.AwaitingVerifier)

	pending, err := e.identity.Pending(e.ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, alice, pending[0].Account)

	badge, err := e.identity.VerifyAccount(e.ctx, verifier, alice, "")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), badge.ID)
	assert.Equal(t, models.DefaultBadgeType, badge.Type)
	assert.True(t, badge.Active)

	id, err := e.identity.Identity(e.ctx, alice)
	require.NoError(t, err)
	assert.True(t, id.Verified)
	require.NotNil(t, id.VerifiedBy)
	assert.Equal(t, verifier, *id.VerifiedBy)

	names := e.events.Names()
	assert.Equal(t, []string{"CommitmentSubmitted", "ProofSubmitted", "AccountVerified", "BadgeIssued"}, names)

	second, err := e.identity.VerifyAccount(e.ctx, verifier, alice, "")
	assert.ErrorIs(t, err, domain.ErrAlreadyVerified)
	assert.Nil(t, second)
	assert.ErrorIs(t, e.identity.SubmitCommitment(e.ctx, alice, commitment), domain.ErrAlreadyVerified)
}

func TestIdentityRejections(t *testing.T) {
	tests := []struct {
		name    string
		run     func(e *env) error
		wantErr error
	}{
		{
			name:    "empty commitment",
			run:     func(e *env) error { return e.identity.SubmitCommitment(e.ctx, alice, common.Hash{}) },
			wantErr: domain.ErrInvalidCommitment,
		},
		{
			name:    "empty proof",
			run:     func(e *env) error { return e.identity.SubmitProofHash(e.ctx, alice, common.Hash{}) },
			wantErr: domain.ErrInvalidProof,
		},
		{
			name:    "proof before commitment",
			run:     func(e *env) error { return e.identity.SubmitProofHash(e.ctx, alice, proofHash) },
			wantErr: domain.ErrMissingCommitment,
		},
		{
			name:    "zero account",
			run:     func(e *env) error { return e.identity.SubmitCommitment(e.ctx, common.Address{}, commitment) },
			wantErr: domain.ErrZeroAddress,
		},
		{
			name: "verify without proof",
			run: func(e *env) error {
				require.NoError(t, e.identity.SubmitCommitment(e.ctx, alice, commitment))
				_, err := e.identity.VerifyAccount(e.ctx, verifier, alice, "")
				return err
			},
			wantErr: domain.ErrInvalidState,
		},
		{
			name: "verify by a non-verifier",
			run: func(e *env) error {
				require.NoError(t, e.identity.SubmitCommitment(e.ctx, alice, commitment))
				require.NoError(t, e.identity.SubmitProofHash(e.ctx, alice, proofHash))
				_, err := e.identity.VerifyAccount(e.ctx, bob, alice, "")
				return err
			},
			wantErr: domain.ErrUnauthorized,
		},
		{
			name: "revoke an unverified account",
			run: func(e *env) error {
				return e.identity.RevokeVerification(e.ctx, admin, alice)
			},
			wantErr: domain.ErrInvalidState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			err := tt.run(e)
			assert.ErrorIs(t, err, tt.wantErr)

			verified, err := e.identity.IsVerified(e.ctx, alice)
			require.NoError(t, err)
			assert.False(t, verified)
		})
	}
}

func TestNewCommitmentResetsProof(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.identity.SubmitCommitment(e.ctx, alice, commitment))
	require.NoError(t, e.identity.SubmitProofHash(e.ctx, alice, proofHash))

	require.NoError(t, e.identity.SubmitCommitment(e.ctx, alice, common.HexToHash("0x03")))
	assert.Equal(t, models.IdentityStageCommitmentSubmitted, stage(t, e, alice))

	_, err := e.identity.VerifyAccount(e.ctx, verifier, alice, "")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestRevokeVerification(t *testing.T) {
	e := newEnv(t)
	e.verify(alice)

	assert.ErrorIs(t, e.identity.RevokeVerification(e.ctx, verifier, alice), domain.ErrUnauthorized)
	require.NoError(t, e.identity.RevokeVerification(e.ctx, admin, alice))

	id, err := e.identity.Identity(e.ctx, alice)
	require.NoError(t, err)
	assert.False(t, id.Verified)
	assert.Equal(t, models.IdentityStageRevoked, id.Stage())
	require.NotNil(t, id.Badge)
	assert.False(t, id.Badge.Active)

	// the flow starts over and a fresh badge is issued
	e.verify(alice)
	id, err = e.identity.Identity(e.ctx, alice)
	require.NoError(t, err)
	assert.True(t, id.Verified)
	assert.Equal(t, uint64(2), id.Badge.ID)
}

func TestSetVerifier(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.identity.SubmitCommitment(e.ctx, alice, commitment))
	require.NoError(t, e.identity.SubmitProofHash(e.ctx, alice, proofHash))

	assert.ErrorIs(t, e.identity.SetVerifier(e.ctx, bob, carol, true), domain.ErrUnauthorized)
	require.NoError(t, e.identity.SetVerifier(e.ctx, admin, carol, true))
	require.NoError(t, e.identity.SetVerifier(e.ctx, admin, verifier, false))

	verifiers, err := e.identity.Verifiers(e.ctx)
	require.NoError(t, err)
	assert.Equal(t, []common.Address{carol}, verifiers)

	_, err = e.identity.VerifyAccount(e.ctx, verifier, alice, "")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	badge, err := e.identity.VerifyAccount(e.ctx, carol, alice, "founder")
	require.NoError(t, err)
	assert.Equal(t, "founder", badge.Type)
}

func TestVerifyAccounts(t *testing.T) {
	e := newEnv(t)
	for _, account := range []common.Address{alice, bob} {
		require.NoError(t, e.identity.SubmitCommitment(e.ctx, account, commitment))
		require.NoError(t, e.identity.SubmitProofHash(e.ctx, account, proofHash))
	}

	sink := &MockProgressSink{}
	sink.On("OnProgress", mock.Anything, mock.MatchedBy(func(ev usecase.ProgressEvent) bool {
		return ev.Stage == "verifying" && ev.Total == 3
	})).Times(3)
	sink.On("OnProgress", mock.Anything, mock.MatchedBy(func(ev usecase.ProgressEvent) bool {
		return ev.Stage == "complete"
	})).Once()

	// carol never registered; alice appears twice
	results := e.identity.VerifyAccounts(e.ctx, verifier, []common.Address{alice, carol, bob, alice}, "", sink)

	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, domain.ErrMissingCommitment)
	assert.Nil(t, results[1].Badge)
	assert.NoError(t, results[2].Err)
	assert.Equal(t, uint64(2), results[2].Badge.ID)

	verified, err := e.identity.List(e.ctx, domain.IdentityFilter{Stages: []models.IdentityStage{models.IdentityStageVerified}})
	require.NoError(t, err)
	assert.Len(t, verified, 2)
	sink.AssertExpectations(t)
}
