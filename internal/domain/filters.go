package domain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/dvote/internal/domain/models"
)

// ProposalFilter defines filtering options for proposals
type ProposalFilter struct {
	States   []models.ProposalState
	Proposer common.Address
	Voter    common.Address // only proposals this account voted on
}

// WithdrawalFilter defines filtering options for queued withdrawals
type WithdrawalFilter struct {
	Target    common.Address
	ReadyOnly bool
}

// IdentityFilter defines filtering options for registry records
type IdentityFilter struct {
	Stages []models.IdentityStage
}
