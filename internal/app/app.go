package app

import (
	"github.com/trebuchet-org/dvote/internal/adapters/events"
	"github.com/trebuchet-org/dvote/internal/domain/config"
	"github.com/trebuchet-org/dvote/internal/usecase"
)

// App is the main application container that holds all use cases
type App struct {
	// Configuration
	Config *config.RuntimeConfig

	// Shared dependencies
	ProposalSelector usecase.ProposalSelector
	IdentitySelector usecase.IdentitySelector
	Progress         usecase.ProgressSink

	// Components
	Governor *usecase.Governor
	Identity *usecase.IdentityRegistry
	Token    *usecase.VotingPower
	Treasury *usecase.Treasury

	// Use cases
	InspectLedger *usecase.InspectLedger

	// Emitted holds the events committed while the current command ran
	Emitted *events.Recorder
}

// NewApp creates a new application instance with all use cases
func NewApp(
	cfg *config.RuntimeConfig,
	proposalSelector usecase.ProposalSelector,
	identitySelector usecase.IdentitySelector,
	progress usecase.ProgressSink,
	governor *usecase.Governor,
	identity *usecase.IdentityRegistry,
	token *usecase.VotingPower,
	treasury *usecase.Treasury,
	inspectLedger *usecase.InspectLedger,
	emitted *events.Recorder,
) *App {
	return &App{
		Config:           cfg,
		ProposalSelector: proposalSelector,
		IdentitySelector: identitySelector,
		Progress:         progress,
		Governor:         governor,
		Identity:         identity,
		Token:            token,
		Treasury:         treasury,
		InspectLedger:    inspectLedger,
		Emitted:          emitted,
	}
}
