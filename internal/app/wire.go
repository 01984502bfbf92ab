//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/spf13/viper"

	"github.com/trebuchet-org/dvote/internal/adapters"
	"github.com/trebuchet-org/dvote/internal/config"
	"github.com/trebuchet-org/dvote/internal/logging"
	"github.com/trebuchet-org/dvote/internal/usecase"
)

// InitApp creates a fully wired App instance
func InitApp(v *viper.Viper, sink usecase.ProgressSink) (*App, func(), error) {
	wire.Build(
		// Configuration
		config.Provider,
		logging.LoggingSet,

		// Adapters
		adapters.AllAdapters,

		// Components
		usecase.NewIdentityRegistry,
		wire.Bind(new(usecase.IdentityGate), new(*usecase.IdentityRegistry)),
		usecase.NewVotingPower,
		wire.Bind(new(usecase.VotingPowerSource), new(*usecase.VotingPower)),
		usecase.NewTreasury,
		wire.Bind(new(usecase.ExecutionTarget), new(*usecase.Treasury)),
		usecase.NewGovernor,

		// Use cases
		usecase.NewInspectLedger,

		// App
		NewApp,
	)
	return nil, nil, nil
}
