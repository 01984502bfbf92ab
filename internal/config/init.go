package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"

	"github.com/trebuchet-org/dvote/internal/domain"
	"github.com/trebuchet-org/dvote/internal/domain/config"
)

// DefaultProjectFile returns a dvote.toml with every default spelled out.
func DefaultProjectFile(admin common.Address) *config.ProjectFile {
	quorum := DefaultQuorumPercent
	autoDelegation := true
	journal := true
	pf := &config.ProjectFile{
		Governance: config.GovernanceSection{
			VotingDelay:       DefaultVotingDelay.String(),
			VotingPeriod:      DefaultVotingPeriod.String(),
			QuorumPercent:     &quorum,
			ProposalThreshold: DefaultProposalThreshold,
			GracePeriod:       DefaultGracePeriod.String(),
		},
		Treasury: config.TreasurySection{
			WithdrawalDelay: DefaultWithdrawalDelay.String(),
		},
		Token: config.TokenSection{
			Symbol:         DefaultTokenSymbol,
			Cap:            DefaultTokenCap,
			MintCooldown:   DefaultMintCooldown.String(),
			AutoDelegation: &autoDelegation,
		},
		Roles: config.RolesSection{
			Controller: DefaultController.Hex(),
		},
		Events: config.EventsSection{
			Journal: &journal,
		},
	}
	if admin != (common.Address{}) {
		pf.Roles.Admin = admin.Hex()
		pf.Roles.Verifiers = []string{admin.Hex()}
	}
	return pf
}

// WriteProjectFile writes pf to projectRoot/dvote.toml. An existing file is
// only replaced when force is set.
func WriteProjectFile(projectRoot string, pf *config.ProjectFile, force bool) (string, error) {
	path := filepath.Join(projectRoot, ProjectFileName)
	if _, err := os.Stat(path); err == nil && !force {
		return path, fmt.Errorf("%s already exists", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return path, fmt.Errorf("failed to create %s: %w", ProjectFileName, err)
	}
	defer f.Close()

	fmt.Fprintf(f, "# dvote project configuration\n# durations use Go syntax (72h, 30m); amounts are whole tokens (%d decimals)\n\n", domain.TokenDecimals)
	if err := toml.NewEncoder(f).Encode(pf); err != nil {
		return path, fmt.Errorf("failed to write %s: %w", ProjectFileName, err)
	}
	return path, nil
}
