package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/joho/godotenv"

	"github.com/trebuchet-org/dvote/internal/domain"
	"github.com/trebuchet-org/dvote/internal/domain/config"
	"github.com/trebuchet-org/dvote/internal/usecase"
)

const (
	// ProjectFileName is the project configuration file at the project root
	ProjectFileName = "dvote.toml"
	// DataDirName is the ledger directory below the project root
	DataDirName = ".dvote"
)

// Defaults applied when dvote.toml leaves a value out
const (
	DefaultVotingDelay       = time.Duration(0)
	DefaultVotingPeriod      = 72 * time.Hour
	DefaultQuorumPercent     = uint64(10)
	DefaultProposalThreshold = "1"
	DefaultGracePeriod       = 14 * 24 * time.Hour
	DefaultWithdrawalDelay   = 24 * time.Hour
	DefaultTokenSymbol       = "DVOTE"
	DefaultTokenCap          = "1000000"
	DefaultMintCooldown      = 24 * time.Hour
)

// DefaultController is the address the governor acts as towards the treasury
// when no controller is configured.
var DefaultController = common.BytesToAddress(crypto.Keccak256([]byte("dvote/governor"))[12:])

// loadProjectFile reads dvote.toml from projectRoot after loading .env files
// for variable expansion. A missing file is not an error.
func loadProjectFile(projectRoot string) (*config.ProjectFile, bool, error) {
	for _, envFile := range []string{".env", ".env.local"} {
		path := filepath.Join(projectRoot, envFile)
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: Failed to load %s: %v\n", path, err)
			}
		}
	}

	path := filepath.Join(projectRoot, ProjectFileName)
	var pf config.ProjectFile
	meta, err := toml.DecodeFile(path, &pf)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &config.ProjectFile{}, false, nil
		}
		return nil, false, fmt.Errorf("failed to parse %s: %w", ProjectFileName, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, false, fmt.Errorf("unknown keys in %s: %s", ProjectFileName, strings.Join(keys, ", "))
	}
	return &pf, true, nil
}

// resolveProject converts the file's string values into typed settings on
// cfg, falling back to defaults.
func resolveProject(cfg *config.RuntimeConfig, pf *config.ProjectFile) error {
	var err error
	gov := pf.Governance
	if cfg.Governance.VotingDelay, err = durationOr(gov.VotingDelay, DefaultVotingDelay, "governance.voting_delay"); err != nil {
		return err
	}
	if cfg.Governance.VotingPeriod, err = durationOr(gov.VotingPeriod, DefaultVotingPeriod, "governance.voting_period"); err != nil {
		return err
	}
	if cfg.Governance.GracePeriod, err = durationOr(gov.GracePeriod, DefaultGracePeriod, "governance.grace_period"); err != nil {
		return err
	}
	cfg.Governance.QuorumPercent = DefaultQuorumPercent
	if gov.QuorumPercent != nil {
		cfg.Governance.QuorumPercent = *gov.QuorumPercent
	}
	threshold, err := amountOr(gov.ProposalThreshold, DefaultProposalThreshold, "governance.proposal_threshold")
	if err != nil {
		return err
	}
	cfg.Governance.ProposalThreshold = *threshold
	if err := usecase.ValidateParams(cfg.Governance); err != nil {
		return fmt.Errorf("invalid [governance]: %w", err)
	}

	if cfg.Treasury.WithdrawalDelay, err = durationOr(pf.Treasury.WithdrawalDelay, DefaultWithdrawalDelay, "treasury.withdrawal_delay"); err != nil {
		return err
	}
	if d := cfg.Treasury.WithdrawalDelay; d < usecase.MinWithdrawalDelay || d > usecase.MaxWithdrawalDelay {
		return fmt.Errorf("invalid treasury.withdrawal_delay %s: must be between %s and %s", d, usecase.MinWithdrawalDelay, usecase.MaxWithdrawalDelay)
	}
	if cfg.Treasury.Allowlist, err = addresses(pf.Treasury.Allowlist, "treasury.allowlist"); err != nil {
		return err
	}

	cfg.Token.Symbol = DefaultTokenSymbol
	if pf.Token.Symbol != "" {
		cfg.Token.Symbol = pf.Token.Symbol
	}
	cfg.Token.Decimals = domain.TokenDecimals
	capAmount, err := amountOr(pf.Token.Cap, DefaultTokenCap, "token.cap")
	if err != nil {
		return err
	}
	cfg.Token.Cap = *capAmount
	if cfg.Token.MintCooldown, err = durationOr(pf.Token.MintCooldown, DefaultMintCooldown, "token.mint_cooldown"); err != nil {
		return err
	}
	cfg.Token.AutoDelegation = boolOr(pf.Token.AutoDelegation, true)

	if cfg.Roles.Admin, err = addressOr(pf.Roles.Admin, common.Address{}, "roles.admin"); err != nil {
		return err
	}
	if cfg.Roles.Controller, err = addressOr(pf.Roles.Controller, DefaultController, "roles.controller"); err != nil {
		return err
	}
	if cfg.Roles.Minters, err = addresses(pf.Roles.Minters, "roles.minters"); err != nil {
		return err
	}
	if cfg.Roles.Verifiers, err = addresses(pf.Roles.Verifiers, "roles.verifiers"); err != nil {
		return err
	}

	cfg.Events.Log = boolOr(pf.Events.Log, false)
	cfg.Events.Journal = boolOr(pf.Events.Journal, true)
	cfg.Events.RedisURL = os.ExpandEnv(pf.Events.RedisURL)
	cfg.Events.RedisStream = pf.Events.RedisStream
	return nil
}

func durationOr(raw string, def time.Duration, key string) (time.Duration, error) {
	raw = strings.TrimSpace(os.ExpandEnv(raw))
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", key, raw)
	}
	return d, nil
}

func amountOr(raw, def, key string) (*uint256.Int, error) {
	raw = strings.TrimSpace(os.ExpandEnv(raw))
	if raw == "" {
		raw = def
	}
	v, err := domain.ParseAmount(raw, domain.TokenDecimals)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func addressOr(raw string, def common.Address, key string) (common.Address, error) {
	raw = strings.TrimSpace(os.ExpandEnv(raw))
	if raw == "" {
		return def, nil
	}
	addr, err := domain.ParseAddress(raw)
	if err != nil {
		return common.Address{}, fmt.Errorf("invalid %s: %w", key, err)
	}
	return addr, nil
}

func addresses(raw []string, key string) ([]common.Address, error) {
	out := make([]common.Address, 0, len(raw))
	for _, r := range raw {
		addr, err := addressOr(r, common.Address{}, key)
		if err != nil {
			return nil, err
		}
		if addr == (common.Address{}) {
			return nil, fmt.Errorf("invalid %s: empty address", key)
		}
		out = append(out, addr)
	}
	return out, nil
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
