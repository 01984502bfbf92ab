package config

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/trebuchet-org/dvote/internal/domain/models"
)

// RuntimeConfig represents the complete runtime configuration
// This is injected into use cases and contains all resolved settings
type RuntimeConfig struct {
	// Core settings
	ProjectRoot  string
	DataDir      string
	ConfigSource string // "dvote.toml" or "defaults"

	// Caller context
	Caller common.Address // --from
	At     *time.Time     // --at, pins the ledger clock

	// Execution settings
	Debug          bool
	NonInteractive bool
	JSON           bool // Output in JSON format
	Timeout        time.Duration
	MetricsFile    string

	// Resolved project configuration
	Governance models.GovernanceParams
	Treasury   TreasuryConfig
	Token      TokenConfig
	Roles      Roles
	Events     EventsConfig
}

// TreasuryConfig holds the treasury genesis settings
type TreasuryConfig struct {
	WithdrawalDelay time.Duration
	Allowlist       []common.Address
}

// TokenConfig holds the voting token genesis settings
type TokenConfig struct {
	Symbol         string
	Decimals       int32
	Cap            uint256.Int
	MintCooldown   time.Duration
	AutoDelegation bool
}

// EventsConfig selects where emitted events are delivered
type EventsConfig struct {
	Log         bool
	Journal     bool
	RedisURL    string
	RedisStream string
}

// Roles is the capability set handed to every component. Verifiers only
// seeds the registry; the live verifier set is ledger state.
type Roles struct {
	Admin      common.Address
	Controller common.Address
	Minters    []common.Address
	Verifiers  []common.Address
}

// IsAdmin reports whether addr is the admin.
func (r Roles) IsAdmin(addr common.Address) bool {
	return addr != (common.Address{}) && addr == r.Admin
}

// IsController reports whether addr may drive the treasury on behalf of governance.
func (r Roles) IsController(addr common.Address) bool {
	return addr != (common.Address{}) && (addr == r.Controller || addr == r.Admin)
}

// IsMinter reports whether addr may mint voting tokens.
func (r Roles) IsMinter(addr common.Address) bool {
	if addr == (common.Address{}) {
		return false
	}
	if addr == r.Admin {
		return true
	}
	for _, m := range r.Minters {
		if m == addr {
			return true
		}
	}
	return false
}

// Genesis returns the initial ledger content for this configuration.
func (c *RuntimeConfig) Genesis() models.Genesis {
	return models.Genesis{
		Governance:      c.Governance,
		WithdrawalDelay: c.Treasury.WithdrawalDelay,
		TokenCap:        c.Token.Cap,
		MintCooldown:    c.Token.MintCooldown,
		AutoDelegation:  c.Token.AutoDelegation,
		Verifiers:       c.Roles.Verifiers,
		Allowlist:       c.Treasury.Allowlist,
	}
}
