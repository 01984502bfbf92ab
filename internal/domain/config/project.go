package config

// ProjectFile represents the dvote.toml configuration file. Durations are Go
// duration strings ("72h"), amounts are whole-token decimals ("1.5") and
// addresses are hex strings; ${VAR} references are expanded from the
// environment.
type ProjectFile struct {
	Governance GovernanceSection `toml:"governance"`
	Treasury   TreasurySection   `toml:"treasury"`
	Token      TokenSection      `toml:"token"`
	Roles      RolesSection      `toml:"roles"`
	Events     EventsSection     `toml:"events"`
}

// GovernanceSection is the [governance] table
type GovernanceSection struct {
	VotingDelay       string  `toml:"voting_delay,omitempty"`
	VotingPeriod      string  `toml:"voting_period,omitempty"`
	QuorumPercent     *uint64 `toml:"quorum_percent,omitempty"`
	ProposalThreshold string  `toml:"proposal_threshold,omitempty"`
	GracePeriod       string  `toml:"grace_period,omitempty"`
}

// TreasurySection is the [treasury] table
type TreasurySection struct {
	WithdrawalDelay string   `toml:"withdrawal_delay,omitempty"`
	Allowlist       []string `toml:"allowlist,omitempty"`
}

// TokenSection is the [token] table
type TokenSection struct {
	Symbol         string `toml:"symbol,omitempty"`
	Cap            string `toml:"cap,omitempty"`
	MintCooldown   string `toml:"mint_cooldown,omitempty"`
	AutoDelegation *bool  `toml:"auto_delegation,omitempty"`
}

// RolesSection is the [roles] table
type RolesSection struct {
	Admin      string   `toml:"admin,omitempty"`
	Controller string   `toml:"controller,omitempty"`
	Minters    []string `toml:"minters,omitempty"`
	Verifiers  []string `toml:"verifiers,omitempty"`
}

// EventsSection is the [events] table
type EventsSection struct {
	Log         *bool  `toml:"log,omitempty"`
	Journal     *bool  `toml:"journal,omitempty"`
	RedisURL    string `toml:"redis_url,omitempty"`
	RedisStream string `toml:"redis_stream,omitempty"`
}
