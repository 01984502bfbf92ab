package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trebuchet-org/dvote/internal/domain"
)

const admin = "0x00000000000000000000000000000000000000aD"

func newViper(root string) *viper.Viper {
	v := viper.New()
	v.Set("project_root", root)
	return v
}

func writeProject(t *testing.T, root, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(root, ProjectFileName), []byte(content), 0644))
}

func TestProvider(t *testing.T) {
	t.Run("defaults without dvote.toml", func(t *testing.T) {
		root := t.TempDir()
		cfg, err := Provider(newViper(root))
		require.NoError(t, err)

		assert.Equal(t, "defaults", cfg.ConfigSource)
		assert.Equal(t, filepath.Join(root, DataDirName), cfg.DataDir)
		assert.Equal(t, DefaultVotingPeriod, cfg.Governance.VotingPeriod)
		assert.Equal(t, DefaultQuorumPercent, cfg.Governance.QuorumPercent)
		assert.Equal(t, "1000000000000000000", cfg.Governance.ProposalThreshold.Dec())
		assert.Equal(t, DefaultWithdrawalDelay, cfg.Treasury.WithdrawalDelay)
		assert.Equal(t, DefaultController, cfg.Roles.Controller)
		assert.True(t, cfg.Token.AutoDelegation)
		assert.True(t, cfg.Events.Journal)
		assert.False(t, cfg.Events.Log)
	})

	t.Run("project file with env expansion", func(t *testing.T) {
		root := t.TempDir()
		t.Setenv("DVOTE_TEST_ADMIN", admin)
		writeProject(t, root, `
[governance]
voting_period = "1h"
quorum_percent = 25
proposal_threshold = "0.5"

[treasury]
withdrawal_delay = "2h"
allowlist = ["0x0000000000000000000000000000000000000001"]

[token]
cap = "500"
mint_cooldown = "0s"
auto_delegation = false

[roles]
admin = "${DVOTE_TEST_ADMIN}"
minters = ["0x0000000000000000000000000000000000000002"]
`)
		cfg, err := Provider(newViper(root))
		require.NoError(t, err)

		assert.Equal(t, ProjectFileName, cfg.ConfigSource)
		assert.Equal(t, time.Hour, cfg.Governance.VotingPeriod)
		assert.Equal(t, uint64(25), cfg.Governance.QuorumPercent)
		assert.Equal(t, "500000000000000000", cfg.Governance.ProposalThreshold.Dec())
		assert.Equal(t, 2*time.Hour, cfg.Treasury.WithdrawalDelay)
		assert.Equal(t, []common.Address{common.HexToAddress("0x01")}, cfg.Treasury.Allowlist)
		assert.Equal(t, "500", domain.FormatAmount(&cfg.Token.Cap, domain.TokenDecimals))
		assert.Zero(t, cfg.Token.MintCooldown)
		assert.False(t, cfg.Token.AutoDelegation)
		assert.Equal(t, common.HexToAddress(admin), cfg.Roles.Admin)
		assert.True(t, cfg.Roles.IsMinter(common.HexToAddress("0x02")))
	})

	t.Run("caller and pinned time from flags", func(t *testing.T) {
		v := newViper(t.TempDir())
		v.Set("from", admin)
		v.Set("at", "2025-01-02T03:04:05Z")
		cfg, err := Provider(v)
		require.NoError(t, err)

		assert.Equal(t, common.HexToAddress(admin), cfg.Caller)
		require.NotNil(t, cfg.At)
		assert.Equal(t, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), *cfg.At)
	})

	t.Run("rejects invalid values", func(t *testing.T) {
		cases := map[string]string{
			"unknown key":        "[governance]\nvoting_perod = \"1h\"\n",
			"bad duration":       "[governance]\nvoting_period = \"soon\"\n",
			"quorum above 100":   "[governance]\nquorum_percent = 101\n",
			"delay out of range": "[treasury]\nwithdrawal_delay = \"1m\"\n",
			"bad address":        "[roles]\nadmin = \"0x12\"\n",
		}
		for name, content := range cases {
			t.Run(name, func(t *testing.T) {
				root := t.TempDir()
				writeProject(t, root, content)
				_, err := Provider(newViper(root))
				assert.Error(t, err)
			})
		}
	})

	t.Run("invalid from", func(t *testing.T) {
		v := newViper(t.TempDir())
		v.Set("from", "alice")
		_, err := Provider(v)
		assert.ErrorContains(t, err, "--from")
	})
}

func TestParseTime(t *testing.T) {
	got, err := ParseTime("1700000000")
	require.NoError(t, err)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), got)

	_, err = ParseTime("yesterday")
	assert.Error(t, err)
}

func TestWriteProjectFileRoundTrip(t *testing.T) {
	root := t.TempDir()
	path, err := WriteProjectFile(root, DefaultProjectFile(common.HexToAddress(admin)), false)
	require.NoError(t, err)
	assert.FileExists(t, path)

	_, err = WriteProjectFile(root, DefaultProjectFile(common.Address{}), false)
	assert.ErrorContains(t, err, "already exists")

	cfg, err := Provider(newViper(root))
	require.NoError(t, err)
	assert.Equal(t, ProjectFileName, cfg.ConfigSource)
	assert.Equal(t, common.HexToAddress(admin), cfg.Roles.Admin)
	assert.Equal(t, []common.Address{common.HexToAddress(admin)}, cfg.Roles.Verifiers)
	assert.Equal(t, DefaultGracePeriod, cfg.Governance.GracePeriod)
}
