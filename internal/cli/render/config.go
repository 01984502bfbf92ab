package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/trebuchet-org/dvote/internal/domain/config"
)

// ConfigRenderer renders the resolved runtime configuration
type ConfigRenderer struct {
	out io.Writer
}

// NewConfigRenderer creates a new config renderer
func NewConfigRenderer(out io.Writer) *ConfigRenderer {
	return &ConfigRenderer{out: out}
}

// Render renders the configuration grouped by section
func (r *ConfigRenderer) Render(cfg *config.RuntimeConfig) error {
	headerStyle.Fprintln(r.out, "Project")
	field(r.out, "Root", cfg.ProjectRoot)
	field(r.out, "Data dir", RelativePath(cfg.DataDir))
	field(r.out, "Source", cfg.ConfigSource)
	field(r.out, "Caller", Address(cfg.Caller))
	if cfg.At != nil {
		field(r.out, "Pinned time", Time(*cfg.At))
	}

	fmt.Fprintln(r.out)
	if err := NewProposalRenderer(r.out).RenderParameters(cfg.Governance); err != nil {
		return err
	}

	fmt.Fprintln(r.out)
	headerStyle.Fprintln(r.out, "Treasury:")
	field(r.out, "Withdrawal delay", Duration(cfg.Treasury.WithdrawalDelay))
	field(r.out, "Allowlist", addressList(cfg.Treasury.Allowlist))

	fmt.Fprintln(r.out)
	headerStyle.Fprintln(r.out, "Token:")
	field(r.out, "Symbol", cfg.Token.Symbol)
	field(r.out, "Cap", Amount(&cfg.Token.Cap))
	field(r.out, "Mint cooldown", Duration(cfg.Token.MintCooldown))
	field(r.out, "Auto-delegation", YesNo(cfg.Token.AutoDelegation))

	fmt.Fprintln(r.out)
	headerStyle.Fprintln(r.out, "Roles:")
	field(r.out, "Admin", Address(cfg.Roles.Admin))
	field(r.out, "Controller", Address(cfg.Roles.Controller))
	field(r.out, "Minters", addressList(cfg.Roles.Minters))
	field(r.out, "Verifiers", addressList(cfg.Roles.Verifiers))

	fmt.Fprintln(r.out)
	headerStyle.Fprintln(r.out, "Events:")
	field(r.out, "Log", YesNo(cfg.Events.Log))
	field(r.out, "Journal", YesNo(cfg.Events.Journal))
	if cfg.Events.RedisURL != "" {
		field(r.out, "Redis stream", fmt.Sprintf("%s (%s)", cfg.Events.RedisStream, cfg.Events.RedisURL))
	}
	return nil
}

func addressList(addrs []common.Address) string {
	if len(addrs) == 0 {
		return "-"
	}
	parts := make([]string, len(addrs))
	for i, a := range addrs {
		parts[i] = a.Hex()
	}
	return strings.Join(parts, "\n"+strings.Repeat(" ", 19))
}
