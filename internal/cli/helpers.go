package cli

import (
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"

	"github.com/trebuchet-org/dvote/internal/app"
	"github.com/trebuchet-org/dvote/internal/cli/render"
	"github.com/trebuchet-org/dvote/internal/domain"
)

// requireCaller returns the --from address of the invocation
func requireCaller(a *app.App) (common.Address, error) {
	if a.Config.Caller == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%w: caller not set (pass --from or set DVOTE_FROM)", domain.ErrZeroAddress)
	}
	return a.Config.Caller, nil
}

func parseID(s, what string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s id %q", domain.ErrInvalidParameter, what, s)
	}
	return id, nil
}

func parseAmount(s string) (*uint256.Int, error) {
	return domain.ParseAmount(s, domain.TokenDecimals)
}

func parsePayload(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: payload must be 0x-prefixed hex: %v", domain.ErrInvalidParameter, err)
	}
	return b, nil
}

// output is the JSON shape of a mutating command
type output struct {
	Result any      `json:"result,omitempty"`
	Events []string `json:"events"`
}

// finish reports a successful mutation: the result and the events it emitted
func finish(cmd *cobra.Command, a *app.App, message string, result any) error {
	emitted := a.Emitted.Drain()
	out := cmd.OutOrStdout()
	if a.Config.JSON {
		names := make([]string, len(emitted))
		for i, e := range emitted {
			names[i] = e.EventName()
		}
		return render.JSON(out, output{Result: result, Events: names})
	}
	fmt.Fprintln(out, render.FormatSuccess(message))
	render.RenderEvents(out, emitted)
	return nil
}
