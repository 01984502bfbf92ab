package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/holiman/uint256"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/trebuchet-org/dvote/internal/domain"
	"github.com/trebuchet-org/dvote/internal/domain/models"
)

var (
	headerStyle    = color.New(color.FgCyan, color.Bold)
	labelStyle     = color.New(color.Faint)
	addressStyle   = color.New(color.FgWhite)
	amountStyle    = color.New(color.FgYellow)
	timestampStyle = color.New(color.Faint)
	goodStyle      = color.New(color.FgGreen)
	badStyle       = color.New(color.FgRed)
	pendingStyle   = color.New(color.FgYellow)

	titleCaser = cases.Title(language.English)
)

// FormatError formats an error message with the error icon
func FormatError(err error) string {
	msg := err.Error()
	if len(msg) > 0 {
		msg = strings.ToUpper(msg[:1]) + msg[1:]
	}
	return color.New(color.FgRed).Sprintf("❌ %s", msg)
}

// FormatHint formats the remedy for err, or returns an empty string
func FormatHint(err error) string {
	hint := domain.Hint(err)
	if hint == "" {
		return ""
	}
	return color.New(color.FgYellow).Sprintf("💡 %s", hint)
}

// FormatSuccess formats a success message with the success icon
func FormatSuccess(message string) string {
	return color.New(color.FgGreen).Sprintf("✅ %s", message)
}

// FormatWarning formats a warning message with the warning icon
func FormatWarning(message string) string {
	return color.New(color.FgYellow).Sprintf("⚠️  %s", message)
}

// JSON writes v as indented JSON
func JSON(out io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

// Amount renders base units as whole tokens
func Amount(v *uint256.Int) string {
	return domain.FormatAmount(v, domain.TokenDecimals)
}

// Address renders an address, or a dash for the zero address
func Address(a common.Address) string {
	if a == (common.Address{}) {
		return "-"
	}
	return a.Hex()
}

// Time renders a timestamp in UTC, or a dash for the zero time
func Time(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04:05 UTC")
}

// Relative renders the distance from now to t ("in 2h0m0s", "5m0s ago")
func Relative(t, now time.Time) string {
	d := t.Sub(now).Round(time.Second)
	switch {
	case d > 0:
		return "in " + d.String()
	case d < 0:
		return (-d).String() + " ago"
	}
	return "now"
}

// Duration renders a duration with day granularity when it is whole days
func Duration(d time.Duration) string {
	const day = 24 * time.Hour
	if d >= day && d%day == 0 {
		days := int(d / day)
		if days == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", days)
	}
	return d.String()
}

// Title capitalizes a state or stage name for display
func Title(s string) string {
	return titleCaser.String(strings.ReplaceAll(s, "-", " "))
}

// StateColor picks the color of a proposal state
func StateColor(s models.ProposalState) *color.Color {
	switch s {
	case models.ProposalStateActive, models.ProposalStatePending:
		return pendingStyle
	case models.ProposalStateSucceeded, models.ProposalStateQueued, models.ProposalStateExecuted:
		return goodStyle
	case models.ProposalStateDefeated, models.ProposalStateExpired, models.ProposalStateCanceled:
		return badStyle
	}
	return color.New()
}

// YesNo renders a flag as a colored yes or no
func YesNo(v bool) string {
	if v {
		return goodStyle.Sprint("yes")
	}
	return labelStyle.Sprint("no")
}

// field writes one aligned "label: value" line
func field(out io.Writer, label string, value any) {
	fmt.Fprintf(out, "  %s %v\n", labelStyle.Sprintf("%-16s", label+":"), value)
}

// newTable returns a borderless table writer in the list style
func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateColumns = false
	t.Style().Options.SeparateRows = false
	t.Style().Box = table.BoxStyle{
		PaddingRight:     "   ",
		MiddleHorizontal: "─",
	}
	t.Style().Format.Header = text.FormatUpper
	return t
}

// RelativePath returns path relative to the working directory when possible
func RelativePath(path string) string {
	cwd, err := os.Getwd()
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(cwd, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

