package interactive

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/sahilm/fuzzy"

	"github.com/trebuchet-org/dvote/internal/domain/config"
	"github.com/trebuchet-org/dvote/internal/usecase"
)

// SelectorAdapter handles interactive selection
type SelectorAdapter struct {
	config *config.RuntimeConfig
}

// NewSelectorAdapter creates a new selector adapter
func NewSelectorAdapter(cfg *config.RuntimeConfig) *SelectorAdapter {
	return &SelectorAdapter{config: cfg}
}

// SelectProposal asks the user to pick one proposal
func (s *SelectorAdapter) SelectProposal(ctx context.Context, proposals []*usecase.ProposalView, prompt string) (*usecase.ProposalView, error) {
	if s.config.NonInteractive {
		return nil, fmt.Errorf("interactive selection not available in non-interactive mode")
	}
	if len(proposals) == 0 {
		return nil, fmt.Errorf("no proposals to select from")
	}
	if len(proposals) == 1 {
		return proposals[0], nil
	}

	options := formatProposalOptions(proposals)
	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "▸ {{ . | cyan }}",
		Inactive: "  {{ . | faint }}",
		Selected: "✓ {{ . | green }}",
		Help:     color.New(color.FgYellow).Sprint("Use arrow keys to navigate, Enter to select"),
	}
	promptSelect := promptui.Select{
		Label:             prompt,
		Items:             options,
		Templates:         templates,
		Size:              10,
		StartInSearchMode: true,
		Searcher:          fuzzySearcher(options),
	}

	index, _, err := promptSelect.Run()
	if err != nil {
		return nil, fmt.Errorf("selection cancelled: %w", err)
	}
	return proposals[index], nil
}

func formatProposalOptions(proposals []*usecase.ProposalView) []string {
	options := make([]string, len(proposals))
	for i, pv := range proposals {
		p := pv.Proposal
		id := color.New(color.FgWhite, color.Bold).Sprintf("#%d", p.ID)
		state := color.New(color.FgYellow).Sprintf("[%s]", pv.State)
		options[i] = fmt.Sprintf("%s %s %s", id, p.Title, state)
	}
	return options
}

// fuzzySearcher matches by substring first, then fuzzily
func fuzzySearcher(items []string) func(input string, index int) bool {
	return func(input string, index int) bool {
		if input == "" {
			return true
		}
		input = strings.ToLower(input)
		item := strings.ToLower(items[index])
		if strings.Contains(item, input) {
			return true
		}
		return len(fuzzy.Find(input, []string{item})) > 0
	}
}

var (
	_ usecase.ProposalSelector = (*SelectorAdapter)(nil)
	_ usecase.IdentitySelector = (*SelectorAdapter)(nil)
)
