package interactive

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"

	"github.com/trebuchet-org/dvote/internal/domain/models"
)

// multiSelectModel is the bubbletea model for picking several identities
type multiSelectModel struct {
	items    []*models.Identity
	cursor   int
	selected map[int]bool
	title    string
	done     bool
	canceled bool
}

func newMultiSelectModel(items []*models.Identity, title string) multiSelectModel {
	return multiSelectModel{
		items:    items,
		selected: make(map[int]bool),
		title:    title,
	}
}

func (m multiSelectModel) Init() tea.Cmd {
	return nil
}

func (m multiSelectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "ctrl+c", "q", "esc":
		m.canceled = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case " ":
		m.selected[m.cursor] = !m.selected[m.cursor]
	case "a":
		all := len(m.chosen()) < len(m.items)
		for i := range m.items {
			m.selected[i] = all
		}
	case "enter":
		if len(m.chosen()) > 0 {
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m multiSelectModel) View() string {
	if m.done || m.canceled {
		return ""
	}

	var b strings.Builder
	b.WriteString(color.New(color.FgCyan, color.Bold).Sprintf("%s\n\n", m.title))
	for i, id := range m.items {
		cursor := " "
		if m.cursor == i {
			cursor = color.New(color.FgCyan).Sprint("▸")
		}
		checkbox := color.New(color.FgWhite).Sprint("○")
		if m.selected[i] {
			checkbox = color.New(color.FgGreen).Sprint("✓")
		}
		account := color.New(color.FgWhite).Sprint(id.Account.Hex())
		stage := color.New(color.FgYellow).Sprintf("(%s)", id.Stage())
		fmt.Fprintf(&b, "%s %s %s %s\n", cursor, checkbox, account, stage)
	}
	b.WriteString("\n")
	b.WriteString(color.New(color.FgYellow).Sprint("↑/↓: move  Space: toggle  a: all  Enter: confirm  q: quit\n"))
	return b.String()
}

// chosen returns the selected indices in list order
func (m multiSelectModel) chosen() []int {
	var out []int
	for i := range m.items {
		if m.selected[i] {
			out = append(out, i)
		}
	}
	return out
}

// SelectIdentities shows a checklist of identities and returns the picked ones
func (s *SelectorAdapter) SelectIdentities(ctx context.Context, identities []*models.Identity, prompt string) ([]*models.Identity, error) {
	if s.config.NonInteractive {
		return nil, fmt.Errorf("interactive selection not available in non-interactive mode")
	}
	if len(identities) == 0 {
		return nil, fmt.Errorf("no identities to select from")
	}

	p := tea.NewProgram(newMultiSelectModel(identities, prompt), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("multi-select failed: %w", err)
	}
	m := final.(multiSelectModel)
	if m.canceled || !m.done {
		return nil, fmt.Errorf("selection cancelled")
	}

	out := make([]*models.Identity, 0, len(identities))
	for _, i := range m.chosen() {
		out = append(out, identities[i])
	}
	return out, nil
}
