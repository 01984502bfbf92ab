package interactive

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"

	"github.com/trebuchet-org/dvote/internal/domain/models"
)

func press(m tea.Model, keys ...string) tea.Model {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case " ":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		m, _ = m.Update(msg)
	}
	return m
}

func testIdentities() []*models.Identity {
	return []*models.Identity{
		{Account: common.HexToAddress("0x01")},
		{Account: common.HexToAddress("0x02")},
		{Account: common.HexToAddress("0x03")},
	}
}

func TestMultiSelectModel(t *testing.T) {
	t.Run("toggle and confirm keeps list order", func(t *testing.T) {
		m := press(newMultiSelectModel(testIdentities(), "Verify"), "down", "down", " ", "k", "k", " ", "enter").(multiSelectModel)
		assert.True(t, m.done)
		assert.Equal(t, []int{0, 2}, m.chosen())
	})

	t.Run("enter without selection does nothing", func(t *testing.T) {
		m := press(newMultiSelectModel(testIdentities(), "Verify"), "enter").(multiSelectModel)
		assert.False(t, m.done)
	})

	t.Run("quit cancels", func(t *testing.T) {
		m := press(newMultiSelectModel(testIdentities(), "Verify"), " ", "q").(multiSelectModel)
		assert.True(t, m.canceled)
		assert.False(t, m.done)
	})

	t.Run("a toggles all", func(t *testing.T) {
		m := press(newMultiSelectModel(testIdentities(), "Verify"), "a").(multiSelectModel)
		assert.Len(t, m.chosen(), 3)
		m = press(m, "a").(multiSelectModel)
		assert.Empty(t, m.chosen())
	})
}
