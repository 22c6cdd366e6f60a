// Package present is the terminal presentation mode: one slide at a time,
// navigated with the keyboard, driving the deck cursor in the store.
package present

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/roach88/slideboard/internal/engine"
	"github.com/roach88/slideboard/internal/model"
)

var (
	frameStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#64748b")).
			Padding(1, 4)
	titleStyle  = lipgloss.NewStyle().Bold(true)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#94a3b8"))
)

// Model is the bubbletea model of presentation mode.
type Model struct {
	store  *engine.Store
	deckID string

	width, height int
	quitting      bool
}

// New presents deckID from store.
func New(store *engine.Store, deckID string) Model {
	return Model{store: store, deckID: deckID}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		d, ok := m.deck()
		if !ok {
			m.quitting = true
			return m, tea.Quit
		}
		switch NavFor(msg.String()) {
		case NavPrevious:
			m.store.GoToPreviousSlide(m.deckID)
		case NavNext:
			m.store.GoToNextSlide(m.deckID)
		case NavFirst:
			m.store.SetCurrentSlide(m.deckID, 0)
		case NavLast:
			m.store.SetCurrentSlide(m.deckID, len(d.Slides)-1)
		case NavExit:
			m.quitting = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	d, ok := m.deck()
	if !ok {
		return "presentation not found\n"
	}
	slide, _ := d.CurrentSlide()

	body := strings.Join(Outline(slide), "\n")
	frame := frameStyle.Render(titleStyle.Render(d.Name) + "\n\n" + body)
	footer := footerStyle.Render(fmt.Sprintf("%d / %d   ←/→ navigate · home/end · q exit",
		d.CurrentSlideIndex+1, len(d.Slides)))
	content := lipgloss.JoinVertical(lipgloss.Center, frame, footer)

	if m.width == 0 || m.height == 0 {
		return content + "\n"
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m Model) deck() (model.Deck, bool) {
	return m.store.State().Deck(m.deckID)
}

// Run presents deckID full screen until the user exits or ctx ends.
func Run(ctx context.Context, store *engine.Store, deckID string, opts ...tea.ProgramOption) error {
	if _, ok := store.State().Deck(deckID); !ok {
		return fmt.Errorf("present: presentation %s not found", deckID)
	}
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	_, err := tea.NewProgram(New(store, deckID), opts...).Run()
	return err
}
