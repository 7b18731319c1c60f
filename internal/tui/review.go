// Package tui provides the interactive terminal UI for reviewing pending
// link suggestions.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ledgerline/ledgerline/internal/model"
)

// Linker commits a reviewed suggestion.
type Linker interface {
	Accept(ctx context.Context, suggestion model.LinkSuggestion) error
}

// Decision records what the reviewer chose for one suggestion.
type Decision int

const (
	DecisionPending Decision = iota
	DecisionAccepted
	DecisionRejected
	DecisionSkipped
)

// KeyMap defines the review screen's keyboard shortcuts.
type KeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Accept key.Binding
	Reject key.Binding
	Skip   key.Binding
	Quit   key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("↓/j", "down"),
		),
		Accept: key.NewBinding(
			key.WithKeys("a", "y"),
			key.WithHelp("a/y", "accept link"),
		),
		Reject: key.NewBinding(
			key.WithKeys("r", "n"),
			key.WithHelp("r/n", "reject"),
		),
		Skip: key.NewBinding(
			key.WithKeys("s", "space"),
			key.WithHelp("s/Space", "skip"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q", "quit"),
		),
	}
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("170"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	acceptStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	rejectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	detailStyle   = lipgloss.NewStyle().PaddingLeft(2)
)

// acceptResultMsg reports the outcome of an accept command.
type acceptResultMsg struct {
	err   error
	index int
}

// Model is the bubbletea model for the suggestion review screen.
type Model struct {
	ctx         context.Context
	linker      Linker
	keys        KeyMap
	suggestions []model.LinkSuggestion
	decisions   []Decision
	errs        []string
	cursor      int
	done        bool
}

// NewModel creates a review model over the given pending suggestions.
func NewModel(ctx context.Context, linker Linker, suggestions []model.LinkSuggestion) Model {
	return Model{
		ctx:         ctx,
		linker:      linker,
		keys:        DefaultKeyMap(),
		suggestions: suggestions,
		decisions:   make([]Decision, len(suggestions)),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.done = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}

		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.suggestions)-1 {
				m.cursor++
			}

		case key.Matches(msg, m.keys.Accept):
			if m.current() == DecisionPending {
				return m, m.acceptCmd(m.cursor)
			}

		case key.Matches(msg, m.keys.Reject):
			if m.current() == DecisionPending {
				m.decisions[m.cursor] = DecisionRejected
				return m.advance()
			}

		case key.Matches(msg, m.keys.Skip):
			if m.current() == DecisionPending {
				m.decisions[m.cursor] = DecisionSkipped
				return m.advance()
			}
		}

	case acceptResultMsg:
		if msg.err != nil {
			m.errs = append(m.errs, fmt.Sprintf("failed to link: %v", msg.err))
			return m, nil
		}
		m.decisions[msg.index] = DecisionAccepted
		return m.advance()
	}

	return m, nil
}

func (m Model) current() Decision {
	if len(m.decisions) == 0 {
		return DecisionPending
	}
	return m.decisions[m.cursor]
}

// advance moves to the next undecided suggestion, or quits when every
// suggestion has a decision.
func (m Model) advance() (tea.Model, tea.Cmd) {
	for i := range m.suggestions {
		next := (m.cursor + 1 + i) % len(m.suggestions)
		if m.decisions[next] == DecisionPending {
			m.cursor = next
			return m, nil
		}
	}
	m.done = true
	return m, tea.Quit
}

func (m Model) acceptCmd(index int) tea.Cmd {
	suggestion := m.suggestions[index]
	return func() tea.Msg {
		return acceptResultMsg{index: index, err: m.linker.Accept(m.ctx, suggestion)}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if m.done {
		return ""
	}
	if len(m.suggestions) == 0 {
		return titleStyle.Render("No pending link suggestions") + "\n\n" +
			dimStyle.Render("press q to quit") + "\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Link suggestions (%d pending)", m.pendingCount())))
	b.WriteString("\n\n")

	for i, suggestion := range m.suggestions {
		line := fmt.Sprintf("%s  %s  %d children · $%.2f",
			suggestion.Parent.MerchantLabel(), suggestion.Level, len(suggestion.Children), suggestion.Parent.Amount)

		switch {
		case m.decisions[i] == DecisionAccepted:
			line = acceptStyle.Render("✓ " + line)
		case m.decisions[i] == DecisionRejected:
			line = rejectStyle.Render("✗ " + line)
		case m.decisions[i] == DecisionSkipped:
			line = dimStyle.Render("- " + line)
		case i == m.cursor:
			line = selectedStyle.Render("> " + line)
		default:
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")

		if i == m.cursor {
			b.WriteString(m.renderDetail(suggestion))
		}
	}

	for _, e := range m.errs {
		b.WriteString(rejectStyle.Render(e))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("a/y accept · r/n reject · s skip · j/k move · q quit"))
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderDetail(suggestion model.LinkSuggestion) string {
	var b strings.Builder
	for _, child := range suggestion.Children {
		b.WriteString(detailStyle.Render(fmt.Sprintf("%s  %s  $%.2f",
			child.Date.Format("2006-01-02"), child.MerchantLabel(), child.Amount)))
		b.WriteString("\n")
	}
	b.WriteString(detailStyle.Render(dimStyle.Render(fmt.Sprintf(
		"score: date %.0f + amount %.0f + group %.0f = %.0f",
		suggestion.Breakdown.DateScore,
		suggestion.Breakdown.AmountScore,
		suggestion.Breakdown.GroupScore,
		suggestion.Confidence))))
	b.WriteString("\n")
	return b.String()
}

func (m Model) pendingCount() int {
	count := 0
	for _, d := range m.decisions {
		if d == DecisionPending {
			count++
		}
	}
	return count
}

// Accepted returns the suggestions the reviewer accepted.
func (m Model) Accepted() []model.LinkSuggestion {
	var accepted []model.LinkSuggestion
	for i, d := range m.decisions {
		if d == DecisionAccepted {
			accepted = append(accepted, m.suggestions[i])
		}
	}
	return accepted
}
