package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ledgerline/ledgerline/internal/model"
)

// Run starts the interactive review screen for the given suggestions and
// blocks until the reviewer finishes. It returns the accepted suggestions.
func Run(ctx context.Context, linker Linker, suggestions []model.LinkSuggestion) ([]model.LinkSuggestion, error) {
	program := tea.NewProgram(NewModel(ctx, linker, suggestions), tea.WithContext(ctx))

	final, err := program.Run()
	if err != nil {
		return nil, fmt.Errorf("review session failed: %w", err)
	}

	m, ok := final.(Model)
	if !ok {
		return nil, fmt.Errorf("unexpected model type %T", final)
	}
	return m.Accepted(), nil
}
