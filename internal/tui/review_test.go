package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/model"
)

type stubLinker struct {
	acceptErr error
	accepted  []string
}

func (s *stubLinker) Accept(_ context.Context, suggestion model.LinkSuggestion) error {
	if s.acceptErr != nil {
		return s.acceptErr
	}
	s.accepted = append(s.accepted, suggestion.Parent.ID)
	return nil
}

func suggestion(parentID string, confidence float64) model.LinkSuggestion {
	return model.LinkSuggestion{
		Parent: model.Transaction{
			ID:       parentID,
			Date:     time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
			Amount:   100,
			Merchant: "Amazon",
		},
		Children: []model.Transaction{
			{ID: parentID + "-c1", Date: time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC), Amount: 60, Merchant: "Amazon"},
		},
		Confidence: confidence,
		Level:      model.LevelForConfidence(confidence),
	}
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestReviewAcceptFlow(t *testing.T) {
	linker := &stubLinker{}
	m := NewModel(context.Background(), linker, []model.LinkSuggestion{
		suggestion("parent-1", 85),
		suggestion("parent-2", 75),
	})

	// Accept produces a command that calls the linker.
	updated, cmd := m.Update(keyMsg("a"))
	m = updated.(Model)
	require.NotNil(t, cmd)

	msg := cmd()
	result, ok := msg.(acceptResultMsg)
	require.True(t, ok)
	require.NoError(t, result.err)
	assert.Equal(t, []string{"parent-1"}, linker.accepted)

	// Feeding the result back records the decision and moves on.
	updated, _ = m.Update(result)
	m = updated.(Model)
	assert.Equal(t, DecisionAccepted, m.decisions[0])
	assert.Equal(t, 1, m.cursor)

	require.Len(t, m.Accepted(), 1)
	assert.Equal(t, "parent-1", m.Accepted()[0].Parent.ID)
}

func TestReviewRejectAndSkip(t *testing.T) {
	m := NewModel(context.Background(), &stubLinker{}, []model.LinkSuggestion{
		suggestion("parent-1", 85),
		suggestion("parent-2", 75),
	})

	updated, _ := m.Update(keyMsg("r"))
	m = updated.(Model)
	assert.Equal(t, DecisionRejected, m.decisions[0])
	assert.Equal(t, 1, m.cursor)

	// Deciding the last pending suggestion ends the session.
	updated, cmd := m.Update(keyMsg("s"))
	m = updated.(Model)
	assert.Equal(t, DecisionSkipped, m.decisions[1])
	assert.NotNil(t, cmd, "final decision quits the program")
	assert.Empty(t, m.Accepted())
}

func TestReviewAcceptErrorKeepsSuggestionPending(t *testing.T) {
	linker := &stubLinker{acceptErr: errors.New("already linked")}
	m := NewModel(context.Background(), linker, []model.LinkSuggestion{
		suggestion("parent-1", 85),
	})

	updated, cmd := m.Update(keyMsg("a"))
	m = updated.(Model)
	require.NotNil(t, cmd)

	updated, _ = m.Update(cmd())
	m = updated.(Model)

	assert.Equal(t, DecisionPending, m.decisions[0])
	assert.NotEmpty(t, m.errs)
	assert.Contains(t, m.View(), "failed to link")
}

func TestReviewNavigation(t *testing.T) {
	m := NewModel(context.Background(), &stubLinker{}, []model.LinkSuggestion{
		suggestion("parent-1", 85),
		suggestion("parent-2", 75),
	})

	updated, _ := m.Update(keyMsg("j"))
	m = updated.(Model)
	assert.Equal(t, 1, m.cursor)

	// Cursor clamps at the end.
	updated, _ = m.Update(keyMsg("j"))
	m = updated.(Model)
	assert.Equal(t, 1, m.cursor)

	updated, _ = m.Update(keyMsg("k"))
	m = updated.(Model)
	assert.Equal(t, 0, m.cursor)
}

func TestReviewViewShowsBreakdown(t *testing.T) {
	m := NewModel(context.Background(), &stubLinker{}, []model.LinkSuggestion{
		{
			Parent: model.Transaction{
				ID:       "parent-1",
				Date:     time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
				Amount:   100,
				Merchant: "Amazon",
			},
			Children: []model.Transaction{
				{ID: "c1", Date: time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC), Amount: 60, Merchant: "Amazon"},
			},
			Confidence: 100,
			Level:      model.LevelExact,
			Breakdown:  model.ScoreBreakdown{DateScore: 40, AmountScore: 50, GroupScore: 10},
		},
	})

	view := m.View()
	assert.Contains(t, view, "Amazon")
	assert.Contains(t, view, "date 40 + amount 50 + group 10 = 100")
}
