package linker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/model"
)

// stubSuggester returns canned suggestions.
type stubSuggester struct {
	suggestions []model.LinkSuggestion
	err         error
}

func (s *stubSuggester) Suggest(_ context.Context, _ float64) ([]model.LinkSuggestion, error) {
	return s.suggestions, s.err
}

func suggestion(t *testing.T, parentID, merchant string, confidence float64) model.LinkSuggestion {
	day := date(t, "2025-01-15")
	return model.LinkSuggestion{
		Parent: expense(parentID, day, 100.00, merchant, "Aggregated charge"),
		Children: []model.Transaction{
			expense(parentID+"-c1", day, 60.00, merchant, "Item A"),
			expense(parentID+"-c2", day, 40.00, merchant, "Item B"),
		},
		Confidence: confidence,
		Level:      model.LevelForConfidence(confidence),
		Breakdown:  model.ScoreBreakdown{DateScore: 40, AmountScore: 50, GroupScore: confidence - 90},
	}
}

func TestOrchestrator_AutoLink_Policy(t *testing.T) {
	ctx := context.Background()

	t.Run("confidence 90 commits an auto link", func(t *testing.T) {
		storage := &mockStorage{}
		o := NewOrchestrator(storage, &stubSuggester{
			suggestions: []model.LinkSuggestion{suggestion(t, "p1", "Amazon", 90)},
		})

		result, err := o.AutoLink(ctx)
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, 1, result.TotalMatches)
		assert.Equal(t, 1, result.AutoLinked)
		assert.Equal(t, 0, result.Suggested)
		assert.Empty(t, result.Errors)

		require.Len(t, storage.links, 1)
		link := storage.links[0]
		assert.Equal(t, "p1", link.parentID)
		assert.Equal(t, []string{"p1-c1", "p1-c2"}, link.childIDs)
		assert.Equal(t, model.LinkTypeAuto, link.linkType)
		assert.InDelta(t, 90.0, link.confidence, 0.0001)
	})

	t.Run("confidence 89 is suggested only", func(t *testing.T) {
		storage := &mockStorage{}
		o := NewOrchestrator(storage, &stubSuggester{
			suggestions: []model.LinkSuggestion{suggestion(t, "p1", "Amazon", 89)},
		})

		result, err := o.AutoLink(ctx)
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, 1, result.TotalMatches)
		assert.Equal(t, 0, result.AutoLinked)
		assert.Equal(t, 1, result.Suggested)
		require.Len(t, result.Suggestions, 1)
		assert.Empty(t, storage.links)
	})

	t.Run("one failing commit does not abort the rest", func(t *testing.T) {
		storage := &mockStorage{linkErrs: map[string]error{
			"p1": errors.New("row locked"),
		}}
		o := NewOrchestrator(storage, &stubSuggester{
			suggestions: []model.LinkSuggestion{
				suggestion(t, "p1", "Amazon", 95),
				suggestion(t, "p2", "Costco", 92),
			},
		})

		result, err := o.AutoLink(ctx)
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, 2, result.TotalMatches)
		assert.Equal(t, 1, result.AutoLinked)
		require.Len(t, result.Errors, 1)
		assert.Contains(t, result.Errors[0], "Amazon")

		require.Len(t, storage.links, 1)
		assert.Equal(t, "p2", storage.links[0].parentID)
	})

	t.Run("suggestion fetch failure aborts the run", func(t *testing.T) {
		storage := &mockStorage{}
		o := NewOrchestrator(storage, &stubSuggester{err: errors.New("connection refused")})

		result, err := o.AutoLink(ctx)
		require.Error(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, 0, result.TotalMatches)
		assert.Equal(t, 0, result.AutoLinked)
		require.Len(t, result.Errors, 1)
		assert.Empty(t, storage.links)
	})
}

func TestOrchestrator_AutoLink_Metadata(t *testing.T) {
	storage := &mockStorage{}
	o := NewOrchestrator(storage, &stubSuggester{
		suggestions: []model.LinkSuggestion{suggestion(t, "p1", "Amazon", 95)},
	})
	linkedAt := time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)
	o.now = func() time.Time { return linkedAt }

	_, err := o.AutoLink(context.Background())
	require.NoError(t, err)
	require.Len(t, storage.links, 1)

	var meta linkMetadata
	require.NoError(t, json.Unmarshal([]byte(storage.links[0].metadata), &meta))
	assert.True(t, meta.LinkedAt.Equal(linkedAt))
	assert.InDelta(t, 95.0, meta.Confidence, 0.0001)
	assert.InDelta(t, 40.0, meta.Breakdown.DateScore, 0.0001)
	assert.InDelta(t, 50.0, meta.Breakdown.AmountScore, 0.0001)
}

func TestOrchestrator_ShouldRunAutoLink(t *testing.T) {
	ctx := context.Background()

	t.Run("true when a suggestion exists", func(t *testing.T) {
		o := NewOrchestrator(&mockStorage{}, &stubSuggester{
			suggestions: []model.LinkSuggestion{suggestion(t, "p1", "Amazon", 75)},
		})
		assert.True(t, o.ShouldRunAutoLink(ctx))
	})

	t.Run("false when nothing matches", func(t *testing.T) {
		o := NewOrchestrator(&mockStorage{}, &stubSuggester{})
		assert.False(t, o.ShouldRunAutoLink(ctx))
	})

	t.Run("false on error", func(t *testing.T) {
		o := NewOrchestrator(&mockStorage{}, &stubSuggester{err: errors.New("timeout")})
		assert.False(t, o.ShouldRunAutoLink(ctx))
	})
}

func TestOrchestrator_Accept(t *testing.T) {
	storage := &mockStorage{}
	o := NewOrchestrator(storage, &stubSuggester{})

	err := o.Accept(context.Background(), suggestion(t, "p1", "Amazon", 82))
	require.NoError(t, err)
	require.Len(t, storage.links, 1)
	assert.Equal(t, model.LinkTypeManual, storage.links[0].linkType)
	assert.InDelta(t, 82.0, storage.links[0].confidence, 0.0001)
}
