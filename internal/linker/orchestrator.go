package linker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ledgerline/ledgerline/internal/model"
	"github.com/ledgerline/ledgerline/internal/service"
)

// Threshold policy for automatic linking. Suggestions are requested at the
// floor; those at or above the auto threshold are committed without review.
const (
	suggestionFloor   = 70.0
	autoLinkThreshold = 90.0
)

// AutoLinkResult reports the outcome of one automatic linking run.
type AutoLinkResult struct {
	// Suggestions holds the medium-confidence matches left for user review.
	Suggestions  []model.LinkSuggestion
	Errors       []string
	TotalMatches int
	AutoLinked   int
	Suggested    int
	Success      bool
}

// linkMetadata is persisted as the link_metadata JSON on committed links.
type linkMetadata struct {
	LinkedAt   time.Time            `json:"linked_at"`
	Breakdown  model.ScoreBreakdown `json:"breakdown"`
	Confidence float64              `json:"confidence"`
}

// Orchestrator applies the threshold policy to link suggestions.
type Orchestrator struct {
	storage   service.Storage
	suggester Suggester
	now       func() time.Time
}

// NewOrchestrator creates an automatic linking orchestrator.
func NewOrchestrator(storage service.Storage, suggester Suggester) *Orchestrator {
	return &Orchestrator{
		storage:   storage,
		suggester: suggester,
		now:       time.Now,
	}
}

// AutoLink fetches suggestions at the fixed floor and applies the policy:
// confidence at or above the auto threshold commits immediately as an auto
// link; anything else stays a pending suggestion with no side effects.
//
// Commits run sequentially in suggestion order. One failed commit records an
// error string naming the parent and processing continues; the result's
// Errors field accumulates them. Only a failure to fetch suggestions aborts
// the run, reported both in the result and as the returned error.
func (o *Orchestrator) AutoLink(ctx context.Context) (*AutoLinkResult, error) {
	suggestions, err := o.suggester.Suggest(ctx, suggestionFloor)
	if err != nil {
		result := &AutoLinkResult{
			Errors: []string{fmt.Sprintf("failed to fetch link suggestions: %v", err)},
		}
		return result, fmt.Errorf("auto-link aborted: %w", err)
	}

	result := &AutoLinkResult{TotalMatches: len(suggestions)}

	for _, suggestion := range suggestions {
		if suggestion.Confidence < autoLinkThreshold {
			result.Suggested++
			result.Suggestions = append(result.Suggestions, suggestion)
			continue
		}

		if err := o.commit(ctx, suggestion); err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("failed to auto-link %s: %v", suggestion.Parent.MerchantLabel(), err))
			continue
		}
		result.AutoLinked++
	}

	result.Success = len(result.Errors) == 0

	slog.Info("auto-link run complete",
		"total_matches", result.TotalMatches,
		"auto_linked", result.AutoLinked,
		"suggested", result.Suggested,
		"errors", len(result.Errors))
	return result, nil
}

// ShouldRunAutoLink is a cheap probe for whether an auto-link run would find
// anything. Errors are treated as "no", so uncertain state never triggers
// user-facing prompts.
func (o *Orchestrator) ShouldRunAutoLink(ctx context.Context) bool {
	suggestions, err := o.suggester.Suggest(ctx, suggestionFloor)
	if err != nil {
		slog.Debug("auto-link probe failed", "error", err)
		return false
	}
	return len(suggestions) > 0
}

// Accept commits a reviewed suggestion as a manual link.
func (o *Orchestrator) Accept(ctx context.Context, suggestion model.LinkSuggestion) error {
	metadata, err := o.metadataJSON(suggestion)
	if err != nil {
		return err
	}
	return o.storage.LinkTransactions(ctx,
		suggestion.Parent.ID, childIDs(suggestion), suggestion.Confidence, model.LinkTypeManual, metadata)
}

func (o *Orchestrator) commit(ctx context.Context, suggestion model.LinkSuggestion) error {
	metadata, err := o.metadataJSON(suggestion)
	if err != nil {
		return err
	}
	return o.storage.LinkTransactions(ctx,
		suggestion.Parent.ID, childIDs(suggestion), suggestion.Confidence, model.LinkTypeAuto, metadata)
}

func (o *Orchestrator) metadataJSON(suggestion model.LinkSuggestion) (string, error) {
	data, err := json.Marshal(linkMetadata{
		LinkedAt:   o.now(),
		Breakdown:  suggestion.Breakdown,
		Confidence: suggestion.Confidence,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode link metadata: %w", err)
	}
	return string(data), nil
}

func childIDs(suggestion model.LinkSuggestion) []string {
	ids := make([]string, len(suggestion.Children))
	for i, child := range suggestion.Children {
		ids[i] = child.ID
	}
	return ids
}
