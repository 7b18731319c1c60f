// Package linker proposes and commits parent/child transaction links, matching
// aggregated charges to the itemized purchases that compose them.
package linker

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/ledgerline/ledgerline/internal/model"
	"github.com/ledgerline/ledgerline/internal/service"
)

// Scoring weights. The maximum contributions sum to 100.
const (
	maxDateScore   = 40.0
	maxAmountScore = 50.0
	maxGroupScore  = 10.0

	// Children more than this many days from the parent are never candidates,
	// and the date score decays linearly to zero across the window.
	dateWindowDays = 7

	// Relative sum deviation at which the amount score reaches zero.
	maxAmountDeviation = 0.10

	// Absolute sum deviation treated as an exact amount match.
	exactAmountTolerance = 0.01
)

// orderRefPattern extracts order/batch references from raw descriptions,
// e.g. "AMZN Mktp ORDER #114-3941689-1203466".
var orderRefPattern = regexp.MustCompile(`(?i)(?:order|batch|ref)[\s#:]*([0-9][0-9A-Z-]{5,})`)

// Suggester produces link suggestions at or above a confidence floor.
type Suggester interface {
	Suggest(ctx context.Context, minConfidence float64) ([]model.LinkSuggestion, error)
}

// Engine scores potential parent/child links across a user's unlinked
// transactions.
type Engine struct {
	storage service.Storage
}

// NewEngine creates a link suggestion engine backed by the given storage.
func NewEngine(storage service.Storage) *Engine {
	return &Engine{storage: storage}
}

// Suggest proposes parent/child linkages with confidence at or above
// minConfidence (0-100). Each unlinked expense is considered as a parent; the
// children are other unlinked transactions within the date window, grouped by
// shared order reference or merchant, whose amounts sum close to the parent's.
// A transaction consumed as a child of one suggestion is not offered again,
// so accepted suggestions never conflict.
func (e *Engine) Suggest(ctx context.Context, minConfidence float64) ([]model.LinkSuggestion, error) {
	transactions, err := e.storage.GetUnlinkedTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unlinked transactions: %w", err)
	}

	var suggestions []model.LinkSuggestion
	consumed := make(map[string]bool)

	for i := range transactions {
		parent := transactions[i]
		if parent.IsIncome || consumed[parent.ID] {
			continue
		}

		best, ok := e.bestGroupFor(parent, transactions, consumed)
		if !ok {
			continue
		}

		confidence := best.breakdown.Total()
		if confidence < minConfidence {
			continue
		}

		consumed[parent.ID] = true
		for _, child := range best.children {
			consumed[child.ID] = true
		}

		suggestions = append(suggestions, model.LinkSuggestion{
			Parent:     parent,
			Children:   best.children,
			Confidence: confidence,
			Level:      model.LevelForConfidence(confidence),
			Breakdown:  best.breakdown,
		})
	}

	return suggestions, nil
}

type scoredGroup struct {
	children  []model.Transaction
	breakdown model.ScoreBreakdown
}

// bestGroupFor returns the highest-scoring child group for a parent, if any.
func (e *Engine) bestGroupFor(parent model.Transaction, pool []model.Transaction, consumed map[string]bool) (scoredGroup, bool) {
	groups := make(map[string][]model.Transaction)
	for i := range pool {
		child := pool[i]
		if child.ID == parent.ID || child.IsIncome || consumed[child.ID] {
			continue
		}
		if daysApart(parent.Date, child.Date) > dateWindowDays {
			continue
		}
		// A child at least as large as its parent cannot be a component of it.
		if child.Amount >= parent.Amount {
			continue
		}

		key := groupKey(child)
		groups[key] = append(groups[key], child)
	}

	var best scoredGroup
	var found bool
	for _, children := range groups {
		if len(children) < 2 {
			// A single "component" equal to its parent is duplicate territory,
			// not an itemization.
			continue
		}

		breakdown := e.score(parent, children)
		if !found || breakdown.Total() > best.breakdown.Total() {
			best = scoredGroup{children: children, breakdown: breakdown}
			found = true
		}
	}

	return best, found
}

// score computes the component scores for linking children to parent.
func (e *Engine) score(parent model.Transaction, children []model.Transaction) model.ScoreBreakdown {
	return model.ScoreBreakdown{
		DateScore:   dateScore(parent, children),
		AmountScore: amountScore(parent, children),
		GroupScore:  groupScore(parent, children),
	}
}

// dateScore rewards children whose dates cluster near the parent's,
// decaying linearly to zero across the date window.
func dateScore(parent model.Transaction, children []model.Transaction) float64 {
	var totalDays float64
	for _, child := range children {
		totalDays += daysApart(parent.Date, child.Date)
	}
	avg := totalDays / float64(len(children))

	score := maxDateScore * (1 - avg/dateWindowDays)
	return clamp(score, 0, maxDateScore)
}

// amountScore rewards child sums close to the parent amount. A sum within
// one cent earns the full score; the score decays linearly to zero at a 10%
// relative deviation.
func amountScore(parent model.Transaction, children []model.Transaction) float64 {
	var sum float64
	for _, child := range children {
		sum += child.Amount
	}

	diff := math.Abs(sum - parent.Amount)
	if diff <= exactAmountTolerance {
		return maxAmountScore
	}

	rel := diff / parent.Amount
	score := maxAmountScore * (1 - rel/maxAmountDeviation)
	return clamp(score, 0, maxAmountScore)
}

// groupScore rewards structural signals: a shared order reference that also
// appears in the parent's description earns the full score, a merchant shared
// by the parent and every child earns half, anything else earns nothing.
func groupScore(parent model.Transaction, children []model.Transaction) float64 {
	if ref := orderRef(children[0]); ref != "" {
		shared := true
		for _, child := range children[1:] {
			if orderRef(child) != ref {
				shared = false
				break
			}
		}
		if shared && strings.Contains(strings.ToUpper(parent.Description), ref) {
			return maxGroupScore
		}
	}

	if parent.Merchant != "" {
		shared := true
		for _, child := range children {
			if !strings.EqualFold(strings.TrimSpace(child.Merchant), strings.TrimSpace(parent.Merchant)) {
				shared = false
				break
			}
		}
		if shared {
			return maxGroupScore / 2
		}
	}

	return 0
}

// groupKey buckets potential children by order reference, falling back to
// the normalized merchant name.
func groupKey(txn model.Transaction) string {
	if ref := orderRef(txn); ref != "" {
		return "ref:" + ref
	}
	return "merchant:" + strings.ToLower(strings.TrimSpace(txn.Merchant))
}

// orderRef extracts an order/batch reference from the description, if any.
func orderRef(txn model.Transaction) string {
	m := orderRefPattern.FindStringSubmatch(txn.Description)
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1])
}

func daysApart(a, b time.Time) float64 {
	return math.Abs(a.Sub(b).Hours()) / 24
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
