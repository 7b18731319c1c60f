// Package dedup detects already-imported transactions so imports stay idempotent.
package dedup

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/ledgerline/ledgerline/internal/model"
	"github.com/ledgerline/ledgerline/internal/service"
)

// amountTolerance is the absolute difference two amounts may differ by and
// still be considered the same charge. The epsilon keeps the boundary case
// (a delta of exactly one cent) inside the tolerance despite float rounding.
const (
	amountTolerance = 0.01
	amountEpsilon   = 1e-9
)

// CheckResult is the outcome of a duplicate check for one candidate.
type CheckResult struct {
	Matched     *model.Transaction
	Confidence  float64 // 0-1
	IsDuplicate bool
}

// BatchStats summarizes a batch of duplicate check results.
type BatchStats struct {
	Total            int
	Duplicates       int
	New              int
	DuplicatePercent float64
}

// Detector decides whether candidate transactions already exist.
type Detector struct {
	storage service.Storage
}

// NewDetector creates a duplicate detector backed by the given storage.
func NewDetector(storage service.Storage) *Detector {
	return &Detector{storage: storage}
}

// Check scans the pool in order and returns on the first existing transaction
// that matches the candidate. There is no global best-match search.
//
// A pool entry matches when its calendar date equals the candidate's and the
// amounts differ by at most one cent. Confidence then depends on which text
// fields agree: merchant and description 1.0, merchant alone 0.9, description
// alone 0.8 — but a description-only match counts only when both merchants
// are non-empty, so missing merchant data cannot manufacture duplicates.
func (d *Detector) Check(candidate model.Transaction, pool []model.Transaction) CheckResult {
	for i := range pool {
		existing := &pool[i]

		if !sameDay(candidate.Date, existing.Date) {
			continue
		}
		if math.Abs(candidate.Amount-existing.Amount) > amountTolerance+amountEpsilon {
			continue
		}

		merchantMatch := equalNormalized(candidate.Merchant, existing.Merchant)
		descriptionMatch := equalNormalized(candidate.Description, existing.Description)

		switch {
		case merchantMatch && descriptionMatch:
			return CheckResult{IsDuplicate: true, Matched: existing, Confidence: 1.0}
		case merchantMatch:
			return CheckResult{IsDuplicate: true, Matched: existing, Confidence: 0.9}
		case descriptionMatch && hasMerchant(candidate.Merchant) && hasMerchant(existing.Merchant):
			return CheckResult{IsDuplicate: true, Matched: existing, Confidence: 0.8}
		}
	}

	return CheckResult{}
}

// CheckBatch checks each candidate against the stored transactions spanning
// the candidates' date range. The window is fetched once and shared across
// all candidates. A storage failure degrades to "no duplicates found" so an
// import never fails on the duplicate check alone.
func (d *Detector) CheckBatch(ctx context.Context, candidates []model.Transaction) []CheckResult {
	results := make([]CheckResult, len(candidates))
	if len(candidates) == 0 {
		return results
	}

	minDate, maxDate := dateSpan(candidates)
	pool, err := d.storage.GetTransactionsByDateRange(ctx, minDate, maxDate)
	if err != nil {
		slog.Warn("duplicate check degraded, treating all candidates as new",
			"candidates", len(candidates),
			"error", err)
		return results
	}

	for i, candidate := range candidates {
		results[i] = d.Check(candidate, pool)
	}
	return results
}

// Summarize reports totals for a set of check results. The duplicate
// percentage is 0 when there are no results.
func Summarize(results []CheckResult) BatchStats {
	stats := BatchStats{Total: len(results)}
	for _, r := range results {
		if r.IsDuplicate {
			stats.Duplicates++
		} else {
			stats.New++
		}
	}
	if stats.Total > 0 {
		stats.DuplicatePercent = float64(stats.Duplicates) / float64(stats.Total) * 100
	}
	return stats
}

// sameDay compares calendar dates, ignoring any time-of-day component.
func sameDay(a, b time.Time) bool {
	return a.Format("2006-01-02") == b.Format("2006-01-02")
}

// equalNormalized compares strings case-insensitively with surrounding
// whitespace trimmed.
func equalNormalized(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func hasMerchant(s string) bool {
	return strings.TrimSpace(s) != ""
}

// dateSpan returns the min and max calendar dates across the candidates,
// widened to cover the full first and last days.
func dateSpan(candidates []model.Transaction) (time.Time, time.Time) {
	minDate, maxDate := candidates[0].Date, candidates[0].Date
	for _, c := range candidates[1:] {
		if c.Date.Before(minDate) {
			minDate = c.Date
		}
		if c.Date.After(maxDate) {
			maxDate = c.Date
		}
	}

	start := time.Date(minDate.Year(), minDate.Month(), minDate.Day(), 0, 0, 0, 0, minDate.Location())
	end := time.Date(maxDate.Year(), maxDate.Month(), maxDate.Day(), 23, 59, 59, 0, maxDate.Location())
	return start, end
}
