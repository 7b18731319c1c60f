package model

// ConfidenceLevel is the categorical bucket for a 0-100 link confidence.
type ConfidenceLevel string

// Confidence level constants.
const (
	LevelExact     ConfidenceLevel = "EXACT"
	LevelPartial   ConfidenceLevel = "PARTIAL"
	LevelFuzzy     ConfidenceLevel = "FUZZY"
	LevelUnmatched ConfidenceLevel = "UNMATCHED"
)

// LevelForConfidence buckets a 0-100 confidence score. The boundaries are
// exact: 90 is EXACT, 89 is PARTIAL, 70 is PARTIAL, 69 is FUZZY.
func LevelForConfidence(confidence float64) ConfidenceLevel {
	switch {
	case confidence >= 90:
		return LevelExact
	case confidence >= 70:
		return LevelPartial
	case confidence >= 50:
		return LevelFuzzy
	default:
		return LevelUnmatched
	}
}

// ScoreBreakdown itemizes the components contributing to a link confidence.
// The maximum contributions sum to 100.
type ScoreBreakdown struct {
	DateScore   float64 `json:"date_score"`   // max 40
	AmountScore float64 `json:"amount_score"` // max 50
	GroupScore  float64 `json:"group_score"`  // max 10
}

// Total returns the combined confidence contribution of all components.
func (b ScoreBreakdown) Total() float64 {
	return b.DateScore + b.AmountScore + b.GroupScore
}

// LinkSuggestion proposes linking one parent transaction to the child
// transactions that appear to compose it.
type LinkSuggestion struct {
	Parent     Transaction
	Children   []Transaction
	Confidence float64 // 0-100
	Level      ConfidenceLevel
	Breakdown  ScoreBreakdown
}
