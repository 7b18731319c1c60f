package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelForConfidence(t *testing.T) {
	tests := []struct {
		name       string
		want       ConfidenceLevel
		confidence float64
	}{
		{name: "90 is exact", confidence: 90, want: LevelExact},
		{name: "100 is exact", confidence: 100, want: LevelExact},
		{name: "89 is partial", confidence: 89, want: LevelPartial},
		{name: "70 is partial", confidence: 70, want: LevelPartial},
		{name: "69 is fuzzy", confidence: 69, want: LevelFuzzy},
		{name: "50 is fuzzy", confidence: 50, want: LevelFuzzy},
		{name: "49 is unmatched", confidence: 49, want: LevelUnmatched},
		{name: "zero is unmatched", confidence: 0, want: LevelUnmatched},
		{name: "89.9 does not round up", confidence: 89.9, want: LevelPartial},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LevelForConfidence(tt.confidence))
		})
	}
}

func TestScoreBreakdownTotal(t *testing.T) {
	b := ScoreBreakdown{DateScore: 40, AmountScore: 50, GroupScore: 10}
	assert.InDelta(t, 100.0, b.Total(), 0.0001)
}
