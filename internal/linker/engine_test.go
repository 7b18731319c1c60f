package linker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/model"
	"github.com/ledgerline/ledgerline/internal/service"
)

type linkCall struct {
	parentID   string
	childIDs   []string
	metadata   string
	linkType   model.LinkType
	confidence float64
}

// mockStorage stubs the storage calls the linker depends on.
type mockStorage struct {
	service.Storage
	unlinked    []model.Transaction
	unlinkedErr error
	linkErrs    map[string]error
	links       []linkCall
}

func (m *mockStorage) GetUnlinkedTransactions(_ context.Context) ([]model.Transaction, error) {
	return m.unlinked, m.unlinkedErr
}

func (m *mockStorage) LinkTransactions(_ context.Context, parentID string, childIDs []string, confidence float64, linkType model.LinkType, metadata string) error {
	if err, ok := m.linkErrs[parentID]; ok {
		return err
	}
	m.links = append(m.links, linkCall{
		parentID:   parentID,
		childIDs:   childIDs,
		confidence: confidence,
		linkType:   linkType,
		metadata:   metadata,
	})
	return nil
}

func date(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return d
}

func expense(id string, day time.Time, amount float64, merchant, description string) model.Transaction {
	return model.Transaction{
		ID:          id,
		Date:        day,
		Amount:      amount,
		Merchant:    merchant,
		Description: description,
	}
}

func TestEngine_Suggest_ExactMatch(t *testing.T) {
	day := date(t, "2025-01-15")
	storage := &mockStorage{unlinked: []model.Transaction{
		expense("parent", day, 100.00, "Amazon", "AMZN Mktp ORDER #114-3941689"),
		expense("child-1", day, 60.00, "Amazon", "Kindle Paperwhite ORDER #114-3941689"),
		expense("child-2", day, 40.00, "Amazon", "USB cable ORDER #114-3941689"),
	}}

	suggestions, err := NewEngine(storage).Suggest(context.Background(), 70)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)

	s := suggestions[0]
	assert.Equal(t, "parent", s.Parent.ID)
	require.Len(t, s.Children, 2)
	assert.InDelta(t, 40.0, s.Breakdown.DateScore, 0.0001)
	assert.InDelta(t, 50.0, s.Breakdown.AmountScore, 0.0001)
	assert.InDelta(t, 10.0, s.Breakdown.GroupScore, 0.0001)
	assert.InDelta(t, 100.0, s.Confidence, 0.0001)
	assert.Equal(t, model.LevelExact, s.Level)
}

func TestEngine_Suggest_FuzzyMatch(t *testing.T) {
	storage := &mockStorage{unlinked: []model.Transaction{
		expense("parent", date(t, "2025-03-10"), 200.00, "Costco", "COSTCO WHOLESALE"),
		expense("child-1", date(t, "2025-03-08"), 120.00, "Costco", "Groceries"),
		expense("child-2", date(t, "2025-03-12"), 70.00, "Costco", "Household"),
	}}

	suggestions, err := NewEngine(storage).Suggest(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)

	s := suggestions[0]
	// Children average two days from the parent: 40 * (1 - 2/7).
	assert.InDelta(t, 28.5714, s.Breakdown.DateScore, 0.001)
	// Sum 190 vs 200 is a 5% deviation: 50 * (1 - 0.05/0.10).
	assert.InDelta(t, 25.0, s.Breakdown.AmountScore, 0.001)
	// Shared merchant, no shared order reference.
	assert.InDelta(t, 5.0, s.Breakdown.GroupScore, 0.0001)
	assert.Equal(t, model.LevelFuzzy, s.Level)
}

func TestEngine_Suggest_MinConfidenceFilter(t *testing.T) {
	storage := &mockStorage{unlinked: []model.Transaction{
		expense("parent", date(t, "2025-03-10"), 200.00, "Costco", "COSTCO WHOLESALE"),
		expense("child-1", date(t, "2025-03-08"), 120.00, "Costco", "Groceries"),
		expense("child-2", date(t, "2025-03-12"), 70.00, "Costco", "Household"),
	}}

	// The same group scores ~58.6; a floor of 70 excludes it.
	suggestions, err := NewEngine(storage).Suggest(context.Background(), 70)
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}

func TestEngine_Suggest_SkipsUnlinkableCandidates(t *testing.T) {
	day := date(t, "2025-01-15")

	t.Run("income transactions are never parents or children", func(t *testing.T) {
		paycheck := expense("paycheck", day, 100.00, "Employer", "Salary")
		paycheck.IsIncome = true
		part := expense("part", day, 60.00, "Employer", "Salary part")
		part.IsIncome = true

		storage := &mockStorage{unlinked: []model.Transaction{paycheck, part}}
		suggestions, err := NewEngine(storage).Suggest(context.Background(), 0)
		require.NoError(t, err)
		assert.Empty(t, suggestions)
	})

	t.Run("a single child is not an itemization", func(t *testing.T) {
		storage := &mockStorage{unlinked: []model.Transaction{
			expense("parent", day, 100.00, "Amazon", "Order"),
			expense("child-1", day, 99.99, "Amazon", "Almost everything"),
		}}
		suggestions, err := NewEngine(storage).Suggest(context.Background(), 0)
		require.NoError(t, err)
		assert.Empty(t, suggestions)
	})

	t.Run("children outside the date window are ignored", func(t *testing.T) {
		storage := &mockStorage{unlinked: []model.Transaction{
			expense("parent", day, 100.00, "Amazon", "Order"),
			expense("child-1", day.AddDate(0, 0, 10), 60.00, "Amazon", "Late item"),
			expense("child-2", day.AddDate(0, 0, 11), 40.00, "Amazon", "Later item"),
		}}
		suggestions, err := NewEngine(storage).Suggest(context.Background(), 0)
		require.NoError(t, err)
		assert.Empty(t, suggestions)
	})
}

func TestEngine_Suggest_ChildrenNotReused(t *testing.T) {
	day := date(t, "2025-01-15")
	storage := &mockStorage{unlinked: []model.Transaction{
		expense("parent-1", day, 100.00, "Amazon", "First order"),
		expense("parent-2", day, 100.00, "Amazon", "Second order"),
		expense("child-1", day, 60.00, "Amazon", "Item A"),
		expense("child-2", day, 40.00, "Amazon", "Item B"),
	}}

	suggestions, err := NewEngine(storage).Suggest(context.Background(), 50)
	require.NoError(t, err)

	// Only one parent can claim the pair.
	require.Len(t, suggestions, 1)
	assert.Equal(t, "parent-1", suggestions[0].Parent.ID)
}

func TestEngine_Suggest_StorageError(t *testing.T) {
	storage := &mockStorage{unlinkedErr: errors.New("database locked")}
	suggestions, err := NewEngine(storage).Suggest(context.Background(), 70)
	require.Error(t, err)
	assert.Nil(t, suggestions)
}
