// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/ledgerline/ledgerline/internal/model"
)

// TransactionFilter defines filtering options for transaction queries.
type TransactionFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Transaction operations
	SaveTransactions(ctx context.Context, transactions []model.Transaction) error
	GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error)
	GetTransactions(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error)
	GetTransactionsByDateRange(ctx context.Context, start, end time.Time) ([]model.Transaction, error)
	GetUnlinkedTransactions(ctx context.Context) ([]model.Transaction, error)
	GetCategoryExpensesSince(ctx context.Context, categoryID int, since time.Time) ([]model.Transaction, error)
	SumCategoryExpenses(ctx context.Context, categoryID int, start, end time.Time) (float64, error)
	DeleteTransaction(ctx context.Context, id string) error

	// Linking operations
	LinkTransactions(ctx context.Context, parentID string, childIDs []string, confidence float64, linkType model.LinkType, metadata string) error
	UnlinkTransaction(ctx context.Context, childID string) error
	GetChildTransactions(ctx context.Context, parentID string) ([]model.Transaction, error)

	// Category operations
	GetCategories(ctx context.Context) ([]model.Category, error)
	GetCategoryByID(ctx context.Context, id int) (*model.Category, error)
	GetCategoryByName(ctx context.Context, name string) (*model.Category, error)
	CreateCategory(ctx context.Context, name, color, icon string, userID *string) (*model.Category, error)
	UpdateCategory(ctx context.Context, id int, name, color, icon string) error
	DeleteCategory(ctx context.Context, id int) error

	// Budget operations
	CreateBudget(ctx context.Context, budget *model.Budget) (*model.Budget, error)
	GetBudgets(ctx context.Context) ([]model.Budget, error)
	GetBudgetsByCategory(ctx context.Context, categoryID int) ([]model.Budget, error)
	DeleteBudget(ctx context.Context, id int) error

	// Alert operations
	SaveAlertSetting(ctx context.Context, setting *model.AlertSetting) error
	GetAlertSetting(ctx context.Context, alertType model.AlertType) (*model.AlertSetting, error)
	GetAlertSettings(ctx context.Context) ([]model.AlertSetting, error)
	SaveAlertEvent(ctx context.Context, event *model.AlertEvent) error
	GetAlertEvents(ctx context.Context, unreadOnly bool) ([]model.AlertEvent, error)
	MarkAlertEventRead(ctx context.Context, id int64) error

	// Analytics
	GetCashFlow(ctx context.Context, start, end time.Time) (*CashFlowSummary, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// TransactionSource fetches transactions from an external provider.
type TransactionSource interface {
	GetTransactions(ctx context.Context, startDate, endDate time.Time) ([]model.Transaction, error)
}

// ReportWriter exports report data to an external destination.
type ReportWriter interface {
	Write(ctx context.Context, summary *CashFlowSummary) error
}

// DateRange represents a time period with start and end dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// CategorySummary contains aggregated statistics for a category.
type CategorySummary struct {
	Count  int
	Amount float64
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// CashFlowSummary contains income, expense, and net flow calculations.
type CashFlowSummary struct {
	DateRange          DateRange
	IncomeByCategory   map[string]CategorySummary
	ExpensesByCategory map[string]CategorySummary
	TotalIncome        float64
	TotalExpenses      float64
	NetCashFlow        float64
}
