package services

import (
	"context"
	"time"

	"budgetledger/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionDraft carries the caller-supplied fields of a new transaction.
// Defaults (date, source, status, synthesized recipient) are filled by the
// engine before validation.
type TransactionDraft struct {
	Description string
	Amount      decimal.Decimal
	Date        time.Time
	CategoryID  *uuid.UUID
	Recipient   *models.Recipient
	Currency    string
	Source      string
	Tag         string
	Notes       string
	Attachments models.JSONBMap
}

// TransactionPatch carries a partial update. Nil fields are left untouched.
// The transaction type and owner are immutable and therefore absent.
type TransactionPatch struct {
	Description *string
	Amount      *decimal.Decimal
	Date        *time.Time
	CategoryID  *uuid.UUID
	Recipient   *models.Recipient
	Status      *string
	Tag         *string
	Notes       *string
}

// UpdateResult is the outcome of UpdateTransaction. Group is set when the
// target was an income transaction (the whole distribution group was
// rewritten); Transaction is set for standalone updates.
type UpdateResult struct {
	Transaction *models.Transaction
	Group       *models.DistributionGroup
}

// TransactionServiceInterface is the consistency engine: it owns the
// parent/derived relationship between income transactions and their three
// allocation transactions.
type TransactionServiceInterface interface {
	CreateIncome(ctx context.Context, ownerID uuid.UUID, draft TransactionDraft) (*models.DistributionGroup, error)
	CreateExpense(ctx context.Context, ownerID uuid.UUID, draft TransactionDraft, transactionType string) (*models.Transaction, error)
	UpdateTransaction(ctx context.Context, ownerID, id uuid.UUID, patch TransactionPatch) (*UpdateResult, error)
	DeleteTransaction(ctx context.Context, ownerID, id uuid.UUID) error
	GetTransaction(ctx context.Context, ownerID, id uuid.UUID) (*models.Transaction, error)
	GetDistributionGroup(ctx context.Context, ownerID, incomeID uuid.UUID) (*models.DistributionGroup, error)
	ListTransactions(ctx context.Context, ownerID uuid.UUID, filters models.TransactionFilters) ([]models.Transaction, int64, error)
}

// BudgetPreferenceProvider supplies an owner's current needs/wants/savings
// percentages. Implementations guarantee the returned split sums to 100.
type BudgetPreferenceProvider interface {
	GetPercentages(ctx context.Context, ownerID uuid.UUID) (models.BudgetPercentages, error)
}

// BudgetServiceInterface manages owner budget preferences
type BudgetServiceInterface interface {
	BudgetPreferenceProvider
	// GetPreference returns the stored preference row, or nil when the owner
	// has never configured one and is on the default split.
	GetPreference(ctx context.Context, ownerID uuid.UUID) (*models.BudgetPreference, error)
	UpdatePercentages(ctx context.Context, ownerID uuid.UUID, pct models.BudgetPercentages) (*models.BudgetPreference, error)
}

// CategoryResolverInterface resolves a draft's category, deferring to the
// owner's default category when none was supplied.
type CategoryResolverInterface interface {
	ResolveOrDefault(ctx context.Context, ownerID uuid.UUID, categoryID *uuid.UUID, transactionType string) (uuid.UUID, error)
}

// AuditLoggerInterface records engine mutations for traceability
type AuditLoggerInterface interface {
	LogGroupCreated(ctx context.Context, ownerID, incomeID uuid.UUID, distributionCount int)
	LogGroupUpdated(ctx context.Context, ownerID, incomeID uuid.UUID, amountChanged bool)
	LogGroupDeleted(ctx context.Context, ownerID, incomeID uuid.UUID)
	LogGroupRepaired(ctx context.Context, ownerID, incomeID uuid.UUID, regenerated int)
	LogExpenseMutation(ctx context.Context, ownerID, transactionID uuid.UUID, action string)
	LogBudgetUpdated(ctx context.Context, ownerID uuid.UUID, pct models.BudgetPercentages)
}

// MetricsRecorderInterface records operational metrics
type MetricsRecorderInterface interface {
	IncrementCounter(name string, labels map[string]string)
	RecordProcessingTime(name string, duration time.Duration)
}

// CircuitBreakerState represents the state of the store circuit breaker
type CircuitBreakerState int

// CircuitBreakerInterface guards store-backed operations
type CircuitBreakerInterface interface {
	IsOpen() bool
	RecordSuccess()
	RecordFailure()
	GetState() CircuitBreakerState
	Reset()
}
