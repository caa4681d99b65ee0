package repositories

import (
	"context"

	"budgetledger/internal/models"

	"github.com/google/uuid"
)

// DistributionBuilder constructs the derived transaction set for a new
// income transaction. It receives the owner's percentages as read inside the
// same store transaction that persists the group, so a concurrent preference
// change can never produce a stale split.
type DistributionBuilder func(pct models.BudgetPercentages) ([]models.Transaction, error)

// DistributionRebuilder rewrites the derived set of an existing income
// transaction. It receives the current percentages and the existing derived
// rows (possibly fewer than three after a prior partial failure) and returns
// the full set to persist; rows with a nil ID are created, the rest updated
// in place.
type DistributionRebuilder func(pct models.BudgetPercentages, existing []models.Transaction) ([]models.Transaction, error)

// TransactionRepositoryInterface defines the contract for transaction store operations
type TransactionRepositoryInterface interface {
	Create(ctx context.Context, transaction *models.Transaction) error
	GetByIDForOwner(ctx context.Context, id, ownerID uuid.UUID) (*models.Transaction, error)
	GetByParentID(ctx context.Context, parentID uuid.UUID) ([]models.Transaction, error)
	GetWithFilters(ctx context.Context, filters models.TransactionFilters) ([]models.Transaction, int64, error)
	Update(ctx context.Context, transaction *models.Transaction) error
	Delete(ctx context.Context, id uuid.UUID) error

	// Atomic multi-record primitives for distribution groups. Either every
	// affected row changes or none do.
	CreateDistributionGroup(ctx context.Context, income *models.Transaction, build DistributionBuilder) ([]models.Transaction, error)
	UpdateDistributionGroup(ctx context.Context, income *models.Transaction, rebuild DistributionRebuilder) ([]models.Transaction, error)
	DeleteDistributionGroup(ctx context.Context, income *models.Transaction) error
}

// BudgetPreferenceRepositoryInterface defines the contract for budget preference storage
type BudgetPreferenceRepositoryInterface interface {
	GetByOwnerID(ctx context.Context, ownerID uuid.UUID) (*models.BudgetPreference, error)
	Upsert(ctx context.Context, preference *models.BudgetPreference) error
}

// CategoryRepositoryInterface defines the contract for category lookups.
// Category management itself is owned by an external service; this store
// only resolves and lazily creates default categories.
type CategoryRepositoryInterface interface {
	GetByIDForOwner(ctx context.Context, id, ownerID uuid.UUID) (*models.Category, error)
	GetOrCreateDefault(ctx context.Context, ownerID uuid.UUID, transactionType string) (*models.Category, error)
}

// AuditLogRepositoryInterface defines the contract for audit log storage
type AuditLogRepositoryInterface interface {
	Create(log *models.AuditLog) error
	GetByOwnerID(ownerID uuid.UUID, offset, limit int) ([]models.AuditLog, int64, error)
}
