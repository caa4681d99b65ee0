package repositories

import (
	"context"
	"errors"
	"fmt"

	"budgetledger/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrDuplicateSlot       = errors.New("distribution slot already exists for this parent")
)

// transactionRepository implements TransactionRepositoryInterface
type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *gorm.DB) TransactionRepositoryInterface {
	return &transactionRepository{
		db: db,
	}
}

// Create persists a single standalone transaction
func (r *transactionRepository) Create(ctx context.Context, transaction *models.Transaction) error {
	if err := r.db.WithContext(ctx).Create(transaction).Error; err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// GetByIDForOwner retrieves a transaction by ID scoped to its owner.
// Cross-owner access reads as not found.
func (r *transactionRepository) GetByIDForOwner(ctx context.Context, id, ownerID uuid.UUID) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &transaction, nil
}

// GetByParentID retrieves the derived transactions of an income transaction,
// ordered by their canonical type order.
func (r *transactionRepository) GetByParentID(ctx context.Context, parentID uuid.UUID) ([]models.Transaction, error) {
	var transactions []models.Transaction
	if err := r.db.WithContext(ctx).
		Where("parent_transaction_id = ?", parentID).
		Find(&transactions).Error; err != nil {
		return nil, fmt.Errorf("failed to get derived transactions: %w", err)
	}
	return sortByDistributionType(transactions), nil
}

// GetWithFilters retrieves transactions with multiple filters
func (r *transactionRepository) GetWithFilters(ctx context.Context, filters models.TransactionFilters) ([]models.Transaction, int64, error) {
	var transactions []models.Transaction
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("owner_id = ?", filters.OwnerID)

	if !filters.IncludeDistributions {
		query = query.Where("is_distribution = ?", false)
	}
	if filters.Type != "" {
		query = query.Where("transaction_type = ?", filters.Type)
	}
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.Source != "" {
		query = query.Where("source = ?", filters.Source)
	}
	if filters.CategoryID != nil {
		query = query.Where("category_id = ?", *filters.CategoryID)
	}
	if filters.ParentTransactionID != nil {
		query = query.Where("parent_transaction_id = ?", *filters.ParentTransactionID)
	}
	if filters.StartDate != nil {
		query = query.Where("date >= ?", *filters.StartDate)
	}
	if filters.EndDate != nil {
		query = query.Where("date <= ?", *filters.EndDate)
	}
	if filters.MinAmount != nil {
		query = query.Where("amount >= ?", *filters.MinAmount)
	}
	if filters.MaxAmount != nil {
		query = query.Where("amount <= ?", *filters.MaxAmount)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count filtered transactions: %w", err)
	}

	if filters.Limit > 0 {
		query = query.Offset(filters.Offset).Limit(filters.Limit)
	}

	if err := query.Order("date DESC, created_at DESC").
		Find(&transactions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to get filtered transactions: %w", err)
	}

	return transactions, total, nil
}

// Update persists changes to a single transaction
func (r *transactionRepository) Update(ctx context.Context, transaction *models.Transaction) error {
	if err := r.db.WithContext(ctx).Save(transaction).Error; err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return nil
}

// Delete removes a single transaction by ID
func (r *transactionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Transaction{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete transaction: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

// CreateDistributionGroup persists an income transaction together with its
// derived set in one database transaction. The owner's percentages are read
// inside that transaction and handed to the builder, so the split can never
// be stale with respect to a concurrent preference change.
func (r *transactionRepository) CreateDistributionGroup(ctx context.Context, income *models.Transaction, build DistributionBuilder) ([]models.Transaction, error) {
	var children []models.Transaction

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pct, err := percentagesForOwner(tx, income.OwnerID)
		if err != nil {
			return err
		}

		built, err := build(pct)
		if err != nil {
			return err
		}

		if err := tx.Create(income).Error; err != nil {
			return fmt.Errorf("failed to create income transaction: %w", err)
		}

		for i := range built {
			built[i].ParentTransactionID = &income.ID
		}

		if err := tx.Create(&built).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateSlot
			}
			return fmt.Errorf("failed to create derived transactions: %w", err)
		}

		children = built
		return nil
	})
	if err != nil {
		return nil, err
	}

	return sortByDistributionType(children), nil
}

// UpdateDistributionGroup rewrites an income transaction and its derived set
// atomically. The rebuilder receives the percentages and derived rows read
// inside the same transaction; returned rows with a nil ID are created
// (repairing a missing slot), the rest are updated in place with stable ids.
func (r *transactionRepository) UpdateDistributionGroup(ctx context.Context, income *models.Transaction, rebuild DistributionRebuilder) ([]models.Transaction, error) {
	var children []models.Transaction

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Re-read the parent with a row lock so two concurrent edits of the
		// same group serialize.
		locked := &models.Transaction{}
		if err := tx.Set("gorm:query_option", "FOR UPDATE").
			Where("id = ? AND owner_id = ?", income.ID, income.OwnerID).
			First(locked).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTransactionNotFound
			}
			return fmt.Errorf("failed to lock income transaction: %w", err)
		}

		pct, err := percentagesForOwner(tx, income.OwnerID)
		if err != nil {
			return err
		}

		var existing []models.Transaction
		if err := tx.Where("parent_transaction_id = ?", income.ID).
			Find(&existing).Error; err != nil {
			return fmt.Errorf("failed to load derived transactions: %w", err)
		}

		rebuilt, err := rebuild(pct, sortByDistributionType(existing))
		if err != nil {
			return err
		}

		if err := tx.Save(income).Error; err != nil {
			return fmt.Errorf("failed to update income transaction: %w", err)
		}

		for i := range rebuilt {
			rebuilt[i].ParentTransactionID = &income.ID
			if rebuilt[i].ID == uuid.Nil {
				if err := tx.Create(&rebuilt[i]).Error; err != nil {
					if errors.Is(err, gorm.ErrDuplicatedKey) {
						return ErrDuplicateSlot
					}
					return fmt.Errorf("failed to recreate derived transaction: %w", err)
				}
			} else {
				if err := tx.Save(&rebuilt[i]).Error; err != nil {
					return fmt.Errorf("failed to update derived transaction: %w", err)
				}
			}
		}

		children = rebuilt
		return nil
	})
	if err != nil {
		return nil, err
	}

	return sortByDistributionType(children), nil
}

// DeleteDistributionGroup removes an income transaction and all of its
// derived transactions as one atomic operation.
func (r *transactionRepository) DeleteDistributionGroup(ctx context.Context, income *models.Transaction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("parent_transaction_id = ?", income.ID).
			Delete(&models.Transaction{}).Error; err != nil {
			return fmt.Errorf("failed to delete derived transactions: %w", err)
		}

		result := tx.Where("id = ? AND owner_id = ?", income.ID, income.OwnerID).
			Delete(&models.Transaction{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete income transaction: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrTransactionNotFound
		}
		return nil
	})
}

// percentagesForOwner reads the owner's configured split within the given
// transaction scope, falling back to the 50/30/20 default when the owner has
// never configured one.
func percentagesForOwner(tx *gorm.DB, ownerID uuid.UUID) (models.BudgetPercentages, error) {
	var preference models.BudgetPreference
	if err := tx.Where("owner_id = ?", ownerID).First(&preference).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.DefaultBudgetPercentages(), nil
		}
		return models.BudgetPercentages{}, fmt.Errorf("failed to read budget preference: %w", err)
	}
	return preference.Percentages(), nil
}

// sortByDistributionType orders derived rows needs, wants, savings.
func sortByDistributionType(transactions []models.Transaction) []models.Transaction {
	rank := map[string]int{
		models.TransactionTypeNeeds:   0,
		models.TransactionTypeWants:   1,
		models.TransactionTypeSavings: 2,
	}

	ordered := make([]models.Transaction, 0, len(transactions))
	for _, wanted := range models.DistributionTypes() {
		for _, t := range transactions {
			if t.TransactionType == wanted {
				ordered = append(ordered, t)
			}
		}
	}

	// Anything with an unexpected type keeps its position at the end.
	for _, t := range transactions {
		if _, ok := rank[t.TransactionType]; !ok {
			ordered = append(ordered, t)
		}
	}

	return ordered
}
