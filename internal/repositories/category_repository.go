package repositories

import (
	"context"
	"errors"
	"fmt"

	"budgetledger/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrCategoryNotFound = errors.New("category not found")

// categoryRepository implements CategoryRepositoryInterface
type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *gorm.DB) CategoryRepositoryInterface {
	return &categoryRepository{
		db: db,
	}
}

// GetByIDForOwner retrieves a category by ID scoped to its owner
func (r *categoryRepository) GetByIDForOwner(ctx context.Context, id, ownerID uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &category, nil
}

// GetOrCreateDefault returns the owner's default category for a transaction
// type, creating it lazily on first use.
func (r *categoryRepository) GetOrCreateDefault(ctx context.Context, ownerID uuid.UUID, transactionType string) (*models.Category, error) {
	var category models.Category

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("owner_id = ? AND transaction_type = ? AND is_default = ?",
			ownerID, transactionType, true).
			First(&category).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to get default category: %w", err)
		}

		category = models.Category{
			OwnerID:         ownerID,
			Name:            models.DefaultCategoryName,
			TransactionType: transactionType,
			IsDefault:       true,
		}
		if err := tx.Create(&category).Error; err != nil {
			return fmt.Errorf("failed to create default category: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &category, nil
}
