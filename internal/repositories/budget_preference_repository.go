package repositories

import (
	"context"
	"errors"
	"fmt"

	"budgetledger/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrBudgetPreferenceNotFound = errors.New("budget preference not found")

// budgetPreferenceRepository implements BudgetPreferenceRepositoryInterface
type budgetPreferenceRepository struct {
	db *gorm.DB
}

// NewBudgetPreferenceRepository creates a new budget preference repository
func NewBudgetPreferenceRepository(db *gorm.DB) BudgetPreferenceRepositoryInterface {
	return &budgetPreferenceRepository{
		db: db,
	}
}

// GetByOwnerID retrieves an owner's budget preference row
func (r *budgetPreferenceRepository) GetByOwnerID(ctx context.Context, ownerID uuid.UUID) (*models.BudgetPreference, error) {
	var preference models.BudgetPreference
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		First(&preference).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBudgetPreferenceNotFound
		}
		return nil, fmt.Errorf("failed to get budget preference: %w", err)
	}
	return &preference, nil
}

// Upsert creates or replaces an owner's budget preference row
func (r *budgetPreferenceRepository) Upsert(ctx context.Context, preference *models.BudgetPreference) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.BudgetPreference
		err := tx.Where("owner_id = ?", preference.OwnerID).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := tx.Create(preference).Error; err != nil {
				return fmt.Errorf("failed to create budget preference: %w", err)
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read budget preference: %w", err)
		}

		existing.SetPercentages(preference.Percentages())
		if err := tx.Save(&existing).Error; err != nil {
			return fmt.Errorf("failed to update budget preference: %w", err)
		}
		*preference = existing
		return nil
	})
}
