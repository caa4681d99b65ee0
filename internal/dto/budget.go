package dto

import (
	"time"

	"budgetledger/internal/models"
)

// UpdateBudgetRequest represents the request to change an owner's
// needs/wants/savings split. The three percentages must sum to 100.
type UpdateBudgetRequest struct {
	NeedsPercent   string `json:"needsPercent" validate:"required,percentage"`
	WantsPercent   string `json:"wantsPercent" validate:"required,percentage"`
	SavingsPercent string `json:"savingsPercent" validate:"required,percentage"`
}

// BudgetResponse represents an owner's current budget split
type BudgetResponse struct {
	NeedsPercent   string     `json:"needsPercent"`
	WantsPercent   string     `json:"wantsPercent"`
	SavingsPercent string     `json:"savingsPercent"`
	IsDefault      bool       `json:"isDefault"`
	UpdatedAt      *time.Time `json:"updatedAt,omitempty"`
}

// NewBudgetResponse maps percentages onto the API shape. isDefault marks an
// owner who never configured a split and is on the 50/30/20 default.
func NewBudgetResponse(pct models.BudgetPercentages, isDefault bool, updatedAt *time.Time) BudgetResponse {
	return BudgetResponse{
		NeedsPercent:   pct.Needs.StringFixed(2),
		WantsPercent:   pct.Wants.StringFixed(2),
		SavingsPercent: pct.Savings.StringFixed(2),
		IsDefault:      isDefault,
		UpdatedAt:      updatedAt,
	}
}
