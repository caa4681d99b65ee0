package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrPercentagesNotHundred = errors.New("budget percentages must sum to 100")

// BudgetPercentages is the needs/wants/savings split applied to income
// transactions. Values are whole-number-or-fractional percentages.
type BudgetPercentages struct {
	Needs   decimal.Decimal `json:"needs"`
	Wants   decimal.Decimal `json:"wants"`
	Savings decimal.Decimal `json:"savings"`
}

// DefaultBudgetPercentages is the 50/30/20 split used before an owner has
// configured their own.
func DefaultBudgetPercentages() BudgetPercentages {
	return BudgetPercentages{
		Needs:   decimal.NewFromInt(50),
		Wants:   decimal.NewFromInt(30),
		Savings: decimal.NewFromInt(20),
	}
}

// Sum returns needs + wants + savings.
func (p BudgetPercentages) Sum() decimal.Decimal {
	return p.Needs.Add(p.Wants).Add(p.Savings)
}

// Validate checks that each share is non-negative and the three sum to 100.
func (p BudgetPercentages) Validate() error {
	if p.Needs.IsNegative() || p.Wants.IsNegative() || p.Savings.IsNegative() {
		return ErrPercentagesNotHundred
	}
	if !p.Sum().Equal(decimal.NewFromInt(100)) {
		return ErrPercentagesNotHundred
	}
	return nil
}

// BudgetPreference stores one owner's configured split. One row per owner.
type BudgetPreference struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	OwnerID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex" json:"owner_id"`
	NeedsPercent   decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"needs_percent"`
	WantsPercent   decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"wants_percent"`
	SavingsPercent decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"savings_percent"`
	CreatedAt      time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"not null" json:"updated_at"`
}

func (bp *BudgetPreference) TableName() string {
	return "budget_preferences"
}

func (bp *BudgetPreference) BeforeCreate(tx *gorm.DB) error {
	if bp.ID == uuid.Nil {
		bp.ID = uuid.New()
	}
	return bp.Percentages().Validate()
}

func (bp *BudgetPreference) BeforeUpdate(tx *gorm.DB) error {
	return bp.Percentages().Validate()
}

// Percentages returns the stored split as a value object.
func (bp *BudgetPreference) Percentages() BudgetPercentages {
	return BudgetPercentages{
		Needs:   bp.NeedsPercent,
		Wants:   bp.WantsPercent,
		Savings: bp.SavingsPercent,
	}
}

// SetPercentages replaces the stored split.
func (bp *BudgetPreference) SetPercentages(p BudgetPercentages) {
	bp.NeedsPercent = p.Needs
	bp.WantsPercent = p.Wants
	bp.SavingsPercent = p.Savings
}
