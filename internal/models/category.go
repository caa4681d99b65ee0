package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultCategoryName is the lazily created fallback category the resolver
// assigns when a draft arrives without a category.
const DefaultCategoryName = "Uncategorized"

// Category is the minimal shape of the externally owned category record.
// Category management lives outside this service; the engine only resolves
// ids through the CategoryResolver.
type Category struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	OwnerID         uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`
	Name            string    `gorm:"type:varchar(100);not null" json:"name"`
	TransactionType string    `gorm:"type:varchar(20);not null" json:"transaction_type"`
	IsDefault       bool      `gorm:"not null;default:false" json:"is_default"`
	CreatedAt       time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time `gorm:"not null" json:"updated_at"`
}

func (c *Category) TableName() string {
	return "categories"
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
