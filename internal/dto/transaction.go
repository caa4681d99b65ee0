package dto

import (
	"time"

	"budgetledger/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecipientPayload is the counterparty block of a transaction request
type RecipientPayload struct {
	Name      string `json:"name" validate:"required,min=1,max=255"`
	Kind      string `json:"kind" validate:"omitempty,recipient_kind"`
	Details   string `json:"details" validate:"omitempty,max=255"`
	Frequency string `json:"frequency" validate:"omitempty,max=30"`
}

// CreateIncomeRequest represents the request to record an income transaction.
// The engine derives the three allocation transactions from it.
type CreateIncomeRequest struct {
	Description string            `json:"description" validate:"required,min=1"`
	Amount      string            `json:"amount" validate:"required,money_amount"`
	Date        *time.Time        `json:"date"`
	CategoryID  *uuid.UUID        `json:"categoryId"`
	Currency    string            `json:"currency" validate:"required,currency_code"`
	Source      string            `json:"source" validate:"omitempty,transaction_source"`
	Recipient   *RecipientPayload `json:"recipient"`
	Tag         string            `json:"tag" validate:"omitempty,max=50"`
	Notes       string            `json:"notes"`
}

// CreateExpenseRequest represents the request to record a standalone
// needs/wants/savings transaction
type CreateExpenseRequest struct {
	TransactionType string            `json:"transactionType" validate:"required,expense_type"`
	Description     string            `json:"description" validate:"required,min=1"`
	Amount          string            `json:"amount" validate:"required,money_amount"`
	Date            *time.Time        `json:"date"`
	CategoryID      *uuid.UUID        `json:"categoryId"`
	Currency        string            `json:"currency" validate:"required,currency_code"`
	Source          string            `json:"source" validate:"omitempty,transaction_source"`
	Recipient       *RecipientPayload `json:"recipient" validate:"required"`
	Tag             string            `json:"tag" validate:"omitempty,max=50"`
	Notes           string            `json:"notes"`
}

// UpdateTransactionRequest represents a partial update. Absent fields are
// left untouched; transaction type and ownership cannot change.
type UpdateTransactionRequest struct {
	Description *string           `json:"description" validate:"omitempty,min=1"`
	Amount      *string           `json:"amount" validate:"omitempty,money_amount"`
	Date        *time.Time        `json:"date"`
	CategoryID  *uuid.UUID        `json:"categoryId"`
	Recipient   *RecipientPayload `json:"recipient"`
	Status      *string           `json:"status" validate:"omitempty,transaction_status"`
	Tag         *string           `json:"tag" validate:"omitempty,max=50"`
	Notes       *string           `json:"notes"`
}

// ListTransactionsRequest contains filtering and pagination for transaction queries
type ListTransactionsRequest struct {
	Type                 string     `query:"type" validate:"omitempty,oneof=income needs wants savings"`
	Status               string     `query:"status" validate:"omitempty,transaction_status"`
	Source               string     `query:"source" validate:"omitempty,oneof=manual sms email import distribution"`
	CategoryID           *uuid.UUID `query:"categoryId"`
	StartDate            *time.Time `query:"startDate"`
	EndDate              *time.Time `query:"endDate"`
	MinAmount            *string    `query:"minAmount"`
	MaxAmount            *string    `query:"maxAmount"`
	IncludeDistributions bool       `query:"includeDistributions"`
	Limit                int        `query:"limit" validate:"omitempty,min=1,max=200"`
	Offset               int        `query:"offset" validate:"omitempty,min=0"`
}

// TransactionResponse represents a single transaction in API responses
type TransactionResponse struct {
	ID                  uuid.UUID        `json:"id"`
	Description         string           `json:"description"`
	Amount              string           `json:"amount"`
	CategoryID          *uuid.UUID       `json:"categoryId,omitempty"`
	TransactionType     string           `json:"transactionType"`
	Recipient           RecipientPayload `json:"recipient"`
	Date                time.Time        `json:"date"`
	Currency            string           `json:"currency"`
	Source              string           `json:"source"`
	Status              string           `json:"status"`
	ParentTransactionID *uuid.UUID       `json:"parentTransactionId,omitempty"`
	IsDistribution      bool             `json:"isDistribution"`
	IsEditable          bool             `json:"isEditable"`
	Tag                 string           `json:"tag,omitempty"`
	Notes               string           `json:"notes,omitempty"`
	CreatedAt           time.Time        `json:"createdAt"`
	UpdatedAt           time.Time        `json:"updatedAt"`
}

// DistributionGroupResponse represents an income transaction with its three
// derived allocations
type DistributionGroupResponse struct {
	Income        TransactionResponse   `json:"income"`
	Distributions []TransactionResponse `json:"distributions"`
}

// PaginationInfo contains pagination metadata
type PaginationInfo struct {
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

// ListTransactionsResponse represents the response for listing transactions
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	Pagination   PaginationInfo        `json:"pagination"`
}

// NewTransactionResponse maps a stored transaction onto its API shape
func NewTransactionResponse(t *models.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:          t.ID,
		Description: t.Description,
		Amount:      t.Amount.StringFixed(2),
		CategoryID:  t.CategoryID,

		TransactionType: t.TransactionType,
		Recipient: RecipientPayload{
			Name:      t.Recipient.Name,
			Kind:      t.Recipient.Kind,
			Details:   t.Recipient.Details,
			Frequency: t.Recipient.Frequency,
		},
		Date:                t.Date,
		Currency:            t.Currency,
		Source:              t.Source,
		Status:              t.Status,
		ParentTransactionID: t.ParentTransactionID,
		IsDistribution:      t.IsDistribution,
		IsEditable:          t.IsEditable,
		Tag:                 t.Tag,
		Notes:               t.Notes,
		CreatedAt:           t.CreatedAt,
		UpdatedAt:           t.UpdatedAt,
	}
}

// NewDistributionGroupResponse maps a distribution group onto its API shape
func NewDistributionGroupResponse(group *models.DistributionGroup) DistributionGroupResponse {
	distributions := make([]TransactionResponse, 0, len(group.Distributions))
	for i := range group.Distributions {
		distributions = append(distributions, NewTransactionResponse(&group.Distributions[i]))
	}
	return DistributionGroupResponse{
		Income:        NewTransactionResponse(group.Income),
		Distributions: distributions,
	}
}

// ParseAmount converts a validated request amount into a decimal
func ParseAmount(raw string) (decimal.Decimal, error) {
	return decimal.NewFromString(raw)
}
