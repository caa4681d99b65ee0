package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionFilters contains the filtering options for transaction list
// queries. OwnerID is always set by the engine, never by the caller.
type TransactionFilters struct {
	OwnerID              uuid.UUID
	Type                 string
	Status               string
	Source               string
	CategoryID           *uuid.UUID
	ParentTransactionID  *uuid.UUID
	StartDate            *time.Time
	EndDate              *time.Time
	MinAmount            *decimal.Decimal
	MaxAmount            *decimal.Decimal
	IncludeDistributions bool
	Offset               int
	Limit                int
}
