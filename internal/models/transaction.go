package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	TransactionTypeIncome  = "income"
	TransactionTypeNeeds   = "needs"
	TransactionTypeWants   = "wants"
	TransactionTypeSavings = "savings"

	TransactionSourceManual       = "manual"
	TransactionSourceSMS          = "sms"
	TransactionSourceEmail        = "email"
	TransactionSourceImport       = "import"
	TransactionSourceDistribution = "distribution"

	TransactionStatusPending     = "pending"
	TransactionStatusCategorized = "categorized"
	TransactionStatusVerified    = "verified"

	RecipientKindContact  = "contact"
	RecipientKindUPI      = "upi"
	RecipientKindBank     = "bank"
	RecipientKindMerchant = "merchant"
)

var (
	ErrInvalidTransactionType   = errors.New("invalid transaction type")
	ErrInvalidTransactionSource = errors.New("invalid transaction source")
	ErrInvalidTransactionStatus = errors.New("invalid transaction status")
	ErrInvalidAmount            = errors.New("transaction amount must be positive")
	ErrMissingRecipientName     = errors.New("recipient name is required for expense transactions")
	ErrInvalidParentLink        = errors.New("parent link is only valid on distribution transactions")
)

// Recipient is the structured counterparty of a transaction. Embedded into
// the transactions table as recipient_* columns.
type Recipient struct {
	Name      string `gorm:"column:recipient_name;type:varchar(255)" json:"name"`
	Kind      string `gorm:"column:recipient_kind;type:varchar(20)" json:"kind,omitempty"`
	Details   string `gorm:"column:recipient_details;type:varchar(255)" json:"details,omitempty"`
	Frequency string `gorm:"column:recipient_frequency;type:varchar(30)" json:"frequency,omitempty"`
}

// Transaction represents a recorded financial transaction. An income
// transaction owns exactly three distribution transactions (needs, wants,
// savings) linked back through ParentTransactionID.
type Transaction struct {
	ID                  uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	OwnerID             uuid.UUID       `gorm:"type:uuid;not null;index" json:"owner_id"`
	Description         string          `gorm:"type:text;not null" json:"description"`
	Amount              decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	CategoryID          *uuid.UUID      `gorm:"type:uuid;index" json:"category_id,omitempty"`
	TransactionType     string          `gorm:"type:varchar(20);not null;uniqueIndex:idx_transactions_parent_slot,priority:2" json:"transaction_type"`
	Recipient           Recipient       `gorm:"embedded" json:"recipient"`
	Date                time.Time       `gorm:"not null;index" json:"date"`
	Currency            string          `gorm:"type:varchar(3);not null" json:"currency"`
	Source              string          `gorm:"type:varchar(20);not null" json:"source"`
	Status              string          `gorm:"type:varchar(20);not null" json:"status"`
	ParentTransactionID *uuid.UUID      `gorm:"type:uuid;index;uniqueIndex:idx_transactions_parent_slot,priority:1" json:"parent_transaction_id,omitempty"`
	IsDistribution      bool            `gorm:"not null;default:false" json:"is_distribution"`
	IsEditable          bool            `gorm:"not null;default:true" json:"is_editable"`
	Tag                 string          `gorm:"type:varchar(50)" json:"tag,omitempty"`
	Notes               string          `gorm:"type:text" json:"notes,omitempty"`
	Attachments         JSONBMap        `gorm:"type:jsonb" json:"attachments,omitempty"`
	CreatedAt           time.Time       `gorm:"not null;index" json:"created_at"`
	UpdatedAt           time.Time       `gorm:"not null" json:"updated_at"`
}

// DistributionGroup is an income transaction together with its three derived
// allocation transactions, managed as one consistency unit.
type DistributionGroup struct {
	Income        *Transaction  `json:"income"`
	Distributions []Transaction `json:"distributions"`
}

// BeforeCreate assigns the id and timestamps. Semantic defaulting (recipient
// synthesis, status from source) happens in the engine before the record
// reaches the store, so a persisted row is always fully formed.
func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}

	now := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = now
	}

	return t.Validate()
}

// BeforeUpdate hook for Transaction
func (t *Transaction) BeforeUpdate(tx *gorm.DB) error {
	t.UpdatedAt = time.Now()
	return t.Validate()
}

// Validate checks the at-rest invariants of a single transaction record.
func (t *Transaction) Validate() error {
	if t.OwnerID == uuid.Nil {
		return errors.New("owner ID is required")
	}

	if !IsValidTransactionType(t.TransactionType) {
		return ErrInvalidTransactionType
	}

	if !IsValidTransactionSource(t.Source) {
		return ErrInvalidTransactionSource
	}

	if !IsValidTransactionStatus(t.Status) {
		return ErrInvalidTransactionStatus
	}

	// A share of zero is legal on engine-created allocation rows when the
	// owner's split assigns a category 0%; everything else must be positive.
	if t.IsDistribution {
		if t.Amount.IsNegative() {
			return ErrInvalidAmount
		}
	} else if t.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	if t.Description == "" {
		return errors.New("transaction description is required")
	}

	if len(t.Currency) != 3 {
		return errors.New("currency must be a three-letter code")
	}

	if t.TransactionType != TransactionTypeIncome && t.Recipient.Name == "" {
		return ErrMissingRecipientName
	}

	if t.Recipient.Kind != "" && !IsValidRecipientKind(t.Recipient.Kind) {
		return errors.New("invalid recipient kind")
	}

	if t.IsDistribution {
		if t.TransactionType == TransactionTypeIncome {
			return errors.New("income transactions cannot be distributions")
		}
		if t.ParentTransactionID == nil {
			return errors.New("distribution transactions require a parent transaction")
		}
		if t.Source != TransactionSourceDistribution {
			return fmt.Errorf("distribution transactions must have source %q", TransactionSourceDistribution)
		}
		if t.IsEditable {
			return errors.New("distribution transactions are not editable")
		}
	} else {
		if t.ParentTransactionID != nil {
			return ErrInvalidParentLink
		}
		if t.Source == TransactionSourceDistribution {
			return fmt.Errorf("source %q is reserved for engine-created records", TransactionSourceDistribution)
		}
		if !t.IsEditable {
			return errors.New("non-distribution transactions must remain editable")
		}
	}

	return nil
}

// IsIncome returns true for income transactions
func (t *Transaction) IsIncome() bool {
	return t.TransactionType == TransactionTypeIncome
}

// IsDistributionRoot returns true for an income transaction that owns a
// derived allocation set.
func (t *Transaction) IsDistributionRoot() bool {
	return t.IsIncome() && !t.IsDistribution
}

// TableName returns the table name for Transaction
func (t *Transaction) TableName() string {
	return "transactions"
}

// NormalizeDefaults fills the computed fields of a freshly drafted
// transaction: date, source, status and a synthesized recipient for income
// rows. Invoked by the engine before validation, never as a store hook.
func (t *Transaction) NormalizeDefaults(now time.Time) {
	if t.Date.IsZero() {
		t.Date = now
	}
	if t.Source == "" {
		t.Source = TransactionSourceManual
	}
	if t.Status == "" {
		t.Status = StatusForSource(t.Source)
	}
	if t.IsIncome() && t.Recipient.Name == "" {
		t.Recipient = SynthesizeRecipient(t.Description)
	}
	t.IsEditable = !t.IsDistribution
}

// StatusForSource computes the initial status of a transaction from its
// source: manual and engine-created records arrive categorized, everything
// ingested from elsewhere starts pending.
func StatusForSource(source string) string {
	switch source {
	case TransactionSourceManual, TransactionSourceDistribution:
		return TransactionStatusCategorized
	default:
		return TransactionStatusPending
	}
}

// SynthesizeRecipient builds a merchant recipient from a description. Used
// for income transactions recorded without an explicit counterparty.
func SynthesizeRecipient(description string) Recipient {
	return Recipient{
		Name: description,
		Kind: RecipientKindMerchant,
	}
}

// DistributionTypes lists the derived transaction types in their canonical
// order, which is also the tie-break order for rounding residue.
func DistributionTypes() []string {
	return []string{TransactionTypeNeeds, TransactionTypeWants, TransactionTypeSavings}
}

// IsValidTransactionType checks if the transaction type is valid
func IsValidTransactionType(transactionType string) bool {
	switch transactionType {
	case TransactionTypeIncome, TransactionTypeNeeds, TransactionTypeWants, TransactionTypeSavings:
		return true
	default:
		return false
	}
}

// IsValidDistributionType checks if the type is one of the derived types
func IsValidDistributionType(transactionType string) bool {
	switch transactionType {
	case TransactionTypeNeeds, TransactionTypeWants, TransactionTypeSavings:
		return true
	default:
		return false
	}
}

// IsValidTransactionSource checks if the transaction source is valid
func IsValidTransactionSource(source string) bool {
	switch source {
	case TransactionSourceManual, TransactionSourceSMS, TransactionSourceEmail,
		TransactionSourceImport, TransactionSourceDistribution:
		return true
	default:
		return false
	}
}

// IsValidTransactionStatus checks if the transaction status is valid
func IsValidTransactionStatus(status string) bool {
	switch status {
	case TransactionStatusPending, TransactionStatusCategorized, TransactionStatusVerified:
		return true
	default:
		return false
	}
}

// IsValidRecipientKind checks if the recipient kind is valid
func IsValidRecipientKind(kind string) bool {
	switch kind {
	case RecipientKindContact, RecipientKindUPI, RecipientKindBank, RecipientKindMerchant:
		return true
	default:
		return false
	}
}

// DistributionDescription derives the description of an allocation
// transaction from its parent's description.
func DistributionDescription(distributionType, parentDescription string) string {
	return fmt.Sprintf("%s allocation - %s", titleCase(distributionType), parentDescription)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if 'a' <= b[0] && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
