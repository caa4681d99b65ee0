package validation

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Validator wraps the go-playground validator with custom rules and error formatting
type Validator struct {
	validate *validator.Validate
}

// GetValidate returns the underlying validator.Validate instance for use with Echo
func (v *Validator) GetValidate() *validator.Validate {
	return v.validate
}

// singleton instance of the validator
var instance *Validator

// GetValidator returns the singleton validator instance
func GetValidator() *Validator {
	if instance == nil {
		instance = NewValidator()
	}
	return instance
}

// NewValidator creates a new validator instance with custom rules and configuration
func NewValidator() *Validator {
	v := validator.New()

	_ = v.RegisterValidation("expense_type", validateExpenseType)
	_ = v.RegisterValidation("transaction_source", validateTransactionSource)
	_ = v.RegisterValidation("transaction_status", validateTransactionStatus)
	_ = v.RegisterValidation("recipient_kind", validateRecipientKind)
	_ = v.RegisterValidation("currency_code", validateCurrencyCode)
	_ = v.RegisterValidation("money_amount", validateMoneyAmount)
	_ = v.RegisterValidation("percentage", validatePercentage)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{validate: v}
}

// Custom validation functions

// validateExpenseType validates that the type is one of the three budget buckets
func validateExpenseType(fl validator.FieldLevel) bool {
	txType := strings.ToLower(fl.Field().String())
	validTypes := map[string]bool{
		"needs":   true,
		"wants":   true,
		"savings": true,
	}
	return validTypes[txType]
}

// validateTransactionSource validates the ingestion source of a transaction
func validateTransactionSource(fl validator.FieldLevel) bool {
	source := strings.ToLower(fl.Field().String())
	validSources := map[string]bool{
		"manual": true,
		"sms":    true,
		"email":  true,
		"import": true,
	}
	return validSources[source]
}

// validateTransactionStatus validates the lifecycle status of a transaction
func validateTransactionStatus(fl validator.FieldLevel) bool {
	status := strings.ToLower(fl.Field().String())
	validStatuses := map[string]bool{
		"pending":     true,
		"categorized": true,
		"verified":    true,
	}
	return validStatuses[status]
}

// validateRecipientKind validates the counterparty kind
func validateRecipientKind(fl validator.FieldLevel) bool {
	kind := strings.ToLower(fl.Field().String())
	validKinds := map[string]bool{
		"contact":  true,
		"upi":      true,
		"bank":     true,
		"merchant": true,
	}
	return validKinds[kind]
}

// validateCurrencyCode validates an ISO 4217 style currency code (3 uppercase letters)
func validateCurrencyCode(fl validator.FieldLevel) bool {
	code := fl.Field().String()
	matched, _ := regexp.MatchString(`^[A-Z]{3}$`, code)
	return matched
}

// validateMoneyAmount validates that a decimal string parses to a positive
// amount with at most 2 decimal places
func validateMoneyAmount(fl validator.FieldLevel) bool {
	raw := fl.Field().String()
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return false
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return false
	}
	return amount.Exponent() >= -2
}

// validatePercentage validates that a decimal string parses to a value in [0, 100]
func validatePercentage(fl validator.FieldLevel) bool {
	raw := fl.Field().String()
	pct, err := decimal.NewFromString(raw)
	if err != nil {
		return false
	}
	return !pct.IsNegative() && pct.LessThanOrEqual(decimal.NewFromInt(100))
}
