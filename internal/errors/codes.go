package errors

// ErrorCode represents a standardized error code used throughout the API
type ErrorCode string

// Authentication error codes (AUTH_*)
const (
	AuthMissingToken           ErrorCode = "AUTH_001"
	AuthExpiredToken           ErrorCode = "AUTH_002"
	AuthInvalidTokenFormat     ErrorCode = "AUTH_003"
	AuthInsufficientPermission ErrorCode = "AUTH_004"
)

// Validation error codes (VALIDATION_*)
const (
	ValidationGeneral       ErrorCode = "VALIDATION_001"
	ValidationRequiredField ErrorCode = "VALIDATION_002"
	ValidationInvalidFormat ErrorCode = "VALIDATION_003"
	ValidationOutOfRange    ErrorCode = "VALIDATION_004"
	ValidationInvalidDate   ErrorCode = "VALIDATION_005"
)

// Transaction error codes (TRANSACTION_*)
const (
	TransactionNotFound         ErrorCode = "TRANSACTION_001"
	TransactionInvalidAmount    ErrorCode = "TRANSACTION_002"
	TransactionNotEditable      ErrorCode = "TRANSACTION_003"
	TransactionNotDeletable     ErrorCode = "TRANSACTION_004"
	TransactionInvalidType      ErrorCode = "TRANSACTION_005"
	TransactionMissingRecipient ErrorCode = "TRANSACTION_006"
	TransactionValidationFailed ErrorCode = "TRANSACTION_007"
)

// Budget error codes (BUDGET_*)
const (
	BudgetInvalidAllocation ErrorCode = "BUDGET_001"
	BudgetNotFound          ErrorCode = "BUDGET_002"
)

// System error codes (SYSTEM_*)
const (
	SystemInternalError     ErrorCode = "SYSTEM_001"
	SystemDatabaseError     ErrorCode = "SYSTEM_002"
	SystemStoreUnavailable  ErrorCode = "SYSTEM_003"
	SystemRateLimitExceeded ErrorCode = "SYSTEM_004"
)

// errorMessages maps error codes to their default human-readable messages
var errorMessages = map[ErrorCode]string{
	// Authentication errors
	AuthMissingToken:           "Authorization token is required",
	AuthExpiredToken:           "Authorization token has expired",
	AuthInvalidTokenFormat:     "Invalid authorization token format",
	AuthInsufficientPermission: "Insufficient permissions to access this resource",

	// Validation errors
	ValidationGeneral:       "Validation failed",
	ValidationRequiredField: "Required field is missing",
	ValidationInvalidFormat: "Invalid field format",
	ValidationOutOfRange:    "Field value is out of allowed range",
	ValidationInvalidDate:   "Invalid date format or range",

	// Transaction errors
	TransactionNotFound:         "Transaction not found",
	TransactionInvalidAmount:    "Transaction amount must be positive",
	TransactionNotEditable:      "Distribution transactions can only be changed through their parent income transaction",
	TransactionNotDeletable:     "Distribution transactions can only be removed by deleting their parent income transaction",
	TransactionInvalidType:      "Invalid transaction type",
	TransactionMissingRecipient: "Recipient name is required for this transaction type",
	TransactionValidationFailed: "Transaction validation failed",

	// Budget errors
	BudgetInvalidAllocation: "Budget percentages must sum to 100",
	BudgetNotFound:          "Budget preference not found",

	// System errors
	SystemInternalError:     "An unexpected error occurred. Please contact support with trace ID",
	SystemDatabaseError:     "Database connection error",
	SystemStoreUnavailable:  "Storage temporarily unavailable",
	SystemRateLimitExceeded: "Rate limit exceeded. Please try again later",
}

// GetErrorMessage returns the default message for a given error code
// If the error code is not found, it returns a generic error message
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}
	return "An error occurred"
}

// IsValidErrorCode checks if the provided error code is a valid registered code
func IsValidErrorCode(code ErrorCode) bool {
	_, ok := errorMessages[code]
	return ok
}
