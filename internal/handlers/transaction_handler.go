package handlers

import (
	"errors"
	"net/http"

	"budgetledger/internal/dto"
	apierrors "budgetledger/internal/errors"
	"budgetledger/internal/models"
	"budgetledger/internal/services"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 200
)

// TransactionHandler handles transaction-related HTTP requests
type TransactionHandler struct {
	transactionService services.TransactionServiceInterface
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(transactionService services.TransactionServiceInterface) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
	}
}

// CreateIncome records an income transaction and its derived allocations
// @Summary Record income
// @Description Record an income transaction; the engine derives needs, wants and savings allocations from the owner's budget split
// @Tags Transactions
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateIncomeRequest true "Income transaction"
// @Success 201 {object} dto.DistributionGroupResponse "Income with its three allocations"
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_001 - Invalid request body"
// @Failure 401 {object} errors.ErrorResponse "AUTH_001 - Missing or invalid authentication"
// @Failure 422 {object} errors.ErrorResponse "BUDGET_001 - Stored budget split is unusable"
// @Failure 503 {object} errors.ErrorResponse "SYSTEM_003 - Store unavailable"
// @Router /transactions/income [post]
func (h *TransactionHandler) CreateIncome(c echo.Context) error {
	ownerID, err := getOwnerIDFromContext(c)
	if err != nil {
		return SendError(c, apierrors.AuthMissingToken)
	}

	var req dto.CreateIncomeRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, apierrors.ValidationGeneral, apierrors.WithDetails("Invalid request body"))
	}
	if err := c.Validate(&req); err != nil {
		return SendError(c, apierrors.ValidationGeneral, apierrors.WithDetails(err.Error()))
	}

	draft, err := draftFromIncomeRequest(req)
	if err != nil {
		return SendError(c, apierrors.TransactionInvalidAmount)
	}

	group, err := h.transactionService.CreateIncome(c.Request().Context(), ownerID, draft)
	if err != nil {
		return h.mapServiceError(c, err)
	}

	return c.JSON(http.StatusCreated, dto.NewDistributionGroupResponse(group))
}

// CreateExpense records a standalone needs/wants/savings transaction
// @Summary Record expense
// @Description Record a standalone expense transaction in one of the three budget buckets
// @Tags Transactions
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateExpenseRequest true "Expense transaction"
// @Success 201 {object} dto.TransactionResponse "Created transaction"
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_001 - Invalid request body"
// @Failure 401 {object} errors.ErrorResponse "AUTH_001 - Missing or invalid authentication"
// @Router /transactions/expenses [post]
func (h *TransactionHandler) CreateExpense(c echo.Context) error {
	ownerID, err := getOwnerIDFromContext(c)
	if err != nil {
		return SendError(c, apierrors.AuthMissingToken)
	}

	var req dto.CreateExpenseRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, apierrors.ValidationGeneral, apierrors.WithDetails("Invalid request body"))
	}
	if err := c.Validate(&req); err != nil {
		return SendError(c, apierrors.ValidationGeneral, apierrors.WithDetails(err.Error()))
	}

	amount, err := dto.ParseAmount(req.Amount)
	if err != nil {
		return SendError(c, apierrors.TransactionInvalidAmount)
	}

	draft := services.TransactionDraft{
		Description: req.Description,
		Amount:      amount,
		CategoryID:  req.CategoryID,
		Currency:    req.Currency,
		Source:      req.Source,
		Recipient:   recipientFromPayload(req.Recipient),
		Tag:         req.Tag,
		Notes:       req.Notes,
	}
	if req.Date != nil {
		draft.Date = *req.Date
	}

	transaction, err := h.transactionService.CreateExpense(c.Request().Context(), ownerID, draft, req.TransactionType)
	if err != nil {
		return h.mapServiceError(c, err)
	}

	return c.JSON(http.StatusCreated, dto.NewTransactionResponse(transaction))
}

// GetTransaction retrieves a single transaction
// @Summary Get transaction
// @Tags Transactions
// @Security BearerAuth
// @Produce json
// @Param id path string true "Transaction ID (UUID)"
// @Success 200 {object} dto.TransactionResponse
// @Failure 404 {object} errors.ErrorResponse "TRANSACTION_001 - Transaction not found"
// @Router /transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c echo.Context) error {
	ownerID, err := getOwnerIDFromContext(c)
	if err != nil {
		return SendError(c, apierrors.AuthMissingToken)
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return SendError(c, apierrors.ValidationInvalidFormat, apierrors.WithDetails("Invalid transaction ID"))
	}

	transaction, err := h.transactionService.GetTransaction(c.Request().Context(), ownerID, id)
	if err != nil {
		return h.mapServiceError(c, err)
	}

	return c.JSON(http.StatusOK, dto.NewTransactionResponse(transaction))
}

// GetDistributionGroup retrieves an income transaction with its allocations
// @Summary Get distribution group
// @Description Retrieve an income transaction together with its needs/wants/savings allocations. Incomplete groups are repaired before being returned.
// @Tags Transactions
// @Security BearerAuth
// @Produce json
// @Param id path string true "Income transaction ID (UUID)"
// @Success 200 {object} dto.DistributionGroupResponse
// @Failure 404 {object} errors.ErrorResponse "TRANSACTION_001 - Transaction not found"
// @Failure 422 {object} errors.ErrorResponse "TRANSACTION_005 - Transaction is not an income transaction"
// @Router /transactions/{id}/distributions [get]
func (h *TransactionHandler) GetDistributionGroup(c echo.Context) error {
	ownerID, err := getOwnerIDFromContext(c)
	if err != nil {
		return SendError(c, apierrors.AuthMissingToken)
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return SendError(c, apierrors.ValidationInvalidFormat, apierrors.WithDetails("Invalid transaction ID"))
	}

	group, err := h.transactionService.GetDistributionGroup(c.Request().Context(), ownerID, id)
	if err != nil {
		return h.mapServiceError(c, err)
	}

	return c.JSON(http.StatusOK, dto.NewDistributionGroupResponse(group))
}

// UpdateTransaction applies a partial update
// @Summary Update transaction
// @Description Update a transaction. Updating an income transaction recalculates its allocations with the owner's current split; allocations themselves are read-only.
// @Tags Transactions
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Transaction ID (UUID)"
// @Param request body dto.UpdateTransactionRequest true "Fields to update"
// @Success 200 {object} dto.TransactionResponse "Updated standalone transaction"
// @Success 200 {object} dto.DistributionGroupResponse "Updated distribution group"
// @Failure 404 {object} errors.ErrorResponse "TRANSACTION_001 - Transaction not found"
// @Failure 409 {object} errors.ErrorResponse "TRANSACTION_003 - Allocation transactions cannot be edited"
// @Router /transactions/{id} [patch]
func (h *TransactionHandler) UpdateTransaction(c echo.Context) error {
	ownerID, err := getOwnerIDFromContext(c)
	if err != nil {
		return SendError(c, apierrors.AuthMissingToken)
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return SendError(c, apierrors.ValidationInvalidFormat, apierrors.WithDetails("Invalid transaction ID"))
	}

	var req dto.UpdateTransactionRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, apierrors.ValidationGeneral, apierrors.WithDetails("Invalid request body"))
	}
	if err := c.Validate(&req); err != nil {
		return SendError(c, apierrors.ValidationGeneral, apierrors.WithDetails(err.Error()))
	}

	patch, err := patchFromRequest(req)
	if err != nil {
		return SendError(c, apierrors.TransactionInvalidAmount)
	}

	result, err := h.transactionService.UpdateTransaction(c.Request().Context(), ownerID, id, patch)
	if err != nil {
		return h.mapServiceError(c, err)
	}

	if result.Group != nil {
		return c.JSON(http.StatusOK, dto.NewDistributionGroupResponse(result.Group))
	}
	return c.JSON(http.StatusOK, dto.NewTransactionResponse(result.Transaction))
}

// DeleteTransaction removes a transaction
// @Summary Delete transaction
// @Description Delete a transaction. Deleting an income transaction removes its allocations as well; allocations cannot be deleted on their own.
// @Tags Transactions
// @Security BearerAuth
// @Param id path string true "Transaction ID (UUID)"
// @Success 204 "Deleted"
// @Failure 404 {object} errors.ErrorResponse "TRANSACTION_001 - Transaction not found"
// @Failure 409 {object} errors.ErrorResponse "TRANSACTION_004 - Allocation transactions cannot be deleted"
// @Router /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c echo.Context) error {
	ownerID, err := getOwnerIDFromContext(c)
	if err != nil {
		return SendError(c, apierrors.AuthMissingToken)
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return SendError(c, apierrors.ValidationInvalidFormat, apierrors.WithDetails("Invalid transaction ID"))
	}

	if err := h.transactionService.DeleteTransaction(c.Request().Context(), ownerID, id); err != nil {
		return h.mapServiceError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// ListTransactions retrieves filtered, paginated transactions
// @Summary List transactions
// @Description Retrieve the owner's transactions with filtering and offset pagination. Allocation transactions are excluded unless includeDistributions is set.
// @Tags Transactions
// @Security BearerAuth
// @Produce json
// @Param type query string false "Filter by transaction type" Enums(income, needs, wants, savings)
// @Param status query string false "Filter by status" Enums(pending, categorized, verified)
// @Param source query string false "Filter by source" Enums(manual, sms, email, import, distribution)
// @Param categoryId query string false "Filter by category ID (UUID)"
// @Param startDate query string false "Filter by start date (RFC3339)"
// @Param endDate query string false "Filter by end date (RFC3339)"
// @Param minAmount query string false "Filter by minimum amount"
// @Param maxAmount query string false "Filter by maximum amount"
// @Param includeDistributions query bool false "Include allocation transactions"
// @Param limit query int false "Results per page (max 200)" default(20)
// @Param offset query int false "Results offset" default(0)
// @Success 200 {object} dto.ListTransactionsResponse
// @Router /transactions [get]
func (h *TransactionHandler) ListTransactions(c echo.Context) error {
	ownerID, err := getOwnerIDFromContext(c)
	if err != nil {
		return SendError(c, apierrors.AuthMissingToken)
	}

	var req dto.ListTransactionsRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, apierrors.ValidationGeneral, apierrors.WithDetails("Invalid query parameters"))
	}
	if err := c.Validate(&req); err != nil {
		return SendError(c, apierrors.ValidationGeneral, apierrors.WithDetails(err.Error()))
	}

	filters, err := filtersFromRequest(req)
	if err != nil {
		return SendError(c, apierrors.ValidationInvalidFormat, apierrors.WithDetails(err.Error()))
	}

	transactions, total, err := h.transactionService.ListTransactions(c.Request().Context(), ownerID, filters)
	if err != nil {
		return h.mapServiceError(c, err)
	}

	responses := make([]dto.TransactionResponse, 0, len(transactions))
	for i := range transactions {
		responses = append(responses, dto.NewTransactionResponse(&transactions[i]))
	}

	return c.JSON(http.StatusOK, dto.ListTransactionsResponse{
		Transactions: responses,
		Pagination: dto.PaginationInfo{
			Total:  total,
			Limit:  filters.Limit,
			Offset: filters.Offset,
		},
	})
}

// mapServiceError translates engine errors into the standard error envelope
func (h *TransactionHandler) mapServiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, services.ErrTransactionNotFound):
		return SendError(c, apierrors.TransactionNotFound)
	case errors.Is(err, services.ErrTransactionNotEditable):
		return SendError(c, apierrors.TransactionNotEditable)
	case errors.Is(err, services.ErrTransactionNotDeletable):
		return SendError(c, apierrors.TransactionNotDeletable)
	case errors.Is(err, services.ErrNotIncomeTransaction):
		return SendError(c, apierrors.TransactionInvalidType, apierrors.WithDetails("Transaction is not an income transaction"))
	case errors.Is(err, services.ErrInvalidExpenseType):
		return SendError(c, apierrors.TransactionInvalidType)
	case errors.Is(err, services.ErrInvalidAllocation):
		return SendError(c, apierrors.BudgetInvalidAllocation)
	case errors.Is(err, services.ErrCategoryNotFound):
		return SendError(c, apierrors.TransactionValidationFailed, apierrors.WithDetails("Category not found"))
	case errors.Is(err, services.ErrStoreUnavailable):
		return SendError(c, apierrors.SystemStoreUnavailable)
	case errors.Is(err, models.ErrInvalidAmount):
		return SendError(c, apierrors.TransactionInvalidAmount)
	case errors.Is(err, models.ErrMissingRecipientName):
		return SendError(c, apierrors.TransactionMissingRecipient)
	case errors.Is(err, models.ErrInvalidTransactionType),
		errors.Is(err, models.ErrInvalidTransactionSource),
		errors.Is(err, models.ErrInvalidTransactionStatus),
		errors.Is(err, models.ErrInvalidParentLink):
		return SendError(c, apierrors.TransactionValidationFailed, apierrors.WithDetails(err.Error()))
	default:
		return SendSystemError(c, err)
	}
}

func draftFromIncomeRequest(req dto.CreateIncomeRequest) (services.TransactionDraft, error) {
	amount, err := dto.ParseAmount(req.Amount)
	if err != nil {
		return services.TransactionDraft{}, err
	}

	draft := services.TransactionDraft{
		Description: req.Description,
		Amount:      amount,
		CategoryID:  req.CategoryID,
		Currency:    req.Currency,
		Source:      req.Source,
		Recipient:   recipientFromPayload(req.Recipient),
		Tag:         req.Tag,
		Notes:       req.Notes,
	}
	if req.Date != nil {
		draft.Date = *req.Date
	}
	return draft, nil
}

func patchFromRequest(req dto.UpdateTransactionRequest) (services.TransactionPatch, error) {
	patch := services.TransactionPatch{
		Description: req.Description,
		Date:        req.Date,
		CategoryID:  req.CategoryID,
		Recipient:   recipientFromPayload(req.Recipient),
		Status:      req.Status,
		Tag:         req.Tag,
		Notes:       req.Notes,
	}

	if req.Amount != nil {
		amount, err := dto.ParseAmount(*req.Amount)
		if err != nil {
			return services.TransactionPatch{}, err
		}
		patch.Amount = &amount
	}
	return patch, nil
}

func filtersFromRequest(req dto.ListTransactionsRequest) (models.TransactionFilters, error) {
	filters := models.TransactionFilters{
		Type:                 req.Type,
		Status:               req.Status,
		Source:               req.Source,
		CategoryID:           req.CategoryID,
		StartDate:            req.StartDate,
		EndDate:              req.EndDate,
		IncludeDistributions: req.IncludeDistributions,
		Offset:               req.Offset,
		Limit:                req.Limit,
	}

	if filters.Limit <= 0 {
		filters.Limit = defaultPageLimit
	}
	if filters.Limit > maxPageLimit {
		filters.Limit = maxPageLimit
	}

	if req.MinAmount != nil {
		minAmount, err := decimal.NewFromString(*req.MinAmount)
		if err != nil {
			return models.TransactionFilters{}, errInvalidAmountFilter
		}
		filters.MinAmount = &minAmount
	}
	if req.MaxAmount != nil {
		maxAmount, err := decimal.NewFromString(*req.MaxAmount)
		if err != nil {
			return models.TransactionFilters{}, errInvalidAmountFilter
		}
		filters.MaxAmount = &maxAmount
	}

	return filters, nil
}

var errInvalidAmountFilter = errors.New("invalid amount filter")

func recipientFromPayload(payload *dto.RecipientPayload) *models.Recipient {
	if payload == nil {
		return nil
	}
	return &models.Recipient{
		Name:      payload.Name,
		Kind:      payload.Kind,
		Details:   payload.Details,
		Frequency: payload.Frequency,
	}
}

