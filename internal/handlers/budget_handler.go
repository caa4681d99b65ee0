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

// BudgetHandler handles budget preference HTTP requests
type BudgetHandler struct {
	budgetService services.BudgetServiceInterface
}

// NewBudgetHandler creates a new budget handler
func NewBudgetHandler(budgetService services.BudgetServiceInterface) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService}
}

// GetBudget returns the owner's current needs/wants/savings split
// @Summary Get budget split
// @Description Retrieve the owner's budget percentages. Owners without an explicit preference are on the 50/30/20 default.
// @Tags Budget
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.BudgetResponse
// @Failure 401 {object} errors.ErrorResponse "AUTH_001 - Missing or invalid authentication"
// @Router /budget [get]
func (h *BudgetHandler) GetBudget(c echo.Context) error {
	ownerID, err := getOwnerIDFromContext(c)
	if err != nil {
		return SendError(c, apierrors.AuthMissingToken)
	}

	preference, err := h.budgetService.GetPreference(c.Request().Context(), ownerID)
	if err != nil {
		if errors.Is(err, services.ErrStoreUnavailable) {
			return SendError(c, apierrors.SystemStoreUnavailable)
		}
		return SendSystemError(c, err)
	}

	if preference == nil {
		return c.JSON(http.StatusOK, dto.NewBudgetResponse(models.DefaultBudgetPercentages(), true, nil))
	}

	updatedAt := preference.UpdatedAt
	return c.JSON(http.StatusOK, dto.NewBudgetResponse(preference.Percentages(), false, &updatedAt))
}

// UpdateBudget replaces the owner's budget split
// @Summary Update budget split
// @Description Set the owner's needs/wants/savings percentages. The three values must sum to 100. Existing distribution groups are not recalculated; the new split applies to subsequent income.
// @Tags Budget
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.UpdateBudgetRequest true "New percentages"
// @Success 200 {object} dto.BudgetResponse
// @Failure 400 {object} errors.ErrorResponse "VALIDATION_001 - Invalid request body"
// @Failure 422 {object} errors.ErrorResponse "BUDGET_001 - Percentages do not sum to 100"
// @Router /budget [put]
func (h *BudgetHandler) UpdateBudget(c echo.Context) error {
	ownerID, err := getOwnerIDFromContext(c)
	if err != nil {
		return SendError(c, apierrors.AuthMissingToken)
	}

	var req dto.UpdateBudgetRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, apierrors.ValidationGeneral, apierrors.WithDetails("Invalid request body"))
	}
	if err := c.Validate(&req); err != nil {
		return SendError(c, apierrors.ValidationGeneral, apierrors.WithDetails(err.Error()))
	}

	pct, err := percentagesFromRequest(req)
	if err != nil {
		return SendError(c, apierrors.ValidationInvalidFormat, apierrors.WithDetails("Percentages must be decimal numbers"))
	}

	preference, err := h.budgetService.UpdatePercentages(c.Request().Context(), ownerID, pct)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidAllocation):
			return SendError(c, apierrors.BudgetInvalidAllocation)
		case errors.Is(err, services.ErrStoreUnavailable):
			return SendError(c, apierrors.SystemStoreUnavailable)
		default:
			return SendSystemError(c, err)
		}
	}

	updatedAt := preference.UpdatedAt
	return c.JSON(http.StatusOK, dto.NewBudgetResponse(preference.Percentages(), false, &updatedAt))
}

func percentagesFromRequest(req dto.UpdateBudgetRequest) (models.BudgetPercentages, error) {
	needs, err := decimal.NewFromString(req.NeedsPercent)
	if err != nil {
		return models.BudgetPercentages{}, err
	}
	wants, err := decimal.NewFromString(req.WantsPercent)
	if err != nil {
		return models.BudgetPercentages{}, err
	}
	savings, err := decimal.NewFromString(req.SavingsPercent)
	if err != nil {
		return models.BudgetPercentages{}, err
	}

	return models.BudgetPercentages{Needs: needs, Wants: wants, Savings: savings}, nil
}
