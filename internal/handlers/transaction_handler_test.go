package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"budgetledger/internal/dto"
	"budgetledger/internal/models"
	"budgetledger/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

// stubTransactionService is a scriptable TransactionServiceInterface for
// exercising the HTTP layer in isolation.
type stubTransactionService struct {
	createIncomeFn         func(ctx context.Context, ownerID uuid.UUID, draft services.TransactionDraft) (*models.DistributionGroup, error)
	createExpenseFn        func(ctx context.Context, ownerID uuid.UUID, draft services.TransactionDraft, transactionType string) (*models.Transaction, error)
	updateTransactionFn    func(ctx context.Context, ownerID, id uuid.UUID, patch services.TransactionPatch) (*services.UpdateResult, error)
	deleteTransactionFn    func(ctx context.Context, ownerID, id uuid.UUID) error
	getTransactionFn       func(ctx context.Context, ownerID, id uuid.UUID) (*models.Transaction, error)
	getDistributionGroupFn func(ctx context.Context, ownerID, id uuid.UUID) (*models.DistributionGroup, error)
	listTransactionsFn     func(ctx context.Context, ownerID uuid.UUID, filters models.TransactionFilters) ([]models.Transaction, int64, error)
}

func (s *stubTransactionService) CreateIncome(ctx context.Context, ownerID uuid.UUID, draft services.TransactionDraft) (*models.DistributionGroup, error) {
	return s.createIncomeFn(ctx, ownerID, draft)
}

func (s *stubTransactionService) CreateExpense(ctx context.Context, ownerID uuid.UUID, draft services.TransactionDraft, transactionType string) (*models.Transaction, error) {
	return s.createExpenseFn(ctx, ownerID, draft, transactionType)
}

func (s *stubTransactionService) UpdateTransaction(ctx context.Context, ownerID, id uuid.UUID, patch services.TransactionPatch) (*services.UpdateResult, error) {
	return s.updateTransactionFn(ctx, ownerID, id, patch)
}

func (s *stubTransactionService) DeleteTransaction(ctx context.Context, ownerID, id uuid.UUID) error {
	return s.deleteTransactionFn(ctx, ownerID, id)
}

func (s *stubTransactionService) GetTransaction(ctx context.Context, ownerID, id uuid.UUID) (*models.Transaction, error) {
	return s.getTransactionFn(ctx, ownerID, id)
}

func (s *stubTransactionService) GetDistributionGroup(ctx context.Context, ownerID, id uuid.UUID) (*models.DistributionGroup, error) {
	return s.getDistributionGroupFn(ctx, ownerID, id)
}

func (s *stubTransactionService) ListTransactions(ctx context.Context, ownerID uuid.UUID, filters models.TransactionFilters) ([]models.Transaction, int64, error) {
	return s.listTransactionsFn(ctx, ownerID, filters)
}

type TransactionHandlerTestSuite struct {
	suite.Suite
	echo    *echo.Echo
	ownerID uuid.UUID
	service *stubTransactionService
	handler *TransactionHandler
}

func TestTransactionHandlerSuite(t *testing.T) {
	suite.Run(t, new(TransactionHandlerTestSuite))
}

func (s *TransactionHandlerTestSuite) SetupTest() {
	s.echo = echo.New()
	s.echo.Validator = NewValidator()
	s.ownerID = uuid.New()
	s.service = &stubTransactionService{}
	s.handler = NewTransactionHandler(s.service)
}

func (s *TransactionHandlerTestSuite) newContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := s.echo.NewContext(req, rec)
	c.Set("owner_id", s.ownerID)
	return c, rec
}

func (s *TransactionHandlerTestSuite) errorCode(rec *httptest.ResponseRecorder) string {
	var response ErrorResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &response))
	return response.Error.Code
}

func (s *TransactionHandlerTestSuite) sampleIncome() *models.Transaction {
	return &models.Transaction{
		ID:              uuid.New(),
		OwnerID:         s.ownerID,
		Description:     "August Salary",
		Amount:          decimal.NewFromInt(1000),
		TransactionType: models.TransactionTypeIncome,
		Recipient:       models.Recipient{Name: "August Salary", Kind: models.RecipientKindMerchant},
		Date:            time.Now(),
		Currency:        "INR",
		Source:          models.TransactionSourceManual,
		Status:          models.TransactionStatusCategorized,
		IsEditable:      true,
	}
}

func (s *TransactionHandlerTestSuite) sampleGroup() *models.DistributionGroup {
	income := s.sampleIncome()
	amounts := map[string]int64{
		models.TransactionTypeNeeds:   500,
		models.TransactionTypeWants:   300,
		models.TransactionTypeSavings: 200,
	}

	distributions := make([]models.Transaction, 0, 3)
	for _, distributionType := range models.DistributionTypes() {
		parentID := income.ID
		distributions = append(distributions, models.Transaction{
			ID:                  uuid.New(),
			OwnerID:             s.ownerID,
			Description:         models.DistributionDescription(distributionType, income.Description),
			Amount:              decimal.NewFromInt(amounts[distributionType]),
			TransactionType:     distributionType,
			Recipient:           income.Recipient,
			Date:                income.Date,
			Currency:            income.Currency,
			Source:              models.TransactionSourceDistribution,
			Status:              models.TransactionStatusCategorized,
			ParentTransactionID: &parentID,
			IsDistribution:      true,
		})
	}
	return &models.DistributionGroup{Income: income, Distributions: distributions}
}

// CreateIncome

func (s *TransactionHandlerTestSuite) TestCreateIncome_Success() {
	group := s.sampleGroup()
	s.service.createIncomeFn = func(_ context.Context, ownerID uuid.UUID, draft services.TransactionDraft) (*models.DistributionGroup, error) {
		s.Equal(s.ownerID, ownerID)
		s.Equal("August Salary", draft.Description)
		s.True(draft.Amount.Equal(decimal.NewFromInt(1000)))
		return group, nil
	}

	body := `{"description":"August Salary","amount":"1000.00","currency":"INR"}`
	c, rec := s.newContext(http.MethodPost, "/api/v1/transactions/income", body)

	s.NoError(s.handler.CreateIncome(c))
	s.Equal(http.StatusCreated, rec.Code)

	var response dto.DistributionGroupResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &response))
	s.Equal("1000.00", response.Income.Amount)
	s.Len(response.Distributions, 3)
	s.Equal("needs", response.Distributions[0].TransactionType)
	s.Equal("500.00", response.Distributions[0].Amount)
	s.True(response.Distributions[0].IsDistribution)
}

func (s *TransactionHandlerTestSuite) TestCreateIncome_ValidationFailures() {
	testCases := []struct {
		name string
		body string
	}{
		{"missing description", `{"amount":"1000.00","currency":"INR"}`},
		{"missing amount", `{"description":"Salary","currency":"INR"}`},
		{"non-numeric amount", `{"description":"Salary","amount":"lots","currency":"INR"}`},
		{"negative amount", `{"description":"Salary","amount":"-5","currency":"INR"}`},
		{"too many fraction digits", `{"description":"Salary","amount":"10.001","currency":"INR"}`},
		{"reserved source", `{"description":"Salary","amount":"10","currency":"INR","source":"distribution"}`},
		{"bad currency", `{"description":"Salary","amount":"10","currency":"RUPEES"}`},
		{"missing currency", `{"description":"Salary","amount":"10"}`},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			c, rec := s.newContext(http.MethodPost, "/api/v1/transactions/income", tc.body)
			s.NoError(s.handler.CreateIncome(c))
			s.Equal(http.StatusBadRequest, rec.Code)
			s.Equal("VALIDATION_001", s.errorCode(rec))
		})
	}
}

func (s *TransactionHandlerTestSuite) TestCreateIncome_CorruptSplit() {
	s.service.createIncomeFn = func(context.Context, uuid.UUID, services.TransactionDraft) (*models.DistributionGroup, error) {
		return nil, services.ErrInvalidAllocation
	}

	c, rec := s.newContext(http.MethodPost, "/api/v1/transactions/income", `{"description":"Salary","amount":"1000","currency":"INR"}`)
	s.NoError(s.handler.CreateIncome(c))
	s.Equal(http.StatusUnprocessableEntity, rec.Code)
	s.Equal("BUDGET_001", s.errorCode(rec))
}

func (s *TransactionHandlerTestSuite) TestCreateIncome_StoreUnavailable() {
	s.service.createIncomeFn = func(context.Context, uuid.UUID, services.TransactionDraft) (*models.DistributionGroup, error) {
		return nil, services.ErrStoreUnavailable
	}

	c, rec := s.newContext(http.MethodPost, "/api/v1/transactions/income", `{"description":"Salary","amount":"1000","currency":"INR"}`)
	s.NoError(s.handler.CreateIncome(c))
	s.Equal(http.StatusServiceUnavailable, rec.Code)
	s.Equal("SYSTEM_003", s.errorCode(rec))
}

func (s *TransactionHandlerTestSuite) TestCreateIncome_MissingOwner() {
	c, rec := s.newContext(http.MethodPost, "/api/v1/transactions/income", `{"description":"Salary","amount":"1000","currency":"INR"}`)
	c.Set("owner_id", nil)

	s.NoError(s.handler.CreateIncome(c))
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal("AUTH_001", s.errorCode(rec))
}

// CreateExpense

func (s *TransactionHandlerTestSuite) TestCreateExpense_Success() {
	expense := s.sampleIncome()
	expense.TransactionType = models.TransactionTypeWants
	expense.Description = "Concert tickets"
	expense.Amount = decimal.RequireFromString("120.50")
	expense.Recipient = models.Recipient{Name: "Ticket Stand", Kind: models.RecipientKindMerchant}

	s.service.createExpenseFn = func(_ context.Context, _ uuid.UUID, draft services.TransactionDraft, transactionType string) (*models.Transaction, error) {
		s.Equal(models.TransactionTypeWants, transactionType)
		s.Require().NotNil(draft.Recipient)
		s.Equal("Ticket Stand", draft.Recipient.Name)
		return expense, nil
	}

	body := `{"transactionType":"wants","description":"Concert tickets","amount":"120.50","currency":"INR","recipient":{"name":"Ticket Stand","kind":"merchant"}}`
	c, rec := s.newContext(http.MethodPost, "/api/v1/transactions/expenses", body)

	s.NoError(s.handler.CreateExpense(c))
	s.Equal(http.StatusCreated, rec.Code)

	var response dto.TransactionResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &response))
	s.Equal("120.50", response.Amount)
	s.Equal("wants", response.TransactionType)
}

func (s *TransactionHandlerTestSuite) TestCreateExpense_RejectsIncomeType() {
	body := `{"transactionType":"income","description":"Salary","amount":"10","currency":"INR","recipient":{"name":"Employer"}}`
	c, rec := s.newContext(http.MethodPost, "/api/v1/transactions/expenses", body)

	s.NoError(s.handler.CreateExpense(c))
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("VALIDATION_001", s.errorCode(rec))
}

func (s *TransactionHandlerTestSuite) TestCreateExpense_RequiresRecipient() {
	body := `{"transactionType":"needs","description":"Groceries","amount":"10","currency":"INR"}`
	c, rec := s.newContext(http.MethodPost, "/api/v1/transactions/expenses", body)

	s.NoError(s.handler.CreateExpense(c))
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("VALIDATION_001", s.errorCode(rec))
}

// GetTransaction

func (s *TransactionHandlerTestSuite) TestGetTransaction_Success() {
	expense := s.sampleIncome()
	s.service.getTransactionFn = func(_ context.Context, _ uuid.UUID, id uuid.UUID) (*models.Transaction, error) {
		s.Equal(expense.ID, id)
		return expense, nil
	}

	c, rec := s.newContext(http.MethodGet, "/api/v1/transactions/"+expense.ID.String(), "")
	c.SetParamNames("id")
	c.SetParamValues(expense.ID.String())

	s.NoError(s.handler.GetTransaction(c))
	s.Equal(http.StatusOK, rec.Code)
}

func (s *TransactionHandlerTestSuite) TestGetTransaction_NotFound() {
	s.service.getTransactionFn = func(context.Context, uuid.UUID, uuid.UUID) (*models.Transaction, error) {
		return nil, services.ErrTransactionNotFound
	}

	id := uuid.New()
	c, rec := s.newContext(http.MethodGet, "/api/v1/transactions/"+id.String(), "")
	c.SetParamNames("id")
	c.SetParamValues(id.String())

	s.NoError(s.handler.GetTransaction(c))
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("TRANSACTION_001", s.errorCode(rec))
}

func (s *TransactionHandlerTestSuite) TestGetTransaction_MalformedID() {
	c, rec := s.newContext(http.MethodGet, "/api/v1/transactions/not-a-uuid", "")
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	s.NoError(s.handler.GetTransaction(c))
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("VALIDATION_003", s.errorCode(rec))
}

// GetDistributionGroup

func (s *TransactionHandlerTestSuite) TestGetDistributionGroup_Success() {
	group := s.sampleGroup()
	s.service.getDistributionGroupFn = func(context.Context, uuid.UUID, uuid.UUID) (*models.DistributionGroup, error) {
		return group, nil
	}

	c, rec := s.newContext(http.MethodGet, "/api/v1/transactions/"+group.Income.ID.String()+"/distributions", "")
	c.SetParamNames("id")
	c.SetParamValues(group.Income.ID.String())

	s.NoError(s.handler.GetDistributionGroup(c))
	s.Equal(http.StatusOK, rec.Code)

	var response dto.DistributionGroupResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &response))
	s.Len(response.Distributions, 3)
}

func (s *TransactionHandlerTestSuite) TestGetDistributionGroup_NotIncome() {
	s.service.getDistributionGroupFn = func(context.Context, uuid.UUID, uuid.UUID) (*models.DistributionGroup, error) {
		return nil, services.ErrNotIncomeTransaction
	}

	id := uuid.New()
	c, rec := s.newContext(http.MethodGet, "/api/v1/transactions/"+id.String()+"/distributions", "")
	c.SetParamNames("id")
	c.SetParamValues(id.String())

	s.NoError(s.handler.GetDistributionGroup(c))
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("TRANSACTION_005", s.errorCode(rec))
}

// UpdateTransaction

func (s *TransactionHandlerTestSuite) TestUpdateTransaction_IncomeReturnsGroup() {
	group := s.sampleGroup()
	s.service.updateTransactionFn = func(_ context.Context, _ uuid.UUID, _ uuid.UUID, patch services.TransactionPatch) (*services.UpdateResult, error) {
		s.Require().NotNil(patch.Amount)
		s.True(patch.Amount.Equal(decimal.NewFromInt(2000)))
		return &services.UpdateResult{Group: group}, nil
	}

	c, rec := s.newContext(http.MethodPatch, "/api/v1/transactions/"+group.Income.ID.String(), `{"amount":"2000"}`)
	c.SetParamNames("id")
	c.SetParamValues(group.Income.ID.String())

	s.NoError(s.handler.UpdateTransaction(c))
	s.Equal(http.StatusOK, rec.Code)

	var response dto.DistributionGroupResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &response))
	s.Len(response.Distributions, 3)
}

func (s *TransactionHandlerTestSuite) TestUpdateTransaction_ExpenseReturnsSingle() {
	expense := s.sampleIncome()
	expense.TransactionType = models.TransactionTypeNeeds
	s.service.updateTransactionFn = func(context.Context, uuid.UUID, uuid.UUID, services.TransactionPatch) (*services.UpdateResult, error) {
		return &services.UpdateResult{Transaction: expense}, nil
	}

	c, rec := s.newContext(http.MethodPatch, "/api/v1/transactions/"+expense.ID.String(), `{"description":"Updated"}`)
	c.SetParamNames("id")
	c.SetParamValues(expense.ID.String())

	s.NoError(s.handler.UpdateTransaction(c))
	s.Equal(http.StatusOK, rec.Code)

	var response dto.TransactionResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &response))
	s.Equal("needs", response.TransactionType)
}

func (s *TransactionHandlerTestSuite) TestUpdateTransaction_DistributionConflict() {
	s.service.updateTransactionFn = func(context.Context, uuid.UUID, uuid.UUID, services.TransactionPatch) (*services.UpdateResult, error) {
		return nil, services.ErrTransactionNotEditable
	}

	id := uuid.New()
	c, rec := s.newContext(http.MethodPatch, "/api/v1/transactions/"+id.String(), `{"description":"Nope"}`)
	c.SetParamNames("id")
	c.SetParamValues(id.String())

	s.NoError(s.handler.UpdateTransaction(c))
	s.Equal(http.StatusConflict, rec.Code)
	s.Equal("TRANSACTION_003", s.errorCode(rec))
}

// DeleteTransaction

func (s *TransactionHandlerTestSuite) TestDeleteTransaction_Success() {
	deleted := uuid.Nil
	s.service.deleteTransactionFn = func(_ context.Context, _ uuid.UUID, id uuid.UUID) error {
		deleted = id
		return nil
	}

	id := uuid.New()
	c, rec := s.newContext(http.MethodDelete, "/api/v1/transactions/"+id.String(), "")
	c.SetParamNames("id")
	c.SetParamValues(id.String())

	s.NoError(s.handler.DeleteTransaction(c))
	s.Equal(http.StatusNoContent, rec.Code)
	s.Equal(id, deleted)
}

func (s *TransactionHandlerTestSuite) TestDeleteTransaction_DistributionConflict() {
	s.service.deleteTransactionFn = func(context.Context, uuid.UUID, uuid.UUID) error {
		return services.ErrTransactionNotDeletable
	}

	id := uuid.New()
	c, rec := s.newContext(http.MethodDelete, "/api/v1/transactions/"+id.String(), "")
	c.SetParamNames("id")
	c.SetParamValues(id.String())

	s.NoError(s.handler.DeleteTransaction(c))
	s.Equal(http.StatusConflict, rec.Code)
	s.Equal("TRANSACTION_004", s.errorCode(rec))
}

// ListTransactions

func (s *TransactionHandlerTestSuite) TestListTransactions_DefaultsAndPagination() {
	transactions := make([]models.Transaction, 3)
	for i := range transactions {
		tx := s.sampleIncome()
		tx.Description = fmt.Sprintf("Income %d", i)
		transactions[i] = *tx
	}

	var captured models.TransactionFilters
	s.service.listTransactionsFn = func(_ context.Context, _ uuid.UUID, filters models.TransactionFilters) ([]models.Transaction, int64, error) {
		captured = filters
		return transactions, 3, nil
	}

	c, rec := s.newContext(http.MethodGet, "/api/v1/transactions", "")

	s.NoError(s.handler.ListTransactions(c))
	s.Equal(http.StatusOK, rec.Code)
	s.Equal(defaultPageLimit, captured.Limit)
	s.False(captured.IncludeDistributions)

	var response dto.ListTransactionsResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &response))
	s.Len(response.Transactions, 3)
	s.Equal(int64(3), response.Pagination.Total)
	s.Equal(defaultPageLimit, response.Pagination.Limit)
}

func (s *TransactionHandlerTestSuite) TestListTransactions_FilterBinding() {
	var captured models.TransactionFilters
	s.service.listTransactionsFn = func(_ context.Context, _ uuid.UUID, filters models.TransactionFilters) ([]models.Transaction, int64, error) {
		captured = filters
		return nil, 0, nil
	}

	c, rec := s.newContext(http.MethodGet, "/api/v1/transactions?type=needs&includeDistributions=true&limit=50&minAmount=100.00", "")

	s.NoError(s.handler.ListTransactions(c))
	s.Equal(http.StatusOK, rec.Code)
	s.Equal(models.TransactionTypeNeeds, captured.Type)
	s.True(captured.IncludeDistributions)
	s.Equal(50, captured.Limit)
	s.Require().NotNil(captured.MinAmount)
	s.True(captured.MinAmount.Equal(decimal.NewFromInt(100)))
}

func (s *TransactionHandlerTestSuite) TestListTransactions_BadAmountFilter() {
	c, rec := s.newContext(http.MethodGet, "/api/v1/transactions?minAmount=abc", "")

	s.NoError(s.handler.ListTransactions(c))
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("VALIDATION_003", s.errorCode(rec))
}

func (s *TransactionHandlerTestSuite) TestListTransactions_BadTypeFilter() {
	c, rec := s.newContext(http.MethodGet, "/api/v1/transactions?type=leisure", "")

	s.NoError(s.handler.ListTransactions(c))
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("VALIDATION_001", s.errorCode(rec))
}
