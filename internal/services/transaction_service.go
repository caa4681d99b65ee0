package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"budgetledger/internal/models"
	"budgetledger/internal/repositories"

	"github.com/google/uuid"
)

var (
	ErrTransactionNotFound     = errors.New("transaction not found")
	ErrTransactionNotEditable  = errors.New("distribution transactions cannot be edited directly")
	ErrTransactionNotDeletable = errors.New("distribution transactions cannot be deleted directly")
	ErrNotIncomeTransaction    = errors.New("transaction is not an income transaction")
	ErrInvalidExpenseType      = errors.New("expense type must be needs, wants or savings")
)

// TransactionService is the consistency engine for income distribution.
// Every income transaction it creates is accompanied by three derived
// allocation transactions, and every mutation of an income transaction
// cascades to its derived set within one store transaction.
type TransactionService struct {
	repo             repositories.TransactionRepositoryInterface
	categoryResolver CategoryResolverInterface
	auditLogger      AuditLoggerInterface
	metrics          MetricsRecorderInterface
	circuitBreaker   CircuitBreakerInterface
	logger           *slog.Logger
}

func NewTransactionService(
	repo repositories.TransactionRepositoryInterface,
	categoryResolver CategoryResolverInterface,
	auditLogger AuditLoggerInterface,
	metrics MetricsRecorderInterface,
	circuitBreaker CircuitBreakerInterface,
	logger *slog.Logger,
) TransactionServiceInterface {
	return &TransactionService{
		repo:             repo,
		categoryResolver: categoryResolver,
		auditLogger:      auditLogger,
		metrics:          metrics,
		circuitBreaker:   circuitBreaker,
		logger:           logger,
	}
}

// CreateIncome records an income transaction and fans it out into needs,
// wants and savings allocations in a single atomic write. The owner's
// percentages are read inside that write, so the split always reflects the
// committed preference at the moment of creation.
func (s *TransactionService) CreateIncome(ctx context.Context, ownerID uuid.UUID, draft TransactionDraft) (*models.DistributionGroup, error) {
	if s.circuitBreaker != nil && s.circuitBreaker.IsOpen() {
		return nil, ErrStoreUnavailable
	}

	income, err := s.buildFromDraft(ctx, ownerID, draft, models.TransactionTypeIncome)
	if err != nil {
		return nil, err
	}
	if err := income.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	children, err := s.repo.CreateDistributionGroup(ctx, income, func(pct models.BudgetPercentages) ([]models.Transaction, error) {
		alloc, err := Allocate(income.Amount, pct)
		if err != nil {
			return nil, err
		}

		built := make([]models.Transaction, 0, 3)
		for _, distributionType := range models.DistributionTypes() {
			built = append(built, newDistributionRow(income, distributionType, alloc))
		}
		return built, nil
	})
	if err != nil {
		if errors.Is(err, ErrInvalidAllocation) {
			// Nothing was written; a broken split must never produce a
			// partial group.
			return nil, ErrInvalidAllocation
		}
		return nil, s.failStore(ctx, "distribution.create", err)
	}

	s.recordGroupWrite("create", start)
	if s.auditLogger != nil {
		s.auditLogger.LogGroupCreated(ctx, ownerID, income.ID, len(children))
	}

	return &models.DistributionGroup{Income: income, Distributions: children}, nil
}

// CreateExpense records a standalone needs/wants/savings transaction. It is
// not part of any distribution group and never cascades.
func (s *TransactionService) CreateExpense(ctx context.Context, ownerID uuid.UUID, draft TransactionDraft, transactionType string) (*models.Transaction, error) {
	if !models.IsValidDistributionType(transactionType) {
		return nil, ErrInvalidExpenseType
	}
	if s.circuitBreaker != nil && s.circuitBreaker.IsOpen() {
		return nil, ErrStoreUnavailable
	}

	expense, err := s.buildFromDraft(ctx, ownerID, draft, transactionType)
	if err != nil {
		return nil, err
	}
	if err := expense.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, expense); err != nil {
		return nil, s.failStore(ctx, "expense.create", err)
	}

	s.recordSuccess()
	if s.metrics != nil {
		s.metrics.IncrementCounter("transaction.mutation", map[string]string{
			"type": transactionType, "operation": "create",
		})
	}
	if s.auditLogger != nil {
		s.auditLogger.LogExpenseMutation(ctx, ownerID, expense.ID, models.AuditActionExpenseCreated)
	}

	return expense, nil
}

// UpdateTransaction applies a partial update. Updating an income transaction
// rewrites its whole distribution group using the owner's current
// percentages; updating a standalone transaction touches only that record.
// Derived transactions themselves are read-only.
func (s *TransactionService) UpdateTransaction(ctx context.Context, ownerID, id uuid.UUID, patch TransactionPatch) (*UpdateResult, error) {
	if s.circuitBreaker != nil && s.circuitBreaker.IsOpen() {
		return nil, ErrStoreUnavailable
	}

	transaction, err := s.getOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if transaction.IsDistribution {
		return nil, ErrTransactionNotEditable
	}

	amountChanged, err := s.applyPatch(ctx, transaction, patch)
	if err != nil {
		return nil, err
	}
	if err := transaction.Validate(); err != nil {
		return nil, err
	}

	if !transaction.IsIncome() {
		if err := s.repo.Update(ctx, transaction); err != nil {
			return nil, s.failStore(ctx, "expense.update", err)
		}
		s.recordSuccess()
		if s.auditLogger != nil {
			s.auditLogger.LogExpenseMutation(ctx, ownerID, transaction.ID, models.AuditActionExpenseUpdated)
		}
		return &UpdateResult{Transaction: transaction}, nil
	}

	start := time.Now()
	children, err := s.repo.UpdateDistributionGroup(ctx, transaction, s.rebuilderFor(transaction))
	if err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return nil, ErrTransactionNotFound
		}
		if errors.Is(err, ErrInvalidAllocation) {
			return nil, ErrInvalidAllocation
		}
		return nil, s.failStore(ctx, "distribution.update", err)
	}

	s.recordGroupWrite("update", start)
	if s.auditLogger != nil {
		s.auditLogger.LogGroupUpdated(ctx, ownerID, transaction.ID, amountChanged)
	}

	return &UpdateResult{Group: &models.DistributionGroup{Income: transaction, Distributions: children}}, nil
}

// DeleteTransaction removes a transaction. Deleting an income transaction
// removes the whole distribution group atomically; derived transactions
// cannot be deleted on their own.
func (s *TransactionService) DeleteTransaction(ctx context.Context, ownerID, id uuid.UUID) error {
	if s.circuitBreaker != nil && s.circuitBreaker.IsOpen() {
		return ErrStoreUnavailable
	}

	transaction, err := s.getOwned(ctx, id, ownerID)
	if err != nil {
		return err
	}
	if transaction.IsDistribution {
		return ErrTransactionNotDeletable
	}

	if transaction.IsIncome() {
		start := time.Now()
		if err := s.repo.DeleteDistributionGroup(ctx, transaction); err != nil {
			if errors.Is(err, repositories.ErrTransactionNotFound) {
				return ErrTransactionNotFound
			}
			return s.failStore(ctx, "distribution.delete", err)
		}
		s.recordGroupWrite("delete", start)
		if s.auditLogger != nil {
			s.auditLogger.LogGroupDeleted(ctx, ownerID, transaction.ID)
		}
		return nil
	}

	if err := s.repo.Delete(ctx, transaction.ID); err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return ErrTransactionNotFound
		}
		return s.failStore(ctx, "expense.delete", err)
	}

	s.recordSuccess()
	if s.auditLogger != nil {
		s.auditLogger.LogExpenseMutation(ctx, ownerID, transaction.ID, models.AuditActionExpenseDeleted)
	}
	return nil
}

// GetTransaction retrieves a single transaction scoped to its owner.
func (s *TransactionService) GetTransaction(ctx context.Context, ownerID, id uuid.UUID) (*models.Transaction, error) {
	if s.circuitBreaker != nil && s.circuitBreaker.IsOpen() {
		return nil, ErrStoreUnavailable
	}
	return s.getOwned(ctx, id, ownerID)
}

// GetDistributionGroup retrieves an income transaction together with its
// derived set. A group found with missing slots, which can only happen after
// outside interference with the store, is repaired in place before being
// returned.
func (s *TransactionService) GetDistributionGroup(ctx context.Context, ownerID, incomeID uuid.UUID) (*models.DistributionGroup, error) {
	if s.circuitBreaker != nil && s.circuitBreaker.IsOpen() {
		return nil, ErrStoreUnavailable
	}

	income, err := s.getOwned(ctx, incomeID, ownerID)
	if err != nil {
		return nil, err
	}
	if !income.IsIncome() {
		return nil, ErrNotIncomeTransaction
	}

	children, err := s.repo.GetByParentID(ctx, income.ID)
	if err != nil {
		return nil, s.failStore(ctx, "distribution.read", err)
	}
	s.recordSuccess()

	if missing := missingSlots(children); missing > 0 {
		s.logger.WarnContext(ctx, "distribution group incomplete, repairing",
			slog.String("income_id", income.ID.String()),
			slog.Int("missing", missing),
		)

		children, err = s.repo.UpdateDistributionGroup(ctx, income, s.rebuilderFor(income))
		if err != nil {
			return nil, s.failStore(ctx, "distribution.repair", err)
		}
		s.recordSuccess()
		if s.metrics != nil {
			s.metrics.IncrementCounter("distribution.repaired", nil)
		}
		if s.auditLogger != nil {
			s.auditLogger.LogGroupRepaired(ctx, ownerID, income.ID, missing)
		}
	}

	return &models.DistributionGroup{Income: income, Distributions: children}, nil
}

// ListTransactions retrieves the owner's transactions with filters and
// pagination. Derived transactions are excluded unless the filter opts in.
func (s *TransactionService) ListTransactions(ctx context.Context, ownerID uuid.UUID, filters models.TransactionFilters) ([]models.Transaction, int64, error) {
	if s.circuitBreaker != nil && s.circuitBreaker.IsOpen() {
		return nil, 0, ErrStoreUnavailable
	}

	filters.OwnerID = ownerID
	transactions, total, err := s.repo.GetWithFilters(ctx, filters)
	if err != nil {
		return nil, 0, s.failStore(ctx, "transaction.list", err)
	}

	s.recordSuccess()
	return transactions, total, nil
}

// buildFromDraft turns a caller draft into a fully formed transaction:
// category resolved, defaults normalized.
func (s *TransactionService) buildFromDraft(ctx context.Context, ownerID uuid.UUID, draft TransactionDraft, transactionType string) (*models.Transaction, error) {
	transaction := &models.Transaction{
		OwnerID:         ownerID,
		Description:     draft.Description,
		Amount:          draft.Amount,
		TransactionType: transactionType,
		Date:            draft.Date,
		Currency:        draft.Currency,
		Source:          draft.Source,
		Tag:             draft.Tag,
		Notes:           draft.Notes,
		Attachments:     draft.Attachments,
	}
	if draft.Recipient != nil {
		transaction.Recipient = *draft.Recipient
	}

	categoryID, err := s.categoryResolver.ResolveOrDefault(ctx, ownerID, draft.CategoryID, transactionType)
	if err != nil {
		if errors.Is(err, ErrCategoryNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, s.failStore(ctx, "category.resolve", err)
	}
	transaction.CategoryID = &categoryID

	transaction.NormalizeDefaults(time.Now())
	return transaction, nil
}

// applyPatch copies the non-nil patch fields onto the transaction. Returns
// whether the amount changed, which decides if a group recalculation is
// user-visible.
func (s *TransactionService) applyPatch(ctx context.Context, transaction *models.Transaction, patch TransactionPatch) (bool, error) {
	amountChanged := false

	if patch.Description != nil {
		transaction.Description = *patch.Description
	}
	if patch.Amount != nil && !patch.Amount.Equal(transaction.Amount) {
		transaction.Amount = *patch.Amount
		amountChanged = true
	}
	if patch.Date != nil {
		transaction.Date = *patch.Date
	}
	if patch.CategoryID != nil {
		categoryID, err := s.categoryResolver.ResolveOrDefault(ctx, transaction.OwnerID, patch.CategoryID, transaction.TransactionType)
		if err != nil {
			if errors.Is(err, ErrCategoryNotFound) {
				return false, ErrCategoryNotFound
			}
			return false, s.failStore(ctx, "category.resolve", err)
		}
		transaction.CategoryID = &categoryID
	}
	if patch.Recipient != nil {
		transaction.Recipient = *patch.Recipient
	}
	if patch.Status != nil {
		if !models.IsValidTransactionStatus(*patch.Status) {
			return false, models.ErrInvalidTransactionStatus
		}
		transaction.Status = *patch.Status
	}
	if patch.Tag != nil {
		transaction.Tag = *patch.Tag
	}
	if patch.Notes != nil {
		transaction.Notes = *patch.Notes
	}

	return amountChanged, nil
}

// rebuilderFor returns the rebuild callback for an income transaction. It
// recomputes all three shares from the current amount and percentages,
// updates existing derived rows keeping their ids stable, and regenerates
// any missing slot.
func (s *TransactionService) rebuilderFor(income *models.Transaction) repositories.DistributionRebuilder {
	return func(pct models.BudgetPercentages, existing []models.Transaction) ([]models.Transaction, error) {
		alloc, err := Allocate(income.Amount, pct)
		if err != nil {
			return nil, err
		}

		bySlot := make(map[string]models.Transaction, len(existing))
		for _, child := range existing {
			bySlot[child.TransactionType] = child
		}

		rebuilt := make([]models.Transaction, 0, 3)
		for _, distributionType := range models.DistributionTypes() {
			child, ok := bySlot[distributionType]
			if !ok {
				rebuilt = append(rebuilt, newDistributionRow(income, distributionType, alloc))
				continue
			}

			child.Amount = alloc.Share(distributionType)
			child.Description = models.DistributionDescription(distributionType, income.Description)
			child.CategoryID = income.CategoryID
			child.Date = income.Date
			child.Currency = income.Currency
			child.Recipient = income.Recipient
			rebuilt = append(rebuilt, child)
		}
		return rebuilt, nil
	}
}

func (s *TransactionService) getOwned(ctx context.Context, id, ownerID uuid.UUID) (*models.Transaction, error) {
	transaction, err := s.repo.GetByIDForOwner(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, s.failStore(ctx, "transaction.get", err)
	}
	s.recordSuccess()
	return transaction, nil
}

// failStore records a store failure on the breaker and metrics, logs it, and
// collapses the underlying error into ErrStoreUnavailable.
func (s *TransactionService) failStore(ctx context.Context, operation string, err error) error {
	if s.circuitBreaker != nil {
		s.circuitBreaker.RecordFailure()
	}
	if s.metrics != nil {
		s.metrics.IncrementCounter("store.failure", nil)
	}
	s.logger.ErrorContext(ctx, "store operation failed",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
	return ErrStoreUnavailable
}

func (s *TransactionService) recordSuccess() {
	if s.circuitBreaker != nil {
		s.circuitBreaker.RecordSuccess()
	}
}

func (s *TransactionService) recordGroupWrite(operation string, start time.Time) {
	s.recordSuccess()
	if s.metrics != nil {
		s.metrics.IncrementCounter("distribution.group", map[string]string{
			"operation": operation, "status": "success",
		})
		s.metrics.RecordProcessingTime("distribution.write", time.Since(start))
	}
}

// newDistributionRow builds one derived allocation transaction for a slot.
func newDistributionRow(income *models.Transaction, distributionType string, alloc Allocation) models.Transaction {
	return models.Transaction{
		OwnerID:         income.OwnerID,
		Description:     models.DistributionDescription(distributionType, income.Description),
		Amount:          alloc.Share(distributionType),
		CategoryID:      income.CategoryID,
		TransactionType: distributionType,
		Recipient:       income.Recipient,
		Date:            income.Date,
		Currency:        income.Currency,
		Source:          models.TransactionSourceDistribution,
		Status:          models.TransactionStatusCategorized,
		ParentTransactionID: func() *uuid.UUID {
			if income.ID == uuid.Nil {
				return nil
			}
			id := income.ID
			return &id
		}(),
		IsDistribution: true,
		IsEditable:     false,
	}
}

// missingSlots counts how many of the three canonical slots are absent from
// a derived set.
func missingSlots(children []models.Transaction) int {
	present := make(map[string]bool, len(children))
	for _, child := range children {
		present[child.TransactionType] = true
	}

	missing := 0
	for _, distributionType := range models.DistributionTypes() {
		if !present[distributionType] {
			missing++
		}
	}
	return missing
}
