package services

import (
	"context"
	"errors"
	"log/slog"

	"budgetledger/internal/models"
	"budgetledger/internal/repositories"

	"github.com/google/uuid"
)

// ErrStoreUnavailable wraps unexpected store failures so callers can map
// them to a single service-unavailable response.
var ErrStoreUnavailable = errors.New("persistent store unavailable")

// BudgetService manages per-owner needs/wants/savings percentages. Owners
// without an explicit preference fall back to the 50/30/20 default.
type BudgetService struct {
	repo           repositories.BudgetPreferenceRepositoryInterface
	auditLogger    AuditLoggerInterface
	metrics        MetricsRecorderInterface
	circuitBreaker CircuitBreakerInterface
	logger         *slog.Logger
}

func NewBudgetService(
	repo repositories.BudgetPreferenceRepositoryInterface,
	auditLogger AuditLoggerInterface,
	metrics MetricsRecorderInterface,
	circuitBreaker CircuitBreakerInterface,
	logger *slog.Logger,
) BudgetServiceInterface {
	return &BudgetService{
		repo:           repo,
		auditLogger:    auditLogger,
		metrics:        metrics,
		circuitBreaker: circuitBreaker,
		logger:         logger,
	}
}

func (s *BudgetService) GetPercentages(ctx context.Context, ownerID uuid.UUID) (models.BudgetPercentages, error) {
	if s.circuitBreaker != nil && s.circuitBreaker.IsOpen() {
		return models.BudgetPercentages{}, ErrStoreUnavailable
	}

	preference, err := s.repo.GetByOwnerID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repositories.ErrBudgetPreferenceNotFound) {
			return models.DefaultBudgetPercentages(), nil
		}
		s.recordStoreFailure(ctx, "budget.get", err)
		return models.BudgetPercentages{}, ErrStoreUnavailable
	}

	s.recordStoreSuccess()
	return preference.Percentages(), nil
}

func (s *BudgetService) GetPreference(ctx context.Context, ownerID uuid.UUID) (*models.BudgetPreference, error) {
	if s.circuitBreaker != nil && s.circuitBreaker.IsOpen() {
		return nil, ErrStoreUnavailable
	}

	preference, err := s.repo.GetByOwnerID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repositories.ErrBudgetPreferenceNotFound) {
			return nil, nil
		}
		s.recordStoreFailure(ctx, "budget.get", err)
		return nil, ErrStoreUnavailable
	}

	s.recordStoreSuccess()
	return preference, nil
}

func (s *BudgetService) UpdatePercentages(ctx context.Context, ownerID uuid.UUID, pct models.BudgetPercentages) (*models.BudgetPreference, error) {
	if err := pct.Validate(); err != nil {
		return nil, ErrInvalidAllocation
	}

	if s.circuitBreaker != nil && s.circuitBreaker.IsOpen() {
		return nil, ErrStoreUnavailable
	}

	preference := &models.BudgetPreference{OwnerID: ownerID}
	preference.SetPercentages(pct)

	if err := s.repo.Upsert(ctx, preference); err != nil {
		if errors.Is(err, models.ErrPercentagesNotHundred) {
			return nil, ErrInvalidAllocation
		}
		s.recordStoreFailure(ctx, "budget.upsert", err)
		if s.metrics != nil {
			s.metrics.IncrementCounter("budget.updated", map[string]string{"status": "failed"})
		}
		return nil, ErrStoreUnavailable
	}

	s.recordStoreSuccess()
	if s.metrics != nil {
		s.metrics.IncrementCounter("budget.updated", map[string]string{"status": "success"})
	}
	if s.auditLogger != nil {
		s.auditLogger.LogBudgetUpdated(ctx, ownerID, pct)
	}

	return preference, nil
}

func (s *BudgetService) recordStoreFailure(ctx context.Context, operation string, err error) {
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
}

func (s *BudgetService) recordStoreSuccess() {
	if s.circuitBreaker != nil {
		s.circuitBreaker.RecordSuccess()
	}
}
