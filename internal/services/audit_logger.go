package services

import (
	"context"
	"log/slog"
	"time"

	"budgetledger/internal/models"
	"budgetledger/internal/repositories"

	"github.com/google/uuid"
)

// AuditLogger writes a structured log line and a persistent audit row for
// every engine mutation. Persistence failures are logged and swallowed; an
// audit write must never fail the mutation it describes.
type AuditLogger struct {
	logger *slog.Logger
	repo   repositories.AuditLogRepositoryInterface
}

func NewAuditLogger(logger *slog.Logger, repo repositories.AuditLogRepositoryInterface) AuditLoggerInterface {
	return &AuditLogger{
		logger: logger,
		repo:   repo,
	}
}

func (al *AuditLogger) LogGroupCreated(ctx context.Context, ownerID, incomeID uuid.UUID, distributionCount int) {
	al.logger.InfoContext(ctx, "distribution group created",
		slog.String("event_type", "distribution_group_created"),
		slog.String("owner_id", ownerID.String()),
		slog.String("income_id", incomeID.String()),
		slog.Int("distribution_count", distributionCount),
		slog.Time("timestamp", time.Now()),
		slog.String("correlation_id", getCorrelationID(ctx)),
	)
	al.persist(ctx, ownerID, models.AuditActionIncomeCreated, "transaction", incomeID, models.JSONBMap{
		"distribution_count": distributionCount,
	})
}

func (al *AuditLogger) LogGroupUpdated(ctx context.Context, ownerID, incomeID uuid.UUID, amountChanged bool) {
	al.logger.InfoContext(ctx, "distribution group updated",
		slog.String("event_type", "distribution_group_updated"),
		slog.String("owner_id", ownerID.String()),
		slog.String("income_id", incomeID.String()),
		slog.Bool("amount_changed", amountChanged),
		slog.Time("timestamp", time.Now()),
		slog.String("correlation_id", getCorrelationID(ctx)),
	)
	al.persist(ctx, ownerID, models.AuditActionIncomeUpdated, "transaction", incomeID, models.JSONBMap{
		"amount_changed": amountChanged,
	})
}

func (al *AuditLogger) LogGroupDeleted(ctx context.Context, ownerID, incomeID uuid.UUID) {
	al.logger.InfoContext(ctx, "distribution group deleted",
		slog.String("event_type", "distribution_group_deleted"),
		slog.String("owner_id", ownerID.String()),
		slog.String("income_id", incomeID.String()),
		slog.Time("timestamp", time.Now()),
		slog.String("correlation_id", getCorrelationID(ctx)),
	)
	al.persist(ctx, ownerID, models.AuditActionIncomeDeleted, "transaction", incomeID, nil)
}

func (al *AuditLogger) LogGroupRepaired(ctx context.Context, ownerID, incomeID uuid.UUID, regenerated int) {
	al.logger.WarnContext(ctx, "distribution group repaired",
		slog.String("event_type", "distribution_group_repaired"),
		slog.String("owner_id", ownerID.String()),
		slog.String("income_id", incomeID.String()),
		slog.Int("regenerated", regenerated),
		slog.Time("timestamp", time.Now()),
		slog.String("correlation_id", getCorrelationID(ctx)),
	)
	al.persist(ctx, ownerID, models.AuditActionDistributionRepaired, "transaction", incomeID, models.JSONBMap{
		"regenerated": regenerated,
	})
}

func (al *AuditLogger) LogExpenseMutation(ctx context.Context, ownerID, transactionID uuid.UUID, action string) {
	al.logger.InfoContext(ctx, "expense mutation",
		slog.String("event_type", "expense_mutation"),
		slog.String("owner_id", ownerID.String()),
		slog.String("transaction_id", transactionID.String()),
		slog.String("action", action),
		slog.Time("timestamp", time.Now()),
		slog.String("correlation_id", getCorrelationID(ctx)),
	)
	al.persist(ctx, ownerID, action, "transaction", transactionID, nil)
}

func (al *AuditLogger) LogBudgetUpdated(ctx context.Context, ownerID uuid.UUID, pct models.BudgetPercentages) {
	al.logger.InfoContext(ctx, "budget preference updated",
		slog.String("event_type", "budget_updated"),
		slog.String("owner_id", ownerID.String()),
		slog.String("needs_percent", pct.Needs.String()),
		slog.String("wants_percent", pct.Wants.String()),
		slog.String("savings_percent", pct.Savings.String()),
		slog.Time("timestamp", time.Now()),
		slog.String("correlation_id", getCorrelationID(ctx)),
	)
	al.persist(ctx, ownerID, models.AuditActionBudgetUpdated, "budget_preference", ownerID, models.JSONBMap{
		"needs":   pct.Needs.String(),
		"wants":   pct.Wants.String(),
		"savings": pct.Savings.String(),
	})
}

func (al *AuditLogger) persist(ctx context.Context, ownerID uuid.UUID, action, resource string, resourceID uuid.UUID, metadata models.JSONBMap) {
	if al.repo == nil {
		return
	}

	entry := &models.AuditLog{
		OwnerID:    &ownerID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID.String(),
		Metadata:   metadata,
	}
	if err := al.repo.Create(entry); err != nil {
		al.logger.WarnContext(ctx, "failed to persist audit log",
			slog.String("action", action),
			slog.String("resource_id", resourceID.String()),
			slog.String("error", err.Error()),
		)
	}
}

func getCorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	if correlationID, ok := ctx.Value("correlation_id").(string); ok {
		return correlationID
	}

	if requestID, ok := ctx.Value("request_id").(string); ok {
		return requestID
	}

	return ""
}
