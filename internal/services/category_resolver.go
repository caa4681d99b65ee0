package services

import (
	"context"
	"errors"

	"budgetledger/internal/repositories"

	"github.com/google/uuid"
)

// ErrCategoryNotFound indicates a caller-supplied category that does not
// exist or belongs to another owner.
var ErrCategoryNotFound = errors.New("category not found")

// CategoryResolver maps caller-supplied category references onto stored
// categories. Drafts without a category get the owner's default category for
// the transaction type, creating it on first use.
type CategoryResolver struct {
	repo repositories.CategoryRepositoryInterface
}

func NewCategoryResolver(repo repositories.CategoryRepositoryInterface) CategoryResolverInterface {
	return &CategoryResolver{repo: repo}
}

func (r *CategoryResolver) ResolveOrDefault(ctx context.Context, ownerID uuid.UUID, categoryID *uuid.UUID, transactionType string) (uuid.UUID, error) {
	if categoryID != nil {
		category, err := r.repo.GetByIDForOwner(ctx, *categoryID, ownerID)
		if err != nil {
			if errors.Is(err, repositories.ErrCategoryNotFound) {
				return uuid.Nil, ErrCategoryNotFound
			}
			return uuid.Nil, err
		}
		return category.ID, nil
	}

	category, err := r.repo.GetOrCreateDefault(ctx, ownerID, transactionType)
	if err != nil {
		return uuid.Nil, err
	}
	return category.ID, nil
}
