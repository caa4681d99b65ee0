package services

import (
	"errors"

	"budgetledger/internal/models"

	"github.com/shopspring/decimal"
)

// ErrInvalidAllocation indicates a budget split that cannot be applied:
// negative percentages or a sum different from 100.
var ErrInvalidAllocation = errors.New("budget percentages must be non-negative and sum to 100")

var oneHundred = decimal.NewFromInt(100)

// Allocation holds the three computed shares of an income amount.
type Allocation struct {
	Needs   decimal.Decimal
	Wants   decimal.Decimal
	Savings decimal.Decimal
}

// Sum returns the total of the three shares.
func (a Allocation) Sum() decimal.Decimal {
	return a.Needs.Add(a.Wants).Add(a.Savings)
}

// Share returns the share for the given distribution transaction type.
func (a Allocation) Share(transactionType string) decimal.Decimal {
	switch transactionType {
	case models.TransactionTypeNeeds:
		return a.Needs
	case models.TransactionTypeWants:
		return a.Wants
	case models.TransactionTypeSavings:
		return a.Savings
	}
	return decimal.Zero
}

// Allocate splits an income amount into needs/wants/savings shares using the
// given percentages. Each share is rounded half-to-even to 2 decimal places;
// any rounding residual is folded into the largest share so the three shares
// always sum exactly to the income amount. Ties on the largest share resolve
// in needs, wants, savings order.
func Allocate(income decimal.Decimal, pct models.BudgetPercentages) (Allocation, error) {
	if err := pct.Validate(); err != nil {
		return Allocation{}, ErrInvalidAllocation
	}
	if income.IsNegative() {
		return Allocation{}, models.ErrInvalidAmount
	}

	alloc := Allocation{
		Needs:   income.Mul(pct.Needs).Div(oneHundred).RoundBank(2),
		Wants:   income.Mul(pct.Wants).Div(oneHundred).RoundBank(2),
		Savings: income.Mul(pct.Savings).Div(oneHundred).RoundBank(2),
	}

	residual := income.Sub(alloc.Sum())
	if !residual.IsZero() {
		switch largestShareType(alloc) {
		case models.TransactionTypeNeeds:
			alloc.Needs = alloc.Needs.Add(residual)
		case models.TransactionTypeWants:
			alloc.Wants = alloc.Wants.Add(residual)
		case models.TransactionTypeSavings:
			alloc.Savings = alloc.Savings.Add(residual)
		}
	}

	return alloc, nil
}

func largestShareType(a Allocation) string {
	largest := models.TransactionTypeNeeds
	largestAmount := a.Needs
	if a.Wants.GreaterThan(largestAmount) {
		largest = models.TransactionTypeWants
		largestAmount = a.Wants
	}
	if a.Savings.GreaterThan(largestAmount) {
		largest = models.TransactionTypeSavings
	}
	return largest
}
