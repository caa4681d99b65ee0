package services

import (
	"testing"

	"budgetledger/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type DistributionCalculatorTestSuite struct {
	suite.Suite
}

func TestDistributionCalculatorSuite(t *testing.T) {
	suite.Run(t, new(DistributionCalculatorTestSuite))
}

func pct(needs, wants, savings string) models.BudgetPercentages {
	return models.BudgetPercentages{
		Needs:   decimal.RequireFromString(needs),
		Wants:   decimal.RequireFromString(wants),
		Savings: decimal.RequireFromString(savings),
	}
}

func (s *DistributionCalculatorTestSuite) TestAllocate_DefaultSplit() {
	testCases := []struct {
		description string
		income      string
		needs       string
		wants       string
		savings     string
	}{
		{"whole amount", "1000", "500", "300", "200"},
		{"cents", "1234.56", "617.28", "370.37", "246.91"},
		{"exact three-way split", "999", "499.50", "299.70", "199.80"},
		{"tenth of a unit", "0.10", "0.05", "0.03", "0.02"},
		{"single cent folds into largest share", "0.01", "0.01", "0", "0"},
		{"zero income", "0", "0", "0", "0"},
	}

	for _, tc := range testCases {
		s.Run(tc.description, func() {
			alloc, err := Allocate(decimal.RequireFromString(tc.income), models.DefaultBudgetPercentages())
			s.Require().NoError(err)

			s.True(alloc.Needs.Equal(decimal.RequireFromString(tc.needs)), "needs: got %s want %s", alloc.Needs, tc.needs)
			s.True(alloc.Wants.Equal(decimal.RequireFromString(tc.wants)), "wants: got %s want %s", alloc.Wants, tc.wants)
			s.True(alloc.Savings.Equal(decimal.RequireFromString(tc.savings)), "savings: got %s want %s", alloc.Savings, tc.savings)
		})
	}
}

func (s *DistributionCalculatorTestSuite) TestAllocate_SharesAlwaysSumToIncome() {
	splits := []models.BudgetPercentages{
		models.DefaultBudgetPercentages(),
		pct("33.33", "33.33", "33.34"),
		pct("70", "20", "10"),
		pct("100", "0", "0"),
		pct("0", "0", "100"),
		pct("1", "1", "98"),
	}
	incomes := []string{"0.01", "0.03", "1", "7.77", "99.99", "1234.56", "1000000", "31415.92"}

	for _, split := range splits {
		for _, raw := range incomes {
			income := decimal.RequireFromString(raw)
			alloc, err := Allocate(income, split)
			s.Require().NoError(err)

			s.True(alloc.Sum().Equal(income),
				"shares %s/%s/%s of %s under %s/%s/%s must sum to income",
				alloc.Needs, alloc.Wants, alloc.Savings, income,
				split.Needs, split.Wants, split.Savings)
			s.False(alloc.Needs.IsNegative())
			s.False(alloc.Wants.IsNegative())
			s.False(alloc.Savings.IsNegative())
		}
	}
}

func (s *DistributionCalculatorTestSuite) TestAllocate_ZeroPercentSlotGetsZero() {
	alloc, err := Allocate(decimal.RequireFromString("500"), pct("100", "0", "0"))
	s.Require().NoError(err)

	s.True(alloc.Needs.Equal(decimal.RequireFromString("500")))
	s.True(alloc.Wants.IsZero())
	s.True(alloc.Savings.IsZero())
}

func (s *DistributionCalculatorTestSuite) TestAllocate_ResidueTieBreaksTowardNeeds() {
	// Equal thirds leave one cent of residue; needs wins the tie.
	alloc, err := Allocate(decimal.RequireFromString("0.04"), pct("33.33", "33.33", "33.34"))
	s.Require().NoError(err)
	s.True(alloc.Sum().Equal(decimal.RequireFromString("0.04")))
	s.True(alloc.Needs.GreaterThanOrEqual(alloc.Wants))
}

func (s *DistributionCalculatorTestSuite) TestAllocate_InvalidSplit() {
	testCases := []struct {
		description string
		split       models.BudgetPercentages
	}{
		{"sum below 100", pct("50", "30", "10")},
		{"sum above 100", pct("50", "30", "30")},
		{"negative slot", pct("120", "-10", "-10")},
	}

	for _, tc := range testCases {
		s.Run(tc.description, func() {
			_, err := Allocate(decimal.RequireFromString("100"), tc.split)
			s.ErrorIs(err, ErrInvalidAllocation)
		})
	}
}

func (s *DistributionCalculatorTestSuite) TestAllocate_NegativeIncome() {
	_, err := Allocate(decimal.RequireFromString("-1"), models.DefaultBudgetPercentages())
	s.ErrorIs(err, models.ErrInvalidAmount)
}

func (s *DistributionCalculatorTestSuite) TestShare_ByType() {
	alloc := Allocation{
		Needs:   decimal.RequireFromString("50"),
		Wants:   decimal.RequireFromString("30"),
		Savings: decimal.RequireFromString("20"),
	}

	s.True(alloc.Share(models.TransactionTypeNeeds).Equal(alloc.Needs))
	s.True(alloc.Share(models.TransactionTypeWants).Equal(alloc.Wants))
	s.True(alloc.Share(models.TransactionTypeSavings).Equal(alloc.Savings))
	s.True(alloc.Share("income").IsZero())
}
