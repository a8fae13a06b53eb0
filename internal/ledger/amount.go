package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/segyhp/sponsorship-ledger/internal/domain"
	apperrors "github.com/segyhp/sponsorship-ledger/pkg/errors"
	"github.com/segyhp/sponsorship-ledger/pkg/utils"
)

// CurrencyScale is the number of minor-unit digits amounts are compared at.
const CurrencyScale int32 = 2

// ExpectedAmount is monthly rate × inclusive months of period.
func ExpectedAmount(monthly decimal.Decimal, period domain.Period) decimal.Decimal {
	return utils.CalculatePeriodAmount(monthly, period.Months(), CurrencyScale)
}

// ValidateAmount checks a normalized proposed period and amount against the sponsorship.
// No proration and no tolerance: the amount must equal the expected amount exactly.
func ValidateAmount(s *domain.Sponsorship, period domain.Period, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperrors.WrapNonPositiveAmount(amount)
	}

	if period.Start.Before(s.StartDate) {
		return apperrors.WrapRangeBeforeSponsorshipStart(period.Start, s.StartDate)
	}

	expected := ExpectedAmount(s.MonthlyAmount, period)
	if !amount.Equal(expected) {
		return apperrors.WrapAmountMismatch(expected, amount)
	}

	return nil
}
