package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/sponsorship-ledger/internal/domain"
	apperrors "github.com/segyhp/sponsorship-ledger/pkg/errors"
)

const grace = domain.DefaultGracePeriodDays

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var now = time.Date(2024, 1, 5, 14, 30, 0, 0, time.UTC)

func newSponsorship() domain.Sponsorship {
	return domain.Sponsorship{
		ID:               uuid.New(),
		DonorRef:         "donor-1",
		StudentRef:       "student-1",
		MonthlyAmount:    decimal.RequireFromString("100.00"),
		StartDate:        date(2024, 1, 1),
		EndDate:          date(2024, 6, 30),
		Status:           domain.StatusPendingPayment,
		TotalPaidAmount:  decimal.Zero,
		SponsorStartDate: date(2024, 1, 3),
		Version:          1,
	}
}

func proposal(start, end time.Time, amount string) domain.ProposedPayment {
	return domain.ProposedPayment{
		StartDate: start,
		EndDate:   end,
		Amount:    decimal.RequireFromString(amount),
	}
}

// applyAll feeds proposals through Apply the way the service does, threading state.
func applyAll(t *testing.T, s domain.Sponsorship, proposals ...domain.ProposedPayment) (domain.Sponsorship, []*domain.Payment) {
	t.Helper()
	var payments []*domain.Payment
	for _, p := range proposals {
		res, err := Apply(s, payments, p, now, grace)
		require.NoError(t, err)
		s = res.Sponsorship
		payment := res.Payment
		payments = append(payments, &payment)
	}
	return s, payments
}

func TestApply_FirstPaymentActivates(t *testing.T) {
	s := newSponsorship()

	res, err := Apply(s, nil, proposal(date(2024, 1, 1), date(2024, 3, 31), "300.00"), now, grace)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingPayment, res.PreviousStatus)
	assert.Equal(t, domain.StatusActive, res.Sponsorship.Status)
	assert.True(t, res.Sponsorship.TotalPaidAmount.Equal(decimal.NewFromInt(300)))
	require.NotNil(t, res.Sponsorship.PaidUpTo)
	assert.Equal(t, date(2024, 3, 31), *res.Sponsorship.PaidUpTo)
	require.NotNil(t, res.Sponsorship.LastPaymentDate)
	assert.Equal(t, date(2024, 1, 5), *res.Sponsorship.LastPaymentDate)
	assert.Equal(t, now, res.Sponsorship.UpdatedAt)

	assert.Equal(t, s.ID, res.Payment.SponsorshipID)
	assert.Equal(t, 3, res.Payment.TotalMonths)
	assert.Equal(t, res.Payment.EndDate, res.Payment.PaidUpTo)
	assert.Equal(t, domain.PaymentStatusCompleted, res.Payment.Status)
	assert.NotEmpty(t, res.Payment.TransactionID)
	assert.NotEqual(t, uuid.Nil, res.Payment.ID)
}

func TestApply_NormalizesProposedPeriod(t *testing.T) {
	res, err := Apply(newSponsorship(), nil, proposal(date(2024, 2, 14), date(2024, 3, 2), "200.00"), now, grace)

	require.NoError(t, err)
	assert.Equal(t, date(2024, 2, 1), res.Payment.StartDate)
	assert.Equal(t, date(2024, 3, 31), res.Payment.EndDate)
}

func TestApply_CompletionRules(t *testing.T) {
	tests := []struct {
		name     string
		end      time.Time
		amount   string
		expected domain.SponsorshipStatus
	}{
		{name: "covers through end date", end: date(2024, 6, 30), amount: "600.00", expected: domain.StatusCompleted},
		{name: "covers through april only", end: date(2024, 4, 30), amount: "400.00", expected: domain.StatusActive},
		{name: "extends past end date", end: date(2024, 8, 31), amount: "800.00", expected: domain.StatusCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Apply(newSponsorship(), nil, proposal(date(2024, 1, 1), tt.end, tt.amount), now, grace)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, res.Sponsorship.Status)
		})
	}
}

func TestApply_WidensCoverageToPaymentPeriod(t *testing.T) {
	res, err := Apply(newSponsorship(), nil, proposal(date(2024, 5, 1), date(2024, 8, 31), "400.00"), now, grace)

	require.NoError(t, err)
	assert.Equal(t, date(2024, 1, 1), res.Sponsorship.StartDate)
	assert.Equal(t, date(2024, 8, 31), res.Sponsorship.EndDate)
}

func TestApply_AccumulatesTotalPaid(t *testing.T) {
	s, payments := applyAll(t, newSponsorship(),
		proposal(date(2024, 1, 1), date(2024, 1, 31), "100.00"),
		proposal(date(2024, 2, 1), date(2024, 3, 31), "200.00"),
		proposal(date(2024, 5, 1), date(2024, 5, 31), "100.00"),
	)

	sum := decimal.Zero
	for _, p := range payments {
		sum = sum.Add(p.Amount)
	}
	assert.True(t, s.TotalPaidAmount.Equal(sum))
	assert.True(t, s.TotalPaidAmount.Equal(decimal.NewFromInt(400)))
	assert.Equal(t, date(2024, 5, 31), *s.PaidUpTo)
	assert.Equal(t, domain.StatusActive, s.Status)
}

func TestApply_GapFillingKeepsPaidUpToAtMax(t *testing.T) {
	s, _ := applyAll(t, newSponsorship(),
		proposal(date(2024, 4, 1), date(2024, 4, 30), "100.00"),
		proposal(date(2024, 1, 1), date(2024, 2, 29), "200.00"),
	)

	assert.Equal(t, date(2024, 4, 30), *s.PaidUpTo)
}

// TotalMonths mirrors the last applied payment rather than a running total.
func TestApply_TotalMonthsIsLatestPaymentMonths(t *testing.T) {
	s, _ := applyAll(t, newSponsorship(),
		proposal(date(2024, 1, 1), date(2024, 3, 31), "300.00"),
		proposal(date(2024, 4, 1), date(2024, 4, 30), "100.00"),
	)

	assert.Equal(t, 1, s.TotalMonths)
}

func TestApply_RejectsOverlapRegardlessOfOrder(t *testing.T) {
	tests := []struct {
		name   string
		first  domain.ProposedPayment
		second domain.ProposedPayment
	}{
		{
			name:   "identical periods",
			first:  proposal(date(2024, 1, 1), date(2024, 3, 31), "300.00"),
			second: proposal(date(2024, 1, 1), date(2024, 3, 31), "300.00"),
		},
		{
			name:   "later payment overlaps tail",
			first:  proposal(date(2024, 1, 1), date(2024, 3, 31), "300.00"),
			second: proposal(date(2024, 3, 1), date(2024, 4, 30), "200.00"),
		},
		{
			name:   "earlier payment overlaps head",
			first:  proposal(date(2024, 3, 1), date(2024, 4, 30), "200.00"),
			second: proposal(date(2024, 1, 1), date(2024, 3, 31), "300.00"),
		},
		{
			name:   "mid-month dates normalize into a paid month",
			first:  proposal(date(2024, 2, 1), date(2024, 2, 29), "100.00"),
			second: proposal(date(2024, 2, 20), date(2024, 2, 21), "100.00"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, payments := applyAll(t, newSponsorship(), tt.first)

			res, err := Apply(s, payments, tt.second, now, grace)

			assert.Nil(t, res)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrOverlappingPeriod))

			var be *apperrors.BusinessError
			require.True(t, errors.As(err, &be))
			assert.Equal(t, payments[0].ID.String(), be.Details["conflict_payment_id"])
		})
	}
}

func TestApply_GapFillerCheckedAgainstAllPayments(t *testing.T) {
	s, payments := applyAll(t, newSponsorship(),
		proposal(date(2024, 1, 1), date(2024, 1, 31), "100.00"),
		proposal(date(2024, 4, 1), date(2024, 4, 30), "100.00"),
		proposal(date(2024, 6, 1), date(2024, 6, 30), "100.00"),
	)

	_, err := Apply(s, payments, proposal(date(2024, 2, 1), date(2024, 4, 30), "300.00"), now, grace)

	require.Error(t, err)
	var be *apperrors.BusinessError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, apperrors.ErrCodeOverlappingPeriod, be.Code)
	assert.Equal(t, "2024-04-01", be.Details["conflict_start"])
}

func TestApply_CompletedAcceptsGapFiller(t *testing.T) {
	s, payments := applyAll(t, newSponsorship(),
		proposal(date(2024, 1, 1), date(2024, 1, 31), "100.00"),
		proposal(date(2024, 6, 1), date(2024, 6, 30), "100.00"),
	)
	require.Equal(t, domain.StatusCompleted, s.Status)

	res, err := Apply(s, payments, proposal(date(2024, 2, 1), date(2024, 2, 29), "100.00"), now, grace)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, res.PreviousStatus)
	assert.Equal(t, domain.StatusCompleted, res.Sponsorship.Status)
	assert.True(t, res.Sponsorship.TotalPaidAmount.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, date(2024, 6, 30), *res.Sponsorship.PaidUpTo)
}

func TestApply_CompletedStillRejectsOverlap(t *testing.T) {
	s, payments := applyAll(t, newSponsorship(),
		proposal(date(2024, 1, 1), date(2024, 1, 31), "100.00"),
		proposal(date(2024, 6, 1), date(2024, 6, 30), "100.00"),
	)

	_, err := Apply(s, payments, proposal(date(2024, 5, 1), date(2024, 6, 30), "200.00"), now, grace)

	assert.Equal(t, apperrors.ErrCodeOverlappingPeriod, apperrors.Code(err))
}

func TestApply_AmountValidation(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		code   string
	}{
		{name: "exact amount accepted", amount: "300.00"},
		{name: "exact amount without trailing zeros", amount: "300"},
		{name: "one cent short", amount: "299.99", code: apperrors.ErrCodeAmountMismatch},
		{name: "one cent over", amount: "300.01", code: apperrors.ErrCodeAmountMismatch},
		{name: "sub-cent difference", amount: "300.001", code: apperrors.ErrCodeAmountMismatch},
		{name: "zero", amount: "0", code: apperrors.ErrCodeNonPositiveAmount},
		{name: "negative", amount: "-300.00", code: apperrors.ErrCodeNonPositiveAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Apply(newSponsorship(), nil, proposal(date(2024, 1, 1), date(2024, 3, 31), tt.amount), now, grace)
			if tt.code == "" {
				require.NoError(t, err)
				assert.NotNil(t, res)
				return
			}
			assert.Nil(t, res)
			assert.Equal(t, tt.code, apperrors.Code(err))
		})
	}
}

func TestApply_AmountMismatchCarriesExpected(t *testing.T) {
	_, err := Apply(newSponsorship(), nil, proposal(date(2024, 1, 1), date(2024, 3, 31), "299.99"), now, grace)

	var be *apperrors.BusinessError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "300.00", be.Details["expected"])
}

func TestApply_RejectsRangeBeforeSponsorshipStart(t *testing.T) {
	_, err := Apply(newSponsorship(), nil, proposal(date(2023, 12, 1), date(2024, 1, 31), "200.00"), now, grace)

	assert.True(t, errors.Is(err, apperrors.ErrRangeBeforeSponsorshipStart))
}

func TestApply_RejectsInvalidRange(t *testing.T) {
	_, err := Apply(newSponsorship(), nil, proposal(date(2024, 3, 1), date(2024, 1, 31), "300.00"), now, grace)

	assert.True(t, errors.Is(err, apperrors.ErrInvalidRange))
}

func TestApply_RejectsClosedSponsorships(t *testing.T) {
	for _, status := range []domain.SponsorshipStatus{domain.StatusCancelled, domain.StatusExpired} {
		t.Run(string(status), func(t *testing.T) {
			s := newSponsorship()
			s.Status = status
			before := s

			res, err := Apply(s, nil, proposal(date(2024, 1, 1), date(2024, 1, 31), "100.00"), now, grace)

			assert.Nil(t, res)
			assert.True(t, errors.Is(err, apperrors.ErrNotInMutableState))
			assert.Equal(t, before, s)
		})
	}
}

func TestApply_FailureLeavesInputsUntouched(t *testing.T) {
	s, payments := applyAll(t, newSponsorship(), proposal(date(2024, 1, 1), date(2024, 1, 31), "100.00"))
	paidUpTo := *s.PaidUpTo
	total := s.TotalPaidAmount

	_, err := Apply(s, payments, proposal(date(2024, 2, 1), date(2024, 2, 29), "99.00"), now, grace)

	require.Error(t, err)
	assert.Len(t, payments, 1)
	assert.Equal(t, paidUpTo, *s.PaidUpTo)
	assert.True(t, total.Equal(s.TotalPaidAmount))
}

func TestApply_ValidationOrder(t *testing.T) {
	s, payments := applyAll(t, newSponsorship(), proposal(date(2024, 1, 1), date(2024, 1, 31), "100.00"))

	// Overlapping and wrong amount: overlap is reported first.
	_, err := Apply(s, payments, proposal(date(2024, 1, 1), date(2024, 1, 31), "1.00"), now, grace)
	assert.Equal(t, apperrors.ErrCodeOverlappingPeriod, apperrors.Code(err))

	// Reversed range and wrong amount: range is reported first.
	_, err = Apply(s, payments, proposal(date(2024, 5, 1), date(2024, 4, 1), "-1"), now, grace)
	assert.Equal(t, apperrors.ErrCodeInvalidRange, apperrors.Code(err))
}

func TestApply_KeepsCallerTransactionID(t *testing.T) {
	p := proposal(date(2024, 1, 1), date(2024, 1, 31), "100.00")
	p.TransactionID = "bkash-8812"

	res, err := Apply(newSponsorship(), nil, p, now, grace)

	require.NoError(t, err)
	assert.Equal(t, "bkash-8812", res.Payment.TransactionID)
}

func TestFindOverlap(t *testing.T) {
	existing := []*domain.Payment{
		{ID: uuid.New(), StartDate: date(2024, 1, 1), EndDate: date(2024, 1, 31)},
		{ID: uuid.New(), StartDate: date(2024, 3, 1), EndDate: date(2024, 3, 31)},
	}

	conflict, ok := FindOverlap(existing, domain.Period{Start: date(2024, 2, 1), End: date(2024, 3, 31)})
	require.True(t, ok)
	assert.Equal(t, existing[1].ID, conflict.ID)

	_, ok = FindOverlap(existing, domain.Period{Start: date(2024, 2, 1), End: date(2024, 2, 29)})
	assert.False(t, ok)

	_, ok = FindOverlap(nil, domain.Period{Start: date(2024, 2, 1), End: date(2024, 2, 29)})
	assert.False(t, ok)
}

func TestExpectedAmount(t *testing.T) {
	period := domain.Period{Start: date(2024, 1, 1), End: date(2024, 3, 31)}

	assert.True(t, ExpectedAmount(decimal.RequireFromString("100.00"), period).Equal(decimal.RequireFromString("300.00")))
	assert.True(t, ExpectedAmount(decimal.RequireFromString("1250.50"), period).Equal(decimal.RequireFromString("3751.50")))
}
