// Package ledger holds the pure payment-application rules of a sponsorship.
// Nothing here performs I/O; callers load state, call Apply, and persist the result
// inside one transaction.
package ledger

import (
	"time"

	"github.com/google/uuid"

	"github.com/segyhp/sponsorship-ledger/internal/domain"
	apperrors "github.com/segyhp/sponsorship-ledger/pkg/errors"
	"github.com/segyhp/sponsorship-ledger/pkg/utils"
)

// Result is the outcome of a successful Apply.
type Result struct {
	Sponsorship    domain.Sponsorship
	Payment        domain.Payment
	PreviousStatus domain.SponsorshipStatus
}

// Apply validates proposal against s and its existing payments and, on success,
// returns the new payment and the updated copy of s. It is all-or-nothing: on any
// error neither s nor existing is touched.
func Apply(
	s domain.Sponsorship,
	existing []*domain.Payment,
	proposal domain.ProposedPayment,
	now time.Time,
	graceDays int,
) (*Result, error) {
	if !s.Status.AcceptsPayments() {
		return nil, apperrors.WrapNotInMutableState(s.ID.String(), s.Status.String())
	}

	period, err := domain.NormalizePeriod(proposal.StartDate, proposal.EndDate)
	if err != nil {
		return nil, err
	}

	if conflict, ok := FindOverlap(existing, period); ok {
		return nil, apperrors.WrapOverlappingPeriod(conflict.ID.String(), conflict.StartDate, conflict.EndDate)
	}

	if err := ValidateAmount(&s, period, proposal.Amount); err != nil {
		return nil, err
	}

	today := utils.DateOf(now)
	months := period.Months()

	transactionID := proposal.TransactionID
	if transactionID == "" {
		transactionID = uuid.NewString()
	}

	payment := domain.Payment{
		ID:            uuid.New(),
		SponsorshipID: s.ID,
		PaymentDate:   now,
		StartDate:     period.Start,
		EndDate:       period.End,
		Amount:        proposal.Amount,
		PaidUpTo:      period.End,
		TotalMonths:   months,
		Status:        domain.PaymentStatusCompleted,
		TransactionID: transactionID,
		CreatedAt:     now,
	}

	previous := s.Status
	updated := s
	updated.TotalPaidAmount = s.TotalPaidAmount.Add(proposal.Amount)
	updated.LastPaymentDate = &today
	// Months of the latest payment, not a running total; MonthsPaid in the summary is cumulative.
	updated.TotalMonths = months

	paidUpTo := period.End
	if s.PaidUpTo != nil {
		paidUpTo = utils.MaxDate(*s.PaidUpTo, period.End)
	}
	updated.PaidUpTo = &paidUpTo

	coverage := s.Period().Union(period)
	updated.StartDate = coverage.Start
	updated.EndDate = coverage.End

	updated.Status = domain.DeriveStatus(updated, today, graceDays)
	updated.UpdatedAt = now

	return &Result{
		Sponsorship:    updated,
		Payment:        payment,
		PreviousStatus: previous,
	}, nil
}
