package domain

import (
	"time"

	apperrors "github.com/segyhp/sponsorship-ledger/pkg/errors"
	"github.com/segyhp/sponsorship-ledger/pkg/utils"
)

// DefaultGracePeriodDays is how long a sponsorship may stay unpaid before it expires.
const DefaultGracePeriodDays = 3

// DeriveStatus computes the status a sponsorship should have on day today.
// Every mutation path goes through this function so stored status never drifts.
//
//   - terminal statuses are returned unchanged
//   - no payment yet: EXPIRED once more than graceDays have passed since SponsorStartDate,
//     PENDING_PAYMENT otherwise
//   - PaidUpTo on or after EndDate minus one day: COMPLETED
//   - otherwise ACTIVE
func DeriveStatus(s Sponsorship, today time.Time, graceDays int) SponsorshipStatus {
	if s.Status.IsTerminal() {
		return s.Status
	}

	if s.PaidUpTo == nil {
		if ShouldExpire(s, today, graceDays) {
			return StatusExpired
		}
		return StatusPendingPayment
	}

	if !utils.DateOf(*s.PaidUpTo).Before(utils.DateOf(s.EndDate).AddDate(0, 0, -1)) {
		return StatusCompleted
	}
	return StatusActive
}

// ShouldExpire is the sweeper rule: still pending, never paid, and older than the grace window.
func ShouldExpire(s Sponsorship, today time.Time, graceDays int) bool {
	return s.Status == StatusPendingPayment &&
		s.PaidUpTo == nil &&
		utils.DaysBetween(s.SponsorStartDate, today) > graceDays
}

// IsPaymentDueSoon flags pending sponsorships on the last day before they would expire.
func IsPaymentDueSoon(s Sponsorship, today time.Time, graceDays int) bool {
	return s.Status == StatusPendingPayment &&
		s.PaidUpTo == nil &&
		utils.DaysBetween(s.SponsorStartDate, today) == graceDays-1
}

// IsOverdue is a flag, not a state: an active sponsorship whose coverage lapsed before today.
func IsOverdue(s Sponsorship, today time.Time) bool {
	if s.Status != StatusActive {
		return false
	}
	return s.PaidUpTo == nil || utils.DateOf(*s.PaidUpTo).Before(utils.DateOf(today))
}

// Cancel returns s transitioned to CANCELLED. Terminal sponsorships cannot be cancelled.
func Cancel(s Sponsorship, now time.Time) (Sponsorship, error) {
	if s.Status.IsTerminal() {
		return s, apperrors.WrapNotInMutableState(s.ID.String(), s.Status.String())
	}
	s.Status = StatusCancelled
	s.UpdatedAt = now
	return s, nil
}
