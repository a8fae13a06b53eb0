package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SponsorshipStatus is the lifecycle state of a sponsorship.
type SponsorshipStatus string

const (
	StatusPendingPayment SponsorshipStatus = "PENDING_PAYMENT"
	StatusActive         SponsorshipStatus = "ACTIVE"
	StatusCompleted      SponsorshipStatus = "COMPLETED"
	StatusExpired        SponsorshipStatus = "EXPIRED"
	StatusCancelled      SponsorshipStatus = "CANCELLED"
)

// IsTerminal reports whether no further transition may leave s.
func (s SponsorshipStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

// AcceptsPayments reports whether a payment may still be applied. COMPLETED does: a
// sponsorship paid through its end date can still have unpaid months before it.
func (s SponsorshipStatus) AcceptsPayments() bool {
	switch s {
	case StatusPendingPayment, StatusActive, StatusCompleted:
		return true
	}
	return false
}

func (s SponsorshipStatus) String() string {
	return string(s)
}

// Sponsorship is a donor's commitment to fund a student at a fixed monthly rate.
// StartDate and EndDate are always month aligned.
type Sponsorship struct {
	ID               uuid.UUID         `json:"id" db:"id"`
	DonorRef         string            `json:"donor_ref" db:"donor_ref"`
	StudentRef       string            `json:"student_ref" db:"student_ref"`
	MonthlyAmount    decimal.Decimal   `json:"monthly_amount" db:"monthly_amount"`
	StartDate        time.Time         `json:"start_date" db:"start_date"`
	EndDate          time.Time         `json:"end_date" db:"end_date"`
	Status           SponsorshipStatus `json:"status" db:"status"`
	PaidUpTo         *time.Time        `json:"paid_up_to,omitempty" db:"paid_up_to"`
	TotalPaidAmount  decimal.Decimal   `json:"total_paid_amount" db:"total_paid_amount"`
	TotalMonths      int               `json:"total_months" db:"total_months"`
	LastPaymentDate  *time.Time        `json:"last_payment_date,omitempty" db:"last_payment_date"`
	SponsorStartDate time.Time         `json:"sponsor_start_date" db:"sponsor_start_date"`
	Version          int64             `json:"version" db:"version"`
	CreatedAt        time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at" db:"updated_at"`
}

// Period returns the sponsorship's committed coverage.
func (s *Sponsorship) Period() Period {
	return Period{Start: s.StartDate, End: s.EndDate}
}

// CommittedMonths is the number of months between StartDate and EndDate inclusive.
func (s *Sponsorship) CommittedMonths() int {
	return s.Period().Months()
}

// DTOs for requests and responses

type CreateSponsorshipRequest struct {
	DonorRef      string          `json:"donor_ref" validate:"required,max=64"`
	StudentRef    string          `json:"student_ref" validate:"required,max=64"`
	MonthlyAmount decimal.Decimal `json:"monthly_amount" validate:"decimal_gt=0"`
	StartDate     string          `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate       string          `json:"end_date" validate:"required,datetime=2006-01-02"`
}

// SponsorshipSummary is the derived view of a sponsorship as of a given day.
type SponsorshipSummary struct {
	Sponsorship       *Sponsorship      `json:"sponsorship"`
	Status            SponsorshipStatus `json:"status"`
	AsOf              time.Time         `json:"as_of"`
	Overdue           bool              `json:"overdue"`
	PaymentCount      int               `json:"payment_count"`
	MonthsPaid        int               `json:"months_paid"`
	CommittedMonths   int               `json:"committed_months"`
	OutstandingAmount decimal.Decimal   `json:"outstanding_amount"`
	NextDuePeriod     *Period           `json:"next_due_period,omitempty"`
}
