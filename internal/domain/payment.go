package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	PaymentStatusCompleted = "COMPLETED"
)

// Payment covers one month-aligned sub-period of a sponsorship. Payments are
// append-only; corrections are new payments, never edits.
type Payment struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	SponsorshipID uuid.UUID       `json:"sponsorship_id" db:"sponsorship_id"`
	PaymentDate   time.Time       `json:"payment_date" db:"payment_date"`
	StartDate     time.Time       `json:"start_date" db:"start_date"`
	EndDate       time.Time       `json:"end_date" db:"end_date"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	PaidUpTo      time.Time       `json:"paid_up_to" db:"paid_up_to"`
	TotalMonths   int             `json:"total_months" db:"total_months"`
	Status        string          `json:"status" db:"status"`
	TransactionID string          `json:"transaction_id" db:"transaction_id"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// Period returns the coverage of the payment.
func (p *Payment) Period() Period {
	return Period{Start: p.StartDate, End: p.EndDate}
}

// ProposedPayment is a payment request before validation. Dates need not be month aligned.
type ProposedPayment struct {
	StartDate     time.Time
	EndDate       time.Time
	Amount        decimal.Decimal
	TransactionID string
}

type MakePaymentRequest struct {
	StartDate     string          `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate       string          `json:"end_date" validate:"required,datetime=2006-01-02"`
	Amount        decimal.Decimal `json:"amount"`
	TransactionID string          `json:"transaction_id" validate:"omitempty,max=128"`
}

// PaymentApplied is the result of a successful ApplyPayment.
type PaymentApplied struct {
	Payment        *Payment          `json:"payment"`
	Sponsorship    *Sponsorship      `json:"sponsorship"`
	PreviousStatus SponsorshipStatus `json:"previous_status"`
}
