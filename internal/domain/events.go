package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types published to the notification collaborator.
const (
	EventPaymentApplied       = "payment.applied"
	EventSponsorshipExpired   = "sponsorship.expired"
	EventPaymentDueSoon       = "payment.due_soon"
	EventSponsorshipCancelled = "sponsorship.cancelled"
)

// Event is a domain event envelope. Fields that do not apply to Type are left zero.
type Event struct {
	ID            uuid.UUID         `json:"id"`
	Type          string            `json:"type"`
	SponsorshipID uuid.UUID         `json:"sponsorship_id"`
	DonorRef      string            `json:"donor_ref,omitempty"`
	StudentRef    string            `json:"student_ref,omitempty"`
	PaymentID     *uuid.UUID        `json:"payment_id,omitempty"`
	Amount        *decimal.Decimal  `json:"amount,omitempty"`
	Status        SponsorshipStatus `json:"status"`
	OccurredAt    time.Time         `json:"occurred_at"`
}

// NewPaymentAppliedEvent builds the event emitted after a payment is committed.
func NewPaymentAppliedEvent(s *Sponsorship, p *Payment, at time.Time) Event {
	paymentID := p.ID
	amount := p.Amount
	return Event{
		ID:            uuid.New(),
		Type:          EventPaymentApplied,
		SponsorshipID: s.ID,
		DonorRef:      s.DonorRef,
		StudentRef:    s.StudentRef,
		PaymentID:     &paymentID,
		Amount:        &amount,
		Status:        s.Status,
		OccurredAt:    at,
	}
}

// NewSponsorshipEvent builds a status-only event (expired, due soon, cancelled).
func NewSponsorshipEvent(eventType string, s *Sponsorship, at time.Time) Event {
	return Event{
		ID:            uuid.New(),
		Type:          eventType,
		SponsorshipID: s.ID,
		DonorRef:      s.DonorRef,
		StudentRef:    s.StudentRef,
		Status:        s.Status,
		OccurredAt:    at,
	}
}
