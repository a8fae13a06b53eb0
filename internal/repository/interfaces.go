package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/segyhp/sponsorship-ledger/internal/domain"
)

// SponsorshipRepository defines the interface for sponsorship data operations
type SponsorshipRepository interface {
	// Create inserts a new sponsorship
	Create(ctx context.Context, sponsorship *domain.Sponsorship) error

	// GetByID retrieves a sponsorship by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Sponsorship, error)

	// GetByIDForUpdate retrieves a sponsorship and locks its row until the surrounding transaction ends
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Sponsorship, error)

	// Update persists sponsorship if its stored version still equals sponsorship.Version,
	// then increments sponsorship.Version. A stale version yields ErrConcurrentModification.
	Update(ctx context.Context, sponsorship *domain.Sponsorship) error

	// ListPendingCreatedBefore lists PENDING_PAYMENT sponsorships with sponsor_start_date < cutoff
	ListPendingCreatedBefore(ctx context.Context, cutoff time.Time) ([]*domain.Sponsorship, error)

	// ListPendingCreatedOn lists PENDING_PAYMENT sponsorships with sponsor_start_date = day
	ListPendingCreatedOn(ctx context.Context, day time.Time) ([]*domain.Sponsorship, error)
}

// PaymentRepository defines the interface for the append-only payment store
type PaymentRepository interface {
	// Create appends a payment record
	Create(ctx context.Context, payment *domain.Payment) error

	// GetBySponsorshipID retrieves all payments of a sponsorship ordered by period start
	GetBySponsorshipID(ctx context.Context, sponsorshipID uuid.UUID) ([]*domain.Payment, error)
}

// Transactor runs fn inside a single database transaction. Repositories called with the
// context passed to fn join that transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
