package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/segyhp/sponsorship-ledger/internal/domain"
	apperrors "github.com/segyhp/sponsorship-ledger/pkg/errors"
)

const (
	pqUniqueViolation    = "23505"
	pqExclusionViolation = "23P01"
)

type paymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	query := `
		INSERT INTO payments (id, sponsorship_id, payment_date, start_date, end_date, amount,
			paid_up_to, total_months, status, transaction_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := executorFrom(ctx, r.db).ExecContext(ctx, query,
		p.ID,
		p.SponsorshipID,
		p.PaymentDate,
		p.StartDate,
		p.EndDate,
		p.Amount,
		p.PaidUpTo,
		p.TotalMonths,
		p.Status,
		p.TransactionID,
		p.CreatedAt,
	)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return apperrors.WrapDuplicateTransaction(p.TransactionID)
		case pqExclusionViolation:
			// The ledger checks overlaps before insert; this only fires on a lost race.
			return apperrors.WrapOverlappingPeriod("", p.StartDate, p.EndDate)
		}
	}

	return err
}

func (r *paymentRepository) GetBySponsorshipID(ctx context.Context, sponsorshipID uuid.UUID) ([]*domain.Payment, error) {
	query := `
		SELECT id, sponsorship_id, payment_date, start_date, end_date, amount,
			paid_up_to, total_months, status, transaction_id, created_at
		FROM payments
		WHERE sponsorship_id = $1
		ORDER BY start_date
	`

	payments := []*domain.Payment{}
	if err := executorFrom(ctx, r.db).SelectContext(ctx, &payments, query, sponsorshipID); err != nil {
		return nil, err
	}

	return payments, nil
}
