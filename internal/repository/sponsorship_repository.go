package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/segyhp/sponsorship-ledger/internal/domain"
	apperrors "github.com/segyhp/sponsorship-ledger/pkg/errors"
)

const sponsorshipColumns = `id, donor_ref, student_ref, monthly_amount, start_date, end_date, status,
	paid_up_to, total_paid_amount, total_months, last_payment_date, sponsor_start_date,
	version, created_at, updated_at`

type sponsorshipRepository struct {
	db *sqlx.DB
}

func NewSponsorshipRepository(db *sqlx.DB) SponsorshipRepository {
	return &sponsorshipRepository{db: db}
}

func (r *sponsorshipRepository) Create(ctx context.Context, s *domain.Sponsorship) error {
	query := `
		INSERT INTO sponsorships (` + sponsorshipColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := executorFrom(ctx, r.db).ExecContext(ctx, query,
		s.ID,
		s.DonorRef,
		s.StudentRef,
		s.MonthlyAmount,
		s.StartDate,
		s.EndDate,
		s.Status,
		s.PaidUpTo,
		s.TotalPaidAmount,
		s.TotalMonths,
		s.LastPaymentDate,
		s.SponsorStartDate,
		s.Version,
		s.CreatedAt,
		s.UpdatedAt,
	)

	return err
}

func (r *sponsorshipRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Sponsorship, error) {
	query := `SELECT ` + sponsorshipColumns + ` FROM sponsorships WHERE id = $1`

	var s domain.Sponsorship
	if err := executorFrom(ctx, r.db).GetContext(ctx, &s, query, id); err != nil {
		return nil, err
	}

	return &s, nil
}

func (r *sponsorshipRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Sponsorship, error) {
	query := `SELECT ` + sponsorshipColumns + ` FROM sponsorships WHERE id = $1 FOR UPDATE`

	var s domain.Sponsorship
	if err := executorFrom(ctx, r.db).GetContext(ctx, &s, query, id); err != nil {
		return nil, err
	}

	return &s, nil
}

func (r *sponsorshipRepository) Update(ctx context.Context, s *domain.Sponsorship) error {
	query := `
		UPDATE sponsorships
		SET start_date = $3, end_date = $4, status = $5, paid_up_to = $6, total_paid_amount = $7,
			total_months = $8, last_payment_date = $9, updated_at = $10, version = version + 1
		WHERE id = $1 AND version = $2
	`

	result, err := executorFrom(ctx, r.db).ExecContext(ctx, query,
		s.ID,
		s.Version,
		s.StartDate,
		s.EndDate,
		s.Status,
		s.PaidUpTo,
		s.TotalPaidAmount,
		s.TotalMonths,
		s.LastPaymentDate,
		s.UpdatedAt,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperrors.WrapConcurrentModification(s.ID.String())
	}

	s.Version++
	return nil
}

func (r *sponsorshipRepository) ListPendingCreatedBefore(ctx context.Context, cutoff time.Time) ([]*domain.Sponsorship, error) {
	query := `
		SELECT ` + sponsorshipColumns + `
		FROM sponsorships
		WHERE status = $1 AND sponsor_start_date < $2
		ORDER BY sponsor_start_date, id
	`

	var sponsorships []*domain.Sponsorship
	err := executorFrom(ctx, r.db).SelectContext(ctx, &sponsorships, query, domain.StatusPendingPayment, cutoff)
	if err != nil {
		return nil, err
	}

	return sponsorships, nil
}

func (r *sponsorshipRepository) ListPendingCreatedOn(ctx context.Context, day time.Time) ([]*domain.Sponsorship, error) {
	query := `
		SELECT ` + sponsorshipColumns + `
		FROM sponsorships
		WHERE status = $1 AND sponsor_start_date = $2
		ORDER BY id
	`

	var sponsorships []*domain.Sponsorship
	err := executorFrom(ctx, r.db).SelectContext(ctx, &sponsorships, query, domain.StatusPendingPayment, day)
	if err != nil {
		return nil, err
	}

	return sponsorships, nil
}
