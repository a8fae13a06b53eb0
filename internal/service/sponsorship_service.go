package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/segyhp/sponsorship-ledger/internal/config"
	"github.com/segyhp/sponsorship-ledger/internal/domain"
	"github.com/segyhp/sponsorship-ledger/internal/events"
	"github.com/segyhp/sponsorship-ledger/internal/ledger"
	"github.com/segyhp/sponsorship-ledger/internal/metrics"
	"github.com/segyhp/sponsorship-ledger/internal/repository"
	"github.com/segyhp/sponsorship-ledger/pkg/clock"
	apperrors "github.com/segyhp/sponsorship-ledger/pkg/errors"
	"github.com/segyhp/sponsorship-ledger/pkg/utils"
)

type SponsorshipService struct {
	sponsorshipRepo repository.SponsorshipRepository
	paymentRepo     repository.PaymentRepository
	transactor      repository.Transactor
	publisher       events.Publisher
	clock           clock.Clock
	metrics         *metrics.Metrics
	logger          *zap.Logger
	location        *time.Location
	graceDays       int
}

func NewSponsorshipService(
	sponsorshipRepo repository.SponsorshipRepository,
	paymentRepo repository.PaymentRepository,
	transactor repository.Transactor,
	publisher events.Publisher,
	clk clock.Clock,
	cfg *config.Config,
	m *metrics.Metrics,
	logger *zap.Logger,
) *SponsorshipService {
	return &SponsorshipService{
		sponsorshipRepo: sponsorshipRepo,
		paymentRepo:     paymentRepo,
		transactor:      transactor,
		publisher:       publisher,
		clock:           clk,
		metrics:         m,
		logger:          logger,
		location:        cfg.Location(),
		graceDays:       cfg.Business.GracePeriodDays,
	}
}

// now returns the clock time in the business timezone so that DateOf yields the local civil day.
func (s *SponsorshipService) now() time.Time {
	return s.clock.Now().In(s.location)
}

// CreateSponsorship opens a PENDING_PAYMENT sponsorship over the month-aligned range of request.
func (s *SponsorshipService) CreateSponsorship(ctx context.Context, request *domain.CreateSponsorshipRequest) (*domain.Sponsorship, error) {
	start, err := time.Parse(dateLayout, request.StartDate)
	if err != nil {
		return nil, apperrors.NewBusinessError(apperrors.ErrCodeInvalidRange, "start_date must be YYYY-MM-DD", err)
	}
	end, err := time.Parse(dateLayout, request.EndDate)
	if err != nil {
		return nil, apperrors.NewBusinessError(apperrors.ErrCodeInvalidRange, "end_date must be YYYY-MM-DD", err)
	}

	period, err := domain.NormalizePeriod(start, end)
	if err != nil {
		return nil, err
	}

	if !request.MonthlyAmount.IsPositive() {
		return nil, apperrors.WrapNonPositiveAmount(request.MonthlyAmount)
	}
	if !request.MonthlyAmount.Equal(request.MonthlyAmount.Round(ledger.CurrencyScale)) {
		return nil, apperrors.WrapAmountPrecision(request.MonthlyAmount, ledger.CurrencyScale)
	}

	now := s.now()
	sponsorship := &domain.Sponsorship{
		ID:               uuid.New(),
		DonorRef:         request.DonorRef,
		StudentRef:       request.StudentRef,
		MonthlyAmount:    request.MonthlyAmount,
		StartDate:        period.Start,
		EndDate:          period.End,
		Status:           domain.StatusPendingPayment,
		TotalPaidAmount:  decimal.Zero,
		SponsorStartDate: utils.DateOf(now),
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.sponsorshipRepo.Create(ctx, sponsorship); err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}

	s.logger.Info("sponsorship created",
		zap.String("sponsorship_id", sponsorship.ID.String()),
		zap.String("donor_ref", sponsorship.DonorRef),
		zap.Time("start_date", sponsorship.StartDate),
		zap.Time("end_date", sponsorship.EndDate),
	)

	return sponsorship, nil
}

// ApplyPayment records proposal against the sponsorship in a single transaction and
// publishes payment.applied once the transaction has committed.
func (s *SponsorshipService) ApplyPayment(ctx context.Context, sponsorshipID uuid.UUID, proposal domain.ProposedPayment) (*domain.PaymentApplied, error) {
	var result *ledger.Result

	err := s.transactor.WithinTx(ctx, func(ctx context.Context) error {
		sponsorship, err := s.sponsorshipRepo.GetByIDForUpdate(ctx, sponsorshipID)
		if err != nil {
			return translateLoadError(sponsorshipID, err)
		}

		existing, err := s.paymentRepo.GetBySponsorshipID(ctx, sponsorshipID)
		if err != nil {
			return apperrors.WrapDatabaseError(err)
		}

		result, err = ledger.Apply(*sponsorship, existing, proposal, s.now(), s.graceDays)
		if err != nil {
			return err
		}

		if err := s.paymentRepo.Create(ctx, &result.Payment); err != nil {
			return translateWriteError(err)
		}

		if err := s.sponsorshipRepo.Update(ctx, &result.Sponsorship); err != nil {
			return translateWriteError(err)
		}
		return nil
	})
	if err != nil {
		s.metrics.IncrementRejected(apperrors.Code(err))
		s.logger.Warn("payment rejected",
			zap.String("sponsorship_id", sponsorshipID.String()),
			zap.Time("start_date", proposal.StartDate),
			zap.Time("end_date", proposal.EndDate),
			zap.String("amount", proposal.Amount.String()),
			zap.Error(err),
		)
		return nil, err
	}

	s.metrics.PaymentsApplied.Inc()
	s.logger.Info("payment applied",
		zap.String("sponsorship_id", sponsorshipID.String()),
		zap.String("payment_id", result.Payment.ID.String()),
		zap.String("amount", result.Payment.Amount.String()),
		zap.String("previous_status", result.PreviousStatus.String()),
		zap.String("status", result.Sponsorship.Status.String()),
	)

	s.publish(ctx, domain.NewPaymentAppliedEvent(&result.Sponsorship, &result.Payment, result.Payment.CreatedAt))

	return &domain.PaymentApplied{
		Payment:        &result.Payment,
		Sponsorship:    &result.Sponsorship,
		PreviousStatus: result.PreviousStatus,
	}, nil
}

// DeriveStatus returns the status sponsorship should have on asOf's civil day.
func (s *SponsorshipService) DeriveStatus(sponsorship domain.Sponsorship, asOf time.Time) domain.SponsorshipStatus {
	return domain.DeriveStatus(sponsorship, utils.DateOf(asOf.In(s.location)), s.graceDays)
}

// CancelSponsorship moves a non-terminal sponsorship to CANCELLED.
func (s *SponsorshipService) CancelSponsorship(ctx context.Context, sponsorshipID uuid.UUID) (*domain.Sponsorship, error) {
	var cancelled domain.Sponsorship

	err := s.transactor.WithinTx(ctx, func(ctx context.Context) error {
		sponsorship, err := s.sponsorshipRepo.GetByIDForUpdate(ctx, sponsorshipID)
		if err != nil {
			return translateLoadError(sponsorshipID, err)
		}

		cancelled, err = domain.Cancel(*sponsorship, s.now())
		if err != nil {
			return err
		}

		if err := s.sponsorshipRepo.Update(ctx, &cancelled); err != nil {
			return translateWriteError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("sponsorship cancelled", zap.String("sponsorship_id", sponsorshipID.String()))
	s.publish(ctx, domain.NewSponsorshipEvent(domain.EventSponsorshipCancelled, &cancelled, cancelled.UpdatedAt))

	return &cancelled, nil
}

// GetSponsorship returns the stored sponsorship.
func (s *SponsorshipService) GetSponsorship(ctx context.Context, sponsorshipID uuid.UUID) (*domain.Sponsorship, error) {
	sponsorship, err := s.sponsorshipRepo.GetByID(ctx, sponsorshipID)
	if err != nil {
		return nil, translateLoadError(sponsorshipID, err)
	}
	return sponsorship, nil
}

// ListPayments returns the payments of a sponsorship ordered by period start.
func (s *SponsorshipService) ListPayments(ctx context.Context, sponsorshipID uuid.UUID) ([]*domain.Payment, error) {
	if _, err := s.GetSponsorship(ctx, sponsorshipID); err != nil {
		return nil, err
	}

	payments, err := s.paymentRepo.GetBySponsorshipID(ctx, sponsorshipID)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}
	return payments, nil
}

// GetSummary computes the read-only view of a sponsorship as of today.
func (s *SponsorshipService) GetSummary(ctx context.Context, sponsorshipID uuid.UUID) (*domain.SponsorshipSummary, error) {
	sponsorship, err := s.GetSponsorship(ctx, sponsorshipID)
	if err != nil {
		return nil, err
	}

	payments, err := s.paymentRepo.GetBySponsorshipID(ctx, sponsorshipID)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}

	today := utils.DateOf(s.now())
	return buildSummary(sponsorship, payments, today, s.graceDays), nil
}

func buildSummary(sponsorship *domain.Sponsorship, payments []*domain.Payment, today time.Time, graceDays int) *domain.SponsorshipSummary {
	derived := *sponsorship
	derived.Status = domain.DeriveStatus(*sponsorship, today, graceDays)

	monthsPaid := 0
	for _, p := range payments {
		monthsPaid += p.TotalMonths
	}

	committed := sponsorship.CommittedMonths()
	outstanding := utils.CalculatePeriodAmount(sponsorship.MonthlyAmount, committed, ledger.CurrencyScale).
		Sub(sponsorship.TotalPaidAmount)
	if outstanding.IsNegative() {
		outstanding = decimal.Zero
	}

	return &domain.SponsorshipSummary{
		Sponsorship:       sponsorship,
		Status:            derived.Status,
		AsOf:              today,
		Overdue:           domain.IsOverdue(derived, today),
		PaymentCount:      len(payments),
		MonthsPaid:        monthsPaid,
		CommittedMonths:   committed,
		OutstandingAmount: outstanding,
		NextDuePeriod:     nextUnpaidMonth(sponsorship, payments),
	}
}

// nextUnpaidMonth returns the earliest month of the coverage no payment covers, or nil.
func nextUnpaidMonth(sponsorship *domain.Sponsorship, payments []*domain.Payment) *domain.Period {
	for month := utils.StartOfMonth(sponsorship.StartDate); !month.After(sponsorship.EndDate); month = month.AddDate(0, 1, 0) {
		candidate := domain.Period{Start: month, End: utils.EndOfMonth(month)}
		if _, covered := ledger.FindOverlap(payments, candidate); !covered {
			return &candidate
		}
	}
	return nil
}

func (s *SponsorshipService) publish(ctx context.Context, event domain.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("publish event",
			zap.String("type", event.Type),
			zap.String("sponsorship_id", event.SponsorshipID.String()),
			zap.Error(apperrors.WrapEventPublishError(err)),
		)
	}
}

const dateLayout = "2006-01-02"

// translateLoadError maps a repository read failure to its business error.
func translateLoadError(sponsorshipID uuid.UUID, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.WrapSponsorshipNotFound(sponsorshipID.String())
	}
	return translateWriteError(err)
}

// translateWriteError keeps business errors raised by repositories and wraps everything else.
func translateWriteError(err error) error {
	var be *apperrors.BusinessError
	if errors.As(err, &be) {
		return err
	}
	return apperrors.WrapDatabaseError(err)
}
