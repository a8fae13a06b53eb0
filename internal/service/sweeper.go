package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/segyhp/sponsorship-ledger/internal/config"
	"github.com/segyhp/sponsorship-ledger/internal/domain"
	"github.com/segyhp/sponsorship-ledger/internal/events"
	"github.com/segyhp/sponsorship-ledger/internal/metrics"
	"github.com/segyhp/sponsorship-ledger/internal/repository"
	"github.com/segyhp/sponsorship-ledger/pkg/clock"
	apperrors "github.com/segyhp/sponsorship-ledger/pkg/errors"
	"github.com/segyhp/sponsorship-ledger/pkg/utils"
)

// SweepFailure records a sponsorship the sweep could not transition.
type SweepFailure struct {
	SponsorshipID uuid.UUID
	Err           error
}

// SweepReport summarizes one sweep run. Expired and Reminders hold the events that were emitted.
type SweepReport struct {
	AsOf      time.Time
	Expired   []domain.Event
	Reminders []domain.Event
	Failed    []SweepFailure
}

// Sweeper expires sponsorships that stayed unpaid past the grace period and
// reminds donors the day before that happens.
type Sweeper struct {
	sponsorshipRepo  repository.SponsorshipRepository
	transactor       repository.Transactor
	publisher        events.Publisher
	clock            clock.Clock
	metrics          *metrics.Metrics
	logger           *zap.Logger
	location         *time.Location
	graceDays        int
	workers          int
	remindersEnabled bool
}

func NewSweeper(
	sponsorshipRepo repository.SponsorshipRepository,
	transactor repository.Transactor,
	publisher events.Publisher,
	clk clock.Clock,
	cfg *config.Config,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Sweeper {
	workers := cfg.Sweeper.Workers
	if workers <= 0 {
		workers = 1
	}
	return &Sweeper{
		sponsorshipRepo:  sponsorshipRepo,
		transactor:       transactor,
		publisher:        publisher,
		clock:            clk,
		metrics:          m,
		logger:           logger,
		location:         cfg.Location(),
		graceDays:        cfg.Business.GracePeriodDays,
		workers:          workers,
		remindersEnabled: cfg.Business.RemindersEnabled,
	}
}

// SweepExpirations expires every PENDING_PAYMENT sponsorship created more than the grace
// period before asOf, then emits due-soon reminders. Running it twice for the same asOf
// expires nothing the second time. Per-sponsorship failures are reported, not returned.
func (w *Sweeper) SweepExpirations(ctx context.Context, asOf time.Time) (*SweepReport, error) {
	start := time.Now()
	defer w.metrics.ObserveSweep(start)

	today := utils.DateOf(asOf.In(w.location))
	cutoff := today.AddDate(0, 0, -w.graceDays)

	candidates, err := w.sponsorshipRepo.ListPendingCreatedBefore(ctx, cutoff)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}

	report := &SweepReport{AsOf: today}
	var mu sync.Mutex

	g := new(errgroup.Group)
	g.SetLimit(w.workers)
	for _, candidate := range candidates {
		id := candidate.ID
		g.Go(func() error {
			event, err := w.expireOne(ctx, id, today)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				report.Failed = append(report.Failed, SweepFailure{SponsorshipID: id, Err: err})
			case event != nil:
				report.Expired = append(report.Expired, *event)
			}
			return nil
		})
	}
	_ = g.Wait()

	if w.remindersEnabled {
		w.remind(ctx, today, report)
	}

	sortEvents(report.Expired)
	sortEvents(report.Reminders)
	sort.Slice(report.Failed, func(i, j int) bool {
		return report.Failed[i].SponsorshipID.String() < report.Failed[j].SponsorshipID.String()
	})

	w.metrics.SponsorshipsExpired.Add(float64(len(report.Expired)))
	w.metrics.RemindersEmitted.Add(float64(len(report.Reminders)))
	w.metrics.SweepFailures.Add(float64(len(report.Failed)))

	w.logger.Info("expiry sweep finished",
		zap.Time("as_of", today),
		zap.Int("candidates", len(candidates)),
		zap.Int("expired", len(report.Expired)),
		zap.Int("reminders", len(report.Reminders)),
		zap.Int("failed", len(report.Failed)),
		zap.Duration("duration", time.Since(start)),
	)

	return report, nil
}

// expireOne re-reads the sponsorship under a row lock and expires it if the status
// deriver still says so. A nil event means there was nothing to do.
func (w *Sweeper) expireOne(ctx context.Context, id uuid.UUID, today time.Time) (*domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var expired *domain.Sponsorship
	err := w.transactor.WithinTx(ctx, func(ctx context.Context) error {
		sponsorship, err := w.sponsorshipRepo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return translateLoadError(id, err)
		}

		// Rows expired or paid since the listing are left alone.
		if sponsorship.Status != domain.StatusPendingPayment || !domain.ShouldExpire(*sponsorship, today, w.graceDays) {
			return nil
		}

		sponsorship.Status = domain.StatusExpired
		sponsorship.UpdatedAt = w.clock.Now()
		if err := w.sponsorshipRepo.Update(ctx, sponsorship); err != nil {
			return translateWriteError(err)
		}
		expired = sponsorship
		return nil
	})
	if err != nil {
		w.logger.Error("expire sponsorship",
			zap.String("sponsorship_id", id.String()),
			zap.Error(err),
		)
		return nil, err
	}
	if expired == nil {
		return nil, nil
	}

	event := domain.NewSponsorshipEvent(domain.EventSponsorshipExpired, expired, expired.UpdatedAt)
	w.publish(ctx, event)
	return &event, nil
}

// remind emits payment.due_soon for sponsorships on the last day of their grace period.
func (w *Sweeper) remind(ctx context.Context, today time.Time, report *SweepReport) {
	if w.graceDays < 1 {
		return
	}

	day := today.AddDate(0, 0, -(w.graceDays - 1))
	pending, err := w.sponsorshipRepo.ListPendingCreatedOn(ctx, day)
	if err != nil {
		w.logger.Error("list sponsorships due soon", zap.Time("sponsor_start_date", day), zap.Error(err))
		return
	}

	now := w.clock.Now()
	for _, sponsorship := range pending {
		if !domain.IsPaymentDueSoon(*sponsorship, today, w.graceDays) {
			continue
		}
		event := domain.NewSponsorshipEvent(domain.EventPaymentDueSoon, sponsorship, now)
		w.publish(ctx, event)
		report.Reminders = append(report.Reminders, event)
	}
}

func (w *Sweeper) publish(ctx context.Context, event domain.Event) {
	if err := w.publisher.Publish(ctx, event); err != nil {
		w.logger.Error("publish event",
			zap.String("type", event.Type),
			zap.String("sponsorship_id", event.SponsorshipID.String()),
			zap.Error(apperrors.WrapEventPublishError(err)),
		)
	}
}

func sortEvents(list []domain.Event) {
	sort.Slice(list, func(i, j int) bool {
		return list[i].SponsorshipID.String() < list[j].SponsorshipID.String()
	})
}
