package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/segyhp/sponsorship-ledger/internal/config"
	"github.com/segyhp/sponsorship-ledger/internal/domain"
	"github.com/segyhp/sponsorship-ledger/internal/metrics"
	"github.com/segyhp/sponsorship-ledger/internal/mocks"
	"github.com/segyhp/sponsorship-ledger/pkg/clock"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time {
	return &t
}

func testConfig() *config.Config {
	return &config.Config{
		Scheduler: config.SchedulerConfig{Spec: "0 5 0 * * *", Timezone: "UTC"},
		Sweeper:   config.SweeperConfig{Workers: 4},
		Business: config.BusinessConfig{
			GracePeriodDays:  domain.DefaultGracePeriodDays,
			RemindersEnabled: true,
			EventBufferSize:  16,
		},
	}
}

type fixture struct {
	sponsorships *mocks.MockSponsorshipRepository
	payments     *mocks.MockPaymentRepository
	transactor   *mocks.MockTransactor
	publisher    *mocks.MockPublisher
	metrics      *metrics.Metrics
	service      *SponsorshipService
	sweeper      *Sweeper
}

func newFixture(now time.Time) *fixture {
	f := &fixture{
		sponsorships: &mocks.MockSponsorshipRepository{},
		payments:     &mocks.MockPaymentRepository{},
		transactor:   &mocks.MockTransactor{},
		publisher:    &mocks.MockPublisher{},
		metrics:      metrics.New(prometheus.NewRegistry()),
	}
	f.transactor.On("WithinTx", mock.Anything).Return(nil).Maybe()

	cfg := testConfig()
	clk := clock.NewFixed(now)
	f.service = NewSponsorshipService(f.sponsorships, f.payments, f.transactor, f.publisher, clk, cfg, f.metrics, zap.NewNop())
	f.sweeper = NewSweeper(f.sponsorships, f.transactor, f.publisher, clk, cfg, f.metrics, zap.NewNop())
	return f
}

// pendingSponsorship covers Jan..Jun 2024 at 100.00 a month and was created on sponsorStart.
func pendingSponsorship(sponsorStart time.Time) *domain.Sponsorship {
	return &domain.Sponsorship{
		ID:               uuid.New(),
		DonorRef:         "donor-1",
		StudentRef:       "student-1",
		MonthlyAmount:    decimal.RequireFromString("100.00"),
		StartDate:        date(2024, 1, 1),
		EndDate:          date(2024, 6, 30),
		Status:           domain.StatusPendingPayment,
		TotalPaidAmount:  decimal.Zero,
		SponsorStartDate: sponsorStart,
		Version:          1,
	}
}

// copyOf hands the service a fresh value, the way a repository read would.
func copyOf(s *domain.Sponsorship) *domain.Sponsorship {
	c := *s
	return &c
}

func eventOfType(eventType string) interface{} {
	return mock.MatchedBy(func(e domain.Event) bool { return e.Type == eventType })
}
