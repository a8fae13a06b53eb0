package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/segyhp/sponsorship-ledger/internal/domain"
)

type MockSponsorshipService struct {
	mock.Mock
}

func (m *MockSponsorshipService) CreateSponsorship(ctx context.Context, request *domain.CreateSponsorshipRequest) (*domain.Sponsorship, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Sponsorship), args.Error(1)
}

func (m *MockSponsorshipService) ApplyPayment(ctx context.Context, sponsorshipID uuid.UUID, proposal domain.ProposedPayment) (*domain.PaymentApplied, error) {
	args := m.Called(ctx, sponsorshipID, proposal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentApplied), args.Error(1)
}

func (m *MockSponsorshipService) CancelSponsorship(ctx context.Context, sponsorshipID uuid.UUID) (*domain.Sponsorship, error) {
	args := m.Called(ctx, sponsorshipID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Sponsorship), args.Error(1)
}

func (m *MockSponsorshipService) GetSummary(ctx context.Context, sponsorshipID uuid.UUID) (*domain.SponsorshipSummary, error) {
	args := m.Called(ctx, sponsorshipID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SponsorshipSummary), args.Error(1)
}

func (m *MockSponsorshipService) ListPayments(ctx context.Context, sponsorshipID uuid.UUID) ([]*domain.Payment, error) {
	args := m.Called(ctx, sponsorshipID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Payment), args.Error(1)
}

// NewMockSponsorshipService creates a new mock sponsorship service instance
func NewMockSponsorshipService() *MockSponsorshipService {
	return &MockSponsorshipService{}
}
