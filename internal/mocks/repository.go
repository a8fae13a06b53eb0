// Package mocks holds testify mocks of the repository, event and service interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/segyhp/sponsorship-ledger/internal/domain"
)

type MockSponsorshipRepository struct {
	mock.Mock
}

func (m *MockSponsorshipRepository) Create(ctx context.Context, sponsorship *domain.Sponsorship) error {
	args := m.Called(ctx, sponsorship)
	return args.Error(0)
}

func (m *MockSponsorshipRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Sponsorship, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Sponsorship), args.Error(1)
}

func (m *MockSponsorshipRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Sponsorship, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Sponsorship), args.Error(1)
}

func (m *MockSponsorshipRepository) Update(ctx context.Context, sponsorship *domain.Sponsorship) error {
	args := m.Called(ctx, sponsorship)
	if args.Error(0) == nil {
		sponsorship.Version++
	}
	return args.Error(0)
}

func (m *MockSponsorshipRepository) ListPendingCreatedBefore(ctx context.Context, cutoff time.Time) ([]*domain.Sponsorship, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Sponsorship), args.Error(1)
}

func (m *MockSponsorshipRepository) ListPendingCreatedOn(ctx context.Context, day time.Time) ([]*domain.Sponsorship, error) {
	args := m.Called(ctx, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Sponsorship), args.Error(1)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) GetBySponsorshipID(ctx context.Context, sponsorshipID uuid.UUID) ([]*domain.Payment, error) {
	args := m.Called(ctx, sponsorshipID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Payment), args.Error(1)
}

// MockTransactor runs fn directly unless the expectation returns an error.
type MockTransactor struct {
	mock.Mock
}

func (m *MockTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event domain.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
