package mocks

import (
	"context"

	"github.com/brightnest/booking-payments/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockBookingRepo struct {
	mock.Mock
	domain.BookingRepository
}

func (m *MockBookingRepo) GetByIdAndUserId(ctx context.Context, id, userId uuid.UUID) (*domain.Booking, error) {
	args := m.Called(ctx, id, userId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepo) Apply(ctx context.Context, update domain.BookingUpdate) error {
	args := m.Called(ctx, update)
	return args.Error(0)
}
