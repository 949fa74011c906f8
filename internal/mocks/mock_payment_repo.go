package mocks

import (
	"context"

	"github.com/brightnest/booking-payments/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockPaymentRepo struct {
	mock.Mock
	domain.PaymentRepository
}

func (m *MockPaymentRepo) Create(ctx context.Context, payment *domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepo) CreateSettled(ctx context.Context, payment *domain.Payment, booking *domain.BookingUpdate) error {
	args := m.Called(ctx, payment, booking)
	return args.Error(0)
}

func (m *MockPaymentRepo) GetById(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepo) GetByIdAndUserId(ctx context.Context, id, userId uuid.UUID) (*domain.Payment, error) {
	args := m.Called(ctx, id, userId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepo) GetByIntentId(ctx context.Context, intentId string) (*domain.Payment, error) {
	args := m.Called(ctx, intentId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepo) GetLatestPendingByBookingId(ctx context.Context, bookingId uuid.UUID) (*domain.Payment, error) {
	args := m.Called(ctx, bookingId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepo) GetAllByUserId(ctx context.Context, userId uuid.UUID) ([]domain.Payment, error) {
	args := m.Called(ctx, userId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Payment), args.Error(1)
}

func (m *MockPaymentRepo) AttachSession(ctx context.Context, id uuid.UUID, sessionId string) error {
	args := m.Called(ctx, id, sessionId)
	return args.Error(0)
}

func (m *MockPaymentRepo) AttachIntent(ctx context.Context, id uuid.UUID, intentId string) error {
	args := m.Called(ctx, id, intentId)
	return args.Error(0)
}

func (m *MockPaymentRepo) Transition(
	ctx context.Context,
	id uuid.UUID,
	to domain.PaymentStatus,
	outcome domain.PaymentOutcome) (bool, error) {

	args := m.Called(ctx, id, to, outcome)
	return args.Bool(0), args.Error(1)
}

func (m *MockPaymentRepo) Settle(
	ctx context.Context,
	id uuid.UUID,
	to domain.PaymentStatus,
	outcome domain.PaymentOutcome,
	booking *domain.BookingUpdate) (bool, error) {

	args := m.Called(ctx, id, to, outcome, booking)
	return args.Bool(0), args.Error(1)
}
