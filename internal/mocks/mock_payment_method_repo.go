package mocks

import (
	"context"

	"github.com/brightnest/booking-payments/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockPaymentMethodRepo struct {
	mock.Mock
	domain.PaymentMethodRepository
}

func (m *MockPaymentMethodRepo) GetByIdAndUserId(ctx context.Context, id, userId uuid.UUID) (*domain.PaymentMethod, error) {
	args := m.Called(ctx, id, userId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentMethod), args.Error(1)
}

func (m *MockPaymentMethodRepo) GetAllByUserId(ctx context.Context, userId uuid.UUID) ([]domain.PaymentMethod, error) {
	args := m.Called(ctx, userId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PaymentMethod), args.Error(1)
}

func (m *MockPaymentMethodRepo) Create(ctx context.Context, method *domain.PaymentMethod) error {
	args := m.Called(ctx, method)
	return args.Error(0)
}

func (m *MockPaymentMethodRepo) SetDefault(ctx context.Context, id, userId uuid.UUID) error {
	args := m.Called(ctx, id, userId)
	return args.Error(0)
}

func (m *MockPaymentMethodRepo) Delete(ctx context.Context, id, userId uuid.UUID) error {
	args := m.Called(ctx, id, userId)
	return args.Error(0)
}
