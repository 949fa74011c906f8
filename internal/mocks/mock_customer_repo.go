package mocks

import (
	"context"

	"github.com/brightnest/booking-payments/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockCustomerRepo struct {
	mock.Mock
	domain.CustomerRepository
}

func (m *MockCustomerRepo) GetByUserId(ctx context.Context, userId uuid.UUID) (*domain.GatewayCustomer, error) {
	args := m.Called(ctx, userId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GatewayCustomer), args.Error(1)
}

func (m *MockCustomerRepo) Create(ctx context.Context, customer *domain.GatewayCustomer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

type MockProfileRepo struct {
	mock.Mock
	domain.ProfileRepository
}

func (m *MockProfileRepo) GetById(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Profile), args.Error(1)
}
