package mocks

import (
	"context"

	"github.com/brightnest/booking-payments/internal/domain"
	"github.com/stretchr/testify/mock"
	"github.com/stripe/stripe-go/v82"
)

type MockPaymentProvider struct {
	mock.Mock
	domain.PaymentProvider
}

func (m *MockPaymentProvider) CreateCheckoutSession(
	ctx context.Context,
	input domain.CheckoutSessionInput) (*stripe.CheckoutSession, error) {

	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stripe.CheckoutSession), args.Error(1)
}

func (m *MockPaymentProvider) CreateCustomer(
	ctx context.Context,
	identity domain.Identity,
	name string) (*stripe.Customer, error) {

	args := m.Called(ctx, identity, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stripe.Customer), args.Error(1)
}

func (m *MockPaymentProvider) AttachPaymentMethod(ctx context.Context, paymentMethodId, customerId string) error {
	args := m.Called(ctx, paymentMethodId, customerId)
	return args.Error(0)
}

func (m *MockPaymentProvider) DetachPaymentMethod(ctx context.Context, paymentMethodId string) error {
	args := m.Called(ctx, paymentMethodId)
	return args.Error(0)
}

func (m *MockPaymentProvider) ChargeOffSession(
	ctx context.Context,
	input domain.OffSessionChargeInput) (*stripe.PaymentIntent, error) {

	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stripe.PaymentIntent), args.Error(1)
}

func (m *MockPaymentProvider) GetReceiptURL(ctx context.Context, intentId string) (string, error) {
	args := m.Called(ctx, intentId)
	return args.String(0), args.Error(1)
}

func (m *MockPaymentProvider) ConstructEvent(payload []byte, signature string) (stripe.Event, error) {
	args := m.Called(payload, signature)
	return args.Get(0).(stripe.Event), args.Error(1)
}
