package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/brightnest/booking-payments/internal/domain"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// MockPaymentProvider stands in for Stripe in integration tests. Gateway calls
// return the configured values while webhook signatures are still verified
// with the real algorithm, so tests can sign payloads with
// webhook.GenerateTestSignedPayload.
type MockPaymentProvider struct {
	mu sync.Mutex

	WebhookSecret   string
	CheckoutSession *stripe.CheckoutSession
	PaymentIntent   *stripe.PaymentIntent
	ReceiptURL      string
	Err             error

	customers         int
	CheckoutInputs    []domain.CheckoutSessionInput
	ChargeInputs      []domain.OffSessionChargeInput
	AttachedMethods   map[string]string
	DetachedMethodIDs []string
}

func NewMockPaymentProvider(webhookSecret string) *MockPaymentProvider {
	return &MockPaymentProvider{
		WebhookSecret:   webhookSecret,
		AttachedMethods: make(map[string]string),
	}
}

func (m *MockPaymentProvider) CreateCheckoutSession(
	ctx context.Context,
	input domain.CheckoutSessionInput) (*stripe.CheckoutSession, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	m.CheckoutInputs = append(m.CheckoutInputs, input)

	if m.Err != nil {
		return nil, m.Err
	}

	return m.CheckoutSession, nil
}

func (m *MockPaymentProvider) CreateCustomer(
	ctx context.Context,
	identity domain.Identity,
	name string) (*stripe.Customer, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	m.customers++

	return &stripe.Customer{
		ID:    fmt.Sprintf("cus_test_%d", m.customers),
		Email: identity.Email,
	}, nil
}

func (m *MockPaymentProvider) AttachPaymentMethod(ctx context.Context, paymentMethodId, customerId string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.AttachedMethods[paymentMethodId] = customerId
	return nil
}

func (m *MockPaymentProvider) DetachPaymentMethod(ctx context.Context, paymentMethodId string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DetachedMethodIDs = append(m.DetachedMethodIDs, paymentMethodId)
	return nil
}

func (m *MockPaymentProvider) ChargeOffSession(
	ctx context.Context,
	input domain.OffSessionChargeInput) (*stripe.PaymentIntent, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	m.ChargeInputs = append(m.ChargeInputs, input)

	if m.Err != nil {
		return nil, m.Err
	}

	return m.PaymentIntent, nil
}

func (m *MockPaymentProvider) GetReceiptURL(ctx context.Context, intentId string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.ReceiptURL, nil
}

func (m *MockPaymentProvider) ConstructEvent(payload []byte, signature string) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(
		payload,
		signature,
		m.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
}

// CustomersCreated reports how many gateway customers were created.
func (m *MockPaymentProvider) CustomersCreated() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.customers
}

// Reset drops the configured responses and everything recorded so far.
func (m *MockPaymentProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CheckoutSession = nil
	m.PaymentIntent = nil
	m.ReceiptURL = ""
	m.Err = nil
	m.customers = 0
	m.CheckoutInputs = nil
	m.ChargeInputs = nil
	m.AttachedMethods = make(map[string]string)
	m.DetachedMethodIDs = nil
}
