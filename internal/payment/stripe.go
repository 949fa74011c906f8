package payment

import (
	"context"
	"net/url"

	"github.com/brightnest/booking-payments/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/customer"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"github.com/stripe/stripe-go/v82/paymentmethod"
	"github.com/stripe/stripe-go/v82/webhook"
)

type StripePaymentProvider struct {
	currency      string
	webhookSecret string
	successUrl    string
	failureUrl    string
}

func NewStripePaymentProvider(currency, webhookSecret, successUrl, failureUrl string) *StripePaymentProvider {
	return &StripePaymentProvider{
		currency:      currency,
		webhookSecret: webhookSecret,
		successUrl:    successUrl,
		failureUrl:    failureUrl,
	}
}

// ToCents converts a decimal amount in major units to the smallest currency unit.
func ToCents(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// FromCents is the inverse of ToCents.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

func (s *StripePaymentProvider) CreateCheckoutSession(
	ctx context.Context,
	input domain.CheckoutSessionInput) (*stripe.CheckoutSession, error) {

	metadata := domain.PaymentMetadata(input.PaymentID, input.BookingID, input.UserID)

	successUrl, failureUrl := s.successUrl, s.failureUrl
	if input.ReturnURL != "" {
		successUrl = withQuery(input.ReturnURL, "payment", "success")
		failureUrl = withQuery(input.ReturnURL, "payment", "cancelled")
	}

	params := &stripe.CheckoutSessionParams{
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(s.currency),
					UnitAmount: stripe.Int64(ToCents(input.Amount)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(input.ProductName),
						Description: stripe.String(input.Description),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(successUrl),
		CancelURL:  stripe.String(failureUrl),
		Metadata:   metadata,
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: metadata,
		},
		ClientReferenceID: stripe.String(input.UserID.String()),
	}

	if input.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(input.CustomerEmail)
	}

	params.Context = ctx

	return session.New(params)
}

func (s *StripePaymentProvider) CreateCustomer(
	ctx context.Context,
	identity domain.Identity,
	name string) (*stripe.Customer, error) {

	params := &stripe.CustomerParams{
		Email: stripe.String(identity.Email),
		Metadata: map[string]string{
			domain.MetadataUserID: identity.UserID.String(),
		},
	}

	if name != "" {
		params.Name = stripe.String(name)
	}

	params.Context = ctx

	return customer.New(params)
}

func (s *StripePaymentProvider) AttachPaymentMethod(ctx context.Context, paymentMethodId, customerId string) error {
	params := &stripe.PaymentMethodAttachParams{
		Customer: stripe.String(customerId),
	}
	params.Context = ctx

	_, err := paymentmethod.Attach(paymentMethodId, params)
	return err
}

func (s *StripePaymentProvider) DetachPaymentMethod(ctx context.Context, paymentMethodId string) error {
	params := &stripe.PaymentMethodDetachParams{}
	params.Context = ctx

	_, err := paymentmethod.Detach(paymentMethodId, params)
	return err
}

func (s *StripePaymentProvider) ChargeOffSession(
	ctx context.Context,
	input domain.OffSessionChargeInput) (*stripe.PaymentIntent, error) {

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(ToCents(input.Amount)),
		Currency:      stripe.String(s.currency),
		Customer:      stripe.String(input.CustomerID),
		PaymentMethod: stripe.String(input.PaymentMethodID),
		Confirm:       stripe.Bool(true),
		OffSession:    stripe.Bool(true),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
		Metadata: domain.PaymentMetadata(input.PaymentID, input.BookingID, input.UserID),
	}
	params.Context = ctx

	return paymentintent.New(params)
}

func (s *StripePaymentProvider) GetReceiptURL(ctx context.Context, intentId string) (string, error) {
	params := &stripe.PaymentIntentParams{}
	params.AddExpand("latest_charge")
	params.Context = ctx

	intent, err := paymentintent.Get(intentId, params)
	if err != nil {
		return "", err
	}

	if intent.LatestCharge == nil {
		return "", nil
	}

	return intent.LatestCharge.ReceiptURL, nil
}

func (s *StripePaymentProvider) ConstructEvent(payload []byte, signature string) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(
		payload,
		signature,
		s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
}

func withQuery(rawUrl, key, value string) string {
	u, err := url.Parse(rawUrl)
	if err != nil {
		return rawUrl
	}

	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()

	return u.String()
}
