package domain

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
)

// Metadata keys attached to every gateway session and intent. The webhook
// reconciler joins events back to local rows through them.
const (
	MetadataBookingID = "booking_id"
	MetadataPaymentID = "payment_id"
	MetadataUserID    = "user_id"
)

func PaymentMetadata(paymentId, bookingId, userId uuid.UUID) map[string]string {
	return map[string]string{
		MetadataBookingID: bookingId.String(),
		MetadataPaymentID: paymentId.String(),
		MetadataUserID:    userId.String(),
	}
}

type CheckoutSessionInput struct {
	PaymentID     uuid.UUID
	BookingID     uuid.UUID
	UserID        uuid.UUID
	Amount        decimal.Decimal
	ProductName   string
	Description   string
	CustomerEmail string
	ReturnURL     string
}

type OffSessionChargeInput struct {
	PaymentID       uuid.UUID
	BookingID       uuid.UUID
	UserID          uuid.UUID
	Amount          decimal.Decimal
	CustomerID      string
	PaymentMethodID string
}

type PaymentProvider interface {
	CreateCheckoutSession(ctx context.Context, input CheckoutSessionInput) (*stripe.CheckoutSession, error)
	CreateCustomer(ctx context.Context, identity Identity, name string) (*stripe.Customer, error)
	AttachPaymentMethod(ctx context.Context, paymentMethodId, customerId string) error
	DetachPaymentMethod(ctx context.Context, paymentMethodId string) error
	// ChargeOffSession creates and confirms an intent for a stored method
	// without the cardholder present.
	ChargeOffSession(ctx context.Context, input OffSessionChargeInput) (*stripe.PaymentIntent, error)
	// GetReceiptURL returns the receipt of the latest charge of an intent.
	GetReceiptURL(ctx context.Context, intentId string) (string, error)
	// ConstructEvent verifies the signature of a webhook payload.
	ConstructEvent(payload []byte, signature string) (stripe.Event, error)
}
