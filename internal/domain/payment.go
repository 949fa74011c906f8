package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// DefaultPaymentMethod is the channel label written when the gateway
// confirms a hosted checkout.
const DefaultPaymentMethod = "credit_card"

// paymentTransitions lists, for every target status, the statuses a payment
// may be in for the transition to be applied.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPaid:     {PaymentStatusPending},
	PaymentStatusFailed:   {PaymentStatusPending},
	PaymentStatusRefunded: {PaymentStatusPaid},
}

// TransitionSources returns the statuses from which a payment may move to
// the given status. A status that can never be entered yields nil.
func TransitionSources(to PaymentStatus) []PaymentStatus {
	return paymentTransitions[to]
}

func (s PaymentStatus) CanTransitionTo(to PaymentStatus) bool {
	for _, from := range paymentTransitions[to] {
		if from == s {
			return true
		}
	}

	return false
}

func (s PaymentStatus) IsTerminal() bool {
	return s != PaymentStatusPending
}

type Payment struct {
	ID              uuid.UUID
	BookingID       uuid.UUID
	UserID          uuid.UUID
	Amount          decimal.Decimal
	Currency        string
	Status          PaymentStatus
	Method          *string
	MethodID        *uuid.UUID
	StripeSessionID *string
	StripeIntentID  *string
	InvoiceURL      *string
	ErrorMsg        *string
	Date            time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// PaymentOutcome carries the fields written alongside a status transition.
// Nil fields leave the stored value untouched.
type PaymentOutcome struct {
	IntentID   *string
	Method     *string
	InvoiceURL *string
	ErrorMsg   *string
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *Payment) error
	// CreateSettled inserts a payment that is already in a terminal status and
	// applies the booking update in the same transaction. It is used when the
	// gateway reports an outcome for an attempt that has no local record.
	CreateSettled(ctx context.Context, payment *Payment, booking *BookingUpdate) error
	GetById(ctx context.Context, id uuid.UUID) (*Payment, error)
	GetByIdAndUserId(ctx context.Context, id, userId uuid.UUID) (*Payment, error)
	GetByIntentId(ctx context.Context, intentId string) (*Payment, error)
	GetLatestPendingByBookingId(ctx context.Context, bookingId uuid.UUID) (*Payment, error)
	GetAllByUserId(ctx context.Context, userId uuid.UUID) ([]Payment, error)
	AttachSession(ctx context.Context, id uuid.UUID, sessionId string) error
	AttachIntent(ctx context.Context, id uuid.UUID, intentId string) error
	// Transition moves the payment to the given status only when its current
	// status allows it. The returned bool reports whether a row was changed.
	Transition(ctx context.Context, id uuid.UUID, to PaymentStatus, outcome PaymentOutcome) (bool, error)
	// Settle applies a gateway-confirmed transition to the payment and, when
	// booking is not nil, mirrors it on the booking within one transaction.
	// A rejected transition only touches the booking when the payment already
	// holds the target status.
	Settle(ctx context.Context, id uuid.UUID, to PaymentStatus, outcome PaymentOutcome, booking *BookingUpdate) (bool, error)
}
