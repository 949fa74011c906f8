package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending             BookingStatus = "pending"
	BookingStatusPendingConfirmation BookingStatus = "pending_confirmation"
	BookingStatusConfirmed           BookingStatus = "confirmed"
	BookingStatusCompleted           BookingStatus = "completed"
	BookingStatusCancelled           BookingStatus = "cancelled"
)

type BookingPaymentStatus string

const (
	BookingPaymentPending BookingPaymentStatus = "pending"
	BookingPaymentPaid    BookingPaymentStatus = "paid"
	BookingPaymentFailed  BookingPaymentStatus = "failed"
)

type Booking struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	ServiceType   string
	Date          time.Time
	Status        BookingStatus
	PaymentStatus BookingPaymentStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// BookingUpdate mirrors a payment outcome on a booking. Status is only
// written when not nil. A booking whose payment_status is already paid is
// never moved away from it.
type BookingUpdate struct {
	BookingID     uuid.UUID
	PaymentStatus BookingPaymentStatus
	Status        *BookingStatus
}

func BookingPaidUpdate(bookingId uuid.UUID) *BookingUpdate {
	status := BookingStatusPendingConfirmation

	return &BookingUpdate{
		BookingID:     bookingId,
		PaymentStatus: BookingPaymentPaid,
		Status:        &status,
	}
}

func BookingFailedUpdate(bookingId uuid.UUID) *BookingUpdate {
	return &BookingUpdate{
		BookingID:     bookingId,
		PaymentStatus: BookingPaymentFailed,
	}
}

type BookingRepository interface {
	GetByIdAndUserId(ctx context.Context, id, userId uuid.UUID) (*Booking, error)
	Apply(ctx context.Context, update BookingUpdate) error
}
