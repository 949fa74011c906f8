package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type PaymentMethod struct {
	ID                    uuid.UUID
	UserID                uuid.UUID
	StripePaymentMethodID *string
	Brand                 *string
	Last4                 *string
	ExpMonth              *int
	ExpYear               *int
	IsDefault             bool
	CreatedAt             time.Time
}

// HasGatewayToken reports whether the gateway knows this method and it can
// therefore be charged off-session.
func (m *PaymentMethod) HasGatewayToken() bool {
	return m.StripePaymentMethodID != nil && *m.StripePaymentMethodID != ""
}

type PaymentMethodRepository interface {
	GetByIdAndUserId(ctx context.Context, id, userId uuid.UUID) (*PaymentMethod, error)
	GetAllByUserId(ctx context.Context, userId uuid.UUID) ([]PaymentMethod, error)
	// Create stores the method, making it the default when it is the first
	// one the user has.
	Create(ctx context.Context, method *PaymentMethod) error
	SetDefault(ctx context.Context, id, userId uuid.UUID) error
	// Delete removes the method. When it was the default and others remain,
	// the oldest remaining method becomes the default.
	Delete(ctx context.Context, id, userId uuid.UUID) error
}
