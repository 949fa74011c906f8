package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// GatewayCustomer links a local user to the customer object the gateway
// keeps for them. There is at most one per user.
type GatewayCustomer struct {
	UserID           uuid.UUID
	StripeCustomerID string
	CreatedAt        time.Time
}

type CustomerRepository interface {
	GetByUserId(ctx context.Context, userId uuid.UUID) (*GatewayCustomer, error)
	// Create returns ErrCustomerAlreadyLinked when another mapping for the
	// same user was stored first.
	Create(ctx context.Context, customer *GatewayCustomer) error
}
