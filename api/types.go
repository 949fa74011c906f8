package api

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/shopspring/decimal"
)

// ErrorResponse defines model for ErrorResponse.
type ErrorResponse struct {
	Message   string    `json:"error"`
	RequestId string    `json:"requestId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthcheckResponse defines model for HealthcheckResponse.
type HealthcheckResponse struct {
	Status     string     `json:"status"`
	SystemInfo SystemInfo `json:"systemInfo"`
}

// SystemInfo defines model for SystemInfo.
type SystemInfo struct {
	Environment string `json:"environment"`
	Version     string `json:"version"`
}

// CreateCheckoutSessionRequest defines model for CreateCheckoutSessionRequest.
type CreateCheckoutSessionRequest struct {
	BookingId *openapi_types.UUID `json:"booking_id" validate:"required"`
	Amount    *decimal.Decimal    `json:"amount" validate:"required,gt=0"`
	ReturnUrl *string             `json:"return_url,omitempty" validate:"omitempty,url"`
}

// CheckoutSessionResponse defines model for CheckoutSessionResponse.
type CheckoutSessionResponse struct {
	SessionId string `json:"sessionId"`
	Url       string `json:"url"`
}

// SavedMethodPaymentRequest defines model for SavedMethodPaymentRequest.
type SavedMethodPaymentRequest struct {
	BookingId       *openapi_types.UUID `json:"booking_id" validate:"required"`
	PaymentMethodId *openapi_types.UUID `json:"payment_method_id" validate:"required"`
	Amount          *decimal.Decimal    `json:"amount" validate:"required,gt=0"`
}

// SavedMethodPaymentResponse defines model for SavedMethodPaymentResponse.
type SavedMethodPaymentResponse struct {
	Success         bool    `json:"success"`
	Message         *string `json:"message,omitempty"`
	PaymentIntentId *string `json:"paymentIntentId,omitempty"`
	Status          *string `json:"status,omitempty"`
}

// WebhookResponse defines model for WebhookResponse.
type WebhookResponse struct {
	Received bool `json:"received"`
}

// Payment defines model for Payment.
type Payment struct {
	Id              openapi_types.UUID  `json:"id"`
	BookingId       openapi_types.UUID  `json:"bookingId"`
	Amount          decimal.Decimal     `json:"amount"`
	Currency        string              `json:"currency"`
	Status          string              `json:"status"`
	Method          *string             `json:"method,omitempty"`
	MethodId        *openapi_types.UUID `json:"methodId,omitempty"`
	SessionId       *string             `json:"sessionId,omitempty"`
	PaymentIntentId *string             `json:"paymentIntentId,omitempty"`
	InvoiceUrl      *string             `json:"invoiceUrl,omitempty"`
	ErrorMessage    *string             `json:"errorMessage,omitempty"`
	Date            time.Time           `json:"date"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

// PaymentsResponse defines model for PaymentsResponse.
type PaymentsResponse struct {
	Payments        []Payment `json:"payments"`
	PendingPayments []Payment `json:"pendingPayments"`
}

// PaymentMethod defines model for PaymentMethod.
type PaymentMethod struct {
	Id                    openapi_types.UUID `json:"id"`
	StripePaymentMethodId *string            `json:"stripePaymentMethodId,omitempty"`
	Brand                 *string            `json:"brand,omitempty"`
	Last4                 *string            `json:"last4,omitempty"`
	ExpMonth              *int               `json:"expMonth,omitempty"`
	ExpYear               *int               `json:"expYear,omitempty"`
	IsDefault             bool               `json:"isDefault"`
	CreatedAt             time.Time          `json:"createdAt"`
}

// PaymentMethodsResponse defines model for PaymentMethodsResponse.
type PaymentMethodsResponse struct {
	PaymentMethods []PaymentMethod `json:"paymentMethods"`
}

// CreatePaymentMethodRequest defines model for CreatePaymentMethodRequest.
type CreatePaymentMethodRequest struct {
	StripePaymentMethodId string  `json:"stripe_payment_method_id" validate:"required,stripe_pm"`
	Brand                 *string `json:"brand,omitempty" validate:"omitempty,max=32"`
	Last4                 *string `json:"last4,omitempty" validate:"omitempty,len=4,numeric"`
	ExpMonth              *int    `json:"exp_month,omitempty" validate:"omitempty,min=1,max=12"`
	ExpYear               *int    `json:"exp_year,omitempty" validate:"omitempty,min=2000,max=2100"`
}
