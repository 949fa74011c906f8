package integration_test

import (
	"time"

	"github.com/google/uuid"
)

const (
	TestJWTSecret     = "integration-test-secret"
	TestWebhookSecret = "whsec_integration_test"

	// Profile related constants
	TestUserFullName = "Jane Doe"
	TestUserEmail    = "jane@example.com"

	// Booking related constants
	TestServiceType = "deep_cleaning"
	TestAmount      = "49.99"
	TestAmountCents = 4999

	// Gateway related constants
	TestSessionId      = "cs_test_a1b2c3"
	TestSessionUrl     = "https://checkout.stripe.com/c/pay/cs_test_a1b2c3"
	TestIntentId       = "pi_test_a1b2c3"
	TestStripeMethodId = "pm_test_visa"
	TestStripeCustomer = "cus_test_existing"
	TestReceiptUrl     = "https://pay.stripe.com/receipts/test_a1b2c3"
)

var (
	TestUserId      = uuid.MustParse("6f1c2a4e-7d3b-4c1a-9e2f-0b8d5a6c7e10")
	TestOtherUserId = uuid.MustParse("0a9b8c7d-6e5f-4a3b-8c2d-1e0f9a8b7c6d")
	TestBookingId   = uuid.MustParse("3b2a1c0d-9e8f-4d7c-b6a5-4f3e2d1c0b9a")
	TestPaymentId   = uuid.MustParse("8e7d6c5b-4a39-4281-a706-f5e4d3c2b1a0")
	TestMethodId    = uuid.MustParse("c4d5e6f7-a8b9-4c0d-9e1f-2a3b4c5d6e7f")

	TestBookingDate = time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)
)
