package integration_test

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/brightnest/booking-payments/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/stripe/stripe-go/v82"
)

type SavedMethodSuite struct {
	BaseSuite
}

func TestSavedMethodSuite(t *testing.T) {
	suite.Run(t, new(SavedMethodSuite))
}

func savedMethodBody(bookingId, methodId uuid.UUID) string {
	return fmt.Sprintf(`{"booking_id": "%s", "payment_method_id": "%s", "amount": %s}`, bookingId, methodId, TestAmount)
}

func seedSavedMethod(t testing.TB, testApp *TestApp, stripeMethodId string) {
	insertProfile(t, testApp, TestUserId, TestUserFullName, TestUserEmail)
	insertBooking(t, testApp, TestBookingId, TestUserId, domain.BookingPaymentPending)
	insertPaymentMethod(t, testApp, TestMethodId, TestUserId, stripeMethodId, true)
	insertGatewayCustomer(t, testApp, TestUserId, TestStripeCustomer)
}

func (s *SavedMethodSuite) TestProcessSavedMethodPayment() {
	scenarios := []Scenario{
		{
			Name:           "settles the payment when the charge succeeds",
			Body:           strings.NewReader(savedMethodBody(TestBookingId, TestMethodId)),
			ExpectedStatus: http.StatusOK,
			ExpectedResponse: fmt.Sprintf(`{
				"success": true,
				"paymentIntentId": "%s"
			}`, TestIntentId),
			BeforeTestFunc: func(t testing.TB, testApp *TestApp) {
				seedSavedMethod(t, testApp, TestStripeMethodId)
				testApp.PaymentProvider.PaymentIntent = &stripe.PaymentIntent{
					ID:     TestIntentId,
					Status: stripe.PaymentIntentStatusSucceeded,
				}
				testApp.PaymentProvider.ReceiptURL = TestReceiptUrl
			},
			AfterTestFunc: func(t testing.TB, testApp *TestApp, res *http.Response) {
				_, payment := getOnlyPayment(t, testApp, TestBookingId)
				assert.Equal(t, string(domain.PaymentStatusPaid), payment.Status)
				require.NotNil(t, payment.IntentId)
				assert.Equal(t, TestIntentId, *payment.IntentId)
				require.NotNil(t, payment.InvoiceUrl)
				assert.Equal(t, TestReceiptUrl, *payment.InvoiceUrl)
				require.NotNil(t, payment.Method)
				assert.Equal(t, domain.DefaultPaymentMethod, *payment.Method)

				status, paymentStatus := getBookingStatus(t, testApp, TestBookingId)
				assert.Equal(t, string(domain.BookingStatusPendingConfirmation), status)
				assert.Equal(t, string(domain.BookingPaymentPaid), paymentStatus)

				charges := testApp.PaymentProvider.ChargeInputs
				require.Len(t, charges, 1)
				assert.Equal(t, TestStripeCustomer, charges[0].CustomerID)
				assert.Equal(t, TestStripeMethodId, charges[0].PaymentMethodID)
				assert.Zero(t, testApp.PaymentProvider.CustomersCreated())
			},
		},
		{
			Name:           "creates the gateway customer on first use",
			Body:           strings.NewReader(savedMethodBody(TestBookingId, TestMethodId)),
			ExpectedStatus: http.StatusOK,
			BeforeTestFunc: func(t testing.TB, testApp *TestApp) {
				insertProfile(t, testApp, TestUserId, TestUserFullName, TestUserEmail)
				insertBooking(t, testApp, TestBookingId, TestUserId, domain.BookingPaymentPending)
				insertPaymentMethod(t, testApp, TestMethodId, TestUserId, TestStripeMethodId, true)
				testApp.PaymentProvider.PaymentIntent = &stripe.PaymentIntent{
					ID:     TestIntentId,
					Status: stripe.PaymentIntentStatusSucceeded,
				}
			},
			AfterTestFunc: func(t testing.TB, testApp *TestApp, res *http.Response) {
				assert.Equal(t, 1, testApp.PaymentProvider.CustomersCreated())
				assert.Equal(t, 1, countRows(t, testApp, "gateway_customers"))

				charges := testApp.PaymentProvider.ChargeInputs
				require.Len(t, charges, 1)
				assert.Equal(t, "cus_test_1", charges[0].CustomerID)
			},
		},
		{
			Name:           "reports a declined intent as failed",
			Body:           strings.NewReader(savedMethodBody(TestBookingId, TestMethodId)),
			ExpectedStatus: http.StatusOK,
			ExpectedResponse: fmt.Sprintf(`{
				"success": false,
				"message": "Your card has insufficient funds.",
				"paymentIntentId": "%s",
				"status": "failed"
			}`, TestIntentId),
			BeforeTestFunc: func(t testing.TB, testApp *TestApp) {
				seedSavedMethod(t, testApp, TestStripeMethodId)
				testApp.PaymentProvider.PaymentIntent = &stripe.PaymentIntent{
					ID:     TestIntentId,
					Status: stripe.PaymentIntentStatusRequiresPaymentMethod,
					LastPaymentError: &stripe.Error{
						Msg: "Your card has insufficient funds.",
					},
				}
			},
			AfterTestFunc: func(t testing.TB, testApp *TestApp, res *http.Response) {
				_, payment := getOnlyPayment(t, testApp, TestBookingId)
				assert.Equal(t, string(domain.PaymentStatusFailed), payment.Status)
				require.NotNil(t, payment.ErrorMsg)
				assert.Equal(t, "Your card has insufficient funds.", *payment.ErrorMsg)
			},
		},
		{
			Name:           "reports a card error from the gateway as failed",
			Body:           strings.NewReader(savedMethodBody(TestBookingId, TestMethodId)),
			ExpectedStatus: http.StatusOK,
			ExpectedResponse: `{
				"success": false,
				"message": "Your card was declined.",
				"status": "failed"
			}`,
			BeforeTestFunc: func(t testing.TB, testApp *TestApp) {
				seedSavedMethod(t, testApp, TestStripeMethodId)
				testApp.PaymentProvider.Err = &stripe.Error{
					Type:           stripe.ErrorTypeCard,
					Code:           stripe.ErrorCodeCardDeclined,
					Msg:            "Your card was declined.",
					HTTPStatusCode: http.StatusPaymentRequired,
				}
			},
			AfterTestFunc: func(t testing.TB, testApp *TestApp, res *http.Response) {
				_, payment := getOnlyPayment(t, testApp, TestBookingId)
				assert.Equal(t, string(domain.PaymentStatusFailed), payment.Status)
			},
		},
		{
			Name:           "leaves the payment pending while the intent needs action",
			Body:           strings.NewReader(savedMethodBody(TestBookingId, TestMethodId)),
			ExpectedStatus: http.StatusOK,
			ExpectedResponse: fmt.Sprintf(`{
				"success": false,
				"message": "Payment requires additional authentication.",
				"paymentIntentId": "%s",
				"status": "requires_action"
			}`, TestIntentId),
			BeforeTestFunc: func(t testing.TB, testApp *TestApp) {
				seedSavedMethod(t, testApp, TestStripeMethodId)
				testApp.PaymentProvider.PaymentIntent = &stripe.PaymentIntent{
					ID:     TestIntentId,
					Status: stripe.PaymentIntentStatusRequiresAction,
				}
			},
			AfterTestFunc: func(t testing.TB, testApp *TestApp, res *http.Response) {
				_, payment := getOnlyPayment(t, testApp, TestBookingId)
				assert.Equal(t, string(domain.PaymentStatusPending), payment.Status)
				require.NotNil(t, payment.IntentId)
				assert.Equal(t, TestIntentId, *payment.IntentId)
			},
		},
		{
			Name:             "rejects a method without gateway token",
			Body:             strings.NewReader(savedMethodBody(TestBookingId, TestMethodId)),
			ExpectedStatus:   http.StatusBadRequest,
			ExpectedResponse: fmt.Sprintf(`{"error": "%s"}`, domain.ErrMissingGatewayToken.Error()),
			BeforeTestFunc: func(t testing.TB, testApp *TestApp) {
				seedSavedMethod(t, testApp, "")
			},
			AfterTestFunc: func(t testing.TB, testApp *TestApp, res *http.Response) {
				_, payment := getOnlyPayment(t, testApp, TestBookingId)
				assert.Equal(t, string(domain.PaymentStatusFailed), payment.Status)
				assert.Empty(t, testApp.PaymentProvider.ChargeInputs)
			},
		},
		{
			Name:             "hides methods of other users",
			Body:             strings.NewReader(savedMethodBody(TestBookingId, TestMethodId)),
			ExpectedStatus:   http.StatusBadRequest,
			ExpectedResponse: `{"error": "Invalid payment method."}`,
			BeforeTestFunc: func(t testing.TB, testApp *TestApp) {
				insertProfile(t, testApp, TestUserId, TestUserFullName, TestUserEmail)
				insertProfile(t, testApp, TestOtherUserId, "", "")
				insertBooking(t, testApp, TestBookingId, TestUserId, domain.BookingPaymentPending)
				insertPaymentMethod(t, testApp, TestMethodId, TestOtherUserId, TestStripeMethodId, true)
			},
			AfterTestFunc: func(t testing.TB, testApp *TestApp, res *http.Response) {
				assert.Zero(t, countRows(t, testApp, "payments"))
			},
		},
		{
			Name:             "rejects a booking that is already paid",
			Body:             strings.NewReader(savedMethodBody(TestBookingId, TestMethodId)),
			ExpectedStatus:   http.StatusBadRequest,
			ExpectedResponse: `{"error": "Booking is already paid."}`,
			BeforeTestFunc: func(t testing.TB, testApp *TestApp) {
				insertProfile(t, testApp, TestUserId, TestUserFullName, TestUserEmail)
				insertBooking(t, testApp, TestBookingId, TestUserId, domain.BookingPaymentPaid)
				insertPaymentMethod(t, testApp, TestMethodId, TestUserId, TestStripeMethodId, true)
			},
		},
	}

	for _, scenario := range scenarios {
		scenario.Method = http.MethodPost
		scenario.URL = "/payments/saved-method"
		scenario.Headers = authHeaders(s.T(), TestUserId, TestUserEmail)
		scenario.Run(s.T(), s.app)
	}
}
