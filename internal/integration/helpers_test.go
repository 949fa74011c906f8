package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brightnest/booking-payments/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"
)

var keysToIgnore = map[string]struct{}{
	"timestamp": {},
	"requestId": {},
	"createdAt": {},
	"updatedAt": {},
	"date":      {},
}

func prepareRequest(method, path string, body io.Reader, headers map[string]string) (*http.Request, error) {
	req := httptest.NewRequest(method, path, body)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

func compareResponse(t *testing.T, body io.Reader, expectedResponse string) {
	var actual map[string]any
	require.NoError(t, json.NewDecoder(body).Decode(&actual))

	cleanMap(actual)

	var expected map[string]any
	require.NoError(t, json.Unmarshal([]byte(expectedResponse), &expected))

	// ignore indetermistic fields while comparing
	opts := cmpopts.IgnoreMapEntries(func(k string, _ any) bool {
		_, ok := keysToIgnore[k]
		return ok
	})

	if diff := cmp.Diff(expected, actual, opts); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
}

func cleanMap(m map[string]any) {
	for k := range m {
		if _, ok := keysToIgnore[k]; ok {
			delete(m, k)
			continue
		}

		switch v := m[k].(type) {
		case map[string]any:
			cleanMap(v)
		case []any:
			for _, item := range v {
				if nested, ok := item.(map[string]any); ok {
					cleanMap(nested)
				}
			}
		}
	}
}

func authHeaders(t testing.TB, userId uuid.UUID, email string) map[string]string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub":   userId.String(),
		"email": email,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(TestJWTSecret))
	require.NoError(t, err)

	return map[string]string{"Authorization": "Bearer " + token}
}

func signedWebhookHeaders(t testing.TB, payload []byte) map[string]string {
	t.Helper()

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload: payload,
		Secret:  TestWebhookSecret,
	})

	return map[string]string{"Stripe-Signature": signed.Header}
}

// newEvent builds the JSON body of a gateway event wrapping object.
func newEvent(t testing.TB, id, eventType string, object map[string]any) []byte {
	t.Helper()

	payload, err := json.Marshal(map[string]any{
		"id":          id,
		"object":      "event",
		"type":        eventType,
		"api_version": "2025-04-30.basil",
		"created":     time.Now().Unix(),
		"data": map[string]any{
			"object": object,
		},
	})
	require.NoError(t, err)

	return payload
}

func paymentMetadata(bookingId, paymentId, userId uuid.UUID) map[string]string {
	return map[string]string{
		domain.MetadataBookingID: bookingId.String(),
		domain.MetadataPaymentID: paymentId.String(),
		domain.MetadataUserID:    userId.String(),
	}
}

func truncateTables(t testing.TB, testApp *TestApp) {
	t.Helper()

	_, err := testApp.DB.Exec(context.Background(), `
		TRUNCATE webhook_events, payments, gateway_customers, payment_methods, bookings, profiles CASCADE`)
	require.NoError(t, err)
}

func insertProfile(t testing.TB, testApp *TestApp, id uuid.UUID, fullName, email string) {
	t.Helper()

	_, err := testApp.DB.Exec(context.Background(),
		`INSERT INTO profiles (id, full_name, email) VALUES ($1, NULLIF($2, ''), NULLIF($3, ''))`,
		id, fullName, email)
	require.NoError(t, err)
}

func insertBooking(t testing.TB, testApp *TestApp, id, userId uuid.UUID, paymentStatus domain.BookingPaymentStatus) {
	t.Helper()

	_, err := testApp.DB.Exec(context.Background(),
		`INSERT INTO bookings (id, user_id, service_type, date, payment_status) VALUES ($1, $2, $3, $4, $5)`,
		id, userId, TestServiceType, TestBookingDate, string(paymentStatus))
	require.NoError(t, err)
}

func insertPaymentMethod(t testing.TB, testApp *TestApp, id, userId uuid.UUID, stripeMethodId string, isDefault bool) {
	t.Helper()

	_, err := testApp.DB.Exec(context.Background(), `
		INSERT INTO payment_methods (id, user_id, stripe_payment_method_id, brand, last4, exp_month, exp_year, is_default)
		VALUES ($1, $2, NULLIF($3, ''), 'visa', '4242', 12, 2030, $4)`,
		id, userId, stripeMethodId, isDefault)
	require.NoError(t, err)
}

func insertGatewayCustomer(t testing.TB, testApp *TestApp, userId uuid.UUID, customerId string) {
	t.Helper()

	_, err := testApp.DB.Exec(context.Background(),
		`INSERT INTO gateway_customers (user_id, stripe_customer_id) VALUES ($1, $2)`,
		userId, customerId)
	require.NoError(t, err)
}

func insertPayment(
	t testing.TB,
	testApp *TestApp,
	id, bookingId, userId uuid.UUID,
	status domain.PaymentStatus,
	intentId string) {

	t.Helper()

	_, err := testApp.DB.Exec(context.Background(), `
		INSERT INTO payments (id, booking_id, user_id, amount, currency, status, stripe_payment_intent_id)
		VALUES ($1, $2, $3, $4::numeric, 'usd', $5, NULLIF($6, ''))`,
		id, bookingId, userId, TestAmount, string(status), intentId)
	require.NoError(t, err)
}

func insertFailedWebhookEvent(t testing.TB, testApp *TestApp, eventId, eventType string, payload []byte, attempts int) {
	t.Helper()

	_, err := testApp.DB.Exec(context.Background(), `
		INSERT INTO webhook_events (event_id, event_type, payload, status, attempts, last_error, next_attempt_at)
		VALUES ($1, $2, $3, 'failed', $4, 'connection refused', NOW() - INTERVAL '1 second')`,
		eventId, eventType, payload, attempts)
	require.NoError(t, err)
}

// insertReceivedWebhookEvent stores an event that was recorded age ago and
// never finished processing.
func insertReceivedWebhookEvent(t testing.TB, testApp *TestApp, eventId, eventType string, payload []byte, age time.Duration) {
	t.Helper()

	_, err := testApp.DB.Exec(context.Background(), `
		INSERT INTO webhook_events (event_id, event_type, payload, status, created_at)
		VALUES ($1, $2, $3, 'received', NOW() - make_interval(secs => $4))`,
		eventId, eventType, payload, age.Seconds())
	require.NoError(t, err)
}

type paymentRow struct {
	Status     string
	Method     *string
	IntentId   *string
	SessionId  *string
	InvoiceUrl *string
	ErrorMsg   *string
}

func getPayment(t testing.TB, testApp *TestApp, id uuid.UUID) paymentRow {
	t.Helper()

	var row paymentRow

	err := testApp.DB.QueryRow(context.Background(), `
		SELECT status, method, stripe_payment_intent_id, stripe_session_id, invoice_url, error_message
		FROM payments WHERE id = $1`, id).
		Scan(&row.Status, &row.Method, &row.IntentId, &row.SessionId, &row.InvoiceUrl, &row.ErrorMsg)
	require.NoError(t, err)

	return row
}

// getOnlyPayment returns the single payment of a booking.
func getOnlyPayment(t testing.TB, testApp *TestApp, bookingId uuid.UUID) (uuid.UUID, paymentRow) {
	t.Helper()

	rows, err := testApp.DB.Query(context.Background(), `SELECT id FROM payments WHERE booking_id = $1`, bookingId)
	require.NoError(t, err)

	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	require.NoError(t, err)
	require.Len(t, ids, 1, "expected exactly one payment for booking %s", bookingId)

	return ids[0], getPayment(t, testApp, ids[0])
}

func getBookingStatus(t testing.TB, testApp *TestApp, id uuid.UUID) (status, paymentStatus string) {
	t.Helper()

	err := testApp.DB.QueryRow(context.Background(),
		`SELECT status, payment_status FROM bookings WHERE id = $1`, id).
		Scan(&status, &paymentStatus)
	require.NoError(t, err)

	return status, paymentStatus
}

func getWebhookEventStatus(t testing.TB, testApp *TestApp, eventId string) (status string, attempts int) {
	t.Helper()

	err := testApp.DB.QueryRow(context.Background(),
		`SELECT status, attempts FROM webhook_events WHERE event_id = $1`, eventId).
		Scan(&status, &attempts)
	require.NoError(t, err)

	return status, attempts
}

func countRows(t testing.TB, testApp *TestApp, table string) int {
	t.Helper()

	var n int
	err := testApp.DB.QueryRow(context.Background(), fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&n)
	require.NoError(t, err)

	return n
}
