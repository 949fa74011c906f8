package app

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brightnest/booking-payments/api"
	"github.com/brightnest/booking-payments/internal/domain"
	"github.com/brightnest/booking-payments/internal/mailer"
	"github.com/brightnest/booking-payments/internal/mocks"
	"github.com/brightnest/booking-payments/internal/validator"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const testJWTSecret = "test-jwt-secret"

var (
	testUserId = uuid.MustParse("6f1c2f8e-3b7a-4c5d-9e2f-0a1b2c3d4e5f")
	testEmail  = "jane@example.com"
)

func newTestConfig() Config {
	return Config{
		Env: "test",
		Stripe: StripeConfig{
			Currency:      "usd",
			WebhookSecret: "whsec_test",
		},
		Auth: AuthConfig{
			JWTSecret: testJWTSecret,
		},
		RateLimit: RateLimitConfig{
			Enabled: false,
			RPS:     2,
			Burst:   4,
		},
		Webhook: WebhookConfig{
			MaxAttempts:    5,
			BatchSize:      10,
			PollInterval:   time.Minute,
			Lease:          time.Minute,
			InitialBackoff: time.Second,
			MaxBackoff:     time.Hour,
		},
	}
}

func newTestApplication(opts ...func(*Application)) *Application {
	cfg := newTestConfig()

	app := &Application{
		config:            cfg,
		validator:         validator.NewValidator(),
		logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
		mailer:            mailer.NewMockMailer(),
		metrics:           newPaymentMetrics(),
		limiter:           newCallerLimiter(cfg.RateLimit),
		redis:             &mocks.MockRedisClient{},
		paymentRepo:       &mocks.MockPaymentRepo{},
		bookingRepo:       &mocks.MockBookingRepo{},
		paymentMethodRepo: &mocks.MockPaymentMethodRepo{},
		customerRepo:      &mocks.MockCustomerRepo{},
		profileRepo:       &mocks.MockProfileRepo{},
		webhookEventRepo:  &mocks.MockWebhookEventRepo{},
		paymentProvider:   &mocks.MockPaymentProvider{},
	}

	for _, opt := range opts {
		opt(app)
	}

	return app
}

func newAccessToken(t *testing.T, userId uuid.UUID, email string, expiresIn time.Duration) string {
	t.Helper()

	claims := accessClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userId.String(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatal(err)
	}

	return token
}

func executeRequest(t *testing.T, method, url string, body any) (*httptest.ResponseRecorder, *http.Request) {
	var reader io.Reader = http.NoBody

	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}

		reader = bytes.NewReader(jsonData)
	}

	r := httptest.NewRequest(method, url, reader)
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	return w, r
}

// withIdentity attaches the test caller to the request the way
// requireAuthentication does.
func withIdentity(app *Application, r *http.Request) *http.Request {
	return app.contextSetIdentity(r, domain.Identity{UserID: testUserId, Email: testEmail})
}

func checkErrorResponse(t *testing.T, w *httptest.ResponseRecorder, tt struct {
	wantStatus     int
	wantErrMessage string
}) {
	if tt.wantStatus >= 200 && tt.wantStatus < 300 {
		return
	}

	var errorResp api.ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&errorResp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}

	if tt.wantErrMessage != "" && errorResp.Message != tt.wantErrMessage {
		t.Errorf("Error message = %v, want %v", errorResp.Message, tt.wantErrMessage)
	}
}
