package app

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/brightnest/booking-payments/api"
	"github.com/brightnest/booking-payments/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	errAmountTooSmall     = errors.New("amount must be greater than 0")
	errBookingAlreadyPaid = errors.New("Booking is already paid.")
	errInvalidBooking     = errors.New("Invalid booking.")
	errInvalidMethod      = errors.New("Invalid payment method.")
)

func (app *Application) CreateCheckoutSessionHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)
	identity := app.contextGetIdentity(r)

	var input api.CreateCheckoutSessionRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	amount, err := normalizeAmount(*input.Amount)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	bookingId := *input.BookingId

	checkout := domain.CheckoutSessionInput{
		BookingID:     bookingId,
		UserID:        identity.UserID,
		Amount:        amount,
		ProductName:   "Service booking",
		Description:   fmt.Sprintf("Booking %s", shortId(bookingId)),
		CustomerEmail: identity.Email,
	}

	if input.ReturnUrl != nil {
		checkout.ReturnURL = *input.ReturnUrl
	}

	// A booking that does not exist for the caller rejects the checkout.
	// Other lookup failures and the profile only cost the checkout page its
	// details.
	booking, err := app.bookingRepo.GetByIdAndUserId(r.Context(), bookingId, identity.UserID)
	switch {
	case err == nil:
		if booking.PaymentStatus == domain.BookingPaymentPaid {
			app.badRequestResponse(w, r, errBookingAlreadyPaid)
			return
		}

		checkout.ProductName = fmt.Sprintf("%s service", serviceLabel(booking.ServiceType))
		checkout.Description = fmt.Sprintf(
			"%s on %s",
			serviceLabel(booking.ServiceType),
			booking.Date.Format("Jan 2, 2006 15:04"),
		)
	case errors.Is(err, domain.ErrRecordNotFound):
		app.badRequestResponse(w, r, errInvalidBooking)
		return
	default:
		logger.Warn("failed to load booking for checkout, using defaults", "booking_id", bookingId, "error", err)
		booking = nil
	}

	profile, err := app.profileRepo.GetById(r.Context(), identity.UserID)
	if err != nil {
		logger.Warn("failed to load profile for checkout, using defaults", "error", err)
	} else {
		if profile.FullName != nil && *profile.FullName != "" {
			checkout.Description = fmt.Sprintf("%s for %s", checkout.Description, *profile.FullName)
		}

		if profile.Email != nil && *profile.Email != "" {
			checkout.CustomerEmail = *profile.Email
		}
	}

	payment := &domain.Payment{
		BookingID: bookingId,
		UserID:    identity.UserID,
		Amount:    amount,
		Currency:  app.config.Stripe.Currency,
		Status:    domain.PaymentStatusPending,
	}

	// The record must exist before the gateway is called, so that every
	// gateway session has a local audit row.
	err = app.paymentRepo.Create(r.Context(), payment)
	if err != nil {
		logger.Error("failed to create payment record", "booking_id", bookingId, "error", err)
		app.serverErrorResponse(w, r, err)
		return
	}

	logger = logger.With("payment_id", payment.ID, "booking_id", bookingId)
	app.metrics.attemptStarted(r.Context(), "checkout")

	if booking != nil {
		err = app.bookingRepo.Apply(r.Context(), domain.BookingUpdate{
			BookingID:     bookingId,
			PaymentStatus: domain.BookingPaymentPending,
		})
		if err != nil {
			logger.Warn("failed to mark booking payment as pending", "error", err)
		}
	}

	checkout.PaymentID = payment.ID

	session, err := app.paymentProvider.CreateCheckoutSession(r.Context(), checkout)
	if err != nil {
		app.failPayment(r, payment.ID, err.Error())
		app.gatewayErrorResponse(w, r, err)
		return
	}

	err = app.paymentRepo.AttachSession(r.Context(), payment.ID, session.ID)
	if err != nil {
		logger.Warn("failed to store checkout session id", "session_id", session.ID, "error", err)
	}

	logger.Info("checkout session created", "session_id", session.ID)

	resp := api.CheckoutSessionResponse{
		SessionId: session.ID,
		Url:       session.URL,
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// failPayment moves a pending payment to failed. It is best-effort, the
// caller has already decided on the response.
func (app *Application) failPayment(r *http.Request, paymentId uuid.UUID, errMsg string) {
	applied, err := app.paymentRepo.Transition(
		r.Context(),
		paymentId,
		domain.PaymentStatusFailed,
		domain.PaymentOutcome{ErrorMsg: &errMsg},
	)
	if err != nil {
		app.contextGetLogger(r).Error("failed to mark payment as failed", "payment_id", paymentId, "error", err)
		return
	}

	if applied {
		app.metrics.outcomeApplied(r.Context(), string(domain.PaymentStatusFailed), "api")
	}
}

// normalizeAmount rounds to cents and rejects amounts that round to zero.
func normalizeAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return decimal.Zero, errAmountTooSmall
	}

	return amount, nil
}

func shortId(id uuid.UUID) string {
	return id.String()[:8]
}

// serviceLabel turns a service type such as "deep_cleaning" into
// "Deep cleaning".
func serviceLabel(serviceType string) string {
	label := strings.TrimSpace(strings.ReplaceAll(serviceType, "_", " "))
	if label == "" {
		return "Booking"
	}

	return strings.ToUpper(label[:1]) + label[1:]
}
