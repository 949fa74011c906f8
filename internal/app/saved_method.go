package app

import (
	"errors"
	"net/http"

	"github.com/brightnest/booking-payments/api"
	"github.com/brightnest/booking-payments/internal/domain"
	"github.com/stripe/stripe-go/v82"
)

const (
	msgRequiresAction = "Payment requires additional authentication."
	msgProcessing     = "Payment is processing."
	msgDeclined       = "Your card was declined."
)

func (app *Application) ProcessSavedMethodPaymentHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)
	identity := app.contextGetIdentity(r)

	var input api.SavedMethodPaymentRequest

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

	// Both lookups are scoped to the caller. Rows of other users are
	// reported exactly like missing ones.
	method, err := app.paymentMethodRepo.GetByIdAndUserId(r.Context(), *input.PaymentMethodId, identity.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			app.badRequestResponse(w, r, errInvalidMethod)
			return
		}

		app.chargeErrorResponse(w, r, err)
		return
	}

	booking, err := app.bookingRepo.GetByIdAndUserId(r.Context(), *input.BookingId, identity.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			app.badRequestResponse(w, r, errInvalidBooking)
			return
		}

		app.chargeErrorResponse(w, r, err)
		return
	}

	if booking.PaymentStatus == domain.BookingPaymentPaid {
		app.badRequestResponse(w, r, errBookingAlreadyPaid)
		return
	}

	methodLabel := domain.DefaultPaymentMethod

	payment := &domain.Payment{
		BookingID: booking.ID,
		UserID:    identity.UserID,
		Amount:    amount,
		Currency:  app.config.Stripe.Currency,
		Status:    domain.PaymentStatusPending,
		Method:    &methodLabel,
		MethodID:  &method.ID,
	}

	err = app.paymentRepo.Create(r.Context(), payment)
	if err != nil {
		app.chargeErrorResponse(w, r, err)
		return
	}

	logger = logger.With("payment_id", payment.ID, "booking_id", booking.ID)
	app.metrics.attemptStarted(r.Context(), "saved_method")

	err = app.bookingRepo.Apply(r.Context(), domain.BookingUpdate{
		BookingID:     booking.ID,
		PaymentStatus: domain.BookingPaymentPending,
	})
	if err != nil {
		logger.Warn("failed to mark booking payment as pending", "error", err)
	}

	if !method.HasGatewayToken() {
		app.failPayment(r, payment.ID, domain.ErrMissingGatewayToken.Error())
		app.badRequestResponse(w, r, domain.ErrMissingGatewayToken)
		return
	}

	customerId, err := app.ensureGatewayCustomer(r.Context(), identity)
	if err != nil {
		app.failPayment(r, payment.ID, err.Error())
		app.chargeErrorResponse(w, r, err)
		return
	}

	intent, err := app.paymentProvider.ChargeOffSession(r.Context(), domain.OffSessionChargeInput{
		PaymentID:       payment.ID,
		BookingID:       booking.ID,
		UserID:          identity.UserID,
		Amount:          amount,
		CustomerID:      customerId,
		PaymentMethodID: *method.StripePaymentMethodID,
	})
	if err != nil {
		app.gatewayChargeErrorResponse(w, r, payment, err)
		return
	}

	err = app.paymentRepo.AttachIntent(r.Context(), payment.ID, intent.ID)
	if err != nil {
		logger.Warn("failed to store payment intent id", "intent_id", intent.ID, "error", err)
	}

	logger = logger.With("intent_id", intent.ID, "intent_status", intent.Status)

	switch intent.Status {
	case stripe.PaymentIntentStatusSucceeded:
		outcome := domain.PaymentOutcome{
			IntentID: &intent.ID,
			Method:   &methodLabel,
		}

		receiptUrl, err := app.paymentProvider.GetReceiptURL(r.Context(), intent.ID)
		if err != nil {
			logger.Warn("failed to fetch receipt url", "error", err)
		} else if receiptUrl != "" {
			outcome.InvoiceURL = &receiptUrl
		}

		applied, err := app.paymentRepo.Settle(
			r.Context(),
			payment.ID,
			domain.PaymentStatusPaid,
			outcome,
			domain.BookingPaidUpdate(booking.ID),
		)
		if err != nil {
			// The charge went through, the payment_intent.succeeded webhook
			// settles the record later.
			logger.Error("failed to record successful charge", "error", err)
		} else if applied {
			app.metrics.outcomeApplied(r.Context(), string(domain.PaymentStatusPaid), "api")
		}

		logger.Info("saved method charged")

		app.writeChargeResponse(w, r, http.StatusOK, api.SavedMethodPaymentResponse{
			Success:         true,
			PaymentIntentId: &intent.ID,
		})

	case stripe.PaymentIntentStatusRequiresPaymentMethod, stripe.PaymentIntentStatusCanceled:
		message := msgDeclined
		if intent.LastPaymentError != nil && intent.LastPaymentError.Msg != "" {
			message = intent.LastPaymentError.Msg
		}

		app.failPayment(r, payment.ID, message)

		logger.Info("saved method charge declined", "reason", message)

		app.writeChargeResponse(w, r, http.StatusOK, api.SavedMethodPaymentResponse{
			Success:         false,
			Message:         &message,
			PaymentIntentId: &intent.ID,
			Status:          ptr(string(domain.PaymentStatusFailed)),
		})

	default:
		message := msgRequiresAction
		if intent.Status == stripe.PaymentIntentStatusProcessing {
			message = msgProcessing
		}

		logger.Info("saved method charge needs follow-up")

		app.writeChargeResponse(w, r, http.StatusOK, api.SavedMethodPaymentResponse{
			Success:         false,
			Message:         &message,
			PaymentIntentId: &intent.ID,
			Status:          ptr(string(intent.Status)),
		})
	}
}

// gatewayChargeErrorResponse records a failed charge attempt. Card declines
// are a normal outcome of a well-formed request and answer 200, any other
// gateway error answers 500.
func (app *Application) gatewayChargeErrorResponse(
	w http.ResponseWriter,
	r *http.Request,
	payment *domain.Payment,
	err error) {

	logger := app.contextGetLogger(r).With("payment_id", payment.ID)

	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		app.failPayment(r, payment.ID, err.Error())
		app.chargeErrorResponse(w, r, err)
		return
	}

	var intentId *string
	if stripeErr.PaymentIntent != nil && stripeErr.PaymentIntent.ID != "" {
		intentId = &stripeErr.PaymentIntent.ID

		attachErr := app.paymentRepo.AttachIntent(r.Context(), payment.ID, *intentId)
		if attachErr != nil {
			logger.Warn("failed to store payment intent id", "intent_id", *intentId, "error", attachErr)
		}
	}

	message := stripeErr.Msg
	if message == "" {
		message = err.Error()
	}

	app.failPayment(r, payment.ID, message)

	if stripeErr.Type != stripe.ErrorTypeCard {
		app.chargeErrorResponse(w, r, err)
		return
	}

	logger.Info("saved method charge declined", "code", stripeErr.Code, "decline_code", stripeErr.DeclineCode)

	app.writeChargeResponse(w, r, http.StatusOK, api.SavedMethodPaymentResponse{
		Success:         false,
		Message:         &message,
		PaymentIntentId: intentId,
		Status:          ptr(string(domain.PaymentStatusFailed)),
	})
}

// chargeErrorResponse is the saved-method flavour of serverErrorResponse,
// keeping the {success, message} envelope of that endpoint.
func (app *Application) chargeErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)

	message := ErrInternalServer
	app.writeChargeResponse(w, r, http.StatusInternalServerError, api.SavedMethodPaymentResponse{
		Success: false,
		Message: &message,
	})
}

func (app *Application) writeChargeResponse(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	resp api.SavedMethodPaymentResponse) {

	err := app.writeJSON(w, status, resp, nil)
	if err != nil {
		app.logError(r, err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func ptr[T any](v T) *T {
	return &v
}
