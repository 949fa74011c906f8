package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/brightnest/booking-payments/internal/domain"
	"github.com/brightnest/booking-payments/internal/payment"
	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
)

// paymentRef is the correlation data the gateway echoes back in metadata.
type paymentRef struct {
	BookingID *uuid.UUID
	PaymentID *uuid.UUID
	UserID    *uuid.UUID
}

func parsePaymentRef(metadata map[string]string, clientReferenceId string) paymentRef {
	var ref paymentRef

	ref.BookingID = parseOptionalUUID(metadata[domain.MetadataBookingID])
	ref.PaymentID = parseOptionalUUID(metadata[domain.MetadataPaymentID])
	ref.UserID = parseOptionalUUID(metadata[domain.MetadataUserID])

	if ref.UserID == nil {
		ref.UserID = parseOptionalUUID(clientReferenceId)
	}

	return ref
}

func parseOptionalUUID(s string) *uuid.UUID {
	if s == "" {
		return nil
	}

	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}

	return &id
}

// reconcileEvent applies a verified gateway event to local state. A nil
// error means the event needs no further work, including events that were
// skipped because they cannot be correlated. Errors wrapped with
// backoff.Permanent are not worth retrying.
func (app *Application) reconcileEvent(ctx context.Context, logger *slog.Logger, event stripe.Event) error {
	if event.Data == nil {
		return backoff.Permanent(errors.New("event has no data"))
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return backoff.Permanent(fmt.Errorf("decode checkout session: %w", err))
		}

		return app.reconcileCheckoutCompleted(ctx, logger, &session)

	case stripe.EventTypeCheckoutSessionExpired:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return backoff.Permanent(fmt.Errorf("decode checkout session: %w", err))
		}

		return app.reconcileCheckoutExpired(ctx, logger, &session)

	case stripe.EventTypePaymentIntentSucceeded:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return backoff.Permanent(fmt.Errorf("decode payment intent: %w", err))
		}

		return app.reconcileIntent(ctx, logger, &intent, domain.PaymentStatusPaid)

	case stripe.EventTypePaymentIntentPaymentFailed:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return backoff.Permanent(fmt.Errorf("decode payment intent: %w", err))
		}

		return app.reconcileIntent(ctx, logger, &intent, domain.PaymentStatusFailed)

	case stripe.EventTypeChargeRefunded:
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			return backoff.Permanent(fmt.Errorf("decode charge: %w", err))
		}

		return app.reconcileRefund(ctx, logger, &charge)

	case stripe.EventTypePaymentMethodAttached:
		logger.Info("payment method attached, nothing to reconcile")
		return nil

	default:
		logger.Debug("unhandled webhook event type")
		return nil
	}
}

func (app *Application) reconcileCheckoutCompleted(
	ctx context.Context,
	logger *slog.Logger,
	session *stripe.CheckoutSession) error {

	ref := parsePaymentRef(session.Metadata, session.ClientReferenceID)
	if ref.BookingID == nil || ref.PaymentID == nil {
		logger.Warn("reconciliation skipped: checkout session without booking_id or payment_id", "session_id", session.ID)
		return nil
	}

	logger = logger.With("payment_id", *ref.PaymentID, "booking_id", *ref.BookingID)

	if session.PaymentStatus == stripe.CheckoutSessionPaymentStatusUnpaid {
		logger.Info("checkout completed but not paid yet, waiting for the payment intent outcome")
		return nil
	}

	method := domain.DefaultPaymentMethod
	outcome := domain.PaymentOutcome{Method: &method}

	if session.PaymentIntent != nil && session.PaymentIntent.ID != "" {
		intentId := session.PaymentIntent.ID
		outcome.IntentID = &intentId
		outcome.InvoiceURL = app.lookupReceiptURL(ctx, logger, session.PaymentIntent)
	}

	applied, err := app.paymentRepo.Settle(
		ctx,
		*ref.PaymentID,
		domain.PaymentStatusPaid,
		outcome,
		domain.BookingPaidUpdate(*ref.BookingID),
	)
	if errors.Is(err, domain.ErrRecordNotFound) {
		logger.Warn("payment record not found for completed checkout, synthesizing one")

		return app.synthesizePayment(ctx, logger, ref, synthesizedPayment{
			ID:       ref.PaymentID,
			Amount:   session.AmountTotal,
			Currency: string(session.Currency),
			Status:   domain.PaymentStatusPaid,
			Outcome:  outcome,
		})
	}
	if err != nil {
		return fmt.Errorf("settle payment: %w", err)
	}

	app.afterSettle(ctx, logger, *ref.PaymentID, domain.PaymentStatusPaid, applied)

	return nil
}

func (app *Application) reconcileCheckoutExpired(
	ctx context.Context,
	logger *slog.Logger,
	session *stripe.CheckoutSession) error {

	ref := parsePaymentRef(session.Metadata, session.ClientReferenceID)
	if ref.PaymentID == nil {
		logger.Warn("reconciliation skipped: expired checkout session without payment_id", "session_id", session.ID)
		return nil
	}

	logger = logger.With("payment_id", *ref.PaymentID)

	errMsg := "checkout session expired"

	// The booking was never marked paid by this attempt, so it is left as is.
	applied, err := app.paymentRepo.Transition(
		ctx,
		*ref.PaymentID,
		domain.PaymentStatusFailed,
		domain.PaymentOutcome{ErrorMsg: &errMsg},
	)
	if errors.Is(err, domain.ErrRecordNotFound) {
		logger.Warn("reconciliation skipped: payment record not found for expired checkout")
		return nil
	}
	if err != nil {
		return fmt.Errorf("expire payment: %w", err)
	}

	app.afterSettle(ctx, logger, *ref.PaymentID, domain.PaymentStatusFailed, applied)

	return nil
}

// reconcileIntent settles the payment an intent belongs to. The record is
// looked up by the payment_id metadata, then by intent id, then as the most
// recent pending payment of the booking. When none matches, a record is
// created from the intent itself.
func (app *Application) reconcileIntent(
	ctx context.Context,
	logger *slog.Logger,
	intent *stripe.PaymentIntent,
	to domain.PaymentStatus) error {

	ref := parsePaymentRef(intent.Metadata, "")
	if ref.BookingID == nil {
		logger.Warn("reconciliation skipped: payment intent without booking_id", "intent_id", intent.ID)
		return nil
	}

	logger = logger.With("intent_id", intent.ID, "booking_id", *ref.BookingID)

	intentId := intent.ID
	method := domain.DefaultPaymentMethod

	outcome := domain.PaymentOutcome{
		IntentID: &intentId,
		Method:   &method,
	}

	bookingUpdate := domain.BookingFailedUpdate(*ref.BookingID)

	if to == domain.PaymentStatusPaid {
		outcome.InvoiceURL = app.lookupReceiptURL(ctx, logger, intent)
		bookingUpdate = domain.BookingPaidUpdate(*ref.BookingID)
	} else {
		errMsg := "payment failed"
		if intent.LastPaymentError != nil && intent.LastPaymentError.Msg != "" {
			errMsg = intent.LastPaymentError.Msg
		}
		outcome.ErrorMsg = &errMsg
	}

	record, err := app.findIntentPayment(ctx, ref, intent.ID)
	if err != nil {
		return fmt.Errorf("find payment for intent: %w", err)
	}

	if record == nil {
		logger.Warn("no payment record matches the intent, synthesizing one")

		return app.synthesizePayment(ctx, logger, ref, synthesizedPayment{
			Amount:   intent.Amount,
			Currency: string(intent.Currency),
			Status:   to,
			Outcome:  outcome,
			Booking:  bookingUpdate,
		})
	}

	logger = logger.With("payment_id", record.ID)

	applied, err := app.paymentRepo.Settle(ctx, record.ID, to, outcome, bookingUpdate)
	if err != nil {
		return fmt.Errorf("settle payment: %w", err)
	}

	app.afterSettle(ctx, logger, record.ID, to, applied)

	return nil
}

func (app *Application) findIntentPayment(
	ctx context.Context,
	ref paymentRef,
	intentId string) (*domain.Payment, error) {

	if ref.PaymentID != nil {
		record, err := app.paymentRepo.GetById(ctx, *ref.PaymentID)
		if err == nil && record.BookingID == *ref.BookingID {
			return record, nil
		}

		if err != nil && !errors.Is(err, domain.ErrRecordNotFound) {
			return nil, err
		}
	}

	record, err := app.paymentRepo.GetByIntentId(ctx, intentId)
	if err == nil {
		return record, nil
	}

	if !errors.Is(err, domain.ErrRecordNotFound) {
		return nil, err
	}

	record, err = app.paymentRepo.GetLatestPendingByBookingId(ctx, *ref.BookingID)
	if err == nil {
		return record, nil
	}

	if !errors.Is(err, domain.ErrRecordNotFound) {
		return nil, err
	}

	return nil, nil
}

func (app *Application) reconcileRefund(ctx context.Context, logger *slog.Logger, charge *stripe.Charge) error {
	if charge.PaymentIntent == nil || charge.PaymentIntent.ID == "" {
		logger.Warn("reconciliation skipped: refunded charge without payment intent", "charge_id", charge.ID)
		return nil
	}

	logger = logger.With("intent_id", charge.PaymentIntent.ID)

	if !charge.Refunded {
		logger.Info("charge partially refunded, payment stays paid", "amount_refunded", charge.AmountRefunded)
		return nil
	}

	record, err := app.paymentRepo.GetByIntentId(ctx, charge.PaymentIntent.ID)
	if errors.Is(err, domain.ErrRecordNotFound) {
		logger.Warn("reconciliation skipped: no payment record for refunded charge")
		return nil
	}
	if err != nil {
		return fmt.Errorf("find payment for refund: %w", err)
	}

	applied, err := app.paymentRepo.Transition(ctx, record.ID, domain.PaymentStatusRefunded, domain.PaymentOutcome{})
	if err != nil {
		return fmt.Errorf("refund payment: %w", err)
	}

	app.afterSettle(ctx, logger.With("payment_id", record.ID), record.ID, domain.PaymentStatusRefunded, applied)

	return nil
}

type synthesizedPayment struct {
	ID       *uuid.UUID
	Amount   int64
	Currency string
	Status   domain.PaymentStatus
	Outcome  domain.PaymentOutcome
	Booking  *domain.BookingUpdate
}

// synthesizePayment records a gateway outcome that has no local payment row,
// e.g. when the original insert failed or raced with the webhook.
func (app *Application) synthesizePayment(
	ctx context.Context,
	logger *slog.Logger,
	ref paymentRef,
	s synthesizedPayment) error {

	if ref.UserID == nil || s.Amount <= 0 {
		logger.Warn("reconciliation skipped: cannot synthesize payment without user_id and amount")
		return nil
	}

	currency := s.Currency
	if currency == "" {
		currency = app.config.Stripe.Currency
	}

	record := &domain.Payment{
		BookingID:      *ref.BookingID,
		UserID:         *ref.UserID,
		Amount:         payment.FromCents(s.Amount),
		Currency:       currency,
		Status:         s.Status,
		Method:         s.Outcome.Method,
		StripeIntentID: s.Outcome.IntentID,
		InvoiceURL:     s.Outcome.InvoiceURL,
		ErrorMsg:       s.Outcome.ErrorMsg,
	}

	if s.ID != nil {
		record.ID = *s.ID
	}

	booking := s.Booking
	if booking == nil && s.Status == domain.PaymentStatusPaid {
		booking = domain.BookingPaidUpdate(*ref.BookingID)
	}

	err := app.paymentRepo.CreateSettled(ctx, record, booking)
	if err != nil {
		return fmt.Errorf("synthesize payment: %w", err)
	}

	logger.Info("payment synthesized from gateway outcome", "payment_id", record.ID, "status", s.Status)
	app.metrics.outcomeApplied(ctx, string(s.Status), "webhook")

	if s.Status == domain.PaymentStatusPaid {
		app.sendPaymentReceipt(ctx, record.ID)
	}

	return nil
}

// afterSettle logs the result of a transition and, when a payment has just
// become paid, sends the receipt.
func (app *Application) afterSettle(
	ctx context.Context,
	logger *slog.Logger,
	paymentId uuid.UUID,
	to domain.PaymentStatus,
	applied bool) {

	if applied {
		logger.Info("payment reconciled", "status", to)
		app.metrics.outcomeApplied(ctx, string(to), "webhook")

		if to == domain.PaymentStatusPaid {
			app.sendPaymentReceipt(ctx, paymentId)
		}

		return
	}

	current, err := app.paymentRepo.GetById(ctx, paymentId)
	if err != nil {
		logger.Warn("transition not applied and payment could not be reloaded", "status", to, "error", err)
		return
	}

	if current.Status == domain.PaymentStatusFailed && to == domain.PaymentStatusPaid {
		logger.Warn("gateway reports success for a payment recorded as failed, leaving it failed")
		return
	}

	logger.Info("transition not applied, payment already settled", "status", to, "current_status", current.Status)
}

func (app *Application) lookupReceiptURL(
	ctx context.Context,
	logger *slog.Logger,
	intent *stripe.PaymentIntent) *string {

	if intent.LatestCharge != nil && intent.LatestCharge.ReceiptURL != "" {
		receiptUrl := intent.LatestCharge.ReceiptURL
		return &receiptUrl
	}

	receiptUrl, err := app.paymentProvider.GetReceiptURL(ctx, intent.ID)
	if err != nil {
		logger.Warn("failed to fetch receipt url", "error", err)
		return nil
	}

	if receiptUrl == "" {
		return nil
	}

	return &receiptUrl
}
