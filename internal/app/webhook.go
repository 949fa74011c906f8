package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/brightnest/booking-payments/api"
	"github.com/brightnest/booking-payments/internal/domain"
)

const maxWebhookBodyBytes = 65_536

// StripeWebhookHandler verifies and records a gateway event, then reconciles
// local state with it. Once the signature is valid the gateway always gets a
// 200: local failures are queued for the retry worker instead of relying on
// gateway redelivery.
func (app *Application) StripeWebhookHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes))
	if err != nil {
		app.badRequestResponse(w, r, errors.New("unable to read request body"))
		return
	}

	event, err := app.paymentProvider.ConstructEvent(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		logger.Warn("webhook signature verification failed", "error", err)
		app.errorResponse(w, r, http.StatusBadRequest, ErrInvalidSignature)
		return
	}

	// A verified event must reach the ledger and be reconciled even if the
	// gateway drops the connection mid-request.
	ctx := context.WithoutCancel(r.Context())

	logger = logger.With("event_id", event.ID, "event_type", event.Type)
	eventType := string(event.Type)

	record := &domain.WebhookEvent{
		EventID:   event.ID,
		EventType: eventType,
		Payload:   payload,
	}

	recorded := true

	err = app.webhookEventRepo.Record(ctx, record)
	switch {
	case errors.Is(err, domain.ErrEventAlreadyRecorded):
		logger.Info("webhook event already received, skipping")
		app.metrics.webhookEvent(ctx, eventType, "duplicate")
		app.acknowledgeWebhook(w, r)
		return
	case err != nil:
		// Reconciliation is idempotent per resulting state, so the event is
		// still applied. Without a ledger row it cannot be retried.
		logger.Error("failed to record webhook event", "error", err)
		recorded = false
	}

	err = app.reconcileEvent(ctx, logger, event)
	switch {
	case err == nil:
		app.metrics.webhookEvent(ctx, eventType, "processed")

		if recorded {
			markErr := app.webhookEventRepo.MarkProcessed(ctx, event.ID)
			if markErr != nil {
				logger.Error("failed to mark webhook event as processed", "error", markErr)
			}
		}
	case recorded:
		app.metrics.webhookEvent(ctx, eventType, "failed")
		logger.Error("webhook event processing failed, scheduling retry", "error", err)
		app.scheduleWebhookRetry(ctx, logger, record, err)
	default:
		app.metrics.webhookEvent(ctx, eventType, "failed")
		logger.Error("webhook event processing failed and cannot be retried", "error", err)
	}

	app.acknowledgeWebhook(w, r)
}

func (app *Application) acknowledgeWebhook(w http.ResponseWriter, r *http.Request) {
	err := app.writeJSON(w, http.StatusOK, api.WebhookResponse{Received: true}, nil)
	if err != nil {
		app.logError(r, err)
	}
}

// retryDelay is the wait before the given attempt of a failed event,
// growing exponentially up to the configured maximum.
func (app *Application) retryDelay(attempt int) time.Duration {
	b := newRetryBackOff(app.config.Webhook)

	var delay time.Duration
	for i := 0; i < attempt; i++ {
		delay = b.NextBackOff()
	}

	return delay
}
