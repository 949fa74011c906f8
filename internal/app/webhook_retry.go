package app

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/brightnest/booking-payments/internal/domain"
	"github.com/cenkalti/backoff/v5"
	"github.com/stripe/stripe-go/v82"
)

func newRetryBackOff(cfg WebhookConfig) *backoff.ExponentialBackOff {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     cfg.InitialBackoff,
		RandomizationFactor: 0.2,
		Multiplier:          2,
		MaxInterval:         cfg.MaxBackoff,
	}
	b.Reset()

	return b
}

// scheduleWebhookRetry stores the failure of one processing attempt. Events
// that cannot succeed on retry, or that used up their attempts, are
// dead-lettered.
func (app *Application) scheduleWebhookRetry(
	ctx context.Context,
	logger *slog.Logger,
	event *domain.WebhookEvent,
	procErr error) {

	attempt := event.Attempts + 1
	errMsg := procErr.Error()

	var permanent *backoff.PermanentError
	if errors.As(procErr, &permanent) || attempt >= app.config.Webhook.MaxAttempts {
		err := app.webhookEventRepo.MarkDead(ctx, event.EventID, errMsg)
		if err != nil {
			logger.Error("failed to dead-letter webhook event", "error", err)
			return
		}

		app.metrics.webhookDead(ctx, event.EventType)
		logger.Error("webhook event dead-lettered", "attempts", attempt, "error", errMsg)

		return
	}

	next := time.Now().Add(app.retryDelay(attempt))

	err := app.webhookEventRepo.MarkFailed(ctx, event.EventID, errMsg, next)
	if err != nil {
		logger.Error("failed to schedule webhook event retry", "error", err)
		return
	}

	logger.Info("webhook event retry scheduled", "attempt", attempt, "next_attempt_at", next)
}

// StartWebhookRetryWorker polls for failed webhook events until ctx is done.
func (app *Application) StartWebhookRetryWorker(ctx context.Context) {
	app.wg.Add(1)

	go func() {
		defer app.wg.Done()

		defer func() {
			if err := recover(); err != nil {
				app.logger.Error("panic in webhook retry worker", "panic", err)
			}
		}()

		ticker := time.NewTicker(app.config.Webhook.PollInterval)
		defer ticker.Stop()

		app.logger.Info("webhook retry worker started", "interval", app.config.Webhook.PollInterval)

		for {
			select {
			case <-ctx.Done():
				app.logger.Info("webhook retry worker stopped")
				return
			case <-ticker.C:
				app.RetryDueWebhookEvents(ctx)
			}
		}
	}()
}

// RetryDueWebhookEvents reprocesses one batch of failed events whose next
// attempt is due and returns how many were claimed.
func (app *Application) RetryDueWebhookEvents(ctx context.Context) int {
	events, err := app.webhookEventRepo.ClaimDue(ctx, app.config.Webhook.BatchSize, app.config.Webhook.Lease)
	if err != nil {
		app.logger.Error("failed to claim due webhook events", "error", err)
		return 0
	}

	for i := range events {
		record := &events[i]
		logger := app.logger.With("event_id", record.EventID, "event_type", record.EventType, "attempt", record.Attempts+1)

		var event stripe.Event

		err := json.Unmarshal(record.Payload, &event)
		if err != nil {
			app.scheduleWebhookRetry(ctx, logger, record, backoff.Permanent(err))
			app.metrics.webhookRetried(ctx, "invalid")
			continue
		}

		err = app.reconcileEvent(ctx, logger, event)
		if err != nil {
			app.scheduleWebhookRetry(ctx, logger, record, err)
			app.metrics.webhookRetried(ctx, "failed")
			continue
		}

		err = app.webhookEventRepo.MarkProcessed(ctx, record.EventID)
		if err != nil {
			logger.Error("failed to mark webhook event as processed", "error", err)
		}

		app.metrics.webhookRetried(ctx, "processed")
		logger.Info("webhook event reprocessed")
	}

	return len(events)
}
