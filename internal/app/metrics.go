package app

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type paymentMetrics struct {
	attempts        metric.Int64Counter
	outcomes        metric.Int64Counter
	webhookEvents   metric.Int64Counter
	webhookRetries  metric.Int64Counter
	deadLettered    metric.Int64Counter
	customerLinking metric.Int64Counter
}

// newPaymentMetrics registers the counters on the global meter provider. With
// no provider installed the instruments are no-ops.
func newPaymentMetrics() *paymentMetrics {
	meter := otel.Meter(serviceName)

	m := &paymentMetrics{}

	m.attempts, _ = meter.Int64Counter(
		"payments.attempts",
		metric.WithDescription("Payment attempts started, by flow"),
	)
	m.outcomes, _ = meter.Int64Counter(
		"payments.outcomes",
		metric.WithDescription("Payment status transitions applied, by status and source"),
	)
	m.webhookEvents, _ = meter.Int64Counter(
		"payments.webhook.events",
		metric.WithDescription("Verified webhook events, by type and result"),
	)
	m.webhookRetries, _ = meter.Int64Counter(
		"payments.webhook.retries",
		metric.WithDescription("Webhook events reprocessed by the retry worker, by result"),
	)
	m.deadLettered, _ = meter.Int64Counter(
		"payments.webhook.dead",
		metric.WithDescription("Webhook events given up on after the maximum number of attempts"),
	)
	m.customerLinking, _ = meter.Int64Counter(
		"payments.customers.linked",
		metric.WithDescription("Gateway customer lookups, by result"),
	)

	return m
}

func (m *paymentMetrics) attemptStarted(ctx context.Context, flow string) {
	m.attempts.Add(ctx, 1, metric.WithAttributes(attribute.String("flow", flow)))
}

func (m *paymentMetrics) outcomeApplied(ctx context.Context, status, source string) {
	m.outcomes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", status),
		attribute.String("source", source),
	))
}

func (m *paymentMetrics) webhookEvent(ctx context.Context, eventType, result string) {
	m.webhookEvents.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", eventType),
		attribute.String("result", result),
	))
}

func (m *paymentMetrics) webhookRetried(ctx context.Context, result string) {
	m.webhookRetries.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

func (m *paymentMetrics) webhookDead(ctx context.Context, eventType string) {
	m.deadLettered.Add(ctx, 1, metric.WithAttributes(attribute.String("type", eventType)))
}

func (m *paymentMetrics) customerLinked(ctx context.Context, result string) {
	m.customerLinking.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}
