package domain

import (
	"context"
	"time"
)

type WebhookEventStatus string

const (
	WebhookEventReceived  WebhookEventStatus = "received"
	WebhookEventProcessed WebhookEventStatus = "processed"
	WebhookEventFailed    WebhookEventStatus = "failed"
	WebhookEventDead      WebhookEventStatus = "dead"
)

// WebhookEvent is the local ledger entry for a verified gateway event.
type WebhookEvent struct {
	EventID       string
	EventType     string
	Payload       []byte
	Status        WebhookEventStatus
	Attempts      int
	LastError     *string
	NextAttemptAt *time.Time
	ProcessedAt   *time.Time
	CreatedAt     time.Time
}

type WebhookEventRepository interface {
	// Record stores a newly received event. It returns ErrEventAlreadyRecorded
	// when an event with the same id is already in the ledger.
	Record(ctx context.Context, event *WebhookEvent) error
	GetByEventId(ctx context.Context, eventId string) (*WebhookEvent, error)
	MarkProcessed(ctx context.Context, eventId string) error
	// MarkFailed increments the attempt counter and schedules the next attempt.
	MarkFailed(ctx context.Context, eventId string, errMsg string, nextAttemptAt time.Time) error
	MarkDead(ctx context.Context, eventId string, errMsg string) error
	// ClaimDue leases up to limit failed events whose next attempt is due,
	// plus events left in received for longer than lease, by pushing their
	// next attempt forward by lease.
	ClaimDue(ctx context.Context, limit int, lease time.Duration) ([]WebhookEvent, error)
}
