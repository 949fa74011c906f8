package repository

import (
	"context"
	"errors"
	"time"

	"github.com/brightnest/booking-payments/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const webhookEventColumns = `
	event_id, event_type, payload, status, attempts, last_error, next_attempt_at, processed_at, created_at
`

type PostgresWebhookEventRepository struct {
	db *pgxpool.Pool
}

func NewPostgresWebhookEventRepository(db *pgxpool.Pool) *PostgresWebhookEventRepository {
	return &PostgresWebhookEventRepository{
		db: db,
	}
}

func (p *PostgresWebhookEventRepository) Record(ctx context.Context, event *domain.WebhookEvent) error {
	query := `
		INSERT INTO webhook_events (event_id, event_type, payload, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (event_id) DO NOTHING
		RETURNING status, attempts, created_at
	`

	err := p.db.QueryRow(
		ctx,
		query,
		event.EventID,
		event.EventType,
		event.Payload,
		string(domain.WebhookEventReceived),
	).Scan(&event.Status, &event.Attempts, &event.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrEventAlreadyRecorded
		}

		return err
	}

	return nil
}

func (p *PostgresWebhookEventRepository) GetByEventId(ctx context.Context, eventId string) (*domain.WebhookEvent, error) {
	query := `SELECT ` + webhookEventColumns + ` FROM webhook_events WHERE event_id = $1`

	return scanWebhookEvent(p.db.QueryRow(ctx, query, eventId))
}

func (p *PostgresWebhookEventRepository) MarkProcessed(ctx context.Context, eventId string) error {
	query := `
		UPDATE webhook_events
		SET status = 'processed',
			attempts = attempts + 1,
			last_error = NULL,
			next_attempt_at = NULL,
			processed_at = NOW()
		WHERE event_id = $1
	`

	return p.exec(ctx, query, eventId)
}

func (p *PostgresWebhookEventRepository) MarkFailed(
	ctx context.Context,
	eventId string,
	errMsg string,
	nextAttemptAt time.Time) error {

	query := `
		UPDATE webhook_events
		SET status = 'failed',
			attempts = attempts + 1,
			last_error = $2,
			next_attempt_at = $3
		WHERE event_id = $1
	`

	return p.exec(ctx, query, eventId, errMsg, nextAttemptAt)
}

func (p *PostgresWebhookEventRepository) MarkDead(ctx context.Context, eventId string, errMsg string) error {
	query := `
		UPDATE webhook_events
		SET status = 'dead',
			attempts = attempts + 1,
			last_error = $2,
			next_attempt_at = NULL
		WHERE event_id = $1
	`

	return p.exec(ctx, query, eventId, errMsg)
}

// ClaimDue leases due events by pushing next_attempt_at forward. Failed
// events are due once next_attempt_at passes. Events still marked received
// after a full lease were abandoned mid-processing and are claimed as
// failed. Rows locked by another worker are skipped, so each event is
// claimed by one worker.
func (p *PostgresWebhookEventRepository) ClaimDue(
	ctx context.Context,
	limit int,
	lease time.Duration) ([]domain.WebhookEvent, error) {

	query := `
		UPDATE webhook_events
		SET status = 'failed',
			next_attempt_at = NOW() + make_interval(secs => $2)
		WHERE event_id IN (
			SELECT event_id
			FROM webhook_events
			WHERE (status = 'failed' AND next_attempt_at <= NOW())
				OR (status = 'received' AND created_at <= NOW() - make_interval(secs => $2))
			ORDER BY COALESCE(next_attempt_at, created_at)
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + webhookEventColumns

	rows, err := p.db.Query(ctx, query, limit, lease.Seconds())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.WebhookEvent

	for rows.Next() {
		event, err := scanWebhookEvent(rows)
		if err != nil {
			return nil, err
		}

		events = append(events, *event)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

func (p *PostgresWebhookEventRepository) exec(ctx context.Context, query string, args ...any) error {
	tag, err := p.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}

	return nil
}

func scanWebhookEvent(row pgx.Row) (*domain.WebhookEvent, error) {
	var event domain.WebhookEvent

	err := row.Scan(
		&event.EventID,
		&event.EventType,
		&event.Payload,
		&event.Status,
		&event.Attempts,
		&event.LastError,
		&event.NextAttemptAt,
		&event.ProcessedAt,
		&event.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return &event, nil
}
