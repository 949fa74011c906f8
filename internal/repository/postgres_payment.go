package repository

import (
	"context"
	"errors"

	"github.com/brightnest/booking-payments/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const paymentColumns = `
	id, booking_id, user_id, amount, currency, status, method, method_id,
	stripe_session_id, stripe_payment_intent_id, invoice_url, error_message,
	date, created_at, updated_at
`

type PostgresPaymentRepository struct {
	db *pgxpool.Pool
}

func NewPostgresPaymentRepository(db *pgxpool.Pool) *PostgresPaymentRepository {
	return &PostgresPaymentRepository{
		db: db,
	}
}

func (p *PostgresPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	return insertPayment(ctx, p.db, payment)
}

func (p *PostgresPaymentRepository) CreateSettled(
	ctx context.Context,
	payment *domain.Payment,
	booking *domain.BookingUpdate) error {

	return runInTx(ctx, p.db, func(tx pgx.Tx) error {
		err := insertPayment(ctx, tx, payment)
		if err != nil {
			return err
		}

		if booking == nil {
			return nil
		}

		return applyBookingUpdate(ctx, tx, *booking)
	})
}

// insertPayment keeps a preset payment id, so that a record synthesized from
// gateway metadata matches the id the gateway knows it by.
func insertPayment(ctx context.Context, q querier, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (
			id,
			booking_id,
			user_id,
			amount,
			currency,
			status,
			method,
			method_id,
			stripe_session_id,
			stripe_payment_intent_id,
			invoice_url,
			error_message
		)
		VALUES (COALESCE($1, gen_random_uuid()), $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, date, created_at, updated_at
	`

	var id *uuid.UUID
	if payment.ID != uuid.Nil {
		id = &payment.ID
	}

	return q.QueryRow(
		ctx,
		query,
		id,
		payment.BookingID,
		payment.UserID,
		payment.Amount,
		payment.Currency,
		string(payment.Status),
		payment.Method,
		payment.MethodID,
		payment.StripeSessionID,
		payment.StripeIntentID,
		payment.InvoiceURL,
		payment.ErrorMsg,
	).Scan(&payment.ID, &payment.Date, &payment.CreatedAt, &payment.UpdatedAt)
}

func (p *PostgresPaymentRepository) GetById(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	return scanPayment(p.db.QueryRow(ctx, query, id))
}

func (p *PostgresPaymentRepository) GetByIdAndUserId(
	ctx context.Context,
	id,
	userId uuid.UUID) (*domain.Payment, error) {

	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1 AND user_id = $2`

	return scanPayment(p.db.QueryRow(ctx, query, id, userId))
}

func (p *PostgresPaymentRepository) GetByIntentId(ctx context.Context, intentId string) (*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE stripe_payment_intent_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	return scanPayment(p.db.QueryRow(ctx, query, intentId))
}

func (p *PostgresPaymentRepository) GetLatestPendingByBookingId(
	ctx context.Context,
	bookingId uuid.UUID) (*domain.Payment, error) {

	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE booking_id = $1 AND status = 'pending'
		ORDER BY created_at DESC
		LIMIT 1
	`

	return scanPayment(p.db.QueryRow(ctx, query, bookingId))
}

func (p *PostgresPaymentRepository) GetAllByUserId(ctx context.Context, userId uuid.UUID) ([]domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := p.db.Query(ctx, query, userId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := []domain.Payment{}

	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}

		payments = append(payments, *payment)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return payments, nil
}

func (p *PostgresPaymentRepository) AttachSession(ctx context.Context, id uuid.UUID, sessionId string) error {
	query := `
		UPDATE payments
		SET stripe_session_id = $2, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := p.db.Exec(ctx, query, id, sessionId)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}

	return nil
}

func (p *PostgresPaymentRepository) AttachIntent(ctx context.Context, id uuid.UUID, intentId string) error {
	query := `
		UPDATE payments
		SET stripe_payment_intent_id = $2, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := p.db.Exec(ctx, query, id, intentId)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}

	return nil
}

func (p *PostgresPaymentRepository) Transition(
	ctx context.Context,
	id uuid.UUID,
	to domain.PaymentStatus,
	outcome domain.PaymentOutcome) (bool, error) {

	return transitionPayment(ctx, p.db, id, to, outcome)
}

func (p *PostgresPaymentRepository) Settle(
	ctx context.Context,
	id uuid.UUID,
	to domain.PaymentStatus,
	outcome domain.PaymentOutcome,
	booking *domain.BookingUpdate) (bool, error) {

	var applied bool

	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		var err error

		applied, err = transitionPayment(ctx, tx, id, to, outcome)
		if err != nil {
			return err
		}

		if booking == nil {
			return nil
		}

		// A rejected transition still mirrors on the booking when the payment
		// already holds the target status, so replays repair the booking. A
		// payment settled the other way leaves the booking alone.
		if !applied {
			var current domain.PaymentStatus

			err = tx.QueryRow(ctx, `SELECT status FROM payments WHERE id = $1 FOR SHARE`, id).Scan(&current)
			if err != nil {
				return err
			}

			if current != to {
				return nil
			}
		}

		return applyBookingUpdate(ctx, tx, *booking)
	})
	if err != nil {
		return false, err
	}

	return applied, nil
}

// transitionPayment only touches the row while its status is one of the
// allowed sources for the target status, so concurrent or replayed updates
// cannot move a payment backwards.
func transitionPayment(
	ctx context.Context,
	q querier,
	id uuid.UUID,
	to domain.PaymentStatus,
	outcome domain.PaymentOutcome) (bool, error) {

	sources := domain.TransitionSources(to)
	if len(sources) == 0 {
		return false, nil
	}

	from := make([]string, 0, len(sources))
	for _, s := range sources {
		from = append(from, string(s))
	}

	query := `
		UPDATE payments
		SET status = $2,
			stripe_payment_intent_id = COALESCE($3, stripe_payment_intent_id),
			method = COALESCE($4, method),
			invoice_url = COALESCE($5, invoice_url),
			error_message = COALESCE($6, error_message),
			date = CASE WHEN $2 = 'paid' THEN NOW() ELSE date END,
			updated_at = NOW()
		WHERE id = $1 AND status = ANY($7)
	`

	tag, err := q.Exec(
		ctx,
		query,
		id,
		string(to),
		outcome.IntentID,
		outcome.Method,
		outcome.InvoiceURL,
		outcome.ErrorMsg,
		from,
	)
	if err != nil {
		return false, err
	}

	if tag.RowsAffected() > 0 {
		return true, nil
	}

	var exists bool

	err = q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM payments WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, err
	}

	if !exists {
		return false, domain.ErrRecordNotFound
	}

	return false, nil
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var payment domain.Payment

	err := row.Scan(
		&payment.ID,
		&payment.BookingID,
		&payment.UserID,
		&payment.Amount,
		&payment.Currency,
		&payment.Status,
		&payment.Method,
		&payment.MethodID,
		&payment.StripeSessionID,
		&payment.StripeIntentID,
		&payment.InvoiceURL,
		&payment.ErrorMsg,
		&payment.Date,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return &payment, nil
}
