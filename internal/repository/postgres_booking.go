package repository

import (
	"context"
	"errors"

	"github.com/brightnest/booking-payments/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresBookingRepository struct {
	db *pgxpool.Pool
}

func NewPostgresBookingRepository(db *pgxpool.Pool) *PostgresBookingRepository {
	return &PostgresBookingRepository{
		db: db,
	}
}

func (p *PostgresBookingRepository) GetByIdAndUserId(
	ctx context.Context,
	id,
	userId uuid.UUID) (*domain.Booking, error) {

	query := `
		SELECT id, user_id, service_type, date, status, payment_status, created_at, updated_at
		FROM bookings
		WHERE id = $1 AND user_id = $2
	`

	var booking domain.Booking

	err := p.db.QueryRow(ctx, query, id, userId).Scan(
		&booking.ID,
		&booking.UserID,
		&booking.ServiceType,
		&booking.Date,
		&booking.Status,
		&booking.PaymentStatus,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return &booking, nil
}

func (p *PostgresBookingRepository) Apply(ctx context.Context, update domain.BookingUpdate) error {
	return applyBookingUpdate(ctx, p.db, update)
}

// applyBookingUpdate never moves a booking away from payment_status 'paid';
// a stale failure or a new attempt on a settled booking leaves it as is.
func applyBookingUpdate(ctx context.Context, q querier, update domain.BookingUpdate) error {
	query := `
		UPDATE bookings
		SET payment_status = $2,
			status = COALESCE($3, status),
			updated_at = NOW()
		WHERE id = $1 AND payment_status <> 'paid'
	`

	var status *string
	if update.Status != nil {
		s := string(*update.Status)
		status = &s
	}

	_, err := q.Exec(ctx, query, update.BookingID, string(update.PaymentStatus), status)
	return err
}
