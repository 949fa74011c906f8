package repository

import (
	"context"
	"errors"

	"github.com/brightnest/booking-payments/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const paymentMethodColumns = `
	id, user_id, stripe_payment_method_id, brand, last4, exp_month, exp_year, is_default, created_at
`

type PostgresPaymentMethodRepository struct {
	db *pgxpool.Pool
}

func NewPostgresPaymentMethodRepository(db *pgxpool.Pool) *PostgresPaymentMethodRepository {
	return &PostgresPaymentMethodRepository{
		db: db,
	}
}

func (p *PostgresPaymentMethodRepository) GetByIdAndUserId(
	ctx context.Context,
	id,
	userId uuid.UUID) (*domain.PaymentMethod, error) {

	query := `SELECT ` + paymentMethodColumns + ` FROM payment_methods WHERE id = $1 AND user_id = $2`

	return scanPaymentMethod(p.db.QueryRow(ctx, query, id, userId))
}

func (p *PostgresPaymentMethodRepository) GetAllByUserId(
	ctx context.Context,
	userId uuid.UUID) ([]domain.PaymentMethod, error) {

	query := `
		SELECT ` + paymentMethodColumns + `
		FROM payment_methods
		WHERE user_id = $1
		ORDER BY is_default DESC, created_at ASC, id ASC
	`

	rows, err := p.db.Query(ctx, query, userId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	methods := []domain.PaymentMethod{}

	for rows.Next() {
		method, err := scanPaymentMethod(rows)
		if err != nil {
			return nil, err
		}

		methods = append(methods, *method)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return methods, nil
}

func (p *PostgresPaymentMethodRepository) Create(ctx context.Context, method *domain.PaymentMethod) error {
	query := `
		INSERT INTO payment_methods (
			user_id,
			stripe_payment_method_id,
			brand,
			last4,
			exp_month,
			exp_year,
			is_default
		)
		VALUES (
			$1, $2, $3, $4, $5, $6,
			$7 AND NOT EXISTS (
				SELECT 1 FROM payment_methods WHERE user_id = $1 AND is_default
			)
		)
		RETURNING id, is_default, created_at
	`

	insert := func(allowDefault bool) error {
		return p.db.QueryRow(
			ctx,
			query,
			method.UserID,
			method.StripePaymentMethodID,
			method.Brand,
			method.Last4,
			method.ExpMonth,
			method.ExpYear,
			allowDefault,
		).Scan(&method.ID, &method.IsDefault, &method.CreatedAt)
	}

	err := insert(true)
	// A concurrent first insert for the same user won the default slot.
	if isUniqueViolation(err) {
		err = insert(false)
	}

	return err
}

func (p *PostgresPaymentMethodRepository) SetDefault(ctx context.Context, id, userId uuid.UUID) error {
	return runInTx(ctx, p.db, func(tx pgx.Tx) error {
		var exists bool

		err := tx.QueryRow(
			ctx,
			`SELECT EXISTS (SELECT 1 FROM payment_methods WHERE id = $1 AND user_id = $2)`,
			id,
			userId,
		).Scan(&exists)
		if err != nil {
			return err
		}

		if !exists {
			return domain.ErrRecordNotFound
		}

		_, err = tx.Exec(
			ctx,
			`UPDATE payment_methods SET is_default = FALSE WHERE user_id = $1 AND is_default AND id <> $2`,
			userId,
			id,
		)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `UPDATE payment_methods SET is_default = TRUE WHERE id = $1`, id)
		return err
	})
}

func (p *PostgresPaymentMethodRepository) Delete(ctx context.Context, id, userId uuid.UUID) error {
	return runInTx(ctx, p.db, func(tx pgx.Tx) error {
		var wasDefault bool

		err := tx.QueryRow(
			ctx,
			`DELETE FROM payment_methods WHERE id = $1 AND user_id = $2 RETURNING is_default`,
			id,
			userId,
		).Scan(&wasDefault)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrRecordNotFound
			}

			return err
		}

		if !wasDefault {
			return nil
		}

		query := `
			UPDATE payment_methods
			SET is_default = TRUE
			WHERE id = (
				SELECT id FROM payment_methods
				WHERE user_id = $1
				ORDER BY created_at ASC, id ASC
				LIMIT 1
			)
		`

		_, err = tx.Exec(ctx, query, userId)
		return err
	})
}

func scanPaymentMethod(row pgx.Row) (*domain.PaymentMethod, error) {
	var method domain.PaymentMethod

	err := row.Scan(
		&method.ID,
		&method.UserID,
		&method.StripePaymentMethodID,
		&method.Brand,
		&method.Last4,
		&method.ExpMonth,
		&method.ExpYear,
		&method.IsDefault,
		&method.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return &method, nil
}
