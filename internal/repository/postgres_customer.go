package repository

import (
	"context"
	"errors"

	"github.com/brightnest/booking-payments/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresCustomerRepository struct {
	db *pgxpool.Pool
}

func NewPostgresCustomerRepository(db *pgxpool.Pool) *PostgresCustomerRepository {
	return &PostgresCustomerRepository{
		db: db,
	}
}

func (p *PostgresCustomerRepository) GetByUserId(ctx context.Context, userId uuid.UUID) (*domain.GatewayCustomer, error) {
	query := `
		SELECT user_id, stripe_customer_id, created_at
		FROM gateway_customers
		WHERE user_id = $1
	`

	var customer domain.GatewayCustomer

	err := p.db.QueryRow(ctx, query, userId).Scan(
		&customer.UserID,
		&customer.StripeCustomerID,
		&customer.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return &customer, nil
}

func (p *PostgresCustomerRepository) Create(ctx context.Context, customer *domain.GatewayCustomer) error {
	query := `
		INSERT INTO gateway_customers (user_id, stripe_customer_id)
		VALUES ($1, $2)
		RETURNING created_at
	`

	err := p.db.QueryRow(ctx, query, customer.UserID, customer.StripeCustomerID).Scan(&customer.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrCustomerAlreadyLinked
		}

		return err
	}

	return nil
}
