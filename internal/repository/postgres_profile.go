package repository

import (
	"context"
	"errors"

	"github.com/brightnest/booking-payments/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresProfileRepository struct {
	db *pgxpool.Pool
}

func NewPostgresProfileRepository(db *pgxpool.Pool) *PostgresProfileRepository {
	return &PostgresProfileRepository{
		db: db,
	}
}

func (p *PostgresProfileRepository) GetById(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	query := `SELECT id, full_name, email FROM profiles WHERE id = $1`

	var profile domain.Profile

	err := p.db.QueryRow(ctx, query, id).Scan(&profile.ID, &profile.FullName, &profile.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return &profile, nil
}
