package domain

import (
	"context"

	"github.com/google/uuid"
)

type Profile struct {
	ID       uuid.UUID
	FullName *string
	Email    *string
}

type ProfileRepository interface {
	GetById(ctx context.Context, id uuid.UUID) (*Profile, error)
}
