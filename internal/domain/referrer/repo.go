package referrer

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, r *Referrer) error
	GetByID(ctx context.Context, id uuid.UUID) (*Referrer, error)
	Update(ctx context.Context, r *Referrer) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*Referrer, error)
}
