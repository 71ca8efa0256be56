package staff

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, s *Staff) error
	GetByID(ctx context.Context, id uuid.UUID) (*Staff, error)
	GetByUsername(ctx context.Context, username string) (*Staff, error)
	Update(ctx context.Context, s *Staff) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	SetPermission(ctx context.Context, id uuid.UUID, permission string, value bool) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*Staff, error)
	ListActive(ctx context.Context) ([]*Staff, error)
	ListWithPermission(ctx context.Context, permission string) ([]*Staff, error)
}
