package catalog

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, t *LabTest) error
	GetByName(ctx context.Context, name string) (*LabTest, error)
	GetByTestID(ctx context.Context, testID uuid.UUID) (*LabTest, error)
	GetByID(ctx context.Context, id uuid.UUID) (*LabTest, error)
	Update(ctx context.Context, t *LabTest) error
	DeleteByTestID(ctx context.Context, testID uuid.UUID) error
	List(ctx context.Context) ([]*LabTest, error)
	ListCategories(ctx context.Context) ([]*TestCategory, error)
	ListCatalog(ctx context.Context) ([]*CatalogEntry, error)
	ListActiveSchemas(ctx context.Context, testID uuid.UUID) ([]*TestSchema, error)
}
