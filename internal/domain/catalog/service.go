package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("test not found")
	ErrInvalid   = errors.New("invalid test")
	ErrNameTaken = errors.New("test name already exists")
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput carries the writable lab-test fields. The id references are
// strings so malformed keys produce a validation error instead of a bind
// failure; empty means absent.
type CreateInput struct {
	Name       string `json:"name"`
	TestID     string `json:"testId"`
	CategoryID string `json:"categoryId"`
	SchemaID   string `json:"schemaId"`
	Price      Price  `json:"price"`
}

// parseOptionalID converts an optional string key to a uuid, flagging
// malformed values with the field's name.
func parseOptionalID(value, field string) (*uuid.UUID, error) {
	if value == "" {
		return nil, nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid %s format", ErrInvalid, field)
	}
	return &id, nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*LabTest, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: test name is required", ErrInvalid)
	}
	if in.Price < 0 {
		return nil, fmt.Errorf("%w: price cannot be negative", ErrInvalid)
	}

	testID, err := parseOptionalID(in.TestID, "test ID")
	if err != nil {
		return nil, err
	}
	categoryID, err := parseOptionalID(in.CategoryID, "category ID")
	if err != nil {
		return nil, err
	}
	schemaID, err := parseOptionalID(in.SchemaID, "schema ID")
	if err != nil {
		return nil, err
	}

	// The unique index on name still catches concurrent creates.
	if _, err := s.repo.GetByName(ctx, name); err == nil {
		return nil, ErrNameTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	t := &LabTest{
		Name:       name,
		TestID:     testID,
		CategoryID: categoryID,
		SchemaID:   schemaID,
		Price:      float64(in.Price),
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) GetByTestID(ctx context.Context, testID uuid.UUID) (*LabTest, error) {
	return s.repo.GetByTestID(ctx, testID)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*LabTest, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*LabTest, error) {
	return s.repo.List(ctx)
}

// PatchInput updates price and/or schema on a test. SchemaID distinguishes
// absent (nil) from clear (pointer to empty string).
type PatchInput struct {
	Price    *Price  `json:"price"`
	SchemaID *string `json:"schemaId"`
}

// Patch updates a test addressed by its external testId. At least one of
// price or schemaId must be provided.
func (s *Service) Patch(ctx context.Context, testID uuid.UUID, in PatchInput) (*LabTest, error) {
	if in.Price == nil && in.SchemaID == nil {
		return nil, fmt.Errorf("%w: at least one field (price or schemaId) is required", ErrInvalid)
	}

	t, err := s.repo.GetByTestID(ctx, testID)
	if err != nil {
		return nil, err
	}

	if in.Price != nil {
		if *in.Price < 0 {
			return nil, fmt.Errorf("%w: invalid price value", ErrInvalid)
		}
		t.Price = float64(*in.Price)
	}
	if in.SchemaID != nil {
		schemaID, err := parseOptionalID(*in.SchemaID, "schema ID")
		if err != nil {
			return nil, err
		}
		t.SchemaID = schemaID
	}

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	return s.repo.GetByTestID(ctx, testID)
}

func (s *Service) DeleteByTestID(ctx context.Context, testID uuid.UUID) error {
	return s.repo.DeleteByTestID(ctx, testID)
}

func (s *Service) ListCategories(ctx context.Context) ([]*TestCategory, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) ListCatalog(ctx context.Context) ([]*CatalogEntry, error) {
	return s.repo.ListCatalog(ctx)
}

func (s *Service) ListActiveSchemas(ctx context.Context, testID uuid.UUID) ([]*TestSchema, error) {
	return s.repo.ListActiveSchemas(ctx, testID)
}
