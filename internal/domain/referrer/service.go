package referrer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("referrer not found")
	ErrInvalid  = errors.New("invalid referrer")
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput carries the writable referrer fields. Pointer fields
// distinguish "omitted" from zero values so defaults apply correctly.
type CreateInput struct {
	Name            string   `json:"name"`
	ContactNumber   string   `json:"contactNumber"`
	CommissionType  string   `json:"commissionType"`
	CommissionValue *float64 `json:"commissionValue"`
	IsActive        *bool    `json:"isActive"`
}

func validateCommission(commissionType string, value float64) error {
	if commissionType != CommissionFlat && commissionType != CommissionPercentage {
		return fmt.Errorf("%w: commission type must be %q or %q", ErrInvalid, CommissionFlat, CommissionPercentage)
	}
	if value < 0 {
		return fmt.Errorf("%w: commission value cannot be negative", ErrInvalid)
	}
	if commissionType == CommissionPercentage && value > 100 {
		return fmt.Errorf("%w: percentage must be between 0 and 100", ErrInvalid)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Referrer, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalid)
	}
	contact := strings.TrimSpace(in.ContactNumber)
	if contact == "" {
		return nil, fmt.Errorf("%w: contact number is required", ErrInvalid)
	}

	commissionType := in.CommissionType
	if commissionType == "" {
		commissionType = CommissionFlat
	}
	var commissionValue float64
	if in.CommissionValue != nil {
		commissionValue = *in.CommissionValue
	}
	if err := validateCommission(commissionType, commissionValue); err != nil {
		return nil, err
	}

	ref := &Referrer{
		Name:            name,
		ContactNumber:   contact,
		CommissionType:  commissionType,
		CommissionValue: commissionValue,
		IsActive:        true,
	}
	if in.IsActive != nil {
		ref.IsActive = *in.IsActive
	}

	if err := s.repo.Create(ctx, ref); err != nil {
		return nil, err
	}
	return ref, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Referrer, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*Referrer, error) {
	return s.repo.List(ctx)
}

// Update applies the provided fields onto the stored referrer and returns the
// updated document. Omitted fields keep their stored values.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in CreateInput) (*Referrer, error) {
	ref, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(in.Name); name != "" {
		ref.Name = name
	}
	if contact := strings.TrimSpace(in.ContactNumber); contact != "" {
		ref.ContactNumber = contact
	}
	if in.CommissionType != "" {
		ref.CommissionType = in.CommissionType
	}
	if in.CommissionValue != nil {
		ref.CommissionValue = *in.CommissionValue
	}
	if in.IsActive != nil {
		ref.IsActive = *in.IsActive
	}

	if err := validateCommission(ref.CommissionType, ref.CommissionValue); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, ref); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// Activate marks a referrer active. Activating an already-active referrer
// succeeds without change.
func (s *Service) Activate(ctx context.Context, id uuid.UUID) error {
	return s.repo.SetActive(ctx, id, true)
}

// Deactivate marks a referrer inactive. Idempotent like Activate.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.repo.SetActive(ctx, id, false)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
