package staff

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("staff not found")
	ErrInvalid       = errors.New("invalid staff")
	ErrUsernameTaken = errors.New("username already exists")
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput carries the writable staff fields. The permissions object
// replaces the stored set wholesale: flags missing from the request come
// out false.
type CreateInput struct {
	Name         string      `json:"name"`
	Username     string      `json:"username"`
	MobileNumber string      `json:"mobileNumber"`
	Permissions  Permissions `json:"permissions"`
	IsActive     *bool       `json:"isActive"`
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Staff, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalid)
	}
	username := strings.ToLower(strings.TrimSpace(in.Username))
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalid)
	}
	mobile := strings.TrimSpace(in.MobileNumber)
	if mobile == "" {
		return nil, fmt.Errorf("%w: mobile number is required", ErrInvalid)
	}

	// Friendlier than waiting for the unique index; the index still backs
	// this up under concurrent creates.
	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	member := &Staff{
		Name:         name,
		Username:     username,
		MobileNumber: mobile,
		Permissions:  in.Permissions,
		IsActive:     true,
	}
	if in.IsActive != nil {
		member.IsActive = *in.IsActive
	}

	if err := s.repo.Create(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Staff, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByUsername(ctx context.Context, username string) (*Staff, error) {
	return s.repo.GetByUsername(ctx, strings.ToLower(username))
}

func (s *Service) List(ctx context.Context) ([]*Staff, error) {
	return s.repo.List(ctx)
}

func (s *Service) ListActive(ctx context.Context) ([]*Staff, error) {
	return s.repo.ListActive(ctx)
}

// ListWithPermission returns the active staff holding the named flag.
func (s *Service) ListWithPermission(ctx context.Context, permission string) ([]*Staff, error) {
	if !ValidPermission(permission) {
		return nil, fmt.Errorf("%w: invalid permission type", ErrInvalid)
	}
	return s.repo.ListWithPermission(ctx, permission)
}

// Update applies provided identity fields and replaces the permission set in
// full, then returns the updated document.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in CreateInput) (*Staff, error) {
	member, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(in.Name); name != "" {
		member.Name = name
	}
	if username := strings.ToLower(strings.TrimSpace(in.Username)); username != "" {
		if username != member.Username {
			if other, err := s.repo.GetByUsername(ctx, username); err == nil && other.ID != id {
				return nil, ErrUsernameTaken
			} else if err != nil && !errors.Is(err, ErrNotFound) {
				return nil, err
			}
		}
		member.Username = username
	}
	if mobile := strings.TrimSpace(in.MobileNumber); mobile != "" {
		member.MobileNumber = mobile
	}
	member.Permissions = in.Permissions
	if in.IsActive != nil {
		member.IsActive = *in.IsActive
	}

	if err := s.repo.Update(ctx, member); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Activate(ctx context.Context, id uuid.UUID) error {
	return s.repo.SetActive(ctx, id, true)
}

func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.repo.SetActive(ctx, id, false)
}

// PatchPermission flips a single whitelisted flag. value is a pointer so a
// request missing the field (or sending a non-boolean) is rejected.
func (s *Service) PatchPermission(ctx context.Context, id uuid.UUID, permission string, value *bool) (*Staff, error) {
	if !ValidPermission(permission) {
		return nil, fmt.Errorf("%w: invalid permission type", ErrInvalid)
	}
	if value == nil {
		return nil, fmt.Errorf("%w: permission value must be boolean", ErrInvalid)
	}
	if err := s.repo.SetPermission(ctx, id, permission, *value); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
