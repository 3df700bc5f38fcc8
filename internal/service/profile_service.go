package service

import (
	"context"
	"errors"
	"strings"

	"github.com/spec-kit/employee-portal/internal/access"
	"github.com/spec-kit/employee-portal/internal/domain"
	"github.com/spec-kit/employee-portal/internal/identity"
	"github.com/spec-kit/employee-portal/internal/repository"
	apperrors "github.com/spec-kit/employee-portal/pkg/util"
)

// ProfileService lets admins browse and edit login profiles.
type ProfileService struct {
	profiles  repository.ProfileRepository
	employees repository.EmployeeRepository
}

// NewProfileService constructs the service.
func NewProfileService(profiles repository.ProfileRepository, employees repository.EmployeeRepository) *ProfileService {
	return &ProfileService{profiles: profiles, employees: employees}
}

// List returns profiles matching the free-text filter.
func (s *ProfileService) List(ctx context.Context, ac identity.AuthorizationContext, filter repository.ProfileFilter) ([]domain.EmployeeProfile, error) {
	if err := access.Authorize(ac, access.ScreenProfiles, access.ActionView); err != nil {
		return nil, err
	}
	profiles, err := s.profiles.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return profiles, nil
}

// Update applies an admin edit. Role changes take effect at the profile's next session.
func (s *ProfileService) Update(ctx context.Context, ac identity.AuthorizationContext, id string, update domain.ProfileUpdate) (*domain.EmployeeProfile, error) {
	if err := access.Authorize(ac, access.ScreenProfiles, access.ActionUpdate); err != nil {
		return nil, err
	}
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		return nil, apperrors.NewValidationError("name cannot be empty", nil)
	}
	if update.Role != nil && !update.Role.Valid() {
		return nil, apperrors.NewValidationError("role must be admin or employee", map[string]any{"role": *update.Role})
	}
	if update.EmployeeRef != nil && !update.ClearEmployeeRef {
		if _, err := s.employees.GetByID(ctx, *update.EmployeeRef); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, apperrors.NewValidationError("unknown employee", map[string]any{"employee_id": *update.EmployeeRef})
			}
			return nil, apperrors.MapError(err)
		}
	}

	profile, err := s.profiles.Update(ctx, id, update)
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, apperrors.NewConflict("employee is linked to another profile", nil)
		}
		return nil, notFoundOr(err, "profile", id)
	}
	return profile, nil
}
