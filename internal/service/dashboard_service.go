package service

import (
	"context"
	"time"

	"github.com/spec-kit/employee-portal/internal/access"
	"github.com/spec-kit/employee-portal/internal/domain"
	"github.com/spec-kit/employee-portal/internal/identity"
	"github.com/spec-kit/employee-portal/internal/repository"
	apperrors "github.com/spec-kit/employee-portal/pkg/util"
)

// DashboardService assembles the role-scoped landing statistics.
type DashboardService struct {
	employees repository.EmployeeRepository
	profiles  repository.ProfileRepository
	slips     repository.SalarySlipRepository
	now       func() time.Time
}

// Dashboard is the landing view. Admin-only counters are nil for employees.
type Dashboard struct {
	Role            domain.Role
	Profile         domain.EmployeeProfile
	CurrentMonth    string
	CurrentYear     int
	TotalEmployees  *int
	ActiveEmployees *int
	TotalSlips      *int
	Departments     *int
	MySlips         *int
}

// NewDashboardService constructs the service.
func NewDashboardService(employees repository.EmployeeRepository, profiles repository.ProfileRepository, slips repository.SalarySlipRepository) *DashboardService {
	return &DashboardService{employees: employees, profiles: profiles, slips: slips, now: time.Now}
}

// Get returns admin aggregates or the employee's own slip count.
func (s *DashboardService) Get(ctx context.Context, ac identity.AuthorizationContext) (*Dashboard, error) {
	if err := access.Authorize(ac, access.ScreenDashboard, access.ActionView); err != nil {
		return nil, err
	}

	now := s.now()
	dashboard := &Dashboard{
		Role:         ac.Role,
		Profile:      ac.Profile,
		CurrentMonth: domain.Months[now.Month()-1],
		CurrentYear:  now.Year(),
	}

	if !ac.IsAdmin() {
		mine := 0
		if scope := access.SlipScopeFor(ac); scope.Kind == access.ScopeEmployee {
			count, err := s.slips.Count(ctx, &scope.EmployeeRef)
			if err != nil {
				return nil, apperrors.MapError(err)
			}
			mine = count
		}
		dashboard.MySlips = &mine
		return dashboard, nil
	}

	active := domain.EmployeeStatusActive
	total, err := s.employees.Count(ctx, nil)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	activeCount, err := s.employees.Count(ctx, &active)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	slips, err := s.slips.Count(ctx, nil)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	departments, err := s.profiles.CountDepartments(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	dashboard.TotalEmployees = &total
	dashboard.ActiveEmployees = &activeCount
	dashboard.TotalSlips = &slips
	dashboard.Departments = &departments
	return dashboard, nil
}
