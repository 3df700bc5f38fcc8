package access

import (
	"fmt"

	"github.com/spec-kit/employee-portal/internal/domain"
	"github.com/spec-kit/employee-portal/internal/identity"
	apperrors "github.com/spec-kit/employee-portal/pkg/util"
)

// Screen names an API surface guarded by the policy.
type Screen string

const (
	ScreenDashboard   Screen = "dashboard"
	ScreenEmployees   Screen = "employees"
	ScreenProfiles    Screen = "profiles"
	ScreenSalarySlips Screen = "salary_slips"
)

// Action names an operation on a screen.
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionUpload Action = "upload"
)

type rule struct {
	screen Screen
	action Action
}

// Screens and actions employees may use. Admins may use everything in the table.
var policy = map[rule]map[domain.Role]bool{
	{ScreenDashboard, ActionView}:     {domain.RoleAdmin: true, domain.RoleEmployee: true},
	{ScreenEmployees, ActionView}:     {domain.RoleAdmin: true},
	{ScreenEmployees, ActionCreate}:   {domain.RoleAdmin: true},
	{ScreenEmployees, ActionUpdate}:   {domain.RoleAdmin: true},
	{ScreenEmployees, ActionDelete}:   {domain.RoleAdmin: true},
	{ScreenProfiles, ActionView}:      {domain.RoleAdmin: true},
	{ScreenProfiles, ActionUpdate}:    {domain.RoleAdmin: true},
	{ScreenSalarySlips, ActionView}:   {domain.RoleAdmin: true, domain.RoleEmployee: true},
	{ScreenSalarySlips, ActionUpload}: {domain.RoleAdmin: true},
}

// Authorize returns AuthorizationDenied unless the context's role may perform action on screen.
// Pairs missing from the table are denied.
func Authorize(ac identity.AuthorizationContext, screen Screen, action Action) error {
	if !ac.Role.Valid() {
		return apperrors.NewAuthorizationDenied("no role resolved for caller")
	}
	if policy[rule{screen, action}][ac.Role] {
		return nil
	}
	return apperrors.NewAuthorizationDenied(fmt.Sprintf("%s may not %s %s", ac.Role, action, screen))
}

// ScopeKind classifies a SlipScope.
type ScopeKind int

const (
	ScopeNone ScopeKind = iota
	ScopeAll
	ScopeEmployee
)

// SlipScope is the row filter a context applies to salary slips.
type SlipScope struct {
	Kind        ScopeKind
	EmployeeRef string
}

// SlipScopeFor derives the slip filter: admins see all, employees only their own
// record, and an employee without a linked record sees nothing.
func SlipScopeFor(ac identity.AuthorizationContext) SlipScope {
	switch ac.Role {
	case domain.RoleAdmin:
		return SlipScope{Kind: ScopeAll}
	case domain.RoleEmployee:
		if ac.EmployeeRef != nil && *ac.EmployeeRef != "" {
			return SlipScope{Kind: ScopeEmployee, EmployeeRef: *ac.EmployeeRef}
		}
	}
	return SlipScope{Kind: ScopeNone}
}

// Allows reports whether a slip for employeeRef is inside the scope.
func (s SlipScope) Allows(employeeRef string) bool {
	switch s.Kind {
	case ScopeAll:
		return true
	case ScopeEmployee:
		return employeeRef == s.EmployeeRef
	default:
		return false
	}
}

// FilterSlips drops slips outside the context's scope. It runs after every query,
// whatever filter the query already applied.
func FilterSlips(ac identity.AuthorizationContext, slips []domain.SalarySlip) []domain.SalarySlip {
	scope := SlipScopeFor(ac)
	filtered := make([]domain.SalarySlip, 0, len(slips))
	for _, slip := range slips {
		if scope.Allows(slip.EmployeeRef) {
			filtered = append(filtered, slip)
		}
	}
	return filtered
}

// CanViewSlip guards single-slip operations.
func CanViewSlip(ac identity.AuthorizationContext, slip domain.SalarySlip) error {
	if err := Authorize(ac, ScreenSalarySlips, ActionView); err != nil {
		return err
	}
	if !SlipScopeFor(ac).Allows(slip.EmployeeRef) {
		return apperrors.NewAuthorizationDenied("salary slip belongs to another employee")
	}
	return nil
}
