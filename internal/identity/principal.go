package identity

import "github.com/spec-kit/employee-portal/internal/domain"

// Principal is the authenticated subject behind an AuthorizationContext. The set of
// implementations is closed: RealPrincipal and DevBypassPrincipal.
type Principal interface {
	ID() string
	SubjectType() domain.SubjectType
	isPrincipal()
}

// RealPrincipal is backed by a session issued by the authentication service.
type RealPrincipal struct {
	UserID    string
	SessionID string
}

func (p RealPrincipal) ID() string                      { return p.UserID }
func (p RealPrincipal) SubjectType() domain.SubjectType { return domain.SubjectTypeSession }
func (RealPrincipal) isPrincipal()                      {}

// DevBypassPrincipal is the configured local-development admin. It has no backing
// session, so sign-out never reaches the authentication service.
type DevBypassPrincipal struct {
	Email string
}

func (p DevBypassPrincipal) ID() string                      { return "dev-bypass:" + p.Email }
func (p DevBypassPrincipal) SubjectType() domain.SubjectType { return domain.SubjectTypeDevBypass }
func (DevBypassPrincipal) isPrincipal()                      {}

// AuthorizationContext is what every screen consults: who is calling, with which role,
// scoped to which employee record.
type AuthorizationContext struct {
	Principal   Principal
	Role        domain.Role
	EmployeeRef *string
	Profile     domain.EmployeeProfile
}

// IsAdmin reports whether the context carries the admin role.
func (ac AuthorizationContext) IsAdmin() bool {
	return ac.Role == domain.RoleAdmin
}
