package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/employee-portal/internal/domain"
	"github.com/spec-kit/employee-portal/internal/identity"
	apperrors "github.com/spec-kit/employee-portal/pkg/util"
)

const callerKey = "auth_caller"

// Caller represents the authenticated request subject.
type Caller struct {
	SessionID     string
	SubjectType   domain.SubjectType
	Session       *domain.Session
	Authorization identity.AuthorizationContext
}

// SessionLookup fetches live sessions by id.
type SessionLookup interface {
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)
}

// AuthMiddleware validates bearer tokens and attaches the caller's authorization context.
type AuthMiddleware struct {
	tokens   *TokenManager
	sessions SessionLookup
	registry *identity.Registry
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, sessions SessionLookup, registry *identity.Registry) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, sessions: sessions, registry: registry}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	token, err := BearerToken(c)
	if err != nil {
		return err
	}

	claims, err := m.tokens.ParseToken(token)
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	caller := &Caller{SessionID: claims.SessionID, SubjectType: claims.Subject}

	switch claims.Subject {
	case domain.SubjectTypeSession:
		session, err := m.sessions.GetSession(c.UserContext(), claims.SessionID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return apperrors.NewUnauthorized("session expired or signed out")
			}
			return apperrors.MapError(err)
		}
		if session.UserID != claims.SubjectID {
			return apperrors.NewUnauthorized("token does not match session")
		}
		ac, err := m.registry.Authorize(c.UserContext(), session)
		if err != nil {
			return authorizationError(err)
		}
		caller.Session = session
		caller.Authorization = ac
	case domain.SubjectTypeDevBypass:
		res := m.registry.Lookup(claims.SessionID)
		if res == nil {
			return apperrors.NewUnauthorized("session expired or signed out")
		}
		ac, err := res.AuthorizationContext()
		if err != nil {
			return authorizationError(err)
		}
		caller.Authorization = ac
	default:
		return apperrors.NewUnauthorized("unknown subject")
	}

	c.Locals(callerKey, caller)
	return c.Next()
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return "", apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", apperrors.NewUnauthorized("invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}

func authorizationError(err error) error {
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return apperrors.NewUnauthorized("session is not authorized")
}

// CallerFromContext retrieves the authenticated caller.
func CallerFromContext(c *fiber.Ctx) (*Caller, bool) {
	val := c.Locals(callerKey)
	if val == nil {
		return nil, false
	}
	caller, ok := val.(*Caller)
	return caller, ok
}
