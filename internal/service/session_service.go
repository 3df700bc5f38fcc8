package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/employee-portal/internal/auth"
	"github.com/spec-kit/employee-portal/internal/domain"
	"github.com/spec-kit/employee-portal/internal/identity"
	apperrors "github.com/spec-kit/employee-portal/pkg/util"
)

// SessionService fronts login and logout for both real sessions and the
// development bypass identity.
type SessionService struct {
	auth      *AuthService
	registry  *identity.Registry
	tokens    *auth.TokenManager
	bypassOn  bool
	bypassTTL time.Duration
	logger    *zap.Logger
}

// SessionDependencies groups collaborators for the session service.
type SessionDependencies struct {
	Auth          *AuthService
	Registry      *identity.Registry
	Tokens        *auth.TokenManager
	BypassEnabled bool
	Logger        *zap.Logger
}

// LoginResult is returned to clients after a successful login.
type LoginResult struct {
	Token         string
	ExpiresAt     time.Time
	Authorization identity.AuthorizationContext
}

// NewSessionService constructs the service.
func NewSessionService(deps SessionDependencies) *SessionService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		auth:      deps.Auth,
		registry:  deps.Registry,
		tokens:    deps.Tokens,
		bypassOn:  deps.BypassEnabled,
		bypassTTL: deps.Tokens.TTL(),
		logger:    logger,
	}
}

// Login checks the bypass credentials first when enabled, then signs in with the
// authentication service. The returned context is already resolved.
func (s *SessionService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if s.bypassOn {
		sessionID := uuid.NewString()
		ac, err := s.registry.ResolveSpecialAdmin(sessionID, email, password)
		if err == nil {
			expiresAt := time.Now().UTC().Add(s.bypassTTL)
			token, err := s.tokens.GenerateToken(ac.Principal.ID(), sessionID, ac.Profile.Email, domain.SubjectTypeDevBypass, expiresAt)
			if err != nil {
				_ = s.registry.SignOut(ctx, sessionID)
				return nil, apperrors.NewInternalError(err)
			}
			s.logger.Warn("development bypass login", zap.String("session_id", sessionID))
			return &LoginResult{Token: token, ExpiresAt: expiresAt, Authorization: ac}, nil
		}
	}

	result, err := s.auth.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}
	ac, err := s.registry.Authorize(ctx, &result.Session)
	if err != nil {
		// A session whose profile cannot be resolved is not handed to the client.
		if signOutErr := s.auth.SignOut(ctx, result.Session.ID); signOutErr != nil {
			s.logger.Warn("sign out after failed resolution", zap.Error(signOutErr))
		}
		return nil, err
	}
	return &LoginResult{Token: result.Token, ExpiresAt: result.Session.ExpiresAt, Authorization: ac}, nil
}

// Refresh rotates the token of a real session. Bypass sessions cannot be refreshed.
func (s *SessionService) Refresh(ctx context.Context, caller *auth.Caller) (*LoginResult, error) {
	if caller.SubjectType != domain.SubjectTypeSession {
		return nil, apperrors.NewValidationError("this session cannot be refreshed", nil)
	}
	result, err := s.auth.Refresh(ctx, caller.SessionID)
	if err != nil {
		return nil, err
	}
	ac, err := s.registry.Authorize(ctx, &result.Session)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: result.Token, ExpiresAt: result.Session.ExpiresAt, Authorization: ac}, nil
}

// Logout clears the caller's context and ends its session.
func (s *SessionService) Logout(ctx context.Context, caller *auth.Caller) error {
	if err := s.registry.SignOut(ctx, caller.SessionID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}
