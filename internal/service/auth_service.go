package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/employee-portal/internal/auth"
	"github.com/spec-kit/employee-portal/internal/config"
	"github.com/spec-kit/employee-portal/internal/domain"
	"github.com/spec-kit/employee-portal/internal/events"
	"github.com/spec-kit/employee-portal/internal/identity"
	"github.com/spec-kit/employee-portal/internal/repository"
	apperrors "github.com/spec-kit/employee-portal/pkg/util"
)

// AuthService is the authentication service: it checks credentials, owns sessions
// and reports every session transition.
type AuthService struct {
	accounts   repository.AccountRepository
	profiles   repository.ProfileRepository
	employees  repository.EmployeeRepository
	resets     repository.PasswordResetRepository
	sessions   auth.SessionStore
	dispatcher events.Dispatcher
	tokens     *auth.TokenManager
	logger     *zap.Logger

	bcryptCost     int
	minPassword    int
	resetTTL       time.Duration
	bootstrapAdmin string
	resetURL       string
	now            func() time.Time
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	AccountRepo       repository.AccountRepository
	ProfileRepo       repository.ProfileRepository
	EmployeeRepo      repository.EmployeeRepository
	PasswordResetRepo repository.PasswordResetRepository
	Sessions          auth.SessionStore
	Dispatcher        events.Dispatcher
	Tokens            *auth.TokenManager
	Logger            *zap.Logger
}

// SignUpInput describes a self-service registration paired to a roster employee.
type SignUpInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
	EmployeeRef     string
}

// SignInResult is a freshly issued session and its bearer token.
type SignInResult struct {
	Session domain.Session
	Token   string
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		accounts:       deps.AccountRepo,
		profiles:       deps.ProfileRepo,
		employees:      deps.EmployeeRepo,
		resets:         deps.PasswordResetRepo,
		sessions:       deps.Sessions,
		dispatcher:     deps.Dispatcher,
		tokens:         deps.Tokens,
		logger:         logger,
		bcryptCost:     cfg.BcryptCost,
		minPassword:    cfg.MinPasswordLength,
		resetTTL:       cfg.PasswordResetTTL(),
		bootstrapAdmin: strings.ToLower(strings.TrimSpace(cfg.BootstrapAdminEmail)),
		resetURL:       cfg.PasswordResetURL,
		now:            time.Now,
	}
}

// SignInWithPassword verifies credentials and opens a session.
func (s *AuthService) SignInWithPassword(ctx context.Context, email, password string) (*SignInResult, error) {
	account, err := s.accounts.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewAuthenticationFailed("invalid credentials")
		}
		return nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(account.PasswordHash, password); err != nil {
		return nil, apperrors.NewAuthenticationFailed("invalid credentials")
	}

	now := s.now().UTC()
	session := domain.Session{
		ID:        uuid.NewString(),
		UserID:    account.ID,
		Email:     account.Email,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.tokens.TTL()),
	}
	token, err := s.issue(ctx, &session)
	if err != nil {
		return nil, err
	}

	s.publishSession(ctx, events.EventSessionSignedIn, session)
	s.logger.Info("signed in", zap.String("user_id", account.ID), zap.String("session_id", session.ID))
	return &SignInResult{Session: session, Token: token}, nil
}

// SignUp creates credentials and an employee profile linked to an active roster entry.
func (s *AuthService) SignUp(ctx context.Context, input SignUpInput) (*domain.EmployeeProfile, error) {
	email := strings.TrimSpace(input.Email)
	name := strings.TrimSpace(input.Name)
	if email == "" || name == "" || strings.TrimSpace(input.EmployeeRef) == "" {
		return nil, apperrors.NewValidationError("name, email and employee are required", nil)
	}
	if input.Password != input.ConfirmPassword {
		return nil, apperrors.NewValidationError("passwords do not match", nil)
	}
	if err := auth.CheckPasswordPolicy(input.Password, s.minPassword); err != nil {
		return nil, err
	}

	employee, err := s.employees.GetByID(ctx, input.EmployeeRef)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewValidationError("unknown employee", map[string]any{"employee_id": input.EmployeeRef})
		}
		return nil, apperrors.MapError(err)
	}
	if employee.Status != domain.EmployeeStatusActive {
		return nil, apperrors.NewValidationError("employee is not active", map[string]any{"employee_id": employee.ID})
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	account := &domain.AuthAccount{Email: email, PasswordHash: hash}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, apperrors.NewConflict("email already registered", nil)
		}
		return nil, apperrors.MapError(err)
	}

	role := domain.RoleEmployee
	if s.bootstrapAdmin != "" && strings.EqualFold(email, s.bootstrapAdmin) {
		role = domain.RoleAdmin
	}
	joined := s.now().UTC().Truncate(24 * time.Hour)
	profile := &domain.EmployeeProfile{
		ID:          account.ID,
		Email:       email,
		Name:        name,
		RoleRaw:     string(role),
		EmployeeRef: &employee.ID,
		JoinDate:    &joined,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		if delErr := s.accounts.Delete(ctx, account.ID); delErr != nil {
			s.logger.Error("orphaned account after failed signup", zap.String("account_id", account.ID), zap.Error(delErr))
		}
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, apperrors.NewConflict("employee already has an account", map[string]any{"employee_id": employee.ID})
		}
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("account registered", zap.String("account_id", account.ID), zap.String("employee_id", employee.ID))
	return profile, nil
}

// GetSession returns a live session.
func (s *AuthService) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Expired(s.now()) {
		return nil, fmt.Errorf("session %s expired: %w", sessionID, apperrors.ErrNotFound)
	}
	return session, nil
}

// Refresh extends a live session and issues a new token for it.
func (s *AuthService) Refresh(ctx context.Context, sessionID string) (*SignInResult, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewUnauthorized("session expired or signed out")
		}
		return nil, apperrors.MapError(err)
	}

	session.ExpiresAt = s.now().UTC().Add(s.tokens.TTL())
	token, err := s.issue(ctx, session)
	if err != nil {
		return nil, err
	}
	s.publishSession(ctx, events.EventSessionRefreshed, *session)
	return &SignInResult{Session: *session, Token: token}, nil
}

// SignOut ends a session. Unknown sessions are treated as already signed out.
func (s *AuthService) SignOut(ctx context.Context, sessionID string) error {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return apperrors.MapError(err)
	}
	if err := s.sessions.Delete(ctx, session); err != nil {
		return apperrors.MapError(err)
	}
	s.publishSession(ctx, events.EventSessionSignedOut, *session)
	s.logger.Info("signed out", zap.String("user_id", session.UserID), zap.String("session_id", session.ID))
	return nil
}

// OnAuthStateChange registers handler for every session transition.
func (s *AuthService) OnAuthStateChange(handler identity.AuthStateHandler) {
	kinds := map[events.EventType]identity.ChangeKind{
		events.EventSessionSignedIn:  identity.ChangeSignedIn,
		events.EventSessionRefreshed: identity.ChangeRefreshed,
		events.EventSessionSignedOut: identity.ChangeSignedOut,
	}
	for eventType, kind := range kinds {
		kind := kind
		s.dispatcher.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
			payload, ok := event.Payload.(events.SessionPayload)
			if !ok {
				return fmt.Errorf("auth: event %s carries %T", event.Type, event.Payload)
			}
			return handler(ctx, identity.AuthStateChange{Kind: kind, Session: payload.Session})
		})
	}
}

// RequestPasswordReset stores a reset token for the account, if one exists. Unknown
// emails succeed silently so the endpoint does not reveal registered addresses.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (*domain.PasswordReset, error) {
	account, err := s.accounts.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, apperrors.MapError(err)
	}

	reset := &domain.PasswordReset{
		AccountID: account.ID,
		Token:     uuid.NewString(),
		ExpiresAt: s.now().UTC().Add(s.resetTTL),
	}
	if err := s.resets.Create(ctx, reset); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.New(events.EventPasswordResetRequested, account.ID,
		events.Actor{Type: domain.SubjectTypeSession, ProfileID: &account.ID},
		events.PasswordResetRequestedPayload{
			AccountID: account.ID,
			Email:     account.Email,
			ExpiresAt: reset.ExpiresAt,
			ResetLink: resetLink(s.resetURL, reset.Token),
		}))
	return reset, nil
}

// resetLink appends the token to base as a query parameter, keeping any existing query.
func resetLink(base, token string) string {
	u, err := url.Parse(base)
	if err != nil || base == "" {
		return "/reset-password?token=" + url.QueryEscape(token)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}

// ConfirmPasswordReset sets a new password from a valid reset token and signs out
// every session of the account.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	reset, err := s.resets.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NewValidationError("reset token is invalid", nil)
		}
		return apperrors.MapError(err)
	}
	if reset.UsedAt != nil || !s.now().Before(reset.ExpiresAt) {
		return apperrors.NewValidationError("reset token expired or already used", nil)
	}
	if err := auth.CheckPasswordPolicy(newPassword, s.minPassword); err != nil {
		return err
	}

	if err := s.setPassword(ctx, reset.AccountID, newPassword); err != nil {
		return err
	}
	if err := s.resets.MarkUsed(ctx, reset.ID); err != nil {
		return apperrors.MapError(err)
	}
	s.signOutAll(ctx, reset.AccountID, "")
	return nil
}

// ChangePassword verifies the current password, stores the new one and signs out
// the account's other sessions.
func (s *AuthService) ChangePassword(ctx context.Context, accountID, currentSessionID, currentPassword, newPassword string) error {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if err := auth.ComparePassword(account.PasswordHash, currentPassword); err != nil {
		return apperrors.NewAuthenticationFailed("current password is incorrect")
	}
	if err := auth.CheckPasswordPolicy(newPassword, s.minPassword); err != nil {
		return err
	}
	if err := s.setPassword(ctx, account.ID, newPassword); err != nil {
		return err
	}
	s.signOutAll(ctx, account.ID, currentSessionID)
	return nil
}

func (s *AuthService) setPassword(ctx context.Context, accountID, password string) error {
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := s.accounts.UpdatePassword(ctx, accountID, hash); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

func (s *AuthService) signOutAll(ctx context.Context, accountID, keepSessionID string) {
	ids, err := s.sessions.ListForUser(ctx, accountID)
	if err != nil {
		s.logger.Warn("list sessions for revocation", zap.String("account_id", accountID), zap.Error(err))
		return
	}
	for _, id := range ids {
		if id == keepSessionID {
			continue
		}
		if err := s.SignOut(ctx, id); err != nil {
			s.logger.Warn("revoke session", zap.String("session_id", id), zap.Error(err))
		}
	}
}

func (s *AuthService) issue(ctx context.Context, session *domain.Session) (string, error) {
	if err := s.sessions.Save(ctx, session); err != nil {
		return "", apperrors.MapError(err)
	}
	token, err := s.tokens.GenerateToken(session.UserID, session.ID, session.Email, domain.SubjectTypeSession, session.ExpiresAt)
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	return token, nil
}

func (s *AuthService) publishSession(ctx context.Context, eventType events.EventType, session domain.Session) {
	userID := session.UserID
	s.publish(ctx, events.New(eventType, session.ID,
		events.Actor{Type: domain.SubjectTypeSession, ProfileID: &userID},
		events.SessionPayload{Session: session}))
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}
