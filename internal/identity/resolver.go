package identity

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/employee-portal/internal/domain"
	apperrors "github.com/spec-kit/employee-portal/pkg/util"
)

var (
	// ErrNotReady means no transition has produced a context yet.
	ErrNotReady = errors.New("identity: authorization context not ready")
	// ErrSuperseded means a newer transition replaced the one that was in flight.
	ErrSuperseded = errors.New("identity: session transition superseded")
	// ErrTornDown means the resolver no longer accepts transitions.
	ErrTornDown = errors.New("identity: resolver torn down")
)

// Resolution outcomes reported to the Observer.
const (
	OutcomeResolved   = "resolved"
	OutcomeFailed     = "failed"
	OutcomeSuperseded = "superseded"
	OutcomeBypass     = "bypass"
	OutcomeCleared    = "cleared"
)

// ProfileSource fetches the profile row for a session's user.
type ProfileSource interface {
	GetByID(ctx context.Context, id string) (*domain.EmployeeProfile, error)
}

// SessionTerminator ends a session at the authentication service.
type SessionTerminator interface {
	SignOut(ctx context.Context, sessionID string) error
}

// Observer receives resolution outcomes; *observability.Metrics satisfies it.
type Observer interface {
	RecordResolution(outcome string)
}

// BypassConfig enables the local-development admin identity. TTL bounds how long a
// bypass context lives before the registry sweeps it.
type BypassConfig struct {
	Enabled  bool
	Email    string
	Password string
	TTL      time.Duration
}

// ResolverDependencies groups collaborators for a Resolver.
type ResolverDependencies struct {
	Profiles   ProfileSource
	Terminator SessionTerminator
	Bypass     BypassConfig
	Logger     *zap.Logger
	Observer   Observer
	// ResolveTimeout bounds a lazy profile fetch started by Registry.Authorize.
	ResolveTimeout time.Duration
}

// Resolver maps one session stream onto an AuthorizationContext. The latest
// transition always wins; results of older in-flight fetches are discarded.
type Resolver struct {
	profiles   ProfileSource
	terminator SessionTerminator
	bypass     BypassConfig
	logger     *zap.Logger
	observer   Observer

	mu         sync.Mutex
	generation uint64
	sessionID  string
	expiresAt  time.Time
	current    *AuthorizationContext
	lastErr    error
	torn       bool
}

// NewResolver initializes an empty resolver.
func NewResolver(deps ResolverDependencies) *Resolver {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		profiles:   deps.Profiles,
		terminator: deps.Terminator,
		bypass:     deps.Bypass,
		logger:     logger,
		observer:   deps.Observer,
	}
}

// OnSessionChange applies a session transition. A nil session clears the context
// before returning. A non-nil session clears the context, then fetches the profile
// exactly once and publishes the result unless a newer transition arrived meanwhile.
func (r *Resolver) OnSessionChange(ctx context.Context, session *domain.Session) error {
	r.mu.Lock()
	if r.torn {
		r.mu.Unlock()
		return ErrTornDown
	}
	r.generation++
	gen := r.generation
	r.current = nil
	r.lastErr = nil
	if session == nil {
		r.sessionID = ""
		r.expiresAt = time.Time{}
		r.mu.Unlock()
		r.observe(OutcomeCleared)
		return nil
	}
	r.sessionID = session.ID
	r.expiresAt = session.ExpiresAt
	r.mu.Unlock()

	ac, err := r.resolve(ctx, session)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.torn || r.generation != gen {
		r.observe(OutcomeSuperseded)
		return ErrSuperseded
	}
	if err != nil {
		r.lastErr = err
		r.observe(OutcomeFailed)
		r.logger.Warn("profile resolution failed",
			zap.String("session_id", session.ID),
			zap.String("user_id", session.UserID),
			zap.Error(err))
		return err
	}
	r.current = ac
	r.observe(OutcomeResolved)
	return nil
}

func (r *Resolver) resolve(ctx context.Context, session *domain.Session) (*AuthorizationContext, error) {
	profile, err := r.profiles.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, apperrors.NewProfileResolutionFailed(fmt.Errorf("fetch profile %s: %w", session.UserID, err))
	}
	role, ok := domain.ParseRole(profile.RoleRaw)
	if !ok {
		return nil, apperrors.NewProfileResolutionFailed(fmt.Errorf("profile %s has no usable role %q", profile.ID, profile.RoleRaw))
	}
	return &AuthorizationContext{
		Principal:   RealPrincipal{UserID: session.UserID, SessionID: session.ID},
		Role:        role,
		EmployeeRef: profile.EmployeeRef,
		Profile:     *profile,
	}, nil
}

// AuthorizationContext returns the current context, the sticky failure of the last
// transition, or ErrNotReady.
func (r *Resolver) AuthorizationContext() (AuthorizationContext, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case r.current != nil:
		return *r.current, nil
	case r.lastErr != nil:
		return AuthorizationContext{}, r.lastErr
	default:
		return AuthorizationContext{}, ErrNotReady
	}
}

// ResolveSpecialAdmin installs the development admin identity when the supplied
// credentials match the configured ones. No authentication service call is made.
func (r *Resolver) ResolveSpecialAdmin(email, password string) (AuthorizationContext, error) {
	if !r.bypass.Enabled || !r.bypassMatches(email, password) {
		return AuthorizationContext{}, apperrors.NewAuthenticationFailed("invalid credentials")
	}

	ac := AuthorizationContext{
		Principal:   DevBypassPrincipal{Email: r.bypass.Email},
		Role:        domain.RoleAdmin,
		EmployeeRef: nil,
		Profile: domain.EmployeeProfile{
			ID:      "dev-bypass",
			Email:   r.bypass.Email,
			Name:    "Development Admin",
			RoleRaw: string(domain.RoleAdmin),
		},
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.torn {
		return AuthorizationContext{}, ErrTornDown
	}
	r.generation++
	r.sessionID = ""
	r.expiresAt = time.Time{}
	if r.bypass.TTL > 0 {
		r.expiresAt = time.Now().Add(r.bypass.TTL)
	}
	r.current = &ac
	r.lastErr = nil
	r.observe(OutcomeBypass)
	r.logger.Warn("development bypass identity active", zap.String("email", r.bypass.Email))
	return ac, nil
}

func (r *Resolver) bypassMatches(email, password string) bool {
	want := strings.ToLower(strings.TrimSpace(r.bypass.Email))
	got := strings.ToLower(strings.TrimSpace(email))
	emailOK := subtle.ConstantTimeCompare([]byte(want), []byte(got))
	passOK := subtle.ConstantTimeCompare([]byte(r.bypass.Password), []byte(password))
	return emailOK&passOK == 1
}

// SignOut clears local state first, then ends the session at the authentication
// service. The bypass identity has no session, so nothing is called for it.
func (r *Resolver) SignOut(ctx context.Context) error {
	r.mu.Lock()
	var principal Principal
	if r.current != nil {
		principal = r.current.Principal
	}
	sessionID := r.sessionID
	r.generation++
	r.current = nil
	r.lastErr = nil
	r.sessionID = ""
	r.expiresAt = time.Time{}
	r.mu.Unlock()

	if _, ok := principal.(DevBypassPrincipal); ok {
		return nil
	}
	if sessionID == "" || r.terminator == nil {
		return nil
	}
	if err := r.terminator.SignOut(ctx, sessionID); err != nil {
		return fmt.Errorf("identity: sign out session %s: %w", sessionID, err)
	}
	return nil
}

// Teardown clears state and rejects further transitions.
func (r *Resolver) Teardown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.torn = true
	r.generation++
	r.current = nil
	r.lastErr = nil
	r.sessionID = ""
}

// Expired reports whether the tracked session, or the bypass TTL, has elapsed.
// A resolver with no deadline never expires on its own.
func (r *Resolver) Expired(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.expiresAt.IsZero() && !now.Before(r.expiresAt)
}

func (r *Resolver) observe(outcome string) {
	if r.observer != nil {
		r.observer.RecordResolution(outcome)
	}
}
