package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/spec-kit/employee-portal/internal/domain"
	apperrors "github.com/spec-kit/employee-portal/pkg/util"
)

// ChangeKind classifies an authentication state change.
type ChangeKind string

const (
	ChangeSignedIn  ChangeKind = "signed_in"
	ChangeRefreshed ChangeKind = "refreshed"
	ChangeSignedOut ChangeKind = "signed_out"
)

// AuthStateChange is one session transition emitted by the authentication service.
type AuthStateChange struct {
	Kind    ChangeKind
	Session domain.Session
}

// AuthStateHandler reacts to an authentication state change.
type AuthStateHandler func(ctx context.Context, change AuthStateChange) error

// AuthStateSource lets the registry follow session transitions.
type AuthStateSource interface {
	OnAuthStateChange(handler AuthStateHandler)
}

// Registry keeps one Resolver per live session and feeds it the session
// transitions reported by the authentication service.
type Registry struct {
	deps   ResolverDependencies
	logger *zap.Logger

	resolveTimeout time.Duration

	mu        sync.Mutex
	resolvers map[string]*Resolver
	group     singleflight.Group
}

const defaultResolveTimeout = 10 * time.Second

// NewRegistry builds a registry whose resolvers share deps. When source is non-nil
// the registry follows its session transitions.
func NewRegistry(deps ResolverDependencies, source AuthStateSource) *Registry {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	deps.Logger = logger
	g := &Registry{
		deps:           deps,
		logger:         logger,
		resolveTimeout: deps.ResolveTimeout,
		resolvers:      make(map[string]*Resolver),
	}
	if g.resolveTimeout <= 0 {
		g.resolveTimeout = defaultResolveTimeout
	}
	if source != nil {
		source.OnAuthStateChange(g.handleAuthStateChange)
	}
	return g
}

// Authorize returns the context for a verified session, resolving it on first use.
// Concurrent first uses of the same session share a single profile fetch.
func (g *Registry) Authorize(ctx context.Context, session *domain.Session) (AuthorizationContext, error) {
	if session == nil {
		return AuthorizationContext{}, apperrors.NewUnauthorized("session required")
	}
	res := g.resolverFor(session.ID)
	ac, err := res.AuthorizationContext()
	if !errors.Is(err, ErrNotReady) {
		return ac, err
	}

	// The fetch outlives the request that started it, so a cancelled caller cannot
	// leave a sticky failure behind for the rest of the session.
	fetch := g.group.DoChan(session.ID, func() (any, error) {
		if _, err := res.AuthorizationContext(); !errors.Is(err, ErrNotReady) {
			return nil, nil
		}
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.resolveTimeout)
		defer cancel()
		return nil, res.OnSessionChange(fetchCtx, session)
	})
	select {
	case <-ctx.Done():
		return AuthorizationContext{}, fmt.Errorf("identity: authorize session %s: %w", session.ID, ctx.Err())
	case result := <-fetch:
		err = result.Err
	}
	if err != nil && !errors.Is(err, ErrSuperseded) {
		return AuthorizationContext{}, err
	}
	return res.AuthorizationContext()
}

// ResolveSpecialAdmin installs the development admin identity under sessionID. Failed
// attempts leave the registry untouched.
func (g *Registry) ResolveSpecialAdmin(sessionID, email, password string) (AuthorizationContext, error) {
	res := NewResolver(g.deps)
	ac, err := res.ResolveSpecialAdmin(email, password)
	if err != nil {
		return AuthorizationContext{}, err
	}

	g.mu.Lock()
	previous := g.resolvers[sessionID]
	g.resolvers[sessionID] = res
	g.mu.Unlock()
	if previous != nil {
		previous.Teardown()
	}
	return ac, nil
}

// SignOut clears and removes the session's resolver and ends the session upstream.
// Sessions unknown to the registry are still terminated at the authentication service.
func (g *Registry) SignOut(ctx context.Context, sessionID string) error {
	res := g.Lookup(sessionID)

	var err error
	switch {
	case res != nil:
		err = res.SignOut(ctx)
	case g.deps.Terminator != nil:
		if termErr := g.deps.Terminator.SignOut(ctx, sessionID); termErr != nil {
			err = fmt.Errorf("identity: sign out session %s: %w", sessionID, termErr)
		}
	}

	if removed := g.remove(sessionID); removed != nil {
		removed.Teardown()
	}
	return err
}

// Lookup returns the resolver tracking sessionID, if any.
func (g *Registry) Lookup(sessionID string) *Resolver {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.resolvers[sessionID]
}

// Sweep tears down resolvers whose session expired and returns how many were removed.
func (g *Registry) Sweep(now time.Time) int {
	g.mu.Lock()
	var expired []*Resolver
	for id, res := range g.resolvers {
		if res.Expired(now) {
			expired = append(expired, res)
			delete(g.resolvers, id)
		}
	}
	g.mu.Unlock()

	for _, res := range expired {
		res.Teardown()
	}
	return len(expired)
}

// Len returns the number of tracked sessions.
func (g *Registry) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.resolvers)
}

func (g *Registry) resolverFor(sessionID string) *Resolver {
	g.mu.Lock()
	defer g.mu.Unlock()
	res, ok := g.resolvers[sessionID]
	if !ok {
		res = NewResolver(g.deps)
		g.resolvers[sessionID] = res
	}
	return res
}

func (g *Registry) remove(sessionID string) *Resolver {
	g.mu.Lock()
	defer g.mu.Unlock()
	res := g.resolvers[sessionID]
	delete(g.resolvers, sessionID)
	return res
}

func (g *Registry) handleAuthStateChange(ctx context.Context, change AuthStateChange) error {
	session := change.Session
	switch change.Kind {
	case ChangeSignedIn, ChangeRefreshed:
		err := g.resolverFor(session.ID).OnSessionChange(ctx, &session)
		if errors.Is(err, ErrSuperseded) || errors.Is(err, ErrTornDown) {
			return nil
		}
		return err
	case ChangeSignedOut:
		res := g.remove(session.ID)
		if res == nil {
			return nil
		}
		if err := res.OnSessionChange(ctx, nil); err != nil && !errors.Is(err, ErrTornDown) {
			return err
		}
		res.Teardown()
		return nil
	default:
		return fmt.Errorf("identity: unknown auth state change %q", change.Kind)
	}
}
