package identity

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/spec-kit/employee-portal/internal/domain"
	apperrors "github.com/spec-kit/employee-portal/pkg/util"
)

type fakeProfiles struct {
	mu       sync.Mutex
	profiles map[string]*domain.EmployeeProfile
	gates    map[string]chan struct{}
	started  chan string
	calls    atomic.Int32
}

func newFakeProfiles(profiles ...*domain.EmployeeProfile) *fakeProfiles {
	f := &fakeProfiles{
		profiles: make(map[string]*domain.EmployeeProfile),
		gates:    make(map[string]chan struct{}),
		started:  make(chan string, 16),
	}
	for _, p := range profiles {
		f.profiles[p.ID] = p
	}
	return f
}

// block makes fetches for id wait until the returned func is called.
func (f *fakeProfiles) block(id string) func() {
	gate := make(chan struct{})
	f.mu.Lock()
	f.gates[id] = gate
	f.mu.Unlock()
	return func() { close(gate) }
}

func (f *fakeProfiles) GetByID(ctx context.Context, id string) (*domain.EmployeeProfile, error) {
	f.calls.Add(1)
	f.started <- id

	f.mu.Lock()
	gate := f.gates[id]
	profile, ok := f.profiles[id]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *profile
	return &copied, nil
}

type fakeTerminator struct {
	mu       sync.Mutex
	sessions []string
	onCall   func()
	err      error
}

func (f *fakeTerminator) SignOut(_ context.Context, sessionID string) error {
	if f.onCall != nil {
		f.onCall()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions = append(f.sessions, sessionID)
	return f.err
}

func (f *fakeTerminator) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sessions...)
}

func ptr[T any](v T) *T {
	return &v
}

func profile(id, role string, employeeRef *string) *domain.EmployeeProfile {
	return &domain.EmployeeProfile{ID: id, Email: id + "@corp.test", Name: id, RoleRaw: role, EmployeeRef: employeeRef}
}

type fakeSource struct {
	handlers []AuthStateHandler
}

func (f *fakeSource) OnAuthStateChange(handler AuthStateHandler) {
	f.handlers = append(f.handlers, handler)
}

func (f *fakeSource) emit(ctx context.Context, kind ChangeKind, session *domain.Session) error {
	for _, h := range f.handlers {
		if err := h(ctx, AuthStateChange{Kind: kind, Session: *session}); err != nil {
			return err
		}
	}
	return nil
}
