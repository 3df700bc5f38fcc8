package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/employee-portal/internal/auth"
	"github.com/spec-kit/employee-portal/internal/domain"
	"github.com/spec-kit/employee-portal/internal/identity"
	"github.com/spec-kit/employee-portal/internal/repository"
	apperrors "github.com/spec-kit/employee-portal/pkg/util"
)

type memAccounts struct {
	mu   sync.Mutex
	rows map[string]*domain.AuthAccount
}

func newMemAccounts() *memAccounts { return &memAccounts{rows: map[string]*domain.AuthAccount{}} }

func (m *memAccounts) Create(_ context.Context, a *domain.AuthAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.rows {
		if strings.EqualFold(existing.Email, a.Email) {
			return fmt.Errorf("account: %w", apperrors.ErrConflict)
		}
	}
	a.ID = uuid.NewString()
	a.CreatedAt = time.Now()
	copied := *a
	m.rows[a.ID] = &copied
	return nil
}

func (m *memAccounts) UpdatePassword(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	a.PasswordHash = hash
	return nil
}

func (m *memAccounts) GetByID(_ context.Context, id string) (*domain.AuthAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (m *memAccounts) GetByEmail(_ context.Context, email string) (*domain.AuthAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.rows {
		if strings.EqualFold(a.Email, email) {
			copied := *a
			return &copied, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *memAccounts) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

type memProfiles struct {
	mu   sync.Mutex
	rows map[string]*domain.EmployeeProfile
}

func newMemProfiles(profiles ...*domain.EmployeeProfile) *memProfiles {
	m := &memProfiles{rows: map[string]*domain.EmployeeProfile{}}
	for _, p := range profiles {
		m.rows[p.ID] = p
	}
	return m
}

func (m *memProfiles) Create(_ context.Context, p *domain.EmployeeProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.rows {
		if p.EmployeeRef != nil && existing.EmployeeRef != nil && *existing.EmployeeRef == *p.EmployeeRef {
			return fmt.Errorf("profile: %w", apperrors.ErrConflict)
		}
	}
	copied := *p
	m.rows[p.ID] = &copied
	return nil
}

func (m *memProfiles) GetByID(_ context.Context, id string) (*domain.EmployeeProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *memProfiles) List(_ context.Context, filter repository.ProfileFilter) ([]domain.EmployeeProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.EmployeeProfile
	for _, p := range m.rows {
		if filter.Search == "" || strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Search)) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memProfiles) Update(_ context.Context, id string, u domain.ProfileUpdate) (*domain.EmployeeProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Role != nil {
		p.RoleRaw = string(*u.Role)
	}
	if u.Department != nil {
		p.Department = u.Department
	}
	if u.Position != nil {
		p.Position = u.Position
	}
	switch {
	case u.ClearEmployeeRef:
		p.EmployeeRef = nil
	case u.EmployeeRef != nil:
		p.EmployeeRef = u.EmployeeRef
	}
	copied := *p
	return &copied, nil
}

func (m *memProfiles) CountDepartments(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]bool{}
	for _, p := range m.rows {
		if p.Department != nil && *p.Department != "" {
			seen[*p.Department] = true
		}
	}
	return len(seen), nil
}

type memEmployees struct {
	mu    sync.Mutex
	rows  map[string]*domain.EmployeeRecord
	slips *memSlips
}

func newMemEmployees(employees ...*domain.EmployeeRecord) *memEmployees {
	m := &memEmployees{rows: map[string]*domain.EmployeeRecord{}}
	for _, e := range employees {
		m.rows[e.ID] = e
	}
	return m
}

func (m *memEmployees) Create(_ context.Context, e *domain.EmployeeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.rows {
		if existing.Code == e.Code {
			return fmt.Errorf("employee: %w", apperrors.ErrConflict)
		}
	}
	e.ID = uuid.NewString()
	copied := *e
	m.rows[e.ID] = &copied
	return nil
}

func (m *memEmployees) Update(_ context.Context, e *domain.EmployeeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[e.ID]; !ok {
		return apperrors.ErrNotFound
	}
	for id, existing := range m.rows {
		if id != e.ID && existing.Code == e.Code {
			return fmt.Errorf("employee: %w", apperrors.ErrConflict)
		}
	}
	copied := *e
	m.rows[e.ID] = &copied
	return nil
}

func (m *memEmployees) Delete(ctx context.Context, id string) error {
	if m.slips != nil {
		if n, _ := m.slips.Count(ctx, &id); n > 0 {
			return fmt.Errorf("employee: %w", apperrors.ErrConflict)
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memEmployees) GetByID(_ context.Context, id string) (*domain.EmployeeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.rows[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *e
	return &copied, nil
}

func (m *memEmployees) List(_ context.Context, filter repository.EmployeeFilter) ([]domain.EmployeeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.EmployeeRecord
	for _, e := range m.rows {
		if filter.Status != nil && e.Status != *filter.Status {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(e.Name), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memEmployees) Count(_ context.Context, status *domain.EmployeeStatus) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.rows {
		if status == nil || e.Status == *status {
			n++
		}
	}
	return n, nil
}

type memSlips struct {
	mu   sync.Mutex
	rows []*domain.SalarySlip
	// lastFilter records the filter of the most recent List call.
	lastFilter repository.SlipFilter
	upsertErr  error
}

func (m *memSlips) Upsert(_ context.Context, s *domain.SalarySlip) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	s.UploadedAt = time.Now()
	for _, existing := range m.rows {
		if existing.EmployeeRef == s.EmployeeRef && existing.Month == s.Month && existing.Year == s.Year {
			s.ID = existing.ID
			*existing = *s
			return nil
		}
	}
	s.ID = uuid.NewString()
	copied := *s
	m.rows = append(m.rows, &copied)
	return nil
}

func (m *memSlips) GetByID(_ context.Context, id string) (*domain.SalarySlip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.rows {
		if s.ID == id {
			copied := *s
			return &copied, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

// List ignores EmployeeRef so tests can prove the post-query filter still applies.
func (m *memSlips) List(_ context.Context, filter repository.SlipFilter) ([]domain.SalarySlip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFilter = filter
	var out []domain.SalarySlip
	for _, s := range m.rows {
		if filter.Month != nil && s.Month != *filter.Month {
			continue
		}
		if filter.Year != nil && s.Year != *filter.Year {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (m *memSlips) Count(_ context.Context, employeeRef *string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.rows {
		if employeeRef == nil || s.EmployeeRef == *employeeRef {
			n++
		}
	}
	return n, nil
}

type memResets struct {
	mu   sync.Mutex
	rows map[string]*domain.PasswordReset
}

func newMemResets() *memResets { return &memResets{rows: map[string]*domain.PasswordReset{}} }

func (m *memResets) Create(_ context.Context, r *domain.PasswordReset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = uuid.NewString()
	copied := *r
	m.rows[r.Token] = &copied
	return nil
}

func (m *memResets) GetByToken(_ context.Context, token string) (*domain.PasswordReset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[token]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *r
	return &copied, nil
}

func (m *memResets) MarkUsed(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.ID == id {
			now := time.Now()
			r.UsedAt = &now
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func newSessionStore(t *testing.T) auth.SessionStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return auth.NewRedisSessionStore(client)
}

func ptr[T any](v T) *T { return &v }

func adminCtx() identity.AuthorizationContext {
	return identity.AuthorizationContext{
		Principal: identity.RealPrincipal{UserID: "admin-1", SessionID: "s-admin"},
		Role:      domain.RoleAdmin,
		Profile:   domain.EmployeeProfile{ID: "admin-1", Name: "Admin", RoleRaw: "admin"},
	}
}

func employeeCtx(employeeRef *string) identity.AuthorizationContext {
	return identity.AuthorizationContext{
		Principal:   identity.RealPrincipal{UserID: "emp-1", SessionID: "s-emp"},
		Role:        domain.RoleEmployee,
		EmployeeRef: employeeRef,
		Profile:     domain.EmployeeProfile{ID: "emp-1", Name: "Ana", RoleRaw: "employee", EmployeeRef: employeeRef},
	}
}
