// Package memory implementa los repositorios del dominio en mapas con
// mutex. Mismo contrato que el adapter de PostgreSQL, pensado para
// desarrollo y tests.
package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/tenantgate/internal/domain/repository"
)

// Store guarda todo el estado en memoria.
type Store struct {
	mu      sync.RWMutex
	users   map[string]*repository.User         // por ID
	emails  map[string]string                   // tenant|email -> userID
	tokens  map[string]*repository.RefreshToken // por hash
	tenants map[int64]*repository.Tenant

	// txMu serializa bloques Atomic entre sí. No hay rollback: el
	// backend de memoria no lo necesita para dev ni tests.
	txMu sync.Mutex
}

// New crea un Store vacío.
func New() *Store {
	return &Store{
		users:   make(map[string]*repository.User),
		emails:  make(map[string]string),
		tokens:  make(map[string]*repository.RefreshToken),
		tenants: make(map[int64]*repository.Tenant),
	}
}

func (s *Store) Users() repository.UserRepository     { return &userRepo{s: s} }
func (s *Store) Tokens() repository.TokenRepository   { return &tokenRepo{s: s} }
func (s *Store) Tenants() repository.TenantRepository { return &tenantRepo{s: s} }

func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(ctx)
}

func (s *Store) Ping(ctx context.Context) error { return nil }
func (s *Store) Close() error                   { return nil }

func emailKey(tenantID int64, email string) string {
	return strconv.FormatInt(tenantID, 10) + "|" + email
}

// ─── UserRepository ───

type userRepo struct{ s *Store }

func (r *userRepo) GetByEmail(ctx context.Context, tenantID int64, email string) (*repository.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.emails[emailKey(tenantID, email)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r.s.users[id]
	return &cp, nil
}

func (r *userRepo) GetByID(ctx context.Context, tenantID int64, userID string) (*repository.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if u.TenantID != tenantID {
		return nil, repository.ErrTenantViolation
	}
	cp := *u
	return &cp, nil
}

func (r *userRepo) Create(ctx context.Context, input repository.CreateUserInput) (*repository.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := emailKey(input.TenantID, input.Email)
	if _, ok := r.s.emails[key]; ok {
		return nil, repository.ErrConflict
	}

	status := input.Status
	if status == "" {
		status = repository.StatusPendingVerification
	}
	u := &repository.User{
		ID:            uuid.NewString(),
		TenantID:      input.TenantID,
		Email:         input.Email,
		EmailVerified: input.EmailVerified,
		FirstName:     input.FirstName,
		LastName:      input.LastName,
		Roles:         append([]string(nil), input.Roles...),
		Status:        status,
		PasswordHash:  input.PasswordHash,
		CreatedAt:     time.Now(),
	}
	r.s.users[u.ID] = u
	r.s.emails[key] = u.ID

	cp := *u
	return &cp, nil
}

func (r *userRepo) SetLastLogin(ctx context.Context, tenantID int64, userID string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[userID]
	if !ok || u.TenantID != tenantID {
		return repository.ErrNotFound
	}
	t := at
	u.LastLoginAt = &t
	return nil
}

// ─── TokenRepository ───

type tokenRepo struct{ s *Store }

func (r *tokenRepo) Create(ctx context.Context, input repository.CreateRefreshTokenInput) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tokens[input.TokenHash]; ok {
		return "", fmt.Errorf("memory: duplicate token hash")
	}

	now := time.Now()
	t := &repository.RefreshToken{
		ID:         uuid.NewString(),
		UserID:     input.UserID,
		TenantID:   input.TenantID,
		TokenHash:  input.TokenHash,
		IssuedAt:   now,
		ExpiresAt:  now.Add(time.Duration(input.TTLSeconds) * time.Second),
		DeviceInfo: input.DeviceInfo,
		IPAddress:  input.IPAddress,
	}
	r.s.tokens[t.TokenHash] = t
	return t.ID, nil
}

func (r *tokenRepo) GetByHash(ctx context.Context, tenantID int64, tokenHash string) (*repository.RefreshToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.tokens[tokenHash]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if t.TenantID != tenantID {
		return nil, repository.ErrTenantViolation
	}
	cp := *t
	return &cp, nil
}

func (r *tokenRepo) Revoke(ctx context.Context, tenantID int64, tokenHash, reason string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tokens[tokenHash]
	if !ok {
		return false, repository.ErrNotFound
	}
	if t.TenantID != tenantID {
		return false, repository.ErrTenantViolation
	}
	if t.RevokedAt != nil {
		// Carrera perdida: alguien revocó primero.
		return false, nil
	}
	now := time.Now()
	t.RevokedAt = &now
	t.RevocationReason = &reason
	return true, nil
}

func (r *tokenRepo) RevokeAllForUser(ctx context.Context, tenantID int64, userID, reason string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	count := 0
	for _, t := range r.s.tokens {
		if t.TenantID != tenantID || t.UserID != userID || t.RevokedAt != nil {
			continue
		}
		revokedAt := now
		revReason := reason
		t.RevokedAt = &revokedAt
		t.RevocationReason = &revReason
		count++
	}
	return count, nil
}

// ─── TenantRepository ───

type tenantRepo struct{ s *Store }

func (r *tenantRepo) GetByID(ctx context.Context, id int64) (*repository.Tenant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.tenants[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *tenantRepo) Create(ctx context.Context, tenant *repository.Tenant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tenants[tenant.ID]; ok {
		return repository.ErrConflict
	}
	for _, t := range r.s.tenants {
		if t.Slug == tenant.Slug {
			return repository.ErrConflict
		}
	}
	if tenant.CreatedAt.IsZero() {
		tenant.CreatedAt = time.Now()
	}
	cp := *tenant
	r.s.tenants[tenant.ID] = &cp
	return nil
}
