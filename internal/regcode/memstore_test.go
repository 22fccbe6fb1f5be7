package regcode

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nutritionbot/dashboard-backend/internal/identity"
)

// memStore is an in-memory Store with the same conditional-update semantics
// as GormStore.
type memStore struct {
	mu    sync.Mutex
	codes map[uuid.UUID]Code

	failSetUsedBy error
}

func newMemStore() *memStore {
	return &memStore{codes: map[uuid.UUID]Code{}}
}

func (m *memStore) FindByCode(_ context.Context, code string) (Code, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.codes {
		if c.Code == code {
			return c, nil
		}
	}
	return Code{}, identity.NewError(identity.ErrNotFound, "Not found")
}

func (m *memStore) FindByID(_ context.Context, id uuid.UUID) (Code, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.codes[id]
	if !ok {
		return Code{}, identity.NewError(identity.ErrNotFound, "Not found")
	}
	return c, nil
}

func (m *memStore) List(_ context.Context) ([]Code, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Code, 0, len(m.codes))
	for _, c := range m.codes {
		out = append(out, c)
	}
	return out, nil
}

func (m *memStore) Insert(_ context.Context, c *Code) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.codes {
		if existing.Code == c.Code {
			return identity.NewError(identity.ErrConflict, "Registration code already exists")
		}
	}
	m.codes[c.ID] = *c
	return nil
}

func (m *memStore) Claim(_ context.Context, id uuid.UUID, now time.Time, token uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.codes[id]
	if !ok || c.IsUsed || c.UsedBy != nil || (c.ExpiresAt != nil && c.ExpiresAt.Before(now)) {
		return false, nil
	}
	c.IsUsed = true
	c.ClaimToken = &token
	m.codes[id] = c
	return true, nil
}

func (m *memStore) Release(_ context.Context, id, token uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.codes[id]; ok && c.UsedBy == nil && c.ClaimToken != nil && *c.ClaimToken == token {
		c.IsUsed = false
		c.ClaimToken = nil
		m.codes[id] = c
	}
	return nil
}

func (m *memStore) SetUsedBy(_ context.Context, id, redeemer uuid.UUID) error {
	if m.failSetUsedBy != nil {
		return m.failSetUsedBy
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.codes[id]; ok {
		c.IsUsed = true
		c.UsedBy = &redeemer
		c.ClaimToken = nil
		m.codes[id] = c
	}
	return nil
}

func (m *memStore) ForceUsed(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.codes[id]
	if !ok || c.UsedBy != nil {
		return false, nil
	}
	c.IsUsed = true
	c.ClaimToken = nil
	m.codes[id] = c
	return true, nil
}

func (m *memStore) ForceActive(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.codes[id]
	if !ok {
		return false, nil
	}
	c.IsUsed = false
	c.UsedBy = nil
	c.ClaimToken = nil
	m.codes[id] = c
	return true, nil
}

func (m *memStore) DeleteUnused(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.codes[id]
	if !ok || c.IsUsed {
		return false, nil
	}
	delete(m.codes, id)
	return true, nil
}

// fakeIdentities stands in for the auth service.
type fakeIdentities struct {
	mu        sync.Mutex
	byEmail   map[string]identity.Identity
	createErr error
	// beforeCreate runs at the start of CreateTrainer, while the code is
	// claimed.
	beforeCreate func()
}

func newFakeIdentities() *fakeIdentities {
	return &fakeIdentities{byEmail: map[string]identity.Identity{}}
}

func (f *fakeIdentities) EmailTaken(_ context.Context, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.byEmail[identity.NormalizeEmail(email)]
	return ok, nil
}

func (f *fakeIdentities) HashPassword(plain string) (string, error) {
	return "$2a$10$fake" + plain, nil
}

func (f *fakeIdentities) CreateTrainer(_ context.Context, email, digest, name string) (identity.Identity, error) {
	if f.beforeCreate != nil {
		f.beforeCreate()
	}
	if f.createErr != nil {
		return identity.Identity{}, f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	email = identity.NormalizeEmail(email)
	if _, ok := f.byEmail[email]; ok {
		return identity.Identity{}, identity.NewError(identity.ErrConflict, "User already exists")
	}
	ident := identity.Identity{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: digest,
		Name:         name,
		IsActive:     true,
		Role:         identity.RoleTrainer,
	}
	f.byEmail[email] = ident
	return ident, nil
}

func (f *fakeIdentities) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byEmail)
}
