package auth

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/nutritionbot/dashboard-backend/internal/identity"
)

// memStore is an in-memory Store keyed by role then id.
type memStore struct {
	mu   sync.Mutex
	rows map[identity.Role]map[uuid.UUID]identity.Identity
	err  error
}

func newMemStore() *memStore {
	return &memStore{rows: map[identity.Role]map[uuid.UUID]identity.Identity{
		identity.RoleAdmin:   {},
		identity.RoleTrainer: {},
	}}
}

func (m *memStore) FindByEmail(_ context.Context, role identity.Role, email string) (identity.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return identity.Identity{}, m.err
	}
	for _, row := range m.rows[role] {
		if row.Email == email {
			return row, nil
		}
	}
	return identity.Identity{}, identity.NewError(identity.ErrNotFound, "Not found")
}

func (m *memStore) FindByID(_ context.Context, role identity.Role, id uuid.UUID) (identity.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return identity.Identity{}, m.err
	}
	row, ok := m.rows[role][id]
	if !ok {
		return identity.Identity{}, identity.NewError(identity.ErrNotFound, "Not found")
	}
	return row, nil
}

func (m *memStore) Insert(_ context.Context, role identity.Role, ident *identity.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows[role] {
		if row.Email == ident.Email {
			return identity.NewError(identity.ErrConflict, "Email already registered")
		}
	}
	if ident.ID == uuid.Nil {
		ident.ID = uuid.New()
	}
	ident.Role = role
	m.rows[role][ident.ID] = *ident
	return nil
}

func (m *memStore) Update(_ context.Context, role identity.Role, id uuid.UUID, patch Patch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[role][id]
	if !ok {
		return identity.NewError(identity.ErrNotFound, "Not found")
	}
	if patch.Name != nil {
		row.Name = *patch.Name
	}
	if patch.PasswordHash != nil {
		row.PasswordHash = *patch.PasswordHash
	}
	if patch.IsActive != nil {
		row.IsActive = *patch.IsActive
	}
	m.rows[role][id] = row
	return nil
}

func (m *memStore) List(_ context.Context, role identity.Role) ([]identity.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]identity.Identity, 0, len(m.rows[role]))
	for _, row := range m.rows[role] {
		out = append(out, row)
	}
	return out, nil
}
