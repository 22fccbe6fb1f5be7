package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/nutritionbot/dashboard-backend/internal/db"
	"github.com/nutritionbot/dashboard-backend/internal/identity"
	"gorm.io/gorm"
)

// Store persists identities. Implementations return identity.ErrNotFound for
// missing rows and wrap everything else as identity.ErrDependency.
type Store interface {
	FindByEmail(ctx context.Context, role identity.Role, email string) (identity.Identity, error)
	FindByID(ctx context.Context, role identity.Role, id uuid.UUID) (identity.Identity, error)
	Insert(ctx context.Context, role identity.Role, ident *identity.Identity) error
	Update(ctx context.Context, role identity.Role, id uuid.UUID, patch Patch) error
	List(ctx context.Context, role identity.Role) ([]identity.Identity, error)
}

// Patch lists the mutable columns; nil fields are left alone.
type Patch struct {
	Name         *string
	PasswordHash *string
	IsActive     *bool
}

func (p Patch) columns() map[string]any {
	cols := map[string]any{}
	if p.Name != nil {
		cols["name"] = *p.Name
	}
	if p.PasswordHash != nil {
		cols["password_hash"] = *p.PasswordHash
	}
	if p.IsActive != nil {
		cols["is_active"] = *p.IsActive
	}
	return cols
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(d *gorm.DB) *GormStore {
	return &GormStore{db: d}
}

func (s *GormStore) table(ctx context.Context, role identity.Role) *gorm.DB {
	return s.db.WithContext(ctx).Table(role.Table())
}

func (s *GormStore) FindByEmail(ctx context.Context, role identity.Role, email string) (identity.Identity, error) {
	var out identity.Identity
	err := s.table(ctx, role).Where("email = ?", email).Take(&out).Error
	if err != nil {
		return identity.Identity{}, db.TranslateError(err, "")
	}
	out.Role = role
	return out, nil
}

func (s *GormStore) FindByID(ctx context.Context, role identity.Role, id uuid.UUID) (identity.Identity, error) {
	var out identity.Identity
	err := s.table(ctx, role).Where("id = ?", id).Take(&out).Error
	if err != nil {
		return identity.Identity{}, db.TranslateError(err, "")
	}
	out.Role = role
	return out, nil
}

func (s *GormStore) Insert(ctx context.Context, role identity.Role, ident *identity.Identity) error {
	if ident.ID == uuid.Nil {
		ident.ID = uuid.New()
	}
	err := s.table(ctx, role).Create(ident).Error
	if err != nil {
		return db.TranslateError(err, "Email already registered")
	}
	ident.Role = role
	return nil
}

func (s *GormStore) Update(ctx context.Context, role identity.Role, id uuid.UUID, patch Patch) error {
	cols := patch.columns()
	if len(cols) == 0 {
		return nil
	}
	res := s.table(ctx, role).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return db.TranslateError(res.Error, "")
	}
	if res.RowsAffected == 0 {
		return identity.NewError(identity.ErrNotFound, "Not found")
	}
	return nil
}

func (s *GormStore) List(ctx context.Context, role identity.Role) ([]identity.Identity, error) {
	var out []identity.Identity
	if err := s.table(ctx, role).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, db.TranslateError(err, "")
	}
	for i := range out {
		out[i].Role = role
	}
	return out, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, identity.ErrNotFound)
}
