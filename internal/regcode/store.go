package regcode

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nutritionbot/dashboard-backend/internal/db"
	"github.com/nutritionbot/dashboard-backend/internal/identity"
	"gorm.io/gorm"
)

// Store persists registration codes. The conditional methods report whether
// a row actually changed so callers can tell a lost race from success.
type Store interface {
	FindByCode(ctx context.Context, code string) (Code, error)
	FindByID(ctx context.Context, id uuid.UUID) (Code, error)
	List(ctx context.Context) ([]Code, error)
	Insert(ctx context.Context, c *Code) error

	// Claim marks an unused, unexpired code as used and tags it with token.
	Claim(ctx context.Context, id uuid.UUID, now time.Time, token uuid.UUID) (bool, error)
	// Release undoes the Claim made with token. It does nothing once the
	// redeemer is recorded or an admin has forced the code used.
	Release(ctx context.Context, id, token uuid.UUID) error
	SetUsedBy(ctx context.Context, id, redeemer uuid.UUID) error

	// ForceUsed reports whether a code without a recorded redeemer exists.
	ForceUsed(ctx context.Context, id uuid.UUID) (bool, error)
	ForceActive(ctx context.Context, id uuid.UUID) (bool, error)
	DeleteUnused(ctx context.Context, id uuid.UUID) (bool, error)
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(d *gorm.DB) *GormStore {
	return &GormStore{db: d}
}

func (s *GormStore) codes(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Model(&Code{})
}

func (s *GormStore) FindByCode(ctx context.Context, code string) (Code, error) {
	var out Code
	if err := s.codes(ctx).Where("code = ?", code).Take(&out).Error; err != nil {
		return Code{}, db.TranslateError(err, "")
	}
	return out, nil
}

func (s *GormStore) FindByID(ctx context.Context, id uuid.UUID) (Code, error) {
	var out Code
	if err := s.codes(ctx).Where("id = ?", id).Take(&out).Error; err != nil {
		return Code{}, db.TranslateError(err, "")
	}
	return out, nil
}

func (s *GormStore) List(ctx context.Context) ([]Code, error) {
	var out []Code
	if err := s.codes(ctx).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, db.TranslateError(err, "")
	}
	return out, nil
}

func (s *GormStore) Insert(ctx context.Context, c *Code) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return db.TranslateError(err, "Registration code already exists")
	}
	return nil
}

func (s *GormStore) Claim(ctx context.Context, id uuid.UUID, now time.Time, token uuid.UUID) (bool, error) {
	res := s.codes(ctx).
		Where("id = ? AND is_used = ? AND used_by IS NULL", id, false).
		Where("(expires_at IS NULL OR expires_at >= ?)", now).
		Updates(map[string]any{"is_used": true, "claim_token": token})
	if res.Error != nil {
		return false, identity.Dependency(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (s *GormStore) Release(ctx context.Context, id, token uuid.UUID) error {
	res := s.codes(ctx).
		Where("id = ? AND used_by IS NULL AND claim_token = ?", id, token).
		Updates(map[string]any{"is_used": false, "claim_token": nil})
	return identity.Dependency(res.Error)
}

func (s *GormStore) SetUsedBy(ctx context.Context, id, redeemer uuid.UUID) error {
	res := s.codes(ctx).Where("id = ?", id).
		Updates(map[string]any{"is_used": true, "used_by": redeemer, "claim_token": nil})
	return identity.Dependency(res.Error)
}

func (s *GormStore) ForceUsed(ctx context.Context, id uuid.UUID) (bool, error) {
	res := s.codes(ctx).Where("id = ? AND used_by IS NULL", id).
		Updates(map[string]any{"is_used": true, "claim_token": nil})
	if res.Error != nil {
		return false, identity.Dependency(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (s *GormStore) ForceActive(ctx context.Context, id uuid.UUID) (bool, error) {
	res := s.codes(ctx).Where("id = ?", id).
		Updates(map[string]any{"is_used": false, "used_by": nil, "claim_token": nil})
	if res.Error != nil {
		return false, identity.Dependency(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (s *GormStore) DeleteUnused(ctx context.Context, id uuid.UUID) (bool, error) {
	res := s.db.WithContext(ctx).Where("id = ? AND is_used = ?", id, false).Delete(&Code{})
	if res.Error != nil {
		return false, identity.Dependency(res.Error)
	}
	return res.RowsAffected == 1, nil
}
