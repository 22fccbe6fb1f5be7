package identity

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func RequireAdmin(caller Identity) error {
	if caller.Role != RoleAdmin {
		return NewError(ErrForbidden, "Admin access required")
	}
	return nil
}

func RequireTrainerOrAdmin(caller Identity) error {
	if caller.Role != RoleAdmin && caller.Role != RoleTrainer {
		return NewError(ErrForbidden, "Trainer or admin access required")
	}
	return nil
}

// OwnedBy limits a query on a trainer-owned table to rows the caller may see.
// Admins are unscoped; anything that is neither admin nor trainer sees nothing.
func OwnedBy(caller Identity) func(*gorm.DB) *gorm.DB {
	return OwnedByColumn(caller, "trainer_id")
}

func OwnedByColumn(caller Identity, column string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch caller.Role {
		case RoleAdmin:
			return db
		case RoleTrainer:
			return db.Where(column+" = ?", caller.ID)
		default:
			return db.Where("1 = 0")
		}
	}
}

// OwnerFor picks the trainer a write acts on. Trainers always act on
// themselves; admins must name the trainer explicitly.
func OwnerFor(caller Identity, requested string) (uuid.UUID, error) {
	switch caller.Role {
	case RoleTrainer:
		return caller.ID, nil
	case RoleAdmin:
		requested = strings.TrimSpace(requested)
		if requested == "" {
			return uuid.Nil, NewError(ErrInvalidInput, "trainer_id is required for admin callers")
		}
		id, err := uuid.Parse(requested)
		if err != nil {
			return uuid.Nil, NewError(ErrInvalidInput, "trainer_id must be a valid UUID")
		}
		return id, nil
	}
	return uuid.Nil, NewError(ErrForbidden, "Trainer or admin access required")
}
