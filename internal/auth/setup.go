package auth

import (
	"fmt"

	"github.com/nutritionbot/dashboard-backend/internal/identity"
	"gorm.io/gorm"
)

// Migrate creates the admins and trainers tables. Both share the identity
// columns.
func Migrate(d *gorm.DB) error {
	for _, role := range identity.Roles {
		if err := d.Table(role.Table()).AutoMigrate(&identity.Identity{}); err != nil {
			return fmt.Errorf("migrate %s: %w", role.Table(), err)
		}
	}
	return nil
}
