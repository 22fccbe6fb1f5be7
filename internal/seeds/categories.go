package seeds

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/nutritionbot/dashboard-backend/internal/trainer"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func SeedCategories(ctx context.Context, d *gorm.DB, names []string, res *Result) error {
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		c := trainer.Category{ID: uuid.New(), Name: name}
		tx := d.WithContext(ctx).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
			Create(&c)
		if tx.Error != nil {
			return fmt.Errorf("failed to create category %s: %w", name, tx.Error)
		}
		res.CategoriesCreated += int(tx.RowsAffected)
	}
	return nil
}

// SeedAll applies f. Re-running it is a no-op.
func SeedAll(ctx context.Context, d *gorm.DB, creator AdminCreator, f File) (Result, error) {
	var res Result
	if err := SeedAdmins(ctx, creator, f.Admins, &res); err != nil {
		return res, err
	}
	if err := SeedCategories(ctx, d, f.Categories, &res); err != nil {
		return res, err
	}
	return res, nil
}
