package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/nutritionbot/dashboard-backend/internal/auth"
	"github.com/nutritionbot/dashboard-backend/internal/config"
	"github.com/nutritionbot/dashboard-backend/internal/db"
	"github.com/nutritionbot/dashboard-backend/internal/regcode"
	"github.com/nutritionbot/dashboard-backend/internal/seeds"
	"github.com/nutritionbot/dashboard-backend/internal/trainer"
)

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}

func main() {
	_ = godotenv.Load(".env.local")

	cfg, err := config.LoadFromEnv()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fatal("invalid configuration", err)
	}

	path := os.Getenv("SEED_FILE")
	if path == "" {
		path = "seed.yaml"
	}
	file, err := seeds.Load(path)
	if err != nil {
		fatal("seeding failed", err)
	}

	d, err := db.Connect(db.Options{DSN: cfg.DatabaseURL, MaxOpenConns: 2})
	if err != nil {
		fatal("seeding failed", err)
	}
	for _, migrate := range []func() error{
		func() error { return auth.Migrate(d) },
		func() error { return regcode.Migrate(d) },
		func() error { return trainer.Migrate(d) },
	} {
		if err := migrate(); err != nil {
			fatal("migration failed", err)
		}
	}

	hasher, err := auth.NewHasher(cfg.Auth.BcryptCost)
	if err != nil {
		fatal("seeding failed", err)
	}
	tokens, err := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)
	if err != nil {
		fatal("seeding failed", err)
	}
	accounts := auth.NewService(auth.NewGormStore(d), hasher, tokens, slog.Default(), nil)

	res, err := seeds.SeedAll(context.Background(), d, accounts, file)
	if err != nil {
		fatal("seeding failed", err)
	}
	slog.Info("seed complete",
		"admins_created", res.AdminsCreated,
		"admins_skipped", res.AdminsSkipped,
		"categories_created", res.CategoriesCreated)
}
