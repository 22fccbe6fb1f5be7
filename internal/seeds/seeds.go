package seeds

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/nutritionbot/dashboard-backend/internal/identity"
)

// File is the provisioning document read by cmd/seed. ${VAR} references are
// expanded from the environment before parsing so passwords can stay out of
// the file.
type File struct {
	Admins     []Admin  `yaml:"admins"`
	Categories []string `yaml:"categories"`
}

type Admin struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type AdminCreator interface {
	CreateAdmin(ctx context.Context, email, password, name string) (identity.Identity, error)
}

type Result struct {
	AdminsCreated     int
	AdminsSkipped     int
	CategoriesCreated int
}

func Load(path string) (File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("could not read %s: %w", path, err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (File, error) {
	var f File
	if err := yaml.UnmarshalWithOptions([]byte(os.ExpandEnv(string(raw))), &f, yaml.Strict()); err != nil {
		return File{}, fmt.Errorf("failed to parse seed file: %w", err)
	}
	for i, a := range f.Admins {
		if strings.TrimSpace(a.Email) == "" || a.Password == "" {
			return File{}, fmt.Errorf("admin %d: email and password are required", i)
		}
	}
	return f, nil
}

// SeedAdmins creates each admin, skipping emails that already exist under
// either role.
func SeedAdmins(ctx context.Context, creator AdminCreator, admins []Admin, res *Result) error {
	for _, a := range admins {
		name := a.Name
		if name == "" {
			name = a.Email
		}
		_, err := creator.CreateAdmin(ctx, a.Email, a.Password, name)
		switch {
		case err == nil:
			res.AdminsCreated++
		case errors.Is(err, identity.ErrConflict):
			slog.Info("admin exists, skipping", "email", a.Email)
			res.AdminsSkipped++
		default:
			return fmt.Errorf("failed to create admin %s: %w", a.Email, err)
		}
	}
	return nil
}
