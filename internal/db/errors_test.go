package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/nutritionbot/dashboard-backend/internal/identity"
	"gorm.io/gorm"
)

func TestTranslateError_RecordNotFound(t *testing.T) {
	err := TranslateError(fmt.Errorf("find: %w", gorm.ErrRecordNotFound), "dup")
	if !errors.Is(err, identity.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTranslateError_UniqueViolation(t *testing.T) {
	err := TranslateError(&pgconn.PgError{Code: "23505"}, "Registration code already exists")
	if !errors.Is(err, identity.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if identity.PublicMessage(err) != "Registration code already exists" {
		t.Fatalf("unexpected message %q", identity.PublicMessage(err))
	}
	if !errors.Is(TranslateError(gorm.ErrDuplicatedKey, "x"), identity.ErrConflict) {
		t.Fatal("expected ErrDuplicatedKey to map to ErrConflict")
	}
}

func TestTranslateError_UniqueViolationWithoutMessage(t *testing.T) {
	err := TranslateError(&pgconn.PgError{Code: "23505"}, "")
	if !errors.Is(err, identity.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if got := identity.PublicMessage(err); got != identity.ErrConflict.Error() {
		t.Fatalf("expected generic conflict text, got %q", got)
	}
}

func TestTranslateError_OtherIsDependency(t *testing.T) {
	err := TranslateError(errors.New("connection reset"), "dup")
	if !errors.Is(err, identity.ErrDependency) {
		t.Fatalf("expected ErrDependency, got %v", err)
	}
	if TranslateError(nil, "dup") != nil {
		t.Fatal("nil should stay nil")
	}
}

func TestTranslateError_ClassifiedPassesThrough(t *testing.T) {
	in := identity.NewError(identity.ErrInvalidInput, "Invalid category ID")
	if got := TranslateError(in, "dup"); got != in {
		t.Fatalf("expected classified error unchanged, got %v", got)
	}
}
