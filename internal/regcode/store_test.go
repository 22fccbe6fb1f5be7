package regcode

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/nutritionbot/dashboard-backend/internal/identity"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockStore(t *testing.T) (*GormStore, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		sqlDB.Close()
	})
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("gorm open: %v", err)
	}
	return NewGormStore(gdb), mock
}

// The claim is a single conditional UPDATE; zero rows means another request
// got there first.
func TestGormStore_ClaimLostRace(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(`UPDATE "registration_codes" SET "claim_token"=.*"is_used"=.*WHERE .*used_by IS NULL.*expires_at IS NULL OR expires_at >=`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := store.Claim(context.Background(), uuid.New(), time.Now(), uuid.New())
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if ok {
		t.Fatal("expected claim to report a lost race")
	}
}

func TestGormStore_ClaimWon(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(`UPDATE "registration_codes" SET "claim_token"=.*"is_used"=`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := store.Claim(context.Background(), uuid.New(), time.Now(), uuid.New())
	if err != nil || !ok {
		t.Fatalf("expected claim to succeed, got %v %v", ok, err)
	}
}

func TestGormStore_ClaimDatabaseError(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(`UPDATE "registration_codes"`).WillReturnError(errors.New("connection reset by peer"))

	_, err := store.Claim(context.Background(), uuid.New(), time.Now(), uuid.New())
	if !errors.Is(err, identity.ErrDependency) {
		t.Fatalf("expected ErrDependency, got %v", err)
	}
}

func TestGormStore_DeleteUnusedOnlyTouchesUnused(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(`DELETE FROM "registration_codes" WHERE id = .* AND is_used = `).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := store.DeleteUnused(context.Background(), uuid.New())
	if err != nil || ok {
		t.Fatalf("expected no rows deleted, got %v %v", ok, err)
	}
}

func TestGormStore_FindByCodeMissing(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT \* FROM "registration_codes" WHERE code = `).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code"}))

	_, err := store.FindByCode(context.Background(), "WELCOME10")
	if !errors.Is(err, identity.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGormStore_FindByCode(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()
	creator := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "registration_codes" WHERE code = `).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "created_by", "expires_at", "is_used", "used_by", "created_at"}).
			AddRow(id.String(), "WELCOME10", creator.String(), nil, false, nil, time.Now(), uuid.New()))

	c, err := store.FindByCode(context.Background(), "WELCOME10")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if c.ID != id || c.CreatedBy != creator || c.ExpiresAt != nil || c.UsedBy != nil {
		t.Fatalf("unexpected row %+v", c)
	}
}

// Release only matches the claim it was given.
func TestGormStore_ReleaseMatchesClaimToken(t *testing.T) {
	store, mock := newMockStore(t)
	id, token := uuid.New(), uuid.New()
	mock.ExpectExec(`UPDATE "registration_codes" SET "claim_token"=.*"is_used"=.*WHERE .*used_by IS NULL AND claim_token = `).
		WithArgs(sqlmock.AnyArg(), false, id.String(), token.String()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.Release(context.Background(), id, token); err != nil {
		t.Fatalf("release: %v", err)
	}
}
