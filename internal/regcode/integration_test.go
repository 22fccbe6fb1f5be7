package regcode_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/nutritionbot/dashboard-backend/internal/auth"
	"github.com/nutritionbot/dashboard-backend/internal/db"
	"github.com/nutritionbot/dashboard-backend/internal/identity"
	"github.com/nutritionbot/dashboard-backend/internal/regcode"
	"gorm.io/gorm"
)

// testDB is nil unless DATABASE_URL points at a disposable Postgres.
var testDB *gorm.DB

func TestMain(m *testing.M) {
	_ = godotenv.Load("../../.env.local")

	if os.Getenv("DATABASE_URL") == "" {
		os.Exit(m.Run())
	}

	d, err := db.Connect(db.Options{DSN: os.Getenv("DATABASE_URL"), MaxOpenConns: 8})
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect:", err)
		os.Exit(1)
	}
	if err := auth.Migrate(d); err != nil {
		fmt.Fprintln(os.Stderr, "migrate auth:", err)
		os.Exit(1)
	}
	if err := regcode.Migrate(d); err != nil {
		fmt.Fprintln(os.Stderr, "migrate regcode:", err)
		os.Exit(1)
	}
	testDB = d
	os.Exit(m.Run())
}

type stack struct {
	accounts  *auth.Service
	lifecycle *regcode.Lifecycle
	admin     identity.Identity
}

func newStack(t *testing.T) stack {
	t.Helper()
	if testDB == nil {
		t.Skip("skipping integration test (requires DATABASE_URL)")
	}
	hasher, err := auth.NewHasher(4)
	if err != nil {
		t.Fatalf("hasher: %v", err)
	}
	tokens, err := auth.NewTokenIssuer([]byte("integration-secret-integration-secret"), time.Hour)
	if err != nil {
		t.Fatalf("tokens: %v", err)
	}
	accounts := auth.NewService(auth.NewGormStore(testDB), hasher, tokens, nil, nil)
	return stack{
		accounts:  accounts,
		lifecycle: regcode.NewLifecycle(regcode.NewGormStore(testDB), accounts),
		admin:     identity.Identity{ID: uuid.New(), Role: identity.RoleAdmin, IsActive: true},
	}
}

func uniqueCode(t *testing.T) string {
	t.Helper()
	code := "IT-" + uuid.NewString()[:8]
	t.Cleanup(func() {
		testDB.Where("code = ?", code).Delete(&regcode.Code{})
	})
	return code
}

func cleanupTrainer(t *testing.T, email string) {
	t.Helper()
	t.Cleanup(func() {
		testDB.Table("trainers").Where("email = ?", identity.NormalizeEmail(email)).Delete(&identity.Identity{})
	})
}

func TestIntegration_RedeemThenLogin(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	code := uniqueCode(t)
	email := "it-" + uuid.NewString()[:8] + "@example.com"
	cleanupTrainer(t, email)

	if _, err := s.lifecycle.Create(ctx, s.admin, code, nil); err != nil {
		t.Fatalf("create: %v", err)
	}
	trainer, err := s.lifecycle.Redeem(ctx, identity.Registration{Email: email, Password: "pw123", Name: "Integration", Code: code})
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if _, err := s.accounts.Login(ctx, email, "pw123"); err != nil {
		t.Fatalf("login after redeem: %v", err)
	}

	var stored regcode.Code
	if err := testDB.Where("code = ?", code).Take(&stored).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !stored.IsUsed || stored.UsedBy == nil || *stored.UsedBy != trainer.ID {
		t.Errorf("expected code marked used by %s, got %+v", trainer.ID, stored)
	}

	_, err = s.lifecycle.Redeem(ctx, identity.Registration{Email: "other-" + email, Password: "pw123", Name: "Other", Code: code})
	if !errors.Is(err, identity.ErrAlreadyUsed) {
		t.Fatalf("expected ErrAlreadyUsed on second redemption, got %v", err)
	}
}

// The conditional UPDATE lets exactly one of many concurrent redemptions win.
func TestIntegration_ConcurrentRedeem(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	code := uniqueCode(t)
	if _, err := s.lifecycle.Create(ctx, s.admin, code, nil); err != nil {
		t.Fatalf("create: %v", err)
	}

	const n = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < n; i++ {
		email := fmt.Sprintf("race-%d-%s@example.com", i, uuid.NewString()[:6])
		cleanupTrainer(t, email)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.lifecycle.Redeem(ctx, identity.Registration{Email: email, Password: "pw123", Name: "Racer", Code: code})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
				return
			}
			if !errors.Is(err, identity.ErrAlreadyUsed) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins)
	}
}
