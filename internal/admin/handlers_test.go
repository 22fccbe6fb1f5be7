package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/nutritionbot/dashboard-backend/internal/identity"
	"github.com/nutritionbot/dashboard-backend/internal/regcode"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var fixedNow = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

type fakeAccounts struct {
	trainers []identity.Identity
	toggled  bool
	err      error

	setRole   identity.Role
	setID     uuid.UUID
	setActive bool
}

func (f *fakeAccounts) ListTrainers(context.Context, identity.Identity) ([]identity.Identity, error) {
	return f.trainers, f.err
}

func (f *fakeAccounts) ToggleActive(context.Context, identity.Identity, uuid.UUID) (bool, error) {
	return f.toggled, f.err
}

func (f *fakeAccounts) SetActive(_ context.Context, _ identity.Identity, role identity.Role, id uuid.UUID, active bool) error {
	f.setRole, f.setID, f.setActive = role, id, active
	return f.err
}

type fakeCodes struct {
	views []regcode.View
}

func (f *fakeCodes) List(context.Context, identity.Identity) ([]regcode.View, error) {
	return f.views, nil
}

func newMockHandlers(t *testing.T, accounts Accounts, codes Codes) (*Handlers, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
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
		DisableAutomaticPing:   true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("gorm open: %v", err)
	}
	h := NewHandlers(gdb, accounts, codes, nil)
	h.now = func() time.Time { return fixedNow }
	return h, mock
}

func asAdmin(next http.Handler) http.Handler {
	admin := identity.Identity{ID: uuid.New(), Role: identity.RoleAdmin, IsActive: true}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(identity.WithIdentity(r.Context(), admin)))
	})
}

func serve(t *testing.T, h *Handlers, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	SetupRoutes(h, asAdmin).ServeHTTP(rec, req)
	return rec
}

func TestListTrainers_MergesActivity(t *testing.T) {
	busy := identity.Identity{ID: uuid.New(), Name: "Busy", Email: "busy@example.com", IsActive: true}
	idle := identity.Identity{ID: uuid.New(), Name: "Idle", Email: "idle@example.com", IsActive: false}
	h, mock := newMockHandlers(t, &fakeAccounts{trainers: []identity.Identity{busy, idle}}, &fakeCodes{})

	mock.ExpectQuery(`SELECT selected_trainer_id AS trainer_id, COUNT\(\*\) AS user_count FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"trainer_id", "user_count"}).AddRow(busy.ID.String(), 4))
	mock.ExpectQuery(`SELECT trainer_id, COUNT\(\*\) AS message_count, MAX\(sent_at\) AS last_activity FROM "bot_messages"`).
		WillReturnRows(sqlmock.NewRows([]string{"trainer_id", "message_count", "last_activity"}).AddRow(busy.ID.String(), 12, fixedNow))

	rec := serve(t, h, http.MethodGet, "/trainers", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got []TrainerSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 trainers, got %d", len(got))
	}
	if got[0].UserCount != 4 || got[0].MessageCount != 12 || got[0].LastActivity == nil {
		t.Errorf("busy trainer: %+v", got[0])
	}
	if got[1].UserCount != 0 || got[1].MessageCount != 0 || got[1].LastActivity != nil || got[1].IsActive {
		t.Errorf("idle trainer: %+v", got[1])
	}
}

func TestToggleTrainer(t *testing.T) {
	h, _ := newMockHandlers(t, &fakeAccounts{toggled: true}, &fakeCodes{})
	id := uuid.New()

	rec := serve(t, h, http.MethodPut, "/trainers/"+id.String()+"/toggle-status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Message   string    `json:"message"`
		TrainerID uuid.UUID `json:"trainer_id"`
		IsActive  bool      `json:"is_active"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Message != "Trainer activated successfully" || body.TrainerID != id || !body.IsActive {
		t.Errorf("unexpected body %+v", body)
	}
}

func TestToggleTrainer_NotFound(t *testing.T) {
	h, _ := newMockHandlers(t, &fakeAccounts{err: identity.NewError(identity.ErrNotFound, "Trainer not found")}, &fakeCodes{})

	rec := serve(t, h, http.MethodPut, "/trainers/"+uuid.NewString()+"/toggle-status", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestSetAdminActive(t *testing.T) {
	accounts := &fakeAccounts{}
	h, _ := newMockHandlers(t, accounts, &fakeCodes{})
	id := uuid.New()

	rec := serve(t, h, http.MethodPut, "/admins/"+id.String()+"/active", `{"is_active":false}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if accounts.setRole != identity.RoleAdmin || accounts.setID != id || accounts.setActive {
		t.Errorf("unexpected call: %+v", accounts)
	}
}

func TestSetAdminActive_RequiresFlag(t *testing.T) {
	h, _ := newMockHandlers(t, &fakeAccounts{}, &fakeCodes{})

	rec := serve(t, h, http.MethodPut, "/admins/"+uuid.NewString()+"/active", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSetAdminActive_SelfDeactivationConflict(t *testing.T) {
	accounts := &fakeAccounts{err: identity.NewError(identity.ErrConflict, "Cannot deactivate your own account")}
	h, _ := newMockHandlers(t, accounts, &fakeCodes{})

	rec := serve(t, h, http.MethodPut, "/admins/"+uuid.NewString()+"/active", `{"is_active":false}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestListUsers(t *testing.T) {
	h, mock := newMockHandlers(t, &fakeAccounts{}, &fakeCodes{})
	mock.ExpectQuery(`SELECT u.\*, COALESCE\(t.name, \$1\) AS trainer_name, COUNT\(m.id\) AS message_count, MAX\(m.sent_at\) AS last_interaction FROM users AS u LEFT JOIN trainers t`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "trainer_name", "message_count", "last_interaction"}).
			AddRow(uuid.NewString(), "Sam", "No trainer", 0, nil))

	rec := serve(t, h, http.MethodGet, "/users", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got []UserSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Sam" || got[0].TrainerName != "No trainer" {
		t.Errorf("unexpected users %+v", got)
	}
}

func TestSystemHealth_ReportsFailureWithoutCause(t *testing.T) {
	h, mock := newMockHandlers(t, &fakeAccounts{}, &fakeCodes{})
	mock.ExpectPing()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "trainers"`).
		WillReturnError(errors.New(`relation "trainers" does not exist at 10.0.0.7`))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "bot_messages"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(9))

	rec := serve(t, h, http.MethodGet, "/system-health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "10.0.0.7") {
		t.Fatalf("body leaked cause: %s", rec.Body.String())
	}
	var got Health
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Status != unhealthy || got.Checks["trainers_table"] != unhealthy || got.Checks["users_table"] != healthy || got.Checks["database"] != healthy {
		t.Errorf("unexpected health %+v", got)
	}
}

func TestAnalytics(t *testing.T) {
	a := identity.Identity{ID: uuid.New(), Name: "A", IsActive: true}
	b := identity.Identity{ID: uuid.New(), Name: "B", IsActive: false}
	expired := fixedNow.Add(-time.Hour)
	codes := &fakeCodes{views: []regcode.View{
		{State: regcode.StateUsed},
		{State: regcode.StateActive},
		{Code: regcode.Code{ExpiresAt: &expired}, State: regcode.StateExpired},
	}}
	h, mock := newMockHandlers(t, &fakeAccounts{trainers: []identity.Identity{a, b}}, codes)

	mock.ExpectQuery(`FROM "users" WHERE selected_trainer_id IS NOT NULL`).
		WillReturnRows(sqlmock.NewRows([]string{"trainer_id", "user_count"}).AddRow(b.ID.String(), 1))
	mock.ExpectQuery(`FROM "bot_messages" WHERE trainer_id IS NOT NULL`).
		WillReturnRows(sqlmock.NewRows([]string{"trainer_id", "message_count", "last_activity"}).
			AddRow(a.ID.String(), 2, fixedNow).AddRow(b.ID.String(), 7, fixedNow))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
	mock.ExpectQuery(`SELECT count\(\*\) FROM bot_messages AS m`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(9))
	mock.ExpectQuery(`AS day, COUNT\(\*\) AS count FROM bot_messages AS m`).
		WillReturnRows(sqlmock.NewRows([]string{"day", "count"}).AddRow("2025-06-09", 9))
	mock.ExpectQuery(`SELECT count\(\*\) FROM bot_messages AS m WHERE m.sent_at >= `).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	rec := serve(t, h, http.MethodGet, "/analytics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got Analytics
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := Overview{TotalTrainers: 2, ActiveTrainers: 1, TotalUsers: 5, TotalMessages: 9, RecentMessages7Days: 4}
	if got.Overview != want {
		t.Errorf("overview: got %+v, want %+v", got.Overview, want)
	}
	if len(got.TrainerPerformance) != 2 || got.TrainerPerformance[0].TrainerID != b.ID {
		t.Errorf("expected busiest trainer first, got %+v", got.TrainerPerformance)
	}
	if got.RegistrationCodes.TotalCodes != 3 || got.RegistrationCodes.ExpiredCodes != 1 || got.RegistrationCodes.UsageRate != 33.33 {
		t.Errorf("codes: %+v", got.RegistrationCodes)
	}
	if got.DailyMessages["2025-06-09"] != 9 {
		t.Errorf("daily: %+v", got.DailyMessages)
	}
}

func TestCodeStats_Empty(t *testing.T) {
	if got := codeStats(nil); got != (CodeStats{}) {
		t.Errorf("expected zero stats, got %+v", got)
	}
}
