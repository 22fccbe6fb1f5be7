package trainer

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/nutritionbot/dashboard-backend/internal/identity"
	"github.com/nutritionbot/dashboard-backend/internal/utils"
	"gorm.io/gorm"
)

type Handlers struct {
	db     *gorm.DB
	logger *slog.Logger
	now    func() time.Time
}

func NewHandlers(d *gorm.DB, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{db: d, logger: logger, now: time.Now}
}

// caller returns the authenticated identity, writing the error response
// itself when there is none.
func (h *Handlers) caller(w http.ResponseWriter, r *http.Request) (identity.Identity, bool) {
	c, err := utils.Caller(r)
	if err != nil {
		utils.WriteError(w, r, h.logger, err)
		return identity.Identity{}, false
	}
	return c, true
}

func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	utils.WriteError(w, r, h.logger, err)
}

// readScope is OwnedBy plus, for admins, an optional ?trainer_id= filter.
func readScope(caller identity.Identity, r *http.Request, column string) (func(*gorm.DB) *gorm.DB, error) {
	base := identity.OwnedByColumn(caller, column)
	requested := strings.TrimSpace(r.URL.Query().Get("trainer_id"))
	if caller.Role != identity.RoleAdmin || requested == "" {
		return base, nil
	}
	id, err := uuid.Parse(requested)
	if err != nil {
		return nil, identity.NewError(identity.ErrInvalidInput, "trainer_id must be a valid UUID")
	}
	return func(d *gorm.DB) *gorm.DB {
		return base(d).Where(column+" = ?", id)
	}, nil
}

func pathID(r *http.Request, notFound string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, identity.NewError(identity.ErrNotFound, notFound)
	}
	return id, nil
}
