package admin

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/nutritionbot/dashboard-backend/internal/identity"
	"github.com/nutritionbot/dashboard-backend/internal/regcode"
	"github.com/nutritionbot/dashboard-backend/internal/utils"
	"gorm.io/gorm"
)

// Accounts is the part of the identity service the admin overview drives.
type Accounts interface {
	ListTrainers(ctx context.Context, caller identity.Identity) ([]identity.Identity, error)
	ToggleActive(ctx context.Context, caller identity.Identity, id uuid.UUID) (bool, error)
	SetActive(ctx context.Context, caller identity.Identity, role identity.Role, id uuid.UUID, active bool) error
}

type Codes interface {
	List(ctx context.Context, caller identity.Identity) ([]regcode.View, error)
}

type Handlers struct {
	db       *gorm.DB
	accounts Accounts
	codes    Codes
	logger   *slog.Logger
	now      func() time.Time
}

func NewHandlers(d *gorm.DB, accounts Accounts, codes Codes, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{db: d, accounts: accounts, codes: codes, logger: logger, now: time.Now}
}

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

func pathID(r *http.Request, notFound string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, identity.NewError(identity.ErrNotFound, notFound)
	}
	return id, nil
}
