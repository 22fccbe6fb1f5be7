package regcode

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
	"github.com/nutritionbot/dashboard-backend/internal/identity"
	"github.com/nutritionbot/dashboard-backend/internal/utils"
)

type Handlers struct {
	lifecycle *Lifecycle
	logger    *slog.Logger
}

func NewHandlers(lifecycle *Lifecycle, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{lifecycle: lifecycle, logger: logger}
}

type createRequest struct {
	Code      string     `json:"code"`
	ExpiresAt *time.Time `json:"expires_at"`
}

func (r createRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Code, validation.Required, validation.Length(1, 64)),
	)
}

func codeID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, identity.NewError(identity.ErrNotFound, "Registration code not found")
	}
	return id, nil
}

func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) {
	caller, err := utils.Caller(r)
	if err != nil {
		utils.WriteError(w, r, h.logger, err)
		return
	}
	var req createRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, r, h.logger, err)
		return
	}
	c, err := h.lifecycle.Create(r.Context(), caller, req.Code, req.ExpiresAt)
	if err != nil {
		utils.WriteError(w, r, h.logger, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "Registration code created successfully",
		"code":    c.View(h.lifecycle.now()),
	})
}

func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	caller, err := utils.Caller(r)
	if err != nil {
		utils.WriteError(w, r, h.logger, err)
		return
	}
	codes, err := h.lifecycle.List(r.Context(), caller)
	if err != nil {
		utils.WriteError(w, r, h.logger, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, codes)
}

func (h *Handlers) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.lifecycle.Deactivate, "Registration code deactivated successfully")
}

func (h *Handlers) Activate(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.lifecycle.Activate, "Registration code activated successfully")
}

func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.lifecycle.Delete, "Registration code deleted successfully")
}

func (h *Handlers) mutate(w http.ResponseWriter, r *http.Request, op func(context.Context, identity.Identity, uuid.UUID) error, msg string) {
	caller, err := utils.Caller(r)
	if err != nil {
		utils.WriteError(w, r, h.logger, err)
		return
	}
	id, err := codeID(r)
	if err != nil {
		utils.WriteError(w, r, h.logger, err)
		return
	}
	if err := op(r.Context(), caller, id); err != nil {
		utils.WriteError(w, r, h.logger, err)
		return
	}
	utils.WriteMessage(w, http.StatusOK, msg)
}
