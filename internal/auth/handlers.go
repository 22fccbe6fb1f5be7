package auth

import (
	"log/slog"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/nutritionbot/dashboard-backend/internal/identity"
	"github.com/nutritionbot/dashboard-backend/internal/utils"
)

type Handlers struct {
	service   *Service
	registrar Registrar
	logger    *slog.Logger
}

func NewHandlers(service *Service, registrar Registrar, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{service: service, registrar: registrar, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r loginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

type registerRequest struct {
	Email            string `json:"email"`
	Password         string `json:"password"`
	Name             string `json:"name"`
	RegistrationCode string `json:"registration_code"`
}

func (r registerRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(1, maxPasswordBytes)),
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.RegistrationCode, validation.Required),
	)
}

type changeNameRequest struct {
	Name string `json:"name"`
}

func (r changeNameRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
	)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (r changePasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(1, maxPasswordBytes)),
	)
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, r, h.logger, err)
		return
	}
	token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		utils.WriteError(w, r, h.logger, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, r, h.logger, err)
		return
	}
	ident, err := h.registrar.Redeem(r.Context(), identity.Registration{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Code:     req.RegistrationCode,
	})
	if err != nil {
		utils.WriteError(w, r, h.logger, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, ident.View())
}

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	caller, err := utils.Caller(r)
	if err != nil {
		utils.WriteError(w, r, h.logger, err)
		return
	}
	view, err := h.service.CurrentIdentity(r.Context(), caller)
	if err != nil {
		utils.WriteError(w, r, h.logger, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, view)
}

func (h *Handlers) ChangeName(w http.ResponseWriter, r *http.Request) {
	caller, err := utils.Caller(r)
	if err != nil {
		utils.WriteError(w, r, h.logger, err)
		return
	}
	var req changeNameRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, r, h.logger, err)
		return
	}
	if err := h.service.ChangeName(r.Context(), caller, req.Name); err != nil {
		utils.WriteError(w, r, h.logger, err)
		return
	}
	utils.WriteMessage(w, http.StatusOK, "Name changed successfully")
}

func (h *Handlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	caller, err := utils.Caller(r)
	if err != nil {
		utils.WriteError(w, r, h.logger, err)
		return
	}
	var req changePasswordRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, r, h.logger, err)
		return
	}
	if err := h.service.ChangePassword(r.Context(), caller, req.CurrentPassword, req.NewPassword); err != nil {
		utils.WriteError(w, r, h.logger, err)
		return
	}
	utils.WriteMessage(w, http.StatusOK, "Password changed successfully")
}
