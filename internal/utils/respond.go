package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/nutritionbot/dashboard-backend/internal/identity"
)

const maxBodyBytes = 1 << 20

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func WriteMessage(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{"message": msg})
}

// StatusFor maps an error kind onto an HTTP status.
func StatusFor(err error) int {
	switch identity.Kind(err) {
	case identity.ErrUnauthorized:
		return http.StatusUnauthorized
	case identity.ErrForbidden:
		return http.StatusForbidden
	case identity.ErrNotFound:
		return http.StatusNotFound
	case identity.ErrConflict:
		return http.StatusConflict
	case identity.ErrInvalidCode, identity.ErrExpired, identity.ErrAlreadyUsed,
		identity.ErrWrongPassword, identity.ErrInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// WriteError renders err as {"detail": ...}. Dependency and unclassified
// errors are logged with their cause and rendered generically.
func WriteError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError && logger != nil {
		logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
	}
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	WriteJSON(w, status, map[string]string{"detail": identity.PublicMessage(err)})
}

// DecodeJSON reads a single JSON object into dst and validates it when dst
// implements validation.Validatable.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return identity.NewError(identity.ErrInvalidInput, "request body is required")
		}
		return identity.NewError(identity.ErrInvalidInput, "invalid JSON body")
	}
	return Validate(dst)
}

func Validate(v any) error {
	vv, ok := v.(validation.Validatable)
	if !ok {
		return nil
	}
	if err := vv.Validate(); err != nil {
		var ve validation.Errors
		if errors.As(err, &ve) {
			return identity.NewError(identity.ErrInvalidInput, ve.Error())
		}
		var ie validation.InternalError
		if errors.As(err, &ie) {
			return identity.Dependency(fmt.Errorf("validate: %w", err))
		}
		return identity.NewError(identity.ErrInvalidInput, err.Error())
	}
	return nil
}
