package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SetupRoutes mounts under /admin. guards must authenticate the caller and
// require the admin role.
func SetupRoutes(h *Handlers, guards ...func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(guards...)

	r.Get("/trainers", h.ListTrainers)
	r.Put("/trainers/{id}/toggle-status", h.ToggleTrainer)
	r.Put("/admins/{id}/active", h.SetAdminActive)

	r.Get("/users", h.ListUsers)
	r.Get("/analytics", h.Analytics)
	r.Get("/system-health", h.SystemHealth)

	return r
}
