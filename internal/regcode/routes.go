package regcode

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SetupRoutes mounts under /admin/registration-codes. guards must
// authenticate the caller and require the admin role.
func SetupRoutes(h *Handlers, guards ...func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(guards...)

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Put("/{id}/deactivate", h.Deactivate)
	r.Put("/{id}/activate", h.Activate)
	r.Delete("/{id}", h.Delete)

	return r
}
