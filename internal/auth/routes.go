package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SetupRoutes mounts under /auth. limit guards the unauthenticated
// credential endpoints; authn resolves the bearer token for the rest.
func SetupRoutes(h *Handlers, authn, limit func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(limit)
		r.Post("/login", h.Login)
		r.Post("/register", h.Register)
	})

	r.Group(func(r chi.Router) {
		r.Use(authn)
		r.Get("/me", h.Me)
		r.Put("/change-name", h.ChangeName)
		r.Put("/change-password", h.ChangePassword)
	})

	return r
}
