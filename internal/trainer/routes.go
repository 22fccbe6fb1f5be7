package trainer

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SetupRoutes mounts under /trainer. guards must authenticate the caller and
// admit trainers and admins.
func SetupRoutes(h *Handlers, guards ...func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(guards...)

	r.Get("/config", h.GetConfig)
	r.Put("/config", h.UpdateConfig)

	r.Get("/questions", h.ListQuestions)
	r.Post("/questions", h.CreateQuestion)
	r.Put("/questions/{id}", h.UpdateQuestion)
	r.Delete("/questions/{id}", h.DeleteQuestion)

	r.Get("/reminder-settings", h.GetReminders)
	r.Put("/reminder-settings", h.UpdateReminders)
	r.Post("/reminder-settings/initialize", h.InitializeReminders)

	r.Get("/users", h.ListClients)
	r.Get("/analytics", h.MessageAnalytics)
	r.Get("/users-analytics", h.UserAnalytics)

	return r
}

// SetupCategoryRoutes mounts under /admin/question-categories.
func SetupCategoryRoutes(h *Handlers, guards ...func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(guards...)

	r.Post("/", h.CreateCategory)
	r.Put("/{id}", h.UpdateCategory)
	r.Delete("/{id}", h.DeleteCategory)

	return r
}

// SetupPublicRoutes mounts under /question-categories; no authentication.
func SetupPublicRoutes(h *Handlers) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.ListCategories)
	return r
}
