package admin

import (
	"net/http"
	"time"

	"github.com/nutritionbot/dashboard-backend/internal/db"
	"github.com/nutritionbot/dashboard-backend/internal/trainer"
	"github.com/nutritionbot/dashboard-backend/internal/utils"
)

const noTrainer = "No trainer"

type UserSummary struct {
	trainer.Client
	TrainerName     string     `json:"trainer_name"`
	MessageCount    int64      `json:"message_count"`
	LastInteraction *time.Time `json:"last_interaction"`
}

// ListUsers returns every client across all trainers. Message totals count
// everything the user sent, whichever trainer it went to.
func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.caller(w, r); !ok {
		return
	}
	out := []UserSummary{}
	err := h.db.WithContext(r.Context()).
		Table("users AS u").
		Select("u.*, COALESCE(t.name, ?) AS trainer_name, COUNT(m.id) AS message_count, MAX(m.sent_at) AS last_interaction", noTrainer).
		Joins("LEFT JOIN trainers t ON t.id = u.selected_trainer_id").
		Joins("LEFT JOIN bot_messages m ON m.user_id = u.id").
		Group("u.id, t.name").
		Order("u.created_at DESC").
		Scan(&out).Error
	if err != nil {
		h.fail(w, r, db.TranslateError(err, ""))
		return
	}
	utils.WriteJSON(w, http.StatusOK, out)
}
