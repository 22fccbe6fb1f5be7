package trainer

import (
	"net/http"
	"time"

	"github.com/nutritionbot/dashboard-backend/internal/db"
	"github.com/nutritionbot/dashboard-backend/internal/utils"
	"gorm.io/gorm"
)

// ClientSummary is a client row plus their message totals with the trainer
// they selected.
type ClientSummary struct {
	Client
	MessageCount    int64      `json:"message_count"`
	LastInteraction *time.Time `json:"last_interaction"`
}

func clientSummaries(tx *gorm.DB, scope func(*gorm.DB) *gorm.DB, order string) ([]ClientSummary, error) {
	out := []ClientSummary{}
	err := tx.Table("users AS u").
		Select("u.*, COUNT(m.id) AS message_count, MAX(m.sent_at) AS last_interaction").
		Joins("LEFT JOIN bot_messages m ON m.user_id = u.id AND m.trainer_id = u.selected_trainer_id").
		Scopes(scope).
		Group("u.id").
		Order(order).
		Scan(&out).Error
	return out, err
}

func (h *Handlers) ListClients(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	scope, err := readScope(caller, r, "u.selected_trainer_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := clientSummaries(h.db.WithContext(r.Context()), scope, "u.created_at DESC")
	if err != nil {
		h.fail(w, r, db.TranslateError(err, ""))
		return
	}
	utils.WriteJSON(w, http.StatusOK, out)
}
