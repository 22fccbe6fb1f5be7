package admin

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/nutritionbot/dashboard-backend/internal/db"
	"github.com/nutritionbot/dashboard-backend/internal/identity"
	"github.com/nutritionbot/dashboard-backend/internal/utils"
	"gorm.io/gorm"
)

type TrainerSummary struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	UserCount    int64      `json:"user_count"`
	MessageCount int64      `json:"message_count"`
	LastActivity *time.Time `json:"last_activity"`
}

type trainerActivity struct {
	TrainerID    uuid.UUID
	UserCount    int64
	MessageCount int64
	LastActivity *time.Time
}

// activityByTrainer aggregates client and message counts per trainer in two
// grouped queries.
func activityByTrainer(tx *gorm.DB) (map[uuid.UUID]*trainerActivity, error) {
	out := map[uuid.UUID]*trainerActivity{}
	get := func(id uuid.UUID) *trainerActivity {
		a, ok := out[id]
		if !ok {
			a = &trainerActivity{TrainerID: id}
			out[id] = a
		}
		return a
	}

	var users []trainerActivity
	err := tx.Table("users").
		Select("selected_trainer_id AS trainer_id, COUNT(*) AS user_count").
		Where("selected_trainer_id IS NOT NULL").
		Group("selected_trainer_id").
		Scan(&users).Error
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		get(u.TrainerID).UserCount = u.UserCount
	}

	var msgs []trainerActivity
	err = tx.Table("bot_messages").
		Select("trainer_id, COUNT(*) AS message_count, MAX(sent_at) AS last_activity").
		Where("trainer_id IS NOT NULL").
		Group("trainer_id").
		Scan(&msgs).Error
	if err != nil {
		return nil, err
	}
	for _, m := range msgs {
		a := get(m.TrainerID)
		a.MessageCount = m.MessageCount
		a.LastActivity = m.LastActivity
	}
	return out, nil
}

func (h *Handlers) trainerSummaries(ctx context.Context, caller identity.Identity) ([]TrainerSummary, error) {
	trainers, err := h.accounts.ListTrainers(ctx, caller)
	if err != nil {
		return nil, err
	}
	activity, err := activityByTrainer(h.db.WithContext(ctx))
	if err != nil {
		return nil, db.TranslateError(err, "")
	}

	out := make([]TrainerSummary, 0, len(trainers))
	for _, t := range trainers {
		s := TrainerSummary{
			ID:        t.ID,
			Name:      t.Name,
			Email:     t.Email,
			IsActive:  t.IsActive,
			CreatedAt: t.CreatedAt,
		}
		if a, ok := activity[t.ID]; ok {
			s.UserCount = a.UserCount
			s.MessageCount = a.MessageCount
			s.LastActivity = a.LastActivity
		}
		out = append(out, s)
	}
	return out, nil
}

func (h *Handlers) ListTrainers(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	out, err := h.trainerSummaries(r.Context(), caller)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

func (h *Handlers) ToggleTrainer(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "Trainer not found")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	active, err := h.accounts.ToggleActive(r.Context(), caller, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	msg := "Trainer deactivated successfully"
	if active {
		msg = "Trainer activated successfully"
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"message":    msg,
		"trainer_id": id,
		"is_active":  active,
	})
}

type setActiveRequest struct {
	IsActive *bool `json:"is_active"`
}

func (r setActiveRequest) Validate() error {
	if r.IsActive == nil {
		return identity.NewError(identity.ErrInvalidInput, "is_active is required")
	}
	return nil
}

// SetAdminActive sets an admin's active flag explicitly. Admins cannot
// deactivate themselves.
func (h *Handlers) SetAdminActive(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "Admin not found")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req setActiveRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.accounts.SetActive(r.Context(), caller, identity.RoleAdmin, id, *req.IsActive); err != nil {
		h.fail(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"message":   "Admin status updated successfully",
		"admin_id":  id,
		"is_active": *req.IsActive,
	})
}
