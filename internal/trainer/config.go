package trainer

import (
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/nutritionbot/dashboard-backend/internal/db"
	"github.com/nutritionbot/dashboard-backend/internal/identity"
	"github.com/nutritionbot/dashboard-backend/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxOnboardingQuestions = 5

type configRequest struct {
	TrainerID           string    `json:"trainer_id"`
	OnboardingQuestions *Document `json:"onboarding_questions"`
	DietPreferences     *[]string `json:"diet_preferences"`
	GeneralNotes        *string   `json:"general_notes"`
	BotPersonality      *string   `json:"bot_personality"`
	ReminderSettings    *Object   `json:"reminder_settings"`
}

func (r configRequest) Validate() error {
	if r.OnboardingQuestions != nil && len(*r.OnboardingQuestions) > maxOnboardingQuestions {
		return identity.NewError(identity.ErrInvalidInput, "Maximum 5 onboarding questions allowed")
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.GeneralNotes, validation.Length(0, 5000)),
		validation.Field(&r.BotPersonality, validation.Length(0, 5000)),
	)
}

func defaultConfig(trainerID uuid.UUID) Config {
	return Config{
		ID:                  uuid.New(),
		TrainerID:           trainerID,
		OnboardingQuestions: Document{},
		DietPreferences:     pq.StringArray{},
		ReminderSettings:    Object{},
	}
}

// loadConfig returns the trainer's configuration, inserting the defaults the
// first time it is read. A concurrent first read loses the insert race
// quietly and re-reads the winner's row.
func (h *Handlers) loadConfig(tx *gorm.DB, trainerID uuid.UUID) (Config, error) {
	var cfg Config
	err := tx.Where("trainer_id = ?", trainerID).Take(&cfg).Error
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return Config{}, db.TranslateError(err, "")
	}

	cfg = defaultConfig(trainerID)
	res := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "trainer_id"}}, DoNothing: true}).Create(&cfg)
	if res.Error != nil {
		return Config{}, db.TranslateError(res.Error, "")
	}
	if res.RowsAffected == 1 {
		return cfg, nil
	}
	if err := tx.Where("trainer_id = ?", trainerID).Take(&cfg).Error; err != nil {
		return Config{}, db.TranslateError(err, "")
	}
	return cfg, nil
}

func (h *Handlers) GetConfig(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	owner, err := identity.OwnerFor(caller, r.URL.Query().Get("trainer_id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	cfg, err := h.loadConfig(h.db.WithContext(r.Context()), owner)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, cfg)
}

// UpdateConfig writes only the fields present in the body.
func (h *Handlers) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req configRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	owner, err := identity.OwnerFor(caller, req.TrainerID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	cols := map[string]any{"updated_at": h.now().UTC()}
	if req.OnboardingQuestions != nil {
		cols["onboarding_questions"] = *req.OnboardingQuestions
	}
	if req.DietPreferences != nil {
		cols["diet_preferences"] = pq.StringArray(*req.DietPreferences)
	}
	if req.GeneralNotes != nil {
		cols["general_notes"] = *req.GeneralNotes
	}
	if req.BotPersonality != nil {
		cols["bot_personality"] = *req.BotPersonality
	}
	if req.ReminderSettings != nil {
		cols["reminder_settings"] = *req.ReminderSettings
	}

	err = h.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if _, err := h.loadConfig(tx, owner); err != nil {
			return err
		}
		return tx.Model(&Config{}).Where("trainer_id = ?", owner).Updates(cols).Error
	})
	if err != nil {
		h.fail(w, r, db.TranslateError(err, ""))
		return
	}
	utils.WriteMessage(w, http.StatusOK, "Configuration updated successfully")
}
