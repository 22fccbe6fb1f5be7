package trainer

import (
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
	"github.com/nutritionbot/dashboard-backend/internal/db"
	"github.com/nutritionbot/dashboard-backend/internal/identity"
	"github.com/nutritionbot/dashboard-backend/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var mealTypes = []any{"breakfast", "lunch", "dinner", "evening"}

type mealReminderInput struct {
	ReminderType       string `json:"reminder_type"`
	Hour               int    `json:"hour"`
	Minute             int    `json:"minute"`
	HoursSinceLastMeal int    `json:"hours_since_last_meal"`
	Enabled            bool   `json:"enabled"`
}

func (m mealReminderInput) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.ReminderType, validation.Required, validation.In(mealTypes...)),
		validation.Field(&m.Hour, validation.Min(0), validation.Max(23)),
		validation.Field(&m.Minute, validation.Min(0), validation.Max(59)),
		validation.Field(&m.HoursSinceLastMeal, validation.Min(0), validation.Max(24)),
	)
}

type weightReminderInput struct {
	ReminderHour         int  `json:"reminder_hour"`
	ReminderMinute       int  `json:"reminder_minute"`
	ReminderIntervalDays int  `json:"reminder_interval_days"`
	Enabled              bool `json:"enabled"`
}

func (m weightReminderInput) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.ReminderHour, validation.Min(0), validation.Max(23)),
		validation.Field(&m.ReminderMinute, validation.Min(0), validation.Max(59)),
		validation.Field(&m.ReminderIntervalDays, validation.Required, validation.Min(1), validation.Max(365)),
	)
}

type summaryReminderInput struct {
	SummaryHour   int  `json:"summary_hour"`
	SummaryMinute int  `json:"summary_minute"`
	Enabled       bool `json:"enabled"`
}

func (m summaryReminderInput) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.SummaryHour, validation.Min(0), validation.Max(23)),
		validation.Field(&m.SummaryMinute, validation.Min(0), validation.Max(59)),
	)
}

type reminderRequest struct {
	TrainerID       string                `json:"trainer_id"`
	MealReminders   *[]mealReminderInput  `json:"meal_reminders"`
	WeightReminder  *weightReminderInput  `json:"weight_reminder"`
	SummaryReminder *summaryReminderInput `json:"summary_reminder"`
}

func (r reminderRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.MealReminders),
		validation.Field(&r.WeightReminder),
		validation.Field(&r.SummaryReminder),
	)
}

// ReminderSettings is the combined view of a trainer's three reminder tables.
type ReminderSettings struct {
	MealReminders   []MealReminder   `json:"meal_reminders"`
	WeightReminder  *WeightReminder  `json:"weight_reminder"`
	SummaryReminder *SummaryReminder `json:"summary_reminder"`
}

func defaultMealReminders(trainerID uuid.UUID) []MealReminder {
	mk := func(kind string, hour, since int) MealReminder {
		return MealReminder{
			ID:                 uuid.New(),
			TrainerID:          trainerID,
			ReminderType:       kind,
			Hour:               hour,
			HoursSinceLastMeal: since,
			Enabled:            true,
		}
	}
	return []MealReminder{
		mk("breakfast", 8, 3),
		mk("lunch", 13, 4),
		mk("dinner", 19, 4),
		mk("evening", 22, 3),
	}
}

func loadReminders(tx *gorm.DB, trainerID uuid.UUID) (ReminderSettings, error) {
	out := ReminderSettings{MealReminders: []MealReminder{}}
	if err := tx.Where("trainer_id = ?", trainerID).Order("hour, minute").Find(&out.MealReminders).Error; err != nil {
		return out, err
	}

	var weight WeightReminder
	switch err := tx.Where("trainer_id = ?", trainerID).Take(&weight).Error; {
	case err == nil:
		out.WeightReminder = &weight
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return out, err
	}

	var summary SummaryReminder
	switch err := tx.Where("trainer_id = ?", trainerID).Take(&summary).Error; {
	case err == nil:
		out.SummaryReminder = &summary
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return out, err
	}
	return out, nil
}

func (h *Handlers) GetReminders(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	owner, err := identity.OwnerFor(caller, r.URL.Query().Get("trainer_id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := loadReminders(h.db.WithContext(r.Context()), owner)
	if err != nil {
		h.fail(w, r, db.TranslateError(err, ""))
		return
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

// UpdateReminders replaces the meal reminders and upserts the weight and
// summary rows. Sections left out of the body are untouched.
func (h *Handlers) UpdateReminders(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req reminderRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	owner, err := identity.OwnerFor(caller, req.TrainerID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	err = h.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if req.MealReminders != nil {
			if err := tx.Where("trainer_id = ?", owner).Delete(&MealReminder{}).Error; err != nil {
				return err
			}
			rows := make([]MealReminder, 0, len(*req.MealReminders))
			for _, m := range *req.MealReminders {
				rows = append(rows, MealReminder{
					ID:                 uuid.New(),
					TrainerID:          owner,
					ReminderType:       m.ReminderType,
					Hour:               m.Hour,
					Minute:             m.Minute,
					HoursSinceLastMeal: m.HoursSinceLastMeal,
					Enabled:            m.Enabled,
				})
			}
			if len(rows) > 0 {
				if err := tx.Create(&rows).Error; err != nil {
					return err
				}
			}
		}

		if in := req.WeightReminder; in != nil {
			row := WeightReminder{
				ID:                   uuid.New(),
				TrainerID:            owner,
				ReminderHour:         in.ReminderHour,
				ReminderMinute:       in.ReminderMinute,
				ReminderIntervalDays: in.ReminderIntervalDays,
				Enabled:              in.Enabled,
			}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "trainer_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"reminder_hour", "reminder_minute", "reminder_interval_days", "enabled"}),
			}).Create(&row).Error
			if err != nil {
				return err
			}
		}

		if in := req.SummaryReminder; in != nil {
			row := SummaryReminder{
				ID:            uuid.New(),
				TrainerID:     owner,
				SummaryHour:   in.SummaryHour,
				SummaryMinute: in.SummaryMinute,
				Enabled:       in.Enabled,
			}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "trainer_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"summary_hour", "summary_minute", "enabled"}),
			}).Create(&row).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		h.fail(w, r, db.TranslateError(err, ""))
		return
	}
	utils.WriteMessage(w, http.StatusOK, "Reminder settings updated successfully")
}

func (h *Handlers) InitializeReminders(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	owner, err := identity.OwnerFor(caller, r.URL.Query().Get("trainer_id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	err = h.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		existing, err := loadReminders(tx, owner)
		if err != nil {
			return err
		}
		if len(existing.MealReminders) > 0 || existing.WeightReminder != nil || existing.SummaryReminder != nil {
			return identity.NewError(identity.ErrConflict, "Reminder settings already exist for this trainer")
		}

		meals := defaultMealReminders(owner)
		if err := tx.Create(&meals).Error; err != nil {
			return err
		}
		weight := WeightReminder{
			ID:                   uuid.New(),
			TrainerID:            owner,
			ReminderHour:         9,
			ReminderIntervalDays: 3,
			Enabled:              true,
		}
		if err := tx.Create(&weight).Error; err != nil {
			return err
		}
		summary := SummaryReminder{
			ID:          uuid.New(),
			TrainerID:   owner,
			SummaryHour: 22,
			Enabled:     true,
		}
		return tx.Create(&summary).Error
	})
	if err != nil {
		h.fail(w, r, db.TranslateError(err, "Reminder settings already exist for this trainer"))
		return
	}
	utils.WriteMessage(w, http.StatusCreated, "Default reminder settings initialized successfully")
}
