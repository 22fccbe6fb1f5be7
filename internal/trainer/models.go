package trainer

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Category struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Category) TableName() string { return "question_categories" }

type Question struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TrainerID    uuid.UUID `gorm:"type:uuid;not null;index" json:"trainer_id"`
	CategoryID   uuid.UUID `gorm:"type:uuid;not null;index" json:"category_id"`
	QuestionText string    `gorm:"not null" json:"question_text"`
	StepOrder    int       `gorm:"not null;default:1" json:"step_order"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Category *Category `gorm:"foreignKey:CategoryID" json:"question_categories,omitempty"`
}

func (Question) TableName() string { return "trainer_questions" }

// Config is the bot configuration a trainer edits from the dashboard.
type Config struct {
	ID                  uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TrainerID           uuid.UUID      `gorm:"type:uuid;uniqueIndex;not null" json:"trainer_id"`
	OnboardingQuestions Document       `gorm:"type:jsonb;not null" json:"onboarding_questions"`
	DietPreferences     pq.StringArray `gorm:"type:text[];not null" json:"diet_preferences"`
	GeneralNotes        *string        `json:"general_notes"`
	BotPersonality      *string        `json:"bot_personality"`
	ReminderSettings    Object         `gorm:"type:jsonb;not null" json:"reminder_settings"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

func (Config) TableName() string { return "trainer_configurations" }

type MealReminder struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TrainerID          uuid.UUID `gorm:"type:uuid;not null;index" json:"trainer_id"`
	ReminderType       string    `gorm:"not null" json:"reminder_type"`
	Hour               int       `gorm:"not null" json:"hour"`
	Minute             int       `gorm:"not null" json:"minute"`
	HoursSinceLastMeal int       `gorm:"not null" json:"hours_since_last_meal"`
	Enabled            bool      `gorm:"not null" json:"enabled"`
}

func (MealReminder) TableName() string { return "trainer_reminder_settings" }

type WeightReminder struct {
	ID                   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TrainerID            uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"trainer_id"`
	ReminderHour         int       `gorm:"not null" json:"reminder_hour"`
	ReminderMinute       int       `gorm:"not null" json:"reminder_minute"`
	ReminderIntervalDays int       `gorm:"not null" json:"reminder_interval_days"`
	Enabled              bool      `gorm:"not null" json:"enabled"`
}

func (WeightReminder) TableName() string { return "trainer_weight_settings" }

type SummaryReminder struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TrainerID     uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"trainer_id"`
	SummaryHour   int       `gorm:"not null" json:"summary_hour"`
	SummaryMinute int       `gorm:"not null" json:"summary_minute"`
	Enabled       bool      `gorm:"not null" json:"enabled"`
}

func (SummaryReminder) TableName() string { return "trainer_summary_settings" }

// Client is a bot user. Rows are written by the bot; the dashboard only
// reads them.
type Client struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name              string     `json:"name"`
	Timezone          *string    `json:"timezone"`
	Location          *string    `json:"location"`
	Weight            *float64   `json:"weight"`
	Height            *float64   `json:"height"`
	Gender            *string    `json:"gender"`
	SelectedTrainerID *uuid.UUID `gorm:"type:uuid;index" json:"selected_trainer_id"`
	CreatedAt         time.Time  `json:"created_at"`
}

func (Client) TableName() string { return "users" }

type BotMessage struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	TrainerID *uuid.UUID `gorm:"type:uuid;index" json:"trainer_id"`
	Content   string     `json:"content"`
	SentAt    time.Time  `gorm:"index" json:"sent_at"`
}

func (BotMessage) TableName() string { return "bot_messages" }

// Document is a jsonb array of objects.
type Document []map[string]any

func (d Document) Value() (driver.Value, error) {
	if d == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(d)
}

func (d *Document) Scan(src any) error {
	b, err := jsonBytes(src)
	if err != nil || b == nil {
		*d = Document{}
		return err
	}
	return json.Unmarshal(b, d)
}

// Object is a jsonb object.
type Object map[string]any

func (o Object) Value() (driver.Value, error) {
	if o == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(o)
}

func (o *Object) Scan(src any) error {
	b, err := jsonBytes(src)
	if err != nil || b == nil {
		*o = Object{}
		return err
	}
	return json.Unmarshal(b, o)
}

func jsonBytes(src any) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	}
	return nil, errors.New("unsupported jsonb source type")
}
