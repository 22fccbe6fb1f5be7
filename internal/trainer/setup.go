package trainer

import "gorm.io/gorm"

// Migrate creates the trainer-owned tables. users and bot_messages are
// shared with the bot and only created here when missing.
func Migrate(d *gorm.DB) error {
	return d.AutoMigrate(
		&Category{},
		&Question{},
		&Config{},
		&MealReminder{},
		&WeightReminder{},
		&SummaryReminder{},
		&Client{},
		&BotMessage{},
	)
}
