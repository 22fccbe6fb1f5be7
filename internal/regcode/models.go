package regcode

import (
	"time"

	"github.com/google/uuid"
)

type State string

const (
	StateActive  State = "active"
	StateExpired State = "expired"
	StateUsed    State = "used"
)

type Code struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Code      string     `gorm:"uniqueIndex;not null" json:"code"`
	CreatedBy uuid.UUID  `gorm:"type:uuid;not null" json:"created_by"`
	ExpiresAt *time.Time `json:"expires_at"`
	IsUsed    bool       `gorm:"not null;default:false;index" json:"is_used"`
	UsedBy    *uuid.UUID `gorm:"type:uuid" json:"used_by"`
	// ClaimToken is set while a redemption holds the code and has not yet
	// recorded its redeemer.
	ClaimToken *uuid.UUID `gorm:"type:uuid" json:"-"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (Code) TableName() string { return "registration_codes" }

// State derives the lifecycle state at now. A code whose expiry equals now
// is still active.
func (c Code) State(now time.Time) State {
	if c.IsUsed {
		return StateUsed
	}
	if c.ExpiresAt != nil && now.After(*c.ExpiresAt) {
		return StateExpired
	}
	return StateActive
}

// View is a code plus its derived state.
type View struct {
	Code
	State State `json:"state"`
}

func (c Code) View(now time.Time) View {
	return View{Code: c, State: c.State(now)}
}
