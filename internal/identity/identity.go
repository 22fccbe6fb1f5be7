package identity

import (
	"time"

	"github.com/google/uuid"
)

// Identity is an admin or trainer account. Both variants share the same
// columns and live in their own table; Role is filled in by the store.
type Identity struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string    `gorm:"unique;not null" json:"email"`
	PasswordHash string    `gorm:"column:password_hash;not null" json:"-"`
	Name         string    `gorm:"not null" json:"name"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`

	Role Role `gorm:"-" json:"role"`
}

// View is the public shape of an identity.
type View struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
	Role  Role      `json:"role"`
}

func (i Identity) View() View {
	return View{ID: i.ID, Email: i.Email, Name: i.Name, Role: i.Role}
}

// Registration is the input of a code-gated trainer signup.
type Registration struct {
	Email    string
	Password string
	Name     string
	Code     string
}
