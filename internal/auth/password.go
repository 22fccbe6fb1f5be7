package auth

import (
	"fmt"
	"strings"

	"github.com/nutritionbot/dashboard-backend/internal/identity"
	"golang.org/x/crypto/bcrypt"
)

// bcrypt only looks at the first 72 bytes; longer input is refused rather
// than silently truncated.
const maxPasswordBytes = 72

var bcryptPrefixes = []string{"$2a$", "$2b$", "$2y$"}

type Hasher struct {
	cost  int
	dummy []byte
}

// NewHasher precomputes a digest used to equalize timing when a login names
// an unknown email.
func NewHasher(cost int) (*Hasher, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("timing-equalizer"), cost)
	if err != nil {
		return nil, fmt.Errorf("bcrypt cost %d: %w", cost, err)
	}
	return &Hasher{cost: cost, dummy: dummy}, nil
}

func (h *Hasher) Hash(plain string) (string, error) {
	if plain == "" {
		return "", identity.NewError(identity.ErrInvalidInput, "Password must not be empty")
	}
	if len(plain) > maxPasswordBytes {
		return "", identity.NewError(identity.ErrInvalidInput, "Password must be at most 72 bytes")
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", identity.Dependency(err)
	}
	return string(digest), nil
}

// Verify never errors: a malformed or foreign digest is simply a mismatch.
func (h *Hasher) Verify(plain, digest string) bool {
	if !hasBcryptPrefix(digest) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}

func (h *Hasher) burn(plain string) {
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(plain))
}

func hasBcryptPrefix(digest string) bool {
	for _, p := range bcryptPrefixes {
		if strings.HasPrefix(digest, p) {
			return true
		}
	}
	return false
}
