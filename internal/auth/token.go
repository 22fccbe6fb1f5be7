package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/nutritionbot/dashboard-backend/internal/identity"
)

const DefaultTokenTTL = 180 * time.Minute

// Claims is the token payload: sub is the identity id, type its role.
type Claims struct {
	Type identity.Role `json:"type"`
	jwt.RegisteredClaims
}

// Subject is what a verified token asserts.
type Subject struct {
	ID   uuid.UUID
	Role identity.Role
}

type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type TokenOption func(*TokenIssuer)

// WithClock overrides the time source for issuing and verifying.
func WithClock(now func() time.Time) TokenOption {
	return func(t *TokenIssuer) { t.now = now }
}

func NewTokenIssuer(secret []byte, ttl time.Duration, opts ...TokenOption) (*TokenIssuer, error) {
	if len(secret) == 0 {
		return nil, errors.New("token secret is empty")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	t := &TokenIssuer{secret: secret, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

func (t *TokenIssuer) TTL() time.Duration { return t.ttl }

func (t *TokenIssuer) Issue(id uuid.UUID, role identity.Role) (string, error) {
	if !role.Valid() {
		return "", identity.NewError(identity.ErrInvalidInput, "unknown role")
	}
	now := t.now().UTC()
	claims := Claims{
		Type: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", identity.Dependency(err)
	}
	return signed, nil
}

// Verify checks signature, algorithm and expiry. Every failure is reported as
// ErrUnauthorized with the same message.
func (t *TokenIssuer) Verify(raw string) (Subject, error) {
	unauthorized := identity.NewError(identity.ErrUnauthorized, "Could not validate credentials")

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !token.Valid {
		return Subject{}, unauthorized
	}
	if claims.Subject == "" || !claims.Type.Valid() {
		return Subject{}, unauthorized
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Subject{}, unauthorized
	}
	return Subject{ID: id, Role: claims.Type}, nil
}
