package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nutritionbot/dashboard-backend/internal/identity"
)

// Resolver turns a bearer token into the live identity it names.
type Resolver struct {
	tokens *TokenIssuer
	store  Store
	logger *slog.Logger
}

func NewResolver(tokens *TokenIssuer, store Store, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{tokens: tokens, store: store, logger: logger}
}

// Resolve fails with ErrUnauthorized when the token is bad or its subject is
// missing or inactive, and with ErrDependency when the store is unreachable.
func (r *Resolver) Resolve(ctx context.Context, token string) (identity.Identity, error) {
	sub, err := r.tokens.Verify(token)
	if err != nil {
		return identity.Identity{}, err
	}
	ident, err := r.store.FindByID(ctx, sub.Role, sub.ID)
	if err != nil {
		if isNotFound(err) {
			return identity.Identity{}, identity.NewError(identity.ErrUnauthorized, "Could not validate credentials")
		}
		if !errors.Is(err, identity.ErrDependency) {
			err = identity.Dependency(err)
		}
		return identity.Identity{}, err
	}
	if !ident.IsActive {
		r.logger.WarnContext(ctx, "token presented for inactive identity", "identity_id", ident.ID, "role", ident.Role)
		return identity.Identity{}, identity.NewError(identity.ErrUnauthorized, "Could not validate credentials")
	}
	return ident, nil
}
