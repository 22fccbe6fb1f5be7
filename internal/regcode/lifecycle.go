package regcode

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nutritionbot/dashboard-backend/internal/identity"
	"github.com/nutritionbot/dashboard-backend/internal/metrics"
)

// Identities is the slice of the auth service redemption needs.
type Identities interface {
	EmailTaken(ctx context.Context, email string) (bool, error)
	HashPassword(plain string) (string, error)
	CreateTrainer(ctx context.Context, email, digest, name string) (identity.Identity, error)
}

type Lifecycle struct {
	store      Store
	identities Identities
	logger     *slog.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
}

type Option func(*Lifecycle)

func WithClock(now func() time.Time) Option {
	return func(l *Lifecycle) { l.now = now }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Lifecycle) { l.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Lifecycle) { l.logger = logger }
}

func NewLifecycle(store Store, identities Identities, opts ...Option) *Lifecycle {
	l := &Lifecycle{
		store:      store,
		identities: identities,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func codeNotFound() error {
	return identity.NewError(identity.ErrNotFound, "Registration code not found")
}

func (l *Lifecycle) Create(ctx context.Context, caller identity.Identity, code string, expiresAt *time.Time) (Code, error) {
	if err := identity.RequireAdmin(caller); err != nil {
		return Code{}, err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return Code{}, identity.NewError(identity.ErrInvalidInput, "Code must not be empty")
	}
	if _, err := l.store.FindByCode(ctx, code); err == nil {
		return Code{}, identity.NewError(identity.ErrConflict, "Registration code already exists")
	} else if !errors.Is(err, identity.ErrNotFound) {
		return Code{}, err
	}

	c := Code{
		ID:        uuid.New(),
		Code:      code,
		CreatedBy: caller.ID,
		ExpiresAt: expiresAt,
		CreatedAt: l.now().UTC(),
	}
	if err := l.store.Insert(ctx, &c); err != nil {
		return Code{}, err
	}
	l.logger.InfoContext(ctx, "registration code created", "code_id", c.ID, "actor_id", caller.ID)
	return c, nil
}

// List returns every code, newest first, with its derived state.
func (l *Lifecycle) List(ctx context.Context, caller identity.Identity) ([]View, error) {
	if err := identity.RequireAdmin(caller); err != nil {
		return nil, err
	}
	codes, err := l.store.List(ctx)
	if err != nil {
		return nil, err
	}
	now := l.now()
	out := make([]View, 0, len(codes))
	for _, c := range codes {
		out = append(out, c.View(now))
	}
	return out, nil
}

// Deactivate marks a code used so it can no longer be redeemed. Codes with a
// recorded redeemer are left as they are. A redemption still in flight loses
// its claim and cannot hand the code back.
func (l *Lifecycle) Deactivate(ctx context.Context, caller identity.Identity, id uuid.UUID) error {
	if err := identity.RequireAdmin(caller); err != nil {
		return err
	}
	changed, err := l.store.ForceUsed(ctx, id)
	if err != nil {
		return err
	}
	if !changed {
		if _, err := l.store.FindByID(ctx, id); err != nil {
			if errors.Is(err, identity.ErrNotFound) {
				return codeNotFound()
			}
			return err
		}
	}
	l.logger.InfoContext(ctx, "registration code deactivated", "code_id", id, "actor_id", caller.ID)
	return nil
}

// Activate returns a code to the unused state, clearing any redeemer.
func (l *Lifecycle) Activate(ctx context.Context, caller identity.Identity, id uuid.UUID) error {
	if err := identity.RequireAdmin(caller); err != nil {
		return err
	}
	changed, err := l.store.ForceActive(ctx, id)
	if err != nil {
		return err
	}
	if !changed {
		return codeNotFound()
	}
	l.logger.InfoContext(ctx, "registration code activated", "code_id", id, "actor_id", caller.ID)
	return nil
}

// Delete removes an unused code. Used codes are kept as an audit trail.
func (l *Lifecycle) Delete(ctx context.Context, caller identity.Identity, id uuid.UUID) error {
	if err := identity.RequireAdmin(caller); err != nil {
		return err
	}
	deleted, err := l.store.DeleteUnused(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		c, err := l.store.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, identity.ErrNotFound) {
				return codeNotFound()
			}
			return err
		}
		if c.IsUsed {
			return identity.NewError(identity.ErrConflict, "Cannot delete registration code that has been used")
		}
		return identity.Dependency(errors.New("registration code delete affected no rows"))
	}
	l.logger.InfoContext(ctx, "registration code deleted", "code_id", id, "actor_id", caller.ID)
	return nil
}

// classify maps a code that cannot be redeemed onto the matching error.
func (l *Lifecycle) classify(c Code, now time.Time) error {
	switch c.State(now) {
	case StateUsed:
		return identity.NewError(identity.ErrAlreadyUsed, "Registration code has already been used")
	case StateExpired:
		return identity.NewError(identity.ErrExpired, "Registration code has expired")
	}
	return nil
}

// Redeem creates a trainer account from a registration code. The code is
// claimed with a conditional update before the trainer is inserted, so of
// two concurrent redemptions exactly one creates an identity.
func (l *Lifecycle) Redeem(ctx context.Context, reg identity.Registration) (identity.Identity, error) {
	ident, outcome, err := l.redeem(ctx, reg)
	l.metrics.ObserveRedemption(outcome)
	return ident, err
}

func (l *Lifecycle) redeem(ctx context.Context, reg identity.Registration) (identity.Identity, string, error) {
	now := l.now()

	c, err := l.store.FindByCode(ctx, strings.TrimSpace(reg.Code))
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return identity.Identity{}, "invalid_code", identity.NewError(identity.ErrInvalidCode, "Invalid registration code")
		}
		return identity.Identity{}, "error", err
	}
	if err := l.classify(c, now); err != nil {
		return identity.Identity{}, string(c.State(now)), err
	}

	taken, err := l.identities.EmailTaken(ctx, reg.Email)
	if err != nil {
		return identity.Identity{}, "error", err
	}
	if taken {
		return identity.Identity{}, "conflict", identity.NewError(identity.ErrConflict, "User already exists")
	}

	digest, err := l.identities.HashPassword(reg.Password)
	if err != nil {
		return identity.Identity{}, "error", err
	}

	token := uuid.New()
	claimed, err := l.store.Claim(ctx, c.ID, now, token)
	if err != nil {
		return identity.Identity{}, "error", err
	}
	if !claimed {
		l.logger.InfoContext(ctx, "registration code claim lost", "code_id", c.ID)
		if current, err := l.store.FindByID(ctx, c.ID); err == nil {
			if cerr := l.classify(current, now); cerr != nil {
				return identity.Identity{}, string(current.State(now)), cerr
			}
		}
		return identity.Identity{}, "used", identity.NewError(identity.ErrAlreadyUsed, "Registration code has already been used")
	}

	trainer, err := l.identities.CreateTrainer(ctx, reg.Email, digest, reg.Name)
	if err != nil {
		if rerr := l.store.Release(ctx, c.ID, token); rerr != nil {
			l.logger.ErrorContext(ctx, "release registration code after failed signup", "code_id", c.ID, "error", rerr)
		}
		outcome := "error"
		if errors.Is(err, identity.ErrConflict) {
			outcome = "conflict"
		}
		return identity.Identity{}, outcome, err
	}

	if err := l.store.SetUsedBy(ctx, c.ID, trainer.ID); err != nil {
		l.logger.WarnContext(ctx, "record registration code redeemer", "code_id", c.ID, "identity_id", trainer.ID, "error", err)
	}
	l.logger.InfoContext(ctx, "registration code redeemed", "code_id", c.ID, "identity_id", trainer.ID)
	return trainer, "redeemed", nil
}
