package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nutritionbot/dashboard-backend/internal/identity"
	"github.com/nutritionbot/dashboard-backend/internal/metrics"
)

// Registrar creates a trainer from a registration code. The regcode
// lifecycle implements it.
type Registrar interface {
	Redeem(ctx context.Context, reg identity.Registration) (identity.Identity, error)
}

type Service struct {
	store   Store
	hasher  *Hasher
	tokens  *TokenIssuer
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewService(store Store, hasher *Hasher, tokens *TokenIssuer, logger *slog.Logger, m *metrics.Metrics) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, hasher: hasher, tokens: tokens, logger: logger, metrics: m}
}

func notFound(role identity.Role) error {
	if role == identity.RoleAdmin {
		return identity.NewError(identity.ErrNotFound, "Admin not found")
	}
	return identity.NewError(identity.ErrNotFound, "Trainer not found")
}

func invalidCredentials() error {
	return identity.NewError(identity.ErrUnauthorized, "Incorrect email or password")
}

// Login returns a signed access token. Unknown email, wrong password and
// inactive account are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	email = identity.NormalizeEmail(email)

	for _, role := range identity.Roles {
		ident, err := s.store.FindByEmail(ctx, role, email)
		if isNotFound(err) {
			continue
		}
		if err != nil {
			s.metrics.ObserveLogin("error")
			return "", err
		}
		if !s.hasher.Verify(password, ident.PasswordHash) {
			s.logger.InfoContext(ctx, "login rejected: bad password", "identity_id", ident.ID, "role", role)
			s.metrics.ObserveLogin("invalid_credentials")
			return "", invalidCredentials()
		}
		if !ident.IsActive {
			s.logger.InfoContext(ctx, "login rejected: inactive", "identity_id", ident.ID, "role", role)
			s.metrics.ObserveLogin("inactive")
			return "", invalidCredentials()
		}
		token, err := s.tokens.Issue(ident.ID, role)
		if err != nil {
			s.metrics.ObserveLogin("error")
			return "", err
		}
		s.metrics.ObserveLogin("success")
		return token, nil
	}

	s.hasher.burn(password)
	s.metrics.ObserveLogin("invalid_credentials")
	return "", invalidCredentials()
}

// CurrentIdentity re-reads the caller so the response reflects renames made
// after the token was issued.
func (s *Service) CurrentIdentity(ctx context.Context, caller identity.Identity) (identity.View, error) {
	ident, err := s.store.FindByID(ctx, caller.Role, caller.ID)
	if err != nil {
		if isNotFound(err) {
			return identity.View{}, identity.NewError(identity.ErrUnauthorized, "Could not validate credentials")
		}
		return identity.View{}, err
	}
	return ident.View(), nil
}

func (s *Service) ChangeName(ctx context.Context, caller identity.Identity, name string) error {
	name = identity.NormalizeName(name)
	if name == "" {
		return identity.NewError(identity.ErrInvalidInput, "Name must not be empty")
	}
	return s.store.Update(ctx, caller.Role, caller.ID, Patch{Name: &name})
}

func (s *Service) ChangePassword(ctx context.Context, caller identity.Identity, current, next string) error {
	ident, err := s.store.FindByID(ctx, caller.Role, caller.ID)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(current, ident.PasswordHash) {
		return identity.NewError(identity.ErrWrongPassword, "Current password is incorrect")
	}
	digest, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}
	if err := s.store.Update(ctx, caller.Role, caller.ID, Patch{PasswordHash: &digest}); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "password changed", "identity_id", caller.ID, "role", caller.Role)
	return nil
}

func (s *Service) SetActive(ctx context.Context, caller identity.Identity, role identity.Role, id uuid.UUID, active bool) error {
	if err := identity.RequireAdmin(caller); err != nil {
		return err
	}
	if !role.Valid() {
		return identity.NewError(identity.ErrInvalidInput, "unknown identity type")
	}
	if !active && role == caller.Role && id == caller.ID {
		return identity.NewError(identity.ErrConflict, "Cannot deactivate your own account")
	}
	if err := s.store.Update(ctx, role, id, Patch{IsActive: &active}); err != nil {
		if isNotFound(err) {
			return notFound(role)
		}
		return err
	}
	s.logger.InfoContext(ctx, "identity active flag set",
		"actor_id", caller.ID, "identity_id", id, "role", role, "active", active)
	return nil
}

// ToggleActive flips a trainer's active flag and returns the new value.
func (s *Service) ToggleActive(ctx context.Context, caller identity.Identity, id uuid.UUID) (bool, error) {
	if err := identity.RequireAdmin(caller); err != nil {
		return false, err
	}
	ident, err := s.store.FindByID(ctx, identity.RoleTrainer, id)
	if err != nil {
		if isNotFound(err) {
			return false, notFound(identity.RoleTrainer)
		}
		return false, err
	}
	next := !ident.IsActive
	if err := s.SetActive(ctx, caller, identity.RoleTrainer, id, next); err != nil {
		return false, err
	}
	return next, nil
}

func (s *Service) ListTrainers(ctx context.Context, caller identity.Identity) ([]identity.Identity, error) {
	if err := identity.RequireAdmin(caller); err != nil {
		return nil, err
	}
	return s.store.List(ctx, identity.RoleTrainer)
}

// EmailTaken reports whether any identity, of either role, uses email.
func (s *Service) EmailTaken(ctx context.Context, email string) (bool, error) {
	email = identity.NormalizeEmail(email)
	for _, role := range identity.Roles {
		_, err := s.store.FindByEmail(ctx, role, email)
		if err == nil {
			return true, nil
		}
		if !isNotFound(err) {
			return false, err
		}
	}
	return false, nil
}

func (s *Service) HashPassword(plain string) (string, error) {
	return s.hasher.Hash(plain)
}

func (s *Service) CreateTrainer(ctx context.Context, email, digest, name string) (identity.Identity, error) {
	ident := identity.Identity{
		ID:           uuid.New(),
		Email:        identity.NormalizeEmail(email),
		PasswordHash: digest,
		Name:         identity.NormalizeName(name),
		IsActive:     true,
	}
	if err := s.store.Insert(ctx, identity.RoleTrainer, &ident); err != nil {
		if errors.Is(err, identity.ErrConflict) {
			return identity.Identity{}, identity.NewError(identity.ErrConflict, "User already exists")
		}
		return identity.Identity{}, err
	}
	return ident, nil
}

// CreateAdmin is the provisioning path used by cmd/seed.
func (s *Service) CreateAdmin(ctx context.Context, email, password, name string) (identity.Identity, error) {
	taken, err := s.EmailTaken(ctx, email)
	if err != nil {
		return identity.Identity{}, err
	}
	if taken {
		return identity.Identity{}, identity.NewError(identity.ErrConflict, "User already exists")
	}
	digest, err := s.hasher.Hash(password)
	if err != nil {
		return identity.Identity{}, err
	}
	ident := identity.Identity{
		ID:           uuid.New(),
		Email:        identity.NormalizeEmail(email),
		PasswordHash: digest,
		Name:         identity.NormalizeName(name),
		IsActive:     true,
	}
	if err := s.store.Insert(ctx, identity.RoleAdmin, &ident); err != nil {
		return identity.Identity{}, err
	}
	return ident, nil
}
