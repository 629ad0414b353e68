// Package account handles shopper login, registration and profile pages.
package account

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/minimart/storefront/internal/domain/account"
	"github.com/minimart/storefront/internal/domain/shared"
)

// Messages shown after account operations.
const (
	MsgRegistered       = "Account created successfully! Please login."
	MsgProfileUpdated   = "Profile updated successfully!"
	MsgPasswordChanged  = "Password changed successfully!"
	MsgPasswordMismatch = "New passwords don't match!"
	MsgLoginFailed      = "Login failed. Please try again."
)

// Backend is the store backend's account API.
type Backend interface {
	Login(ctx context.Context, creds account.Credentials) (string, error)
	Register(ctx context.Context, reg account.Registration) (string, error)
	GetProfile(ctx context.Context, token string) (account.Identity, error)
	UpdateProfile(ctx context.Context, token string, update account.ProfileUpdate) (account.Identity, error)
	ChangePassword(ctx context.Context, token, currentPassword, newPassword string) error
}

// Session is the part of a visitor session this package writes.
type Session interface {
	Login(ctx context.Context, token string, identity account.Identity)
	SetIdentity(ctx context.Context, identity account.Identity)
	Logout(ctx context.Context)
}

// IdentityReader derives identity fields from a token without a backend call.
type IdentityReader interface {
	Identity(token string) account.Identity
}

// Service handles shopper accounts
type Service struct {
	backend Backend
	tokens  IdentityReader
	logger  *zap.Logger
}

// NewService creates a new account Service. tokens may be nil.
func NewService(backend Backend, tokens IdentityReader, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{backend: backend, tokens: tokens, logger: logger}
}

// Login authenticates creds and starts a session. The profile is fetched to
// fill the cached identity; if that fails the session still starts with
// whatever the token itself says.
func (s *Service) Login(ctx context.Context, sess Session, creds account.Credentials) (account.Identity, error) {
	if err := shared.Validate(creds); err != nil {
		return account.Identity{}, err
	}

	token, err := s.backend.Login(ctx, creds)
	if err != nil {
		return account.Identity{}, fmt.Errorf("login: %w", err)
	}
	if token == "" {
		return account.Identity{}, shared.NewDomainError(shared.ErrBackend.Code, MsgLoginFailed)
	}

	identity, err := s.backend.GetProfile(ctx, token)
	if err != nil {
		s.logger.Warn("Profile fetch after login failed", zap.Error(err))
		identity = s.tokenIdentity(token)
	}
	if identity.Email == "" {
		identity.Email = creds.Email
	}

	sess.Login(ctx, token, identity)
	return identity, nil
}

// Register creates a shopper account. It does not log in.
func (s *Service) Register(ctx context.Context, reg account.Registration) (string, error) {
	if err := shared.Validate(reg); err != nil {
		return "", err
	}
	msg, err := s.backend.Register(ctx, reg)
	if err != nil {
		return "", fmt.Errorf("register: %w", err)
	}
	if msg == "" {
		msg = MsgRegistered
	}
	return msg, nil
}

// Profile fetches the shopper's profile and refreshes the cached identity.
func (s *Service) Profile(ctx context.Context, sess Session, token string) (account.Identity, error) {
	if token == "" {
		return account.Identity{}, shared.ErrLoginRequired
	}
	identity, err := s.backend.GetProfile(ctx, token)
	if err != nil {
		return account.Identity{}, fmt.Errorf("get profile: %w", err)
	}
	sess.SetIdentity(ctx, identity)
	return identity, nil
}

// UpdateProfile saves update and refreshes the cached identity.
func (s *Service) UpdateProfile(ctx context.Context, sess Session, token string, update account.ProfileUpdate) (account.Identity, error) {
	if token == "" {
		return account.Identity{}, shared.ErrLoginRequired
	}
	if err := shared.Validate(update); err != nil {
		return account.Identity{}, err
	}

	identity, err := s.backend.UpdateProfile(ctx, token, update)
	if err != nil {
		return account.Identity{}, fmt.Errorf("update profile: %w", err)
	}
	if identity.IsZero() {
		identity = account.Identity{Name: update.Name, Email: update.Email, Phone: update.Phone}
	}
	sess.SetIdentity(ctx, identity)
	return identity, nil
}

// ChangePassword changes the shopper's password.
func (s *Service) ChangePassword(ctx context.Context, token string, change account.PasswordChange) error {
	if token == "" {
		return shared.ErrLoginRequired
	}
	if err := shared.Validate(change); err != nil {
		return err
	}
	if change.NewPassword != change.ConfirmPassword {
		return shared.ValidationError(MsgPasswordMismatch)
	}
	if err := s.backend.ChangePassword(ctx, token, change.CurrentPassword, change.NewPassword); err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	return nil
}

// Logout ends the session. The visitor's cart is cleared by the session's
// end hook.
func (s *Service) Logout(ctx context.Context, sess Session) {
	sess.Logout(ctx)
}

func (s *Service) tokenIdentity(token string) account.Identity {
	if s.tokens == nil {
		return account.Identity{}
	}
	return s.tokens.Identity(token)
}
