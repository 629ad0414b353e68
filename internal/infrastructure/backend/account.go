package backend

import (
	"context"
	"net/http"

	accountapp "github.com/minimart/storefront/internal/application/account"
	"github.com/minimart/storefront/internal/domain/account"
)

var _ accountapp.Backend = (*AccountAPI)(nil)

// AccountAPI implements the shopper account port.
type AccountAPI struct {
	client *Client
}

// NewAccountAPI creates an AccountAPI
func NewAccountAPI(client *Client) *AccountAPI {
	return &AccountAPI{client: client}
}

// Login exchanges creds for a bearer token.
func (a *AccountAPI) Login(ctx context.Context, creds account.Credentials) (string, error) {
	var out loginDTO
	if err := a.client.Do(ctx, Request{Method: http.MethodPost, Path: "/api/auth/login", Body: creds}, &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

// Register creates a shopper account and returns the backend's message.
func (a *AccountAPI) Register(ctx context.Context, reg account.Registration) (string, error) {
	var out messageDTO
	if err := a.client.Do(ctx, Request{Method: http.MethodPost, Path: "/api/auth/register", Body: reg}, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// GetProfile returns the token owner's profile.
func (a *AccountAPI) GetProfile(ctx context.Context, token string) (account.Identity, error) {
	var out userDTO
	if err := a.client.Do(ctx, Request{Method: http.MethodGet, Path: "/api/auth/profile", Token: token}, &out); err != nil {
		return account.Identity{}, err
	}
	return out.toIdentity(), nil
}

// UpdateProfile saves update. The returned identity is zero when the backend
// does not echo the profile.
func (a *AccountAPI) UpdateProfile(ctx context.Context, token string, update account.ProfileUpdate) (account.Identity, error) {
	var out struct {
		userDTO
		User *userDTO `json:"user"`
	}
	req := Request{Method: http.MethodPut, Path: "/api/auth/profile", Token: token, Body: update}
	if err := a.client.Do(ctx, req, &out); err != nil {
		return account.Identity{}, err
	}
	if out.User != nil {
		return out.User.toIdentity(), nil
	}
	return out.userDTO.toIdentity(), nil
}

// ChangePassword changes the token owner's password.
func (a *AccountAPI) ChangePassword(ctx context.Context, token, currentPassword, newPassword string) error {
	return a.client.Do(ctx, Request{
		Method: http.MethodPut,
		Path:   "/api/auth/change-password",
		Token:  token,
		Body:   passwordRequest{CurrentPassword: currentPassword, NewPassword: newPassword},
	}, nil)
}
