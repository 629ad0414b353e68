// Package auth reads the claims of bearer tokens issued by the store backend.
//
// The storefront never holds the backend's signing key, so tokens are parsed
// without verification. Claims are only used to recognise tokens that are
// already expired and to label sessions; the backend remains the authority.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/minimart/storefront/internal/domain/account"
)

// ErrNotJWT is returned for tokens that are not parseable JWTs.
var ErrNotJWT = errors.New("token is not a JWT")

// Claims are the claims the backend is known to put in its tokens.
type Claims struct {
	jwt.RegisteredClaims
	UserID    string `json:"id,omitempty"`
	AltUserID string `json:"userId,omitempty"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	Role      string `json:"role,omitempty"`
}

// AccountID returns the best available user id.
func (c *Claims) AccountID() string {
	switch {
	case c.UserID != "":
		return c.UserID
	case c.AltUserID != "":
		return c.AltUserID
	default:
		return c.RegisteredClaims.Subject
	}
}

// Inspector parses backend tokens without verifying them.
type Inspector struct {
	parser *jwt.Parser
	now    func() time.Time
	leeway time.Duration
}

// NewInspector creates an Inspector. Tokens are treated as expired leeway
// before their exp claim.
func NewInspector(leeway time.Duration) *Inspector {
	return &Inspector{
		parser: jwt.NewParser(),
		now:    time.Now,
		leeway: leeway,
	}
}

// Claims parses token.
func (i *Inspector) Claims(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := i.parser.ParseUnverified(token, claims); err != nil {
		return nil, errors.Join(ErrNotJWT, err)
	}
	return claims, nil
}

// Expired reports whether token carries an exp claim in the past. Opaque
// tokens and tokens without exp are never considered expired.
func (i *Inspector) Expired(token string) bool {
	claims, err := i.Claims(token)
	if err != nil || claims.ExpiresAt == nil {
		return false
	}
	return !i.now().Add(i.leeway).Before(claims.ExpiresAt.Time)
}

// Identity returns the identity fields found in token, or a zero Identity.
func (i *Inspector) Identity(token string) account.Identity {
	claims, err := i.Claims(token)
	if err != nil {
		return account.Identity{}
	}
	return account.Identity{
		ID:    claims.AccountID(),
		Name:  claims.Name,
		Email: claims.Email,
	}
}
