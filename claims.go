package memberauth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims is the decoded view of a session token
type AuthClaims interface {
	Subject() string
	UserID() string
	Role() string
	Expires() time.Time
	IssuedAt() time.Time
}

// SessionClaims is the concrete claim set we sign into session tokens. The
// subject is the member's email; UID carries the profile id when known.
type SessionClaims struct {
	jwt.RegisteredClaims
	UID      string `json:"uid,omitempty"`
	UserRole string `json:"role,omitempty"`
	Refresh  bool   `json:"refresh,omitempty"`
}

// Verify interface compliance
var _ AuthClaims = (*SessionClaims)(nil)

// Subject returns the subject claim
func (c *SessionClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the profile id, falling back to the subject
func (c *SessionClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// Role returns the member role
func (c *SessionClaims) Role() string {
	return c.UserRole
}

// Expires returns the expiration time
func (c *SessionClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *SessionClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// IsRefresh reports whether the token was minted by the refresh issuance path
func (c *SessionClaims) IsRefresh() bool {
	return c.Refresh
}

// ClaimsFromMap rebuilds session claims from a decoded claim map. Token
// guards that parse into jwt.MapClaims hand their payload through here.
func ClaimsFromMap(claims jwt.MapClaims) *SessionClaims {
	out := &SessionClaims{}

	if sub, err := claims.GetSubject(); err == nil {
		out.RegisteredClaims.Subject = sub
	}
	if iss, err := claims.GetIssuer(); err == nil {
		out.RegisteredClaims.Issuer = iss
	}
	if aud, err := claims.GetAudience(); err == nil {
		out.RegisteredClaims.Audience = aud
	}
	if exp, err := claims.GetExpirationTime(); err == nil {
		out.RegisteredClaims.ExpiresAt = exp
	}
	if iat, err := claims.GetIssuedAt(); err == nil {
		out.RegisteredClaims.IssuedAt = iat
	}
	if jti, ok := claims["jti"].(string); ok {
		out.RegisteredClaims.ID = jti
	}
	if uid, ok := claims["uid"].(string); ok {
		out.UID = uid
	}
	if role, ok := claims["role"].(string); ok {
		out.UserRole = role
	}
	if refresh, ok := claims["refresh"].(bool); ok {
		out.Refresh = refresh
	}

	return out
}
