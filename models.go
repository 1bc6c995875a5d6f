package memberauth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// MemberRole is the member's role
type MemberRole = string

const (
	// RoleMember is the default role for self-registered profiles
	RoleMember MemberRole = "member"
	// RoleAdmin is a club administrator
	RoleAdmin MemberRole = "admin"
)

// Profile is the member profile model. The credential core owns the
// credential columns (password_hash, is_active, activation_token, login
// tracking); everything else is plain profile data.
type Profile struct {
	bun.BaseModel   `bun:"table:profiles,alias:prf"`
	ID              uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	FullName        string     `bun:"full_name,notnull" json:"full_name,omitempty"`
	Email           string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone           string     `bun:"phone" json:"phone,omitempty"`
	Role            MemberRole `bun:"role,notnull" json:"role,omitempty"`
	PasswordHash    string     `bun:"password_hash" json:"-"`
	ProfileImageURL string     `bun:"profile_image_url" json:"profile_image_url,omitempty"`
	IsActive        bool       `bun:"is_active" json:"is_active,omitempty"`
	ActivationToken *string    `bun:"activation_token,unique,nullzero" json:"-"`
	LoginAttempts   int        `bun:"login_attempts" json:"-"`
	LoginAttemptAt  *time.Time `bun:"login_attempt_at" json:"-"`
	LoggedInAt      *time.Time `bun:"logged_in_at" json:"-"`
	CreatedAt       *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt       *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt       *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// Pending reports whether the profile still carries a live activation token
func (p *Profile) Pending() bool {
	return !p.IsActive && p.ActivationToken != nil && *p.ActivationToken != ""
}

// Public returns the externally visible view of the profile. Credential
// columns never leave through here.
func (p *Profile) Public() *PublicProfile {
	if p == nil {
		return nil
	}
	return &PublicProfile{
		ID:              p.ID,
		FullName:        p.FullName,
		Email:           p.Email,
		ProfileImageURL: p.ProfileImageURL,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

// PublicProfile is the profile view returned by the HTTP surface
type PublicProfile struct {
	ID              uuid.UUID  `json:"id"`
	FullName        string     `json:"full_name"`
	Email           string     `json:"email"`
	ProfileImageURL string     `json:"profile_image_url,omitempty"`
	CreatedAt       *time.Time `json:"created_at,omitempty"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
}

// ResetToken is an ephemeral, single-use password-reset token. The opaque
// token value is the unique lookup key; expiry is fixed at creation.
type ResetToken struct {
	bun.BaseModel `bun:"table:reset_tokens,alias:rst"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Token         string     `bun:"token,notnull,unique" json:"-"`
	ProfileID     uuid.UUID  `bun:"profile_id,notnull,type:uuid" json:"profile_id,omitempty"`
	Profile       *Profile   `bun:"rel:has-one,join:profile_id=id" json:"profile,omitempty"`
	Email         string     `bun:"email,notnull" json:"email,omitempty"`
	ExpiresAt     time.Time  `bun:"expires_at,notnull" json:"expires_at,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Expired reports whether the token must be treated as absent, regardless of
// whether cleanup has run.
func (r *ResetToken) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}
