package memberauth

import (
	"context"

	"github.com/goliatone/go-errors"
)

// ProfileTracker is the slice of the profile store login verification needs
type ProfileTracker interface {
	GetByEmail(ctx context.Context, email string) (*Profile, error)
	TrackAttemptedLogin(ctx context.Context, profile *Profile) error
	TrackSuccessfulLogin(ctx context.Context, profile *Profile) error
}

// MaxLoginAttempts is the maximum number of attempts a member gets
// in a period
var MaxLoginAttempts = 5

// CoolDownPeriod is the period in which we enforce a cool down
var CoolDownPeriod = "24h"

// ProfileProvider resolves identities against the profile store
type ProfileProvider struct {
	store  ProfileTracker
	logger Logger
}

// NewProfileProvider will create a new ProfileProvider
func NewProfileProvider(store ProfileTracker) *ProfileProvider {
	return &ProfileProvider{
		store:  store,
		logger: defLogger{},
	}
}

func (u *ProfileProvider) WithLogger(l Logger) *ProfileProvider {
	if l != nil {
		u.logger = l
	}
	return u
}

// VerifyIdentity will find the profile, compare the password, and return the
// identity. Unknown emails and wrong passwords both come back as
// ErrMismatchedHashAndPassword so callers cannot tell them apart.
func (u *ProfileProvider) VerifyIdentity(ctx context.Context, email, password string) (Identity, error) {
	profile, err := u.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrMismatchedHashAndPassword
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve profile during verification")
	}

	if profile == nil {
		return nil, ErrIdentityNotFound
	}

	if profile.LoginAttemptAt != nil {
		expired, err := IsOutsideThresholdPeriod(*profile.LoginAttemptAt, CoolDownPeriod)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryInternal, "failed to calculate login attempt cooldown")
		}

		if expired {
			profile.LoginAttempts = 0
		}
	}

	// if we have too many attempts in the given window, cool off!
	if profile.LoginAttempts > MaxLoginAttempts {
		return nil, ErrTooManyLoginAttempts
	}

	if err := ComparePasswordAndHash(password, profile.PasswordHash); err != nil {
		if err2 := u.store.TrackAttemptedLogin(ctx, profile); err2 != nil {
			return nil, errors.Wrap(err2, errors.CategoryInternal, "failed to track login attempt")
		}

		return nil, ErrMismatchedHashAndPassword
	}

	if err := u.store.TrackSuccessfulLogin(ctx, profile); err != nil {
		u.logger.Error("failed to track successful login", "error", err)
	}

	return identityFromProfile(profile), nil
}

// FindIdentityByEmail resolves a profile into an identity without touching
// credentials
func (u *ProfileProvider) FindIdentityByEmail(ctx context.Context, email string) (Identity, error) {
	profile, err := u.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, err
	}

	if profile == nil {
		return nil, ErrIdentityNotFound
	}

	return identityFromProfile(profile), nil
}

func identityFromProfile(profile *Profile) authIdentity {
	return authIdentity{
		id:       profile.ID.String(),
		email:    profile.Email,
		fullName: profile.FullName,
		role:     string(profile.Role),
		active:   profile.IsActive,
	}
}

type authIdentity struct {
	id       string
	email    string
	fullName string
	role     string
	active   bool
}

func (a authIdentity) ID() string {
	return a.id
}

func (a authIdentity) Email() string {
	return a.email
}

func (a authIdentity) FullName() string {
	return a.fullName
}

func (a authIdentity) Role() string {
	return a.role
}

func (a authIdentity) Active() bool {
	return a.active
}

var _ Identity = authIdentity{}
