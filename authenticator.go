package memberauth

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
)

// ProfileFinder resolves the public projection returned after a login
type ProfileFinder interface {
	GetByEmail(ctx context.Context, email string) (*Profile, error)
}

// Auther drives the credential flows: password login, refresh, and claims
// resolution. It owns no storage of its own, everything goes through the
// identity provider and the token service.
type Auther struct {
	provider IdentityProvider
	tokens   TokenService
	profiles ProfileFinder
	activity ActivitySink
	logger   Logger
}

// NewAuthenticator creates a new Auther instance
func NewAuthenticator(provider IdentityProvider, tokens TokenService, profiles ProfileFinder) *Auther {
	return &Auther{
		provider: provider,
		tokens:   tokens,
		profiles: profiles,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

func (a *Auther) WithLogger(l Logger) *Auther {
	if l != nil {
		a.logger = l
	}
	return a
}

func (a *Auther) WithActivitySink(s ActivitySink) *Auther {
	a.activity = normalizeActivitySink(s)
	return a
}

// Login checks account standing before touching credentials: a dormant
// account is rejected with ErrAccountInactive even when the password would
// have matched. Credential failures collapse into ErrBadCredentials so the
// response never reveals whether the email exists.
func (a *Auther) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	identity, err := a.provider.FindIdentityByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) || errors.IsNotFound(err) {
			a.recordLoginFailure(ctx, email, "unknown_identity")
			return nil, ErrBadCredentials
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to resolve identity for login")
	}

	if !identity.Active() {
		a.recordLoginFailure(ctx, email, "inactive_account")
		return nil, ErrAccountInactive
	}

	identity, err = a.provider.VerifyIdentity(ctx, email, password)
	if err != nil {
		if errors.Is(err, ErrTooManyLoginAttempts) {
			a.recordLoginFailure(ctx, email, "too_many_attempts")
			return nil, ErrTooManyLoginAttempts
		}
		a.recordLoginFailure(ctx, email, "bad_credentials")
		return nil, ErrBadCredentials
	}

	accessToken, err := a.tokens.IssueAccess(identity)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to issue session token")
	}

	refreshToken, err := a.tokens.IssueRefresh(identity)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to issue refresh token")
	}

	result := &LoginResult{
		Token:        accessToken,
		RefreshToken: refreshToken,
	}

	if profile, perr := a.profiles.GetByEmail(ctx, email); perr == nil && profile != nil {
		result.User = profile.Public()
	}

	a.record(ctx, ActivityEvent{
		EventType:  ActivityEventLoginSuccess,
		Actor:      ActorRef{ID: identity.ID(), Type: "member"},
		UserID:     identity.ID(),
		OccurredAt: time.Now(),
	})

	return result, nil
}

// Refresh exchanges a live refresh token for a fresh session token. Access
// tokens are rejected here even though they share the signing key.
func (a *Auther) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := a.tokens.Validate(refreshToken)
	if err != nil {
		return "", err
	}

	rc, ok := claims.(interface{ IsRefresh() bool })
	if !ok || !rc.IsRefresh() {
		return "", ErrTokenMalformed
	}

	identity, err := a.IdentityFromClaims(ctx, claims)
	if err != nil {
		return "", err
	}

	if !identity.Active() {
		return "", ErrAccountInactive
	}

	accessToken, err := a.tokens.IssueAccess(identity)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to issue session token")
	}

	a.record(ctx, ActivityEvent{
		EventType:  ActivityEventTokenRefreshed,
		Actor:      ActorRef{ID: identity.ID(), Type: "member"},
		UserID:     identity.ID(),
		OccurredAt: time.Now(),
	})

	return accessToken, nil
}

// SessionFromToken validates a raw token string and returns its claims
func (a *Auther) SessionFromToken(token string) (AuthClaims, error) {
	return a.tokens.Validate(token)
}

// IdentityFromClaims resolves the identity behind a set of session claims.
// The subject carries the member email.
func (a *Auther) IdentityFromClaims(ctx context.Context, claims AuthClaims) (Identity, error) {
	if claims == nil {
		return nil, errors.New("claims must not be nil", errors.CategoryBadInput)
	}

	identity, err := a.provider.FindIdentityByEmail(ctx, claims.Subject())
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) || errors.IsNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to resolve identity from claims")
	}

	return identity, nil
}

func (a *Auther) recordLoginFailure(ctx context.Context, email, reason string) {
	a.record(ctx, ActivityEvent{
		EventType:  ActivityEventLoginFailure,
		Actor:      ActorRef{Type: "anonymous"},
		Metadata:   map[string]any{"email": email, "reason": reason},
		OccurredAt: time.Now(),
	})
}

func (a *Auther) record(ctx context.Context, event ActivityEvent) {
	if err := a.activity.Record(ctx, event); err != nil {
		a.logger.Error("failed to record activity event", "event", string(event.EventType), "error", err)
	}
}

var _ Authenticator = &Auther{}
