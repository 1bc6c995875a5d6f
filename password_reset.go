package memberauth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// DefaultResetTokenTTL is how long a password-reset token stays valid
var DefaultResetTokenTTL = 30 * time.Minute

// ResetTokenStore manages ephemeral, single-use password-reset tokens with
// explicit expiry. Issuing a new token does not invalidate a previous one for
// the same identity; multiple live tokens may coexist. Known looseness,
// matching the upstream flow.
type ResetTokenStore struct {
	repo   RepositoryManager
	ttl    time.Duration
	logger Logger
	now    func() time.Time
}

// NewResetTokenStore creates the reset token store
func NewResetTokenStore(repo RepositoryManager, ttl time.Duration) *ResetTokenStore {
	if ttl <= 0 {
		ttl = DefaultResetTokenTTL
	}
	return &ResetTokenStore{
		repo:   repo,
		ttl:    ttl,
		logger: defLogger{},
		now:    time.Now,
	}
}

func (s *ResetTokenStore) WithLogger(logger Logger) *ResetTokenStore {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithClock injects a custom clock (useful for tests).
func (s *ResetTokenStore) WithClock(clock func() time.Time) *ResetTokenStore {
	if clock != nil {
		s.now = clock
	}
	return s
}

// Issue creates a reset token for the profile owning the email. Returns
// ErrIdentityNotFound when no such profile exists; callers must flatten that
// into a generic success to avoid account enumeration.
func (s *ResetTokenStore) Issue(ctx context.Context, email string) (*ResetToken, error) {
	profile, err := s.repo.Profiles().GetByEmail(ctx, email)
	if err != nil {
		if goerrors.IsNotFound(err) || repository.IsRecordNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve profile for password reset")
	}

	var lastErr error
	for attempt := 0; attempt < MaxTokenAllocationAttempts; attempt++ {
		record := &ResetToken{
			Token:     NewOpaqueToken(),
			ProfileID: profile.ID,
			Email:     profile.Email,
			ExpiresAt: s.now().Add(s.ttl),
		}

		created, err := s.repo.ResetTokens().Create(ctx, record)
		if err != nil {
			if !isAllocationConflict(err) {
				return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist password reset token")
			}
			lastErr = err
			s.logger.Warn("reset token allocation retry", "attempt", attempt+1, "error", err)
			continue
		}

		return created, nil
	}

	return nil, goerrors.Wrap(lastErr, ErrTokenAllocation.Category, ErrTokenAllocation.Message).
		WithTextCode(TextCodeTokenAllocation)
}

// Validate looks the token up without consuming it. An unknown value returns
// ErrResetTokenInvalid; a live-but-expired record is deleted and reported as
// ErrTokenExpired, so a token past its expiry behaves as absent whether or
// not cleanup ever ran.
func (s *ResetTokenStore) Validate(ctx context.Context, token string) (*Profile, error) {
	if token == "" {
		return nil, ErrResetTokenInvalid
	}

	record, err := s.repo.ResetTokens().GetByToken(ctx, token)
	if err != nil {
		if goerrors.IsNotFound(err) || repository.IsRecordNotFound(err) {
			return nil, ErrResetTokenInvalid
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve password reset token")
	}

	if record.Expired(s.now()) {
		if err := s.repo.ResetTokens().DeleteByToken(ctx, token); err != nil {
			s.logger.Warn("failed to delete expired reset token", "error", err)
		}
		return nil, ErrTokenExpired
	}

	profile, err := s.repo.Profiles().GetByID(ctx, record.ProfileID.String())
	if err != nil {
		if goerrors.IsNotFound(err) || repository.IsRecordNotFound(err) {
			return nil, ErrResetTokenInvalid
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve profile for reset token")
	}

	return profile, nil
}

// Clear deletes the token if present, no-op otherwise. Must be called exactly
// once after a successful password change so the token cannot be replayed.
func (s *ResetTokenStore) Clear(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.repo.ResetTokens().DeleteByToken(ctx, token)
}
