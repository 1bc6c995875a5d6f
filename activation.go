package memberauth

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// MaxTokenAllocationAttempts bounds retries when a generated opaque token
// collides with an existing unique value.
var MaxTokenAllocationAttempts = 3

// NewOpaqueToken generates the random value used for activation and reset
// tokens.
func NewOpaqueToken() string {
	return uuid.NewString()
}

// isAllocationConflict reports whether a persistence failure was a unique-key
// collision, the only failure worth retrying with a fresh token.
func isAllocationConflict(err error) bool {
	return repository.IsDuplicatedKey(err) ||
		goerrors.IsCategory(err, goerrors.CategoryConflict)
}

// ActivationTokens manages the single-use account-activation token embedded
// per profile. Tokens have no expiry: they remain valid until consumed.
type ActivationTokens struct {
	repo   RepositoryManager
	logger Logger
}

// NewActivationTokens creates the activation token store
func NewActivationTokens(repo RepositoryManager) *ActivationTokens {
	return &ActivationTokens{
		repo:   repo,
		logger: defLogger{},
	}
}

func (s *ActivationTokens) WithLogger(logger Logger) *ActivationTokens {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Issue attaches a fresh activation token to the given pending profile and
// persists it. Used for the initial issue at registration and for resends;
// any previous token on the profile is replaced.
func (s *ActivationTokens) Issue(ctx context.Context, profile *Profile) (string, error) {
	if profile == nil || profile.ID == uuid.Nil {
		return "", goerrors.New("profile is required to issue an activation token", goerrors.CategoryBadInput)
	}

	var lastErr error
	for attempt := 0; attempt < MaxTokenAllocationAttempts; attempt++ {
		token := NewOpaqueToken()
		record := &Profile{}
		record.ID = profile.ID
		record.ActivationToken = &token

		if _, err := s.repo.Profiles().Update(ctx, record, repository.UpdateByID(profile.ID.String())); err != nil {
			if !isAllocationConflict(err) {
				return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist activation token")
			}
			lastErr = err
			s.logger.Warn("activation token allocation retry", "attempt", attempt+1, "error", err)
			continue
		}

		profile.ActivationToken = &token
		return token, nil
	}

	return "", goerrors.Wrap(lastErr, ErrTokenAllocation.Category, ErrTokenAllocation.Message).
		WithTextCode(TextCodeTokenAllocation)
}

// Consume looks up the profile owning the token, flips it active, and clears
// the token, all in one statement. Reuse returns ErrActivationNotFound; there
// is deliberately no distinction between "never existed" and "already used".
func (s *ActivationTokens) Consume(ctx context.Context, token string) (*Profile, error) {
	if token == "" {
		return nil, ErrActivationNotFound
	}

	profile, err := s.repo.Profiles().ConsumeActivation(ctx, token)
	if err != nil {
		if goerrors.IsNotFound(err) || repository.IsRecordNotFound(err) {
			return nil, ErrActivationNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to consume activation token")
	}

	return profile, nil
}
