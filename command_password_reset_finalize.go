package memberauth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type FinalizePasswordResetMessage struct {
	Token      string `json:"token"`
	Password   string `json:"password"`
	OnResponse func(resp *FinalizePasswordResetResponse)
}

func (e FinalizePasswordResetMessage) Type() string { return "profile.password_reset.finalize" }

type FinalizePasswordResetResponse struct {
	Profile *PublicProfile
	Success bool
}

// FinalizePasswordResetHandler swaps the stored credential for the profile
// behind a live reset token, then retires the token.
type FinalizePasswordResetHandler struct {
	resets   *ResetTokenStore
	repo     RepositoryManager
	activity ActivitySink
	logger   Logger
}

func NewFinalizePasswordResetHandler(resets *ResetTokenStore, repo RepositoryManager) *FinalizePasswordResetHandler {
	return &FinalizePasswordResetHandler{
		resets:   resets,
		repo:     repo,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

func (h *FinalizePasswordResetHandler) WithLogger(l Logger) *FinalizePasswordResetHandler {
	if l != nil {
		h.logger = l
	}
	return h
}

func (h *FinalizePasswordResetHandler) WithActivitySink(s ActivitySink) *FinalizePasswordResetHandler {
	h.activity = normalizeActivitySink(s)
	return h
}

func (h *FinalizePasswordResetHandler) Execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset finalization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *FinalizePasswordResetHandler) execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	profile, err := h.resets.Validate(ctx, event.Token)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to validate reset token")
	}

	hash, err := HashPassword(event.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	if err := h.repo.Profiles().SetPassword(ctx, profile.ID, hash); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update password")
	}

	// token is single use, a second attempt must fail validation
	if err := h.resets.Clear(ctx, event.Token); err != nil {
		h.logger.Error("failed to clear consumed reset token", "error", err)
	}

	if err := h.activity.Record(ctx, ActivityEvent{
		EventType:  ActivityEventPasswordResetSuccess,
		Actor:      ActorRef{ID: profile.ID.String(), Type: "member"},
		UserID:     profile.ID.String(),
		OccurredAt: time.Now(),
	}); err != nil {
		h.logger.Error("failed to record reset event", "error", err)
	}

	if event.OnResponse != nil {
		event.OnResponse(&FinalizePasswordResetResponse{
			Profile: profile.Public(),
			Success: true,
		})
	}

	return nil
}
