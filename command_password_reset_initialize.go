package memberauth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type InitializePasswordResetMessage struct {
	Email      string `json:"email"`
	OnResponse func(resp *InitializePasswordResetResponse)
}

func (e InitializePasswordResetMessage) Type() string { return "profile.password_reset.initialize" }

type InitializePasswordResetResponse struct {
	Reset   *ResetToken
	Success bool
}

// InitializePasswordResetHandler mints a reset token and mails its link. An
// unknown email still reports success so the endpoint cannot be used to
// enumerate which addresses have accounts.
type InitializePasswordResetHandler struct {
	resets      *ResetTokenStore
	repo        RepositoryManager
	mailer      Mailer
	activity    ActivitySink
	logger      Logger
	frontendURL string
}

func NewInitializePasswordResetHandler(resets *ResetTokenStore, repo RepositoryManager, mailer Mailer, frontendURL string) *InitializePasswordResetHandler {
	return &InitializePasswordResetHandler{
		resets:      resets,
		repo:        repo,
		mailer:      normalizeMailer(mailer),
		activity:    noopActivitySink{},
		logger:      defLogger{},
		frontendURL: frontendURL,
	}
}

func (h *InitializePasswordResetHandler) WithLogger(l Logger) *InitializePasswordResetHandler {
	if l != nil {
		h.logger = l
	}
	return h
}

func (h *InitializePasswordResetHandler) WithActivitySink(s ActivitySink) *InitializePasswordResetHandler {
	h.activity = normalizeActivitySink(s)
	return h
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, event InitializePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializePasswordResetHandler) execute(ctx context.Context, event InitializePasswordResetMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	reset, err := h.resets.Issue(ctx, event.Email)
	if err != nil {
		// an unknown address is not an error the caller gets to see
		if goerrors.Is(err, ErrIdentityNotFound) || goerrors.IsNotFound(err) {
			if event.OnResponse != nil {
				event.OnResponse(&InitializePasswordResetResponse{Success: true})
			}
			return nil
		}

		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to initialize password reset")
	}

	fullName := ""
	if profile, perr := h.repo.Profiles().GetByEmail(ctx, event.Email); perr == nil && profile != nil {
		fullName = profile.FullName
	}

	link := ResetLink(h.frontendURL, reset.Token)
	sendAsync(h.mailer, h.logger, reset.Email, ResetEmailSubject, ResetEmailBody(fullName, link))

	if err := h.activity.Record(ctx, ActivityEvent{
		EventType:  ActivityEventPasswordResetRequested,
		Actor:      ActorRef{ID: reset.ProfileID.String(), Type: "member"},
		UserID:     reset.ProfileID.String(),
		OccurredAt: time.Now(),
	}); err != nil {
		h.logger.Error("failed to record reset request event", "error", err)
	}

	if event.OnResponse != nil {
		event.OnResponse(&InitializePasswordResetResponse{
			Reset:   reset,
			Success: true,
		})
	}

	return nil
}
