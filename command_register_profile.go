package memberauth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

type RegisterProfileMessage struct {
	FullName        string `json:"full_name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	ProfileImageURL string `json:"profile_image_url"`
	UseHashid       bool
	OnResponse      func(resp *RegisterProfileResponse)
}

func (e RegisterProfileMessage) Type() string { return "profile.register" }

type RegisterProfileResponse struct {
	Profile *PublicProfile
	Success bool
}

// RegisterProfileHandler creates a dormant profile and mails out its
// activation link. The profile stays inactive until the link is followed.
type RegisterProfileHandler struct {
	repo          RepositoryManager
	tokens        *ActivationTokens
	mailer        Mailer
	activity      ActivitySink
	logger        Logger
	activationURL string
}

func NewRegisterProfileHandler(repo RepositoryManager, mailer Mailer, activationURL string) *RegisterProfileHandler {
	return &RegisterProfileHandler{
		repo:          repo,
		tokens:        NewActivationTokens(repo),
		mailer:        normalizeMailer(mailer),
		activity:      noopActivitySink{},
		logger:        defLogger{},
		activationURL: activationURL,
	}
}

func (h *RegisterProfileHandler) WithLogger(l Logger) *RegisterProfileHandler {
	if l != nil {
		h.logger = l
		h.tokens = h.tokens.WithLogger(l)
	}
	return h
}

func (h *RegisterProfileHandler) WithActivitySink(s ActivitySink) *RegisterProfileHandler {
	h.activity = normalizeActivitySink(s)
	return h
}

func (h *RegisterProfileHandler) Execute(ctx context.Context, event RegisterProfileMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during profile registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterProfileHandler) execute(ctx context.Context, event RegisterProfileMessage) error {
	profile := &Profile{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		phone, err := NormalizePhone(event.Phone)
		if err != nil {
			return err
		}

		profile.PasswordHash = hash
		profile.Email = event.Email
		profile.Phone = phone
		profile.FullName = event.FullName
		profile.ProfileImageURL = event.ProfileImageURL
		profile.IsActive = false
		if event.UseHashid {
			if id, err := hashid.NewUUID(event.Email); err == nil {
				profile.ID = id
			}
		}

		if profile, err = h.repo.Profiles().CreateTx(ctx, tx, profile); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create profile")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "profile registration transaction failed")
	}

	// The token rides in its own statement so a unique-key collision can be
	// retried with a fresh value without touching the created profile.
	token, err := h.tokens.Issue(ctx, profile)
	if err != nil {
		return err
	}

	link := ActivationLink(h.activationURL, token)
	sendAsync(h.mailer, h.logger, profile.Email, ActivationEmailSubject, ActivationEmailBody(profile.FullName, link))

	if err := h.activity.Record(ctx, ActivityEvent{
		EventType:  ActivityEventProfileRegistered,
		Actor:      ActorRef{ID: profile.ID.String(), Type: "member"},
		UserID:     profile.ID.String(),
		OccurredAt: time.Now(),
	}); err != nil {
		h.logger.Error("failed to record registration event", "error", err)
	}

	if event.OnResponse != nil {
		event.OnResponse(&RegisterProfileResponse{
			Profile: profile.Public(),
			Success: true,
		})
	}

	return nil
}
