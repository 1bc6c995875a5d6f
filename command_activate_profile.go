package memberauth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type ActivateProfileMessage struct {
	Token      string `json:"token"`
	OnResponse func(resp *ActivateProfileResponse)
}

func (e ActivateProfileMessage) Type() string { return "profile.activate" }

type ActivateProfileResponse struct {
	Profile *PublicProfile
	Success bool
}

// ActivateProfileHandler consumes an activation token exactly once. A token
// that was already consumed is indistinguishable from one that never existed.
type ActivateProfileHandler struct {
	tokens   *ActivationTokens
	activity ActivitySink
	logger   Logger
}

func NewActivateProfileHandler(tokens *ActivationTokens) *ActivateProfileHandler {
	return &ActivateProfileHandler{
		tokens:   tokens,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

func (h *ActivateProfileHandler) WithLogger(l Logger) *ActivateProfileHandler {
	if l != nil {
		h.logger = l
	}
	return h
}

func (h *ActivateProfileHandler) WithActivitySink(s ActivitySink) *ActivateProfileHandler {
	h.activity = normalizeActivitySink(s)
	return h
}

func (h *ActivateProfileHandler) Execute(ctx context.Context, event ActivateProfileMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during profile activation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ActivateProfileHandler) execute(ctx context.Context, event ActivateProfileMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if event.Token == "" {
		return ErrActivationNotFound
	}

	profile, err := h.tokens.Consume(ctx, event.Token)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to consume activation token")
	}

	if err := h.activity.Record(ctx, ActivityEvent{
		EventType:  ActivityEventProfileActivated,
		Actor:      ActorRef{ID: profile.ID.String(), Type: "member"},
		UserID:     profile.ID.String(),
		OccurredAt: time.Now(),
	}); err != nil {
		h.logger.Error("failed to record activation event", "error", err)
	}

	if event.OnResponse != nil {
		event.OnResponse(&ActivateProfileResponse{
			Profile: profile.Public(),
			Success: true,
		})
	}

	return nil
}
