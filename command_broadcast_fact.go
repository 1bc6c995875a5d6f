package memberauth

import (
	"context"
	"math/rand/v2"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type BroadcastFactMessage struct {
	OnResponse func(resp *BroadcastFactResponse)
}

func (e BroadcastFactMessage) Type() string { return "notification.fact.broadcast" }

type BroadcastFactResponse struct {
	Fact       string
	Recipients int
}

// BroadcastFactHandler mails one fact from the rotation pool to every member.
// The server binary drives it on a schedule; the message shape keeps it
// runnable on demand like the other handlers.
type BroadcastFactHandler struct {
	repo        RepositoryManager
	mailer      Mailer
	activity    ActivitySink
	logger      Logger
	frontendURL string
	pick        func(n int) int
}

func NewBroadcastFactHandler(repo RepositoryManager, mailer Mailer, frontendURL string) *BroadcastFactHandler {
	return &BroadcastFactHandler{
		repo:        repo,
		mailer:      normalizeMailer(mailer),
		activity:    noopActivitySink{},
		logger:      defLogger{},
		frontendURL: frontendURL,
		pick:        rand.IntN,
	}
}

func (h *BroadcastFactHandler) WithLogger(l Logger) *BroadcastFactHandler {
	if l != nil {
		h.logger = l
	}
	return h
}

func (h *BroadcastFactHandler) WithActivitySink(s ActivitySink) *BroadcastFactHandler {
	h.activity = normalizeActivitySink(s)
	return h
}

// WithFactPicker overrides the random selection, mostly for tests.
func (h *BroadcastFactHandler) WithFactPicker(pick func(n int) int) *BroadcastFactHandler {
	if pick != nil {
		h.pick = pick
	}
	return h
}

func (h *BroadcastFactHandler) Execute(ctx context.Context, event BroadcastFactMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during fact broadcast",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *BroadcastFactHandler) execute(ctx context.Context, event BroadcastFactMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*30)
	defer cancel()

	members, _, err := h.repo.Profiles().List(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list broadcast recipients")
	}

	if len(members) == 0 {
		h.logger.Info("no members registered, skipping fact broadcast")
		if event.OnResponse != nil {
			event.OnResponse(&BroadcastFactResponse{})
		}
		return nil
	}

	fact := DailyFacts[h.pick(len(DailyFacts))]

	for _, member := range members {
		sendAsync(h.mailer, h.logger, member.Email, FactEmailSubject, FactEmailBody(member.FullName, fact, h.frontendURL))
	}

	h.logger.Info("fact broadcast queued", "recipients", len(members))

	if err := h.activity.Record(ctx, ActivityEvent{
		EventType:  ActivityEventFactBroadcast,
		Metadata:   map[string]any{"recipients": len(members)},
		OccurredAt: time.Now(),
	}); err != nil {
		h.logger.Error("failed to record broadcast event", "error", err)
	}

	if event.OnResponse != nil {
		event.OnResponse(&BroadcastFactResponse{
			Fact:       fact,
			Recipients: len(members),
		})
	}

	return nil
}
