package memberauth_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	memberauth "github.com/clubware/go-memberauth"
)

func TestInitializePasswordResetHandler(t *testing.T) {
	ctx := context.Background()
	profile := &memberauth.Profile{
		ID:       uuid.New(),
		FullName: "Member One",
		Email:    "member@example.com",
	}

	t.Run("issues a token and mails the reset link", func(t *testing.T) {
		profiles := &fakeProfiles{
			getByEmail: func(context.Context, string) (*memberauth.Profile, error) {
				return profile, nil
			},
		}
		resets := &fakeResetTokens{
			create: func(_ context.Context, record *memberauth.ResetToken, _ ...repository.InsertCriteria) (*memberauth.ResetToken, error) {
				return record, nil
			},
		}

		repo := &fakeRepo{profiles: profiles, resetTokens: resets}
		store := memberauth.NewResetTokenStore(repo, 30*time.Minute).WithLogger(testLogger{})

		mailer := &captureMailer{}
		sink := &captureSink{}
		handler := memberauth.NewInitializePasswordResetHandler(store, repo, mailer, "https://club.example.com").
			WithLogger(testLogger{}).
			WithActivitySink(sink)

		var resp *memberauth.InitializePasswordResetResponse
		err := handler.Execute(ctx, memberauth.InitializePasswordResetMessage{
			Email: profile.Email,
			OnResponse: func(r *memberauth.InitializePasswordResetResponse) {
				resp = r
			},
		})
		require.NoError(t, err)

		require.NotNil(t, resp)
		assert.True(t, resp.Success)
		require.NotNil(t, resp.Reset)
		assert.NotEmpty(t, resp.Reset.Token)

		assert.True(t, sink.Has(memberauth.ActivityEventPasswordResetRequested))

		assert.Eventually(t, func() bool {
			sent := mailer.Sent()
			return len(sent) == 1 &&
				sent[0].To == profile.Email &&
				sent[0].Subject == memberauth.ResetEmailSubject &&
				strings.Contains(sent[0].Body, resp.Reset.Token)
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("unknown email reports success and sends nothing", func(t *testing.T) {
		profiles := &fakeProfiles{
			getByEmail: func(context.Context, string) (*memberauth.Profile, error) {
				return nil, errors.New("profile not found", errors.CategoryNotFound)
			},
		}

		repo := &fakeRepo{profiles: profiles}
		store := memberauth.NewResetTokenStore(repo, 30*time.Minute).WithLogger(testLogger{})

		mailer := &captureMailer{}
		handler := memberauth.NewInitializePasswordResetHandler(store, repo, mailer, "https://club.example.com").
			WithLogger(testLogger{})

		var resp *memberauth.InitializePasswordResetResponse
		err := handler.Execute(ctx, memberauth.InitializePasswordResetMessage{
			Email: "nobody@example.com",
			OnResponse: func(r *memberauth.InitializePasswordResetResponse) {
				resp = r
			},
		})
		require.NoError(t, err)

		require.NotNil(t, resp)
		assert.True(t, resp.Success)
		assert.Nil(t, resp.Reset)
		assert.Empty(t, mailer.Sent())
	})

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		repo := &fakeRepo{}
		store := memberauth.NewResetTokenStore(repo, 30*time.Minute)
		handler := memberauth.NewInitializePasswordResetHandler(store, repo, nil, "https://club.example.com")

		err := handler.Execute(cancelled, memberauth.InitializePasswordResetMessage{Email: profile.Email})
		assert.Error(t, err)
	})
}
