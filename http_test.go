package memberauth_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	memberauth "github.com/clubware/go-memberauth"
	"github.com/clubware/go-memberauth/middleware/jwtware"
)

func issueSessionToken(t *testing.T) string {
	t.Helper()

	token, err := newTestTokenService().IssueAccess(activeMember())
	require.NoError(t, err)
	return token
}

func TestProtectedRouteEnrichesRequestContext(t *testing.T) {
	auther, err := memberauth.NewHTTPAuthenticator(nil, testConfig{})
	require.NoError(t, err)

	var seen []string
	auther.WithValidationListeners(func(_ router.Context, claims jwtware.AuthClaims) error {
		seen = append(seen, claims.Subject())
		return nil
	})

	guard := auther.ProtectedRoute(testConfig{}, auther.MakeClientRouteAuthErrorHandler(false))

	handled := false
	route := guard(func(ctx router.Context) error {
		handled = true
		return nil
	})

	var enriched context.Context

	ctx := router.NewMockContext()
	ctx.On("GetString", "Authorization", "").Return("Bearer " + issueSessionToken(t))
	ctx.On("Locals", "user", mock.AnythingOfType("*jwt.Token")).Return(nil)
	ctx.On("Context").Return(context.Background())
	ctx.On("SetContext", mock.Anything).Run(func(args mock.Arguments) {
		enriched = args.Get(0).(context.Context)
	})

	require.NoError(t, route(ctx))
	assert.True(t, handled)
	assert.Equal(t, []string{"member@example.com"}, seen)

	require.NotNil(t, enriched)
	claims, ok := memberauth.GetClaims(enriched)
	require.True(t, ok)
	assert.Equal(t, "member@example.com", claims.Subject())

	subject, ok := memberauth.SubjectFromContext(enriched)
	require.True(t, ok)
	assert.Equal(t, "member@example.com", subject)
}

func TestProtectedRouteRejectsForgedToken(t *testing.T) {
	auther, err := memberauth.NewHTTPAuthenticator(nil, testConfig{})
	require.NoError(t, err)

	forged, err := memberauth.NewTokenService(
		[]byte("a-different-signing-key"),
		testConfig{}.GetAccessTokenTTL(),
		testConfig{}.GetRefreshTokenTTL(),
		testConfig{}.GetIssuer(),
		testConfig{}.GetAudience(),
		testLogger{},
	).IssueAccess(activeMember())
	require.NoError(t, err)

	auther.Logger = testLogger{}

	guard := auther.ProtectedRoute(testConfig{}, auther.MakeClientRouteAuthErrorHandler(false))

	handled := false
	route := guard(func(ctx router.Context) error {
		handled = true
		return nil
	})

	ctx := router.NewMockContext()
	ctx.On("GetString", "Authorization", "").Return("Bearer " + forged)
	ctx.On("JSON", http.StatusUnauthorized, mock.Anything).Return(nil)

	require.NoError(t, route(ctx))
	assert.False(t, handled)
	ctx.AssertExpectations(t)
}

func TestProtectedRouteListenerCanReject(t *testing.T) {
	auther, err := memberauth.NewHTTPAuthenticator(nil, testConfig{})
	require.NoError(t, err)

	auther.Logger = testLogger{}
	auther.WithValidationListeners(func(router.Context, jwtware.AuthClaims) error {
		return assert.AnError
	})

	guard := auther.ProtectedRoute(testConfig{}, auther.MakeClientRouteAuthErrorHandler(false))

	handled := false
	route := guard(func(ctx router.Context) error {
		handled = true
		return nil
	})

	ctx := router.NewMockContext()
	ctx.On("GetString", "Authorization", "").Return("Bearer " + issueSessionToken(t))
	ctx.On("JSON", http.StatusUnauthorized, mock.Anything).Return(nil)

	require.NoError(t, route(ctx))
	assert.False(t, handled)
	ctx.AssertExpectations(t)
}

func TestPassthroughRoute(t *testing.T) {
	t.Run("anonymous requests reach the handler", func(t *testing.T) {
		auther, err := memberauth.NewHTTPAuthenticator(nil, testConfig{})
		require.NoError(t, err)

		optional := auther.PassthroughRoute(testConfig{})

		handled := false
		route := optional(func(ctx router.Context) error {
			handled = true
			return nil
		})

		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("")

		require.NoError(t, route(ctx))
		assert.True(t, handled)
	})

	t.Run("a valid token still enriches the context", func(t *testing.T) {
		auther, err := memberauth.NewHTTPAuthenticator(nil, testConfig{})
		require.NoError(t, err)

		optional := auther.PassthroughRoute(testConfig{})

		handled := false
		route := optional(func(ctx router.Context) error {
			handled = true
			return nil
		})

		var enriched context.Context

		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("Bearer " + issueSessionToken(t))
		ctx.On("Locals", "user", mock.AnythingOfType("*jwt.Token")).Return(nil)
		ctx.On("Context").Return(context.Background())
		ctx.On("SetContext", mock.Anything).Run(func(args mock.Arguments) {
			enriched = args.Get(0).(context.Context)
		})

		require.NoError(t, route(ctx))
		assert.True(t, handled)

		require.NotNil(t, enriched)
		subject, ok := memberauth.SubjectFromContext(enriched)
		require.True(t, ok)
		assert.Equal(t, "member@example.com", subject)
	})

	t.Run("a garbled token degrades to anonymous", func(t *testing.T) {
		auther, err := memberauth.NewHTTPAuthenticator(nil, testConfig{})
		require.NoError(t, err)

		optional := auther.PassthroughRoute(testConfig{})

		handled := false
		route := optional(func(ctx router.Context) error {
			handled = true
			return nil
		})

		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("Bearer not-a-token")

		require.NoError(t, route(ctx))
		assert.True(t, handled)
	})
}
