package memberauth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	memberauth "github.com/clubware/go-memberauth"
)

var testSigningKey = []byte("test-signing-key-for-sessions")

func newTestTokenService() memberauth.TokenService {
	return memberauth.NewTokenService(
		testSigningKey,
		15*time.Minute,
		168*time.Hour,
		"memberauth-test",
		[]string{"members"},
		testLogger{},
	)
}

func activeMember() testIdentity {
	return testIdentity{
		id:       "b21e0c74-2061-4f47-a1a7-4b5c2e1f0a11",
		email:    "member@example.com",
		fullName: "Member One",
		role:     memberauth.RoleMember,
		active:   true,
	}
}

func TestIssueAccessRoundTrip(t *testing.T) {
	svc := newTestTokenService()
	identity := activeMember()

	token, err := svc.IssueAccess(identity)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Validate(token)
	require.NoError(t, err)

	assert.Equal(t, identity.email, claims.Subject())
	assert.Equal(t, identity.id, claims.UserID())
	assert.Equal(t, memberauth.RoleMember, claims.Role())
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.Expires(), 5*time.Second)

	session, ok := claims.(*memberauth.SessionClaims)
	require.True(t, ok)
	assert.False(t, session.IsRefresh())
	assert.NotEmpty(t, session.ID, "tokens should carry a jti")
}

func TestIssueRefreshMarksRefreshFlag(t *testing.T) {
	svc := newTestTokenService()

	token, err := svc.IssueRefresh(activeMember())
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)

	session, ok := claims.(*memberauth.SessionClaims)
	require.True(t, ok)
	assert.True(t, session.IsRefresh())
	assert.WithinDuration(t, time.Now().Add(168*time.Hour), claims.Expires(), 5*time.Second)
}

func TestIssueRequiresIdentity(t *testing.T) {
	svc := newTestTokenService()

	_, err := svc.IssueAccess(nil)
	assert.Error(t, err)

	_, err = svc.IssueRefresh(nil)
	assert.Error(t, err)
}

func TestIssueArbitrarySubject(t *testing.T) {
	svc := newTestTokenService()

	t.Run("valid subject and TTL", func(t *testing.T) {
		token, err := svc.Issue("someone@example.com", time.Hour)
		require.NoError(t, err)

		claims, err := svc.Validate(token)
		require.NoError(t, err)
		assert.Equal(t, "someone@example.com", claims.Subject())
	})

	t.Run("empty subject", func(t *testing.T) {
		_, err := svc.Issue("", time.Hour)
		assert.Error(t, err)
	})

	t.Run("non positive TTL", func(t *testing.T) {
		_, err := svc.Issue("someone@example.com", 0)
		assert.Error(t, err)
	})
}

func TestValidateExpiredToken(t *testing.T) {
	svc := newTestTokenService()

	token, err := svc.Issue("someone@example.com", time.Millisecond)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	_, err = svc.Validate(token)
	require.Error(t, err)
	assert.True(t, memberauth.IsTokenExpiredError(err))
}

func TestValidateBadSignature(t *testing.T) {
	other := memberauth.NewTokenService(
		[]byte("a-completely-different-key"),
		15*time.Minute,
		168*time.Hour,
		"memberauth-test",
		[]string{"members"},
		testLogger{},
	)

	token, err := other.IssueAccess(activeMember())
	require.NoError(t, err)

	svc := newTestTokenService()
	_, err = svc.Validate(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, memberauth.ErrBadSignature)
}

func TestValidateMalformedToken(t *testing.T) {
	svc := newTestTokenService()

	for _, tokenString := range []string{"", "not-a-token", "a.b.c"} {
		_, err := svc.Validate(tokenString)
		require.Error(t, err)
		assert.True(t, memberauth.IsMalformedError(err), "expected malformed error for %q", tokenString)
	}
}

func TestValidateRejectsWrongIssuer(t *testing.T) {
	foreign := memberauth.NewTokenService(
		testSigningKey,
		15*time.Minute,
		168*time.Hour,
		"somebody-else",
		[]string{"members"},
		testLogger{},
	)

	token, err := foreign.IssueAccess(activeMember())
	require.NoError(t, err)

	svc := newTestTokenService()
	_, err = svc.Validate(token)
	assert.Error(t, err)
}

func TestValidateRejectsWrongAudience(t *testing.T) {
	foreign := memberauth.NewTokenService(
		testSigningKey,
		15*time.Minute,
		168*time.Hour,
		"memberauth-test",
		[]string{"somebody-else"},
		testLogger{},
	)

	token, err := foreign.IssueAccess(activeMember())
	require.NoError(t, err)

	svc := newTestTokenService()
	_, err = svc.Validate(token)
	assert.Error(t, err)
}

func TestValidateRejectsUnexpectedSigningMethod(t *testing.T) {
	claims := jwt.MapClaims{
		"sub": "someone@example.com",
		"iss": "memberauth-test",
		"aud": "members",
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	svc := newTestTokenService()
	_, err = svc.Validate(signed)
	assert.Error(t, err)
}
