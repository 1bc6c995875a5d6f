package memberauth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-router"
)

var identityCtxKey = &contextKey{"identity"}
var claimsCtxKey = &contextKey{"claims"}

type contextKey struct {
	name string
}

// WithIdentityContext sets the authenticated Identity in the given context
func WithIdentityContext(r context.Context, identity Identity) context.Context {
	return context.WithValue(r, identityCtxKey, identity)
}

// IdentityFromContext finds the identity from the context. The second return
// is false for unauthenticated requests; callers reject with 401, they never
// see a verification error.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	raw, ok := ctx.Value(identityCtxKey).(Identity)
	return raw, ok
}

// WithClaimsContext sets the AuthClaims in the given context
func WithClaimsContext(r context.Context, claims AuthClaims) context.Context {
	return context.WithValue(r, claimsCtxKey, claims)
}

// GetClaims extracts the AuthClaims from the standard context
func GetClaims(ctx context.Context) (AuthClaims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(AuthClaims)
	return raw, ok
}

// GetRouterClaims extracts the AuthClaims from the router context
func GetRouterClaims(ctx router.Context, key string) (AuthClaims, bool) {
	if key == "" {
		key = "user" // Default key used by JWT middleware
	}
	raw := ctx.Locals(key)
	if raw == nil {
		return nil, false
	}

	switch v := raw.(type) {
	case AuthClaims:
		return v, true
	case *jwt.Token:
		if mapClaims, ok := v.Claims.(jwt.MapClaims); ok {
			return ClaimsFromMap(mapClaims), true
		}
		if claims, ok := v.Claims.(AuthClaims); ok {
			return claims, true
		}
	}

	return nil, false
}

// SubjectFromContext returns the authenticated subject (email), if any
func SubjectFromContext(ctx context.Context) (string, bool) {
	if identity, ok := IdentityFromContext(ctx); ok {
		return identity.Email(), true
	}
	if claims, ok := GetClaims(ctx); ok {
		return claims.Subject(), true
	}
	return "", false
}
