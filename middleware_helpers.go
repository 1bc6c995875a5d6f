package memberauth

import (
	"context"

	"github.com/clubware/go-memberauth/middleware/jwtware"
)

// ValidationListener aliases the jwtware listener so consumers can use the
// package helpers directly.
type ValidationListener = jwtware.ValidationListener

// ContextEnricherAdapter stores validated claims in the standard context so
// handlers and command executors can read the subject without touching the
// router context. Claims decoded as a raw map only expose the middleware's
// narrow surface and get rebuilt into session claims.
func ContextEnricherAdapter(c context.Context, claims jwtware.AuthClaims) context.Context {
	if claims == nil {
		return c
	}
	if authClaims, ok := claims.(AuthClaims); ok {
		return WithClaimsContext(c, authClaims)
	}

	sc := &SessionClaims{UID: claims.UserID(), UserRole: claims.Role()}
	sc.RegisteredClaims.Subject = claims.Subject()
	return WithClaimsContext(c, sc)
}

// RegisterValidationListeners appends listeners to a jwtware.Config in a
// safe, reusable way.
func RegisterValidationListeners(cfg *jwtware.Config, listeners ...ValidationListener) {
	if cfg == nil || len(listeners) == 0 {
		return
	}
	cfg.ValidationListeners = append(cfg.ValidationListeners, listeners...)
}
