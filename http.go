package memberauth

import (
	"net/http"

	"github.com/clubware/go-memberauth/middleware/jwtware"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// RouteAuthenticator glues the credential flows to the HTTP surface: it
// builds the token-guard middleware and renders errors as JSON payloads.
type RouteAuthenticator struct {
	auth         Authenticator
	cfg          Config
	listeners    []ValidationListener
	Logger       Logger
	ErrorHandler func(c router.Context, err error) error
}

func NewHTTPAuthenticator(auther Authenticator, cfg Config) (*RouteAuthenticator, error) {
	a := &RouteAuthenticator{
		cfg:    cfg,
		auth:   auther,
		Logger: defLogger{},
	}

	a.ErrorHandler = a.defaultErrHandler

	return a, nil
}

// WithValidationListeners registers hooks that run after every successful
// token validation on routes built by this authenticator.
func (a *RouteAuthenticator) WithValidationListeners(listeners ...ValidationListener) *RouteAuthenticator {
	a.listeners = append(a.listeners, listeners...)
	return a
}

// ProtectedRoute builds a guard middleware from the signing configuration.
// Requests without a verifiable session token never reach the handler; on
// success the claims are copied into the standard context before it runs.
func (a *RouteAuthenticator) ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		wcfg := jwtware.Config{
			ErrorHandler:    errorHandler,
			SuccessHandler:  hf,
			ContextEnricher: ContextEnricherAdapter,
			SigningKey: jwtware.SigningKey{
				Key:    []byte(cfg.GetSigningKey()),
				JWTAlg: cfg.GetSigningMethod(),
			},
			AuthScheme:  cfg.GetAuthScheme(),
			ContextKey:  cfg.GetContextKey(),
			TokenLookup: cfg.GetTokenLookup(),
		}
		RegisterValidationListeners(&wcfg, a.listeners...)
		return jwtware.New(wcfg)
	}
}

// PassthroughRoute decodes a token when one is present but lets anonymous
// requests continue. Handlers downstream decide based on context contents.
func (a *RouteAuthenticator) PassthroughRoute(cfg Config) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		wcfg := jwtware.Config{
			ErrorHandler:    a.MakeClientRouteAuthErrorHandler(true),
			SuccessHandler:  hf,
			ContextEnricher: ContextEnricherAdapter,
			SigningKey: jwtware.SigningKey{
				Key:    []byte(cfg.GetSigningKey()),
				JWTAlg: cfg.GetSigningMethod(),
			},
			AuthScheme:  cfg.GetAuthScheme(),
			ContextKey:  cfg.GetContextKey(),
			TokenLookup: cfg.GetTokenLookup(),
			Passthrough: true,
		}
		RegisterValidationListeners(&wcfg, a.listeners...)
		return jwtware.New(wcfg)
	}
}

// MakeClientRouteAuthErrorHandler normalizes guard failures into the token
// error taxonomy. With optional set, the request continues unauthenticated
// instead of failing, mirroring how a passthrough guard degrades.
func (a *RouteAuthenticator) MakeClientRouteAuthErrorHandler(optional bool) func(router.Context, error) error {
	return func(ctx router.Context, err error) error {
		var richErr *errors.Error

		if IsTokenExpiredError(err) {
			richErr = ErrTokenExpired
		} else if IsMalformedError(err) {
			richErr = ErrTokenMalformed
		} else {
			richErr = errors.Wrap(err, errors.CategoryAuth, "Invalid authentication token").
				WithCode(errors.CodeUnauthorized)
		}

		if optional {
			a.Logger.Info("Optional auth failed, proceeding", "error", richErr.Message)
			return ctx.Next()
		}

		return a.ErrorHandler(ctx, richErr)
	}
}

func (a *RouteAuthenticator) defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	a.Logger.Info(
		"Middleware error handler",
		"error", richErr.Message,
		"category", richErr.Category,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	return WriteJSONError(c, richErr)
}

// WriteJSONError renders a rich error as the API error envelope. The stored
// code doubles as the HTTP status when it falls in the valid range.
func WriteJSONError(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	status := httpStatusFromError(richErr)

	body := map[string]any{
		"message":  richErr.Message,
		"category": string(richErr.Category),
	}
	if richErr.TextCode != "" {
		body["text_code"] = richErr.TextCode
	}

	return c.JSON(status, map[string]any{"error": body})
}

func httpStatusFromError(err *errors.Error) int {
	if err.Code >= 400 && err.Code < 600 {
		return err.Code
	}

	switch err.Category {
	case errors.CategoryAuth:
		return http.StatusUnauthorized
	case errors.CategoryAuthz:
		return http.StatusForbidden
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryConflict:
		return http.StatusConflict
	case errors.CategoryValidation, errors.CategoryBadInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
