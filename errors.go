package memberauth

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	// TextCodeTokenExpired marks expired session or reset tokens
	TextCodeTokenExpired = "TOKEN_EXPIRED"
	// TextCodeTokenMalformed marks tokens we could not parse
	TextCodeTokenMalformed = "TOKEN_MALFORMED"
	// TextCodeBadSignature marks tokens whose HMAC did not verify
	TextCodeBadSignature = "TOKEN_BAD_SIGNATURE"
	// TextCodeAccountInactive marks logins against unverified accounts
	TextCodeAccountInactive = "ACCOUNT_NOT_ACTIVE"
	// TextCodeTokenAllocation marks exhausted unique-token allocation retries
	TextCodeTokenAllocation = "TOKEN_ALLOCATION_CONFLICT"
)

// ErrTokenMalformed is returned when a bearer token cannot be parsed
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrBadSignature is returned when a token's signature does not verify
var ErrBadSignature = goerrors.New("token signature is invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeBadSignature).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenExpired is returned when a token's expiry has passed
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrAccountInactive rejects logins before any credential check when the
// account has not consumed its activation token yet
var ErrAccountInactive = goerrors.New("account is not verified", goerrors.CategoryAuth).
	WithTextCode(TextCodeAccountInactive).
	WithCode(goerrors.CodeForbidden)

// ErrBadCredentials is the single generic login failure. It intentionally does
// not distinguish an unknown email from a wrong password.
var ErrBadCredentials = goerrors.New("invalid email or password", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized)

// ErrResetTokenInvalid is the generic outcome for unknown or consumed reset tokens
var ErrResetTokenInvalid = goerrors.New("invalid or expired password reset token", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrActivationNotFound is the generic outcome for unknown or consumed
// activation tokens
var ErrActivationNotFound = goerrors.New("invalid or expired activation link", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrTokenAllocation is surfaced when we run out of attempts to allocate a
// unique opaque token value
var ErrTokenAllocation = goerrors.New("could not allocate a unique token", goerrors.CategoryConflict).
	WithTextCode(TextCodeTokenAllocation).
	WithCode(goerrors.CodeConflict)

// ErrTooManyLoginAttempts enforces the login cool down window
var ErrTooManyLoginAttempts = goerrors.New("too many login attempts", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized)

// ErrMismatchedHashAndPassword is the bcrypt comparison failure
var ErrMismatchedHashAndPassword = goerrors.New("mismatched password", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized)

// ErrNoEmptyString rejects empty passwords before hashing
var ErrNoEmptyString = goerrors.New("password must not be empty", goerrors.CategoryValidation).
	WithCode(goerrors.CodeBadRequest)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if goerrors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
