package domain

import "errors"

// Conflict: uniqueness violations at registration time.
var (
	ErrEmailTaken = errors.New("email already registered")
	ErrPhoneTaken = errors.New("phone number already registered")
)

// NotFound: no matching record.
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrPendingNotFound = errors.New("invalid email or verification code")
)

// Unauthorized: bad credentials, locked accounts, unusable tokens. Raw
// signature or verification detail is never attached to these.
var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrAccountLocked       = errors.New("account is suspended, deactivated, or has too many failed login attempts")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

// Expired: a deadline has passed.
var (
	ErrVerificationCodeExpired = errors.New("verification code has expired")
	ErrResetTokenInvalid       = errors.New("invalid or expired reset token")
)

// Validation: malformed input that reached the core.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrAlreadyVerified  = errors.New("email is already verified")
	ErrMissingAssertion = errors.New("federated assertion is missing required fields")
)
