// Package auth implements the credential core: password-based
// registration and login, stateless HS256 access tokens, and the
// rotating refresh-token lifecycle. Handlers call into it through
// Service; persistence is abstracted behind the Store interface.
package auth

import "errors"

var (
	// ErrDuplicateUser is returned when the email or username is already taken.
	ErrDuplicateUser = errors.New("user with this email or username already exists")

	// ErrInvalidCredentials is returned on login when the email is unknown or
	// the password does not verify. The two cases are indistinguishable to
	// the caller so accounts cannot be enumerated.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidOrExpiredToken is returned when a presented refresh token is
	// unknown, expired, or already revoked (including replay of a rotated token).
	ErrInvalidOrExpiredToken = errors.New("invalid or expired refresh token")

	// ErrInvalidToken is returned when an access token fails verification.
	ErrInvalidToken = errors.New("invalid token")

	// ErrRoleNotConfigured is returned when the default role catalog was not
	// seeded. This is a deployment error, never a user error.
	ErrRoleNotConfigured = errors.New("default role not found")

	// ErrSecretNotConfigured is returned when the signing secret is missing.
	ErrSecretNotConfigured = errors.New("jwt secret key not configured")
)

// Sentinels returned by Store implementations. The service layer maps
// them onto the errors above before they reach a caller.
var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when an insert violates a unique constraint.
	ErrDuplicate = errors.New("duplicate record")

	// ErrTokenNotActive is returned when a conditional revoke matched no row,
	// i.e. the token was already revoked by a concurrent caller.
	ErrTokenNotActive = errors.New("refresh token not active")
)
