package auth

import "errors"

var (
	// ErrInvalidCredentials is returned when the email and/or password are wrong.
	// Unknown emails and wrong passwords are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrUserAccountInactive is returned when authenticating an inactive account.
	ErrUserAccountInactive = errors.New("user account is inactive")

	// ErrUserAccountPending is returned when authenticating an account that has
	// not been approved yet.
	ErrUserAccountPending = errors.New("user account is pending approval")

	// ErrUserEmailExists is returned when creating a user with an email that already exists.
	ErrUserEmailExists = errors.New("user with this email already exists")

	// ErrInvalidOldPassword is returned when the provided old password does not
	// match the user's current password.
	ErrInvalidOldPassword = errors.New("invalid old password")

	// ErrTokenInvalid is returned for malformed, tampered or expired session tokens.
	ErrTokenInvalid = errors.New("invalid session token")

	// ErrSessionNotFound is returned when a valid token references a session
	// that no longer exists (logged out or expired server side).
	ErrSessionNotFound = errors.New("session not found")
)
