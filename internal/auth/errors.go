package auth

import "errors"

var (
	// ErrInvalidCredentials covers unknown users and wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrUnauthenticated       = errors.New("authentication required")
	ErrInvalidToken          = errors.New("invalid token")
	ErrTokenExpired          = errors.New("token expired")
	ErrInsufficientPrivilege = errors.New("insufficient privilege")

	// ErrMechanismUnavailable means a mechanism cannot be applied on this
	// host or to this account; the next mechanism is tried.
	ErrMechanismUnavailable = errors.New("mechanism unavailable")

	ErrWeakSecret = errors.New("signing secret too short")

	errRejected = errors.New("credentials rejected")
)

// HumanAuthError returns the message shown to clients. Credential and token
// failures are deliberately vague.
func HumanAuthError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid username or password"
	case errors.Is(err, ErrUnauthenticated):
		return "Authentication required"
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrTokenExpired):
		return "Invalid or expired token"
	case errors.Is(err, ErrInsufficientPrivilege):
		return "Insufficient privileges"
	default:
		return "Authentication failed"
	}
}
