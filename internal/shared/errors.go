package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
	// ErrUpstreamUnavailable signals the backend could not be reached.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrForbidden indicates the caller lacks the role for an action.
	ErrForbidden = errors.New("forbidden")
)

// UserSafeMessage maps internal errors to text that can be shown in the UI.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCredentials):
		return "Email or password is incorrect."
	case errors.Is(err, ErrNotFound):
		return "The requested record could not be found."
	case errors.Is(err, ErrCSRFTokenMissing), errors.Is(err, ErrCSRFTokenMismatch):
		return "Your form expired. Please try again."
	case errors.Is(err, ErrUpstreamUnavailable):
		return "The service is temporarily unavailable. Please try again shortly."
	case errors.Is(err, ErrForbidden):
		return "You do not have access to this action."
	case errors.Is(err, ErrIdempotencyConflict):
		return "This form was already submitted."
	default:
		return "Something went wrong. Please try again."
	}
}
