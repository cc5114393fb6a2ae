package identity

import (
	"errors"
	"fmt"
)

// AuthErrorKind classifies login failures.
type AuthErrorKind string

const (
	AuthInvalidCredentials AuthErrorKind = "invalid_credentials"
	AuthNetworkError       AuthErrorKind = "network_error"
)

// AuthError is returned by Authenticator implementations and the Store.
type AuthError struct {
	Kind AuthErrorKind
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return "identity: " + string(e.Kind)
	}
	return fmt.Sprintf("identity: %s: %v", e.Kind, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// InvalidCredentials wraps err as an invalid_credentials failure.
func InvalidCredentials(err error) error {
	return &AuthError{Kind: AuthInvalidCredentials, Err: err}
}

// NetworkError wraps err as a network_error failure.
func NetworkError(err error) error {
	return &AuthError{Kind: AuthNetworkError, Err: err}
}

// IsAuthKind reports whether err is an AuthError of the given kind.
func IsAuthKind(err error, kind AuthErrorKind) bool {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Kind == kind
	}
	return false
}

var (
	// ErrNoSession indicates the session carries no principal.
	ErrNoSession = errors.New("identity: no session")
	// ErrInvalidToken indicates the persisted token was rejected.
	ErrInvalidToken = errors.New("identity: invalid token")
	// ErrTokenExpired indicates the persisted token is past its expiry.
	ErrTokenExpired = errors.New("identity: token expired")
	// ErrRoleChanged indicates the authenticator reported a different role
	// than the one the session was opened with.
	ErrRoleChanged = errors.New("identity: role changed, re-authentication required")
)
