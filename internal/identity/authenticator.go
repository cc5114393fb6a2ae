package identity

import "context"

//go:generate mockgen -source=authenticator.go -destination=mocks/authenticator_mock.go -package=mocks

// Authenticator verifies credentials and tokens against the system of record.
type Authenticator interface {
	// Authenticate exchanges credentials for a token and principal. Failures
	// are *AuthError values.
	Authenticate(ctx context.Context, creds Credentials) (Grant, error)
	// Validate returns the principal a token belongs to. ErrInvalidToken means
	// the token is no longer valid; an *AuthError of kind network_error means
	// the check could not complete.
	Validate(ctx context.Context, token string) (Principal, error)
	// AcceptContract records contract acceptance for the token's principal.
	AcceptContract(ctx context.Context, token string) (Principal, error)
	// Revoke invalidates a token server-side.
	Revoke(ctx context.Context, token string) error
}

// LogoutNotifier delivers best-effort logout notifications to the backend.
type LogoutNotifier interface {
	NotifyLogout(ctx context.Context, token string) error
}
