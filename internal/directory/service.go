package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/roadassist/portal/internal/identity"
	"github.com/roadassist/portal/internal/shared"
)

// DefaultCost is the bcrypt cost used for new password hashes.
const DefaultCost = 12

// HashPassword hashes a plain-text password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), DefaultCost)
	if err != nil {
		return "", fmt.Errorf("directory: hash password: %w", err)
	}
	return string(hash), nil
}

// Service authenticates portal users against the local directory and mints
// tokens for them. It satisfies identity.Authenticator.
type Service struct {
	repo   Repository
	tokens *identity.TokenManager
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens *identity.TokenManager, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, tokens: tokens, logger: logger, now: time.Now}
}

// Authenticate validates email/password credentials and records a login session.
func (s *Service) Authenticate(ctx context.Context, creds identity.Credentials) (identity.Grant, error) {
	user, err := s.repo.FindByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return identity.Grant{}, identity.InvalidCredentials(shared.ErrInvalidCredentials)
		}
		return identity.Grant{}, identity.NetworkError(err)
	}
	if !user.IsActive {
		return identity.Grant{}, identity.InvalidCredentials(shared.ErrInvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		return identity.Grant{}, identity.InvalidCredentials(shared.ErrInvalidCredentials)
	}

	principal := user.Principal()
	token, tokenID, err := s.tokens.Generate(principal)
	if err != nil {
		return identity.Grant{}, identity.NetworkError(err)
	}
	expiresAt, _ := identity.ExpiresAt(token)
	if err := s.repo.CreateSession(ctx, LoginSession{
		ID:        tokenID,
		UserID:    user.ID,
		CreatedAt: s.now(),
		ExpiresAt: expiresAt,
	}); err != nil {
		return identity.Grant{}, identity.NetworkError(err)
	}

	s.logger.Info("directory login", slog.Int64("user_id", user.ID), slog.String("role", string(user.Role)))
	return identity.Grant{Token: token, Principal: principal}, nil
}

// Validate returns the current principal for a token whose login session is
// still on record.
func (s *Service) Validate(ctx context.Context, token string) (identity.Principal, error) {
	user, err := s.userForToken(ctx, token)
	if err != nil {
		return identity.Principal{}, err
	}
	return user.Principal(), nil
}

// AcceptContract records contract acceptance for the token's user.
func (s *Service) AcceptContract(ctx context.Context, token string) (identity.Principal, error) {
	user, err := s.userForToken(ctx, token)
	if err != nil {
		return identity.Principal{}, err
	}
	updated, err := s.repo.AcceptContract(ctx, user.ID, s.now())
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return identity.Principal{}, identity.ErrInvalidToken
		}
		return identity.Principal{}, identity.NetworkError(err)
	}
	return updated.Principal(), nil
}

// Revoke deletes the login session bound to the token.
func (s *Service) Revoke(ctx context.Context, token string) error {
	id, ok := identity.TokenID(token)
	if !ok {
		return nil
	}
	return s.repo.DeleteSession(ctx, id)
}

// NotifyLogout revokes the token directly; the directory needs no queue.
func (s *Service) NotifyLogout(ctx context.Context, token string) error {
	return s.Revoke(ctx, token)
}

// PurgeExpired removes login sessions that expired before now.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repo.PurgeExpiredSessions(ctx, s.now())
}

func (s *Service) userForToken(ctx context.Context, token string) (*User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	session, err := s.repo.FindSession(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, identity.ErrInvalidToken
		}
		return nil, identity.NetworkError(err)
	}
	if session.Expired(s.now()) {
		return nil, identity.ErrTokenExpired
	}
	userID, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil || userID != session.UserID {
		return nil, identity.ErrInvalidToken
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, identity.ErrInvalidToken
		}
		return nil, identity.NetworkError(err)
	}
	if !user.IsActive {
		return nil, identity.ErrInvalidToken
	}
	return user, nil
}

var (
	_ identity.Authenticator  = (*Service)(nil)
	_ identity.LogoutNotifier = (*Service)(nil)
)
