package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/roadassist/portal/internal/shared"
)

const (
	sessionKeyToken       = "auth_token"
	sessionKeyPrincipal   = "principal"
	sessionKeyValidatedAt = "validated_at"
)

// DefaultRevalidateInterval bounds how long a validated token is trusted
// before the authenticator is consulted again.
const DefaultRevalidateInterval = 5 * time.Minute

// ErrUnknownRole indicates the authenticator returned a role outside the enum.
var ErrUnknownRole = errors.New("identity: unknown role")

// Option configures a Store.
type Option func(*Store)

// WithNotifier sets the backend logout notifier.
func WithNotifier(n LogoutNotifier) Option {
	return func(s *Store) { s.notifier = n }
}

// WithSessionManager lets the store rotate session ids on login, destroy the
// session record on logout and revoke ids signed out through the hub.
func WithSessionManager(sm *shared.SessionManager) Option {
	return func(s *Store) { s.sessions = sm }
}

// WithRevalidateInterval overrides DefaultRevalidateInterval. Zero forces
// validation on every request.
func WithRevalidateInterval(d time.Duration) Option {
	return func(s *Store) { s.revalidate = d }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Store owns the principal and token bound to each server session and is
// the only publisher of identity events.
type Store struct {
	auth       Authenticator
	hub        *Hub
	sessions   *shared.SessionManager
	notifier   LogoutNotifier
	logger     *slog.Logger
	group      singleflight.Group
	revalidate time.Duration
	now        func() time.Time
}

// NewStore constructs a Store.
func NewStore(auth Authenticator, hub *Hub, logger *slog.Logger, opts ...Option) *Store {
	if hub == nil {
		hub = NewHub()
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		auth:       auth,
		hub:        hub,
		logger:     logger,
		revalidate: DefaultRevalidateInterval,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sessions != nil {
		RevokeSignedOutSessions(s.hub, s.sessions)
	}
	return s
}

// Hub exposes the event hub for subscribers.
func (s *Store) Hub() *Hub {
	return s.hub
}

// Login authenticates creds and binds the principal to sess.
func (s *Store) Login(ctx context.Context, sess *shared.Session, creds Credentials) (Principal, error) {
	if sess == nil {
		return Principal{}, ErrNoSession
	}
	grant, err := s.auth.Authenticate(ctx, creds)
	if err != nil {
		var authErr *AuthError
		if errors.As(err, &authErr) {
			return Principal{}, err
		}
		return Principal{}, NetworkError(err)
	}
	if !grant.Principal.Role.Valid() {
		return Principal{}, InvalidCredentials(fmt.Errorf("%w: %q", ErrUnknownRole, grant.Principal.Role))
	}
	if exp, ok := ExpiresAt(grant.Token); ok && !exp.After(s.now()) {
		return Principal{}, InvalidCredentials(ErrTokenExpired)
	}

	if s.sessions != nil {
		s.sessions.Rotate(sess)
	}
	if err := s.bind(sess, grant.Token, grant.Principal); err != nil {
		return Principal{}, err
	}
	s.publish(EventLogin, sess, grant.Principal)
	return grant.Principal, nil
}

// Current returns the principal stored in sess. Expired tokens report false.
func (s *Store) Current(sess *shared.Session) (Principal, bool) {
	if sess == nil {
		return Principal{}, false
	}
	token := sess.Get(sessionKeyToken)
	if token == "" {
		return Principal{}, false
	}
	p, ok := storedPrincipal(sess)
	if !ok {
		return Principal{}, false
	}
	if s.expired(token) {
		return Principal{}, false
	}
	return p, true
}

// Token returns the auth token bound to sess, or "".
func (s *Store) Token(sess *shared.Session) string {
	if sess == nil {
		return ""
	}
	return sess.Get(sessionKeyToken)
}

// Logout clears the principal and token from sess. Calling it on an
// anonymous session is a no-op.
func (s *Store) Logout(ctx context.Context, sess *shared.Session) error {
	if sess == nil {
		return nil
	}
	token := sess.Get(sessionKeyToken)
	p, had := storedPrincipal(sess)
	if token == "" && !had {
		return nil
	}
	s.clear(sess)
	if s.sessions != nil {
		s.sessions.Destroy(sess)
	}
	s.publish(EventLogout, sess, p)

	if s.notifier != nil && token != "" {
		if err := s.notifier.NotifyLogout(ctx, token); err != nil {
			s.logger.Warn("logout notification failed", slog.String("principal_id", p.ID), slog.Any("error", err))
		}
	}
	return nil
}

// Resolve determines the principal for the current request, validating the
// stored token with the authenticator when the last check is older than the
// revalidation interval. A cancelled ctx yields Unresolved.
func (s *Store) Resolve(ctx context.Context, sess *shared.Session) Resolution {
	if sess == nil {
		return Anonymous()
	}
	token := sess.Get(sessionKeyToken)
	if token == "" {
		return Anonymous()
	}
	stored, ok := storedPrincipal(sess)
	if !ok {
		s.clear(sess)
		return Anonymous()
	}
	if s.expired(token) {
		s.terminate(sess, stored, EventExpired)
		return Anonymous()
	}
	if s.fresh(sess) {
		return Authenticated(stored)
	}
	if ctx.Err() != nil {
		return Unresolved()
	}

	validated, err := s.validate(ctx, token)
	if ctx.Err() != nil {
		return Unresolved()
	}
	switch {
	case err == nil:
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrTokenExpired), IsAuthKind(err, AuthInvalidCredentials):
		s.terminate(sess, stored, EventExpired)
		return Anonymous()
	default:
		s.logger.Warn("session validation unavailable", slog.String("principal_id", stored.ID), slog.Any("error", err))
		return Unresolved()
	}

	if validated.Role != stored.Role {
		s.logger.Warn("principal role changed mid-session",
			slog.String("principal_id", stored.ID),
			slog.String("session_role", stored.Role.String()),
			slog.String("reported_role", validated.Role.String()),
			slog.Any("error", ErrRoleChanged))
		s.terminate(sess, stored, EventLogout)
		return Anonymous()
	}

	if err := s.bind(sess, token, validated); err != nil {
		s.logger.Error("store validated principal", slog.Any("error", err))
		return Authenticated(stored)
	}
	if !validated.Equal(stored) {
		s.publish(EventUpdated, sess, validated)
	}
	return Authenticated(validated)
}

// AcceptContract records contract acceptance for the session principal and
// refreshes the stored copy.
func (s *Store) AcceptContract(ctx context.Context, sess *shared.Session) (Principal, error) {
	stored, ok := s.Current(sess)
	if !ok {
		return Principal{}, ErrNoSession
	}
	token := sess.Get(sessionKeyToken)
	updated, err := s.auth.AcceptContract(ctx, token)
	if err != nil {
		return Principal{}, fmt.Errorf("identity: accept contract: %w", err)
	}
	if updated.Role != stored.Role {
		s.terminate(sess, stored, EventLogout)
		return Principal{}, ErrRoleChanged
	}
	if err := s.bind(sess, token, updated); err != nil {
		return Principal{}, err
	}
	s.publish(EventUpdated, sess, updated)
	return updated, nil
}

func (s *Store) validate(ctx context.Context, token string) (Principal, error) {
	// The shared call outlives any single caller so one cancelled request
	// does not fail the others waiting on the same token.
	ch := s.group.DoChan(token, func() (interface{}, error) {
		return s.auth.Validate(context.WithoutCancel(ctx), token)
	})
	select {
	case <-ctx.Done():
		return Principal{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Principal{}, res.Err
		}
		p, _ := res.Val.(Principal)
		return p, nil
	}
}

func (s *Store) bind(sess *shared.Session, token string, p Principal) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("identity: encode principal: %w", err)
	}
	sess.Set(sessionKeyToken, token)
	sess.Set(sessionKeyPrincipal, string(data))
	sess.Set(sessionKeyValidatedAt, s.now().UTC().Format(time.RFC3339Nano))
	sess.SetUser(p.ID)
	return nil
}

func (s *Store) clear(sess *shared.Session) {
	sess.Delete(sessionKeyToken)
	sess.Delete(sessionKeyPrincipal)
	sess.Delete(sessionKeyValidatedAt)
	sess.SetUser("")
}

func (s *Store) terminate(sess *shared.Session, p Principal, kind EventKind) {
	s.clear(sess)
	if s.sessions != nil {
		s.sessions.Destroy(sess)
	}
	s.publish(kind, sess, p)
}

func (s *Store) fresh(sess *shared.Session) bool {
	if s.revalidate <= 0 {
		return false
	}
	at, err := time.Parse(time.RFC3339Nano, sess.Get(sessionKeyValidatedAt))
	if err != nil {
		return false
	}
	return s.now().Sub(at) < s.revalidate
}

func (s *Store) expired(token string) bool {
	exp, ok := ExpiresAt(token)
	return ok && !exp.After(s.now())
}

func (s *Store) publish(kind EventKind, sess *shared.Session, p Principal) {
	s.hub.Publish(Event{Kind: kind, SessionID: sess.ID, PrincipalID: p.ID, At: s.now().UTC()})
}

func storedPrincipal(sess *shared.Session) (Principal, bool) {
	raw := sess.Get(sessionKeyPrincipal)
	if raw == "" {
		return Principal{}, false
	}
	var p Principal
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Principal{}, false
	}
	return p, true
}
