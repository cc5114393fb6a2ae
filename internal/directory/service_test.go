package directory

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/roadassist/portal/internal/identity"
	"github.com/roadassist/portal/internal/shared"
)

type memRepo struct {
	mu       sync.Mutex
	users    map[int64]*User
	sessions map[string]LoginSession
	failWith error
}

func newMemRepo() *memRepo {
	return &memRepo{users: map[int64]*User{}, sessions: map[string]LoginSession{}}
}

func (r *memRepo) add(t *testing.T, u User, password string) *User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u.PasswordHash = string(hash)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = &u
	return &u
}

func (r *memRepo) FindByEmail(_ context.Context, email string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memRepo) FindByID(_ context.Context, id int64) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	u, ok := r.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memRepo) AcceptContract(_ context.Context, id int64, at time.Time) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	if u.ContractAcceptedAt == nil {
		u.ContractAcceptedAt = &at
	}
	cp := *u
	return &cp, nil
}

func (r *memRepo) CreateSession(_ context.Context, s LoginSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
	return nil
}

func (r *memRepo) FindSession(_ context.Context, id string) (*LoginSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	s, ok := r.sessions[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &s, nil
}

func (r *memRepo) DeleteSession(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

func (r *memRepo) PurgeExpiredSessions(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, s := range r.sessions {
		if s.ExpiresAt.Before(before) {
			delete(r.sessions, id)
			n++
		}
	}
	return n, nil
}

func newTestService(t *testing.T) (*Service, *memRepo) {
	t.Helper()
	repo := newMemRepo()
	tokens := identity.NewTokenManager("directory-test-secret", time.Hour)
	svc := NewService(repo, tokens, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return svc, repo
}

func int64Ptr(v int64) *int64 { return &v }

func TestAuthenticateIssuesTokenAndSession(t *testing.T) {
	svc, repo := newTestService(t)
	repo.add(t, User{ID: 7, Email: "ops@agency.test", Name: "Ada", Surname: "Lovelace",
		Role: identity.RoleAgencyAdmin, AgencyID: int64Ptr(3), IsActive: true}, "s3cret!")

	grant, err := svc.Authenticate(context.Background(), identity.Credentials{Email: "ops@agency.test", Password: "s3cret!"})
	require.NoError(t, err)
	assert.NotEmpty(t, grant.Token)
	assert.Equal(t, "7", grant.Principal.ID)
	assert.Equal(t, identity.RoleAgencyAdmin, grant.Principal.Role)
	assert.False(t, grant.Principal.ContractAccepted)

	tokenID, ok := identity.TokenID(grant.Token)
	require.True(t, ok)
	assert.Contains(t, repo.sessions, tokenID)
}

func TestAuthenticateRejectsBadCredentials(t *testing.T) {
	svc, repo := newTestService(t)
	repo.add(t, User{ID: 1, Email: "a@b.test", Role: identity.RoleBranchUser, IsActive: true}, "right")
	repo.add(t, User{ID: 2, Email: "off@b.test", Role: identity.RoleBranchUser, IsActive: false}, "right")

	cases := []identity.Credentials{
		{Email: "a@b.test", Password: "wrong"},
		{Email: "missing@b.test", Password: "right"},
		{Email: "off@b.test", Password: "right"},
	}
	for _, creds := range cases {
		_, err := svc.Authenticate(context.Background(), creds)
		assert.True(t, identity.IsAuthKind(err, identity.AuthInvalidCredentials), creds.Email)
	}
}

func TestAuthenticateStoreFailureIsNetworkError(t *testing.T) {
	svc, repo := newTestService(t)
	repo.failWith = errors.New("connection refused")

	_, err := svc.Authenticate(context.Background(), identity.Credentials{Email: "a@b.test", Password: "x"})
	assert.True(t, identity.IsAuthKind(err, identity.AuthNetworkError))
}

func TestValidateFollowsSessionRecord(t *testing.T) {
	svc, repo := newTestService(t)
	repo.add(t, User{ID: 4, Email: "b@c.test", Role: identity.RoleSupport, IsActive: true}, "pw")
	ctx := context.Background()

	grant, err := svc.Authenticate(ctx, identity.Credentials{Email: "b@c.test", Password: "pw"})
	require.NoError(t, err)

	p, err := svc.Validate(ctx, grant.Token)
	require.NoError(t, err)
	assert.Equal(t, identity.RoleSupport, p.Role)

	require.NoError(t, svc.Revoke(ctx, grant.Token))
	_, err = svc.Validate(ctx, grant.Token)
	assert.ErrorIs(t, err, identity.ErrInvalidToken)
}

func TestValidateReportsRoleChanges(t *testing.T) {
	svc, repo := newTestService(t)
	u := repo.add(t, User{ID: 5, Email: "d@e.test", Role: identity.RoleBranchUser, IsActive: true}, "pw")
	ctx := context.Background()

	grant, err := svc.Authenticate(ctx, identity.Credentials{Email: u.Email, Password: "pw"})
	require.NoError(t, err)

	repo.users[5].Role = identity.RoleBranchAdmin
	p, err := svc.Validate(ctx, grant.Token)
	require.NoError(t, err)
	assert.Equal(t, identity.RoleBranchAdmin, p.Role)
}

func TestValidateRejectsForeignTokens(t *testing.T) {
	svc, _ := newTestService(t)
	other := identity.NewTokenManager("another-secret", time.Hour)
	token, _, err := other.Generate(identity.Principal{ID: "1", Role: identity.RoleSuperAdmin})
	require.NoError(t, err)

	_, err = svc.Validate(context.Background(), token)
	assert.ErrorIs(t, err, identity.ErrInvalidToken)
}

func TestValidateStoreFailureIsNetworkError(t *testing.T) {
	svc, repo := newTestService(t)
	repo.add(t, User{ID: 9, Email: "f@g.test", Role: identity.RoleBranchUser, IsActive: true}, "pw")
	grant, err := svc.Authenticate(context.Background(), identity.Credentials{Email: "f@g.test", Password: "pw"})
	require.NoError(t, err)

	repo.failWith = errors.New("timeout")
	_, err = svc.Validate(context.Background(), grant.Token)
	assert.True(t, identity.IsAuthKind(err, identity.AuthNetworkError))
}

func TestAcceptContract(t *testing.T) {
	svc, repo := newTestService(t)
	repo.add(t, User{ID: 11, Email: "h@i.test", Role: identity.RoleBranchUser, IsActive: true}, "pw")
	ctx := context.Background()
	grant, err := svc.Authenticate(ctx, identity.Credentials{Email: "h@i.test", Password: "pw"})
	require.NoError(t, err)

	p, err := svc.AcceptContract(ctx, grant.Token)
	require.NoError(t, err)
	assert.True(t, p.ContractAccepted)

	again, err := svc.Validate(ctx, grant.Token)
	require.NoError(t, err)
	assert.True(t, again.ContractAccepted)
}

func TestPurgeExpired(t *testing.T) {
	svc, repo := newTestService(t)
	now := time.Now()
	svc.now = func() time.Time { return now }
	repo.sessions["old"] = LoginSession{ID: "old", ExpiresAt: now.Add(-time.Minute)}
	repo.sessions["new"] = LoginSession{ID: "new", ExpiresAt: now.Add(time.Minute)}

	n, err := svc.PurgeExpired(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Contains(t, repo.sessions, "new")
}

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("portal-pass")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("portal-pass")))
}
