package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/roadassist/portal/internal/identity"
	"github.com/roadassist/portal/internal/platform/db"
	"github.com/roadassist/portal/internal/shared"
)

// Repository defines persistence operations for the user directory.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	AcceptContract(ctx context.Context, id int64, at time.Time) (*User, error)
	CreateSession(ctx context.Context, session LoginSession) error
	FindSession(ctx context.Context, id string) (*LoginSession, error)
	DeleteSession(ctx context.Context, id string) error
	PurgeExpiredSessions(ctx context.Context, before time.Time) (int64, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `id, email, password_hash, name, surname, role, agency_id, branch_id,
	is_active, contract_accepted_at, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var (
		u    User
		role string
	)
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Surname, &role, &u.AgencyID, &u.BranchID,
		&u.IsActive, &u.ContractAcceptedAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	u.Role = identity.Role(role)
	return &u, nil
}

// FindByEmail fetches a user by email, case-insensitively.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM directory_users WHERE lower(email) = $1`,
		strings.ToLower(strings.TrimSpace(email)))
	return scanUser(row)
}

// FindByID fetches a user by primary key.
func (r *PGRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM directory_users WHERE id = $1`, id)
	return scanUser(row)
}

// AcceptContract stamps the acceptance time once and returns the updated user.
func (r *PGRepository) AcceptContract(ctx context.Context, id int64, at time.Time) (*User, error) {
	var user *User
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE directory_users
			    SET contract_accepted_at = COALESCE(contract_accepted_at, $2), updated_at = $2
			  WHERE id = $1`, id, at.UTC())
		if err != nil {
			return fmt.Errorf("directory: accept contract: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		user, err = scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM directory_users WHERE id = $1`, id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CreateSession persists a new login session for auditing.
func (r *PGRepository) CreateSession(ctx context.Context, s LoginSession) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO directory_sessions (id, user_id, created_at, expires_at, ip, user_agent)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''))`,
		s.ID, s.UserID, s.CreatedAt.UTC(), s.ExpiresAt.UTC(), s.IP, s.UserAgent)
	if err != nil {
		return fmt.Errorf("directory: create session: %w", err)
	}
	return nil
}

// FindSession fetches a login session by token id.
func (r *PGRepository) FindSession(ctx context.Context, id string) (*LoginSession, error) {
	var (
		s      LoginSession
		ip, ua *string
	)
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, created_at, expires_at, ip, user_agent FROM directory_sessions WHERE id = $1`, id,
	).Scan(&s.ID, &s.UserID, &s.CreatedAt, &s.ExpiresAt, &ip, &ua)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if ip != nil {
		s.IP = *ip
	}
	if ua != nil {
		s.UserAgent = *ua
	}
	return &s, nil
}

// DeleteSession removes a session record. Deleting a missing record is not an error.
func (r *PGRepository) DeleteSession(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM directory_sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("directory: delete session: %w", err)
	}
	return nil
}

// PurgeExpiredSessions deletes sessions that expired before the cutoff.
func (r *PGRepository) PurgeExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM directory_sessions WHERE expires_at < $1`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("directory: purge sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

var _ Repository = (*PGRepository)(nil)
