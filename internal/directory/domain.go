package directory

import (
	"strconv"
	"time"

	"github.com/roadassist/portal/internal/identity"
)

// User represents a portal account held in the local directory.
type User struct {
	ID                 int64
	Email              string
	PasswordHash       string
	Name               string
	Surname            string
	Role               identity.Role
	AgencyID           *int64
	BranchID           *int64
	IsActive           bool
	ContractAcceptedAt *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Principal projects the user into the identity used for authorization.
func (u *User) Principal() identity.Principal {
	return identity.Principal{
		ID:               strconv.FormatInt(u.ID, 10),
		Name:             u.Name,
		Surname:          u.Surname,
		Email:            u.Email,
		Role:             u.Role,
		AgencyID:         u.AgencyID,
		BranchID:         u.BranchID,
		ContractAccepted: u.ContractAcceptedAt != nil,
	}
}

// LoginSession is the audit record of one issued token.
type LoginSession struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
	IP        string
	UserAgent string
}

// Expired reports whether the session is past its expiry at now.
func (s *LoginSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
