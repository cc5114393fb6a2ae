package identity

import "strings"

// Principal is the authenticated identity governing authorization decisions
// for one session. The role never changes for the lifetime of a session.
type Principal struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Surname          string `json:"surname"`
	Email            string `json:"email"`
	Role             Role   `json:"role"`
	AgencyID         *int64 `json:"agency_id,omitempty"`
	BranchID         *int64 `json:"branch_id,omitempty"`
	ContractAccepted bool   `json:"contract_accepted"`
}

// FullName joins name and surname.
func (p Principal) FullName() string {
	return strings.TrimSpace(p.Name + " " + p.Surname)
}

// Initials returns up to two upper-case initials for avatar badges.
func (p Principal) Initials() string {
	var b strings.Builder
	for _, part := range []string{p.Name, p.Surname} {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(string([]rune(part)[0])))
	}
	return b.String()
}

// Equal compares principals field by field, including scope ids.
func (p Principal) Equal(o Principal) bool {
	return p.ID == o.ID &&
		p.Name == o.Name &&
		p.Surname == o.Surname &&
		p.Email == o.Email &&
		p.Role == o.Role &&
		p.ContractAccepted == o.ContractAccepted &&
		equalID(p.AgencyID, o.AgencyID) &&
		equalID(p.BranchID, o.BranchID)
}

func equalID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Credentials carries login form input.
type Credentials struct {
	Email    string
	Password string
}

// Grant is the result of a successful authentication.
type Grant struct {
	Token     string
	Principal Principal
}
