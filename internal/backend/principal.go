package backend

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roadassist/portal/internal/identity"
)

// principalPayload mirrors the backend user object. Ids arrive as numbers or
// strings depending on the backend version.
type principalPayload struct {
	ID               json.RawMessage `json:"id"`
	Name             string          `json:"name"`
	Surname          string          `json:"surname"`
	Email            string          `json:"email"`
	Role             string          `json:"role"`
	AgencyID         *int64          `json:"agency_id"`
	BranchID         *int64          `json:"branch_id"`
	ContractAccepted bool            `json:"contract_accepted"`
}

func (p principalPayload) principal() (identity.Principal, error) {
	id := strings.Trim(strings.TrimSpace(string(p.ID)), `"`)
	if id == "" || id == "null" {
		return identity.Principal{}, fmt.Errorf("backend: principal without id")
	}
	role, err := identity.ParseRole(p.Role)
	if err != nil {
		return identity.Principal{}, fmt.Errorf("backend: %w", err)
	}
	return identity.Principal{
		ID:               id,
		Name:             p.Name,
		Surname:          p.Surname,
		Email:            p.Email,
		Role:             role,
		AgencyID:         p.AgencyID,
		BranchID:         p.BranchID,
		ContractAccepted: p.ContractAccepted,
	}, nil
}
