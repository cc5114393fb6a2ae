// Package guard decides whether the current principal may render a route.
package guard

import (
	"github.com/roadassist/portal/internal/identity"
	"github.com/roadassist/portal/internal/routes"
)

// Outcome is the result of a guard evaluation.
type Outcome int

const (
	Allowed Outcome = iota
	DeniedNoSession
	DeniedRoleMismatch
	DeniedContractPending
	Unresolved
)

func (o Outcome) String() string {
	switch o {
	case Allowed:
		return "allowed"
	case DeniedNoSession:
		return "no_session"
	case DeniedRoleMismatch:
		return "role_mismatch"
	case DeniedContractPending:
		return "contract_pending"
	case Unresolved:
		return "unresolved"
	default:
		return "unknown"
	}
}

// Denied reports whether o is one of the denial outcomes.
func (o Outcome) Denied() bool {
	return o == DeniedNoSession || o == DeniedRoleMismatch || o == DeniedContractPending
}

// Decision is an Outcome plus, for denials, the redirect target.
type Decision struct {
	Outcome  Outcome
	Redirect string
}

// LandingPath is the default dashboard root for role.
func LandingPath(role identity.Role) string {
	if role == identity.RoleSupport {
		return routes.PathSupport
	}
	return routes.PathDashboard
}

// Evaluate applies the guard rules in order. It performs no I/O and does not
// modify its arguments.
func Evaluate(d routes.Descriptor, res identity.Resolution, skipContractCheck bool) Decision {
	if d.Public {
		return Decision{Outcome: Allowed}
	}
	if res.State == identity.StateUnresolved {
		return Decision{Outcome: Unresolved}
	}
	p, ok := res.Current()
	if !ok {
		return Decision{Outcome: DeniedNoSession, Redirect: routes.PathLogin}
	}
	if !d.Roles.Empty() && !d.Roles.Has(p.Role) {
		return Decision{Outcome: DeniedRoleMismatch, Redirect: LandingPath(p.Role)}
	}
	if d.RequiresContract && !p.ContractAccepted && !skipContractCheck {
		return Decision{Outcome: DeniedContractPending, Redirect: routes.PathContract}
	}
	return Decision{Outcome: Allowed}
}
