package identity

// State is the outcome of resolving the principal for a request.
type State int

const (
	// StateUnresolved means the session token could not be validated yet,
	// typically because the authenticator was unreachable.
	StateUnresolved State = iota
	// StateAnonymous means no valid principal is bound to the session.
	StateAnonymous
	// StateAuthenticated means Principal is valid for this request.
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateUnresolved:
		return "unresolved"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Resolution describes the identity of the current request.
type Resolution struct {
	State     State
	Principal Principal
}

// Anonymous is the resolution of a request without a principal.
func Anonymous() Resolution {
	return Resolution{State: StateAnonymous}
}

// Unresolved is the resolution of a request whose session could not be checked.
func Unresolved() Resolution {
	return Resolution{State: StateUnresolved}
}

// Authenticated wraps p in a resolved Resolution.
func Authenticated(p Principal) Resolution {
	return Resolution{State: StateAuthenticated, Principal: p}
}

// Current returns the principal and whether one is present.
func (r Resolution) Current() (Principal, bool) {
	if r.State != StateAuthenticated {
		return Principal{}, false
	}
	return r.Principal, true
}
