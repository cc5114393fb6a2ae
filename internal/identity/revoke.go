package identity

import "github.com/roadassist/portal/internal/shared"

// RevokeSignedOutSessions subscribes sessions to hub so every logout or
// expiry, local or relayed from another instance, revokes the session id.
// The returned function removes the subscription.
func RevokeSignedOutSessions(hub *Hub, sessions *shared.SessionManager) func() {
	return hub.Subscribe(func(ev Event) {
		switch ev.Kind {
		case EventLogout, EventExpired:
			sessions.Revoke(ev.SessionID)
		}
	})
}
