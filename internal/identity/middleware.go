package identity

import (
	"net/http"

	"github.com/roadassist/portal/internal/shared"
)

// Middleware resolves the request principal once and stores the Resolution
// in the request context. It must run after the session middleware.
func (s *Store) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		res := s.Resolve(r.Context(), sess)
		next.ServeHTTP(w, r.WithContext(ContextWithResolution(r.Context(), res)))
	})
}
