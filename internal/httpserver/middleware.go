// internal/httpserver/middleware.go
//
// Identity middleware for the game API.

package httpserver

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordscramble/internal/auth"
)

// withIdentity resolves the caller and stores it in the request context.
// A presented but invalid credential is always rejected; a missing one is
// rejected only when required.
func (s *Server) withIdentity(required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := s.deps.Resolver.Resolve(r)
			switch {
			case errors.Is(err, auth.ErrNoIdentity):
				if required {
					http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
					return
				}
			case err != nil:
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("reject credentials")
				http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
				return
			default:
				r = r.WithContext(auth.WithIdentity(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// currentUser returns the identity set by withIdentity.
func currentUser(r *http.Request) (auth.Identity, bool) {
	return auth.FromContext(r.Context())
}
