package middleware

import (
	"crypto/subtle"
	"net/http"
)

// BasicAuth guards the admin surface. With an empty user every request is refused, so an
// unconfigured admin account never opens the pages.
func BasicAuth(user, pass string) func(http.Handler) http.Handler {
	realm := `Basic realm="guest-portal"`
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, p, ok := r.BasicAuth()
			if !ok || user == "" ||
				subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 ||
				subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
				w.Header().Set("WWW-Authenticate", realm)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
