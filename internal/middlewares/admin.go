package middlewares

import (
	"net/http"
)

// AdminOnly answers 403 unless isAdmin reports that the bound session is an administrator
//
// The admin flag is only a client-side gate; a remote backend checks admin_id on its own.
func AdminOnly(isAdmin func() bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isAdmin() {
				http.Error(w, "Admin access required.", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
