package middlewares

import (
	"html/template"
	"net/http"

	"github.com/gorilla/csrf"
)

// CSRFKeySize is the required length of the CSRF authentication key
const CSRFKeySize = 32

// CSRF protects form posts with a token bound to a cookie
//
// The front end is served over plain HTTP on a loopback address, so requests without TLS are
// marked as plaintext and the cookie is not marked Secure.
func CSRF(authKey []byte, trustedOrigins []string) func(http.Handler) http.Handler {
	protect := csrf.Protect(
		authKey,
		csrf.Secure(false),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteStrictMode),
		csrf.TrustedOrigins(trustedOrigins),
	)

	return func(next http.Handler) http.Handler {
		protected := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.TLS == nil {
				r = csrf.PlaintextHTTPRequest(r)
			}
			protected.ServeHTTP(w, r)
		})
	}
}

// CSRFField returns the hidden token input for forms rendered in response to r
func CSRFField(r *http.Request) template.HTML {
	return csrf.TemplateField(r)
}
