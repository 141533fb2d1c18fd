package middleware

import (
	"net/http"
	"net/url"

	"github.com/cartsmith/authkit"
)

// RedirectAnonymous returns middleware for server-rendered pages. Anonymous
// requests bounce to signInPath carrying the original URI in return_to;
// authenticated ones proceed with the session in the request context.
func RedirectAnonymous(client *authkit.Client, signInPath string) func(http.Handler) http.Handler {
	return guard(client, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		target := signInPath + "?return_to=" + url.QueryEscape(r.URL.RequestURI())
		http.Redirect(w, r, target, http.StatusSeeOther)
	}))
}
