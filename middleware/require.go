package middleware

import (
	"net/http"

	"github.com/cartsmith/authkit"
)

// RequireSession returns middleware for API routes. Anonymous requests get a
// plain 401; authenticated ones proceed with the session in the request
// context.
func RequireSession(client *authkit.Client) func(http.Handler) http.Handler {
	return guard(client, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "authentication required", http.StatusUnauthorized)
	}))
}
