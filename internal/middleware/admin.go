package middleware

import (
	"net/http"

	"github.com/dukerupert/macrolog/internal/auth"
)

// RequireAdmin allows only the listed user ids through. It must run after
// RequireUser. An empty list rejects everyone.
func RequireAdmin(userIDs []string) func(http.Handler) http.Handler {
	admins := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		admins[id] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := admins[auth.UserID(r.Context())]; !ok {
				writeJSONError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
