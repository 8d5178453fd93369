package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/sakif/learnloop/internal/model"
)

// SessionCookie is the cookie the session token travels in. The token may
// also arrive as "Authorization: Bearer <token>"; the cookie wins when both
// are present.
const SessionCookie = "session_token"

// contextKey is unexported so only this package can read or write the
// resolved user in a request context.
type contextKey string

const userKey contextKey = "user"

// RequireAuth gates a route: requests without a resolvable session get 401
// and never reach the handler. The resolved *model.User is stored in the
// request context for UserFromContext.
func RequireAuth(sessions *SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := sessions.Resolve(r.Context(), TokenFromRequest(r))
			if err != nil || user == nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthenticated","message":"authentication required"}`))
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth resolves the session if one is present but never blocks the
// request. Anonymous requests pass through with no user in context.
func OptionalAuth(sessions *SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user, err := sessions.Resolve(r.Context(), TokenFromRequest(r)); err == nil && user != nil {
				r = r.WithContext(context.WithValue(r.Context(), userKey, user))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserFromContext returns the authenticated user, or (nil, false) for an
// anonymous request.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok && user != nil
}

// TokenFromRequest extracts the bearer token: session cookie first, then the
// Authorization header. Returns "" when neither carries one.
func TokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
