package middleware

import (
	"context"
	"net/http"
	"strings"
)

type userIDKeyType struct{}

var userIDKey = userIDKeyType{}

// TokenValidator is the slice of the token service the middleware needs.
type TokenValidator interface {
	ValidateToken(token string) (string, error)
}

// UserID returns the authenticated user identity injected by Auth.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}

// Auth validates the bearer token and injects its subject into the request
// context. Websocket clients that cannot set headers may pass the token as a
// "token" query parameter instead.
func Auth(tokens TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := ""
			if h := r.Header.Get("Authorization"); h != "" {
				parts := strings.Split(h, " ")
				if len(parts) != 2 || parts[0] != "Bearer" {
					http.Error(w, "invalid authorization format", http.StatusUnauthorized)
					return
				}
				raw = parts[1]
			} else {
				raw = r.URL.Query().Get("token")
			}
			if raw == "" {
				http.Error(w, "authorization required", http.StatusUnauthorized)
				return
			}
			sub, err := tokens.ValidateToken(raw)
			if err != nil {
				http.Error(w, "unauthorized: "+err.Error(), http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), userIDKey, sub)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
