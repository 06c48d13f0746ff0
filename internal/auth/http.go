// ABOUTME: HTTP middleware for JWT authentication on dashboard endpoints
// ABOUTME: Extracts JWT from Authorization header and adds the user to context

package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/faqmy/faqmy-server/internal/store"
)

// UserStore looks up users for middleware authentication.
type UserStore interface {
	GetUser(ctx context.Context, id string) (*store.User, error)
}

// extractBearerToken extracts a bearer token from the Authorization header.
// Returns the token and an error message (empty if successful).
func extractBearerToken(authHeader string) (string, string) {
	if authHeader == "" {
		return "", "missing authorization header"
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", "invalid authorization header format"
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return "", "empty token"
	}
	return token, ""
}

// denyRequest writes an error response in the API's {"detail": ...}
// shape.
func denyRequest(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}

// HTTPAuthMiddleware creates an HTTP middleware that extracts and validates JWT tokens.
// It looks up the user and adds AuthContext to the request context using the
// WithAuth/FromContext pattern. Inactive users are rejected.
func HTTPAuthMiddleware(users UserStore, verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, errMsg := extractBearerToken(r.Header.Get("Authorization"))
			if errMsg != "" {
				denyRequest(w, http.StatusUnauthorized, errMsg)
				return
			}

			userID, err := verifier.Verify(token)
			if err != nil {
				denyRequest(w, http.StatusUnauthorized, "invalid token")
				return
			}

			user, err := users.GetUser(r.Context(), userID)
			if err != nil {
				denyRequest(w, http.StatusUnauthorized, "user not found")
				return
			}

			if !user.IsActive {
				denyRequest(w, http.StatusForbidden, "user is inactive")
				return
			}

			authCtx := &AuthContext{UserID: user.ID, IsSuperuser: user.IsSuperuser}
			next.ServeHTTP(w, r.WithContext(WithAuth(r.Context(), authCtx)))
		})
	}
}
