package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/quillhq/expenseflow/internal/auth"
	"github.com/quillhq/expenseflow/internal/models"
	"github.com/quillhq/expenseflow/internal/store"
)

type contextKey string

const contextKeyUser contextKey = "user"

// AuthMiddleware resolves the bearer credential and loads the current user
// into the request context.
func AuthMiddleware(credentials auth.CredentialStore, s store.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing Authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid Authorization header format")
				return
			}

			cred, err := credentials.Resolve(parts[1])
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or revoked token")
				return
			}

			user, err := s.GetUser(r.Context(), cred.UserID)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Unknown user")
				return
			}

			ctx := context.WithValue(r.Context(), contextKeyUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// currentUser returns the authenticated user from the request context.
func currentUser(r *http.Request) *models.User {
	user, _ := r.Context().Value(contextKeyUser).(*models.User)
	return user
}

// RequireAdmin rejects requests whose user is not an admin.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		if user == nil || user.Role != models.RoleAdmin {
			writeJSONError(w, http.StatusForbidden, "insufficient_permission", "Admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
