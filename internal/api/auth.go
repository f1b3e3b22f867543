package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/quillhq/expenseflow/internal/auth"
	"github.com/quillhq/expenseflow/internal/models"
	"github.com/quillhq/expenseflow/internal/store"
)

// AuthHandler handles registration and login.
type AuthHandler struct {
	store       store.Store
	credentials auth.CredentialStore
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(s store.Store, credentials auth.CredentialStore) *AuthHandler {
	return &AuthHandler{store: s, credentials: credentials}
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email      string      `json:"email"`
	Name       string      `json:"name"`
	Department string      `json:"department,omitempty"`
	Role       models.Role `json:"role,omitempty"`
}

// sessionResponse is returned by register and login.
type sessionResponse struct {
	AccessToken string       `json:"access_token"`
	User        *models.User `json:"user"`
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "A valid email is required")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Name is required")
		return
	}
	if req.Role == "" {
		req.Role = models.RoleEmployee
	}
	if !req.Role.Valid() {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Unknown role")
		return
	}

	user, err := h.store.CreateUser(r.Context(), &models.User{
		Email:      req.Email,
		Name:       req.Name,
		Department: req.Department,
		Role:       req.Role,
		Active:     true,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	token, err := h.credentials.Issue(user.ID, user.Email)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to issue token")
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{AccessToken: token, User: user})
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email string `json:"email"`
}

// Login handles POST /auth/login. Login is by email only; there is no
// password.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body")
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !user.Active {
		writeJSONError(w, http.StatusForbidden, "inactive_user", "User account is inactive")
		return
	}

	token, err := h.credentials.Issue(user.ID, user.Email)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to issue token")
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{AccessToken: token, User: user})
}

// Logout handles POST /auth/logout, revoking the presented token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		_ = h.credentials.Revoke(parts[1])
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/1/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": currentUser(r)})
}

// ListUsers handles GET /api/1/users (admin only).
func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to list users")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}
