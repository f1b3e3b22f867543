// Package auth manages opaque bearer credentials for API access.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"sync"
)

const tokenLength = 32

// ErrInvalidToken is returned when a credential cannot be resolved.
var ErrInvalidToken = errors.New("invalid or revoked token")

// Credential is the identity a token resolves to.
type Credential struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
}

// CredentialStore issues and resolves opaque bearer tokens. Tokens have no
// expiry.
type CredentialStore interface {
	Issue(userID int64, email string) (string, error)
	Resolve(token string) (*Credential, error)
	Revoke(token string) error
}

// MemoryCredentialStore holds credentials in process memory; they are lost
// on restart.
type MemoryCredentialStore struct {
	mu     sync.RWMutex
	tokens map[string]Credential
}

// NewMemoryCredentialStore creates an empty in-memory credential store.
func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{tokens: make(map[string]Credential)}
}

// Issue generates and stores a new token for the user.
func (s *MemoryCredentialStore) Issue(userID int64, email string) (string, error) {
	token, err := generateRandomToken(tokenLength)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = Credential{UserID: userID, Email: email}
	return token, nil
}

// Resolve returns the credential behind a token.
func (s *MemoryCredentialStore) Resolve(token string) (*Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cred, ok := s.tokens[token]
	if !ok {
		return nil, ErrInvalidToken
	}
	out := cred
	return &out, nil
}

// Revoke deletes a token. Revoking an unknown token is a no-op.
func (s *MemoryCredentialStore) Revoke(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
	return nil
}

// generateRandomToken generates a random URL-safe token string.
func generateRandomToken(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
