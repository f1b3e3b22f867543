package auth

import (
	"encoding/json"
	"errors"
	"fmt"

	bolt "go.etcd.io/bbolt"
)

const bucketCredentials = "credentials"

// BoltCredentialStore persists credentials in a bbolt file so sessions
// survive a restart.
type BoltCredentialStore struct {
	db *bolt.DB
}

// OpenBoltCredentialStore opens (or creates) the credential database.
func OpenBoltCredentialStore(dbPath string) (*BoltCredentialStore, error) {
	db, err := bolt.Open(dbPath, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open credential database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketCredentials))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create credentials bucket: %w", err)
	}

	return &BoltCredentialStore{db: db}, nil
}

// Close closes the database.
func (s *BoltCredentialStore) Close() error {
	return s.db.Close()
}

// Issue generates and stores a new token for the user.
func (s *BoltCredentialStore) Issue(userID int64, email string) (string, error) {
	token, err := generateRandomToken(tokenLength)
	if err != nil {
		return "", err
	}

	cred := Credential{UserID: userID, Email: email}
	data, err := json.Marshal(cred)
	if err != nil {
		return "", fmt.Errorf("failed to marshal credential: %w", err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketCredentials)).Put([]byte(token), data)
	})
	if err != nil {
		return "", fmt.Errorf("failed to store credential: %w", err)
	}

	return token, nil
}

// Resolve returns the credential behind a token.
func (s *BoltCredentialStore) Resolve(token string) (*Credential, error) {
	var cred Credential
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(bucketCredentials)).Get([]byte(token))
		if data == nil {
			return ErrInvalidToken
		}
		return json.Unmarshal(data, &cred)
	})
	if errors.Is(err, ErrInvalidToken) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve credential: %w", err)
	}
	return &cred, nil
}

// Revoke deletes a token. Revoking an unknown token is a no-op.
func (s *BoltCredentialStore) Revoke(token string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketCredentials)).Delete([]byte(token))
	})
}
