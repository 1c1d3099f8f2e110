package auth

import (
	"os"
	"time"
)

// EnvironmentStore implements TokenStore using the VKSCRAPER_ACCESS_TOKEN
// environment variable. It is read-only and mainly exists for backward
// compatibility and CI use.
type EnvironmentStore struct{}

// NewEnvironmentStore creates an environment-based token store.
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables.
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve gets the token from the environment. The environment carries no
// account name, so any requested name matches.
func (e *EnvironmentStore) Retrieve(name string) (*Account, error) {
	token := os.Getenv("VKSCRAPER_ACCESS_TOKEN")
	if token == "" {
		return nil, ErrTokenNotFound
	}

	if name == "" {
		name = "default"
	}

	return &Account{
		Name:         name,
		AccessToken:  token,
		LastModified: time.Now(),
	}, nil
}

// List returns a single account if the environment token is set.
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables.
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}
