package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Account holds a named VK access token.
type Account struct {
	Name         string    `json:"name"`
	AccessToken  string    `json:"access_token"`
	LastModified time.Time `json:"last_modified"`
}

// TokenStore is the interface for storing and retrieving access tokens.
type TokenStore interface {
	// Store saves the token for a given account.
	Store(account *Account) error

	// Retrieve gets the token for a specific account name.
	Retrieve(name string) (*Account, error)

	// List returns all stored accounts.
	List() ([]*Account, error)

	// Delete removes the token for a specific account name.
	Delete(name string) error
}

// Errors
var (
	ErrTokenNotFound    = errors.New("access token not found")
	ErrInvalidToken     = errors.New("invalid token entry")
	ErrStoreUnavailable = errors.New("token store unavailable")
)

// Manager handles token storage with fallback mechanisms: system keychain
// first, encrypted file next, environment variables last.
type Manager struct {
	stores []TokenStore
}

// NewManager creates a token manager with the available storage backends.
func NewManager() (*Manager, error) {
	var stores []TokenStore

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "tokens.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// Store saves the token using the first store that accepts it.
func (m *Manager) Store(account *Account) error {
	if account == nil || account.Name == "" {
		return errors.New("account name is required")
	}
	if account.AccessToken == "" {
		return errors.New("access token is required")
	}

	account.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		if err := store.Store(account); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store token: %w", lastErr)
	}
	return errors.New("no available token stores")
}

// Retrieve gets the token from the first store that has it.
func (m *Manager) Retrieve(name string) (*Account, error) {
	for _, store := range m.stores {
		if account, err := store.Retrieve(name); err == nil && account != nil {
			return account, nil
		}
	}
	return nil, fmt.Errorf("%w for account %q", ErrTokenNotFound, name)
}

// RetrieveDefault gets the token for the first available account, preferring
// the environment for backward compatibility with VKSCRAPER_ACCESS_TOKEN.
func (m *Manager) RetrieveDefault() (*Account, error) {
	if envStore, ok := m.stores[len(m.stores)-1].(*EnvironmentStore); ok {
		if account, err := envStore.Retrieve(""); err == nil && account != nil {
			return account, nil
		}
	}

	accounts, err := m.List()
	if err == nil && len(accounts) > 0 {
		return accounts[0], nil
	}

	return nil, ErrTokenNotFound
}

// List returns all stored accounts across all stores, most recently modified
// version winning on name collisions.
func (m *Manager) List() ([]*Account, error) {
	byName := make(map[string]*Account)

	for _, store := range m.stores {
		accounts, err := store.List()
		if err != nil {
			continue
		}
		for _, account := range accounts {
			if existing, ok := byName[account.Name]; !ok || account.LastModified.After(existing.LastModified) {
				byName[account.Name] = account
			}
		}
	}

	var result []*Account
	for _, account := range byName {
		result = append(result, account)
	}
	return result, nil
}

// Delete removes the token from all stores that hold it.
func (m *Manager) Delete(name string) error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(name); err == nil {
			deleted = true
		} else {
			lastErr = err
		}
	}

	if !deleted {
		if lastErr != nil {
			return fmt.Errorf("failed to delete token: %w", lastErr)
		}
		return fmt.Errorf("%w for account %q", ErrTokenNotFound, name)
	}
	return nil
}

// getConfigDir returns the configuration directory path, creating it if
// necessary.
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "vkscraper")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "vkscraper")
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "vkscraper")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "vkscraper")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// Sanitize returns a copy of the account with the token masked for display.
func Sanitize(account *Account) *Account {
	if account == nil {
		return nil
	}
	return &Account{
		Name:         account.Name,
		AccessToken:  maskToken(account.AccessToken),
		LastModified: account.LastModified,
	}
}

func maskToken(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
