package auth

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFileStore(t *testing.T) *EncryptedFileStore {
	t.Helper()
	t.Setenv("VKSCRAPER_VAULT_KEY", "test-vault-key")

	store, err := NewEncryptedFileStore(filepath.Join(t.TempDir(), "tokens.enc"))
	require.NoError(t, err)
	return store
}

func TestEncryptedFileStoreRoundTrip(t *testing.T) {
	store := newTestFileStore(t)

	err := store.Store(&Account{Name: "main", AccessToken: "vk1.a.secret-token-value"})
	require.NoError(t, err)

	account, err := store.Retrieve("main")
	require.NoError(t, err)
	assert.Equal(t, "main", account.Name)
	assert.Equal(t, "vk1.a.secret-token-value", account.AccessToken)
}

func TestEncryptedFileStoreNotFound(t *testing.T) {
	store := newTestFileStore(t)

	_, err := store.Retrieve("nobody")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestEncryptedFileStoreDelete(t *testing.T) {
	store := newTestFileStore(t)

	require.NoError(t, store.Store(&Account{Name: "main", AccessToken: "tok"}))
	require.NoError(t, store.Delete("main"))

	_, err := store.Retrieve("main")
	assert.ErrorIs(t, err, ErrTokenNotFound)

	assert.ErrorIs(t, store.Delete("main"), ErrTokenNotFound)
}

func TestEncryptedFileStoreList(t *testing.T) {
	store := newTestFileStore(t)

	require.NoError(t, store.Store(&Account{Name: "first", AccessToken: "tok1"}))
	require.NoError(t, store.Store(&Account{Name: "second", AccessToken: "tok2"}))

	accounts, err := store.List()
	require.NoError(t, err)
	assert.Len(t, accounts, 2)
}

func TestEncryptedFileStoreRejectsEmptyName(t *testing.T) {
	store := newTestFileStore(t)

	assert.ErrorIs(t, store.Store(&Account{AccessToken: "tok"}), ErrInvalidToken)
	_, err := store.Retrieve("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestEnvironmentStore(t *testing.T) {
	t.Setenv("VKSCRAPER_ACCESS_TOKEN", "env-token")

	store := NewEnvironmentStore()

	account, err := store.Retrieve("")
	require.NoError(t, err)
	assert.Equal(t, "default", account.Name)
	assert.Equal(t, "env-token", account.AccessToken)

	accounts, err := store.List()
	require.NoError(t, err)
	assert.Len(t, accounts, 1)

	assert.ErrorIs(t, store.Store(&Account{Name: "x", AccessToken: "y"}), ErrStoreUnavailable)
	assert.ErrorIs(t, store.Delete("x"), ErrStoreUnavailable)
}

func TestEnvironmentStoreMissingToken(t *testing.T) {
	t.Setenv("VKSCRAPER_ACCESS_TOKEN", "")

	store := NewEnvironmentStore()
	_, err := store.Retrieve("")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestManagerFallback(t *testing.T) {
	t.Setenv("VKSCRAPER_ACCESS_TOKEN", "")

	fileStore := newTestFileStore(t)
	manager := &Manager{stores: []TokenStore{fileStore, NewEnvironmentStore()}}

	require.NoError(t, manager.Store(&Account{Name: "main", AccessToken: "stored-token"}))

	account, err := manager.Retrieve("main")
	require.NoError(t, err)
	assert.Equal(t, "stored-token", account.AccessToken)

	account, err = manager.RetrieveDefault()
	require.NoError(t, err)
	assert.Equal(t, "main", account.Name)
}

func TestManagerPrefersEnvironmentForDefault(t *testing.T) {
	t.Setenv("VKSCRAPER_ACCESS_TOKEN", "env-token")

	fileStore := newTestFileStore(t)
	manager := &Manager{stores: []TokenStore{fileStore, NewEnvironmentStore()}}

	account, err := manager.RetrieveDefault()
	require.NoError(t, err)
	assert.Equal(t, "env-token", account.AccessToken)
}

func TestManagerValidation(t *testing.T) {
	manager := &Manager{stores: []TokenStore{NewEnvironmentStore()}}

	assert.Error(t, manager.Store(nil))
	assert.Error(t, manager.Store(&Account{Name: "x"}))
	assert.Error(t, manager.Store(&Account{AccessToken: "y"}))
}

func TestSanitize(t *testing.T) {
	account := &Account{Name: "main", AccessToken: "vk1.a.0123456789abcdef"}

	masked := Sanitize(account)
	assert.Equal(t, "main", masked.Name)
	assert.Equal(t, "vk1....cdef", masked.AccessToken)

	short := Sanitize(&Account{Name: "s", AccessToken: "tiny"})
	assert.Equal(t, "********", short.AccessToken)

	assert.Nil(t, Sanitize(nil))
}
