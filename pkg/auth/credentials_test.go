package auth

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerStoreAndRetrieve(t *testing.T) {
	manager, mock := NewMockManager()

	err := manager.Store(&Credential{
		Platform: "youtube",
		Token:    "api-key-123",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, mock.Count())

	cred, err := manager.Retrieve("youtube")
	require.NoError(t, err)
	assert.Equal(t, "api-key-123", cred.Token)
	assert.False(t, cred.LastModified.IsZero())
}

func TestManagerStoreValidation(t *testing.T) {
	manager, _ := NewMockManager()

	err := manager.Store(&Credential{Token: "no-platform"})
	assert.Error(t, err)

	err = manager.Store(&Credential{Platform: "x"})
	assert.Error(t, err)
}

func TestManagerStoreFallsBack(t *testing.T) {
	broken := NewMockStore()
	broken.StoreError = errors.New("keyring locked")
	working := NewMockStore()
	manager := NewManagerWithStores(broken, working)

	err := manager.Store(&Credential{Platform: "x", Token: "bearer"})
	require.NoError(t, err)
	assert.Equal(t, 0, broken.Count())
	assert.Equal(t, 1, working.Count())
}

func TestManagerRetrieveMissing(t *testing.T) {
	manager, _ := NewMockManager()
	_, err := manager.Retrieve("instagram")
	assert.Error(t, err)
}

func TestManagerDelete(t *testing.T) {
	manager, mock := NewMockManager()
	require.NoError(t, manager.Store(&Credential{Platform: "tiktok", Token: "t"}))

	require.NoError(t, manager.Delete("tiktok"))
	assert.Equal(t, 0, mock.Count())

	assert.Error(t, manager.Delete("tiktok"))
}

func TestManagerExists(t *testing.T) {
	manager, _ := NewMockManager()
	assert.False(t, manager.Exists("x"))

	require.NoError(t, manager.Store(&Credential{Platform: "x", Token: "bearer"}))
	assert.True(t, manager.Exists("x"))
}

func TestEnvironmentStoreRetrieve(t *testing.T) {
	os.Setenv("SOCIALHARVEST_X_BEARER_TOKEN", "env-bearer")
	os.Setenv("SOCIALHARVEST_IG_BUSINESS_ID", "178414")
	os.Setenv("fb_token", "legacy-fb")
	defer func() {
		os.Unsetenv("SOCIALHARVEST_X_BEARER_TOKEN")
		os.Unsetenv("SOCIALHARVEST_IG_BUSINESS_ID")
		os.Unsetenv("fb_token")
	}()

	store := NewEnvironmentStore()

	cred, err := store.Retrieve("x")
	require.NoError(t, err)
	assert.Equal(t, "env-bearer", cred.Token)

	cred, err = store.Retrieve("instagram")
	require.NoError(t, err)
	assert.Equal(t, "legacy-fb", cred.Token)
	assert.Equal(t, "178414", cred.Extra["business_id"])

	_, err = store.Retrieve("youtube")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
}

func TestEnvironmentStoreReadOnly(t *testing.T) {
	store := NewEnvironmentStore()
	assert.ErrorIs(t, store.Store(&Credential{Platform: "x", Token: "t"}), ErrStoreUnavailable)
	assert.ErrorIs(t, store.Delete("x"), ErrStoreUnavailable)
}

func TestSanitize(t *testing.T) {
	cred := &Credential{Platform: "youtube", Token: "AIzaSyA1234567890abcdef"}
	masked := Sanitize(cred)

	assert.Equal(t, "AIza...cdef", masked.Token)
	assert.Equal(t, "youtube", masked.Platform)
	// Original untouched
	assert.Equal(t, "AIzaSyA1234567890abcdef", cred.Token)

	short := Sanitize(&Credential{Platform: "x", Token: "tiny"})
	assert.Equal(t, "********", short.Token)

	assert.Nil(t, Sanitize(nil))
}
