package auth

import (
	"errors"
	"fmt"
	"time"
)

// Credential holds one platform's API secret. Extra carries the
// platform-specific companion values (the Instagram business account
// id, for example).
type Credential struct {
	Platform     string            `json:"platform"`
	Token        string            `json:"token"`
	Extra        map[string]string `json:"extra,omitempty"`
	LastModified time.Time         `json:"last_modified"`
}

// CredentialStore is the interface for storing and retrieving credentials
type CredentialStore interface {
	// Store saves a platform credential
	Store(cred *Credential) error

	// Retrieve gets the credential for a platform
	Retrieve(platform string) (*Credential, error)

	// Delete removes the credential for a platform
	Delete(platform string) error

	// Exists checks if a credential exists for a platform
	Exists(platform string) bool
}

// Manager handles credential storage with fallback mechanisms
type Manager struct {
	stores []CredentialStore
}

// NewManager creates a credential manager: system keyring when
// available, environment variables as read-only fallback.
func NewManager() (*Manager, error) {
	var stores []CredentialStore

	keyringStore, err := NewKeyringStore()
	if err == nil {
		stores = append(stores, keyringStore)
	}

	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores builds a manager over explicit stores, used in
// tests with the mock store.
func NewManagerWithStores(stores ...CredentialStore) *Manager {
	return &Manager{stores: stores}
}

// Store saves a credential using the first store that accepts it
func (m *Manager) Store(cred *Credential) error {
	if cred.Platform == "" {
		return errors.New("platform is required")
	}
	if cred.Token == "" {
		return errors.New("token is required")
	}

	cred.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		if err := store.Store(cred); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store credential: %w", lastErr)
	}
	return errors.New("no available credential stores")
}

// Retrieve gets a platform credential from the first store that has it
func (m *Manager) Retrieve(platform string) (*Credential, error) {
	for _, store := range m.stores {
		if cred, err := store.Retrieve(platform); err == nil && cred != nil {
			return cred, nil
		}
	}
	return nil, fmt.Errorf("no credential found for platform: %s", platform)
}

// Delete removes a platform credential from all stores
func (m *Manager) Delete(platform string) error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(platform); err == nil {
			deleted = true
		} else {
			lastErr = err
		}
	}

	if !deleted && lastErr != nil {
		return fmt.Errorf("failed to delete credential: %w", lastErr)
	}
	if !deleted {
		return fmt.Errorf("no credential found for platform: %s", platform)
	}

	return nil
}

// Exists checks whether any store holds a credential for the platform
func (m *Manager) Exists(platform string) bool {
	for _, store := range m.stores {
		if store.Exists(platform) {
			return true
		}
	}
	return false
}

// Sanitize creates a copy of the credential with the token masked
func Sanitize(cred *Credential) *Credential {
	if cred == nil {
		return nil
	}

	return &Credential{
		Platform:     cred.Platform,
		Token:        maskString(cred.Token),
		Extra:        cred.Extra,
		LastModified: cred.LastModified,
	}
}

// maskString masks all but the first 4 and last 4 characters of a string
func maskString(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// Errors
var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
