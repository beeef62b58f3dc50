package auth

import (
	"os"
	"time"
)

// Per-platform environment variable names, prefixed form first, the
// original ingestion scripts' bare names as fallback.
var envTokenNames = map[string][]string{
	"instagram": {"SOCIALHARVEST_FB_TOKEN", "fb_token"},
	"youtube":   {"SOCIALHARVEST_YOUTUBE_API_KEY", "YOUTUBE_API_KEY"},
	"x":         {"SOCIALHARVEST_X_BEARER_TOKEN", "x_bearer_token"},
}

var envExtraNames = map[string]map[string][]string{
	"instagram": {
		"business_id": {"SOCIALHARVEST_IG_BUSINESS_ID", "ig_business_id"},
		"page_id":     {"SOCIALHARVEST_FB_PAGE_ID", "FB_PAGE_ID"},
	},
}

// EnvironmentStore implements CredentialStore over environment
// variables. Read-only; Store and Delete are not supported.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(cred *Credential) error {
	return ErrStoreUnavailable
}

// Retrieve gets a platform credential from environment variables
func (e *EnvironmentStore) Retrieve(platform string) (*Credential, error) {
	token := firstEnv(envTokenNames[platform])
	if token == "" {
		return nil, ErrCredentialsNotFound
	}

	cred := &Credential{
		Platform:     platform,
		Token:        token,
		LastModified: time.Now(),
	}

	if extras, ok := envExtraNames[platform]; ok {
		cred.Extra = make(map[string]string)
		for key, names := range extras {
			if v := firstEnv(names); v != "" {
				cred.Extra[key] = v
			}
		}
	}

	return cred, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(platform string) error {
	return ErrStoreUnavailable
}

// Exists checks if an environment credential exists
func (e *EnvironmentStore) Exists(platform string) bool {
	return firstEnv(envTokenNames[platform]) != ""
}

func firstEnv(names []string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}
