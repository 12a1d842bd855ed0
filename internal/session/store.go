// ABOUTME: File-backed token store replacing the browser session storage
// ABOUTME: Persists the serialized token record in the config directory

package session

import (
	"encoding/json"
	"os"
	"path/filepath"
)

const tokenFileName = "token.json"

// Store persists the current authorization token as a single JSON file.
// It is purely mechanical: no expiry or validity checks happen here.
type Store struct {
	configDir string
}

// NewStore creates a token store rooted at the given config directory.
func NewStore(configDir string) *Store {
	return &Store{configDir: configDir}
}

func (s *Store) tokenFile() string {
	return filepath.Join(s.configDir, tokenFileName)
}

// Save writes the token record, replacing any previous one. The write is
// atomic so a crash never leaves a partial record behind.
func (s *Store) Save(token *AuthorizationToken) error {
	if err := os.MkdirAll(s.configDir, 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.tokenFile() + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, s.tokenFile())
}

// Load returns the stored token, or nil when none is stored. An unreadable
// record is treated as absent.
func (s *Store) Load() (*AuthorizationToken, error) {
	data, err := os.ReadFile(s.tokenFile())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var token AuthorizationToken
	if err := json.Unmarshal(data, &token); err != nil {
		// Invalid JSON, start fresh
		return nil, nil
	}
	return &token, nil
}

// Clear removes the stored token. Clearing an empty store is not an error.
func (s *Store) Clear() error {
	err := os.Remove(s.tokenFile())
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// BearerToken returns the stored bearer credential, or empty when no token
// is stored. Used by the HTTP transport to decorate outgoing requests.
func (s *Store) BearerToken() string {
	token, err := s.Load()
	if err != nil || token == nil {
		return ""
	}
	return token.JWT
}
