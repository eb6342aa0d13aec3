package entitlement

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TokenStore supplies the access token obtained by the desktop shell's
// login flow.
type TokenStore interface {
	// AccessToken returns the stored token, or "" when the user has
	// never logged in. The empty case is not an error.
	AccessToken() (string, error)
}

// tokenFile is the fixed filename inside the app data directory.
const tokenFile = "auth.json"

type tokenPayload struct {
	AccessToken string `json:"access_token"`
}

// FileTokenStore reads and writes the token file in the app data dir.
// The desktop shell's keychain integration is out of scope; a 0600 file
// is the fallback contract both sides agree on.
type FileTokenStore struct {
	dir string
}

// NewFileTokenStore creates a store rooted at the app data directory.
func NewFileTokenStore(dataDir string) *FileTokenStore {
	return &FileTokenStore{dir: dataDir}
}

// AccessToken implements TokenStore.
func (s *FileTokenStore) AccessToken() (string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, tokenFile))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("reading token file: %w", err)
	}

	var payload tokenPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", fmt.Errorf("parsing token file: %w", err)
	}
	return strings.TrimSpace(payload.AccessToken), nil
}

// Save writes the token, creating the data dir if needed.
func (s *FileTokenStore) Save(token string) error {
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	data, err := json.Marshal(tokenPayload{AccessToken: token})
	if err != nil {
		return fmt.Errorf("marshaling token: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, tokenFile), data, 0o600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	return nil
}

// Clear removes the stored token.
func (s *FileTokenStore) Clear() error {
	err := os.Remove(filepath.Join(s.dir, tokenFile))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing token file: %w", err)
	}
	return nil
}
