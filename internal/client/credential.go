package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

const (
	credentialDir  = ".geotoken"
	credentialFile = "credential.json"
)

// ErrNoCredential is returned by Load when nothing is cached.
var ErrNoCredential = errors.New("no cached credential")

// Credential is the session cached between CLI invocations.
type Credential struct {
	AuthToken string    `json:"authToken"`
	Role      Role      `json:"role"`
	Contact   string    `json:"contact"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// CredentialStore persists a Credential as an owner-only JSON file.
type CredentialStore struct {
	path string
}

// DefaultCredentialPath is $HOME/.geotoken/credential.json.
func DefaultCredentialPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("client: resolve home dir: %w", err)
	}
	return filepath.Join(home, credentialDir, credentialFile), nil
}

// NewCredentialStore stores the credential at path.
func NewCredentialStore(path string) *CredentialStore {
	return &CredentialStore{path: path}
}

// Path returns the backing file path.
func (s *CredentialStore) Path() string { return s.path }

// Load reads the cached credential.
func (s *CredentialStore) Load() (*Credential, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoCredential
	}
	if err != nil {
		return nil, fmt.Errorf("client: read credential: %w", err)
	}

	var cred Credential
	if err := json.Unmarshal(raw, &cred); err != nil {
		return nil, fmt.Errorf("client: decode credential: %w", err)
	}
	if cred.AuthToken == "" {
		return nil, ErrNoCredential
	}
	return &cred, nil
}

// Save writes cred with 0600 permissions, replacing any previous file.
func (s *CredentialStore) Save(cred Credential) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("client: create credential dir: %w", err)
	}

	raw, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return fmt.Errorf("client: encode credential: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("client: write credential: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("client: write credential: %w", err)
	}
	return nil
}

// Delete removes the cached credential. A missing file is not an error.
func (s *CredentialStore) Delete() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("client: delete credential: %w", err)
	}
	return nil
}
