package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// AccessTokenEnvVar overrides the stored CLI access token.
const AccessTokenEnvVar = "SOASSOC_ACCESS_TOKEN"

// StackExchangeCredentials stores the CLI user's Stack Exchange token.
type StackExchangeCredentials struct {
	AccessToken string    `json:"access_token,omitempty"`
	AccountID   int       `json:"account_id,omitempty"`
	DisplayName string    `json:"display_name,omitempty"`
	ObtainedAt  time.Time `json:"obtained_at,omitempty"`
}

// Credentials holds stored CLI credentials.
type Credentials struct {
	StackExchange *StackExchangeCredentials `json:"stackexchange,omitempty"`
}

// CredentialPath returns the path to the credentials file (~/.soassoc/credentials.json).
func CredentialPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".soassoc", "credentials.json"), nil
}

// LoadCredentials reads credentials from ~/.soassoc/credentials.json.
// Returns empty credentials if the file doesn't exist.
func LoadCredentials() (*Credentials, error) {
	path, err := CredentialPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Credentials{}, nil
		}
		return nil, fmt.Errorf("reading credentials: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}
	return &creds, nil
}

// SaveCredentials writes credentials with restricted permissions.
func SaveCredentials(creds *Credentials) error {
	path, err := CredentialPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating credentials directory: %w", err)
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling credentials: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	return nil
}

// ClearCredentials removes the stored Stack Exchange token.
func ClearCredentials() error {
	creds, err := LoadCredentials()
	if err != nil {
		return err
	}
	creds.StackExchange = nil
	return SaveCredentials(creds)
}

// CLIAccessToken returns the CLI user's access token. The environment
// variable wins over stored credentials.
func CLIAccessToken() string {
	if tok := os.Getenv(AccessTokenEnvVar); tok != "" {
		return tok
	}
	creds, err := LoadCredentials()
	if err != nil || creds.StackExchange == nil {
		return ""
	}
	return creds.StackExchange.AccessToken
}
