package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
)

// OAuthClientConfig is the Google "installed app" client file downloaded from the
// Cloud console. Only `mesctl publish` needs it.
type OAuthClientConfig struct {
	Installed OAuthInstalled `json:"installed" validate:"required"`
}

// OAuthInstalled holds the fields the Sheets OAuth flow reads
type OAuthInstalled struct {
	ClientID                string   `json:"client_id" validate:"required"`
	ProjectID               string   `json:"project_id,omitempty"`
	AuthURI                 string   `json:"auth_uri" validate:"required,url"`
	TokenURI                string   `json:"token_uri" validate:"required,url"`
	AuthProviderX509CertURL string   `json:"auth_provider_x509_cert_url,omitempty" validate:"omitempty,url"`
	ClientSecret            string   `json:"client_secret" validate:"required"`
	RedirectURIs            []string `json:"redirect_uris" validate:"required,min=1,dive,uri"`
}

// OAuthClientFileName returns the client file name searched for env
func OAuthClientFileName(env string) string {
	if env == "" {
		return "mesctl_oauth.json"
	}
	return "mesctl_oauth." + env + ".json"
}

// LoadPublishOAuthClient loads the client file for publishing: publish.oauthClientFile
// when set, otherwise mesctl_oauth.<env>.json from the current or home directory
func LoadPublishOAuthClient(cfg *Config, env string) (*OAuthClientConfig, error) {
	if cfg != nil && cfg.Publish.OAuthClientFile != "" {
		return LoadOAuthClientFromPath(cfg.Publish.OAuthClientFile)
	}
	return LoadOAuthClientWithEnv(env)
}

// LoadOAuthClientWithEnv looks up OAuthClientFileName(env) in the current, then home directory
func LoadOAuthClientWithEnv(env string) (*OAuthClientConfig, error) {
	path, err := findFile(OAuthClientFileName(env))
	if err != nil {
		return nil, fmt.Errorf("publish needs a Google OAuth client file (or publish.oauthClientFile): %w", err)
	}
	return LoadOAuthClientFromPath(path)
}

// LoadOAuthClientFromPath reads and validates a client file
func LoadOAuthClientFromPath(path string) (*OAuthClientConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read oauth client file: %w", err)
	}

	var oauthCfg OAuthClientConfig
	if err := json.Unmarshal(data, &oauthCfg); err != nil {
		return nil, fmt.Errorf("failed to parse oauth client file %s: %w", path, err)
	}
	if err := ValidateOAuthClient(&oauthCfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &oauthCfg, nil
}

// ValidateOAuthClient checks the required fields and that the client allows a
// loopback redirect, which the local callback listener depends on
func ValidateOAuthClient(cfg *OAuthClientConfig) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("oauth client validation failed: %w", err)
	}
	for _, raw := range cfg.Installed.RedirectURIs {
		if isLoopback(raw) {
			return nil
		}
	}
	return fmt.Errorf("oauth client validation failed: no localhost redirect URI; create a Desktop app client")
}

func isLoopback(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

// findFile checks the current directory, then the home directory
func findFile(fileName string) (string, error) {
	if _, err := os.Stat(fileName); err == nil {
		return fileName, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homePath := filepath.Join(homeDir, fileName)
	if _, err := os.Stat(homePath); err == nil {
		return homePath, nil
	}

	return "", fmt.Errorf("%s not found in current directory or home directory", fileName)
}
