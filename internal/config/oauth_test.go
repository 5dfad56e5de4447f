package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInstalled() OAuthInstalled {
	return OAuthInstalled{
		ClientID:                "mesctl.apps.googleusercontent.com",
		ProjectID:               "mes-board",
		AuthURI:                 "https://accounts.google.com/o/oauth2/auth",
		TokenURI:                "https://oauth2.googleapis.com/token",
		AuthProviderX509CertURL: "https://www.googleapis.com/oauth2/v1/certs",
		ClientSecret:            "secret",
		RedirectURIs:            []string{"http://localhost"},
	}
}

func TestValidateOAuthClient(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*OAuthInstalled)
		wantErr bool
	}{
		{"valid", func(*OAuthInstalled) {}, false},
		{"missing client id", func(i *OAuthInstalled) { i.ClientID = "" }, true},
		{"invalid auth uri", func(i *OAuthInstalled) { i.AuthURI = "not-a-valid-url" }, true},
		{"no redirect uris", func(i *OAuthInstalled) { i.RedirectURIs = nil }, true},
		{"bad redirect uri", func(i *OAuthInstalled) { i.RedirectURIs = []string{"not a valid uri"} }, true},
		{"web redirect only", func(i *OAuthInstalled) { i.RedirectURIs = []string{"https://mes.example.com/callback"} }, true},
		{"loopback ip redirect", func(i *OAuthInstalled) { i.RedirectURIs = []string{"https://mes.example.com/callback", "http://127.0.0.1"} }, false},
		{"project id is optional", func(i *OAuthInstalled) { i.ProjectID = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			installed := validInstalled()
			tt.mutate(&installed)

			err := ValidateOAuthClient(&OAuthClientConfig{Installed: installed})
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "validation failed")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadOAuthClientFromPath_ValidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mesctl_oauth.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "installed": {
    "client_id": "mesctl.apps.googleusercontent.com",
    "project_id": "mes-board",
    "auth_uri": "https://accounts.google.com/o/oauth2/auth",
    "token_uri": "https://oauth2.googleapis.com/token",
    "auth_provider_x509_cert_url": "https://www.googleapis.com/oauth2/v1/certs",
    "client_secret": "secret",
    "redirect_uris": ["http://localhost"]
  }
}`), 0644))

	cfg, err := LoadOAuthClientFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "mes-board", cfg.Installed.ProjectID)
	assert.Equal(t, []string{"http://localhost"}, cfg.Installed.RedirectURIs)
}

func TestLoadOAuthClientFromPath_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"installed": {"client_id": "x" "project_id": "y"}}`), 0644))

	_, err := LoadOAuthClientFromPath(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse oauth client file")
}

func TestLoadOAuthClientFromPath_FileNotFound(t *testing.T) {
	_, err := LoadOAuthClientFromPath("/nonexistent/mesctl_oauth.json")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read oauth client file")
}

func TestLoadOAuthClientWithEnv_NotFound(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())

	_, err := LoadOAuthClientWithEnv("prod")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "mesctl_oauth.prod.json not found")
	assert.Contains(t, err.Error(), "publish needs a Google OAuth client file")
}

func TestOAuthClientFileName(t *testing.T) {
	assert.Equal(t, "mesctl_oauth.json", OAuthClientFileName(""))
	assert.Equal(t, "mesctl_oauth.dev.json", OAuthClientFileName("dev"))
}

func TestLoadPublishOAuthClient(t *testing.T) {
	data, err := json.Marshal(OAuthClientConfig{Installed: validInstalled()})
	require.NoError(t, err)

	t.Run("configured path wins over lookup", func(t *testing.T) {
		chdir(t, t.TempDir())
		t.Setenv("HOME", t.TempDir())
		path := filepath.Join(t.TempDir(), "client.json")
		require.NoError(t, os.WriteFile(path, data, 0600))

		cfg, err := LoadPublishOAuthClient(&Config{Publish: PublishConfig{OAuthClientFile: path}}, "prod")
		require.NoError(t, err)
		assert.Equal(t, "mes-board", cfg.Installed.ProjectID)
	})

	t.Run("falls back to the env file in the current directory", func(t *testing.T) {
		dir := t.TempDir()
		chdir(t, dir)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "mesctl_oauth.dev.json"), data, 0600))

		cfg, err := LoadPublishOAuthClient(&Config{}, "dev")
		require.NoError(t, err)
		assert.Equal(t, "mesctl.apps.googleusercontent.com", cfg.Installed.ClientID)
	})

	t.Run("configured path that does not exist", func(t *testing.T) {
		_, err := LoadPublishOAuthClient(&Config{Publish: PublishConfig{OAuthClientFile: "/nonexistent/client.json"}}, "dev")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read oauth client file")
	})
}
