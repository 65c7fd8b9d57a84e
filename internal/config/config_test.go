package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hal9000y/mail-assistant/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("INSTALLATION_ID", "install-1")
	t.Setenv("VAULT_PASSPHRASE", "correct horse battery staple")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://api.fastmail.com/.well-known/jmap", cfg.Mail.SessionURL)
	assert.Equal(t, 10.0, cfg.Mail.RateLimit)
	assert.Equal(t, "https://api.anthropic.com/", cfg.Assistant.BaseURL)
	assert.Equal(t, 8, cfg.Assistant.MaxTurns)
	assert.Equal(t, config.StoreFile, cfg.Store.Kind)
	assert.Equal(t, 2*time.Minute, cfg.RequestTimeout)
	assert.False(t, cfg.Vault.AllowLegacy)
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(
		"INSTALLATION_ID=install-2\n"+
			"VAULT_ALLOW_LEGACY=true\n"+
			"SECRET_STORE=keyring\n"+
			"ASSISTANT_MAX_TURNS=4\n"+
			"REQUEST_TIMEOUT=30s\n",
	), 0600))

	// godotenv does not override variables already set, so start clean.
	for _, k := range []string{"INSTALLATION_ID", "VAULT_PASSPHRASE", "VAULT_ALLOW_LEGACY", "SECRET_STORE", "ASSISTANT_MAX_TURNS", "REQUEST_TIMEOUT"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "install-2", cfg.Vault.InstallationID)
	assert.True(t, cfg.Vault.AllowLegacy)
	assert.Equal(t, config.StoreKeyring, cfg.Store.Kind)
	assert.Equal(t, 4, cfg.Assistant.MaxTurns)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
}

func TestLoadInvalid(t *testing.T) {
	cases := []struct {
		name        string
		env         map[string]string
		expectedErr string
	}{
		{
			name:        "no_installation_id",
			env:         map[string]string{"INSTALLATION_ID": "", "VAULT_PASSPHRASE": "p"},
			expectedErr: "INSTALLATION_ID",
		},
		{
			name:        "no_passphrase",
			env:         map[string]string{"INSTALLATION_ID": "i", "VAULT_PASSPHRASE": ""},
			expectedErr: "VAULT_PASSPHRASE must be set",
		},
		{
			name:        "bad_store",
			env:         map[string]string{"INSTALLATION_ID": "i", "VAULT_PASSPHRASE": "p", "SECRET_STORE": "s3"},
			expectedErr: "SECRET_STORE must be",
		},
		{
			name:        "bad_turns",
			env:         map[string]string{"INSTALLATION_ID": "i", "VAULT_PASSPHRASE": "p", "ASSISTANT_MAX_TURNS": "0"},
			expectedErr: "ASSISTANT_MAX_TURNS must be positive",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			_, err := config.Load("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.expectedErr)
		})
	}
}
