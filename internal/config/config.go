// Package config loads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Secret store kinds.
const (
	StoreFile    = "file"
	StoreKeyring = "keyring"
)

// Config holds every setting read from the environment.
type Config struct {
	Mail      MailConfig
	Assistant AssistantConfig
	Vault     VaultConfig
	Store     StoreConfig

	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"2m"`
}

// MailConfig configures the JMAP service.
type MailConfig struct {
	SessionURL string  `envconfig:"MAIL_SESSION_URL" default:"https://api.fastmail.com/.well-known/jmap"`
	RateLimit  float64 `envconfig:"MAIL_RATE_LIMIT" default:"10"`
	RateBurst  int     `envconfig:"MAIL_RATE_BURST" default:"5"`
}

// AssistantConfig configures the assistant service.
type AssistantConfig struct {
	BaseURL  string `envconfig:"ASSISTANT_BASE_URL" default:"https://api.anthropic.com/"`
	Model    string `envconfig:"ASSISTANT_MODEL" default:"claude-3-5-haiku-20241022"`
	MaxTurns int    `envconfig:"ASSISTANT_MAX_TURNS" default:"8"`
}

// VaultConfig configures key derivation for stored secrets.
type VaultConfig struct {
	Passphrase     string `envconfig:"VAULT_PASSPHRASE"`
	AllowLegacy    bool   `envconfig:"VAULT_ALLOW_LEGACY" default:"false"`
	InstallationID string `envconfig:"INSTALLATION_ID" required:"true"`
}

// StoreConfig selects where encrypted secrets are kept.
type StoreConfig struct {
	Kind string `envconfig:"SECRET_STORE" default:"file"`
	Path string `envconfig:"SECRET_STORE_PATH" default:"./data/mail-assistant-secrets.json"`
}

// Load reads envFile, when given, into the environment and decodes the
// environment into a Config.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("godotenv.Load failed: %w", err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("envconfig.Process failed: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Vault.InstallationID == "" {
		return errors.New("INSTALLATION_ID must be set")
	}
	if c.Vault.Passphrase == "" && !c.Vault.AllowLegacy {
		return errors.New("VAULT_PASSPHRASE must be set, or VAULT_ALLOW_LEGACY enabled")
	}
	if c.Store.Kind != StoreFile && c.Store.Kind != StoreKeyring {
		return fmt.Errorf("SECRET_STORE must be %q or %q, got %q", StoreFile, StoreKeyring, c.Store.Kind)
	}
	if c.Assistant.MaxTurns < 1 {
		return fmt.Errorf("ASSISTANT_MAX_TURNS must be positive, got %d", c.Assistant.MaxTurns)
	}
	return nil
}
