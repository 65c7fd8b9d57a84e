// Package auth persists the encrypted credentials of the mail and assistant
// services.
package auth

import (
	"context"
	"errors"
)

// ErrSecretNotFound indicates no secret is stored under the name.
var ErrSecretNotFound = errors.New("secret not found")

// Names the secrets are stored under.
const (
	MailToken    = "fastmailApiToken"
	AssistantKey = "claudeApiKey"
)

// SecretStore keeps encrypted secrets by name. Values are stored as given;
// encryption is the caller's concern.
type SecretStore interface {
	// Get returns ErrSecretNotFound when nothing is stored under name.
	Get(ctx context.Context, name string) (string, error)
	Set(ctx context.Context, name, value string) error
	// Delete removes name. Deleting a missing name is not an error.
	Delete(ctx context.Context, name string) error
}
