package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

const keyringService = "mail-assistant"

// KeyringStore keeps secrets in the operating system keyring.
type KeyringStore struct {
	ring keyring.Keyring
}

var _ SecretStore = (*KeyringStore)(nil)

// OpenKeyring opens the system keyring. fileDir is used by the encrypted file
// backend when no native keyring is available.
func OpenKeyring(fileDir string) (*KeyringStore, error) {
	if fileDir == "" {
		fileDir = "~/.config/mail-assistant/keyring"
	}

	ring, err := keyring.Open(keyring.Config{
		ServiceName: keyringService,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  fileDir,
		FilePasswordFunc:         keyring.FixedStringPrompt(keyringService + "-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("keyring.Open failed: %w", err)
	}

	return NewKeyringStore(ring), nil
}

// NewKeyringStore wraps an opened keyring.
func NewKeyringStore(ring keyring.Keyring) *KeyringStore {
	return &KeyringStore{ring: ring}
}

// Get returns the secret stored under name.
func (s *KeyringStore) Get(_ context.Context, name string) (string, error) {
	item, err := s.ring.Get(name)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrSecretNotFound
	}
	if err != nil {
		return "", fmt.Errorf("ring.Get %q failed: %w", name, err)
	}

	return string(item.Data), nil
}

// Set stores value under name.
func (s *KeyringStore) Set(_ context.Context, name, value string) error {
	err := s.ring.Set(keyring.Item{
		Key:   name,
		Data:  []byte(value),
		Label: keyringService + " " + name,
	})
	if err != nil {
		return fmt.Errorf("ring.Set %q failed: %w", name, err)
	}

	return nil
}

// Delete removes name.
func (s *KeyringStore) Delete(_ context.Context, name string) error {
	err := s.ring.Remove(name)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("ring.Remove %q failed: %w", name, err)
	}

	return nil
}
