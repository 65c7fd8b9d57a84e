// Package vault derives symmetric keys from passphrases and seals secrets
// with AES-256-GCM.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// Iterations is the PBKDF2 round count used by DeriveKey.
	Iterations = 600000

	// KeySize is the derived key length in bytes (AES-256).
	KeySize = 32

	// SaltSize is the number of digest bytes kept from the installation salt.
	SaltSize = 16

	// NonceSize is the GCM nonce length prepended to every ciphertext.
	NonceSize = 12

	// MaxSecretLength bounds the number of characters ValidateSecret accepts.
	MaxSecretLength = 10000

	saltVersion   = "_v2"
	legacySuffix  = "_v2_secure"
	gcmTagSize    = 16
	minSealedSize = NonceSize + gcmTagSize
)

// ErrDecryption is matched by every DecryptionError.
var ErrDecryption = errors.New("failed to decrypt secret")

// ValidationError reports a secret rejected before encryption.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid secret: " + e.Reason
}

// DecryptionError reports a sealed secret that could not be opened.
type DecryptionError struct {
	Reason string
}

func (e *DecryptionError) Error() string {
	return fmt.Sprintf("%s: %s", ErrDecryption, e.Reason)
}

func (e *DecryptionError) Is(target error) bool {
	return target == ErrDecryption
}

// EncryptedSecret is base64(nonce || ciphertext || tag).
type EncryptedSecret string

// Key is a derived AES-256 key.
type Key struct {
	b [KeySize]byte
}

// NewKey wraps raw key material that was derived elsewhere.
func NewKey(raw []byte) (Key, error) {
	var k Key
	if len(raw) != KeySize {
		return k, fmt.Errorf("key must be %d bytes, got %d", KeySize, len(raw))
	}
	copy(k.b[:], raw)
	return k, nil
}

// InstallationSalt returns the deterministic salt for an installation.
func InstallationSalt(installationID string) []byte {
	sum := sha256.Sum256([]byte(installationID + saltVersion))
	return sum[:SaltSize]
}

// LegacyPassphrase is the installation-derived passphrase older clients used.
// Anyone who knows the installation id can rebuild it.
func LegacyPassphrase(installationID string) string {
	return installationID + legacySuffix
}

// DeriveKey runs PBKDF2-HMAC-SHA256 over the passphrase and salt.
func DeriveKey(passphrase string, salt []byte) Key {
	return deriveKey(passphrase, salt, Iterations)
}

func deriveKey(passphrase string, salt []byte, iterations int) Key {
	var k Key
	copy(k.b[:], pbkdf2.Key([]byte(passphrase), salt, iterations, KeySize, sha256.New))
	return k
}

// ValidateSecret trims the candidate and checks it is storable.
func ValidateSecret(candidate string) (string, error) {
	if !utf8.ValidString(candidate) {
		return "", &ValidationError{Reason: "secret must be text"}
	}

	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return "", &ValidationError{Reason: "secret cannot be empty"}
	}
	if utf8.RuneCountInString(trimmed) > MaxSecretLength {
		return "", &ValidationError{Reason: fmt.Sprintf("secret is too long (max %d characters)", MaxSecretLength)}
	}

	return trimmed, nil
}

// Encrypt validates and seals plaintext under key with a fresh nonce.
func Encrypt(plaintext string, key Key) (EncryptedSecret, error) {
	secret, err := ValidateSecret(plaintext)
	if err != nil {
		return "", err
	}

	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("rand.Read failed: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(secret), nil)

	return EncryptedSecret(base64.StdEncoding.EncodeToString(sealed)), nil
}

// Decrypt opens a sealed secret. Any failure is a DecryptionError and no
// plaintext is returned.
func Decrypt(secret EncryptedSecret, key Key) (string, error) {
	if secret == "" {
		return "", &DecryptionError{Reason: "empty input"}
	}

	sealed, err := base64.StdEncoding.DecodeString(string(secret))
	if err != nil {
		return "", &DecryptionError{Reason: "malformed encoding"}
	}
	if len(sealed) < minSealedSize {
		return "", &DecryptionError{Reason: "input too short"}
	}

	gcm, err := newGCM(key)
	if err != nil {
		return "", &DecryptionError{Reason: err.Error()}
	}

	nonce, ciphertext := sealed[:NonceSize], sealed[NonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", &DecryptionError{Reason: "authentication failed"}
	}

	return string(plaintext), nil
}

func newGCM(key Key) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key.b[:])
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher failed: %w", err)
	}

	gcm, err := cipher.NewGCMWithNonceSize(block, NonceSize)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM failed: %w", err)
	}

	return gcm, nil
}
