package vault

import (
	"errors"
	"log"
	"sync"
)

// Vault caches one derived key. Construct one per request and drop it when
// the request ends.
type Vault struct {
	passphrase string
	salt       []byte

	once sync.Once
	key  Key
}

// New returns a vault that derives its key from passphrase on first use.
func New(passphrase, installationID string) *Vault {
	return &Vault{
		passphrase: passphrase,
		salt:       InstallationSalt(installationID),
	}
}

// NewWithKey returns a vault around an already derived key.
func NewWithKey(key Key) *Vault {
	v := &Vault{key: key}
	v.once.Do(func() {})
	return v
}

// Key returns the derived key, running key derivation once.
func (v *Vault) Key() Key {
	v.once.Do(func() {
		v.key = DeriveKey(v.passphrase, v.salt)
		v.passphrase = ""
	})
	return v.key
}

// Encrypt seals plaintext under the vault key.
func (v *Vault) Encrypt(plaintext string) (EncryptedSecret, error) {
	return Encrypt(plaintext, v.Key())
}

// Decrypt opens secret under the vault key.
func (v *Vault) Decrypt(secret EncryptedSecret) (string, error) {
	return Decrypt(secret, v.Key())
}

// Factory returns a constructor of per-request vaults. Without a passphrase
// the legacy installation-derived passphrase is used, and only when
// allowLegacy is set.
func Factory(passphrase, installationID string, allowLegacy bool) (func() *Vault, error) {
	if installationID == "" {
		return nil, errors.New("vault: installation id must not be empty")
	}

	if passphrase == "" {
		if !allowLegacy {
			return nil, errors.New("vault: passphrase must not be empty")
		}
		log.Println("WARNING: no vault passphrase configured, using the legacy installation-derived passphrase")
		passphrase = LegacyPassphrase(installationID)
	}

	return func() *Vault {
		return New(passphrase, installationID)
	}, nil
}
