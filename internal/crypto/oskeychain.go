// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clinvault Authors

package crypto

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	// keychainService scopes all entries to the application identity.
	keychainService = "com.clinvault.vault"

	// Logical entry names. The values are base64 blobs because the OS
	// secret stores are string-oriented.
	keySalt       = "vault.salt"
	keyWrappedKey = "vault.wrapped_key"
)

// osKeychain is the [Keychain] backed by the platform secret store
// (Keychain Services, Secret Service / libsecret, Windows Credential
// Manager) via zalando/go-keyring.
type osKeychain struct{}

// NewOSKeychain constructs the production [Keychain].
func NewOSKeychain() Keychain {
	return &osKeychain{}
}

func (o *osKeychain) StoreSalt(salt []byte) error {
	return o.store(keySalt, salt)
}

func (o *osKeychain) RetrieveSalt() ([]byte, error) {
	return o.retrieve(keySalt)
}

func (o *osKeychain) StoreWrappedKey(wrapped []byte) error {
	return o.store(keyWrappedKey, wrapped)
}

func (o *osKeychain) RetrieveWrappedKey() ([]byte, error) {
	return o.retrieve(keyWrappedKey)
}

// ClearKeychain implements [Keychain]. Deleting an absent entry is treated
// as success so the operation is idempotent under retry.
func (o *osKeychain) ClearKeychain() error {
	var errs []error
	for _, name := range []string{keySalt, keyWrappedKey} {
		if err := keyring.Delete(keychainService, name); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			errs = append(errs, fmt.Errorf("delete %s: %w", name, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrKeychainUnavailable, errors.Join(errs...))
	}
	return nil
}

// HasVault implements [Keychain].
func (o *osKeychain) HasVault() bool {
	if _, err := keyring.Get(keychainService, keySalt); err != nil {
		return false
	}
	if _, err := keyring.Get(keychainService, keyWrappedKey); err != nil {
		return false
	}
	return true
}

func (o *osKeychain) store(name string, value []byte) error {
	encoded := base64.StdEncoding.EncodeToString(value)
	if err := keyring.Set(keychainService, name, encoded); err != nil {
		return fmt.Errorf("%w: store %s: %w", ErrKeychainUnavailable, name, err)
	}
	return nil
}

func (o *osKeychain) retrieve(name string) ([]byte, error) {
	encoded, err := keyring.Get(keychainService, name)
	if err != nil {
		return nil, fmt.Errorf("%w: retrieve %s: %w", ErrKeychainUnavailable, name, err)
	}
	value, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrKeychainUnavailable, name, err)
	}
	return value, nil
}
