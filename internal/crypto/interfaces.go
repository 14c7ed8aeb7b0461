// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clinvault Authors

// Package crypto implements the key hierarchy and keychain I/O that protect
// the clinvault database.
//
// # Key hierarchy
//
//  1. VaultKey — a random 256-bit key generated once at vault creation. It is
//     the SQLCipher database key and exists in plaintext only while the vault
//     is unlocked.
//
//  2. KEK (key-encryption key) — derived from the user's passphrase and a
//     random salt using Argon2id. It wraps the VaultKey with AES-256-GCM.
//     The KEK is never persisted; the passphrase is required every session.
//
//  3. WrappedVaultKey — the AEAD ciphertext of the VaultKey under the KEK,
//     stored in the OS keychain next to the salt. Without the passphrase it
//     is indistinguishable from random bytes.
//
// # Create flow
//
//  1. [KeyService.GenerateSalt] + [KeyService.GenerateVaultKey]
//  2. [KeyService.DeriveKEK](passphrase, salt)
//  3. [KeyService.Wrap](kek, vaultKey) → stored in the OS keychain
//
// # Unlock flow
//
//  1. [Keychain.RetrieveSalt] + [Keychain.RetrieveWrappedKey]
//  2. [KeyService.DeriveKEK](passphrase, salt)
//  3. [KeyService.Unwrap](kek, wrapped) → VaultKey opens the database
//
// All buffers holding key material must be wiped via [Zeroize] when the keys
// leave scope.
package crypto

// KeyService is responsible for key generation, derivation, and wrapping.
// It has no knowledge of the keychain, database, or filesystem — its sole
// responsibility is to produce and protect key material.
type KeyService interface {
	// GenerateSalt generates a cryptographically random 16-byte (128-bit)
	// salt. The salt is not a secret but ensures identical passphrases
	// derive different KEKs across vaults.
	GenerateSalt() ([]byte, error)

	// GenerateVaultKey generates a cryptographically random 32-byte
	// (256-bit) database key. It must never be persisted in plaintext.
	GenerateVaultKey() ([]byte, error)

	// DeriveKEK derives a 256-bit key-encryption key from passphrase and
	// salt using Argon2id. The KEK exists only in memory.
	DeriveKEK(passphrase string, salt []byte) ([]byte, error)

	// Wrap encrypts vaultKey with kek using AES-256-GCM. The returned blob
	// has the format: nonce (12 bytes) ‖ ciphertext.
	Wrap(kek, vaultKey []byte) ([]byte, error)

	// Unwrap decrypts a blob produced by [KeyService.Wrap]. A wrong KEK or
	// corrupted ciphertext fails with [ErrUnwrapFailed]; callers must not
	// distinguish this from a wrong passphrase.
	Unwrap(kek, wrapped []byte) ([]byte, error)
}

// Keychain abstracts the OS-provided secret store holding the vault salt and
// the wrapped vault key. Retrieval failures are surfaced distinctly from
// decryption failures so the vault state machine can report keychain loss.
type Keychain interface {
	StoreSalt(salt []byte) error
	RetrieveSalt() ([]byte, error)
	StoreWrappedKey(wrapped []byte) error
	RetrieveWrappedKey() ([]byte, error)

	// ClearKeychain removes both entries. Missing entries are not an error;
	// the operation is idempotent under retry.
	ClearKeychain() error

	// HasVault reports whether both keychain entries are present.
	HasVault() bool
}
