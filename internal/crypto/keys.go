// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clinvault Authors

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

const (
	saltLen = 16
	keyLen  = 32
)

// keyService is the private implementation of [KeyService].
type keyService struct {
	// Argon2id tuning parameters. Stored in the struct so they can be
	// adjusted per deployment target (e.g. mobile vs. desktop).
	argonTime    uint32
	argonMemory  uint32
	argonThreads uint8
	argonKeyLen  uint32
}

// NewKeyService constructs a [KeyService] with Argon2id parameters meeting
// the vault's floor (memory ≥ 64 MiB, time ≥ 3 iterations):
//   - time cost:   3 iterations
//   - memory cost: 64 MiB
//   - parallelism: 4 threads
//   - key length:  32 bytes (256 bits)
func NewKeyService() KeyService {
	return &keyService{
		argonTime:    3,
		argonMemory:  64 * 1024, // 64 MiB
		argonThreads: 4,
		argonKeyLen:  keyLen,
	}
}

// GenerateSalt implements [KeyService]. It reads 16 random bytes from the OS
// CSPRNG. Returns an error if the random read fails.
func (k *keyService) GenerateSalt() ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// GenerateVaultKey implements [KeyService]. It reads 32 random bytes from
// the OS CSPRNG. Returns an error if the random read fails.
func (k *keyService) GenerateVaultKey() ([]byte, error) {
	key := make([]byte, keyLen)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, err
	}
	return key, nil
}

// DeriveKEK implements [KeyService]. It derives a 256-bit key-encryption key
// from passphrase and salt using Argon2id with the parameters stored in the
// receiver.
func (k *keyService) DeriveKEK(passphrase string, salt []byte) ([]byte, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("%w: empty passphrase", ErrKeyDerivation)
	}
	if len(salt) != saltLen {
		return nil, fmt.Errorf("%w: salt length %d, want %d", ErrKeyDerivation, len(salt), saltLen)
	}

	return argon2.IDKey(
		[]byte(passphrase),
		salt,
		k.argonTime,
		k.argonMemory,
		k.argonThreads,
		k.argonKeyLen,
	), nil
}

// Wrap implements [KeyService]. It wraps vaultKey with kek using AES-256-GCM.
// A random 12-byte nonce is prepended to the ciphertext so that the unwrap
// side can locate it: blob = nonce ‖ ciphertext.
func (k *keyService) Wrap(kek, vaultKey []byte) ([]byte, error) {
	if len(kek) != keyLen || len(vaultKey) != keyLen {
		return nil, ErrInvalidKeyLength
	}

	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	// Prepend the nonce so Unwrap can split it out without a side channel.
	wrapped := gcm.Seal(nil, nonce, vaultKey, nil)
	return append(nonce, wrapped...), nil
}

// Unwrap implements [KeyService]. It unwraps the blob produced by
// [keyService.Wrap] using kek and AES-256-GCM. Any failure — a short blob, a
// wrong KEK, a corrupted ciphertext — collapses into [ErrUnwrapFailed] so the
// caller cannot distinguish the cases.
func (k *keyService) Unwrap(kek, wrapped []byte) ([]byte, error) {
	if len(kek) != keyLen {
		return nil, ErrInvalidKeyLength
	}

	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(wrapped) < nonceSize {
		return nil, ErrUnwrapFailed
	}

	nonce, ciphertext := wrapped[:nonceSize], wrapped[nonceSize:]

	// An auth-tag mismatch here almost always means the user entered the
	// wrong passphrase, producing a wrong KEK.
	vaultKey, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrUnwrapFailed
	}

	return vaultKey, nil
}

// HashSHA256 returns the lowercase-hex SHA-256 of data.
func HashSHA256(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashChainEntry computes the hash of one audit chain link:
// SHA-256(previousHash ‖ "|" ‖ data), lowercase hex.
func HashChainEntry(previousHash string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(previousHash))
	h.Write([]byte("|"))
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Zeroize overwrites a byte buffer holding key material. Callers must not
// copy key bytes through allocator-growing containers without a compensating
// wipe of the originals.
func Zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
