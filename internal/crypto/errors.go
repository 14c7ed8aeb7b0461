package crypto

import "errors"

var (
	// ErrKeyDerivation is returned when Argon2id parameters or inputs are
	// structurally invalid (empty passphrase, wrong salt length).
	ErrKeyDerivation = errors.New("key derivation failed")

	// ErrInvalidKeyLength is returned when a key buffer is not 32 bytes.
	ErrInvalidKeyLength = errors.New("invalid key length")

	// ErrUnwrapFailed is returned when AEAD unwrapping fails. This covers
	// both a wrong KEK and a corrupted blob; callers treat it as a wrong
	// passphrase.
	ErrUnwrapFailed = errors.New("key unwrap failed")

	// ErrKeychainUnavailable is returned when the OS keychain cannot be
	// reached or an expected entry is missing. Distinct from ErrUnwrapFailed
	// so the vault state machine can report keychain loss.
	ErrKeychainUnavailable = errors.New("keychain unavailable")
)
