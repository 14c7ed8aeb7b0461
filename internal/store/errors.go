package store

import "errors"

var (
	// ErrNotInitialized is returned when an operation requires a vault that
	// has never been created.
	ErrNotInitialized = errors.New("vault not initialized")

	// ErrLocked is returned when an entity operation runs without an open
	// connection.
	ErrLocked = errors.New("vault locked")

	// ErrAlreadyExists is returned when create finds an existing database.
	ErrAlreadyExists = errors.New("vault already exists")

	// ErrInvalidPassphrase is returned on unlock when the derived KEK fails
	// to unwrap the vault key or the opened database fails its catalog
	// check. The two causes are deliberately indistinguishable.
	ErrInvalidPassphrase = errors.New("invalid passphrase")

	// ErrNotFound is returned when a requested entity row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrKeychainLost is returned when the database exists but the keychain
	// entries are missing. Terminal: data is unrecoverable without them.
	ErrKeychainLost = errors.New("vault database exists but keychain entry is missing; recovery required")

	// ErrStaleKeychain is returned when keychain entries exist without a
	// database file.
	ErrStaleKeychain = errors.New("stale keychain entries exist without a database")

	// ErrInvalidState is returned when a lifecycle transition is not
	// permitted from the current state (e.g. amending a draft note).
	ErrInvalidState = errors.New("invalid state")

	// ErrInternal wraps failures with no more specific classification.
	ErrInternal = errors.New("internal error")

	// ErrPolicyViolation is returned when an operation is blocked by an
	// export or clipboard policy rather than by a technical failure.
	ErrPolicyViolation = errors.New("policy violation")
)
