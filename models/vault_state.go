package models

// VaultStateType is the lifecycle state of the vault, derived from the
// presence of the database file, the keychain entries, and an open
// connection.
type VaultStateType string

const (
	// StateNoVault means neither the database nor the keychain entries
	// exist; a vault can be created.
	StateNoVault VaultStateType = "no_vault"

	// StateReady means database and keychain are both present; the vault can
	// be unlocked with the passphrase.
	StateReady VaultStateType = "ready"

	// StateKeychainLost means the database exists but the keychain entries
	// are gone. Data is unrecoverable; the only remediation is deleting the
	// database.
	StateKeychainLost VaultStateType = "keychain_lost"

	// StateStaleKeychain means keychain entries exist without a database.
	// The entries should be cleared.
	StateStaleKeychain VaultStateType = "stale_keychain"

	// StateUnlocked means a live connection holds the vault open.
	StateUnlocked VaultStateType = "unlocked"
)

// VaultState is the detailed vault state reported to callers.
type VaultState struct {
	DBExists       bool           `json:"db_exists"`
	KeychainExists bool           `json:"keychain_exists"`
	State          VaultStateType `json:"state"`
	Message        string         `json:"message"`
}
