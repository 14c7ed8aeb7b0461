// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clinvault Authors

// Package store implements the encrypted vault: lifecycle state machine,
// schema migrations, and all entity operations.
//
// The Vault exclusively owns the database connection. Every other component
// receives read-only projections or append-only insertions through it. The
// caller (the orchestrator) is responsible for serializing access.
package store

import (
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hengadev/errsx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/clinvault/clinvault/internal/crypto"
	"github.com/clinvault/clinvault/internal/logger"
	"github.com/clinvault/clinvault/migrations"
	"github.com/clinvault/clinvault/models"
)

// vaultFileName is the single encrypted database file under the data dir.
const vaultFileName = "vault.db"

// Vault is the encrypted relational store. The invariant of the lifecycle
// state machine: vaultKey present ⇔ db present ⇔ state Unlocked; on lock the
// key bytes are zeroized.
type Vault struct {
	dataDir string

	db       *sql.DB
	vaultKey []byte
	salt     []byte

	keys     crypto.KeyService
	keychain crypto.Keychain
	log      *logger.Logger
}

// NewVault constructs a locked Vault rooted at dataDir.
func NewVault(dataDir string, keys crypto.KeyService, keychain crypto.Keychain, log *logger.Logger) *Vault {
	if log == nil {
		log = logger.Nop()
	}
	return &Vault{
		dataDir:  dataDir,
		keys:     keys,
		keychain: keychain,
		log:      log,
	}
}

func (v *Vault) vaultPath() string {
	return filepath.Join(v.dataDir, vaultFileName)
}

func (v *Vault) dbExists() bool {
	_, err := os.Stat(v.vaultPath())
	return err == nil
}

// IsUnlocked reports whether a live connection holds the vault open.
func (v *Vault) IsUnlocked() bool {
	return v.db != nil && v.vaultKey != nil
}

// State derives the detailed lifecycle state from the database file, the
// keychain entries, and the open connection.
func (v *Vault) State() models.VaultState {
	dbExists := v.dbExists()
	kcExists := v.keychain.HasVault()

	if v.db != nil {
		return models.VaultState{
			DBExists:       dbExists,
			KeychainExists: kcExists,
			State:          models.StateUnlocked,
			Message:        "Vault is unlocked.",
		}
	}

	switch {
	case !dbExists && !kcExists:
		return models.VaultState{
			State:   models.StateNoVault,
			Message: "No vault exists. Create one to get started.",
		}
	case dbExists && kcExists:
		return models.VaultState{
			DBExists:       true,
			KeychainExists: true,
			State:          models.StateReady,
			Message:        "Vault ready. Enter passphrase to unlock.",
		}
	case dbExists && !kcExists:
		return models.VaultState{
			DBExists: true,
			State:    models.StateKeychainLost,
			Message:  "Vault database exists but keychain entry is missing. Data cannot be recovered without the original passphrase.",
		}
	default:
		return models.VaultState{
			KeychainExists: true,
			State:          models.StateStaleKeychain,
			Message:        "Stale keychain entries found without database. Cleanup recommended.",
		}
	}
}

// Create provisions a new vault protected by passphrase.
//
// The ordering is the point: the keychain is written only after a fully
// initialized encrypted database exists, eliminating the orphan-keychain
// class of bugs.
//
//  1. Generate VaultKey and Salt.
//  2. Derive KEK from passphrase + Salt; wrap VaultKey.
//  3. Create the encrypted database and run the schema migrations. On any
//     failure, delete the partial file and return without touching the
//     keychain.
//  4. Store Salt, then WrappedVaultKey. If either write fails, delete the
//     database and clear whatever keychain entries were written.
func (v *Vault) Create(passphrase string) error {
	if v.dbExists() {
		return ErrAlreadyExists
	}

	vaultKey, err := v.keys.GenerateVaultKey()
	if err != nil {
		return fmt.Errorf("generate vault key: %w", err)
	}
	salt, err := v.keys.GenerateSalt()
	if err != nil {
		crypto.Zeroize(vaultKey)
		return fmt.Errorf("generate salt: %w", err)
	}

	kek, err := v.keys.DeriveKEK(passphrase, salt)
	if err != nil {
		crypto.Zeroize(vaultKey)
		return err
	}
	wrapped, err := v.keys.Wrap(kek, vaultKey)
	crypto.Zeroize(kek)
	if err != nil {
		crypto.Zeroize(vaultKey)
		return fmt.Errorf("wrap vault key: %w", err)
	}

	if err := os.MkdirAll(v.dataDir, 0o700); err != nil {
		crypto.Zeroize(vaultKey)
		return fmt.Errorf("create data dir: %w", err)
	}

	db, err := v.openEncrypted(vaultKey)
	if err != nil {
		v.removePartialDB(nil)
		crypto.Zeroize(vaultKey)
		return fmt.Errorf("open database: %w", err)
	}

	if err := migrations.Migrate(db, v.log); err != nil {
		v.removePartialDB(db)
		crypto.Zeroize(vaultKey)
		return fmt.Errorf("initialize schema: %w", err)
	}

	// Keychain writes happen last, after the database is fully usable.
	if err := v.keychain.StoreSalt(salt); err != nil {
		v.removePartialDB(db)
		crypto.Zeroize(vaultKey)
		return err
	}
	if err := v.keychain.StoreWrappedKey(wrapped); err != nil {
		var cleanup errsx.Map
		v.removePartialDB(db)
		if clearErr := v.keychain.ClearKeychain(); clearErr != nil {
			cleanup.Set("clear keychain", clearErr)
		}
		crypto.Zeroize(vaultKey)
		if !cleanup.IsEmpty() {
			v.log.Warn().Err(cleanup.AsError()).Msg("vault create rollback incomplete")
		}
		return err
	}

	v.db = db
	v.vaultKey = vaultKey
	v.salt = salt
	v.log.Info().Msg("vault created")
	return nil
}

// Unlock opens an existing vault with the passphrase.
//
// Wrong-passphrase and unwrap failures are indistinguishable to the caller:
// both surface as ErrInvalidPassphrase after the state check passes, and the
// vault stays in Ready.
func (v *Vault) Unlock(passphrase string) error {
	state := v.State()
	switch state.State {
	case models.StateUnlocked:
		return nil
	case models.StateNoVault:
		return ErrNotInitialized
	case models.StateKeychainLost:
		return ErrKeychainLost
	case models.StateStaleKeychain:
		return ErrStaleKeychain
	}

	salt, err := v.keychain.RetrieveSalt()
	if err != nil {
		return err
	}
	wrapped, err := v.keychain.RetrieveWrappedKey()
	if err != nil {
		return err
	}

	kek, err := v.keys.DeriveKEK(passphrase, salt)
	if err != nil {
		return err
	}
	vaultKey, err := v.keys.Unwrap(kek, wrapped)
	crypto.Zeroize(kek)
	if err != nil {
		return ErrInvalidPassphrase
	}

	db, err := v.openEncrypted(vaultKey)
	if err != nil {
		crypto.Zeroize(vaultKey)
		return ErrInvalidPassphrase
	}

	// Benign catalog read: fails when the key does not match the file.
	var count int
	if err := db.QueryRow(`SELECT count(*) FROM sqlite_master`).Scan(&count); err != nil {
		db.Close()
		crypto.Zeroize(vaultKey)
		return ErrInvalidPassphrase
	}

	if err := migrations.Migrate(db, v.log); err != nil {
		db.Close()
		crypto.Zeroize(vaultKey)
		return fmt.Errorf("run migrations: %w", err)
	}

	v.db = db
	v.vaultKey = vaultKey
	v.salt = salt
	v.log.Info().Msg("vault unlocked")
	return nil
}

// Lock drops the connection and zeroizes key material. Writes are durable
// per operation, so no flush is required.
func (v *Vault) Lock() {
	if v.db != nil {
		v.db.Close()
		v.db = nil
	}
	crypto.Zeroize(v.vaultKey)
	v.vaultKey = nil
	crypto.Zeroize(v.salt)
	v.salt = nil
	v.log.Info().Msg("vault locked")
}

// ChangePassphrase rewraps the vault key under a KEK derived from the new
// passphrase with a fresh salt. Requires the vault to be unlocked; the
// database key itself does not change.
func (v *Vault) ChangePassphrase(newPassphrase string) error {
	if !v.IsUnlocked() {
		return ErrLocked
	}

	salt, err := v.keys.GenerateSalt()
	if err != nil {
		return fmt.Errorf("generate salt: %w", err)
	}
	kek, err := v.keys.DeriveKEK(newPassphrase, salt)
	if err != nil {
		return err
	}
	wrapped, err := v.keys.Wrap(kek, v.vaultKey)
	crypto.Zeroize(kek)
	if err != nil {
		return fmt.Errorf("wrap vault key: %w", err)
	}

	if err := v.keychain.StoreSalt(salt); err != nil {
		return err
	}
	if err := v.keychain.StoreWrappedKey(wrapped); err != nil {
		return err
	}

	crypto.Zeroize(v.salt)
	v.salt = salt
	v.log.Info().Msg("passphrase changed")
	return nil
}

// ClearStaleKeychain removes keychain entries left behind after the database
// file disappeared. Refused while a database exists.
func (v *Vault) ClearStaleKeychain() error {
	if v.dbExists() {
		return fmt.Errorf("%w: cannot clear keychain while database exists", ErrInternal)
	}
	if err := v.keychain.ClearKeychain(); err != nil {
		return err
	}
	v.log.Info().Msg("cleared stale keychain entries")
	return nil
}

// DeleteVaultDB removes the database file to recover from KeychainLost.
// Destructive: the data is unrecoverable. Refused while unlocked.
func (v *Vault) DeleteVaultDB() error {
	if v.db != nil {
		return fmt.Errorf("%w: cannot delete while vault is unlocked", ErrInternal)
	}
	if err := os.Remove(v.vaultPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: delete vault database: %w", ErrInternal, err)
	}
	v.log.Info().Msg("deleted vault database")
	return nil
}

// Salt exposes the vault salt for path-hash derivation on exports.
// Only valid while unlocked.
func (v *Vault) Salt() ([]byte, error) {
	if !v.IsUnlocked() {
		return nil, ErrLocked
	}
	out := make([]byte, len(v.salt))
	copy(out, v.salt)
	return out, nil
}

// DB exposes the live connection for append-only audit writes sharing the
// vault transaction scope.
func (v *Vault) DB() (*sql.DB, error) {
	if v.db == nil {
		return nil, ErrLocked
	}
	return v.db, nil
}

func (v *Vault) conn() (*sql.DB, error) {
	if v.db == nil {
		return nil, ErrLocked
	}
	return v.db, nil
}

// openEncrypted opens the database file and applies the SQLCipher key.
// The pool is pinned to a single connection so the key pragma and every
// subsequent statement share one session.
func (v *Vault) openEncrypted(vaultKey []byte) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", v.vaultPath()+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	keyPragma := fmt.Sprintf(`PRAGMA key = "x'%s'"`, hex.EncodeToString(vaultKey))
	if _, err := db.Exec(keyPragma); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// removePartialDB closes the half-created database and deletes its file.
func (v *Vault) removePartialDB(db *sql.DB) {
	if db != nil {
		db.Close()
	}
	if err := os.Remove(v.vaultPath()); err != nil && !os.IsNotExist(err) {
		v.log.Warn().Err(err).Msg("failed to remove partial vault database")
	}
	// WAL sidecar files, if any.
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(v.vaultPath() + suffix); err != nil && !os.IsNotExist(err) {
			v.log.Warn().Err(err).Msg("failed to remove vault sidecar file")
		}
	}
}

// notFound maps sql.ErrNoRows onto the vault taxonomy with a resource label.
func notFound(err error, resource, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s %s", ErrNotFound, resource, id)
	}
	return err
}
