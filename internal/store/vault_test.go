package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/clinvault/clinvault/internal/crypto"
	"github.com/clinvault/clinvault/internal/logger"
	"github.com/clinvault/clinvault/models"
)

const testPassphrase = "correct horse battery staple"

func newTestVault(t *testing.T) *Vault {
	t.Helper()
	v := NewVault(t.TempDir(), crypto.NewKeyService(), crypto.NewMemoryKeychain(), logger.Nop())
	t.Cleanup(v.Lock)
	return v
}

func newUnlockedVault(t *testing.T) *Vault {
	t.Helper()
	v := newTestVault(t)
	if err := v.Create(testPassphrase); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	return v
}

func TestCreate_FreshDirectory(t *testing.T) {
	v := newTestVault(t)

	if got := v.State().State; got != models.StateNoVault {
		t.Fatalf("initial state = %s, want no_vault", got)
	}

	if err := v.Create(testPassphrase); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	if got := v.State().State; got != models.StateUnlocked {
		t.Fatalf("state after create = %s, want unlocked", got)
	}
	if _, err := os.Stat(filepath.Join(v.dataDir, vaultFileName)); err != nil {
		t.Fatalf("vault.db missing after create: %v", err)
	}
	if !v.keychain.HasVault() {
		t.Fatalf("keychain entries missing after create")
	}
}

func TestCreate_RejectsExistingVault(t *testing.T) {
	v := newUnlockedVault(t)
	v.Lock()

	if err := v.Create(testPassphrase); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("second Create error = %v, want ErrAlreadyExists", err)
	}
}

func TestUnlock_WrongPassphraseLeavesReady(t *testing.T) {
	v := newUnlockedVault(t)
	v.Lock()

	if got := v.State().State; got != models.StateReady {
		t.Fatalf("state after lock = %s, want ready", got)
	}

	err := v.Unlock("wrong passphrase")
	if !errors.Is(err, ErrInvalidPassphrase) {
		t.Fatalf("Unlock error = %v, want ErrInvalidPassphrase", err)
	}
	if got := v.State().State; got != models.StateReady {
		t.Fatalf("state after failed unlock = %s, want ready", got)
	}
}

func TestUnlock_RoundTripPreservesContents(t *testing.T) {
	v := newUnlockedVault(t)

	client, err := v.CreateClient("Roundtrip Client")
	if err != nil {
		t.Fatalf("CreateClient error: %v", err)
	}
	note, err := v.CreateNote(client.ID, "2025-01-15", models.NoteTypeProgress, "Session content here.")
	if err != nil {
		t.Fatalf("CreateNote error: %v", err)
	}

	v.Lock()
	if err := v.Unlock(testPassphrase); err != nil {
		t.Fatalf("Unlock error: %v", err)
	}

	reloaded, err := v.GetNote(note.ID)
	if err != nil {
		t.Fatalf("GetNote after unlock: %v", err)
	}
	if reloaded.RawInput != note.RawInput || reloaded.ContentHash != note.ContentHash {
		t.Fatalf("note contents changed across lock/unlock")
	}
}

func TestUnlock_StateErrors(t *testing.T) {
	v := newTestVault(t)
	if err := v.Unlock(testPassphrase); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("unlock on no_vault: err = %v, want ErrNotInitialized", err)
	}

	// KeychainLost: database present, keychain cleared.
	v2 := newUnlockedVault(t)
	v2.Lock()
	if err := v2.keychain.ClearKeychain(); err != nil {
		t.Fatalf("clear keychain: %v", err)
	}
	if got := v2.State().State; got != models.StateKeychainLost {
		t.Fatalf("state = %s, want keychain_lost", got)
	}
	if err := v2.Unlock(testPassphrase); !errors.Is(err, ErrKeychainLost) {
		t.Fatalf("unlock on keychain_lost: err = %v, want ErrKeychainLost", err)
	}

	// StaleKeychain: keychain present, database gone.
	v3 := newUnlockedVault(t)
	v3.Lock()
	if err := os.Remove(filepath.Join(v3.dataDir, vaultFileName)); err != nil {
		t.Fatalf("remove db: %v", err)
	}
	if got := v3.State().State; got != models.StateStaleKeychain {
		t.Fatalf("state = %s, want stale_keychain", got)
	}
	if err := v3.Unlock(testPassphrase); !errors.Is(err, ErrStaleKeychain) {
		t.Fatalf("unlock on stale_keychain: err = %v, want ErrStaleKeychain", err)
	}
}

func TestClearStaleKeychain(t *testing.T) {
	v := newUnlockedVault(t)
	v.Lock()
	if err := os.Remove(filepath.Join(v.dataDir, vaultFileName)); err != nil {
		t.Fatalf("remove db: %v", err)
	}

	if err := v.ClearStaleKeychain(); err != nil {
		t.Fatalf("ClearStaleKeychain error: %v", err)
	}
	if got := v.State().State; got != models.StateNoVault {
		t.Fatalf("state after cleanup = %s, want no_vault", got)
	}
}

func TestClearStaleKeychain_RefusedWithDatabase(t *testing.T) {
	v := newUnlockedVault(t)
	v.Lock()

	if err := v.ClearStaleKeychain(); !errors.Is(err, ErrInternal) {
		t.Fatalf("ClearStaleKeychain with db present: err = %v, want ErrInternal", err)
	}
}

func TestDeleteVaultDB(t *testing.T) {
	v := newUnlockedVault(t)

	if err := v.DeleteVaultDB(); !errors.Is(err, ErrInternal) {
		t.Fatalf("DeleteVaultDB while unlocked: err = %v, want ErrInternal", err)
	}

	v.Lock()
	if err := v.keychain.ClearKeychain(); err != nil {
		t.Fatalf("clear keychain: %v", err)
	}
	if err := v.DeleteVaultDB(); err != nil {
		t.Fatalf("DeleteVaultDB error: %v", err)
	}
	if got := v.State().State; got != models.StateNoVault {
		t.Fatalf("state after delete = %s, want no_vault", got)
	}
}

func TestLock_ZeroizesKeyMaterial(t *testing.T) {
	v := newUnlockedVault(t)

	key := v.vaultKey
	v.Lock()

	if v.vaultKey != nil || v.db != nil {
		t.Fatalf("lock did not drop connection and key")
	}
	for _, b := range key {
		if b != 0 {
			t.Fatalf("vault key bytes not zeroized")
		}
	}
}

func TestChangePassphrase(t *testing.T) {
	v := newUnlockedVault(t)

	if err := v.ChangePassphrase("a new stronger passphrase"); err != nil {
		t.Fatalf("ChangePassphrase error: %v", err)
	}

	v.Lock()
	if err := v.Unlock(testPassphrase); !errors.Is(err, ErrInvalidPassphrase) {
		t.Fatalf("old passphrase still unlocks: err = %v", err)
	}
	if err := v.Unlock("a new stronger passphrase"); err != nil {
		t.Fatalf("new passphrase failed: %v", err)
	}
}

func TestChangePassphrase_RequiresUnlocked(t *testing.T) {
	v := newUnlockedVault(t)
	v.Lock()

	if err := v.ChangePassphrase("x"); !errors.Is(err, ErrLocked) {
		t.Fatalf("ChangePassphrase while locked: err = %v, want ErrLocked", err)
	}
}

func TestEntityOps_RequireUnlock(t *testing.T) {
	v := newTestVault(t)

	if _, err := v.ListClients(); !errors.Is(err, ErrLocked) {
		t.Fatalf("ListClients locked: err = %v, want ErrLocked", err)
	}
	if _, err := v.CreateClient("x"); !errors.Is(err, ErrLocked) {
		t.Fatalf("CreateClient locked: err = %v, want ErrLocked", err)
	}
}
