package export

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/clinvault/clinvault/internal/audit"
	"github.com/clinvault/clinvault/internal/crypto"
	"github.com/clinvault/clinvault/internal/logger"
	"github.com/clinvault/clinvault/internal/store"
	"github.com/clinvault/clinvault/models"
)

func newUnlockedVault(t *testing.T) *store.Vault {
	t.Helper()
	v := store.NewVault(t.TempDir(), crypto.NewKeyService(), crypto.NewMemoryKeychain(), logger.Nop())
	if err := v.Create("export test passphrase"); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	t.Cleanup(v.Lock)
	return v
}

func TestExport_SafeDestinationWrites(t *testing.T) {
	v := newUnlockedVault(t)
	e := NewExporter(v)

	target := filepath.Join(t.TempDir(), "note.txt")
	result, err := e.Export(Request{
		ResourceID: "note-1",
		TargetPath: target,
		Content:    []byte("exported content"),
	})
	if err != nil {
		t.Fatalf("Export error: %v", err)
	}
	if !result.Written {
		t.Fatalf("expected write")
	}
	if result.Classification.Classification != models.PathSafe {
		t.Fatalf("classification = %s, want safe", result.Classification.Classification)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if string(data) != "exported content" {
		t.Fatalf("export content mismatch")
	}

	db, err := v.DB()
	if err != nil {
		t.Fatalf("DB error: %v", err)
	}
	entries, err := audit.Entries(db, 10, 0)
	if err != nil {
		t.Fatalf("audit entries: %v", err)
	}

	var exportEntry *models.AuditEntry
	for i := range entries {
		if entries[i].EventType == models.AuditExportCreated {
			exportEntry = &entries[i]
		}
	}
	if exportEntry == nil {
		t.Fatalf("export audit row missing")
	}
	if exportEntry.PathClass == nil || *exportEntry.PathClass != "safe" {
		t.Fatalf("path_class = %v, want safe", exportEntry.PathClass)
	}
	if exportEntry.PathHash == nil || len(*exportEntry.PathHash) != 64 {
		t.Fatalf("path_hash must be 64 hex chars")
	}
	// The audit record must not contain the destination path.
	if exportEntry.ResourceID != "note-1" {
		t.Fatalf("resource id = %q", exportEntry.ResourceID)
	}
}

func TestExport_CloudSyncRequiresConfirmation(t *testing.T) {
	v := newUnlockedVault(t)
	e := NewExporter(v)

	base := t.TempDir()
	dropbox := filepath.Join(base, "Dropbox")
	if err := os.MkdirAll(dropbox, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	target := filepath.Join(dropbox, "note.txt")

	result, err := e.Export(Request{
		ResourceID: "note-2",
		TargetPath: target,
		Content:    []byte("content"),
	})
	if !errors.Is(err, store.ErrPolicyViolation) {
		t.Fatalf("unconfirmed cloud export: err = %v, want ErrPolicyViolation", err)
	}
	if result.Written {
		t.Fatalf("blocked export still wrote the file")
	}
	if _, statErr := os.Stat(target); !os.IsNotExist(statErr) {
		t.Fatalf("file exists despite blocked export")
	}

	db, err := v.DB()
	if err != nil {
		t.Fatalf("DB error: %v", err)
	}
	entries, err := audit.Entries(db, 10, 0)
	if err != nil {
		t.Fatalf("audit entries: %v", err)
	}
	blocked := false
	for _, e := range entries {
		if e.EventType == models.AuditExportCreated && e.Outcome == models.OutcomeBlocked {
			blocked = true
		}
	}
	if !blocked {
		t.Fatalf("blocked export not audited")
	}

	// With confirmation the export proceeds.
	result, err = e.Export(Request{
		ResourceID: "note-2",
		TargetPath: target,
		Content:    []byte("content"),
		Confirmed:  true,
	})
	if err != nil {
		t.Fatalf("confirmed export error: %v", err)
	}
	if !result.Written {
		t.Fatalf("confirmed export did not write")
	}
}

func TestExport_RequiresUnlockedVault(t *testing.T) {
	v := store.NewVault(t.TempDir(), crypto.NewKeyService(), crypto.NewMemoryKeychain(), logger.Nop())
	e := NewExporter(v)

	_, err := e.Export(Request{ResourceID: "note-3", TargetPath: "/tmp/x", Content: []byte("c")})
	if !errors.Is(err, store.ErrLocked) {
		t.Fatalf("export on locked vault: err = %v, want ErrLocked", err)
	}
}

func TestSaltedPathHash_DependsOnSaltAndPath(t *testing.T) {
	h1 := saltedPathHash([]byte("salt-a"), "/a/b")
	h2 := saltedPathHash([]byte("salt-a"), "/a/b")
	h3 := saltedPathHash([]byte("salt-b"), "/a/b")
	h4 := saltedPathHash([]byte("salt-a"), "/a/c")

	if h1 != h2 {
		t.Fatalf("hash not deterministic")
	}
	if h1 == h3 || h1 == h4 {
		t.Fatalf("hash ignores salt or path")
	}
	if len(h1) != 64 {
		t.Fatalf("hash length = %d, want 64", len(h1))
	}
}
