package audit

import (
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/clinvault/clinvault/models"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE audit_log (
		id TEXT PRIMARY KEY,
		timestamp INTEGER NOT NULL,
		sequence INTEGER NOT NULL,
		event_type TEXT NOT NULL,
		resource_type TEXT NOT NULL,
		resource_id TEXT NOT NULL,
		outcome TEXT NOT NULL,
		detection_ids TEXT,
		path_class TEXT,
		path_hash TEXT,
		previous_hash TEXT NOT NULL,
		entry_hash TEXT NOT NULL
	)`)
	if err != nil {
		t.Fatalf("create audit_log: %v", err)
	}
	return db
}

func TestVerifyChain_EmptyLogIsClean(t *testing.T) {
	db := openTestDB(t)
	if err := VerifyChain(db); err != nil {
		t.Fatalf("VerifyChain on empty log: %v", err)
	}
}

func TestLogEvent_ChainsFromGenesis(t *testing.T) {
	db := openTestDB(t)

	first, err := LogEvent(db, models.AuditNoteCreated, models.ResourceNote, "note-1", models.OutcomeSuccess, nil)
	if err != nil {
		t.Fatalf("LogEvent error: %v", err)
	}
	if first.PreviousHash != "genesis" {
		t.Fatalf("first previous_hash = %q, want genesis", first.PreviousHash)
	}
	if first.Sequence != 1 {
		t.Fatalf("first sequence = %d, want 1", first.Sequence)
	}

	second, err := LogEvent(db, models.AuditNoteSigned, models.ResourceNote, "note-1", models.OutcomeSuccess, nil)
	if err != nil {
		t.Fatalf("LogEvent error: %v", err)
	}
	if second.PreviousHash != first.EntryHash {
		t.Fatalf("second previous_hash does not reference first entry_hash")
	}
	if second.Sequence != 2 {
		t.Fatalf("second sequence = %d, want 2", second.Sequence)
	}

	if err := VerifyChain(db); err != nil {
		t.Fatalf("VerifyChain: %v", err)
	}
}

func TestLogEvent_RejectsPathSeparatorsInResourceID(t *testing.T) {
	db := openTestDB(t)

	if _, err := LogEvent(db, models.AuditNoteCreated, models.ResourceNote, "notes/evil", models.OutcomeSuccess, nil); err == nil {
		t.Fatalf("expected rejection of resource id with path separator")
	}
	if _, err := LogEvent(db, models.AuditNoteCreated, models.ResourceNote, `notes\evil`, models.OutcomeSuccess, nil); err == nil {
		t.Fatalf("expected rejection of resource id with backslash")
	}
}

func TestLogExportEvent_RecordsClassAndHashOnly(t *testing.T) {
	db := openTestDB(t)

	pathHash := "5feceb66ffc86f38d952786c6d696c79c2dbc239dd4e91b46729d73a27fb57e9"
	entry, err := LogExportEvent(db, "note-1", models.OutcomeSuccess, models.PathCloudSync, pathHash)
	if err != nil {
		t.Fatalf("LogExportEvent error: %v", err)
	}

	if entry.PathClass == nil || *entry.PathClass != "cloud_sync" {
		t.Fatalf("path_class = %v, want cloud_sync", entry.PathClass)
	}
	if entry.PathHash == nil || len(*entry.PathHash) != 64 {
		t.Fatalf("path_hash must be 64 hex chars, got %v", entry.PathHash)
	}
	if err := VerifyChain(db); err != nil {
		t.Fatalf("VerifyChain: %v", err)
	}
}

func TestVerifyChain_TamperedFieldYieldsHashMismatch(t *testing.T) {
	db := openTestDB(t)

	for _, id := range []string{"a", "b", "c"} {
		if _, err := LogEvent(db, models.AuditNoteCreated, models.ResourceNote, id, models.OutcomeSuccess, nil); err != nil {
			t.Fatalf("LogEvent error: %v", err)
		}
	}

	// Flip the middle entry's resource id out from under its hash.
	if _, err := db.Exec(`UPDATE audit_log SET resource_id = 'z' WHERE sequence = 2`); err != nil {
		t.Fatalf("tamper update: %v", err)
	}

	err := VerifyChain(db)
	var mismatch *HashMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("VerifyChain error = %v, want HashMismatchError", err)
	}
	if mismatch.Index != 1 {
		t.Fatalf("mismatch index = %d, want 1", mismatch.Index)
	}
}

func TestVerifyChain_TamperedOutcomeYieldsHashMismatch(t *testing.T) {
	db := openTestDB(t)

	for _, id := range []string{"a", "b"} {
		if _, err := LogEvent(db, models.AuditNoteCreated, models.ResourceNote, id, models.OutcomeSuccess, nil); err != nil {
			t.Fatalf("LogEvent error: %v", err)
		}
	}

	if _, err := db.Exec(`UPDATE audit_log SET outcome = 'failure' WHERE sequence = 2`); err != nil {
		t.Fatalf("tamper update: %v", err)
	}

	err := VerifyChain(db)
	var mismatch *HashMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("VerifyChain error = %v, want HashMismatchError", err)
	}
	if mismatch.Index != 1 {
		t.Fatalf("mismatch index = %d, want 1", mismatch.Index)
	}
}

func TestVerifyChain_SequenceGapYieldsChainBroken(t *testing.T) {
	db := openTestDB(t)

	for _, id := range []string{"a", "b", "c"} {
		if _, err := LogEvent(db, models.AuditNoteCreated, models.ResourceNote, id, models.OutcomeSuccess, nil); err != nil {
			t.Fatalf("LogEvent error: %v", err)
		}
	}
	if _, err := db.Exec(`DELETE FROM audit_log WHERE sequence = 2`); err != nil {
		t.Fatalf("delete: %v", err)
	}

	err := VerifyChain(db)
	var broken *ChainBrokenError
	if !errors.As(err, &broken) {
		t.Fatalf("VerifyChain error = %v, want ChainBrokenError", err)
	}
}

func TestEntries_NewestFirstWithDetectionIDs(t *testing.T) {
	db := openTestDB(t)

	if _, err := LogEvent(db, models.AuditNoteCreated, models.ResourceNote, "n1", models.OutcomeSuccess, nil); err != nil {
		t.Fatalf("LogEvent error: %v", err)
	}
	if _, err := LogEvent(db, models.AuditEthicsDetectionTriggered, models.ResourceNote, "n1", models.OutcomeBlocked, []string{"det-1", "det-2"}); err != nil {
		t.Fatalf("LogEvent error: %v", err)
	}

	entries, err := Entries(db, 10, 0)
	if err != nil {
		t.Fatalf("Entries error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].Sequence != 2 {
		t.Fatalf("entries not newest-first: first sequence = %d", entries[0].Sequence)
	}
	if len(entries[0].DetectionIDs) != 2 {
		t.Fatalf("detection ids = %v, want two", entries[0].DetectionIDs)
	}
	if entries[0].Outcome != models.OutcomeBlocked {
		t.Fatalf("outcome = %s, want blocked", entries[0].Outcome)
	}
}
