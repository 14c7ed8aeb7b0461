package app

import (
	"context"
	"errors"
	"testing"

	"github.com/clinvault/clinvault/internal/crypto"
	"github.com/clinvault/clinvault/internal/logger"
	"github.com/clinvault/clinvault/internal/store"
	"github.com/clinvault/clinvault/internal/validators"
	"github.com/clinvault/clinvault/models"
)

const passphrase = "orchestrator test passphrase"

func newOrchestrator(t *testing.T, opts Options) *Orchestrator {
	t.Helper()
	vault := store.NewVault(t.TempDir(), crypto.NewKeyService(), crypto.NewMemoryKeychain(), logger.Nop())
	o := New(vault, opts, logger.Nop())
	t.Cleanup(o.Lock)
	return o
}

func TestLifecycle_CreateLockUnlock(t *testing.T) {
	o := newOrchestrator(t, Options{})

	if got := o.State().State; got != models.StateNoVault {
		t.Fatalf("initial state = %s", got)
	}
	if err := o.CreateVault(passphrase); err != nil {
		t.Fatalf("CreateVault error: %v", err)
	}
	if got := o.State().State; got != models.StateUnlocked {
		t.Fatalf("state after create = %s", got)
	}

	o.Lock()
	if got := o.State().State; got != models.StateReady {
		t.Fatalf("state after lock = %s", got)
	}

	if err := o.Unlock("wrong"); !errors.Is(err, store.ErrInvalidPassphrase) {
		t.Fatalf("wrong passphrase: err = %v", err)
	}
	if err := o.Unlock(passphrase); err != nil {
		t.Fatalf("Unlock error: %v", err)
	}

	// Lifecycle events are on the audit chain.
	if err := o.VerifyAuditChain(); err != nil {
		t.Fatalf("VerifyAuditChain: %v", err)
	}
	entries, err := o.AuditEntries(50, 0)
	if err != nil {
		t.Fatalf("AuditEntries error: %v", err)
	}
	var unlocked, locked int
	for _, e := range entries {
		switch e.EventType {
		case models.AuditVaultUnlocked:
			unlocked++
		case models.AuditVaultLocked:
			locked++
		}
	}
	if unlocked < 2 || locked < 1 {
		t.Fatalf("lifecycle audit rows missing: unlocked=%d locked=%d", unlocked, locked)
	}
}

func TestCreateNote_ValidatesInputs(t *testing.T) {
	o := newOrchestrator(t, Options{})
	if err := o.CreateVault(passphrase); err != nil {
		t.Fatalf("CreateVault error: %v", err)
	}
	client, err := o.CreateClient("Client One")
	if err != nil {
		t.Fatalf("CreateClient error: %v", err)
	}

	ctx := context.Background()
	if _, err := o.CreateNote(ctx, client.ID, "15/01/2025", models.NoteTypeProgress, "body"); !errors.Is(err, validators.ErrInvalidSessionDate) {
		t.Fatalf("bad date: err = %v", err)
	}
	if _, err := o.CreateNote(ctx, client.ID, "2025-01-15", models.NoteTypeProgress, "  "); !errors.Is(err, validators.ErrEmptyNoteBody) {
		t.Fatalf("empty body: err = %v", err)
	}
	if _, err := o.CreateNote(ctx, client.ID, "2025-01-15", models.NoteTypeProgress, "real content"); err != nil {
		t.Fatalf("valid note: err = %v", err)
	}
}

// fakeEthics returns fixed detection IDs.
type fakeEthics struct {
	ids []string
}

func (f *fakeEthics) Scan(_ context.Context, _ string) ([]string, error) {
	return f.ids, nil
}

func TestCreateNote_EthicsDetectionsAttachedAndAudited(t *testing.T) {
	o := newOrchestrator(t, Options{Ethics: &fakeEthics{ids: []string{"det-9"}}})
	if err := o.CreateVault(passphrase); err != nil {
		t.Fatalf("CreateVault error: %v", err)
	}
	client, err := o.CreateClient("Client Two")
	if err != nil {
		t.Fatalf("CreateClient error: %v", err)
	}

	note, err := o.CreateNote(context.Background(), client.ID, "2025-01-15", models.NoteTypeProgress, "content")
	if err != nil {
		t.Fatalf("CreateNote error: %v", err)
	}
	if len(note.DetectionIDs) != 1 || note.DetectionIDs[0] != "det-9" {
		t.Fatalf("detections = %v", note.DetectionIDs)
	}

	entries, err := o.AuditEntries(50, 0)
	if err != nil {
		t.Fatalf("AuditEntries error: %v", err)
	}
	found := false
	for _, e := range entries {
		if e.EventType == models.AuditEthicsDetectionTriggered && e.Outcome == models.OutcomeBlocked {
			found = true
			if len(e.DetectionIDs) != 1 {
				t.Fatalf("audit detections = %v", e.DetectionIDs)
			}
		}
	}
	if !found {
		t.Fatalf("ethics detection audit row missing")
	}
}

func TestDeidentify_PersistsAudit(t *testing.T) {
	o := newOrchestrator(t, Options{})
	if err := o.CreateVault(passphrase); err != nil {
		t.Fatalf("CreateVault error: %v", err)
	}

	result, auditRow, err := o.Deidentify(context.Background(), nil, nil,
		"Jane Doe, DOB 1974-03-02, MRN 00123, lives in 90210", false)
	if err != nil {
		t.Fatalf("Deidentify error: %v", err)
	}
	if result.OriginalHash == result.DeidentifiedHash {
		t.Fatalf("hashes equal despite identifiers found")
	}
	if auditRow.CategorySummary["name"] != 1 || auditRow.CategorySummary["mrn"] != 1 {
		t.Fatalf("category summary = %v", auditRow.CategorySummary)
	}

	draft, err := o.CreateConsultationDraft(result.DeidentifiedText, "Case question", "Medication interactions?", []string{"psychiatry"}, "routine", auditRow.ID)
	if err != nil {
		t.Fatalf("CreateConsultationDraft error: %v", err)
	}
	if draft.Status != models.ConsultationDraftState {
		t.Fatalf("draft status = %s", draft.Status)
	}
}

func TestSearchClients_Audited(t *testing.T) {
	o := newOrchestrator(t, Options{})
	if err := o.CreateVault(passphrase); err != nil {
		t.Fatalf("CreateVault error: %v", err)
	}
	if _, err := o.CreateClient("Searchable"); err != nil {
		t.Fatalf("CreateClient error: %v", err)
	}

	if _, err := o.SearchClients("searchable"); err != nil {
		t.Fatalf("SearchClients error: %v", err)
	}

	entries, err := o.AuditEntries(50, 0)
	if err != nil {
		t.Fatalf("AuditEntries error: %v", err)
	}
	found := false
	for _, e := range entries {
		if e.EventType == models.AuditSearchExecuted {
			found = true
			// The query text must not be in the audit record.
			if e.ResourceID != "search" {
				t.Fatalf("search audit resource id = %q", e.ResourceID)
			}
		}
	}
	if !found {
		t.Fatalf("search audit row missing")
	}
}

func TestLockedOperationsFail(t *testing.T) {
	o := newOrchestrator(t, Options{})

	if _, err := o.ListClients(); !errors.Is(err, store.ErrLocked) {
		t.Fatalf("ListClients locked: err = %v", err)
	}
	if err := o.VerifyAuditChain(); !errors.Is(err, store.ErrLocked) {
		t.Fatalf("VerifyAuditChain locked: err = %v", err)
	}
}
