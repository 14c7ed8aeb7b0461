// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clinvault Authors

// Package app wires the core components behind a single mutex-guarded
// orchestrator. Every public operation acquires the lock, dispatches, and
// releases; no plaintext derived from vault rows is cached between calls.
package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/clinvault/clinvault/internal/adapter"
	"github.com/clinvault/clinvault/internal/audit"
	"github.com/clinvault/clinvault/internal/clipboard"
	"github.com/clinvault/clinvault/internal/deidentify"
	"github.com/clinvault/clinvault/internal/export"
	"github.com/clinvault/clinvault/internal/logger"
	"github.com/clinvault/clinvault/internal/pathclass"
	"github.com/clinvault/clinvault/internal/store"
	"github.com/clinvault/clinvault/internal/validators"
	"github.com/clinvault/clinvault/models"
)

// Orchestrator is the in-process state holder coordinating the vault, the
// audit log, the de-identification engine, the exporter, and the clipboard.
type Orchestrator struct {
	mu sync.Mutex

	vault     *store.Vault
	exporter  *export.Exporter
	deid      *deidentify.Engine
	clipboard *clipboard.Manager

	// llm and ethics are optional collaborators; nil when the services are
	// not running.
	llm    adapter.LLM
	ethics adapter.EthicsDetector

	log *logger.Logger
}

// Options carries the optional collaborators.
type Options struct {
	LLM       adapter.LLM
	Ethics    adapter.EthicsDetector
	Clipboard *clipboard.Manager
}

// New constructs the orchestrator over an existing vault.
func New(vault *store.Vault, opts Options, log *logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.Nop()
	}
	cb := opts.Clipboard
	if cb == nil {
		cb = clipboard.NewManager(clipboard.DefaultPolicy(), log)
	}
	return &Orchestrator{
		vault:     vault,
		exporter:  export.NewExporter(vault),
		deid:      deidentify.NewEngine(),
		clipboard: cb,
		llm:       opts.LLM,
		ethics:    opts.Ethics,
		log:       log,
	}
}

// ---- Lifecycle ----

// State reports the vault lifecycle state.
func (o *Orchestrator) State() models.VaultState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.vault.State()
}

// IsUnlocked reports whether the vault is open.
func (o *Orchestrator) IsUnlocked() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.vault.IsUnlocked()
}

// CreateVault provisions a new vault and audits the initial unlock.
func (o *Orchestrator) CreateVault(passphrase string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.vault.Create(passphrase); err != nil {
		return err
	}
	o.auditVaultEvent(models.AuditVaultUnlocked, models.OutcomeSuccess)
	return nil
}

// Unlock opens the vault. Only a successful unlock is audited; a failed
// unlock, including a wrong passphrase, appends no audit entry.
func (o *Orchestrator) Unlock(passphrase string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.vault.Unlock(passphrase); err != nil {
		return err
	}
	o.auditVaultEvent(models.AuditVaultUnlocked, models.OutcomeSuccess)
	return nil
}

// Lock audits and closes the vault.
func (o *Orchestrator) Lock() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.vault.IsUnlocked() {
		o.auditVaultEvent(models.AuditVaultLocked, models.OutcomeSuccess)
	}
	o.vault.Lock()
}

// ChangePassphrase rewraps the vault key and audits the change.
func (o *Orchestrator) ChangePassphrase(newPassphrase string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.vault.ChangePassphrase(newPassphrase); err != nil {
		return err
	}
	o.auditVaultEvent(models.AuditPassphraseChanged, models.OutcomeSuccess)
	return nil
}

// ClearStaleKeychain removes orphaned keychain entries.
func (o *Orchestrator) ClearStaleKeychain() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.vault.ClearStaleKeychain()
}

// DeleteVaultDB destroys the vault database (KeychainLost remediation).
func (o *Orchestrator) DeleteVaultDB() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.vault.DeleteVaultDB()
}

// VerifyAuditChain checks the full hash chain.
func (o *Orchestrator) VerifyAuditChain() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	db, err := o.vault.DB()
	if err != nil {
		return err
	}
	return audit.VerifyChain(db)
}

// AuditEntries pages through the audit log, newest first.
func (o *Orchestrator) AuditEntries(limit, offset int64) ([]models.AuditEntry, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	db, err := o.vault.DB()
	if err != nil {
		return nil, err
	}
	return audit.Entries(db, limit, offset)
}

// ---- Clients ----

// CreateClient validates and stores a client, auditing the creation.
func (o *Orchestrator) CreateClient(displayName string) (models.Client, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := validators.ValidateDisplayName(displayName); err != nil {
		return models.Client{}, err
	}
	client, err := o.vault.CreateClient(displayName)
	if err != nil {
		return models.Client{}, err
	}
	o.auditEvent(models.AuditClientCreated, models.ResourceClient, client.ID, models.OutcomeSuccess)
	return client, nil
}

// ListClients returns the roster.
func (o *Orchestrator) ListClients() ([]models.Client, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.vault.ListClients()
}

// GetClient fetches one client.
func (o *Orchestrator) GetClient(id string) (models.Client, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.vault.GetClient(id)
}

// UpdateClient validates and persists profile changes, auditing the update.
func (o *Orchestrator) UpdateClient(client models.Client) (models.Client, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := validators.ValidateDisplayName(client.DisplayName); err != nil {
		return models.Client{}, err
	}
	updated, err := o.vault.UpdateClient(client)
	if err != nil {
		return models.Client{}, err
	}
	o.auditEvent(models.AuditClientUpdated, models.ResourceClient, client.ID, models.OutcomeSuccess)
	return updated, nil
}

// SearchClients runs the search grammar and audits the execution (the query
// text itself stays out of the log).
func (o *Orchestrator) SearchClients(query string) ([]models.ClientSearchResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	results, err := o.vault.SearchClients(query)
	if err != nil {
		return nil, err
	}
	o.auditEvent(models.AuditSearchExecuted, models.ResourceClient, "search", models.OutcomeSuccess)
	return results, nil
}

// ---- Notes ----

// CreateNote validates, sanitizes, persists, and — when an ethics detector
// is wired — scans the stored note, attaching detection IDs and auditing any
// trigger.
func (o *Orchestrator) CreateNote(ctx context.Context, clientID, sessionDate string, noteType models.NoteType, rawInput string) (models.Note, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := validators.ValidateSessionDate(sessionDate); err != nil {
		return models.Note{}, err
	}
	if err := validators.ValidateNoteBody(rawInput); err != nil {
		return models.Note{}, err
	}

	note, err := o.vault.CreateNote(clientID, sessionDate, noteType, rawInput)
	if err != nil {
		return models.Note{}, err
	}

	if o.ethics != nil {
		detectionIDs, scanErr := o.ethics.Scan(ctx, note.RawInput)
		if scanErr != nil {
			o.log.Warn().Err(scanErr).Msg("ethics scan failed")
		} else if len(detectionIDs) > 0 {
			if err := o.vault.UpdateNoteDetections(note.ID, detectionIDs); err != nil {
				return models.Note{}, err
			}
			note.DetectionIDs = detectionIDs
			o.auditDetectionEvent(note.ID, detectionIDs)
		}
	}

	return note, nil
}

// GetNote fetches one note.
func (o *Orchestrator) GetNote(id string) (models.Note, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.vault.GetNote(id)
}

// ListNotes lists notes, optionally for one client.
func (o *Orchestrator) ListNotes(clientID *string) ([]models.Note, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.vault.ListNotes(clientID)
}

// UpdateNote edits a draft note.
func (o *Orchestrator) UpdateNote(id, rawInput string) (models.Note, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := validators.ValidateNoteBody(rawInput); err != nil {
		return models.Note{}, err
	}
	note, err := o.vault.UpdateNote(id, rawInput)
	if err != nil {
		return models.Note{}, err
	}
	o.auditEvent(models.AuditNoteUpdated, models.ResourceNote, id, models.OutcomeSuccess)
	return note, nil
}

// SignNote transitions a draft to Signed with its attestation payload.
func (o *Orchestrator) SignNote(id, attestationsJSON string) (models.Note, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.vault.SignNote(id, attestationsJSON)
}

// AmendNote appends an amendment to a signed note.
func (o *Orchestrator) AmendNote(id, amendmentText, reason string) (models.Note, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := validators.ValidateAmendment(amendmentText, reason); err != nil {
		return models.Note{}, err
	}
	return o.vault.AmendNote(id, amendmentText, reason)
}

// DeleteNote removes a draft note.
func (o *Orchestrator) DeleteNote(id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.vault.DeleteNote(id)
}

// TreatmentProgress summarizes a client's trajectory.
func (o *Orchestrator) TreatmentProgress(clientID string) (models.TreatmentProgress, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.vault.TreatmentProgress(clientID)
}

// PrepSheet builds the pre-session briefing.
func (o *Orchestrator) PrepSheet(clientID string) (models.PrepSheet, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.vault.PrepSheet(clientID)
}

// ---- De-identification and consultation ----

// Deidentify runs the Safe Harbor engine over text, optionally polishes the
// result with the local model (which sees de-identified text only), and
// persists the compliance audit record.
func (o *Orchestrator) Deidentify(ctx context.Context, noteID, clientID *string, text string, withPolish bool) (models.DeidentificationResult, models.DeidentificationAudit, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	var (
		result   models.DeidentificationResult
		enhanced bool
	)
	if withPolish && o.llm != nil {
		result, enhanced = o.deid.DeidentifyWithPolish(ctx, text, o.llm)
	} else {
		result = o.deid.Deidentify(text)
	}

	auditRow, err := o.vault.SaveDeidentificationAudit(noteID, clientID, result, enhanced)
	if err != nil {
		return models.DeidentificationResult{}, models.DeidentificationAudit{}, err
	}
	return result, auditRow, nil
}

// CreateConsultationDraft queues de-identified content for consultation.
func (o *Orchestrator) CreateConsultationDraft(content, title, question string, specialties []string, urgency, auditID string) (models.ConsultationDraft, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.vault.CreateConsultationDraft(content, title, question, specialties, urgency, auditID)
}

// ---- Export ----

// ClassifyExportPath returns the path verdict for a prospective export so
// callers can surface the confirmation prompt.
func (o *Orchestrator) ClassifyExportPath(targetPath string) models.PathClassResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	return pathclass.Classify(targetPath)
}

// ExportNote renders a note and writes it through the export pipeline.
func (o *Orchestrator) ExportNote(noteID, targetPath string, confirmed bool) (export.Result, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	note, err := o.vault.GetNote(noteID)
	if err != nil {
		return export.Result{}, err
	}

	content := fmt.Sprintf("Session date: %s\nType: %s\nStatus: %s\n\n%s\n",
		note.SessionDate, note.NoteType, note.Status, note.RawInput)

	return o.exporter.Export(export.Request{
		ResourceID: note.ID,
		TargetPath: targetPath,
		Content:    []byte(content),
		Confirmed:  confirmed,
	})
}

// ---- Clipboard ----

// CopyToClipboard places text on the clipboard under the auto-clear policy.
func (o *Orchestrator) CopyToClipboard(text string) error {
	// The clipboard manager has its own synchronization; holding the vault
	// lock across a timer-driven subsystem is unnecessary.
	return o.clipboard.Copy(text)
}

// ClearClipboard empties the clipboard immediately.
func (o *Orchestrator) ClearClipboard() error {
	return o.clipboard.Clear()
}

// ---- Audit helpers ----

func (o *Orchestrator) auditEvent(eventType models.AuditEventType, resourceType models.AuditResourceType, resourceID string, outcome models.AuditOutcome) {
	db, err := o.vault.DB()
	if err != nil {
		return
	}
	if _, err := audit.LogEvent(db, eventType, resourceType, resourceID, outcome, nil); err != nil {
		o.log.Warn().Err(err).Str("event", string(eventType)).Msg("audit append failed")
	}
}

func (o *Orchestrator) auditVaultEvent(eventType models.AuditEventType, outcome models.AuditOutcome) {
	db, err := o.vault.DB()
	if err != nil {
		return
	}
	if _, err := audit.LogEvent(db, eventType, models.ResourceVault, "vault", outcome, nil); err != nil {
		o.log.Warn().Err(err).Str("event", string(eventType)).Msg("audit append failed")
	}
}

func (o *Orchestrator) auditDetectionEvent(noteID string, detectionIDs []string) {
	db, err := o.vault.DB()
	if err != nil {
		return
	}
	if _, err := audit.LogEvent(db, models.AuditEthicsDetectionTriggered, models.ResourceNote, noteID, models.OutcomeBlocked, detectionIDs); err != nil {
		o.log.Warn().Err(err).Msg("audit append failed")
	}
}
