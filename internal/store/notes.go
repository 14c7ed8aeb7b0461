package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinvault/clinvault/internal/audit"
	"github.com/clinvault/clinvault/internal/crypto"
	"github.com/clinvault/clinvault/internal/sanitize"
	"github.com/clinvault/clinvault/models"
)

const noteColumns = `id, client_id, session_date, note_type, raw_input, structured_note,
	word_count, status, detection_ids, attestations, content_hash, signed_at,
	created_at, updated_at`

// CreateNote sanitizes and persists a new draft note and increments the
// client's session count in the same transaction. A NoteCreated audit event
// joins that transaction.
func (v *Vault) CreateNote(clientID, sessionDate string, noteType models.NoteType, rawInput string) (models.Note, error) {
	db, err := v.conn()
	if err != nil {
		return models.Note{}, err
	}

	sanitized := sanitize.Sanitize(rawInput)
	now := time.Now().UnixMilli()

	note := models.Note{
		ID:          uuid.NewString(),
		ClientID:    clientID,
		SessionDate: sessionDate,
		NoteType:    noteType,
		RawInput:    sanitized,
		WordCount:   sanitize.WordCount(sanitized),
		Status:      models.NoteStatusDraft,
		ContentHash: crypto.HashSHA256([]byte(sanitized)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	tx, err := db.Begin()
	if err != nil {
		return models.Note{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO notes (id, client_id, session_date, note_type, raw_input, word_count,
		 status, content_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		note.ID, note.ClientID, note.SessionDate, string(note.NoteType), note.RawInput,
		note.WordCount, string(note.Status), note.ContentHash, note.CreatedAt, note.UpdatedAt,
	)
	if err != nil {
		return models.Note{}, fmt.Errorf("insert note: %w", err)
	}

	_, err = tx.Exec(
		`UPDATE clients SET session_count = session_count + 1, updated_at = ? WHERE id = ?`,
		now, clientID,
	)
	if err != nil {
		return models.Note{}, fmt.Errorf("increment session count: %w", err)
	}

	if _, err := audit.LogEvent(tx, models.AuditNoteCreated, models.ResourceNote, note.ID, models.OutcomeSuccess, nil); err != nil {
		return models.Note{}, fmt.Errorf("audit note creation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.Note{}, fmt.Errorf("commit note: %w", err)
	}
	return note, nil
}

// GetNote fetches one note by ID.
func (v *Vault) GetNote(id string) (models.Note, error) {
	db, err := v.conn()
	if err != nil {
		return models.Note{}, err
	}

	row := db.QueryRow(`SELECT `+noteColumns+` FROM notes WHERE id = ?`, id)
	note, err := scanNote(row)
	if err != nil {
		return models.Note{}, notFound(err, "note", id)
	}
	return note, nil
}

// ListNotes returns notes newest-session-first, optionally filtered by
// client.
func (v *Vault) ListNotes(clientID *string) ([]models.Note, error) {
	db, err := v.conn()
	if err != nil {
		return nil, err
	}

	var rows *sql.Rows
	if clientID != nil {
		rows, err = db.Query(
			`SELECT `+noteColumns+` FROM notes WHERE client_id = ? ORDER BY session_date DESC`,
			*clientID,
		)
	} else {
		rows, err = db.Query(`SELECT ` + noteColumns + ` FROM notes ORDER BY session_date DESC`)
	}
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	defer rows.Close()

	var notes []models.Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

// UpdateNote replaces the body of a draft note. Signed and amended notes are
// rejected with ErrInvalidState: signed content changes only via AmendNote.
func (v *Vault) UpdateNote(id, rawInput string) (models.Note, error) {
	db, err := v.conn()
	if err != nil {
		return models.Note{}, err
	}

	note, err := v.GetNote(id)
	if err != nil {
		return models.Note{}, err
	}
	if note.Status != models.NoteStatusDraft {
		return models.Note{}, fmt.Errorf("%w: only draft notes can be edited", ErrInvalidState)
	}

	sanitized := sanitize.Sanitize(rawInput)
	now := time.Now().UnixMilli()

	_, err = db.Exec(
		`UPDATE notes SET raw_input = ?, word_count = ?, content_hash = ?, updated_at = ? WHERE id = ?`,
		sanitized, sanitize.WordCount(sanitized), crypto.HashSHA256([]byte(sanitized)), now, id,
	)
	if err != nil {
		return models.Note{}, fmt.Errorf("update note: %w", err)
	}

	return v.GetNote(id)
}

// UpdateNoteStructured attaches a structured rendition to a note. The
// structured text passes through the same sanitizer as raw input.
func (v *Vault) UpdateNoteStructured(id, structured string) (models.Note, error) {
	db, err := v.conn()
	if err != nil {
		return models.Note{}, err
	}

	sanitized := sanitize.Sanitize(structured)
	now := time.Now().UnixMilli()

	res, err := db.Exec(
		`UPDATE notes SET structured_note = ?, updated_at = ? WHERE id = ?`,
		sanitized, now, id,
	)
	if err != nil {
		return models.Note{}, fmt.Errorf("update structured note: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.Note{}, fmt.Errorf("%w: note %s", ErrNotFound, id)
	}

	return v.GetNote(id)
}

// UpdateNoteDetections replaces the detection ID list on a note. IDs only;
// the detector keeps its evidence text.
func (v *Vault) UpdateNoteDetections(id string, detectionIDs []string) error {
	db, err := v.conn()
	if err != nil {
		return err
	}

	encoded, err := json.Marshal(detectionIDs)
	if err != nil {
		return fmt.Errorf("marshal detection ids: %w", err)
	}

	res, err := db.Exec(
		`UPDATE notes SET detection_ids = ?, updated_at = ? WHERE id = ?`,
		string(encoded), time.Now().UnixMilli(), id,
	)
	if err != nil {
		return fmt.Errorf("update detections: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: note %s", ErrNotFound, id)
	}
	return nil
}

// SignNote transitions a draft note to Signed, recording the attestation
// payload and emitting a NoteSigned audit event in the same transaction.
func (v *Vault) SignNote(id, attestationsJSON string) (models.Note, error) {
	db, err := v.conn()
	if err != nil {
		return models.Note{}, err
	}

	note, err := v.GetNote(id)
	if err != nil {
		return models.Note{}, err
	}
	if note.Status != models.NoteStatusDraft {
		return models.Note{}, fmt.Errorf("%w: only draft notes can be signed", ErrInvalidState)
	}

	now := time.Now().UnixMilli()

	tx, err := db.Begin()
	if err != nil {
		return models.Note{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`UPDATE notes SET status = 'signed', attestations = ?, signed_at = ?, updated_at = ? WHERE id = ?`,
		attestationsJSON, now, now, id,
	)
	if err != nil {
		return models.Note{}, fmt.Errorf("sign note: %w", err)
	}

	if _, err := audit.LogEvent(tx, models.AuditNoteSigned, models.ResourceNote, id, models.OutcomeSuccess, nil); err != nil {
		return models.Note{}, fmt.Errorf("audit note signing: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.Note{}, fmt.Errorf("commit signing: %w", err)
	}
	return v.GetNote(id)
}

// AmendNote appends a delimited, timestamped amendment record to a signed
// note, recomputes the hash and word count, and moves the note to Amended.
// Direct overwrite of signed content is forbidden; amendments only append.
func (v *Vault) AmendNote(id, amendmentText, reason string) (models.Note, error) {
	db, err := v.conn()
	if err != nil {
		return models.Note{}, err
	}

	note, err := v.GetNote(id)
	if err != nil {
		return models.Note{}, err
	}
	if note.Status != models.NoteStatusSigned && note.Status != models.NoteStatusAmended {
		return models.Note{}, fmt.Errorf("%w: only signed notes can be amended", ErrInvalidState)
	}

	now := time.Now().UnixMilli()
	stamp := time.UnixMilli(now).UTC().Format("2006-01-02 15:04:05 UTC")
	sanitized := sanitize.Sanitize(amendmentText)

	amendment := fmt.Sprintf(
		"\n\n--- AMENDMENT (%s) ---\nReason: %s\nAmended: %s\n\n%s",
		stamp, reason, stamp, sanitized,
	)

	newContent := note.RawInput + amendment
	newHash := crypto.HashSHA256([]byte(newContent))
	newWordCount := sanitize.WordCount(newContent)

	tx, err := db.Begin()
	if err != nil {
		return models.Note{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`UPDATE notes SET raw_input = ?, word_count = ?, content_hash = ?, updated_at = ?, status = 'amended'
		 WHERE id = ?`,
		newContent, newWordCount, newHash, now, id,
	)
	if err != nil {
		return models.Note{}, fmt.Errorf("amend note: %w", err)
	}

	if _, err := audit.LogEvent(tx, models.AuditNoteUpdated, models.ResourceNote, id, models.OutcomeSuccess, nil); err != nil {
		return models.Note{}, fmt.Errorf("audit amendment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.Note{}, fmt.Errorf("commit amendment: %w", err)
	}
	return v.GetNote(id)
}

// DeleteNote removes a draft note and audits the deletion. Signed and
// amended notes are part of the record and cannot be deleted.
func (v *Vault) DeleteNote(id string) error {
	db, err := v.conn()
	if err != nil {
		return err
	}

	note, err := v.GetNote(id)
	if err != nil {
		return err
	}
	if note.Status != models.NoteStatusDraft {
		return fmt.Errorf("%w: only draft notes can be deleted", ErrInvalidState)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM notes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if _, err := audit.LogEvent(tx, models.AuditNoteDeleted, models.ResourceNote, id, models.OutcomeSuccess, nil); err != nil {
		return fmt.Errorf("audit deletion: %w", err)
	}

	return tx.Commit()
}

func scanNote(row rowScanner) (models.Note, error) {
	var (
		n              models.Note
		noteType       string
		status         string
		detectionJSON  sql.NullString
		attestationRaw sql.NullString
	)
	err := row.Scan(
		&n.ID, &n.ClientID, &n.SessionDate, &noteType, &n.RawInput, &n.StructuredNote,
		&n.WordCount, &status, &detectionJSON, &attestationRaw, &n.ContentHash, &n.SignedAt,
		&n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return models.Note{}, err
	}

	n.NoteType = models.ParseNoteType(noteType)
	n.Status = models.ParseNoteStatus(status)
	if detectionJSON.Valid && detectionJSON.String != "" {
		if err := json.Unmarshal([]byte(detectionJSON.String), &n.DetectionIDs); err != nil {
			n.DetectionIDs = nil
		}
	}
	if attestationRaw.Valid && attestationRaw.String != "" {
		if err := json.Unmarshal([]byte(attestationRaw.String), &n.Attestations); err != nil {
			// Attestations may be stored as a single JSON document rather
			// than an array; keep it intact as one entry.
			n.Attestations = []string{attestationRaw.String}
		}
	}
	return n, nil
}
