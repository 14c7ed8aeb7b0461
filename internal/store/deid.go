package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinvault/clinvault/internal/deidentify"
	"github.com/clinvault/clinvault/models"
)

const deidAuditColumns = `id, note_id, client_id, original_hash, deidentified_hash,
	identifiers_removed, category_summary, method, ai_enhanced, user_verified,
	created_at, exported_at`

// SaveDeidentificationAudit persists the compliance record for one
// de-identification pass. Only hashes and structured identifier records are
// stored; never the text.
func (v *Vault) SaveDeidentificationAudit(
	noteID, clientID *string,
	result models.DeidentificationResult,
	aiEnhanced bool,
) (models.DeidentificationAudit, error) {
	db, err := v.conn()
	if err != nil {
		return models.DeidentificationAudit{}, err
	}

	removed := make([]models.AuditedIdentifier, 0, len(result.IdentifiersFound))
	for _, found := range result.IdentifiersFound {
		removed = append(removed, models.AuditedIdentifier{
			CategoryCode:    found.CategoryCode,
			CategoryName:    deidentify.DescribeCategory(found.CategoryCode),
			Position:        found.Start,
			Length:          found.End - found.Start,
			ReplacementType: found.ReplacementType,
		})
	}

	identifiersJSON, err := json.Marshal(removed)
	if err != nil {
		return models.DeidentificationAudit{}, fmt.Errorf("marshal identifiers: %w", err)
	}
	categoryJSON, err := json.Marshal(result.CategoryCounts)
	if err != nil {
		return models.DeidentificationAudit{}, fmt.Errorf("marshal category summary: %w", err)
	}

	auditRow := models.DeidentificationAudit{
		ID:                 uuid.NewString(),
		NoteID:             noteID,
		ClientID:           clientID,
		OriginalHash:       result.OriginalHash,
		DeidentifiedHash:   result.DeidentifiedHash,
		IdentifiersRemoved: removed,
		CategorySummary:    result.CategoryCounts,
		Method:             models.MethodSafeHarbor,
		AIEnhanced:         aiEnhanced,
		CreatedAt:          time.Now().Unix(),
	}

	aiFlag := 0
	if aiEnhanced {
		aiFlag = 1
	}

	_, err = db.Exec(
		`INSERT INTO deidentification_audits
		 (id, note_id, client_id, original_hash, deidentified_hash, identifiers_removed,
		  category_summary, method, ai_enhanced, user_verified, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		auditRow.ID, noteID, clientID, auditRow.OriginalHash, auditRow.DeidentifiedHash,
		string(identifiersJSON), string(categoryJSON), string(auditRow.Method), aiFlag, auditRow.CreatedAt,
	)
	if err != nil {
		return models.DeidentificationAudit{}, fmt.Errorf("insert deidentification audit: %w", err)
	}

	return auditRow, nil
}

// DeidentificationAudits lists audits, optionally filtered to one note.
func (v *Vault) DeidentificationAudits(noteID *string) ([]models.DeidentificationAudit, error) {
	db, err := v.conn()
	if err != nil {
		return nil, err
	}

	var rows *sql.Rows
	if noteID != nil {
		rows, err = db.Query(
			`SELECT `+deidAuditColumns+` FROM deidentification_audits
			 WHERE note_id = ? ORDER BY created_at DESC`,
			*noteID,
		)
	} else {
		rows, err = db.Query(
			`SELECT ` + deidAuditColumns + ` FROM deidentification_audits ORDER BY created_at DESC`,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("query deidentification audits: %w", err)
	}
	defer rows.Close()

	var audits []models.DeidentificationAudit
	for rows.Next() {
		var (
			a               models.DeidentificationAudit
			identifiersJSON string
			categoryJSON    string
			method          string
			aiEnhanced      int
			userVerified    int
		)
		if err := rows.Scan(
			&a.ID, &a.NoteID, &a.ClientID, &a.OriginalHash, &a.DeidentifiedHash,
			&identifiersJSON, &categoryJSON, &method, &aiEnhanced, &userVerified,
			&a.CreatedAt, &a.ExportedAt,
		); err != nil {
			return nil, fmt.Errorf("scan deidentification audit: %w", err)
		}

		if err := json.Unmarshal([]byte(identifiersJSON), &a.IdentifiersRemoved); err != nil {
			a.IdentifiersRemoved = nil
		}
		if err := json.Unmarshal([]byte(categoryJSON), &a.CategorySummary); err != nil {
			a.CategorySummary = nil
		}
		a.Method = models.DeidMethod(method)
		a.AIEnhanced = aiEnhanced != 0
		a.UserVerified = userVerified != 0

		audits = append(audits, a)
	}
	return audits, rows.Err()
}

// MarkDeidentificationVerified records the clinician's review of the
// de-identified output.
func (v *Vault) MarkDeidentificationVerified(auditID string) error {
	db, err := v.conn()
	if err != nil {
		return err
	}

	res, err := db.Exec(
		`UPDATE deidentification_audits SET user_verified = 1 WHERE id = ?`, auditID,
	)
	if err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: deidentification audit %s", ErrNotFound, auditID)
	}
	return nil
}

// MarkDeidentificationExported stamps the export time on an audit row.
func (v *Vault) MarkDeidentificationExported(auditID string) error {
	db, err := v.conn()
	if err != nil {
		return err
	}

	res, err := db.Exec(
		`UPDATE deidentification_audits SET exported_at = ? WHERE id = ?`,
		time.Now().Unix(), auditID,
	)
	if err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: deidentification audit %s", ErrNotFound, auditID)
	}
	return nil
}
