package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinvault/clinvault/models"
)

const consultationColumns = `id, title, deidentified_content, clinical_question, specialties,
	urgency, audit_id, status, created_at, updated_at`

// CreateConsultationDraft queues a de-identified case description for peer
// consultation. The draft must reference the de-identification audit that
// produced its content.
func (v *Vault) CreateConsultationDraft(
	deidentifiedContent, title, clinicalQuestion string,
	specialties []string,
	urgency, auditID string,
) (models.ConsultationDraft, error) {
	db, err := v.conn()
	if err != nil {
		return models.ConsultationDraft{}, err
	}

	specialtiesJSON, err := json.Marshal(specialties)
	if err != nil {
		return models.ConsultationDraft{}, fmt.Errorf("marshal specialties: %w", err)
	}

	now := time.Now().Unix()
	draft := models.ConsultationDraft{
		ID:                  uuid.NewString(),
		Title:               title,
		DeidentifiedContent: deidentifiedContent,
		ClinicalQuestion:    clinicalQuestion,
		Specialties:         specialties,
		Urgency:             urgency,
		AuditID:             auditID,
		Status:              models.ConsultationDraftState,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	_, err = db.Exec(
		`INSERT INTO consultation_drafts
		 (id, title, deidentified_content, clinical_question, specialties, urgency, audit_id, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		draft.ID, draft.Title, draft.DeidentifiedContent, draft.ClinicalQuestion,
		string(specialtiesJSON), draft.Urgency, draft.AuditID, string(draft.Status),
		draft.CreatedAt, draft.UpdatedAt,
	)
	if err != nil {
		return models.ConsultationDraft{}, fmt.Errorf("insert consultation draft: %w", err)
	}
	return draft, nil
}

// ListConsultationDrafts returns all drafts, most recently updated first.
func (v *Vault) ListConsultationDrafts() ([]models.ConsultationDraft, error) {
	db, err := v.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(
		`SELECT ` + consultationColumns + ` FROM consultation_drafts ORDER BY updated_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query consultation drafts: %w", err)
	}
	defer rows.Close()

	var drafts []models.ConsultationDraft
	for rows.Next() {
		draft, err := scanConsultationDraft(rows)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, draft)
	}
	return drafts, rows.Err()
}

// GetConsultationDraft fetches one draft by ID.
func (v *Vault) GetConsultationDraft(draftID string) (models.ConsultationDraft, error) {
	db, err := v.conn()
	if err != nil {
		return models.ConsultationDraft{}, err
	}

	row := db.QueryRow(
		`SELECT `+consultationColumns+` FROM consultation_drafts WHERE id = ?`, draftID,
	)
	draft, err := scanConsultationDraft(row)
	if err != nil {
		return models.ConsultationDraft{}, notFound(err, "consultation draft", draftID)
	}
	return draft, nil
}

// UpdateConsultationDraft applies the provided optional field updates.
func (v *Vault) UpdateConsultationDraft(draftID string, title, clinicalQuestion *string, status *models.ConsultationStatus) error {
	db, err := v.conn()
	if err != nil {
		return err
	}

	now := time.Now().Unix()
	if title != nil {
		if _, err := db.Exec(
			`UPDATE consultation_drafts SET title = ?, updated_at = ? WHERE id = ?`,
			*title, now, draftID,
		); err != nil {
			return fmt.Errorf("update draft title: %w", err)
		}
	}
	if clinicalQuestion != nil {
		if _, err := db.Exec(
			`UPDATE consultation_drafts SET clinical_question = ?, updated_at = ? WHERE id = ?`,
			*clinicalQuestion, now, draftID,
		); err != nil {
			return fmt.Errorf("update draft question: %w", err)
		}
	}
	if status != nil {
		if _, err := db.Exec(
			`UPDATE consultation_drafts SET status = ?, updated_at = ? WHERE id = ?`,
			string(*status), now, draftID,
		); err != nil {
			return fmt.Errorf("update draft status: %w", err)
		}
	}
	return nil
}

// DeleteConsultationDraft removes a draft.
func (v *Vault) DeleteConsultationDraft(draftID string) error {
	db, err := v.conn()
	if err != nil {
		return err
	}
	if _, err := db.Exec(`DELETE FROM consultation_drafts WHERE id = ?`, draftID); err != nil {
		return fmt.Errorf("delete consultation draft: %w", err)
	}
	return nil
}

func scanConsultationDraft(row rowScanner) (models.ConsultationDraft, error) {
	var (
		d               models.ConsultationDraft
		specialtiesJSON string
		status          string
	)
	err := row.Scan(
		&d.ID, &d.Title, &d.DeidentifiedContent, &d.ClinicalQuestion, &specialtiesJSON,
		&d.Urgency, &d.AuditID, &status, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return models.ConsultationDraft{}, err
	}
	if err := json.Unmarshal([]byte(specialtiesJSON), &d.Specialties); err != nil {
		d.Specialties = nil
	}
	d.Status = models.ConsultationStatus(status)
	return d, nil
}
