package models

// ConsultationStatus is the lifecycle state of a consultation draft.
type ConsultationStatus string

const (
	ConsultationDraftState ConsultationStatus = "draft"
	ConsultationReady      ConsultationStatus = "ready"
	ConsultationSubmitted  ConsultationStatus = "submitted"
	ConsultationResponded  ConsultationStatus = "responded"
)

// ConsultationDraft is a de-identified case description queued for peer
// consultation. It carries de-identified text only and references the
// DeidentificationAudit that produced it.
type ConsultationDraft struct {
	ID    string `json:"id"`
	Title string `json:"title"`

	// DeidentifiedContent is the Safe Harbor de-identified case text.
	DeidentifiedContent string `json:"deidentified_content"`

	ClinicalQuestion string   `json:"clinical_question"`
	Specialties      []string `json:"specialties"`

	// Urgency is "routine", "urgent", or "emergent".
	Urgency string `json:"urgency"`

	// AuditID references the de-identification audit backing this draft.
	AuditID string `json:"audit_id"`

	Status ConsultationStatus `json:"status"`

	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}
