package models

// NoteType is the clinical documentation format of a session note.
type NoteType string

const (
	NoteTypeProgress   NoteType = "progress"
	NoteTypeIntake     NoteType = "intake"
	NoteTypeAssessment NoteType = "assessment"
	NoteTypeTreatment  NoteType = "treatment_plan"
	NoteTypeDischarge  NoteType = "discharge"
	NoteTypeContact    NoteType = "contact"
)

// ParseNoteType maps a stored string to a NoteType, defaulting to progress
// for unrecognized values so old rows remain readable.
func ParseNoteType(s string) NoteType {
	switch NoteType(s) {
	case NoteTypeProgress, NoteTypeIntake, NoteTypeAssessment,
		NoteTypeTreatment, NoteTypeDischarge, NoteTypeContact:
		return NoteType(s)
	default:
		return NoteTypeProgress
	}
}

// NoteStatus is the lifecycle state of a note.
// Draft notes may be edited; Signed notes may only be amended; Amended notes
// carry their amendment history inline and may be amended again, each
// amendment appending a further record.
type NoteStatus string

const (
	NoteStatusDraft   NoteStatus = "draft"
	NoteStatusSigned  NoteStatus = "signed"
	NoteStatusAmended NoteStatus = "amended"
)

// ParseNoteStatus maps a stored string to a NoteStatus, defaulting to draft.
func ParseNoteStatus(s string) NoteStatus {
	switch NoteStatus(s) {
	case NoteStatusDraft, NoteStatusSigned, NoteStatusAmended:
		return NoteStatus(s)
	default:
		return NoteStatusDraft
	}
}

// Note is a clinical session note. RawInput is always stored sanitized;
// ContentHash is the SHA-256 of RawInput and is recomputed on every content
// change, including amendments.
type Note struct {
	ID          string   `json:"id"`
	ClientID    string   `json:"client_id"`
	SessionDate string   `json:"session_date"`
	NoteType    NoteType `json:"note_type"`

	// RawInput is the sanitized note body.
	RawInput string `json:"raw_input"`

	// StructuredNote is an optional formatted rendition of RawInput.
	StructuredNote *string `json:"structured_note,omitempty"`

	WordCount int        `json:"word_count"`
	Status    NoteStatus `json:"status"`

	// DetectionIDs references ethics/risk detections by ID only; the
	// evidence text never leaves the detector.
	DetectionIDs []string `json:"detection_ids"`

	// Attestations holds the attestation payloads recorded at signing.
	Attestations []string `json:"attestations"`

	// ContentHash is the lowercase-hex SHA-256 of RawInput.
	ContentHash string `json:"content_hash"`

	// SignedAt is the signing timestamp in Unix milliseconds, when signed.
	SignedAt *int64 `json:"signed_at,omitempty"`

	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}
