package models

// ReplacementType describes how a detected identifier was removed.
type ReplacementType string

const (
	// ReplacementRedact substitutes a fixed token such as [REDACTED-NAME].
	ReplacementRedact ReplacementType = "redact"

	// ReplacementGeneralize widens the value (a full date becomes its year).
	ReplacementGeneralize ReplacementType = "generalize"

	// ReplacementHash substitutes a stable pseudonym derived from the value.
	ReplacementHash ReplacementType = "hash"
)

// DeidMethod is the de-identification method under 45 CFR 164.514.
type DeidMethod string

const (
	MethodSafeHarbor          DeidMethod = "safe_harbor"
	MethodExpertDetermination DeidMethod = "expert_determination"
)

// FoundIdentifier is one detected Safe Harbor identifier occurrence.
// Positions are byte offsets into the original text.
type FoundIdentifier struct {
	// CategoryCode is the Safe Harbor category code ("name", "date",
	// "mrn", "zip", ...).
	CategoryCode string `json:"category_code"`

	Start int `json:"start"`
	End   int `json:"end"`

	ReplacementType ReplacementType `json:"replacement_type"`
}

// DeidentificationResult is the output of one de-identification pass.
// The original text is never carried in the result; only its hash.
type DeidentificationResult struct {
	DeidentifiedText string `json:"deidentified_text"`

	// OriginalHash is the lowercase-hex SHA-256 of the input text.
	OriginalHash string `json:"original_hash"`

	// DeidentifiedHash is the lowercase-hex SHA-256 of DeidentifiedText.
	DeidentifiedHash string `json:"deidentified_hash"`

	IdentifiersFound []FoundIdentifier `json:"identifiers_found"`

	// CategoryCounts maps category code to occurrence count.
	CategoryCounts map[string]int `json:"category_counts"`
}

// AuditedIdentifier is the persisted form of a FoundIdentifier inside a
// DeidentificationAudit row.
type AuditedIdentifier struct {
	CategoryCode    string          `json:"category_code"`
	CategoryName    string          `json:"category_name"`
	Position        int             `json:"position"`
	Length          int             `json:"length"`
	ReplacementType ReplacementType `json:"replacement_type"`
}

// DeidentificationAudit records one de-identification event for compliance.
// It stores the hash pair and structured identifier records; never the text.
type DeidentificationAudit struct {
	ID       string  `json:"id"`
	NoteID   *string `json:"note_id,omitempty"`
	ClientID *string `json:"client_id,omitempty"`

	OriginalHash     string `json:"original_hash"`
	DeidentifiedHash string `json:"deidentified_hash"`

	IdentifiersRemoved []AuditedIdentifier `json:"identifiers_removed"`
	CategorySummary    map[string]int      `json:"category_summary"`

	Method       DeidMethod `json:"method"`
	AIEnhanced   bool       `json:"ai_enhanced"`
	UserVerified bool       `json:"user_verified"`

	CreatedAt  int64  `json:"created_at"`
	ExportedAt *int64 `json:"exported_at,omitempty"`
}
