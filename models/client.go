package models

// Client represents a person receiving care. Only the display name is
// required; extended profile fields are optional and may be filled in over
// time.
type Client struct {
	// ID is the UUIDv4 identifier assigned at creation.
	ID string `json:"id"`

	// DisplayName is the name shown in lists and search results.
	DisplayName string `json:"display_name"`

	// Status is the client lifecycle status ("active", "inactive",
	// "discharged").
	Status string `json:"status"`

	// SessionCount is incremented whenever a note is created for the client.
	SessionCount int `json:"session_count"`

	// DateOfBirth in YYYY-MM-DD form, when known.
	DateOfBirth *string `json:"date_of_birth,omitempty"`

	// Phone is the primary contact phone number.
	Phone *string `json:"phone,omitempty"`

	// Email is the primary contact email address.
	Email *string `json:"email,omitempty"`

	// EmergencyContact is a free-form name/phone pair.
	EmergencyContact *string `json:"emergency_contact,omitempty"`

	// InsuranceInfo holds carrier and member identifiers.
	InsuranceInfo *string `json:"insurance_info,omitempty"`

	// DiagnosisCodes is a comma-separated list of ICD-10 codes.
	DiagnosisCodes *string `json:"diagnosis_codes,omitempty"`

	// TreatmentStartDate in YYYY-MM-DD form.
	TreatmentStartDate *string `json:"treatment_start_date,omitempty"`

	// ReferringProvider is the name of the referring clinician.
	ReferringProvider *string `json:"referring_provider,omitempty"`

	// Notes is free-form profile text.
	Notes *string `json:"notes,omitempty"`

	// CreatedAt is the creation timestamp in Unix milliseconds.
	CreatedAt int64 `json:"created_at"`

	// UpdatedAt is the last-modification timestamp in Unix milliseconds.
	UpdatedAt int64 `json:"updated_at"`
}

// ClientSearchResult pairs a client with the profile fields that matched the
// search query. MatchedFields maps field name to the matching value.
type ClientSearchResult struct {
	Client Client `json:"client"`

	// MatchedFields lists (field, value) pairs that caused the match. For
	// semantic queries it holds the single field that drove the ordering
	// with the client's value, or is empty when that field is unset.
	MatchedFields [][2]string `json:"matched_fields"`
}
