package models

// ProgressTheme is one clinical theme tracked across a client's notes.
type ProgressTheme struct {
	Theme          string `json:"theme"`
	FirstMentioned string `json:"first_mentioned"`
	MentionCount   int    `json:"mention_count"`

	// Trend is "improving", "stable", "worsening", "resolved", or
	// "insufficient_data", computed by comparing first-half vs second-half
	// mention counts.
	Trend string `json:"trend"`

	// NoteIDs lists the notes in which the theme appears.
	NoteIDs []string `json:"note_ids"`
}

// TreatmentProgress summarizes a client's trajectory over stored notes.
type TreatmentProgress struct {
	ClientID   string `json:"client_id"`
	ClientName string `json:"client_name"`

	TotalSessions int `json:"total_sessions"`

	// DateRange is [first, last] session date when sessions exist.
	DateRange *[2]string `json:"date_range,omitempty"`

	// SessionFrequency is the average days between sessions.
	SessionFrequency *float64 `json:"session_frequency,omitempty"`

	Themes []ProgressTheme `json:"themes"`

	// RiskTrajectory compares risk-keyword density in the first third vs
	// the last third of sessions: "improving", "stable", "concerning", or
	// "insufficient_data".
	RiskTrajectory string `json:"risk_trajectory"`
}

// RecentSessionSummary condenses one recent note for the prep sheet.
type RecentSessionSummary struct {
	SessionDate       string   `json:"session_date"`
	NoteType          string   `json:"note_type"`
	KeyPoints         []string `json:"key_points"`
	MoodIndicators    []string `json:"mood_indicators"`
	InterventionsUsed []string `json:"interventions_used"`
}

// PrepTheme is an active theme carried onto the prep sheet.
type PrepTheme struct {
	Theme         string `json:"theme"`
	Trend         string `json:"trend"`
	LastMentioned string `json:"last_mentioned"`
}

// SafetyAlert flags a safety concern found in recent notes.
type SafetyAlert struct {
	AlertType   string `json:"alert_type"`
	LastFlagged string `json:"last_flagged"`
	Severity    string `json:"severity"`
	Details     string `json:"details"`
}

// AssessmentSuggestion recommends a standardized instrument based on themes.
type AssessmentSuggestion struct {
	AssessmentName string `json:"assessment_name"`
	Reason         string `json:"reason"`
}

// PrepDemographics is the demographic block of a prep sheet.
type PrepDemographics struct {
	Age                   *int    `json:"age,omitempty"`
	TreatmentDurationDays *int    `json:"treatment_duration_days,omitempty"`
	TotalSessions         int     `json:"total_sessions"`
	LastSessionDate       *string `json:"last_session_date,omitempty"`
	DaysSinceLastSession  *int    `json:"days_since_last_session,omitempty"`
	DiagnosisCodes        *string `json:"diagnosis_codes,omitempty"`
}

// PrepSheet is the pre-session briefing generated for a client.
type PrepSheet struct {
	ClientID    string `json:"client_id"`
	ClientName  string `json:"client_name"`
	GeneratedAt string `json:"generated_at"`

	Demographics         PrepDemographics       `json:"demographics"`
	RecentSessions       []RecentSessionSummary `json:"recent_sessions"`
	ActiveThemes         []PrepTheme            `json:"active_themes"`
	SafetyAlerts         []SafetyAlert          `json:"safety_alerts"`
	SuggestedAssessments []AssessmentSuggestion `json:"suggested_assessments"`
	FocusSuggestions     []string               `json:"focus_suggestions"`
}
