package models

// Trainee is a supervisee whose notes go through supervisor review.
type Trainee struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Email        *string `json:"email,omitempty"`
	SupervisorID string  `json:"supervisor_id"`
	StartDate    string  `json:"start_date"`
	Status       string  `json:"status"`

	NotesSubmitted int `json:"notes_submitted"`
	NotesApproved  int `json:"notes_approved"`

	CreatedAt int64 `json:"created_at"`
}

// PendingReview is a queue item awaiting supervisor action.
type PendingReview struct {
	NoteID      string `json:"note_id"`
	TraineeName string `json:"trainee_name"`
	ClientName  string `json:"client_name"`
	SessionDate string `json:"session_date"`
	SubmittedAt string `json:"submitted_at"`
	DaysPending int    `json:"days_pending"`
}

// ReviewComment is one supervisor comment on a note under review.
type ReviewComment struct {
	ID string `json:"id"`

	// Section optionally names the note section the comment refers to.
	Section *string `json:"section,omitempty"`

	// CommentType is "suggestion", "correction", or "praise".
	CommentType string `json:"comment_type"`

	Text      string `json:"text"`
	CreatedAt int64  `json:"created_at"`
}

// SupervisorReview is a completed (or in-flight) review of a trainee note.
type SupervisorReview struct {
	ID              string          `json:"id"`
	NoteID          string          `json:"note_id"`
	SupervisorID    string          `json:"supervisor_id"`
	ReviewDate      string          `json:"review_date"`
	Status          string          `json:"status"`
	Comments        []ReviewComment `json:"comments"`
	OverallFeedback *string         `json:"overall_feedback,omitempty"`

	ClinicalAccuracyScore     *int `json:"clinical_accuracy_score,omitempty"`
	DocumentationQualityScore *int `json:"documentation_quality_score,omitempty"`

	CreatedAt int64 `json:"created_at"`
}

// TraineeSummary is one dashboard row per trainee.
type TraineeSummary struct {
	Trainee         Trainee  `json:"trainee"`
	PendingNotes    int      `json:"pending_notes"`
	AvgQualityScore *float64 `json:"avg_quality_score,omitempty"`
	LastSubmission  *string  `json:"last_submission,omitempty"`
}

// SupervisorDashboard aggregates supervision state for one supervisor.
type SupervisorDashboard struct {
	SupervisorID   string           `json:"supervisor_id"`
	Trainees       []TraineeSummary `json:"trainees"`
	PendingReviews []PendingReview  `json:"pending_reviews"`
}
