package models

// SessionMetric records the time spent producing one note.
type SessionMetric struct {
	ID       string `json:"id"`
	NoteID   string `json:"note_id"`
	ClientID string `json:"client_id"`

	// StartTime and EndTime are Unix seconds.
	StartTime int64 `json:"start_time"`
	EndTime   int64 `json:"end_time"`

	// Method is "voice" or "typed".
	Method string `json:"method"`

	WordCount  int  `json:"word_count"`
	AIAssisted bool `json:"ai_assisted"`

	CreatedAt int64 `json:"created_at"`
}

// MetricsSummary aggregates session metrics over a time window.
type MetricsSummary struct {
	TotalNotes       int64   `json:"total_notes"`
	TotalTimeSeconds int64   `json:"total_time_seconds"`
	AvgTimeSeconds   float64 `json:"avg_time_seconds"`
	VoiceCount       int64   `json:"voice_count"`
	TypedCount       int64   `json:"typed_count"`
	AIAssistedCount  int64   `json:"ai_assisted_count"`

	// EstimatedTimeSavedSeconds compares against a 15-minute-per-note
	// documentation benchmark. Negative when notes took longer.
	EstimatedTimeSavedSeconds int64 `json:"estimated_time_saved_seconds"`
}
