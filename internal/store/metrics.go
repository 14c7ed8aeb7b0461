package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinvault/clinvault/models"
)

// benchmarkSecondsPerNote is the industry documentation benchmark used for
// the time-saved estimate (15 minutes per note).
const benchmarkSecondsPerNote = 900

// RecordSessionMetric stores one note-production timing sample.
func (v *Vault) RecordSessionMetric(m models.SessionMetric) (models.SessionMetric, error) {
	db, err := v.conn()
	if err != nil {
		return models.SessionMetric{}, err
	}

	m.ID = uuid.NewString()
	m.CreatedAt = time.Now().Unix()

	aiAssisted := 0
	if m.AIAssisted {
		aiAssisted = 1
	}

	_, err = db.Exec(
		`INSERT INTO session_metrics (id, note_id, client_id, start_time, end_time, method, word_count, ai_assisted, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.NoteID, m.ClientID, m.StartTime, m.EndTime, m.Method, m.WordCount, aiAssisted, m.CreatedAt,
	)
	if err != nil {
		return models.SessionMetric{}, fmt.Errorf("insert session metric: %w", err)
	}
	return m, nil
}

// SessionMetrics lists samples whose start time is at or after
// sinceTimestamp, newest first.
func (v *Vault) SessionMetrics(sinceTimestamp int64) ([]models.SessionMetric, error) {
	db, err := v.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(
		`SELECT id, note_id, client_id, start_time, end_time, method, word_count, ai_assisted, created_at
		 FROM session_metrics WHERE start_time >= ? ORDER BY start_time DESC`,
		sinceTimestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("query session metrics: %w", err)
	}
	defer rows.Close()

	var metrics []models.SessionMetric
	for rows.Next() {
		var m models.SessionMetric
		var aiAssisted int
		if err := rows.Scan(
			&m.ID, &m.NoteID, &m.ClientID, &m.StartTime, &m.EndTime,
			&m.Method, &m.WordCount, &aiAssisted, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan session metric: %w", err)
		}
		m.AIAssisted = aiAssisted != 0
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}

// MetricsSummary aggregates samples since sinceTimestamp and estimates time
// saved against the benchmark.
func (v *Vault) MetricsSummary(sinceTimestamp int64) (models.MetricsSummary, error) {
	db, err := v.conn()
	if err != nil {
		return models.MetricsSummary{}, err
	}

	var s models.MetricsSummary
	err = db.QueryRow(
		`SELECT
			COUNT(*),
			COALESCE(SUM(end_time - start_time), 0),
			COALESCE(SUM(CASE WHEN method = 'voice' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN method = 'typed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(ai_assisted), 0)
		 FROM session_metrics WHERE start_time >= ?`,
		sinceTimestamp,
	).Scan(&s.TotalNotes, &s.TotalTimeSeconds, &s.VoiceCount, &s.TypedCount, &s.AIAssistedCount)
	if err != nil {
		return models.MetricsSummary{}, fmt.Errorf("aggregate session metrics: %w", err)
	}

	if s.TotalNotes > 0 {
		s.AvgTimeSeconds = float64(s.TotalTimeSeconds) / float64(s.TotalNotes)
	}
	s.EstimatedTimeSavedSeconds = s.TotalNotes*benchmarkSecondsPerNote - s.TotalTimeSeconds
	return s, nil
}
