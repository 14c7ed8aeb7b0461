package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinvault/clinvault/models"
)

// CreateTrainee registers a supervisee under a supervisor.
func (v *Vault) CreateTrainee(name string, email *string, supervisorID string) (models.Trainee, error) {
	db, err := v.conn()
	if err != nil {
		return models.Trainee{}, err
	}

	now := time.Now()
	trainee := models.Trainee{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		SupervisorID: supervisorID,
		StartDate:    now.UTC().Format("2006-01-02"),
		Status:       "active",
		CreatedAt:    now.Unix(),
	}

	_, err = db.Exec(
		`INSERT INTO trainees (id, name, email, supervisor_id, start_date, status, notes_submitted, notes_approved, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, 0, 0, ?)`,
		trainee.ID, trainee.Name, trainee.Email, trainee.SupervisorID,
		trainee.StartDate, trainee.Status, trainee.CreatedAt,
	)
	if err != nil {
		return models.Trainee{}, fmt.Errorf("insert trainee: %w", err)
	}
	return trainee, nil
}

// ListTrainees returns a supervisor's trainees.
func (v *Vault) ListTrainees(supervisorID string) ([]models.Trainee, error) {
	db, err := v.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(
		`SELECT id, name, email, supervisor_id, start_date, status, notes_submitted, notes_approved, created_at
		 FROM trainees WHERE supervisor_id = ?`,
		supervisorID,
	)
	if err != nil {
		return nil, fmt.Errorf("query trainees: %w", err)
	}
	defer rows.Close()

	var trainees []models.Trainee
	for rows.Next() {
		var t models.Trainee
		if err := rows.Scan(
			&t.ID, &t.Name, &t.Email, &t.SupervisorID, &t.StartDate,
			&t.Status, &t.NotesSubmitted, &t.NotesApproved, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan trainee: %w", err)
		}
		trainees = append(trainees, t)
	}
	return trainees, rows.Err()
}

// SubmitNoteForReview queues a trainee note for supervisor review and bumps
// the trainee's submission counter in the same transaction.
func (v *Vault) SubmitNoteForReview(noteID, traineeID string) error {
	db, err := v.conn()
	if err != nil {
		return err
	}

	now := time.Now().Unix()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO note_reviews (id, note_id, trainee_id, status, submitted_at, created_at)
		 VALUES (?, ?, ?, 'pending', ?, ?)`,
		uuid.NewString(), noteID, traineeID, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}

	_, err = tx.Exec(
		`UPDATE trainees SET notes_submitted = notes_submitted + 1 WHERE id = ?`,
		traineeID,
	)
	if err != nil {
		return fmt.Errorf("update trainee stats: %w", err)
	}

	return tx.Commit()
}

// PendingReviews lists a supervisor's open review queue, oldest first.
func (v *Vault) PendingReviews(supervisorID string) ([]models.PendingReview, error) {
	return v.pendingReviews(`t.supervisor_id = ?`, supervisorID)
}

// TraineePendingReviews lists one trainee's open submissions.
func (v *Vault) TraineePendingReviews(traineeID string) ([]models.PendingReview, error) {
	return v.pendingReviews(`nr.trainee_id = ?`, traineeID)
}

func (v *Vault) pendingReviews(where string, arg any) ([]models.PendingReview, error) {
	db, err := v.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(
		`SELECT nr.note_id, t.name, c.display_name, n.session_date, nr.submitted_at
		 FROM note_reviews nr
		 JOIN trainees t ON nr.trainee_id = t.id
		 JOIN notes n ON nr.note_id = n.id
		 JOIN clients c ON n.client_id = c.id
		 WHERE `+where+` AND nr.status = 'pending'
		 ORDER BY nr.submitted_at ASC`,
		arg,
	)
	if err != nil {
		return nil, fmt.Errorf("query pending reviews: %w", err)
	}
	defer rows.Close()

	now := time.Now().Unix()
	var reviews []models.PendingReview
	for rows.Next() {
		var r models.PendingReview
		var submittedAt int64
		if err := rows.Scan(&r.NoteID, &r.TraineeName, &r.ClientName, &r.SessionDate, &submittedAt); err != nil {
			return nil, fmt.Errorf("scan pending review: %w", err)
		}
		r.SubmittedAt = time.Unix(submittedAt, 0).UTC().Format("2006-01-02")
		r.DaysPending = int((now - submittedAt) / 86400)
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

// AddReviewComment attaches a supervisor comment to a note under review.
func (v *Vault) AddReviewComment(noteID, supervisorID, commentType, text string, section *string) (models.ReviewComment, error) {
	db, err := v.conn()
	if err != nil {
		return models.ReviewComment{}, err
	}

	comment := models.ReviewComment{
		ID:          uuid.NewString(),
		Section:     section,
		CommentType: commentType,
		Text:        text,
		CreatedAt:   time.Now().Unix(),
	}

	_, err = db.Exec(
		`INSERT INTO review_comments (id, note_id, supervisor_id, section, comment_type, text, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		comment.ID, noteID, supervisorID, comment.Section, comment.CommentType, comment.Text, comment.CreatedAt,
	)
	if err != nil {
		return models.ReviewComment{}, fmt.Errorf("insert review comment: %w", err)
	}
	return comment, nil
}

// CompleteReview closes a pending review with a verdict and scores; an
// approval bumps the trainee's approved counter.
func (v *Vault) CompleteReview(
	noteID, supervisorID, status string,
	overallFeedback *string,
	clinicalAccuracyScore, documentationQualityScore *int,
) (models.SupervisorReview, error) {
	db, err := v.conn()
	if err != nil {
		return models.SupervisorReview{}, err
	}

	now := time.Now()

	tx, err := db.Begin()
	if err != nil {
		return models.SupervisorReview{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`UPDATE note_reviews SET status = ?, completed_at = ?, supervisor_id = ?,
		 overall_feedback = ?, clinical_accuracy_score = ?, documentation_quality_score = ?
		 WHERE note_id = ? AND status = 'pending'`,
		status, now.Unix(), supervisorID, overallFeedback,
		clinicalAccuracyScore, documentationQualityScore, noteID,
	)
	if err != nil {
		return models.SupervisorReview{}, fmt.Errorf("complete review: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.SupervisorReview{}, fmt.Errorf("%w: pending review for note %s", ErrNotFound, noteID)
	}

	if status == "approved" {
		_, err = tx.Exec(
			`UPDATE trainees SET notes_approved = notes_approved + 1
			 WHERE id = (SELECT trainee_id FROM note_reviews WHERE note_id = ?)`,
			noteID,
		)
		if err != nil {
			return models.SupervisorReview{}, fmt.Errorf("update trainee stats: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return models.SupervisorReview{}, fmt.Errorf("commit review: %w", err)
	}

	comments, err := v.reviewComments(noteID)
	if err != nil {
		return models.SupervisorReview{}, err
	}

	return models.SupervisorReview{
		ID:                        uuid.NewString(),
		NoteID:                    noteID,
		SupervisorID:              supervisorID,
		ReviewDate:                now.UTC().Format("2006-01-02"),
		Status:                    status,
		Comments:                  comments,
		OverallFeedback:           overallFeedback,
		ClinicalAccuracyScore:     clinicalAccuracyScore,
		DocumentationQualityScore: documentationQualityScore,
		CreatedAt:                 now.Unix(),
	}, nil
}

// NoteReviews lists the review history of one note.
func (v *Vault) NoteReviews(noteID string) ([]models.SupervisorReview, error) {
	db, err := v.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(
		`SELECT id, note_id, supervisor_id, status, overall_feedback,
		        clinical_accuracy_score, documentation_quality_score, created_at
		 FROM note_reviews WHERE note_id = ?`,
		noteID,
	)
	if err != nil {
		return nil, fmt.Errorf("query note reviews: %w", err)
	}
	defer rows.Close()

	var reviews []models.SupervisorReview
	for rows.Next() {
		var r models.SupervisorReview
		var supervisorID *string
		if err := rows.Scan(
			&r.ID, &r.NoteID, &supervisorID, &r.Status, &r.OverallFeedback,
			&r.ClinicalAccuracyScore, &r.DocumentationQualityScore, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		if supervisorID != nil {
			r.SupervisorID = *supervisorID
		}
		r.ReviewDate = time.Unix(r.CreatedAt, 0).UTC().Format("2006-01-02")
		r.Comments = []models.ReviewComment{}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

// SupervisorDashboard aggregates trainee rosters and the pending queue.
func (v *Vault) SupervisorDashboard(supervisorID string) (models.SupervisorDashboard, error) {
	trainees, err := v.ListTrainees(supervisorID)
	if err != nil {
		return models.SupervisorDashboard{}, err
	}
	pending, err := v.PendingReviews(supervisorID)
	if err != nil {
		return models.SupervisorDashboard{}, err
	}

	summaries := make([]models.TraineeSummary, 0, len(trainees))
	for _, t := range trainees {
		count := 0
		for _, p := range pending {
			if p.TraineeName == t.Name {
				count++
			}
		}
		summaries = append(summaries, models.TraineeSummary{
			Trainee:      t,
			PendingNotes: count,
		})
	}

	return models.SupervisorDashboard{
		SupervisorID:   supervisorID,
		Trainees:       summaries,
		PendingReviews: pending,
	}, nil
}

func (v *Vault) reviewComments(noteID string) ([]models.ReviewComment, error) {
	db, err := v.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(
		`SELECT id, section, comment_type, text, created_at FROM review_comments WHERE note_id = ?`,
		noteID,
	)
	if err != nil {
		return nil, fmt.Errorf("query review comments: %w", err)
	}
	defer rows.Close()

	var comments []models.ReviewComment
	for rows.Next() {
		var c models.ReviewComment
		if err := rows.Scan(&c.ID, &c.Section, &c.CommentType, &c.Text, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan review comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
