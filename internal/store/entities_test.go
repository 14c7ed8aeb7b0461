package store

import (
	"errors"
	"testing"
	"time"

	"github.com/clinvault/clinvault/internal/audit"
	"github.com/clinvault/clinvault/internal/deidentify"
	"github.com/clinvault/clinvault/models"
)

func TestDocuments_UploadListDataOCR(t *testing.T) {
	v := newUnlockedVault(t)
	client := createTestClient(t, v)

	payload := []byte("%PDF-1.7 fake document bytes")
	desc := "intake paperwork"
	doc, err := v.UploadDocument(client.ID, "intake.pdf", "pdf", "application/pdf", payload, &desc, nil)
	if err != nil {
		t.Fatalf("UploadDocument error: %v", err)
	}
	if doc.FileSize != int64(len(payload)) || len(doc.ContentHash) != 64 {
		t.Fatalf("document metadata wrong: %+v", doc)
	}

	docs, err := v.ListDocuments(client.ID)
	if err != nil {
		t.Fatalf("ListDocuments error: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != doc.ID {
		t.Fatalf("list = %+v", docs)
	}

	data, err := v.DocumentData(doc.ID)
	if err != nil {
		t.Fatalf("DocumentData error: %v", err)
	}
	if string(data) != string(payload) {
		t.Fatalf("document bytes mismatch")
	}

	if err := v.UpdateDocumentOCR(doc.ID, "Patient intake form, referral from Dr. X"); err != nil {
		t.Fatalf("UpdateDocumentOCR error: %v", err)
	}
	results, err := v.SearchDocuments("referral")
	if err != nil {
		t.Fatalf("SearchDocuments error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("OCR search results = %d, want 1", len(results))
	}

	if err := v.DeleteDocument(doc.ID); err != nil {
		t.Fatalf("DeleteDocument error: %v", err)
	}
	if _, err := v.DocumentData(doc.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted document still readable: %v", err)
	}
}

func TestStorageStatsAndOptimize(t *testing.T) {
	v := newUnlockedVault(t)
	client := createTestClient(t, v)

	if _, err := v.CreateNote(client.ID, "2025-01-15", models.NoteTypeProgress, "content"); err != nil {
		t.Fatalf("CreateNote error: %v", err)
	}

	stats, err := v.StorageStats()
	if err != nil {
		t.Fatalf("StorageStats error: %v", err)
	}
	if stats.ClientCount != 1 || stats.NoteCount != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.DatabaseSizeBytes == 0 {
		t.Fatalf("database size not reported")
	}

	if err := v.OptimizeDatabase(); err != nil {
		t.Fatalf("OptimizeDatabase error: %v", err)
	}
}

func TestSessionMetrics_RecordAndSummarize(t *testing.T) {
	v := newUnlockedVault(t)
	client := createTestClient(t, v)
	note, err := v.CreateNote(client.ID, "2025-01-15", models.NoteTypeProgress, "content")
	if err != nil {
		t.Fatalf("CreateNote error: %v", err)
	}

	samples := []models.SessionMetric{
		{NoteID: note.ID, ClientID: client.ID, StartTime: 1000, EndTime: 1300, Method: "typed", WordCount: 120},
		{NoteID: note.ID, ClientID: client.ID, StartTime: 2000, EndTime: 2200, Method: "voice", WordCount: 200, AIAssisted: true},
	}
	for _, m := range samples {
		if _, err := v.RecordSessionMetric(m); err != nil {
			t.Fatalf("RecordSessionMetric error: %v", err)
		}
	}

	metrics, err := v.SessionMetrics(0)
	if err != nil {
		t.Fatalf("SessionMetrics error: %v", err)
	}
	if len(metrics) != 2 {
		t.Fatalf("metrics = %d, want 2", len(metrics))
	}
	if metrics[0].StartTime != 2000 {
		t.Fatalf("metrics not newest-first")
	}

	summary, err := v.MetricsSummary(0)
	if err != nil {
		t.Fatalf("MetricsSummary error: %v", err)
	}
	if summary.TotalNotes != 2 || summary.TotalTimeSeconds != 500 {
		t.Fatalf("summary = %+v", summary)
	}
	if summary.VoiceCount != 1 || summary.TypedCount != 1 || summary.AIAssistedCount != 1 {
		t.Fatalf("method counts wrong: %+v", summary)
	}
	if summary.EstimatedTimeSavedSeconds != 2*900-500 {
		t.Fatalf("time saved = %d", summary.EstimatedTimeSavedSeconds)
	}
}

func TestSupervision_FullFlow(t *testing.T) {
	v := newUnlockedVault(t)
	client := createTestClient(t, v)
	note, err := v.CreateNote(client.ID, "2025-01-15", models.NoteTypeProgress, "trainee note")
	if err != nil {
		t.Fatalf("CreateNote error: %v", err)
	}

	trainee, err := v.CreateTrainee("Trainee One", nil, "supervisor-1")
	if err != nil {
		t.Fatalf("CreateTrainee error: %v", err)
	}

	if err := v.SubmitNoteForReview(note.ID, trainee.ID); err != nil {
		t.Fatalf("SubmitNoteForReview error: %v", err)
	}

	pending, err := v.PendingReviews("supervisor-1")
	if err != nil {
		t.Fatalf("PendingReviews error: %v", err)
	}
	if len(pending) != 1 || pending[0].NoteID != note.ID {
		t.Fatalf("pending = %+v", pending)
	}

	if _, err := v.AddReviewComment(note.ID, "supervisor-1", "suggestion", "Expand the plan section.", nil); err != nil {
		t.Fatalf("AddReviewComment error: %v", err)
	}

	feedback := "Solid documentation."
	score := 4
	review, err := v.CompleteReview(note.ID, "supervisor-1", "approved", &feedback, &score, &score)
	if err != nil {
		t.Fatalf("CompleteReview error: %v", err)
	}
	if review.Status != "approved" || len(review.Comments) != 1 {
		t.Fatalf("review = %+v", review)
	}

	trainees, err := v.ListTrainees("supervisor-1")
	if err != nil {
		t.Fatalf("ListTrainees error: %v", err)
	}
	if trainees[0].NotesSubmitted != 1 || trainees[0].NotesApproved != 1 {
		t.Fatalf("trainee stats = %+v", trainees[0])
	}

	dashboard, err := v.SupervisorDashboard("supervisor-1")
	if err != nil {
		t.Fatalf("SupervisorDashboard error: %v", err)
	}
	if len(dashboard.Trainees) != 1 || len(dashboard.PendingReviews) != 0 {
		t.Fatalf("dashboard = %+v", dashboard)
	}
}

func TestDeidentificationAudits_PersistAndVerify(t *testing.T) {
	v := newUnlockedVault(t)
	engine := deidentify.NewEngine()

	result := engine.Deidentify("Jane Doe, MRN 00123")
	auditRow, err := v.SaveDeidentificationAudit(nil, nil, result, false)
	if err != nil {
		t.Fatalf("SaveDeidentificationAudit error: %v", err)
	}
	if auditRow.Method != models.MethodSafeHarbor {
		t.Fatalf("method = %s", auditRow.Method)
	}

	audits, err := v.DeidentificationAudits(nil)
	if err != nil {
		t.Fatalf("DeidentificationAudits error: %v", err)
	}
	if len(audits) != 1 {
		t.Fatalf("audits = %d, want 1", len(audits))
	}
	if audits[0].OriginalHash != result.OriginalHash || audits[0].DeidentifiedHash != result.DeidentifiedHash {
		t.Fatalf("hash pair not persisted")
	}
	if len(audits[0].IdentifiersRemoved) != len(result.IdentifiersFound) {
		t.Fatalf("identifier records = %d, want %d", len(audits[0].IdentifiersRemoved), len(result.IdentifiersFound))
	}

	if err := v.MarkDeidentificationVerified(auditRow.ID); err != nil {
		t.Fatalf("MarkDeidentificationVerified error: %v", err)
	}
	if err := v.MarkDeidentificationExported(auditRow.ID); err != nil {
		t.Fatalf("MarkDeidentificationExported error: %v", err)
	}

	audits, err = v.DeidentificationAudits(nil)
	if err != nil {
		t.Fatalf("DeidentificationAudits error: %v", err)
	}
	if !audits[0].UserVerified || audits[0].ExportedAt == nil {
		t.Fatalf("verification/export flags not set: %+v", audits[0])
	}
}

func TestConsultationDrafts_CRUD(t *testing.T) {
	v := newUnlockedVault(t)
	engine := deidentify.NewEngine()

	result := engine.Deidentify("Case of Jane Doe")
	auditRow, err := v.SaveDeidentificationAudit(nil, nil, result, false)
	if err != nil {
		t.Fatalf("SaveDeidentificationAudit error: %v", err)
	}

	draft, err := v.CreateConsultationDraft(result.DeidentifiedText, "Complex case", "Best next step?", []string{"psychiatry", "neurology"}, "urgent", auditRow.ID)
	if err != nil {
		t.Fatalf("CreateConsultationDraft error: %v", err)
	}

	got, err := v.GetConsultationDraft(draft.ID)
	if err != nil {
		t.Fatalf("GetConsultationDraft error: %v", err)
	}
	if len(got.Specialties) != 2 || got.Urgency != "urgent" {
		t.Fatalf("draft = %+v", got)
	}

	ready := models.ConsultationReady
	if err := v.UpdateConsultationDraft(draft.ID, nil, nil, &ready); err != nil {
		t.Fatalf("UpdateConsultationDraft error: %v", err)
	}
	got, err = v.GetConsultationDraft(draft.ID)
	if err != nil {
		t.Fatalf("GetConsultationDraft error: %v", err)
	}
	if got.Status != models.ConsultationReady {
		t.Fatalf("status = %s, want ready", got.Status)
	}

	drafts, err := v.ListConsultationDrafts()
	if err != nil {
		t.Fatalf("ListConsultationDrafts error: %v", err)
	}
	if len(drafts) != 1 {
		t.Fatalf("drafts = %d, want 1", len(drafts))
	}

	if err := v.DeleteConsultationDraft(draft.ID); err != nil {
		t.Fatalf("DeleteConsultationDraft error: %v", err)
	}
	if _, err := v.GetConsultationDraft(draft.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted draft still readable: %v", err)
	}
}

func TestSettings_RoundTripAndAudit(t *testing.T) {
	v := newUnlockedVault(t)

	if _, err := v.GetSetting("theme"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing setting: err = %v", err)
	}

	if err := v.SetSetting("theme", "dark"); err != nil {
		t.Fatalf("SetSetting error: %v", err)
	}
	if err := v.SetSetting("theme", "light"); err != nil {
		t.Fatalf("SetSetting upsert error: %v", err)
	}

	value, err := v.GetSetting("theme")
	if err != nil {
		t.Fatalf("GetSetting error: %v", err)
	}
	if value != "light" {
		t.Fatalf("value = %q, want light", value)
	}

	// Each SetSetting appends a SettingsChanged row keyed by the setting name.
	db, err := v.DB()
	if err != nil {
		t.Fatalf("DB error: %v", err)
	}
	entries, err := audit.Entries(db, 10, 0)
	if err != nil {
		t.Fatalf("audit entries: %v", err)
	}
	changes := 0
	for _, e := range entries {
		if e.EventType == models.AuditSettingsChanged && e.ResourceID == "theme" {
			changes++
		}
	}
	if changes != 2 {
		t.Fatalf("settings audit rows = %d, want 2", changes)
	}
}

func TestClientLastVisitAndCounts(t *testing.T) {
	v := newUnlockedVault(t)
	client := createTestClient(t, v)

	last, err := v.ClientLastVisit(client.ID)
	if err != nil {
		t.Fatalf("ClientLastVisit error: %v", err)
	}
	if last != nil {
		t.Fatalf("last visit = %v, want nil", last)
	}

	for _, date := range []string{"2025-01-10", "2025-02-10"} {
		if _, err := v.CreateNote(client.ID, date, models.NoteTypeProgress, "content"); err != nil {
			t.Fatalf("CreateNote error: %v", err)
		}
		time.Sleep(5 * time.Millisecond) // distinct created_at milliseconds
	}

	last, err = v.ClientLastVisit(client.ID)
	if err != nil {
		t.Fatalf("ClientLastVisit error: %v", err)
	}
	if last == nil || *last != "2025-02-10" {
		t.Fatalf("last visit = %v", last)
	}

	count, err := v.ClientVisitCountSince(client.ID, "2025-02-01")
	if err != nil {
		t.Fatalf("ClientVisitCountSince error: %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}

	clients, notes, err := v.Counts()
	if err != nil {
		t.Fatalf("Counts error: %v", err)
	}
	if clients != 1 || notes != 2 {
		t.Fatalf("counts = (%d, %d)", clients, notes)
	}
}
