package store

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/clinvault/clinvault/models"
)

// Theme extraction is deterministic keyword matching; the keyword tables are
// fixed so identical note sets always produce identical progress reports.

// themeKeywords maps a theme name to the note-content keywords that count as
// a mention.
var themeKeywords = []struct {
	theme    string
	keywords []string
}{
	{"anxiety", []string{"anxiety", "anxious", "worry", "panic", "nervous"}},
	{"depression", []string{"depression", "depressed", "sad", "hopeless", "low mood"}},
	{"sleep", []string{"sleep", "insomnia", "tired", "fatigue", "rest"}},
	{"relationships", []string{"relationship", "family", "partner", "spouse", "conflict"}},
	{"work_stress", []string{"work", "job", "career", "boss", "coworker"}},
	{"trauma", []string{"trauma", "ptsd", "flashback", "nightmare", "abuse"}},
	{"suicidal_ideation", []string{"si", "suicidal", "suicide", "self-harm", "kill myself", "end my life"}},
	{"substance_use", []string{"alcohol", "drinking", "drug", "substance", "using"}},
	{"coping", []string{"coping", "skills", "breathing", "grounding", "mindfulness"}},
	{"medication", []string{"medication", "med", "prescription", "dose", "side effect"}},
}

// riskKeywords drive the risk trajectory comparison.
var riskKeywords = []string{"suicidal", "si", "self-harm", "kill", "end my life", "hopeless", "worthless"}

type progressNote struct {
	id        string
	date      string
	content   string
	createdAt int64
}

// TreatmentProgress analyzes a client's stored notes: per-theme mention
// counts and trends, session frequency, and risk trajectory.
func (v *Vault) TreatmentProgress(clientID string) (models.TreatmentProgress, error) {
	db, err := v.conn()
	if err != nil {
		return models.TreatmentProgress{}, err
	}

	client, err := v.GetClient(clientID)
	if err != nil {
		return models.TreatmentProgress{}, err
	}

	rows, err := db.Query(
		`SELECT id, session_date, raw_input, created_at FROM notes
		 WHERE client_id = ? ORDER BY session_date ASC`,
		clientID,
	)
	if err != nil {
		return models.TreatmentProgress{}, fmt.Errorf("query notes: %w", err)
	}
	defer rows.Close()

	var notes []progressNote
	for rows.Next() {
		var n progressNote
		if err := rows.Scan(&n.id, &n.date, &n.content, &n.createdAt); err != nil {
			return models.TreatmentProgress{}, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return models.TreatmentProgress{}, err
	}

	progress := models.TreatmentProgress{
		ClientID:       clientID,
		ClientName:     client.DisplayName,
		TotalSessions:  len(notes),
		RiskTrajectory: "insufficient_data",
	}
	if len(notes) == 0 {
		progress.Themes = []models.ProgressTheme{}
		return progress, nil
	}

	first, last := notes[0].date, notes[len(notes)-1].date
	progress.DateRange = &[2]string{first, last}

	if len(notes) > 1 {
		if firstDate, err1 := time.Parse("2006-01-02", first); err1 == nil {
			if lastDate, err2 := time.Parse("2006-01-02", last); err2 == nil {
				days := lastDate.Sub(firstDate).Hours() / 24
				freq := days / float64(len(notes)-1)
				progress.SessionFrequency = &freq
			}
		}
	}

	progress.Themes = extractThemes(notes)
	progress.RiskTrajectory = riskTrajectory(notes)
	return progress, nil
}

// extractThemes walks the notes in session order and tallies theme mentions
// with the sessions they occurred in.
func extractThemes(notes []progressNote) []models.ProgressTheme {
	type themeState struct {
		firstDate string
		positions []int // session indices where the theme appears
		noteIDs   []string
	}
	states := make(map[string]*themeState)

	for i, note := range notes {
		content := strings.ToLower(note.content)
		for _, tk := range themeKeywords {
			mentioned := false
			for _, kw := range tk.keywords {
				if strings.Contains(content, kw) {
					mentioned = true
					break
				}
			}
			if !mentioned {
				continue
			}
			state, ok := states[tk.theme]
			if !ok {
				state = &themeState{firstDate: note.date}
				states[tk.theme] = state
			}
			state.positions = append(state.positions, i)
			state.noteIDs = append(state.noteIDs, note.id)
		}
	}

	themes := make([]models.ProgressTheme, 0, len(states))
	for _, tk := range themeKeywords { // fixed order keeps output deterministic
		state, ok := states[tk.theme]
		if !ok {
			continue
		}
		themes = append(themes, models.ProgressTheme{
			Theme:          tk.theme,
			FirstMentioned: state.firstDate,
			MentionCount:   len(state.positions),
			Trend:          themeTrend(state.positions, len(notes)),
			NoteIDs:        state.noteIDs,
		})
	}
	return themes
}

// themeTrend compares first-half vs second-half mentions of a theme.
func themeTrend(positions []int, totalSessions int) string {
	if len(positions) < 2 {
		return "insufficient_data"
	}

	midpoint := totalSessions / 2
	early := 0
	for _, p := range positions {
		if p < midpoint {
			early++
		}
	}
	late := len(positions) - early

	switch {
	case late == 0 && early > 0:
		return "resolved"
	case late > early*2:
		return "worsening"
	case early > late*2:
		return "improving"
	default:
		return "stable"
	}
}

// riskTrajectory compares risk-keyword density in the first third vs the
// last third of sessions.
func riskTrajectory(notes []progressNote) string {
	if len(notes) < 3 {
		return "insufficient_data"
	}

	third := len(notes) / 3
	early := notes[:third]
	late := notes[len(notes)-third:]

	count := func(ns []progressNote) int {
		c := 0
		for _, n := range ns {
			content := strings.ToLower(n.content)
			for _, kw := range riskKeywords {
				if strings.Contains(content, kw) {
					c++
					break
				}
			}
		}
		return c
	}

	earlyRisk, lateRisk := count(early), count(late)
	switch {
	case lateRisk == 0 && earlyRisk > 0:
		return "improving"
	case lateRisk > earlyRisk:
		return "concerning"
	case earlyRisk > lateRisk:
		return "improving"
	default:
		return "stable"
	}
}

// moodWords recognized by the prep sheet summarizer.
var moodWords = []string{
	"anxious", "depressed", "happy", "sad", "angry", "frustrated",
	"hopeful", "overwhelmed", "calm", "irritable", "flat affect",
	"tearful", "euthymic", "dysthymic", "manic", "hypomanic",
}

// interventionKeywords maps content keywords to intervention labels.
var interventionKeywords = []struct {
	keyword string
	label   string
}{
	{"cbt", "CBT techniques"},
	{"cognitive", "Cognitive restructuring"},
	{"mindfulness", "Mindfulness"},
	{"breathing", "Breathing exercises"},
	{"exposure", "Exposure work"},
	{"emdr", "EMDR"},
	{"dbt", "DBT skills"},
	{"psychoeducation", "Psychoeducation"},
	{"validation", "Validation"},
	{"reframing", "Reframing"},
	{"grounding", "Grounding techniques"},
	{"safety plan", "Safety planning"},
}

// PrepSheet builds the pre-session briefing for a client: demographics,
// recent session summaries, active themes, safety alerts, suggested
// assessments, and focus suggestions.
func (v *Vault) PrepSheet(clientID string) (models.PrepSheet, error) {
	db, err := v.conn()
	if err != nil {
		return models.PrepSheet{}, err
	}

	client, err := v.GetClient(clientID)
	if err != nil {
		return models.PrepSheet{}, err
	}
	now := time.Now().UTC()

	sheet := models.PrepSheet{
		ClientID:    clientID,
		ClientName:  client.DisplayName,
		GeneratedAt: now.Format("2006-01-02 15:04"),
		Demographics: models.PrepDemographics{
			TotalSessions:  client.SessionCount,
			DiagnosisCodes: client.DiagnosisCodes,
		},
	}

	if client.DateOfBirth != nil {
		if dob, err := time.Parse("2006-01-02", *client.DateOfBirth); err == nil {
			age := yearsBetween(dob, now)
			sheet.Demographics.Age = &age
		}
	}
	if client.TreatmentStartDate != nil {
		if start, err := time.Parse("2006-01-02", *client.TreatmentStartDate); err == nil {
			days := int(now.Sub(start).Hours() / 24)
			sheet.Demographics.TreatmentDurationDays = &days
		}
	}

	rows, err := db.Query(
		`SELECT id, session_date, note_type, raw_input FROM notes
		 WHERE client_id = ? ORDER BY session_date DESC LIMIT 5`,
		clientID,
	)
	if err != nil {
		return models.PrepSheet{}, fmt.Errorf("query recent notes: %w", err)
	}
	defer rows.Close()

	type recentNote struct {
		id, date, noteType, content string
	}
	var recent []recentNote
	for rows.Next() {
		var n recentNote
		if err := rows.Scan(&n.id, &n.date, &n.noteType, &n.content); err != nil {
			return models.PrepSheet{}, fmt.Errorf("scan recent note: %w", err)
		}
		recent = append(recent, n)
	}
	if err := rows.Err(); err != nil {
		return models.PrepSheet{}, err
	}

	if len(recent) > 0 {
		lastDate := recent[0].date
		sheet.Demographics.LastSessionDate = &lastDate
		if last, err := time.Parse("2006-01-02", lastDate); err == nil {
			days := int(now.Sub(last).Hours() / 24)
			sheet.Demographics.DaysSinceLastSession = &days
		}
	}

	for i, n := range recent {
		if i >= 3 {
			break
		}
		sheet.RecentSessions = append(sheet.RecentSessions, models.RecentSessionSummary{
			SessionDate:       n.date,
			NoteType:          n.noteType,
			KeyPoints:         extractKeyPoints(n.content),
			MoodIndicators:    extractMoodIndicators(n.content),
			InterventionsUsed: extractInterventions(n.content),
		})
	}

	progress, err := v.TreatmentProgress(clientID)
	if err != nil {
		return models.PrepSheet{}, err
	}
	for _, theme := range progress.Themes {
		if theme.Trend == "resolved" {
			continue
		}
		// NoteIDs follow session order, so the last one is the latest mention.
		lastMentioned := theme.FirstMentioned
		if n := len(theme.NoteIDs); n > 0 {
			var date string
			if err := db.QueryRow(`SELECT session_date FROM notes WHERE id = ?`, theme.NoteIDs[n-1]).Scan(&date); err == nil {
				lastMentioned = date
			}
		}
		sheet.ActiveThemes = append(sheet.ActiveThemes, models.PrepTheme{
			Theme:         theme.Theme,
			Trend:         theme.Trend,
			LastMentioned: lastMentioned,
		})
	}

	dated := make([]datedContent, 0, len(recent))
	for _, n := range recent {
		dated = append(dated, datedContent{date: n.date, content: n.content})
	}
	sheet.SafetyAlerts = safetyAlerts(dated)
	sheet.SuggestedAssessments = suggestAssessments(sheet.ActiveThemes, sheet.SafetyAlerts)
	sheet.FocusSuggestions = focusSuggestions(sheet)
	return sheet, nil
}

type datedContent struct {
	date    string
	content string
}

func safetyAlerts(notes []datedContent) []models.SafetyAlert {
	var alerts []models.SafetyAlert
	seen := map[string]bool{}

	add := func(alertType, date, severity, details string) {
		if seen[alertType] {
			return
		}
		seen[alertType] = true
		alerts = append(alerts, models.SafetyAlert{
			AlertType:   alertType,
			LastFlagged: date,
			Severity:    severity,
			Details:     details,
		})
	}

	for _, n := range notes {
		content := strings.ToLower(n.content)
		if strings.Contains(content, "suicidal") || strings.Contains(content, "si ") || strings.Contains(content, "suicide") {
			add("suicidal_ideation", n.date, "high", "Suicidal ideation mentioned in recent note")
		}
		if strings.Contains(content, "self-harm") || strings.Contains(content, "cutting") {
			add("self_harm", n.date, "high", "Self-harm mentioned in recent note")
		}
		if strings.Contains(content, "abuse") || strings.Contains(content, "violent") {
			add("abuse_concern", n.date, "moderate", "Abuse or violence mentioned")
		}
	}
	return alerts
}

func suggestAssessments(themes []models.PrepTheme, alerts []models.SafetyAlert) []models.AssessmentSuggestion {
	var out []models.AssessmentSuggestion
	has := func(name string) bool {
		for _, t := range themes {
			if strings.Contains(t.Theme, name) {
				return true
			}
		}
		return false
	}

	if has("depression") {
		out = append(out, models.AssessmentSuggestion{
			AssessmentName: "PHQ-9",
			Reason:         "Depression theme identified - consider screening",
		})
	}
	if has("anxiety") {
		out = append(out, models.AssessmentSuggestion{
			AssessmentName: "GAD-7",
			Reason:         "Anxiety theme identified - consider screening",
		})
	}
	if len(alerts) > 0 {
		out = append(out, models.AssessmentSuggestion{
			AssessmentName: "C-SSRS",
			Reason:         "Safety concerns flagged - consider risk assessment",
		})
	}
	if has("trauma") {
		out = append(out, models.AssessmentSuggestion{
			AssessmentName: "PCL-5",
			Reason:         "Trauma theme identified - consider PTSD screening",
		})
	}
	return out
}

func focusSuggestions(sheet models.PrepSheet) []string {
	var out []string
	if sheet.Demographics.DaysSinceLastSession != nil && *sheet.Demographics.DaysSinceLastSession > 14 {
		out = append(out, "Consider checking in on progress since last session (extended gap)")
	}
	if len(sheet.SafetyAlerts) > 0 {
		out = append(out, "Review safety plan and assess current risk level")
	}
	for _, theme := range sheet.ActiveThemes {
		if theme.Trend == "worsening" {
			out = append(out, fmt.Sprintf("Address %s - trend appears worsening", strings.ReplaceAll(theme.Theme, "_", " ")))
		}
	}
	if len(out) == 0 {
		out = append(out, "Continue current treatment approach")
	}
	return out
}

func extractKeyPoints(content string) []string {
	var points []string
	for _, sentence := range strings.Split(content, ".") {
		lower := strings.ToLower(sentence)
		if strings.Contains(lower, "progress") || strings.Contains(lower, "improvement") ||
			strings.Contains(lower, "challenge") || strings.Contains(lower, "goal") ||
			strings.Contains(lower, "reports") || strings.Contains(lower, "stated") {
			trimmed := strings.TrimSpace(sentence)
			if len(trimmed) > 10 && len(trimmed) < 200 {
				points = append(points, trimmed)
			}
		}
	}
	if len(points) > 3 {
		points = points[:3]
	}
	return points
}

func extractMoodIndicators(content string) []string {
	lower := strings.ToLower(content)
	var moods []string
	for _, word := range moodWords {
		if strings.Contains(lower, word) {
			moods = append(moods, word)
		}
	}
	sort.Strings(moods)
	return moods
}

func extractInterventions(content string) []string {
	lower := strings.ToLower(content)
	var out []string
	for _, ik := range interventionKeywords {
		if strings.Contains(lower, ik.keyword) {
			out = append(out, ik.label)
		}
	}
	return out
}

// yearsBetween computes whole years from a birth date to now.
func yearsBetween(from, to time.Time) int {
	years := to.Year() - from.Year()
	anniversary := from.AddDate(years, 0, 0)
	if anniversary.After(to) {
		years--
	}
	return years
}
