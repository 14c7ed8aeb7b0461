package store

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/clinvault/clinvault/models"
)

// Search grammar: a fixed set of semantic patterns mapping to specific
// ORDER/WHERE clauses, with safe parameter binding throughout.
//
//	age bounds:  "older than N", "over N", "age > N",
//	             "younger than N", "under N", "age < N"
//	tenure:      "newest", "recent client", "new client",
//	             "longest", "oldest client", "veteran"
//	activity:    "most sessions", "frequent", "active"
//
// Unrecognized phrases degrade to stop-word-stripped LIKE terms ORed across
// the profile fields. The grammar is intentionally narrow; it is documented
// in user-facing help and must not be expanded silently.

var searchStopWords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true, "was": true,
	"were": true, "named": true, "called": true, "pts": true, "patients": true,
	"client": true, "clients": true, "find": true, "search": true, "for": true,
	"with": true, "who": true,
}

var numberPattern = regexp.MustCompile(`\b(\d+)\b`)

// likeFields are the profile columns fallback search matches against.
var likeFields = []string{
	"display_name", "phone", "email", "insurance_info", "diagnosis_codes",
	"referring_provider", "notes", "emergency_contact",
}

// SearchClients runs the semantic grammar first and falls back to free-text
// matching. Results carry the profile fields that matched.
func (v *Vault) SearchClients(query string) ([]models.ClientSearchResult, error) {
	if _, err := v.conn(); err != nil {
		return nil, err
	}

	q := strings.ToLower(query)

	switch {
	case strings.Contains(q, "older than") || strings.Contains(q, "over ") || strings.Contains(q, "age >"):
		age := extractNumber(q, 30)
		cutoff := fmt.Sprintf("%d-12-31", time.Now().Year()-age)
		return v.searchSemantic(
			sq.And{sq.NotEq{"date_of_birth": nil}, sq.Lt{"date_of_birth": cutoff}},
			"date_of_birth ASC", 0, "date_of_birth",
		)

	case strings.Contains(q, "younger than") || strings.Contains(q, "under ") || strings.Contains(q, "age <"):
		age := extractNumber(q, 30)
		cutoff := fmt.Sprintf("%d-01-01", time.Now().Year()-age)
		return v.searchSemantic(
			sq.And{sq.NotEq{"date_of_birth": nil}, sq.Gt{"date_of_birth": cutoff}},
			"date_of_birth DESC", 0, "date_of_birth",
		)

	case strings.Contains(q, "newest") || strings.Contains(q, "recent client") || strings.Contains(q, "new client"):
		return v.searchSemantic(nil, "created_at DESC", 10, "created_at")

	case strings.Contains(q, "longest") || strings.Contains(q, "oldest client") || strings.Contains(q, "veteran"):
		return v.searchSemantic(nil, "treatment_start_date ASC, created_at ASC", 10, "treatment_start_date")

	case strings.Contains(q, "most session") || strings.Contains(q, "frequent") || strings.Contains(q, "active"):
		return v.searchSemantic(nil, "session_count DESC", 10, "session_count")
	}

	return v.searchFreeText(q)
}

// searchSemantic executes one grammar clause and labels every result with
// the field that drove the ordering.
func (v *Vault) searchSemantic(where sq.Sqlizer, orderBy string, limit uint64, matchedField string) ([]models.ClientSearchResult, error) {
	db, err := v.conn()
	if err != nil {
		return nil, err
	}

	builder := sq.Select(strings.Split(clientColumns, ",")...).
		From("clients").
		OrderBy(orderBy)
	if where != nil {
		builder = builder.Where(where)
	}
	if limit > 0 {
		builder = builder.Limit(limit)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build semantic search query: %w", err)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}
	defer rows.Close()

	clients, err := scanClients(rows)
	if err != nil {
		return nil, err
	}

	results := make([]models.ClientSearchResult, 0, len(clients))
	for _, client := range clients {
		results = append(results, models.ClientSearchResult{
			Client:        client,
			MatchedFields: semanticMatch(client, matchedField),
		})
	}
	return results, nil
}

// searchFreeText ORs LIKE predicates for every surviving query word across
// the profile fields.
func (v *Vault) searchFreeText(query string) ([]models.ClientSearchResult, error) {
	db, err := v.conn()
	if err != nil {
		return nil, err
	}

	words := searchWords(query)
	if len(words) == 0 {
		// No usable terms: return the full roster unmatched.
		rows, err := db.Query(`SELECT ` + clientColumns + ` FROM clients ORDER BY display_name`)
		if err != nil {
			return nil, fmt.Errorf("list clients: %w", err)
		}
		defer rows.Close()

		clients, err := scanClients(rows)
		if err != nil {
			return nil, err
		}
		results := make([]models.ClientSearchResult, 0, len(clients))
		for _, client := range clients {
			results = append(results, models.ClientSearchResult{Client: client, MatchedFields: [][2]string{}})
		}
		return results, nil
	}

	or := sq.Or{}
	for _, word := range words {
		pattern := "%" + word + "%"
		for _, field := range likeFields {
			or = append(or, sq.Like{fmt.Sprintf("LOWER(COALESCE(%s, ''))", field): pattern})
		}
	}

	query2, args, err := sq.Select(strings.Split(clientColumns, ",")...).
		From("clients").
		Where(or).
		OrderBy("display_name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build free-text query: %w", err)
	}

	rows, err := db.Query(query2, args...)
	if err != nil {
		return nil, fmt.Errorf("free-text search: %w", err)
	}
	defer rows.Close()

	clients, err := scanClients(rows)
	if err != nil {
		return nil, err
	}

	results := make([]models.ClientSearchResult, 0, len(clients))
	for _, client := range clients {
		results = append(results, models.ClientSearchResult{
			Client:        client,
			MatchedFields: freeTextMatches(client, words),
		})
	}
	return results, nil
}

// searchWords strips stop words and short tokens.
func searchWords(query string) []string {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		if len(w) >= 2 && !searchStopWords[w] {
			words = append(words, w)
		}
	}
	return words
}

func extractNumber(q string, fallback int) int {
	m := numberPattern.FindStringSubmatch(q)
	if m == nil {
		return fallback
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return fallback
	}
	return n
}

func semanticMatch(client models.Client, field string) [][2]string {
	var value string
	switch field {
	case "date_of_birth":
		if client.DateOfBirth == nil {
			return [][2]string{}
		}
		value = *client.DateOfBirth
	case "created_at":
		value = strconv.FormatInt(client.CreatedAt, 10)
	case "treatment_start_date":
		if client.TreatmentStartDate == nil {
			return [][2]string{}
		}
		value = *client.TreatmentStartDate
	case "session_count":
		value = strconv.Itoa(client.SessionCount)
	default:
		return [][2]string{}
	}
	return [][2]string{{field, value}}
}

func freeTextMatches(client models.Client, words []string) [][2]string {
	var matched [][2]string

	check := func(field string, value *string) {
		if value == nil {
			return
		}
		lower := strings.ToLower(*value)
		for _, word := range words {
			if strings.Contains(lower, word) {
				matched = append(matched, [2]string{field, *value})
				return
			}
		}
	}

	check("name", &client.DisplayName)
	check("phone", client.Phone)
	check("email", client.Email)
	check("insurance", client.InsuranceInfo)
	check("diagnosis", client.DiagnosisCodes)
	check("referring_provider", client.ReferringProvider)
	check("notes", client.Notes)
	check("emergency_contact", client.EmergencyContact)

	return matched
}
