// Package deidentify implements HIPAA Safe Harbor de-identification per
// 45 CFR 164.514(b)(2): removal or generalization of the 18 identifier
// categories using deterministic regular expressions with context-window
// disambiguation.
//
// Determinism is a contract: identical inputs produce identical outputs,
// identifier lists, and hashes. The engine may consult a local language
// model only for phrasing suggestions on already de-identified text; the
// model never sees the original.
package deidentify

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/clinvault/clinvault/models"
)

// detector binds a category to its pattern and replacement policy.
// Detectors run in slice order; earlier detectors win span overlaps, which
// is how context-bearing numerics (MRN 00123) beat bare-number fallbacks
// (ZIP codes).
type detector struct {
	category    Category
	pattern     *regexp.Regexp
	replacement models.ReplacementType

	// yearGroup, when > 0, is the capture group holding the year for
	// generalized dates.
	yearGroup int
}

var detectors = []detector{
	{
		category:    CategoryEmail,
		pattern:     regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
		replacement: models.ReplacementRedact,
	},
	{
		category:    CategoryURL,
		pattern:     regexp.MustCompile(`\bhttps?://[^\s<>"]+`),
		replacement: models.ReplacementRedact,
	},
	{
		category:    CategoryIP,
		pattern:     regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`),
		replacement: models.ReplacementRedact,
	},
	{
		category:    CategorySSN,
		pattern:     regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
		replacement: models.ReplacementRedact,
	},
	{
		category:    CategoryFax,
		pattern:     regexp.MustCompile(`(?i)\bfax[\s:#]*(\+?1[-.\s]?)?(\(?\d{3}\)?[-.\s]?)\d{3}[-.\s]?\d{4}\b`),
		replacement: models.ReplacementRedact,
	},
	{
		category:    CategoryPhone,
		pattern:     regexp.MustCompile(`(\+?1[-.\s]?)?\(?\d{3}\)?[-.\s]\d{3}[-.\s]?\d{4}\b`),
		replacement: models.ReplacementRedact,
	},
	{
		// ISO dates generalize to year-only.
		category:    CategoryDate,
		pattern:     regexp.MustCompile(`\b(\d{4})-\d{2}-\d{2}\b`),
		replacement: models.ReplacementGeneralize,
		yearGroup:   1,
	},
	{
		// US-style dates generalize to year-only.
		category:    CategoryDate,
		pattern:     regexp.MustCompile(`\b\d{1,2}/\d{1,2}/(\d{4})\b`),
		replacement: models.ReplacementGeneralize,
		yearGroup:   1,
	},
	{
		// Written-out dates ("March 2, 1974").
		category:    CategoryDate,
		pattern:     regexp.MustCompile(`(?i)\b(?:january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{1,2}(?:st|nd|rd|th)?,?\s+(\d{4})\b`),
		replacement: models.ReplacementGeneralize,
		yearGroup:   1,
	},
	{
		category:    CategoryMRN,
		pattern:     regexp.MustCompile(`(?i)\b(?:mrn|medical record(?: number| no\.?)?|chart(?: number| no\.?)?)[\s:#]*\d{4,12}\b`),
		replacement: models.ReplacementRedact,
	},
	{
		category:    CategoryHealthPlan,
		pattern:     regexp.MustCompile(`(?i)\b(?:member|policy|plan|beneficiary)(?: id| number| no\.?)?[\s:#]+[A-Z0-9-]{5,20}\b`),
		replacement: models.ReplacementRedact,
	},
	{
		category:    CategoryAccount,
		pattern:     regexp.MustCompile(`(?i)\baccount(?: number| no\.?)?[\s:#]*\d{4,17}\b`),
		replacement: models.ReplacementRedact,
	},
	{
		category:    CategoryLicense,
		pattern:     regexp.MustCompile(`(?i)\b(?:license|lic\.?|certificate|cert\.?)(?: number| no\.?)?[\s:#]*[A-Z0-9-]{4,15}\b`),
		replacement: models.ReplacementRedact,
	},
	{
		category:    CategoryVehicle,
		pattern:     regexp.MustCompile(`(?i)\b(?:vin)[\s:#]*[A-HJ-NPR-Z0-9]{11,17}\b|\b(?:license plate|plate)[\s:#]*[A-Z0-9-]{2,8}\b`),
		replacement: models.ReplacementRedact,
	},
	{
		category:    CategoryDevice,
		pattern:     regexp.MustCompile(`(?i)\b(?:serial(?: number| no\.?)?|device id)[\s:#]*[A-Z0-9-]{4,20}\b`),
		replacement: models.ReplacementRedact,
	},
	{
		category:    CategoryBiometric,
		pattern:     regexp.MustCompile(`(?i)\b(?:fingerprint|voiceprint|retina(?:l)? scan|iris scan)\b[^.\n]{0,40}`),
		replacement: models.ReplacementRedact,
	},
	{
		category:    CategoryPhoto,
		pattern:     regexp.MustCompile(`(?i)\b(?:full[- ]face photo(?:graph)?|facial photo(?:graph)?)\b[^.\n]{0,40}`),
		replacement: models.ReplacementRedact,
	},
	{
		// Bare 5-digit (or ZIP+4) tokens that survived the numeric
		// detectors above are treated as ZIP codes.
		category:    CategoryGeo,
		pattern:     regexp.MustCompile(`\b\d{5}(?:-\d{4})?\b`),
		replacement: models.ReplacementRedact,
	},
	{
		// Honorific-prefixed names.
		category:    CategoryName,
		pattern:     regexp.MustCompile(`\b(?:Mr|Mrs|Ms|Dr|Prof)\.?\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)?\b`),
		replacement: models.ReplacementRedact,
	},
}

// capitalizedToken feeds the name-run scanner; bare bigram regexes cannot
// backtrack over rejected leading words ("Call John Smith" must yield
// "John Smith", not "Call John").
var capitalizedToken = regexp.MustCompile(`[A-Z][a-z]+`)

// commonCapitalizedWords are sentence starters and clinical vocabulary that
// begin or end capitalized runs without being part of a name. Compared
// lowercase; trimmed from both ends of a candidate run.
var commonCapitalizedWords = map[string]bool{
	"the": true, "a": true, "an": true, "this": true, "that": true,
	"call": true, "called": true, "met": true, "saw": true, "seen": true,
	"told": true, "asked": true, "spoke": true, "updated": true,
	"reviewed": true, "discussed": true, "reported": true, "stated": true,
	"client": true, "patient": true, "session": true, "therapist": true,
	"counselor": true, "supervisor": true, "plan": true, "note": true,
	"first": true, "second": true, "next": true, "last": true,
}

// nameExclusions are capitalized bigrams that are clinical or calendrical
// phrases, not person names. Compared lowercase.
var nameExclusions = map[string]bool{
	"safe harbor": true, "mental status": true, "panic disorder": true,
	"major depressive": true, "bipolar disorder": true, "anxiety disorder": true,
	"treatment plan": true, "safety plan": true, "session note": true,
	"progress note": true, "intake assessment": true, "risk assessment": true,
	"new year": true, "next week": true, "last week": true, "this week": true,
	"emergency room": true, "urgent care": true, "primary care": true,
}

var monthNames = map[string]bool{
	"january": true, "february": true, "march": true, "april": true,
	"may": true, "june": true, "july": true, "august": true,
	"september": true, "october": true, "november": true, "december": true,
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
}

// redactToken is the fixed replacement for a redacted category.
func redactToken(c Category) string {
	return "[REDACTED-" + strings.ToUpper(c.Code) + "]"
}

// pseudonym derives the stable hash replacement for a value.
func pseudonym(c Category, value string) string {
	sum := sha256.Sum256([]byte(c.Code + ":" + value))
	return "[" + strings.ToUpper(c.Code) + "-" + hex.EncodeToString(sum[:4]) + "]"
}

// PhrasingAssistant rewrites already de-identified text for readability.
// Implementations must not add facts; the engine never passes original text.
type PhrasingAssistant interface {
	PolishText(ctx context.Context, deidentified string) (string, error)
}

// Engine runs Safe Harbor de-identification passes.
type Engine struct {
	// HashReplacements switches the listed category codes from fixed
	// redaction tokens to stable pseudonyms.
	HashReplacements map[string]bool
}

// NewEngine constructs an Engine with the default replacement policy:
// dates generalize to year, everything else redacts to a fixed token.
func NewEngine() *Engine {
	return &Engine{}
}

type span struct {
	start, end  int
	category    Category
	replacement models.ReplacementType
	text        string
	year        string
}

// Deidentify runs one pass over text and returns the de-identified result
// with its audit payload. Identical inputs yield identical results.
func (e *Engine) Deidentify(text string) models.DeidentificationResult {
	spans := e.detect(text)

	var out strings.Builder
	last := 0
	for _, s := range spans {
		out.WriteString(text[last:s.start])
		out.WriteString(e.replacementFor(s))
		last = s.end
	}
	out.WriteString(text[last:])
	result := out.String()

	found := make([]models.FoundIdentifier, 0, len(spans))
	counts := make(map[string]int)
	for _, s := range spans {
		found = append(found, models.FoundIdentifier{
			CategoryCode:    s.category.Code,
			Start:           s.start,
			End:             s.end,
			ReplacementType: s.replacement,
		})
		counts[s.category.Code]++
	}

	return models.DeidentificationResult{
		DeidentifiedText: result,
		OriginalHash:     hashText(text),
		DeidentifiedHash: hashText(result),
		IdentifiersFound: found,
		CategoryCounts:   counts,
	}
}

// DeidentifyWithPolish de-identifies text and then asks the assistant to
// smooth the phrasing of the already de-identified output. The assistant
// result replaces the text only if it still hashes clean of every detector;
// otherwise the deterministic output stands.
func (e *Engine) DeidentifyWithPolish(ctx context.Context, text string, assistant PhrasingAssistant) (models.DeidentificationResult, bool) {
	result := e.Deidentify(text)
	if assistant == nil {
		return result, false
	}

	polished, err := assistant.PolishText(ctx, result.DeidentifiedText)
	if err != nil || polished == "" {
		return result, false
	}
	// Re-scan: the polish step must not have reintroduced identifiers.
	if check := e.Deidentify(polished); len(check.IdentifiersFound) > 0 {
		return result, false
	}

	result.DeidentifiedText = polished
	result.DeidentifiedHash = hashText(polished)
	return result, true
}

// detect runs every detector and resolves overlaps: detectors earlier in the
// table win; within a detector, earlier matches win.
func (e *Engine) detect(text string) []span {
	var accepted []span
	for _, d := range detectors {
		for _, m := range d.pattern.FindAllStringSubmatchIndex(text, -1) {
			start, end := m[0], m[1]
			candidate := span{
				start:       start,
				end:         end,
				category:    d.category,
				replacement: d.replacement,
				text:        text[start:end],
			}
			if d.yearGroup > 0 && m[2*d.yearGroup] >= 0 {
				candidate.year = text[m[2*d.yearGroup]:m[2*d.yearGroup+1]]
			}
			if overlaps(accepted, candidate) {
				continue
			}
			accepted = append(accepted, candidate)
		}
	}

	for _, candidate := range nameRuns(text) {
		if !overlaps(accepted, candidate) {
			accepted = append(accepted, candidate)
		}
	}

	sort.Slice(accepted, func(i, j int) bool { return accepted[i].start < accepted[j].start })
	return accepted
}

// nameRuns finds runs of adjacent capitalized words, trims common sentence
// starters and clinical vocabulary from both ends, and keeps runs of at
// least two words as person-name candidates.
func nameRuns(text string) []span {
	tokens := capitalizedToken.FindAllStringIndex(text, -1)

	var runs [][]int // token indices belonging to one run
	var current []int
	for i, tok := range tokens {
		if len(current) > 0 {
			prev := tokens[current[len(current)-1]]
			// Adjacent means exactly one space between the words.
			if tok[0] != prev[1]+1 || text[prev[1]] != ' ' {
				runs = append(runs, current)
				current = nil
			}
		}
		current = append(current, i)
	}
	if len(current) > 0 {
		runs = append(runs, current)
	}

	var out []span
	for _, run := range runs {
		// Trim non-name vocabulary from both ends.
		for len(run) > 0 && commonCapitalizedWords[strings.ToLower(word(text, tokens[run[0]]))] {
			run = run[1:]
		}
		for len(run) > 0 && commonCapitalizedWords[strings.ToLower(word(text, tokens[run[len(run)-1]]))] {
			run = run[:len(run)-1]
		}
		if len(run) < 2 {
			continue
		}

		start, end := tokens[run[0]][0], tokens[run[len(run)-1]][1]
		candidate := text[start:end]
		if !plausibleName(candidate) {
			continue
		}
		out = append(out, span{
			start:       start,
			end:         end,
			category:    CategoryName,
			replacement: models.ReplacementRedact,
			text:        candidate,
		})
	}
	return out
}

func word(text string, tok []int) string {
	return text[tok[0]:tok[1]]
}

func (e *Engine) replacementFor(s span) string {
	if e.HashReplacements[s.category.Code] {
		return pseudonym(s.category, s.text)
	}
	switch s.replacement {
	case models.ReplacementGeneralize:
		if s.year != "" {
			return s.year
		}
		return redactToken(s.category)
	case models.ReplacementHash:
		return pseudonym(s.category, s.text)
	default:
		return redactToken(s.category)
	}
}

func overlaps(accepted []span, c span) bool {
	for _, a := range accepted {
		if c.start < a.end && a.start < c.end {
			return true
		}
	}
	return false
}

// plausibleName prunes capitalized bigrams that are calendrical or clinical
// phrases rather than person names.
func plausibleName(candidate string) bool {
	lower := strings.ToLower(candidate)
	if nameExclusions[lower] {
		return false
	}
	for _, word := range strings.Fields(lower) {
		if monthNames[word] {
			return false
		}
	}
	return true
}

func hashText(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// DescribeCategory returns the regulatory name for a category code, for
// audit presentation.
func DescribeCategory(code string) string {
	for _, c := range AllCategories {
		if c.Code == code {
			return c.Name
		}
	}
	return fmt.Sprintf("Unknown category %q", code)
}
