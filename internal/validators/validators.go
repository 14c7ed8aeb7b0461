// Package validators performs structural validation of user inputs before
// they reach the vault. Validation here covers shape only; content scrubbing
// is the sanitizer's job.
package validators

import (
	"strings"
	"time"
)

// ValidateDisplayName checks a client display name.
func ValidateDisplayName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyDisplayName
	}
	return nil
}

// ValidateSessionDate checks the YYYY-MM-DD session date format and that the
// date is a real calendar day.
func ValidateSessionDate(date string) error {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return ErrInvalidSessionDate
	}
	return nil
}

// ValidateNoteBody checks that a note carries content.
func ValidateNoteBody(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return ErrEmptyNoteBody
	}
	return nil
}

// ValidateAmendment checks the amendment inputs.
func ValidateAmendment(text, reason string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyNoteBody
	}
	if strings.TrimSpace(reason) == "" {
		return ErrEmptyAmendmentReason
	}
	return nil
}
