package validators

import "errors"

var (
	// ErrEmptyDisplayName is returned when a client is created or updated
	// without a display name.
	ErrEmptyDisplayName = errors.New("display name must not be empty")

	// ErrInvalidSessionDate is returned when a session date is not a valid
	// YYYY-MM-DD calendar date.
	ErrInvalidSessionDate = errors.New("session date must be YYYY-MM-DD")

	// ErrEmptyNoteBody is returned when a note is created with no content
	// after sanitization-independent trimming.
	ErrEmptyNoteBody = errors.New("note body must not be empty")

	// ErrEmptyAmendmentReason is returned when an amendment omits a reason.
	ErrEmptyAmendmentReason = errors.New("amendment reason must not be empty")
)
