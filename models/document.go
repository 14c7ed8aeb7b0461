package models

// ClientDocument is an uploaded file attached to a client record. The raw
// bytes live in an encrypted BLOB column inside the vault database; they are
// never written to the filesystem.
type ClientDocument struct {
	ID       string `json:"id"`
	ClientID string `json:"client_id"`

	// Filename is the original name of the uploaded file.
	Filename string `json:"filename"`

	// FileType is a coarse type label ("pdf", "docx", "image").
	FileType string `json:"file_type"`

	// MimeType is the declared MIME type of the upload.
	MimeType string `json:"mime_type"`

	// FileSize is the byte length of the stored data.
	FileSize int64 `json:"file_size"`

	// ContentHash is the lowercase-hex SHA-256 of the raw bytes.
	ContentHash string `json:"content_hash"`

	// OCRText is extracted text attached after upload, when available.
	OCRText *string `json:"ocr_text,omitempty"`

	// Description is free-form text describing the document.
	Description *string `json:"description,omitempty"`

	// DocumentDate in YYYY-MM-DD form (the date of the document itself,
	// not the upload).
	DocumentDate *string `json:"document_date,omitempty"`

	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

// StorageStats summarizes vault database usage.
type StorageStats struct {
	DatabaseSizeBytes int64 `json:"database_size_bytes"`
	NoteCount         int64 `json:"note_count"`
	ClientCount       int64 `json:"client_count"`
	DocumentCount     int64 `json:"document_count"`
	DocumentSizeBytes int64 `json:"document_size_bytes"`
	EmbeddingCount    int64 `json:"embedding_count"`
}
