package store

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinvault/clinvault/internal/crypto"
	"github.com/clinvault/clinvault/models"
)

const documentColumns = `id, client_id, filename, file_type, mime_type, file_size, content_hash,
	ocr_text, description, document_date, created_at, updated_at`

// UploadDocument stores raw document bytes in the encrypted BLOB column.
// SQLCipher encrypts the whole database file, so the bytes are never at rest
// in plaintext. OCR text may be attached later.
func (v *Vault) UploadDocument(
	clientID, filename, fileType, mimeType string,
	data []byte,
	description, documentDate *string,
) (models.ClientDocument, error) {
	db, err := v.conn()
	if err != nil {
		return models.ClientDocument{}, err
	}

	now := time.Now().Unix()
	doc := models.ClientDocument{
		ID:           uuid.NewString(),
		ClientID:     clientID,
		Filename:     filename,
		FileType:     fileType,
		MimeType:     mimeType,
		FileSize:     int64(len(data)),
		ContentHash:  crypto.HashSHA256(data),
		Description:  description,
		DocumentDate: documentDate,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err = db.Exec(
		`INSERT INTO client_documents
		 (id, client_id, filename, file_type, mime_type, file_size, content_hash,
		  encrypted_data, ocr_text, description, document_date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL, ?, ?, ?, ?)`,
		doc.ID, doc.ClientID, doc.Filename, doc.FileType, doc.MimeType, doc.FileSize,
		doc.ContentHash, data, doc.Description, doc.DocumentDate, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return models.ClientDocument{}, fmt.Errorf("insert document: %w", err)
	}

	return doc, nil
}

// ListDocuments returns a client's document metadata, newest first. The
// encrypted bytes are not loaded; use DocumentData.
func (v *Vault) ListDocuments(clientID string) ([]models.ClientDocument, error) {
	db, err := v.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(
		`SELECT `+documentColumns+` FROM client_documents
		 WHERE client_id = ? ORDER BY created_at DESC`,
		clientID,
	)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

// DocumentData loads the raw bytes of one document.
func (v *Vault) DocumentData(documentID string) ([]byte, error) {
	db, err := v.conn()
	if err != nil {
		return nil, err
	}

	var data []byte
	err = db.QueryRow(
		`SELECT encrypted_data FROM client_documents WHERE id = ?`, documentID,
	).Scan(&data)
	if err != nil {
		return nil, notFound(err, "document", documentID)
	}
	return data, nil
}

// UpdateDocumentOCR attaches extracted text to a stored document.
func (v *Vault) UpdateDocumentOCR(documentID, ocrText string) error {
	db, err := v.conn()
	if err != nil {
		return err
	}

	res, err := db.Exec(
		`UPDATE client_documents SET ocr_text = ?, updated_at = ? WHERE id = ?`,
		ocrText, time.Now().Unix(), documentID,
	)
	if err != nil {
		return fmt.Errorf("update ocr text: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: document %s", ErrNotFound, documentID)
	}
	return nil
}

// DeleteDocument removes a document and its bytes.
func (v *Vault) DeleteDocument(documentID string) error {
	db, err := v.conn()
	if err != nil {
		return err
	}
	if _, err := db.Exec(`DELETE FROM client_documents WHERE id = ?`, documentID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// SearchDocuments matches OCR text, filename, and description.
func (v *Vault) SearchDocuments(query string) ([]models.ClientDocument, error) {
	db, err := v.conn()
	if err != nil {
		return nil, err
	}

	pattern := "%" + strings.ToLower(query) + "%"
	rows, err := db.Query(
		`SELECT `+documentColumns+` FROM client_documents
		 WHERE LOWER(COALESCE(ocr_text, '')) LIKE ?
		    OR LOWER(filename) LIKE ?
		    OR LOWER(COALESCE(description, '')) LIKE ?
		 ORDER BY created_at DESC`,
		pattern, pattern, pattern,
	)
	if err != nil {
		return nil, fmt.Errorf("search documents: %w", err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

// StorageStats reports database and per-table usage.
func (v *Vault) StorageStats() (models.StorageStats, error) {
	db, err := v.conn()
	if err != nil {
		return models.StorageStats{}, err
	}

	var stats models.StorageStats
	if info, err := os.Stat(v.vaultPath()); err == nil {
		stats.DatabaseSizeBytes = info.Size()
	}

	counts := []struct {
		query string
		dest  *int64
	}{
		{`SELECT COUNT(*) FROM notes`, &stats.NoteCount},
		{`SELECT COUNT(*) FROM clients`, &stats.ClientCount},
		{`SELECT COUNT(*) FROM client_documents`, &stats.DocumentCount},
		{`SELECT COALESCE(SUM(file_size), 0) FROM client_documents`, &stats.DocumentSizeBytes},
		{`SELECT COUNT(*) FROM embeddings`, &stats.EmbeddingCount},
	}
	for _, c := range counts {
		if err := db.QueryRow(c.query).Scan(c.dest); err != nil {
			return models.StorageStats{}, fmt.Errorf("storage stats: %w", err)
		}
	}
	return stats, nil
}

// OptimizeDatabase reclaims space and refreshes planner statistics.
func (v *Vault) OptimizeDatabase() error {
	db, err := v.conn()
	if err != nil {
		return err
	}
	if _, err := db.Exec(`VACUUM`); err != nil {
		return fmt.Errorf("vacuum: %w", err)
	}
	if _, err := db.Exec(`ANALYZE`); err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	return nil
}

func scanDocuments(rows *sql.Rows) ([]models.ClientDocument, error) {
	var docs []models.ClientDocument
	for rows.Next() {
		var d models.ClientDocument
		if err := rows.Scan(
			&d.ID, &d.ClientID, &d.Filename, &d.FileType, &d.MimeType, &d.FileSize,
			&d.ContentHash, &d.OCRText, &d.Description, &d.DocumentDate,
			&d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}
