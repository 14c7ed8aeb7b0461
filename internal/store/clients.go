package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinvault/clinvault/models"
)

const clientColumns = `id, display_name, status, session_count, created_at, updated_at,
	date_of_birth, phone, email, emergency_contact, insurance_info,
	diagnosis_codes, treatment_start_date, referring_provider, notes`

// CreateClient inserts a new client with only a display name; profile fields
// are filled in later via UpdateClient.
func (v *Vault) CreateClient(displayName string) (models.Client, error) {
	db, err := v.conn()
	if err != nil {
		return models.Client{}, err
	}

	client := models.Client{
		ID:          uuid.NewString(),
		DisplayName: displayName,
		Status:      "active",
		CreatedAt:   time.Now().UnixMilli(),
	}
	client.UpdatedAt = client.CreatedAt

	_, err = db.Exec(
		`INSERT INTO clients (id, display_name, status, session_count, created_at, updated_at)
		 VALUES (?, ?, ?, 0, ?, ?)`,
		client.ID, client.DisplayName, client.Status, client.CreatedAt, client.UpdatedAt,
	)
	if err != nil {
		return models.Client{}, fmt.Errorf("insert client: %w", err)
	}

	return client, nil
}

// ListClients returns all clients ordered by display name.
func (v *Vault) ListClients() ([]models.Client, error) {
	db, err := v.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(`SELECT ` + clientColumns + ` FROM clients ORDER BY display_name`)
	if err != nil {
		return nil, fmt.Errorf("query clients: %w", err)
	}
	defer rows.Close()

	return scanClients(rows)
}

// GetClient fetches one client by ID.
func (v *Vault) GetClient(id string) (models.Client, error) {
	db, err := v.conn()
	if err != nil {
		return models.Client{}, err
	}

	row := db.QueryRow(`SELECT `+clientColumns+` FROM clients WHERE id = ?`, id)
	client, err := scanClient(row)
	if err != nil {
		return models.Client{}, notFound(err, "client", id)
	}
	return client, nil
}

// UpdateClient persists the mutable fields of client and returns the stored
// row. SessionCount is managed by note creation and is not writable here.
func (v *Vault) UpdateClient(client models.Client) (models.Client, error) {
	db, err := v.conn()
	if err != nil {
		return models.Client{}, err
	}

	now := time.Now().UnixMilli()
	res, err := db.Exec(
		`UPDATE clients SET
			display_name = ?, status = ?, updated_at = ?,
			date_of_birth = ?, phone = ?, email = ?, emergency_contact = ?,
			insurance_info = ?, diagnosis_codes = ?, treatment_start_date = ?,
			referring_provider = ?, notes = ?
		 WHERE id = ?`,
		client.DisplayName, client.Status, now,
		client.DateOfBirth, client.Phone, client.Email, client.EmergencyContact,
		client.InsuranceInfo, client.DiagnosisCodes, client.TreatmentStartDate,
		client.ReferringProvider, client.Notes,
		client.ID,
	)
	if err != nil {
		return models.Client{}, fmt.Errorf("update client: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.Client{}, fmt.Errorf("%w: client %s", ErrNotFound, client.ID)
	}

	return v.GetClient(client.ID)
}

// ClientLastVisit returns the most recent session date for a client, or nil
// when no notes exist.
func (v *Vault) ClientLastVisit(clientID string) (*string, error) {
	db, err := v.conn()
	if err != nil {
		return nil, err
	}

	var date string
	err = db.QueryRow(
		`SELECT session_date FROM notes WHERE client_id = ? ORDER BY created_at DESC LIMIT 1`,
		clientID,
	).Scan(&date)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query last visit: %w", err)
	}
	return &date, nil
}

// ClientVisitCountSince counts a client's sessions on or after sinceDate
// (YYYY-MM-DD).
func (v *Vault) ClientVisitCountSince(clientID, sinceDate string) (int, error) {
	db, err := v.conn()
	if err != nil {
		return 0, err
	}

	var count int
	err = db.QueryRow(
		`SELECT COUNT(*) FROM notes WHERE client_id = ? AND session_date >= ?`,
		clientID, sinceDate,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count visits: %w", err)
	}
	return count, nil
}

// Counts returns (clients, notes) totals.
func (v *Vault) Counts() (int64, int64, error) {
	db, err := v.conn()
	if err != nil {
		return 0, 0, err
	}

	var clients, notes int64
	if err := db.QueryRow(`SELECT COUNT(*) FROM clients`).Scan(&clients); err != nil {
		return 0, 0, fmt.Errorf("count clients: %w", err)
	}
	if err := db.QueryRow(`SELECT COUNT(*) FROM notes`).Scan(&notes); err != nil {
		return 0, 0, fmt.Errorf("count notes: %w", err)
	}
	return clients, notes, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (models.Client, error) {
	var c models.Client
	err := row.Scan(
		&c.ID, &c.DisplayName, &c.Status, &c.SessionCount, &c.CreatedAt, &c.UpdatedAt,
		&c.DateOfBirth, &c.Phone, &c.Email, &c.EmergencyContact, &c.InsuranceInfo,
		&c.DiagnosisCodes, &c.TreatmentStartDate, &c.ReferringProvider, &c.Notes,
	)
	return c, err
}

func scanClients(rows *sql.Rows) ([]models.Client, error) {
	var clients []models.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}
