package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/clinvault/clinvault/internal/audit"
	"github.com/clinvault/clinvault/models"
)

// GetSetting reads one settings value; ErrNotFound when the key is absent.
func (v *Vault) GetSetting(key string) (string, error) {
	db, err := v.conn()
	if err != nil {
		return "", err
	}

	var value string
	err = db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: setting %s", ErrNotFound, key)
	}
	if err != nil {
		return "", fmt.Errorf("read setting: %w", err)
	}
	return value, nil
}

// SetSetting upserts a settings value and audits the change. Only the key
// reaches the audit log.
func (v *Vault) SetSetting(key, value string) error {
	db, err := v.conn()
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("write setting: %w", err)
	}

	if _, err := audit.LogEvent(tx, models.AuditSettingsChanged, models.ResourceSettings, key, models.OutcomeSuccess, nil); err != nil {
		return fmt.Errorf("audit settings change: %w", err)
	}

	return tx.Commit()
}
