// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clinvault Authors

// Package audit implements the append-only hash-chained audit log.
//
// The log is PHI-impossible by construction: every entry carries typed
// enums, opaque IDs, path classifications, and hashes; the pre-image format
// admits no other fields. The table has no foreign keys to business
// entities, so deletions elsewhere cannot break the chain.
package audit

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinvault/clinvault/internal/crypto"
	"github.com/clinvault/clinvault/models"
)

// genesisHash anchors the first chain entry.
const genesisHash = "genesis"

// querier is satisfied by *sql.DB and *sql.Tx so events can join an
// enclosing transaction.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// LogEvent appends an event without path information.
func LogEvent(
	q querier,
	eventType models.AuditEventType,
	resourceType models.AuditResourceType,
	resourceID string,
	outcome models.AuditOutcome,
	detectionIDs []string,
) (models.AuditEntry, error) {
	return logEventWithPath(q, eventType, resourceType, resourceID, outcome, detectionIDs, nil, nil)
}

// LogExportEvent appends an export event carrying only the path class and
// the salted path hash. The full destination path never reaches the log.
func LogExportEvent(
	q querier,
	resourceID string,
	outcome models.AuditOutcome,
	pathClass models.PathClassification,
	pathHash string,
) (models.AuditEntry, error) {
	class := string(pathClass)
	return logEventWithPath(q, models.AuditExportCreated, models.ResourceExport, resourceID, outcome, nil, &class, &pathHash)
}

// logEventWithPath performs the append under the caller's transaction scope:
// read the tail, format the canonical pre-image, chain the hash, insert.
func logEventWithPath(
	q querier,
	eventType models.AuditEventType,
	resourceType models.AuditResourceType,
	resourceID string,
	outcome models.AuditOutcome,
	detectionIDs []string,
	pathClass *string,
	pathHash *string,
) (models.AuditEntry, error) {
	if strings.ContainsAny(resourceID, `/\`) {
		return models.AuditEntry{}, fmt.Errorf("resource id must not contain path separators")
	}

	id := uuid.NewString()
	timestamp := time.Now().UnixMilli()

	previousHash, sequence, err := lastEntryInfo(q)
	if err != nil {
		return models.AuditEntry{}, err
	}

	entry := models.AuditEntry{
		ID:           id,
		Timestamp:    timestamp,
		Sequence:     sequence,
		EventType:    eventType,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Outcome:      outcome,
		DetectionIDs: detectionIDs,
		PathClass:    pathClass,
		PathHash:     pathHash,
		PreviousHash: previousHash,
	}
	entry.EntryHash = crypto.HashChainEntry(previousHash, []byte(preImage(entry)))

	var detectionJSON any
	if detectionIDs != nil {
		encoded, err := json.Marshal(detectionIDs)
		if err != nil {
			return models.AuditEntry{}, fmt.Errorf("marshal detection ids: %w", err)
		}
		detectionJSON = string(encoded)
	}

	_, err = q.Exec(
		`INSERT INTO audit_log (id, timestamp, sequence, event_type, resource_type, resource_id,
		 outcome, detection_ids, path_class, path_hash, previous_hash, entry_hash)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Timestamp, entry.Sequence,
		string(entry.EventType), string(entry.ResourceType), entry.ResourceID,
		string(entry.Outcome), detectionJSON, pathClass, pathHash,
		entry.PreviousHash, entry.EntryHash,
	)
	if err != nil {
		return models.AuditEntry{}, fmt.Errorf("insert audit entry: %w", err)
	}

	return entry, nil
}

// preImage formats the canonical hashing pre-image. The format is frozen:
// id | ts_ms | sequence | event_type | resource_type | resource_id | outcome
// | path_class | path_hash — no other fields are permitted.
func preImage(e models.AuditEntry) string {
	pathClass := ""
	if e.PathClass != nil {
		pathClass = *e.PathClass
	}
	pathHash := ""
	if e.PathHash != nil {
		pathHash = *e.PathHash
	}
	return fmt.Sprintf("%s|%d|%d|%s|%s|%s|%s|%s|%s",
		e.ID, e.Timestamp, e.Sequence,
		e.EventType, e.ResourceType, e.ResourceID, e.Outcome,
		pathClass, pathHash,
	)
}

// lastEntryInfo reads the committed tail: (previous hash, next sequence).
// An empty table yields ("genesis", 1).
func lastEntryInfo(q querier) (string, int64, error) {
	var hash string
	var seq int64
	err := q.QueryRow(
		`SELECT entry_hash, sequence FROM audit_log ORDER BY sequence DESC LIMIT 1`,
	).Scan(&hash, &seq)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return genesisHash, 1, nil
	case err != nil:
		return "", 0, fmt.Errorf("read audit tail: %w", err)
	default:
		return hash, seq + 1, nil
	}
}

// Entries reads entries newest-first with pagination.
func Entries(q querier, limit, offset int64) ([]models.AuditEntry, error) {
	rows, err := q.Query(
		`SELECT id, timestamp, sequence, event_type, resource_type, resource_id,
		 outcome, detection_ids, path_class, path_hash, previous_hash, entry_hash
		 FROM audit_log ORDER BY sequence DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// VerifyChain reads all entries in sequence order and asserts the chain
// invariants:
//
//	(a) the first entry has previous_hash = "genesis";
//	(b) every later entry's previous_hash equals the prior entry_hash;
//	(c) every recomputed entry_hash equals the stored value;
//	(d) sequences run 1..N without gaps.
//
// An empty log verifies clean. Violations surface as *ChainBrokenError or
// *HashMismatchError carrying the offending index.
func VerifyChain(q querier) error {
	rows, err := q.Query(
		`SELECT id, timestamp, sequence, event_type, resource_type, resource_id,
		 outcome, detection_ids, path_class, path_hash, previous_hash, entry_hash
		 FROM audit_log ORDER BY sequence ASC`,
	)
	if err != nil {
		return fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	if entries[0].PreviousHash != genesisHash {
		return &ChainBrokenError{Index: 0}
	}

	for i, entry := range entries {
		if entry.Sequence != int64(i+1) {
			return &ChainBrokenError{Index: i}
		}
		if computed := crypto.HashChainEntry(entry.PreviousHash, []byte(preImage(entry))); computed != entry.EntryHash {
			return &HashMismatchError{Index: i}
		}
		if i > 0 && entry.PreviousHash != entries[i-1].EntryHash {
			return &ChainBrokenError{Index: i}
		}
	}

	return nil
}

func scanEntries(rows *sql.Rows) ([]models.AuditEntry, error) {
	var entries []models.AuditEntry
	for rows.Next() {
		var (
			e             models.AuditEntry
			eventType     string
			resourceType  string
			outcome       string
			detectionJSON sql.NullString
			pathClass     sql.NullString
			pathHash      sql.NullString
		)
		if err := rows.Scan(
			&e.ID, &e.Timestamp, &e.Sequence, &eventType, &resourceType,
			&e.ResourceID, &outcome, &detectionJSON, &pathClass, &pathHash,
			&e.PreviousHash, &e.EntryHash,
		); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}

		e.EventType = models.AuditEventType(eventType)
		e.ResourceType = models.AuditResourceType(resourceType)
		e.Outcome = models.AuditOutcome(outcome)
		if detectionJSON.Valid && detectionJSON.String != "" {
			if err := json.Unmarshal([]byte(detectionJSON.String), &e.DetectionIDs); err != nil {
				return nil, fmt.Errorf("decode detection ids: %w", err)
			}
		}
		if pathClass.Valid {
			e.PathClass = &pathClass.String
		}
		if pathHash.Valid {
			e.PathHash = &pathHash.String
		}

		entries = append(entries, e)
	}
	return entries, rows.Err()
}
