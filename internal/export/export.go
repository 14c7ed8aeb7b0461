// Package export writes vault objects to user-chosen destinations under the
// export wire contract: classify the path, require confirmation for anything
// not Safe, then write and audit with only the path class and a salted path
// hash. The full destination path never reaches the audit log.
package export

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/clinvault/clinvault/internal/audit"
	"github.com/clinvault/clinvault/internal/pathclass"
	"github.com/clinvault/clinvault/internal/store"
	"github.com/clinvault/clinvault/models"
)

// Request describes one export operation.
type Request struct {
	// ResourceID identifies the exported object in the audit trail. It must
	// not contain path separators.
	ResourceID string

	// TargetPath is the user-chosen destination.
	TargetPath string

	// Content is the rendered export payload.
	Content []byte

	// Confirmed acknowledges a non-Safe classification. When false and the
	// destination is not Safe, the export is blocked and audited as such.
	Confirmed bool
}

// Result reports the outcome alongside the classification shown to the user.
type Result struct {
	Classification models.PathClassResult
	Written        bool
}

// Exporter runs the classify → confirm → write → audit pipeline against an
// unlocked vault.
type Exporter struct {
	vault *store.Vault
}

// NewExporter constructs an Exporter over vault.
func NewExporter(vault *store.Vault) *Exporter {
	return &Exporter{vault: vault}
}

// Classify exposes the path verdict without writing, so callers can surface
// the confirmation prompt before committing.
func (e *Exporter) Classify(targetPath string) models.PathClassResult {
	return pathclass.Classify(targetPath)
}

// Export performs the export. A destination classified other than Safe
// requires req.Confirmed; otherwise the attempt is audited as Blocked and
// fails with a policy violation.
func (e *Exporter) Export(req Request) (Result, error) {
	db, err := e.vault.DB()
	if err != nil {
		return Result{}, err
	}
	salt, err := e.vault.Salt()
	if err != nil {
		return Result{}, err
	}

	classification := pathclass.Classify(req.TargetPath)
	pathHash := saltedPathHash(salt, classification.CanonicalPath)

	if classification.Classification != models.PathSafe && !req.Confirmed {
		if _, auditErr := audit.LogExportEvent(db, req.ResourceID, models.OutcomeBlocked, classification.Classification, pathHash); auditErr != nil {
			return Result{Classification: classification}, auditErr
		}
		return Result{Classification: classification},
			fmt.Errorf("%w: destination classified as %s requires confirmation", store.ErrPolicyViolation, classification.Classification)
	}

	if err := os.WriteFile(classification.CanonicalPath, req.Content, 0o600); err != nil {
		if _, auditErr := audit.LogExportEvent(db, req.ResourceID, models.OutcomeFailure, classification.Classification, pathHash); auditErr != nil {
			return Result{Classification: classification}, auditErr
		}
		return Result{Classification: classification}, fmt.Errorf("write export: %w", err)
	}

	if _, err := audit.LogExportEvent(db, req.ResourceID, models.OutcomeSuccess, classification.Classification, pathHash); err != nil {
		return Result{Classification: classification, Written: true}, err
	}

	return Result{Classification: classification, Written: true}, nil
}

// saltedPathHash computes SHA-256(vault_salt ‖ canonical_path), lowercase
// hex. Irreversible without the vault salt.
func saltedPathHash(salt []byte, canonicalPath string) string {
	h := sha256.New()
	h.Write(salt)
	h.Write([]byte(canonicalPath))
	return hex.EncodeToString(h.Sum(nil))
}
