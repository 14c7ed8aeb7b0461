package models

// PathClassification labels an export destination by sink risk.
type PathClassification string

const (
	// PathSafe means no unsafe sink was detected.
	PathSafe PathClassification = "safe"

	// PathCloudSync means the destination is inside a consumer cloud-sync
	// folder (Dropbox, iCloud Drive, OneDrive, Google Drive, ...).
	PathCloudSync PathClassification = "cloud_sync"

	// PathNetworkShare means the destination resolves to an SMB/NFS/UNC mount.
	PathNetworkShare PathClassification = "network_share"

	// PathRemovableMedia means the destination is on removable media.
	PathRemovableMedia PathClassification = "removable"

	// PathUnknown means the path could not be resolved or verified.
	PathUnknown PathClassification = "unknown"
)

// PathClassResult is the outcome of classifying an export destination.
type PathClassResult struct {
	Classification PathClassification `json:"classification"`

	// Reason is a short human-readable explanation of the classification.
	Reason string `json:"reason"`

	// CanonicalPath is the symlink-resolved absolute path.
	CanonicalPath string `json:"canonical_path"`

	// Warnings notes symlink indirection and pattern-based detections that
	// may be false positives.
	Warnings []string `json:"warnings"`
}
