// Package pathclass classifies export destinations by sink risk.
//
// Classification is pure aside from stat/readlink/mount-table probes and is
// never cached, so mount changes are visible immediately. Tests run in a
// fixed order with first match winning:
//
//  1. canonicalize (symlink resolution, with a warning when it changes the
//     path)
//  2. network share detection
//  3. removable media detection
//  4. OS-native cloud-sync detection (provider xattrs / drive metadata)
//  5. name-pattern fallback for known sync folders (flagged as a possible
//     false positive)
//  6. otherwise Safe
package pathclass

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/clinvault/clinvault/models"
)

// cloudFolderPatterns are lowercase path-segment names used by consumer sync
// clients. Matching one of these is only a heuristic; native detection runs
// first.
var cloudFolderPatterns = map[string]string{
	"dropbox":              "Dropbox",
	"google drive":         "Google Drive",
	"googledrive":          "Google Drive",
	"onedrive":             "OneDrive",
	"icloud drive":         "iCloud Drive",
	"mobile documents":     "iCloud Drive",
	"box":                  "Box",
	"box sync":             "Box",
	"nextcloud":            "Nextcloud",
	"owncloud":             "ownCloud",
	"pcloud":               "pCloud",
	"mega":                 "MEGA",
	"tresorit":             "Tresorit",
	"sync":                 "Sync.com",
	"seafile":              "Seafile",
	"yandex.disk":          "Yandex Disk",
	"creative cloud files": "Adobe Creative Cloud",
}

// Classify classifies a filesystem destination. It always returns a result;
// unresolvable paths come back as Unknown with an explanatory reason.
func Classify(path string) models.PathClassResult {
	canonical, err := filepath.EvalSymlinks(path)
	if err != nil {
		// Destination may not exist yet; classify its parent instead so a
		// fresh export file in an existing folder still gets a verdict.
		parent, perr := filepath.EvalSymlinks(filepath.Dir(path))
		if perr != nil {
			return models.PathClassResult{
				Classification: models.PathUnknown,
				Reason:         fmt.Sprintf("cannot resolve path: %v", err),
				CanonicalPath:  path,
				Warnings:       []string{"path could not be verified"},
			}
		}
		canonical = filepath.Join(parent, filepath.Base(path))
	}
	if abs, err := filepath.Abs(canonical); err == nil {
		canonical = abs
	}

	var warnings []string
	if canonical != path {
		warnings = append(warnings, fmt.Sprintf("path resolves through symlink or relative form to %s", canonical))
	}

	if reason, ok := checkNetworkPath(canonical); ok {
		return models.PathClassResult{
			Classification: models.PathNetworkShare,
			Reason:         reason,
			CanonicalPath:  canonical,
			Warnings:       warnings,
		}
	}

	if reason, ok := checkRemovableMedia(canonical); ok {
		return models.PathClassResult{
			Classification: models.PathRemovableMedia,
			Reason:         reason,
			CanonicalPath:  canonical,
			Warnings:       warnings,
		}
	}

	if reason, ok := detectCloudSyncNative(canonical); ok {
		return models.PathClassResult{
			Classification: models.PathCloudSync,
			Reason:         reason,
			CanonicalPath:  canonical,
			Warnings:       warnings,
		}
	}

	if reason, ok := detectCloudSyncPatterns(canonical); ok {
		warnings = append(warnings, "detected via pattern matching (may have false positives)")
		return models.PathClassResult{
			Classification: models.PathCloudSync,
			Reason:         reason,
			CanonicalPath:  canonical,
			Warnings:       warnings,
		}
	}

	return models.PathClassResult{
		Classification: models.PathSafe,
		Reason:         "no unsafe sinks detected",
		CanonicalPath:  canonical,
		Warnings:       warnings,
	}
}

// detectCloudSyncPatterns checks each path segment against known sync-folder
// names.
func detectCloudSyncPatterns(path string) (string, bool) {
	for _, segment := range strings.Split(filepath.ToSlash(path), "/") {
		if provider, ok := cloudFolderPatterns[strings.ToLower(segment)]; ok {
			return fmt.Sprintf("folder name matches %s sync directory", provider), true
		}
	}
	return "", false
}
