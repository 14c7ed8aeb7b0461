//go:build windows

package pathclass

import (
	"strings"

	"golang.org/x/sys/windows"
)

// checkNetworkPath reports UNC paths and mapped drives whose drive type is
// DRIVE_REMOTE.
func checkNetworkPath(path string) (string, bool) {
	if strings.HasPrefix(path, `\\`) || strings.HasPrefix(path, "//") {
		return "path is a UNC network share", true
	}
	if typ, ok := driveType(path); ok && typ == windows.DRIVE_REMOTE {
		return "drive is mapped to a network share", true
	}
	return "", false
}

// checkRemovableMedia reports drives whose type is DRIVE_REMOVABLE or
// DRIVE_CDROM.
func checkRemovableMedia(path string) (string, bool) {
	typ, ok := driveType(path)
	if !ok {
		return "", false
	}
	switch typ {
	case windows.DRIVE_REMOVABLE:
		return "drive reports removable media", true
	case windows.DRIVE_CDROM:
		return "drive reports optical media", true
	}
	return "", false
}

// detectCloudSyncNative checks the reparse/offline attributes used by cloud
// placeholder files (OneDrive Files On-Demand and similar providers).
func detectCloudSyncNative(path string) (string, bool) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return "", false
	}
	attrs, err := windows.GetFileAttributes(p)
	if err != nil {
		return "", false
	}
	const offlineMask = windows.FILE_ATTRIBUTE_OFFLINE |
		windows.FILE_ATTRIBUTE_RECALL_ON_OPEN |
		windows.FILE_ATTRIBUTE_RECALL_ON_DATA_ACCESS
	if attrs&offlineMask != 0 {
		return "native detection: file carries cloud placeholder attributes", true
	}
	if attrs&windows.FILE_ATTRIBUTE_REPARSE_POINT != 0 && strings.Contains(strings.ToLower(path), "onedrive") {
		return "native detection: reparse point inside a OneDrive root", true
	}
	return "", false
}

// driveType returns the GetDriveType result for the drive containing path.
func driveType(path string) (uint32, bool) {
	if len(path) < 2 || path[1] != ':' {
		return 0, false
	}
	root := path[:2] + `\`
	p, err := windows.UTF16PtrFromString(root)
	if err != nil {
		return 0, false
	}
	typ := windows.GetDriveType(p)
	if typ == windows.DRIVE_UNKNOWN || typ == windows.DRIVE_NO_ROOT_DIR {
		return 0, false
	}
	return typ, true
}
