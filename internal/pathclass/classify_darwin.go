//go:build darwin

package pathclass

import (
	"fmt"
	"strings"

	"golang.org/x/sys/unix"
)

// networkFSTypes are Statfs filesystem type names that indicate a network
// share on macOS.
var networkFSTypes = map[string]string{
	"smbfs":  "SMB mount",
	"nfs":    "NFS mount",
	"afpfs":  "AFP mount",
	"webdav": "WebDAV mount",
}

// cloudXattrs are provider extended attributes set by sync clients on files
// and folders under their control.
var cloudXattrs = map[string]string{
	"com.dropbox.attrs":            "Dropbox",
	"com.dropbox.internal":         "Dropbox",
	"com.apple.fileprovider.owner": "a File Provider sync service",
	"com.microsoft.OneDrive.id":    "OneDrive",
}

// checkNetworkPath reports whether path sits on a network filesystem via
// statfs.
func checkNetworkPath(path string) (string, bool) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return "", false
	}
	fstype := fsTypeName(&st)
	if label, networked := networkFSTypes[fstype]; networked {
		return fmt.Sprintf("path is on a %s", label), true
	}
	if st.Flags&unix.MNT_LOCAL == 0 {
		return "path is on a non-local mount", true
	}
	return "", false
}

// checkRemovableMedia treats mounts under /Volumes that are local and not
// the root volume as removable.
func checkRemovableMedia(path string) (string, bool) {
	if !strings.HasPrefix(path, "/Volumes/") {
		return "", false
	}
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return "path is under /Volumes (external volume)", true
	}
	if st.Flags&unix.MNT_LOCAL != 0 && st.Flags&unix.MNT_ROOTFS == 0 {
		return "path is on an external volume under /Volumes", true
	}
	return "", false
}

// detectCloudSyncNative probes provider xattrs on the path and its
// ancestors, and recognizes the iCloud Drive container directory.
func detectCloudSyncNative(path string) (string, bool) {
	if strings.Contains(path, "/Library/Mobile Documents/") {
		return "native detection: path is inside the iCloud Drive container", true
	}
	for p := path; ; {
		for attr, provider := range cloudXattrs {
			sz, err := unix.Getxattr(p, attr, nil)
			if err == nil && sz >= 0 {
				return fmt.Sprintf("native detection: %s attribute present", provider), true
			}
		}
		parent := parentDir(p)
		if parent == p {
			return "", false
		}
		p = parent
	}
}

func parentDir(p string) string {
	if idx := strings.LastIndexByte(p, '/'); idx > 0 {
		return p[:idx]
	}
	return "/"
}

func fsTypeName(st *unix.Statfs_t) string {
	b := make([]byte, 0, len(st.Fstypename))
	for _, c := range st.Fstypename {
		if c == 0 {
			break
		}
		b = append(b, byte(c))
	}
	return string(b)
}
