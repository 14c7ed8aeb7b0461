//go:build linux

package pathclass

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

// networkFSTypes are mount filesystem types that indicate a network share.
var networkFSTypes = map[string]string{
	"nfs":        "NFS mount",
	"nfs4":       "NFS mount",
	"cifs":       "SMB/CIFS mount",
	"smb3":       "SMB mount",
	"smbfs":      "SMB mount",
	"fuse.sshfs": "SSHFS mount",
	"9p":         "9p network mount",
	"afs":        "AFS mount",
	"ceph":       "Ceph mount",
}

// removableMountPrefixes are the conventional udisks automount roots.
var removableMountPrefixes = []string{"/media/", "/run/media/", "/mnt/usb"}

// cloudXattrs are provider-specific extended attributes set by sync clients
// on files under their control.
var cloudXattrs = map[string]string{
	"user.com.dropbox.attrs":      "Dropbox",
	"user.com.dropbox.attributes": "Dropbox",
	"user.drive.id":               "Google Drive",
	"user.onedrive.id":            "OneDrive",
	"user.nextcloud.sync":         "Nextcloud",
}

// checkNetworkPath reports whether path sits on a network filesystem,
// determined from the longest matching mount point in /proc/mounts.
func checkNetworkPath(path string) (string, bool) {
	mount, fstype, ok := mountFor(path)
	if !ok {
		return "", false
	}
	if label, networked := networkFSTypes[fstype]; networked {
		return fmt.Sprintf("path is on a %s (%s)", label, mount), true
	}
	return "", false
}

// checkRemovableMedia reports whether path sits under a removable-media
// automount root.
func checkRemovableMedia(path string) (string, bool) {
	for _, prefix := range removableMountPrefixes {
		if strings.HasPrefix(path, prefix) {
			return fmt.Sprintf("path is under removable media mount root %s", strings.TrimSuffix(prefix, "/")), true
		}
	}
	return "", false
}

// detectCloudSyncNative probes provider extended attributes on the path and
// each of its ancestors.
func detectCloudSyncNative(path string) (string, bool) {
	for p := path; ; {
		for attr, provider := range cloudXattrs {
			sz, err := unix.Getxattr(p, attr, nil)
			if err == nil && sz >= 0 {
				return fmt.Sprintf("native detection: %s attribute present on %s", provider, "path or ancestor"), true
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

// mountFor finds the longest mount point in /proc/mounts that prefixes path
// and returns its filesystem type.
func mountFor(path string) (mount, fstype string, ok bool) {
	f, err := os.Open("/proc/mounts")
	if err != nil {
		return "", "", false
	}
	defer f.Close()

	best := ""
	bestType := ""
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		point, typ := fields[1], fields[2]
		if (path == point || strings.HasPrefix(path, strings.TrimSuffix(point, "/")+"/")) && len(point) > len(best) {
			best, bestType = point, typ
		}
	}
	if best == "" {
		return "", "", false
	}
	return best, bestType, true
}
