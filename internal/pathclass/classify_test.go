package pathclass

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/clinvault/clinvault/models"
)

func TestClassify_SafeTempDir(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "export.pdf")

	result := Classify(target)
	if result.Classification != models.PathSafe {
		t.Fatalf("classification = %s (%s), want safe", result.Classification, result.Reason)
	}
	if result.CanonicalPath == "" {
		t.Fatalf("expected canonical path to be populated")
	}
}

func TestClassify_UnresolvablePath(t *testing.T) {
	result := Classify(filepath.Join(string(os.PathSeparator), "no-such-root-dir-zz", "deep", "out.pdf"))
	if result.Classification != models.PathUnknown {
		t.Fatalf("classification = %s, want unknown", result.Classification)
	}
	if len(result.Warnings) == 0 {
		t.Fatalf("expected a verification warning")
	}
}

func TestClassify_PatternFallbackDropbox(t *testing.T) {
	dir := t.TempDir()
	dropbox := filepath.Join(dir, "Dropbox")
	if err := os.MkdirAll(dropbox, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	result := Classify(filepath.Join(dropbox, "out.pdf"))
	if result.Classification != models.PathCloudSync {
		t.Fatalf("classification = %s (%s), want cloud_sync", result.Classification, result.Reason)
	}
	if !strings.Contains(result.Reason, "Dropbox") {
		t.Fatalf("reason %q does not cite the provider", result.Reason)
	}

	foundPatternWarning := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "pattern matching") {
			foundPatternWarning = true
		}
	}
	if !foundPatternWarning {
		t.Fatalf("pattern fallback must warn about false positives, warnings = %v", result.Warnings)
	}
}

func TestClassify_SymlinkWarning(t *testing.T) {
	dir := t.TempDir()
	real := filepath.Join(dir, "real")
	if err := os.MkdirAll(real, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	link := filepath.Join(dir, "link")
	if err := os.Symlink(real, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	result := Classify(filepath.Join(link, "out.pdf"))
	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "symlink") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected symlink warning, got %v", result.Warnings)
	}
	if strings.Contains(filepath.ToSlash(result.CanonicalPath), "/link/") {
		t.Fatalf("canonical path still contains symlink segment: %s", result.CanonicalPath)
	}
}

func TestDetectCloudSyncPatterns_SegmentsOnly(t *testing.T) {
	if _, ok := detectCloudSyncPatterns("/home/user/dropboxes/out.pdf"); ok {
		t.Fatalf("partial segment must not match")
	}
	if _, ok := detectCloudSyncPatterns("/home/user/OneDrive/out.pdf"); !ok {
		t.Fatalf("OneDrive segment should match")
	}
}
