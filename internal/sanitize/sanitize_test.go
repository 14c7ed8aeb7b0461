package sanitize

import (
	"strings"
	"testing"
)

func TestSanitize_DropsTrapLines(t *testing.T) {
	input := "Client reports SI.\nThis line has a QA/TRAP marker.\nPlan reviewed."
	got := Sanitize(input)

	if strings.Contains(strings.ToLower(got), "qa/trap") {
		t.Fatalf("trap marker survived: %q", got)
	}
	if !strings.Contains(got, "Client reports SI.") || !strings.Contains(got, "Plan reviewed.") {
		t.Fatalf("legitimate lines were lost: %q", got)
	}
}

func TestSanitize_DropsAllTrapMarkers(t *testing.T) {
	for _, marker := range []string{"qa/trap", "TRAP TOKEN", "Test Token"} {
		got := Sanitize("keep me\nline with " + marker + " inside\nand me")
		if strings.Contains(strings.ToLower(got), strings.ToLower(marker)) {
			t.Fatalf("marker %q survived: %q", marker, got)
		}
	}
}

func TestSanitize_ReplacesInjectionPatterns(t *testing.T) {
	cases := []string{
		"open javascript:alert(1) now",
		"go to file:///etc/passwd here",
		"embedded <script>alert(1)</script>",
		"path C:\\Users\\someone\\notes",
		"encoded ..%2f..%2fsecret",
		"hex \\x41\\x42 bytes",
	}
	for _, input := range cases {
		got := Sanitize(input)
		if !strings.Contains(got, "[REMOVED]") {
			t.Fatalf("no replacement in %q -> %q", input, got)
		}
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	input := "Session note.   \n\n\n\nqa/trap fixture line\nDiscussed coping via javascript:void(0).\n\n\nEnd."

	once := Sanitize(input)
	twice := Sanitize(once)
	if once != twice {
		t.Fatalf("sanitize not idempotent:\nonce:  %q\ntwice: %q", once, twice)
	}
}

func TestSanitize_NormalizesWhitespace(t *testing.T) {
	got := Sanitize("line one   \n\n\n\n\nline two\t\n")
	want := "line one\n\nline two"
	if got != want {
		t.Fatalf("Sanitize = %q, want %q", got, want)
	}
}

func TestWordCount(t *testing.T) {
	if n := WordCount("one two  three\nfour"); n != 4 {
		t.Fatalf("WordCount = %d, want 4", n)
	}
	if n := WordCount("   "); n != 0 {
		t.Fatalf("WordCount of blanks = %d, want 0", n)
	}
}
