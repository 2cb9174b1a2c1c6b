package entry

import (
	"strings"
	"testing"
)

func TestClassifyKind(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Kind
	}{
		{"short word", "hello", KindShortText},
		{"short sentence", "meet me at the usual place", KindShortText},
		{"http url", "https://example.com/path?q=1", KindURL},
		{"file url", "file:///tmp/report.pdf", KindURL},
		{"bare scheme is not a url", "https://", KindShortText},
		{"mailto is plain text", "mailto:someone@example.com", KindShortText},
		{"multiline url is not a url", "https://example.com\nhttps://example.org", KindText},
		{"go snippet", "func main() {\n\tfmt.Println(\"hi\")\n}", KindCode},
		{"python snippet", "def f(x):\n    return x + 1\n", KindCode},
		{"prose paragraph", "First line of an ordinary note.\nSecond line, still prose without punctuation clues", KindText},
		{"long text", strings.Repeat("lorem ipsum ", 60), KindLongText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyKind(tt.content); got != tt.want {
				t.Errorf("ClassifyKind(%q) = %q, want %q", tt.content, got, tt.want)
			}
		})
	}
}

func TestFingerprintExactMatch(t *testing.T) {
	if Fingerprint("a") == Fingerprint("a ") {
		t.Error("distinct content must have distinct fingerprints")
	}
	if Fingerprint("same") != Fingerprint("same") {
		t.Error("identical content must fingerprint identically")
	}
}
