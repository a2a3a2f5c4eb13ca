package slug

import "testing"

// TestSlugify covers the normalization rules used for branch derivation.
func TestSlugify(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "whitespace only", in: "   ", want: ""},
		{name: "letters only", in: "Autodev", want: "autodev"},
		{name: "mixed case and digits", in: "Fix issue 42", want: "fix-issue-42"},
		{name: "punctuation collapse", in: "Retry!!! Logic", want: "retry-logic"},
		{name: "trim hyphen", in: "--slug--", want: "slug"},
		{name: "multiple separators", in: "a/b\\c", want: "a-b-c"},
		{name: "retain numbers", in: "Rule 17-99", want: "rule-17-99"},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.in); got != tt.want {
				t.Fatalf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// TestTruncate verifies width limits never leave trailing hyphens.
func TestTruncate(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{name: "shorter than width", in: "short", width: 10, want: "short"},
		{name: "exact width", in: "exactly-ten", width: 11, want: "exactly-ten"},
		{name: "cut mid word", in: "add-login-page", width: 9, want: "add-login"},
		{name: "cut on hyphen", in: "add-login-page", width: 10, want: "add-login"},
		{name: "zero width", in: "anything", width: 0, want: ""},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.in, tt.width); got != tt.want {
				t.Fatalf("Truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
			}
		})
	}
}
