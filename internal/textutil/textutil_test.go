package textutil

import "testing"

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"github.com/example/repo", "github.com-example-repo"},
		{"local:/tmp/repo", "local--tmp-repo"},
		{"  what? ", "what"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := SanitizeFileName(tc.in); got != tc.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeToken(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Security Posture", "security_posture"},
		{"git-history", "git-history"},
		{"", "unknown"},
		{"!!!", "unknown"},
	}
	for _, tc := range cases {
		if got := SanitizeToken(tc.in); got != tc.want {
			t.Errorf("SanitizeToken(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("expected untouched text, got %q", got)
	}
	if got := Truncate("one  two\nthree", 100); got != "one two three" {
		t.Errorf("expected collapsed whitespace, got %q", got)
	}
	if got := Truncate("abcdefghij", 4); got != "abcd..." {
		t.Errorf("expected truncated text, got %q", got)
	}
	if got := Truncate("anything", 0); got != "" {
		t.Errorf("expected empty result, got %q", got)
	}
}

func TestTernary(t *testing.T) {
	if got := Ternary(true, "a", "b"); got != "a" {
		t.Errorf("expected a, got %q", got)
	}
	if got := Ternary(false, 1, 2); got != 2 {
		t.Errorf("expected 2, got %d", got)
	}
}
