package registry

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"portrait", "portrait"},
		{"old man-2_v1.png", "old man-2_v1.png"},
		{"  padded  ", "padded"},
		{"../../etc/passwd", "passwd"},
		{`C:\Windows\system32`, "system32"},
		{"dir/", ""},
		{"..", "_."},
		{".", "_"},
		{"...", "__."},
		{"a..b", "a_.b"},
		{"what?!", "what_"},
		{"straße", "stra_e"},
		{"a\x00b", "a_b"},
		{"tab\there", "tab_here"},
		{"emoji 🙂 face", "emoji _ face"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := SanitizeName(tt.input); got != tt.want {
				t.Errorf("SanitizeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeNameIsSafeSegment(t *testing.T) {
	root := t.TempDir()
	inputs := []string{
		"../../etc/passwd",
		"/absolute/path",
		`..\..\windows`,
		"....//....//",
		"..%2f..%2f",
		"name/..",
		"\x00../x",
		" .. ",
	}

	for _, in := range inputs {
		got := SanitizeName(in)
		if strings.ContainsAny(got, `/\`) {
			t.Errorf("SanitizeName(%q) = %q contains a separator", in, got)
		}
		if strings.Contains(got, "..") {
			t.Errorf("SanitizeName(%q) = %q contains ..", in, got)
		}
		joined := filepath.Join(root, got)
		if !within(root, joined) {
			t.Errorf("join(root, SanitizeName(%q)) = %q escapes root", in, joined)
		}
	}
}

func TestSanitizeNameKeepsSafeStrings(t *testing.T) {
	inputs := []string{"abc", "ABC-123", "a.b_c d", "portrait.png", "x"}
	for _, in := range inputs {
		if got := SanitizeName(in); got != in {
			t.Errorf("SanitizeName(%q) = %q, want unchanged", in, got)
		}
	}
}
