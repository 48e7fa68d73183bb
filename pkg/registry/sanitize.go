package registry

import (
	"strings"
)

// SanitizeName turns an arbitrary string into a safe single path segment.
//
// Surrounding whitespace and any directory components ("/" or "\") are
// stripped. Each run of characters outside letters, digits, ".", "_", space
// and "-" becomes a single "_". Finally ".." sequences and a lone "." are
// rewritten so the result can never name the current or parent directory:
//
//	SanitizeName("../../etc/passwd") // "passwd"
//	SanitizeName("old man?.png")     // "old man_.png"
//	SanitizeName("..")               // "_."
func SanitizeName(raw string) string {
	s := strings.TrimSpace(raw)
	if i := strings.LastIndexAny(s, `/\`); i >= 0 {
		s = s[i+1:]
	}

	var b strings.Builder
	b.Grow(len(s))
	inRun := false
	for _, r := range s {
		if isSafeRune(r) {
			b.WriteRune(r)
			inRun = false
			continue
		}
		if !inRun {
			b.WriteByte('_')
			inRun = true
		}
	}
	s = b.String()

	for strings.Contains(s, "..") {
		s = strings.ReplaceAll(s, "..", "_.")
	}
	if s == "." {
		s = "_"
	}
	return s
}

func isSafeRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '.', r == '_', r == ' ', r == '-':
		return true
	default:
		return false
	}
}
