package storage

import (
	"path/filepath"
	"strings"
)

// fallbackName is used when sanitization leaves nothing of a display name.
const fallbackName = "unnamed"

// SanitizeFilename reduces a user-supplied display name to characters safe
// for the host filesystem. Path components are dropped first, so traversal
// sequences ("../../etc/passwd") and absolute paths collapse to their last
// element before filtering. The allow-list keeps ASCII letters, digits,
// dot, dash and underscore; spaces become underscores and everything else
// is removed. An empty result falls back to a placeholder.
func SanitizeFilename(name string) string {
	// Windows-style separators are separators too, wherever we run.
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('_')
		}
	}

	out := strings.Trim(b.String(), "._")
	if out == "" {
		return fallbackName
	}
	return out
}
