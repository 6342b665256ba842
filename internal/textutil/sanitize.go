package textutil

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// windowsDeviceNames cannot be used as file names on Windows shares even with
// an extension.
var windowsDeviceNames = map[string]struct{}{
	"CON": {}, "AUX": {}, "COM1": {}, "COM2": {}, "COM3": {}, "COM4": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "PRN": {}, "NUL": {},
}

// SecureFileName reduces an uploaded file name to a flat, ASCII-only name that
// is safe to join onto a directory. Accented letters are folded to their base
// letter, path separators and whitespace become underscores, and anything
// outside [A-Za-z0-9_.-] is dropped. Leading/trailing dots and underscores
// are trimmed. The result may be empty.
func SecureFileName(name string) string {
	folded, _, err := transform.String(
		transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		name,
	)
	if err != nil {
		folded = name
	}
	folded = strings.NewReplacer("/", " ", "\\", " ").Replace(folded)
	joined := strings.Join(strings.Fields(folded), "_")

	var b strings.Builder
	b.Grow(len(joined))
	for _, r := range joined {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '_' || r == '.' || r == '-':
			b.WriteRune(r)
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return ""
	}
	stem := strings.ToUpper(strings.SplitN(out, ".", 2)[0])
	if _, reserved := windowsDeviceNames[stem]; reserved {
		out = "_" + out
	}
	return out
}

// Extension returns the lowercased extension of name without the leading dot.
func Extension(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}

// Truncate shortens value to at most limit runes.
func Truncate(value string, limit int) string {
	if limit <= 0 {
		return ""
	}
	count := 0
	for i := range value {
		if count == limit {
			return value[:i]
		}
		count++
	}
	return value
}

// Abbreviate collapses all whitespace runs (including newlines) into single
// spaces and truncates the result to limit runes, marking the cut with "…".
func Abbreviate(value string, limit int) string {
	collapsed := strings.Join(strings.Fields(value), " ")
	if limit <= 0 {
		return ""
	}
	if len([]rune(collapsed)) <= limit {
		return collapsed
	}
	if limit == 1 {
		return "…"
	}
	return Truncate(collapsed, limit-1) + "…"
}
