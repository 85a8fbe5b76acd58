package validators

import (
	"strings"
	"unicode"
)

// Caps for operator-typed text.
const (
	MaxCodeLen = 64
	MaxNameLen = 120
)

// SanitizeText trims input, drops control characters (scanners often append \r or \t),
// collapses whitespace runs to one space and caps the result at maxLen runes.
// maxLen <= 0 means no cap.
func SanitizeText(input string, maxLen int) string {
	var b strings.Builder
	n := 0
	pendingSpace := false
	for _, r := range strings.TrimSpace(input) {
		if unicode.IsSpace(r) {
			pendingSpace = true
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		need := 1
		if pendingSpace && n > 0 {
			need = 2
		}
		if maxLen > 0 && n+need > maxLen {
			break
		}
		if need == 2 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
		n += need
		pendingSpace = false
	}
	return b.String()
}

// SanitizeOptional is SanitizeText for nullable fields. Blank results become nil.
func SanitizeOptional(input *string, maxLen int) *string {
	if input == nil {
		return nil
	}
	clean := SanitizeText(*input, maxLen)
	if clean == "" {
		return nil
	}
	return &clean
}
