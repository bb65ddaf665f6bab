package textrepair

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Clean normalizes a visible-text fragment: line breaks and non-breaking
// spaces become ordinary spaces, whitespace runs collapse to one space, and
// the result is trimmed. Fragments that look like double-decoded UTF-8 are
// repaired best-effort first; repair never fails, it only falls back to the
// normalized original.
func Clean(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")

	if !containsIdeograph(s) && hasMojibakeMarker(s) {
		if fixed, ok := reinterpret(s); ok {
			s = fixed
		}
	}

	s = strings.ReplaceAll(s, " ", " ")
	return strings.TrimSpace(collapseSpaces(s))
}

// reinterpret undoes a Latin-1 mis-decode of UTF-8 bytes. The fragment's
// runes are encoded back to their original byte values and revalidated as
// UTF-8. A trailing run of 0xA0 (a raw &nbsp; glued onto the last multi-byte
// sequence) is tolerated. The reinterpretation is accepted only when it
// yields at least one ideograph.
func reinterpret(s string) (string, bool) {
	raw, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return "", false
	}
	if !utf8.Valid(raw) {
		raw = bytes.TrimRight(raw, "\xa0")
		if !utf8.Valid(raw) {
			return "", false
		}
	}
	cand := string(raw)
	if !containsIdeograph(cand) {
		return "", false
	}
	return cand, true
}

// hasMojibakeMarker reports whether the fragment contains Latin-1-range
// characters typical of double-decoded CJK text.
func hasMojibakeMarker(s string) bool {
	return strings.ContainsAny(s, "ÃÂæåäèéçð")
}

func containsIdeograph(s string) bool {
	for _, r := range s {
		if r >= 0x4e00 && r <= 0x9fff {
			return true
		}
	}
	return false
}

func collapseSpaces(s string) string {
	var b strings.Builder
	lastSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return b.String()
}
