// Package layout decides which of the source page's known header/column
// arrangements a token stream follows, and where its data tokens begin. The
// page has shipped several shapes over the years: a full header with a date
// column, the same header without the date column, and stretches with no
// header at all.
package layout

import (
	"errors"
	"regexp"
)

// Variant is one recognized header/column arrangement.
type Variant int

const (
	// VariantWithDate: rows begin with an MM/DD date column.
	VariantWithDate Variant = iota
	// VariantNoDate: rows begin at the time column; the whole page belongs
	// to one calendar date.
	VariantNoDate
	// VariantBare: no header present; layout inferred from token shape.
	VariantBare
)

func (v Variant) String() string {
	switch v {
	case VariantWithDate:
		return "with-date"
	case VariantNoDate:
		return "no-date"
	case VariantBare:
		return "bare"
	}
	return "unknown"
}

// ErrNotRecognized is returned when neither a header run nor a plausible
// date/time token appears near the top of the stream.
var ErrNotRecognized = errors.New("layout not recognized")

var (
	dateRE = regexp.MustCompile(`^\d{2}/\d{2}$`)
	timeRE = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// IsDate reports whether a token has the MM/DD shape.
func IsDate(s string) bool { return dateRE.MatchString(s) }

// IsTime reports whether a token has the HH:MM shape. Range validity is the
// reconstructor's concern.
func IsTime(s string) bool { return timeRE.MatchString(s) }

// Column labels as the source prints them.
var (
	headerWithDate = []string{"日期", "播出時間", "歌曲名稱", "演唱(奏)者"}
	headerNoDate   = []string{"播出時間", "歌曲名稱", "演唱(奏)者"}

	// Trailing labels that belong to the header when present.
	optionalLabels = map[string]bool{
		"專輯":   true,
		"出版者":  true,
		"CD編號": true,
	}
)

// inferWindow bounds how far Detect looks for a date/time-shaped token when
// no header run is found.
const inferWindow = 40

// Detect scans the token stream for the earliest known header run and
// returns the matched variant plus the index of the first data token. With
// no header it falls back to shape inference over the first tokens: a
// time-shaped token before any date-shaped one means the bare layout, a
// date-shaped token first means the with-date layout. Failing both, the
// page's layout is not recognized.
func Detect(tokens []string) (Variant, int, error) {
	for i := range tokens {
		if matchRun(tokens, i, headerWithDate) {
			return VariantWithDate, skipOptional(tokens, i+len(headerWithDate)), nil
		}
		if matchRun(tokens, i, headerNoDate) {
			return VariantNoDate, skipOptional(tokens, i+len(headerNoDate)), nil
		}
	}
	limit := len(tokens)
	if limit > inferWindow {
		limit = inferWindow
	}
	for i := 0; i < limit; i++ {
		switch {
		case IsTime(tokens[i]):
			return VariantBare, i, nil
		case IsDate(tokens[i]):
			return VariantWithDate, i, nil
		}
	}
	return VariantBare, 0, ErrNotRecognized
}

func matchRun(tokens []string, at int, labels []string) bool {
	if at+len(labels) > len(tokens) {
		return false
	}
	for j, l := range labels {
		if tokens[at+j] != l {
			return false
		}
	}
	return true
}

func skipOptional(tokens []string, at int) int {
	for at < len(tokens) && optionalLabels[tokens[at]] {
		at++
	}
	return at
}
