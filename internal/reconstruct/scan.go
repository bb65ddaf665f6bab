package reconstruct

import (
	"strconv"
	"time"

	"github.com/hyperifyio/playlog/internal/layout"
)

// stopWords are navigation and footer labels; hitting one ends record
// extraction for the whole page.
var stopWords = wordSet(
	"下一頁", "上一頁", "下頁", "上頁", "回上頁", "第一頁", "最後一頁",
	"next", "prev", "版權所有", "隱私權政策",
)

func wordSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// scanner is the explicit cursor-plus-state record of one page scan.
type scanner struct {
	tokens  []string
	pos     int
	variant layout.Variant
	ref     time.Time

	// Rolling current date, resolved; empty until a date token is seen in
	// the with-date layout.
	date     string
	dateMMDD string

	out []Record
}

// Scan consumes the data tokens of one page under the detected layout
// variant and returns the records it could fully reconstruct. The reference
// date anchors MM/DD resolution and supplies the date outright for layouts
// without a date column. Scanning the same tokens twice yields identical
// output; the scanner holds no cross-page state.
func Scan(tokens []string, v layout.Variant, ref time.Time) []Record {
	s := &scanner{tokens: tokens, variant: v, ref: ref}
	if v == layout.VariantNoDate || v == layout.VariantBare {
		s.date = ref.Format(dateLayout)
	}
	for s.pos < len(s.tokens) {
		tok := s.tokens[s.pos]
		if stopWords[tok] {
			break
		}
		switch v {
		case layout.VariantWithDate:
			if layout.IsDate(tok) {
				if date, ok := ResolveDate(tok, ref); ok &&
					s.pos+1 < len(s.tokens) && layout.IsTime(s.tokens[s.pos+1]) {
					s.date, s.dateMMDD = date, tok
					s.pos++
					s.emit()
					continue
				}
			}
			s.pos++
		case layout.VariantBare:
			if layout.IsDate(tok) {
				// A standalone date updates the rolling date without
				// starting a record; multi-day pages carry these between
				// blocks of rows.
				if date, ok := ResolveDate(tok, ref); ok {
					s.date, s.dateMMDD = date, tok
				}
				s.pos++
				continue
			}
			if layout.IsTime(tok) {
				s.emit()
				continue
			}
			s.pos++
		default: // VariantNoDate
			if layout.IsTime(tok) {
				s.emit()
				continue
			}
			s.pos++
		}
	}
	return s.out
}

// emit attempts one record starting at the time token under the cursor. On
// any malformed shape the candidate is dropped and the cursor is left at the
// offending token so scanning resumes there.
func (s *scanner) emit() {
	tm := s.tokens[s.pos]
	s.pos++
	if !validTime(tm) || s.date == "" {
		return
	}

	// Song and performer are the next two tokens unconditionally, except
	// that a date/time-shaped value in either slot aborts the candidate.
	var fields [2]string
	for i := 0; i < 2; i++ {
		if s.pos >= len(s.tokens) {
			return
		}
		tok := s.tokens[s.pos]
		if stopWords[tok] || layout.IsDate(tok) || layout.IsTime(tok) {
			return
		}
		fields[i] = tok
		s.pos++
	}

	rec := Record{
		Date:      s.date,
		DateMMDD:  s.dateMMDD,
		Time:      tm,
		Song:      fields[0],
		Performer: fields[1],
	}

	// Trailing columns: album, publisher, catalog number, in that order.
	// Anything past three is discarded.
	extras := 0
	for s.pos < len(s.tokens) {
		tok := s.tokens[s.pos]
		if stopWords[tok] {
			break
		}
		if s.variant != layout.VariantWithDate && layout.IsTime(tok) {
			break
		}
		// In the bare layout a date token is a rolling-date update, not an
		// extra; it must stay for the outer scan.
		if s.variant != layout.VariantNoDate && layout.IsDate(tok) {
			break
		}
		switch extras {
		case 0:
			rec.Album = tok
		case 1:
			rec.Publisher = tok
		case 2:
			rec.CatalogNo = tok
		}
		extras++
		s.pos++
	}

	s.out = append(s.out, rec)
}

// validTime checks HH:MM ranges on a token already known to be time-shaped.
func validTime(s string) bool {
	if !layout.IsTime(s) {
		return false
	}
	h, _ := strconv.Atoi(s[:2])
	m, _ := strconv.Atoi(s[3:])
	return h <= 23 && m <= 59
}
