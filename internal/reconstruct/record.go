// Package reconstruct recovers structured playback records from the flat
// token stream of one page. A single forward scan, parameterized on the
// detected layout variant, tracks a rolling current date and emits only
// fully valid records; malformed candidates are dropped and the scan
// resumes.
package reconstruct

import "strings"

// Record is one reconstructed playback entry.
type Record struct {
	// Date is the resolved calendar date, YYYY-MM-DD.
	Date string
	// DateMMDD is the raw MM/DD fragment the date was resolved from. Empty
	// when the page carried no date column.
	DateMMDD string
	// Time is the 24-hour broadcast time, HH:MM.
	Time      string
	Song      string
	Performer string
	Album     string
	Publisher string
	CatalogNo string

	// Provenance. Not part of the dedupe key.
	Page        int
	DaysAgo     int
	RetrievedAt string
}

// Key returns the dedupe identity (date, time, song, performer), or "" when
// any of those fields is missing and whole-row identity must be used
// instead.
func (r Record) Key() string {
	if r.Date == "" || r.Time == "" || r.Song == "" || r.Performer == "" {
		return ""
	}
	return strings.Join([]string{r.Date, r.Time, r.Song, r.Performer}, "\x1f")
}
