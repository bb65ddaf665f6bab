package reconstruct

import (
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// ResolveDate maps an ambiguous MM/DD fragment onto a full calendar date.
// Candidates are built with the reference year and its two neighbours; the
// one closest to the reference date wins, so a 12/31 token on a page dated
// early January lands in the previous year. The bool is false when the
// fragment is not a real calendar date.
func ResolveDate(mmdd string, ref time.Time) (string, bool) {
	parts := strings.SplitN(mmdd, "/", 2)
	if len(parts) != 2 {
		return "", false
	}
	m, err := strconv.Atoi(parts[0])
	if err != nil {
		return "", false
	}
	d, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", false
	}

	refDay := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)
	var best time.Time
	bestDist := -1
	for _, y := range []int{ref.Year() - 1, ref.Year(), ref.Year() + 1} {
		cand := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
		// time.Date normalizes out-of-range values; a shifted month or day
		// means the fragment was not a real date in that year (e.g. 02/30,
		// or 02/29 off a leap year).
		if cand.Month() != time.Month(m) || cand.Day() != d {
			continue
		}
		dist := int(cand.Sub(refDay).Hours() / 24)
		if dist < 0 {
			dist = -dist
		}
		if bestDist < 0 || dist < bestDist {
			best = cand
			bestDist = dist
		}
	}
	if bestDist < 0 {
		return "", false
	}
	return best.Format(dateLayout), true
}
