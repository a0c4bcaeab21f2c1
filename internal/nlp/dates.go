package nlp

import (
	"regexp"
	"time"
)

var explicitYearRe = regexp.MustCompile(`\b(20\d{2})\b`)

// NormalizeYear disambiguates the year of a partial date. If the matched
// text carried an explicit "20xx" year the parsed date is kept as-is.
// Otherwise the candidate years now-1, now and now+1 are tried (skipping
// invalid calendar dates such as Feb 29 in a non-leap year) and the one
// closest in absolute time to now wins. The result may lie in the past;
// callers wanting a future bias must pre-filter.
func NormalizeYear(t time.Time, matched string, now time.Time) time.Time {
	if explicitYearRe.MatchString(matched) {
		return t
	}

	var best time.Time
	var bestDiff time.Duration
	found := false
	for _, y := range []int{now.Year() - 1, now.Year(), now.Year() + 1} {
		cand := time.Date(y, t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, t.Location())
		if cand.Month() != t.Month() || cand.Day() != t.Day() {
			continue
		}
		diff := cand.Sub(now)
		if diff < 0 {
			diff = -diff
		}
		if !found || diff < bestDiff {
			best, bestDiff, found = cand, diff, true
		}
	}
	if !found {
		return t
	}
	return best
}

// DaysBetween counts calendar days from a to b, ignoring time of day.
func DaysBetween(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bd.Sub(ad).Hours() / 24)
}
