package nlp_test

import (
	"testing"
	"time"

	"concierge/internal/nlp"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeYearKeepsExplicitYear(t *testing.T) {
	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	parsed := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)

	got := nlp.NormalizeYear(parsed, "June 10, 2024", now)
	assert.Equal(t, parsed, got)
}

func TestNormalizeYearPicksNearestOccurrence(t *testing.T) {
	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

	// January has already passed; the occurrence two months back is
	// nearer than the one ten months ahead.
	parsed := time.Date(2027, time.January, 20, 0, 0, 0, 0, time.UTC)
	got := nlp.NormalizeYear(parsed, "January 20", now)
	assert.Equal(t, 2026, got.Year())

	// June is ahead: the upcoming occurrence wins.
	parsed = time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC)
	got = nlp.NormalizeYear(parsed, "June 10", now)
	assert.Equal(t, 2026, got.Year())
}

func TestNormalizeYearSkipsInvalidLeapCandidates(t *testing.T) {
	// Only 2024 of 2024..2026 has a Feb 29.
	now := time.Date(2025, time.February, 25, 0, 0, 0, 0, time.UTC)
	parsed := time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC)

	got := nlp.NormalizeYear(parsed, "Feb 29", now)
	assert.Equal(t, 2024, got.Year())
	assert.Equal(t, time.February, got.Month())
	assert.Equal(t, 29, got.Day())
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2026, time.June, 10, 23, 0, 0, 0, time.UTC)
	b := time.Date(2026, time.June, 13, 1, 0, 0, 0, time.UTC)

	// Time of day is ignored.
	assert.Equal(t, 3, nlp.DaysBetween(a, b))
	assert.Equal(t, -3, nlp.DaysBetween(b, a))
	assert.Equal(t, 0, nlp.DaysBetween(a, a))
}
