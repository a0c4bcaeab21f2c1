package nlp_test

import (
	"testing"
	"time"

	"concierge/internal/nlp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedNow keeps date resolution deterministic: mid-March, so June dates
// resolve into the same calendar year.
var fixedNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

func newTestExtractor() *nlp.Extractor {
	return nlp.NewExtractor(nlp.NewRuleEngine(), func() time.Time { return fixedNow })
}

func TestExtractEmptyUtterance(t *testing.T) {
	e := newTestExtractor()
	fields := e.Extract("")
	assert.Equal(t, nlp.Fields{}, fields)
}

func TestExtractName(t *testing.T) {
	e := newTestExtractor()

	assert.Equal(t, "Alice Smith", e.Extract("My name is Alice Smith").Name)
	assert.Equal(t, "Bob", e.Extract("i'm Bob").Name)
	assert.Equal(t, "Carter", e.Extract("a room for Mr Carter").Name)
	assert.Empty(t, e.Extract("I want to book a room").Name)
}

func TestExtractGuests(t *testing.T) {
	e := newTestExtractor()

	assert.Equal(t, 2, e.Extract("2 guests").Guests)
	assert.Equal(t, 4, e.Extract("for 4 people").Guests)
	assert.Zero(t, e.Extract("some guests").Guests)
}

func TestExtractGuestsSkipsDateNumbers(t *testing.T) {
	e := newTestExtractor()

	fields := e.Extract("from June 10 to June 13 for 2 guests")
	assert.Equal(t, 2, fields.Guests)
}

func TestExtractBreakfast(t *testing.T) {
	e := newTestExtractor()

	assert.Equal(t, "No", e.Extract("no breakfast please").Breakfast)
	assert.Equal(t, "Continental", e.Extract("continental breakfast").Breakfast)
	assert.Equal(t, "Included", e.Extract("with breakfast").Breakfast)
	assert.Equal(t, "Buffet", e.Extract("breakfast: buffet").Breakfast)
	assert.Equal(t, "Full English", e.Extract("full english breakfast").Breakfast)
	// No mention of breakfast at all.
	assert.Empty(t, e.Extract("a room with a view").Breakfast)
}

func TestExtractPayment(t *testing.T) {
	e := newTestExtractor()

	assert.Equal(t, "Crypto", e.Extract("pay by btc").PaymentMethod)
	assert.Equal(t, "Visa", e.Extract("I'll use my visa").PaymentMethod)
	assert.Equal(t, "Card", e.Extract("debit please").PaymentMethod)
	assert.Equal(t, "Amex", e.Extract("american express").PaymentMethod)
	assert.Equal(t, "PayPal", e.Extract("payment: paypal").PaymentMethod)
	assert.Empty(t, e.Extract("no idea yet").PaymentMethod)
}

func TestExtractDateRange(t *testing.T) {
	e := newTestExtractor()

	fields := e.Extract("June 10 to June 13")
	require.NotNil(t, fields.CheckIn)
	require.NotNil(t, fields.CheckOut)
	assert.Equal(t, time.Date(2026, time.June, 10, 0, 0, 0, 0, time.UTC), *fields.CheckIn)
	assert.Equal(t, time.Date(2026, time.June, 13, 0, 0, 0, 0, time.UTC), *fields.CheckOut)
	assert.Equal(t, 3, fields.Nights)
	assert.False(t, fields.CheckOut.Before(*fields.CheckIn))
}

func TestExtractDateRangeSwapsOrder(t *testing.T) {
	e := newTestExtractor()

	fields := e.Extract("June 13 to June 10")
	require.NotNil(t, fields.CheckIn)
	require.NotNil(t, fields.CheckOut)
	assert.True(t, fields.CheckIn.Before(*fields.CheckOut))
	assert.Equal(t, 3, fields.Nights)
}

func TestExtractSingleDateWithNights(t *testing.T) {
	e := newTestExtractor()

	fields := e.Extract("next monday for 3 nights")
	require.NotNil(t, fields.CheckIn)
	// 2026-03-15 is a Sunday; next Monday is the 16th.
	assert.Equal(t, time.Date(2026, time.March, 16, 0, 0, 0, 0, time.UTC), *fields.CheckIn)
	assert.Equal(t, 3, fields.Nights)
	require.NotNil(t, fields.CheckOut)
	assert.Equal(t, time.Date(2026, time.March, 19, 0, 0, 0, 0, time.UTC), *fields.CheckOut)
}

func TestExtractTrailingBareDayCheckout(t *testing.T) {
	e := newTestExtractor()

	for _, msg := range []string{"Jan 12 to 15", "Jan 12-15"} {
		fields := e.Extract(msg)
		require.NotNil(t, fields.CheckIn, msg)
		require.NotNil(t, fields.CheckOut, msg)
		assert.Equal(t, time.Date(2026, time.January, 12, 0, 0, 0, 0, time.UTC), *fields.CheckIn, msg)
		assert.Equal(t, time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC), *fields.CheckOut, msg)
		assert.Equal(t, 3, fields.Nights, msg)
	}

	fields := e.Extract("June 10 to 13")
	require.NotNil(t, fields.CheckIn)
	require.NotNil(t, fields.CheckOut)
	assert.Equal(t, time.Date(2026, time.June, 13, 0, 0, 0, 0, time.UTC), *fields.CheckOut)
	assert.Equal(t, 3, fields.Nights)
	// The trailing day belongs to the date, not the guest count.
	assert.Zero(t, fields.Guests)
}

func TestExtractTrailingDayRollsIntoNextMonth(t *testing.T) {
	e := newTestExtractor()

	// Checkout day smaller than the checkin day lands in the next month.
	// Dec 28 year-normalizes to its nearest occurrence, the past December.
	fields := e.Extract("Dec 28 to 2")
	require.NotNil(t, fields.CheckIn)
	require.NotNil(t, fields.CheckOut)
	assert.Equal(t, time.Date(2025, time.December, 28, 0, 0, 0, 0, time.UTC), *fields.CheckIn)
	assert.Equal(t, time.Date(2026, time.January, 2, 0, 0, 0, 0, time.UTC), *fields.CheckOut)
	assert.Equal(t, 5, fields.Nights)
}

func TestExtractCompactRangeFallback(t *testing.T) {
	e := newTestExtractor()

	fields := e.Extract("Jan12-Jan15")
	require.NotNil(t, fields.CheckIn)
	require.NotNil(t, fields.CheckOut)
	assert.Equal(t, time.Date(2026, time.January, 12, 0, 0, 0, 0, time.UTC), *fields.CheckIn)
	assert.Equal(t, time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC), *fields.CheckOut)
	assert.Equal(t, 3, fields.Nights)
}

func TestParseDateLenientForms(t *testing.T) {
	engine := nlp.NewRuleEngine()

	// Bare day: next occurrence on or after now.
	d, ok := engine.ParseDate("15", fixedNow)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC), d.When)

	d, ok = engine.ParseDate("3", fixedNow)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, time.April, 3, 0, 0, 0, 0, time.UTC), d.When)

	// Month and day without whitespace.
	d, ok = engine.ParseDate("Jan12", fixedNow)
	require.True(t, ok)
	assert.Equal(t, time.January, d.When.Month())
	assert.Equal(t, 12, d.When.Day())

	_, ok = engine.ParseDate("relax", fixedNow)
	assert.False(t, ok)
}

func TestExtractSkipsDatesForBareName(t *testing.T) {
	e := newTestExtractor()

	fields := e.Extract("John Smith")
	assert.Nil(t, fields.CheckIn)
	assert.Nil(t, fields.CheckOut)
	assert.Zero(t, fields.Nights)
}

func TestLooksLikeName(t *testing.T) {
	assert.True(t, nlp.LooksLikeName("John Smith"))
	assert.True(t, nlp.LooksLikeName("Anna Maria Lopez"))
	assert.False(t, nlp.LooksLikeName(""))
	assert.False(t, nlp.LooksLikeName("   "))
	assert.False(t, nlp.LooksLikeName("12/06"))
	assert.False(t, nlp.LooksLikeName("John 5"))
	assert.False(t, nlp.LooksLikeName("from monday"))
	assert.False(t, nlp.LooksLikeName("breakfast"))
	assert.False(t, nlp.LooksLikeName("One Two Three Four"))
}

// stubEngine substitutes the rule engine to prove the capability is
// injected, not a package singleton.
type stubEngine struct {
	persons []string
	dates   []nlp.DateMatch
}

func (s *stubEngine) RecognizePersons(string) []string   { return s.persons }
func (s *stubEngine) RecognizeCardinals(string) []string { return nil }
func (s *stubEngine) SearchDates(string, time.Time) []nlp.DateMatch {
	return s.dates
}
func (s *stubEngine) ParseDate(string, time.Time) (nlp.DateMatch, bool) {
	return nlp.DateMatch{}, false
}

func TestExtractUsesInjectedEngine(t *testing.T) {
	checkin := time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC)
	checkout := time.Date(2026, time.July, 4, 0, 0, 0, 0, time.UTC)
	engine := &stubEngine{
		persons: []string{"Stubbed Person"},
		dates: []nlp.DateMatch{
			{Text: "July 1", When: checkin},
			{Text: "July 4", When: checkout},
		},
	}
	e := nlp.NewExtractor(engine, func() time.Time { return fixedNow })

	fields := e.Extract("anything with digits 123")
	assert.Equal(t, "Stubbed Person", fields.Name)
	require.NotNil(t, fields.CheckIn)
	assert.Equal(t, checkin, *fields.CheckIn)
	assert.Equal(t, 3, fields.Nights)
}
