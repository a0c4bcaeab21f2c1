package nlp

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DateMatch is one date-like phrase found in an utterance, together with
// the text span it was parsed from.
type DateMatch struct {
	Text string
	When time.Time
}

// Engine is the natural-language capability consumed by the extractor:
// person spans, cardinal-number spans and free-text date search. It is
// injected explicitly so tests can substitute a deterministic stub.
type Engine interface {
	RecognizePersons(text string) []string
	RecognizeCardinals(text string) []string
	SearchDates(text string, now time.Time) []DateMatch
	ParseDate(text string, now time.Time) (DateMatch, bool)
}

// RuleEngine is the default Engine: fixed pattern tables, no model files,
// no network. Date search biases ambiguous phrases toward future
// occurrences ("Monday" means the next upcoming Monday).
type RuleEngine struct{}

func NewRuleEngine() *RuleEngine {
	return &RuleEngine{}
}

var (
	personCueRe = regexp.MustCompile(`(?:\bI am|\bI'm|\bi am|\bi'm|\bmy name is|\bMy name is|\bthis is|\bThis is)\s+([A-Z][a-z]+(?:\s[A-Z][a-z]+)*)`)
	honorificRe = regexp.MustCompile(`\b(?:Mr|Mrs|Ms|Dr)\.?\s+([A-Z][a-z]+(?:\s[A-Z][a-z]+)*)`)

	numberTokenRe = regexp.MustCompile(`\d+`)
	wordRe        = regexp.MustCompile(`[A-Za-z]+`)

	monthNames = map[string]time.Month{
		"jan": time.January, "january": time.January,
		"feb": time.February, "february": time.February,
		"mar": time.March, "march": time.March,
		"apr": time.April, "april": time.April,
		"may": time.May,
		"jun": time.June, "june": time.June,
		"jul": time.July, "july": time.July,
		"aug": time.August, "august": time.August,
		"sep": time.September, "sept": time.September, "september": time.September,
		"oct": time.October, "october": time.October,
		"nov": time.November, "november": time.November,
		"dec": time.December, "december": time.December,
	}

	weekdayNames = map[string]time.Weekday{
		"monday": time.Monday, "tuesday": time.Tuesday, "wednesday": time.Wednesday,
		"thursday": time.Thursday, "friday": time.Friday, "saturday": time.Saturday,
		"sunday": time.Sunday,
	}

	monthPattern = `jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sep(?:t|tember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?`

	monthDayRe = regexp.MustCompile(`(?i)\b(` + monthPattern + `)\.?\s+(\d{1,2})(?:st|nd|rd|th)?(?:,?\s*(\d{4}))?\b`)
	dayMonthRe = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?(` + monthPattern + `)\b(?:,?\s*(\d{4}))?`)
	numericRe  = regexp.MustCompile(`\b(\d{1,2})[/\-](\d{1,2})(?:[/\-](\d{2,4}))?\b`)
	relativeRe = regexp.MustCompile(`(?i)\b(today|tonight|tomorrow)\b`)
	weekdayRe  = regexp.MustCompile(`(?i)\b(?:next\s+|this\s+|coming\s+)?(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)

	// Single-phrase forms accepted only by ParseDate: whitespace between
	// month and day is optional, and a lone day number is a date.
	tightMonthDayRe = regexp.MustCompile(`(?i)^\s*(` + monthPattern + `)\.?\s*(\d{1,2})(?:st|nd|rd|th)?(?:,?\s*(\d{4}))?\s*$`)
	tightDayMonthRe = regexp.MustCompile(`(?i)^\s*(\d{1,2})(?:st|nd|rd|th)?\s*(?:of\s+)?(` + monthPattern + `)(?:,?\s*(\d{4}))?\s*$`)
	bareDayRe       = regexp.MustCompile(`^\s*(\d{1,2})(?:st|nd|rd|th)?\s*$`)
)

// RecognizePersons finds likely person spans: introduction phrases
// ("I'm Alice Smith") and honorifics ("Mr Carter").
func (e *RuleEngine) RecognizePersons(text string) []string {
	var persons []string
	for _, m := range personCueRe.FindAllStringSubmatch(text, -1) {
		persons = append(persons, strings.TrimSpace(m[1]))
	}
	for _, m := range honorificRe.FindAllStringSubmatch(text, -1) {
		persons = append(persons, strings.TrimSpace(m[1]))
	}
	return persons
}

// RecognizeCardinals finds standalone counting numbers, skipping tokens
// that belong to a date or duration expression (month-adjacent days,
// years, "3 nights", numeric dates).
func (e *RuleEngine) RecognizeCardinals(text string) []string {
	var cardinals []string
	dateContext := monthDayRe.MatchString(text) || dayMonthRe.MatchString(text) ||
		numericRe.MatchString(text)
	for _, loc := range numberTokenRe.FindAllStringIndex(text, -1) {
		token := text[loc[0]:loc[1]]
		if len(token) == 4 && strings.HasPrefix(token, "20") {
			continue // year
		}
		if partOfNumericDate(text, loc[0], loc[1]) {
			continue
		}
		prev := wordBefore(text, loc[0])
		next := wordAfter(text, loc[1])
		if _, ok := monthNames[prev]; ok {
			continue
		}
		if _, ok := monthNames[next]; ok {
			continue
		}
		if strings.HasPrefix(next, "night") {
			continue
		}
		// In a message that already carries a date, a number right after
		// "to"/"until"/"through" is the checkout day, not a count.
		if dateContext && (prev == "to" || prev == "until" || prev == "through") {
			continue
		}
		if next == "st" || next == "nd" || next == "rd" || next == "th" {
			continue // ordinal day
		}
		cardinals = append(cardinals, token)
	}
	return cardinals
}

func partOfNumericDate(text string, start, end int) bool {
	if start > 0 && (text[start-1] == '/' || text[start-1] == '-' || text[start-1] == ':') {
		return true
	}
	if end < len(text) && (text[end] == '/' || text[end] == '-' || text[end] == ':') {
		return true
	}
	return false
}

func wordBefore(text string, pos int) string {
	words := wordRe.FindAllString(text[:pos], -1)
	if len(words) == 0 {
		return ""
	}
	return strings.ToLower(words[len(words)-1])
}

func wordAfter(text string, pos int) string {
	word := wordRe.FindString(text[pos:])
	return strings.ToLower(word)
}

type foundDate struct {
	start, end int
	text       string
	when       time.Time
}

// SearchDates scans an utterance for date-like phrases in order of
// appearance: month-day, day-month, numeric, relative words and weekday
// names. Overlapping matches keep the earliest, longest span.
func (e *RuleEngine) SearchDates(text string, now time.Time) []DateMatch {
	var found []foundDate

	for _, loc := range monthDayRe.FindAllStringSubmatchIndex(text, -1) {
		span := text[loc[0]:loc[1]]
		m := monthDayRe.FindStringSubmatch(span)
		if d, ok := e.makeMonthDay(m[1], m[2], m[3], now); ok {
			found = append(found, foundDate{loc[0], loc[1], span, d})
		}
	}
	for _, loc := range dayMonthRe.FindAllStringSubmatchIndex(text, -1) {
		span := text[loc[0]:loc[1]]
		m := dayMonthRe.FindStringSubmatch(span)
		if d, ok := e.makeMonthDay(m[2], m[1], m[3], now); ok {
			found = append(found, foundDate{loc[0], loc[1], span, d})
		}
	}
	for _, loc := range numericRe.FindAllStringSubmatchIndex(text, -1) {
		span := text[loc[0]:loc[1]]
		m := numericRe.FindStringSubmatch(span)
		if d, ok := makeNumericDate(m[1], m[2], m[3], now); ok {
			found = append(found, foundDate{loc[0], loc[1], span, d})
		}
	}
	for _, loc := range relativeRe.FindAllStringIndex(text, -1) {
		span := text[loc[0]:loc[1]]
		found = append(found, foundDate{loc[0], loc[1], span, makeRelativeDate(span, now)})
	}
	for _, loc := range weekdayRe.FindAllStringSubmatchIndex(text, -1) {
		span := text[loc[0]:loc[1]]
		m := weekdayRe.FindStringSubmatch(span)
		found = append(found, foundDate{loc[0], loc[1], span, nextWeekday(weekdayNames[strings.ToLower(m[1])], now)})
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].start != found[j].start {
			return found[i].start < found[j].start
		}
		return found[i].end > found[j].end
	})

	var matches []DateMatch
	lastEnd := -1
	for _, f := range found {
		if f.start < lastEnd {
			continue
		}
		matches = append(matches, DateMatch{Text: f.text, When: f.when})
		lastEnd = f.end
	}
	return matches
}

// ParseDate parses a single phrase as one date, reporting whether
// anything date-like was found. More lenient than SearchDates: "Jan12"
// and a bare day number like "15" both resolve, the latter to its next
// occurrence on or after now.
func (e *RuleEngine) ParseDate(text string, now time.Time) (DateMatch, bool) {
	if matches := e.SearchDates(text, now); len(matches) > 0 {
		return matches[0], true
	}
	if m := tightMonthDayRe.FindStringSubmatch(text); m != nil {
		if d, ok := e.makeMonthDay(m[1], m[2], m[3], now); ok {
			return DateMatch{Text: strings.TrimSpace(text), When: d}, true
		}
	}
	if m := tightDayMonthRe.FindStringSubmatch(text); m != nil {
		if d, ok := e.makeMonthDay(m[2], m[1], m[3], now); ok {
			return DateMatch{Text: strings.TrimSpace(text), When: d}, true
		}
	}
	if m := bareDayRe.FindStringSubmatch(text); m != nil {
		if d, ok := makeBareDay(m[1], now); ok {
			return DateMatch{Text: strings.TrimSpace(text), When: d}, true
		}
	}
	return DateMatch{}, false
}

// makeBareDay resolves a lone day number to its next occurrence on or
// after now's date, skipping months the day overflows.
func makeBareDay(day string, now time.Time) (time.Time, bool) {
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 || d > 31 {
		return time.Time{}, false
	}
	for i := 0; i < 3; i++ {
		t := time.Date(now.Year(), now.Month()+time.Month(i), d, 0, 0, 0, 0, now.Location())
		if t.Day() != d {
			continue
		}
		if t.Before(startOfDay(now)) {
			continue
		}
		return t, true
	}
	return time.Time{}, false
}

// makeMonthDay builds a date from month-name and day strings. Without an
// explicit year the future occurrence is preferred.
func (e *RuleEngine) makeMonthDay(month, day, year string, now time.Time) (time.Time, bool) {
	m, ok := monthNames[strings.ToLower(strings.TrimSuffix(month, "."))]
	if !ok {
		return time.Time{}, false
	}
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 || d > 31 {
		return time.Time{}, false
	}
	if year != "" {
		y, err := strconv.Atoi(year)
		if err != nil {
			return time.Time{}, false
		}
		t := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
		if t.Month() != m || t.Day() != d {
			return time.Time{}, false
		}
		return t, true
	}
	t := time.Date(now.Year(), m, d, 0, 0, 0, 0, now.Location())
	if t.Month() != m || t.Day() != d {
		return time.Time{}, false
	}
	if t.Before(startOfDay(now)) {
		t = time.Date(now.Year()+1, m, d, 0, 0, 0, 0, now.Location())
	}
	return t, true
}

// makeNumericDate treats 12/06 style input as month-first, falling back
// to day-first when the first component cannot be a month.
func makeNumericDate(first, second, year string, now time.Time) (time.Time, bool) {
	a, err1 := strconv.Atoi(first)
	b, err2 := strconv.Atoi(second)
	if err1 != nil || err2 != nil {
		return time.Time{}, false
	}
	m, d := a, b
	if m > 12 {
		m, d = b, a
	}
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return time.Time{}, false
	}
	y := now.Year()
	explicit := false
	if year != "" {
		yv, err := strconv.Atoi(year)
		if err != nil {
			return time.Time{}, false
		}
		if yv < 100 {
			yv += 2000
		}
		y = yv
		explicit = true
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, now.Location())
	if t.Month() != time.Month(m) || t.Day() != d {
		return time.Time{}, false
	}
	if !explicit && t.Before(startOfDay(now)) {
		t = time.Date(y+1, time.Month(m), d, 0, 0, 0, 0, now.Location())
	}
	return t, true
}

func makeRelativeDate(word string, now time.Time) time.Time {
	day := startOfDay(now)
	if strings.EqualFold(word, "tomorrow") {
		return day.AddDate(0, 0, 1)
	}
	return day
}

// nextWeekday resolves a weekday name to its next upcoming occurrence,
// never today.
func nextWeekday(target time.Weekday, now time.Time) time.Time {
	ahead := (int(target) - int(now.Weekday()) + 7) % 7
	if ahead == 0 {
		ahead = 7
	}
	return startOfDay(now).AddDate(0, 0, ahead)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
