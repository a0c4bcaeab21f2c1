package nlp

import (
	"regexp"
	"strings"
)

// Intent is the coarse classification of what an utterance is trying to do.
type Intent string

const (
	IntentConfirm Intent = "confirm"
	IntentCancel  Intent = "cancel"
	IntentBook    Intent = "book"
	IntentGreet   Intent = "greet"
	IntentUnknown Intent = "unknown"
)

// Vocabulary matchers are compiled once and checked in precedence order:
// confirm beats cancel beats book beats greet. First match wins.
var (
	confirmPatterns = compileAll(
		`\bconfirm\b`, `\byes\b`, `\byep\b`, `\bsure\b`, `\bok\b`, `\ball set\b`,
		`that's fine`, `that works`, `looks good`,
	)
	cancelPatterns = compileAll(
		`\bcancel\b`, `\bforget\b`, `\bno longer\b`, `\bnever mind\b`,
	)
	bookPatterns = compileAll(
		`\bbook\b`, `\breserve\b`, `\breservation\b`, `\bstay\b`, `\bbooking\b`,
	)
	greetPatterns = compileAll(
		`^hi\b`, `^hello\b`, `^hey\b`, `good (morning|afternoon|evening)`,
	)

	digitRe = regexp.MustCompile(`\d`)
)

func compileAll(patterns ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		compiled[i] = regexp.MustCompile(p)
	}
	return compiled
}

func matchAny(patterns []*regexp.Regexp, text string) bool {
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// Classify maps one utterance to an intent tag. Pure function: no state,
// identical input always yields the identical tag.
func Classify(text string) Intent {
	if strings.TrimSpace(text) == "" {
		return IntentUnknown
	}
	t := strings.ToLower(text)

	if matchAny(confirmPatterns, t) {
		return IntentConfirm
	}
	if matchAny(cancelPatterns, t) {
		return IntentCancel
	}
	if matchAny(bookPatterns, t) {
		return IntentBook
	}
	if matchAny(greetPatterns, t) {
		return IntentGreet
	}

	// Heuristic fallback: numbers plus booking-related words.
	if digitRe.MatchString(t) && (strings.Contains(t, "night") || strings.Contains(t, "guest") ||
		strings.Contains(t, "people") || strings.Contains(t, "from") || strings.Contains(t, "to")) {
		return IntentBook
	}

	return IntentUnknown
}
