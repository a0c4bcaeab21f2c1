package nlp

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Fields holds the candidate values pulled out of one utterance. Zero
// values mean the field was not present.
type Fields struct {
	Name          string
	Guests        int
	Breakfast     string
	PaymentMethod string
	CheckIn       *time.Time
	CheckOut      *time.Time
	Nights        int
}

var (
	nameFallbackRe = regexp.MustCompile(`(?:i am|i'm|my name is|this is|I am|I'm|My name is|This is)\s+([A-Z][a-z]+(?:\s[A-Z][a-z]+)*)`)
	nameContextRe  = regexp.MustCompile(`(?i)\b(i am|i'm|my name|name)\b`)

	guestsRe    = regexp.MustCompile(`(?i)(\d+)\s*(?:guest|guests|person|people)`)
	nonDigitsRe = regexp.MustCompile(`[^\d]`)

	breakfastWordRe  = regexp.MustCompile(`(?i)\bbreakfast\b`)
	breakfastValueRe = regexp.MustCompile(`(?i)breakfast[:\s-]*(yes|no|included|with|without|continental|american|buffet|full english|full|english|none)`)
	breakfastWithRe  = regexp.MustCompile(`(?i)(?:include|included|with)\s+breakfast`)
	breakfastNoRe    = regexp.MustCompile(`(?i)(?:no|without|none)\s+breakfast`)
	continentalRe    = regexp.MustCompile(`(?i)continental`)
	buffetRe         = regexp.MustCompile(`(?i)buffet`)
	fullEnglishRe    = regexp.MustCompile(`(?i)full\s+english|fullenglish`)

	paymentRe       = regexp.MustCompile(`(?i)\b(visa|mastercard|paypal|cash|card|debit|credit|american express|amex|crypto|bitcoin|btc)\b`)
	paymentWordRe   = regexp.MustCompile(`(?i)\bpayment\b`)
	paymentScopedRe = regexp.MustCompile(`(?i)payment[:\s-]*(visa|mastercard|paypal|cash|card|debit|credit|amex|american express|crypto|bitcoin|btc)`)

	nightsRe     = regexp.MustCompile(`(?i)for\s+(\d+)\s+night`)
	trailingToRe = regexp.MustCompile(`(?:to|until|through|-)\s*([A-Za-z0-9 ,/\-]+)`)

	rangeRe = regexp.MustCompile(
		`([A-Za-z]{3,9}\s*\d{1,2}(?:,?\s*\d{4})?|\d{1,2}[/\-]\d{1,2}(?:[/\-]\d{2,4})?)\s*[-–]\s*` +
			`([A-Za-z]{3,9}\s*\d{1,2}(?:,?\s*\d{4})?|\d{1,2}[/\-]\d{1,2}(?:[/\-]\d{2,4})?)`)

	structuredInputRe = regexp.MustCompile(`[0-9/\\\-:]`)
	alphaTokenRe      = regexp.MustCompile(`[A-Za-z]+`)

	directiveWords = map[string]bool{
		"from": true, "to": true, "next": true, "for": true, "night": true,
		"nights": true, "guest": true, "guests": true, "booking": true,
		"book": true, "checkin": true, "checkout": true, "payment": true,
		"breakfast": true,
	}

	paymentNormalization = map[string]string{
		"visa": "Visa", "mastercard": "Mastercard", "paypal": "PayPal",
		"cash": "Cash", "card": "Card", "debit": "Card", "credit": "Card",
		"american express": "Amex", "amex": "Amex", "crypto": "Crypto",
		"bitcoin": "Crypto", "btc": "Crypto",
	}
)

// LooksLikeName reports whether an utterance is plausibly a bare name
// reply: 1-3 alphabetic tokens, no digits or date punctuation, and no
// directive vocabulary. Used to keep the date and number parsers from
// eating a reply like "John Smith".
func LooksLikeName(text string) bool {
	s := strings.TrimSpace(text)
	if s == "" {
		return false
	}
	if structuredInputRe.MatchString(s) {
		return false
	}
	tokens := alphaTokenRe.FindAllString(s, -1)
	if len(tokens) < 1 || len(tokens) > 3 {
		return false
	}
	for _, tok := range tokens {
		if directiveWords[strings.ToLower(tok)] {
			return false
		}
	}
	return true
}

// Extractor pulls booking fields out of freeform utterances using an
// injected Engine plus pattern fallbacks.
type Extractor struct {
	engine Engine
	now    func() time.Time
}

// NewExtractor builds an Extractor. A nil clock means time.Now; tests
// pass a fixed clock for deterministic date resolution.
func NewExtractor(engine Engine, clock func() time.Time) *Extractor {
	if clock == nil {
		clock = time.Now
	}
	return &Extractor{engine: engine, now: clock}
}

// Extract parses one utterance into candidate booking fields. An empty
// utterance yields empty Fields. Unparseable values are simply absent,
// never errors.
func (e *Extractor) Extract(text string) Fields {
	var out Fields
	if text == "" {
		return out
	}
	now := e.now()

	// Name: prefer a recognized person span, else introduction phrasing.
	if persons := e.engine.RecognizePersons(text); len(persons) > 0 {
		out.Name = strings.TrimSpace(persons[0])
	} else if m := nameFallbackRe.FindStringSubmatch(text); m != nil {
		out.Name = strings.TrimSpace(m[1])
	}

	// Guests: prefer a recognized cardinal, else an explicit phrase.
	for _, c := range e.engine.RecognizeCardinals(text) {
		digits := nonDigitsRe.ReplaceAllString(c, "")
		if v, err := strconv.Atoi(digits); err == nil {
			out.Guests = v
			break
		}
	}
	if out.Guests == 0 {
		if m := guestsRe.FindStringSubmatch(text); m != nil {
			if v, err := strconv.Atoi(m[1]); err == nil {
				out.Guests = v
			}
		}
	}

	out.Breakfast = extractBreakfast(text)
	out.PaymentMethod = extractPayment(text)

	// A bare name reply is never run through the date parsers.
	if LooksLikeName(text) && !nameContextRe.MatchString(text) {
		return out
	}

	e.extractDates(text, now, &out)
	return out
}

func (e *Extractor) extractDates(text string, now time.Time, out *Fields) {
	var normalized []time.Time
	for _, match := range e.engine.SearchDates(text, now) {
		normalized = append(normalized, NormalizeYear(match.When, match.Text, now))
	}

	if len(normalized) >= 2 {
		checkin, checkout := normalized[0], normalized[1]
		if checkout.Before(checkin) {
			checkin, checkout = checkout, checkin
		}
		out.CheckIn = &checkin
		out.CheckOut = &checkout
		out.Nights = maxInt(1, DaysBetween(checkin, checkout))
	} else if len(normalized) == 1 {
		checkin := normalized[0]
		out.CheckIn = &checkin
		if m := nightsRe.FindStringSubmatch(text); m != nil {
			nights, _ := strconv.Atoi(m[1])
			out.Nights = nights
			checkout := checkin.AddDate(0, 0, nights)
			out.CheckOut = &checkout
		} else if m := trailingToRe.FindStringSubmatch(text); m != nil {
			// Single date plus a trailing "to <phrase>". The phrase is
			// resolved relative to the check-in, so a bare "15" in
			// "Jan 12 to 15" lands in the check-in's month. The ordering
			// swap applied on the two-date path is deliberately not
			// applied here; nights still bottoms out at 1.
			if second, ok := e.engine.ParseDate(m[1], checkin); ok {
				checkout := second.When
				if !bareDayRe.MatchString(m[1]) {
					checkout = NormalizeYear(checkout, m[1], now)
				}
				out.CheckOut = &checkout
				out.Nights = maxInt(1, DaysBetween(checkin, checkout))
			}
		}
	}

	// Explicit two-sided range like "Jan 12-15", only when nothing above
	// produced a check-in.
	if out.CheckIn == nil {
		if m := rangeRe.FindStringSubmatch(text); m != nil {
			first, ok1 := e.engine.ParseDate(m[1], now)
			second, ok2 := e.engine.ParseDate(m[2], now)
			if ok1 && ok2 {
				d1, d2 := first.When, second.When
				if !explicitYearRe.MatchString(m[1]) {
					d1 = NormalizeYear(d1, m[1], now)
				}
				if !explicitYearRe.MatchString(m[2]) {
					d2 = NormalizeYear(d2, m[2], now)
				}
				if d2.Before(d1) {
					d1, d2 = d2, d1
				}
				out.CheckIn = &d1
				out.CheckOut = &d2
				out.Nights = maxInt(1, DaysBetween(d1, d2))
			}
		}
	}
}

func extractBreakfast(text string) string {
	if !breakfastWordRe.MatchString(text) {
		return ""
	}
	var raw string
	if m := breakfastValueRe.FindStringSubmatch(text); m != nil {
		raw = m[1]
	} else if breakfastWithRe.MatchString(text) {
		raw = "included"
	} else if breakfastNoRe.MatchString(text) {
		raw = "no"
	} else if continentalRe.MatchString(text) {
		raw = "continental"
	} else if buffetRe.MatchString(text) {
		raw = "buffet"
	} else if fullEnglishRe.MatchString(text) {
		raw = "full english"
	} else {
		raw = "unspecified"
	}
	return normalizeBreakfast(raw)
}

func normalizeBreakfast(raw string) string {
	switch low := strings.ToLower(raw); {
	case low == "yes" || low == "with" || low == "included" || low == "include":
		return "Included"
	case low == "no" || low == "none" || low == "without":
		return "No"
	case strings.Contains(low, "continental"):
		return "Continental"
	case strings.Contains(low, "buffet"):
		return "Buffet"
	case strings.Contains(low, "full") || strings.Contains(low, "english"):
		return "Full English"
	default:
		return capitalize(raw)
	}
}

func extractPayment(text string) string {
	var raw string
	if m := paymentRe.FindStringSubmatch(text); m != nil {
		raw = m[1]
	} else if paymentWordRe.MatchString(text) {
		if m := paymentScopedRe.FindStringSubmatch(text); m != nil {
			raw = m[1]
		}
	}
	if raw == "" {
		return ""
	}
	if norm, ok := paymentNormalization[strings.ToLower(raw)]; ok {
		return norm
	}
	return titleCase(raw)
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = capitalize(w)
	}
	return strings.Join(words, " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
