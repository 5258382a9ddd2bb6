package specialist

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var istZone = time.FixedZone("IST", 5*3600+30*60)

var (
	currencyFirstRe = regexp.MustCompile(`(?i)(?:₹|\brs\.?|\binr)\s*([0-9][0-9,]*(?:\.[0-9]{1,2})?)`)
	amountFirstRe   = regexp.MustCompile(`(?i)\b([0-9][0-9,]*(?:\.[0-9]{1,2})?)\s*(?:₹|rupees?|rupaye|रुपये|रुपए|रु)`)
	bareAmountRe    = regexp.MustCompile(`\b([0-9][0-9,]*(?:\.[0-9]{1,2})?)\b`)

	vpaRe     = regexp.MustCompile(`\b[a-z0-9][a-z0-9._-]*@[a-z][a-z0-9]+\b`)
	toPayeeRe = regexp.MustCompile(`(?i)\bto\s+([A-Za-z]{2,})`)
	// \b cannot close को (it only understands ASCII word characters), so
	// the terminator is spelled out.
	koPayeeRe = regexp.MustCompile(`([\p{Devanagari}A-Za-z0-9@._-]{2,})\s+(?:को|ko)(?:[\s,.!?।]|$)`)

	inDaysRe = regexp.MustCompile(`(?i)\bin\s+([0-9]{1,2})\s+days?\b`)
)

// parseAmountPaise extracts an explicitly rupee-marked amount (₹500,
// Rs. 1,200.50, 500 rupees, 500 रुपये) and returns it in paise.
func parseAmountPaise(text string) (int64, bool) {
	m := currencyFirstRe.FindStringSubmatch(text)
	if m == nil {
		m = amountFirstRe.FindStringSubmatch(text)
	}
	if m == nil {
		return 0, false
	}
	return toPaise(m[1])
}

// parseAnyAmountPaise falls back to a bare number when no currency
// marker is present; payment requests often omit the ₹ sign.
func parseAnyAmountPaise(text string) (int64, bool) {
	if p, ok := parseAmountPaise(text); ok {
		return p, true
	}
	m := bareAmountRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	return toPaise(m[1])
}

func toPaise(raw string) (int64, bool) {
	raw = strings.ReplaceAll(raw, ",", "")
	whole, frac, _ := strings.Cut(raw, ".")
	rupees, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || rupees > 1_000_000_000_000 {
		return 0, false
	}
	paise := rupees * 100
	if frac != "" {
		if len(frac) == 1 {
			frac += "0"
		}
		p, err := strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, false
		}
		paise += p
	}
	return paise, true
}

var payeeStopWords = map[string]bool{
	"my": true, "the": true, "me": true, "a": true, "an": true, "be": true,
	"account": true, "check": true, "know": true, "see": true, "pay": true,
	"send": true, "do": true, "it": true, "that": true, "this": true,
}

// parsePayee pulls the transfer counterparty out of the message: a UPI
// VPA when present, otherwise the name following "to" or before "को".
func parsePayee(text string) (string, bool) {
	if m := vpaRe.FindString(strings.ToLower(text)); m != "" {
		return m, true
	}
	if m := toPayeeRe.FindStringSubmatch(text); m != nil {
		if name := m[1]; !payeeStopWords[strings.ToLower(name)] {
			return name, true
		}
	}
	if m := koPayeeRe.FindStringSubmatch(text); m != nil {
		name := m[1]
		if !payeeStopWords[strings.ToLower(name)] && !allDigits(name) {
			return name, true
		}
	}
	return "", false
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// hasToken reports whether any whitespace-separated token of text,
// stripped of trailing punctuation, equals one of words.
func hasToken(text string, words ...string) bool {
	for _, f := range strings.Fields(strings.ToLower(text)) {
		f = strings.Trim(f, ".,!?।'\"")
		for _, w := range words {
			if f == w {
				return true
			}
		}
	}
	return false
}

// hasAny reports whether text contains any of the given substrings.
// Callers pass lowercased text.
func hasAny(text string, subs ...string) bool {
	for _, s := range subs {
		if strings.Contains(text, s) {
			return true
		}
	}
	return false
}

// isCancellation is checked before isConfirmation so "nahi bhejna" and
// similar negations win over any stray affirmative token.
func isCancellation(text string) bool {
	return hasToken(text, "cancel", "cancelled", "no", "nahi", "nahin", "mat", "रद्द", "नहीं", "मत")
}

func isConfirmation(text string) bool {
	return hasToken(text, "confirm", "confirmed", "yes", "y", "haan", "ha", "ok", "okay",
		"sure", "theek", "pakka", "हाँ", "हां", "ठीक", "पक्का")
}

// isHindi reports whether the turn's reply should be in Hindi.
func isHindi(language string) bool {
	return strings.HasPrefix(strings.ToLower(language), "hi")
}

// pick returns the English or Hindi variant for the turn's language.
func pick(language, en, hi string) string {
	if isHindi(language) {
		return hi
	}
	return en
}

// formatRupees renders paise as a rupee string with Indian digit
// grouping, e.g. 12345678 paise as ₹1,23,456.78.
func formatRupees(paise int64) string {
	neg := paise < 0
	if neg {
		paise = -paise
	}
	s := fmt.Sprintf("₹%s.%02d", groupIndian(strconv.FormatInt(paise/100, 10)), paise%100)
	if neg {
		return "-" + s
	}
	return s
}

// groupIndian inserts commas in the Indian style: the last three digits
// form one group, everything before groups in pairs.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head := digits[:len(digits)-3]
	tail := digits[len(digits)-3:]
	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	parts = append([]string{head}, parts...)
	return strings.Join(parts, ",") + "," + tail
}

// fieldInt64 reads a numeric payload field regardless of how JSON
// decoding typed it; round-tripped cards come back with float64 values.
func fieldInt64(fields map[string]any, key string) (int64, bool) {
	switch v := fields[key].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func fieldString(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return s
}

var hindiMonths = [...]string{
	"जनवरी", "फ़रवरी", "मार्च", "अप्रैल", "मई", "जून",
	"जुलाई", "अगस्त", "सितंबर", "अक्टूबर", "नवंबर", "दिसंबर",
}

// formatDay renders a calendar day for reply text in the turn's language.
func formatDay(t time.Time, language string) string {
	t = t.In(istZone)
	if isHindi(language) {
		return fmt.Sprintf("%d %s", t.Day(), hindiMonths[t.Month()-1])
	}
	return t.Format("2 Jan")
}

// formatClock renders a time of day, using the Hindi day-period idiom
// (सुबह/दोपहर/शाम/रात with a 12-hour clock) for Hindi turns.
func formatClock(t time.Time, language string) string {
	t = t.In(istZone)
	if !isHindi(language) {
		return t.Format("3:04 PM")
	}
	h := t.Hour()
	period := "सुबह"
	switch {
	case h >= 12 && h < 17:
		period = "दोपहर"
	case h >= 17 && h < 20:
		period = "शाम"
	case h >= 20 || h < 5:
		period = "रात"
	}
	h12 := h % 12
	if h12 == 0 {
		h12 = 12
	}
	if t.Minute() == 0 {
		return fmt.Sprintf("%s %d बजे", period, h12)
	}
	return fmt.Sprintf("%s %d:%02d बजे", period, h12, t.Minute())
}

// parseDueTime resolves a handful of relative day phrases to a concrete
// reminder time in IST, defaulting to tomorrow morning. When the chosen
// morning slot has already passed it slides to the same evening.
func parseDueTime(text string, now time.Time) time.Time {
	lower := strings.ToLower(text)
	now = now.In(istZone)

	day := now.AddDate(0, 0, 1)
	switch {
	case inDaysRe.MatchString(lower):
		m := inDaysRe.FindStringSubmatch(lower)
		n, _ := strconv.Atoi(m[1])
		day = now.AddDate(0, 0, n)
	case strings.Contains(lower, "day after") || hasToken(lower, "parso", "परसों"):
		day = now.AddDate(0, 0, 2)
	case strings.Contains(lower, "next week") || strings.Contains(lower, "agle hafte") || strings.Contains(lower, "अगले हफ्ते"):
		day = now.AddDate(0, 0, 7)
	case strings.Contains(lower, "today") || hasToken(lower, "aaj", "आज"):
		day = now
	case strings.Contains(lower, "tomorrow") || hasToken(lower, "kal", "कल"):
		day = now.AddDate(0, 0, 1)
	}

	due := time.Date(day.Year(), day.Month(), day.Day(), 9, 0, 0, 0, istZone)
	for !due.After(now) {
		due = due.Add(12 * time.Hour)
	}
	return due
}
