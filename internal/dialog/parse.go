package dialog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/soyeahso/frontdesk/internal/intent"
)

// Booking dates are stored as ISO dates, times as 24h HH:MM.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

const maxNameLen = 60

var namePrefixes = []string{
	"my name is ", "my name's ", "name is ", "i am ", "i'm ", "this is ", "it's ", "it is ",
	"मेरा नाम ", "मैं ", "माझे नाव ", "माझं नाव ", "मी ",
}

var nameSuffixes = []string{" है", " हूँ", " हूं", " आहे", " here", " speaking"}

// ParseName pulls a caller name out of an introduction such as
// "My name is Asha" or "मेरा नाम आशा है".
func ParseName(text string) (string, bool) {
	name := strings.TrimSpace(strings.Trim(strings.TrimSpace(text), ".!?,।"))
	lower := strings.ToLower(name)
	for _, p := range namePrefixes {
		if strings.HasPrefix(lower+" ", p) {
			name = strings.TrimSpace((name + " ")[len(p):])
			lower = strings.ToLower(name)
			break
		}
	}
	for _, s := range nameSuffixes {
		if strings.HasSuffix(lower, s) {
			name = strings.TrimSpace(name[:len(name)-len(s)])
			break
		}
	}
	if name == "" || len(name) > maxNameLen {
		return "", false
	}
	for _, r := range name {
		if unicode.IsDigit(r) {
			return "", false
		}
	}
	return titleCase(name), true
}

// titleCase upper-cases the first letter of each Latin word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		if r[0] < unicode.MaxASCII {
			r[0] = unicode.ToUpper(r[0])
		}
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

var (
	dmyPattern = regexp.MustCompile(`\b(\d{1,2})[-/.](\d{1,2})[-/.](\d{4})\b`)
	isoPattern = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
)

// relativeDays are tried in order; longer phrases come first so
// "day after tomorrow" is not read as "tomorrow".
var relativeDays = []struct {
	word string
	days int
}{
	{"day after tomorrow", 2},
	{"tomorrow", 1},
	{"today", 0},
	{"परसों", 2},
	{"कल", 1},
	{"परवा", 2},
	{"उद्या", 1},
	{"आज", 0},
}

var weekdays = map[time.Weekday][]string{
	time.Monday:    {"monday", "सोमवार"},
	time.Tuesday:   {"tuesday", "मंगलवार", "मंगळवार"},
	time.Wednesday: {"wednesday", "बुधवार"},
	time.Thursday:  {"thursday", "गुरुवार", "गुरूवार"},
	time.Friday:    {"friday", "शुक्रवार"},
	time.Saturday:  {"saturday", "शनिवार"},
	time.Sunday:    {"sunday", "रविवार"},
}

// ParseDate reads a booking date relative to now. It understands explicit
// dd-mm-yyyy and yyyy-mm-dd dates, today/tomorrow/day after tomorrow, and
// weekday names in every supported language. Dates before today are refused.
func ParseDate(text string, now time.Time) (string, bool) {
	lower := strings.ToLower(text)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if m := isoPattern.FindStringSubmatch(lower); m != nil {
		return explicitDate(m[1], m[2], m[3], today)
	}
	if m := dmyPattern.FindStringSubmatch(lower); m != nil {
		return explicitDate(m[3], m[2], m[1], today)
	}

	for _, rd := range relativeDays {
		if intent.ContainsKeyword(lower, rd.word) {
			return today.AddDate(0, 0, rd.days).Format(DateLayout), true
		}
	}

	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		for _, name := range weekdays[wd] {
			if intent.ContainsKeyword(lower, name) {
				ahead := (int(wd) - int(today.Weekday()) + 7) % 7
				if ahead == 0 {
					ahead = 7
				}
				return today.AddDate(0, 0, ahead).Format(DateLayout), true
			}
		}
	}
	return "", false
}

func explicitDate(y, m, d string, today time.Time) (string, bool) {
	year, _ := strconv.Atoi(y)
	month, _ := strconv.Atoi(m)
	day, _ := strconv.Atoi(d)
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, today.Location())
	// time.Date normalizes 31-02 into March; reject anything that moved
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return "", false
	}
	if t.Before(today) {
		return "", false
	}
	return t.Format(DateLayout), true
}

var (
	meridiemPattern = regexp.MustCompile(`\b(\d{1,2})(?:[:.](\d{2}))?\s*(am|pm|a\.m\.|p\.m\.)`)
	clockPattern    = regexp.MustCompile(`\b([01]?\d|2[0-3]):([0-5]\d)\b`)
	spokenPattern   = regexp.MustCompile(`(\d{1,2})(?:[:.](\d{2}))?\s*(?:बजे|वाजता|वाजे)`)
)

var (
	eveningWords = []string{"शाम", "दोपहर", "रात", "संध्याकाळी", "दुपारी", "रात्री"}
	morningWords = []string{"सुबह", "सकाळी"}
)

// ParseTime reads an optional time of day: "5pm", "5:30 pm", "17:00",
// "शाम 5 बजे", "सकाळी 10 वाजता".
func ParseTime(text string) (string, bool) {
	lower := strings.ToLower(text)

	if m := meridiemPattern.FindStringSubmatch(lower); m != nil {
		h, _ := strconv.Atoi(m[1])
		mins := atoiOr(m[2], 0)
		if h < 1 || h > 12 || mins > 59 {
			return "", false
		}
		pm := strings.HasPrefix(m[3], "p")
		switch {
		case pm && h != 12:
			h += 12
		case !pm && h == 12:
			h = 0
		}
		return clock(h, mins), true
	}
	if m := clockPattern.FindStringSubmatch(lower); m != nil {
		h, _ := strconv.Atoi(m[1])
		mins, _ := strconv.Atoi(m[2])
		return clock(h, mins), true
	}
	if m := spokenPattern.FindStringSubmatch(lower); m != nil {
		h, _ := strconv.Atoi(m[1])
		mins := atoiOr(m[2], 0)
		if h > 23 || mins > 59 {
			return "", false
		}
		if h < 12 && containsAny(lower, eveningWords) {
			h += 12
		} else if h == 12 && containsAny(lower, morningWords) {
			h = 0
		}
		return clock(h, mins), true
	}
	return "", false
}

func clock(h, m int) string {
	return fmt.Sprintf("%02d:%02d", h, m)
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

var sameNumberPhrases = []string{
	"same number", "this number", "the number i'm calling from", "number i am calling from", "calling from",
	"इसी नंबर", "यही नंबर", "इस नंबर", "याच नंबर", "हाच नंबर", "हा नंबर",
}

// ParsePhone accepts a spoken or keyed phone number as written, or the
// caller's own address when they ask to use the number they are calling from.
func ParsePhone(text, callerAddress string) (string, bool) {
	if p := intent.Extract(text).Phone; p != "" {
		return p, true
	}
	lower := strings.ToLower(text)
	if callerAddress != "" && containsAny(lower, sameNumberPhrases) {
		return callerAddress, true
	}
	return "", false
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
