package intent

import (
	"regexp"
	"strings"

	"github.com/soyeahso/frontdesk/internal/domain"
)

var (
	// 10–15 digits, optionally led by "+", single spaces or dashes between digits
	phonePattern = regexp.MustCompile(`\+?\d(?:[\s-]?\d){9,14}`)
	datePattern  = regexp.MustCompile(`\b\d{2}[-/.]\d{2}[-/.]\d{4}\b`)
	digitRun     = regexp.MustCompile(`\d{4,}`)
)

// languageNames are the spoken names that select a language.
var languageNames = []struct {
	lang  domain.Language
	names []string
}{
	{domain.LanguageEnglish, []string{"english", "इंग्लिश", "अंग्रेजी", "अंग्रेज़ी", "इंग्रजी"}},
	{domain.LanguageHindi, []string{"hindi", "हिंदी", "हिन्दी"}},
	{domain.LanguageMarathi, []string{"marathi", "मराठी"}},
}

// Extract scans the raw utterance for phone numbers, dates, order numbers and
// language names. It is independent of how the intent label was produced.
func Extract(text string) domain.Entities {
	var e domain.Entities
	if text == "" {
		return e
	}

	dates := datePattern.FindAllStringIndex(text, -1)
	if len(dates) > 0 {
		e.Date = text[dates[0][0]:dates[0][1]]
	}

	if loc := phonePattern.FindStringIndex(maskSpans(text, dates)); loc != nil {
		e.Phone = strings.TrimSpace(text[loc[0]:loc[1]])
	}

	for _, loc := range digitRun.FindAllStringIndex(text, -1) {
		if insideAny(loc, dates) {
			continue
		}
		e.OrderNumber = text[loc[0]:loc[1]]
		break
	}

	lower := strings.ToLower(text)
	for _, ln := range languageNames {
		for _, n := range ln.names {
			if ContainsKeyword(lower, n) {
				e.Language = ln.lang
				return e
			}
		}
	}
	return e
}

// maskSpans blanks the given byte spans with a non-digit so a date next to
// a phone number cannot be read as part of it.
func maskSpans(text string, spans [][]int) string {
	if len(spans) == 0 {
		return text
	}
	b := []byte(text)
	for _, sp := range spans {
		for i := sp[0]; i < sp[1]; i++ {
			b[i] = '#'
		}
	}
	return string(b)
}

func insideAny(loc []int, spans [][]int) bool {
	for _, s := range spans {
		if loc[0] >= s[0] && loc[1] <= s[1] {
			return true
		}
	}
	return false
}
