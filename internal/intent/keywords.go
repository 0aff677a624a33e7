package intent

import (
	"strings"
	"unicode"

	"github.com/soyeahso/frontdesk/internal/domain"
)

// Categories is the keyword match order; the first category with a hit wins.
var Categories = []domain.IntentLabel{
	domain.IntentBooking,
	domain.IntentTracking,
	domain.IntentPricing,
	domain.IntentGoodbye,
	domain.IntentHelp,
}

// KeywordTable maps each category to the keywords of one language.
type KeywordTable map[domain.IntentLabel][]string

// DefaultKeywords holds one table per language. Tables are written in each
// language's own script; none is derived from another.
var DefaultKeywords = map[domain.Language]KeywordTable{
	domain.LanguageEnglish: {
		domain.IntentBooking:  {"book", "booking", "appointment", "schedule", "reserve", "reservation", "slot"},
		domain.IntentTracking: {"track", "tracking", "order", "status", "delivery", "my photos", "album ready"},
		domain.IntentPricing:  {"price", "prices", "pricing", "cost", "charges", "how much", "fees", "packages"},
		domain.IntentGoodbye:  {"bye", "goodbye", "good bye", "that's all", "that is all", "hang up", "end the call"},
		domain.IntentHelp:     {"help", "menu", "options", "repeat", "what can you do"},
	},
	domain.LanguageHindi: {
		domain.IntentBooking:  {"बुक", "बुकिंग", "अपॉइंटमेंट", "आरक्षण"},
		domain.IntentTracking: {"ऑर्डर", "ट्रैक", "स्थिति", "डिलीवरी", "कहाँ है"},
		domain.IntentPricing:  {"कीमत", "दाम", "कितना", "कितने", "शुल्क", "चार्ज"},
		domain.IntentGoodbye:  {"अलविदा", "बाय", "बस इतना", "फोन रखो"},
		domain.IntentHelp:     {"मदद", "सहायता", "विकल्प", "दोबारा"},
	},
	domain.LanguageMarathi: {
		domain.IntentBooking:  {"बुक", "बुकिंग", "अपॉइंटमेंट", "आरक्षण"},
		domain.IntentTracking: {"ऑर्डर", "ट्रॅक", "स्थिती", "डिलिव्हरी", "कुठे आहे"},
		domain.IntentPricing:  {"किंमत", "किती", "शुल्क", "चार्ज", "दर काय"},
		domain.IntentGoodbye:  {"निरोप", "बाय", "बस एवढेच", "फोन ठेवा"},
		domain.IntentHelp:     {"मदत", "सहाय्य", "पर्याय", "पुन्हा सांगा"},
	},
}

// matchCategory returns the first category in Categories with a keyword in text.
func matchCategory(table KeywordTable, text string) (domain.IntentLabel, string, bool) {
	for _, cat := range Categories {
		for _, kw := range table[cat] {
			if ContainsKeyword(text, kw) {
				return cat, kw, true
			}
		}
	}
	return "", "", false
}

// ContainsKeyword reports whether kw occurs in the lower-cased text. Latin
// keywords must sit on word boundaries so "cost" does not fire on "costume";
// other scripts match by plain containment.
func ContainsKeyword(text, kw string) bool {
	if kw == "" {
		return false
	}
	if !isASCII(kw) {
		return strings.Contains(text, kw)
	}
	for from := 0; from <= len(text)-len(kw); {
		i := strings.Index(text[from:], kw)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(kw)
		if boundaryBefore(text, start) && boundaryAfter(text, end) {
			return true
		}
		from = start + 1
	}
	return false
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

func boundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	r := rune(text[i-1])
	return text[i-1] < 0x80 && !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func boundaryAfter(text string, i int) bool {
	if i >= len(text) {
		return true
	}
	r := rune(text[i])
	return text[i] < 0x80 && !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
