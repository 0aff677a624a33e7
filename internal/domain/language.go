package domain

// Language is one of the supported conversation languages.
type Language string

const (
	LanguageEnglish Language = "en" // primary
	LanguageHindi   Language = "hi" // secondary
	LanguageMarathi Language = "mr" // tertiary
)

// Languages lists the supported languages in priority order.
var Languages = []Language{LanguageEnglish, LanguageHindi, LanguageMarathi}

// Valid reports whether l is supported.
func (l Language) Valid() bool {
	for _, x := range Languages {
		if l == x {
			return true
		}
	}
	return false
}

// Name returns the English display name of the language.
func (l Language) Name() string {
	switch l {
	case LanguageEnglish:
		return "English"
	case LanguageHindi:
		return "Hindi"
	case LanguageMarathi:
		return "Marathi"
	default:
		return string(l)
	}
}

// ParseLanguage maps a code to a Language, reporting whether it is known.
func ParseLanguage(code string) (Language, bool) {
	l := Language(code)
	return l, l.Valid()
}
