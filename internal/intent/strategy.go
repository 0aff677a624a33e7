package intent

import (
	"context"
	"strings"

	"github.com/soyeahso/frontdesk/internal/catalog"
	"github.com/soyeahso/frontdesk/internal/domain"
)

// Outcome tags a strategy result.
type Outcome int

const (
	NoMatch     Outcome = iota // strategy ran but had nothing to say
	Matched                    // Intent is valid
	Unavailable                // strategy could not run; Err says why
)

func (o Outcome) String() string {
	switch o {
	case Matched:
		return "matched"
	case Unavailable:
		return "unavailable"
	default:
		return "no_match"
	}
}

// Result is what one cascade step returns.
type Result struct {
	Outcome Outcome
	Intent  domain.Intent
	Err     error
}

// Query is everything a strategy may look at for one turn.
type Query struct {
	Utterance string
	Digits    string
	Language  domain.Language
	State     domain.State
	History   []domain.HistoryEntry
}

// languageSelected reports whether the caller has picked a language yet.
func (q Query) languageSelected() bool {
	return q.State != domain.StateLanguageSelection && q.Language.Valid()
}

// Strategy is one step of the resolver cascade.
type Strategy interface {
	Name() string
	Resolve(ctx context.Context, q Query) Result
}

// Fixed confidences per cascade step.
const (
	ConfidenceKeypad   = 1.0
	ConfidenceLLM      = 0.9
	ConfidenceKeywords = 0.7
	ConfidenceServices = 0.6
	ConfidenceDefault  = 0.1
)

func matched(label domain.IntentLabel, confidence float64, source string) Result {
	return Result{Outcome: Matched, Intent: domain.Intent{Label: label, Confidence: confidence, Source: source}}
}

// Keypad maps DTMF digits to menu choices. It never consults anything else.
type Keypad struct{}

func (Keypad) Name() string { return "keypad" }

var mainMenuKeys = map[string]domain.IntentLabel{
	"1": domain.IntentBooking,
	"2": domain.IntentTracking,
	"3": domain.IntentPricing,
	"0": domain.IntentHelp,
	"9": domain.IntentGoodbye,
}

var languageKeys = map[string]domain.Language{
	"1": domain.LanguageEnglish,
	"2": domain.LanguageHindi,
	"3": domain.LanguageMarathi,
}

func (Keypad) Resolve(_ context.Context, q Query) Result {
	digits := strings.TrimSpace(q.Digits)
	if digits == "" {
		return Result{Outcome: NoMatch}
	}
	switch q.State {
	case domain.StateLanguageSelection:
		if lang, ok := languageKeys[digits]; ok {
			r := matched(domain.IntentGeneral, ConfidenceKeypad, "keypad")
			r.Intent.Entities.Language = lang
			return r
		}
	case domain.StateMainMenu:
		if label, ok := mainMenuKeys[digits]; ok {
			return matched(label, ConfidenceKeypad, "keypad")
		}
	case domain.StateTrackingStart:
		if len(digits) >= 4 {
			r := matched(domain.IntentTracking, ConfidenceKeypad, "keypad")
			r.Intent.Entities.OrderNumber = digits
			return r
		}
		if label, ok := mainMenuKeys[digits]; ok {
			return matched(label, ConfidenceKeypad, "keypad")
		}
	}
	return Result{Outcome: NoMatch}
}

// Keywords matches the rule tables. Given the same utterance, language and
// tables it always yields the same label.
type Keywords struct {
	Tables map[domain.Language]KeywordTable
}

func (Keywords) Name() string { return "keywords" }

func (k Keywords) Resolve(_ context.Context, q Query) Result {
	text := strings.ToLower(strings.TrimSpace(q.Utterance))
	if text == "" {
		return Result{Outcome: NoMatch}
	}
	tables := k.Tables
	if tables == nil {
		tables = DefaultKeywords
	}

	langs := []domain.Language{q.Language}
	if !q.languageSelected() {
		langs = domain.Languages
	}
	for _, lang := range langs {
		if label, _, ok := matchCategory(tables[lang], text); ok {
			return matched(label, ConfidenceKeywords, "keywords")
		}
	}
	return Result{Outcome: NoMatch}
}

// Services classifies a request naming an active catalog service as booking.
type Services struct {
	Catalog *catalog.Catalog
}

func (Services) Name() string { return "services" }

func (s Services) Resolve(_ context.Context, q Query) Result {
	if s.Catalog == nil {
		return Result{Outcome: Unavailable}
	}
	svc, ok := s.Catalog.Match(q.Utterance, q.Language)
	if !ok {
		return Result{Outcome: NoMatch}
	}
	r := matched(domain.IntentBooking, ConfidenceServices, "services")
	r.Intent.Entities.ServiceID = svc.ID
	return r
}

// Default always matches with the low-confidence general label.
type Default struct{}

func (Default) Name() string { return "default" }

func (Default) Resolve(context.Context, Query) Result {
	return matched(domain.IntentGeneral, ConfidenceDefault, "default")
}
