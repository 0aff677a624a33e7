// Package compose renders dialog outcomes into localized reply text and the
// next-input directive for the transport.
package compose

import (
	"strconv"
	"strings"
	"time"

	"github.com/soyeahso/frontdesk/internal/catalog"
	"github.com/soyeahso/frontdesk/internal/dialog"
	"github.com/soyeahso/frontdesk/internal/domain"
)

// Input is everything a reply depends on. Render never looks anywhere else
// except the read-only catalog.
type Input struct {
	SessionID string
	State     domain.State
	Language  domain.Language
	Prompt    dialog.Prompt
	Notice    dialog.Prompt
	Slots     domain.Slots
	Booking   *domain.BookingEvent
	Tracking  *domain.TrackingResult
	Answer    string
	End       bool
}

// Directive timeouts in seconds.
const (
	MenuTimeout   = 8
	SpeechTimeout = 10
)

// Composer is a pure renderer over a template registry.
type Composer struct {
	catalog   *catalog.Catalog
	templates Templates
}

// New returns a composer. Nil arguments select the defaults.
func New(cat *catalog.Catalog, t Templates) *Composer {
	if cat == nil {
		cat = catalog.Default()
	}
	if t == nil {
		t = DefaultTemplates
	}
	return &Composer{catalog: cat, templates: t}
}

// Render builds the reply for one outcome.
func (c *Composer) Render(in Input) domain.Reply {
	lang := in.Language
	if !lang.Valid() {
		lang = en
	}

	text := c.text(in.Prompt, lang, in)
	if in.Notice != dialog.PromptNone {
		if notice := c.text(in.Notice, lang, in); notice != "" {
			text = notice + " " + text
		}
	}

	d := directive(in.Prompt, in.State)
	if in.End {
		d = domain.Directive{InputMode: domain.InputNone, Hangup: true, NextRoute: string(in.State)}
	}
	return domain.Reply{
		SessionID: in.SessionID,
		Text:      strings.TrimSpace(text),
		Language:  lang,
		State:     in.State,
		Directive: d,
	}
}

// Phrase renders a standalone prompt, such as the technical-difficulty or
// invalid-request fallbacks, that ends the exchange.
func (c *Composer) Phrase(p dialog.Prompt, lang domain.Language) string {
	return c.Render(Input{Prompt: p, Language: lang, End: true}).Text
}

func (c *Composer) text(p dialog.Prompt, lang domain.Language, in Input) string {
	tmpl, ok := c.templates.Lookup(p, lang)
	if !ok {
		tmpl, _ = DefaultTemplates.Lookup(dialog.PromptTechnical, lang)
	}
	if !strings.Contains(tmpl, "{") {
		return tmpl
	}
	return c.replacer(lang, in).Replace(tmpl)
}

func (c *Composer) replacer(lang domain.Language, in Input) *strings.Replacer {
	slots := in.Slots
	if in.Booking != nil {
		slots = in.Booking.Slots
	}
	serviceID := slots.ServiceID
	date := slots.Date
	if in.Tracking != nil {
		if in.Tracking.ServiceID != "" {
			serviceID = in.Tracking.ServiceID
		}
		if in.Tracking.Date != "" {
			date = in.Tracking.Date
		}
	}

	var service string
	if svc, ok := c.catalog.Lookup(serviceID); ok {
		service = svc.Name(lang)
	}
	var bookingID, order, status string
	if in.Booking != nil {
		bookingID = in.Booking.BookingID
	}
	if in.Tracking != nil {
		order = in.Tracking.OrderNumber
		status = statusWord(in.Tracking.Status, lang)
	}
	var nameSuffix string
	if slots.Name != "" {
		nameSuffix = ", " + slots.Name
	}
	menu, _ := c.templates.Lookup(menuText, lang)

	return strings.NewReplacer(
		"{business}", c.catalog.Business,
		"{menu}", menu,
		"{services}", c.serviceList(lang),
		"{prices}", c.priceList(lang),
		"{hours}", c.catalog.HoursText(lang),
		"{name}", slots.Name,
		"{nameSuffix}", nameSuffix,
		"{service}", service,
		"{date}", formatDate(date),
		"{time}", formatTime(slots.Time, lang),
		"{contact}", slots.ContactNumber,
		"{bookingId}", bookingID,
		"{order}", order,
		"{status}", status,
		"{answer}", in.Answer,
	)
}

// serviceList numbers the active services the way keypad choices are read.
func (c *Composer) serviceList(lang domain.Language) string {
	active := c.catalog.Active()
	parts := make([]string, len(active))
	for i, s := range active {
		parts[i] = strconv.Itoa(i+1) + ". " + s.Name(lang)
	}
	return strings.Join(parts, ", ")
}

func (c *Composer) priceList(lang domain.Language) string {
	active := c.catalog.Active()
	parts := make([]string, len(active))
	for i, s := range active {
		parts[i] = s.Name(lang) + " " + c.catalog.PriceText(s)
	}
	return strings.Join(parts, ", ")
}

// formatDate turns an ISO date into the dd-mm-yyyy form callers use.
func formatDate(iso string) string {
	t, err := time.Parse(dialog.DateLayout, iso)
	if err != nil {
		return iso
	}
	return t.Format("02-01-2006")
}

func formatTime(hhmm string, lang domain.Language) string {
	if hhmm == "" {
		return ""
	}
	switch lang {
	case hi:
		return " " + hhmm + " बजे"
	case mr:
		return " " + hhmm + " वाजता"
	}
	return " at " + hhmm
}

var statusWords = map[string]map[domain.Language]string{
	"confirmed": {en: "confirmed", hi: "पुष्ट", mr: "निश्चित"},
	"shot":      {en: "shot and being edited", hi: "शूट हो चुका है और एडिटिंग चल रही है", mr: "शूट झाले असून एडिटिंग सुरू आहे"},
	"ready":     {en: "ready for pickup", hi: "लेने के लिए तैयार", mr: "घेण्यासाठी तयार"},
	"delivered": {en: "delivered", hi: "डिलीवर हो चुका", mr: "डिलिव्हर झाले"},
	"cancelled": {en: "cancelled", hi: "रद्द", mr: "रद्द"},
}

func statusWord(status string, lang domain.Language) string {
	if w, ok := statusWords[status][lang]; ok {
		return w
	}
	return status
}

func directive(p dialog.Prompt, state domain.State) domain.Directive {
	route := string(state)
	switch p {
	case dialog.PromptLanguageMenu:
		return domain.Directive{InputMode: domain.InputDTMF, TimeoutSeconds: MenuTimeout, NextRoute: route}
	case dialog.PromptAskName, dialog.PromptAskDate:
		return domain.Directive{InputMode: domain.InputSpeech, TimeoutSeconds: SpeechTimeout, NextRoute: route}
	case dialog.PromptAskService, dialog.PromptAskContact, dialog.PromptAskOrder:
		return domain.Directive{InputMode: domain.InputSpeechDTMF, TimeoutSeconds: SpeechTimeout, NextRoute: route}
	case dialog.PromptGoodbye, dialog.PromptPriceList, dialog.PromptTechnical, dialog.PromptInvalidRequest:
		return domain.Directive{InputMode: domain.InputNone, Hangup: true, NextRoute: route}
	}
	return domain.Directive{InputMode: domain.InputSpeechDTMF, TimeoutSeconds: MenuTimeout, NextRoute: route}
}
