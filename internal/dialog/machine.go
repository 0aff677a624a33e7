// Package dialog holds the call state machine and the booking slot filler.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/soyeahso/frontdesk/internal/catalog"
	"github.com/soyeahso/frontdesk/internal/domain"
	"github.com/soyeahso/frontdesk/internal/logging"
)

// ErrNoTransition means a reachable state has no entry in the transition
// table. It is a programming error, never a caller error.
var ErrNoTransition = errors.New("dialog: no transition for state")

// DefaultUnclearCap is the number of consecutive unclear turns in one state
// after which the machine escalates to the main menu.
const DefaultUnclearCap = 2

// Input is one classified turn.
type Input struct {
	Intent        domain.Intent
	Utterance     string
	Digits        string
	CallerAddress string
}

// text is the raw caller input the slot parsers look at.
func (in Input) text() string {
	switch {
	case in.Utterance == "":
		return in.Digits
	case in.Digits == "":
		return in.Utterance
	}
	return in.Utterance + " " + in.Digits
}

// Outcome describes what a transition decided. The session passed to
// Transition carries the new state.
type Outcome struct {
	Prompt    Prompt
	Notice    Prompt // spoken before Prompt, e.g. an invalid-value hint
	End       bool
	Unclear   bool
	Escalated bool
	Booking   *domain.BookingEvent
	Tracking  *domain.TrackingResult
	LLMReply  string
}

// Tracker looks up an existing order for the tracking flow.
type Tracker interface {
	Track(ctx context.Context, orderNumber string) (domain.TrackingResult, error)
}

// Options configures a Machine.
type Options struct {
	Catalog         *catalog.Catalog
	Tracker         Tracker
	UnclearCap      int
	DefaultLanguage domain.Language
	Now             func() time.Time
	// NewBookingID overrides booking ID generation.
	NewBookingID func(time.Time) string
}

type handler func(ctx context.Context, s *domain.Session, in Input) Outcome

// Machine applies classified turns to sessions.
type Machine struct {
	opts   Options
	filler *SlotFiller
	table  map[domain.State]handler
	log    *logging.Logger
}

// NewMachine builds the transition table.
func NewMachine(opts Options, log *logging.Logger) *Machine {
	if opts.Catalog == nil {
		opts.Catalog = catalog.Default()
	}
	if opts.UnclearCap <= 0 {
		opts.UnclearCap = DefaultUnclearCap
	}
	if !opts.DefaultLanguage.Valid() {
		opts.DefaultLanguage = domain.LanguageEnglish
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewBookingID == nil {
		opts.NewBookingID = NewBookingID
	}

	m := &Machine{
		opts:   opts,
		filler: &SlotFiller{Catalog: opts.Catalog, Now: opts.Now, NewID: opts.NewBookingID},
		log:    log.Sub("dialog"),
	}
	m.table = map[domain.State]handler{
		domain.StateLanguageSelection: m.languageSelection,
		domain.StateMainMenu:          m.mainMenu,
		domain.StateBookingStart:      m.booking,
		domain.StateBookingService:    m.booking,
		domain.StateBookingDate:       m.booking,
		domain.StateBookingContact:    m.booking,
		domain.StateTrackingStart:     m.trackingStart,
		domain.StatePricing:           m.ended,
		domain.StateGoodbye:           m.ended,
	}
	return m
}

// UnclearCap returns the escalation threshold in use.
func (m *Machine) UnclearCap() int { return m.opts.UnclearCap }

// Transition applies one turn to s in place. Goodbye pre-empts every state.
func (m *Machine) Transition(ctx context.Context, s *domain.Session, in Input) (Outcome, error) {
	h, ok := m.table[s.State]
	if !ok {
		return Outcome{}, fmt.Errorf("%w %q", ErrNoTransition, s.State)
	}

	from := s.State
	var out Outcome
	if in.Intent.Label == domain.IntentGoodbye {
		out = m.goodbye(s)
	} else {
		out = h(ctx, s, in)
	}

	if !s.State.Valid() {
		return Outcome{}, fmt.Errorf("%w: %q produced %q", ErrNoTransition, from, s.State)
	}
	if !out.Unclear || s.State != from {
		s.UnclearCount = 0
	}
	m.log.Debug().
		Str("session", s.ID).
		Str("from", string(from)).
		Str("to", string(s.State)).
		Str("intent", string(in.Intent.Label)).
		Str("prompt", string(out.Prompt)).
		Msg("transition")
	return out, nil
}

func (m *Machine) goodbye(s *domain.Session) Outcome {
	s.Slots.Clear()
	s.State = domain.StateGoodbye
	return Outcome{Prompt: PromptGoodbye, End: true}
}

func (m *Machine) ended(_ context.Context, s *domain.Session, _ Input) Outcome {
	return m.goodbye(s)
}

func (m *Machine) languageSelection(_ context.Context, s *domain.Session, in Input) Outcome {
	if lang := in.Intent.Entities.Language; lang.Valid() {
		s.Language = lang
		s.State = domain.StateMainMenu
		return Outcome{Prompt: PromptWelcome}
	}
	return m.unclear(s)
}

func (m *Machine) mainMenu(ctx context.Context, s *domain.Session, in Input) Outcome {
	switch in.Intent.Label {
	case domain.IntentBooking:
		s.Slots.Clear()
		s.State = domain.StateBookingStart
		return Outcome{Prompt: PromptAskName}
	case domain.IntentTracking:
		if n := in.Intent.Entities.OrderNumber; n != "" {
			return m.track(ctx, s, n)
		}
		s.State = domain.StateTrackingStart
		return Outcome{Prompt: PromptAskOrder}
	case domain.IntentPricing:
		s.State = domain.StatePricing
		return Outcome{Prompt: PromptPriceList, End: true}
	case domain.IntentHelp:
		return Outcome{Prompt: PromptMainMenu}
	case domain.IntentGeneral:
		if in.Intent.Reply != "" {
			return Outcome{Prompt: PromptAnswer, LLMReply: in.Intent.Reply}
		}
	}
	return m.unclear(s)
}

func (m *Machine) trackingStart(ctx context.Context, s *domain.Session, in Input) Outcome {
	if n := in.Intent.Entities.OrderNumber; n != "" {
		return m.track(ctx, s, n)
	}
	switch in.Intent.Label {
	case domain.IntentBooking, domain.IntentPricing, domain.IntentHelp:
		s.State = domain.StateMainMenu
		return m.mainMenu(ctx, s, in)
	}
	return m.unclear(s)
}

func (m *Machine) track(ctx context.Context, s *domain.Session, orderNumber string) Outcome {
	s.State = domain.StateMainMenu
	if m.opts.Tracker == nil {
		return Outcome{Prompt: PromptTrackingFailed}
	}
	res, err := m.opts.Tracker.Track(ctx, orderNumber)
	if err != nil {
		m.log.Warn().Err(err).Str("session", s.ID).Str("order", orderNumber).Msg("order lookup failed")
		return Outcome{Prompt: PromptTrackingFailed}
	}
	res.OrderNumber = orderNumber
	if !res.Found {
		return Outcome{Prompt: PromptTrackingNotFound, Tracking: &res}
	}
	return Outcome{Prompt: PromptTrackingStatus, Tracking: &res}
}

func (m *Machine) booking(_ context.Context, s *domain.Session, in Input) Outcome {
	return m.filler.Fill(s, in)
}

// unclear re-asks the current question until the cap, then escalates to the
// main menu.
func (m *Machine) unclear(s *domain.Session) Outcome {
	s.UnclearCount++
	if s.UnclearCount < m.opts.UnclearCap {
		return Outcome{Prompt: StatePrompt(s.State), Notice: PromptUnclear, Unclear: true}
	}
	if s.State == domain.StateLanguageSelection {
		s.Language = m.opts.DefaultLanguage
	}
	s.State = domain.StateMainMenu
	s.UnclearCount = 0
	return Outcome{Prompt: PromptMainMenu, Notice: PromptEscalated, Escalated: true}
}
