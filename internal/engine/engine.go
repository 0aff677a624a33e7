// Package engine runs one caller turn end to end: session lookup, intent
// resolution, dialog transition, reply rendering and session update.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/soyeahso/frontdesk/internal/compose"
	"github.com/soyeahso/frontdesk/internal/dialog"
	"github.com/soyeahso/frontdesk/internal/domain"
	"github.com/soyeahso/frontdesk/internal/hooks"
	"github.com/soyeahso/frontdesk/internal/intent"
	"github.com/soyeahso/frontdesk/internal/logging"
	"github.com/soyeahso/frontdesk/internal/metrics"
	"github.com/soyeahso/frontdesk/internal/session"
)

// ErrSessionNotFound is returned for turns on unknown or ended sessions. The
// accompanying reply carries the localized invalid-request phrase.
var ErrSessionNotFound = errors.New("engine: session not found")

// ErrInvalidSession is returned by Begin for a malformed start request.
var ErrInvalidSession = errors.New("engine: invalid session")

// End reasons recorded in the call log and session_end events.
const (
	ReasonGoodbye  = "goodbye"
	ReasonPricing  = "pricing"
	ReasonComplete = "complete"
	ReasonExpired  = "expired"
	ReasonFatal    = "fatal"
)

// BookingSink durably records completed bookings.
type BookingSink interface {
	Save(ctx context.Context, ev domain.BookingEvent) (bool, error)
}

// CallRecorder keeps the call log.
type CallRecorder interface {
	Start(ctx context.Context, s *domain.Session) error
	End(ctx context.Context, s *domain.Session, reason string, at time.Time) error
	Expire(ctx context.Context, ids []string, at time.Time) error
}

// Transitioner applies a classified turn to a session working copy.
// *dialog.Machine is the production implementation.
type Transitioner interface {
	Transition(ctx context.Context, s *domain.Session, in dialog.Input) (dialog.Outcome, error)
}

// Options wires an Engine. Store, Resolver, Machine and Composer are
// required; the rest are optional collaborators.
type Options struct {
	Store    *session.Store
	Resolver *intent.Resolver
	Machine  Transitioner
	Composer *compose.Composer

	Hooks    *hooks.Manager
	Metrics  *metrics.Metrics
	Bookings BookingSink
	Calls    CallRecorder

	DefaultLanguage domain.Language
	HistoryTurns    int
	// Strict surfaces invariant violations to the caller instead of
	// degrading to the technical-difficulty phrase.
	Strict bool
	Now    func() time.Time
}

// Start describes a new call or chat.
type Start struct {
	SessionID     string          `json:"sessionId"`
	CallerAddress string          `json:"callerAddress,omitempty"`
	Mode          domain.Mode     `json:"mode,omitempty"`
	Language      domain.Language `json:"language,omitempty"`
}

// Engine orchestrates turns. It is safe for concurrent use.
type Engine struct {
	opts Options
	log  *logging.Logger
}

// New creates an engine.
func New(opts Options, log *logging.Logger) *Engine {
	if !opts.DefaultLanguage.Valid() {
		opts.DefaultLanguage = domain.LanguageEnglish
	}
	if opts.HistoryTurns <= 0 {
		opts.HistoryTurns = intent.DefaultHistoryTurns
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Hooks == nil {
		opts.Hooks = hooks.NewManager(log)
	}
	e := &Engine{opts: opts, log: log.Sub("engine")}
	if opts.Metrics != nil {
		opts.Resolver.OnResult = func(strategy string, r intent.Result) {
			opts.Metrics.IntentResult(strategy, r.Outcome.String())
		}
	}
	return e
}

// Hooks returns the event bus the engine emits on.
func (e *Engine) Hooks() *hooks.Manager { return e.opts.Hooks }

// Store returns the session table.
func (e *Engine) Store() *session.Store { return e.opts.Store }

// Begin creates a session and returns its greeting. Starting an existing
// session again re-issues the prompt for its current state, so transports
// that retry are safe.
func (e *Engine) Begin(ctx context.Context, st Start) (domain.Reply, error) {
	if st.SessionID == "" {
		return e.invalidRequest("", e.opts.DefaultLanguage), fmt.Errorf("%w: empty session id", ErrInvalidSession)
	}
	if st.Mode == "" {
		st.Mode = domain.ModeVoice
	}
	if !st.Mode.Valid() {
		return e.invalidRequest(st.SessionID, e.opts.DefaultLanguage), fmt.Errorf("%w: mode %q", ErrInvalidSession, st.Mode)
	}
	if !st.Language.Valid() {
		st.Language = e.opts.DefaultLanguage
	}

	s, err := e.opts.Store.Create(st.SessionID, st.CallerAddress, st.Mode, st.Language)
	if errors.Is(err, session.ErrExists) {
		existing, gerr := e.opts.Store.Get(st.SessionID)
		if gerr != nil {
			return e.invalidRequest(st.SessionID, st.Language), fmt.Errorf("%w: %s", ErrSessionNotFound, st.SessionID)
		}
		e.log.Debug().Str("session", st.SessionID).Msg("session already started")
		return e.render(existing, dialog.Outcome{Prompt: dialog.StatePrompt(existing.State)}), nil
	}
	if err != nil {
		return e.invalidRequest(st.SessionID, st.Language), err
	}

	prompt := dialog.PromptWelcome
	if s.State == domain.StateLanguageSelection {
		prompt = dialog.PromptLanguageMenu
	}
	reply := e.render(s, dialog.Outcome{Prompt: prompt})
	if _, err := e.opts.Store.AppendHistory(s.ID, e.agentEntry(reply.Text)); err != nil {
		e.log.Warn().Err(err).Str("session", s.ID).Msg("recording greeting")
	}

	if e.opts.Calls != nil {
		if err := e.opts.Calls.Start(ctx, s); err != nil {
			e.log.Warn().Err(err).Str("session", s.ID).Msg("call log start failed")
		}
	}
	e.opts.Metrics.SetActiveSessions(e.opts.Store.Count())
	e.opts.Hooks.EmitAsync(ctx, hooks.EventSessionStart, map[string]any{
		"sessionId":     s.ID,
		"callerAddress": s.CallerAddress,
		"mode":          string(s.Mode),
		"language":      string(s.Language),
	})
	e.log.Info().
		Str("session", s.ID).
		Str("mode", string(s.Mode)).
		Str("state", string(s.State)).
		Msg("session started")
	return reply, nil
}

// HandleTurn processes one caller turn and returns the reply to speak.
//
// Intent resolution runs on a snapshot outside the store lock, since it may
// wait on the provider queue. The transition is then applied inside Mutate
// on the latest session; if the session ended meanwhile the resolved intent
// is discarded and ErrSessionNotFound returned.
func (e *Engine) HandleTurn(ctx context.Context, turn domain.Turn) (domain.Reply, error) {
	start := e.opts.Now()

	snap, err := e.opts.Store.Get(turn.SessionID)
	if err != nil {
		e.log.Info().Str("session", turn.SessionID).Msg("turn for unknown session")
		return e.invalidRequest(turn.SessionID, e.opts.DefaultLanguage), fmt.Errorf("%w: %s", ErrSessionNotFound, turn.SessionID)
	}

	in := e.opts.Resolver.Resolve(ctx, intent.Query{
		Utterance: turn.Utterance,
		Digits:    turn.Digits,
		Language:  snap.Language,
		State:     snap.State,
		History:   snap.RecentHistory(e.opts.HistoryTurns),
	})

	caller := turn.CallerAddress
	if caller == "" {
		caller = snap.CallerAddress
	}

	var (
		out   dialog.Outcome
		reply domain.Reply
		from  domain.State
	)
	updated, err := e.opts.Store.Mutate(turn.SessionID, func(s *domain.Session) error {
		from = s.State
		o, terr := e.opts.Machine.Transition(ctx, s, dialog.Input{
			Intent:        in,
			Utterance:     turn.Utterance,
			Digits:        turn.Digits,
			CallerAddress: caller,
		})
		if terr != nil {
			return terr
		}
		out = o
		reply = e.render(s, out)
		s.AppendHistory(e.callerEntry(turn), e.agentEntry(reply.Text))
		return nil
	})

	switch {
	case errors.Is(err, session.ErrNotFound):
		e.log.Info().Str("session", turn.SessionID).Msg("session ended during turn, result discarded")
		return e.invalidRequest(turn.SessionID, snap.Language), fmt.Errorf("%w: %s", ErrSessionNotFound, turn.SessionID)
	case err != nil:
		// a missing transition or a working copy the session invariants reject
		return e.fatal(ctx, snap, err)
	}

	if out.Escalated {
		e.opts.Metrics.Escalated()
	}
	if out.Booking != nil {
		e.bookingCompleted(ctx, *out.Booking)
	}

	e.opts.Hooks.EmitAsync(ctx, hooks.EventTurnHandled, map[string]any{
		"sessionId":  updated.ID,
		"from":       string(from),
		"to":         string(updated.State),
		"intent":     string(in.Label),
		"source":     in.Source,
		"confidence": in.Confidence,
	})
	e.opts.Metrics.TurnHandled(string(from), string(in.Label), e.opts.Now().Sub(start))

	if out.End {
		reason := ReasonGoodbye
		if updated.State == domain.StatePricing {
			reason = ReasonPricing
		}
		e.finish(ctx, updated, reason)
	}

	e.log.Debug().
		Str("session", updated.ID).
		Str("from", string(from)).
		Str("to", string(updated.State)).
		Str("intent", string(in.Label)).
		Str("source", in.Source).
		Bool("end", out.End).
		Msg("turn handled")
	return reply, nil
}

// End is the transport's call-completed signal. It reports whether a live
// session was removed; ending an unknown session is not an error.
func (e *Engine) End(ctx context.Context, id string) bool {
	s, err := e.opts.Store.Get(id)
	if err != nil {
		return false
	}
	return e.finish(ctx, s, ReasonComplete)
}

// Expired is the sweeper callback for sessions removed for inactivity.
func (e *Engine) Expired(ids []string) {
	ctx := context.Background()
	if e.opts.Calls != nil {
		if err := e.opts.Calls.Expire(ctx, ids, e.opts.Now()); err != nil {
			e.log.Warn().Err(err).Msg("call log expiry failed")
		}
	}
	for _, id := range ids {
		e.opts.Metrics.SessionEnded(ReasonExpired)
		e.opts.Hooks.EmitAsync(ctx, hooks.EventSessionEnd, map[string]any{
			"sessionId": id,
			"reason":    ReasonExpired,
		})
	}
	e.opts.Metrics.SetActiveSessions(e.opts.Store.Count())
}

// Phrase renders a standalone fallback phrase in the given language.
func (e *Engine) Phrase(p dialog.Prompt, lang domain.Language) string {
	return e.opts.Composer.Phrase(p, lang)
}

// finish removes the session and reports the end once.
func (e *Engine) finish(ctx context.Context, s *domain.Session, reason string) bool {
	if !e.opts.Store.End(s.ID) {
		return false
	}
	if e.opts.Calls != nil {
		if err := e.opts.Calls.End(ctx, s, reason, e.opts.Now()); err != nil {
			e.log.Warn().Err(err).Str("session", s.ID).Msg("call log end failed")
		}
	}
	e.opts.Metrics.SessionEnded(reason)
	e.opts.Metrics.SetActiveSessions(e.opts.Store.Count())
	e.opts.Hooks.EmitAsync(ctx, hooks.EventSessionEnd, map[string]any{
		"sessionId":  s.ID,
		"reason":     reason,
		"finalState": string(s.State),
		"bookings":   len(s.Bookings),
	})
	e.log.Info().Str("session", s.ID).Str("reason", reason).Str("state", string(s.State)).Msg("session ended")
	return true
}

// bookingCompleted hands a booking to the sink and the event bus. The
// machine produces each booking event exactly once; a failed save is logged
// and not retried.
func (e *Engine) bookingCompleted(ctx context.Context, ev domain.BookingEvent) {
	if e.opts.Bookings != nil {
		if _, err := e.opts.Bookings.Save(ctx, ev); err != nil {
			e.log.Error().Err(err).Str("booking", ev.BookingID).Msg("booking persistence failed")
		}
	}
	e.opts.Metrics.BookingCompleted(ev.Slots.ServiceID, string(ev.Language))
	e.opts.Hooks.EmitAsync(ctx, hooks.EventBookingCompleted, map[string]any{
		"bookingId":     ev.BookingID,
		"sessionId":     ev.SessionID,
		"callerAddress": ev.CallerAddress,
		"language":      string(ev.Language),
		"name":          ev.Slots.Name,
		"serviceId":     ev.Slots.ServiceID,
		"serviceName":   ev.ServiceName,
		"date":          ev.Slots.Date,
		"time":          ev.Slots.Time,
		"contactNumber": ev.Slots.ContactNumber,
		"completedAt":   ev.CompletedAt.Format(time.RFC3339),
	})
	e.log.Info().
		Str("booking", ev.BookingID).
		Str("session", ev.SessionID).
		Str("service", ev.Slots.ServiceID).
		Str("date", ev.Slots.Date).
		Msg("booking completed")
}

// fatal handles an invariant violation. In strict mode the error reaches the
// caller; otherwise the call ends with the technical-difficulty phrase.
func (e *Engine) fatal(ctx context.Context, s *domain.Session, err error) (domain.Reply, error) {
	e.log.Error().Err(err).Str("session", s.ID).Str("state", string(s.State)).Msg("dialog invariant violated")
	e.opts.Metrics.FatalTransition()
	if e.opts.Strict {
		return domain.Reply{}, err
	}
	reply := e.opts.Composer.Render(compose.Input{
		SessionID: s.ID,
		State:     s.State,
		Language:  s.Language,
		Prompt:    dialog.PromptTechnical,
		End:       true,
	})
	e.finish(ctx, s, ReasonFatal)
	return reply, nil
}

func (e *Engine) invalidRequest(id string, lang domain.Language) domain.Reply {
	r := e.opts.Composer.Render(compose.Input{Prompt: dialog.PromptInvalidRequest, Language: lang, End: true})
	r.SessionID = id
	return r
}

func (e *Engine) render(s *domain.Session, out dialog.Outcome) domain.Reply {
	return e.opts.Composer.Render(compose.Input{
		SessionID: s.ID,
		State:     s.State,
		Language:  s.Language,
		Prompt:    out.Prompt,
		Notice:    out.Notice,
		Slots:     s.Slots,
		Booking:   out.Booking,
		Tracking:  out.Tracking,
		Answer:    out.LLMReply,
		End:       out.End,
	})
}

func (e *Engine) callerEntry(t domain.Turn) domain.HistoryEntry {
	text := t.Utterance
	if text == "" {
		text = t.Digits
	}
	return domain.HistoryEntry{Role: "caller", Text: text, At: e.opts.Now()}
}

func (e *Engine) agentEntry(text string) domain.HistoryEntry {
	return domain.HistoryEntry{Role: "agent", Text: text, At: e.opts.Now()}
}
