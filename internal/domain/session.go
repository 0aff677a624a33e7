package domain

import (
	"fmt"
	"time"
)

// MaxHistory caps the number of history entries kept on a session.
const MaxHistory = 10

// Mode is the kind of conversation a session carries.
type Mode string

const (
	ModeVoice Mode = "voice"
	ModeChat  Mode = "chat"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeVoice || m == ModeChat
}

// State is a node of the dialog state machine.
type State string

const (
	StateLanguageSelection State = "language_selection"
	StateMainMenu          State = "main_menu"
	StateBookingStart      State = "booking_start"
	StateBookingService    State = "booking_service"
	StateBookingDate       State = "booking_date"
	StateBookingContact    State = "booking_contact"
	StateTrackingStart     State = "tracking_start"
	StatePricing           State = "pricing"
	StateGoodbye           State = "goodbye"
)

// AllStates lists every reachable dialog state.
var AllStates = []State{
	StateLanguageSelection,
	StateMainMenu,
	StateBookingStart,
	StateBookingService,
	StateBookingDate,
	StateBookingContact,
	StateTrackingStart,
	StatePricing,
	StateGoodbye,
}

// Valid reports whether s belongs to the finite state set.
func (s State) Valid() bool {
	for _, st := range AllStates {
		if s == st {
			return true
		}
	}
	return false
}

// InBooking reports whether s is one of the booking sub-states.
func (s State) InBooking() bool {
	switch s {
	case StateBookingStart, StateBookingService, StateBookingDate, StateBookingContact:
		return true
	}
	return false
}

// Terminal reports whether reaching s ends the call.
func (s State) Terminal() bool {
	return s == StateGoodbye || s == StatePricing
}

// HistoryEntry is one utterance or reply kept as LLM context.
type HistoryEntry struct {
	Role string    `json:"role"` // "caller" | "agent"
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Session tracks one active call or chat conversation.
type Session struct {
	ID             string         `json:"id"`
	CallerAddress  string         `json:"callerAddress"`
	Mode           Mode           `json:"mode"`
	Language       Language       `json:"language"`
	State          State          `json:"state"`
	Slots          Slots          `json:"slots"`
	History        []HistoryEntry `json:"history,omitempty"`
	UnclearCount   int            `json:"unclearCount,omitempty"`
	Bookings       []string       `json:"bookings,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	LastActivityAt time.Time      `json:"lastActivityAt"`
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.History != nil {
		c.History = make([]HistoryEntry, len(s.History))
		copy(c.History, s.History)
	}
	if s.Bookings != nil {
		c.Bookings = make([]string, len(s.Bookings))
		copy(c.Bookings, s.Bookings)
	}
	return &c
}

// AppendHistory adds entries, dropping the oldest beyond MaxHistory.
func (s *Session) AppendHistory(entries ...HistoryEntry) {
	s.History = append(s.History, entries...)
	if over := len(s.History) - MaxHistory; over > 0 {
		trimmed := make([]HistoryEntry, MaxHistory)
		copy(trimmed, s.History[over:])
		s.History = trimmed
	}
}

// RecentHistory returns up to n of the newest history entries.
func (s *Session) RecentHistory(n int) []HistoryEntry {
	if n <= 0 || len(s.History) == 0 {
		return nil
	}
	if n > len(s.History) {
		n = len(s.History)
	}
	out := make([]HistoryEntry, n)
	copy(out, s.History[len(s.History)-n:])
	return out
}

// HasBooking reports whether the session already emitted the given booking.
func (s *Session) HasBooking(id string) bool {
	for _, b := range s.Bookings {
		if b == id {
			return true
		}
	}
	return false
}

// Validate checks the session invariants.
func (s *Session) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("session id is empty")
	}
	if !s.State.Valid() {
		return fmt.Errorf("session %s: unknown state %q", s.ID, s.State)
	}
	if !s.Language.Valid() {
		return fmt.Errorf("session %s: unknown language %q", s.ID, s.Language)
	}
	if len(s.History) > MaxHistory {
		return fmt.Errorf("session %s: history length %d exceeds %d", s.ID, len(s.History), MaxHistory)
	}
	if !s.State.InBooking() && !s.Slots.Empty() {
		return fmt.Errorf("session %s: slots set outside booking in state %q", s.ID, s.State)
	}
	return nil
}

// Patch is an explicit partial update to a session. Nil fields are left alone.
type Patch struct {
	Language      *Language
	State         *State
	Slots         *Slots
	UnclearCount  *int
	AppendHistory []HistoryEntry
}

// Validate rejects values outside the session schema.
func (p Patch) Validate() error {
	if p.Language != nil && !p.Language.Valid() {
		return fmt.Errorf("patch: unknown language %q", *p.Language)
	}
	if p.State != nil && !p.State.Valid() {
		return fmt.Errorf("patch: unknown state %q", *p.State)
	}
	if p.UnclearCount != nil && *p.UnclearCount < 0 {
		return fmt.Errorf("patch: negative unclear count %d", *p.UnclearCount)
	}
	return nil
}

// Apply merges the patch into s. Callers validate first.
func (p Patch) Apply(s *Session) {
	if p.Language != nil {
		s.Language = *p.Language
	}
	if p.State != nil {
		s.State = *p.State
	}
	if p.Slots != nil {
		s.Slots = *p.Slots
	}
	if p.UnclearCount != nil {
		s.UnclearCount = *p.UnclearCount
	}
	if len(p.AppendHistory) > 0 {
		s.AppendHistory(p.AppendHistory...)
	}
}
