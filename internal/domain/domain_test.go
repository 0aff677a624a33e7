package domain

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- State tests ---

func TestStateValid(t *testing.T) {
	for _, s := range AllStates {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, State("ended").Valid())
	assert.False(t, State("").Valid())
}

func TestStateInBooking(t *testing.T) {
	tests := []struct {
		state State
		want  bool
	}{
		{StateBookingStart, true},
		{StateBookingService, true},
		{StateBookingDate, true},
		{StateBookingContact, true},
		{StateMainMenu, false},
		{StateTrackingStart, false},
		{StateGoodbye, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.InBooking())
		})
	}
}

func TestStateTerminal(t *testing.T) {
	assert.True(t, StateGoodbye.Terminal())
	assert.True(t, StatePricing.Terminal())
	assert.False(t, StateMainMenu.Terminal())
	assert.False(t, StateBookingContact.Terminal())
}

// --- Language tests ---

func TestLanguage(t *testing.T) {
	l, ok := ParseLanguage("hi")
	assert.True(t, ok)
	assert.Equal(t, LanguageHindi, l)
	assert.Equal(t, "Hindi", l.Name())

	_, ok = ParseLanguage("fr")
	assert.False(t, ok)
	assert.Equal(t, LanguageEnglish, Languages[0])
}

// --- Slots tests ---

func TestSlotsMissingOrder(t *testing.T) {
	var s Slots
	assert.Equal(t, RequiredSlots, s.Missing())
	assert.Equal(t, SlotNameName, s.NextMissing())
	assert.True(t, s.Empty())

	s.Set(SlotNameName, "Asha")
	s.Set(SlotDate, "2026-10-15")
	assert.Equal(t, []SlotName{SlotServiceID, SlotContactNumber}, s.Missing())
	assert.Equal(t, SlotServiceID, s.NextMissing())
	assert.False(t, s.Complete())

	s.Set(SlotServiceID, "wedding")
	s.Set(SlotContactNumber, "9876543210")
	assert.True(t, s.Complete())
	assert.Equal(t, SlotNone, s.NextMissing())

	s.Clear()
	assert.True(t, s.Empty())
}

func TestSlotTimeIsOptional(t *testing.T) {
	s := Slots{Name: "Asha", ServiceID: "wedding", Date: "2026-10-15", ContactNumber: "9876543210"}
	assert.True(t, s.Complete())
	assert.Equal(t, "", s.Get(SlotTime))
}

func TestSlotStateRoundTrip(t *testing.T) {
	for _, name := range RequiredSlots {
		assert.Equal(t, name, StateSlot(SlotState(name)))
	}
	assert.Equal(t, SlotNone, StateSlot(StateMainMenu))
}

// --- Session tests ---

func TestSessionAppendHistoryCapped(t *testing.T) {
	s := &Session{ID: "s1", State: StateMainMenu, Language: LanguageEnglish}
	for i := 0; i < MaxHistory+5; i++ {
		s.AppendHistory(HistoryEntry{Role: "caller", Text: fmt.Sprintf("u%d", i)})
	}
	require.Len(t, s.History, MaxHistory)
	assert.Equal(t, "u5", s.History[0].Text)
	assert.Equal(t, fmt.Sprintf("u%d", MaxHistory+4), s.History[MaxHistory-1].Text)

	recent := s.RecentHistory(3)
	require.Len(t, recent, 3)
	assert.Equal(t, fmt.Sprintf("u%d", MaxHistory+4), recent[2].Text)
	assert.Nil(t, s.RecentHistory(0))
}

func TestSessionCloneIsDeep(t *testing.T) {
	s := &Session{
		ID:       "s1",
		State:    StateMainMenu,
		Language: LanguageEnglish,
		History:  []HistoryEntry{{Role: "caller", Text: "hello"}},
		Bookings: []string{"BK1"},
	}
	c := s.Clone()
	c.History[0].Text = "changed"
	c.Bookings[0] = "BK2"
	c.Slots.Name = "x"

	assert.Equal(t, "hello", s.History[0].Text)
	assert.Equal(t, "BK1", s.Bookings[0])
	assert.Equal(t, "", s.Slots.Name)
	assert.True(t, c.HasBooking("BK2"))
	assert.False(t, s.HasBooking("BK2"))

	var nilSession *Session
	assert.Nil(t, nilSession.Clone())
}

func TestSessionValidate(t *testing.T) {
	tests := []struct {
		name    string
		session Session
		wantErr bool
	}{
		{"valid", Session{ID: "a", State: StateMainMenu, Language: LanguageEnglish}, false},
		{"empty id", Session{State: StateMainMenu, Language: LanguageEnglish}, true},
		{"unknown state", Session{ID: "a", State: "ended", Language: LanguageEnglish}, true},
		{"unknown language", Session{ID: "a", State: StateMainMenu, Language: "fr"}, true},
		{"slots outside booking", Session{ID: "a", State: StateMainMenu, Language: LanguageEnglish, Slots: Slots{Name: "x"}}, true},
		{"slots inside booking", Session{ID: "a", State: StateBookingService, Language: LanguageEnglish, Slots: Slots{Name: "x"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.session.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// --- Patch tests ---

func TestPatchValidateAndApply(t *testing.T) {
	bad := State("nowhere")
	assert.Error(t, Patch{State: &bad}.Validate())

	badLang := Language("de")
	assert.Error(t, Patch{Language: &badLang}.Validate())

	neg := -1
	assert.Error(t, Patch{UnclearCount: &neg}.Validate())

	s := &Session{ID: "a", State: StateMainMenu, Language: LanguageEnglish}
	st := StateBookingStart
	lang := LanguageMarathi
	one := 1
	p := Patch{
		State:         &st,
		Language:      &lang,
		UnclearCount:  &one,
		AppendHistory: []HistoryEntry{{Role: "agent", Text: "hi"}},
	}
	require.NoError(t, p.Validate())
	p.Apply(s)

	assert.Equal(t, StateBookingStart, s.State)
	assert.Equal(t, LanguageMarathi, s.Language)
	assert.Equal(t, 1, s.UnclearCount)
	assert.Len(t, s.History, 1)
}

func TestPatchNilFieldsUntouched(t *testing.T) {
	s := &Session{ID: "a", State: StateBookingDate, Language: LanguageHindi, Slots: Slots{Name: "Asha"}}
	Patch{}.Apply(s)
	assert.Equal(t, StateBookingDate, s.State)
	assert.Equal(t, LanguageHindi, s.Language)
	assert.Equal(t, "Asha", s.Slots.Name)
}

// --- Intent tests ---

func TestIntentLabels(t *testing.T) {
	assert.True(t, IntentBooking.Valid())
	assert.False(t, IntentLabel("order").Valid())
	assert.True(t, Intent{Label: IntentGeneral}.Unclear())
	assert.True(t, Intent{}.Unclear())
	assert.False(t, Intent{Label: IntentPricing}.Unclear())
}

// --- JSON serialization tests ---

func TestBookingEventJSON(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	ev := BookingEvent{
		BookingID:   "BK202610141200001234",
		SessionID:   "call-1",
		Language:    LanguageEnglish,
		Slots:       Slots{Name: "Asha", ServiceID: "wedding", Date: "2026-10-15", ContactNumber: "9876543210"},
		CompletedAt: now,
	}
	data, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"contactNumber":"9876543210"`)
	assert.Contains(t, string(data), `"serviceId":"wedding"`)
	assert.NotContains(t, string(data), `"time"`)
}

func TestReplyJSON(t *testing.T) {
	r := Reply{
		SessionID: "call-1",
		Text:      "Goodbye",
		Language:  LanguageEnglish,
		State:     StateGoodbye,
		Directive: Directive{InputMode: InputNone, Hangup: true},
	}
	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"inputMode":"none"`)
	assert.Contains(t, string(data), `"hangup":true`)
	assert.NotContains(t, string(data), "timeoutSeconds")
}

func TestTurnEmpty(t *testing.T) {
	assert.True(t, Turn{SessionID: "a"}.Empty())
	assert.False(t, Turn{SessionID: "a", Digits: "1"}.Empty())
}
