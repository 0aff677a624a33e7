package dialog

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/soyeahso/frontdesk/internal/catalog"
	"github.com/soyeahso/frontdesk/internal/domain"
)

// SlotFiller collects booking fields one at a time in the fixed order of
// domain.RequiredSlots.
type SlotFiller struct {
	Catalog *catalog.Catalog
	Now     func() time.Time
	NewID   func(time.Time) string
}

// Fill treats the turn as the value of the slot owned by the current booking
// state. A refused value re-asks the same slot; an accepted one moves to the
// next missing slot or completes the booking.
func (f *SlotFiller) Fill(s *domain.Session, in Input) Outcome {
	slot := domain.StateSlot(s.State)
	if slot == domain.SlotNone || s.Slots.Get(slot) != "" {
		// state and slots disagree; resume at the first gap
		return f.advance(s)
	}

	if !f.accept(s, slot, in) {
		return Outcome{Prompt: AskPrompt(slot), Notice: InvalidPrompt(slot)}
	}
	return f.advance(s)
}

func (f *SlotFiller) accept(s *domain.Session, slot domain.SlotName, in Input) bool {
	text := in.text()
	switch slot {
	case domain.SlotNameName:
		name, ok := ParseName(in.Utterance)
		if !ok {
			return false
		}
		s.Slots.Name = name
	case domain.SlotServiceID:
		svc, ok := f.service(s.Language, in)
		if !ok {
			return false
		}
		s.Slots.ServiceID = svc.ID
	case domain.SlotDate:
		date, ok := ParseDate(text, f.Now())
		if !ok {
			return false
		}
		s.Slots.Date = date
		if t, ok := ParseTime(text); ok {
			s.Slots.Time = t
		}
	case domain.SlotContactNumber:
		caller := in.CallerAddress
		if caller == "" {
			caller = s.CallerAddress
		}
		phone, ok := ParsePhone(text, caller)
		if !ok {
			return false
		}
		s.Slots.ContactNumber = phone
	default:
		return false
	}
	return true
}

// service resolves the service slot from the resolver's catalog match, the
// utterance, or a keypad choice numbered like the spoken service list.
func (f *SlotFiller) service(lang domain.Language, in Input) (catalog.Service, bool) {
	if id := in.Intent.Entities.ServiceID; id != "" {
		if svc, ok := f.Catalog.Lookup(id); ok {
			return svc, true
		}
	}
	if svc, ok := f.Catalog.Match(in.Utterance, lang); ok {
		return svc, true
	}
	choice := strings.TrimSpace(in.Digits)
	if choice == "" {
		choice = strings.TrimSpace(in.Utterance)
	}
	if n, err := strconv.Atoi(choice); err == nil {
		active := f.Catalog.Active()
		if n >= 1 && n <= len(active) {
			return active[n-1], true
		}
	}
	return catalog.Service{}, false
}

func (f *SlotFiller) advance(s *domain.Session) Outcome {
	next := s.Slots.NextMissing()
	if next != domain.SlotNone {
		s.State = domain.SlotState(next)
		return Outcome{Prompt: AskPrompt(next)}
	}
	return f.complete(s)
}

func (f *SlotFiller) complete(s *domain.Session) Outcome {
	now := f.Now()
	ev := &domain.BookingEvent{
		BookingID:     f.NewID(now),
		SessionID:     s.ID,
		CallerAddress: s.CallerAddress,
		Language:      s.Language,
		Slots:         s.Slots,
		CompletedAt:   now.UTC(),
	}
	if svc, ok := f.Catalog.Lookup(s.Slots.ServiceID); ok {
		ev.ServiceName = svc.Name(s.Language)
	}

	s.Bookings = append(s.Bookings, ev.BookingID)
	s.Slots.Clear()
	s.State = domain.StateMainMenu
	return Outcome{Prompt: PromptBookingConfirmed, Booking: ev}
}

// NewBookingID returns "BK", the UTC timestamp and four random digits.
func NewBookingID(now time.Time) string {
	u := uuid.New()
	suffix := binary.BigEndian.Uint32(u[:4]) % 10000
	return fmt.Sprintf("BK%s%04d", now.UTC().Format("20060102150405"), suffix)
}
