package domain

// SlotName identifies one booking field.
type SlotName string

const (
	SlotNone          SlotName = ""
	SlotNameName      SlotName = "name"
	SlotServiceID     SlotName = "serviceId"
	SlotDate          SlotName = "date"
	SlotTime          SlotName = "time"
	SlotContactNumber SlotName = "contactNumber"
)

// RequiredSlots is the fixed collection order of the booking flow.
var RequiredSlots = []SlotName{SlotNameName, SlotServiceID, SlotDate, SlotContactNumber}

// Slots holds the booking fields collected so far.
type Slots struct {
	Name          string `json:"name,omitempty"`
	ServiceID     string `json:"serviceId,omitempty"`
	Date          string `json:"date,omitempty"` // YYYY-MM-DD
	Time          string `json:"time,omitempty"` // HH:MM, optional
	ContactNumber string `json:"contactNumber,omitempty"`
}

// Get returns the value of the named slot.
func (s Slots) Get(name SlotName) string {
	switch name {
	case SlotNameName:
		return s.Name
	case SlotServiceID:
		return s.ServiceID
	case SlotDate:
		return s.Date
	case SlotTime:
		return s.Time
	case SlotContactNumber:
		return s.ContactNumber
	}
	return ""
}

// Set assigns the named slot.
func (s *Slots) Set(name SlotName, value string) {
	switch name {
	case SlotNameName:
		s.Name = value
	case SlotServiceID:
		s.ServiceID = value
	case SlotDate:
		s.Date = value
	case SlotTime:
		s.Time = value
	case SlotContactNumber:
		s.ContactNumber = value
	}
}

// Missing returns the unfilled required slots in collection order.
func (s Slots) Missing() []SlotName {
	var out []SlotName
	for _, name := range RequiredSlots {
		if s.Get(name) == "" {
			out = append(out, name)
		}
	}
	return out
}

// NextMissing returns the first unfilled required slot, or "" when complete.
func (s Slots) NextMissing() SlotName {
	if m := s.Missing(); len(m) > 0 {
		return m[0]
	}
	return SlotNone
}

// Complete reports whether every required slot is filled.
func (s Slots) Complete() bool {
	return len(s.Missing()) == 0
}

// Empty reports whether no slot holds a value.
func (s Slots) Empty() bool {
	return s == Slots{}
}

// SlotState returns the dialog state that collects the named slot.
func SlotState(name SlotName) State {
	switch name {
	case SlotNameName:
		return StateBookingStart
	case SlotServiceID:
		return StateBookingService
	case SlotDate:
		return StateBookingDate
	case SlotContactNumber:
		return StateBookingContact
	}
	return StateMainMenu
}

// StateSlot returns the slot collected in a booking state.
func StateSlot(s State) SlotName {
	switch s {
	case StateBookingStart:
		return SlotNameName
	case StateBookingService:
		return SlotServiceID
	case StateBookingDate:
		return SlotDate
	case StateBookingContact:
		return SlotContactNumber
	}
	return SlotNone
}

// Clear resets every slot.
func (s *Slots) Clear() {
	*s = Slots{}
}
