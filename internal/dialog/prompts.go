package dialog

import "github.com/soyeahso/frontdesk/internal/domain"

// Prompt names a pre-authored message the composer renders.
type Prompt string

const (
	PromptNone             Prompt = ""
	PromptLanguageMenu     Prompt = "language_menu"
	PromptWelcome          Prompt = "welcome"
	PromptMainMenu         Prompt = "main_menu"
	PromptAskName          Prompt = "ask_name"
	PromptAskService       Prompt = "ask_service"
	PromptAskDate          Prompt = "ask_date"
	PromptAskContact       Prompt = "ask_contact"
	PromptInvalidName      Prompt = "invalid_name"
	PromptInvalidService   Prompt = "invalid_service"
	PromptInvalidDate      Prompt = "invalid_date"
	PromptInvalidContact   Prompt = "invalid_contact"
	PromptBookingConfirmed Prompt = "booking_confirmed"
	PromptAskOrder         Prompt = "ask_order"
	PromptTrackingStatus   Prompt = "tracking_status"
	PromptTrackingNotFound Prompt = "tracking_not_found"
	PromptTrackingFailed   Prompt = "tracking_failed"
	PromptPriceList        Prompt = "price_list"
	PromptAnswer           Prompt = "answer"
	PromptUnclear          Prompt = "unclear"
	PromptEscalated        Prompt = "escalated"
	PromptGoodbye          Prompt = "goodbye"
	PromptTechnical        Prompt = "technical_difficulty"
	PromptInvalidRequest   Prompt = "invalid_request"
)

// AskPrompt returns the question that collects a slot.
func AskPrompt(slot domain.SlotName) Prompt {
	switch slot {
	case domain.SlotNameName:
		return PromptAskName
	case domain.SlotServiceID:
		return PromptAskService
	case domain.SlotDate:
		return PromptAskDate
	case domain.SlotContactNumber:
		return PromptAskContact
	}
	return PromptMainMenu
}

// InvalidPrompt returns the hint given when a slot value is refused.
func InvalidPrompt(slot domain.SlotName) Prompt {
	switch slot {
	case domain.SlotNameName:
		return PromptInvalidName
	case domain.SlotServiceID:
		return PromptInvalidService
	case domain.SlotDate:
		return PromptInvalidDate
	case domain.SlotContactNumber:
		return PromptInvalidContact
	}
	return PromptUnclear
}

// StatePrompt is the question a state asks when re-prompted.
func StatePrompt(s domain.State) Prompt {
	switch s {
	case domain.StateLanguageSelection:
		return PromptLanguageMenu
	case domain.StateTrackingStart:
		return PromptAskOrder
	case domain.StatePricing:
		return PromptPriceList
	case domain.StateGoodbye:
		return PromptGoodbye
	}
	if s.InBooking() {
		return AskPrompt(domain.StateSlot(s))
	}
	return PromptMainMenu
}
