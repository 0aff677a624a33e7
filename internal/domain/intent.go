package domain

// IntentLabel is a coarse classification of what the caller wants.
type IntentLabel string

const (
	IntentBooking  IntentLabel = "booking"
	IntentTracking IntentLabel = "tracking"
	IntentPricing  IntentLabel = "pricing"
	IntentGoodbye  IntentLabel = "goodbye"
	IntentHelp     IntentLabel = "help"
	IntentGeneral  IntentLabel = "general"
)

// IntentLabels lists every label a resolver may return.
var IntentLabels = []IntentLabel{
	IntentBooking,
	IntentTracking,
	IntentPricing,
	IntentGoodbye,
	IntentHelp,
	IntentGeneral,
}

// Valid reports whether l is a known label.
func (l IntentLabel) Valid() bool {
	for _, x := range IntentLabels {
		if l == x {
			return true
		}
	}
	return false
}

// Entities are values scanned out of the raw utterance.
type Entities struct {
	Phone       string   `json:"phone,omitempty"`
	Date        string   `json:"date,omitempty"` // as written, dd-mm-yyyy shaped
	OrderNumber string   `json:"orderNumber,omitempty"`
	ServiceID   string   `json:"serviceId,omitempty"`
	Language    Language `json:"language,omitempty"`
}

// Intent is the resolver's classification of one turn.
type Intent struct {
	Label      IntentLabel `json:"label"`
	Confidence float64     `json:"confidence"`
	Entities   Entities    `json:"entities"`
	Source     string      `json:"source"` // cascade step that produced the label
	// Reply is a free-form answer from the language model, if it gave one.
	Reply string `json:"reply,omitempty"`
}

// Unclear reports whether the intent carries no actionable classification.
func (i Intent) Unclear() bool {
	return i.Label == "" || i.Label == IntentGeneral
}
