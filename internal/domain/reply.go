package domain

// InputMode tells the transport what kind of input to gather next.
type InputMode string

const (
	InputSpeech     InputMode = "speech"
	InputDTMF       InputMode = "dtmf"
	InputSpeechDTMF InputMode = "speech_dtmf"
	InputNone       InputMode = "none"
)

// Directive is the structured next-expected-input instruction of a reply.
type Directive struct {
	InputMode      InputMode `json:"inputMode"`
	TimeoutSeconds int       `json:"timeoutSeconds,omitempty"`
	NextRoute      string    `json:"nextRoute,omitempty"`
	Hangup         bool      `json:"hangup,omitempty"`
}

// Reply is what the core hands back to the transport for one turn.
type Reply struct {
	SessionID string    `json:"sessionId"`
	Text      string    `json:"text"`
	Language  Language  `json:"language"`
	State     State     `json:"state"`
	Directive Directive `json:"directive"`
}

// Turn is one inbound caller utterance or keypad entry.
type Turn struct {
	SessionID     string `json:"sessionId"`
	CallerAddress string `json:"callerAddress,omitempty"`
	Utterance     string `json:"utterance,omitempty"`
	Digits        string `json:"digits,omitempty"`
}

// Empty reports whether the turn carries no input.
func (t Turn) Empty() bool {
	return t.Utterance == "" && t.Digits == ""
}
