package gateway

import (
	"encoding/json"

	"github.com/soyeahso/frontdesk/internal/domain"
)

// Frame types for the WebSocket protocol.
const (
	FrameTypeRequest  = "req"
	FrameTypeResponse = "res"
	FrameTypeEvent    = "event"
)

// Frame is the one envelope every WebSocket message uses. Bridges send req
// frames (call.start, turn.send); the gateway answers with res frames and
// pushes booking and session events.
type Frame struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`     // req, res
	Method  string          `json:"method,omitempty"` // req
	Params  json.RawMessage `json:"params,omitempty"` // req
	OK      *bool           `json:"ok,omitempty"`     // res
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   *ErrorShape     `json:"error,omitempty"` // res with ok=false
	Event   string          `json:"event,omitempty"` // event
	Seq     int64           `json:"seq,omitempty"`   // event
}

// ErrorShape is the standard error format in response frames.
type ErrorShape struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"` // the localized reply, for refused turns
}

// ConnectParams are sent by the client in the initial "connect" request.
// Locale, such as "hi-IN", sets the default language of calls the
// connection starts.
type ConnectParams struct {
	MinProtocol int          `json:"minProtocol"`
	MaxProtocol int          `json:"maxProtocol"`
	Client      ClientInfo   `json:"client"`
	Auth        *ConnectAuth `json:"auth,omitempty"`
	Locale      string       `json:"locale,omitempty"`
}

// ClientInfo identifies the connecting client.
type ClientInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version"`
	Platform    string `json:"platform"`
	Mode        string `json:"mode"` // ClientBridge | ClientWidget | ClientDashboard
}

// ConnectAuth carries credentials in the connect request.
type ConnectAuth struct {
	Token    string `json:"token,omitempty"`
	Password string `json:"password,omitempty"`
}

// HelloOK is the server's response payload after successful authentication.
type HelloOK struct {
	Protocol int          `json:"protocol"`
	Server   ServerInfo   `json:"server"`
	Features Features     `json:"features"`
	Policy   ServerPolicy `json:"policy"`
}

// ServerInfo identifies the gateway server.
type ServerInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit,omitempty"`
	ConnID  string `json:"connId"`
}

// Features advertises available RPC methods and events.
type Features struct {
	Methods []string `json:"methods"`
	Events  []string `json:"events"`
}

// ServerPolicy communicates protocol limits to the client.
type ServerPolicy struct {
	MaxPayload       int `json:"maxPayload"`
	MaxBufferedBytes int `json:"maxBufferedBytes"`
	TickIntervalMs   int `json:"tickIntervalMs"`
}

// rawJSON marshals a frame body; nil stays absent from the frame.
func rawJSON(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

// NewRequest builds a req frame, used by bridges and tests.
func NewRequest(id, method string, params any) (Frame, error) {
	raw, err := rawJSON(params)
	return Frame{Type: FrameTypeRequest, ID: id, Method: method, Params: raw}, err
}

// NewResponse answers request id with ok=true.
func NewResponse(id string, payload any) (Frame, error) {
	raw, err := rawJSON(payload)
	return Frame{Type: FrameTypeResponse, ID: id, OK: boolPtr(true), Payload: raw}, err
}

// NewErrorResponse answers request id with ok=false.
func NewErrorResponse(id string, errShape ErrorShape) Frame {
	return Frame{Type: FrameTypeResponse, ID: id, OK: boolPtr(false), Error: &errShape}
}

// NewEvent builds a pushed event; seq is the hook sequence number.
func NewEvent(event string, payload any, seq int64) (Frame, error) {
	raw, err := rawJSON(payload)
	return Frame{Type: FrameTypeEvent, Event: event, Payload: raw, Seq: seq}, err
}

func boolPtr(b bool) *bool { return &b }

// Protocol version supported by this server.
const ProtocolVersion = 1

// Events pushed to WebSocket clients.
const (
	EventConnectChallenge = "connect.challenge"
	EventBookingCompleted = "booking.completed"
	EventSessionEnded     = "session.ended"
)

// CallStartParams starts a session: the body of POST /v1/calls and the
// call.start params.
type CallStartParams struct {
	SessionID     string `json:"sessionId"`
	CallerAddress string `json:"callerAddress,omitempty"`
	Mode          string `json:"mode,omitempty"`     // "voice" | "chat"
	Language      string `json:"language,omitempty"` // "en" | "hi" | "mr"
}

// TurnParams carries one caller turn: the body of POST /v1/turns and the
// turn.send params. Exactly one of Utterance and Digits is usually set.
type TurnParams struct {
	SessionID     string `json:"sessionId"`
	CallerAddress string `json:"callerAddress,omitempty"`
	Utterance     string `json:"utterance,omitempty"`
	Digits        string `json:"digits,omitempty"`
}

// CallCompleteParams are the call.complete params.
type CallCompleteParams struct {
	SessionID string `json:"sessionId"`
}

// ReplyResponse is what the transport renders. Error is set only for
// requests the core refused; Text then holds the localized phrase to play.
type ReplyResponse struct {
	domain.Reply
	Error string `json:"error,omitempty"`
}

// CompleteResponse acknowledges a call-completed signal.
type CompleteResponse struct {
	SessionID string `json:"sessionId"`
	Ended     bool   `json:"ended"`
}
