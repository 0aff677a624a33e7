package gateway

import (
	"encoding/json"
	"testing"

	"github.com/soyeahso/frontdesk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequestCarriesTurn(t *testing.T) {
	frame, err := NewRequest("req-7", "turn.send", TurnParams{SessionID: "c1", Digits: "2"})
	require.NoError(t, err)
	assert.Equal(t, FrameTypeRequest, frame.Type)
	assert.Equal(t, "turn.send", frame.Method)
	assert.JSONEq(t, `{"sessionId":"c1","digits":"2"}`, string(frame.Params))
}

func TestNewRequestWithoutParams(t *testing.T) {
	frame, err := NewRequest("req-8", "session.list", nil)
	require.NoError(t, err)
	data, err := json.Marshal(frame)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"req","id":"req-8","method":"session.list"}`, string(data))
}

func TestResponseFrames(t *testing.T) {
	ok, err := NewResponse("req-1", CompleteResponse{SessionID: "c1", Ended: true})
	require.NoError(t, err)
	require.NotNil(t, ok.OK)
	assert.True(t, *ok.OK)
	assert.Nil(t, ok.Error)
	assert.JSONEq(t, `{"sessionId":"c1","ended":true}`, string(ok.Payload))

	refused := NewErrorResponse("req-2", ErrorShape{Code: "invalid_request", Message: "unknown session"})
	data, err := json.Marshal(refused)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"res","id":"req-2","ok":false,"error":{"code":"invalid_request","message":"unknown session"}}`, string(data))
}

func TestEventFrame(t *testing.T) {
	frame, err := NewEvent(EventBookingCompleted, map[string]string{"bookingId": "BK1001"}, 42)
	require.NoError(t, err)
	assert.Equal(t, FrameTypeEvent, frame.Type)
	assert.Equal(t, int64(42), frame.Seq)

	challenge, err := NewEvent(EventConnectChallenge, map[string]string{"nonce": "abc"}, 0)
	require.NoError(t, err)
	data, err := json.Marshal(challenge)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"seq"`, "the challenge precedes sequencing")
}

func TestConnectParamsFromBridge(t *testing.T) {
	raw := `{"minProtocol":1,"maxProtocol":1,"locale":"mr-IN",
		"client":{"id":"trunk-2","version":"0.9.1","platform":"asterisk","mode":"bridge"},
		"auth":{"token":"secret"}}`

	var p ConnectParams
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	assert.Equal(t, ClientBridge, p.Client.Mode)
	assert.Equal(t, "mr-IN", p.Locale)
	require.NotNil(t, p.Auth)
	assert.Equal(t, "secret", p.Auth.Token)

	p.Auth = nil
	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"auth"`)
}

func TestReplyResponseFlattensReply(t *testing.T) {
	r := ReplyResponse{Reply: domain.Reply{
		SessionID: "c1",
		Text:      "Welcome to Lumen Photo Studio.",
		Language:  domain.LanguageEnglish,
		State:     domain.StateMainMenu,
		Directive: domain.Directive{InputMode: domain.InputSpeech, TimeoutSeconds: 10},
	}}

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "c1", m["sessionId"])
	assert.Equal(t, "main_menu", m["state"])
	assert.Contains(t, m, "directive")
	assert.NotContains(t, m, "error")

	data, err = json.Marshal(ReplyResponse{Error: "invalid_request"})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"error":"invalid_request"`)
}

func TestParamsConvert(t *testing.T) {
	var p TurnParams
	require.NoError(t, json.Unmarshal([]byte(`{"sessionId":"c1","digits":"2"}`), &p))
	assert.Equal(t, domain.Turn{SessionID: "c1", Digits: "2"}, p.turn())

	st := CallStartParams{SessionID: "v1", Mode: "voice", Language: "mr"}.start()
	assert.Equal(t, domain.ModeVoice, st.Mode)
	assert.Equal(t, domain.LanguageMarathi, st.Language)
}
