package gateway

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/soyeahso/frontdesk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rpc sends a request and reads until its response, collecting any events
// pushed in between.
func rpc(t *testing.T, conn *websocket.Conn, id, method string, params any) (Frame, []Frame) {
	t.Helper()
	req, err := NewRequest(id, method, params)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(req))

	var events []Frame
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	defer conn.SetReadDeadline(time.Time{})
	for {
		var f Frame
		require.NoError(t, conn.ReadJSON(&f))
		if f.Type == FrameTypeEvent {
			events = append(events, f)
			continue
		}
		require.Equal(t, id, f.ID)
		return f, events
	}
}

// nextEvent reads frames until the named event arrives.
func nextEvent(t *testing.T, conn *websocket.Conn, event string) Frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	defer conn.SetReadDeadline(time.Time{})
	for {
		var f Frame
		require.NoError(t, conn.ReadJSON(&f))
		if f.Type == FrameTypeEvent && f.Event == event {
			return f
		}
	}
}

func decodePayload[T any](t *testing.T, f Frame) T {
	t.Helper()
	require.NotNil(t, f.OK)
	require.True(t, *f.OK, "expected ok response, got %+v", f.Error)
	var v T
	require.NoError(t, json.Unmarshal(f.Payload, &v))
	return v
}

func TestServerMethods(t *testing.T) {
	srv, _ := testServer(t)
	assert.Equal(t, []string{"call.complete", "call.start", "health", "session.list", "turn.send"}, srv.Methods())
}

func TestRPCHealth(t *testing.T) {
	_, ts := testServer(t)
	conn := authenticatedConn(t, ts)

	resp, _ := rpc(t, conn, "req-1", "health", nil)
	health := decodePayload[HealthResponse](t, resp)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "dev", health.Version)
	assert.Equal(t, 1, health.Clients)
}

func TestRPCUnknownMethod(t *testing.T) {
	_, ts := testServer(t)
	conn := authenticatedConn(t, ts)

	resp, _ := rpc(t, conn, "req-1", "chat.send", nil)
	require.NotNil(t, resp.OK)
	assert.False(t, *resp.OK)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "method_not_found", resp.Error.Code)
}

func TestRPCCallFlow(t *testing.T) {
	srv, ts := testServer(t)
	conn := authenticatedConn(t, ts)

	resp, _ := rpc(t, conn, "req-1", "call.start", CallStartParams{SessionID: "w1", Mode: "chat"})
	greeting := decodePayload[domain.Reply](t, resp)
	assert.Equal(t, domain.StateMainMenu, greeting.State)
	assert.Contains(t, greeting.Text, "Welcome to Lumen Photo Studio")

	resp, _ = rpc(t, conn, "req-2", "turn.send", TurnParams{SessionID: "w1", Utterance: "I want to book a wedding shoot"})
	r := decodePayload[domain.Reply](t, resp)
	assert.Equal(t, domain.StateBookingStart, r.State)

	resp, _ = rpc(t, conn, "req-3", "session.list", nil)
	list := decodePayload[struct {
		Sessions []sessionSummary `json:"sessions"`
	}](t, resp)
	require.Len(t, list.Sessions, 1)
	assert.Equal(t, "w1", list.Sessions[0].ID)
	assert.Equal(t, domain.StateBookingStart, list.Sessions[0].State)
	assert.Equal(t, domain.ModeChat, list.Sessions[0].Mode)

	resp, _ = rpc(t, conn, "req-4", "call.complete", CallCompleteParams{SessionID: "w1"})
	done := decodePayload[CompleteResponse](t, resp)
	assert.True(t, done.Ended)
	assert.Zero(t, srv.engine.Store().Count())

	ev := nextEvent(t, conn, EventSessionEnded)
	var data map[string]any
	require.NoError(t, json.Unmarshal(ev.Payload, &data))
	assert.Equal(t, "w1", data["sessionId"])
	assert.Equal(t, "complete", data["reason"])
}

func TestRPCTurnUnknownSession(t *testing.T) {
	_, ts := testServer(t)
	conn := authenticatedConn(t, ts)

	resp, _ := rpc(t, conn, "req-1", "turn.send", TurnParams{SessionID: "ghost", Digits: "1"})
	require.NotNil(t, resp.OK)
	assert.False(t, *resp.OK)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "invalid_request", resp.Error.Code)

	// the localized phrase travels in the details so the bridge can play it
	raw, err := json.Marshal(resp.Error.Details)
	require.NoError(t, err)
	var reply domain.Reply
	require.NoError(t, json.Unmarshal(raw, &reply))
	assert.Contains(t, reply.Text, "this call could not be found")
}

func TestRPCParamsValidation(t *testing.T) {
	_, ts := testServer(t)
	conn := authenticatedConn(t, ts)

	tests := []struct {
		method string
		params any
		code   string
	}{
		{"turn.send", TurnParams{}, "invalid_params"},
		{"call.complete", CallCompleteParams{}, "invalid_params"},
		{"call.start", CallStartParams{SessionID: "x", Mode: "fax"}, "bad_request"},
		{"turn.send", "not an object", "invalid_params"},
	}
	for i, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			resp, _ := rpc(t, conn, "req-"+string(rune('a'+i)), tt.method, tt.params)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestRPCBookingBroadcast(t *testing.T) {
	_, ts := testServer(t)
	bridge := authenticatedConn(t, ts)
	watcher := authenticatedConn(t, ts)

	resp, _ := rpc(t, bridge, "req-1", "call.start", CallStartParams{SessionID: "b1", Mode: "chat"})
	decodePayload[domain.Reply](t, resp)
	for i, u := range []string{
		"I want to book a wedding shoot",
		"My name is Asha",
		"wedding",
		"tomorrow at 5pm",
		"98765 43210",
	} {
		resp, _ = rpc(t, bridge, "turn-"+string(rune('a'+i)), "turn.send", TurnParams{SessionID: "b1", Utterance: u})
		decodePayload[domain.Reply](t, resp)
	}
	r := decodePayload[domain.Reply](t, resp)
	assert.Contains(t, r.Text, "Your booking ID is BK")

	ev := nextEvent(t, watcher, EventBookingCompleted)
	var data map[string]any
	require.NoError(t, json.Unmarshal(ev.Payload, &data))
	assert.Equal(t, "b1", data["sessionId"])
	assert.Equal(t, "Asha", data["name"])
	assert.Equal(t, "wedding", data["serviceId"])
	assert.Greater(t, ev.Seq, int64(0))
}

func TestDisconnectEndsOwnedSessions(t *testing.T) {
	srv, ts := testServer(t)
	conn := authenticatedConn(t, ts)

	resp, _ := rpc(t, conn, "req-1", "call.start", CallStartParams{SessionID: "d1"})
	decodePayload[domain.Reply](t, resp)
	resp, _ = rpc(t, conn, "req-2", "call.start", CallStartParams{SessionID: "d2", Mode: "chat"})
	decodePayload[domain.Reply](t, resp)
	require.Equal(t, 2, srv.engine.Store().Count())

	conn.Close()

	assert.Eventually(t, func() bool {
		return srv.engine.Store().Count() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHangupReleasesOwnership(t *testing.T) {
	srv, ts := testServer(t)
	conn := authenticatedConn(t, ts)

	resp, _ := rpc(t, conn, "req-1", "call.start", CallStartParams{SessionID: "h1", Mode: "chat"})
	decodePayload[domain.Reply](t, resp)
	resp, _ = rpc(t, conn, "req-2", "turn.send", TurnParams{SessionID: "h1", Utterance: "goodbye"})
	r := decodePayload[domain.Reply](t, resp)
	require.True(t, r.Directive.Hangup)

	clients := srv.clients.IDs()
	require.Len(t, clients, 1)
	c, ok := srv.clients.Get(clients[0])
	require.True(t, ok)
	assert.Empty(t, c.Sessions())
}

func TestRPCCallStartDefaultsFromConnection(t *testing.T) {
	srv, ts := testServer(t)
	widget := connectAs(t, ts, ClientInfo{ID: "site-widget", Version: "2.1.0", Platform: "web", Mode: ClientWidget}, "hi-IN")

	resp, _ := rpc(t, widget, "req-1", "call.start", CallStartParams{SessionID: "w9"})
	decodePayload[domain.Reply](t, resp)

	sess, err := srv.engine.Store().Get("w9")
	require.NoError(t, err)
	assert.Equal(t, domain.ModeChat, sess.Mode)
	assert.Equal(t, domain.LanguageHindi, sess.Language)

	resp, _ = rpc(t, widget, "req-2", "call.start", CallStartParams{SessionID: "w10", Mode: "voice", Language: "mr"})
	decodePayload[domain.Reply](t, resp)
	sess, err = srv.engine.Store().Get("w10")
	require.NoError(t, err)
	assert.Equal(t, domain.ModeVoice, sess.Mode, "explicit params win")
	assert.Equal(t, domain.LanguageMarathi, sess.Language)
}

func TestRPCMalformedFrameKeepsConnection(t *testing.T) {
	_, ts := testServer(t)
	conn := authenticatedConn(t, ts)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{turn.send")))
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var f Frame
	require.NoError(t, conn.ReadJSON(&f))
	require.NotNil(t, f.Error)
	assert.Equal(t, "invalid_frame", f.Error.Code)

	resp, _ := rpc(t, conn, "req-1", "health", nil)
	assert.Equal(t, "ok", decodePayload[HealthResponse](t, resp).Status)
}

func TestRPCDashboardIsReadOnly(t *testing.T) {
	srv, ts := testServer(t)
	dash := connectAs(t, ts, ClientInfo{ID: "front-office", Version: "1.0.0", Platform: "web", Mode: ClientDashboard}, "")

	resp, _ := rpc(t, dash, "req-1", "call.start", CallStartParams{SessionID: "x1", Mode: "chat"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, "forbidden", resp.Error.Code)
	assert.Zero(t, srv.engine.Store().Count())

	resp, _ = rpc(t, dash, "req-2", "session.list", nil)
	decodePayload[map[string]any](t, resp)
}
