package gateway

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/soyeahso/frontdesk/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLog() *logging.Logger {
	return logging.New(nil, "silent")
}

func TestClientRegistry(t *testing.T) {
	reg := NewClientRegistry(testLog())
	assert.Zero(t, reg.Count())

	reg.Add(&Client{ConnID: "conn-b", Info: ClientInfo{ID: "trunk-1", Mode: ClientBridge}})
	reg.Add(&Client{ConnID: "conn-a", Info: ClientInfo{ID: "site", Mode: ClientWidget}})
	assert.Equal(t, 2, reg.Count())
	assert.Equal(t, []string{"conn-a", "conn-b"}, reg.IDs())

	got, ok := reg.Get("conn-b")
	require.True(t, ok)
	assert.Equal(t, "trunk-1", got.Info.ID)

	reg.Remove("conn-b")
	reg.Remove("conn-b")
	_, ok = reg.Get("conn-b")
	assert.False(t, ok)
	assert.Equal(t, []string{"conn-a"}, reg.IDs())
}

func TestClientRegistryCloseAll(t *testing.T) {
	reg := NewClientRegistry(testLog())
	a := &Client{ConnID: "conn-1", done: make(chan struct{})}
	reg.Add(a)
	reg.Add(&Client{ConnID: "conn-2", closed: true})

	reg.CloseAll()
	assert.Zero(t, reg.Count())
	assert.ErrorIs(t, a.Send(Frame{}), ErrClientClosed)
	assert.NoError(t, a.Close(), "second close is a no-op")

	select {
	case <-a.done:
	default:
		t.Fatal("keepalive not stopped")
	}
}

func TestClientOwnsSessions(t *testing.T) {
	c := &Client{ConnID: "conn-1"}
	assert.Empty(t, c.Sessions())

	c.Own("call-2")
	c.Own("call-1")
	c.Own("call-1")
	assert.Equal(t, []string{"call-1", "call-2"}, c.Sessions())

	c.Disown("call-2")
	c.Disown("never")
	assert.Equal(t, []string{"call-1"}, c.Sessions())
}

func TestLocaleLanguage(t *testing.T) {
	tests := map[string]string{
		"hi-IN": "hi",
		"mr_IN": "mr",
		"EN":    "en",
		"en-GB": "en",
		"fr-FR": "",
		"":      "",
	}
	for in, want := range tests {
		assert.Equal(t, want, localeLanguage(in), in)
	}
}

func TestClientCallDefaults(t *testing.T) {
	tests := []struct {
		name     string
		kind     string
		locale   string
		in       CallStartParams
		wantMode string
		wantLang string
	}{
		{"bridge", ClientBridge, "mr-IN", CallStartParams{}, "voice", "mr"},
		{"widget", ClientWidget, "", CallStartParams{}, "chat", ""},
		{"dashboard leaves mode to the engine", ClientDashboard, "fr", CallStartParams{}, "", ""},
		{"explicit values kept", ClientWidget, "hi", CallStartParams{Mode: "voice", Language: "en"}, "voice", "en"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Client{Info: ClientInfo{Mode: tt.kind}, Locale: tt.locale}
			p := tt.in
			c.callDefaults(&p)
			assert.Equal(t, tt.wantMode, p.Mode)
			assert.Equal(t, tt.wantLang, p.Language)
		})
	}
}

func TestClientKeepalivePings(t *testing.T) {
	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		c := NewClient(conn, ConnectParams{}, AuthResult{OK: true}, testLog())
		defer c.Close()
		c.keepalive(10 * time.Millisecond)
		for {
			if _, err := c.ReadFrame(); err != nil && !errors.Is(err, errBadFrame) {
				return
			}
		}
	}))
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	var pings atomic.Int32
	conn.SetPingHandler(func(data string) error {
		pings.Add(1)
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	assert.Eventually(t, func() bool { return pings.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
}

func TestClientReadFrameRejectsBinary(t *testing.T) {
	upgrader := websocket.Upgrader{}
	errs := make(chan error, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		c := NewClient(conn, ConnectParams{}, AuthResult{OK: true}, testLog())
		defer c.Close()
		_, err = c.ReadFrame()
		errs <- err
	}))
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte{0x01}))

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, errBadFrame)
	case <-time.After(2 * time.Second):
		t.Fatal("no frame read")
	}
}
