package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/soyeahso/frontdesk/internal/domain"
	"github.com/soyeahso/frontdesk/internal/logging"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = tickIntervalMs * time.Millisecond
)

// Client kinds announced in ClientInfo.Mode.
const (
	ClientBridge    = "bridge"    // telephony bridge, one connection per trunk
	ClientWidget    = "widget"    // website chat widget
	ClientDashboard = "dashboard" // listens for booking events only
)

var (
	// ErrClientClosed is returned when sending on a closed connection.
	ErrClientClosed = errors.New("gateway: client connection closed")

	errBadFrame = errors.New("gateway: malformed frame")
)

// Client is one authenticated WebSocket connection: a telephony bridge, a
// chat widget, or a dashboard. It owns the calls it started; those are ended
// when it disconnects.
type Client struct {
	ConnID      string
	Info        ClientInfo
	Locale      string
	Socket      *websocket.Conn
	AuthResult  AuthResult
	ConnectedAt time.Time

	mu       sync.Mutex // serializes writes and guards the fields below
	closed   bool
	done     chan struct{}
	sessions map[string]struct{}
	log      *logging.Logger
}

// NewClient wraps a connection that completed the connect handshake.
func NewClient(conn *websocket.Conn, params ConnectParams, authResult AuthResult, log *logging.Logger) *Client {
	return &Client{
		ConnID:      uuid.New().String(),
		Info:        params.Client,
		Locale:      params.Locale,
		Socket:      conn,
		AuthResult:  authResult,
		ConnectedAt: time.Now(),
		done:        make(chan struct{}),
		log:         log,
	}
}

// callDefaults fills the mode and language a call.start left out: bridges
// carry voice calls, widgets chats, and the connect locale picks the
// language when it is one the studio speaks.
func (c *Client) callDefaults(p *CallStartParams) {
	if p.Mode == "" {
		switch c.Info.Mode {
		case ClientBridge:
			p.Mode = string(domain.ModeVoice)
		case ClientWidget:
			p.Mode = string(domain.ModeChat)
		}
	}
	if p.Language == "" {
		p.Language = localeLanguage(c.Locale)
	}
}

// localeLanguage maps "hi-IN" or "mr_IN" to a supported language code, or "".
func localeLanguage(locale string) string {
	base, _, _ := strings.Cut(strings.ToLower(locale), "-")
	base, _, _ = strings.Cut(base, "_")
	if l, ok := domain.ParseLanguage(base); ok {
		return string(l)
	}
	return ""
}

// Own records a call started on this connection.
func (c *Client) Own(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sessions == nil {
		c.sessions = make(map[string]struct{})
	}
	c.sessions[sessionID] = struct{}{}
}

// Disown forgets a call that ended, by hangup or call.complete.
func (c *Client) Disown(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, sessionID)
}

// Sessions returns the owned session IDs in sorted order.
func (c *Client) Sessions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.sessions))
	for id := range c.sessions {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Send writes a frame, giving up after writeWait so a stalled bridge cannot
// block event relays for everyone else.
func (c *Client) Send(frame Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	c.Socket.SetWriteDeadline(time.Now().Add(writeWait))
	return c.Socket.WriteJSON(frame)
}

// SendEvent sends a named event with payload.
func (c *Client) SendEvent(event string, payload any, seq int64) error {
	f, err := NewEvent(event, payload, seq)
	if err != nil {
		return err
	}
	return c.Send(f)
}

// Respond sends a success response for the given request ID.
func (c *Client) Respond(reqID string, payload any) error {
	f, err := NewResponse(reqID, payload)
	if err != nil {
		return err
	}
	return c.Send(f)
}

// RespondError sends an error response for the given request ID.
func (c *Client) RespondError(reqID string, errShape ErrorShape) error {
	return c.Send(NewErrorResponse(reqID, errShape))
}

// keepalive pings every period and expects a pong within three periods,
// so a bridge that vanished without a close frame has its calls ended.
// It must be called from the reading goroutine before the first read.
func (c *Client) keepalive(period time.Duration) {
	wait := 3 * period
	c.Socket.SetReadDeadline(time.Now().Add(wait))
	c.Socket.SetPongHandler(func(string) error {
		return c.Socket.SetReadDeadline(time.Now().Add(wait))
	})

	go func() {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-c.done:
				return
			case <-ticker.C:
				err := c.Socket.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
				if err != nil {
					c.log.Debug().Err(err).Str("connId", c.ConnID).Msg("ping failed")
					return
				}
			}
		}
	}()
}

// ReadFrame reads the next frame. Binary messages and undecodable JSON
// are reported as errBadFrame; the connection stays usable after them.
func (c *Client) ReadFrame() (Frame, error) {
	mt, msg, err := c.Socket.ReadMessage()
	if err != nil {
		return Frame{}, err
	}
	if mt != websocket.TextMessage {
		return Frame{}, fmt.Errorf("%w: binary message", errBadFrame)
	}
	var f Frame
	if err := json.Unmarshal(msg, &f); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", errBadFrame, err)
	}
	return f, nil
}

// Close closes the connection and stops the keepalive. Safe to call twice.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.done != nil {
		close(c.done)
	}
	if c.Socket == nil {
		return nil
	}
	return c.Socket.Close()
}

// ClientRegistry tracks connected clients by connection ID.
type ClientRegistry struct {
	mu      sync.RWMutex
	clients map[string]*Client
	log     *logging.Logger
}

// NewClientRegistry creates an empty client registry.
func NewClientRegistry(log *logging.Logger) *ClientRegistry {
	return &ClientRegistry{
		clients: make(map[string]*Client),
		log:     log,
	}
}

// Add registers a connected client.
func (r *ClientRegistry) Add(c *Client) {
	r.mu.Lock()
	r.clients[c.ConnID] = c
	n := len(r.clients)
	r.mu.Unlock()
	r.log.Info().
		Str("connId", c.ConnID).
		Str("client", c.Info.ID).
		Str("kind", c.Info.Mode).
		Int("connected", n).
		Msg("client connected")
}

// Remove unregisters a client by connection ID.
func (r *ClientRegistry) Remove(connID string) {
	r.mu.Lock()
	c, ok := r.clients[connID]
	delete(r.clients, connID)
	r.mu.Unlock()
	if !ok {
		return
	}
	r.log.Info().
		Str("connId", connID).
		Dur("connectedFor", time.Since(c.ConnectedAt)).
		Msg("client disconnected")
}

// Get returns a client by connection ID.
func (r *ClientRegistry) Get(connID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[connID]
	return c, ok
}

// Count returns the number of connected clients.
func (r *ClientRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// IDs returns the connection IDs of all clients in sorted order.
func (r *ClientRegistry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.clients))
	for id := range r.clients {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (r *ClientRegistry) snapshot() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	return out
}

// Broadcast sends an event to every client. Sends happen outside the
// registry lock; a failed send is logged and the client left to its reader
// to clean up.
func (r *ClientRegistry) Broadcast(event string, payload any, seq int64) {
	for _, c := range r.snapshot() {
		if err := c.SendEvent(event, payload, seq); err != nil {
			r.log.Warn().Err(err).Str("connId", c.ConnID).Str("event", event).Msg("event relay failed")
		}
	}
}

// CloseAll closes and unregisters every client.
func (r *ClientRegistry) CloseAll() {
	r.mu.Lock()
	clients := r.clients
	r.clients = make(map[string]*Client)
	r.mu.Unlock()
	for _, c := range clients {
		c.Close()
	}
}
