package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	handshakeTimeout = 10 * time.Second
	maxPayload       = 1 << 20 // turns are short text; 1MB is generous
	maxBuffered      = 4 << 20
	tickIntervalMs   = 30000
)

var errHandshake = errors.New("gateway: handshake rejected")

// handleWebSocket upgrades GET /ws, authenticates the connection and serves
// RPC frames until it closes. Calls the connection started and did not
// complete are ended when it goes away.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.allow(r.RemoteAddr) {
		s.log.Warn().Str("remote", r.RemoteAddr).Msg("websocket refused: too many failed logins")
		http.Error(w, "too many requests", http.StatusTooManyRequests)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already written the HTTP error
		s.log.Debug().Err(err).Str("remote", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}
	conn.SetReadLimit(maxPayload)

	client, err := s.handshake(conn)
	if err != nil {
		s.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("websocket handshake failed")
		if errors.Is(err, errHandshake) {
			s.limiter.fail(r.RemoteAddr)
		}
		conn.Close()
		return
	}

	s.clients.Add(client)
	defer s.hangup(client)
	client.keepalive(pingPeriod)
	s.readLoop(client)
}

// hangup unregisters a client and ends every call it still owns.
func (s *Server) hangup(client *Client) {
	s.clients.Remove(client.ConnID)
	client.Close()
	for _, id := range client.Sessions() {
		if s.engine.End(context.Background(), id) {
			s.log.Info().Str("connId", client.ConnID).Str("sessionId", id).Msg("call ended by disconnect")
		}
	}
}

// handshake runs challenge -> connect -> hello. Protocol and credential
// rejections wrap errHandshake; I/O failures do not.
func (s *Server) handshake(conn *websocket.Conn) (*Client, error) {
	conn.SetReadDeadline(time.Now().Add(handshakeTimeout))

	challenge, err := NewEvent(EventConnectChallenge, map[string]any{
		"nonce": uuid.New().String(),
		"ts":    time.Now().UnixMilli(),
	}, 0)
	if err != nil {
		return nil, err
	}
	if err := conn.WriteJSON(challenge); err != nil {
		return nil, fmt.Errorf("sending challenge: %w", err)
	}

	var frame Frame
	if err := conn.ReadJSON(&frame); err != nil {
		return nil, fmt.Errorf("reading connect: %w", err)
	}
	params, reject := parseConnect(frame)
	if reject != nil {
		sendErrorAndClose(conn, frame.ID, *reject)
		return nil, fmt.Errorf("%w: %s", errHandshake, reject.Message)
	}

	auth := Authorize(s.auth, params.Auth)
	if !auth.OK {
		sendErrorAndClose(conn, frame.ID, ErrorShape{Code: "unauthorized", Message: auth.Reason})
		return nil, fmt.Errorf("%w: %s", errHandshake, auth.Reason)
	}
	conn.SetReadDeadline(time.Time{})

	client := NewClient(conn, params, auth, s.log.Sub("ws"))
	resp, err := NewResponse(frame.ID, s.hello(client))
	if err != nil {
		return nil, err
	}
	if err := conn.WriteJSON(resp); err != nil {
		return nil, fmt.Errorf("sending hello: %w", err)
	}

	s.log.Info().
		Str("connId", client.ConnID).
		Str("client", params.Client.ID).
		Str("clientMode", params.Client.Mode).
		Str("authMethod", auth.Method).
		Msg("client authenticated")
	return client, nil
}

// parseConnect validates the first frame of a connection. A non-nil shape
// is the error to send back.
func parseConnect(frame Frame) (ConnectParams, *ErrorShape) {
	var params ConnectParams
	if frame.Type != FrameTypeRequest || frame.Method != "connect" {
		return params, &ErrorShape{Code: "protocol_error", Message: "expected connect request"}
	}
	if len(frame.Params) > 0 {
		if err := json.Unmarshal(frame.Params, &params); err != nil {
			return params, &ErrorShape{Code: "invalid_params", Message: "invalid connect params"}
		}
	}
	if params.MaxProtocol != 0 && (params.MinProtocol > ProtocolVersion || params.MaxProtocol < ProtocolVersion) {
		return params, &ErrorShape{
			Code:    "protocol_error",
			Message: fmt.Sprintf("server speaks protocol %d", ProtocolVersion),
		}
	}
	return params, nil
}

func (s *Server) hello(client *Client) HelloOK {
	return HelloOK{
		Protocol: ProtocolVersion,
		Server: ServerInfo{
			Version: s.version,
			Commit:  s.commit,
			ConnID:  client.ConnID,
		},
		Features: Features{
			Methods: s.Methods(),
			Events:  []string{EventConnectChallenge, EventBookingCompleted, EventSessionEnded},
		},
		Policy: ServerPolicy{
			MaxPayload:       maxPayload,
			MaxBufferedBytes: maxBuffered,
			TickIntervalMs:   tickIntervalMs,
		},
	}
}

// readLoop serves request frames in arrival order, so one bridge's turns for
// a call are answered in the order it sent them.
func (s *Server) readLoop(client *Client) {
	for {
		frame, err := client.ReadFrame()
		if errors.Is(err, errBadFrame) {
			client.RespondError("", ErrorShape{Code: "invalid_frame", Message: err.Error()})
			continue
		}
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug().Str("connId", client.ConnID).Msg("client closed connection")
			} else {
				s.log.Warn().Err(err).Str("connId", client.ConnID).Msg("read error")
			}
			return
		}
		if frame.Type != FrameTypeRequest {
			continue
		}
		s.dispatch(client, frame)
	}
}

func (s *Server) dispatch(client *Client, frame Frame) {
	if !mayCall(client.Info.Mode, frame.Method) {
		client.RespondError(frame.ID, ErrorShape{
			Code:    "forbidden",
			Message: client.Info.Mode + " clients may not call " + frame.Method,
		})
		return
	}
	handler, ok := s.handlers[frame.Method]
	if !ok {
		client.RespondError(frame.ID, ErrorShape{
			Code:    "method_not_found",
			Message: "unknown method: " + frame.Method,
		})
		return
	}
	handler(&RequestContext{Client: client, Frame: frame, Server: s})
}

// sendErrorAndClose answers a rejected handshake and closes politely.
func sendErrorAndClose(conn *websocket.Conn, reqID string, shape ErrorShape) {
	conn.WriteJSON(NewErrorResponse(reqID, shape))
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, shape.Message),
		time.Now().Add(time.Second))
}
