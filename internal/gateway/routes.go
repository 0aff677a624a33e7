package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/soyeahso/frontdesk/internal/domain"
	"github.com/soyeahso/frontdesk/internal/engine"
)

// rpcTurnTimeout bounds one turn.send, covering a queued provider call.
const rpcTurnTimeout = 30 * time.Second

// registerHTTPRoutes sets up all HTTP routes on the server mux.
func (s *Server) registerHTTPRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	mux.HandleFunc("GET /ws", s.handleWebSocket)

	mux.Handle("POST /v1/calls", s.requireAuth(s.handleCallStart))
	mux.Handle("POST /v1/turns", s.requireAuth(s.handleTurn))
	mux.Handle("POST /v1/calls/{id}/complete", s.requireAuth(s.handleCallComplete))

	// Catch-all for unknown routes
	mux.HandleFunc("/", handleNotFound)
}

// registerRPCHandlers sets up all JSON-RPC method handlers.
func (s *Server) registerRPCHandlers() {
	s.Handle("health", s.rpcHealth)
	s.Handle("call.start", s.rpcCallStart)
	s.Handle("turn.send", s.rpcTurnSend)
	s.Handle("call.complete", s.rpcCallComplete)
	s.Handle("session.list", s.rpcSessionList)
}

func (p CallStartParams) start() engine.Start {
	return engine.Start{
		SessionID:     p.SessionID,
		CallerAddress: p.CallerAddress,
		Mode:          domain.Mode(p.Mode),
		Language:      domain.Language(p.Language),
	}
}

func (p TurnParams) turn() domain.Turn {
	return domain.Turn{
		SessionID:     p.SessionID,
		CallerAddress: p.CallerAddress,
		Utterance:     p.Utterance,
		Digits:        p.Digits,
	}
}

// Built-in RPC handlers

func (s *Server) rpcHealth(rc *RequestContext) {
	var uptime int64
	if !s.startedAt.IsZero() {
		uptime = time.Since(s.startedAt).Milliseconds()
	}
	rc.Respond(HealthResponse{
		Status:   "ok",
		Version:  s.version,
		Clients:  s.clients.Count(),
		Sessions: s.engine.Store().Count(),
		UptimeMs: uptime,
	})
}

func (s *Server) rpcCallStart(rc *RequestContext) {
	var p CallStartParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}
	rc.Client.callDefaults(&p)
	reply, err := s.engine.Begin(context.Background(), p.start())
	if err != nil {
		_, code := replyStatus(err)
		rc.RespondErrorDetails(code, err.Error(), reply)
		return
	}
	rc.Client.Own(p.SessionID)
	rc.Respond(reply)
}

func (s *Server) rpcTurnSend(rc *RequestContext) {
	var p TurnParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}
	if p.SessionID == "" {
		rc.RespondError("invalid_params", "sessionId is required")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), rpcTurnTimeout)
	defer cancel()

	reply, err := s.engine.HandleTurn(ctx, p.turn())
	if err != nil {
		rc.Client.Disown(p.SessionID)
		_, code := replyStatus(err)
		rc.RespondErrorDetails(code, err.Error(), reply)
		return
	}
	if reply.Directive.Hangup {
		rc.Client.Disown(p.SessionID)
	}
	rc.Respond(reply)
}

func (s *Server) rpcCallComplete(rc *RequestContext) {
	var p CallCompleteParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}
	if p.SessionID == "" {
		rc.RespondError("invalid_params", "sessionId is required")
		return
	}
	ended := s.engine.End(context.Background(), p.SessionID)
	rc.Client.Disown(p.SessionID)
	rc.Respond(CompleteResponse{SessionID: p.SessionID, Ended: ended})
}

// sessionSummary is the session.list view of a live session; history and
// slots stay server side.
type sessionSummary struct {
	ID             string          `json:"id"`
	Mode           domain.Mode     `json:"mode"`
	Language       domain.Language `json:"language"`
	State          domain.State    `json:"state"`
	Bookings       int             `json:"bookings"`
	CreatedAt      time.Time       `json:"createdAt"`
	LastActivityAt time.Time       `json:"lastActivityAt"`
}

func (s *Server) rpcSessionList(rc *RequestContext) {
	live := s.engine.Store().List()
	out := make([]sessionSummary, 0, len(live))
	for _, sess := range live {
		out = append(out, sessionSummary{
			ID:             sess.ID,
			Mode:           sess.Mode,
			Language:       sess.Language,
			State:          sess.State,
			Bookings:       len(sess.Bookings),
			CreatedAt:      sess.CreatedAt,
			LastActivityAt: sess.LastActivityAt,
		})
	}
	rc.Respond(map[string]any{"sessions": out})
}
