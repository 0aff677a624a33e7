package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/soyeahso/frontdesk/internal/engine"
)

// maxBodyBytes bounds HTTP turn API request bodies.
const maxBodyBytes = 64 * 1024

// HealthResponse is returned by health endpoints. The public HTTP endpoint
// only populates Status; the authenticated RPC handler populates all fields.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version,omitempty"`
	Clients  int    `json:"clients,omitempty"`
	Sessions int    `json:"sessions,omitempty"`
	UptimeMs int64  `json:"uptimeMs,omitempty"`
}

// handleHealth returns the server health status. Only status is exposed
// publicly; detailed info is available via the authenticated RPC health method.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// handleNotFound returns a 404 for unknown routes.
func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "not found",
		"path":  r.URL.Path,
	})
}

// requireAuth guards the turn API with the gateway credentials, sharing the
// WebSocket brute-force limiter.
func (s *Server) requireAuth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.allow(r.RemoteAddr) {
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "too_many_requests"})
			return
		}
		res := AuthorizeRequest(s.auth, r)
		if !res.OK {
			s.limiter.fail(r.RemoteAddr)
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error":  "unauthorized",
				"reason": res.Reason,
			})
			return
		}
		next(w, r)
	})
}

// handleCallStart serves POST /v1/calls.
func (s *Server) handleCallStart(w http.ResponseWriter, r *http.Request) {
	var p CallStartParams
	if err := decodeBody(w, r, &p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_request", "message": err.Error()})
		return
	}
	noteSession(r.Context(), p.SessionID)
	reply, err := s.engine.Begin(r.Context(), p.start())
	if err != nil {
		status, code := replyStatus(err)
		writeJSON(w, status, ReplyResponse{Reply: reply, Error: code})
		return
	}
	writeJSON(w, http.StatusOK, ReplyResponse{Reply: reply})
}

// handleTurn serves POST /v1/turns.
func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	var p TurnParams
	if err := decodeBody(w, r, &p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_request", "message": err.Error()})
		return
	}
	noteSession(r.Context(), p.SessionID)
	reply, err := s.engine.HandleTurn(r.Context(), p.turn())
	if err != nil {
		status, code := replyStatus(err)
		writeJSON(w, status, ReplyResponse{Reply: reply, Error: code})
		return
	}
	writeJSON(w, http.StatusOK, ReplyResponse{Reply: reply})
}

// handleCallComplete serves POST /v1/calls/{id}/complete.
func (s *Server) handleCallComplete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	noteSession(r.Context(), id)
	writeJSON(w, http.StatusOK, CompleteResponse{
		SessionID: id,
		Ended:     s.engine.End(r.Context(), id),
	})
}

// replyStatus maps engine errors to an HTTP status and error code.
func replyStatus(err error) (int, string) {
	switch {
	case errors.Is(err, engine.ErrSessionNotFound):
		return http.StatusNotFound, "invalid_request"
	case errors.Is(err, engine.ErrInvalidSession):
		return http.StatusBadRequest, "bad_request"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, target any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(target); err != nil {
		return fmt.Errorf("decoding request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// RequestHandler processes an incoming RPC request frame from a client.
type RequestHandler func(ctx *RequestContext)

// RequestContext carries everything a handler needs.
type RequestContext struct {
	Client *Client
	Frame  Frame
	Server *Server
}

// Respond sends a success response.
func (rc *RequestContext) Respond(payload any) {
	if err := rc.Client.Respond(rc.Frame.ID, payload); err != nil {
		rc.Server.log.Warn().Err(err).Str("method", rc.Frame.Method).Msg("failed to send response")
	}
}

// RespondError sends an error response.
func (rc *RequestContext) RespondError(code, message string) {
	rc.Client.RespondError(rc.Frame.ID, ErrorShape{
		Code:    code,
		Message: message,
	})
}

// RespondErrorDetails sends an error response carrying a details payload.
func (rc *RequestContext) RespondErrorDetails(code, message string, details any) {
	rc.Client.RespondError(rc.Frame.ID, ErrorShape{
		Code:    code,
		Message: message,
		Details: details,
	})
}

// Params unmarshals the request params into the given target.
func (rc *RequestContext) Params(target any) error {
	if rc.Frame.Params == nil {
		return nil
	}
	return json.Unmarshal(rc.Frame.Params, target)
}
