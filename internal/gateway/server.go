package gateway

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"time"

	"github.com/gorilla/websocket"
	"github.com/soyeahso/frontdesk/internal/config"
	"github.com/soyeahso/frontdesk/internal/engine"
	"github.com/soyeahso/frontdesk/internal/hooks"
	"github.com/soyeahso/frontdesk/internal/logging"
	"github.com/soyeahso/frontdesk/internal/metrics"
	"github.com/soyeahso/frontdesk/internal/version"
)

const (
	shutdownGrace   = 10 * time.Second
	limiterInterval = time.Minute
)

// Server is the frontdesk gateway: the HTTP turn API plus the WebSocket RPC
// channel used by telephony bridges and the chat widget.
type Server struct {
	cfg      config.Config
	auth     ResolvedAuth
	log      *logging.Logger
	clients  *ClientRegistry
	handlers map[string]RequestHandler
	version  string
	commit   string

	engine  *engine.Engine
	hooks   *hooks.Manager
	metrics *metrics.Metrics // optional; /metrics is not served when nil

	startedAt  time.Time
	httpServer *http.Server
	upgrader   websocket.Upgrader
	limiter    *authLimiter
}

// ServerOption configures the gateway server.
type ServerOption func(*Server)

// WithHooks overrides the hook manager. By default the engine's is used.
func WithHooks(hm *hooks.Manager) ServerOption {
	return func(s *Server) {
		s.hooks = hm
	}
}

// WithMetrics enables GET /metrics.
func WithMetrics(m *metrics.Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// New creates a gateway in front of eng. Nothing runs until Start.
func New(cfg config.Config, eng *engine.Engine, log *logging.Logger, opts ...ServerOption) *Server {
	ver, commit := version.Get()
	s := &Server{
		cfg:      cfg,
		auth:     ResolveAuth(cfg.Gateway.Auth),
		log:      log.Sub("gateway"),
		clients:  NewClientRegistry(log.Sub("clients")),
		handlers: make(map[string]RequestHandler),
		version:  ver,
		commit:   commit,
		engine:   eng,
		hooks:    eng.Hooks(),
		limiter:  newAuthLimiter(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:   4096,
			WriteBufferSize:  4096,
			HandshakeTimeout: handshakeTimeout,
			CheckOrigin:      checkWebSocketOrigin(cfg.Gateway.AllowedOrigins),
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.registerRPCHandlers()
	s.subscribe()
	return s
}

// relayHook names the gateway's hook subscriptions.
const relayHook = "gateway.relay"

// relayedEvents maps hook events to the WebSocket events relayed to every
// connected client, so dashboards see calls they did not start.
var relayedEvents = map[string]string{
	hooks.EventBookingCompleted: EventBookingCompleted,
	hooks.EventSessionEnd:       EventSessionEnded,
}

// subscribe relays hook events to clients. Frames carry the hook sequence
// number, so a client can order a call's events.
func (s *Server) subscribe() {
	for hookEvent, wsEvent := range relayedEvents {
		s.hooks.On(hookEvent, relayHook, func(_ context.Context, p hooks.Payload) error {
			s.clients.Broadcast(wsEvent, p.Data, p.Seq)
			return nil
		})
	}
}

func (s *Server) unsubscribe() {
	for hookEvent := range relayedEvents {
		s.hooks.Off(hookEvent, relayHook)
	}
}

// checkWebSocketOrigin accepts non-browser clients (no Origin header) and
// browsers from the configured chat widget origins.
func checkWebSocketOrigin(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || isOriginAllowed(origin, allowed)
	}
}

// Handle registers an RPC method handler.
func (s *Server) Handle(method string, handler RequestHandler) {
	s.handlers[method] = handler
}

// Methods returns the registered RPC method names, sorted.
func (s *Server) Methods() []string {
	methods := make([]string, 0, len(s.handlers))
	for m := range s.handlers {
		methods = append(methods, m)
	}
	sort.Strings(methods)
	return methods
}

// Handler returns the routes wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerHTTPRoutes(mux)
	return withMiddleware(mux, s.log, s.cfg.Gateway.AllowedOrigins)
}

// resolveBindAddr computes the listen address from config.
func resolveBindAddr(cfg config.GatewayConfig) string {
	host := "127.0.0.1"
	switch cfg.Bind {
	case "lan", "auto":
		host = "0.0.0.0"
	case "custom":
		host = cfg.CustomBindHost
		if host == "" {
			host = "0.0.0.0"
		}
	}
	return net.JoinHostPort(host, fmt.Sprint(cfg.Port))
}

// listen opens the gateway socket, wrapped in TLS when configured.
func (s *Server) listen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", addr, err)
	}
	tlsCfg := s.cfg.Gateway.TLS
	if !tlsCfg.Enabled {
		if s.cfg.Gateway.Bind != "loopback" && s.auth.Mode != "none" {
			s.log.Warn().Msg("TLS is off; gateway credentials travel in cleartext")
		}
		return ln, nil
	}
	cert, err := tls.LoadX509KeyPair(tlsCfg.CertPath, tlsCfg.KeyPath)
	if err != nil {
		ln.Close()
		return nil, fmt.Errorf("loading TLS certificate: %w", err)
	}
	return tls.NewListener(ln, &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}), nil
}

// Start serves until ctx is cancelled. On shutdown every WebSocket client is
// dropped, which ends the calls they carried.
func (s *Server) Start(ctx context.Context) error {
	ln, err := s.listen(resolveBindAddr(s.cfg.Gateway))
	if err != nil {
		return err
	}
	addr := ln.Addr().String()

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      rpcTurnTimeout + 5*time.Second,
		IdleTimeout:       2 * time.Minute,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	s.startedAt = time.Now()
	go s.limiter.run(ctx, limiterInterval)

	s.log.Info().
		Str("addr", addr).
		Str("auth", s.auth.Mode).
		Bool("tls", s.cfg.Gateway.TLS.Enabled).
		Strs("methods", s.Methods()).
		Msg("gateway listening")
	s.hooks.Emit(ctx, hooks.EventGatewayStart, map[string]any{"addr": addr})

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		s.shutdown()
	}()

	err = s.httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		<-stopped
		return nil
	}
	return err
}

func (s *Server) shutdown() {
	s.log.Info().Int("clients", s.clients.Count()).Msg("gateway shutting down")
	s.unsubscribe()
	s.hooks.Emit(context.Background(), hooks.EventGatewayStop, nil)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	s.clients.CloseAll()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.log.Warn().Err(err).Msg("gateway shutdown incomplete")
	}
}
