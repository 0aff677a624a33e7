package gateway

import (
	"cmp"
	"crypto/subtle"
	"net/http"
	"os"
	"strings"

	"github.com/soyeahso/frontdesk/internal/config"
)

// Gateway auth modes.
const (
	AuthToken    = "token"
	AuthPassword = "password"
	AuthNone     = "none" // loopback-only telephony bridges
)

// Environment fallbacks for credentials left out of the config file.
const (
	envGatewayToken    = "FRONTDESK_GATEWAY_TOKEN"
	envGatewayPassword = "FRONTDESK_GATEWAY_PASSWORD"
)

// AuthResult is the outcome of an authentication attempt.
type AuthResult struct {
	OK     bool   `json:"ok"`
	Method string `json:"method,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// ResolvedAuth is the gateway's effective auth configuration.
type ResolvedAuth struct {
	Mode     string
	Token    string
	Password string
}

// ResolveAuth fills credentials from the environment when the config leaves
// them empty, and picks a mode when none is set: password if only a
// password is available, token otherwise.
func ResolveAuth(cfg config.GatewayAuth) ResolvedAuth {
	auth := ResolvedAuth{
		Mode:     cfg.Mode,
		Token:    cmp.Or(cfg.Token, os.Getenv(envGatewayToken)),
		Password: cmp.Or(cfg.Password, os.Getenv(envGatewayPassword)),
	}
	if auth.Mode == "" {
		auth.Mode = AuthToken
		if auth.Token == "" && auth.Password != "" {
			auth.Mode = AuthPassword
		}
	}
	return auth
}

// Authorize checks connect credentials against the gateway's.
func Authorize(server ResolvedAuth, client *ConnectAuth) AuthResult {
	if server.Mode == AuthNone {
		return AuthResult{OK: true, Method: AuthNone}
	}
	if client == nil {
		return AuthResult{Reason: "no credentials provided"}
	}

	var want, got string
	switch server.Mode {
	case AuthToken:
		want, got = server.Token, client.Token
	case AuthPassword:
		want, got = server.Password, client.Password
	default:
		return AuthResult{Reason: "unknown auth mode: " + server.Mode}
	}
	switch {
	case want == "":
		return AuthResult{Reason: "server " + server.Mode + " not configured"}
	case got == "":
		return AuthResult{Reason: server.Mode + " required"}
	case !safeEqual(got, want):
		return AuthResult{Reason: server.Mode + "_mismatch"}
	}
	return AuthResult{OK: true, Method: server.Mode}
}

// safeEqual compares in constant time, including when lengths differ.
func safeEqual(a, b string) bool {
	lenMatch := subtle.ConstantTimeEq(int32(len(a)), int32(len(b)))
	same := subtle.ConstantTimeCompare([]byte(a), []byte(b))
	return subtle.ConstantTimeSelect(lenMatch, same, 0) == 1
}

// AuthorizeRequest checks HTTP turn API credentials. Transports send the
// token or password as "Authorization: Bearer <secret>".
func AuthorizeRequest(server ResolvedAuth, r *http.Request) AuthResult {
	var creds *ConnectAuth
	if secret, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		creds = &ConnectAuth{Token: secret, Password: secret}
	}
	return Authorize(server, creds)
}

// dashboardMethods are the RPCs a dashboard connection may call; it watches
// calls and bookings but never drives a dialog.
var dashboardMethods = map[string]bool{
	"health":       true,
	"session.list": true,
}

// mayCall reports whether a client of the given kind may invoke method.
func mayCall(kind, method string) bool {
	return kind != ClientDashboard || dashboardMethods[method]
}
