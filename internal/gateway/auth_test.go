package gateway

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/soyeahso/frontdesk/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestSafeEqual(t *testing.T) {
	assert.True(t, safeEqual("secret", "secret"))
	assert.True(t, safeEqual("", ""))
	assert.False(t, safeEqual("secret", "wrong"))
	assert.False(t, safeEqual("short", "longer-string"))
	assert.False(t, safeEqual("secret", ""))
}

func TestResolveAuth(t *testing.T) {
	tests := []struct {
		name         string
		cfg          config.GatewayAuth
		envToken     string
		envPassword  string
		wantMode     string
		wantToken    string
		wantPassword string
	}{
		{"token from config", config.GatewayAuth{Mode: AuthToken, Token: "cfg-tok"}, "env-tok", "", AuthToken, "cfg-tok", ""},
		{"token from env", config.GatewayAuth{Mode: AuthToken}, "env-tok", "env-pass", AuthToken, "env-tok", "env-pass"},
		{"password from config", config.GatewayAuth{Mode: AuthPassword, Password: "front-desk"}, "", "", AuthPassword, "", "front-desk"},
		{"mode defaults to token", config.GatewayAuth{Token: "t"}, "", "", AuthToken, "t", ""},
		{"password only picks password", config.GatewayAuth{Password: "p"}, "", "", AuthPassword, "", "p"},
		{"token wins when both set", config.GatewayAuth{}, "t", "p", AuthToken, "t", "p"},
		{"none kept", config.GatewayAuth{Mode: AuthNone}, "", "", AuthNone, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(envGatewayToken, tt.envToken)
			t.Setenv(envGatewayPassword, tt.envPassword)
			auth := ResolveAuth(tt.cfg)
			assert.Equal(t, tt.wantMode, auth.Mode)
			assert.Equal(t, tt.wantToken, auth.Token)
			assert.Equal(t, tt.wantPassword, auth.Password)
		})
	}
}

func TestAuthorize(t *testing.T) {
	token := ResolvedAuth{Mode: AuthToken, Token: "secret"}
	password := ResolvedAuth{Mode: AuthPassword, Password: "pass123"}

	tests := []struct {
		name   string
		server ResolvedAuth
		client *ConnectAuth
		ok     bool
		reason string
	}{
		{"token match", token, &ConnectAuth{Token: "secret"}, true, ""},
		{"token mismatch", token, &ConnectAuth{Token: "wrong"}, false, "token_mismatch"},
		{"token missing", token, &ConnectAuth{Password: "secret"}, false, "token required"},
		{"server token unset", ResolvedAuth{Mode: AuthToken}, &ConnectAuth{Token: "x"}, false, "server token not configured"},
		{"password match", password, &ConnectAuth{Password: "pass123"}, true, ""},
		{"password mismatch", password, &ConnectAuth{Password: "wrong"}, false, "password_mismatch"},
		{"password missing", password, &ConnectAuth{Token: "pass123"}, false, "password required"},
		{"server password unset", ResolvedAuth{Mode: AuthPassword}, &ConnectAuth{Password: "x"}, false, "server password not configured"},
		{"no credentials", token, nil, false, "no credentials provided"},
		{"unknown mode", ResolvedAuth{Mode: "oauth"}, &ConnectAuth{Token: "x"}, false, "unknown auth mode: oauth"},
		{"none accepts anyone", ResolvedAuth{Mode: AuthNone}, nil, true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Authorize(tt.server, tt.client)
			assert.Equal(t, tt.ok, res.OK)
			assert.Equal(t, tt.reason, res.Reason)
			if tt.ok {
				assert.Equal(t, tt.server.Mode, res.Method)
			}
		})
	}
}

func TestAuthorizeRequest(t *testing.T) {
	token := ResolvedAuth{Mode: AuthToken, Token: "secret"}

	req := httptest.NewRequest("POST", "/v1/turns", nil)
	req.Header.Set("Authorization", "Bearer secret")
	assert.True(t, AuthorizeRequest(token, req).OK)

	req.Header.Set("Authorization", "Bearer wrong")
	assert.False(t, AuthorizeRequest(token, req).OK)

	req.Header.Set("Authorization", "Basic c2VjcmV0")
	assert.Equal(t, "no credentials provided", AuthorizeRequest(token, req).Reason)

	req = httptest.NewRequest("POST", "/v1/calls", nil)
	req.Header.Set("Authorization", "Bearer pass123")
	res := AuthorizeRequest(ResolvedAuth{Mode: AuthPassword, Password: "pass123"}, req)
	assert.True(t, res.OK)
	assert.Equal(t, AuthPassword, res.Method)

	assert.True(t, AuthorizeRequest(ResolvedAuth{Mode: AuthNone}, httptest.NewRequest("POST", "/v1/calls", nil)).OK)
}

func TestMayCall(t *testing.T) {
	assert.True(t, mayCall(ClientBridge, "turn.send"))
	assert.True(t, mayCall(ClientWidget, "call.start"))
	assert.True(t, mayCall("", "call.complete"))
	assert.True(t, mayCall(ClientDashboard, "session.list"))
	assert.True(t, mayCall(ClientDashboard, "health"))
	assert.False(t, mayCall(ClientDashboard, "turn.send"))
	assert.False(t, mayCall(ClientDashboard, "call.start"))
}

func TestCheckWebSocketOrigin(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"bridge without origin", nil, "", true},
		{"browser when unconfigured", nil, "http://evil.example", false},
		{"wildcard", []string{"*"}, "http://anything.example", true},
		{"listed widget origin", []string{"https://lumen.example", "https://book.lumen.example"}, "https://book.lumen.example", true},
		{"unlisted origin", []string{"https://lumen.example"}, "https://evil.example", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, checkWebSocketOrigin(tt.allowed)(req))
		})
	}
}
