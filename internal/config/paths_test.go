package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfigPath(t *testing.T) {
	tests := []struct {
		input   string
		want    []string
		wantErr bool
	}{
		{"business", []string{"business"}, false},
		{"gateway.auth.mode", []string{"gateway", "auth", "mode"}, false},
		{"", nil, true},
		{"session..timeout", nil, true},
		{".gateway", nil, true},
		{"gateway.", nil, true},
		{"catalog.__proto__.price", nil, true},
		{"constructor", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseConfigPath(tt.input)
			if tt.wantErr {
				var ce *ConfigError
				assert.ErrorAs(t, err, &ce)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func testRaw() map[string]any {
	return map[string]any{
		"business": map[string]any{"name": "Lumen Studio"},
		"gateway": map[string]any{
			"port": 18790,
			"auth": map[string]any{"mode": "token"},
		},
		"provider": "openai",
	}
}

func TestGetValueAtPath(t *testing.T) {
	raw := testRaw()
	tests := []struct {
		path []string
		want any
		ok   bool
	}{
		{[]string{"business", "name"}, "Lumen Studio", true},
		{[]string{"gateway", "auth", "mode"}, "token", true},
		{[]string{"provider"}, "openai", true},
		{[]string{"store"}, nil, false},
		{[]string{"gateway", "bind"}, nil, false},
		{[]string{"provider", "model"}, nil, false},
	}
	for _, tt := range tests {
		val, ok := GetValueAtPath(raw, tt.path)
		assert.Equal(t, tt.ok, ok, tt.path)
		assert.Equal(t, tt.want, val, tt.path)
	}
}

func TestSetValueAtPath(t *testing.T) {
	raw := testRaw()

	SetValueAtPath(raw, []string{"gateway", "port"}, 9000)
	SetValueAtPath(raw, []string{"session", "timeout"}, "30m")
	SetValueAtPath(raw, []string{"provider", "name"}, "ollama")

	v, _ := GetValueAtPath(raw, []string{"gateway", "port"})
	assert.Equal(t, 9000, v)
	v, _ = GetValueAtPath(raw, []string{"session", "timeout"})
	assert.Equal(t, "30m", v, "intermediate maps are created")
	v, _ = GetValueAtPath(raw, []string{"provider", "name"})
	assert.Equal(t, "ollama", v, "a scalar in the way is replaced")
	v, _ = GetValueAtPath(raw, []string{"gateway", "auth", "mode"})
	assert.Equal(t, "token", v, "siblings survive")
}

func TestUnsetValueAtPath(t *testing.T) {
	raw := testRaw()

	assert.True(t, UnsetValueAtPath(raw, []string{"gateway", "port"}))
	assert.False(t, UnsetValueAtPath(raw, []string{"gateway", "port"}))
	assert.False(t, UnsetValueAtPath(raw, []string{"store", "path"}))
	assert.False(t, UnsetValueAtPath(raw, []string{"provider", "apiKey"}))

	_, ok := GetValueAtPath(raw, []string{"gateway", "auth"})
	assert.True(t, ok)
}

func TestResolvePaths(t *testing.T) {
	t.Run("default home", func(t *testing.T) {
		t.Setenv("FRONTDESK_HOME", "")
		p, err := ResolvePaths()
		require.NoError(t, err)

		home, _ := os.UserHomeDir()
		base := filepath.Join(home, ".frontdesk")
		assert.Equal(t, base, p.Base)
		assert.Equal(t, filepath.Join(base, "config.yaml"), p.Config)
		assert.Equal(t, filepath.Join(base, "data", "frontdesk.db"), p.DB)
	})

	t.Run("FRONTDESK_HOME", func(t *testing.T) {
		t.Setenv("FRONTDESK_HOME", "/srv/lumen")
		p, err := ResolvePaths()
		require.NoError(t, err)
		assert.Equal(t, Paths{
			Base:   "/srv/lumen",
			Config: "/srv/lumen/config.yaml",
			Logs:   "/srv/lumen/logs",
			Data:   "/srv/lumen/data",
			DB:     "/srv/lumen/data/frontdesk.db",
		}, p)
	})
}

func TestStorePath(t *testing.T) {
	p := Paths{DB: "/var/lib/frontdesk/frontdesk.db"}
	assert.Equal(t, "/var/lib/frontdesk/frontdesk.db", p.StorePath(StoreConfig{}))
	assert.Equal(t, "/srv/bookings.db", p.StorePath(StoreConfig{Path: "/srv/bookings.db"}))
}

func TestLogPath(t *testing.T) {
	p := Paths{Logs: "/srv/lumen/logs"}
	tests := map[string]string{
		"":                          "",
		"frontdesk.log":             "/srv/lumen/logs/frontdesk.log",
		"/var/log/frontdesk.log":    "/var/log/frontdesk.log",
		filepath.Join("x", "a.log"): filepath.Join("x", "a.log"),
	}
	for in, want := range tests {
		assert.Equal(t, want, p.LogPath(LoggingConfig{File: in}), in)
	}
}

func TestEnsureDirs(t *testing.T) {
	dir := t.TempDir()
	p := Paths{
		Base: dir,
		Logs: filepath.Join(dir, "logs"),
		Data: filepath.Join(dir, "data"),
	}

	require.NoError(t, p.EnsureDirs())
	require.NoError(t, p.EnsureDirs())
	for _, d := range []string{p.Logs, p.Data} {
		info, err := os.Stat(d)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
		assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())
	}
}

func TestIsSecretPath(t *testing.T) {
	assert.True(t, IsSecretPath([]string{"provider", "apiKey"}))
	assert.True(t, IsSecretPath([]string{"gateway", "auth", "token"}))
	assert.True(t, IsSecretPath([]string{"gateway", "auth", "password"}))
	assert.False(t, IsSecretPath([]string{"gateway", "auth", "mode"}))
	assert.False(t, IsSecretPath([]string{"provider"}))
}
