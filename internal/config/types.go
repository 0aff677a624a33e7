package config

// Config is the root configuration for frontdesk.
type Config struct {
	Business BusinessConfig `yaml:"business,omitempty"`
	Provider ProviderConfig `yaml:"provider,omitempty"`
	Throttle ThrottleConfig `yaml:"throttle,omitempty"`
	Session  SessionConfig  `yaml:"session,omitempty"`
	Dialog   DialogConfig   `yaml:"dialog,omitempty"`
	Gateway  GatewayConfig  `yaml:"gateway,omitempty"`
	Store    StoreConfig    `yaml:"store,omitempty"`
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
	Hooks    HooksConfig    `yaml:"hooks,omitempty"`
	Metrics  MetricsConfig  `yaml:"metrics,omitempty"`
}

// BusinessConfig identifies the business the receptionist answers for.
type BusinessConfig struct {
	Name            string `yaml:"name,omitempty"`
	CatalogPath     string `yaml:"catalogPath,omitempty"`     // empty = embedded default catalog
	DefaultLanguage string `yaml:"defaultLanguage,omitempty"` // "en" | "hi" | "mr"
}

// ProviderConfig selects and configures the language-model provider.
type ProviderConfig struct {
	Kind           string `yaml:"kind,omitempty"` // "claude" | "openai" | "ollama" | "none"
	APIKey         string `yaml:"apiKey,omitempty"`
	Model          string `yaml:"model,omitempty"`
	Endpoint       string `yaml:"endpoint,omitempty"` // custom base URL
	MaxTokens      int    `yaml:"maxTokens,omitempty"`
	TimeoutSeconds int    `yaml:"timeoutSeconds,omitempty"` // HTTP client timeout
}

// ThrottleConfig controls the shared provider request queue.
type ThrottleConfig struct {
	MinIntervalMs int `yaml:"minIntervalMs,omitempty"`
	JobTimeoutMs  int `yaml:"jobTimeoutMs,omitempty"`
	QueueSize     int `yaml:"queueSize,omitempty"`
}

// SessionConfig defines session expiry.
type SessionConfig struct {
	MaxAgeMinutes int    `yaml:"maxAgeMinutes,omitempty"`
	SweepInterval string `yaml:"sweepInterval,omitempty"` // cron "@every" duration, e.g. "5m"
}

// DialogConfig tunes the dialog state machine.
type DialogConfig struct {
	UnclearCap   int  `yaml:"unclearCap,omitempty"`
	HistoryTurns int  `yaml:"historyTurns,omitempty"` // turns of history sent to the provider
	Strict       bool `yaml:"strict,omitempty"`       // surface invariant violations instead of degrading
}

// GatewayConfig controls the gateway HTTP/WebSocket server.
type GatewayConfig struct {
	Port           int         `yaml:"port,omitempty"`
	Bind           string      `yaml:"bind,omitempty"` // "auto" | "lan" | "loopback" | "custom"
	CustomBindHost string      `yaml:"customBindHost,omitempty"`
	Auth           GatewayAuth `yaml:"auth,omitempty"`
	TLS            GatewayTLS  `yaml:"tls,omitempty"`
	AllowedOrigins []string    `yaml:"allowedOrigins,omitempty"`
}

// GatewayAuth configures gateway authentication.
type GatewayAuth struct {
	Mode     string `yaml:"mode,omitempty"` // "token" | "password" | "none"
	Token    string `yaml:"token,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// GatewayTLS configures TLS for the gateway.
type GatewayTLS struct {
	Enabled  bool   `yaml:"enabled,omitempty"`
	CertPath string `yaml:"certPath,omitempty"`
	KeyPath  string `yaml:"keyPath,omitempty"`
}

// StoreConfig configures the booking database.
type StoreConfig struct {
	Path string `yaml:"path,omitempty"` // empty = <home>/data/frontdesk.db
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	File         string `yaml:"file,omitempty"`
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "json"
}

// HooksConfig defines command hooks run on engine events.
type HooksConfig struct {
	BookingCompleted []HookEntry `yaml:"bookingCompleted,omitempty"`
	SessionStart     []HookEntry `yaml:"sessionStart,omitempty"`
	SessionEnd       []HookEntry `yaml:"sessionEnd,omitempty"`
}

// HookEntry defines a single hook action.
type HookEntry struct {
	Command string `yaml:"command"`
	Timeout int    `yaml:"timeout,omitempty"` // milliseconds
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Disabled bool `yaml:"disabled,omitempty"`
}
