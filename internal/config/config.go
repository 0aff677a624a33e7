package config

import (
	"fmt"
	"time"
)

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

const (
	DefaultPort          = 18790
	DefaultMaxAgeMinutes = 30
	DefaultSweepInterval = "5m"
	DefaultUnclearCap    = 2
)

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Business: BusinessConfig{
			Name:            "Lumen Photo Studio",
			DefaultLanguage: "en",
		},
		Provider: ProviderConfig{
			Kind:           "none",
			MaxTokens:      256,
			TimeoutSeconds: 10,
		},
		Throttle: ThrottleConfig{
			MinIntervalMs: 1000,
			JobTimeoutMs:  8000,
			QueueSize:     64,
		},
		Session: SessionConfig{
			MaxAgeMinutes: DefaultMaxAgeMinutes,
			SweepInterval: DefaultSweepInterval,
		},
		Dialog: DialogConfig{
			UnclearCap:   DefaultUnclearCap,
			HistoryTurns: 4,
		},
		Gateway: GatewayConfig{
			Port: DefaultPort,
			Bind: "loopback",
			Auth: GatewayAuth{
				Mode: "token",
			},
		},
		Logging: LoggingConfig{
			Level:        "info",
			ConsoleStyle: "pretty",
		},
	}
}

// MinInterval returns the throttle's minimum dispatch spacing.
func (t ThrottleConfig) MinInterval() time.Duration {
	return time.Duration(t.MinIntervalMs) * time.Millisecond
}

// JobTimeout returns the per-request provider deadline.
func (t ThrottleConfig) JobTimeout() time.Duration {
	return time.Duration(t.JobTimeoutMs) * time.Millisecond
}

// MaxAge returns the inactivity limit after which sessions are swept.
func (s SessionConfig) MaxAge() time.Duration {
	return time.Duration(s.MaxAgeMinutes) * time.Minute
}

// Timeout returns the provider HTTP client timeout.
func (p ProviderConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}
