package config

import (
	"fmt"
	"slices"
	"time"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue
	add := func(path, format string, args ...any) {
		issues = append(issues, ValidationIssue{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	// Business validation
	validLanguages := []string{"en", "hi", "mr"}
	if cfg.Business.DefaultLanguage != "" && !slices.Contains(validLanguages, cfg.Business.DefaultLanguage) {
		add("business.defaultLanguage", "must be one of %v, got %q", validLanguages, cfg.Business.DefaultLanguage)
	}

	// Provider validation
	validProviders := []string{"claude", "openai", "ollama", "none"}
	if cfg.Provider.Kind != "" && !slices.Contains(validProviders, cfg.Provider.Kind) {
		add("provider.kind", "must be one of %v, got %q", validProviders, cfg.Provider.Kind)
	}
	if (cfg.Provider.Kind == "claude" || cfg.Provider.Kind == "openai") && cfg.Provider.APIKey == "" {
		add("provider.apiKey", "required for provider %q", cfg.Provider.Kind)
	}
	if cfg.Provider.MaxTokens < 0 {
		add("provider.maxTokens", "must not be negative, got %d", cfg.Provider.MaxTokens)
	}
	if cfg.Provider.TimeoutSeconds < 0 {
		add("provider.timeoutSeconds", "must not be negative, got %d", cfg.Provider.TimeoutSeconds)
	}

	// Throttle validation
	if cfg.Throttle.MinIntervalMs < 0 {
		add("throttle.minIntervalMs", "must not be negative, got %d", cfg.Throttle.MinIntervalMs)
	}
	if cfg.Throttle.JobTimeoutMs < 0 {
		add("throttle.jobTimeoutMs", "must not be negative, got %d", cfg.Throttle.JobTimeoutMs)
	}
	if cfg.Throttle.QueueSize < 0 {
		add("throttle.queueSize", "must not be negative, got %d", cfg.Throttle.QueueSize)
	}

	// Session validation
	if cfg.Session.MaxAgeMinutes < 0 {
		add("session.maxAgeMinutes", "must not be negative, got %d", cfg.Session.MaxAgeMinutes)
	}
	if cfg.Session.SweepInterval != "" {
		if d, err := time.ParseDuration(cfg.Session.SweepInterval); err != nil || d <= 0 {
			add("session.sweepInterval", "must be a positive duration, got %q", cfg.Session.SweepInterval)
		}
	}

	// Dialog validation
	if cfg.Dialog.UnclearCap < 0 {
		add("dialog.unclearCap", "must not be negative, got %d", cfg.Dialog.UnclearCap)
	}
	if cfg.Dialog.HistoryTurns < 0 || cfg.Dialog.HistoryTurns > 10 {
		add("dialog.historyTurns", "must be 0-10, got %d", cfg.Dialog.HistoryTurns)
	}

	// Gateway validation
	if cfg.Gateway.Port < 0 || cfg.Gateway.Port > 65535 {
		add("gateway.port", "port must be 0-65535, got %d", cfg.Gateway.Port)
	}

	validBinds := []string{"auto", "lan", "loopback", "custom"}
	if cfg.Gateway.Bind != "" && !slices.Contains(validBinds, cfg.Gateway.Bind) {
		add("gateway.bind", "must be one of %v, got %q", validBinds, cfg.Gateway.Bind)
	}

	validAuthModes := []string{"token", "password", "none"}
	if cfg.Gateway.Auth.Mode != "" && !slices.Contains(validAuthModes, cfg.Gateway.Auth.Mode) {
		add("gateway.auth.mode", "must be one of %v, got %q", validAuthModes, cfg.Gateway.Auth.Mode)
	}
	if cfg.Gateway.TLS.Enabled && (cfg.Gateway.TLS.CertPath == "" || cfg.Gateway.TLS.KeyPath == "") {
		add("gateway.tls", "certPath and keyPath are required when TLS is enabled")
	}

	// Logging validation
	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		add("logging.level", "must be one of %v, got %q", validLogLevels, cfg.Logging.Level)
	}

	validConsoleStyles := []string{"pretty", "json"}
	if cfg.Logging.ConsoleStyle != "" && !slices.Contains(validConsoleStyles, cfg.Logging.ConsoleStyle) {
		add("logging.consoleStyle", "must be one of %v, got %q", validConsoleStyles, cfg.Logging.ConsoleStyle)
	}

	// Hooks validation
	for name, entries := range map[string][]HookEntry{
		"bookingCompleted": cfg.Hooks.BookingCompleted,
		"sessionStart":     cfg.Hooks.SessionStart,
		"sessionEnd":       cfg.Hooks.SessionEnd,
	} {
		for i, h := range entries {
			if h.Command == "" {
				add(fmt.Sprintf("hooks.%s[%d].command", name, i), "command is required")
			}
			if h.Timeout < 0 {
				add(fmt.Sprintf("hooks.%s[%d].timeout", name, i), "must not be negative, got %d", h.Timeout)
			}
		}
	}

	return issues
}
