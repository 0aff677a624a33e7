package config

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// expandSensitiveFields processes environment variable references in
// credential fields so keys and tokens can be stored as ${ENV_VAR}.
func expandSensitiveFields(cfg *Config) {
	cfg.Gateway.Auth.Token = expandEnvVars(cfg.Gateway.Auth.Token)
	cfg.Gateway.Auth.Password = expandEnvVars(cfg.Gateway.Auth.Password)
	cfg.Provider.APIKey = expandEnvVars(cfg.Provider.APIKey)
	cfg.Provider.Endpoint = expandEnvVars(cfg.Provider.Endpoint)
}

// Load reads the config file, applies environment overrides, and returns
// a merged Config. Missing files produce defaults only.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	cfg, err = decode(data)
	if err != nil {
		return cfg, err
	}
	applyEnvOverrides(&cfg)
	expandSensitiveFields(&cfg)
	return cfg, nil
}

// Decode turns a raw map, as edited by "config set", into a Config with
// defaults filled in. Environment overrides and ${VAR} references are left
// alone so validation reflects what is in the file.
func Decode(raw map[string]any) (Config, error) {
	data, err := yaml.Marshal(raw)
	if err != nil {
		return Defaults(), err
	}
	return decode(data)
}

func decode(data []byte) (Config, error) {
	cfg := Defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}
	applyDefaults(&cfg)
	return cfg, nil
}

// LoadRaw reads the config file into a generic map for path-based access.
func LoadRaw(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}
	return raw, nil
}

// SaveRaw writes a generic map back to a YAML config file.
func SaveRaw(path string, raw map[string]any) error {
	data, err := yaml.Marshal(raw)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// applyDefaults fills zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	d := Defaults()
	if cfg.Business.Name == "" {
		cfg.Business.Name = d.Business.Name
	}
	if cfg.Business.DefaultLanguage == "" {
		cfg.Business.DefaultLanguage = d.Business.DefaultLanguage
	}
	if cfg.Provider.Kind == "" {
		cfg.Provider.Kind = d.Provider.Kind
	}
	if cfg.Provider.MaxTokens == 0 {
		cfg.Provider.MaxTokens = d.Provider.MaxTokens
	}
	if cfg.Provider.TimeoutSeconds == 0 {
		cfg.Provider.TimeoutSeconds = d.Provider.TimeoutSeconds
	}
	if cfg.Throttle.MinIntervalMs == 0 {
		cfg.Throttle.MinIntervalMs = d.Throttle.MinIntervalMs
	}
	if cfg.Throttle.JobTimeoutMs == 0 {
		cfg.Throttle.JobTimeoutMs = d.Throttle.JobTimeoutMs
	}
	if cfg.Throttle.QueueSize == 0 {
		cfg.Throttle.QueueSize = d.Throttle.QueueSize
	}
	if cfg.Session.MaxAgeMinutes == 0 {
		cfg.Session.MaxAgeMinutes = DefaultMaxAgeMinutes
	}
	if cfg.Session.SweepInterval == "" {
		cfg.Session.SweepInterval = DefaultSweepInterval
	}
	if cfg.Dialog.UnclearCap == 0 {
		cfg.Dialog.UnclearCap = DefaultUnclearCap
	}
	if cfg.Dialog.HistoryTurns == 0 {
		cfg.Dialog.HistoryTurns = d.Dialog.HistoryTurns
	}
	if cfg.Gateway.Port == 0 {
		cfg.Gateway.Port = DefaultPort
	}
	if cfg.Gateway.Bind == "" {
		cfg.Gateway.Bind = "loopback"
	}
	if cfg.Gateway.Auth.Mode == "" {
		cfg.Gateway.Auth.Mode = "token"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.ConsoleStyle == "" {
		cfg.Logging.ConsoleStyle = "pretty"
	}
}

// applyEnvOverrides reads FRONTDESK_* environment variables and overrides config values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FRONTDESK_GATEWAY_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Gateway.Port = port
		}
	}
	if v := os.Getenv("FRONTDESK_GATEWAY_BIND"); v != "" {
		cfg.Gateway.Bind = v
	}
	if v := os.Getenv("FRONTDESK_GATEWAY_TOKEN"); v != "" {
		cfg.Gateway.Auth.Token = v
	}
	if v := os.Getenv("FRONTDESK_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("FRONTDESK_PROVIDER"); v != "" {
		cfg.Provider.Kind = strings.ToLower(v)
	}
	if v := os.Getenv("FRONTDESK_PROVIDER_API_KEY"); v != "" {
		cfg.Provider.APIKey = v
	}
	if v := os.Getenv("FRONTDESK_PROVIDER_MODEL"); v != "" {
		cfg.Provider.Model = v
	}
	if v := os.Getenv("FRONTDESK_CATALOG"); v != "" {
		cfg.Business.CatalogPath = v
	}
	if v := os.Getenv("FRONTDESK_STRICT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Dialog.Strict = b
		}
	}
}
