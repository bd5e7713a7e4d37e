package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/c360/topiclens/errors"
)

// EnvPrefix namespaces environment variable overrides.
const EnvPrefix = "TOPICLENS"

// Config is the complete application configuration.
type Config struct {
	Broker  BrokerConfig  `json:"broker"`
	Limits  LimitsConfig  `json:"limits"`
	Backoff BackoffConfig `json:"backoff"`
	Gateway GatewayConfig `json:"gateway"`
	Persist PersistConfig `json:"persist"`
}

// BrokerConfig defines the MQTT broker connection.
type BrokerConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	UseTLS          bool          `json:"use_tls"`
	ClientID        string        `json:"client_id,omitempty"`
	Username        string        `json:"username,omitempty"`
	Token           string        `json:"token,omitempty"`
	SubscribeTopics []string      `json:"subscribe_topics,omitempty"`
	QoS             byte          `json:"qos"`
	KeepAlive       time.Duration `json:"keep_alive,omitempty"`
}

// URI renders the broker address for the MQTT client.
func (b BrokerConfig) URI() string {
	scheme := "tcp"
	if b.UseTLS {
		scheme = "ssl"
	}
	return scheme + "://" + b.Host + ":" + strconv.Itoa(b.Port)
}

// EffectiveUsername falls back to the client id, matching brokers that
// authenticate on client identity.
func (b BrokerConfig) EffectiveUsername() string {
	if b.Username != "" {
		return b.Username
	}
	return b.ClientID
}

// LimitsConfig bounds the in-memory state kept per subsystem.
type LimitsConfig struct {
	MessageLogSize   int           `json:"message_log_size"`
	StatsWindow      time.Duration `json:"stats_window"`
	SeriesPoints     int           `json:"series_points"`
	LatencySamples   int           `json:"latency_samples"`
	SchemaChanges    int           `json:"schema_changes"`
	DeviceWindow     time.Duration `json:"device_window"`
	DeviceStaleAfter time.Duration `json:"device_stale_after"`
	HealthyRate      float64       `json:"healthy_rate"`
	WarningRate      float64       `json:"warning_rate"`
	DevicePatterns   []string      `json:"device_patterns,omitempty"`
}

// BackoffConfig shapes the reconnection strategy.
type BackoffConfig struct {
	BaseDelay    time.Duration `json:"base_delay"`
	MaxDelay     time.Duration `json:"max_delay"`
	MaxAttempts  uint          `json:"max_attempts"`
	JitterFactor float64       `json:"jitter_factor"`
}

// GatewayConfig defines the HTTP API surface.
type GatewayConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"`
}

// PersistConfig locates the user data file.
type PersistConfig struct {
	Path string `json:"path,omitempty"`
}

// Default returns the stock configuration for a local broker.
func Default() *Config {
	return &Config{
		Broker: BrokerConfig{
			Host:            "localhost",
			Port:            1883,
			ClientID:        "topiclens-" + uuid.NewString()[:8],
			SubscribeTopics: []string{"#"},
			QoS:             0,
			KeepAlive:       30 * time.Second,
		},
		Limits: LimitsConfig{
			MessageLogSize:   100,
			StatsWindow:      10 * time.Second,
			SeriesPoints:     100,
			LatencySamples:   100,
			SchemaChanges:    50,
			DeviceWindow:     time.Minute,
			DeviceStaleAfter: 5 * time.Minute,
			HealthyRate:      1.0,
			WarningRate:      0.1,
		},
		Backoff: BackoffConfig{
			BaseDelay:    5 * time.Second,
			MaxDelay:     60 * time.Second,
			MaxAttempts:  0,
			JitterFactor: 0.1,
		},
		Gateway: GatewayConfig{
			Enabled: true,
			Addr:    ":8080",
		},
		Persist: PersistConfig{},
	}
}

// Load reads a JSON config file, fills defaults, applies environment
// overrides and validates the result. An empty path yields defaults
// plus overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.WrapInvalid(err, "Config", "Load", "read config file")
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, errors.WrapInvalid(errors.ErrParsingFailed, "Config", "Load", "parse config file: "+err.Error())
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides layers TOPICLENS_* environment variables on top of
// file values.
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv(EnvPrefix + "_BROKER_HOST"); val != "" {
		cfg.Broker.Host = val
	}
	if val := os.Getenv(EnvPrefix + "_BROKER_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			cfg.Broker.Port = port
		}
	}
	if val := os.Getenv(EnvPrefix + "_CLIENT_ID"); val != "" {
		cfg.Broker.ClientID = val
	}
	if val := os.Getenv(EnvPrefix + "_USERNAME"); val != "" {
		cfg.Broker.Username = val
	}
	if val := os.Getenv(EnvPrefix + "_TOKEN"); val != "" {
		cfg.Broker.Token = val
	}
	if val := os.Getenv(EnvPrefix + "_TOPICS"); val != "" {
		cfg.Broker.SubscribeTopics = strings.Split(val, ",")
	}
	if val := os.Getenv(EnvPrefix + "_GATEWAY_ADDR"); val != "" {
		cfg.Gateway.Addr = val
	}
	if val := os.Getenv(EnvPrefix + "_PERSIST_PATH"); val != "" {
		cfg.Persist.Path = val
	}
}

// Validate checks the configuration for usability.
func (c *Config) Validate() error {
	if c.Broker.Host == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate", "broker host is required")
	}
	if c.Broker.Port <= 0 || c.Broker.Port > 65535 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "broker port out of range")
	}
	if c.Broker.QoS > 2 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "qos must be 0, 1 or 2")
	}
	if len(c.Broker.SubscribeTopics) == 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "at least one subscription is required")
	}
	if c.Limits.MessageLogSize <= 0 || c.Limits.SeriesPoints <= 0 ||
		c.Limits.LatencySamples <= 0 || c.Limits.SchemaChanges <= 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "limits must be positive")
	}
	if c.Limits.StatsWindow <= 0 || c.Limits.DeviceWindow <= 0 || c.Limits.DeviceStaleAfter <= 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "windows must be positive")
	}
	if c.Limits.WarningRate < 0 || c.Limits.HealthyRate < c.Limits.WarningRate {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "rate thresholds must satisfy 0 <= warning <= healthy")
	}
	if c.Backoff.BaseDelay <= 0 || c.Backoff.MaxDelay < c.Backoff.BaseDelay {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "backoff delays must satisfy 0 < base <= max")
	}
	if c.Backoff.JitterFactor < 0 || c.Backoff.JitterFactor > 1 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "jitter factor must be in [0, 1]")
	}
	if c.Gateway.Enabled && c.Gateway.Addr == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "gateway address is required when enabled")
	}
	return nil
}

// SaveToFile writes the configuration as indented JSON.
func (c *Config) SaveToFile(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.WrapInvalid(err, "Config", "SaveToFile", "marshal config")
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.WrapTransient(err, "Config", "SaveToFile", "write config file")
	}
	return nil
}
