// ABOUTME: Configuration loading and parsing for the relay hub
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete hub configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Gateways GatewaysConfig `yaml:"gateways"`
	Relay    RelayConfig    `yaml:"relay"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds listen address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
	RTMPAddr string `yaml:"rtmp_addr"`
}

// GatewaysConfig holds gateway liveness timing configuration.
// The heartbeat timeout is advisory: it feeds the online flag in the
// reporting API and never evicts registry entries.
type GatewaysConfig struct {
	HeartbeatInterval time.Duration `yaml:"-"`
	HeartbeatTimeout  time.Duration `yaml:"-"`

	// Raw string values for YAML unmarshaling
	HeartbeatIntervalRaw string `yaml:"heartbeat_interval"`
	HeartbeatTimeoutRaw  string `yaml:"heartbeat_timeout"`
}

// RelayConfig holds per-connection transport tuning
type RelayConfig struct {
	// SendBuffer is the outbound queue length per connection. A broadcast
	// skips a connection whose queue is full rather than block on it.
	SendBuffer int `yaml:"send_buffer"`

	// ReadLimit caps the size of a single inbound message in bytes.
	ReadLimit int64 `yaml:"read_limit"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults applied when the corresponding config values are absent.
const (
	DefaultSendBuffer        = 64
	DefaultReadLimit         = 1 << 20 // 1 MiB
	DefaultHeartbeatInterval = 30 * time.Second
	DefaultHeartbeatTimeout  = 90 * time.Second
)

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// applyDefaults fills in defaults for optional tuning values.
func (c *Config) applyDefaults() {
	if c.Relay.SendBuffer <= 0 {
		c.Relay.SendBuffer = DefaultSendBuffer
	}
	if c.Relay.ReadLimit <= 0 {
		c.Relay.ReadLimit = DefaultReadLimit
	}
	if c.Gateways.HeartbeatInterval == 0 {
		c.Gateways.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.Gateways.HeartbeatTimeout == 0 {
		c.Gateways.HeartbeatTimeout = DefaultHeartbeatTimeout
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}
	if c.Server.RTMPAddr == "" {
		return fmt.Errorf("server.rtmp_addr is required")
	}
	if c.Gateways.HeartbeatTimeout < c.Gateways.HeartbeatInterval {
		return fmt.Errorf("gateways.heartbeat_timeout must be at least heartbeat_interval")
	}
	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Gateways.HeartbeatIntervalRaw != "" {
		cfg.Gateways.HeartbeatInterval, err = time.ParseDuration(cfg.Gateways.HeartbeatIntervalRaw)
		if err != nil {
			return fmt.Errorf("parsing heartbeat_interval %q: %w", cfg.Gateways.HeartbeatIntervalRaw, err)
		}
	}

	if cfg.Gateways.HeartbeatTimeoutRaw != "" {
		cfg.Gateways.HeartbeatTimeout, err = time.ParseDuration(cfg.Gateways.HeartbeatTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing heartbeat_timeout %q: %w", cfg.Gateways.HeartbeatTimeoutRaw, err)
		}
	}

	return nil
}
