package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AryaMajumder/px4-jmavsim/internal/adapters/mavlink"
	"github.com/AryaMajumder/px4-jmavsim/internal/adapters/mqtt"
)

type Config struct {
	MAVLink mavlink.Config `yaml:"mavlink"`
	MQTT    mqtt.Config    `yaml:"mqtt"`
	Bridge  BridgeConfig   `yaml:"bridge"`
	Metrics MetricsConfig  `yaml:"metrics"`

	// PasswordFile holds the broker password; it is read once at load time
	// so credentials never appear on the command line or in the YAML itself.
	PasswordFile string `yaml:"password_file"`
}

type BridgeConfig struct {
	Topic          string  `yaml:"topic"`
	RateHz         float64 `yaml:"rate_hz"`
	BufferCapacity int     `yaml:"buffer_capacity"`
}

// MetricsAddrDisabled turns the metrics listener off when used as the addr.
const MetricsAddrDisabled = "off"

type MetricsConfig struct {
	// Addr is the metrics listen address, or "off" to disable the listener.
	Addr string `yaml:"addr"`
}

// Enabled reports whether the metrics listener should be started.
func (m MetricsConfig) Enabled() bool {
	return m.Addr != "" && m.Addr != MetricsAddrDisabled
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.loadCredentials(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Bridge.Topic == "" {
		c.Bridge.Topic = "drone/telemetry"
	}
	if c.Bridge.RateHz == 0 {
		c.Bridge.RateHz = 5.0
	}
	if c.Bridge.BufferCapacity == 0 {
		c.Bridge.BufferCapacity = 200
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}

	c.MAVLink.ApplyDefaults()
	c.MQTT.ApplyDefaults()
}

// loadCredentials resolves the broker password from PasswordFile. An
// unreadable file aborts startup; no partial pipeline runs with credentials
// silently missing.
func (c *Config) loadCredentials() error {
	if c.PasswordFile == "" {
		return nil
	}
	raw, err := os.ReadFile(c.PasswordFile)
	if err != nil {
		return fmt.Errorf("read password file: %w", err)
	}
	c.MQTT.Password = strings.TrimSpace(string(raw))
	return nil
}

func (c *Config) validate() error {
	if err := c.MAVLink.Validate(); err != nil {
		return fmt.Errorf("mavlink config: %w", err)
	}
	if err := c.MQTT.Validate(); err != nil {
		return fmt.Errorf("mqtt config: %w", err)
	}
	if c.Bridge.Topic == "" {
		return fmt.Errorf("bridge.topic is required")
	}
	if c.Bridge.RateHz < 0 {
		return fmt.Errorf("bridge.rate_hz must not be negative")
	}
	if c.Bridge.BufferCapacity < 1 {
		return fmt.Errorf("bridge.buffer_capacity must be at least 1")
	}
	if c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required")
	}
	return nil
}
