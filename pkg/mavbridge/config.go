package mavbridge

import (
	"github.com/AryaMajumder/px4-jmavsim/internal/adapters/mavlink"
	"github.com/AryaMajumder/px4-jmavsim/internal/adapters/mqtt"
	"github.com/AryaMajumder/px4-jmavsim/internal/app/config"
)

// Config re-exports the root configuration struct so downstream projects can
// construct or modify it programmatically.
type Config = config.Config

type (
	// BridgeConfig holds topic, publish rate, and buffer sizing.
	BridgeConfig = config.BridgeConfig
	// MAVLinkConfig holds the vehicle link connection details.
	MAVLinkConfig = mavlink.Config
	// MQTTConfig holds the broker connection details.
	MQTTConfig = mqtt.Config
	// MetricsConfig configures the metrics HTTP server.
	MetricsConfig = config.MetricsConfig
)

// LoadConfig loads YAML from disk using the internal config reader.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}
