package utils

import (
	"fmt"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/benmeehan/drone-examples/internal/constants"
	"github.com/benmeehan/drone-examples/pkg/file"
	"github.com/benmeehan/drone-examples/pkg/mavsdk"
)

// Config represents the structure of the configuration file.
type Config struct {
	Log LogConfig `yaml:"log"`

	Connection struct {
		DiscoveryTimeout time.Duration `yaml:"discovery_timeout"` // How long to wait for the first heartbeat
		CommandTimeout   time.Duration `yaml:"command_timeout"`   // Timeout per command attempt
		CommandRetries   int           `yaml:"command_retries"`   // Resends after the first attempt
		SystemID         uint8         `yaml:"system_id"`         // Our MAVLink system ID
		ComponentID      uint8         `yaml:"component_id"`      // Our MAVLink component ID
	} `yaml:"connection"`

	Telemetry struct {
		PositionRateHz float64 `yaml:"position_rate_hz"` // Requested position update rate
	} `yaml:"telemetry"`

	Mission struct {
		PlanFile string `yaml:"plan_file"` // YAML mission plan; empty uses the built-in plan
	} `yaml:"mission"`

	Firmware struct {
		MinVersion string `yaml:"min_version"` // Semver constraint, e.g. ">= 1.13"
	} `yaml:"firmware"`

	MQTT struct {
		Enabled       bool          `yaml:"enabled"`        // Publish vehicle position over MQTT
		Broker        string        `yaml:"broker"`         // MQTT broker address
		ClientID      string        `yaml:"client_id"`      // MQTT client ID prefix
		CACertificate string        `yaml:"ca_certificate"` // Path to the CA certificate, empty for plain TCP
		Topic         string        `yaml:"topic"`          // Topic for position messages
		QOS           int           `yaml:"qos"`            // MQTT QoS level for position messages
		Interval      time.Duration `yaml:"interval"`       // Interval between position messages
	} `yaml:"mqtt"`

	NMEA struct {
		Enabled  bool          `yaml:"enabled"`   // Write GGA sentences to a serial port
		Port     string        `yaml:"port"`      // Serial device, e.g. /dev/ttyUSB1
		BaudRate int           `yaml:"baud_rate"` // Serial baud rate
		Interval time.Duration `yaml:"interval"`  // Interval between sentences
	} `yaml:"nmea"`
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level  string `yaml:"level"`  // trace, debug, info, warn, error
	Format string `yaml:"format"` // console or json
}

// DefaultConfig returns the settings used when no configuration file is given.
func DefaultConfig() *Config {
	sdk := mavsdk.DefaultConfiguration()

	var config Config
	config.Log = LogConfig{Level: "info", Format: "console"}
	config.Connection.DiscoveryTimeout = constants.DiscoveryTimeout
	config.Connection.CommandTimeout = sdk.CommandTimeout
	config.Connection.CommandRetries = sdk.CommandRetries
	config.Connection.SystemID = sdk.SystemID
	config.Connection.ComponentID = sdk.ComponentID
	config.Telemetry.PositionRateHz = constants.PositionRateHz
	config.MQTT.ClientID = "drone-examples"
	config.MQTT.Topic = constants.DefaultMQTTTopic
	config.MQTT.Interval = constants.DefaultMQTTInterval
	config.NMEA.BaudRate = constants.DefaultNMEABaudRate
	config.NMEA.Interval = constants.DefaultNMEAInterval
	return &config
}

// LoadConfig loads the YAML configuration from the specified file on top of
// the defaults. It returns a pointer to the Config struct and an error if
// loading or validation fails.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	config := DefaultConfig()
	if err := fileClient.ReadYamlFile(filename, config); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", filename, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", filename, err)
	}
	return config, nil
}

// Validate checks values that would otherwise fail late, mid-flight.
func (c *Config) Validate() error {
	if c.Connection.DiscoveryTimeout <= 0 {
		return fmt.Errorf("connection.discovery_timeout must be positive")
	}
	if c.Connection.CommandTimeout <= 0 {
		return fmt.Errorf("connection.command_timeout must be positive")
	}
	if c.Connection.CommandRetries < 0 {
		return fmt.Errorf("connection.command_retries must not be negative")
	}
	if c.Telemetry.PositionRateHz < 0 {
		return fmt.Errorf("telemetry.position_rate_hz must not be negative")
	}
	if c.Firmware.MinVersion != "" {
		if _, err := semver.NewConstraint(c.Firmware.MinVersion); err != nil {
			return fmt.Errorf("firmware.min_version: %w", err)
		}
	}
	if c.MQTT.Enabled {
		if c.MQTT.Broker == "" {
			return fmt.Errorf("mqtt.broker is required when mqtt is enabled")
		}
		if c.MQTT.QOS < 0 || c.MQTT.QOS > 2 {
			return fmt.Errorf("mqtt.qos must be 0, 1 or 2")
		}
		if c.MQTT.Interval <= 0 {
			return fmt.Errorf("mqtt.interval must be positive")
		}
	}
	if c.NMEA.Enabled {
		if c.NMEA.Port == "" {
			return fmt.Errorf("nmea.port is required when nmea is enabled")
		}
		if c.NMEA.Interval <= 0 {
			return fmt.Errorf("nmea.interval must be positive")
		}
	}
	return nil
}

// SDKConfiguration returns the SDK settings derived from the connection section.
func (c *Config) SDKConfiguration() mavsdk.Configuration {
	sdk := mavsdk.DefaultConfiguration()
	sdk.SystemID = c.Connection.SystemID
	sdk.ComponentID = c.Connection.ComponentID
	sdk.CommandTimeout = c.Connection.CommandTimeout
	sdk.CommandRetries = c.Connection.CommandRetries
	return sdk
}
